package membership

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/liyaqa/backend/internal/domain/shared"
)

// SubscriptionFilter defines filtering options for subscription queries
type SubscriptionFilter struct {
	shared.Filter
	MemberID  *uuid.UUID
	PlanID    *uuid.UUID
	Status    *SubscriptionStatus
	AutoRenew *bool
	EndingBy  *time.Time // subscriptions whose end date falls on or before
}

// SubscriptionRepository defines the interface for subscription persistence
type SubscriptionRepository interface {
	// FindByID finds a subscription by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Subscription, error)

	// FindByIDForTenant finds a subscription by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Subscription, error)

	// FindByMember finds subscriptions for a member
	FindByMember(ctx context.Context, tenantID, memberID uuid.UUID, filter SubscriptionFilter) ([]Subscription, error)

	// FindAllForTenant finds all subscriptions for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter SubscriptionFilter) ([]Subscription, error)

	// FindExpiring finds ACTIVE subscriptions whose end date has passed at the given time
	FindExpiring(ctx context.Context, now time.Time, limit int) ([]Subscription, error)

	// FindDueForCancellation finds subscriptions whose deferred cancellation is effective at the given time
	FindDueForCancellation(ctx context.Context, now time.Time, limit int) ([]Subscription, error)

	// CountByMember counts all subscriptions a member ever had
	CountByMember(ctx context.Context, tenantID, memberID uuid.UUID) (int64, error)

	// Save creates or updates a subscription
	Save(ctx context.Context, subscription *Subscription) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, subscription *Subscription) error

	// CountForTenant counts subscriptions for a tenant with optional filters
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter SubscriptionFilter) (int64, error)
}

// ContractFilter defines filtering options for contract queries
type ContractFilter struct {
	shared.Filter
	MemberID *uuid.UUID
	Status   *ContractStatus
}

// ContractRepository defines the interface for membership contract persistence
type ContractRepository interface {
	// FindByID finds a contract by ID
	FindByID(ctx context.Context, id uuid.UUID) (*MembershipContract, error)

	// FindByIDForTenant finds a contract by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*MembershipContract, error)

	// FindBySubscription finds the contract linked to a subscription, if any
	FindBySubscription(ctx context.Context, tenantID, subscriptionID uuid.UUID) (*MembershipContract, error)

	// FindAllForTenant finds all contracts for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ContractFilter) ([]MembershipContract, error)

	// Save creates or updates a contract
	Save(ctx context.Context, contract *MembershipContract) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, contract *MembershipContract) error
}
