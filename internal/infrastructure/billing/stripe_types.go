package billing

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus mirrors Stripe's subscription status vocabulary for
// the platform plan a club is on. Distinct from the club-member
// subscription lifecycle in the membership domain.
type SubscriptionStatus string

const (
	SubscriptionStatusActive            SubscriptionStatus = "active"
	SubscriptionStatusPastDue           SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled          SubscriptionStatus = "canceled"
	SubscriptionStatusIncomplete        SubscriptionStatus = "incomplete"
	SubscriptionStatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	SubscriptionStatusTrialing          SubscriptionStatus = "trialing"
	SubscriptionStatusUnpaid            SubscriptionStatus = "unpaid"
	SubscriptionStatusPaused            SubscriptionStatus = "paused"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

// IsActive treats trialing as active: the club has full access during a
// trial.
func (s SubscriptionStatus) IsActive() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusTrialing
}

type CreateCustomerInput struct {
	TenantID        uuid.UUID
	Email           string
	Name            string
	Phone           string
	Description     string
	Metadata        map[string]string
	TaxExempt       bool
	PreferredLocale string
}

type CreateCustomerOutput struct {
	CustomerID string
	Email      string
	Name       string
	CreatedAt  time.Time
}

type CreateSubscriptionInput struct {
	TenantID         uuid.UUID
	CustomerID       string // Stripe customer ID
	PlanID           string // plan tier (basic, pro, enterprise)
	PriceID          string // looked up from config when empty
	TrialDays        int    // 0 means no trial
	Metadata         map[string]string
	PaymentMethod    string
	CollectionMethod string // "charge_automatically" or "send_invoice"
}

type CreateSubscriptionOutput struct {
	SubscriptionID     string
	CustomerID         string
	Status             SubscriptionStatus
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	TrialStart         *time.Time
	TrialEnd           *time.Time
	CancelAtPeriodEnd  bool
	// ClientSecret is set for incomplete subscriptions that still need a
	// payment confirmation on the frontend.
	ClientSecret    string
	LatestInvoiceID string
}

// UpdateSubscriptionInput covers plan changes (up- or downgrade) and
// flipping cancel-at-period-end.
type UpdateSubscriptionInput struct {
	TenantID          uuid.UUID
	SubscriptionID    string
	NewPriceID        string
	NewPlanID         string
	ProrationBehavior string // "create_prorations", "none", "always_invoice"
	CancelAtPeriodEnd bool
	Metadata          map[string]string
}

type UpdateSubscriptionOutput struct {
	SubscriptionID     string
	Status             SubscriptionStatus
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelAtPeriodEnd  bool
	PreviousPriceID    string
	NewPriceID         string
}

type CancelSubscriptionInput struct {
	TenantID       uuid.UUID
	SubscriptionID string
	// CancelAtPeriodEnd false cancels immediately.
	CancelAtPeriodEnd bool
	Reason            string
}

type CancelSubscriptionOutput struct {
	SubscriptionID    string
	Status            SubscriptionStatus
	CanceledAt        *time.Time
	CancelAtPeriodEnd bool
	CurrentPeriodEnd  time.Time
}

type GetSubscriptionStatusInput struct {
	TenantID       uuid.UUID
	SubscriptionID string
}

type GetSubscriptionStatusOutput struct {
	SubscriptionID       string
	CustomerID           string
	Status               SubscriptionStatus
	PriceID              string
	ProductID            string
	CurrentPeriodStart   time.Time
	CurrentPeriodEnd     time.Time
	TrialStart           *time.Time
	TrialEnd             *time.Time
	CancelAt             *time.Time
	CanceledAt           *time.Time
	CancelAtPeriodEnd    bool
	StartDate            time.Time
	EndedAt              *time.Time
	DaysUntilDue         int
	LatestInvoiceID      string
	DefaultPaymentMethod string
}
