package membership

import (
	"time"

	"github.com/google/uuid"
	"github.com/liyaqa/backend/internal/domain/shared"
)

// ContractCreatedEvent is raised when a new contract is drafted
type ContractCreatedEvent struct {
	shared.BaseDomainEvent
	ContractID       uuid.UUID `json:"contract_id"`
	ContractNumber   string    `json:"contract_number"`
	MemberID         uuid.UUID `json:"member_id"`
	PlanID           uuid.UUID `json:"plan_id"`
	CommitmentMonths int       `json:"commitment_months"`
}

// EventType returns the event type name
func (e *ContractCreatedEvent) EventType() string {
	return "ContractCreated"
}

// NewContractCreatedEvent creates a new ContractCreatedEvent
func NewContractCreatedEvent(c *MembershipContract) *ContractCreatedEvent {
	return &ContractCreatedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("ContractCreated", "MembershipContract", c.ID, c.TenantID),
		ContractID:       c.ID,
		ContractNumber:   c.ContractNumber,
		MemberID:         c.MemberID,
		PlanID:           c.PlanID,
		CommitmentMonths: c.CommitmentMonths,
	}
}

// ContractSignedEvent is raised when the member signs
type ContractSignedEvent struct {
	shared.BaseDomainEvent
	ContractID     uuid.UUID `json:"contract_id"`
	ContractNumber string    `json:"contract_number"`
	MemberID       uuid.UUID `json:"member_id"`
	SignedAt       time.Time `json:"signed_at"`
}

// EventType returns the event type name
func (e *ContractSignedEvent) EventType() string {
	return "ContractSigned"
}

// NewContractSignedEvent creates a new ContractSignedEvent
func NewContractSignedEvent(c *MembershipContract) *ContractSignedEvent {
	signedAt := time.Now()
	if c.SignedAt != nil {
		signedAt = *c.SignedAt
	}
	return &ContractSignedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ContractSigned", "MembershipContract", c.ID, c.TenantID),
		ContractID:      c.ID,
		ContractNumber:  c.ContractNumber,
		MemberID:        c.MemberID,
		SignedAt:        signedAt,
	}
}

// ContractActivatedEvent is raised when a signed contract comes into force
type ContractActivatedEvent struct {
	shared.BaseDomainEvent
	ContractID     uuid.UUID  `json:"contract_id"`
	SubscriptionID *uuid.UUID `json:"subscription_id,omitempty"`
}

// EventType returns the event type name
func (e *ContractActivatedEvent) EventType() string {
	return "ContractActivated"
}

// NewContractActivatedEvent creates a new ContractActivatedEvent
func NewContractActivatedEvent(c *MembershipContract) *ContractActivatedEvent {
	return &ContractActivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ContractActivated", "MembershipContract", c.ID, c.TenantID),
		ContractID:      c.ID,
		SubscriptionID:  c.SubscriptionID,
	}
}

// ContractRenewedEvent is raised when the contract is extended
type ContractRenewedEvent struct {
	shared.BaseDomainEvent
	ContractID uuid.UUID `json:"contract_id"`
	NewEndDate time.Time `json:"new_end_date"`
}

// EventType returns the event type name
func (e *ContractRenewedEvent) EventType() string {
	return "ContractRenewed"
}

// NewContractRenewedEvent creates a new ContractRenewedEvent
func NewContractRenewedEvent(c *MembershipContract) *ContractRenewedEvent {
	return &ContractRenewedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ContractRenewed", "MembershipContract", c.ID, c.TenantID),
		ContractID:      c.ID,
		NewEndDate:      c.EndDate,
	}
}

// ContractTerminatedEvent is raised when a contract ends early
type ContractTerminatedEvent struct {
	shared.BaseDomainEvent
	ContractID        uuid.UUID `json:"contract_id"`
	TerminationReason string    `json:"termination_reason"`
	TerminatedAt      time.Time `json:"terminated_at"`
}

// EventType returns the event type name
func (e *ContractTerminatedEvent) EventType() string {
	return "ContractTerminated"
}

// NewContractTerminatedEvent creates a new ContractTerminatedEvent
func NewContractTerminatedEvent(c *MembershipContract) *ContractTerminatedEvent {
	terminatedAt := time.Now()
	if c.TerminatedAt != nil {
		terminatedAt = *c.TerminatedAt
	}
	return &ContractTerminatedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent("ContractTerminated", "MembershipContract", c.ID, c.TenantID),
		ContractID:        c.ID,
		TerminationReason: c.TerminationReason,
		TerminatedAt:      terminatedAt,
	}
}
