package membership

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/liyaqa/backend/internal/domain/shared"
	"github.com/liyaqa/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ContractStatus represents the status of a membership contract
type ContractStatus string

const (
	ContractStatusDraft      ContractStatus = "DRAFT"
	ContractStatusSent       ContractStatus = "SENT"
	ContractStatusSigned     ContractStatus = "SIGNED"
	ContractStatusActive     ContractStatus = "ACTIVE"
	ContractStatusExpired    ContractStatus = "EXPIRED"
	ContractStatusTerminated ContractStatus = "TERMINATED"
)

// IsValid checks if the status is a valid ContractStatus
func (s ContractStatus) IsValid() bool {
	switch s {
	case ContractStatusDraft, ContractStatusSent, ContractStatusSigned,
		ContractStatusActive, ContractStatusExpired, ContractStatusTerminated:
		return true
	}
	return false
}

// String returns the string representation of ContractStatus
func (s ContractStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the contract can no longer change except via Renew
func (s ContractStatus) IsTerminal() bool {
	return s == ContractStatusExpired || s == ContractStatusTerminated
}

// TerminationFeeType determines how the early termination fee is computed
type TerminationFeeType string

const (
	TerminationFeeNone            TerminationFeeType = "NONE"
	TerminationFeeFlat            TerminationFeeType = "FLAT_FEE"
	TerminationFeeRemainingMonths TerminationFeeType = "REMAINING_MONTHS"
	TerminationFeePercentage      TerminationFeeType = "PERCENTAGE"
)

// IsValid checks if the termination fee type is valid
func (t TerminationFeeType) IsValid() bool {
	switch t {
	case TerminationFeeNone, TerminationFeeFlat, TerminationFeeRemainingMonths, TerminationFeePercentage:
		return true
	}
	return false
}

// MembershipContract represents a signed service agreement tied to a
// subscription's commitment terms. The subscription's cancel flow reads it to
// compute an early-termination fee; nothing outside this aggregate writes it.
type MembershipContract struct {
	shared.TenantAggregateRoot
	ContractNumber    string         `json:"contract_number"`
	MemberID          uuid.UUID      `json:"member_id"`
	PlanID            uuid.UUID      `json:"plan_id"`
	SubscriptionID    *uuid.UUID     `json:"subscription_id,omitempty"`
	Status            ContractStatus `json:"status"`
	StartDate         time.Time      `json:"start_date"`
	EndDate           time.Time      `json:"end_date"`
	CommitmentMonths  int            `json:"commitment_months"`
	CommitmentEndDate *time.Time     `json:"commitment_end_date,omitempty"`
	NoticePeriodDays  int            `json:"notice_period_days"`

	// Pricing locked at signing; derived tax/gross figures are computed from it.
	LockedMembershipFee valueobject.TaxableFee `json:"locked_membership_fee"`

	TerminationFeeType  TerminationFeeType `json:"termination_fee_type"`
	TerminationFeeValue decimal.Decimal    `json:"termination_fee_value"`

	SentAt       *time.Time `json:"sent_at,omitempty"`
	SignedAt     *time.Time `json:"signed_at,omitempty"`
	SignatureRef string     `json:"signature_ref,omitempty"`
	TerminatedAt *time.Time `json:"terminated_at,omitempty"`
	TerminationReason string `json:"termination_reason,omitempty"`
}

// NewMembershipContract creates a new contract in DRAFT
func NewMembershipContract(
	tenantID uuid.UUID,
	contractNumber string,
	memberID uuid.UUID,
	planID uuid.UUID,
	startDate time.Time,
	endDate time.Time,
	commitmentMonths int,
	noticePeriodDays int,
	lockedFee valueobject.TaxableFee,
	feeType TerminationFeeType,
	feeValue decimal.Decimal,
) (*MembershipContract, error) {
	if contractNumber == "" {
		return nil, shared.NewDomainError("INVALID_CONTRACT_NUMBER", "Contract number cannot be empty")
	}
	if memberID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MEMBER", "Member ID cannot be empty")
	}
	if endDate.Before(startDate) {
		return nil, shared.NewDomainError("INVALID_PERIOD", "End date cannot be before start date")
	}
	if commitmentMonths < 0 {
		return nil, shared.NewDomainError("INVALID_COMMITMENT", "Commitment months cannot be negative")
	}
	if !feeType.IsValid() {
		return nil, shared.NewDomainError("INVALID_FEE_TYPE", "Termination fee type is not valid")
	}

	contract := &MembershipContract{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ContractNumber:      contractNumber,
		MemberID:            memberID,
		PlanID:              planID,
		Status:              ContractStatusDraft,
		StartDate:           startDate,
		EndDate:             endDate,
		CommitmentMonths:    commitmentMonths,
		NoticePeriodDays:    noticePeriodDays,
		LockedMembershipFee: lockedFee,
		TerminationFeeType:  feeType,
		TerminationFeeValue: feeValue,
	}
	if commitmentMonths > 0 {
		commitmentEnd := startDate.AddDate(0, commitmentMonths, 0)
		contract.CommitmentEndDate = &commitmentEnd
	}

	contract.AddDomainEvent(NewContractCreatedEvent(contract))

	return contract, nil
}

// Send marks the contract as sent to the member for signature
func (c *MembershipContract) Send() error {
	if c.Status != ContractStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot send contract in %s status", c.Status))
	}

	now := time.Now()
	c.Status = ContractStatusSent
	c.SentAt = &now
	c.UpdatedAt = now
	c.IncrementVersion()
	return nil
}

// Sign records the member's signature
func (c *MembershipContract) Sign(signatureRef string) error {
	if c.Status != ContractStatusSent {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot sign contract in %s status", c.Status))
	}
	if signatureRef == "" {
		return shared.NewDomainError("INVALID_SIGNATURE", "Signature reference is required")
	}

	now := time.Now()
	c.Status = ContractStatusSigned
	c.SignedAt = &now
	c.SignatureRef = signatureRef
	c.UpdatedAt = now
	c.IncrementVersion()

	c.AddDomainEvent(NewContractSignedEvent(c))

	return nil
}

// Activate brings a signed contract into force, linked to its subscription
func (c *MembershipContract) Activate(subscriptionID uuid.UUID) error {
	if c.Status != ContractStatusSigned {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot activate contract in %s status", c.Status))
	}

	c.Status = ContractStatusActive
	c.SubscriptionID = &subscriptionID
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	c.AddDomainEvent(NewContractActivatedEvent(c))

	return nil
}

// Renew extends the contract with a new end date
func (c *MembershipContract) Renew(newEndDate time.Time) error {
	if c.Status != ContractStatusActive && c.Status != ContractStatusExpired {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot renew contract in %s status", c.Status))
	}
	if !newEndDate.After(c.EndDate) {
		return shared.NewDomainError("INVALID_PERIOD", "Renewal end date must be after the current end date")
	}

	c.Status = ContractStatusActive
	c.EndDate = newEndDate
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	c.AddDomainEvent(NewContractRenewedEvent(c))

	return nil
}

// Terminate ends the contract before its natural end date
func (c *MembershipContract) Terminate(reason string) error {
	if c.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot terminate contract in %s status", c.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Termination reason is required")
	}

	now := time.Now()
	c.Status = ContractStatusTerminated
	c.TerminatedAt = &now
	c.TerminationReason = reason
	c.UpdatedAt = now
	c.IncrementVersion()

	c.AddDomainEvent(NewContractTerminatedEvent(c))

	return nil
}

// MarkExpired transitions an ACTIVE contract whose end date has passed.
// Safe to re-invoke; a no-op unless the transition applies.
func (c *MembershipContract) MarkExpired(now time.Time) {
	if c.Status == ContractStatusActive && now.After(c.EndDate) {
		c.Status = ContractStatusExpired
		c.UpdatedAt = now
		c.IncrementVersion()
	}
}

// IsWithinCommitment returns true if the commitment period is still running at the given time
func (c *MembershipContract) IsWithinCommitment(now time.Time) bool {
	return c.CommitmentEndDate != nil && now.Before(*c.CommitmentEndDate)
}

// CommitmentMonthsRemaining returns whole months left in the commitment, rounded up
func (c *MembershipContract) CommitmentMonthsRemaining(now time.Time) int {
	if !c.IsWithinCommitment(now) {
		return 0
	}
	months := 0
	cursor := now
	for cursor.Before(*c.CommitmentEndDate) {
		cursor = cursor.AddDate(0, 1, 0)
		months++
	}
	return months
}

// EarlyTerminationFee computes the fee owed for cancelling before the
// committed term, per the configured fee type. Zero outside the commitment.
func (c *MembershipContract) EarlyTerminationFee(now time.Time) valueobject.Money {
	currency := c.LockedMembershipFee.Currency()
	if !c.IsWithinCommitment(now) {
		return valueobject.Zero(currency)
	}

	switch c.TerminationFeeType {
	case TerminationFeeFlat:
		m, _ := valueobject.NewMoney(c.TerminationFeeValue, currency)
		return m

	case TerminationFeeRemainingMonths:
		monthly := c.LockedMembershipFee.GrossAmount()
		return monthly.MultiplyByInt(int64(c.CommitmentMonthsRemaining(now)))

	case TerminationFeePercentage:
		monthly := c.LockedMembershipFee.GrossAmount()
		remaining := monthly.MultiplyByInt(int64(c.CommitmentMonthsRemaining(now)))
		return remaining.CalculatePercentage(c.TerminationFeeValue)

	default:
		return valueobject.Zero(currency)
	}
}
