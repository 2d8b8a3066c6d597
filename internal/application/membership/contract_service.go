package membership

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/liyaqa/backend/internal/domain/membership"
	"github.com/liyaqa/backend/internal/domain/shared"
	"github.com/liyaqa/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ContractService handles membership contract lifecycle operations
type ContractService struct {
	contractRepo     membership.ContractRepository
	subscriptionRepo membership.SubscriptionRepository
	outboxRepo       shared.OutboxRepository
	logger           *zap.Logger
}

// NewContractService creates a new contract service
func NewContractService(
	contractRepo membership.ContractRepository,
	subscriptionRepo membership.SubscriptionRepository,
	outboxRepo shared.OutboxRepository,
	logger *zap.Logger,
) *ContractService {
	return &ContractService{
		contractRepo:     contractRepo,
		subscriptionRepo: subscriptionRepo,
		outboxRepo:       outboxRepo,
		logger:           logger,
	}
}

// CreateContractRequest is the request to create a contract
type CreateContractRequest struct {
	MemberID            uuid.UUID       `json:"member_id" binding:"required"`
	PlanID              uuid.UUID       `json:"plan_id" binding:"required"`
	StartDate           time.Time       `json:"start_date" binding:"required"`
	EndDate             time.Time       `json:"end_date" binding:"required"`
	CommitmentMonths    int             `json:"commitment_months"`
	NoticePeriodDays    int             `json:"notice_period_days"`
	MonthlyFee          decimal.Decimal `json:"monthly_fee" binding:"required"`
	TaxRate             decimal.Decimal `json:"tax_rate"`
	TerminationFeeType  string          `json:"termination_fee_type" binding:"required"`
	TerminationFeeValue decimal.Decimal `json:"termination_fee_value"`
}

// ContractResponse represents a contract in API responses
type ContractResponse struct {
	ID                  uuid.UUID       `json:"id"`
	TenantID            uuid.UUID       `json:"tenant_id"`
	ContractNumber      string          `json:"contract_number"`
	MemberID            uuid.UUID       `json:"member_id"`
	PlanID              uuid.UUID       `json:"plan_id"`
	SubscriptionID      *uuid.UUID      `json:"subscription_id,omitempty"`
	Status              string          `json:"status"`
	StartDate           time.Time       `json:"start_date"`
	EndDate             time.Time       `json:"end_date"`
	CommitmentMonths    int             `json:"commitment_months"`
	CommitmentEndDate   *time.Time      `json:"commitment_end_date,omitempty"`
	NoticePeriodDays    int             `json:"notice_period_days"`
	MonthlyNetFee       decimal.Decimal `json:"monthly_net_fee"`
	MonthlyGrossFee     decimal.Decimal `json:"monthly_gross_fee"`
	TerminationFeeType  string          `json:"termination_fee_type"`
	TerminationFeeValue decimal.Decimal `json:"termination_fee_value"`
	SignedAt            *time.Time      `json:"signed_at,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	Version             int             `json:"version"`
}

func toContractResponse(c *membership.MembershipContract) *ContractResponse {
	return &ContractResponse{
		ID:                  c.ID,
		TenantID:            c.TenantID,
		ContractNumber:      c.ContractNumber,
		MemberID:            c.MemberID,
		PlanID:              c.PlanID,
		SubscriptionID:      c.SubscriptionID,
		Status:              c.Status.String(),
		StartDate:           c.StartDate,
		EndDate:             c.EndDate,
		CommitmentMonths:    c.CommitmentMonths,
		CommitmentEndDate:   c.CommitmentEndDate,
		NoticePeriodDays:    c.NoticePeriodDays,
		MonthlyNetFee:       c.LockedMembershipFee.NetAmount().Amount(),
		MonthlyGrossFee:     c.LockedMembershipFee.GrossAmount().Amount(),
		TerminationFeeType:  string(c.TerminationFeeType),
		TerminationFeeValue: c.TerminationFeeValue,
		SignedAt:            c.SignedAt,
		CreatedAt:           c.CreatedAt,
		Version:             c.Version,
	}
}

// CreateContract creates a new contract in DRAFT with pricing locked in
func (s *ContractService) CreateContract(ctx context.Context, tenantID uuid.UUID, req CreateContractRequest) (*ContractResponse, error) {
	taxRate := req.TaxRate
	if taxRate.IsZero() {
		taxRate = valueobject.DefaultVATRate
	}
	fee, err := valueobject.NewTaxableFee(req.MonthlyFee, valueobject.DefaultCurrency, taxRate)
	if err != nil {
		return nil, err
	}

	contract, err := membership.NewMembershipContract(
		tenantID,
		s.nextContractNumber(),
		req.MemberID,
		req.PlanID,
		req.StartDate,
		req.EndDate,
		req.CommitmentMonths,
		req.NoticePeriodDays,
		fee,
		membership.TerminationFeeType(req.TerminationFeeType),
		req.TerminationFeeValue,
	)
	if err != nil {
		return nil, err
	}

	if err := s.contractRepo.Save(ctx, contract); err != nil {
		s.logger.Error("Failed to save contract", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create contract")
	}
	if err := s.publishEvents(ctx, contract); err != nil {
		s.logger.Warn("Failed to publish contract events", zap.Error(err))
	}

	return toContractResponse(contract), nil
}

// GetContract gets a contract by ID
func (s *ContractService) GetContract(ctx context.Context, tenantID, id uuid.UUID) (*ContractResponse, error) {
	contract, err := s.findContract(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toContractResponse(contract), nil
}

// ListContracts lists contracts for a tenant
func (s *ContractService) ListContracts(ctx context.Context, tenantID uuid.UUID, filter membership.ContractFilter) ([]ContractResponse, error) {
	contracts, err := s.contractRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]ContractResponse, 0, len(contracts))
	for i := range contracts {
		responses = append(responses, *toContractResponse(&contracts[i]))
	}
	return responses, nil
}

// SendContract marks the contract as sent for signature
func (s *ContractService) SendContract(ctx context.Context, tenantID, id uuid.UUID) (*ContractResponse, error) {
	return s.transition(ctx, tenantID, id, func(c *membership.MembershipContract) error {
		return c.Send()
	})
}

// SignContract records the member's signature
func (s *ContractService) SignContract(ctx context.Context, tenantID, id uuid.UUID, signatureRef string) (*ContractResponse, error) {
	return s.transition(ctx, tenantID, id, func(c *membership.MembershipContract) error {
		return c.Sign(signatureRef)
	})
}

// ActivateContract activates a signed contract and links the subscription both ways
func (s *ContractService) ActivateContract(ctx context.Context, tenantID, id, subscriptionID uuid.UUID) (*ContractResponse, error) {
	resp, err := s.transition(ctx, tenantID, id, func(c *membership.MembershipContract) error {
		return c.Activate(subscriptionID)
	})
	if err != nil {
		return nil, err
	}

	sub, err := s.subscriptionRepo.FindByIDForTenant(ctx, tenantID, subscriptionID)
	if err == nil && sub != nil {
		sub.LinkContract(id)
		if err := s.subscriptionRepo.SaveWithLock(ctx, sub); err != nil {
			s.logger.Warn("Failed to link contract on subscription",
				zap.String("subscription_id", subscriptionID.String()), zap.Error(err))
		}
	}

	return resp, nil
}

// RenewContract extends the contract term
func (s *ContractService) RenewContract(ctx context.Context, tenantID, id uuid.UUID, newEndDate time.Time) (*ContractResponse, error) {
	return s.transition(ctx, tenantID, id, func(c *membership.MembershipContract) error {
		return c.Renew(newEndDate)
	})
}

// TerminateContract terminates the contract
func (s *ContractService) TerminateContract(ctx context.Context, tenantID, id uuid.UUID, reason string) (*ContractResponse, error) {
	return s.transition(ctx, tenantID, id, func(c *membership.MembershipContract) error {
		return c.Terminate(reason)
	})
}

// PreviewTerminationFee computes the early-termination fee without changing state
func (s *ContractService) PreviewTerminationFee(ctx context.Context, tenantID, id uuid.UUID) (decimal.Decimal, error) {
	contract, err := s.findContract(ctx, tenantID, id)
	if err != nil {
		return decimal.Zero, err
	}
	return contract.EarlyTerminationFee(time.Now()).Amount(), nil
}

func (s *ContractService) transition(ctx context.Context, tenantID, id uuid.UUID, op func(*membership.MembershipContract) error) (*ContractResponse, error) {
	contract, err := s.findContract(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := op(contract); err != nil {
		return nil, err
	}
	if err := s.contractRepo.SaveWithLock(ctx, contract); err != nil {
		return nil, err
	}
	if err := s.publishEvents(ctx, contract); err != nil {
		s.logger.Warn("Failed to publish contract events", zap.Error(err))
	}
	return toContractResponse(contract), nil
}

func (s *ContractService) findContract(ctx context.Context, tenantID, id uuid.UUID) (*membership.MembershipContract, error) {
	contract, err := s.contractRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Contract not found")
	}
	return contract, nil
}

func (s *ContractService) nextContractNumber() string {
	return fmt.Sprintf("CTR-%d-%s", time.Now().Year(), uuid.New().String()[:8])
}

func (s *ContractService) publishEvents(ctx context.Context, contract *membership.MembershipContract) error {
	events := contract.GetDomainEvents()
	if len(events) == 0 {
		return nil
	}

	entries := make([]*shared.OutboxEntry, 0, len(events))
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			s.logger.Error("Failed to marshal event", zap.Error(err))
			continue
		}
		entries = append(entries, shared.NewOutboxEntry(contract.TenantID, event, payload))
	}
	if len(entries) > 0 {
		if err := s.outboxRepo.Save(ctx, entries...); err != nil {
			return err
		}
	}

	contract.ClearDomainEvents()
	return nil
}
