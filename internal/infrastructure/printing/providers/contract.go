package providers

import (
	"context"
	"fmt"

	"github.com/liyaqa/backend/internal/domain/identity"
	"github.com/liyaqa/backend/internal/domain/membership"
	"github.com/liyaqa/backend/internal/domain/printing"
	infra "github.com/liyaqa/backend/internal/infrastructure/printing"
	"github.com/google/uuid"
)

// ContractProvider implements DataProvider for CONTRACT document type.
// It loads membership contract data from the repository for use in print templates.
type ContractProvider struct {
	contractRepo membership.ContractRepository
	userRepo     identity.UserRepository
}

// NewContractProvider creates a new ContractProvider.
func NewContractProvider(contractRepo membership.ContractRepository, userRepo identity.UserRepository) *ContractProvider {
	return &ContractProvider{
		contractRepo: contractRepo,
		userRepo:     userRepo,
	}
}

// GetDocType returns the document type this provider handles.
func (p *ContractProvider) GetDocType() printing.DocType {
	return printing.DocTypeContract
}

// GetData retrieves contract data for rendering.
func (p *ContractProvider) GetData(ctx context.Context, tenantID, documentID uuid.UUID) (*infra.DocumentData, error) {
	contract, err := p.contractRepo.FindByIDForTenant(ctx, tenantID, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contract: %w", err)
	}

	memberInfo, err := loadMemberInfo(ctx, p.userRepo, contract.MemberID)
	if err != nil {
		return nil, err
	}

	docData := infra.NewDocumentData(printing.DocTypeContract, contract.ContractNumber)
	docData.Meta.Status = string(contract.Status)
	docData.Meta.StatusText = statusToText(string(contract.Status))
	docData.Meta.CreatedAt = contract.CreatedAt
	docData.Meta.UpdatedAt = contract.UpdatedAt
	docData.Meta.CreatedAtFormatted = contract.CreatedAt.Format("2006-01-02")
	docData.Meta.UpdatedAtFormatted = contract.UpdatedAt.Format("2006-01-02")

	fee := contract.LockedMembershipFee
	contractData := infra.ContractData{
		ID:                  contract.ID,
		ContractNumber:      contract.ContractNumber,
		Member:              memberInfo,
		PlanID:              contract.PlanID,
		Status:              string(contract.Status),
		StartDate:           contract.StartDate,
		EndDate:             contract.EndDate,
		CommitmentMonths:    contract.CommitmentMonths,
		CommitmentEndDate:   contract.CommitmentEndDate,
		NoticePeriodDays:    contract.NoticePeriodDays,
		MembershipFeeNet:    fee.NetAmount().Amount(),
		MembershipFeeVAT:    fee.TaxAmount().Amount(),
		MembershipFeeGross:  fee.GrossAmount().Amount(),
		TerminationFeeType:  string(contract.TerminationFeeType),
		TerminationFeeValue: contract.TerminationFeeValue,
		SentAt:              contract.SentAt,
		SignedAt:            contract.SignedAt,
		SignatureRef:        contract.SignatureRef,

		MembershipFeeGrossFormatted: infra.FormatMoneyValue(fee.GrossAmount().Amount()),
		StartDateFormatted:          contract.StartDate.Format("2006-01-02"),
		EndDateFormatted:            contract.EndDate.Format("2006-01-02"),
		CommitmentEndFormatted:      formatOptionalDate(contract.CommitmentEndDate),
		SignedAtFormatted:           formatOptionalDate(contract.SignedAt),
	}

	memberSignature := infra.SignatureArea{Label: "Member", Name: memberInfo.Name}
	if contract.SignedAt != nil {
		memberSignature.Signed = true
		memberSignature.Date = contract.SignedAt.Format("2006-01-02")
	}
	contractData.SignatureAreas = []infra.SignatureArea{
		memberSignature,
		{Label: "Authorized Representative"},
	}

	docData.Document = contractData

	return docData, nil
}
