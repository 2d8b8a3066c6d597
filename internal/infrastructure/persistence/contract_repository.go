package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/liyaqa/backend/internal/domain/membership"
	"github.com/liyaqa/backend/internal/domain/shared"
	"github.com/liyaqa/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormContractRepository implements ContractRepository using GORM
type GormContractRepository struct {
	db *gorm.DB
}

// NewGormContractRepository creates a new GormContractRepository
func NewGormContractRepository(db *gorm.DB) *GormContractRepository {
	return &GormContractRepository{db: db}
}

// FindByID finds a contract by its ID
func (r *GormContractRepository) FindByID(ctx context.Context, id uuid.UUID) (*membership.MembershipContract, error) {
	var model models.MembershipContractModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a contract by ID for a specific tenant
func (r *GormContractRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*membership.MembershipContract, error) {
	var model models.MembershipContractModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySubscription finds the contract linked to a subscription, if any
func (r *GormContractRepository) FindBySubscription(ctx context.Context, tenantID, subscriptionID uuid.UUID) (*membership.MembershipContract, error) {
	var model models.MembershipContractModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND subscription_id = ?", tenantID, subscriptionID).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all contracts for a tenant with filtering
func (r *GormContractRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter membership.ContractFilter) ([]membership.MembershipContract, error) {
	var contractModels []models.MembershipContractModel
	query := r.db.WithContext(ctx).Model(&models.MembershipContractModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyContractFilter(query, filter)

	if err := query.Find(&contractModels).Error; err != nil {
		return nil, err
	}
	contracts := make([]membership.MembershipContract, len(contractModels))
	for i, model := range contractModels {
		contracts[i] = *model.ToDomain()
	}
	return contracts, nil
}

// Save creates or updates a contract
func (r *GormContractRepository) Save(ctx context.Context, contract *membership.MembershipContract) error {
	model := models.MembershipContractModelFromDomain(contract)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking
func (r *GormContractRepository) SaveWithLock(ctx context.Context, contract *membership.MembershipContract) error {
	model := models.MembershipContractModelFromDomain(contract)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", contract.ID, contract.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.ErrConcurrencyConflict.Code, "The contract has been modified by another transaction")
	}
	return nil
}

// applyContractFilter applies filter options to the query
func (r *GormContractRepository) applyContractFilter(query *gorm.DB, filter membership.ContractFilter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("contract_number ILIKE ?", searchPattern)
	}
	if filter.MemberID != nil {
		query = query.Where("member_id = ?", *filter.MemberID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		sortField := ValidateSortField(filter.OrderBy, ContractSortFields, "created_at")
		sortOrder := ValidateSortOrder(filter.OrderDir)
		query = query.Order(sortField + " " + sortOrder)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// Ensure GormContractRepository implements ContractRepository
var _ membership.ContractRepository = (*GormContractRepository)(nil)
