package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/liyaqa/backend/internal/domain/dunning"
	"github.com/liyaqa/backend/internal/domain/shared"
	"github.com/liyaqa/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSequenceRepository implements SequenceRepository using GORM
type GormSequenceRepository struct {
	db *gorm.DB
}

// NewGormSequenceRepository creates a new GormSequenceRepository
func NewGormSequenceRepository(db *gorm.DB) *GormSequenceRepository {
	return &GormSequenceRepository{db: db}
}

// FindByID finds a dunning sequence by its ID
func (r *GormSequenceRepository) FindByID(ctx context.Context, id uuid.UUID) (*dunning.DunningSequence, error) {
	var model models.DunningSequenceModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a dunning sequence by ID for a specific tenant
func (r *GormSequenceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*dunning.DunningSequence, error) {
	var model models.DunningSequenceModel
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

// FindNonTerminalByInvoice finds the open sequence for an invoice, if any
func (r *GormSequenceRepository) FindNonTerminalByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (*dunning.DunningSequence, error) {
	var model models.DunningSequenceModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND invoice_id = ? AND status IN ?", tenantID, invoiceID,
			[]dunning.SequenceStatus{dunning.SequenceStatusActive, dunning.SequenceStatusPaused, dunning.SequenceStatusEscalated}).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindDue finds ACTIVE sequences with next_action_at at or before the given time
func (r *GormSequenceRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]dunning.DunningSequence, error) {
	var sequenceModels []models.DunningSequenceModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND next_action_at IS NOT NULL AND next_action_at <= ?", dunning.SequenceStatusActive, now).
		Order("next_action_at ASC").
		Limit(limit).
		Find(&sequenceModels).Error; err != nil {
		return nil, err
	}
	sequences := make([]dunning.DunningSequence, len(sequenceModels))
	for i, model := range sequenceModels {
		sequences[i] = *model.ToDomain()
	}
	return sequences, nil
}

// FindAllForTenant finds all sequences for a tenant with filtering
func (r *GormSequenceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter dunning.SequenceFilter) ([]dunning.DunningSequence, error) {
	var sequenceModels []models.DunningSequenceModel
	query := r.db.WithContext(ctx).Model(&models.DunningSequenceModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applySequenceFilter(query, filter)

	if err := query.Find(&sequenceModels).Error; err != nil {
		return nil, err
	}
	sequences := make([]dunning.DunningSequence, len(sequenceModels))
	for i, model := range sequenceModels {
		sequences[i] = *model.ToDomain()
	}
	return sequences, nil
}

// Save creates or updates a dunning sequence
func (r *GormSequenceRepository) Save(ctx context.Context, sequence *dunning.DunningSequence) error {
	model := models.DunningSequenceModelFromDomain(sequence)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking
func (r *GormSequenceRepository) SaveWithLock(ctx context.Context, sequence *dunning.DunningSequence) error {
	model := models.DunningSequenceModelFromDomain(sequence)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", sequence.ID, sequence.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.ErrConcurrencyConflict.Code, "The sequence has been modified by another transaction")
	}
	return nil
}

// applySequenceFilter applies filter options to the query
func (r *GormSequenceRepository) applySequenceFilter(query *gorm.DB, filter dunning.SequenceFilter) *gorm.DB {
	if filter.InvoiceID != nil {
		query = query.Where("invoice_id = ?", *filter.InvoiceID)
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
		sortField := ValidateSortField(filter.OrderBy, DunningSequenceSortFields, "created_at")
		sortOrder := ValidateSortOrder(filter.OrderDir)
		query = query.Order(sortField + " " + sortOrder)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// Ensure GormSequenceRepository implements SequenceRepository
var _ dunning.SequenceRepository = (*GormSequenceRepository)(nil)
