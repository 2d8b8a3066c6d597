package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/liyaqa/backend/internal/domain/compliance"
	"github.com/liyaqa/backend/internal/domain/shared"
	"github.com/liyaqa/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTaxSubmissionRepository implements TaxSubmissionRepository using GORM
type GormTaxSubmissionRepository struct {
	db *gorm.DB
}

// NewGormTaxSubmissionRepository creates a new GormTaxSubmissionRepository
func NewGormTaxSubmissionRepository(db *gorm.DB) *GormTaxSubmissionRepository {
	return &GormTaxSubmissionRepository{db: db}
}

// FindByID finds a tax submission by its ID
func (r *GormTaxSubmissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*compliance.TaxSubmission, error) {
	var model models.TaxSubmissionModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a tax submission by ID for a specific tenant
func (r *GormTaxSubmissionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*compliance.TaxSubmission, error) {
	var model models.TaxSubmissionModel
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

// FindByInvoice finds all submission records for an invoice, newest first
func (r *GormTaxSubmissionRepository) FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]compliance.TaxSubmission, error) {
	var submissionModels []models.TaxSubmissionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND invoice_id = ?", tenantID, invoiceID).
		Order("created_at DESC").
		Find(&submissionModels).Error; err != nil {
		return nil, err
	}
	submissions := make([]compliance.TaxSubmission, len(submissionModels))
	for i, model := range submissionModels {
		submissions[i] = *model.ToDomain()
	}
	return submissions, nil
}

// FindPending finds submissions awaiting a submit attempt
func (r *GormTaxSubmissionRepository) FindPending(ctx context.Context, limit int) ([]compliance.TaxSubmission, error) {
	var submissionModels []models.TaxSubmissionModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", compliance.SubmissionStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&submissionModels).Error; err != nil {
		return nil, err
	}
	submissions := make([]compliance.TaxSubmission, len(submissionModels))
	for i, model := range submissionModels {
		submissions[i] = *model.ToDomain()
	}
	return submissions, nil
}

// FindRetryable finds FAILED submissions below the retry budget. The backoff
// window itself is evaluated by the caller against the retry policy.
func (r *GormTaxSubmissionRepository) FindRetryable(ctx context.Context, now time.Time, maxRetries int, limit int) ([]compliance.TaxSubmission, error) {
	var submissionModels []models.TaxSubmissionModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND retry_count < ? AND updated_at <= ?", compliance.SubmissionStatusFailed, maxRetries, now).
		Order("updated_at ASC").
		Limit(limit).
		Find(&submissionModels).Error; err != nil {
		return nil, err
	}
	submissions := make([]compliance.TaxSubmission, len(submissionModels))
	for i, model := range submissionModels {
		submissions[i] = *model.ToDomain()
	}
	return submissions, nil
}

// FindAllForTenant finds all submissions for a tenant with filtering
func (r *GormTaxSubmissionRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter compliance.TaxSubmissionFilter) ([]compliance.TaxSubmission, error) {
	var submissionModels []models.TaxSubmissionModel
	query := r.db.WithContext(ctx).Model(&models.TaxSubmissionModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applySubmissionFilter(query, filter)

	if err := query.Find(&submissionModels).Error; err != nil {
		return nil, err
	}
	submissions := make([]compliance.TaxSubmission, len(submissionModels))
	for i, model := range submissionModels {
		submissions[i] = *model.ToDomain()
	}
	return submissions, nil
}

// Save creates or updates a tax submission
func (r *GormTaxSubmissionRepository) Save(ctx context.Context, submission *compliance.TaxSubmission) error {
	model := models.TaxSubmissionModelFromDomain(submission)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking
func (r *GormTaxSubmissionRepository) SaveWithLock(ctx context.Context, submission *compliance.TaxSubmission) error {
	model := models.TaxSubmissionModelFromDomain(submission)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", submission.ID, submission.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.ErrConcurrencyConflict.Code, "The submission has been modified by another transaction")
	}
	return nil
}

// applySubmissionFilter applies filter options to the query
func (r *GormTaxSubmissionRepository) applySubmissionFilter(query *gorm.DB, filter compliance.TaxSubmissionFilter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("invoice_number ILIKE ?", searchPattern)
	}
	if filter.InvoiceID != nil {
		query = query.Where("invoice_id = ?", *filter.InvoiceID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		sortField := ValidateSortField(filter.OrderBy, TaxSubmissionSortFields, "created_at")
		sortOrder := ValidateSortOrder(filter.OrderDir)
		query = query.Order(sortField + " " + sortOrder)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// Ensure GormTaxSubmissionRepository implements TaxSubmissionRepository
var _ compliance.TaxSubmissionRepository = (*GormTaxSubmissionRepository)(nil)
