package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/liyaqa/backend/internal/domain/membership"
	"github.com/liyaqa/backend/internal/domain/shared"
	"github.com/liyaqa/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSubscriptionRepository implements SubscriptionRepository using GORM
type GormSubscriptionRepository struct {
	db *gorm.DB
}

// NewGormSubscriptionRepository creates a new GormSubscriptionRepository
func NewGormSubscriptionRepository(db *gorm.DB) *GormSubscriptionRepository {
	return &GormSubscriptionRepository{db: db}
}

// FindByID finds a subscription by its ID
func (r *GormSubscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*membership.Subscription, error) {
	var model models.SubscriptionModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a subscription by ID for a specific tenant
func (r *GormSubscriptionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*membership.Subscription, error) {
	var model models.SubscriptionModel
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

// FindByMember finds subscriptions for a member
func (r *GormSubscriptionRepository) FindByMember(ctx context.Context, tenantID, memberID uuid.UUID, filter membership.SubscriptionFilter) ([]membership.Subscription, error) {
	var subscriptionModels []models.SubscriptionModel
	query := r.db.WithContext(ctx).Model(&models.SubscriptionModel{}).
		Where("tenant_id = ? AND member_id = ?", tenantID, memberID)
	query = r.applySubscriptionFilter(query, filter)

	if err := query.Find(&subscriptionModels).Error; err != nil {
		return nil, err
	}
	subscriptions := make([]membership.Subscription, len(subscriptionModels))
	for i, model := range subscriptionModels {
		subscriptions[i] = *model.ToDomain()
	}
	return subscriptions, nil
}

// FindAllForTenant finds all subscriptions for a tenant with filtering
func (r *GormSubscriptionRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter membership.SubscriptionFilter) ([]membership.Subscription, error) {
	var subscriptionModels []models.SubscriptionModel
	query := r.db.WithContext(ctx).Model(&models.SubscriptionModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applySubscriptionFilter(query, filter)

	if err := query.Find(&subscriptionModels).Error; err != nil {
		return nil, err
	}
	subscriptions := make([]membership.Subscription, len(subscriptionModels))
	for i, model := range subscriptionModels {
		subscriptions[i] = *model.ToDomain()
	}
	return subscriptions, nil
}

// FindExpiring finds ACTIVE subscriptions whose end date has passed
func (r *GormSubscriptionRepository) FindExpiring(ctx context.Context, now time.Time, limit int) ([]membership.Subscription, error) {
	var subscriptionModels []models.SubscriptionModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND end_date <= ?", membership.SubscriptionStatusActive, now).
		Order("end_date ASC").
		Limit(limit).
		Find(&subscriptionModels).Error; err != nil {
		return nil, err
	}
	subscriptions := make([]membership.Subscription, len(subscriptionModels))
	for i, model := range subscriptionModels {
		subscriptions[i] = *model.ToDomain()
	}
	return subscriptions, nil
}

// FindDueForCancellation finds subscriptions whose deferred cancellation is effective
func (r *GormSubscriptionRepository) FindDueForCancellation(ctx context.Context, now time.Time, limit int) ([]membership.Subscription, error) {
	var subscriptionModels []models.SubscriptionModel
	if err := r.db.WithContext(ctx).
		Where("status IN ? AND cancellation_effective_at IS NOT NULL AND cancellation_effective_at <= ?",
			[]membership.SubscriptionStatus{membership.SubscriptionStatusActive, membership.SubscriptionStatusFrozen},
			now).
		Order("cancellation_effective_at ASC").
		Limit(limit).
		Find(&subscriptionModels).Error; err != nil {
		return nil, err
	}
	subscriptions := make([]membership.Subscription, len(subscriptionModels))
	for i, model := range subscriptionModels {
		subscriptions[i] = *model.ToDomain()
	}
	return subscriptions, nil
}

// CountByMember counts all subscriptions a member ever had
func (r *GormSubscriptionRepository) CountByMember(ctx context.Context, tenantID, memberID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SubscriptionModel{}).
		Where("tenant_id = ? AND member_id = ?", tenantID, memberID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a subscription
func (r *GormSubscriptionRepository) Save(ctx context.Context, subscription *membership.Subscription) error {
	model := models.SubscriptionModelFromDomain(subscription)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking
func (r *GormSubscriptionRepository) SaveWithLock(ctx context.Context, subscription *membership.Subscription) error {
	model := models.SubscriptionModelFromDomain(subscription)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", subscription.ID, subscription.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.ErrConcurrencyConflict.Code, "The subscription has been modified by another transaction")
	}
	return nil
}

// CountForTenant counts subscriptions for a tenant
func (r *GormSubscriptionRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter membership.SubscriptionFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.SubscriptionModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applySubscriptionFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountDistinctMembers counts the distinct members that hold at least one subscription
func (r *GormSubscriptionRepository) CountDistinctMembers(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SubscriptionModel{}).
		Where("tenant_id = ?", tenantID).
		Distinct("member_id").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountActiveForTenant counts subscriptions currently in ACTIVE
func (r *GormSubscriptionRepository) CountActiveForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SubscriptionModel{}).
		Where("tenant_id = ? AND status = ?", tenantID, membership.SubscriptionStatusActive).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applySubscriptionFilter applies filter options to the query
func (r *GormSubscriptionRepository) applySubscriptionFilter(query *gorm.DB, filter membership.SubscriptionFilter) *gorm.DB {
	query = r.applySubscriptionFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		sortField := ValidateSortField(filter.OrderBy, SubscriptionSortFields, "created_at")
		sortOrder := ValidateSortOrder(filter.OrderDir)
		query = query.Order(sortField + " " + sortOrder)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// applySubscriptionFilterWithoutPagination applies filter options without pagination
func (r *GormSubscriptionRepository) applySubscriptionFilterWithoutPagination(query *gorm.DB, filter membership.SubscriptionFilter) *gorm.DB {
	if filter.MemberID != nil {
		query = query.Where("member_id = ?", *filter.MemberID)
	}
	if filter.PlanID != nil {
		query = query.Where("plan_id = ?", *filter.PlanID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.AutoRenew != nil {
		query = query.Where("auto_renew = ?", *filter.AutoRenew)
	}
	if filter.EndingBy != nil {
		query = query.Where("end_date <= ?", *filter.EndingBy)
	}

	return query
}

// Ensure GormSubscriptionRepository implements SubscriptionRepository
var _ membership.SubscriptionRepository = (*GormSubscriptionRepository)(nil)
