// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBillingMetricsProvider implements BillingMetricsProvider using GORM.
// It queries the invoices and dunning_sequences tables directly for aggregated metrics.
type GormBillingMetricsProvider struct {
	db *gorm.DB
}

// NewGormBillingMetricsProvider creates a new GormBillingMetricsProvider.
func NewGormBillingMetricsProvider(db *gorm.DB) *GormBillingMetricsProvider {
	return &GormBillingMetricsProvider{db: db}
}

// GetOverdueInvoiceCount returns the number of unpaid invoices past their due date for a tenant.
func (p *GormBillingMetricsProvider) GetOverdueInvoiceCount(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("invoices").
		Where("tenant_id = ?", tenantID).
		Where("status IN ?", []string{"ISSUED", "PARTIALLY_PAID", "OVERDUE"}).
		Where("due_date IS NOT NULL AND due_date < NOW()").
		Count(&count).Error

	return count, err
}

// GetActiveDunningCount returns the number of dunning sequences currently in progress for a tenant.
func (p *GormBillingMetricsProvider) GetActiveDunningCount(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("dunning_sequences").
		Where("tenant_id = ?", tenantID).
		Where("status IN ?", []string{"ACTIVE", "PAUSED"}).
		Count(&count).Error

	return count, err
}

// GormTenantProvider implements TenantProvider using GORM.
type GormTenantProvider struct {
	db *gorm.DB
}

// NewGormTenantProvider creates a new GormTenantProvider.
func NewGormTenantProvider(db *gorm.DB) *GormTenantProvider {
	return &GormTenantProvider{db: db}
}

// GetActiveTenantIDs returns IDs of tenants that are active or in trial.
func (p *GormTenantProvider) GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := p.db.WithContext(ctx).
		Table("tenants").
		Select("id").
		Where("status IN ?", []string{"active", "trial"}).
		Find(&ids).Error

	return ids, err
}
