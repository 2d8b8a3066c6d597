package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UsageRecordRepository stores the append-only usage events a tenant emits
// (API calls, storage growth, booking creation and so on).
type UsageRecordRepository interface {
	Save(ctx context.Context, record *UsageRecord) error

	// SaveBatch writes records in one transaction; meters report them in bulk.
	SaveBatch(ctx context.Context, records []*UsageRecord) error

	FindByID(ctx context.Context, id uuid.UUID) (*UsageRecord, error)

	FindByTenant(ctx context.Context, tenantID uuid.UUID, filter UsageRecordFilter) ([]*UsageRecord, error)

	FindByTenantAndType(ctx context.Context, tenantID uuid.UUID, usageType UsageType, filter UsageRecordFilter) ([]*UsageRecord, error)

	CountByTenant(ctx context.Context, tenantID uuid.UUID, filter UsageRecordFilter) (int64, error)

	// SumByTenantAndType totals usage of one type over [start, end).
	SumByTenantAndType(ctx context.Context, tenantID uuid.UUID, usageType UsageType, start, end time.Time) (int64, error)

	// GetAggregatedUsage buckets usage into periods for trend charts.
	GetAggregatedUsage(ctx context.Context, tenantID uuid.UUID, usageType UsageType, start, end time.Time, groupBy AggregationPeriod) ([]UsageAggregation, error)

	// DeleteOlderThan prunes records past the retention window.
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// UsageRecordFilter narrows and pages usage record queries.
type UsageRecordFilter struct {
	StartTime  *time.Time
	EndTime    *time.Time
	UsageTypes []UsageType
	SourceType string
	UserID     *uuid.UUID
	Page       int // 1-based
	PageSize   int
	OrderBy    string
	OrderDir   string // asc or desc
}

// DefaultUsageRecordFilter pages 100 at a time, newest first.
func DefaultUsageRecordFilter() UsageRecordFilter {
	return UsageRecordFilter{
		Page:     1,
		PageSize: 100,
		OrderBy:  "recorded_at",
		OrderDir: "desc",
	}
}

func (f UsageRecordFilter) WithTimeRange(start, end time.Time) UsageRecordFilter {
	f.StartTime = &start
	f.EndTime = &end
	return f
}

func (f UsageRecordFilter) WithUsageTypes(types ...UsageType) UsageRecordFilter {
	f.UsageTypes = types
	return f
}

func (f UsageRecordFilter) WithPagination(page, pageSize int) UsageRecordFilter {
	f.Page = page
	f.PageSize = pageSize
	return f
}

// AggregationPeriod is the bucket size for usage trend aggregation.
type AggregationPeriod string

const (
	AggregationPeriodHour AggregationPeriod = "HOUR"
	AggregationPeriodDay AggregationPeriod = "DAY"
	AggregationPeriodWeek AggregationPeriod = "WEEK"
	AggregationPeriodMonth AggregationPeriod = "MONTH"
)

func (a AggregationPeriod) String() string {
	return string(a)
}

func (a AggregationPeriod) IsValid() bool {
	switch a {
	case AggregationPeriodHour, AggregationPeriodDay, AggregationPeriodWeek, AggregationPeriodMonth:
		return true
	}
	return false
}

// UsageAggregation is one bucket of the trend series.
type UsageAggregation struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
	TotalUsage  int64
	RecordCount int64
	MinUsage    int64
	MaxUsage    int64
	AvgUsage    float64
}

// UsageQuotaRepository stores per-plan quota defaults and per-tenant
// overrides; the effective quota resolves the override first.
type UsageQuotaRepository interface {
	Save(ctx context.Context, quota *UsageQuota) error

	Update(ctx context.Context, quota *UsageQuota) error

	// FindByID retrieves a usage quota by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*UsageQuota, error)

	// FindByPlan retrieves all quotas for a subscription plan
	FindByPlan(ctx context.Context, planID string) ([]*UsageQuota, error)

	// FindByPlanAndType retrieves a specific quota for a plan and usage type
	FindByPlanAndType(ctx context.Context, planID string, usageType UsageType) (*UsageQuota, error)

	FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]*UsageQuota, error)

	FindByTenantAndType(ctx context.Context, tenantID uuid.UUID, usageType UsageType) (*UsageQuota, error)

	// FindEffectiveQuota returns the tenant override if one exists,
	// otherwise the plan default.
	FindEffectiveQuota(ctx context.Context, tenantID uuid.UUID, planID string, usageType UsageType) (*UsageQuota, error)

	FindAllEffectiveQuotas(ctx context.Context, tenantID uuid.UUID, planID string) ([]*UsageQuota, error)

	Delete(ctx context.Context, id uuid.UUID) error

	DeleteByTenant(ctx context.Context, tenantID uuid.UUID) error
}

// UsageMeterRepository caches computed meters so the usage dashboard does
// not re-scan records on every request.
type UsageMeterRepository interface {
	GetMeter(ctx context.Context, tenantID uuid.UUID, usageType UsageType, periodStart, periodEnd time.Time) (*UsageMeter, error)

	SetMeter(ctx context.Context, meter *UsageMeter, ttl time.Duration) error

	InvalidateMeter(ctx context.Context, tenantID uuid.UUID, usageType UsageType) error

	InvalidateAllMeters(ctx context.Context, tenantID uuid.UUID) error

	GetSummary(ctx context.Context, tenantID uuid.UUID, periodStart, periodEnd time.Time) (*UsageSummary, error)

	SetSummary(ctx context.Context, summary *UsageSummary, ttl time.Duration) error

	// CalculateMeter rebuilds a meter from the raw records, bypassing cache.
	CalculateMeter(ctx context.Context, tenantID uuid.UUID, usageType UsageType, periodStart, periodEnd time.Time) (*UsageMeter, error)

	CalculateSummary(ctx context.Context, tenantID uuid.UUID, periodStart, periodEnd time.Time) (*UsageSummary, error)
}

// UsageService is the metering facade the handlers and middleware call.
type UsageService interface {
	RecordUsage(ctx context.Context, record *UsageRecord) error

	RecordUsageBatch(ctx context.Context, records []*UsageRecord) error

	// GetCurrentUsage reads the meter for the current billing period.
	GetCurrentUsage(ctx context.Context, tenantID uuid.UUID, usageType UsageType) (*UsageMeter, error)

	GetUsageSummary(ctx context.Context, tenantID uuid.UUID) (*UsageSummary, error)

	// CheckQuota answers whether the tenant may consume amount more units.
	CheckQuota(ctx context.Context, tenantID uuid.UUID, usageType UsageType, amount int64) (QuotaCheckResult, error)

	GetQuotaStatus(ctx context.Context, tenantID uuid.UUID) (map[UsageType]QuotaCheckResult, error)

	GetUsageTrend(ctx context.Context, tenantID uuid.UUID, usageType UsageType, periods int, period AggregationPeriod) (*UsageTrend, error)
}

// UsageEventPublisher emits quota and metering events onto the event bus.
type UsageEventPublisher interface {
	// PublishQuotaWarning fires when usage crosses the warning threshold.
	PublishQuotaWarning(ctx context.Context, tenantID uuid.UUID, result QuotaCheckResult) error

	PublishQuotaExceeded(ctx context.Context, tenantID uuid.UUID, result QuotaCheckResult) error

	PublishUsageRecorded(ctx context.Context, record *UsageRecord) error
}
