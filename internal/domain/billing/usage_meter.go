package billing

import (
	"time"

	"github.com/google/uuid"
)

// UsageMeter is a read-model snapshot of a tenant's aggregated usage over a
// period. Plan quota enforcement and the usage dashboards read from it; it
// never writes back to the underlying records.
type UsageMeter struct {
	TenantID    uuid.UUID
	UsageType   UsageType
	Unit        UsageUnit
	PeriodStart time.Time
	PeriodEnd   time.Time
	TotalUsage  int64
	RecordCount int64
	PeakUsage   int64   // peak value, meaningful for countable resources
	AverageRate float64 // average usage per day
	LastUpdated time.Time
	QuotaLimit  *int64  // nil means no quota
	QuotaUsed   float64 // percent of quota consumed, may exceed 100
}

// NewUsageMeter returns an empty meter for the given period.
func NewUsageMeter(
	tenantID uuid.UUID,
	usageType UsageType,
	periodStart time.Time,
	periodEnd time.Time,
) *UsageMeter {
	return &UsageMeter{
		TenantID:    tenantID,
		UsageType:   usageType,
		Unit:        usageType.Unit(),
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		LastUpdated: time.Now(),
	}
}

// NewUsageMeterForCurrentMonth returns a meter spanning the current calendar
// billing month.
func NewUsageMeterForCurrentMonth(tenantID uuid.UUID, usageType UsageType) *UsageMeter {
	now := time.Now()
	periodStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	periodEnd := periodStart.AddDate(0, 1, 0).Add(-time.Nanosecond)

	return NewUsageMeter(tenantID, usageType, periodStart, periodEnd)
}

func (m *UsageMeter) WithTotalUsage(total int64) *UsageMeter {
	m.TotalUsage = total
	m.calculateQuotaUsed()
	return m
}

func (m *UsageMeter) WithRecordCount(count int64) *UsageMeter {
	m.RecordCount = count
	return m
}

func (m *UsageMeter) WithPeakUsage(peak int64) *UsageMeter {
	m.PeakUsage = peak
	return m
}

func (m *UsageMeter) WithQuotaLimit(limit int64) *UsageMeter {
	m.QuotaLimit = &limit
	m.calculateQuotaUsed()
	return m
}

func (m *UsageMeter) calculateQuotaUsed() {
	if m.QuotaLimit != nil && *m.QuotaLimit > 0 {
		m.QuotaUsed = float64(m.TotalUsage) / float64(*m.QuotaLimit) * 100
	} else {
		m.QuotaUsed = 0
	}
}

// CalculateAverageRate derives the per-day rate from the period length.
func (m *UsageMeter) CalculateAverageRate() *UsageMeter {
	days := m.PeriodEnd.Sub(m.PeriodStart).Hours() / 24
	if days > 0 {
		m.AverageRate = float64(m.TotalUsage) / days
	}
	return m
}

// IsOverQuota reports whether usage exceeds the quota limit.
func (m *UsageMeter) IsOverQuota() bool {
	return m.QuotaLimit != nil && m.TotalUsage > *m.QuotaLimit
}

// IsNearQuota reports whether usage is at or past the threshold percentage.
func (m *UsageMeter) IsNearQuota(thresholdPercent float64) bool {
	return m.QuotaUsed >= thresholdPercent
}

// GetRemainingQuota returns the quota left, -1 when no quota applies.
func (m *UsageMeter) GetRemainingQuota() int64 {
	if m.QuotaLimit == nil {
		return -1
	}
	remaining := *m.QuotaLimit - m.TotalUsage
	if remaining < 0 {
		return 0
	}
	return remaining
}

// GetFormattedTotalUsage renders the total with its unit.
func (m *UsageMeter) GetFormattedTotalUsage() string {
	return m.Unit.FormatValue(m.TotalUsage)
}

// GetFormattedQuotaLimit renders the quota with its unit.
func (m *UsageMeter) GetFormattedQuotaLimit() string {
	if m.QuotaLimit == nil {
		return "Unlimited"
	}
	return m.Unit.FormatValue(*m.QuotaLimit)
}

// GetDaysRemaining counts the days left in the billing period.
func (m *UsageMeter) GetDaysRemaining() int {
	now := time.Now()
	if now.After(m.PeriodEnd) {
		return 0
	}
	return int(m.PeriodEnd.Sub(now).Hours() / 24)
}

// GetDaysElapsed counts the days of the billing period already passed.
func (m *UsageMeter) GetDaysElapsed() int {
	now := time.Now()
	if now.Before(m.PeriodStart) {
		return 0
	}
	if now.After(m.PeriodEnd) {
		return int(m.PeriodEnd.Sub(m.PeriodStart).Hours() / 24)
	}
	return int(now.Sub(m.PeriodStart).Hours() / 24)
}

// ProjectedUsage extrapolates the current daily rate to the end of the
// period.
func (m *UsageMeter) ProjectedUsage() int64 {
	daysElapsed := m.GetDaysElapsed()
	if daysElapsed == 0 {
		return m.TotalUsage
	}

	totalDays := int(m.PeriodEnd.Sub(m.PeriodStart).Hours() / 24)
	dailyRate := float64(m.TotalUsage) / float64(daysElapsed)
	return int64(dailyRate * float64(totalDays))
}

// WillExceedQuota reports whether the projection runs past the quota.
func (m *UsageMeter) WillExceedQuota() bool {
	if m.QuotaLimit == nil {
		return false
	}
	return m.ProjectedUsage() > *m.QuotaLimit
}

// UsageSummary groups one meter per usage type for a tenant's period.
type UsageSummary struct {
	TenantID    uuid.UUID
	PeriodStart time.Time
	PeriodEnd   time.Time
	Meters      map[UsageType]*UsageMeter
	LastUpdated time.Time
}

func NewUsageSummary(tenantID uuid.UUID, periodStart, periodEnd time.Time) *UsageSummary {
	return &UsageSummary{
		TenantID:    tenantID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Meters:      make(map[UsageType]*UsageMeter),
		LastUpdated: time.Now(),
	}
}

func (s *UsageSummary) AddMeter(meter *UsageMeter) *UsageSummary {
	s.Meters[meter.UsageType] = meter
	s.LastUpdated = time.Now()
	return s
}

func (s *UsageSummary) GetMeter(usageType UsageType) *UsageMeter {
	return s.Meters[usageType]
}

// GetOverQuotaTypes returns all usage types that are over quota
func (s *UsageSummary) GetOverQuotaTypes() []UsageType {
	var overQuota []UsageType
	for usageType, meter := range s.Meters {
		if meter.IsOverQuota() {
			overQuota = append(overQuota, usageType)
		}
	}
	return overQuota
}

// GetNearQuotaTypes returns all usage types near the quota threshold
func (s *UsageSummary) GetNearQuotaTypes(thresholdPercent float64) []UsageType {
	var nearQuota []UsageType
	for usageType, meter := range s.Meters {
		if meter.IsNearQuota(thresholdPercent) && !meter.IsOverQuota() {
			nearQuota = append(nearQuota, usageType)
		}
	}
	return nearQuota
}

// HasAnyOverQuota returns true if any usage type is over quota
func (s *UsageSummary) HasAnyOverQuota() bool {
	return len(s.GetOverQuotaTypes()) > 0
}

// UsageTrend represents usage trend data for analytics
type UsageTrend struct {
	TenantID   uuid.UUID
	UsageType  UsageType
	DataPoints []UsageDataPoint
}

// UsageDataPoint represents a single data point in a usage trend
type UsageDataPoint struct {
	Timestamp time.Time
	Value     int64
}

// NewUsageTrend creates a new usage trend
func NewUsageTrend(tenantID uuid.UUID, usageType UsageType) *UsageTrend {
	return &UsageTrend{
		TenantID:   tenantID,
		UsageType:  usageType,
		DataPoints: make([]UsageDataPoint, 0),
	}
}

// AddDataPoint adds a data point to the trend
func (t *UsageTrend) AddDataPoint(timestamp time.Time, value int64) *UsageTrend {
	t.DataPoints = append(t.DataPoints, UsageDataPoint{
		Timestamp: timestamp,
		Value:     value,
	})
	return t
}

// GetLatestValue returns the most recent data point value
func (t *UsageTrend) GetLatestValue() int64 {
	if len(t.DataPoints) == 0 {
		return 0
	}
	return t.DataPoints[len(t.DataPoints)-1].Value
}

// GetGrowthRate calculates the growth rate between first and last data points
func (t *UsageTrend) GetGrowthRate() float64 {
	if len(t.DataPoints) < 2 {
		return 0
	}
	first := t.DataPoints[0].Value
	last := t.DataPoints[len(t.DataPoints)-1].Value
	if first == 0 {
		return 0
	}
	return float64(last-first) / float64(first) * 100
}
