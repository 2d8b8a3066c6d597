// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides business metrics for the billing platform.
// It tracks invoice issuance, payment activity, and dunning health.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	invoiceIssuedTotal *Counter
	invoiceAmountTotal *Counter
	paymentTotal       *Counter
	dunningStepTotal   *Counter

	// Gauge metrics (point-in-time values)
	overdueInvoiceCount *Gauge
	activeDunningCount  *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	// Data providers for periodic collection
	billingProvider BillingMetricsProvider
}

// BillingMetricsProvider provides billing data for periodic metrics collection.
// This interface allows the telemetry layer to query billing state without
// depending on the billing domain directly.
type BillingMetricsProvider interface {
	// GetOverdueInvoiceCount returns the number of unpaid invoices past their due date for a tenant
	GetOverdueInvoiceCount(ctx context.Context, tenantID uuid.UUID) (int64, error)

	// GetActiveDunningCount returns the number of dunning sequences currently in progress for a tenant
	GetActiveDunningCount(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	BillingProvider BillingMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:           cfg.Meter,
		logger:          logger,
		stopChan:        make(chan struct{}),
		billingProvider: cfg.BillingProvider,
	}

	// Initialize counter metrics
	var err error

	// Invoice metrics
	bm.invoiceIssuedTotal, err = NewCounter(
		cfg.Meter,
		"gym_invoice_issued_total",
		"Total number of invoices issued",
		"{invoices}",
	)
	if err != nil {
		return nil, err
	}

	bm.invoiceAmountTotal, err = NewCounter(
		cfg.Meter,
		"gym_invoice_amount_total",
		"Total invoiced amount in the smallest currency unit (halalas)",
		"{halalas}",
	)
	if err != nil {
		return nil, err
	}

	// Payment metrics
	bm.paymentTotal, err = NewCounter(
		cfg.Meter,
		"gym_payment_total",
		"Total number of payment transactions",
		"{payments}",
	)
	if err != nil {
		return nil, err
	}

	// Dunning metrics
	bm.dunningStepTotal, err = NewCounter(
		cfg.Meter,
		"gym_dunning_step_total",
		"Total number of dunning steps executed",
		"{steps}",
	)
	if err != nil {
		return nil, err
	}

	bm.overdueInvoiceCount, err = NewGauge(
		cfg.Meter,
		"gym_invoice_overdue_count",
		"Number of unpaid invoices past their due date",
		"{invoices}",
	)
	if err != nil {
		return nil, err
	}

	bm.activeDunningCount, err = NewGauge(
		cfg.Meter,
		"gym_dunning_active_count",
		"Number of dunning sequences currently in progress",
		"{sequences}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Invoice Metrics
// =============================================================================

// RecordInvoiceIssued records an invoice issuance event.
// This should be called from the application layer when an invoice is issued.
func (bm *BusinessMetrics) RecordInvoiceIssued(ctx context.Context, tenantID uuid.UUID, currency string) {
	bm.invoiceIssuedTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrCurrency.String(currency),
	)
}

// RecordInvoiceAmount records the invoiced amount.
// Amount should be in the smallest currency unit (halalas/cents).
func (bm *BusinessMetrics) RecordInvoiceAmount(ctx context.Context, tenantID uuid.UUID, currency string, amountMinor int64) {
	bm.invoiceAmountTotal.Add(ctx, amountMinor,
		AttrTenantID.String(tenantID.String()),
		AttrCurrency.String(currency),
	)
}

// RecordInvoiceWithAmount is a convenience method that records both invoice count and amount.
func (bm *BusinessMetrics) RecordInvoiceWithAmount(ctx context.Context, tenantID uuid.UUID, currency string, amount decimal.Decimal) {
	bm.RecordInvoiceIssued(ctx, tenantID, currency)

	// Convert to the minor unit (multiply by 100)
	amountMinor := amount.Mul(decimal.NewFromInt(100)).IntPart()
	bm.RecordInvoiceAmount(ctx, tenantID, currency, amountMinor)
}

// =============================================================================
// Payment Metrics
// =============================================================================

// PaymentStatus represents the outcome of a payment for metrics labeling.
type PaymentStatus string

const (
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// RecordPayment records a payment transaction.
// This should be called when a payment is recorded against an invoice.
func (bm *BusinessMetrics) RecordPayment(ctx context.Context, tenantID uuid.UUID, paymentMethod string, status PaymentStatus) {
	bm.paymentTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrPaymentMethod.String(paymentMethod),
		AttrPaymentStatus.String(string(status)),
	)
}

// =============================================================================
// Dunning Metrics
// =============================================================================

// RecordDunningStep records an executed dunning step.
// StepKind is the kind of step that was executed (reminder, retry, escalation).
func (bm *BusinessMetrics) RecordDunningStep(ctx context.Context, tenantID uuid.UUID, stepKind string) {
	bm.dunningStepTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrStepKind.String(stepKind),
	)
}

// RecordOverdueInvoiceCount records the number of overdue invoices for a tenant.
// This is a gauge metric that should be updated periodically.
func (bm *BusinessMetrics) RecordOverdueInvoiceCount(ctx context.Context, tenantID uuid.UUID, count int64) {
	bm.overdueInvoiceCount.Record(ctx, count,
		AttrTenantID.String(tenantID.String()),
	)
}

// RecordActiveDunningCount records the number of in-progress dunning sequences.
// This is a gauge metric that should be updated periodically.
func (bm *BusinessMetrics) RecordActiveDunningCount(ctx context.Context, tenantID uuid.UUID, count int64) {
	bm.activeDunningCount.Record(ctx, count,
		AttrTenantID.String(tenantID.String()),
	)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// TenantProvider provides tenant IDs for periodic metrics collection.
type TenantProvider interface {
	GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// StartPeriodicCollection starts periodic collection of gauge metrics.
// It collects billing metrics every interval (default: 5 minutes).
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, tenantProvider, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	bm.collectBillingMetrics(ctx, tenantProvider)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectBillingMetrics(ctx, tenantProvider)
		}
	}
}

// collectBillingMetrics collects billing gauge metrics for all tenants.
func (bm *BusinessMetrics) collectBillingMetrics(ctx context.Context, tenantProvider TenantProvider) {
	if bm.billingProvider == nil {
		bm.logger.Debug("No billing provider configured, skipping billing metrics collection")
		return
	}

	tenantIDs, err := tenantProvider.GetActiveTenantIDs(ctx)
	if err != nil {
		bm.logger.Error("Failed to get tenant IDs for metrics collection", zap.Error(err))
		return
	}

	for _, tenantID := range tenantIDs {
		bm.collectTenantBillingMetrics(ctx, tenantID)
	}
}

// collectTenantBillingMetrics collects billing metrics for a single tenant.
func (bm *BusinessMetrics) collectTenantBillingMetrics(ctx context.Context, tenantID uuid.UUID) {
	overdueCount, err := bm.billingProvider.GetOverdueInvoiceCount(ctx, tenantID)
	if err != nil {
		bm.logger.Warn("Failed to get overdue invoice count for tenant",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	} else {
		bm.RecordOverdueInvoiceCount(ctx, tenantID, overdueCount)
	}

	activeDunning, err := bm.billingProvider.GetActiveDunningCount(ctx, tenantID)
	if err != nil {
		bm.logger.Warn("Failed to get active dunning count for tenant",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	} else {
		bm.RecordActiveDunningCount(ctx, tenantID, activeDunning)
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// =============================================================================
// Attribute Key Constants
// =============================================================================

// Business metrics attribute keys not already defined in metrics.go
var (
	// Additional business attributes can be added here
	AttrPaymentSource = attribute.Key("payment_source")
)
