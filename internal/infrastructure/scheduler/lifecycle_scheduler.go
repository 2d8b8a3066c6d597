package scheduler

import (
	"context"
	"sync"
	"time"

	appbilling "github.com/liyaqa/backend/internal/application/billing"
	appcompliance "github.com/liyaqa/backend/internal/application/compliance"
	appdunning "github.com/liyaqa/backend/internal/application/dunning"
	appmembership "github.com/liyaqa/backend/internal/application/membership"
	"go.uber.org/zap"
)

// LifecycleSchedulerConfig holds configuration for the billing lifecycle sweeps
type LifecycleSchedulerConfig struct {
	// Enabled determines if the scheduler is active
	Enabled bool

	// DunningTickInterval is how often due dunning steps are executed
	DunningTickInterval time.Duration

	// OverdueSweepInterval is how often issued invoices are checked for overdue
	OverdueSweepInterval time.Duration

	// TaxSubmitInterval is how often pending tax submissions are dispatched
	TaxSubmitInterval time.Duration

	// TaxRetryInterval is how often failed tax submissions are re-attempted
	TaxRetryInterval time.Duration

	// ExpirySweepInterval is how often subscriptions are checked for expiry
	// and deferred cancellation
	ExpirySweepInterval time.Duration

	// BatchSize caps how many records a single sweep iteration processes
	BatchSize int

	// SweepTimeout is the maximum time a single sweep run may take
	SweepTimeout time.Duration
}

// DefaultLifecycleSchedulerConfig returns default configuration
func DefaultLifecycleSchedulerConfig() LifecycleSchedulerConfig {
	return LifecycleSchedulerConfig{
		Enabled:              true,
		DunningTickInterval:  5 * time.Minute,
		OverdueSweepInterval: 15 * time.Minute,
		TaxSubmitInterval:    time.Minute,
		TaxRetryInterval:     5 * time.Minute,
		ExpirySweepInterval:  time.Hour,
		BatchSize:            200,
		SweepTimeout:         10 * time.Minute,
	}
}

// LifecycleScheduler drives the time-based transitions of the billing
// lifecycle: dunning step execution, overdue detection, tax submission
// dispatch and retry, and subscription expiry. Each sweep is idempotent so a
// crashed run is simply picked up on the next tick.
type LifecycleScheduler struct {
	subscriptionService *appmembership.SubscriptionService
	invoiceService      *appbilling.InvoiceService
	taxService          *appcompliance.TaxSubmissionService
	dunningService      *appdunning.DunningService
	logger              *zap.Logger
	config              LifecycleSchedulerConfig

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewLifecycleScheduler creates a new lifecycle scheduler
func NewLifecycleScheduler(
	subscriptionService *appmembership.SubscriptionService,
	invoiceService *appbilling.InvoiceService,
	taxService *appcompliance.TaxSubmissionService,
	dunningService *appdunning.DunningService,
	logger *zap.Logger,
	config LifecycleSchedulerConfig,
) *LifecycleScheduler {
	return &LifecycleScheduler{
		subscriptionService: subscriptionService,
		invoiceService:      invoiceService,
		taxService:          taxService,
		dunningService:      dunningService,
		logger:              logger,
		config:              config,
	}
}

// Start starts the lifecycle scheduler
func (s *LifecycleScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Lifecycle scheduler is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.startLoop(ctx, "dunning_tick", s.config.DunningTickInterval, s.runDunningTick)
	s.startLoop(ctx, "overdue_sweep", s.config.OverdueSweepInterval, s.runOverdueSweep)
	s.startLoop(ctx, "tax_submit", s.config.TaxSubmitInterval, s.runTaxSubmit)
	s.startLoop(ctx, "tax_retry", s.config.TaxRetryInterval, s.runTaxRetry)
	s.startLoop(ctx, "expiry_sweep", s.config.ExpirySweepInterval, s.runExpirySweep)

	s.logger.Info("Lifecycle scheduler started",
		zap.Duration("dunning_tick_interval", s.config.DunningTickInterval),
		zap.Duration("overdue_sweep_interval", s.config.OverdueSweepInterval),
		zap.Duration("tax_submit_interval", s.config.TaxSubmitInterval),
		zap.Duration("tax_retry_interval", s.config.TaxRetryInterval),
		zap.Duration("expiry_sweep_interval", s.config.ExpirySweepInterval),
		zap.Int("batch_size", s.config.BatchSize),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *LifecycleScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Lifecycle scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Lifecycle scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the scheduler is running
func (s *LifecycleScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// startLoop launches a ticker loop that invokes the sweep at the interval
func (s *LifecycleScheduler) startLoop(ctx context.Context, name string, interval time.Duration, sweep func(ctx context.Context, now time.Time) (int, error)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Debug("Sweep loop stopping", zap.String("sweep", name))
				return
			case now := <-ticker.C:
				s.executeSweep(ctx, name, now, sweep)
			}
		}
	}()
}

// executeSweep runs a single sweep iteration with a timeout
func (s *LifecycleScheduler) executeSweep(ctx context.Context, name string, now time.Time, sweep func(ctx context.Context, now time.Time) (int, error)) {
	sweepCtx, cancel := context.WithTimeout(ctx, s.config.SweepTimeout)
	defer cancel()

	startTime := time.Now()
	processed, err := sweep(sweepCtx, now)
	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("Sweep failed",
			zap.String("sweep", name),
			zap.Int("processed", processed),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}

	if processed > 0 {
		s.logger.Info("Sweep completed",
			zap.String("sweep", name),
			zap.Int("processed", processed),
			zap.Duration("duration", duration),
		)
	} else {
		s.logger.Debug("Sweep completed",
			zap.String("sweep", name),
			zap.Duration("duration", duration),
		)
	}
}

func (s *LifecycleScheduler) runDunningTick(ctx context.Context, now time.Time) (int, error) {
	return s.dunningService.Tick(ctx, now, s.config.BatchSize)
}

func (s *LifecycleScheduler) runOverdueSweep(ctx context.Context, now time.Time) (int, error) {
	return s.invoiceService.OverdueSweep(ctx, now, s.config.BatchSize)
}

func (s *LifecycleScheduler) runTaxSubmit(ctx context.Context, now time.Time) (int, error) {
	return s.taxService.SubmitPending(ctx, s.config.BatchSize)
}

func (s *LifecycleScheduler) runTaxRetry(ctx context.Context, now time.Time) (int, error) {
	return s.taxService.RetrySweep(ctx, now, s.config.BatchSize)
}

func (s *LifecycleScheduler) runExpirySweep(ctx context.Context, now time.Time) (int, error) {
	return s.subscriptionService.ExpirySweep(ctx, now, s.config.BatchSize)
}

// TriggerSweep runs a named sweep immediately. Used by the operations API.
func (s *LifecycleScheduler) TriggerSweep(ctx context.Context, name string) (int, error) {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return 0, ErrSchedulerNotRunning
	}
	s.mu.Unlock()

	now := time.Now()
	switch name {
	case "dunning_tick":
		return s.runDunningTick(ctx, now)
	case "overdue_sweep":
		return s.runOverdueSweep(ctx, now)
	case "tax_submit":
		return s.runTaxSubmit(ctx, now)
	case "tax_retry":
		return s.runTaxRetry(ctx, now)
	case "expiry_sweep":
		return s.runExpirySweep(ctx, now)
	default:
		return 0, ErrInvalidConfig
	}
}
