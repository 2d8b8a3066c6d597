package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TenantProvider yields the tenants a nightly run fans out over.
type TenantProvider interface {
	GetAllActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// CronTriggerConfig sets when the nightly report run fires and how often
// the trigger polls the clock.
type CronTriggerConfig struct {
	DailyReportHour   int // 24h clock
	DailyReportMinute int
	CheckInterval     time.Duration
}

// DefaultCronTriggerConfig fires at 02:00, checking once a minute. Clubs
// are quiet then and the revenue day has closed.
func DefaultCronTriggerConfig() CronTriggerConfig {
	return CronTriggerConfig{
		DailyReportHour:   2,
		DailyReportMinute: 0,
		CheckInterval:     time.Minute,
	}
}

// CronTrigger fires the daily report fan-out. A ticker-and-date-check
// loop is enough here; a cron library would buy nothing for one fixed
// daily slot.
type CronTrigger struct {
	config         CronTriggerConfig
	scheduler      *Scheduler
	tenantProvider TenantProvider
	logger         *zap.Logger

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string // guards against double-firing within a day
}

func NewCronTrigger(
	config CronTriggerConfig,
	scheduler *Scheduler,
	tenantProvider TenantProvider,
	logger *zap.Logger,
) *CronTrigger {
	return &CronTrigger{
		config:         config,
		scheduler:      scheduler,
		tenantProvider: tenantProvider,
		logger:         logger,
	}
}

// Start launches the polling loop. Idempotent.
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("cron trigger started",
		zap.Int("daily_hour", c.config.DailyReportHour),
		zap.Int("daily_minute", c.config.DailyReportMinute),
		zap.Duration("check_interval", c.config.CheckInterval),
	)

	return nil
}

// Stop cancels the loop and waits for it, bounded by ctx.
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndTrigger(ctx)
		}
	}
}

func (c *CronTrigger) checkAndTrigger(ctx context.Context) {
	now := time.Now()
	currentDate := now.Format("2006-01-02")

	c.mu.Lock()
	if c.lastRunDate == currentDate {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	if now.Hour() != c.config.DailyReportHour || now.Minute() != c.config.DailyReportMinute {
		return
	}

	c.mu.Lock()
	c.lastRunDate = currentDate
	c.mu.Unlock()

	c.logger.Info("triggering daily report generation")
	c.triggerDailyReports(ctx)
}

// triggerDailyReports fans out per-tenant report jobs; one tenant failing
// to schedule does not block the rest.
func (c *CronTrigger) triggerDailyReports(ctx context.Context) {
	tenantIDs, err := c.tenantProvider.GetAllActiveTenantIDs(ctx)
	if err != nil {
		c.logger.Error("failed to get tenant IDs for daily reports", zap.Error(err))
		return
	}

	c.logger.Info("scheduling daily reports",
		zap.Int("tenant_count", len(tenantIDs)),
	)

	for _, tenantID := range tenantIDs {
		tid := tenantID
		if err := c.scheduler.ScheduleDailyReports(&tid); err != nil {
			c.logger.Error("failed to schedule daily reports for tenant",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
		}
	}
}

// TriggerManualRefresh schedules reports on demand, for the admin
// endpoint. A nil reportType means every type.
func (c *CronTrigger) TriggerManualRefresh(ctx context.Context, tenantID *uuid.UUID, reportType *ReportType, periodStart, periodEnd time.Time) error {
	if reportType != nil {
		return c.scheduler.ScheduleReport(tenantID, *reportType, periodStart, periodEnd)
	}

	for _, rt := range AllReportTypes() {
		if err := c.scheduler.ScheduleReport(tenantID, rt, periodStart, periodEnd); err != nil {
			return err
		}
	}
	return nil
}
