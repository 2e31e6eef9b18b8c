package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TenantLister lists every organization the daily jobs run for.
type TenantLister interface {
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

// CronTriggerConfig holds configuration for the cron trigger
type CronTriggerConfig struct {
	// Hour and Minute are the local time of day the daily jobs run at.
	Hour   int
	Minute int

	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration

	Kinds []JobKind
}

// DefaultCronTriggerConfig returns default cron trigger configuration
func DefaultCronTriggerConfig() CronTriggerConfig {
	return CronTriggerConfig{
		Hour:          6,
		CheckInterval: time.Minute,
		Kinds:         []JobKind{JobKindExpiryScan},
	}
}

// CronTrigger submits the daily jobs for every tenant once per day, on the
// first check at or after the configured time.
type CronTrigger struct {
	config    CronTriggerConfig
	scheduler *Scheduler
	tenants   TenantLister
	logger    *zap.Logger
	now       func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewCronTrigger creates a new cron trigger
func NewCronTrigger(config CronTriggerConfig, scheduler *Scheduler, tenants TenantLister, logger *zap.Logger) *CronTrigger {
	return &CronTrigger{
		config:    config,
		scheduler: scheduler,
		tenants:   tenants,
		logger:    logger,
		now:       time.Now,
	}
}

// Start starts the cron trigger
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

	c.logger.Info("Cron trigger started",
		zap.Int("daily_hour", c.config.Hour),
		zap.Int("daily_minute", c.config.Minute),
		zap.Duration("check_interval", c.config.CheckInterval),
	)
	return nil
}

// Stop stops the cron trigger
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
		c.logger.Info("Cron trigger stopped")
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

// checkAndTrigger reports whether the daily jobs were submitted by this call.
func (c *CronTrigger) checkAndTrigger(ctx context.Context) bool {
	now := c.now()
	currentDate := now.Format("2006-01-02")
	due := time.Date(now.Year(), now.Month(), now.Day(), c.config.Hour, c.config.Minute, 0, 0, now.Location())

	c.mu.Lock()
	if c.lastRunDate == currentDate || now.Before(due) {
		c.mu.Unlock()
		return false
	}
	c.lastRunDate = currentDate
	c.mu.Unlock()

	c.logger.Info("Triggering daily jobs", zap.String("date", currentDate))
	if err := c.TriggerNow(ctx); err != nil {
		c.logger.Error("Failed to trigger daily jobs", zap.Error(err))
	}
	return true
}

// TriggerNow submits every configured job kind for every tenant immediately.
func (c *CronTrigger) TriggerNow(ctx context.Context) error {
	tenantIDs, err := c.tenants.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("list tenants: %w", err)
	}

	c.logger.Info("Scheduling daily jobs for tenants", zap.Int("tenant_count", len(tenantIDs)))

	asOf := c.now()
	for _, kind := range c.config.Kinds {
		if err := c.scheduler.Schedule(kind, asOf, tenantIDs...); err != nil {
			return err
		}
	}
	return nil
}
