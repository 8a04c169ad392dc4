package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// CurrencyRefreshJobName is the scheduler name of the exchange rate refresh
const CurrencyRefreshJobName = "currency_refresh"

// DefaultRefreshTimeout bounds one refresh, feed fetch and database write included
const DefaultRefreshTimeout = 2 * time.Minute

// RateRefresher pulls and stores a new exchange rate snapshot
type RateRefresher interface {
	RefreshJob(ctx context.Context) error
}

// CurrencyRefreshJob refreshes the exchange table. A failed run keeps the previous rates.
type CurrencyRefreshJob struct {
	refresher RateRefresher
	logger    *zap.Logger
	timeout   time.Duration
}

func NewCurrencyRefreshJob(refresher RateRefresher, logger *zap.Logger, timeout time.Duration) *CurrencyRefreshJob {
	if timeout <= 0 {
		timeout = DefaultRefreshTimeout
	}
	return &CurrencyRefreshJob{refresher: refresher, logger: logger, timeout: timeout}
}

// Run executes one refresh and reports whether it succeeded
func (j *CurrencyRefreshJob) Run() bool {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	if err := j.refresher.RefreshJob(ctx); err != nil {
		j.logger.Error("currency refresh failed, keeping previous rates",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return false
	}
	j.logger.Info("currency refresh completed", zap.Duration("duration", time.Since(start)))
	return true
}

// RegisterCurrencyRefreshJob schedules the refresh. With runAtStartup the first run starts
// in the background so it does not delay the API.
func RegisterCurrencyRefreshJob(scheduler *Scheduler, refresher RateRefresher, logger *zap.Logger, cronExpr string, timeout time.Duration, runAtStartup bool) error {
	job := NewCurrencyRefreshJob(refresher, logger, timeout)
	if err := scheduler.AddJob(CurrencyRefreshJobName, cronExpr, func() { job.Run() }); err != nil {
		return err
	}
	if runAtStartup {
		go job.Run()
	}
	return nil
}
