// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	metricsstore "github.com/pulsehq/pulse/internal/app/store/metrics"
	"github.com/pulsehq/pulse/internal/app/store/oauthstate"
	subscriptionstore "github.com/pulsehq/pulse/internal/app/store/subscriptions"
	"go.uber.org/zap"
)

// MetricsRefreshJob creates the job that recomputes the denormalized
// metrics cache for every active team. The read path falls back to live
// computation, so a missed cycle degrades latency, not correctness.
func MetricsRefreshJob(svc *metricsstore.Service, interval time.Duration) Job {
	return Job{
		Name:     "metrics-refresh",
		Interval: interval,
		Timeout:  10 * time.Minute,
		Run: func(ctx context.Context) error {
			return svc.RefreshAll(ctx)
		},
	}
}

// StaleCheckoutCleanupJob creates a job that cancels pending checkouts the
// payment provider never settled.
func StaleCheckoutCleanupJob(subs *subscriptionstore.Store, logger *zap.Logger, olderThan time.Duration) Job {
	return Job{
		Name:     "stale-checkout-cleanup",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			count, err := subs.CancelStalePending(ctx, olderThan)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Info("canceled stale pending checkouts",
					zap.Int64("count", count),
					zap.Duration("older_than", olderThan))
			}
			return nil
		},
	}
}

// OAuthStateCleanupJob creates a job that removes expired OAuth state tokens.
// This is a backup for when MongoDB's TTL index cleanup is delayed.
func OAuthStateCleanupJob(stateStore *oauthstate.Store, logger *zap.Logger) Job {
	return Job{
		Name:     "oauth-state-cleanup",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			count, err := stateStore.CleanupExpired(ctx)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Debug("cleaned up expired OAuth states", zap.Int64("count", count))
			}
			return nil
		},
	}
}
