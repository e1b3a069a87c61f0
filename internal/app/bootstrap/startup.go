// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	checkinstore "github.com/pulsehq/pulse/internal/app/store/checkins"
	metricsstore "github.com/pulsehq/pulse/internal/app/store/metrics"
	"github.com/pulsehq/pulse/internal/app/store/oauthstate"
	participantstore "github.com/pulsehq/pulse/internal/app/store/participants"
	subscriptionstore "github.com/pulsehq/pulse/internal/app/store/subscriptions"
	surveystore "github.com/pulsehq/pulse/internal/app/store/surveys"
	teamstore "github.com/pulsehq/pulse/internal/app/store/teams"
	userstore "github.com/pulsehq/pulse/internal/app/store/users"
	"github.com/pulsehq/pulse/internal/app/system/authz"
	"github.com/pulsehq/pulse/internal/app/system/tasks"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// runner drives the background jobs; started here, stopped in Shutdown.
var runner *tasks.Runner

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It
// promotes the configured admin account and starts the background jobs.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := promoteAdmin(ctx, appCfg, deps, logger); err != nil {
		return err
	}

	db := deps.MongoDatabase
	svc := metricsstore.NewService(
		teamstore.New(db),
		checkinstore.New(db),
		surveystore.New(db),
		participantstore.New(db),
		logger,
	)

	runner = tasks.NewRunner(logger,
		tasks.MetricsRefreshJob(svc, appCfg.MetricsRefreshInterval),
		tasks.StaleCheckoutCleanupJob(subscriptionstore.New(db), logger, appCfg.CheckoutStaleAfter),
		tasks.OAuthStateCleanupJob(oauthstate.New(db), logger),
	)
	runner.Start()

	return nil
}

// promoteAdmin grants the admin role to the configured account. The account
// must already exist; a missing account is logged, not fatal, so a fresh
// deployment can register it first.
func promoteAdmin(ctx context.Context, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.AdminEmail == "" {
		return nil
	}
	users := userstore.New(deps.MongoDatabase)
	u, err := users.GetByEmail(ctx, appCfg.AdminEmail)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			logger.Warn("admin_email account not found; register it and restart to promote",
				zap.String("email", appCfg.AdminEmail))
			return nil
		}
		return err
	}
	if u.Role == authz.RoleAdmin {
		return nil
	}
	if err := users.SetRole(ctx, u.ID, authz.RoleAdmin); err != nil {
		return err
	}
	logger.Info("promoted account to admin", zap.String("email", appCfg.AdminEmail))
	return nil
}
