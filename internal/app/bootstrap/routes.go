// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	authgooglefeature "github.com/pulsehq/pulse/internal/app/features/authgoogle"
	backlogfeature "github.com/pulsehq/pulse/internal/app/features/backlog"
	billingfeature "github.com/pulsehq/pulse/internal/app/features/billing"
	checkinsfeature "github.com/pulsehq/pulse/internal/app/features/checkins"
	exportfeature "github.com/pulsehq/pulse/internal/app/features/export"
	feedbackfeature "github.com/pulsehq/pulse/internal/app/features/feedback"
	healthfeature "github.com/pulsehq/pulse/internal/app/features/health"
	insightsfeature "github.com/pulsehq/pulse/internal/app/features/insights"
	loginfeature "github.com/pulsehq/pulse/internal/app/features/login"
	logoutfeature "github.com/pulsehq/pulse/internal/app/features/logout"
	metricsfeature "github.com/pulsehq/pulse/internal/app/features/metrics"
	surveysfeature "github.com/pulsehq/pulse/internal/app/features/surveys"
	teamsfeature "github.com/pulsehq/pulse/internal/app/features/teams"
	"github.com/pulsehq/pulse/internal/app/store/audit"
	checkinstore "github.com/pulsehq/pulse/internal/app/store/checkins"
	metricsstore "github.com/pulsehq/pulse/internal/app/store/metrics"
	"github.com/pulsehq/pulse/internal/app/store/oauthstate"
	participantstore "github.com/pulsehq/pulse/internal/app/store/participants"
	surveystore "github.com/pulsehq/pulse/internal/app/store/surveys"
	teamstore "github.com/pulsehq/pulse/internal/app/store/teams"
	userstore "github.com/pulsehq/pulse/internal/app/store/users"
	"github.com/pulsehq/pulse/internal/app/system/auditlog"
	"github.com/pulsehq/pulse/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. Pulse is a JSON API: every feature
// mounts a chi subrouter, the session middleware loads the current user
// into the request context, and fine-grained authorization happens inside
// the handlers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Session manager; secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Fetch fresh user data on each request so role changes, tier changes,
	// and disabled accounts take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))

	auditLog := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:    appCfg.AuditLogAuth,
		Admin:   appCfg.AuditLogAdmin,
		Billing: appCfg.AuditLogBilling,
	})

	metricsSvc := metricsstore.NewService(
		teamstore.New(db),
		checkinstore.New(db),
		surveystore.New(db),
		participantstore.New(db),
		logger,
	)

	r := chi.NewRouter()

	// Global auth middleware: loads the session user into context if
	// signed in, making auth.CurrentUser(r) available to all handlers.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators.
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication.
	users := userstore.New(db)
	loginHandler := loginfeature.NewHandler(users, sessionMgr, auditLog, logger)
	logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLog, logger)
	googleHandler := authgooglefeature.NewHandler(
		users, sessionMgr, auditLog, oauthstate.New(db),
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)

	r.Route("/auth", func(ar chi.Router) {
		ar.Mount("/google", authgooglefeature.Routes(googleHandler))
		ar.Mount("/logout", logoutfeature.Routes(logoutHandler))
		ar.Mount("/", loginfeature.Routes(loginHandler, sessionMgr))
	})

	// Teams and everything scoped to one team.
	teamsHandler := teamsfeature.NewHandler(db, auditLog, logger)
	checkinsHandler := checkinsfeature.NewHandler(db, logger)
	surveysHandler := surveysfeature.NewHandler(db, logger)
	feedbackHandler := feedbackfeature.NewHandler(db, logger)
	metricsHandler := metricsfeature.NewHandler(db, metricsSvc, logger)
	insightsHandler := insightsfeature.NewHandler(db, metricsSvc, logger)
	exportHandler := exportfeature.NewHandler(db, logger)

	r.Route("/teams", func(tr chi.Router) {
		tr.Route("/{slug}", func(sr chi.Router) {
			sr.Mount("/checkins", checkinsfeature.Routes(checkinsHandler, sessionMgr))
			sr.Mount("/surveys", surveysfeature.Routes(surveysHandler, sessionMgr))
			sr.Mount("/feedback", feedbackfeature.Routes(feedbackHandler, sessionMgr))
			sr.Mount("/metrics", metricsfeature.TeamRoutes(metricsHandler, sessionMgr))
			sr.Mount("/insights", insightsfeature.Routes(insightsHandler, sessionMgr))
			sr.Mount("/export", exportfeature.Routes(exportHandler, sessionMgr))
		})
		tr.Mount("/", teamsfeature.Routes(teamsHandler, sessionMgr))
	})

	// Cross-team metrics overview.
	r.Mount("/metrics", metricsfeature.OverviewRoutes(metricsHandler, sessionMgr))

	// Billing: tier table, checkout lifecycle, provider webhook.
	billingHandler := billingfeature.NewHandler(db, auditLog, appCfg.BillingWebhookSecret, logger)
	r.Mount("/billing", billingfeature.Routes(billingHandler, sessionMgr))

	// Product backlog administration and the public changelog.
	backlogHandler := backlogfeature.NewHandler(db, auditLog, logger)
	r.Mount("/backlog", backlogfeature.Routes(backlogHandler, sessionMgr))
	r.Mount("/changelog", backlogfeature.ChangelogRoutes(backlogHandler))

	return r, nil
}
