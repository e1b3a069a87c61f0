// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (HTTP ports, TLS,
// logging level, request limits). AppConfig is everything specific to
// Pulse: database connection, session cookies, OAuth credentials, billing,
// and the background job cadence.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // secret key for signing session cookies
	SessionName   string // cookie name
	SessionDomain string // cookie domain (blank means current host)

	// BaseURL is the externally visible origin, used to build the Google
	// OAuth callback URL.
	BaseURL string

	// Google OAuth configuration. Both must be set for the /auth/google
	// flow to be enabled.
	GoogleClientID     string
	GoogleClientSecret string

	// BillingWebhookSecret authenticates the payment provider's webhook
	// calls. Empty disables the webhook endpoint.
	BillingWebhookSecret string

	// MetricsRefreshInterval is how often the background job recomputes
	// cached team metrics.
	MetricsRefreshInterval time.Duration

	// CheckoutStaleAfter is how long a pending checkout may sit before the
	// cleanup job cancels it.
	CheckoutStaleAfter time.Duration

	// Audit logging destinations: "all" (db+log), "db", "log", or "off".
	AuditLogAuth    string
	AuditLogAdmin   string
	AuditLogBilling string

	// AdminEmail names an account promoted to the admin role on startup.
	AdminEmail string
}
