// internal/app/features/billing/handler.go
package billing

import (
	uierrors "github.com/pulsehq/pulse/internal/app/features/errors"
	subscriptionstore "github.com/pulsehq/pulse/internal/app/store/subscriptions"
	userstore "github.com/pulsehq/pulse/internal/app/store/users"
	"github.com/pulsehq/pulse/internal/app/system/auditlog"
	"github.com/pulsehq/pulse/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves subscription tiers and the checkout lifecycle.
type Handler struct {
	Users         *userstore.Store
	Subscriptions *subscriptionstore.Store
	AuditLog      *auditlog.Logger
	Log           *zap.Logger
	ErrLog        *uierrors.ErrorLogger

	// WebhookSecret authenticates the payment provider's webhook calls.
	// An empty secret disables the webhook endpoint.
	WebhookSecret string
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, webhookSecret string, logger *zap.Logger) *Handler {
	return &Handler{
		Users:         userstore.New(db),
		Subscriptions: subscriptionstore.New(db),
		AuditLog:      audit,
		Log:           logger,
		ErrLog:        uierrors.NewErrorLogger(logger),
		WebhookSecret: webhookSecret,
	}
}

// checkoutResponse is the JSON shape for one checkout record.
type checkoutResponse struct {
	ID          string `json:"id"`
	TargetTier  string `json:"target_tier"`
	State       string `json:"state"`
	ProviderRef string `json:"provider_ref"`
}

func toCheckoutResponse(sub models.Subscription) checkoutResponse {
	return checkoutResponse{
		ID:          sub.ID.Hex(),
		TargetTier:  sub.TargetTier,
		State:       sub.State,
		ProviderRef: sub.ProviderRef,
	}
}
