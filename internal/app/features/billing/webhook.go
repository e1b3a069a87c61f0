// internal/app/features/billing/webhook.go
package billing

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	uierrors "github.com/pulsehq/pulse/internal/app/features/errors"
	"github.com/pulsehq/pulse/internal/app/store/audit"
	subscriptionstore "github.com/pulsehq/pulse/internal/app/store/subscriptions"
	"github.com/pulsehq/pulse/internal/app/system/limits"
	"github.com/pulsehq/pulse/internal/app/system/timeouts"
	"github.com/pulsehq/pulse/internal/domain/models"
	"github.com/pulsehq/pulse/internal/domain/tier"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type webhookRequest struct {
	ProviderRef string `json:"provider_ref"`
	Event       string `json:"event"` // paid | failed | canceled
}

// HandleWebhook handles POST /billing/webhook: the payment provider reports
// a checkout outcome. The call authenticates with a shared secret header.
// Settlement is idempotent; redeliveries for an already-settled checkout
// are acknowledged without effect.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if h.WebhookSecret == "" {
		uierrors.Render(w, http.StatusNotImplemented, "billing webhook is not configured")
		return
	}
	got := r.Header.Get("X-Webhook-Secret")
	if subtle.ConstantTimeCompare([]byte(got), []byte(h.WebhookSecret)) != 1 {
		h.Log.Warn("billing webhook: bad secret", zap.String("remote", r.RemoteAddr))
		uierrors.RenderUnauthorized(w, r)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "billing webhook")
	defer cancel()

	var req webhookRequest
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid JSON body")
		return
	}

	var state, eventType string
	switch req.Event {
	case "paid":
		state, eventType = models.CheckoutPaid, audit.EventCheckoutPaid
	case "failed":
		state, eventType = models.CheckoutFailed, audit.EventCheckoutFailed
	case "canceled":
		state, eventType = models.CheckoutCanceled, audit.EventCheckoutCanceled
	default:
		h.ErrLog.LogBadRequest(w, r, "unknown event")
		return
	}

	sub, err := h.Subscriptions.GetByProviderRef(ctx, req.ProviderRef)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			uierrors.RenderNotFound(w, r, "checkout not found")
			return
		}
		h.ErrLog.LogServerError(w, r, "webhook: checkout lookup failed", err, "could not process event")
		return
	}

	settled, err := h.Subscriptions.Settle(ctx, sub.ID, state)
	if err != nil {
		if errors.Is(err, subscriptionstore.ErrNotPending) {
			// Redelivery; the first delivery already settled it.
			w.WriteHeader(http.StatusOK)
			return
		}
		h.ErrLog.LogServerError(w, r, "webhook: settle failed", err, "could not process event")
		return
	}

	if state == models.CheckoutPaid {
		if err := h.applyTier(ctx, settled); err != nil {
			// The checkout is settled; the tier write must not be lost.
			// Surface a 500 so the provider redelivers and support notices.
			h.ErrLog.LogServerError(w, r, "webhook: applying tier failed", err, "could not apply plan change")
			return
		}
	}

	h.AuditLog.CheckoutSettled(ctx, eventType, settled.OwnerID, settled.TargetTier, settled.ProviderRef,
		state == models.CheckoutPaid)

	w.WriteHeader(http.StatusOK)
}

// applyTier moves the owner to the purchased tier. A paid checkout never
// downgrades: if the owner already sits on a higher tier the write is
// skipped.
func (h *Handler) applyTier(ctx context.Context, sub models.Subscription) error {
	u, err := h.Users.GetByID(ctx, sub.OwnerID)
	if err != nil {
		return err
	}
	target := tier.Parse(sub.TargetTier)
	current := tier.Parse(u.Tier)
	if tier.Compare(target, current) <= 0 {
		return nil
	}
	if err := h.Users.SetTier(ctx, sub.OwnerID, target); err != nil {
		return err
	}
	h.AuditLog.TierChanged(ctx, sub.OwnerID, string(current), string(target), "checkout")
	return nil
}
