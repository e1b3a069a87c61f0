// internal/app/features/billing/checkout.go
package billing

import (
	"encoding/json"
	"net/http"

	uierrors "github.com/pulsehq/pulse/internal/app/features/errors"
	"github.com/pulsehq/pulse/internal/app/system/gates"
	"github.com/pulsehq/pulse/internal/app/system/limits"
	"github.com/pulsehq/pulse/internal/app/system/timeouts"
	"github.com/pulsehq/pulse/internal/domain/tier"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServeTiers handles GET /billing/tiers: the public plan table.
func (h *Handler) ServeTiers(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string][]tier.Row{"tiers": tier.All()})
}

type checkoutRequest struct {
	TargetTier string `json:"target_tier"`
}

// HandleCreateCheckout handles POST /billing/checkout: opens a pending
// checkout toward the target tier. The tier only changes when the provider
// webhook reports the payment as settled.
func (h *Handler) HandleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireOwnerOrAdmin(w, r, "only owner accounts purchase plans")
	if !res.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create checkout")
	defer cancel()

	var req checkoutRequest
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid JSON body")
		return
	}
	if !tier.Valid(req.TargetTier) {
		h.ErrLog.LogBadRequest(w, r, "unknown tier")
		return
	}
	target := tier.Parse(req.TargetTier)
	if tier.Compare(target, res.Tier) <= 0 {
		h.ErrLog.LogBadRequest(w, r, "target tier must be an upgrade from your current plan")
		return
	}

	sub, err := h.Subscriptions.CreateCheckout(ctx, res.UserID, string(target))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create checkout failed", err, "could not start checkout")
		return
	}

	h.AuditLog.CheckoutCreated(ctx, r, res.UserID, sub.TargetTier, sub.ProviderRef)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toCheckoutResponse(sub))
}

// ServeCheckout handles GET /billing/checkout/{id}: clients poll this while
// the provider settles.
func (h *Handler) ServeCheckout(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireOwnerOrAdmin(w, r, "only owner accounts have checkouts")
	if !res.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "checkout status")
	defer cancel()

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid checkout id")
		return
	}

	sub, err := h.Subscriptions.GetByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			uierrors.RenderNotFound(w, r, "checkout not found")
			return
		}
		h.ErrLog.LogServerError(w, r, "checkout lookup failed", err, "could not load checkout")
		return
	}
	if sub.OwnerID != res.UserID {
		uierrors.RenderNotFound(w, r, "checkout not found")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toCheckoutResponse(sub))
}

// ServeHistory handles GET /billing/history: the owner's checkouts, newest
// first.
func (h *Handler) ServeHistory(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireOwnerOrAdmin(w, r, "only owner accounts have billing history")
	if !res.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "billing history")
	defer cancel()

	subs, err := h.Subscriptions.ListByOwner(ctx, res.UserID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "billing history failed", err, "could not load billing history")
		return
	}

	out := make([]checkoutResponse, 0, len(subs))
	for _, sub := range subs {
		out = append(out, toCheckoutResponse(sub))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string][]checkoutResponse{"checkouts": out})
}
