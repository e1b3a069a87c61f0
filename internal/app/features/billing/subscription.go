// internal/app/features/billing/subscription.go
package billing

import (
	"encoding/json"
	"net/http"

	"github.com/pulsehq/pulse/internal/app/system/gates"
	"github.com/pulsehq/pulse/internal/domain/tier"
)

type subscriptionResponse struct {
	Tier     tier.Tier     `json:"tier"`
	Features tier.Features `json:"features"`
}

// ServeSubscription handles GET /billing/subscription: the caller's current
// plan and its capabilities. Accounts without a plan resolve to the free
// tier.
func (h *Handler) ServeSubscription(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	current := res.Tier
	if !tier.Valid(string(current)) {
		current = tier.Free
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(subscriptionResponse{
		Tier:     current,
		Features: tier.Resolve(current),
	})
}
