// internal/app/features/teams/join.go
package teams

import (
	"encoding/json"
	"net/http"

	"github.com/pulsehq/pulse/internal/app/system/gates"
	"github.com/pulsehq/pulse/internal/app/system/timeouts"
)

type joinResponse struct {
	TeamID         string `json:"team_id"`
	ParticipantRef string `json:"participant_ref"`
}

// HandleJoin handles POST /teams/{slug}/join: issues (or re-issues) the
// caller's anonymous participant ref for the team. Joining twice returns
// the same ref.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "join team")
	defer cancel()

	team, ok := h.teamBySlug(ctx, w, r)
	if !ok {
		return
	}

	ref, err := h.Participants.EnsureRef(ctx, team.ID, res.UserID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "join team failed", err, "could not join team")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(joinResponse{
		TeamID:         team.ID.Hex(),
		ParticipantRef: ref,
	})
}
