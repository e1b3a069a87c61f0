// internal/app/features/checkins/list.go
package checkins

import (
	"encoding/json"
	"net/http"
	"time"

	uierrors "github.com/pulsehq/pulse/internal/app/features/errors"
	"github.com/pulsehq/pulse/internal/app/policy/teampolicy"
	checkinstore "github.com/pulsehq/pulse/internal/app/store/checkins"
	"github.com/pulsehq/pulse/internal/app/system/gates"
	"github.com/pulsehq/pulse/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

type listEntry struct {
	ParticipantRef string    `json:"participant_ref"`
	EntryDate      string    `json:"entry_date"`
	Score          int       `json:"score"`
	CreatedAt      time.Time `json:"created_at"`
}

// ServeList handles GET /teams/{slug}/checkins: the team's raw entries for
// a date range (start/end, inclusive, default last 7 days). Entries carry
// anonymous refs, but the raw stream still reveals per-person patterns, so
// only team managers may read it.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list check-ins")
	defer cancel()

	team, ok := h.vibeTeam(ctx, w, r)
	if !ok {
		return
	}
	allowed, err := teampolicy.CanManageTeam(ctx, r, team)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list check-ins: manage check failed", err, "could not verify access")
		return
	}
	if !allowed {
		uierrors.RenderForbidden(w, r, "you do not manage this team")
		return
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -6)
	if s := query.Get(r, "start"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			start = t
		}
	}
	if e := query.Get(r, "end"); e != "" {
		if t, err := time.Parse("2006-01-02", e); err == nil {
			end = t
		}
	}

	entries, err := h.Checkins.ListInRange(ctx, team.ID,
		checkinstore.DateKey(start), checkinstore.DateKey(end.AddDate(0, 0, 1)))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list check-ins failed", err, "could not load check-ins")
		return
	}

	out := make([]listEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, listEntry{
			ParticipantRef: e.ParticipantRef,
			EntryDate:      e.EntryDate,
			Score:          e.Score,
			CreatedAt:      e.CreatedAt,
		})
	}

	h.Log.Debug("check-ins listed",
		zap.String("team", team.Slug), zap.Int("entries", len(out)))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string][]listEntry{"checkins": out})
}
