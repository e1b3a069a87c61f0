// internal/app/features/checkins/checkin.go
package checkins

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	checkinstore "github.com/pulsehq/pulse/internal/app/store/checkins"
	"github.com/pulsehq/pulse/internal/app/system/gates"
	"github.com/pulsehq/pulse/internal/app/system/limits"
	"github.com/pulsehq/pulse/internal/app/system/timeouts"
	"github.com/pulsehq/pulse/internal/domain/models"
)

type checkinRequest struct {
	Score int `json:"score"`
}

type checkinResponse struct {
	EntryDate string `json:"entry_date"`
	Score     int    `json:"score"`
}

type todayResponse struct {
	EntryDate string `json:"entry_date"`
	CheckedIn bool   `json:"checked_in"`
}

// HandleCheckIn handles POST /teams/{slug}/checkins: records the caller's
// mood score for today. The first check-in implicitly joins the team by
// minting a participant ref.
func (h *Handler) HandleCheckIn(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "check in")
	defer cancel()

	team, ok := h.vibeTeam(ctx, w, r)
	if !ok {
		return
	}

	var req checkinRequest
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid JSON body")
		return
	}
	if req.Score < 1 || req.Score > 5 {
		h.ErrLog.LogBadRequest(w, r, "score must be between 1 and 5")
		return
	}

	ref, err := h.Participants.EnsureRef(ctx, team.ID, res.UserID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "check in: participant ref failed", err, "could not record check-in")
		return
	}

	entry := models.CheckIn{
		TeamID:         team.ID,
		ParticipantRef: ref,
		Score:          req.Score,
		EntryDate:      checkinstore.DateKey(time.Now()),
	}
	created, err := h.Checkins.Create(ctx, entry)
	if err != nil {
		if errors.Is(err, checkinstore.ErrAlreadyCheckedIn) {
			h.ErrLog.LogConflict(w, r, "you already checked in today")
			return
		}
		h.ErrLog.LogServerError(w, r, "check in failed", err, "could not record check-in")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(checkinResponse{
		EntryDate: created.EntryDate,
		Score:     created.Score,
	})
}

// ServeToday handles GET /teams/{slug}/checkins/today: whether the caller
// has already checked in today. A user who never joined simply has no
// entry.
func (h *Handler) ServeToday(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "check-in status")
	defer cancel()

	team, ok := h.vibeTeam(ctx, w, r)
	if !ok {
		return
	}

	today := checkinstore.DateKey(time.Now())
	resp := todayResponse{EntryDate: today}

	ref, err := h.Participants.FindRef(ctx, team.ID, res.UserID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "check-in status: ref lookup failed", err, "could not load status")
		return
	}
	if ref != "" {
		checked, err := h.Checkins.HasEntry(ctx, team.ID, ref, today)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "check-in status lookup failed", err, "could not load status")
			return
		}
		resp.CheckedIn = checked
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
