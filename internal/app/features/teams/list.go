// internal/app/features/teams/list.go
package teams

import (
	"encoding/json"
	"net/http"

	"github.com/pulsehq/pulse/internal/app/system/authz"
	"github.com/pulsehq/pulse/internal/app/system/gates"
	"github.com/pulsehq/pulse/internal/app/system/paging"
	"github.com/pulsehq/pulse/internal/app/system/timeouts"
	"github.com/pulsehq/pulse/internal/domain/models"
)

type teamListResponse struct {
	Teams   []teamResponse `json:"teams"`
	HasPrev bool           `json:"has_prev"`
	HasNext bool           `json:"has_next"`
}

// ServeList handles GET /teams. Owners see their own teams; admins see all
// active teams.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireOwnerOrAdmin(w, r, "only owner accounts list teams")
	if !res.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list teams")
	defer cancel()

	var (
		teams []models.Team
		err   error
	)
	start := paging.ParseStart(r)
	if res.Role == authz.RoleAdmin {
		teams, err = h.Teams.ListActive(ctx)
	} else {
		teams, err = h.Teams.ListByOwner(ctx, res.UserID, paging.Skip(start), paging.LimitPlusOne())
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list teams failed", err, "could not list teams")
		return
	}

	keep, page := paging.Trim(len(teams), start)
	if keep < len(teams) {
		teams = teams[:keep]
	}

	resp := teamListResponse{
		Teams:   make([]teamResponse, 0, len(teams)),
		HasPrev: page.HasPrev,
		HasNext: page.HasNext,
	}
	for _, t := range teams {
		resp.Teams = append(resp.Teams, toTeamResponse(t))
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// ServeView handles GET /teams/{slug}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "view team")
	defer cancel()

	team, ok := h.viewableTeam(ctx, w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toTeamResponse(team))
}
