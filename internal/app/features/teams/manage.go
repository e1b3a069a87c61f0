// internal/app/features/teams/manage.go
package teams

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pulsehq/pulse/internal/app/store/audit"
	teamstore "github.com/pulsehq/pulse/internal/app/store/teams"
	"github.com/pulsehq/pulse/internal/app/system/authz"
	"github.com/pulsehq/pulse/internal/app/system/gates"
	"github.com/pulsehq/pulse/internal/app/system/limits"
	"github.com/pulsehq/pulse/internal/app/system/normalize"
	"github.com/pulsehq/pulse/internal/app/system/timeouts"
	"github.com/pulsehq/pulse/internal/domain/models"
	"github.com/pulsehq/pulse/internal/domain/tier"
	"go.uber.org/zap"
)

type createTeamRequest struct {
	Name             string   `json:"name"`
	Slug             string   `json:"slug,omitempty"` // derived from name when empty
	Tools            []string `json:"tools,omitempty"`
	ExpectedTeamSize int      `json:"expected_team_size,omitempty"`
}

type updateTeamRequest struct {
	Name             string   `json:"name"`
	Tools            []string `json:"tools,omitempty"`
	ExpectedTeamSize *int     `json:"expected_team_size,omitempty"`
}

func validTools(tools []string) bool {
	for _, t := range tools {
		if t != models.ToolVibe && t != models.ToolWoW {
			return false
		}
	}
	return true
}

// HandleCreate handles POST /teams. The owner's tier caps how many teams
// the account can hold; admins are not capped.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireOwnerOrAdmin(w, r, "only owner accounts create teams")
	if !res.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create team")
	defer cancel()

	var req createTeamRequest
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid JSON body")
		return
	}

	req.Name = normalize.Name(req.Name)
	if req.Name == "" || len(req.Name) > limits.MaxTeamNameLen {
		h.ErrLog.LogBadRequest(w, r, "team name is required and must be at most 100 characters")
		return
	}
	slug := normalize.Slug(req.Slug)
	if slug == "" {
		slug = normalize.Slug(req.Name)
	}
	if slug == "" || len(slug) > limits.MaxTeamSlugLen {
		h.ErrLog.LogBadRequest(w, r, "team slug must be at most 60 characters")
		return
	}
	if !validTools(req.Tools) {
		h.ErrLog.LogBadRequest(w, r, "tools may only contain vibe and wow")
		return
	}
	if req.ExpectedTeamSize < 0 || req.ExpectedTeamSize > limits.MaxExpectedTeam {
		h.ErrLog.LogBadRequest(w, r, "expected_team_size is out of range")
		return
	}

	// Tier cap applies per owner account, not to admins.
	if res.Role != authz.RoleAdmin {
		count, err := h.Teams.CountByOwner(ctx, res.UserID)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "create team: owner count failed", err, "could not create team")
			return
		}
		max := tier.Resolve(res.Tier).MaxTeams
		if count >= int64(max) {
			h.ErrLog.LogForbidden(w, r, "your plan's team limit is reached")
			return
		}
	}

	ownerID := res.UserID
	team := models.Team{
		Slug:             slug,
		Name:             req.Name,
		OwnerID:          &ownerID,
		Tools:            req.Tools,
		ExpectedTeamSize: req.ExpectedTeamSize,
	}
	created, err := h.Teams.Create(ctx, team)
	if err != nil {
		if errors.Is(err, teamstore.ErrDuplicateSlug) {
			h.ErrLog.LogConflict(w, r, "a team with this slug already exists")
			return
		}
		h.ErrLog.LogServerError(w, r, "create team failed", err, "could not create team")
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventTeamCreated, res.UserID, &created.ID,
		map[string]string{"slug": created.Slug})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toTeamResponse(created))
}

// HandleUpdate handles PATCH /teams/{slug}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update team")
	defer cancel()

	team, ok := h.manageableTeam(ctx, w, r)
	if !ok {
		return
	}

	var req updateTeamRequest
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid JSON body")
		return
	}

	name := normalize.Name(req.Name)
	if name == "" {
		name = team.Name
	}
	if len(name) > limits.MaxTeamNameLen {
		h.ErrLog.LogBadRequest(w, r, "team name must be at most 100 characters")
		return
	}
	if !validTools(req.Tools) {
		h.ErrLog.LogBadRequest(w, r, "tools may only contain vibe and wow")
		return
	}
	if req.ExpectedTeamSize != nil && (*req.ExpectedTeamSize < 0 || *req.ExpectedTeamSize > limits.MaxExpectedTeam) {
		h.ErrLog.LogBadRequest(w, r, "expected_team_size is out of range")
		return
	}

	tools := req.Tools
	if tools == nil {
		tools = team.Tools
	}
	if err := h.Teams.UpdateInfo(ctx, team.ID, name, req.ExpectedTeamSize, tools); err != nil {
		h.ErrLog.LogServerError(w, r, "update team failed", err, "could not update team")
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventTeamUpdated, res.UserID, &team.ID,
		map[string]string{"slug": team.Slug})

	updated, err := h.Teams.GetByID(ctx, team.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "update team: reload failed", err, "could not load team")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toTeamResponse(updated))
}

// HandleReset handles POST /teams/{slug}/reset: removes all score entries,
// survey data, feedback, insights, and participant refs while keeping the
// team itself.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "reset team")
	defer cancel()

	team, ok := h.manageableTeam(ctx, w, r)
	if !ok {
		return
	}

	if err := h.purgeTeamData(ctx, team); err != nil {
		h.ErrLog.LogServerError(w, r, "reset team failed", err, "could not reset team data")
		return
	}
	if err := h.Teams.ClearCachedMetrics(ctx, team.ID); err != nil {
		h.Log.Warn("reset team: clearing cached metrics failed",
			zap.String("team_id", team.ID.Hex()), zap.Error(err))
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventTeamReset, res.UserID, &team.ID,
		map[string]string{"slug": team.Slug})

	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete handles DELETE /teams/{slug}: purges the team's data and
// removes the team document.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "delete team")
	defer cancel()

	team, ok := h.manageableTeam(ctx, w, r)
	if !ok {
		return
	}

	if err := h.purgeTeamData(ctx, team); err != nil {
		h.ErrLog.LogServerError(w, r, "delete team: purge failed", err, "could not delete team")
		return
	}
	if _, err := h.Teams.Delete(ctx, team.ID); err != nil {
		h.ErrLog.LogServerError(w, r, "delete team failed", err, "could not delete team")
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventTeamDeleted, res.UserID, &team.ID,
		map[string]string{"slug": team.Slug})

	w.WriteHeader(http.StatusNoContent)
}

// purgeTeamData removes every collection's documents for the team. Partial
// failure leaves already-purged collections empty; the operation is safe to
// retry.
func (h *Handler) purgeTeamData(ctx context.Context, team models.Team) error {
	if _, err := h.Checkins.DeleteByTeam(ctx, team.ID); err != nil {
		return err
	}
	if _, err := h.Surveys.DeleteByTeam(ctx, team.ID); err != nil {
		return err
	}
	if _, err := h.Feedback.DeleteByTeam(ctx, team.ID); err != nil {
		return err
	}
	if _, err := h.Insights.DeleteByTeam(ctx, team.ID); err != nil {
		return err
	}
	if _, err := h.Participants.DeleteByTeam(ctx, team.ID); err != nil {
		return err
	}
	return nil
}
