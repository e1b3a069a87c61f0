// internal/app/features/surveys/sessions.go
package surveys

import (
	"encoding/json"
	"errors"
	"net/http"

	surveystore "github.com/pulsehq/pulse/internal/app/store/surveys"
	"github.com/pulsehq/pulse/internal/app/system/gates"
	"github.com/pulsehq/pulse/internal/app/system/limits"
	"github.com/pulsehq/pulse/internal/app/system/timeouts"
	"github.com/pulsehq/pulse/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type sessionResponse struct {
	ID           string   `json:"id"`
	Ordinal      int      `json:"ordinal"`
	Status       string   `json:"status"`
	AverageScore *float64 `json:"average_score,omitempty"`
}

func toSessionResponse(s models.SurveySession) sessionResponse {
	return sessionResponse{
		ID:           s.ID.Hex(),
		Ordinal:      s.Ordinal,
		Status:       s.Status,
		AverageScore: s.AverageScore,
	}
}

// ServeStatements handles GET /teams/{slug}/surveys/statements: the fixed
// statement list members score.
func (h *Handler) ServeStatements(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string][]string{"statements": models.SurveyStatements})
}

// HandleOpenSession handles POST /teams/{slug}/surveys/sessions: opens the
// next survey round. Only one round may be open per team.
func (h *Handler) HandleOpenSession(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "open survey session")
	defer cancel()

	team, ok := h.manageableWowTeam(ctx, w, r)
	if !ok {
		return
	}

	session, err := h.Surveys.OpenSession(ctx, team.ID)
	if err != nil {
		if errors.Is(err, surveystore.ErrSessionOpen) {
			h.ErrLog.LogConflict(w, r, "a survey round is already open for this team")
			return
		}
		h.ErrLog.LogServerError(w, r, "open survey session failed", err, "could not open survey round")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toSessionResponse(session))
}

// ServeSessions handles GET /teams/{slug}/surveys/sessions: the team's
// survey history, newest round first.
func (h *Handler) ServeSessions(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list survey sessions")
	defer cancel()

	team, ok := h.wowTeam(ctx, w, r)
	if !ok {
		return
	}

	sessions, err := h.Surveys.ListSessions(ctx, team.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list survey sessions failed", err, "could not load survey rounds")
		return
	}

	out := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSessionResponse(s))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string][]sessionResponse{"sessions": out})
}

type answerRequest struct {
	Statement string `json:"statement"`
	Score     int    `json:"score"`
}

// HandleAnswer handles POST /teams/{slug}/surveys/sessions/{id}/responses:
// records one statement score for the open round. Answering implicitly
// joins the team.
func (h *Handler) HandleAnswer(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "answer survey")
	defer cancel()

	team, ok := h.wowTeam(ctx, w, r)
	if !ok {
		return
	}

	sessionID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid session id")
		return
	}

	var req answerRequest
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid JSON body")
		return
	}
	if req.Score < 1 || req.Score > 5 {
		h.ErrLog.LogBadRequest(w, r, "score must be between 1 and 5")
		return
	}

	session, err := h.Surveys.GetSession(ctx, sessionID)
	if err != nil || session.TeamID != team.ID {
		h.ErrLog.LogBadRequest(w, r, "survey round not found")
		return
	}

	ref, err := h.Participants.EnsureRef(ctx, team.ID, res.UserID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "answer survey: participant ref failed", err, "could not record answer")
		return
	}

	_, err = h.Surveys.AddResponse(ctx, models.SurveyResponse{
		SessionID:      sessionID,
		TeamID:         team.ID,
		ParticipantRef: ref,
		Statement:      req.Statement,
		Score:          req.Score,
	})
	if err != nil {
		switch {
		case errors.Is(err, surveystore.ErrUnknownStatement):
			h.ErrLog.LogBadRequest(w, r, "unknown survey statement")
		case errors.Is(err, surveystore.ErrSessionNotOpen):
			h.ErrLog.LogConflict(w, r, "this survey round is not open")
		case errors.Is(err, surveystore.ErrDuplicateAnswer):
			h.ErrLog.LogConflict(w, r, "you already answered this statement")
		case err == mongo.ErrNoDocuments:
			h.ErrLog.LogBadRequest(w, r, "survey round not found")
		default:
			h.ErrLog.LogServerError(w, r, "answer survey failed", err, "could not record answer")
		}
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// HandleCloseSession handles POST /teams/{slug}/surveys/sessions/{id}/close:
// closes the round and freezes its average.
func (h *Handler) HandleCloseSession(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "close survey session")
	defer cancel()

	team, ok := h.manageableWowTeam(ctx, w, r)
	if !ok {
		return
	}

	sessionID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid session id")
		return
	}
	existing, err := h.Surveys.GetSession(ctx, sessionID)
	if err != nil || existing.TeamID != team.ID {
		h.ErrLog.LogBadRequest(w, r, "survey round not found")
		return
	}

	session, err := h.Surveys.CloseSession(ctx, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, surveystore.ErrSessionNotOpen):
			h.ErrLog.LogConflict(w, r, "this survey round is not open")
		case err == mongo.ErrNoDocuments:
			h.ErrLog.LogBadRequest(w, r, "survey round not found")
		default:
			h.ErrLog.LogServerError(w, r, "close survey session failed", err, "could not close survey round")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toSessionResponse(session))
}
