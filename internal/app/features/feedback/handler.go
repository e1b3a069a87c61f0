// internal/app/features/feedback/handler.go
package feedback

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	uierrors "github.com/pulsehq/pulse/internal/app/features/errors"
	feedbackstore "github.com/pulsehq/pulse/internal/app/store/feedback"
	participantstore "github.com/pulsehq/pulse/internal/app/store/participants"
	teamstore "github.com/pulsehq/pulse/internal/app/store/teams"
	"github.com/pulsehq/pulse/internal/app/system/gates"
	"github.com/pulsehq/pulse/internal/app/system/htmlsanitize"
	"github.com/pulsehq/pulse/internal/app/system/limits"
	"github.com/pulsehq/pulse/internal/app/system/timeouts"
	"github.com/pulsehq/pulse/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves anonymous peer feedback.
type Handler struct {
	Teams        *teamstore.Store
	Participants *participantstore.Store
	Feedback     *feedbackstore.Store
	Log          *zap.Logger
	ErrLog       *uierrors.ErrorLogger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Teams:        teamstore.New(db),
		Participants: participantstore.New(db),
		Feedback:     feedbackstore.New(db),
		Log:          logger,
		ErrLog:       uierrors.NewErrorLogger(logger),
	}
}

func (h *Handler) teamBySlug(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Team, bool) {
	team, err := h.Teams.GetBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		if err == mongo.ErrNoDocuments {
			uierrors.RenderNotFound(w, r, "team not found")
			return models.Team{}, false
		}
		h.ErrLog.LogServerError(w, r, "team lookup failed", err, "could not load team")
		return models.Team{}, false
	}
	return team, true
}

type sendRequest struct {
	RecipientID string `json:"recipient_id"`
	Body        string `json:"body"`
}

type feedbackResponse struct {
	ID        string    `json:"id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// HandleSend handles POST /teams/{slug}/feedback: leaves an anonymous note
// for a teammate. Only the sender's participant ref is stored, never their
// user ID, and the body is sanitized before it is persisted.
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "send feedback")
	defer cancel()

	team, ok := h.teamBySlug(ctx, w, r)
	if !ok {
		return
	}

	var req sendRequest
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFeedbackBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid JSON body")
		return
	}

	recipientID, err := primitive.ObjectIDFromHex(req.RecipientID)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid recipient_id")
		return
	}
	body := strings.TrimSpace(htmlsanitize.Sanitize(req.Body))
	if body == "" {
		h.ErrLog.LogBadRequest(w, r, "feedback body is required")
		return
	}
	if len(body) > limits.MaxBodyLen {
		h.ErrLog.LogBadRequest(w, r, "feedback body is too long")
		return
	}
	if recipientID == res.UserID {
		h.ErrLog.LogBadRequest(w, r, "you cannot send feedback to yourself")
		return
	}

	// The recipient must participate in the team, otherwise notes could be
	// addressed to arbitrary accounts.
	recipRef, err := h.Participants.FindRef(ctx, team.ID, recipientID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "send feedback: recipient lookup failed", err, "could not send feedback")
		return
	}
	if recipRef == "" {
		h.ErrLog.LogBadRequest(w, r, "recipient is not a member of this team")
		return
	}

	senderRef, err := h.Participants.EnsureRef(ctx, team.ID, res.UserID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "send feedback: participant ref failed", err, "could not send feedback")
		return
	}

	created, err := h.Feedback.Create(ctx, models.Feedback{
		TeamID:         team.ID,
		RecipientID:    recipientID,
		ParticipantRef: senderRef,
		Body:           body,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "send feedback failed", err, "could not send feedback")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(feedbackResponse{
		ID:        created.ID.Hex(),
		Body:      created.Body,
		CreatedAt: created.CreatedAt,
	})
}

// ServeInbox handles GET /teams/{slug}/feedback: the caller's received
// notes for the team, newest first. Sender identity is never exposed.
func (h *Handler) ServeInbox(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "feedback inbox")
	defer cancel()

	team, ok := h.teamBySlug(ctx, w, r)
	if !ok {
		return
	}

	notes, err := h.Feedback.ListForRecipient(ctx, team.ID, res.UserID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "feedback inbox failed", err, "could not load feedback")
		return
	}

	out := make([]feedbackResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, feedbackResponse{
			ID:        n.ID.Hex(),
			Body:      n.Body,
			CreatedAt: n.CreatedAt,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string][]feedbackResponse{"feedback": out})
}
