// internal/app/features/backlog/notes.go
package backlog

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	uierrors "github.com/pulsehq/pulse/internal/app/features/errors"
	"github.com/pulsehq/pulse/internal/app/store/audit"
	"github.com/pulsehq/pulse/internal/app/system/gates"
	"github.com/pulsehq/pulse/internal/app/system/htmlsanitize"
	"github.com/pulsehq/pulse/internal/app/system/limits"
	"github.com/pulsehq/pulse/internal/app/system/timeouts"
	"github.com/pulsehq/pulse/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type noteRequest struct {
	Version string `json:"version"`
	Title   string `json:"title"`
	Body    string `json:"body"`
}

func (req *noteRequest) clean() string {
	req.Version = strings.TrimSpace(req.Version)
	req.Title = strings.TrimSpace(htmlsanitize.Sanitize(req.Title))
	req.Body = strings.TrimSpace(htmlsanitize.Sanitize(req.Body))
	switch {
	case req.Version == "":
		return "version is required"
	case req.Title == "":
		return "title is required"
	case len(req.Title) > limits.MaxTitleLen:
		return "title is too long"
	case len(req.Body) > limits.MaxBodyLen:
		return "body is too long"
	}
	return ""
}

type noteResponse struct {
	ID          string     `json:"id"`
	Version     string     `json:"version"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

func toNoteResponse(n models.ReleaseNote) noteResponse {
	return noteResponse{
		ID:          n.ID.Hex(),
		Version:     n.Version,
		Title:       n.Title,
		Body:        n.Body,
		Published:   n.Published,
		PublishedAt: n.PublishedAt,
	}
}

// ServeNotes handles GET /backlog/notes: every release note including
// drafts, newest first.
func (h *Handler) ServeNotes(w http.ResponseWriter, r *http.Request) {
	if res := gates.RequireAdmin(w, r, "release note administration is admin only"); !res.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list release notes")
	defer cancel()

	notes, err := h.Notes.ListAll(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list release notes failed", err, "could not load release notes")
		return
	}

	out := make([]noteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, toNoteResponse(n))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string][]noteResponse{"notes": out})
}

// HandleCreateNote handles POST /backlog/notes: a new draft.
func (h *Handler) HandleCreateNote(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r, "release note administration is admin only")
	if !res.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create release note")
	defer cancel()

	var req noteRequest
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid JSON body")
		return
	}
	if msg := req.clean(); msg != "" {
		h.ErrLog.LogBadRequest(w, r, msg)
		return
	}

	note, err := h.Notes.Create(ctx, req.Version, req.Title, req.Body)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create release note failed", err, "could not create release note")
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventReleaseNoteCreated, res.UserID, nil,
		map[string]string{"note_id": note.ID.Hex(), "version": note.Version})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toNoteResponse(note))
}

// HandleUpdateNote handles PATCH /backlog/notes/{id}.
func (h *Handler) HandleUpdateNote(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r, "release note administration is admin only")
	if !res.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update release note")
	defer cancel()

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid note id")
		return
	}

	var req noteRequest
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid JSON body")
		return
	}
	if msg := req.clean(); msg != "" {
		h.ErrLog.LogBadRequest(w, r, msg)
		return
	}

	if err := h.Notes.Update(ctx, id, req.Version, req.Title, req.Body); err != nil {
		if err == mongo.ErrNoDocuments {
			uierrors.RenderNotFound(w, r, "release note not found")
			return
		}
		h.ErrLog.LogServerError(w, r, "update release note failed", err, "could not update release note")
		return
	}

	note, err := h.Notes.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "reload release note failed", err, "could not load release note")
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventReleaseNoteUpdated, res.UserID, nil,
		map[string]string{"note_id": id.Hex()})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toNoteResponse(note))
}

type publishRequest struct {
	Published bool `json:"published"`
}

// HandlePublishNote handles POST /backlog/notes/{id}/publish: flips the
// published flag. The publication timestamp is stamped once and survives
// unpublish/republish cycles.
func (h *Handler) HandlePublishNote(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r, "release note administration is admin only")
	if !res.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "publish release note")
	defer cancel()

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid note id")
		return
	}

	var req publishRequest
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid JSON body")
		return
	}

	if err := h.Notes.SetPublished(ctx, id, req.Published); err != nil {
		if err == mongo.ErrNoDocuments {
			uierrors.RenderNotFound(w, r, "release note not found")
			return
		}
		h.ErrLog.LogServerError(w, r, "publish release note failed", err, "could not update release note")
		return
	}

	note, err := h.Notes.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "reload release note failed", err, "could not load release note")
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventReleaseNoteUpdated, res.UserID, nil,
		map[string]string{"note_id": id.Hex(), "published": strconv.FormatBool(req.Published)})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toNoteResponse(note))
}

// HandleDeleteNote handles DELETE /backlog/notes/{id}.
func (h *Handler) HandleDeleteNote(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r, "release note administration is admin only")
	if !res.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete release note")
	defer cancel()

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid note id")
		return
	}

	if err := h.Notes.Delete(ctx, id); err != nil {
		if err == mongo.ErrNoDocuments {
			uierrors.RenderNotFound(w, r, "release note not found")
			return
		}
		h.ErrLog.LogServerError(w, r, "delete release note failed", err, "could not delete release note")
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventReleaseNoteDeleted, res.UserID, nil,
		map[string]string{"note_id": id.Hex()})

	w.WriteHeader(http.StatusNoContent)
}
