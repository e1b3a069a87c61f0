// internal/app/features/backlog/items.go
package backlog

import (
	"encoding/json"
	"net/http"
	"strings"

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

type itemRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Category    string `json:"category"`
}

func (req *itemRequest) clean() string {
	req.Title = strings.TrimSpace(htmlsanitize.Sanitize(req.Title))
	req.Description = strings.TrimSpace(htmlsanitize.Sanitize(req.Description))
	switch {
	case req.Title == "":
		return "title is required"
	case len(req.Title) > limits.MaxTitleLen:
		return "title is too long"
	case len(req.Description) > limits.MaxBodyLen:
		return "description is too long"
	case !models.ValidBacklogCategory(req.Category):
		return "unknown category"
	}
	return ""
}

// ServeItems handles GET /backlog: the full board, grouped by column order.
func (h *Handler) ServeItems(w http.ResponseWriter, r *http.Request) {
	if res := gates.RequireAdmin(w, r, "backlog administration is admin only"); !res.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list backlog")
	defer cancel()

	items, err := h.Items.List(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list backlog failed", err, "could not load backlog")
		return
	}

	out := make([]itemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, toItemResponse(it))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string][]itemResponse{"items": out})
}

// HandleCreateItem handles POST /backlog: a new card lands at the bottom of
// its column.
func (h *Handler) HandleCreateItem(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r, "backlog administration is admin only")
	if !res.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create backlog item")
	defer cancel()

	var req itemRequest
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid JSON body")
		return
	}
	if req.Status == "" {
		req.Status = models.BacklogIdea
	}
	if !models.ValidBacklogStatus(req.Status) {
		h.ErrLog.LogBadRequest(w, r, "unknown status")
		return
	}
	if msg := req.clean(); msg != "" {
		h.ErrLog.LogBadRequest(w, r, msg)
		return
	}

	item, err := h.Items.Create(ctx, req.Title, req.Description, req.Status, req.Category)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create backlog item failed", err, "could not create item")
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventBacklogItemCreated, res.UserID, nil,
		map[string]string{"item_id": item.ID.Hex(), "title": item.Title})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toItemResponse(item))
}

// HandleUpdateItem handles PATCH /backlog/{id}: edits the card's text and
// category. Column moves go through HandleMoveItem.
func (h *Handler) HandleUpdateItem(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r, "backlog administration is admin only")
	if !res.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update backlog item")
	defer cancel()

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid item id")
		return
	}

	var req itemRequest
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid JSON body")
		return
	}
	if msg := req.clean(); msg != "" {
		h.ErrLog.LogBadRequest(w, r, msg)
		return
	}

	if err := h.Items.Update(ctx, id, req.Title, req.Description, req.Category); err != nil {
		if err == mongo.ErrNoDocuments {
			uierrors.RenderNotFound(w, r, "item not found")
			return
		}
		h.ErrLog.LogServerError(w, r, "update backlog item failed", err, "could not update item")
		return
	}

	item, err := h.Items.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "reload backlog item failed", err, "could not load item")
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventBacklogItemUpdated, res.UserID, nil,
		map[string]string{"item_id": id.Hex()})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toItemResponse(item))
}

type moveRequest struct {
	Status    string `json:"status"`
	SortOrder int    `json:"sort_order"`
}

// HandleMoveItem handles POST /backlog/{id}/move: places the card in a
// column at the given position.
func (h *Handler) HandleMoveItem(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r, "backlog administration is admin only")
	if !res.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "move backlog item")
	defer cancel()

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid item id")
		return
	}

	var req moveRequest
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid JSON body")
		return
	}
	if !models.ValidBacklogStatus(req.Status) {
		h.ErrLog.LogBadRequest(w, r, "unknown status")
		return
	}
	if req.SortOrder < 0 {
		h.ErrLog.LogBadRequest(w, r, "sort_order must not be negative")
		return
	}

	if err := h.Items.Move(ctx, id, req.Status, req.SortOrder); err != nil {
		if err == mongo.ErrNoDocuments {
			uierrors.RenderNotFound(w, r, "item not found")
			return
		}
		h.ErrLog.LogServerError(w, r, "move backlog item failed", err, "could not move item")
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventBacklogItemUpdated, res.UserID, nil,
		map[string]string{"item_id": id.Hex(), "status": req.Status})

	w.WriteHeader(http.StatusNoContent)
}

// HandleDeleteItem handles DELETE /backlog/{id}.
func (h *Handler) HandleDeleteItem(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r, "backlog administration is admin only")
	if !res.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete backlog item")
	defer cancel()

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid item id")
		return
	}

	if err := h.Items.Delete(ctx, id); err != nil {
		if err == mongo.ErrNoDocuments {
			uierrors.RenderNotFound(w, r, "item not found")
			return
		}
		h.ErrLog.LogServerError(w, r, "delete backlog item failed", err, "could not delete item")
		return
	}

	h.AuditLog.AdminAction(ctx, r, audit.EventBacklogItemDeleted, res.UserID, nil,
		map[string]string{"item_id": id.Hex()})

	w.WriteHeader(http.StatusNoContent)
}
