// internal/app/features/backlog/changelog.go
package backlog

import (
	"encoding/json"
	"net/http"

	"github.com/pulsehq/pulse/internal/app/system/timeouts"
)

// ServeChangelog handles GET /changelog: published release notes only,
// newest first. No session required.
func (h *Handler) ServeChangelog(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "changelog")
	defer cancel()

	notes, err := h.Notes.ListPublished(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "changelog failed", err, "could not load changelog")
		return
	}

	out := make([]noteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, toNoteResponse(n))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string][]noteResponse{"notes": out})
}
