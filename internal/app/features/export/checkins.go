// internal/app/features/export/checkins.go
package export

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	checkinstore "github.com/pulsehq/pulse/internal/app/store/checkins"
	"github.com/pulsehq/pulse/internal/app/system/csvutil"
	"github.com/pulsehq/pulse/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

type checkinRow struct {
	ParticipantRef string    `json:"participant_ref"`
	EntryDate      string    `json:"entry_date"`
	Score          int       `json:"score"`
	CreatedAt      time.Time `json:"created_at"`
}

// ServeCheckins handles GET /teams/{slug}/export/checkins: the team's
// check-in entries in the requested date range, as CSV (default) or JSON
// with ?format=json.
func (h *Handler) ServeCheckins(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "check-in export")
	defer cancel()

	team, ok := h.manageableTeam(ctx, w, r)
	if !ok {
		return
	}

	start, end := parseDateRange(r)
	from := checkinstore.DateKey(start)
	// ListInRange has an exclusive upper bound; push it past the inclusive
	// end date.
	to := checkinstore.DateKey(end.AddDate(0, 0, 1))

	entries, err := h.Checkins.ListInRange(ctx, team.ID, from, to)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "check-in export query failed", err, "could not export check-ins")
		return
	}

	rows := make([]checkinRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, checkinRow{
			ParticipantRef: e.ParticipantRef,
			EntryDate:      e.EntryDate,
			Score:          e.Score,
			CreatedAt:      e.CreatedAt,
		})
	}

	base := fmt.Sprintf("%s_checkins_%s_%s", team.Slug, start.Format("20060102"), end.Format("20060102"))
	if query.Get(r, "format") == "json" {
		h.writeJSONExport(w, base+".json", map[string]any{"team": team.Slug, "checkins": rows})
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, url.PathEscape(base+".csv")))

	cw, err := csvutil.NewExportWriter(w)
	if err != nil {
		h.Log.Error("CSV write failed (BOM)", zap.Error(err))
		return
	}
	defer cw.Flush()

	if err := cw.Write([]string{"participant_ref", "entry_date", "score", "created_at"}); err != nil {
		h.Log.Error("CSV write failed (header)", zap.Error(err))
		return
	}
	for _, row := range rows {
		if err := cw.Write([]string{
			csvutil.SanitizeField(row.ParticipantRef),
			row.EntryDate,
			strconv.Itoa(row.Score),
			row.CreatedAt.Format(time.RFC3339),
		}); err != nil {
			h.Log.Error("CSV write failed (row)", zap.Error(err))
			return
		}
	}

	h.Log.Info("check-ins exported",
		zap.String("team", team.Slug), zap.Int("rows", len(rows)))
}

func (h *Handler) writeJSONExport(w http.ResponseWriter, filename string, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, url.PathEscape(filename)))
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.Log.Error("JSON export write failed", zap.Error(err))
	}
}
