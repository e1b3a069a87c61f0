// internal/app/features/export/surveys.go
package export

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pulsehq/pulse/internal/app/system/csvutil"
	"github.com/pulsehq/pulse/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

type surveyRow struct {
	SessionID      string    `json:"session_id"`
	ParticipantRef string    `json:"participant_ref"`
	Statement      string    `json:"statement"`
	Score          int       `json:"score"`
	CreatedAt      time.Time `json:"created_at"`
}

// ServeSurveys handles GET /teams/{slug}/export/surveys: all survey
// responses recorded in the requested date range, as CSV (default) or JSON
// with ?format=json.
func (h *Handler) ServeSurveys(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "survey export")
	defer cancel()

	team, ok := h.manageableTeam(ctx, w, r)
	if !ok {
		return
	}

	start, end := parseDateRange(r)
	rangeEnd := end.AddDate(0, 0, 1) // inclusive end date

	responses, err := h.Surveys.ListResponses(ctx, team.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "survey export query failed", err, "could not export survey responses")
		return
	}

	rows := make([]surveyRow, 0, len(responses))
	for _, resp := range responses {
		if resp.CreatedAt.Before(start) || !resp.CreatedAt.Before(rangeEnd) {
			continue
		}
		rows = append(rows, surveyRow{
			SessionID:      resp.SessionID.Hex(),
			ParticipantRef: resp.ParticipantRef,
			Statement:      resp.Statement,
			Score:          resp.Score,
			CreatedAt:      resp.CreatedAt,
		})
	}

	base := fmt.Sprintf("%s_surveys_%s_%s", team.Slug, start.Format("20060102"), end.Format("20060102"))
	if query.Get(r, "format") == "json" {
		h.writeJSONExport(w, base+".json", map[string]any{"team": team.Slug, "responses": rows})
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

	if err := cw.Write([]string{"session_id", "participant_ref", "statement", "score", "created_at"}); err != nil {
		h.Log.Error("CSV write failed (header)", zap.Error(err))
		return
	}
	for _, row := range rows {
		if err := cw.Write([]string{
			row.SessionID,
			csvutil.SanitizeField(row.ParticipantRef),
			csvutil.SanitizeField(row.Statement),
			strconv.Itoa(row.Score),
			row.CreatedAt.Format(time.RFC3339),
		}); err != nil {
			h.Log.Error("CSV write failed (row)", zap.Error(err))
			return
		}
	}

	h.Log.Info("survey responses exported",
		zap.String("team", team.Slug), zap.Int("rows", len(rows)))
}
