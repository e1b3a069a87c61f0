// internal/app/features/metrics/handler.go
package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	uierrors "github.com/pulsehq/pulse/internal/app/features/errors"
	metricsstore "github.com/pulsehq/pulse/internal/app/store/metrics"
	teamstore "github.com/pulsehq/pulse/internal/app/store/teams"
	"github.com/pulsehq/pulse/internal/app/policy/teampolicy"
	"github.com/pulsehq/pulse/internal/app/system/gates"
	"github.com/pulsehq/pulse/internal/app/system/timeouts"
	domainmetrics "github.com/pulsehq/pulse/internal/domain/metrics"
	"github.com/pulsehq/pulse/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// cacheMaxAge is how stale a cached metrics block may be before the read
// path recomputes live. The background job refreshes more often than this
// in normal operation.
const cacheMaxAge = 15 * time.Minute

// Handler serves team health metrics.
type Handler struct {
	DB      *mongo.Database
	Teams   *teamstore.Store
	Service *metricsstore.Service
	Log     *zap.Logger
	ErrLog  *uierrors.ErrorLogger
}

func NewHandler(db *mongo.Database, svc *metricsstore.Service, logger *zap.Logger) *Handler {
	return &Handler{
		DB:      db,
		Teams:   teamstore.New(db),
		Service: svc,
		Log:     logger,
		ErrLog:  uierrors.NewErrorLogger(logger),
	}
}

// toolMetricsResponse is one tool's metrics in the JSON response.
type toolMetricsResponse struct {
	AverageScore         *float64 `json:"average_score"`
	PreviousAverageScore *float64 `json:"previous_average_score"`
	Trend                string   `json:"trend,omitempty"`
	ParticipantCount     int      `json:"participant_count"`
	TodayEntries         int      `json:"today_entries"`
	ParticipationPercent int      `json:"participation_percent"`
	Cached               bool     `json:"cached"`
}

type teamMetricsResponse struct {
	Team           string                         `json:"team"`
	Tools          map[string]toolMetricsResponse `json:"tools"`
	NeedsAttention bool                           `json:"needs_attention"`
}

func toToolResponse(m domainmetrics.TeamMetrics, cached bool) toolMetricsResponse {
	return toolMetricsResponse{
		AverageScore:         m.AverageScore,
		PreviousAverageScore: m.PreviousAverageScore,
		Trend:                string(m.Trend),
		ParticipantCount:     m.ParticipantCount,
		TodayEntries:         m.TodayEntries,
		ParticipationPercent: m.ParticipationPercent,
		Cached:               cached,
	}
}

// teamMetrics assembles the full per-team response, one entry per enabled
// tool. The cache is used when fresh unless forceLive is set; cache misses
// always fall back to live computation.
func (h *Handler) teamMetrics(ctx context.Context, team models.Team, forceLive bool) (teamMetricsResponse, error) {
	now := time.Now().UTC()
	resp := teamMetricsResponse{
		Team:  team.Slug,
		Tools: make(map[string]toolMetricsResponse, len(team.Tools)),
	}

	var averages []*float64
	for _, tool := range team.Tools {
		if !forceLive {
			if cached, ok := team.Metrics[tool]; ok && now.Sub(cached.RefreshedAt) <= cacheMaxAge {
				m := metricsstore.FromCached(cached)
				resp.Tools[tool] = toToolResponse(m, true)
				averages = append(averages, m.AverageScore)
				continue
			}
		}
		m, err := h.Service.ComputeForTool(ctx, team, tool, now)
		if err != nil {
			return teamMetricsResponse{}, err
		}
		resp.Tools[tool] = toToolResponse(m, false)
		averages = append(averages, m.AverageScore)
	}

	resp.NeedsAttention = domainmetrics.NeedsAttention(averages)
	return resp, nil
}

// ServeTeam handles GET /teams/{slug}/metrics. Passing refresh=1 forces a
// live recompute and rewrites the cache.
func (h *Handler) ServeTeam(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "team metrics")
	defer cancel()

	team, err := h.Teams.GetBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		if err == mongo.ErrNoDocuments {
			uierrors.RenderNotFound(w, r, "team not found")
			return
		}
		h.ErrLog.LogServerError(w, r, "metrics: team lookup failed", err, "could not load team")
		return
	}
	allowed, err := teampolicy.CanViewTeam(ctx, h.DB, r, team)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "metrics: view check failed", err, "could not verify access")
		return
	}
	if !allowed {
		uierrors.RenderForbidden(w, r, "you do not have access to this team")
		return
	}

	forceLive := query.Get(r, "refresh") == "1"
	resp, err := h.teamMetrics(ctx, team, forceLive)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "team metrics computation failed", err, "could not compute metrics")
		return
	}
	if forceLive {
		if err := h.Service.RefreshTeam(ctx, team); err != nil {
			h.Log.Warn("metrics: cache rewrite after forced refresh failed",
				zap.String("team_id", team.ID.Hex()), zap.Error(err))
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// ServeOverview handles GET /metrics/overview: every team the owner holds,
// with per-tool metrics and attention flags. Cross-team analysis is a
// transition coach capability.
func (h *Handler) ServeOverview(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireCrossTeam(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "metrics overview")
	defer cancel()

	teams, err := h.Teams.ListByOwner(ctx, res.UserID, 0, 0)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "metrics overview: list teams failed", err, "could not load teams")
		return
	}

	out := make([]teamMetricsResponse, 0, len(teams))
	for _, team := range teams {
		resp, err := h.teamMetrics(ctx, team, false)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "metrics overview computation failed", err, "could not compute metrics")
			return
		}
		out = append(out, resp)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string][]teamMetricsResponse{"teams": out})
}
