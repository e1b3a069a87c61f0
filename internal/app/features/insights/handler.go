// internal/app/features/insights/handler.go
package insights

import (
	"encoding/json"
	"net/http"
	"time"

	uierrors "github.com/pulsehq/pulse/internal/app/features/errors"
	insightstore "github.com/pulsehq/pulse/internal/app/store/insights"
	metricsstore "github.com/pulsehq/pulse/internal/app/store/metrics"
	teamstore "github.com/pulsehq/pulse/internal/app/store/teams"
	"github.com/pulsehq/pulse/internal/app/policy/teampolicy"
	"github.com/pulsehq/pulse/internal/app/system/gates"
	"github.com/pulsehq/pulse/internal/app/system/limits"
	"github.com/pulsehq/pulse/internal/app/system/timeouts"
	domainmetrics "github.com/pulsehq/pulse/internal/domain/metrics"
	"github.com/pulsehq/pulse/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// insightHistoryLimit caps the list endpoint.
const insightHistoryLimit = 20

// Handler serves coaching insights, a paid-tier capability.
type Handler struct {
	DB       *mongo.Database
	Teams    *teamstore.Store
	Insights *insightstore.Store
	Service  *metricsstore.Service
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

func NewHandler(db *mongo.Database, svc *metricsstore.Service, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Teams:    teamstore.New(db),
		Insights: insightstore.New(db),
		Service:  svc,
		Log:      logger,
		ErrLog:   uierrors.NewErrorLogger(logger),
	}
}

type generateRequest struct {
	Tool string `json:"tool"`
}

type insightResponse struct {
	ID        string                 `json:"id"`
	Tool      string                 `json:"tool"`
	Body      string                 `json:"body"`
	Snapshot  models.InsightSnapshot `json:"snapshot"`
	CreatedAt time.Time              `json:"created_at"`
}

func toInsightResponse(in models.Insight) insightResponse {
	return insightResponse{
		ID:        in.ID.Hex(),
		Tool:      in.Tool,
		Body:      in.Body,
		Snapshot:  in.Snapshot,
		CreatedAt: in.CreatedAt,
	}
}

// HandleGenerate handles POST /teams/{slug}/insights: computes the tool's
// current metrics, derives a recommendation, and stores it with the metrics
// snapshot it was derived from.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireCoach(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "generate insight")
	defer cancel()

	team, err := h.Teams.GetBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		if err == mongo.ErrNoDocuments {
			uierrors.RenderNotFound(w, r, "team not found")
			return
		}
		h.ErrLog.LogServerError(w, r, "insight: team lookup failed", err, "could not load team")
		return
	}
	allowed, err := teampolicy.CanManageTeam(ctx, r, team)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "insight: manage check failed", err, "could not verify access")
		return
	}
	if !allowed {
		uierrors.RenderForbidden(w, r, "you do not manage this team")
		return
	}

	var req generateRequest
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid JSON body")
		return
	}
	if !team.HasTool(req.Tool) {
		h.ErrLog.LogBadRequest(w, r, "tool is not enabled for this team")
		return
	}

	m, err := h.Service.ComputeForTool(ctx, team, req.Tool, time.Now().UTC())
	if err != nil {
		h.ErrLog.LogServerError(w, r, "insight: metrics computation failed", err, "could not generate insight")
		return
	}
	needsAttention := domainmetrics.NeedsAttention([]*float64{m.AverageScore})

	created, err := h.Insights.Create(ctx, models.Insight{
		TeamID: team.ID,
		Tool:   req.Tool,
		Body:   Generate(req.Tool, m, needsAttention),
		Snapshot: models.InsightSnapshot{
			AverageScore:         m.AverageScore,
			PreviousAverageScore: m.PreviousAverageScore,
			Trend:                string(m.Trend),
			ParticipationPercent: m.ParticipationPercent,
			NeedsAttention:       needsAttention,
		},
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "insight: store failed", err, "could not generate insight")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toInsightResponse(created))
}

// ServeList handles GET /teams/{slug}/insights: recent insights for the
// team, newest first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireCoach(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list insights")
	defer cancel()

	team, err := h.Teams.GetBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		if err == mongo.ErrNoDocuments {
			uierrors.RenderNotFound(w, r, "team not found")
			return
		}
		h.ErrLog.LogServerError(w, r, "insights: team lookup failed", err, "could not load team")
		return
	}
	allowed, err := teampolicy.CanViewTeam(ctx, h.DB, r, team)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "insights: view check failed", err, "could not verify access")
		return
	}
	if !allowed {
		uierrors.RenderForbidden(w, r, "you do not have access to this team")
		return
	}

	list, err := h.Insights.ListByTeam(ctx, team.ID, insightHistoryLimit)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list insights failed", err, "could not load insights")
		return
	}

	out := make([]insightResponse, 0, len(list))
	for _, in := range list {
		out = append(out, toInsightResponse(in))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string][]insightResponse{"insights": out})
}
