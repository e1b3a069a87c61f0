// internal/app/store/metrics/service.go
package metricsstore

import (
	"context"
	"fmt"
	"time"

	checkinstore "github.com/pulsehq/pulse/internal/app/store/checkins"
	participantstore "github.com/pulsehq/pulse/internal/app/store/participants"
	surveystore "github.com/pulsehq/pulse/internal/app/store/surveys"
	teamstore "github.com/pulsehq/pulse/internal/app/store/teams"
	"github.com/pulsehq/pulse/internal/domain/metrics"
	"github.com/pulsehq/pulse/internal/domain/models"
	"go.uber.org/zap"
)

// vibeWindowDays is the length of each mood comparison window. The trailing
// window ends today; the previous window is the seven days immediately
// before it.
const vibeWindowDays = 7

// Service assembles the raw inputs for the pure metrics computations from
// the underlying stores and maintains the denormalized cache on team
// documents. It is the only component that decides which entries fall into
// which comparison window.
type Service struct {
	teams        *teamstore.Store
	checkins     *checkinstore.Store
	surveys      *surveystore.Store
	participants *participantstore.Store
	log          *zap.Logger
}

func NewService(teams *teamstore.Store, checkins *checkinstore.Store, surveys *surveystore.Store, participants *participantstore.Store, log *zap.Logger) *Service {
	return &Service{
		teams:        teams,
		checkins:     checkins,
		surveys:      surveys,
		participants: participants,
		log:          log,
	}
}

// ComputeForTool computes the live metrics for one of a team's enabled
// tools at the given instant. The instant is a parameter so the refresh job
// and tests pin the day boundary instead of racing the wall clock.
func (s *Service) ComputeForTool(ctx context.Context, team models.Team, tool string, now time.Time) (metrics.TeamMetrics, error) {
	switch tool {
	case models.ToolVibe:
		return s.computeVibe(ctx, team, now)
	case models.ToolWoW:
		return s.computeWoW(ctx, team, now)
	}
	return metrics.TeamMetrics{}, fmt.Errorf("unknown tool %q", tool)
}

func (s *Service) computeVibe(ctx context.Context, team models.Team, now time.Time) (metrics.TeamMetrics, error) {
	// ScoresInRange is exclusive of its upper bound, so the current window
	// [today-6, tomorrow) covers the trailing seven days including today and
	// the previous window ends where the current one starts.
	day := now.UTC()
	today := checkinstore.DateKey(day)
	curFrom := checkinstore.DateKey(day.AddDate(0, 0, -(vibeWindowDays - 1)))
	curTo := checkinstore.DateKey(day.AddDate(0, 0, 1))
	prevFrom := checkinstore.DateKey(day.AddDate(0, 0, -(2*vibeWindowDays - 1)))

	current, err := s.checkins.ScoresInRange(ctx, team.ID, curFrom, curTo)
	if err != nil {
		return metrics.TeamMetrics{}, fmt.Errorf("current window: %w", err)
	}
	previous, err := s.checkins.ScoresInRange(ctx, team.ID, prevFrom, curFrom)
	if err != nil {
		return metrics.TeamMetrics{}, fmt.Errorf("previous window: %w", err)
	}
	todayCount, err := s.checkins.CountOnDate(ctx, team.ID, today)
	if err != nil {
		return metrics.TeamMetrics{}, fmt.Errorf("today count: %w", err)
	}
	detected, err := s.participants.CountByTeam(ctx, team.ID)
	if err != nil {
		return metrics.TeamMetrics{}, fmt.Errorf("participant count: %w", err)
	}

	return metrics.Compute(metrics.Windows{
		Current:          current,
		Previous:         previous,
		DeclaredTeamSize: team.ExpectedTeamSize,
		DetectedSize:     int(detected),
		TodayEntries:     int(todayCount),
	}), nil
}

// computeWoW builds metrics from survey sessions rather than day windows:
// the current and previous averages are the last two closed sessions, and
// "today" counts responses submitted during the current UTC day.
func (s *Service) computeWoW(ctx context.Context, team models.Team, now time.Time) (metrics.TeamMetrics, error) {
	current, previous, err := s.surveys.LatestClosedAverages(ctx, team.ID)
	if err != nil {
		return metrics.TeamMetrics{}, fmt.Errorf("session averages: %w", err)
	}

	day := now.UTC()
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)
	today, err := s.surveys.CountResponsesOnDate(ctx, team.ID, dayStart, dayEnd)
	if err != nil {
		return metrics.TeamMetrics{}, fmt.Errorf("today count: %w", err)
	}
	detected, err := s.participants.CountByTeam(ctx, team.ID)
	if err != nil {
		return metrics.TeamMetrics{}, fmt.Errorf("participant count: %w", err)
	}

	size := metrics.EffectiveTeamSize(team.ExpectedTeamSize, int(detected))
	return metrics.TeamMetrics{
		AverageScore:         current,
		PreviousAverageScore: previous,
		Trend:                metrics.ClassifyTrend(current, previous),
		ParticipantCount:     int(detected),
		TodayEntries:         int(today),
		ParticipationPercent: metrics.Participation(size, int(today)),
	}, nil
}

// RefreshTeam recomputes every enabled tool for the team and writes the
// results into the team document's cache.
func (s *Service) RefreshTeam(ctx context.Context, team models.Team) error {
	now := time.Now().UTC()
	for _, tool := range team.Tools {
		m, err := s.ComputeForTool(ctx, team, tool, now)
		if err != nil {
			return fmt.Errorf("compute %s: %w", tool, err)
		}
		if err := s.teams.SetCachedMetrics(ctx, team.ID, tool, ToCached(m, now)); err != nil {
			return fmt.Errorf("cache %s: %w", tool, err)
		}
	}
	return nil
}

// RefreshAll sweeps every active team. Individual team failures are logged
// and skipped so one bad document cannot stall the whole refresh cycle.
func (s *Service) RefreshAll(ctx context.Context) error {
	teams, err := s.teams.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list teams: %w", err)
	}

	var failed int
	for _, team := range teams {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.RefreshTeam(ctx, team); err != nil {
			failed++
			s.log.Warn("metrics refresh failed for team",
				zap.String("team_id", team.ID.Hex()),
				zap.String("slug", team.Slug),
				zap.Error(err))
		}
	}

	s.log.Info("metrics refresh sweep complete",
		zap.Int("teams", len(teams)),
		zap.Int("failed", failed))
	return nil
}

// ToCached converts a computed record into the denormalized form stored on
// the team document.
func ToCached(m metrics.TeamMetrics, refreshedAt time.Time) models.CachedMetrics {
	return models.CachedMetrics{
		AverageScore:         m.AverageScore,
		PreviousAverageScore: m.PreviousAverageScore,
		Trend:                string(m.Trend),
		ParticipantCount:     m.ParticipantCount,
		TodayEntries:         m.TodayEntries,
		ParticipationPercent: m.ParticipationPercent,
		RefreshedAt:          refreshedAt,
	}
}

// FromCached converts a cached block back into the computed form served by
// the metrics endpoints.
func FromCached(c models.CachedMetrics) metrics.TeamMetrics {
	return metrics.TeamMetrics{
		AverageScore:         c.AverageScore,
		PreviousAverageScore: c.PreviousAverageScore,
		Trend:                metrics.Trend(c.Trend),
		ParticipantCount:     c.ParticipantCount,
		TodayEntries:         c.TodayEntries,
		ParticipationPercent: c.ParticipationPercent,
	}
}
