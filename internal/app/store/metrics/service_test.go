package metricsstore_test

import (
	"testing"
	"time"

	checkinstore "github.com/pulsehq/pulse/internal/app/store/checkins"
	metricsstore "github.com/pulsehq/pulse/internal/app/store/metrics"
	participantstore "github.com/pulsehq/pulse/internal/app/store/participants"
	surveystore "github.com/pulsehq/pulse/internal/app/store/surveys"
	teamstore "github.com/pulsehq/pulse/internal/app/store/teams"
	"github.com/pulsehq/pulse/internal/domain/metrics"
	"github.com/pulsehq/pulse/internal/domain/models"
	"github.com/pulsehq/pulse/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newService(db *mongo.Database) *metricsstore.Service {
	return metricsstore.NewService(
		teamstore.New(db),
		checkinstore.New(db),
		surveystore.New(db),
		participantstore.New(db),
		zap.NewNop(),
	)
}

func TestService_ComputeVibe_Windows(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newService(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateOwner(ctx, "Owner", "owner@example.com", "")
	team := fixtures.CreateTeam(ctx, "Alpha", owner.ID)

	// Pin the clock so window boundaries are deterministic.
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	p1 := fixtures.CreateParticipant(ctx, team.ID, owner.ID)
	p2 := fixtures.CreateParticipant(ctx, team.ID, fixtures.CreateMember(ctx, "M", "m@example.com").ID)

	// Current window: Mar 8 through Mar 14.
	fixtures.CreateCheckIn(ctx, team.ID, p1.ParticipantRef, 4, "2026-03-14")
	fixtures.CreateCheckIn(ctx, team.ID, p2.ParticipantRef, 5, "2026-03-10")
	// Previous window: Mar 1 through Mar 7.
	fixtures.CreateCheckIn(ctx, team.ID, p1.ParticipantRef, 2, "2026-03-05")
	// Outside both windows.
	fixtures.CreateCheckIn(ctx, team.ID, p2.ParticipantRef, 1, "2026-02-20")

	m, err := svc.ComputeForTool(ctx, team, models.ToolVibe, now)
	if err != nil {
		t.Fatalf("ComputeForTool failed: %v", err)
	}

	if m.AverageScore == nil || *m.AverageScore != 4.5 {
		t.Errorf("current average: got %v, want 4.5", m.AverageScore)
	}
	if m.PreviousAverageScore == nil || *m.PreviousAverageScore != 2.0 {
		t.Errorf("previous average: got %v, want 2.0", m.PreviousAverageScore)
	}
	if m.Trend != metrics.TrendUp {
		t.Errorf("trend: got %q, want up", m.Trend)
	}
	if m.ParticipantCount != 2 {
		t.Errorf("participant count: got %d, want 2", m.ParticipantCount)
	}
	if m.TodayEntries != 1 {
		t.Errorf("today entries: got %d, want 1", m.TodayEntries)
	}
	// One of two detected participants checked in today.
	if m.ParticipationPercent != 50 {
		t.Errorf("participation: got %d, want 50", m.ParticipationPercent)
	}
}

func TestService_ComputeVibe_DeclaredSizeWins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newService(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateOwner(ctx, "Owner", "owner@example.com", "")
	team := fixtures.CreateTeam(ctx, "Alpha", owner.ID)
	team.ExpectedTeamSize = 4

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	p := fixtures.CreateParticipant(ctx, team.ID, owner.ID)
	fixtures.CreateCheckIn(ctx, team.ID, p.ParticipantRef, 3, "2026-03-14")

	m, err := svc.ComputeForTool(ctx, team, models.ToolVibe, now)
	if err != nil {
		t.Fatalf("ComputeForTool failed: %v", err)
	}
	// 1 of the declared 4, not 1 of the 1 detected.
	if m.ParticipationPercent != 25 {
		t.Errorf("participation: got %d, want 25", m.ParticipationPercent)
	}
}

func TestService_ComputeWoW(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newService(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateOwner(ctx, "Owner", "owner@example.com", "")
	team := fixtures.CreateTeam(ctx, "Alpha", owner.ID)

	a1, a2 := 3.0, 3.6
	fixtures.CreateClosedSession(ctx, team.ID, 1, &a1)
	fixtures.CreateClosedSession(ctx, team.ID, 2, &a2)

	m, err := svc.ComputeForTool(ctx, team, models.ToolWoW, time.Now().UTC())
	if err != nil {
		t.Fatalf("ComputeForTool failed: %v", err)
	}
	if m.AverageScore == nil || *m.AverageScore != 3.6 {
		t.Errorf("current average: got %v, want 3.6", m.AverageScore)
	}
	if m.PreviousAverageScore == nil || *m.PreviousAverageScore != 3.0 {
		t.Errorf("previous average: got %v, want 3.0", m.PreviousAverageScore)
	}
	if m.Trend != metrics.TrendUp {
		t.Errorf("trend: got %q, want up", m.Trend)
	}
}

func TestService_ComputeForTool_Unknown(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newService(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := svc.ComputeForTool(ctx, models.Team{}, "retro", time.Now()); err == nil {
		t.Error("expected an error for an unknown tool")
	}
}

func TestService_RefreshTeam_WritesCache(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newService(db)
	teams := teamstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateOwner(ctx, "Owner", "owner@example.com", "")
	team := fixtures.CreateTeam(ctx, "Alpha", owner.ID)

	p := fixtures.CreateParticipant(ctx, team.ID, owner.ID)
	fixtures.CreateCheckIn(ctx, team.ID, p.ParticipantRef, 4, checkinstore.DateKey(time.Now().UTC()))

	if err := svc.RefreshTeam(ctx, team); err != nil {
		t.Fatalf("RefreshTeam failed: %v", err)
	}

	got, err := teams.GetByID(ctx, team.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	vibe, ok := got.Metrics[models.ToolVibe]
	if !ok {
		t.Fatal("expected a cached vibe block")
	}
	if vibe.AverageScore == nil || *vibe.AverageScore != 4.0 {
		t.Errorf("cached average: got %v, want 4.0", vibe.AverageScore)
	}
	if vibe.RefreshedAt.IsZero() {
		t.Error("expected RefreshedAt to be stamped")
	}
	if _, ok := got.Metrics[models.ToolWoW]; !ok {
		t.Error("expected a cached wow block for the second enabled tool")
	}
}

func TestCachedRoundTrip(t *testing.T) {
	avg := 4.1
	m := metrics.TeamMetrics{
		AverageScore:         &avg,
		Trend:                metrics.TrendStable,
		ParticipantCount:     6,
		TodayEntries:         4,
		ParticipationPercent: 67,
	}
	back := metricsstore.FromCached(metricsstore.ToCached(m, time.Now()))
	if back.AverageScore == nil || *back.AverageScore != 4.1 {
		t.Errorf("average: got %v, want 4.1", back.AverageScore)
	}
	if back.Trend != metrics.TrendStable {
		t.Errorf("trend: got %q, want stable", back.Trend)
	}
	if back.ParticipationPercent != 67 {
		t.Errorf("participation: got %d, want 67", back.ParticipationPercent)
	}
}
