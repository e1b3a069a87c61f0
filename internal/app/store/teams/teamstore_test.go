package teamstore_test

import (
	"errors"
	"testing"
	"time"

	teamstore "github.com/pulsehq/pulse/internal/app/store/teams"
	"github.com/pulsehq/pulse/internal/app/system/indexes"
	"github.com/pulsehq/pulse/internal/domain/models"
	"github.com/pulsehq/pulse/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create_Defaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := teamstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ownerID := primitive.NewObjectID()
	created, err := store.Create(ctx, models.Team{
		Slug:    "Platform Crew",
		Name:    "  Platform Crew ",
		OwnerID: &ownerID,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Slug != "platform-crew" {
		t.Errorf("slug: got %q, want %q", created.Slug, "platform-crew")
	}
	if created.Name != "Platform Crew" {
		t.Errorf("name: got %q, want trimmed name", created.Name)
	}
	if created.Status != "active" {
		t.Errorf("status: got %q, want active", created.Status)
	}
	if !created.HasTool(models.ToolVibe) || !created.HasTool(models.ToolWoW) {
		t.Error("expected both tools enabled by default")
	}
}

func TestStore_Create_DuplicateSlug(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	store := teamstore.New(db)

	ownerID := primitive.NewObjectID()
	if _, err := store.Create(ctx, models.Team{Slug: "alpha", Name: "Alpha", OwnerID: &ownerID}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	_, err := store.Create(ctx, models.Team{Slug: "alpha", Name: "Alpha Two", OwnerID: &ownerID})
	if !errors.Is(err, teamstore.ErrDuplicateSlug) {
		t.Errorf("duplicate slug: got %v, want ErrDuplicateSlug", err)
	}
}

func TestStore_GetBySlug(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := teamstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ownerID := primitive.NewObjectID()
	created, err := store.Create(ctx, models.Team{Slug: "alpha-team", Name: "Alpha Team", OwnerID: &ownerID})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.GetBySlug(ctx, "Alpha Team")
	if err != nil {
		t.Fatalf("GetBySlug failed: %v", err)
	}
	if got.ID != created.ID {
		t.Error("GetBySlug returned a different team")
	}

	_, err = store.GetBySlug(ctx, "missing")
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("missing slug: got %v, want ErrNoDocuments", err)
	}
}

func TestStore_UpdateInfo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := teamstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ownerID := primitive.NewObjectID()
	created, err := store.Create(ctx, models.Team{Slug: "alpha", Name: "Alpha", OwnerID: &ownerID})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	size := 7
	if err := store.UpdateInfo(ctx, created.ID, "Alpha Prime", &size, []string{models.ToolVibe}); err != nil {
		t.Fatalf("UpdateInfo failed: %v", err)
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "Alpha Prime" {
		t.Errorf("name: got %q, want Alpha Prime", got.Name)
	}
	if got.ExpectedTeamSize != 7 {
		t.Errorf("expected size: got %d, want 7", got.ExpectedTeamSize)
	}
	if len(got.Tools) != 1 || got.Tools[0] != models.ToolVibe {
		t.Errorf("tools: got %v, want [vibe]", got.Tools)
	}

	// Empty name and nil tools keep the stored values.
	if err := store.UpdateInfo(ctx, created.ID, "", nil, nil); err != nil {
		t.Fatalf("UpdateInfo failed: %v", err)
	}
	got, err = store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "Alpha Prime" || len(got.Tools) != 1 {
		t.Error("zero-valued update should not clear fields")
	}

	if err := store.UpdateInfo(ctx, primitive.NewObjectID(), "X", nil, nil); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("missing team: got %v, want ErrNoDocuments", err)
	}
}

func TestStore_ListByOwner_Sorted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := teamstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ownerID := primitive.NewObjectID()
	for _, name := range []string{"Zebra", "apollo", "Mango"} {
		if _, err := store.Create(ctx, models.Team{Slug: name, Name: name, OwnerID: &ownerID}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	teams, err := store.ListByOwner(ctx, ownerID, 0, 10)
	if err != nil {
		t.Fatalf("ListByOwner failed: %v", err)
	}
	if len(teams) != 3 {
		t.Fatalf("expected 3 teams, got %d", len(teams))
	}
	// Case-folded name order.
	want := []string{"apollo", "Mango", "Zebra"}
	for i, team := range teams {
		if team.Name != want[i] {
			t.Errorf("teams[%d]: got %q, want %q", i, team.Name, want[i])
		}
	}

	n, err := store.CountByOwner(ctx, ownerID)
	if err != nil {
		t.Fatalf("CountByOwner failed: %v", err)
	}
	if n != 3 {
		t.Errorf("count: got %d, want 3", n)
	}
}

func TestStore_CachedMetrics(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := teamstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ownerID := primitive.NewObjectID()
	created, err := store.Create(ctx, models.Team{Slug: "alpha", Name: "Alpha", OwnerID: &ownerID})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	avg := 4.2
	cached := models.CachedMetrics{
		AverageScore:         &avg,
		Trend:                "up",
		ParticipantCount:     5,
		TodayEntries:         3,
		ParticipationPercent: 60,
		RefreshedAt:          time.Now().UTC(),
	}
	if err := store.SetCachedMetrics(ctx, created.ID, models.ToolVibe, cached); err != nil {
		t.Fatalf("SetCachedMetrics failed: %v", err)
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	block, ok := got.Metrics[models.ToolVibe]
	if !ok {
		t.Fatal("expected a cached vibe block")
	}
	if block.AverageScore == nil || *block.AverageScore != 4.2 {
		t.Errorf("cached average: got %v, want 4.2", block.AverageScore)
	}
	if block.ParticipationPercent != 60 {
		t.Errorf("cached participation: got %d, want 60", block.ParticipationPercent)
	}

	if err := store.ClearCachedMetrics(ctx, created.ID); err != nil {
		t.Fatalf("ClearCachedMetrics failed: %v", err)
	}
	got, err = store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.Metrics) != 0 {
		t.Error("expected cached metrics to be cleared")
	}
}
