package surveystore_test

import (
	"errors"
	"testing"

	surveystore "github.com/pulsehq/pulse/internal/app/store/surveys"
	"github.com/pulsehq/pulse/internal/app/system/indexes"
	"github.com/pulsehq/pulse/internal/domain/models"
	"github.com/pulsehq/pulse/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_OpenSession_Ordinals(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := surveystore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	teamID := primitive.NewObjectID()

	first, err := store.OpenSession(ctx, teamID)
	if err != nil {
		t.Fatalf("OpenSession failed: %v", err)
	}
	if first.Ordinal != 1 {
		t.Errorf("first ordinal: got %d, want 1", first.Ordinal)
	}
	if first.Status != models.SurveyOpen {
		t.Errorf("status: got %q, want %q", first.Status, models.SurveyOpen)
	}

	// A second open session for the same team is rejected.
	if _, err := store.OpenSession(ctx, teamID); !errors.Is(err, surveystore.ErrSessionOpen) {
		t.Errorf("second OpenSession: got %v, want ErrSessionOpen", err)
	}

	if _, err := store.CloseSession(ctx, first.ID); err != nil {
		t.Fatalf("CloseSession failed: %v", err)
	}

	second, err := store.OpenSession(ctx, teamID)
	if err != nil {
		t.Fatalf("OpenSession after close failed: %v", err)
	}
	if second.Ordinal != 2 {
		t.Errorf("second ordinal: got %d, want 2", second.Ordinal)
	}
}

func TestStore_AddResponse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	store := surveystore.New(db)

	teamID := primitive.NewObjectID()
	sess, err := store.OpenSession(ctx, teamID)
	if err != nil {
		t.Fatalf("OpenSession failed: %v", err)
	}

	resp, err := store.AddResponse(ctx, models.SurveyResponse{
		SessionID:      sess.ID,
		ParticipantRef: "ref-1",
		Statement:      "planning",
		Score:          4,
	})
	if err != nil {
		t.Fatalf("AddResponse failed: %v", err)
	}
	if resp.TeamID != teamID {
		t.Error("expected TeamID stamped from the session")
	}

	// Unknown statement.
	_, err = store.AddResponse(ctx, models.SurveyResponse{
		SessionID:      sess.ID,
		ParticipantRef: "ref-1",
		Statement:      "velocity",
		Score:          3,
	})
	if !errors.Is(err, surveystore.ErrUnknownStatement) {
		t.Errorf("unknown statement: got %v, want ErrUnknownStatement", err)
	}

	// Re-answering the same statement in the same session.
	_, err = store.AddResponse(ctx, models.SurveyResponse{
		SessionID:      sess.ID,
		ParticipantRef: "ref-1",
		Statement:      "planning",
		Score:          5,
	})
	if !errors.Is(err, surveystore.ErrDuplicateAnswer) {
		t.Errorf("duplicate answer: got %v, want ErrDuplicateAnswer", err)
	}

	// A different participant may answer the same statement.
	if _, err := store.AddResponse(ctx, models.SurveyResponse{
		SessionID:      sess.ID,
		ParticipantRef: "ref-2",
		Statement:      "planning",
		Score:          2,
	}); err != nil {
		t.Errorf("different participant AddResponse failed: %v", err)
	}

	// Closed sessions reject responses.
	if _, err := store.CloseSession(ctx, sess.ID); err != nil {
		t.Fatalf("CloseSession failed: %v", err)
	}
	_, err = store.AddResponse(ctx, models.SurveyResponse{
		SessionID:      sess.ID,
		ParticipantRef: "ref-3",
		Statement:      "collaboration",
		Score:          3,
	})
	if !errors.Is(err, surveystore.ErrSessionNotOpen) {
		t.Errorf("closed session: got %v, want ErrSessionNotOpen", err)
	}
}

func TestStore_CloseSession_Average(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := surveystore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	teamID := primitive.NewObjectID()
	sess, err := store.OpenSession(ctx, teamID)
	if err != nil {
		t.Fatalf("OpenSession failed: %v", err)
	}

	for i, score := range []int{4, 4, 5} {
		ref := string(rune('a' + i))
		if _, err := store.AddResponse(ctx, models.SurveyResponse{
			SessionID:      sess.ID,
			ParticipantRef: ref,
			Statement:      "goal_clarity",
			Score:          score,
		}); err != nil {
			t.Fatalf("AddResponse failed: %v", err)
		}
	}

	closed, err := store.CloseSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("CloseSession failed: %v", err)
	}
	if closed.AverageScore == nil {
		t.Fatal("expected a frozen average")
	}
	// mean of 4, 4, 5 rounds to 4.3
	if *closed.AverageScore != 4.3 {
		t.Errorf("average: got %v, want 4.3", *closed.AverageScore)
	}
	if closed.ClosedAt == nil {
		t.Error("expected ClosedAt to be set")
	}

	// Closing again is an error.
	if _, err := store.CloseSession(ctx, sess.ID); !errors.Is(err, surveystore.ErrSessionNotOpen) {
		t.Errorf("double close: got %v, want ErrSessionNotOpen", err)
	}
}

func TestStore_CloseSession_NoResponses(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := surveystore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sess, err := store.OpenSession(ctx, primitive.NewObjectID())
	if err != nil {
		t.Fatalf("OpenSession failed: %v", err)
	}
	closed, err := store.CloseSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("CloseSession failed: %v", err)
	}
	if closed.AverageScore != nil {
		t.Errorf("average of empty session: got %v, want nil", *closed.AverageScore)
	}
}

func TestStore_LatestClosedAverages(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := surveystore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	teamID := primitive.NewObjectID()

	cur, prev, err := store.LatestClosedAverages(ctx, teamID)
	if err != nil {
		t.Fatalf("LatestClosedAverages failed: %v", err)
	}
	if cur != nil || prev != nil {
		t.Error("expected nil averages for a team with no sessions")
	}

	a1, a2 := 3.2, 3.8
	fixtures.CreateClosedSession(ctx, teamID, 1, &a1)
	fixtures.CreateClosedSession(ctx, teamID, 2, &a2)

	cur, prev, err = store.LatestClosedAverages(ctx, teamID)
	if err != nil {
		t.Fatalf("LatestClosedAverages failed: %v", err)
	}
	if cur == nil || *cur != 3.8 {
		t.Errorf("current: got %v, want 3.8", cur)
	}
	if prev == nil || *prev != 3.2 {
		t.Errorf("previous: got %v, want 3.2", prev)
	}

	// An open session does not count.
	if _, err := store.OpenSession(ctx, teamID); err == nil {
		cur, prev, err = store.LatestClosedAverages(ctx, teamID)
		if err != nil {
			t.Fatalf("LatestClosedAverages failed: %v", err)
		}
		if cur == nil || *cur != 3.8 {
			t.Errorf("current after opening a round: got %v, want 3.8", cur)
		}
	}
}
