package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pulsehq/pulse/internal/app/system/normalize"
	"github.com/pulsehq/pulse/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	return WithChiURLParams(r, key, value)
}

// WithChiURLParams sets several chi URL parameters on a request, given as
// alternating key/value pairs.
func WithChiURLParams(r *http.Request, pairs ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(pairs); i += 2 {
		rctx.URLParams.Add(pairs[i], pairs[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a test user with the given parameters.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role, tierName string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      normalize.Email(email),
		EmailCI:    text.Fold(normalize.Email(email)),
		AuthMethod: "password",
		Role:       role,
		Status:     "active",
		Tier:       tierName,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := f.db.Collection("users").InsertOne(ctx, user)
	if err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// CreateAdmin creates a test admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, "admin", "")
}

// CreateOwner creates a test owner user on the given subscription tier.
// Pass "" for the free tier.
func (f *Fixtures) CreateOwner(ctx context.Context, fullName, email, tierName string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, "owner", tierName)
}

// CreateMember creates a test member user.
func (f *Fixtures) CreateMember(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, "member", "")
}

// CreateDisabledUser creates a test user with disabled status.
func (f *Fixtures) CreateDisabledUser(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      normalize.Email(email),
		EmailCI:    text.Fold(normalize.Email(email)),
		AuthMethod: "password",
		Role:       "member",
		Status:     "disabled",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := f.db.Collection("users").InsertOne(ctx, user)
	if err != nil {
		f.t.Fatalf("failed to create disabled test user: %v", err)
	}

	return user
}

// CreateTeam creates a test team owned by the given user, with both tools
// enabled and active status.
func (f *Fixtures) CreateTeam(ctx context.Context, name string, ownerID primitive.ObjectID) models.Team {
	f.t.Helper()

	now := time.Now().UTC()
	team := models.Team{
		ID:        primitive.NewObjectID(),
		Slug:      normalize.Slug(name),
		Name:      name,
		NameCI:    text.Fold(name),
		OwnerID:   &ownerID,
		Tools:     []string{models.ToolVibe, models.ToolWoW},
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := f.db.Collection("teams").InsertOne(ctx, team)
	if err != nil {
		f.t.Fatalf("failed to create test team: %v", err)
	}

	return team
}

// CreateParticipant links a user to a team with a fresh anonymous reference.
func (f *Fixtures) CreateParticipant(ctx context.Context, teamID, userID primitive.ObjectID) models.Participant {
	f.t.Helper()

	p := models.Participant{
		ID:             primitive.NewObjectID(),
		TeamID:         teamID,
		UserID:         userID,
		ParticipantRef: uuid.NewString(),
		CreatedAt:      time.Now().UTC(),
	}

	_, err := f.db.Collection("participants").InsertOne(ctx, p)
	if err != nil {
		f.t.Fatalf("failed to create test participant: %v", err)
	}

	return p
}

// CreateCheckIn inserts a mood check-in for the given team, participant
// reference, score, and entry date ("2006-01-02").
func (f *Fixtures) CreateCheckIn(ctx context.Context, teamID primitive.ObjectID, participantRef string, score int, entryDate string) models.CheckIn {
	f.t.Helper()

	c := models.CheckIn{
		ID:             primitive.NewObjectID(),
		TeamID:         teamID,
		ParticipantRef: participantRef,
		Score:          score,
		EntryDate:      entryDate,
		CreatedAt:      time.Now().UTC(),
	}

	_, err := f.db.Collection("checkins").InsertOne(ctx, c)
	if err != nil {
		f.t.Fatalf("failed to create test check-in: %v", err)
	}

	return c
}

// CreateClosedSession inserts a closed survey session with the given ordinal
// and frozen average.
func (f *Fixtures) CreateClosedSession(ctx context.Context, teamID primitive.ObjectID, ordinal int, avg *float64) models.SurveySession {
	f.t.Helper()

	now := time.Now().UTC()
	closed := now
	sess := models.SurveySession{
		ID:           primitive.NewObjectID(),
		TeamID:       teamID,
		Ordinal:      ordinal,
		Status:       models.SurveyClosed,
		AverageScore: avg,
		OpenedAt:     now.Add(-time.Hour),
		ClosedAt:     &closed,
	}

	_, err := f.db.Collection("survey_sessions").InsertOne(ctx, sess)
	if err != nil {
		f.t.Fatalf("failed to create test survey session: %v", err)
	}

	return sess
}

// CreateFeedback inserts an anonymous feedback note for a team member.
func (f *Fixtures) CreateFeedback(ctx context.Context, teamID, recipientID primitive.ObjectID, participantRef, body string) models.Feedback {
	f.t.Helper()

	fb := models.Feedback{
		ID:             primitive.NewObjectID(),
		TeamID:         teamID,
		RecipientID:    recipientID,
		ParticipantRef: participantRef,
		Body:           body,
		CreatedAt:      time.Now().UTC(),
	}

	_, err := f.db.Collection("feedback").InsertOne(ctx, fb)
	if err != nil {
		f.t.Fatalf("failed to create test feedback: %v", err)
	}

	return fb
}
