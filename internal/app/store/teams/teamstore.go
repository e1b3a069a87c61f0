// internal/app/store/teams/teamstore.go
package teamstore

import (
	"context"
	"errors"
	"time"

	"github.com/pulsehq/pulse/internal/app/system/normalize"
	"github.com/pulsehq/pulse/internal/app/system/status"
	"github.com/pulsehq/pulse/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrDuplicateSlug = errors.New("a team with this slug already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("teams")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Team, error) {
	var t models.Team
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return models.Team{}, err
	}
	return t, nil
}

func (s *Store) GetBySlug(ctx context.Context, slug string) (models.Team, error) {
	var t models.Team
	if err := s.c.FindOne(ctx, bson.M{"slug": normalize.Slug(slug)}).Decode(&t); err != nil {
		return models.Team{}, err
	}
	return t, nil
}

// Create inserts a team. Both tools are enabled by default; an explicit
// Tools slice on the input overrides that.
func (s *Store) Create(ctx context.Context, t models.Team) (models.Team, error) {
	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	t.Name = normalize.Name(t.Name)
	t.NameCI = text.Fold(t.Name)
	t.Slug = normalize.Slug(t.Slug)
	if len(t.Tools) == 0 {
		t.Tools = []string{models.ToolVibe, models.ToolWoW}
	}
	if t.Status == "" {
		t.Status = status.Active
	}
	t.CreatedAt = now
	t.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, t); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Team{}, ErrDuplicateSlug
		}
		return models.Team{}, err
	}
	return t, nil
}

// UpdateInfo changes the mutable team fields. Zero-valued arguments keep
// the stored values, except tools: a non-nil empty slice is rejected
// upstream, so nil means "unchanged" here.
func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, name string, expectedSize *int, tools []string) error {
	set := bson.M{
		"updated_at": time.Now().UTC(),
	}
	if normalize.Name(name) != "" {
		set["name"] = normalize.Name(name)
		set["name_ci"] = text.Fold(name)
	}
	if expectedSize != nil {
		set["expected_team_size"] = *expectedSize
	}
	if tools != nil {
		set["tools"] = tools
	}

	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a team by ID. Returns the number of documents deleted (0 or 1).
// Entry cleanup across the other collections is the caller's job.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListByOwner returns the owner's teams, name-ordered, with a look-ahead
// limit for pagination. Orphaned teams (owner unset) never appear.
func (s *Store) ListByOwner(ctx context.Context, ownerID primitive.ObjectID, skip, limit int64) ([]models.Team, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "name_ci", Value: 1}}).
		SetSkip(skip).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Team
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByOwner returns the number of teams the owner currently has.
// Used to enforce the tier's maxTeams gate.
func (s *Store) CountByOwner(ctx context.Context, ownerID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"owner_id": ownerID})
}

// ListActive returns every active, non-orphaned team. The metrics refresh
// job sweeps this list.
func (s *Store) ListActive(ctx context.Context) ([]models.Team, error) {
	cur, err := s.c.Find(ctx, bson.M{
		"status":   status.Active,
		"owner_id": bson.M{"$ne": nil},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Team
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetCachedMetrics writes the denormalized metrics block for one tool.
func (s *Store) SetCachedMetrics(ctx context.Context, id primitive.ObjectID, tool string, m models.CachedMetrics) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"metrics." + tool: m,
		"updated_at":      time.Now().UTC(),
	}})
	return err
}

// ClearCachedMetrics drops the whole cached block, forcing live
// recomputation until the next refresh sweep. Called on team reset.
func (s *Store) ClearCachedMetrics(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$unset": bson.M{"metrics": ""}})
	return err
}
