// internal/app/store/backlog/backlogstore.go
package backlogstore

import (
	"context"
	"time"

	"github.com/pulsehq/pulse/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("backlog_items")}
}

// Create appends a new card at the end of its status column.
func (s *Store) Create(ctx context.Context, title, description, status, category string) (models.BacklogItem, error) {
	next, err := s.nextSortOrder(ctx, status)
	if err != nil {
		return models.BacklogItem{}, err
	}

	now := time.Now().UTC()
	item := models.BacklogItem{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Description: description,
		Status:      status,
		Category:    category,
		SortOrder:   next,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.c.InsertOne(ctx, item); err != nil {
		return models.BacklogItem{}, err
	}
	return item, nil
}

func (s *Store) nextSortOrder(ctx context.Context, status string) (int, error) {
	var last models.BacklogItem
	err := s.c.FindOne(ctx, bson.M{"status": status},
		options.FindOne().SetSort(bson.D{{Key: "sort_order", Value: -1}})).Decode(&last)
	if err == mongo.ErrNoDocuments {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return last.SortOrder + 1, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.BacklogItem, error) {
	var item models.BacklogItem
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&item); err != nil {
		return models.BacklogItem{}, err
	}
	return item, nil
}

func (s *Store) Update(ctx context.Context, id primitive.ObjectID, title, description, category string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"title":       title,
		"description": description,
		"category":    category,
		"updated_at":  time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Move places the card in a status column at the given sort position.
// The caller validates the status; positions are not required to be
// contiguous, only ordered.
func (s *Store) Move(ctx context.Context, id primitive.ObjectID, status string, sortOrder int) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":     status,
		"sort_order": sortOrder,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// List returns every card ordered by status column then sort position.
func (s *Store) List(ctx context.Context) ([]models.BacklogItem, error) {
	cur, err := s.c.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{
			{Key: "status", Value: 1},
			{Key: "sort_order", Value: 1},
		}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.BacklogItem
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByStatus returns one column's cards in sort order.
func (s *Store) ListByStatus(ctx context.Context, status string) ([]models.BacklogItem, error) {
	cur, err := s.c.Find(ctx, bson.M{"status": status},
		options.Find().SetSort(bson.D{{Key: "sort_order", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.BacklogItem
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
