// internal/app/store/subscriptions/subscriptionstore.go
package subscriptionstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pulsehq/pulse/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

// ErrNotPending is returned when a webhook tries to settle a checkout that
// already reached a terminal state. Providers redeliver webhooks; the first
// delivery wins and the rest are acknowledged without effect.
var ErrNotPending = errors.New("checkout is not pending")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("subscriptions")}
}

// CreateCheckout opens a pending checkout for the owner toward the target
// tier and mints the provider reference the client hands to the payment
// page.
func (s *Store) CreateCheckout(ctx context.Context, ownerID primitive.ObjectID, targetTier string) (models.Subscription, error) {
	now := time.Now().UTC()
	sub := models.Subscription{
		ID:          primitive.NewObjectID(),
		OwnerID:     ownerID,
		TargetTier:  targetTier,
		State:       models.CheckoutPending,
		ProviderRef: uuid.NewString(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.c.InsertOne(ctx, sub); err != nil {
		return models.Subscription{}, err
	}
	return sub, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Subscription, error) {
	var sub models.Subscription
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sub); err != nil {
		return models.Subscription{}, err
	}
	return sub, nil
}

func (s *Store) GetByProviderRef(ctx context.Context, ref string) (models.Subscription, error) {
	var sub models.Subscription
	if err := s.c.FindOne(ctx, bson.M{"provider_ref": ref}).Decode(&sub); err != nil {
		return models.Subscription{}, err
	}
	return sub, nil
}

// Settle transitions a pending checkout to a terminal state. The filter
// includes the pending state so concurrent webhook deliveries cannot
// double-settle; a no-match on an existing checkout maps to ErrNotPending.
func (s *Store) Settle(ctx context.Context, id primitive.ObjectID, state string) (models.Subscription, error) {
	now := time.Now().UTC()
	res := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "state": models.CheckoutPending},
		bson.M{"$set": bson.M{
			"state":      state,
			"settled_at": now,
			"updated_at": now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After))

	var sub models.Subscription
	if err := res.Decode(&sub); err != nil {
		if err == mongo.ErrNoDocuments {
			if _, getErr := s.GetByID(ctx, id); getErr == nil {
				return models.Subscription{}, ErrNotPending
			}
		}
		return models.Subscription{}, err
	}
	return sub, nil
}

// ListByOwner returns the owner's checkout history, newest first.
func (s *Store) ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Subscription, error) {
	cur, err := s.c.Find(ctx, bson.M{"owner_id": ownerID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Subscription
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CancelStalePending cancels pending checkouts older than the threshold.
// Returns the number of checkouts canceled. Run by the background cleanup
// job so abandoned payment pages do not accumulate.
func (s *Store) CancelStalePending(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	res, err := s.c.UpdateMany(ctx,
		bson.M{"state": models.CheckoutPending, "created_at": bson.M{"$lt": cutoff}},
		bson.M{"$set": bson.M{
			"state":      models.CheckoutCanceled,
			"updated_at": time.Now().UTC(),
		}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
