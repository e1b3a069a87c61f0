// internal/app/store/users/fetcher.go
package userstore

import (
	"context"

	"github.com/pulsehq/pulse/internal/app/system/auth"
	"github.com/pulsehq/pulse/internal/app/system/status"
	"github.com/pulsehq/pulse/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fetcher implements auth.UserFetcher so sessions always see fresh user
// data: role changes, tier changes from billing webhooks, and disabled
// accounts take effect on the next request, not the next login.
type Fetcher struct {
	users *mongo.Collection
}

func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{users: db.Collection("users")}
}

// FetchUser retrieves a user by ID and returns nil if the user is not
// found, disabled, or if any error occurs.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var u struct {
		ID       primitive.ObjectID `bson:"_id"`
		FullName string             `bson:"full_name"`
		Email    string             `bson:"email"`
		Role     string             `bson:"role"`
		Status   string             `bson:"status"`
		Tier     string             `bson:"tier"`
	}
	if err := f.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&u); err != nil {
		return nil
	}
	if u.Status != "" && u.Status != status.Active {
		return nil
	}

	return &auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Email: u.Email,
		Role:  u.Role,
		Tier:  u.Tier,
	}
}
