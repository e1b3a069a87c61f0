// internal/domain/models/releasenote.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReleaseNote is one published (or draft) release announcement.
type ReleaseNote struct {
	ID      primitive.ObjectID `bson:"_id" json:"id"`
	Version string             `bson:"version" json:"version"`
	Title   string             `bson:"title" json:"title"`
	Body    string             `bson:"body" json:"body"`

	Published   bool       `bson:"published" json:"published"`
	PublishedAt *time.Time `bson:"published_at,omitempty" json:"published_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
