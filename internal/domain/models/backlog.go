// internal/domain/models/backlog.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Backlog item statuses and categories. Plain enum-membership validation;
// no derived state.
const (
	BacklogIdea       = "idea"
	BacklogPlanned    = "planned"
	BacklogInProgress = "in_progress"
	BacklogDone       = "done"
)

const (
	BacklogFeature = "feature"
	BacklogBug     = "bug"
	BacklogChore   = "chore"
)

// ValidBacklogStatus reports whether s is a known backlog status.
func ValidBacklogStatus(s string) bool {
	switch s {
	case BacklogIdea, BacklogPlanned, BacklogInProgress, BacklogDone:
		return true
	}
	return false
}

// ValidBacklogCategory reports whether c is a known backlog category.
func ValidBacklogCategory(c string) bool {
	switch c {
	case BacklogFeature, BacklogBug, BacklogChore:
		return true
	}
	return false
}

// BacklogItem is a product-team kanban card.
type BacklogItem struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Status      string             `bson:"status" json:"status"`
	Category    string             `bson:"category" json:"category"`
	SortOrder   int                `bson:"sort_order" json:"sort_order"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
