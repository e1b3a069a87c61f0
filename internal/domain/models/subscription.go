// internal/domain/models/subscription.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Checkout states for subscription purchases.
//
// The owner's tier on the users collection only advances when a checkout
// reaches "paid"; pending checkouts never gate or grant anything.
const (
	CheckoutPending  = "pending"
	CheckoutPaid     = "paid"
	CheckoutFailed   = "failed"
	CheckoutCanceled = "canceled"
)

// Subscription is one checkout lifecycle record. Clients poll the status
// endpoint with the checkout ID while the payment provider settles
// asynchronously; the webhook transitions the state.
type Subscription struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	OwnerID     primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	TargetTier  string             `bson:"target_tier" json:"target_tier"`
	State       string             `bson:"state" json:"state"`
	ProviderRef string             `bson:"provider_ref" json:"provider_ref"` // uuid handed to the payment provider

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
	SettledAt *time.Time `bson:"settled_at,omitempty" json:"settled_at,omitempty"`
}
