// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents admins, team owners, and members.
//
// NOTE:
//   - Owners carry the account's subscription tier; members and admins
//     leave Tier empty.
//   - Team membership is not embedded on User. Use the participants
//     collection to discover which teams a user has checked in for.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email      string             `bson:"email" json:"email"`
	EmailCI    string             `bson:"email_ci" json:"-"`
	AuthMethod string             `bson:"auth_method,omitempty" json:"auth_method,omitempty"` // password | google
	// PasswordHash is a bcrypt hash; only set when AuthMethod is "password".
	PasswordHash string `bson:"password_hash,omitempty" json:"-"`
	Role         string `bson:"role" json:"role"` // admin | owner | member
	Status       string `bson:"status,omitempty" json:"status,omitempty"`
	// Tier is the owner's subscription tier (free, scrum_master, agile_coach,
	// transition_coach). Empty and unrecognized values resolve as free.
	Tier string `bson:"tier,omitempty" json:"tier,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
