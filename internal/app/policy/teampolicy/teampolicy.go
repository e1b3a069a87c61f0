// internal/app/policy/teampolicy.go
package teampolicy

import (
	"context"
	"net/http"

	"github.com/pulsehq/pulse/internal/app/system/authz"
	"github.com/pulsehq/pulse/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// IsParticipant reports whether the given user has a participant record for
// the team, according to the authoritative participants collection.
func IsParticipant(ctx context.Context, db *mongo.Database, teamID, userID primitive.ObjectID) (bool, error) {
	c := db.Collection("participants")
	n, err := c.CountDocuments(ctx, bson.M{
		"team_id": teamID,
		"user_id": userID,
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CanManageTeam reports whether the current request user can manage the team:
// - Admins always can
// - Owners can only for teams they own
// Returns an error only for database failures, so callers can distinguish
// "not authorized" (false, nil) from "check failed" (false, err).
func CanManageTeam(ctx context.Context, r *http.Request, team models.Team) (bool, error) {
	role, _, uid, ok := authz.UserCtx(r)
	if !ok {
		return false, nil
	}
	if role == authz.RoleAdmin {
		return true, nil
	}
	if role != authz.RoleOwner {
		return false, nil
	}
	return team.OwnerID != nil && *team.OwnerID == uid, nil
}

// CanViewTeam reports whether the current request user can read the team's
// data: managers always can, and members can when they participate in the
// team.
func CanViewTeam(ctx context.Context, db *mongo.Database, r *http.Request, team models.Team) (bool, error) {
	if ok, err := CanManageTeam(ctx, r, team); err != nil || ok {
		return ok, err
	}
	role, _, uid, ok := authz.UserCtx(r)
	if !ok || role != authz.RoleMember {
		return false, nil
	}
	return IsParticipant(ctx, db, team.ID, uid)
}
