// Package gates provides authorization gate functions for HTTP handlers.
// Gates check authentication, role, and subscription tier, writing JSON
// error responses when checks fail.
//
// Route middleware (auth.RequireSignedIn, auth.RequireRole) handles
// coarse-grained access in routes.go files. Gates are for handlers that
// need checks the route group does not express: a different role than the
// group, or a tier capability. Resource-specific checks that need a
// database lookup live in internal/app/policy.
package gates

import (
	"net/http"

	uierrors "github.com/pulsehq/pulse/internal/app/features/errors"
	"github.com/pulsehq/pulse/internal/app/system/authz"
	"github.com/pulsehq/pulse/internal/domain/tier"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Result contains the result of an authorization gate check.
type Result struct {
	Role   string
	Name   string
	UserID primitive.ObjectID
	Tier   tier.Tier
	OK     bool
}

// RequireAuth ensures a user is authenticated.
// If not, it writes a 401 and returns OK=false.
func RequireAuth(w http.ResponseWriter, r *http.Request) Result {
	role, name, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return Result{OK: false}
	}
	return Result{Role: role, Name: name, UserID: uid, Tier: tier.Parse(authz.UserTier(r)), OK: true}
}

// RequireAdmin ensures the user is authenticated and has the admin role.
func RequireAdmin(w http.ResponseWriter, r *http.Request, forbiddenMsg string) Result {
	res := RequireAuth(w, r)
	if !res.OK {
		return res
	}
	if res.Role != authz.RoleAdmin {
		uierrors.RenderForbidden(w, r, forbiddenMsg)
		return Result{OK: false}
	}
	return res
}

// RequireOwnerOrAdmin ensures the user is authenticated and is either a
// team owner account or an admin.
func RequireOwnerOrAdmin(w http.ResponseWriter, r *http.Request, forbiddenMsg string) Result {
	res := RequireAuth(w, r)
	if !res.OK {
		return res
	}
	if res.Role != authz.RoleOwner && res.Role != authz.RoleAdmin {
		uierrors.RenderForbidden(w, r, forbiddenMsg)
		return Result{OK: false}
	}
	return res
}

// RequireCoach ensures the user's subscription tier enables coaching
// insights. Admins pass regardless of tier.
func RequireCoach(w http.ResponseWriter, r *http.Request) Result {
	res := RequireAuth(w, r)
	if !res.OK {
		return res
	}
	if res.Role == authz.RoleAdmin {
		return res
	}
	if !tier.Resolve(res.Tier).Coach {
		uierrors.RenderForbidden(w, r, "coaching insights require a paid plan")
		return Result{OK: false}
	}
	return res
}

// RequireCrossTeam ensures the user's subscription tier enables cross-team
// analysis. Admins pass regardless of tier.
func RequireCrossTeam(w http.ResponseWriter, r *http.Request) Result {
	res := RequireAuth(w, r)
	if !res.OK {
		return res
	}
	if res.Role == authz.RoleAdmin {
		return res
	}
	if !tier.Resolve(res.Tier).CrossTeam {
		uierrors.RenderForbidden(w, r, "cross-team analysis requires the transition coach plan")
		return Result{OK: false}
	}
	return res
}
