// internal/app/features/login/handler.go
package login

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	uierrors "github.com/pulsehq/pulse/internal/app/features/errors"
	userstore "github.com/pulsehq/pulse/internal/app/store/users"
	"github.com/pulsehq/pulse/internal/app/system/auditlog"
	"github.com/pulsehq/pulse/internal/app/system/auth"
	"github.com/pulsehq/pulse/internal/app/system/authz"
	"github.com/pulsehq/pulse/internal/app/system/inputval"
	"github.com/pulsehq/pulse/internal/app/system/limits"
	"github.com/pulsehq/pulse/internal/app/system/normalize"
	"github.com/pulsehq/pulse/internal/app/system/ratelimit"
	"github.com/pulsehq/pulse/internal/app/system/status"
	"github.com/pulsehq/pulse/internal/app/system/timeouts"
	"github.com/pulsehq/pulse/internal/domain/models"
	"github.com/pulsehq/pulse/internal/domain/tier"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Users      *userstore.Store
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Limiter    *ratelimit.Limiter
	Log        *zap.Logger
	ErrLog     *uierrors.ErrorLogger
}

func NewHandler(users *userstore.Store, sm *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      users,
		SessionMgr: sm,
		AuditLog:   audit,
		Limiter:    ratelimit.New(10, time.Minute),
		Log:        logger,
		ErrLog:     uierrors.NewErrorLogger(logger),
	}
}

type registerRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	// Role is "owner" or "member"; owners manage teams and carry the
	// subscription, members join teams and check in.
	Role string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Tier     string `json:"tier,omitempty"`
}

func toUserResponse(u models.User) userResponse {
	return userResponse{
		ID:       u.ID.Hex(),
		FullName: u.FullName,
		Email:    u.Email,
		Role:     u.Role,
		Tier:     u.Tier,
	}
}

// HandleRegister handles POST /auth/register. New accounts are owners or
// members; admins are provisioned out of band.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "register")
	defer cancel()

	ip := ratelimit.ClientIP(r)
	if !h.Limiter.Allow("register:" + ip) {
		h.Log.Warn("register rate limited", zap.String("ip", ip))
		uierrors.Render(w, http.StatusTooManyRequests, "too many attempts, try again later")
		return
	}

	var req registerRequest
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid JSON body")
		return
	}

	req.FullName = normalize.Name(req.FullName)
	req.Email = normalize.Email(req.Email)
	if req.FullName == "" || req.Email == "" {
		h.ErrLog.LogBadRequest(w, r, "full_name and email are required")
		return
	}
	if !inputval.IsValidEmail(req.Email) {
		h.ErrLog.LogBadRequest(w, r, "invalid email address")
		return
	}
	if len(req.Password) < 8 {
		h.ErrLog.LogBadRequest(w, r, "password must be at least 8 characters")
		return
	}
	role := req.Role
	if role == "" {
		role = authz.RoleMember
	}
	if role != authz.RoleOwner && role != authz.RoleMember {
		h.ErrLog.LogBadRequest(w, r, "role must be owner or member")
		return
	}

	u := models.User{
		FullName:   req.FullName,
		Email:      req.Email,
		AuthMethod: "password",
		Role:       role,
		Status:     status.Active,
	}
	if role == authz.RoleOwner {
		u.Tier = string(tier.Free)
	}

	created, err := h.Users.Create(ctx, u)
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			h.ErrLog.LogConflict(w, r, "an account with this email already exists")
			return
		}
		h.ErrLog.LogServerError(w, r, "register: create user failed", err, "could not create account")
		return
	}
	if err := h.Users.SetPassword(ctx, created.ID, req.Password); err != nil {
		h.ErrLog.LogServerError(w, r, "register: set password failed", err, "could not create account")
		return
	}

	if err := h.SessionMgr.SignIn(w, r, created.ID.Hex()); err != nil {
		h.ErrLog.LogServerError(w, r, "register: sign-in failed", err, "account created, sign in to continue")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toUserResponse(created))
}

// HandleLogin handles POST /auth/login. Attempts are rate limited per
// client IP; a successful login resets the counter.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "login")
	defer cancel()

	ip := ratelimit.ClientIP(r)
	if !h.Limiter.Allow("login:" + ip) {
		h.Log.Warn("login rate limited", zap.String("ip", ip))
		uierrors.Render(w, http.StatusTooManyRequests, "too many attempts, try again later")
		return
	}

	var req loginRequest
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid JSON body")
		return
	}
	req.Email = normalize.Email(req.Email)
	if req.Email == "" || req.Password == "" {
		h.ErrLog.LogBadRequest(w, r, "email and password are required")
		return
	}

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			h.AuditLog.LoginFailedUserNotFound(ctx, r, req.Email)
			uierrors.Render(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.ErrLog.LogServerError(w, r, "login: user lookup failed", err, "could not sign in")
		return
	}
	if u.Status == status.Disabled {
		h.AuditLog.LoginFailedUserDisabled(ctx, r, u.ID, u.Email)
		uierrors.Render(w, http.StatusUnauthorized, "account is disabled")
		return
	}
	if !h.Users.CheckPassword(u, req.Password) {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID, u.Email)
		uierrors.Render(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		h.ErrLog.LogServerError(w, r, "login: sign-in failed", err, "could not sign in")
		return
	}
	h.Limiter.Reset("login:" + ip)
	h.AuditLog.LoginSuccess(ctx, r, u.ID, u.Email)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toUserResponse(u))
}

// ServeMe handles GET /auth/me: the signed-in user's own profile.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(userResponse{
		ID:       u.ID,
		FullName: u.Name,
		Email:    u.Email,
		Role:     u.Role,
		Tier:     u.Tier,
	})
}
