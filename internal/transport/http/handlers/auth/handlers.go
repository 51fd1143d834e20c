package authhandler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"paydesk/internal/domain/auth"
	"paydesk/internal/platform/requestctx"
	"paydesk/internal/transport/http/api"
	"paydesk/internal/transport/http/middleware"
	"paydesk/internal/transport/http/shared"
)

// Sessions is the part of the auth service the handlers need.
type Sessions interface {
	Login(ctx context.Context, username, password, totpCode string) (auth.Session, error)
	Logout(ctx context.Context, user auth.UserContext) error
}

type Handler struct {
	Sessions Sessions
}

func NewHandler(sessions Sessions) *Handler {
	return &Handler{Sessions: sessions}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	TOTPCode string `json:"totpCode"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
	r.Post("/auth/logout", h.HandleLogout)
	r.Get("/auth/me", h.HandleMe)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	var payload loginRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}

	v := shared.NewValidator()
	v.Required("username", payload.Username, "is required")
	v.Required("password", payload.Password, "is required")
	if v.Reject(w, requestID) {
		return
	}

	session, err := h.Sessions.Login(r.Context(), payload.Username, payload.Password, payload.TOTPCode)
	switch {
	case err == nil:
		api.Success(w, session, requestID)
	case errors.Is(err, auth.ErrInvalidCredentials):
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
	case errors.Is(err, auth.ErrTOTPRequired):
		api.Fail(w, http.StatusUnauthorized, "totp_required", "totp code required", requestID)
	case errors.Is(err, auth.ErrInvalidTOTP):
		api.Fail(w, http.StatusUnauthorized, "totp_invalid", "invalid totp code", requestID)
	default:
		requestctx.Logger(r.Context()).Error("login failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "login_failed", "failed to sign in", requestID)
	}
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	if err := h.Sessions.Logout(r.Context(), user); err != nil {
		requestctx.Logger(r.Context()).Warn("logout revoke failed", "userId", user.UserID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "logout_failed", "failed to sign out", requestID)
		return
	}
	api.Success(w, map[string]string{"status": "logged_out"}, requestID)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	api.Success(w, map[string]any{
		"username":  user.UserID,
		"role":      user.Role,
		"code":      user.Code,
		"expiresAt": user.ExpiresAt,
	}, requestID)
}
