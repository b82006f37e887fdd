package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/recipe-mate/internal/auth"
	"github.com/sakif/recipe-mate/internal/model"
	"github.com/sakif/recipe-mate/internal/respond"
	"github.com/sakif/recipe-mate/internal/service"
)

// AuthHandler serves /api/auth: account creation, sessions and the
// password flows.
//
// DEPENDENCY CHAIN:
//   - auth *service.AuthService → credentials, tokens and reset mails
//   - rs   *respond.Responder   → success bodies and error envelopes
type AuthHandler struct {
	auth   *service.AuthService
	rs     *respond.Responder
	secure bool
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler. secureCookie marks the session
// cookie Secure; set it when the API is served over HTTPS.
func NewAuthHandler(svc *service.AuthService, rs *respond.Responder, secureCookie bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: svc, rs: rs, secure: secureCookie, logger: logger}
}

// signInResponse is returned by a successful sign-in. The token is also set
// as the HttpOnly session cookie.
type signInResponse struct {
	Status    string    `json:"status"`
	UserID    string    `json:"userId"`
	JWT       string    `json:"jwt"`
	Role      int       `json:"role"`
	FullName  string    `json:"fullName"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// HandleSignUp creates an account.
//
// HTTP: POST /api/auth/signup
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req model.SignUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.rs.Error(w, r, err)
		return
	}
	if _, err := h.auth.SignUp(r.Context(), req); err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusCreated, success())
}

// HandleSignIn checks the credentials and starts a session.
//
// HTTP: POST /api/auth/signin
//
// The token goes out twice: in the body for API clients and as an HttpOnly
// cookie for browsers. RequireAuth accepts either.
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var req model.SignInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.rs.Error(w, r, err)
		return
	}
	session, err := h.auth.SignIn(r.Context(), req)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	h.rs.JSON(w, http.StatusOK, signInResponse{
		Status:    "success",
		UserID:    session.User.ID,
		JWT:       session.Token,
		Role:      session.User.Role,
		FullName:  session.User.FullName(),
		ExpiresAt: session.ExpiresAt,
	})
}

// HandleSignOut clears the session cookie. The token itself stays valid
// until it expires.
//
// HTTP: GET /api/auth/signout
func (h *AuthHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	h.rs.JSON(w, http.StatusOK, success())
}

// HandleDetails returns the caller's profile and recipe statistics.
//
// HTTP: GET /api/auth
func (h *AuthHandler) HandleDetails(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	details, err := h.auth.Details(r.Context(), id)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusOK, details)
}

// HandleForgotPassword mails a reset link.
//
// HTTP: PUT /api/auth/forgotpassword
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req model.ForgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.rs.Error(w, r, err)
		return
	}
	if err := h.auth.ForgotPassword(r.Context(), req); err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusOK, statusResponse{
		Status:  "success",
		Message: "Password reset link sent to your email",
	})
}

// HandleResetPassword sets a new password using a mailed reset token.
//
// HTTP: POST /api/auth/reset/{resetToken}
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req model.ResetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.rs.Error(w, r, err)
		return
	}
	if err := h.auth.ResetPassword(r.Context(), chi.URLParam(r, "resetToken"), req); err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusOK, success())
}

// HandleUpdatePassword changes the caller's password.
//
// HTTP: POST /api/auth/updatepassword
func (h *AuthHandler) HandleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	var req model.UpdatePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.rs.Error(w, r, err)
		return
	}
	if err := h.auth.UpdatePassword(r.Context(), id, req); err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusOK, success())
}
