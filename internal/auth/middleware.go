package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/sakif/recipe-mate/internal/apperror"
	"github.com/sakif/recipe-mate/internal/middleware"
	"github.com/sakif/recipe-mate/internal/model"
	"github.com/sakif/recipe-mate/internal/respond"
)

const (
	// ActorHeader carries the id the client claims to act as.
	ActorHeader = "auth"
	// TokenCookie is set on sign-in and read when no Authorization header is sent.
	TokenCookie = "jwt"
)

// contextKey is an unexported type used for context keys in this package.
// Only this package can create a key of type contextKey, so no other package
// can read or shadow these values.
type contextKey string

const (
	claimsKey   contextKey = "claims"
	identityKey contextKey = "identity"
)

// Identity is the outcome of the two identity proofs: Claims is what the
// token cryptographically vouches for, User is the account the request
// declared through ActorHeader. Authorise only creates an Identity when both
// name the same user id.
type Identity struct {
	Claims *Claims
	User   *model.User
}

// UserID returns the confirmed user id.
func (id Identity) UserID() string {
	if id.User == nil {
		return ""
	}
	return id.User.ID
}

// IsAdmin reports whether the confirmed user has an admin role.
func (id Identity) IsAdmin() bool {
	return id.User != nil && id.User.IsAdmin()
}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the Identity attached by Authorise.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.User != nil
}

// ClaimsFromContext returns the verified token claims attached by RequireAuth.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok && c != nil
}

// UserFinder looks a user up by id.
type UserFinder interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// RequireAuth verifies the session token and stores its claims in the
// context. The token is read from "Authorization: Bearer <jwt>", falling back
// to the jwt cookie. Missing, malformed or expired tokens get 401.
func RequireAuth(tokens *TokenService, rs *respond.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				rs.Error(w, r, apperror.Unauthorized("No authorization token was found"))
				return
			}

			claims, err := tokens.Validate(raw)
			if err != nil {
				rs.Error(w, r, apperror.Unauthorized("Invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Authorise confirms the declared actor against the verified token subject.
//
//	no ActorHeader            → 400
//	header names no user      → 404
//	header ≠ token subject    → 403
//
// On success the resolved user and the claims are attached as an Identity.
// Must run after RequireAuth.
func Authorise(users UserFinder, rs *respond.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				rs.Error(w, r, apperror.Unauthorized("No authorization token was found"))
				return
			}

			actorID := strings.TrimSpace(r.Header.Get(ActorHeader))
			if actorID == "" {
				rs.Error(w, r, apperror.Unauthorized("Invalid request!!").WithStatus(http.StatusBadRequest))
				return
			}

			user, err := users.GetUserByID(r.Context(), actorID)
			if err != nil {
				if apperror.StatusOf(err) == http.StatusNotFound {
					err = apperror.Unauthorized("Invalid user").WithStatus(http.StatusNotFound)
				}
				rs.Error(w, r, err)
				return
			}

			if user.ID != claims.Subject {
				rs.Error(w, r, apperror.Forbidden("Access Denied!!"))
				return
			}

			ctx := WithIdentity(r.Context(), Identity{Claims: claims, User: user})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin lets the request through only for users with role > 0.
// Must run after Authorise.
func RequireAdmin(rs *respond.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok || !id.IsAdmin() {
				rs.Error(w, r, apperror.Forbidden("Admin access required!!"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRecipeOwner allows the request only when the resolved recipe was
// created by the confirmed user. Admins get no exemption here; the admin
// routes simply do not install this check.
func RequireRecipeOwner(rs *respond.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, _ := IdentityFromContext(r.Context())
			recipe, ok := middleware.Resolved[model.Recipe](r.Context())
			if !ok || !recipe.IsOwnedBy(id.UserID()) {
				rs.Error(w, r, apperror.Forbidden("Access declined!! You don't own that"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireReviewAuthor allows the request only when the resolved review was
// written by the confirmed user.
func RequireReviewAuthor(rs *respond.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, _ := IdentityFromContext(r.Context())
			review, ok := middleware.Resolved[model.Review](r.Context())
			if !ok || !review.WrittenBy(id.UserID()) {
				rs.Error(w, r, apperror.Forbidden("Access declined!! You didn't write that review"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(TokenCookie); err == nil {
		return c.Value
	}
	return ""
}
