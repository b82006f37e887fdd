// Package service holds the business rules of the recipe API.
//
// Each service sits between the HTTP handlers and the repositories:
//
//	Handler (HTTP) → Service (rules, orchestration) → Repository (SQLite)
//	                         ↘ asset.Host, mail.Sender, rating.Aggregator
//
// Services take and return model types, validate their input with
// internal/validate and return apperror values. They never see an
// http.Request and never choose a status code.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/recipe-mate/internal/apperror"
	"github.com/sakif/recipe-mate/internal/auth"
	"github.com/sakif/recipe-mate/internal/mail"
	"github.com/sakif/recipe-mate/internal/model"
	"github.com/sakif/recipe-mate/internal/rating"
	"github.com/sakif/recipe-mate/internal/repository"
	"github.com/sakif/recipe-mate/internal/validate"
)

// AuthService handles sign-up, sign-in and the password flows.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository    → account records
//   - recipes    repository.RecipeRepository  → ratings for the user details
//   - tokens     *auth.TokenService           → session JWTs
//   - passwords  *auth.PasswordService        → password and reset-token digests
//   - mailer     mail.Sender                  → reset-link delivery
type AuthService struct {
	users        repository.UserRepository
	recipes      repository.RecipeRepository
	tokens       *auth.TokenService
	passwords    *auth.PasswordService
	mailer       mail.Sender
	validator    *validate.Validator
	resetBaseURL string
	logger       *slog.Logger
}

// NewAuthService creates an AuthService. resetBaseURL is the front-end
// origin the reset link points at.
func NewAuthService(
	users repository.UserRepository,
	recipes repository.RecipeRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	mailer mail.Sender,
	validator *validate.Validator,
	resetBaseURL string,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:        users,
		recipes:      recipes,
		tokens:       tokens,
		passwords:    passwords,
		mailer:       mailer,
		validator:    validator,
		resetBaseURL: strings.TrimRight(resetBaseURL, "/"),
		logger:       logger,
	}
}

// Session is an issued session token together with its owner.
type Session struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

// SignUp registers a new account. A fullName in the request fills in
// whichever name parts were left empty.
func (s *AuthService) SignUp(ctx context.Context, req model.SignUpRequest) (*model.User, error) {
	user := &model.User{
		FirstName:  strings.TrimSpace(req.FirstName),
		MiddleName: strings.TrimSpace(req.MiddleName),
		LastName:   strings.TrimSpace(req.LastName),
		Email:      normalizeEmail(req.Email),
		Role:       model.RoleUser,
	}
	if req.FullName != "" && (user.FirstName == "" || user.LastName == "") {
		user.SetFullName(req.FullName)
	}

	req.FirstName, req.MiddleName, req.LastName = user.FirstName, user.MiddleName, user.LastName
	req.Email = user.Email
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	user.Password = s.passwords.Hash(req.Password)
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user signed up", slog.String("userId", user.ID))
	return user, nil
}

// SignIn checks the credentials and issues a session token.
func (s *AuthService) SignIn(ctx context.Context, req model.SignInRequest) (*Session, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Missing("Email not found")
		}
		return nil, fmt.Errorf("service/auth: looking up %s: %w", req.Email, err)
	}
	if !s.passwords.Verify(user.Password, req.Password) {
		return nil, apperror.Missing("Incorrect password")
	}

	token, expires, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user signed in", slog.String("userId", user.ID))
	return &Session{User: user, Token: token, ExpiresAt: expires}, nil
}

// Details returns the caller's profile with the mean rating of their
// recipes, rounded to two decimals.
func (s *AuthService) Details(ctx context.Context, id auth.Identity) (*model.UserDetails, error) {
	u := id.User
	ratings, err := s.recipes.RecipeRatingsByUser(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: loading ratings of user %s: %w", u.ID, err)
	}
	return &model.UserDetails{
		FirstName:   u.FirstName,
		MiddleName:  u.MiddleName,
		LastName:    u.LastName,
		Email:       u.Email,
		AvgRating:   rating.Average(ratings),
		RecipeCount: len(ratings),
	}, nil
}

// ForgotPassword issues a reset token for the account and mails the link.
// Storing the digest and sending the mail run concurrently; both must
// succeed.
func (s *AuthService) ForgotPassword(ctx context.Context, req model.ForgotPasswordRequest) error {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return err
	}

	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.Missing("Invalid email id")
		}
		return fmt.Errorf("service/auth: looking up %s: %w", req.Email, err)
	}

	raw, digest, expires, err := s.passwords.IssueResetToken()
	if err != nil {
		return fmt.Errorf("service/auth: %w", err)
	}
	msg, err := mail.ResetPasswordMessage(user.Email, s.ResetLink(raw))
	if err != nil {
		return fmt.Errorf("service/auth: rendering reset mail: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.users.SetResetToken(gctx, user.ID, digest, expires); err != nil {
			return fmt.Errorf("service/auth: storing reset token: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		d, err := s.mailer.Send(gctx, msg)
		if err != nil {
			return fmt.Errorf("service/auth: mailing reset link: %w", err)
		}
		s.logger.Info("reset link sent",
			slog.String("userId", user.ID),
			slog.String("messageId", d.MessageID),
		)
		return nil
	})
	return g.Wait()
}

// ResetLink is the front-end URL that carries raw.
func (s *AuthService) ResetLink(raw string) string {
	return s.resetBaseURL + "/resetpassword/" + raw
}

// ResetPassword sets a new password if rawToken matches the account's
// outstanding, unexpired reset token. The token is single-use.
func (s *AuthService) ResetPassword(ctx context.Context, rawToken string, req model.ResetPasswordRequest) error {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return err
	}
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return apperror.ValidationFailed("resetToken", "resetToken - This field is required")
	}

	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return fmt.Errorf("service/auth: looking up %s: %w", req.Email, err)
	}
	if user == nil || user.ResetToken == "" || user.ResetExpires == nil || s.passwords.Expired(*user.ResetExpires) {
		return apperror.Missing("Invalid request")
	}
	if !s.passwords.VerifyResetToken(user.ResetToken, *user.ResetExpires, rawToken) {
		return apperror.ValidationFailed("resetToken", "Expired link")
	}

	// SetPassword also clears the reset fields.
	if err := s.users.SetPassword(ctx, user.ID, s.passwords.Hash(req.Password)); err != nil {
		return fmt.Errorf("service/auth: storing new password: %w", err)
	}
	s.logger.Info("password reset", slog.String("userId", user.ID))
	return nil
}

// UpdatePassword changes the caller's password after checking the old one.
func (s *AuthService) UpdatePassword(ctx context.Context, id auth.Identity, req model.UpdatePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return err
	}
	if !s.passwords.Verify(id.User.Password, req.OldPassword) {
		return apperror.Missing("Incorrect password")
	}
	if err := s.users.SetPassword(ctx, id.User.ID, s.passwords.Hash(req.NewPassword)); err != nil {
		return fmt.Errorf("service/auth: storing new password: %w", err)
	}
	s.logger.Info("password changed", slog.String("userId", id.User.ID))
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
