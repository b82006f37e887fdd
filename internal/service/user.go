package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/sakif/recipe-mate/internal/apperror"
	"github.com/sakif/recipe-mate/internal/auth"
	"github.com/sakif/recipe-mate/internal/model"
	"github.com/sakif/recipe-mate/internal/pagination"
	"github.com/sakif/recipe-mate/internal/repository"
	"github.com/sakif/recipe-mate/internal/validate"
)

// UserService backs the admin user routes. It only ever sees regular
// (role 0) accounts; admins cannot be fetched, edited or removed through it.
type UserService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	validator *validate.Validator
	logger    *slog.Logger
}

func NewUserService(users repository.UserRepository, passwords *auth.PasswordService, validator *validate.Validator, logger *slog.Logger) *UserService {
	return &UserService{users: users, passwords: passwords, validator: validator, logger: logger}
}

// Get loads a regular user; it backs the admin {userId} route parameter.
func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	u, err := s.users.GetMemberByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Missing("No user found")
		}
		return nil, fmt.Errorf("service/user: loading %s: %w", id, err)
	}
	return u, nil
}

// List returns one page of regular users, newest first.
func (s *UserService) List(ctx context.Context, p pagination.Params) (*pagination.Page[model.User], error) {
	total, err := s.users.CountMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/user: counting: %w", err)
	}
	items, err := s.users.ListMembers(ctx, repository.ListOptions{Limit: p.Limit, Offset: p.Offset()})
	if err != nil {
		return nil, fmt.Errorf("service/user: listing: %w", err)
	}
	return pagination.Result(items, total, "No user available")
}

// Add creates a regular user with a random password nobody knows. The
// user gets in through the forgot-password flow.
func (s *UserService) Add(ctx context.Context, req model.UserRequest) (*model.User, error) {
	req = trimUserRequest(req)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	user := &model.User{
		FirstName:  req.FirstName,
		MiddleName: req.MiddleName,
		LastName:   req.LastName,
		Email:      req.Email,
	}
	user.Role = model.RoleUser
	user.Password = s.passwords.Hash(uuid.NewString())

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service/user: creating user: %w", err)
	}
	s.logger.Info("user added by admin", slog.String("userId", user.ID))
	return user, nil
}

// Update replaces the names and email of user.
func (s *UserService) Update(ctx context.Context, user *model.User, req model.UserRequest) (*model.User, error) {
	req = trimUserRequest(req)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	updated := *user
	updated.FirstName = req.FirstName
	updated.MiddleName = req.MiddleName
	updated.LastName = req.LastName
	updated.Email = req.Email

	if err := s.users.UpdateUser(ctx, &updated); err != nil {
		return nil, fmt.Errorf("service/user: updating %s: %w", user.ID, err)
	}
	s.logger.Info("user updated by admin", slog.String("userId", user.ID))
	return &updated, nil
}

// Delete removes user. Their recipes and reviews are left in place.
func (s *UserService) Delete(ctx context.Context, user *model.User) error {
	if err := s.users.DeleteUser(ctx, user.ID); err != nil {
		return fmt.Errorf("service/user: deleting %s: %w", user.ID, err)
	}
	s.logger.Info("user deleted by admin", slog.String("userId", user.ID))
	return nil
}

func trimUserRequest(req model.UserRequest) model.UserRequest {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.MiddleName = strings.TrimSpace(req.MiddleName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = normalizeEmail(req.Email)
	return req
}
