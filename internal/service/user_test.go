package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/recipe-mate/internal/apperror"
	"github.com/sakif/recipe-mate/internal/model"
	"github.com/sakif/recipe-mate/internal/pagination"
)

func TestUserAddAndList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := pagination.Params{Page: 1, Limit: 5}

	_, err := env.users.List(ctx, p)
	assert.Equal(t, "No user available", apperror.MessageOf(err))

	u, err := env.users.Add(ctx, model.UserRequest{FirstName: " Ravi ", LastName: "Kumar", Email: "Ravi@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Ravi", u.FirstName)
	assert.Equal(t, "ravi@example.com", u.Email)
	assert.NotEmpty(t, u.Password, "a throwaway password digest is set")

	admin := env.signUp(t, "Root", "root@example.com")
	env.makeAdmin(t, admin)

	page, err := env.users.List(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Count, "admins are not listed")
	assert.Equal(t, u.ID, page.Items[0].ID)

	_, err = env.users.Get(ctx, admin.ID)
	assert.Equal(t, "No user found", apperror.MessageOf(err))

	_, err = env.users.Add(ctx, model.UserRequest{FirstName: "Ravi", LastName: "Again", Email: "ravi@example.com"})
	assert.True(t, errors.Is(err, apperror.ErrConflict), "got %v", err)
}

func TestUserUpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.signUp(t, "Asha", "asha@example.com")

	member, err := env.users.Get(ctx, u.ID)
	require.NoError(t, err)

	updated, err := env.users.Update(ctx, member, model.UserRequest{FirstName: "Asha", LastName: "Rao", Email: "asha.rao@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Rao", updated.LastName)

	got, err := env.users.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "asha.rao@example.com", got.Email)

	_, err = env.users.Update(ctx, got, model.UserRequest{FirstName: "Asha", Email: "asha@example.com"})
	assert.True(t, errors.Is(err, apperror.ErrValidation), "got %v", err)

	require.NoError(t, env.users.Delete(ctx, got))
	_, err = env.users.Get(ctx, u.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "got %v", err)
}
