package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/recipe-mate/internal/apperror"
	"github.com/sakif/recipe-mate/internal/model"
)

func ptr[T any](v T) *T { return &v }

func validSignUp() model.SignUpRequest {
	return model.SignUpRequest{
		FirstName:       "Asha",
		LastName:        "Rao",
		Email:           "asha@example.com",
		Password:        "longenough",
		ConfirmPassword: "longenough",
	}
}

func TestSignUp(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		mutate  func(*model.SignUpRequest)
		field   string
		message string
	}{
		{"valid", func(*model.SignUpRequest) {}, "", ""},
		{"missing first name", func(r *model.SignUpRequest) { r.FirstName = "" }, "firstName", "This field is required"},
		{"long last name", func(r *model.SignUpRequest) { r.LastName = "abcdefghijklmnop" }, "lastName", "at most 15"},
		{"bad email", func(r *model.SignUpRequest) { r.Email = "nope" }, "email", "valid email"},
		{"short password", func(r *model.SignUpRequest) { r.Password, r.ConfirmPassword = "short", "short" }, "password", "Minimum length of password should be 8"},
		{"mismatch", func(r *model.SignUpRequest) { r.ConfirmPassword = "different1" }, "confirmPassword", "Confirm password does not match"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validSignUp()
			tt.mutate(&req)
			err := v.Struct(req)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, apperror.ErrValidation))
			var appErr *apperror.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.field, appErr.Field)
			assert.Contains(t, appErr.Message, tt.field+" - ")
			assert.Contains(t, appErr.Message, tt.message)
		})
	}
}

func TestUpdatePassword_MustDiffer(t *testing.T) {
	err := New().Struct(model.UpdatePasswordRequest{OldPassword: "samesame1", NewPassword: "samesame1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "New password cannot be same as old password")
}

func TestRecipeRequest(t *testing.T) {
	v := New()

	t.Run("empty update is valid", func(t *testing.T) {
		assert.NoError(t, v.Struct(model.RecipeRequest{}))
	})

	t.Run("full create is valid", func(t *testing.T) {
		req := model.RecipeRequest{
			Name:            ptr("Dal"),
			Ingredients:     ptr([]string{"lentils"}),
			Steps:           ptr([]string{"boil"}),
			Type:            ptr("veg"),
			Course:          ptr("main-course"),
			PreparationTime: ptr(5.0),
			CookTime:        ptr(30.0),
		}
		assert.NoError(t, v.Struct(req))
		assert.True(t, req.Complete())
	})

	t.Run("blank name", func(t *testing.T) {
		err := v.Struct(model.RecipeRequest{Name: ptr(" \t ")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name - Must not be blank")
	})

	t.Run("unknown type", func(t *testing.T) {
		err := v.Struct(model.RecipeRequest{Type: ptr("vegan")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Type value is invalid - received vegan")
	})

	t.Run("unknown course", func(t *testing.T) {
		err := v.Struct(model.RecipeRequest{Course: ptr("brunch")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Course value is invalid")
	})

	t.Run("empty ingredients", func(t *testing.T) {
		err := v.Struct(model.RecipeRequest{Ingredients: ptr([]string{})})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ingredients - ")
	})

	t.Run("blank step", func(t *testing.T) {
		err := v.Struct(model.RecipeRequest{Steps: ptr([]string{"chop", "  "})})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "steps[1] - Must not be blank")
	})

	t.Run("non-positive time", func(t *testing.T) {
		err := v.Struct(model.RecipeRequest{CookTime: ptr(0.0)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cookTime")
	})
}

func TestReviewRequest(t *testing.T) {
	v := New()

	assert.NoError(t, v.Struct(model.ReviewRequest{Rating: ptr(5)}))
	assert.NoError(t, v.Struct(model.ReviewRequest{Comments: ptr("lovely")}))

	err := v.Struct(model.ReviewRequest{Rating: ptr(6)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rating - Must be at most 5")

	err = v.Struct(model.ReviewRequest{Rating: ptr(0)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rating")

	err = v.Struct(model.ReviewRequest{Comments: ptr("   ")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "comments - Must not be blank")

	long := make([]byte, 201)
	for i := range long {
		long[i] = 'a'
	}
	err = v.Struct(model.ReviewRequest{Comments: ptr(string(long))})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "comments - Must be at most 200")
}
