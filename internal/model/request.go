package model

// Request payloads. The validate tags are enforced by internal/validate;
// services validate before touching the store.

type SignUpRequest struct {
	FirstName       string `json:"firstName" validate:"required,max=15"`
	MiddleName      string `json:"middleName" validate:"max=15"`
	LastName        string `json:"lastName" validate:"required,max=15"`
	FullName        string `json:"fullName,omitempty" validate:"-"`
	Email           string `json:"email" validate:"required,email,max=30"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type UpdatePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,nefield=OldPassword"`
}

// UserRequest is the admin create/update payload.
type UserRequest struct {
	FirstName  string `json:"firstName" validate:"required,max=15"`
	MiddleName string `json:"middleName" validate:"max=15"`
	LastName   string `json:"lastName" validate:"required,max=15"`
	Email      string `json:"email" validate:"required,email,max=30"`
}

// RecipeRequest carries a recipe create or a partial update. On update a
// nil field is left unchanged.
type RecipeRequest struct {
	Name            *string   `json:"name" validate:"omitnil,notblank,max=100"`
	Description     *string   `json:"description" validate:"omitnil,max=2000"`
	Ingredients     *[]string `json:"ingredients" validate:"omitnil,min=1,dive,notblank"`
	Steps           *[]string `json:"steps" validate:"omitnil,min=1,dive,notblank"`
	Type            *string   `json:"type" validate:"omitnil,recipe_type"`
	Course          *string   `json:"course" validate:"omitnil,recipe_course"`
	PreparationTime *float64  `json:"preparationTime" validate:"omitnil,gt=0"`
	CookTime        *float64  `json:"cookTime" validate:"omitnil,gt=0"`

	// CreatedBy is only honoured on the admin create route.
	CreatedBy string `json:"createdBy,omitempty" validate:"-"`
}

// Complete reports whether every field a new recipe needs is present.
func (r *RecipeRequest) Complete() bool {
	return r.Name != nil && r.Ingredients != nil && r.Steps != nil && r.Type != nil && r.Course != nil &&
		r.PreparationTime != nil && r.CookTime != nil
}

// Apply copies the non-nil fields onto recipe.
func (r *RecipeRequest) Apply(recipe *Recipe) {
	if r.Name != nil {
		recipe.Name = *r.Name
	}
	if r.Description != nil {
		recipe.Description = *r.Description
	}
	if r.Ingredients != nil {
		recipe.Ingredients = *r.Ingredients
	}
	if r.Steps != nil {
		recipe.Steps = *r.Steps
	}
	if r.Type != nil {
		recipe.Type = *r.Type
	}
	if r.Course != nil {
		recipe.Course = *r.Course
	}
	if r.PreparationTime != nil {
		recipe.PreparationTime = *r.PreparationTime
	}
	if r.CookTime != nil {
		recipe.CookTime = *r.CookTime
	}
}

// ReviewRequest carries a review create or a partial update.
type ReviewRequest struct {
	Rating   *int    `json:"rating" validate:"omitnil,min=1,max=5"`
	Comments *string `json:"comments" validate:"omitnil,notblank,max=200"`
}
