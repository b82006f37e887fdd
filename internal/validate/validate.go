// Package validate wraps go-playground/validator with the rules and error
// messages of the recipe API.
//
// Field names in messages are the json names, so a client sees
// "confirmPassword - Confirm password does not match" rather than a Go
// struct field.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/sakif/recipe-mate/internal/apperror"
	"github.com/sakif/recipe-mate/internal/model"
)

// Validator is safe for concurrent use; build one and share it.
type Validator struct {
	validate *validator.Validate
}

// New builds a Validator with the custom recipe rules registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Registration only fails on an empty tag, which would be a programming error.
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("validate: registering %q: %v", tag, err))
		}
	}
	mustRegister("notblank", validators.NotBlank)
	mustRegister("recipe_type", oneOf(model.RecipeTypes))
	mustRegister("recipe_course", oneOf(model.RecipeCourses))

	return &Validator{validate: v}
}

// Struct validates s. A failure is returned as an apperror validation
// error whose message lists every failing field, "field - reason",
// separated by "; ".
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate: %w", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s - %s", fieldName(fe), message(fe)))
	}
	return apperror.ValidationFailed(fieldName(fieldErrs[0]), strings.Join(msgs, "; "))
}

// fieldName is the json name, with the index kept for slice elements
// ("ingredients[1]").
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "notblank":
		return "Must not be blank"
	case "email":
		return "Must be a valid email address"
	case "eqfield":
		if fe.StructField() == "ConfirmPassword" {
			return "Confirm password does not match"
		}
		return "Must match " + fe.Param()
	case "nefield":
		if fe.StructField() == "NewPassword" {
			return "New password cannot be same as old password"
		}
		return "Must differ from " + fe.Param()
	case "min":
		switch {
		case strings.Contains(strings.ToLower(fe.StructField()), "password"):
			return "Minimum length of password should be " + fe.Param()
		case fe.Kind() == reflect.String:
			return fmt.Sprintf("Must be at least %s characters long", fe.Param())
		case fe.Kind() == reflect.Slice:
			return fmt.Sprintf("Must contain at least %s item(s)", fe.Param())
		}
		return "Must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Must be at most %s characters long", fe.Param())
		}
		return "Must be at most " + fe.Param()
	case "gt":
		return "Must be greater than " + fe.Param()
	case "recipe_type":
		return fmt.Sprintf("Type value is invalid - received %v", fe.Value())
	case "recipe_course":
		return fmt.Sprintf("Course value is invalid - received %v", fe.Value())
	default:
		return fmt.Sprintf("Invalid value (failed on '%s' tag)", fe.Tag())
	}
}

func oneOf(allowed []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return slices.Contains(allowed, fl.Field().String())
	}
}
