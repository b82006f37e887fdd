// Package handler contains the HTTP handlers of the recipe API.
//
// HANDLER RESPONSIBILITIES:
//  1. Parse the incoming request (path and query parameters, JSON or
//     multipart body)
//  2. Call the service layer, passing the caller's auth.Identity explicitly
//  3. Write the response through respond.Responder
//
// Handlers hold no business rules. Entities named in the path ({recipeId},
// {reviewId}, {userId}) have already been loaded by middleware.Resolve when
// a handler runs; the handler reads them back with middleware.Resolved.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sakif/recipe-mate/internal/apperror"
	"github.com/sakif/recipe-mate/internal/auth"
	"github.com/sakif/recipe-mate/internal/middleware"
)

// maxJSONBody bounds every JSON request body.
const maxJSONBody = 1 << 20

// statusResponse is the body of writes that return nothing else.
type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func success() statusResponse {
	return statusResponse{Status: "success"}
}

// decodeJSON reads a single JSON value from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.ValidationFailed("body", "Request body is empty")
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperror.ValidationFailed("body", "Request body too large")
		}
		return apperror.ValidationFailed("body", "Invalid JSON body")
	}
	return nil
}

// identity returns the confirmed caller. Routes using it sit behind
// auth.Authorise, so a missing identity is a wiring error.
func identity(r *http.Request) (auth.Identity, error) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return auth.Identity{}, apperror.Unauthorized("No authorization token was found")
	}
	return id, nil
}

// resolved returns the entity middleware.Resolve attached for this route.
func resolved[T any](r *http.Request, param string) (*T, error) {
	entity, ok := middleware.Resolved[T](r.Context())
	if !ok {
		return nil, apperror.ValidationFailed(param, param+" is required")
	}
	return entity, nil
}
