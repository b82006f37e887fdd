package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/sakif/recipe-mate/internal/apperror"
	"github.com/sakif/recipe-mate/internal/asset"
	"github.com/sakif/recipe-mate/internal/model"
	"github.com/sakif/recipe-mate/internal/pagination"
	"github.com/sakif/recipe-mate/internal/respond"
	"github.com/sakif/recipe-mate/internal/service"
)

// formOverhead is the room left for the text fields of a recipe form on top
// of the photo itself.
const formOverhead = 1 << 20

// RecipeHandler serves /api/recipe, /api/query and the admin recipe routes.
type RecipeHandler struct {
	recipes *service.RecipeService
	rs      *respond.Responder
	logger  *slog.Logger
}

func NewRecipeHandler(recipes *service.RecipeService, rs *respond.Responder, logger *slog.Logger) *RecipeHandler {
	return &RecipeHandler{recipes: recipes, rs: rs, logger: logger}
}

type recipeCreatedResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

type saveResponse struct {
	Status string `json:"status"`
	Saved  bool   `json:"saved"`
}

// HandleList returns one page of all recipes. Admins see full recipes;
// everyone else gets the listing projection.
//
// HTTP: GET /api/recipe/all?page=&limit=
func (h *RecipeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	p, err := pagination.Parse(r.URL.Query())
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	page, err := h.recipes.List(r.Context(), p)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.writePage(w, r, page)
}

// HandleByUser returns one page of the recipes created by ?user=.
//
// HTTP: GET /api/recipe?user=<id>
func (h *RecipeHandler) HandleByUser(w http.ResponseWriter, r *http.Request) {
	p, err := pagination.Parse(r.URL.Query())
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	page, err := h.recipes.ByUser(r.Context(), r.URL.Query().Get("user"), p)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.writePage(w, r, page)
}

// HandleSaved returns one page of the caller's saved recipes.
//
// HTTP: GET /api/recipe/savedrecipes/all
func (h *RecipeHandler) HandleSaved(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	p, err := pagination.Parse(r.URL.Query())
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	page, err := h.recipes.Saved(r.Context(), id, p)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.writePage(w, r, page)
}

func (h *RecipeHandler) writePage(w http.ResponseWriter, r *http.Request, page *pagination.Page[model.Recipe]) {
	if id, err := identity(r); err == nil && id.IsAdmin() {
		h.rs.JSON(w, http.StatusOK, page)
		return
	}
	h.rs.JSON(w, http.StatusOK, pagination.Map(page, func(rec model.Recipe) model.RecipeSummary {
		return rec.Summary()
	}))
}

// HandleGet returns the resolved recipe with its owner.
//
// HTTP: GET /api/recipe/{recipeId}
func (h *RecipeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	recipe, err := resolved[model.Recipe](r, "recipeId")
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusOK, recipe)
}

// HandleCreate stores a recipe sent as multipart/form-data with its photo.
//
// HTTP: POST /api/recipe
func (h *RecipeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	req, photo, err := parseRecipeForm(w, r)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	recipe, err := h.recipes.Create(r.Context(), id, req, photo)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusCreated, recipeCreatedResponse{
		Status: "Successfully created new recipe",
		ID:     recipe.ID,
	})
}

// HandleUpdate applies a partial update to the resolved recipe. The body
// is multipart (optionally with a new photo) or plain JSON.
//
// HTTP: PUT /api/recipe/{recipeId}
func (h *RecipeHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	recipe, err := resolved[model.Recipe](r, "recipeId")
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	req, photo, err := parseRecipeForm(w, r)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	if _, err := h.recipes.Update(r.Context(), recipe, req, photo); err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusOK, statusResponse{Status: "Successfully updated recipe"})
}

// HandleDelete removes the resolved recipe and its photo.
//
// HTTP: DELETE /api/recipe/{recipeId}
func (h *RecipeHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	recipe, err := resolved[model.Recipe](r, "recipeId")
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	if err := h.recipes.Delete(r.Context(), recipe); err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusOK, statusResponse{Status: "Successfully deleted recipe: " + recipe.Name})
}

// HandleToggleSave saves or unsaves the resolved recipe for the caller.
//
// HTTP: PUT /api/recipe/savedrecipes/{recipeId}
func (h *RecipeHandler) HandleToggleSave(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	recipe, err := resolved[model.Recipe](r, "recipeId")
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	saved, err := h.recipes.ToggleSave(r.Context(), recipe, id)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	status := "Recipe removed from saved recipes"
	if saved {
		status = "Recipe saved"
	}
	h.rs.JSON(w, http.StatusOK, saveResponse{Status: status, Saved: saved})
}

// HandleSearch looks recipes up by name fragment.
//
// HTTP: GET /api/query/recipe?name=
func (h *RecipeHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	hits, err := h.recipes.Search(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusOK, hits)
}

// parseRecipeForm reads a recipe request from a multipart form or, for
// updates without a photo, a JSON body. Fields absent from the form stay nil.
func parseRecipeForm(w http.ResponseWriter, r *http.Request) (model.RecipeRequest, *asset.Upload, error) {
	var req model.RecipeRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		if err := decodeJSON(w, r, &req); err != nil {
			return req, nil, err
		}
		return req, nil, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, asset.MaxUploadSize+formOverhead)
	if err := r.ParseMultipartForm(asset.MaxUploadSize + formOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, nil, apperror.ValidationFailed("photo", "File size exceeded")
		}
		return req, nil, apperror.ValidationFailed("body", "Invalid form data")
	}
	form := r.MultipartForm.Value

	req.Name = formString(form, "name")
	req.Description = formString(form, "description")
	req.Type = formString(form, "type")
	req.Course = formString(form, "course")
	if s := formString(form, "createdBy"); s != nil {
		req.CreatedBy = *s
	}

	var err error
	if req.Ingredients, err = formList(form, "ingredients"); err != nil {
		return req, nil, err
	}
	if req.Steps, err = formList(form, "steps"); err != nil {
		return req, nil, err
	}
	if req.PreparationTime, err = formNumber(form, "preparationTime"); err != nil {
		return req, nil, err
	}
	if req.CookTime, err = formNumber(form, "cookTime"); err != nil {
		return req, nil, err
	}

	photo, err := formPhoto(r)
	if err != nil {
		return req, nil, err
	}
	return req, photo, nil
}

func formString(form map[string][]string, key string) *string {
	v, ok := form[key]
	if !ok || len(v) == 0 {
		return nil
	}
	s := strings.TrimSpace(v[0])
	return &s
}

// formList decodes a field holding a JSON array of strings.
func formList(form map[string][]string, key string) (*[]string, error) {
	s := formString(form, key)
	if s == nil {
		return nil, nil
	}
	var items []string
	if err := json.Unmarshal([]byte(*s), &items); err != nil {
		return nil, apperror.ValidationFailed(key, key+" - must be a JSON array of strings")
	}
	for i := range items {
		items[i] = strings.TrimSpace(items[i])
	}
	return &items, nil
}

func formNumber(form map[string][]string, key string) (*float64, error) {
	s := formString(form, key)
	if s == nil {
		return nil, nil
	}
	n, err := strconv.ParseFloat(*s, 64)
	if err != nil {
		return nil, apperror.ValidationFailed(key, key+" - must be a number")
	}
	return &n, nil
}

// formPhoto reads the "photo" file part. No part means no photo.
func formPhoto(r *http.Request) (*asset.Upload, error) {
	f, header, err := r.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.ValidationFailed("photo", "Invalid photo upload")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, asset.MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("handler: reading photo: %w", err)
	}
	return &asset.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Data:        data,
	}, nil
}
