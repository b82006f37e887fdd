package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/recipe-mate/internal/model"
	"github.com/sakif/recipe-mate/internal/repository"
)

// compile-time check that *DB implements repository.RecipeRepository
var _ repository.RecipeRepository = (*DB)(nil)

// recipeSelect joins the owner's name and folds the saved-by relation into a
// comma-separated list (xids never contain commas).
const recipeSelect = `SELECT r.id, r.name, r.description, r.ingredients, r.steps, r.type, r.course,
	r.preparation_time, r.cook_time, r.created_by,
	r.photo_content_type, r.photo_filename, r.photo_asset_id, r.photo_public_id,
	r.photo_url, r.photo_square_url, r.photo_thumbnail_url,
	r.rating, r.created_at, r.updated_at,
	u.id, u.first_name, u.middle_name, u.last_name, u.email,
	(SELECT group_concat(s.user_id) FROM recipe_saves s WHERE s.recipe_id = r.id)
	FROM recipes r LEFT JOIN users u ON u.id = r.created_by`

func scanRecipe(s scanner) (*model.Recipe, error) {
	var (
		r                         model.Recipe
		ingredients, steps        string
		ownerID, first, middle    sql.NullString
		last, email, savedByGroup sql.NullString
	)
	err := s.Scan(
		&r.ID, &r.Name, &r.Description, &ingredients, &steps, &r.Type, &r.Course,
		&r.PreparationTime, &r.CookTime, &r.CreatedBy,
		&r.Photo.ContentType, &r.Photo.Filename, &r.Photo.AssetID, &r.Photo.PublicID,
		&r.Photo.URL, &r.Photo.Square, &r.Photo.Thumbnail,
		&r.Rating, &r.CreatedAt, &r.UpdatedAt,
		&ownerID, &first, &middle, &last, &email,
		&savedByGroup,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(ingredients), &r.Ingredients); err != nil {
		return nil, fmt.Errorf("decoding ingredients of recipe %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(steps), &r.Steps); err != nil {
		return nil, fmt.Errorf("decoding steps of recipe %s: %w", r.ID, err)
	}

	if ownerID.Valid {
		r.Owner = model.OwnerOf(&model.User{
			ID:         ownerID.String,
			FirstName:  first.String,
			MiddleName: middle.String,
			LastName:   last.String,
			Email:      email.String,
		}, true)
	}

	r.SavedBy = []string{}
	if savedByGroup.Valid && savedByGroup.String != "" {
		r.SavedBy = strings.Split(savedByGroup.String, ",")
	}
	return &r, nil
}

func (db *DB) queryRecipes(ctx context.Context, action, query string, args ...any) ([]model.Recipe, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %s: %w", action, err)
	}
	defer rows.Close()

	recipes := []model.Recipe{}
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %s: %w", action, err)
		}
		recipes = append(recipes, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: %s: %w", action, err)
	}
	return recipes, nil
}

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	return string(b), err
}

// CreateRecipe inserts a recipe and fills in ID and timestamps. Rating
// always starts at 0.
func (db *DB) CreateRecipe(ctx context.Context, recipe *model.Recipe) error {
	ingredients, err := encodeList(recipe.Ingredients)
	if err != nil {
		return fmt.Errorf("sqlite: encoding ingredients: %w", err)
	}
	steps, err := encodeList(recipe.Steps)
	if err != nil {
		return fmt.Errorf("sqlite: encoding steps: %w", err)
	}

	recipe.ID = xid.New().String()
	recipe.Rating = 0
	recipe.SavedBy = []string{}
	now := db.now()
	recipe.CreatedAt = now
	recipe.UpdatedAt = now

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO recipes (id, name, description, ingredients, steps, type, course,
			preparation_time, cook_time, created_by,
			photo_content_type, photo_filename, photo_asset_id, photo_public_id,
			photo_url, photo_square_url, photo_thumbnail_url,
			rating, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		recipe.ID, recipe.Name, recipe.Description, ingredients, steps, recipe.Type, recipe.Course,
		recipe.PreparationTime, recipe.CookTime, recipe.CreatedBy,
		recipe.Photo.ContentType, recipe.Photo.Filename, recipe.Photo.AssetID, recipe.Photo.PublicID,
		recipe.Photo.URL, recipe.Photo.Square, recipe.Photo.Thumbnail,
		recipe.CreatedAt, recipe.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting recipe: %w", err)
	}
	return nil
}

// GetRecipeByID fetches a recipe with its owner and savers.
func (db *DB) GetRecipeByID(ctx context.Context, id string) (*model.Recipe, error) {
	r, err := scanRecipe(db.conn.QueryRowContext(ctx, recipeSelect+` WHERE r.id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting recipe %s: %w", id, notFoundIfNoRows(err, "recipe", id))
	}
	return r, nil
}

// UpdateRecipe saves every client-editable field. Rating, owner and the
// saved-by relation are left alone.
func (db *DB) UpdateRecipe(ctx context.Context, recipe *model.Recipe) error {
	ingredients, err := encodeList(recipe.Ingredients)
	if err != nil {
		return fmt.Errorf("sqlite: encoding ingredients: %w", err)
	}
	steps, err := encodeList(recipe.Steps)
	if err != nil {
		return fmt.Errorf("sqlite: encoding steps: %w", err)
	}
	recipe.UpdatedAt = db.now()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE recipes SET name = ?, description = ?, ingredients = ?, steps = ?, type = ?, course = ?,
			preparation_time = ?, cook_time = ?,
			photo_content_type = ?, photo_filename = ?, photo_asset_id = ?, photo_public_id = ?,
			photo_url = ?, photo_square_url = ?, photo_thumbnail_url = ?,
			updated_at = ?
		 WHERE id = ?`,
		recipe.Name, recipe.Description, ingredients, steps, recipe.Type, recipe.Course,
		recipe.PreparationTime, recipe.CookTime,
		recipe.Photo.ContentType, recipe.Photo.Filename, recipe.Photo.AssetID, recipe.Photo.PublicID,
		recipe.Photo.URL, recipe.Photo.Square, recipe.Photo.Thumbnail,
		recipe.UpdatedAt, recipe.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating recipe %s: %w", recipe.ID, err)
	}
	return expectOneRow(res, "recipe", recipe.ID)
}

// DeleteRecipe removes a recipe, its saves and its reviews in one transaction.
func (db *DB) DeleteRecipe(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning delete of recipe %s: %w", id, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM reviews WHERE recipe_id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: deleting reviews of recipe %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_saves WHERE recipe_id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: deleting saves of recipe %s: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting recipe %s: %w", id, err)
	}
	if err := expectOneRow(res, "recipe", id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing delete of recipe %s: %w", id, err)
	}
	return nil
}

// ListRecipes returns a window ordered by rating desc, then name asc.
func (db *DB) ListRecipes(ctx context.Context, opts repository.ListOptions) ([]model.Recipe, error) {
	return db.queryRecipes(ctx, "listing recipes",
		recipeSelect+` ORDER BY r.rating DESC, r.name ASC, r.id ASC LIMIT ? OFFSET ?`,
		opts.Limit, opts.Offset,
	)
}

// CountRecipes counts all recipes.
func (db *DB) CountRecipes(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting recipes: %w", err)
	}
	return n, nil
}

// ListRecipesByUser returns every recipe created by userID.
func (db *DB) ListRecipesByUser(ctx context.Context, userID string) ([]model.Recipe, error) {
	return db.queryRecipes(ctx, "listing recipes by user",
		recipeSelect+` WHERE r.created_by = ? ORDER BY r.rating DESC, r.updated_at DESC`,
		userID,
	)
}

// ListSavedRecipes returns the recipes userID has saved, most recently
// updated first.
func (db *DB) ListSavedRecipes(ctx context.Context, userID string) ([]model.Recipe, error) {
	return db.queryRecipes(ctx, "listing saved recipes",
		recipeSelect+` WHERE r.id IN (SELECT recipe_id FROM recipe_saves WHERE user_id = ?)
		 ORDER BY r.updated_at DESC`,
		userID,
	)
}

// RecipeRatingsByUser returns the rating of each recipe userID created.
func (db *DB) RecipeRatingsByUser(ctx context.Context, userID string) ([]float64, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT rating FROM recipes WHERE created_by = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing ratings of user %s: %w", userID, err)
	}
	defer rows.Close()

	ratings := []float64{}
	for rows.Next() {
		var r float64
		if err := rows.Scan(&r); err != nil {
			return nil, fmt.Errorf("sqlite: scanning rating: %w", err)
		}
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}

// SearchRecipes finds up to limit recipes whose name contains name, ignoring
// ASCII case. % and _ in name match literally.
func (db *DB) SearchRecipes(ctx context.Context, name string, limit int) ([]model.RecipeName, error) {
	pattern := "%" + escapeLike(name) + "%"
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name FROM recipes WHERE name LIKE ? ESCAPE '\'
		 ORDER BY updated_at DESC LIMIT ?`,
		pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: searching recipes: %w", err)
	}
	defer rows.Close()

	out := []model.RecipeName{}
	for rows.Next() {
		var n model.RecipeName
		if err := rows.Scan(&n.ID, &n.Name); err != nil {
			return nil, fmt.Errorf("sqlite: scanning search hit: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// ToggleSave adds userID to the recipe's savers, or removes it if present.
// It reports whether the recipe is saved afterwards.
func (db *DB) ToggleSave(ctx context.Context, recipeID, userID string) (bool, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("sqlite: beginning save toggle: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	res, err := tx.ExecContext(ctx,
		`DELETE FROM recipe_saves WHERE recipe_id = ? AND user_id = ?`, recipeID, userID)
	if err != nil {
		return false, fmt.Errorf("sqlite: unsaving recipe %s: %w", recipeID, err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: reading rows affected: %w", err)
	}

	saved := false
	if removed == 0 {
		res, err = tx.ExecContext(ctx,
			`INSERT INTO recipe_saves (recipe_id, user_id)
			 SELECT ?, ? WHERE EXISTS (SELECT 1 FROM recipes WHERE id = ?)`,
			recipeID, userID, recipeID,
		)
		if err != nil {
			return false, fmt.Errorf("sqlite: saving recipe %s: %w", recipeID, err)
		}
		if err := expectOneRow(res, "recipe", recipeID); err != nil {
			return false, err
		}
		saved = true
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("sqlite: committing save toggle: %w", err)
	}
	return saved, nil
}

// SetRecipeRating overwrites the cached rating. updated_at is not touched:
// a rating change is not an edit of the recipe.
func (db *DB) SetRecipeRating(ctx context.Context, id string, rating float64) error {
	res, err := db.conn.ExecContext(ctx, `UPDATE recipes SET rating = ? WHERE id = ?`, rating, id)
	if err != nil {
		return fmt.Errorf("sqlite: setting rating of recipe %s: %w", id, err)
	}
	return expectOneRow(res, "recipe", id)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
