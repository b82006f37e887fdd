package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/recipe-mate/internal/model"
	"github.com/sakif/recipe-mate/internal/repository"
)

// compile-time check that *DB implements repository.ReviewRepository
var _ repository.ReviewRepository = (*DB)(nil)

const reviewColumns = `id, rating, comments, recipe_id, author_id, created_at, updated_at`

func scanReview(s scanner, extra ...any) (*model.Review, error) {
	var (
		r        model.Review
		rating   sql.NullInt64
		comments sql.NullString
	)
	dest := append([]any{&r.ID, &rating, &comments, &r.RecipeID, &r.AuthorID, &r.CreatedAt, &r.UpdatedAt}, extra...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	if rating.Valid {
		v := int(rating.Int64)
		r.Rating = &v
	}
	if comments.Valid {
		v := comments.String
		r.Comments = &v
	}
	return &r, nil
}

// CreateReview inserts a review and fills in ID and timestamps.
func (db *DB) CreateReview(ctx context.Context, review *model.Review) error {
	review.ID = xid.New().String()
	now := db.now()
	review.CreatedAt = now
	review.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO reviews (`+reviewColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		review.ID, nullableInt(review.Rating), nullableString(review.Comments),
		review.RecipeID, review.AuthorID, review.CreatedAt, review.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting review: %w", err)
	}
	return nil
}

// GetReviewByID fetches one review.
func (db *DB) GetReviewByID(ctx context.Context, id string) (*model.Review, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id)
	r, err := scanReview(row)
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting review %s: %w", id, notFoundIfNoRows(err, "review", id))
	}
	return r, nil
}

// UpdateReview saves rating and comments.
func (db *DB) UpdateReview(ctx context.Context, review *model.Review) error {
	review.UpdatedAt = db.now()
	res, err := db.conn.ExecContext(ctx,
		`UPDATE reviews SET rating = ?, comments = ?, updated_at = ? WHERE id = ?`,
		nullableInt(review.Rating), nullableString(review.Comments), review.UpdatedAt, review.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating review %s: %w", review.ID, err)
	}
	return expectOneRow(res, "review", review.ID)
}

// DeleteReview removes one review.
func (db *DB) DeleteReview(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting review %s: %w", id, err)
	}
	return expectOneRow(res, "review", id)
}

// ListRecipeReviews returns every review of recipeID joined with the
// author's name. Reviews whose author no longer exists have an empty name.
func (db *DB) ListRecipeReviews(ctx context.Context, recipeID string) ([]model.AuthoredReview, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT rv.id, rv.rating, rv.comments, rv.recipe_id, rv.author_id, rv.created_at, rv.updated_at,
			COALESCE(u.first_name, ''), COALESCE(u.last_name, '')
		 FROM reviews rv LEFT JOIN users u ON u.id = rv.author_id
		 WHERE rv.recipe_id = ?`,
		recipeID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing reviews of recipe %s: %w", recipeID, err)
	}
	defer rows.Close()

	out := []model.AuthoredReview{}
	for rows.Next() {
		var author model.Author
		r, err := scanReview(rows, &author.FirstName, &author.LastName)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning review: %w", err)
		}
		out = append(out, model.AuthoredReview{Review: *r, Author: author})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating reviews: %w", err)
	}
	return out, nil
}
