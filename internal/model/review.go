package model

import "time"

// Review is a user's rating and/or comment on a recipe. At least one of
// Rating and Comments is always set.
type Review struct {
	ID        string    `json:"id"`
	Rating    *int      `json:"rating,omitempty"`
	Comments  *string   `json:"comments,omitempty"`
	RecipeID  string    `json:"recipe"`
	AuthorID  string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Blank reports whether the review carries neither a rating nor a comment.
func (r *Review) Blank() bool {
	return r.Rating == nil && (r.Comments == nil || *r.Comments == "")
}

// WrittenBy reports whether userID authored the review.
func (r *Review) WrittenBy(userID string) bool {
	return userID != "" && r.AuthorID == userID
}

// Author is the name pair shown next to a review.
type Author struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// AuthoredReview is a review row joined with its author's name.
type AuthoredReview struct {
	Review
	Author Author `json:"authorName"`
}

// RecentReview is an entry of a recipe's recent-reviews feed; both rating
// and comment are present.
type RecentReview struct {
	Rating    int       `json:"rating"`
	Comments  string    `json:"comments"`
	Author    Author    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ReviewSummary is the per-recipe review overview: a histogram keyed by
// rating value and the most recent full reviews.
type ReviewSummary struct {
	Histogram map[int]int    `json:"histogram"`
	Reviews   []RecentReview `json:"reviews"`
}
