package model

import "time"

// Recipe types and courses accepted on create and update.
var (
	RecipeTypes   = []string{"veg", "non-veg"}
	RecipeCourses = []string{"main-course", "starter", "dessert", "snacks", "beverages"}
)

// Photo is the metadata of a recipe's image as stored on the asset host.
// PublicID is the handle used to release the asset.
type Photo struct {
	ContentType string `json:"contentType"`
	Filename    string `json:"filename"`
	AssetID     string `json:"assetId"`
	PublicID    string `json:"publicId"`
	URL         string `json:"url"`
	Square      string `json:"square"`
	Thumbnail   string `json:"thumbnail"`
}

// Recipe is a user's published recipe.
//
// Rating is derived from the recipe's reviews and is never written by
// clients; only the rating aggregator updates it.
type Recipe struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Ingredients     []string  `json:"ingredients"`
	Steps           []string  `json:"steps"`
	Type            string    `json:"type"`
	Course          string    `json:"course"`
	PreparationTime float64   `json:"preparationTime"`
	CookTime        float64   `json:"cookTime"`
	CreatedBy       string    `json:"createdBy"`
	Owner           *Owner    `json:"owner,omitempty"`
	Photo           Photo     `json:"photo"`
	SavedBy         []string  `json:"savedBy"`
	Rating          float64   `json:"rating"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// RecipeSummary is the listing projection shown to non-admin users.
type RecipeSummary struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	PreparationTime float64   `json:"preparationTime"`
	CookTime        float64   `json:"cookTime"`
	Type            string    `json:"type"`
	Course          string    `json:"course"`
	Photo           string    `json:"photo"`
	Owner           *Owner    `json:"owner,omitempty"`
	SavedBy         []string  `json:"savedBy"`
	Rating          float64   `json:"rating"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Summary returns the listing projection of r.
func (r *Recipe) Summary() RecipeSummary {
	return RecipeSummary{
		ID:              r.ID,
		Name:            r.Name,
		PreparationTime: r.PreparationTime,
		CookTime:        r.CookTime,
		Type:            r.Type,
		Course:          r.Course,
		Photo:           r.Photo.Square,
		Owner:           publicOwner(r.Owner),
		SavedBy:         r.SavedBy,
		Rating:          r.Rating,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// publicOwner drops the email from o for listings.
func publicOwner(o *Owner) *Owner {
	if o == nil {
		return nil
	}
	cp := *o
	cp.Email = ""
	return &cp
}

// IsOwnedBy reports whether userID created the recipe.
func (r *Recipe) IsOwnedBy(userID string) bool {
	return userID != "" && r.CreatedBy == userID
}

// SavedByUser reports whether userID has saved the recipe.
func (r *Recipe) SavedByUser(userID string) bool {
	for _, id := range r.SavedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// RecipeName is the search projection.
type RecipeName struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
