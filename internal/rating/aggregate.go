// Package rating derives a recipe's rating data from its reviews.
//
// The functions in this file are pure: they take the review rows of one
// recipe, however they were fetched, and compute the mean rating, the
// histogram and the recent-reviews feed. Aggregator (aggregator.go) wires
// them to storage and to the background worker pool.
package rating

import (
	"math"
	"sort"

	"github.com/sakif/recipe-mate/internal/model"
)

// DefaultRecentLimit bounds the recent-reviews feed when no limit is given.
const DefaultRecentLimit = 5

// Round2 rounds x to two decimals, half away from zero for positive values:
// round(x*100)/100.
func Round2(x float64) float64 {
	return math.Floor(x*100+0.5) / 100
}

// Average is the rounded arithmetic mean of values, or 0 for none.
func Average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return Round2(sum / float64(len(values)))
}

// Mean is the rounded mean of the non-nil ratings of reviews. Reviews that
// only carry a comment do not count. No ratings means 0, never NaN.
func Mean(reviews []model.Review) float64 {
	values := make([]float64, 0, len(reviews))
	for _, r := range reviews {
		if r.Rating != nil {
			values = append(values, float64(*r.Rating))
		}
	}
	return Average(values)
}

// BuildHistogram counts ratings per value. Every value 1..5 is present in
// the result, zero when unused; unrated reviews are not counted.
func BuildHistogram(reviews []model.Review) map[int]int {
	hist := map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	for _, r := range reviews {
		if r.Rating == nil {
			continue
		}
		if _, ok := hist[*r.Rating]; ok {
			hist[*r.Rating]++
		}
	}
	return hist
}

// MostRecent returns up to limit reviews that have both a rating and a
// comment, most recently updated first. A limit < 1 means DefaultRecentLimit.
func MostRecent(reviews []model.AuthoredReview, limit int) []model.RecentReview {
	if limit < 1 {
		limit = DefaultRecentLimit
	}

	eligible := make([]model.AuthoredReview, 0, len(reviews))
	for _, r := range reviews {
		if r.Rating != nil && r.Comments != nil && *r.Comments != "" {
			eligible = append(eligible, r)
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].UpdatedAt.After(eligible[j].UpdatedAt)
	})
	if len(eligible) > limit {
		eligible = eligible[:limit]
	}

	out := make([]model.RecentReview, len(eligible))
	for i, r := range eligible {
		out[i] = model.RecentReview{
			Rating:    *r.Rating,
			Comments:  *r.Comments,
			Author:    r.Author,
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return out
}

func plain(reviews []model.AuthoredReview) []model.Review {
	out := make([]model.Review, len(reviews))
	for i, r := range reviews {
		out[i] = r.Review
	}
	return out
}
