// Package pagination turns page/limit query parameters into offset/limit
// windows and applies the listing result policy shared by every paged
// endpoint:
//
//	total == 0                → NotFound ("nothing exists")
//	total > 0, page is empty  → MaxPage  ("you paged past the end")
//	otherwise                 → {items, count}
package pagination

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/sakif/recipe-mate/internal/apperror"
)

const (
	DefaultPage  = 1
	DefaultLimit = 5
	MaxLimit     = 100
)

// Params is a validated page request.
type Params struct {
	Page  int
	Limit int
}

// Offset is the number of rows to skip: (page-1)*limit.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// LastPage is the highest page that holds rows for a listing of total rows.
func (p Params) LastPage(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}

// Parse reads "page" and "limit" from q. Absent values take the defaults;
// anything that is not a positive integer is a validation error. Limits above
// MaxLimit are clamped.
func Parse(q url.Values) (Params, error) {
	page, err := positive(q, "page", DefaultPage)
	if err != nil {
		return Params{}, err
	}
	limit, err := positive(q, "limit", DefaultLimit)
	if err != nil {
		return Params{}, err
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Params{Page: page, Limit: limit}, nil
}

func positive(q url.Values, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperror.ValidationFailed(key, key+" must be a positive integer")
	}
	return n, nil
}

// Page is the response envelope of every paged listing.
type Page[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

// Result applies the listing policy to one fetched window. emptyMessage is
// the NotFound message used when the listing has no rows at all.
func Result[T any](items []T, total int, emptyMessage string) (*Page[T], error) {
	if total == 0 {
		return nil, apperror.Missing(emptyMessage)
	}
	if len(items) == 0 {
		return nil, apperror.MaxPage()
	}
	return &Page[T]{Items: items, Count: total}, nil
}

// Map converts the items of a page, keeping the count.
func Map[T, U any](p *Page[T], fn func(T) U) *Page[U] {
	out := make([]U, len(p.Items))
	for i, item := range p.Items {
		out[i] = fn(item)
	}
	return &Page[U]{Items: out, Count: p.Count}
}
