package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/recipe-mate/internal/apperror"
)

func newTestResponder(production bool) *Responder {
	return New(production, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestNegotiate(t *testing.T) {
	tests := []struct {
		accept string
		want   string
	}{
		{"", FormatJSON},
		{"*/*", FormatJSON},
		{"application/json", FormatJSON},
		{"text/html,application/xhtml+xml,*/*;q=0.8", FormatHTML},
		{"text/plain", FormatPlain},
		{"text/*", FormatHTML},
		{"text/plain;q=0.9, application/json;q=0.1", FormatPlain},
		{"application/json;q=0, */*;q=0.5", FormatHTML},
		{"image/png", ""},
		{"application/xml", ""},
	}

	for _, tt := range tests {
		t.Run(tt.accept, func(t *testing.T) {
			assert.Equal(t, tt.want, Negotiate(tt.accept))
		})
	}
}

func TestError_JSONEnvelope(t *testing.T) {
	rs := newTestResponder(false)
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()

	rs.Error(w, r, fmt.Errorf("loading: %w", apperror.Missing("No such recipe found")))

	assert.Equal(t, http.StatusNotFound, w.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "No such recipe found", body.Error)
	assert.Contains(t, body.Detail, "loading")
}

func TestError_ProductionHidesInternals(t *testing.T) {
	rs := newTestResponder(true)
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	w := httptest.NewRecorder()

	rs.Error(w, r, errors.New("sqlite: disk I/O error"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Internal Server Error", body.Error)
	assert.Empty(t, body.Detail)
}

func TestError_HTMLAndPlain(t *testing.T) {
	rs := newTestResponder(true)
	err := apperror.Forbidden("Access Denied!!")

	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.Header.Set("Accept", "text/html")
	w := httptest.NewRecorder()
	rs.Error(w, r, err)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Access Denied!!")

	r = httptest.NewRequest(http.MethodGet, "/x", nil)
	r.Header.Set("Accept", "text/plain")
	w = httptest.NewRecorder()
	rs.Error(w, r, err)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Access Denied!!", w.Body.String())
}

func TestError_NotAcceptable(t *testing.T) {
	rs := newTestResponder(false)
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.Header.Set("Accept", "image/png")
	w := httptest.NewRecorder()

	rs.Error(w, r, apperror.Missing("gone"))

	assert.Equal(t, http.StatusNotAcceptable, w.Code)
}
