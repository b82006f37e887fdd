// Package respond standardises how the API writes success bodies and errors.
//
// CONSISTENT ERROR FORMAT:
// Every failure has the same shape, whatever layer produced it:
//
//	{"error": "No such recipe found"}
//
// and is rendered in the representation the client asked for through the
// Accept header: JSON, HTML or plain text. An Accept header that allows none
// of those gets 406 Not Acceptable.
//
// Both the handlers and the middleware chain write through a *Responder, so a
// 401 from the token check looks exactly like a 404 from a service.
package respond

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/sakif/recipe-mate/internal/apperror"
)

// Representations a response can be negotiated into.
const (
	FormatJSON  = "application/json"
	FormatHTML  = "text/html"
	FormatPlain = "text/plain"
)

// ErrorResponse is the standard error envelope. Detail carries the wrapped
// error chain and is only populated outside production.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

var errorPage = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.Status}} {{.StatusText}}</title></head>
<body>
<h1>{{.StatusText}}</h1>
<p>{{.Message}}</p>
{{if .Detail}}<pre>{{.Detail}}</pre>{{end}}
</body>
</html>
`))

// Responder writes responses. It is safe for concurrent use.
type Responder struct {
	production bool
	logger     *slog.Logger
}

// New creates a Responder. In production mode internal details are never
// written to clients and 5xx messages are replaced by the status text.
func New(production bool, logger *slog.Logger) *Responder {
	return &Responder{production: production, logger: logger}
}

// JSON sends data as JSON with the given status.
//
// Headers and status MUST be written before the body; once Encode starts
// writing, later header changes are silently ignored.
func (rs *Responder) JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			rs.logger.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// Error classifies err with apperror.StatusOf and writes the error envelope
// in the negotiated format.
func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	status := apperror.StatusOf(err)
	message := apperror.MessageOf(err)

	if status >= http.StatusInternalServerError {
		rs.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		if rs.production || message == "" {
			message = http.StatusText(status)
		}
	}
	if message == "" {
		message = http.StatusText(status)
	}

	body := ErrorResponse{Error: message}
	if !rs.production {
		body.Detail = err.Error()
	}

	rs.write(w, r, status, body)
}

// Text writes a short message, negotiated like an error but with any status.
// The health endpoint uses it.
func (rs *Responder) Text(w http.ResponseWriter, r *http.Request, status int, jsonBody any, text string) {
	switch Negotiate(r.Header.Get("Accept")) {
	case FormatJSON:
		rs.JSON(w, status, jsonBody)
	case FormatHTML:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte("<p>" + template.HTMLEscapeString(text) + "</p>"))
	case FormatPlain:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(text))
	default:
		http.Error(w, http.StatusText(http.StatusNotAcceptable), http.StatusNotAcceptable)
	}
}

func (rs *Responder) write(w http.ResponseWriter, r *http.Request, status int, body ErrorResponse) {
	switch Negotiate(r.Header.Get("Accept")) {
	case FormatJSON:
		rs.JSON(w, status, body)
	case FormatHTML:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if err := errorPage.Execute(w, map[string]any{
			"Status":     status,
			"StatusText": http.StatusText(status),
			"Message":    body.Error,
			"Detail":     body.Detail,
		}); err != nil {
			rs.logger.Error("failed to render error page", slog.String("error", err.Error()))
		}
	case FormatPlain:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body.Error))
	default:
		http.Error(w, http.StatusText(http.StatusNotAcceptable), http.StatusNotAcceptable)
	}
}

// Negotiate picks the best of JSON, HTML and plain text for an Accept header.
// It honours q-values; on equal weight JSON beats HTML beats plain text. An
// empty header accepts anything. It returns "" when nothing is acceptable.
func Negotiate(accept string) string {
	if strings.TrimSpace(accept) == "" {
		return FormatJSON
	}

	offers := []string{FormatJSON, FormatHTML, FormatPlain}
	best, bestQ := "", 0.0

	for _, offer := range offers {
		q := quality(accept, offer)
		if q > bestQ {
			best, bestQ = offer, q
		}
	}
	return best
}

// quality returns the q-value accept assigns to offer, preferring the most
// specific matching media range.
func quality(accept, offer string) float64 {
	offerType, _, _ := strings.Cut(offer, "/")
	q, specificity := 0.0, -1

	for _, part := range strings.Split(accept, ",") {
		mediaType, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}

		s := -1
		switch {
		case mediaType == offer:
			s = 2
		case mediaType == offerType+"/*":
			s = 1
		case mediaType == "*/*":
			s = 0
		}
		if s < specificity || s < 0 {
			continue
		}

		weight := 1.0
		if v, ok := params["q"]; ok {
			weight = parseQ(v)
		}
		q, specificity = weight, s
	}
	return q
}

func parseQ(v string) float64 {
	q, err := strconv.ParseFloat(v, 64)
	if err != nil || q < 0 {
		return 0
	}
	if q > 1 {
		return 1
	}
	return q
}
