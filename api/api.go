// Package api exposes proc quantities over HTTP for autoscalers that poll
// rather than link. The surface is deliberately tiny: an info endpoint
// guarded by a shared token in the path, and a health check.
package api

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/workscale/backlog"
)

// API serves proc quantities over HTTP.
type API struct {
	procs  []*backlog.Proc
	token  string
	logger *slog.Logger
}

// Option configures the API.
type Option func(*API)

// WithLogger sets the structured logger for request handling.
func WithLogger(l *slog.Logger) Option {
	return func(a *API) { a.logger = l }
}

// New creates an API over the given procs. The token guards the info
// endpoint; callers must know it to read quantities.
func New(procs []*backlog.Proc, token string, opts ...Option) *API {
	a := &API{
		procs:  procs,
		token:  token,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handler returns the fully assembled http.Handler with all routes.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	a.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers the API routes into the given chi router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Get("/health", a.health)
	r.Get("/{token}/info", a.info)
}

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// tokenMatches compares in constant time.
func (a *API) tokenMatches(token string) bool {
	return subtle.ConstantTimeCompare([]byte(token), []byte(a.token)) == 1
}
