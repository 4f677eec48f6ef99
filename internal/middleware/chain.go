// Package middleware provides the HTTP middleware stack for the dev server,
// including the response rewriter that injects the live-reload client agent
// into outgoing HTML.
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/snapfiredev/snapfire/internal/logging"
)

// Middleware represents a single middleware function
type Middleware func(http.Handler) http.Handler

// Chain composes middlewares onion-style: the first added is outermost.
type Chain struct {
	middlewares []Middleware
}

// NewChain creates a chain from the given middlewares, outermost first.
func NewChain(middlewares ...Middleware) *Chain {
	return &Chain{middlewares: middlewares}
}

// Add appends a middleware as the new innermost wrapper.
func (c *Chain) Add(m Middleware) {
	c.middlewares = append(c.middlewares, m)
}

// Apply wraps handler with the whole chain. Safe for concurrent use; the
// chain itself is not modified.
func (c *Chain) Apply(handler http.Handler) http.Handler {
	wrapped := handler
	for i := len(c.middlewares) - 1; i >= 0; i-- {
		wrapped = c.middlewares[i](wrapped)
	}

	return wrapped
}

// Identity returns a middleware that passes the handler through untouched.
func Identity() Middleware {
	return func(next http.Handler) http.Handler {
		return next
	}
}

// Logging returns a request-logging middleware.
func Logging(logger logging.Logger) Middleware {
	logger = logger.WithComponent("http")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			logger.Debug(context.Background(), "request served",
				"method", r.Method,
				"path", r.URL.Path,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}
