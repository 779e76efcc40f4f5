package server

import (
	"context"
	"net/http"
)

// Service is the HTTP network layer.
type Service interface {
	// Start listens and serves until a fatal error occurs or ctx is done.
	Start(ctx context.Context) error

	// Stop drains active connections until ctx expires.
	Stop(ctx context.Context) error

	// RegisterHTTPHandler registers a handler for pattern. Call before Start.
	RegisterHTTPHandler(pattern string, handler http.Handler)

	// Handler returns the mux wrapped in the middleware chain, for use with
	// httptest servers.
	Handler() http.Handler
}
