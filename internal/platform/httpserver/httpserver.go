package httpserver

import (
	"net/http"
	"time"
)

// New builds the HTTP server with sane defaults. Document preparation is
// CPU-bound plus one allocator round-trip, so timeouts stay tight.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}
