// Package httpserver constructs the admin API server.
package httpserver

import (
	"net/http"
	"time"
)

// New returns a server for the admin API. Evidence listings fan out to
// the blob store, so the write timeout is generous relative to the
// header timeouts that bound slow or stalled clients.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}
