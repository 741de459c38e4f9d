package httpserver

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// headroom lets a handler that hit the request timeout still write its 503.
const headroom = 5 * time.Second

// New builds the API server. Read and write phases are bounded relative to the
// per-request timeout, and net/http's own errors go to the zap logger.
func New(addr string, handler http.Handler, requestTimeout time.Duration, logger *zap.Logger) *http.Server {
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       requestTimeout,
		WriteTimeout:      requestTimeout + headroom,
		IdleTimeout:       2 * time.Minute,
		ErrorLog:          zap.NewStdLog(logger.Named("http")),
	}
}
