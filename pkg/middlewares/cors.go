package middlewares

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

type CorsMw struct {
	h http.Handler
}

func NewCorsMw(opts cors.Options) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return NewCors(opts, next)
	}
}

// NewCors wraps next in a CORS handler built from opts
func NewCors(opts cors.Options, next http.Handler) *CorsMw {
	cors := cors.New(opts)

	return &CorsMw{
		h: cors.Handler(next),
	}
}

// Preflight requests are answered here and never reach next
func (mw *CorsMw) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	mw.h.ServeHTTP(rw, r)
}

// DefaultCorsOptions allows browser clients to list tools and call functions
func DefaultCorsOptions(origins []string) cors.Options {
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "X-Correlation-ID"},
		ExposedHeaders: []string{"X-Txn-ID", "X-Correlation-ID"},
	}
}
