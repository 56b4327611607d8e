package middlewares

import (
	"net/http"
	"regexp"

	"github.com/gorilla/mux"
	"github.com/jake-scott/switchbot-devctl/internal/pkg/logging"
)

var correlationIDRegexp = regexp.MustCompile(`^[\w-]{3,64}$`)

type CorrelationMw struct {
	headerName string
	next       http.Handler
}

func NewCorrelationMw(headerName string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return NewCorrelation(headerName, next)
	}
}

func NewCorrelation(headerName string, next http.Handler) *CorrelationMw {
	return &CorrelationMw{headerName: headerName, next: next}
}

func (mw *CorrelationMw) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	// Echo the caller's correlation ID and tag the request log lines with it
	id, ok := mw.validateID(r)
	if ok {
		rw.Header().Set(mw.headerName, id)
		r = r.WithContext(logging.WithCorrelationID(r.Context(), id))
	}

	mw.next.ServeHTTP(rw, r)
}

func (mw *CorrelationMw) validateID(r *http.Request) (string, bool) {
	hn := http.CanonicalHeaderKey(mw.headerName)
	ids, ok := r.Header[hn]

	if ok && len(ids) > 0 {
		id := ids[0]
		if correlationIDRegexp.MatchString(id) {
			return id, true
		}

		return "<Bad_Correlation_Id>", true
	}

	return "", false
}
