// Package recovery turns handler panics into JSON 500 responses.
package recovery

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"github.com/mymichlin/discovery/internal/api/respond"
)

var panicsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "discovery_http_panics_total",
	Help: "Handler panics recovered, by route template.",
}, []string{"route"})

// statusWriter remembers whether the handler already started the response.
type statusWriter struct {
	http.ResponseWriter
	wrote bool
}

func (w *statusWriter) WriteHeader(code int) {
	w.wrote = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wrote = true
	return w.ResponseWriter.Write(b)
}

// Middleware recovers a panicking handler, logs it with its stack and answers
// 500 unless the handler had already written a response. http.ErrAbortHandler
// is re-raised so the server aborts the connection as usual.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w}
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}
			route := routeName(r)
			panicsTotal.WithLabelValues(route).Inc()
			log.Error().
				Interface("panic", rec).
				Str("route", route).
				Str("method", r.Method).
				Str("url", r.URL.String()).
				Bytes("stack", debug.Stack()).
				Msg("handler panic")

			if !sw.wrote {
				respond.WriteError(sw, http.StatusInternalServerError, "")
			}
		}()
		next.ServeHTTP(sw, r)
	})
}

// routeName returns the matched mux path template, or "unmatched".
func routeName(r *http.Request) string {
	if cur := mux.CurrentRoute(r); cur != nil {
		if tpl, err := cur.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
