package middlewares

import (
	"net/http"
	"runtime/debug"

	httperr "github.com/dropDatabas3/sesamo/internal/http/errors"
	"github.com/dropDatabas3/sesamo/internal/observability/logger"
)

// WithRecover atrapa panics del handler, los loguea con stack y responde
// un 500 genérico sin filtrar detalles internos.
func WithRecover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.From(r.Context()).Error("panic recovered",
						logger.Any("panic", rec),
						logger.String("stack", string(debug.Stack())),
					)
					httperr.WriteError(w, httperr.ErrInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
