package middleware

import (
	"context"
	"net/http"

	"constructoraicc/gopagos/internal/infrastructure/config"
)

// RequestTimeout bounds every request context. The flujo run holds the
// connection while it walks the monthly windows and the detail lookups,
// so the bound comes from configuration rather than the server write
// timeout alone; downstream clients see the cancellation through the
// request context.
func RequestTimeout(cfg config.HTTPSettings) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), cfg.RequestTimeout)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
