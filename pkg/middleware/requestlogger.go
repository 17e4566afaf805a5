package middleware

import (
	"log/slog"
	"net/http"

	"github.com/storefront-labs/orderengine/pkg/logger"
)

// RequestLogger stores a request-scoped logger carrying correlation_id,
// user_id, trace_id and span_id in the context; handlers and services read
// it back with logger.FromContext.
//
// Mount it after RequestLogging and Tracing. The user ID is only known on
// routes that run Auth before it, so authenticated route groups mount it a
// second time.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if userID := UserIDFromContext(ctx); userID != "" {
				ctx = logger.WithUserID(ctx, userID)
			}

			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
