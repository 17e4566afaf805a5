package http

import (
	"net/http"
	"strings"

	"github.com/storefront-labs/orderengine/internal/auth"
	"github.com/storefront-labs/orderengine/internal/domain"
	"github.com/storefront-labs/orderengine/pkg/httputil"
)

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteErrorCode(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// principal returns the authenticated caller. It writes a 401 and returns
// false when the auth middleware did not run or found no user.
func principal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		httputil.WriteErrorCode(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return domain.Principal{}, false
	}
	return p, true
}
