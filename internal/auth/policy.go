// Package auth turns bearer tokens into principals and holds the single
// authorization rule shared by orders and reviews.
package auth

import (
	"context"

	"github.com/storefront-labs/orderengine/internal/domain"
	"github.com/storefront-labs/orderengine/pkg/middleware"
)

// CanModify reports whether p may change a resource owned by ownerID:
// admins may change anything, everyone else only what they own.
func CanModify(p domain.Principal, ownerID string) bool {
	if p.IsAdmin() {
		return true
	}
	return p.ID != "" && p.ID == ownerID
}

// PrincipalFromContext returns the principal stored by the auth middleware.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	c := middleware.ClaimsFromContext(ctx)
	if c == nil || c.UserID == "" {
		return domain.Principal{}, false
	}
	return domain.Principal{ID: c.UserID, Name: c.Name, Role: c.Role}, true
}
