// Package authz decides resource-ownership authorization for profile
// mutations. The model is single-owner: no roles, no scopes.
package authz

import "github.com/kunjika/accounts/internal/session"

// OwnerOnly reports whether the authenticated claims own the resource.
// Nil claims fail closed.
func OwnerOnly(claims *session.Claims, ownerID int64) bool {
	return claims != nil && claims.UserID == ownerID
}
