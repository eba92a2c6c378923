// Package auth holds credential handling and the capability checks shared by
// the HTTP and service layers.
package auth

import (
	"context"
	"fmt"
	"slices"

	"fsanano/mini-shop/internal/model"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID int64
	Email  string
	Role   model.Role
}

func (id Identity) IsAdmin() bool {
	return id.Role == model.RoleAdmin
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// RequireRole fails with model.ErrForbidden unless the caller holds one of roles.
func RequireRole(id Identity, roles ...model.Role) error {
	if slices.Contains(roles, id.Role) {
		return nil
	}
	return fmt.Errorf("%w: role %s not permitted", model.ErrForbidden, id.Role)
}

// CanActOn fails with model.ErrForbidden unless the caller owns the resource or is an admin.
func CanActOn(id Identity, ownerID int64) error {
	if id.UserID == ownerID || id.IsAdmin() {
		return nil
	}
	return fmt.Errorf("%w: not the owner", model.ErrForbidden)
}
