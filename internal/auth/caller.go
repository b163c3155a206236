// Package auth carries the authenticated caller identity and issues the JWTs it is read from.
package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/scopeforge/engine/internal/models"
)

// Caller is the resolved identity of whoever invokes a service operation.
type Caller struct {
	UserID           uuid.UUID                `json:"userId"`
	Email            string                   `json:"email"`
	SystemRole       models.SystemRole        `json:"systemRole"`
	EmailVerified    bool                     `json:"isEmailVerified"`
	OrganizationID   *uuid.UUID               `json:"organizationId,omitempty"`
	OrganizationRole *models.OrganizationRole `json:"organizationRole,omitempty"`
}

func (c Caller) IsSuperAdmin() bool {
	return c.SystemRole == models.SystemRoleSuperAdmin
}

type callerKey struct{}

// WithCaller stores c in ctx.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the caller stored by WithCaller.
func CallerFrom(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}
