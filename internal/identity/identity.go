// Package identity resolves the organization and caller an operation runs
// for. A Scope is the isolation predicate handed to every store call; it can
// only be built through validation, so an unscoped query cannot be expressed.
package identity

import (
	"context"
	"strings"

	"annotastore/internal/apperr"
)

type Scope struct {
	org string
}

// NewScope validates organizationID and returns the scope for it.
func NewScope(organizationID string) (Scope, error) {
	if strings.TrimSpace(organizationID) == "" {
		return Scope{}, apperr.Validation("organizationId must be a non-empty string")
	}
	return Scope{org: organizationID}, nil
}

func (s Scope) OrganizationID() string { return s.org }

func (s Scope) Valid() bool { return s.org != "" }

// Check is called by store adapters before touching the backend.
func (s Scope) Check() error {
	if !s.Valid() {
		return apperr.Validation("operation is not scoped to an organization")
	}
	return nil
}

// Caller is the authenticated identity attached to a request.
type Caller struct {
	OrganizationID string
	UserID         string
	Email          string
	IsAdmin        bool
}

type callerKey struct{}

func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

func CallerFrom(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}

// Authorize resolves the scope for organizationID and, when the context
// carries a caller, checks the caller belongs to that organization. An empty
// organizationID defaults to the caller's own organization.
func Authorize(ctx context.Context, organizationID string) (Scope, error) {
	caller, ok := CallerFrom(ctx)
	if !ok {
		return NewScope(organizationID)
	}
	if organizationID == "" {
		organizationID = caller.OrganizationID
	}
	scope, err := NewScope(organizationID)
	if err != nil {
		return Scope{}, err
	}
	if caller.OrganizationID != scope.org {
		return Scope{}, apperr.Forbidden("caller does not belong to organization %q", scope.org)
	}
	return scope, nil
}
