package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"annotastore/internal/apperr"
)

func TestNewScope(t *testing.T) {
	s, err := NewScope("org-1")
	require.NoError(t, err)
	assert.Equal(t, "org-1", s.OrganizationID())
	assert.NoError(t, s.Check())

	for _, bad := range []string{"", "   "} {
		_, err := NewScope(bad)
		assert.ErrorIs(t, err, apperr.ErrValidation)
	}
	assert.ErrorIs(t, Scope{}.Check(), apperr.ErrValidation)
}

func TestAuthorize(t *testing.T) {
	ctx := context.Background()

	s, err := Authorize(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, "org-1", s.OrganizationID())

	_, err = Authorize(ctx, "")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	caller := WithCaller(ctx, Caller{OrganizationID: "org-1", UserID: "u1"})
	s, err = Authorize(caller, "")
	require.NoError(t, err)
	assert.Equal(t, "org-1", s.OrganizationID())

	_, err = Authorize(caller, "org-2")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	got, ok := CallerFrom(caller)
	require.True(t, ok)
	assert.Equal(t, "u1", got.UserID)
}
