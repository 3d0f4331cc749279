package token

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"annotastore/internal/apperr"
	"annotastore/internal/identity"
)

const testKey = "0123456789abcdef0123456789abcdef"

func fixedService(t *testing.T, at time.Time) *Service {
	t.Helper()
	s := NewService(testKey, 0)
	s.now = func() time.Time { return at }
	return s
}

func decodePayload(t *testing.T, signed string) map[string]any {
	t.Helper()
	parts := strings.Split(signed, ".")
	require.Len(t, parts, 3)
	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload))
	return payload
}

func TestGetTokenClaims(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := fixedService(t, issued)

	env := s.GetToken(context.Background(), "org-1", "u1", "ada@example.com", true)
	require.True(t, env.Success, env.Error)
	assert.Equal(t, issued.Add(time.Hour), env.Data.ExpiresAt.UTC())

	payload := decodePayload(t, env.Data.Token)
	assert.Equal(t, map[string]any{
		"organizationId": "org-1",
		"userId":         "u1",
		"email":          "ada@example.com",
		"isAdmin":        true,
		"iat":            float64(issued.Unix()),
		"exp":            float64(issued.Add(time.Hour).Unix()),
	}, payload)
}

func TestGetTokenDefaults(t *testing.T) {
	s := fixedService(t, time.Now())

	env := s.GetToken(context.Background(), "org-1", "u1", "", false)
	require.True(t, env.Success)

	payload := decodePayload(t, env.Data.Token)
	assert.NotContains(t, payload, "email")
	assert.Equal(t, false, payload["isAdmin"])
}

func TestVerifyRoundTrip(t *testing.T) {
	s := fixedService(t, time.Now())
	env := s.GetToken(context.Background(), "org-1", "u1", "", false)
	require.True(t, env.Success)

	claims, err := s.Verify(env.Data.Token)
	require.NoError(t, err)
	assert.Equal(t, "org-1", claims.OrganizationID)
	assert.Equal(t, "u1", claims.UserID)
	assert.False(t, claims.IsAdmin)
}

func TestVerifyRejects(t *testing.T) {
	issued := time.Now().Add(-2 * time.Hour)
	s := fixedService(t, issued)
	expired := s.GetToken(context.Background(), "org-1", "u1", "", false).Data.Token

	s.now = time.Now
	_, err := s.Verify(expired)
	assert.ErrorIs(t, err, apperr.ErrToken)

	other := NewService(strings.Repeat("x", 32), 0)
	foreign := other.GetToken(context.Background(), "org-1", "u1", "", false).Data.Token
	_, err = s.Verify(foreign)
	assert.ErrorIs(t, err, apperr.ErrToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, s.BuildClaims("org-1", "u1", "", false)).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = s.Verify(none)
	assert.ErrorIs(t, err, apperr.ErrToken)

	_, err = s.Verify("not-a-token")
	assert.ErrorIs(t, err, apperr.ErrToken)
}

func TestGetTokenValidation(t *testing.T) {
	s := fixedService(t, time.Now())
	ctx := context.Background()

	assert.Equal(t, apperr.CodeValidation, s.GetToken(ctx, "", "u1", "", false).ErrorCode)
	assert.Equal(t, apperr.CodeValidation, s.GetToken(ctx, "org-1", " ", "", false).ErrorCode)

	caller := identity.WithCaller(ctx, identity.Caller{OrganizationID: "org-2"})
	assert.Equal(t, apperr.CodeForbidden, s.GetToken(caller, "org-1", "u1", "", false).ErrorCode)
}

func TestSigningKeyMisconfigured(t *testing.T) {
	for _, key := range []string{"", "too-short"} {
		s := NewService(key, time.Minute)
		env := s.GetToken(context.Background(), "org-1", "u1", "", false)
		assert.False(t, env.Success)
		assert.Equal(t, apperr.CodeToken, env.ErrorCode)

		_, err := s.Verify("a.b.c")
		assert.ErrorIs(t, err, apperr.ErrToken)
	}
}
