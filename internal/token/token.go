// Package token issues and verifies the HS256 session tokens that bind a user
// to an organization.
package token

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"annotastore/internal/apperr"
	"annotastore/internal/identity"
	"annotastore/internal/response"
	"annotastore/pkg/logger"
)

const (
	MinKeyLength = 32
	DefaultTTL   = time.Hour
)

// Claims is the full claim set; only iat and exp of the registered claims are
// ever set.
type Claims struct {
	OrganizationID string `json:"organizationId"`
	UserID         string `json:"userId"`
	Email          string `json:"email,omitempty"`
	IsAdmin        bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

type Data struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Service struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewService(signingKey string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{key: []byte(signingKey), ttl: ttl, now: time.Now}
}

func (s *Service) checkKey() error {
	if len(s.key) == 0 {
		return apperr.Token("token signing key is not configured", nil)
	}
	if len(s.key) < MinKeyLength {
		return apperr.Token("token signing key must be at least 32 bytes", nil)
	}
	return nil
}

// BuildClaims returns the claims for a token issued now.
func (s *Service) BuildClaims(org, userID, email string, isAdmin bool) Claims {
	now := s.now().Truncate(time.Second)
	return Claims{
		OrganizationID: org,
		UserID:         userID,
		Email:          email,
		IsAdmin:        isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
}

// GetToken signs a token for userID in org.
func (s *Service) GetToken(ctx context.Context, org, userID, email string, isAdmin bool) response.Envelope[Data] {
	scope, err := identity.Authorize(ctx, org)
	if err != nil {
		return response.Fail[Data](err)
	}
	if strings.TrimSpace(userID) == "" {
		return response.Fail[Data](apperr.Validation("userId is required"))
	}
	if err := s.checkKey(); err != nil {
		logger.Sugar.Errorf("Cannot issue token: %v", err)
		return response.Fail[Data](err)
	}

	claims := s.BuildClaims(scope.OrganizationID(), userID, email, isAdmin)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		logger.Sugar.Errorf("Failed to sign token for user %s: %v", userID, err)
		return response.Fail[Data](apperr.Token("failed to sign token", err))
	}
	return response.OK(Data{Token: signed, ExpiresAt: claims.ExpiresAt.Time})
}

// Verify parses tokenString and checks its signature, algorithm and expiry.
func (s *Service) Verify(tokenString string) (Claims, error) {
	if err := s.checkKey(); err != nil {
		return Claims{}, err
	}
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Claims{}, apperr.Token("invalid or expired token", err)
	}
	if !tok.Valid {
		return Claims{}, apperr.Token("invalid or expired token", nil)
	}
	if claims.OrganizationID == "" || claims.UserID == "" {
		return Claims{}, apperr.Token("token is missing organizationId or userId", nil)
	}
	return *claims, nil
}
