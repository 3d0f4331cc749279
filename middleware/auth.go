package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"annotastore/internal/identity"
	"annotastore/internal/token"
	"annotastore/pkg/logger"
)

const APIKeyHeader = "X-API-Key"

// AuthMiddleware verifies the session token and attaches the caller to the
// request context. Services then refuse any organization other than the
// caller's.
func AuthMiddleware(tokens *token.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r.Header.Get("Authorization"))
			// Browsers cannot set headers on download links.
			if tokenString == "" {
				tokenString = r.URL.Query().Get("token")
			}
			if tokenString == "" {
				http.Error(w, "Unauthorized: No token provided", http.StatusUnauthorized)
				return
			}

			claims, err := tokens.Verify(tokenString)
			if err != nil {
				logger.Sugar.Warnf("Invalid token: %v", err)
				http.Error(w, "Unauthorized: Invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := identity.WithCaller(r.Context(), identity.Caller{
				OrganizationID: claims.OrganizationID,
				UserID:         claims.UserID,
				Email:          claims.Email,
				IsAdmin:        claims.IsAdmin,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken returns the credentials of a Bearer authorization header. The
// scheme name is case-insensitive.
func bearerToken(header string) string {
	scheme, credentials, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(credentials)
}

// APIKeyMiddleware admits requests carrying apiKey in the X-API-Key header.
// With no key configured every request is refused.
func APIKeyMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				http.Error(w, "Forbidden: API key is not configured", http.StatusForbidden)
				return
			}
			given := r.Header.Get(APIKeyHeader)
			if subtle.ConstantTimeCompare([]byte(given), []byte(apiKey)) != 1 {
				http.Error(w, "Unauthorized: Invalid API key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
