package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// ContextKey is used for storing claims in request context.
type ContextKey string

const (
	ClaimsKey ContextKey = "claims"
)

// Middleware handles authentication and authorization. A nil verifier
// disables auth entirely; every request passes with no claims attached.
type Middleware struct {
	verifier *Verifier
}

// NewMiddleware creates an auth middleware. verifier may be nil.
func NewMiddleware(verifier *Verifier) *Middleware {
	return &Middleware{verifier: verifier}
}

// Enabled reports whether token verification is active.
func (m *Middleware) Enabled() bool {
	return m.verifier != nil
}

// RequireAuth creates middleware that requires a valid bearer token.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.verifier == nil {
			next(w, r)
			return
		}

		token, err := extractBearerToken(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}

		claims, err := m.verifier.VerifyToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// RequireScope creates middleware that requires all of the given scopes.
func (m *Middleware) RequireScope(requiredScopes ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if m.verifier == nil {
				next(w, r)
				return
			}

			claims := GetClaimsFromRequest(r)
			if claims == nil {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
				return
			}
			if !hasScopes(claims, requiredScopes) {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions")
				return
			}
			next(w, r)
		}
	}
}

// GetClaimsFromRequest extracts claims from the request context.
func GetClaimsFromRequest(r *http.Request) *Claims {
	claims, ok := r.Context().Value(ClaimsKey).(*Claims)
	if !ok {
		return nil
	}
	return claims
}

func extractBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("missing Authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", fmt.Errorf("invalid Authorization header format")
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", fmt.Errorf("empty token")
	}
	return token, nil
}

func hasScopes(claims *Claims, required []string) bool {
	for _, want := range required {
		found := false
		for _, scope := range claims.Scopes {
			if scope == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// writeError writes an error response in the API envelope format.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"result":        "error",
		"code":          code,
		"message":       message,
		"correlationId": uuid.NewString(),
	})
}
