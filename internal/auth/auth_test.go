package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func signHS256(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func defaultClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":    "operator1",
		"scopes": []string{ScopeRead, ScopeControl},
		"exp":    time.Now().Add(time.Hour).Unix(),
	}
}

func TestVerifyHS256Token(t *testing.T) {
	v, err := NewHS256Verifier(testSecret)
	require.NoError(t, err)

	claims, err := v.VerifyToken(signHS256(t, defaultClaims()))
	require.NoError(t, err)
	assert.Equal(t, "operator1", claims.Subject)
	assert.Equal(t, []string{ScopeRead, ScopeControl}, claims.Scopes)
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	v, err := NewHS256Verifier(testSecret)
	require.NoError(t, err)

	cases := map[string]string{
		"empty":     "",
		"garbage":   "not.a.jwt",
		"wrong key": func() string {
			tok := jwt.NewWithClaims(jwt.SigningMethodHS256, defaultClaims())
			s, _ := tok.SignedString([]byte("other-secret"))
			return s
		}(),
		"expired": signHS256(t, jwt.MapClaims{
			"sub":    "operator1",
			"scopes": []string{ScopeRead},
			"exp":    time.Now().Add(-time.Hour).Unix(),
		}),
		"no subject": signHS256(t, jwt.MapClaims{
			"scopes": []string{ScopeRead},
		}),
		"no scopes": signHS256(t, jwt.MapClaims{
			"sub": "operator1",
		}),
		"unknown scope": signHS256(t, jwt.MapClaims{
			"sub":    "operator1",
			"scopes": []string{"admin"},
		}),
	}
	for name, token := range cases {
		_, err := v.VerifyToken(token)
		assert.Error(t, err, name)
	}
}

func TestVerifyRS256Token(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pemData := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	v, err := NewRS256Verifier(string(pemData))
	require.NoError(t, err)

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, defaultClaims())
	signed, err := token.SignedString(key)
	require.NoError(t, err)

	claims, err := v.VerifyToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "operator1", claims.Subject)

	// HS256 tokens must not pass an RS256 verifier.
	_, err = v.VerifyToken(signHS256(t, defaultClaims()))
	assert.Error(t, err)
}

func TestRequireAuthMiddleware(t *testing.T) {
	v, err := NewHS256Verifier(testSecret)
	require.NoError(t, err)
	mw := NewMiddleware(v)

	handler := mw.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		claims := GetClaimsFromRequest(r)
		require.NotNil(t, claims)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/modems", nil)
	req.Header.Set("Authorization", "Bearer "+signHS256(t, defaultClaims()))
	rec := httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/modems", nil)
	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/modems", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireScopeMiddleware(t *testing.T) {
	v, err := NewHS256Verifier(testSecret)
	require.NoError(t, err)
	mw := NewMiddleware(v)

	handler := mw.RequireAuth(mw.RequireScope(ScopeControl)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	controlToken := signHS256(t, defaultClaims())
	readOnlyToken := signHS256(t, jwt.MapClaims{
		"sub":    "viewer1",
		"scopes": []string{ScopeRead},
		"exp":    time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodPost, "/modems/modem0/register", nil)
	req.Header.Set("Authorization", "Bearer "+controlToken)
	rec := httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/modems/modem0/register", nil)
	req.Header.Set("Authorization", "Bearer "+readOnlyToken)
	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDisabledAuthPassesThrough(t *testing.T) {
	mw := NewMiddleware(nil)
	handler := mw.RequireAuth(mw.RequireScope(ScopeControl)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/modems/modem0/register", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
