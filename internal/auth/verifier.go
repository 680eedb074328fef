package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the parsed token claims.
type Claims struct {
	Subject string   `json:"sub"`
	Scopes  []string `json:"scopes"`
}

// Scope constants for modem operations.
const (
	ScopeRead      = "read"
	ScopeControl   = "control"
	ScopeTelemetry = "telemetry"
)

// Verifier validates JWT bearer tokens. Exactly one of the two signing
// configurations is active: an HS256 shared secret or an RS256 public key.
type Verifier struct {
	secret    []byte
	publicKey *rsa.PublicKey
}

// NewHS256Verifier creates a verifier for HS256-signed tokens.
func NewHS256Verifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("HS256 requires a secret key")
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// NewRS256Verifier creates a verifier for RS256-signed tokens from a PEM
// encoded public key.
func NewRS256Verifier(pemData string) (*Verifier, error) {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("not an RSA public key")
	}
	return &Verifier{publicKey: rsaPub}, nil
}

// VerifyToken verifies a JWT token and returns the claims.
func (v *Verifier) VerifyToken(tokenString string) (*Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, fmt.Errorf("token cannot be empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.MapClaims{}, v.keyFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(*jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	return extractClaims(claims)
}

func (v *Verifier) keyFunc(token *jwt.Token) (interface{}, error) {
	alg := token.Method.Alg()
	switch {
	case v.secret != nil:
		if alg != "HS256" {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	case v.publicKey != nil:
		if alg != "RS256" {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.publicKey, nil
	default:
		return nil, fmt.Errorf("no verification key configured")
	}
}

func extractClaims(claims *jwt.MapClaims) (*Claims, error) {
	sub, ok := (*claims)["sub"].(string)
	if !ok {
		return nil, fmt.Errorf("missing or invalid 'sub' claim")
	}

	scopes, err := extractStringSlice(claims, "scopes")
	if err != nil {
		return nil, fmt.Errorf("missing or invalid 'scopes' claim: %w", err)
	}
	if !validScopes(scopes) {
		return nil, fmt.Errorf("invalid scopes: %v", scopes)
	}

	return &Claims{Subject: sub, Scopes: scopes}, nil
}

func extractStringSlice(claims *jwt.MapClaims, key string) ([]string, error) {
	value, ok := (*claims)[key]
	if !ok {
		return nil, fmt.Errorf("missing claim: %s", key)
	}

	switch val := value.(type) {
	case []string:
		return val, nil
	case []interface{}:
		result := make([]string, len(val))
		for i, item := range val {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("invalid %s claim: not a string", key)
			}
			result[i] = str
		}
		return result, nil
	default:
		return nil, fmt.Errorf("invalid %s claim: not a string array", key)
	}
}

func validScopes(scopes []string) bool {
	known := map[string]bool{
		ScopeRead:      true,
		ScopeControl:   true,
		ScopeTelemetry: true,
	}
	for _, scope := range scopes {
		if !known[scope] {
			return false
		}
	}
	return len(scopes) > 0
}
