package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ovaphlow/pitchfork/service-raas/internal/apperr"
)

// Claims are the session token claims issued by the identity provider.
// Subject carries the provider's user id.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type VerifierConfig struct {
	// PublicKeyPEM verifies RS256 tokens; takes precedence over Secret.
	PublicKeyPEM string
	// Secret verifies HS256 tokens.
	Secret string
	Issuer string
}

// Verifier validates bearer session tokens.
type Verifier struct {
	key     any
	methods []string
	issuer  string
}

func NewVerifier(cfg VerifierConfig) (*Verifier, error) {
	switch {
	case cfg.PublicKeyPEM != "":
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("parse jwt public key: %w", err)
		}
		return &Verifier{key: key, methods: []string{jwt.SigningMethodRS256.Alg()}, issuer: cfg.Issuer}, nil
	case cfg.Secret != "":
		return &Verifier{key: []byte(cfg.Secret), methods: []string{jwt.SigningMethodHS256.Alg()}, issuer: cfg.Issuer}, nil
	default:
		return nil, errors.New("jwt public key or secret required")
	}
}

// Verify parses and validates a raw token. Every failure is ErrUnauthorized.
func (v *Verifier) Verify(raw string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(v.methods),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return v.key, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrUnauthorized, err)
	}
	if !tok.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("%w: invalid token", apperr.ErrUnauthorized)
	}
	return claims, nil
}

// BearerToken extracts the token from an "Authorization: Bearer ..." header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" || !strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(h[len("bearer "):])
	return tok, tok != ""
}
