package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-raas/internal/apperr"
)

const testSecret = "test-secret"

func signHS256(t *testing.T, claims Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return tok
}

func validClaims(sub string) Claims {
	return Claims{
		Email: sub + "@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestVerifierHS256(t *testing.T) {
	v, err := NewVerifier(VerifierConfig{Secret: testSecret})
	require.NoError(t, err)

	claims, err := v.Verify(signHS256(t, validClaims("user_1")))
	require.NoError(t, err)
	assert.Equal(t, "user_1", claims.Subject)
	assert.Equal(t, "user_1@example.com", claims.Email)

	t.Run("expired", func(t *testing.T) {
		c := validClaims("user_1")
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		_, err := v.Verify(signHS256(t, c))
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})

	t.Run("missing expiry", func(t *testing.T) {
		c := validClaims("user_1")
		c.ExpiresAt = nil
		_, err := v.Verify(signHS256(t, c))
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})

	t.Run("missing subject", func(t *testing.T) {
		_, err := v.Verify(signHS256(t, validClaims("")))
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})

	t.Run("wrong secret", func(t *testing.T) {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims("user_1")).SignedString([]byte("other"))
		require.NoError(t, err)
		_, err = v.Verify(tok)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})
}

func TestVerifierIssuer(t *testing.T) {
	v, err := NewVerifier(VerifierConfig{Secret: testSecret, Issuer: "https://clerk.example.com"})
	require.NoError(t, err)

	c := validClaims("user_1")
	c.Issuer = "https://evil.example.com"
	_, err = v.Verify(signHS256(t, c))
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	c.Issuer = "https://clerk.example.com"
	_, err = v.Verify(signHS256(t, c))
	assert.NoError(t, err)
}

func TestVerifierRS256(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pemKey := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))

	v, err := NewVerifier(VerifierConfig{PublicKeyPEM: pemKey, Secret: "ignored"})
	require.NoError(t, err)

	tok, err := jwt.NewWithClaims(jwt.SigningMethodRS256, validClaims("user_rsa")).SignedString(key)
	require.NoError(t, err)
	claims, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user_rsa", claims.Subject)

	// HS256 tokens must not be accepted by an RS256 verifier.
	_, err = v.Verify(signHS256(t, validClaims("user_rsa")))
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestNewVerifierRequiresKey(t *testing.T) {
	_, err := NewVerifier(VerifierConfig{})
	assert.Error(t, err)
	_, err = NewVerifier(VerifierConfig{PublicKeyPEM: "not a pem"})
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	_, ok := BearerToken(r)
	assert.False(t, ok)

	r.Header.Set("Authorization", "Basic abc")
	_, ok = BearerToken(r)
	assert.False(t, ok)

	r.Header.Set("Authorization", "bearer   abc.def ")
	tok, ok := BearerToken(r)
	assert.True(t, ok)
	assert.Equal(t, "abc.def", tok)
}
