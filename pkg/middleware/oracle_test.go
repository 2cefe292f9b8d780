package middleware

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spark-service/pkg/jwtutil"
)

type stubTokenCache struct {
	val string
	err error
}

func (c *stubTokenCache) Get(_ context.Context, _, _ string) (string, error) {
	return c.val, c.err
}

func newOracleKeys(t *testing.T) (*jwtutil.Signer, *jwtutil.Verifier) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	signer := jwtutil.NewSigner(priv, "test", "test-aud", time.Hour)
	verifier := jwtutil.NewVerifier(&priv.PublicKey, "test", "test-aud")
	return signer, verifier
}

func mintToken(t *testing.T, signer *jwtutil.Signer, userID string) string {
	t.Helper()
	token, err := signer.Sign(userID, "dev-1", "a@example.com")
	require.NoError(t, err)
	return token
}

func TestOracleResolve_NoToken(t *testing.T) {
	_, verifier := newOracleKeys(t)
	o := NewSessionOracle(verifier, nil)

	_, _, ok := o.Resolve(httptest.NewRequest(http.MethodGet, "/home", nil))
	assert.False(t, ok)
}

func TestOracleResolve_UnverifiableToken(t *testing.T) {
	_, verifier := newOracleKeys(t)
	o := NewSessionOracle(verifier, nil)

	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "not-a-jwt"})
	_, _, ok := o.Resolve(req)
	assert.False(t, ok)
}

func TestOracleResolve_ExpiredToken(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	expiredSigner := jwtutil.NewSigner(priv, "test", "test-aud", -time.Hour)
	verifier := jwtutil.NewVerifier(&priv.PublicKey, "test", "test-aud")
	o := NewSessionOracle(verifier, nil)

	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: mintToken(t, expiredSigner, "sub-1")})
	_, _, ok := o.Resolve(req)
	assert.False(t, ok)
}

func TestOracleResolve_ValidToken(t *testing.T) {
	signer, verifier := newOracleKeys(t)
	o := NewSessionOracle(verifier, nil)
	token := mintToken(t, signer, "sub-1")

	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})

	claims, got, ok := o.Resolve(req)
	require.True(t, ok)
	assert.Equal(t, "sub-1", claims.UserID)
	assert.Equal(t, "dev-1", claims.Device)
	assert.Equal(t, token, got)
}

// The header outranks the cookie, the cookie outranks the query param.
func TestOracleResolve_ExtractionOrder(t *testing.T) {
	signer, verifier := newOracleKeys(t)
	o := NewSessionOracle(verifier, nil)

	headerTok := mintToken(t, signer, "header-sub")
	cookieTok := mintToken(t, signer, "cookie-sub")
	queryTok := mintToken(t, signer, "query-sub")

	t.Run("header beats cookie and query", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/home?token="+queryTok, nil)
		req.Header.Set("Authorization", "Bearer "+headerTok)
		req.AddCookie(&http.Cookie{Name: "token", Value: cookieTok})

		claims, _, ok := o.Resolve(req)
		require.True(t, ok)
		assert.Equal(t, "header-sub", claims.UserID)
	})

	t.Run("cookie beats query", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/home?token="+queryTok, nil)
		req.AddCookie(&http.Cookie{Name: "token", Value: cookieTok})

		claims, _, ok := o.Resolve(req)
		require.True(t, ok)
		assert.Equal(t, "cookie-sub", claims.UserID)
	})

	t.Run("query alone is accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/home?token="+queryTok, nil)

		claims, _, ok := o.Resolve(req)
		require.True(t, ok)
		assert.Equal(t, "query-sub", claims.UserID)
	})
}

func TestOracleResolve_MirrorConfirms(t *testing.T) {
	signer, verifier := newOracleKeys(t)
	token := mintToken(t, signer, "sub-1")
	o := NewSessionOracle(verifier, &stubTokenCache{val: token})

	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	_, _, ok := o.Resolve(req)
	assert.True(t, ok)
}

// A mirror holding a different value means the session was revoked or
// replaced: the tombstone written at logout, or a newer login on the
// same device.
func TestOracleResolve_MismatchRevokes(t *testing.T) {
	signer, verifier := newOracleKeys(t)
	o := NewSessionOracle(verifier, &stubTokenCache{val: "revoked"})

	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: mintToken(t, signer, "sub-1")})
	_, _, ok := o.Resolve(req)
	assert.False(t, ok)
}

// A missing mirror is forgiven: the write at issuance is best-effort,
// so its absence must not sign the user out.
func TestOracleResolve_MissingMirrorForgiven(t *testing.T) {
	signer, verifier := newOracleKeys(t)
	o := NewSessionOracle(verifier, &stubTokenCache{err: redis.Nil})

	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: mintToken(t, signer, "sub-1")})
	_, _, ok := o.Resolve(req)
	assert.True(t, ok)
}

// An unreachable redis degrades to JWT-only validation instead of
// signing everyone out.
func TestOracleResolve_TransportErrorDegrades(t *testing.T) {
	signer, verifier := newOracleKeys(t)
	o := NewSessionOracle(verifier, &stubTokenCache{err: errors.New("dial tcp: connection refused")})

	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: mintToken(t, signer, "sub-1")})
	_, _, ok := o.Resolve(req)
	assert.True(t, ok)
}
