package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"

	"spark-service/pkg/jwtutil"
)

const nsSessionTokens = "session_tokens"

// TokenCache is the read side of the session mirror; *cache.Cache
// satisfies it.
type TokenCache interface {
	Get(ctx context.Context, namespace, key string) (string, error)
}

// SessionOracle answers one question per request: is there a live
// session, and whose. It never returns an error; any doubt collapses
// to "no session" so callers cannot accidentally fail open.
type SessionOracle struct {
	verifier *jwtutil.Verifier
	cache    TokenCache
}

func NewSessionOracle(verifier *jwtutil.Verifier, cache TokenCache) *SessionOracle {
	return &SessionOracle{verifier: verifier, cache: cache}
}

func extractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	if cookie, err := r.Cookie("token"); err == nil {
		return cookie.Value
	}
	if q := r.URL.Query().Get("token"); q != "" {
		return q
	}
	return ""
}

// Resolve verifies the carried token and checks it against the live
// session record in the cache. A cache mismatch means the session was
// revoked or replaced; a cache transport error degrades to JWT-only
// validation so an unreachable redis does not sign everyone out.
func (o *SessionOracle) Resolve(r *http.Request) (*jwtutil.Claims, string, bool) {
	token := extractToken(r)
	if token == "" {
		return nil, "", false
	}

	claims, err := o.verifier.ParseAndValidate(token)
	if err != nil {
		return nil, "", false
	}

	if o.cache != nil {
		key := claims.UserID + ":" + claims.Device
		cached, err := o.cache.Get(r.Context(), nsSessionTokens, key)
		switch {
		case err == nil && cached == token:
			// live session confirmed
		case err == nil:
			log.Printf("[SessionOracle] token superseded for user %s device %s", claims.UserID, claims.Device)
			return nil, "", false
		case errors.Is(err, redis.Nil):
			// No mirror record. Issuance soft-fails the mirror write,
			// so this alone does not invalidate a verifiable JWT.
		default:
			log.Printf("[SessionOracle] cache unavailable, JWT-only validation for user %s: %v", claims.UserID, err)
		}
	}

	return claims, token, true
}
