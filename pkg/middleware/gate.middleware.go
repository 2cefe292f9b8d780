package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"spark-service/internal/domain"
	"spark-service/internal/gate"
	"spark-service/pkg/jwtutil"
)

// ProfileSource is the read side of the profile store; the interceptor
// never writes.
type ProfileSource interface {
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
}

// Oracle resolves the caller's session, if any.
type Oracle interface {
	Resolve(r *http.Request) (*jwtutil.Claims, string, bool)
}

// Interceptor runs the navigation gate on every guarded request:
// resolve the session, read the profile, let gate.Decide pick between
// pass-through and redirect. It mutates nothing, so a redirected
// request can simply be retried at the new location.
type Interceptor struct {
	oracle   Oracle
	profiles ProfileSource
	exempt   []string
}

func NewInterceptor(oracle Oracle, profiles ProfileSource, exemptPrefixes []string) *Interceptor {
	return &Interceptor{oracle: oracle, profiles: profiles, exempt: exemptPrefixes}
}

func (ic *Interceptor) exemptPath(path string) bool {
	for _, prefix := range ic.exempt {
		if prefix != "" && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (ic *Interceptor) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if !gate.Guarded(path) || ic.exemptPath(path) {
			next.ServeHTTP(w, r)
			return
		}

		claims, token, ok := ic.oracle.Resolve(r)
		if !ok {
			d := gate.Decide(gate.Absent(), gate.ProfileResult{}, path)
			ic.apply(w, r, next, d)
			return
		}

		prof := gate.FromLookup(ic.profiles.GetProfile(r.Context(), claims.UserID))
		if prof.Status == gate.ProfileLookupFailed {
			log.Printf("[Gate] profile lookup failed for user %s: %v", claims.UserID, prof.Err)
		}

		d := gate.Decide(gate.Present(claims.UserID), prof, path)
		if d.Allow {
			next.ServeHTTP(w, setContextValues(r, claims, token))
			return
		}
		ic.apply(w, r, next, d)
	})
}

func (ic *Interceptor) apply(w http.ResponseWriter, r *http.Request, next http.Handler, d gate.Decision) {
	if d.Allow {
		next.ServeHTTP(w, r)
		return
	}
	// A lookup-failure bounce lands on the login screen, which is
	// itself guarded; dropping the cookie here keeps the retry from
	// re-running the same failing lookup forever.
	if strings.Contains(d.Redirect, "error="+gate.ErrTagLookupFailed) {
		ClearSessionCookie(w)
	}
	// Clients that carry the token in a header or query param are not
	// helped by the cookie clear: they would re-present the token and
	// bounce on this exact URL while the store is down. Serving the
	// login screen is safe for any session state, so a self-redirect
	// passes through instead.
	if d.Redirect == r.URL.RequestURI() {
		next.ServeHTTP(w, r)
		return
	}
	http.Redirect(w, r, d.Redirect, http.StatusFound)
}

// ClearSessionCookie expires the browser session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
