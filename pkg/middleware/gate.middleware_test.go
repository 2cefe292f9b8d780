package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spark-service/internal/domain"
	"spark-service/internal/gate"
	"spark-service/pkg/jwtutil"
	"spark-service/pkg/xerrors"
)

type stubOracle struct {
	claims *jwtutil.Claims
	token  string
}

func (o *stubOracle) Resolve(_ *http.Request) (*jwtutil.Claims, string, bool) {
	if o.claims == nil {
		return nil, "", false
	}
	return o.claims, o.token, true
}

type stubProfiles struct {
	profile *domain.Profile
	err     error
}

func (s *stubProfiles) GetProfile(_ context.Context, _ string) (*domain.Profile, error) {
	return s.profile, s.err
}

func signedIn(userID string) *stubOracle {
	return &stubOracle{
		claims: &jwtutil.Claims{UserID: userID, Device: "dev-1", Email: "a@example.com"},
		token:  "tok-abc",
	}
}

func completedProfile(id string) *domain.Profile {
	now := time.Now()
	return &domain.Profile{
		ID:                  id,
		Email:               "a@example.com",
		DisplayName:         "Mika",
		AvatarKey:           "user1",
		OnboardingCompleted: true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

func serve(ic *Interceptor, path string) (*httptest.ResponseRecorder, *http.Request) {
	var captured *http.Request
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	ic.Handler(next).ServeHTTP(rr, req)
	return rr, captured
}

func TestInterceptor_AnonymousOnProtected(t *testing.T) {
	ic := NewInterceptor(&stubOracle{}, &stubProfiles{err: xerrors.ErrProfileNotFound}, nil)
	rr, captured := serve(ic, "/home")
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, gate.RouteLogin, rr.Header().Get("Location"))
	assert.Nil(t, captured)
}

func TestInterceptor_AnonymousOnLogin(t *testing.T) {
	ic := NewInterceptor(&stubOracle{}, &stubProfiles{err: xerrors.ErrProfileNotFound}, nil)
	rr, captured := serve(ic, "/auth/login")
	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, captured)
	_, ok := GetUserID(captured.Context())
	assert.False(t, ok, "anonymous pass-through must not set identity")
}

func TestInterceptor_AllowSetsContext(t *testing.T) {
	ic := NewInterceptor(signedIn("sub-1"), &stubProfiles{profile: completedProfile("sub-1")}, nil)
	rr, captured := serve(ic, "/home")
	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, captured)

	uid, ok := GetUserID(captured.Context())
	require.True(t, ok)
	assert.Equal(t, "sub-1", uid)
	tok, _ := GetToken(captured.Context())
	assert.Equal(t, "tok-abc", tok)
	dev, _ := GetDeviceID(captured.Context())
	assert.Equal(t, "dev-1", dev)
}

func TestInterceptor_CompletedUserFunneledHome(t *testing.T) {
	ic := NewInterceptor(signedIn("sub-1"), &stubProfiles{profile: completedProfile("sub-1")}, nil)
	for _, path := range []string{"/onboarding/name", "/auth/login", "/profile"} {
		rr, _ := serve(ic, path)
		assert.Equal(t, http.StatusFound, rr.Code, path)
		assert.Equal(t, gate.RouteHome, rr.Header().Get("Location"), path)
	}
}

func TestInterceptor_NewUserSentToAvatarStep(t *testing.T) {
	ic := NewInterceptor(signedIn("sub-1"), &stubProfiles{err: xerrors.ErrProfileNotFound}, nil)
	rr, _ := serve(ic, "/home")
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, gate.RouteOnboardingAvatar, rr.Header().Get("Location"))
}

func TestInterceptor_LookupFailureClearsCookie(t *testing.T) {
	ic := NewInterceptor(signedIn("sub-1"), &stubProfiles{err: errors.New("pool exhausted")}, nil)
	rr, captured := serve(ic, "/home")
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, gate.RouteLogin+"?error="+gate.ErrTagLookupFailed, rr.Header().Get("Location"))
	assert.Nil(t, captured)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "token", cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}

// A client presenting its token in the Authorization header keeps the
// token across the lookup-failure bounce, so the login URL it lands on
// must render rather than redirect to itself.
func TestInterceptor_LookupFailureNoSelfRedirect(t *testing.T) {
	ic := NewInterceptor(signedIn("sub-1"), &stubProfiles{err: errors.New("pool exhausted")}, nil)

	rr, captured := serve(ic, gate.RouteLogin+"?error="+gate.ErrTagLookupFailed)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotNil(t, captured, "login screen must be served, not bounced")
}

func TestInterceptor_UnguardedAndExemptPathsSkip(t *testing.T) {
	probes := &stubProfiles{err: errors.New("must not be called")}
	ic := NewInterceptor(signedIn("sub-1"), probes, []string{"/auth/static"})

	for _, path := range []string{"/healthz", "/assets/logo.png", "/auth/static/logo.css"} {
		rr, captured := serve(ic, path)
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.NotNil(t, captured, path)
	}
}
