package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spark-service/internal/domain"
	"spark-service/internal/gate"
	"spark-service/internal/usecase"
	"spark-service/pkg/middleware"
)

func signedInRequest(method, path, body string) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	ctx := context.WithValue(r.Context(), middleware.ContextUserID, "sub-1")
	ctx = context.WithValue(ctx, middleware.ContextEmail, "a@example.com")
	return r.WithContext(ctx)
}

func TestSelectAvatarHandler(t *testing.T) {
	store := newMemStore()
	h := NewOnboardingHandler(usecase.NewOnboardingUsecase(store, nil))

	t.Run("valid choice creates row and points at name step", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.SelectAvatar(rr, signedInRequest(http.MethodPost, "/onboarding/avatar", `{"avatar_key":"user2"}`))

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, gate.RouteOnboardingName, decodeEnvelope(t, rr)["next"])

		p, err := store.GetProfile(context.Background(), "sub-1")
		require.NoError(t, err)
		assert.Equal(t, "user2", p.AvatarKey)
	})

	t.Run("unknown key is a field error", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.SelectAvatar(rr, signedInRequest(http.MethodPost, "/onboarding/avatar", `{"avatar_key":"wizard"}`))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		var env struct {
			Field string `json:"field"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
		assert.Equal(t, "avatar_key", env.Field)
	})

	t.Run("no session", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.SelectAvatar(rr, httptest.NewRequest(http.MethodPost, "/onboarding/avatar", strings.NewReader(`{"avatar_key":"user2"}`)))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestAvatarScreenShowsSelection(t *testing.T) {
	store := newMemStore()
	store.profiles["sub-1"] = &domain.Profile{ID: "sub-1", AvatarKey: "user4", DisplayName: domain.DisplayNameUnset}
	h := NewOnboardingHandler(usecase.NewOnboardingUsecase(store, nil))

	rr := httptest.NewRecorder()
	h.AvatarScreen(rr, signedInRequest(http.MethodGet, "/onboarding/avatar", ""))

	require.Equal(t, http.StatusOK, rr.Code)
	data := decodeEnvelope(t, rr)
	assert.Equal(t, "user4", data["selected"])
	assert.Len(t, data["avatars"], len(domain.AvatarKeys))
}

func TestCompleteHandler(t *testing.T) {
	store := newMemStore()
	h := NewOnboardingHandler(usecase.NewOnboardingUsecase(store, nil))

	t.Run("refused before any step, points at avatar", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.Complete(rr, signedInRequest(http.MethodPost, "/onboarding/complete", ""))

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, gate.RouteOnboardingAvatar, decodeEnvelope(t, rr)["next"])
	})

	t.Run("refused mid-flow, points at missing step", func(t *testing.T) {
		store.profiles["sub-1"] = &domain.Profile{ID: "sub-1", AvatarKey: "user1", DisplayName: domain.DisplayNameUnset}

		rr := httptest.NewRecorder()
		h.Complete(rr, signedInRequest(http.MethodPost, "/onboarding/complete", ""))

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, gate.RouteOnboardingName, decodeEnvelope(t, rr)["next"])
	})

	t.Run("succeeds and plants the advisory cookie", func(t *testing.T) {
		store.profiles["sub-1"].DisplayName = "Mika"

		rr := httptest.NewRecorder()
		h.Complete(rr, signedInRequest(http.MethodPost, "/onboarding/complete", ""))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, gate.RouteHome, decodeEnvelope(t, rr)["next"])

		cookies := rr.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, onboardedCookie, cookies[0].Name)
		assert.Equal(t, "1", cookies[0].Value)
	})
}

func TestHomeTourPlaysOncePerBrowser(t *testing.T) {
	store := newMemStore()
	store.profiles["sub-1"] = &domain.Profile{
		ID: "sub-1", DisplayName: "Mika", AvatarKey: "user1", OnboardingCompleted: true,
	}
	h := NewPagesHandler(usecase.NewOnboardingUsecase(store, nil))

	// First visit: no advisory cookie, the tour plays and the cookie
	// gets planted.
	rr := httptest.NewRecorder()
	h.Home(rr, signedInRequest(http.MethodGet, "/home", ""))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, true, decodeEnvelope(t, rr)["show_tour"])

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, onboardedCookie, cookies[0].Name)

	// Second visit carries the cookie: no tour.
	req := signedInRequest(http.MethodGet, "/home", "")
	req.AddCookie(cookies[0])
	rr = httptest.NewRecorder()
	h.Home(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, false, decodeEnvelope(t, rr)["show_tour"])
}
