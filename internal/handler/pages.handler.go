package handler

import (
	"net/http"

	"spark-service/internal/usecase"
	"spark-service/pkg/middleware"
	"spark-service/pkg/response"
)

// onboardedCookie is a purely advisory browser-local mirror of the
// completion flag. The gate never reads it; the database is the
// authority. It only saves the home screen from replaying the intro
// tour on every visit.
const onboardedCookie = "onboarded"

func SetOnboardedCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     onboardedCookie,
		Value:    "1",
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		SameSite: http.SameSiteLaxMode,
	})
}

func hasOnboardedCookie(r *http.Request) bool {
	c, err := r.Cookie(onboardedCookie)
	return err == nil && c.Value == "1"
}

// PagesHandler serves the signed-in destinations behind the gate. By
// the time a request lands here the interceptor has already settled
// whether the caller belongs on the page.
type PagesHandler struct {
	uc *usecase.OnboardingUsecase
}

func NewPagesHandler(uc *usecase.OnboardingUsecase) *PagesHandler {
	return &PagesHandler{uc: uc}
}

// Home is the resting place for completed users. The intro tour plays
// once per browser: the first landing without the advisory cookie
// shows it and plants the cookie.
// GET /home
func (h *PagesHandler) Home(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "no active session")
		return
	}

	p, err := h.uc.Profile(r.Context(), userID)
	if err != nil {
		response.Error(w, http.StatusNotFound, "profile not found")
		return
	}

	showTour := !hasOnboardedCookie(r)
	if showTour {
		SetOnboardedCookie(w)
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"profile":   p,
		"show_tour": showTour,
	})
}

// Profile returns the caller's own profile.
// GET /profile
func (h *PagesHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "no active session")
		return
	}

	p, err := h.uc.Profile(r.Context(), userID)
	if err != nil {
		response.Error(w, http.StatusNotFound, "profile not found")
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{"profile": p})
}

// Page is the shared shell for the feature screens that have no server
// state of their own yet.
func (h *PagesHandler) Page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, map[string]string{"page": name})
	}
}
