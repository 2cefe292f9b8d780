package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"spark-service/internal/domain"
	"spark-service/internal/gate"
	"spark-service/internal/service/identity"
	"spark-service/internal/usecase"
	"spark-service/pkg/middleware"
	"spark-service/pkg/response"
	"spark-service/pkg/xerrors"
)

// AuthHandler owns the sign-in surfaces: password login, registration,
// the provider redirect flow, and logout. Every successful sign-in
// funnels through the same decision function the interceptor uses, so
// the "next" route in a login response and a mid-session redirect can
// never disagree.
type AuthHandler struct {
	auth           *usecase.AuthUsecase
	onboarding     *usecase.OnboardingUsecase
	googleClientID string
}

func NewAuthHandler(auth *usecase.AuthUsecase, onboarding *usecase.OnboardingUsecase, googleClientID string) *AuthHandler {
	return &AuthHandler{auth: auth, onboarding: onboarding, googleClientID: googleClientID}
}

func (h *AuthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type passwordLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	DeviceID string `json:"device_id"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	DeviceID string `json:"device_id"`
}

type googleLoginRequest struct {
	IDToken  string `json:"id_token"`
	DeviceID string `json:"device_id"`
}

// LoginURL backs the login screen: mint a state nonce and hand back
// the provider authorize URL. Failure tags arrive on this route's
// query string; the client renders them, the server ignores them.
// GET /auth/login
func (h *AuthHandler) LoginURL(w http.ResponseWriter, r *http.Request) {
	url, err := h.auth.LoginURL(r.Context())
	if err != nil {
		log.Printf("[Auth] failed to build authorize URL: %v", err)
		response.Error(w, http.StatusInternalServerError, "login unavailable")
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"authorize_url": url})
}

// PasswordLogin handles first-party email+password sign-in.
// POST /auth/login
func (h *AuthHandler) PasswordLogin(w http.ResponseWriter, r *http.Request) {
	var req passwordLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Email == "" || req.Password == "" {
		response.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	ident, err := h.auth.SignInWithPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, xerrors.ErrInvalidCredentials) {
			response.Error(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		log.Printf("[Auth] password sign-in failed for %s: %v", req.Email, err)
		response.Error(w, http.StatusBadGateway, "sign-in unavailable")
		return
	}

	h.finishSignIn(w, r, ident, req.DeviceID, "password")
}

// Register creates the identity then signs it in; the profile row is
// deliberately NOT created here, the avatar step owns that.
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Email == "" || req.Password == "" {
		response.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	ident, err := h.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Printf("[Auth] registration failed for %s: %v", req.Email, err)
		response.Error(w, http.StatusBadGateway, "registration failed")
		return
	}

	h.finishSignIn(w, r, ident, req.DeviceID, "password")
}

// GoogleLogin verifies a Google-issued ID token directly, for clients
// that run the native Google flow instead of the redirect one.
// POST /auth/google
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req googleLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.IDToken == "" {
		response.Error(w, http.StatusBadRequest, "id_token is required")
		return
	}

	ident, err := identity.VerifyGoogleToken(r.Context(), req.IDToken, h.googleClientID)
	if err != nil {
		response.Error(w, http.StatusUnauthorized, "invalid google token")
		return
	}

	h.finishSignIn(w, r, ident, req.DeviceID, "google")
}

// Logout revokes the live session and expires the cookie.
// DELETE /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "no active session")
		return
	}
	deviceID, _ := middleware.GetDeviceID(r.Context())

	if err := h.auth.RevokeSession(r.Context(), userID, deviceID); err != nil {
		log.Printf("[Auth] session revoke failed for user %s: %v", userID, err)
	}
	middleware.ClearSessionCookie(w)
	response.JSON(w, http.StatusOK, map[string]string{"next": gate.RouteLogin})
}

// finishSignIn is the shared tail of every sign-in path: issue the
// session, set the cookie, publish the event, and resolve the caller's
// next route through the gate.
func (h *AuthHandler) finishSignIn(w http.ResponseWriter, r *http.Request, ident *domain.Identity, deviceID, method string) {
	session, err := h.auth.IssueSession(r.Context(), ident, deviceID)
	if err != nil {
		log.Printf("[Auth] session issue failed for user %s: %v", ident.ID, err)
		response.Error(w, http.StatusInternalServerError, "session creation failed")
		return
	}
	setSessionCookie(w, session)
	h.auth.NotifySignIn(ident, method)

	prof := gate.FromLookup(h.onboarding.Profile(r.Context(), ident.ID))
	d := gate.Decide(gate.Present(ident.ID), prof, gate.RouteHome)

	next := gate.RouteHome
	if !d.Allow {
		next = d.Redirect
	}
	if prof.Status == gate.ProfileLookupFailed {
		log.Printf("[Auth] profile lookup failed right after sign-in for user %s: %v", ident.ID, prof.Err)
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"token":     session.AuthToken,
		"device_id": session.DeviceID,
		"next":      next,
	})
}

func setSessionCookie(w http.ResponseWriter, session *domain.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    session.AuthToken,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
