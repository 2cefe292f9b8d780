package handler

import (
	"log"
	"net/http"

	"spark-service/internal/gate"
	"spark-service/pkg/middleware"
)

// Callback lands the provider redirect flow. Unlike the JSON login
// endpoints this one answers a browser navigation, so every outcome is
// a redirect: failures carry an error tag back to the login screen,
// success goes wherever the gate says.
// GET /auth/callback
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if e := q.Get("error"); e != "" {
		log.Printf("[Callback] provider returned error: %s", e)
		h.failLogin(w, r, gate.ErrTagExchangeFailed)
		return
	}

	code := q.Get("code")
	if code == "" {
		h.failLogin(w, r, gate.ErrTagMissingCode)
		return
	}

	if err := h.auth.ConsumeState(r.Context(), q.Get("state")); err != nil {
		log.Printf("[Callback] state check failed: %v", err)
		h.failLogin(w, r, gate.ErrTagInvalidState)
		return
	}

	ident, err := h.auth.ExchangeCode(r.Context(), code)
	if err != nil {
		log.Printf("[Callback] code exchange failed: %v", err)
		h.failLogin(w, r, gate.ErrTagExchangeFailed)
		return
	}

	session, err := h.auth.IssueSession(r.Context(), ident, deviceIDFromCookie(r))
	if err != nil {
		log.Printf("[Callback] session issue failed for user %s: %v", ident.ID, err)
		h.failLogin(w, r, gate.ErrTagExchangeFailed)
		return
	}
	setSessionCookie(w, session)
	setDeviceCookie(w, session.DeviceID)
	h.auth.NotifySignIn(ident, "google")

	prof := gate.FromLookup(h.onboarding.Profile(r.Context(), ident.ID))
	d := gate.Decide(gate.Present(ident.ID), prof, gate.RouteHome)

	if prof.Status == gate.ProfileLookupFailed {
		log.Printf("[Callback] profile lookup failed for user %s: %v", ident.ID, prof.Err)
		middleware.ClearSessionCookie(w)
	}

	next := gate.RouteHome
	if !d.Allow {
		next = d.Redirect
	}
	http.Redirect(w, r, next, http.StatusFound)
}

func (h *AuthHandler) failLogin(w http.ResponseWriter, r *http.Request, tag string) {
	http.Redirect(w, r, gate.LoginRedirect(tag).Redirect, http.StatusFound)
}

// deviceIDFromCookie keeps re-logins from the same browser on the same
// session slot; absence is fine, issuance mints a fresh id.
func deviceIDFromCookie(r *http.Request) string {
	if c, err := r.Cookie("device_id"); err == nil {
		return c.Value
	}
	return ""
}

func setDeviceCookie(w http.ResponseWriter, deviceID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "device_id",
		Value:    deviceID,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
