package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"spark-service/internal/domain"
	"spark-service/internal/gate"
	"spark-service/internal/usecase"
	"spark-service/pkg/middleware"
	"spark-service/pkg/response"
	"spark-service/pkg/xerrors"
)

// OnboardingHandler serves the three step screens. Validation failures
// render inline on the screen as field errors; redirects are the
// gate's job, never the step's.
type OnboardingHandler struct {
	uc *usecase.OnboardingUsecase
}

func NewOnboardingHandler(uc *usecase.OnboardingUsecase) *OnboardingHandler {
	return &OnboardingHandler{uc: uc}
}

type selectAvatarRequest struct {
	AvatarKey string `json:"avatar_key"`
}

type setDisplayNameRequest struct {
	DisplayName string `json:"display_name"`
}

// Entry points at whichever step the caller's fields call for, so a
// bare /onboarding visit lands somewhere useful.
// GET /onboarding
func (h *OnboardingHandler) Entry(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "no active session")
		return
	}

	next := gate.OnboardingEntry
	if p, err := h.uc.Profile(r.Context(), userID); err == nil {
		next = gate.StepFor(p)
	}
	http.Redirect(w, r, next, http.StatusFound)
}

// AvatarScreen returns the catalogue plus the current selection, so
// re-entry shows the previous choice pre-selected.
// GET /onboarding/avatar
func (h *OnboardingHandler) AvatarScreen(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "no active session")
		return
	}

	selected := ""
	if p, err := h.uc.Profile(r.Context(), userID); err == nil {
		selected = p.AvatarKey
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"avatars":  domain.AvatarKeys,
		"selected": selected,
	})
}

// SelectAvatar saves the choice, creating the profile row on first
// write.
// POST /onboarding/avatar
func (h *OnboardingHandler) SelectAvatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "no active session")
		return
	}
	email, _ := middleware.GetEmail(r.Context())

	var req selectAvatarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request")
		return
	}

	p, err := h.uc.SelectAvatar(r.Context(), userID, email, req.AvatarKey)
	if err != nil {
		switch {
		case errors.Is(err, xerrors.ErrAvatarRequired):
			response.FieldError(w, http.StatusBadRequest, "avatar_key", "pick an avatar to continue")
		case errors.Is(err, xerrors.ErrUnknownAvatar):
			response.FieldError(w, http.StatusBadRequest, "avatar_key", "unknown avatar")
		default:
			log.Printf("[Onboarding] avatar save failed for user %s: %v", userID, err)
			response.Error(w, http.StatusInternalServerError, "could not save avatar")
		}
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"profile": p,
		"next":    gate.RouteOnboardingName,
	})
}

// NameScreen returns the current name state; the sentinel placeholder
// renders as an empty field.
// GET /onboarding/name
func (h *OnboardingHandler) NameScreen(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "no active session")
		return
	}

	name := ""
	if p, err := h.uc.Profile(r.Context(), userID); err == nil && p.HasDisplayName() {
		name = p.DisplayName
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"display_name": name,
		"max_length":   domain.DisplayNameMaxLen,
	})
}

// SetDisplayName validates and saves the name. A taken name is a
// conflict the screen resolves by asking for another; it never bounces
// the user off the step.
// POST /onboarding/name
func (h *OnboardingHandler) SetDisplayName(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "no active session")
		return
	}

	var req setDisplayNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request")
		return
	}

	if err := h.uc.SetDisplayName(r.Context(), userID, req.DisplayName); err != nil {
		switch {
		case errors.Is(err, xerrors.ErrNameRequired):
			response.FieldError(w, http.StatusBadRequest, "display_name", "display name is required")
		case errors.Is(err, xerrors.ErrNameTooLong):
			response.FieldError(w, http.StatusBadRequest, "display_name", "display name is too long")
		case errors.Is(err, xerrors.ErrNameReserved):
			response.FieldError(w, http.StatusBadRequest, "display_name", "that name is not available")
		case errors.Is(err, xerrors.ErrDisplayNameTaken):
			response.FieldError(w, http.StatusConflict, "display_name", "that name is already taken")
		case errors.Is(err, xerrors.ErrProfileNotFound):
			// No row yet means the avatar step was skipped.
			response.JSON(w, http.StatusConflict, map[string]string{"next": gate.RouteOnboardingAvatar})
		default:
			log.Printf("[Onboarding] name save failed for user %s: %v", userID, err)
			response.Error(w, http.StatusInternalServerError, "could not save display name")
		}
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{
		"next": gate.RouteOnboardingComplete,
	})
}

// CompleteScreen is the summary shown before the flag flips.
// GET /onboarding/complete
func (h *OnboardingHandler) CompleteScreen(w http.ResponseWriter, r *http.Request) {
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

// Complete flips the completion flag and drops the advisory cookie so
// the home screen can skip one profile read on the very next load.
// POST /onboarding/complete
func (h *OnboardingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "no active session")
		return
	}

	p, err := h.uc.Complete(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, xerrors.ErrOnboardingIncomplete):
			// Fields missing: point back at the step that needs work.
			next := gate.RouteOnboardingAvatar
			if cur, perr := h.uc.Profile(r.Context(), userID); perr == nil {
				next = gate.StepFor(cur)
			}
			response.JSON(w, http.StatusConflict, map[string]string{"next": next})
		case errors.Is(err, xerrors.ErrProfileNotFound):
			response.JSON(w, http.StatusConflict, map[string]string{"next": gate.RouteOnboardingAvatar})
		default:
			log.Printf("[Onboarding] completion failed for user %s: %v", userID, err)
			response.Error(w, http.StatusInternalServerError, "could not complete onboarding")
		}
		return
	}

	SetOnboardedCookie(w)
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"profile": p,
		"next":    gate.RouteHome,
	})
}
