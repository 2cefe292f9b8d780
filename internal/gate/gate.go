// Package gate is the onboarding-state reconciliation engine: one pure
// decision function deriving the canonical next route from the session
// and profile signals. The request interceptor and the post-auth
// callback both consume Decide; neither carries its own copy of this
// logic.
package gate

import (
	"errors"

	"spark-service/internal/domain"
	"spark-service/pkg/xerrors"
)

// Error tags appended to the login redirect so the login screen can
// tell the failure modes apart.
const (
	ErrTagLookupFailed   = "lookup_failed"
	ErrTagExchangeFailed = "exchange_failed"
	ErrTagMissingCode    = "missing_code"
	ErrTagInvalidState   = "invalid_state"
)

// Session is the oracle's answer: who is calling, if anyone.
type Session struct {
	Present bool
	UserID  string
}

func Present(userID string) Session {
	return Session{Present: true, UserID: userID}
}

func Absent() Session {
	return Session{}
}

type ProfileStatus int

const (
	ProfileFound ProfileStatus = iota
	ProfileNotFound
	ProfileLookupFailed
)

// ProfileResult is the store's answer for the caller's identity.
type ProfileResult struct {
	Status  ProfileStatus
	Profile *domain.Profile
	Err     error
}

func Found(p *domain.Profile) ProfileResult {
	return ProfileResult{Status: ProfileFound, Profile: p}
}

func NotFound() ProfileResult {
	return ProfileResult{Status: ProfileNotFound, Err: xerrors.ErrProfileNotFound}
}

func LookupFailed(err error) ProfileResult {
	return ProfileResult{Status: ProfileLookupFailed, Err: err}
}

// FromLookup converts a ProfileStore read into a ProfileResult,
// treating "no row" as the normal new-user case and anything else as a
// fail-closed lookup failure.
func FromLookup(p *domain.Profile, err error) ProfileResult {
	switch {
	case err == nil:
		return Found(p)
	case errors.Is(err, xerrors.ErrProfileNotFound):
		return NotFound()
	default:
		return LookupFailed(err)
	}
}

// Decision is the single canonical outcome: let the navigation
// proceed, or abort it with a redirect.
type Decision struct {
	Allow    bool
	Redirect string
}

func Allowed() Decision {
	return Decision{Allow: true}
}

func RedirectTo(path string) Decision {
	return Decision{Redirect: path}
}

// LoginRedirect builds the login decision with a distinguishable error
// tag.
func LoginRedirect(tag string) Decision {
	if tag == "" {
		return RedirectTo(RouteLogin)
	}
	return RedirectTo(RouteLogin + "?error=" + tag)
}

// Decide maps (session, profile, current path) to the canonical next
// route. Pure and stateless: safe for any number of concurrent
// requests.
//
// Precedence: anonymous access first, then lookup failures (always
// fail-closed, never Allow), then the new-user case, then the
// onboarding state machine, then the completed-profile funnel to home.
func Decide(sess Session, prof ProfileResult, path string) Decision {
	class := Classify(path)

	if !sess.Present {
		if class == ClassProtected || class == ClassOnboarding {
			return RedirectTo(RouteLogin)
		}
		return Allowed()
	}

	switch prof.Status {
	case ProfileLookupFailed:
		return LoginRedirect(ErrTagLookupFailed)
	case ProfileNotFound:
		// A signed-in identity with no row is a brand-new user. The
		// row gets created by the avatar step, so the onboarding and
		// auth surfaces stay reachable.
		if class == ClassOnboarding || class == ClassAuth {
			return Allowed()
		}
		return RedirectTo(OnboardingEntry)
	}

	p := prof.Profile
	if p == nil {
		// Found with no record is a store bug; fail closed like any
		// other unresolvable profile state.
		return LoginRedirect(ErrTagLookupFailed)
	}
	if p.NeedsOnboarding() {
		// The onboarding screens tolerate re-entry and back
		// navigation, so the whole class is navigable; anywhere else
		// snaps to the step the fields call for.
		if class == ClassOnboarding {
			return Allowed()
		}
		return RedirectTo(StepFor(p))
	}

	// Onboarding done: home is the only resting place inside the
	// guarded set, and the auth screens bounce straight there.
	if path == RouteHome {
		return Allowed()
	}
	return RedirectTo(RouteHome)
}

// StepFor picks the onboarding step the profile's fields call for:
// avatar first, then name, then the completion screen that flips the
// flag. The generic entry is only reachable through impossible field
// states.
func StepFor(p *domain.Profile) string {
	switch {
	case !p.HasAvatar():
		return RouteOnboardingAvatar
	case !p.HasDisplayName():
		return RouteOnboardingName
	case !p.OnboardingCompleted:
		return RouteOnboardingComplete
	default:
		return RouteOnboarding
	}
}
