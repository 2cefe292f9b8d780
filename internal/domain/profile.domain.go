package domain

import (
	"time"
	"unicode/utf8"

	"spark-service/pkg/xerrors"
)

// DisplayNameUnset is the sentinel written at row creation before the
// user has chosen a name. It never counts as a real display name.
const DisplayNameUnset = "UNSET"

const DisplayNameMaxLen = 12

// AvatarKeys is the fixed catalogue of selectable avatar variants.
var AvatarKeys = []string{"user1", "user2", "user3", "user4", "user5", "user6"}

// Profile is the persisted onboarding/display record for one identity.
// ID is the subject id issued by the identity provider.
type Profile struct {
	ID                  string    `json:"id"`
	Email               string    `json:"email"`
	DisplayName         string    `json:"display_name"`
	AvatarKey           string    `json:"avatar_key,omitempty"`
	OnboardingCompleted bool      `json:"onboarding_completed"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// HasAvatar reports whether an avatar has been chosen.
func (p *Profile) HasAvatar() bool {
	return p.AvatarKey != ""
}

// HasDisplayName reports whether the user has chosen a real name.
func (p *Profile) HasDisplayName() bool {
	return p.DisplayName != "" && p.DisplayName != DisplayNameUnset
}

// NeedsOnboarding recomputes completeness from raw fields rather than
// trusting the flag. A saved avatar with a crashed name step must still
// count as incomplete.
func (p *Profile) NeedsOnboarding() bool {
	return !p.OnboardingCompleted || !p.HasAvatar() || !p.HasDisplayName()
}

func ValidAvatarKey(key string) bool {
	for _, k := range AvatarKeys {
		if k == key {
			return true
		}
	}
	return false
}

// ValidateDisplayName enforces the 1-12 character rule. Length is
// counted in runes so multibyte names get the full twelve characters.
func ValidateDisplayName(name string) error {
	if name == "" {
		return xerrors.ErrNameRequired
	}
	if name == DisplayNameUnset {
		return xerrors.ErrNameReserved
	}
	if utf8.RuneCountInString(name) > DisplayNameMaxLen {
		return xerrors.ErrNameTooLong
	}
	return nil
}
