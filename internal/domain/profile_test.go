package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNeedsOnboarding(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		want    bool
	}{
		{
			name:    "fresh row",
			profile: Profile{DisplayName: DisplayNameUnset},
			want:    true,
		},
		{
			name:    "avatar only",
			profile: Profile{AvatarKey: "user1", DisplayName: DisplayNameUnset},
			want:    true,
		},
		{
			name:    "fields set but flag not flipped",
			profile: Profile{AvatarKey: "user1", DisplayName: "Mika"},
			want:    true,
		},
		{
			name:    "flag flipped but avatar missing",
			profile: Profile{DisplayName: "Mika", OnboardingCompleted: true},
			want:    true,
		},
		{
			name:    "flag flipped but name still sentinel",
			profile: Profile{AvatarKey: "user1", DisplayName: DisplayNameUnset, OnboardingCompleted: true},
			want:    true,
		},
		{
			name:    "fully onboarded",
			profile: Profile{AvatarKey: "user1", DisplayName: "Mika", OnboardingCompleted: true},
			want:    false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.profile.NeedsOnboarding())
		})
	}
}

func TestValidAvatarKey(t *testing.T) {
	for _, key := range AvatarKeys {
		assert.True(t, ValidAvatarKey(key), key)
	}
	assert.False(t, ValidAvatarKey(""))
	assert.False(t, ValidAvatarKey("user7"))
	assert.False(t, ValidAvatarKey("USER1"))
}

func TestValidateDisplayName(t *testing.T) {
	assert.NoError(t, ValidateDisplayName("Mika"))
	assert.NoError(t, ValidateDisplayName("abcdefghijkl")) // 12 chars

	assert.Error(t, ValidateDisplayName(""))
	assert.Error(t, ValidateDisplayName("abcdefghijklm")) // 13 chars
	assert.Error(t, ValidateDisplayName(DisplayNameUnset))

	// Multi-byte names are measured in runes, not bytes.
	assert.NoError(t, ValidateDisplayName("ほしのスパーク学習中です"))
	assert.Error(t, ValidateDisplayName("ほしのスパーク学習中ですよ"))
}
