package xerrors

import "errors"
import "github.com/jackc/pgx/v5/pgconn"

func ParsePGErrorCode(err error) string {
	if pgErr, ok := err.(*pgconn.PgError); ok {
		return pgErr.Code // e.g. 23505 for unique_violation
	}
	return "unknown"
}

// Generic
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalServer = errors.New("internal server error")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
)

// Profile store
var (
	ErrProfileNotFound      = errors.New("profile not found")
	ErrDisplayNameTaken     = errors.New("display name already taken")
	ErrOnboardingIncomplete = errors.New("onboarding requirements not met")
)

// Display name validation
var (
	ErrNameRequired = errors.New("display name required")
	ErrNameTooLong  = errors.New("display name must be 12 characters or fewer")
	ErrNameReserved = errors.New("display name is reserved")
)

// Avatar selection
var (
	ErrAvatarRequired = errors.New("avatar key required")
	ErrUnknownAvatar  = errors.New("unknown avatar key")
)

// Identity provider
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAuthExchange       = errors.New("authorization code exchange failed")
	ErrInvalidState       = errors.New("invalid or expired oauth state")
	ErrIdentityRequired   = errors.New("identity required")
)

// Session
var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("expired token")
	ErrSessionRevoked = errors.New("session revoked")
)
