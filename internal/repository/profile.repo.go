package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"spark-service/internal/domain"
	"spark-service/pkg/xerrors"
)

const pgUniqueViolation = "23505"

type ProfileRepository struct {
	db *pgxpool.Pool
}

func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// ============================================
// SCAN HELPERS
// ============================================

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var p domain.Profile
	var avatarKey *string
	err := row.Scan(
		&p.ID,
		&p.Email,
		&p.DisplayName,
		&avatarKey,
		&p.OnboardingCompleted,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	if avatarKey != nil {
		p.AvatarKey = *avatarKey
	}
	return &p, nil
}

const profileColumns = `id, email, display_name, avatar_key, onboarding_completed, created_at, updated_at`

// GetProfile is a pure read; it never creates rows. Row creation
// belongs to EnsureProfile, driven by the first onboarding mutation.
func (r *ProfileRepository) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM profiles
		WHERE id = $1
	`, id)
	return scanProfile(row)
}

// EnsureProfile inserts the row for a first-time identity with the
// sentinel display name, or returns the existing row untouched.
func (r *ProfileRepository) EnsureProfile(ctx context.Context, id, email string) (*domain.Profile, error) {
	_, err := r.db.Exec(ctx, `
		INSERT INTO profiles (id, email, display_name, onboarding_completed, created_at, updated_at)
		VALUES ($1, $2, $3, FALSE, NOW(), NOW())
		ON CONFLICT (id) DO NOTHING
	`, id, email, domain.DisplayNameUnset)
	if err != nil {
		return nil, err
	}
	return r.GetProfile(ctx, id)
}

func (r *ProfileRepository) UpdateAvatar(ctx context.Context, id, avatarKey string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE profiles
		SET avatar_key = $2, updated_at = NOW()
		WHERE id = $1
	`, id, avatarKey)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrProfileNotFound
	}
	return nil
}

// UpdateDisplayName relies on the partial unique index over non-sentinel
// names as the authoritative uniqueness arbiter; a 23505 surfaces as the
// same conflict the pre-check reports.
func (r *ProfileRepository) UpdateDisplayName(ctx context.Context, id, name string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE profiles
		SET display_name = $2, updated_at = NOW()
		WHERE id = $1
	`, id, name)
	if err != nil {
		if xerrors.ParsePGErrorCode(err) == pgUniqueViolation {
			return xerrors.ErrDisplayNameTaken
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrProfileNotFound
	}
	return nil
}

// IsDisplayNameTaken is the friendly pre-check. It races with
// concurrent writers; the unique index is the backstop.
func (r *ProfileRepository) IsDisplayNameTaken(ctx context.Context, name, excludeID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM profiles
			WHERE display_name = $1 AND id <> $2
		)
	`, name, excludeID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// CompleteOnboarding flips the flag only when the field invariant holds:
// avatar chosen and a real display name set. The guarded WHERE clause
// keeps a racing partial write from ever producing a completed profile
// with missing fields.
func (r *ProfileRepository) CompleteOnboarding(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE profiles
		SET onboarding_completed = TRUE, updated_at = NOW()
		WHERE id = $1
		  AND avatar_key IS NOT NULL
		  AND display_name <> ''
		  AND display_name <> $2
	`, id, domain.DisplayNameUnset)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Either no row or the fields are not ready; look to tell apart.
		if _, getErr := r.GetProfile(ctx, id); getErr != nil {
			return getErr
		}
		return xerrors.ErrOnboardingIncomplete
	}
	return nil
}
