package usecase

import (
	"context"

	"spark-service/internal/domain"
	"spark-service/pkg/kafka"
)

// ProfileStore is the persistence capability the usecases consume.
// *repository.ProfileRepository satisfies it; tests substitute fakes.
type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (*domain.Profile, error)
	EnsureProfile(ctx context.Context, id, email string) (*domain.Profile, error)
	UpdateAvatar(ctx context.Context, id, avatarKey string) error
	UpdateDisplayName(ctx context.Context, id, name string) error
	IsDisplayNameTaken(ctx context.Context, name, excludeID string) (bool, error)
	CompleteOnboarding(ctx context.Context, id string) error
}

// AuthProvider is the external identity-provider capability.
type AuthProvider interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*domain.Identity, error)
	PasswordSignIn(ctx context.Context, email, password string) (*domain.Identity, error)
	SignUp(ctx context.Context, email, password string) (*domain.Identity, error)
}

// EventPublisher fans auth milestones out to the event bus. Publishing
// is always best-effort; no request blocks on it.
type EventPublisher interface {
	PublishSignIn(ctx context.Context, ev *kafka.AuthEvent) error
	PublishOnboardingCompleted(ctx context.Context, ev *kafka.AuthEvent) error
}
