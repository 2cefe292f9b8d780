package usecase

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"spark-service/internal/domain"
	"spark-service/pkg/kafka"
	"spark-service/pkg/xerrors"
)

// OnboardingUsecase owns the three step mutations. Each one is a
// single atomic write and tolerates re-entry; routing between steps is
// the gate's job, not this layer's.
type OnboardingUsecase struct {
	profiles ProfileStore
	producer EventPublisher
}

func NewOnboardingUsecase(profiles ProfileStore, producer EventPublisher) *OnboardingUsecase {
	return &OnboardingUsecase{profiles: profiles, producer: producer}
}

func (uc *OnboardingUsecase) Profile(ctx context.Context, userID string) (*domain.Profile, error) {
	return uc.profiles.GetProfile(ctx, userID)
}

// SelectAvatar records the chosen avatar, creating the profile row for
// a first-time identity. Overwriting an earlier choice is fine.
func (uc *OnboardingUsecase) SelectAvatar(ctx context.Context, userID, email, avatarKey string) (*domain.Profile, error) {
	if avatarKey == "" {
		return nil, xerrors.ErrAvatarRequired
	}
	if !domain.ValidAvatarKey(avatarKey) {
		return nil, xerrors.ErrUnknownAvatar
	}

	if _, err := uc.profiles.EnsureProfile(ctx, userID, email); err != nil {
		return nil, err
	}
	if err := uc.profiles.UpdateAvatar(ctx, userID, avatarKey); err != nil {
		return nil, err
	}
	return uc.profiles.GetProfile(ctx, userID)
}

// SetDisplayName validates and writes the display name. The taken
// pre-check gives a friendly error; the store's unique constraint is
// the arbiter when two writers race past it.
func (uc *OnboardingUsecase) SetDisplayName(ctx context.Context, userID, name string) error {
	if err := domain.ValidateDisplayName(name); err != nil {
		return err
	}

	taken, err := uc.profiles.IsDisplayNameTaken(ctx, name, userID)
	if err != nil {
		return err
	}
	if taken {
		return xerrors.ErrDisplayNameTaken
	}

	return uc.profiles.UpdateDisplayName(ctx, userID, name)
}

// Complete flips the completion flag. The store refuses unless avatar
// and a real name are present, so a crashed name step can never leave
// a completed-but-empty profile behind.
func (uc *OnboardingUsecase) Complete(ctx context.Context, userID string) (*domain.Profile, error) {
	if err := uc.profiles.CompleteOnboarding(ctx, userID); err != nil {
		return nil, err
	}

	p, err := uc.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if uc.producer != nil {
		ev := &kafka.AuthEvent{
			EventID:    uuid.NewString(),
			UserID:     p.ID,
			Email:      p.Email,
			OccurredAt: time.Now(),
		}
		go func() {
			if err := uc.producer.PublishOnboardingCompleted(context.Background(), ev); err != nil {
				log.Printf("[OnboardingUsecase] completion event publish failed: %v", err)
			}
		}()
	}

	return p, nil
}
