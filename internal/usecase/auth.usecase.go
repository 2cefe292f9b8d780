package usecase

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"spark-service/internal/domain"
	"spark-service/pkg/cache"
	"spark-service/pkg/jwtutil"
	"spark-service/pkg/kafka"
	"spark-service/pkg/xerrors"
)

const (
	nsSessionTokens = "session_tokens"
	nsOAuthState    = "oauth_state"

	oauthStateTTL = 10 * time.Minute
)

type AuthUsecase struct {
	provider AuthProvider
	signer   *jwtutil.Signer
	cache    *cache.Cache
	producer EventPublisher
}

func NewAuthUsecase(provider AuthProvider, signer *jwtutil.Signer, c *cache.Cache, producer EventPublisher) *AuthUsecase {
	return &AuthUsecase{
		provider: provider,
		signer:   signer,
		cache:    c,
		producer: producer,
	}
}

// LoginURL mints a single-use state nonce and returns the provider
// authorize URL carrying it.
func (uc *AuthUsecase) LoginURL(ctx context.Context) (string, error) {
	state := uuid.NewString()
	if err := uc.cache.Set(ctx, nsOAuthState, state, "1", oauthStateTTL); err != nil {
		return "", err
	}
	return uc.provider.AuthCodeURL(state), nil
}

// ConsumeState validates and burns a state nonce from a callback.
func (uc *AuthUsecase) ConsumeState(ctx context.Context, state string) error {
	if state == "" {
		return xerrors.ErrInvalidState
	}
	if _, err := uc.cache.GetDel(ctx, nsOAuthState, state); err != nil {
		return xerrors.ErrInvalidState
	}
	return nil
}

func (uc *AuthUsecase) ExchangeCode(ctx context.Context, code string) (*domain.Identity, error) {
	return uc.provider.ExchangeCode(ctx, code)
}

func (uc *AuthUsecase) SignInWithPassword(ctx context.Context, email, password string) (*domain.Identity, error) {
	if email == "" || password == "" {
		return nil, xerrors.ErrInvalidCredentials
	}
	return uc.provider.PasswordSignIn(ctx, email, password)
}

func (uc *AuthUsecase) Register(ctx context.Context, email, password string) (*domain.Identity, error) {
	if email == "" || password == "" {
		return nil, xerrors.ErrInvalidRequest
	}
	return uc.provider.SignUp(ctx, email, password)
}

// IssueSession signs a session token for the identity and mirrors it to
// redis so it can be revoked. A mirror write failure is a soft failure:
// the token is still valid, revocation just degrades.
func (uc *AuthUsecase) IssueSession(ctx context.Context, ident *domain.Identity, deviceID string) (*domain.Session, error) {
	if ident == nil || ident.ID == "" {
		return nil, xerrors.ErrIdentityRequired
	}

	if deviceID == "" {
		deviceID = uuid.NewString()
	}

	token, err := uc.signer.Sign(ident.ID, deviceID, ident.Email)
	if err != nil {
		return nil, err
	}

	if err := uc.cache.Set(ctx, nsSessionTokens, ident.ID+":"+deviceID, token, uc.signer.TTL()); err != nil {
		log.Printf("[AuthUsecase] session mirror write failed for user %s: %v", ident.ID, err)
	}

	now := time.Now()
	return &domain.Session{
		UserID:    ident.ID,
		AuthToken: token,
		DeviceID:  deviceID,
		CreatedAt: now,
		ExpiresAt: now.Add(uc.signer.TTL()),
	}, nil
}

// RevokeSession overwrites the redis mirror with a tombstone. The
// oracle reads that as a token mismatch and reports Absent until the
// JWT itself expires; a plain delete would look like a lost mirror and
// be forgiven.
func (uc *AuthUsecase) RevokeSession(ctx context.Context, userID, deviceID string) error {
	return uc.cache.Set(ctx, nsSessionTokens, userID+":"+deviceID, "revoked", uc.signer.TTL())
}

// NotifySignIn publishes the sign-in event in the background.
func (uc *AuthUsecase) NotifySignIn(ident *domain.Identity, method string) {
	if uc.producer == nil {
		return
	}
	ev := &kafka.AuthEvent{
		EventID:    uuid.NewString(),
		UserID:     ident.ID,
		Email:      ident.Email,
		Method:     method,
		OccurredAt: time.Now(),
	}
	go func() {
		if err := uc.producer.PublishSignIn(context.Background(), ev); err != nil {
			log.Printf("[AuthUsecase] sign-in event publish failed: %v", err)
		}
	}()
}
