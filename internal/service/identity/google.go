package identity

import (
	"context"

	"google.golang.org/api/idtoken"

	"spark-service/internal/domain"
)

// VerifyGoogleToken resolves an identity from a Google-issued ID token
// handed over by a native client (one-tap / mobile sign-in), bypassing
// the code-exchange flow.
func VerifyGoogleToken(ctx context.Context, token string, clientID string) (*domain.Identity, error) {
	payload, err := idtoken.Validate(ctx, token, clientID)
	if err != nil {
		return nil, err
	}
	email, _ := payload.Claims["email"].(string)
	sub, _ := payload.Claims["sub"].(string)

	return &domain.Identity{ID: sub, Email: email}, nil
}
