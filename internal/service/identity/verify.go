package identity

import (
	"context"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

type idClaims struct {
	Sub   string
	Email string
}

// verifyIDToken validates signature + standard claims against the
// provider's JWKS, then checks the audience.
func verifyIDToken(ctx context.Context, idToken, jwksURL, clientID string) (*idClaims, error) {
	keyset, err := jwk.Fetch(ctx, jwksURL)
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}

	t, err := jwt.ParseString(idToken, jwt.WithKeySet(keyset), jwt.WithValidate(true))
	if err != nil {
		return nil, fmt.Errorf("parse/validate id_token: %w", err)
	}

	found := false
	for _, aud := range t.Audience() {
		if aud == clientID {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("invalid audience")
	}

	email, _ := t.Get("email")
	return &idClaims{Sub: t.Subject(), Email: str(email)}, nil
}

func str(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
