package jwtutil

import (
	"crypto/rsa"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Signer struct {
	priv     *rsa.PrivateKey
	issuer   string
	audience string
	ttl      time.Duration
}

func NewSigner(priv *rsa.PrivateKey, issuer, audience string, ttl time.Duration) *Signer {
	return &Signer{
		priv:     priv,
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
	}
}

// Sign mints an RS256 session token for the given identity and device.
func (s *Signer) Sign(userID, device, email string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Device: device,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(s.priv)
}

func (s *Signer) TTL() time.Duration {
	return s.ttl
}
