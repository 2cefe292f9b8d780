// Package identity is the narrow client for the external identity
// provider: authorization-code exchange, resource-owner password
// sign-in, and signup. Session issuance stays on our side; this
// package only resolves "who is this".
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"spark-service/internal/config"
	"spark-service/internal/domain"
	"spark-service/pkg/xerrors"
)

type Provider struct {
	oauth      oauth2.Config
	jwksURL    string
	signupURL  string
	httpClient *http.Client
}

func NewProvider(cfg config.ProviderConfig) *Provider {
	return &Provider{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
		jwksURL:    cfg.JWKSURL,
		signupURL:  cfg.SignupURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// AuthCodeURL builds the provider authorize URL for the given state
// nonce.
func (p *Provider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

// ExchangeCode trades the authorization code for tokens and resolves
// the identity from the provider-signed ID token. A failure here is
// terminal for the request; callers redirect, never retry.
func (p *Provider) ExchangeCode(ctx context.Context, code string) (*domain.Identity, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", xerrors.ErrAuthExchange, err)
	}

	rawIDToken, _ := token.Extra("id_token").(string)
	if rawIDToken == "" {
		return nil, fmt.Errorf("%w: provider returned no id_token", xerrors.ErrAuthExchange)
	}

	claims, err := verifyIDToken(ctx, rawIDToken, p.jwksURL, p.oauth.ClientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", xerrors.ErrAuthExchange, err)
	}

	return &domain.Identity{ID: claims.Sub, Email: claims.Email}, nil
}

// PasswordSignIn performs the resource-owner password grant. Password
// verification and hashing live entirely on the provider.
func (p *Provider) PasswordSignIn(ctx context.Context, email, password string) (*domain.Identity, error) {
	token, err := p.oauth.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		return nil, xerrors.ErrInvalidCredentials
	}

	rawIDToken, _ := token.Extra("id_token").(string)
	if rawIDToken == "" {
		return nil, xerrors.ErrInvalidCredentials
	}

	claims, err := verifyIDToken(ctx, rawIDToken, p.jwksURL, p.oauth.ClientID)
	if err != nil {
		return nil, xerrors.ErrInvalidCredentials
	}

	return &domain.Identity{ID: claims.Sub, Email: claims.Email}, nil
}

// SignUp registers a new account with the provider, then signs in to
// obtain the subject id.
func (p *Provider) SignUp(ctx context.Context, email, password string) (*domain.Identity, error) {
	if p.signupURL == "" {
		return nil, fmt.Errorf("signup endpoint not configured")
	}

	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.signupURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("provider signup failed: %s", resp.Status)
	}

	return p.PasswordSignIn(ctx, email, password)
}
