package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"flexgen/auth-api/config"
	"flexgen/auth-api/internal/model"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const (
	googleIssuer      = "https://accounts.google.com"
	googleKeysURL     = "https://www.googleapis.com/oauth2/v3/certs"
	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

	facebookUserInfoURL = "https://graph.facebook.com/v18.0/me?fields=id,email,first_name,last_name,picture.type(large)"

	exchangeTimeout = 15 * time.Second
	maxProfileSize  = 1 << 20
)

var ErrEmailNotVerified = errors.New("provider reports the email as unverified")

// Profile is the identity a provider vouches for
type Profile struct {
	Provider  string
	ID        string
	Email     string
	FirstName string
	LastName  string
	Avatar    string
}

// Provider runs the authorization code flow against one OAuth provider
type Provider struct {
	Name        string
	DisplayName string

	oauth       *oauth2.Config
	userInfoURL string
	verifier    *oidc.IDTokenVerifier
	decode      func(body []byte) (*Profile, error)
}

type ProviderOption func(*Provider)

// WithEndpoints points the provider at other authorization, token and
// profile URLs. The ID token verifier is dropped since its keys belong to
// the real issuer.
func WithEndpoints(authURL, tokenURL, userInfoURL string) ProviderOption {
	return func(p *Provider) {
		p.oauth.Endpoint = oauth2.Endpoint{
			AuthURL:   authURL,
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		}
		p.userInfoURL = userInfoURL
		p.verifier = nil
	}
}

func NewGoogleProvider(c *config.OAuthClient, opts ...ProviderOption) *Provider {
	p := &Provider{
		Name:        model.ProviderGoogle,
		DisplayName: "Google",
		oauth: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.CallbackURL,
			Endpoint:     endpoints.Google,
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		userInfoURL: googleUserInfoURL,
		verifier: oidc.NewVerifier(
			googleIssuer,
			oidc.NewRemoteKeySet(context.Background(), googleKeysURL),
			&oidc.Config{ClientID: c.ClientID},
		),
		decode: decodeGoogleProfile,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func NewFacebookProvider(c *config.OAuthClient, opts ...ProviderOption) *Provider {
	p := &Provider{
		Name:        model.ProviderFacebook,
		DisplayName: "Facebook",
		oauth: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.CallbackURL,
			Endpoint:     endpoints.Facebook,
			Scopes:       []string{"email", "public_profile"},
		},
		userInfoURL: facebookUserInfoURL,
		decode:      decodeFacebookProfile,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// AuthURL returns the provider's consent page URL carrying state
func (p *Provider) AuthURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

// Exchange trades an authorization code for the user's profile. It makes
// a single attempt against each provider endpoint.
func (p *Provider) Exchange(ctx context.Context, code string) (*Profile, error) {
	if code == "" {
		return nil, errors.New("no authorization code provided")
	}

	ctx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()

	tok, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange %s authorization code, %w", p.Name, err)
	}

	// Google includes a signed ID token, its claims are preferred over
	// the userinfo endpoint
	if rawIDToken, ok := tok.Extra("id_token").(string); ok && rawIDToken != "" && p.verifier != nil {
		idToken, err := p.verifier.Verify(ctx, rawIDToken)
		if err != nil {
			return nil, fmt.Errorf("failed to verify %s id token, %w", p.Name, err)
		}

		var claims googleClaims
		if err := idToken.Claims(&claims); err != nil {
			return nil, fmt.Errorf("failed to read %s id token claims, %w", p.Name, err)
		}

		return claims.profile()
	}

	resp, err := p.oauth.Client(ctx, tok).Get(p.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s profile, %w", p.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s profile, status %d", p.Name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s profile, %w", p.Name, err)
	}

	return p.decode(body)
}

type googleClaims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

func (c *googleClaims) profile() (*Profile, error) {
	if c.Subject == "" {
		return nil, errors.New("google profile has no subject")
	}

	if c.Email != "" && c.EmailVerified != nil && !*c.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	return &Profile{
		Provider:  model.ProviderGoogle,
		ID:        c.Subject,
		Email:     c.Email,
		FirstName: c.GivenName,
		LastName:  c.FamilyName,
		Avatar:    c.Picture,
	}, nil
}

func decodeGoogleProfile(body []byte) (*Profile, error) {
	var c googleClaims
	if err := json.Unmarshal(body, &c); err != nil {
		return nil, fmt.Errorf("failed to decode google profile, %w", err)
	}

	return c.profile()
}

func decodeFacebookProfile(body []byte) (*Profile, error) {
	var fb struct {
		ID        string `json:"id"`
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Picture   struct {
			Data struct {
				URL string `json:"url"`
			} `json:"data"`
		} `json:"picture"`
	}

	if err := json.Unmarshal(body, &fb); err != nil {
		return nil, fmt.Errorf("failed to decode facebook profile, %w", err)
	}

	if fb.ID == "" {
		return nil, errors.New("facebook profile has no id")
	}

	return &Profile{
		Provider:  model.ProviderFacebook,
		ID:        fb.ID,
		Email:     fb.Email,
		FirstName: fb.FirstName,
		LastName:  fb.LastName,
		Avatar:    fb.Picture.Data.URL,
	}, nil
}

// Providers holds the configured providers by name. A missing entry means
// the provider isn't configured.
type Providers map[string]*Provider

// NewProviders builds the providers that have credentials in c
func NewProviders(c *config.Config) Providers {
	p := Providers{}

	if c.Google != nil {
		p[model.ProviderGoogle] = NewGoogleProvider(c.Google)
	}

	if c.Facebook != nil {
		p[model.ProviderFacebook] = NewFacebookProvider(c.Facebook)
	}

	return p
}

// Names returns the configured provider names in a stable order
func (p Providers) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}

	slices.Sort(names)
	return names
}
