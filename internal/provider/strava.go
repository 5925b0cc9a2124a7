package provider

import (
	"context"
	"fmt"
	"strconv"

	"rebeat_backend/internal/config"

	"golang.org/x/oauth2"
)

// Strava endpoint URLs. Variables so tests can point them at a local server.
var (
	StravaAuthURL  = "https://www.strava.com/oauth/authorize"
	StravaTokenURL = "https://www.strava.com/oauth/token"
)

// StravaProvider implements Provider for the Strava API. Strava expects
// client credentials in the form body of token requests, and returns the
// athlete object inline with the code-exchange response.
type StravaProvider struct {
	oauth *oauth2.Config
}

// NewStrava creates a Strava provider from application configuration.
func NewStrava(cfg *config.Config) *StravaProvider {
	return &StravaProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.StravaClientID,
			ClientSecret: cfg.StravaClientSecret,
			RedirectURL:  cfg.BaseURL + "/strava/callback",
			// Strava wants a single comma-separated scope value.
			Scopes: []string{"activity:read_all,activity:write"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   StravaAuthURL,
				TokenURL:  StravaTokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
}

func (p *StravaProvider) Name() string { return Strava }

func (p *StravaProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("approval_prompt", "auto"))
}

func (p *StravaProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: strava: %s", ErrExchangeFailed, err)
	}
	if !token.Valid() {
		return nil, fmt.Errorf("%w: strava returned an invalid token", ErrExchangeFailed)
	}
	return token, nil
}

func (p *StravaProvider) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	source := p.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: strava refresh: %s", ErrExchangeFailed, err)
	}
	return token, nil
}

// Identity reads the athlete ID embedded in the code-exchange response.
// Strava has no separate profile call in this flow.
func (p *StravaProvider) Identity(ctx context.Context, token *oauth2.Token) (string, error) {
	athlete, ok := token.Extra("athlete").(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("%w: strava token response has no athlete", ErrMissingExternalID)
	}
	// JSON numbers decode as float64.
	id, ok := athlete["id"].(float64)
	if !ok || id == 0 {
		return "", fmt.Errorf("%w: strava athlete has no id", ErrMissingExternalID)
	}
	return strconv.FormatInt(int64(id), 10), nil
}
