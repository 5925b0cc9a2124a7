package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"rebeat_backend/internal/config"

	"golang.org/x/oauth2"
)

// Spotify endpoint URLs. Variables so tests can point them at a local server.
var (
	SpotifyAuthURL    = "https://accounts.spotify.com/authorize"
	SpotifyTokenURL   = "https://accounts.spotify.com/api/token"
	SpotifyProfileURL = "https://api.spotify.com/v1/me"
)

const spotifyScopes = "user-read-private user-read-email playlist-modify-private user-read-recently-played"

// SpotifyProvider implements Provider for the Spotify Web API. Spotify expects
// client credentials in a Basic auth header on token requests.
type SpotifyProvider struct {
	oauth *oauth2.Config
}

// NewSpotify creates a Spotify provider from application configuration.
func NewSpotify(cfg *config.Config) *SpotifyProvider {
	return &SpotifyProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.SpotifyClientID,
			ClientSecret: cfg.SpotifyClientSecret,
			RedirectURL:  cfg.BaseURL + "/spotify/callback",
			Scopes: []string{
				"user-read-private",
				"user-read-email",
				"playlist-modify-private",
				"user-read-recently-played",
			},
			Endpoint: oauth2.Endpoint{
				AuthURL:   SpotifyAuthURL,
				TokenURL:  SpotifyTokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
	}
}

func (p *SpotifyProvider) Name() string { return Spotify }

func (p *SpotifyProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

func (p *SpotifyProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: spotify: %s", ErrExchangeFailed, err)
	}
	if !token.Valid() {
		return nil, fmt.Errorf("%w: spotify returned an invalid token", ErrExchangeFailed)
	}
	return token, nil
}

func (p *SpotifyProvider) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	source := p.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: spotify refresh: %s", ErrExchangeFailed, err)
	}
	return token, nil
}

// Identity fetches the account profile and returns its Spotify user ID.
func (p *SpotifyProvider) Identity(ctx context.Context, token *oauth2.Token) (string, error) {
	client := p.oauth.Client(ctx, token)
	resp, err := client.Get(SpotifyProfileURL)
	if err != nil {
		return "", fmt.Errorf("%w: spotify: %s", ErrProfileFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: spotify returned status %d", ErrProfileFetchFailed, resp.StatusCode)
	}

	var profile struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return "", fmt.Errorf("%w: spotify: %s", ErrProfileFetchFailed, err)
	}
	if profile.ID == "" {
		return "", fmt.Errorf("%w: spotify profile has no id", ErrMissingExternalID)
	}
	return profile.ID, nil
}
