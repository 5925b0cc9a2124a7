package playlist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"rebeat_backend/internal/provider"
	"rebeat_backend/internal/token"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

// SpotifyAPIURL is the base URL of the Spotify Web API. Variable so tests can
// point it at a local server.
var SpotifyAPIURL = "https://api.spotify.com/v1"

// ErrNoTracks is returned when nothing was played during the requested window.
var ErrNoTracks = errors.New("no tracks played in window")

// PlayedTrack is one entry from the listening history.
type PlayedTrack struct {
	URI      string
	PlayedAt time.Time
}

// Service builds Spotify playlists from the user's listening history.
type Service struct {
	tokens *token.Service
	client *http.Client
	logger *zap.Logger
}

// NewService creates a new playlist service.
func NewService(tokens *token.Service, logger *zap.Logger) *Service {
	return &Service{
		tokens: tokens,
		client: &http.Client{Timeout: 15 * time.Second},
		logger: logger.Named("PlaylistService"),
	}
}

// BuildForWindow creates a private playlist holding everything the user
// listened to between start and end, named after the given title and date.
// It returns the playlist's public URL.
func (s *Service) BuildForWindow(ctx context.Context, userID uuid.UUID, spotifyUserID, title string, start, end time.Time) (string, error) {
	accessToken, err := s.tokens.GetValidAccessToken(ctx, userID, provider.Spotify)
	if err != nil {
		return "", err
	}

	tracks, err := s.recentlyPlayed(ctx, accessToken, start)
	if err != nil {
		return "", err
	}

	uris := make([]string, 0, len(tracks))
	for _, t := range tracks {
		if t.PlayedAt.After(end) {
			continue
		}
		uris = append(uris, t.URI)
	}
	if len(uris) == 0 {
		return "", ErrNoTracks
	}

	name := fmt.Sprintf("%s-%s", slug.Make(title), start.Format("2006-01-02"))
	playlistID, err := s.createPlaylist(ctx, accessToken, spotifyUserID, name)
	if err != nil {
		return "", err
	}
	if err := s.addTracks(ctx, accessToken, playlistID, uris); err != nil {
		return "", err
	}

	s.logger.Info("Built playlist",
		zap.String("userID", userID.String()),
		zap.String("playlistID", playlistID),
		zap.Int("tracks", len(uris)))

	return fmt.Sprintf("https://open.spotify.com/playlist/%s", playlistID), nil
}

func (s *Service) recentlyPlayed(ctx context.Context, accessToken string, after time.Time) ([]PlayedTrack, error) {
	url := fmt.Sprintf("%s/me/player/recently-played?limit=50&after=%d", SpotifyAPIURL, after.UnixMilli())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching listening history: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching listening history: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Items []struct {
			PlayedAt time.Time `json:"played_at"`
			Track    struct {
				URI string `json:"uri"`
			} `json:"track"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	tracks := make([]PlayedTrack, 0, len(payload.Items))
	for _, item := range payload.Items {
		tracks = append(tracks, PlayedTrack{URI: item.Track.URI, PlayedAt: item.PlayedAt})
	}
	return tracks, nil
}

func (s *Service) createPlaylist(ctx context.Context, accessToken, spotifyUserID, name string) (string, error) {
	body, err := json.Marshal(map[string]interface{}{
		"name":   name,
		"public": false,
	})
	if err != nil {
		return "", err
	}
	url := fmt.Sprintf("%s/users/%s/playlists", SpotifyAPIURL, spotifyUserID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("creating playlist: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("creating playlist: unexpected status %d", resp.StatusCode)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", err
	}
	return created.ID, nil
}

func (s *Service) addTracks(ctx context.Context, accessToken, playlistID string, uris []string) error {
	body, err := json.Marshal(map[string]interface{}{"uris": uris})
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/playlists/%s/tracks", SpotifyAPIURL, playlistID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("adding tracks: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("adding tracks: unexpected status %d", resp.StatusCode)
	}
	return nil
}
