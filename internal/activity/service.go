package activity

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
	"go.uber.org/zap"
)

// StravaAPIURL is the base URL of the Strava REST API. Variable so tests can
// point it at a local server.
var StravaAPIURL = "https://www.strava.com/api/v3"

// ErrNoActivities is returned when the athlete has no recorded activities.
var ErrNoActivities = errors.New("no activities recorded")

// Run is a single Strava activity with the fields the app cares about.
type Run struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Distance    float64   `json:"distance"`
	MovingTime  int       `json:"moving_time"`
	ElapsedTime int       `json:"elapsed_time"`
	StartDate   time.Time `json:"start_date"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
}

// Service reads and annotates the user's Strava activities.
type Service struct {
	tokens *token.Service
	client *http.Client
	logger *zap.Logger
}

// NewService creates a new activity service.
func NewService(tokens *token.Service, logger *zap.Logger) *Service {
	return &Service{
		tokens: tokens,
		client: &http.Client{Timeout: 15 * time.Second},
		logger: logger.Named("ActivityService"),
	}
}

// LatestRun fetches the user's most recent activity, including its
// description, which the list endpoint does not return.
func (s *Service) LatestRun(ctx context.Context, userID uuid.UUID) (*Run, error) {
	accessToken, err := s.tokens.GetValidAccessToken(ctx, userID, provider.Strava)
	if err != nil {
		return nil, err
	}

	var summaries []Run
	url := fmt.Sprintf("%s/athlete/activities?per_page=1", StravaAPIURL)
	if err := s.getJSON(ctx, accessToken, url, &summaries); err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, ErrNoActivities
	}

	var run Run
	url = fmt.Sprintf("%s/activities/%d", StravaAPIURL, summaries[0].ID)
	if err := s.getJSON(ctx, accessToken, url, &run); err != nil {
		return nil, err
	}
	run.URL = fmt.Sprintf("https://www.strava.com/activities/%d", run.ID)
	return &run, nil
}

// AppendDescription adds a line to the activity's description, preserving
// whatever text is already there.
func (s *Service) AppendDescription(ctx context.Context, userID uuid.UUID, activityID int64, line string) error {
	accessToken, err := s.tokens.GetValidAccessToken(ctx, userID, provider.Strava)
	if err != nil {
		return err
	}

	var run Run
	url := fmt.Sprintf("%s/activities/%d", StravaAPIURL, activityID)
	if err := s.getJSON(ctx, accessToken, url, &run); err != nil {
		return err
	}

	description := line
	if run.Description != "" {
		description = run.Description + "\n" + line
	}

	body, err := json.Marshal(map[string]string{"description": description})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("updating activity %d: %w", activityID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("updating activity %d: unexpected status %d", activityID, resp.StatusCode)
	}
	return nil
}

func (s *Service) getJSON(ctx context.Context, accessToken, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling strava: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("calling strava: unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
