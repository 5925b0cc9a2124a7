package activity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rebeat_backend/internal/provider"
	"rebeat_backend/internal/token"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubTokenRepo hands back a single never-expiring access token.
type stubTokenRepo struct {
	access string
}

func (s *stubTokenRepo) Upsert(_ context.Context, userID uuid.UUID, providerName, accessToken, refreshToken string, expiresAt *time.Time) (*token.Token, error) {
	return &token.Token{UserID: userID, Provider: providerName, AccessToken: accessToken}, nil
}

func (s *stubTokenRepo) Get(_ context.Context, userID uuid.UUID, providerName string) (*token.Token, error) {
	return &token.Token{UserID: userID, Provider: providerName, AccessToken: s.access}, nil
}

func (s *stubTokenRepo) ListExpiringBefore(_ context.Context, _ time.Time) ([]token.Token, error) {
	return nil, nil
}

func newTestService(access string) *Service {
	tokens := token.NewService(&stubTokenRepo{access: access}, provider.NewRegistry(), zap.NewNop())
	return NewService(tokens, zap.NewNop())
}

func TestLatestRun(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer st-access", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/athlete/activities":
			assert.Equal(t, "1", r.URL.Query().Get("per_page"))
			w.Write([]byte(`[{"id":99,"name":"Morning Run"}]`))
		case "/activities/99":
			w.Write([]byte(`{"id":99,"name":"Morning Run","distance":5012.3,"moving_time":1500,"elapsed_time":1600,"start_date":"2026-08-30T07:00:00Z","description":"negative splits"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	origAPIURL := StravaAPIURL
	StravaAPIURL = server.URL
	defer func() { StravaAPIURL = origAPIURL }()

	svc := newTestService("st-access")
	run, err := svc.LatestRun(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.EqualValues(t, 99, run.ID)
	assert.Equal(t, "Morning Run", run.Name)
	assert.Equal(t, "negative splits", run.Description)
	assert.Equal(t, 1600, run.ElapsedTime)
	assert.Equal(t, "https://www.strava.com/activities/99", run.URL)
}

func TestLatestRun_NoActivities(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	origAPIURL := StravaAPIURL
	StravaAPIURL = server.URL
	defer func() { StravaAPIURL = origAPIURL }()

	svc := newTestService("st-access")
	_, err := svc.LatestRun(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNoActivities)
}

func TestAppendDescription_PreservesExistingText(t *testing.T) {
	var updated map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"id":99,"description":"negative splits"}`))
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&updated))
			w.Write([]byte(`{"id":99}`))
		}
	}))
	defer server.Close()

	origAPIURL := StravaAPIURL
	StravaAPIURL = server.URL
	defer func() { StravaAPIURL = origAPIURL }()

	svc := newTestService("st-access")
	err := svc.AppendDescription(context.Background(), uuid.New(), 99, "Soundtrack: https://open.spotify.com/playlist/p1")
	require.NoError(t, err)
	assert.Equal(t, "negative splits\nSoundtrack: https://open.spotify.com/playlist/p1", updated["description"])
}
