package token

import (
	"context"
	"errors"
	"testing"
	"time"

	"rebeat_backend/internal/common"
	"rebeat_backend/internal/provider"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

type mockRepository struct {
	records   map[string]*Token
	upsertErr error
}

func newMockRepository() *mockRepository {
	return &mockRepository{records: make(map[string]*Token)}
}

func key(userID uuid.UUID, providerName string) string {
	return userID.String() + "/" + providerName
}

func (m *mockRepository) Upsert(_ context.Context, userID uuid.UUID, providerName, accessToken, refreshToken string, expiresAt *time.Time) (*Token, error) {
	if m.upsertErr != nil {
		return nil, m.upsertErr
	}
	rec, ok := m.records[key(userID, providerName)]
	if !ok {
		rec = &Token{UserID: userID, Provider: providerName}
		m.records[key(userID, providerName)] = rec
	}
	rec.AccessToken = accessToken
	if refreshToken != "" {
		rec.RefreshToken = &refreshToken
	}
	if expiresAt != nil {
		rec.ExpiresAt = expiresAt
	}
	return rec, nil
}

func (m *mockRepository) Get(_ context.Context, userID uuid.UUID, providerName string) (*Token, error) {
	rec, ok := m.records[key(userID, providerName)]
	if !ok {
		return nil, common.ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

func (m *mockRepository) ListExpiringBefore(_ context.Context, t time.Time) ([]Token, error) {
	var out []Token
	for _, rec := range m.records {
		if rec.ExpiresAt != nil && rec.ExpiresAt.Before(t) {
			out = append(out, *rec)
		}
	}
	return out, nil
}

type fakeProvider struct {
	name         string
	refreshCalls int
	refreshErr   error
	refreshed    *oauth2.Token
}

func (f *fakeProvider) Name() string                { return f.name }
func (f *fakeProvider) AuthCodeURL(_ string) string { return "https://provider.example/authorize" }

func (f *fakeProvider) Exchange(_ context.Context, _ string) (*oauth2.Token, error) {
	return nil, errors.New("not used")
}

func (f *fakeProvider) Refresh(_ context.Context, _ string) (*oauth2.Token, error) {
	f.refreshCalls++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.refreshed, nil
}

func (f *fakeProvider) Identity(_ context.Context, _ *oauth2.Token) (string, error) {
	return "", errors.New("not used")
}

func newTestService(repo Repository, p provider.Provider, now time.Time) *Service {
	svc := NewService(repo, provider.NewRegistry(p), zap.NewNop())
	svc.now = func() time.Time { return now }
	return svc
}

func TestGetValidAccessToken_NotLinked(t *testing.T) {
	svc := newTestService(newMockRepository(), &fakeProvider{name: provider.Spotify}, time.Now())

	_, err := svc.GetValidAccessToken(context.Background(), uuid.New(), provider.Spotify)
	assert.ErrorIs(t, err, ErrNotLinked)
}

func TestGetValidAccessToken_FreshTokenSkipsRefresh(t *testing.T) {
	now := time.Now()
	repo := newMockRepository()
	p := &fakeProvider{name: provider.Spotify}
	svc := newTestService(repo, p, now)
	userID := uuid.New()

	future := now.Add(30 * time.Minute)
	_, err := repo.Upsert(context.Background(), userID, provider.Spotify, "fresh-access", "r", &future)
	require.NoError(t, err)

	access, err := svc.GetValidAccessToken(context.Background(), userID, provider.Spotify)
	require.NoError(t, err)
	assert.Equal(t, "fresh-access", access)
	assert.Zero(t, p.refreshCalls)
}

func TestGetValidAccessToken_NoExpiryNeverRefreshes(t *testing.T) {
	now := time.Now()
	repo := newMockRepository()
	p := &fakeProvider{name: provider.Strava}
	svc := newTestService(repo, p, now)
	userID := uuid.New()

	_, err := repo.Upsert(context.Background(), userID, provider.Strava, "eternal-access", "r", nil)
	require.NoError(t, err)

	access, err := svc.GetValidAccessToken(context.Background(), userID, provider.Strava)
	require.NoError(t, err)
	assert.Equal(t, "eternal-access", access)
	assert.Zero(t, p.refreshCalls)
}

func TestGetValidAccessToken_ExpiredTokenRefreshesOnce(t *testing.T) {
	now := time.Now()
	repo := newMockRepository()
	p := &fakeProvider{
		name: provider.Spotify,
		refreshed: &oauth2.Token{
			AccessToken:  "renewed-access",
			RefreshToken: "renewed-refresh",
			Expiry:       now.Add(time.Hour),
		},
	}
	svc := newTestService(repo, p, now)
	userID := uuid.New()

	past := now.Add(-time.Minute)
	_, err := repo.Upsert(context.Background(), userID, provider.Spotify, "stale-access", "old-refresh", &past)
	require.NoError(t, err)

	access, err := svc.GetValidAccessToken(context.Background(), userID, provider.Spotify)
	require.NoError(t, err)
	assert.Equal(t, "renewed-access", access)
	assert.Equal(t, 1, p.refreshCalls)

	stored, err := repo.Get(context.Background(), userID, provider.Spotify)
	require.NoError(t, err)
	assert.Equal(t, "renewed-access", stored.AccessToken)
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, "renewed-refresh", *stored.RefreshToken)
}

func TestGetValidAccessToken_RefreshFailureLeavesRecordUntouched(t *testing.T) {
	now := time.Now()
	repo := newMockRepository()
	p := &fakeProvider{name: provider.Spotify, refreshErr: errors.New("invalid_grant")}
	svc := newTestService(repo, p, now)
	userID := uuid.New()

	past := now.Add(-time.Minute)
	_, err := repo.Upsert(context.Background(), userID, provider.Spotify, "stale-access", "old-refresh", &past)
	require.NoError(t, err)

	_, err = svc.GetValidAccessToken(context.Background(), userID, provider.Spotify)
	assert.ErrorIs(t, err, ErrRefreshFailed)

	stored, err := repo.Get(context.Background(), userID, provider.Spotify)
	require.NoError(t, err)
	assert.Equal(t, "stale-access", stored.AccessToken)
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, "old-refresh", *stored.RefreshToken)
}

func TestGetValidAccessToken_MissingRefreshTokenFails(t *testing.T) {
	now := time.Now()
	repo := newMockRepository()
	p := &fakeProvider{name: provider.Spotify}
	svc := newTestService(repo, p, now)
	userID := uuid.New()

	past := now.Add(-time.Minute)
	_, err := repo.Upsert(context.Background(), userID, provider.Spotify, "stale-access", "", &past)
	require.NoError(t, err)

	_, err = svc.GetValidAccessToken(context.Background(), userID, provider.Spotify)
	assert.ErrorIs(t, err, ErrRefreshFailed)
	assert.Zero(t, p.refreshCalls)
}

func TestRefreshExpiringWithin_SweepsOnlyExpiring(t *testing.T) {
	now := time.Now()
	repo := newMockRepository()
	p := &fakeProvider{
		name: provider.Spotify,
		refreshed: &oauth2.Token{
			AccessToken: "swept-access",
			Expiry:      now.Add(time.Hour),
		},
	}
	svc := newTestService(repo, p, now)

	expiringUser := uuid.New()
	soon := now.Add(10 * time.Minute)
	_, err := repo.Upsert(context.Background(), expiringUser, provider.Spotify, "a", "r", &soon)
	require.NoError(t, err)

	safeUser := uuid.New()
	later := now.Add(48 * time.Hour)
	_, err = repo.Upsert(context.Background(), safeUser, provider.Spotify, "b", "r", &later)
	require.NoError(t, err)

	renewed, err := svc.RefreshExpiringWithin(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, renewed)
	assert.Equal(t, 1, p.refreshCalls)

	stored, err := repo.Get(context.Background(), expiringUser, provider.Spotify)
	require.NoError(t, err)
	assert.Equal(t, "swept-access", stored.AccessToken)
}

func TestRefreshExpiringWithin_SkipsFailuresAndContinues(t *testing.T) {
	now := time.Now()
	repo := newMockRepository()
	p := &fakeProvider{name: provider.Spotify, refreshErr: errors.New("invalid_grant")}
	svc := newTestService(repo, p, now)

	soon := now.Add(10 * time.Minute)
	_, err := repo.Upsert(context.Background(), uuid.New(), provider.Spotify, "a", "r", &soon)
	require.NoError(t, err)

	renewed, err := svc.RefreshExpiringWithin(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Zero(t, renewed)
}
