package token

import (
	"context"
	"fmt"
	"testing"
	"time"

	"rebeat_backend/internal/common"
	"rebeat_backend/internal/provider"
	"rebeat_backend/internal/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&user.User{}, &Token{}))
	return db
}

func seedUser(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()
	spotifyID := uuid.NewString()
	u := &user.User{SpotifyID: &spotifyID}
	require.NoError(t, db.Create(u).Error)
	return u.ID
}

func TestGORMRepository_UpsertCreatesThenUpdates(t *testing.T) {
	db := newTestDB(t)
	repo := NewGORMRepository(db)
	ctx := context.Background()
	userID := seedUser(t, db)

	expiry := time.Now().Add(time.Hour).UTC()
	first, err := repo.Upsert(ctx, userID, provider.Spotify, "access-1", "refresh-1", &expiry)
	require.NoError(t, err)

	second, err := repo.Upsert(ctx, userID, provider.Spotify, "access-2", "refresh-2", &expiry)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "upsert must update the same row")
	assert.Equal(t, "access-2", second.AccessToken)
	require.NotNil(t, second.RefreshToken)
	assert.Equal(t, "refresh-2", *second.RefreshToken)

	var count int64
	require.NoError(t, db.Model(&Token{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestGORMRepository_UpsertKeepsRefreshTokenWhenOmitted(t *testing.T) {
	db := newTestDB(t)
	repo := NewGORMRepository(db)
	ctx := context.Background()
	userID := seedUser(t, db)

	expiry := time.Now().Add(time.Hour).UTC()
	_, err := repo.Upsert(ctx, userID, provider.Strava, "access-1", "refresh-keep", &expiry)
	require.NoError(t, err)

	// Refresh responses may carry no new refresh token; the stored one
	// survives the update.
	updated, err := repo.Upsert(ctx, userID, provider.Strava, "access-2", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "access-2", updated.AccessToken)
	require.NotNil(t, updated.RefreshToken)
	assert.Equal(t, "refresh-keep", *updated.RefreshToken)
	require.NotNil(t, updated.ExpiresAt)
	assert.WithinDuration(t, expiry, *updated.ExpiresAt, time.Second)
}

func TestGORMRepository_SeparateRowsPerProvider(t *testing.T) {
	db := newTestDB(t)
	repo := NewGORMRepository(db)
	ctx := context.Background()
	userID := seedUser(t, db)

	_, err := repo.Upsert(ctx, userID, provider.Spotify, "sp-access", "sp-refresh", nil)
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, userID, provider.Strava, "st-access", "st-refresh", nil)
	require.NoError(t, err)

	spotify, err := repo.Get(ctx, userID, provider.Spotify)
	require.NoError(t, err)
	assert.Equal(t, "sp-access", spotify.AccessToken)

	strava, err := repo.Get(ctx, userID, provider.Strava)
	require.NoError(t, err)
	assert.Equal(t, "st-access", strava.AccessToken)
}

func TestGORMRepository_GetNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewGORMRepository(db)

	_, err := repo.Get(context.Background(), uuid.New(), provider.Spotify)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGORMRepository_ListExpiringBefore(t *testing.T) {
	db := newTestDB(t)
	repo := NewGORMRepository(db)
	ctx := context.Background()
	userID := seedUser(t, db)

	now := time.Now().UTC()
	soon := now.Add(10 * time.Minute)
	later := now.Add(24 * time.Hour)
	_, err := repo.Upsert(ctx, userID, provider.Spotify, "a", "r", &soon)
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, userID, provider.Strava, "a", "r", &later)
	require.NoError(t, err)

	expiring, err := repo.ListExpiringBefore(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.Equal(t, provider.Spotify, expiring[0].Provider)
}
