package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"rebeat_backend/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMeRouter(repo Repository, authMW gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewHandler(NewService(repo, zap.NewNop()), zap.NewNop())
	router := gin.New()
	api := router.Group("/api")
	handler.RegisterRoutes(api, authMW)
	return router
}

func injectUser(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	}
}

func TestGetMe(t *testing.T) {
	spotifyID := "sp-42"
	me := userWithSpotify(spotifyID)
	repo := &mockRepository{
		findByIDFn: func(_ context.Context, id uuid.UUID) (*User, error) {
			require.Equal(t, me.ID, id)
			return me, nil
		},
	}
	router := newMeRouter(repo, injectUser(me.ID))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, me.ID, body.ID)
	require.NotNil(t, body.SpotifyID)
	assert.Equal(t, "sp-42", *body.SpotifyID)
	assert.Nil(t, body.StravaID)
}

func TestGetMe_UnknownUser(t *testing.T) {
	repo := &mockRepository{
		findByIDFn: func(_ context.Context, _ uuid.UUID) (*User, error) {
			return nil, common.ErrNotFound
		},
	}
	router := newMeRouter(repo, injectUser(uuid.New()))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
