package activity

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"rebeat_backend/internal/common"
	"rebeat_backend/internal/middleware"
	"rebeat_backend/internal/playlist"
	"rebeat_backend/internal/token"
	"rebeat_backend/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler exposes the activity endpoints.
type Handler struct {
	activities *Service
	playlists  *playlist.Service
	users      *user.Service
	logger     *zap.Logger
}

// NewHandler creates a new activity handler.
func NewHandler(activities *Service, playlists *playlist.Service, users *user.Service, logger *zap.Logger) *Handler {
	return &Handler{
		activities: activities,
		playlists:  playlists,
		users:      users,
		logger:     logger.Named("ActivityHandler"),
	}
}

// RegisterRoutes registers the activity routes on the API group.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup, authMW gin.HandlerFunc) {
	api.GET("/latest", authMW, h.getLatest)
	api.POST("/latest/playlist", authMW, h.createPlaylist)
}

func (h *Handler) getLatest(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)
	if userID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	run, err := h.activities.LatestRun(c.Request.Context(), userID)
	if err != nil {
		h.respondActivityError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func (h *Handler) createPlaylist(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)
	if userID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	usr, err := h.users.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if usr.SpotifyID == nil || usr.StravaID == nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(
			"Both Spotify and Strava accounts must be linked.",
		))
		return
	}

	run, err := h.activities.LatestRun(c.Request.Context(), userID)
	if err != nil {
		h.respondActivityError(c, err)
		return
	}

	start := run.StartDate
	end := start.Add(time.Duration(run.ElapsedTime) * time.Second)
	playlistURL, err := h.playlists.BuildForWindow(c.Request.Context(), userID, *usr.SpotifyID, run.Name, start, end)
	if err != nil {
		if errors.Is(err, playlist.ErrNoTracks) {
			common.RespondWithError(c, common.ErrNotFound.WithDetails(
				"Nothing was played during this activity.",
			))
			return
		}
		h.respondActivityError(c, err)
		return
	}

	line := fmt.Sprintf("Soundtrack: %s", playlistURL)
	if err := h.activities.AppendDescription(c.Request.Context(), userID, run.ID, line); err != nil {
		h.logger.Warn("Playlist created but description update failed",
			zap.Int64("activityID", run.ID), zap.Error(err))
	}

	common.RespondCreated(c, "Playlist created from activity window.",
		gin.H{"playlist_url": playlistURL, "activity_id": run.ID})
}

func (h *Handler) respondActivityError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, token.ErrNotLinked):
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(
			"Required provider account is not linked.",
		))
	case errors.Is(err, token.ErrRefreshFailed):
		common.RespondWithError(c, common.ErrServiceUnavailable.WithDetails(
			"Provider token could not be refreshed. Try signing in again.",
		))
	case errors.Is(err, ErrNoActivities):
		common.RespondWithError(c, common.ErrNotFound.WithDetails(
			"No activities recorded yet.",
		))
	default:
		h.logger.Error("Activity request failed", zap.Error(err))
		common.RespondWithError(c, common.ErrInternalServer)
	}
}
