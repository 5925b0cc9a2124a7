package auth

import (
	"errors"
	"fmt"
	"net/http"

	"rebeat_backend/internal/common"
	"rebeat_backend/internal/config"
	"rebeat_backend/internal/provider"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler exposes the OAuth login and callback endpoints.
type Handler struct {
	service     *Service
	frontendURL string
	logger      *zap.Logger
}

// NewHandler creates a new auth handler.
func NewHandler(service *Service, cfg *config.Config, logger *zap.Logger) *Handler {
	return &Handler{
		service:     service,
		frontendURL: cfg.FrontendURL,
		logger:      logger.Named("AuthHandler"),
	}
}

// RegisterRoutes registers the provider login and callback routes at the
// router root.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/:provider/login", h.login)
	router.GET("/:provider/callback", h.callback)
}

func (h *Handler) login(c *gin.Context) {
	providerName := c.Param("provider")
	sessionToken := c.Query("token")

	url, err := h.service.LoginURL(providerName, sessionToken)
	if err != nil {
		if errors.Is(err, provider.ErrUnknownProvider) {
			common.RespondWithError(c, common.ErrNotFound.WithDetails("Unknown provider."))
			return
		}
		h.logger.Error("Failed to build login URL", zap.String("provider", providerName), zap.Error(err))
		common.RespondWithError(c, common.ErrInternalServer)
		return
	}
	c.Redirect(http.StatusFound, url)
}

func (h *Handler) callback(c *gin.Context) {
	providerName := c.Param("provider")

	if _, err := h.service.providers.Get(providerName); err != nil {
		common.RespondWithError(c, common.ErrNotFound.WithDetails("Unknown provider."))
		return
	}

	code := c.Query("code")
	state := c.Query("state")
	switch {
	case code == "":
		h.redirectError(c, "no_code")
		return
	case state == "":
		h.redirectError(c, "no_state")
		return
	}

	sessionToken, err := h.service.HandleCallback(c.Request.Context(), providerName, code, state)
	if err != nil {
		h.redirectError(c, callbackErrorCode(providerName, err))
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("%s?token=%s", h.frontendURL, sessionToken))
}

func (h *Handler) redirectError(c *gin.Context, code string) {
	c.Redirect(http.StatusFound, fmt.Sprintf("%s?error=%s", h.frontendURL, code))
}

func callbackErrorCode(providerName string, err error) string {
	switch {
	case errors.Is(err, provider.ErrExchangeFailed):
		return "token_exchange_failed"
	case errors.Is(err, provider.ErrMissingExternalID):
		return fmt.Sprintf("no_%s_id", providerName)
	case errors.Is(err, provider.ErrProfileFetchFailed):
		return "profile_fetch_failed"
	default:
		return "token_exchange_failed"
	}
}
