package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"rebeat_backend/internal/activity"
	"rebeat_backend/internal/auth"
	"rebeat_backend/internal/config"
	"rebeat_backend/internal/jobs"
	"rebeat_backend/internal/middleware"
	"rebeat_backend/internal/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger

	authHandler     *auth.Handler
	userHandler     *user.Handler
	activityHandler *activity.Handler

	tokenRefreshJob *jobs.TokenRefreshJob

	authMW gin.HandlerFunc
}

// NewServer creates a new instance of the application server.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	sessions *auth.SessionService,
	authHandler *auth.Handler,
	userHandler *user.Handler,
	activityHandler *activity.Handler,
	tokenRefreshJob *jobs.TokenRefreshJob,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()

	router.Use(middleware.ZapLogger(logger))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.FrontendURL}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	authMW := middleware.AuthMiddleware(sessions, logger.Named("AuthMiddleware"))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})

	// OAuth login and callback routes live at the root so the redirect URLs
	// registered with the providers stay short.
	authHandler.RegisterRoutes(router)

	api := router.Group("/api")
	userHandler.RegisterRoutes(api, authMW)
	activityHandler.RegisterRoutes(api, authMW)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ServerTimeout,
		WriteTimeout: cfg.ServerTimeout,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer:      httpServer,
		router:          router,
		cfg:             cfg,
		logger:          logger,
		authHandler:     authHandler,
		userHandler:     userHandler,
		activityHandler: activityHandler,
		tokenRefreshJob: tokenRefreshJob,
		authMW:          authMW,
	}, nil
}

// Start runs the background jobs and the HTTP server. It blocks until the
// server stops.
func (s *Server) Start() error {
	if s.tokenRefreshJob != nil {
		if err := s.tokenRefreshJob.SetupAndStart(); err != nil {
			s.logger.Error("Failed to start token refresh job", zap.Error(err))
		}
	}

	s.logger.Info("HTTP server starting", zap.String("address", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// Shutdown stops the jobs and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.tokenRefreshJob != nil {
		s.tokenRefreshJob.Stop()
	}
	s.logger.Info("HTTP server shutting down")
	return s.httpServer.Shutdown(ctx)
}
