//go:build wireinject
// +build wireinject

package main

import (
	"rebeat_backend/internal/activity"
	"rebeat_backend/internal/app"
	"rebeat_backend/internal/auth"
	"rebeat_backend/internal/config"
	"rebeat_backend/internal/jobs"
	"rebeat_backend/internal/platform/logger"
	"rebeat_backend/internal/playlist"
	"rebeat_backend/internal/token"
	"rebeat_backend/internal/user"

	"github.com/google/wire"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform layer
		logger.New,
		provideGORM,

		// Providers
		provideProviders,

		// Users
		user.NewGORMRepository,
		user.NewService,
		user.NewHandler,

		// Tokens and sessions
		token.NewGORMRepository,
		token.NewService,
		auth.NewSessionService,

		// Auth flow
		auth.NewService,
		auth.NewHandler,

		// Activities and playlists
		activity.NewService,
		playlist.NewService,
		activity.NewHandler,

		// Jobs
		jobs.NewTokenRefreshJob,

		// Application layer
		app.NewServer,
	)
	return nil, nil, nil
}
