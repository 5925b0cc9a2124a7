package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"rebeat_backend/internal/config"
	"rebeat_backend/internal/platform/database"
	"rebeat_backend/internal/provider"
	"rebeat_backend/internal/token"
	"rebeat_backend/internal/user"

	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	server, cleanup, err := initializeServer(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize server: %v", err)
	}
	defer cleanup()

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("FATAL: Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("INFO: Received signal '%s'. Shutting down server...", sig)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ServerTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Server forced to shutdown: %v", err)
	} else {
		log.Println("INFO: Server shutdown complete.")
	}
}

// provideGORM opens the database, keeps the schema current and hands Wire a
// cleanup that closes the connection pool.
func provideGORM(cfg *config.Config) (*gorm.DB, func(), error) {
	db, err := database.NewGORM(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := db.AutoMigrate(&user.User{}, &token.Token{}); err != nil {
		return nil, nil, err
	}
	return db, func() { database.CloseGORMDB(db) }, nil
}

// provideProviders builds the registry of configured OAuth providers.
func provideProviders(cfg *config.Config) *provider.Registry {
	return provider.NewRegistry(provider.NewSpotify(cfg), provider.NewStrava(cfg))
}
