package user

import (
	"context"
	"errors"

	"rebeat_backend/internal/common"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service carries the identity-resolution logic on top of the repository.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a new user service.
func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.Named("UserService"),
	}
}

// GetUserByID fetches a single user record.
func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// ResolveProviderIdentity determines the one internal user behind a provider
// login, creating or linking as needed. The lookup order matters: a provider
// identity that has already been seen always wins over the acting session
// user, so a stale or replayed session cannot capture an already-registered
// provider account.
//
// linkUserID, when non-nil, is the already-verified subject of a session
// token presented during the redirect round trip. Returns the resolved user
// and whether a new record was created.
func (s *Service) ResolveProviderIdentity(ctx context.Context, providerName, externalID string, linkUserID *uuid.UUID) (*User, bool, error) {
	// Returning user via this provider.
	existing, err := s.repo.FindByProviderID(ctx, providerName, externalID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, false, err
	}

	// Account-linking path: attach this provider identity to the session's
	// user. The session user is returned even when the link write loses a
	// race, since the session still identifies a real acting user.
	if linkUserID != nil {
		acting, err := s.repo.FindByID(ctx, *linkUserID)
		if err == nil {
			if acting.ExternalID(providerName) == nil {
				acting.SetExternalID(providerName, externalID)
				if err := s.repo.Update(ctx, acting); err != nil {
					s.logger.Warn("Failed to link provider identity to session user",
						zap.String("provider", providerName),
						zap.String("userID", acting.ID.String()),
						zap.Error(err))
					refetched, ferr := s.repo.FindByID(ctx, *linkUserID)
					if ferr == nil {
						return refetched, false, nil
					}
				}
			}
			return acting, false, nil
		}
		if !errors.Is(err, common.ErrNotFound) {
			return nil, false, err
		}
		// Session subject no longer exists; fall through to signup.
		s.logger.Warn("Session user missing during provider link, creating a new user",
			zap.String("userID", linkUserID.String()))
	}

	// First-time signup path.
	created := &User{}
	created.SetExternalID(providerName, externalID)
	if err := s.repo.Create(ctx, created); err != nil {
		return nil, false, err
	}
	s.logger.Info("Created new user from provider login",
		zap.String("provider", providerName),
		zap.String("userID", created.ID.String()))
	return created, true, nil
}
