package auth

import (
	"context"

	"rebeat_backend/internal/provider"
	"rebeat_backend/internal/token"
	"rebeat_backend/internal/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service orchestrates the OAuth login flow: building authorization URLs,
// handling callbacks, resolving the resulting identity to a user record and
// issuing the first-party session.
type Service struct {
	providers *provider.Registry
	users     *user.Service
	tokens    *token.Service
	sessions  *SessionService
	logger    *zap.Logger
}

// NewService creates a new auth service.
func NewService(providers *provider.Registry, users *user.Service, tokens *token.Service, sessions *SessionService, logger *zap.Logger) *Service {
	return &Service{
		providers: providers,
		users:     users,
		tokens:    tokens,
		sessions:  sessions,
		logger:    logger.Named("AuthService"),
	}
}

// LoginURL builds the provider authorization URL for a login or, when a
// session token is supplied, an account-link started by a signed-in user.
func (s *Service) LoginURL(providerName, sessionToken string) (string, error) {
	p, err := s.providers.Get(providerName)
	if err != nil {
		return "", err
	}
	state, err := EncodeState(sessionToken)
	if err != nil {
		return "", err
	}
	return p.AuthCodeURL(state), nil
}

// HandleCallback completes the authorization-code flow: it exchanges the
// code, fetches the provider identity, resolves it to a user (linking to the
// session's user when the state carried a still-valid session), stores the
// token pair and issues a fresh session token.
func (s *Service) HandleCallback(ctx context.Context, providerName, code, state string) (string, error) {
	p, err := s.providers.Get(providerName)
	if err != nil {
		return "", err
	}

	decoded := DecodeState(state)
	var linkUserID *uuid.UUID
	if decoded.Token != "" {
		if id, err := s.sessions.Verify(decoded.Token); err == nil {
			linkUserID = &id
		} else {
			s.logger.Warn("Ignoring invalid session token in state",
				zap.String("provider", providerName), zap.Error(err))
		}
	}

	tok, err := p.Exchange(ctx, code)
	if err != nil {
		s.logger.Warn("Code exchange failed",
			zap.String("provider", providerName), zap.Error(err))
		return "", err
	}

	externalID, err := p.Identity(ctx, tok)
	if err != nil {
		s.logger.Warn("Identity fetch failed",
			zap.String("provider", providerName), zap.Error(err))
		return "", err
	}

	usr, created, err := s.users.ResolveProviderIdentity(ctx, providerName, externalID, linkUserID)
	if err != nil {
		return "", err
	}

	if err := s.tokens.Store(ctx, usr.ID, providerName, tok); err != nil {
		return "", err
	}

	s.logger.Info("Provider sign-in completed",
		zap.String("provider", providerName),
		zap.String("userID", usr.ID.String()),
		zap.Bool("newUser", created))

	return s.sessions.Issue(usr.ID)
}
