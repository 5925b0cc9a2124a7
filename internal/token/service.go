package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rebeat_backend/internal/common"
	"rebeat_backend/internal/provider"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

var (
	// ErrNotLinked is returned when a user has no stored token for a provider.
	ErrNotLinked = errors.New("provider not linked")
	// ErrRefreshFailed is returned when an expired token could not be renewed.
	// The stored record is left unchanged so a later attempt can retry.
	ErrRefreshFailed = errors.New("token refresh failed")
)

// Service hands out valid provider access tokens, refreshing expired ones
// on demand.
type Service struct {
	repo      Repository
	providers *provider.Registry
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a new token service.
func NewService(repo Repository, providers *provider.Registry, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		providers: providers,
		logger:    logger.Named("TokenService"),
		now:       time.Now,
	}
}

// Store persists a freshly exchanged token pair for the user.
func (s *Service) Store(ctx context.Context, userID uuid.UUID, providerName string, tok *oauth2.Token) error {
	var expiresAt *time.Time
	if !tok.Expiry.IsZero() {
		t := tok.Expiry
		expiresAt = &t
	}
	_, err := s.repo.Upsert(ctx, userID, providerName, tok.AccessToken, tok.RefreshToken, expiresAt)
	if err != nil {
		s.logger.Error("Failed to store provider token",
			zap.String("provider", providerName), zap.String("userID", userID.String()), zap.Error(err))
		return err
	}
	return nil
}

// GetValidAccessToken returns an access token for the provider that is not
// known to be expired, refreshing it first when necessary. A record with no
// expiry is treated as never expiring.
func (s *Service) GetValidAccessToken(ctx context.Context, userID uuid.UUID, providerName string) (string, error) {
	record, err := s.repo.Get(ctx, userID, providerName)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", fmt.Errorf("%w: %s for user %s", ErrNotLinked, providerName, userID)
		}
		return "", err
	}

	if !record.Expired(s.now()) {
		return record.AccessToken, nil
	}

	refreshed, err := s.refresh(ctx, record)
	if err != nil {
		return "", err
	}
	return refreshed.AccessToken, nil
}

// RefreshExpiringWithin proactively renews every stored token that expires
// before now+window. Individual failures are logged and skipped so one bad
// grant does not stall the sweep. It returns the number of tokens renewed.
func (s *Service) RefreshExpiringWithin(ctx context.Context, window time.Duration) (int, error) {
	cutoff := s.now().Add(window)
	records, err := s.repo.ListExpiringBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("Failed to list expiring tokens", zap.Error(err))
		return 0, err
	}

	renewed := 0
	for i := range records {
		if _, err := s.refresh(ctx, &records[i]); err != nil {
			s.logger.Warn("Skipping token during refresh sweep",
				zap.String("provider", records[i].Provider),
				zap.String("userID", records[i].UserID.String()),
				zap.Error(err))
			continue
		}
		renewed++
	}
	return renewed, nil
}

func (s *Service) refresh(ctx context.Context, record *Token) (*Token, error) {
	p, err := s.providers.Get(record.Provider)
	if err != nil {
		return nil, err
	}
	if record.RefreshToken == nil || *record.RefreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token stored for %s", ErrRefreshFailed, record.Provider)
	}

	tok, err := p.Refresh(ctx, *record.RefreshToken)
	if err != nil {
		s.logger.Warn("Provider refused token refresh",
			zap.String("provider", record.Provider),
			zap.String("userID", record.UserID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %s: %v", ErrRefreshFailed, record.Provider, err)
	}

	var expiresAt *time.Time
	if !tok.Expiry.IsZero() {
		t := tok.Expiry
		expiresAt = &t
	}
	updated, err := s.repo.Upsert(ctx, record.UserID, record.Provider, tok.AccessToken, tok.RefreshToken, expiresAt)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Refreshed provider token",
		zap.String("provider", record.Provider),
		zap.String("userID", record.UserID.String()))
	return updated, nil
}
