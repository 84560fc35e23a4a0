package services

import (
	"context"
	"fmt"

	"imagefeed/internal/repository"

	"github.com/rs/zerolog/log"
)

// LogoutService wipes every piece of session state
type LogoutService struct {
	tokens  repository.TokenStore
	profile *ProfileService
	feed    *FeedService
	done    chan struct{}
}

// NewLogoutService creates a new logout service
func NewLogoutService(tokens repository.TokenStore, profile *ProfileService, feed *FeedService) *LogoutService {
	return &LogoutService{
		tokens:  tokens,
		profile: profile,
		feed:    feed,
		done:    make(chan struct{}, 1),
	}
}

// Logout deletes the stored token and clears profile, avatar and photos.
// The in-memory state is cleared even when deleting the token fails.
func (s *LogoutService) Logout(ctx context.Context) error {
	tokenErr := s.tokens.DeleteToken(ctx)

	s.profile.ClearProfile()
	s.profile.ClearAvatar()
	s.feed.ClearPhotos()

	select {
	case s.done <- struct{}{}:
	default:
	}

	if tokenErr != nil {
		log.Error().Err(tokenErr).Msg("Failed to delete token on logout")
		return fmt.Errorf("failed to delete token: %w", tokenErr)
	}

	log.Info().Msg("Logged out")
	return nil
}

// LoggedOut signals after each logout so the caller can restart the bootstrap
func (s *LogoutService) LoggedOut() <-chan struct{} {
	return s.done
}
