package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"imagefeed/internal/models"
	"imagefeed/internal/repository"

	"github.com/rs/zerolog/log"
)

// ProfileAPI fetches profile data from the photo API
type ProfileAPI interface {
	GetMe(ctx context.Context, token string) (*models.ProfileResult, error)
	GetUser(ctx context.Context, token, username string) (*models.UserResult, error)
}

// ProfileService holds the current user's profile and avatar URL
type ProfileService struct {
	api      ProfileAPI
	tokens   repository.TokenStore
	notifier *Notifier

	mu            sync.RWMutex
	profile       *models.Profile
	avatarURL     string
	profileFlight flight
	avatarFlight  flight
}

// NewProfileService creates a new profile service
func NewProfileService(profileAPI ProfileAPI, tokens repository.TokenStore, notifier *Notifier) *ProfileService {
	return &ProfileService{
		api:      profileAPI,
		tokens:   tokens,
		notifier: notifier,
	}
}

// FetchProfile loads the profile of the token owner and replaces the held one.
// A newer call cancels this one, which then returns ErrSuperseded.
func (s *ProfileService) FetchProfile(ctx context.Context, token string) (*models.Profile, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	s.mu.Lock()
	reqCtx, gen := s.profileFlight.start(ctx)
	s.mu.Unlock()

	result, err := s.api.GetMe(reqCtx, token)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.profileFlight.finish(gen) {
		return nil, ErrSuperseded
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch profile")
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	profile := models.NewProfile(*result)
	s.profile = &profile
	s.notifier.Publish(models.Event{Type: models.EventProfileChanged})

	log.Info().Str("username", profile.Username).Msg("Profile loaded")

	copied := profile
	return &copied, nil
}

// FetchAvatarURL loads the small avatar URL of username and replaces the held one
func (s *ProfileService) FetchAvatarURL(ctx context.Context, username string) (string, error) {
	token, err := s.tokens.GetToken(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return "", ErrMissingToken
		}
		return "", fmt.Errorf("failed to read token: %w", err)
	}

	s.mu.Lock()
	reqCtx, gen := s.avatarFlight.start(ctx)
	s.mu.Unlock()

	result, err := s.api.GetUser(reqCtx, token, username)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.avatarFlight.finish(gen) {
		return "", ErrSuperseded
	}
	if err != nil {
		log.Error().Err(err).Str("username", username).Msg("Failed to fetch avatar URL")
		return "", fmt.Errorf("failed to fetch avatar url: %w", err)
	}

	s.avatarURL = result.ProfileImage.Small
	s.notifier.Publish(models.Event{Type: models.EventAvatarChanged, AvatarURL: s.avatarURL})

	log.Info().Str("username", username).Str("avatar_url", s.avatarURL).Msg("Avatar URL loaded")
	return s.avatarURL, nil
}

// Profile returns a copy of the held profile, or nil
func (s *ProfileService) Profile() *models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.profile == nil {
		return nil
	}
	copied := *s.profile
	return &copied
}

// AvatarURL returns the held avatar URL, or an empty string
func (s *ProfileService) AvatarURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.avatarURL
}

// ClearProfile drops the held profile and any in-flight profile fetch
func (s *ProfileService) ClearProfile() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profileFlight.abort()
	s.profile = nil
	s.notifier.Publish(models.Event{Type: models.EventProfileChanged})
	log.Info().Msg("Profile cleared")
}

// ClearAvatar drops the held avatar URL and any in-flight avatar fetch
func (s *ProfileService) ClearAvatar() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.avatarFlight.abort()
	s.avatarURL = ""
	s.notifier.Publish(models.Event{Type: models.EventAvatarChanged})
	log.Info().Msg("Avatar cleared")
}
