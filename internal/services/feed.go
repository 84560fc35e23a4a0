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

// PhotosPerPage is the page size requested from the API
const PhotosPerPage = 10

// PhotoAPI fetches photo pages and toggles likes
type PhotoAPI interface {
	ListPhotos(ctx context.Context, token string, page, perPage int) ([]models.PhotoResult, error)
	SetLike(ctx context.Context, token, photoID string, like bool) error
}

// FeedService owns the ordered, de-duplicated photo feed
type FeedService struct {
	api      PhotoAPI
	tokens   repository.TokenStore
	notifier *Notifier

	mu             sync.RWMutex
	photos         []models.Photo
	index          map[string]int
	lastLoadedPage int
	inFlight       bool
	flight         flight
}

// NewFeedService creates a new, empty feed
func NewFeedService(photoAPI PhotoAPI, tokens repository.TokenStore, notifier *Notifier) *FeedService {
	return &FeedService{
		api:      photoAPI,
		tokens:   tokens,
		notifier: notifier,
		index:    make(map[string]int),
	}
}

// FetchNextPage loads the page after the last loaded one and appends the
// photos not already in the feed. It does nothing while a page fetch is in
// flight or when no token is stored. A failed fetch publishes no event.
func (s *FeedService) FetchNextPage(ctx context.Context) error {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil
	}
	s.inFlight = true
	page := s.lastLoadedPage + 1
	reqCtx, gen := s.flight.start(ctx)
	s.mu.Unlock()

	token, err := s.tokens.GetToken(reqCtx)
	if err != nil {
		s.mu.Lock()
		if s.flight.finish(gen) {
			s.inFlight = false
		}
		s.mu.Unlock()

		if errors.Is(err, repository.ErrTokenNotFound) {
			log.Warn().Msg("No access token, skipping photo page fetch")
			return nil
		}
		return fmt.Errorf("failed to read token: %w", err)
	}

	log.Debug().Int("page", page).Msg("Fetching photo page")
	results, err := s.api.ListPhotos(reqCtx, token, page, PhotosPerPage)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.flight.finish(gen) {
		log.Debug().Int("page", page).Msg("Discarding stale photo page")
		return ErrSuperseded
	}
	s.inFlight = false

	if err != nil {
		log.Error().Err(err).Int("page", page).Msg("Failed to fetch photo page")
		return fmt.Errorf("failed to fetch photo page %d: %w", page, err)
	}

	oldCount := len(s.photos)
	for _, result := range results {
		if _, exists := s.index[result.ID]; exists {
			continue
		}
		s.index[result.ID] = len(s.photos)
		s.photos = append(s.photos, models.NewPhoto(result))
	}
	s.lastLoadedPage = page
	newCount := len(s.photos)

	s.notifier.Publish(models.Event{Type: models.EventPhotosChanged, OldCount: oldCount, NewCount: newCount})

	log.Info().
		Int("page", page).
		Int("received", len(results)).
		Int("added", newCount-oldCount).
		Msg("Photo page loaded")
	return nil
}

// WillDisplay is called by the list view before it shows row index.
// Reaching the last loaded row triggers the next page fetch.
func (s *FeedService) WillDisplay(ctx context.Context, index int) error {
	s.mu.RLock()
	last := len(s.photos) - 1
	s.mu.RUnlock()

	if index < last {
		return nil
	}
	return s.FetchNextPage(ctx)
}

// ChangeLike likes or unlikes a photo on the server, then records the new
// state in the feed and returns the updated photo. On failure the feed is
// left untouched so the caller can revert its optimistic change. A photo that
// left the feed while the request was in flight yields ErrNotFound.
func (s *FeedService) ChangeLike(ctx context.Context, photoID string, like bool) (models.Photo, error) {
	token, err := s.tokens.GetToken(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return models.Photo{}, ErrMissingToken
		}
		return models.Photo{}, fmt.Errorf("failed to read token: %w", err)
	}

	if err := s.api.SetLike(ctx, token, photoID, like); err != nil {
		log.Error().Err(err).Str("photo_id", photoID).Bool("like", like).Msg("Failed to change like")
		return models.Photo{}, fmt.Errorf("failed to change like: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[photoID]
	if !ok {
		return models.Photo{}, ErrNotFound
	}
	s.photos[i].IsLiked = like
	s.notifier.Publish(models.Event{Type: models.EventPhotosChanged, OldCount: len(s.photos), NewCount: len(s.photos)})

	log.Info().Str("photo_id", photoID).Bool("like", like).Msg("Like changed")
	return s.photos[i], nil
}

// ClearPhotos empties the feed and resets paging, dropping any in-flight page fetch
func (s *FeedService) ClearPhotos() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.flight.abort()
	s.inFlight = false

	oldCount := len(s.photos)
	s.photos = nil
	s.index = make(map[string]int)
	s.lastLoadedPage = 0

	s.notifier.Publish(models.Event{Type: models.EventPhotosChanged, OldCount: oldCount, NewCount: 0})
	log.Info().Msg("Photos cleared")
}

// Photos returns a snapshot of the feed in display order
func (s *FeedService) Photos() []models.Photo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	photos := make([]models.Photo, len(s.photos))
	copy(photos, s.photos)
	return photos
}

// Photo returns the photo with id
func (s *FeedService) Photo(id string) (models.Photo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return models.Photo{}, false
	}
	return s.photos[i], true
}

// LastLoadedPage returns the number of the last page appended, 0 when none
func (s *FeedService) LastLoadedPage() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastLoadedPage
}

// InFlight reports whether a page fetch is outstanding
func (s *FeedService) InFlight() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inFlight
}
