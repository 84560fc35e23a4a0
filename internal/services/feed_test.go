package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"imagefeed/internal/api"
	"imagefeed/internal/models"
	"imagefeed/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFeed(t *testing.T, fake *fakeAPI) (*FeedService, *repository.MemoryTokenStore, *eventRecorder) {
	t.Helper()
	tokens := repository.NewMemoryTokenStore()
	require.NoError(t, tokens.SaveToken(context.Background(), "tok"))
	notifier := NewNotifier(64)
	return NewFeedService(fake, tokens, notifier), tokens, recordEvents(notifier)
}

func expectedIDs(from, to int) []string {
	ids := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		ids = append(ids, fmt.Sprintf("p%d", i))
	}
	return ids
}

func TestFetchNextPage_FirstPage(t *testing.T) {
	fake := &fakeAPI{}
	feed, _, events := newTestFeed(t, fake)

	require.NoError(t, feed.FetchNextPage(context.Background()))

	assert.Equal(t, expectedIDs(1, 10), photoIDs(feed.Photos()))
	assert.Equal(t, 1, feed.LastLoadedPage())
	assert.False(t, feed.InFlight())
	assert.Equal(t, []int{1}, fake.ListCalls())
	assert.Equal(t, []models.Event{{Type: models.EventPhotosChanged, OldCount: 0, NewCount: 10}}, events.drain())
}

func TestFetchNextPage_DeduplicatesOverlap(t *testing.T) {
	fake := &fakeAPI{
		listFunc: func(ctx context.Context, token string, page, perPage int) ([]models.PhotoResult, error) {
			if page == 1 {
				return photoRange(1, 10), nil
			}
			// server re-delivers p10 at the start of page 2
			return photoRange(10, 19), nil
		},
	}
	feed, _, events := newTestFeed(t, fake)

	require.NoError(t, feed.FetchNextPage(context.Background()))
	require.NoError(t, feed.FetchNextPage(context.Background()))

	photos := feed.Photos()
	require.Len(t, photos, 19)
	assert.Equal(t, expectedIDs(1, 19), photoIDs(photos))
	assert.Equal(t, "p10", photos[9].ID)
	assert.Equal(t, 2, feed.LastLoadedPage())

	got := events.drain()
	require.Len(t, got, 2)
	assert.Equal(t, 10, got[1].OldCount)
	assert.Equal(t, 19, got[1].NewCount)
}

func TestFetchNextPage_DuplicatesWithinPage(t *testing.T) {
	fake := &fakeAPI{
		listFunc: func(ctx context.Context, token string, page, perPage int) ([]models.PhotoResult, error) {
			results := photoRange(1, 3)
			return append(results, photoRange(2, 2)...), nil
		},
	}
	feed, _, _ := newTestFeed(t, fake)

	require.NoError(t, feed.FetchNextPage(context.Background()))
	assert.Equal(t, []string{"p1", "p2", "p3"}, photoIDs(feed.Photos()))
}

func TestFetchNextPage_SingleFlight(t *testing.T) {
	g := newGate()
	fake := &fakeAPI{
		listFunc: func(ctx context.Context, token string, page, perPage int) ([]models.PhotoResult, error) {
			if err := g.wait(ctx); err != nil {
				return nil, err
			}
			return photoRange(1, 10), nil
		},
	}
	feed, _, events := newTestFeed(t, fake)

	done := make(chan error, 1)
	go func() { done <- feed.FetchNextPage(context.Background()) }()
	g.awaitStart(t)
	assert.True(t, feed.InFlight())

	// the second call is a no-op while the first is outstanding
	require.NoError(t, feed.FetchNextPage(context.Background()))
	require.NoError(t, feed.FetchNextPage(context.Background()))

	close(g.release)
	require.NoError(t, <-done)

	assert.Equal(t, []int{1}, fake.ListCalls())
	assert.Len(t, feed.Photos(), 10)
	assert.Len(t, events.drain(), 1)
}

func TestFetchNextPage_FailureIsSilent(t *testing.T) {
	fail := true
	fake := &fakeAPI{
		listFunc: func(ctx context.Context, token string, page, perPage int) ([]models.PhotoResult, error) {
			if fail {
				return nil, &api.HTTPStatusError{StatusCode: 500}
			}
			return photoRange(1, 10), nil
		},
	}
	feed, _, events := newTestFeed(t, fake)

	err := feed.FetchNextPage(context.Background())
	require.Error(t, err)
	assert.Equal(t, 500, api.StatusCode(err))
	assert.False(t, feed.InFlight())
	assert.Zero(t, feed.LastLoadedPage())
	assert.Empty(t, events.drain())

	// the same page is requested again next time
	fail = false
	require.NoError(t, feed.FetchNextPage(context.Background()))
	assert.Equal(t, []int{1, 1}, fake.ListCalls())
}

func TestFetchNextPage_NoToken(t *testing.T) {
	fake := &fakeAPI{}
	feed, tokens, events := newTestFeed(t, fake)
	require.NoError(t, tokens.DeleteToken(context.Background()))

	require.NoError(t, feed.FetchNextPage(context.Background()))
	assert.Empty(t, fake.ListCalls())
	assert.False(t, feed.InFlight())
	assert.Empty(t, events.drain())
}

func TestClearPhotos_ThenFetchStartsAtPageOne(t *testing.T) {
	fake := &fakeAPI{}
	feed, _, events := newTestFeed(t, fake)

	require.NoError(t, feed.FetchNextPage(context.Background()))
	require.NoError(t, feed.FetchNextPage(context.Background()))
	events.drain()

	feed.ClearPhotos()
	assert.Empty(t, feed.Photos())
	assert.Zero(t, feed.LastLoadedPage())
	assert.Equal(t, models.Event{Type: models.EventPhotosChanged, OldCount: 20, NewCount: 0}, events.next(t))

	require.NoError(t, feed.FetchNextPage(context.Background()))
	assert.Equal(t, []int{1, 2, 1}, fake.ListCalls())
	assert.Equal(t, expectedIDs(1, 10), photoIDs(feed.Photos()))
}

func TestClearPhotos_DropsInFlightPage(t *testing.T) {
	g := newGate()
	fake := &fakeAPI{
		listFunc: func(ctx context.Context, token string, page, perPage int) ([]models.PhotoResult, error) {
			if err := g.wait(ctx); err != nil {
				return nil, err
			}
			return photoRange(1, 10), nil
		},
	}
	feed, _, _ := newTestFeed(t, fake)

	done := make(chan error, 1)
	go func() { done <- feed.FetchNextPage(context.Background()) }()
	g.awaitStart(t)

	feed.ClearPhotos()
	assert.False(t, feed.InFlight())
	assert.ErrorIs(t, <-done, ErrSuperseded)
	assert.Empty(t, feed.Photos())
	assert.Zero(t, feed.LastLoadedPage())
}

func TestChangeLike_RoundTrip(t *testing.T) {
	fake := &fakeAPI{}
	feed, _, events := newTestFeed(t, fake)
	require.NoError(t, feed.FetchNextPage(context.Background()))
	events.drain()

	before, ok := feed.Photo("p5")
	require.True(t, ok)
	require.False(t, before.IsLiked)

	liked, err := feed.ChangeLike(context.Background(), "p5", true)
	require.NoError(t, err)
	assert.Equal(t, "p5", liked.ID)
	assert.True(t, liked.IsLiked)
	p5, _ := feed.Photo("p5")
	assert.True(t, p5.IsLiked)
	assert.Equal(t, models.EventPhotosChanged, events.next(t).Type)

	unliked, err := feed.ChangeLike(context.Background(), "p5", false)
	require.NoError(t, err)
	assert.Equal(t, before, unliked)
	p5, _ = feed.Photo("p5")
	assert.Equal(t, before.IsLiked, p5.IsLiked)

	assert.Equal(t, []string{"p5:true", "p5:false"}, fake.likeCalls)
}

func TestChangeLike_ServerFailureKeepsState(t *testing.T) {
	likeErr := error(nil)
	fake := &fakeAPI{
		setLikeFunc: func(ctx context.Context, token, photoID string, like bool) error {
			return likeErr
		},
	}
	feed, _, events := newTestFeed(t, fake)
	require.NoError(t, feed.FetchNextPage(context.Background()))

	_, err := feed.ChangeLike(context.Background(), "p5", true)
	require.NoError(t, err)
	events.drain()

	likeErr = &api.HTTPStatusError{StatusCode: 503}
	_, err = feed.ChangeLike(context.Background(), "p5", true)
	require.Error(t, err)
	assert.Equal(t, 503, api.StatusCode(err))

	p5, _ := feed.Photo("p5")
	assert.True(t, p5.IsLiked)
	assert.Empty(t, events.drain())
}

func TestChangeLike_NotFound(t *testing.T) {
	fake := &fakeAPI{}
	feed, _, events := newTestFeed(t, fake)

	_, err := feed.ChangeLike(context.Background(), "missing", true)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, events.drain())
}

func TestChangeLike_FeedClearedDuringRequest(t *testing.T) {
	var feed *FeedService
	fake := &fakeAPI{
		setLikeFunc: func(ctx context.Context, token, photoID string, like bool) error {
			feed.ClearPhotos()
			return nil
		},
	}
	feed, _, events := newTestFeed(t, fake)
	require.NoError(t, feed.FetchNextPage(context.Background()))
	events.drain()

	photo, err := feed.ChangeLike(context.Background(), "p5", true)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, photo)
	assert.Equal(t, []models.Event{{Type: models.EventPhotosChanged, OldCount: PhotosPerPage, NewCount: 0}}, events.drain())
}

func TestChangeLike_MissingToken(t *testing.T) {
	fake := &fakeAPI{}
	feed, tokens, _ := newTestFeed(t, fake)
	require.NoError(t, tokens.DeleteToken(context.Background()))

	_, err := feed.ChangeLike(context.Background(), "p1", true)
	assert.True(t, errors.Is(err, ErrMissingToken))
	assert.Empty(t, fake.likeCalls)
}

func TestWillDisplay(t *testing.T) {
	fake := &fakeAPI{}
	feed, _, _ := newTestFeed(t, fake)

	// empty feed: any row triggers the first page
	require.NoError(t, feed.WillDisplay(context.Background(), 0))
	assert.Equal(t, []int{1}, fake.ListCalls())

	require.NoError(t, feed.WillDisplay(context.Background(), 5))
	assert.Equal(t, []int{1}, fake.ListCalls())

	require.NoError(t, feed.WillDisplay(context.Background(), 9))
	assert.Equal(t, []int{1, 2}, fake.ListCalls())
}
