package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"imagefeed/internal/models"

	"github.com/stretchr/testify/require"
)

// fakeAPI implements TokenExchanger, ProfileAPI and PhotoAPI.
// Each *Func field overrides the default behaviour; calls are recorded.
type fakeAPI struct {
	mu sync.Mutex

	exchangeFunc  func(ctx context.Context, code string) (string, error)
	getMeFunc     func(ctx context.Context, token string) (*models.ProfileResult, error)
	getUserFunc   func(ctx context.Context, token, username string) (*models.UserResult, error)
	listFunc      func(ctx context.Context, token string, page, perPage int) ([]models.PhotoResult, error)
	setLikeFunc   func(ctx context.Context, token, photoID string, like bool) error
	exchangeCalls []string
	listCalls     []int
	likeCalls     []string
	getMeCalls    int
	getUserCalls  int
}

func (f *fakeAPI) ExchangeCode(ctx context.Context, code string) (string, error) {
	f.mu.Lock()
	f.exchangeCalls = append(f.exchangeCalls, code)
	fn := f.exchangeFunc
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, code)
	}
	return "token-for-" + code, nil
}

func (f *fakeAPI) GetMe(ctx context.Context, token string) (*models.ProfileResult, error) {
	f.mu.Lock()
	f.getMeCalls++
	fn := f.getMeFunc
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, token)
	}
	first, last := "Jane", "Doe"
	return &models.ProfileResult{Username: "jdoe", FirstName: &first, LastName: &last}, nil
}

func (f *fakeAPI) GetUser(ctx context.Context, token, username string) (*models.UserResult, error) {
	f.mu.Lock()
	f.getUserCalls++
	fn := f.getUserFunc
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, token, username)
	}
	return &models.UserResult{ProfileImage: models.ProfileImage{Small: "https://img/" + username}}, nil
}

func (f *fakeAPI) ListPhotos(ctx context.Context, token string, page, perPage int) ([]models.PhotoResult, error) {
	f.mu.Lock()
	f.listCalls = append(f.listCalls, page)
	fn := f.listFunc
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, token, page, perPage)
	}
	return photoRange((page-1)*perPage+1, page*perPage), nil
}

func (f *fakeAPI) SetLike(ctx context.Context, token, photoID string, like bool) error {
	f.mu.Lock()
	f.likeCalls = append(f.likeCalls, fmt.Sprintf("%s:%t", photoID, like))
	fn := f.setLikeFunc
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, token, photoID, like)
	}
	return nil
}

func (f *fakeAPI) ListCalls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.listCalls...)
}

func (f *fakeAPI) ExchangeCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.exchangeCalls...)
}

func (f *fakeAPI) GetMeCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getMeCalls
}

// photoRange returns photos with ids p<from>..p<to>
func photoRange(from, to int) []models.PhotoResult {
	results := make([]models.PhotoResult, 0, to-from+1)
	for i := from; i <= to; i++ {
		results = append(results, models.PhotoResult{
			ID:        fmt.Sprintf("p%d", i),
			CreatedAt: "2024-01-01T00:00:00Z",
			Width:     100,
			Height:    200,
			URLs:      models.URLsResult{Thumb: "thumb", Regular: "regular", Full: "full"},
		})
	}
	return results
}

func photoIDs(photos []models.Photo) []string {
	ids := make([]string, len(photos))
	for i, p := range photos {
		ids[i] = p.ID
	}
	return ids
}

// gate blocks a fake call until released, and signals when the call has started
type gate struct {
	started chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{started: make(chan struct{}, 8), release: make(chan struct{})}
}

func (g *gate) wait(ctx context.Context) error {
	g.started <- struct{}{}
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gate) awaitStart(t *testing.T) {
	t.Helper()
	select {
	case <-g.started:
	case <-time.After(2 * time.Second):
		t.Fatal("call did not start")
	}
}

// eventRecorder subscribes to a notifier and collects events
type eventRecorder struct {
	events <-chan models.Event
}

func recordEvents(n *Notifier) *eventRecorder {
	_, events := n.Subscribe()
	return &eventRecorder{events: events}
}

// drain returns every event currently buffered
func (r *eventRecorder) drain() []models.Event {
	var out []models.Event
	for {
		select {
		case e := <-r.events:
			out = append(out, e)
		default:
			return out
		}
	}
}

func (r *eventRecorder) next(t *testing.T) models.Event {
	t.Helper()
	select {
	case e := <-r.events:
		return e
	case <-time.After(2 * time.Second):
		require.FailNow(t, "no event received")
		return models.Event{}
	}
}
