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

// State is a step of the session bootstrap
type State string

const (
	StateStart              State = "start"
	StateCheckToken         State = "check_token"
	StateAwaitingLogin      State = "awaiting_login"
	StateFetchingOAuthToken State = "fetching_oauth_token"
	StateFetchingProfile    State = "fetching_profile"
	StateFetchingAvatar     State = "fetching_avatar"
	StateReady              State = "ready"
)

// ErrLoginClosed is returned when the login flow stops delivering codes
var ErrLoginClosed = errors.New("login flow closed")

// LoginFlow presents the authorization page and yields the codes it captures
type LoginFlow interface {
	ShowLogin(ctx context.Context, authURL string) error
	Codes() <-chan string
	// LoginDone withdraws the login page and discards codes not yet read
	LoginDone()
}

// UI is the part of the user interface the bootstrap reports to
type UI interface {
	// ProfileFetchFailed shows err and reports whether the user asked to retry
	ProfileFetchFailed(ctx context.Context, err error) bool
	// ShowMain switches to the main application screen
	ShowMain(ctx context.Context)
}

// Coordinator drives token check, login, profile and avatar loading at startup
type Coordinator struct {
	tokens   repository.TokenStore
	auth     *AuthService
	profile  *ProfileService
	feed     *FeedService
	helper   *AuthHelper
	login    LoginFlow
	ui       UI
	notifier *Notifier

	mu    sync.RWMutex
	state State
}

// NewCoordinator creates a new bootstrap coordinator
func NewCoordinator(
	tokens repository.TokenStore,
	auth *AuthService,
	profile *ProfileService,
	feed *FeedService,
	helper *AuthHelper,
	login LoginFlow,
	ui UI,
	notifier *Notifier,
) *Coordinator {
	return &Coordinator{
		tokens:   tokens,
		auth:     auth,
		profile:  profile,
		feed:     feed,
		helper:   helper,
		login:    login,
		ui:       ui,
		notifier: notifier,
		state:    StateStart,
	}
}

// State returns the current bootstrap state
func (c *Coordinator) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Coordinator) setState(state State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == state {
		return
	}
	log.Debug().Str("from", string(c.state)).Str("to", string(state)).Msg("Bootstrap state changed")
	c.state = state
	c.notifier.Publish(models.Event{Type: models.EventSessionChanged, State: string(state)})
}

type exchangeResult struct {
	token string
	err   error
}

// Run bootstraps the session and returns once Ready is reached.
// Without a stored token it waits for the login flow to deliver a code.
// Run may be called again after a logout.
func (c *Coordinator) Run(ctx context.Context) error {
	c.setState(StateStart)
	c.setState(StateCheckToken)

	token, err := c.tokens.GetToken(ctx)
	if err == nil {
		return c.loadSession(ctx, token)
	}
	if !errors.Is(err, repository.ErrTokenNotFound) {
		return fmt.Errorf("failed to read token: %w", err)
	}

	c.setState(StateAwaitingLogin)

	authURL, err := c.helper.AuthURL()
	if err != nil {
		return fmt.Errorf("failed to build authorization url: %w", err)
	}
	if err := c.login.ShowLogin(ctx, authURL); err != nil {
		return fmt.Errorf("failed to show login: %w", err)
	}

	done := make(chan struct{})
	defer close(done)
	results := make(chan exchangeResult)

	codes := c.login.Codes()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case code, ok := <-codes:
			if !ok {
				return ErrLoginClosed
			}
			c.setState(StateFetchingOAuthToken)
			go func() {
				token, err := c.auth.ExchangeCode(ctx, code)
				select {
				case results <- exchangeResult{token: token, err: err}:
				case <-done:
				}
			}()

		case res := <-results:
			if res.err != nil {
				// No user feedback and no transition; the login flow may deliver another code.
				if errors.Is(res.err, ErrDuplicateRequest) || errors.Is(res.err, ErrSuperseded) {
					log.Debug().Err(res.err).Msg("Token exchange skipped")
				} else {
					log.Error().Err(res.err).Msg("Token exchange failed")
				}
				continue
			}

			if err := c.tokens.SaveToken(ctx, res.token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}
			c.login.LoginDone()
			return c.loadSession(ctx, res.token)
		}
	}
}

// loadSession fetches the profile (with user-driven retry), then the avatar, then opens the main UI
func (c *Coordinator) loadSession(ctx context.Context, token string) error {
	var profile *models.Profile
	for {
		c.setState(StateFetchingProfile)

		p, err := c.profile.FetchProfile(ctx, token)
		if err == nil {
			profile = p
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !c.ui.ProfileFetchFailed(ctx, err) {
			return err
		}
		log.Info().Msg("Retrying profile fetch")
	}

	c.setState(StateFetchingAvatar)
	if _, err := c.profile.FetchAvatarURL(ctx, profile.Username); err != nil {
		log.Warn().Err(err).Msg("Continuing without avatar")
	}

	c.setState(StateReady)
	c.ui.ShowMain(ctx)

	if err := c.feed.FetchNextPage(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to prime photo feed")
	}
	return nil
}
