package handlers

import (
	"context"
	"net/http"
	"sync"

	"imagefeed/internal/services"

	"github.com/rs/zerolog/log"
)

// OAuthHandler is the browser side of the login flow.
// It hands authorization codes from the redirect callback to the bootstrap.
type OAuthHandler struct {
	helper *services.AuthHelper
	codes  chan string

	mu      sync.Mutex
	pending bool
}

// NewOAuthHandler creates a new OAuth handler
func NewOAuthHandler(helper *services.AuthHelper) *OAuthHandler {
	return &OAuthHandler{
		helper: helper,
		codes:  make(chan string, 1),
	}
}

// ShowLogin opens GET /api/v1/login and the callback for a new login
func (h *OAuthHandler) ShowLogin(ctx context.Context, authURL string) error {
	h.mu.Lock()
	h.drain()
	h.pending = true
	h.mu.Unlock()

	log.Info().Str("url", authURL).Msg("Login required, open the authorization page")
	return nil
}

// Codes returns the channel of captured authorization codes
func (h *OAuthHandler) Codes() <-chan string {
	return h.codes
}

// LoginDone closes the login and drops codes the bootstrap has not read
func (h *OAuthHandler) LoginDone() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.pending = false
	h.drain()
}

// drain must be called with mu held
func (h *OAuthHandler) drain() {
	for {
		select {
		case code := <-h.codes:
			log.Debug().Int("length", len(code)).Msg("Discarding unused authorization code")
		default:
			return
		}
	}
}

func (h *OAuthHandler) loginPending() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pending
}

// Login handles GET /api/v1/login.
// Every request gets a freshly signed state.
func (h *OAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.loginPending() {
		respondError(w, "no login pending", http.StatusNotFound)
		return
	}

	authURL, err := h.helper.AuthURL()
	if err != nil {
		log.Error().Err(err).Msg("Failed to build authorization url")
		respondError(w, "failed to build authorization url", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback handles GET /oauth/authorize/native
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if err := h.helper.VerifyState(r.URL.Query().Get("state")); err != nil {
		log.Warn().Err(err).Msg("Rejected authorization callback")
		respondError(w, "invalid state", http.StatusBadRequest)
		return
	}

	code, ok := h.helper.CodeFromURL(r.URL.String())
	if !ok {
		respondError(w, "code is required", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	if !h.pending {
		h.mu.Unlock()
		respondError(w, "no login pending", http.StatusConflict)
		return
	}
	select {
	case h.codes <- code:
	default:
		h.mu.Unlock()
		respondError(w, "a login is already being processed", http.StatusConflict)
		return
	}
	h.mu.Unlock()

	log.Info().Msg("Authorization code received")
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
