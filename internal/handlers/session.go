package handlers

import (
	"context"
	"net/http"
	"sync"

	"imagefeed/internal/services"

	"github.com/rs/zerolog/log"
)

// StateSource reports the bootstrap state
type StateSource interface {
	State() services.State
}

// SessionHandler exposes the bootstrap to the external UI.
// It answers profile failures with the decision posted by the user.
type SessionHandler struct {
	mu        sync.Mutex
	source    StateSource
	lastErr   error
	pending   bool
	decisions chan bool
}

// NewSessionHandler creates a new session handler
func NewSessionHandler() *SessionHandler {
	return &SessionHandler{decisions: make(chan bool, 1)}
}

// Bind sets the bootstrap whose state is reported
func (h *SessionHandler) Bind(source StateSource) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.source = source
}

// ProfileFetchFailed records err and blocks until the user retries or dismisses
func (h *SessionHandler) ProfileFetchFailed(ctx context.Context, err error) bool {
	h.mu.Lock()
	select {
	case <-h.decisions:
	default:
	}
	h.lastErr = err
	h.pending = true
	h.mu.Unlock()

	log.Error().Err(err).Msg("Profile fetch failed, waiting for user decision")

	select {
	case retry := <-h.decisions:
		return retry
	case <-ctx.Done():
		h.mu.Lock()
		h.pending = false
		h.mu.Unlock()
		return false
	}
}

// ShowMain marks the session as usable
func (h *SessionHandler) ShowMain(ctx context.Context) {
	h.mu.Lock()
	h.lastErr = nil
	h.mu.Unlock()

	log.Info().Msg("Session ready")
}

// SessionResponse is the body of GET /api/v1/session
type SessionResponse struct {
	State        services.State `json:"state"`
	Error        string         `json:"error,omitempty"`
	AwaitsChoice bool           `json:"awaits_choice"`
}

// GetSession handles GET /api/v1/session
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	resp := SessionResponse{State: services.StateStart, AwaitsChoice: h.pending}
	if h.source != nil {
		resp.State = h.source.State()
	}
	if h.lastErr != nil {
		resp.Error = h.lastErr.Error()
	}
	h.mu.Unlock()

	respondJSON(w, http.StatusOK, resp)
}

// Retry handles POST /api/v1/session/retry
func (h *SessionHandler) Retry(w http.ResponseWriter, r *http.Request) {
	h.decide(w, true)
}

// Dismiss handles POST /api/v1/session/dismiss
func (h *SessionHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	h.decide(w, false)
}

func (h *SessionHandler) decide(w http.ResponseWriter, retry bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.pending {
		respondError(w, "nothing to decide", http.StatusConflict)
		return
	}
	h.pending = false
	h.decisions <- retry

	w.WriteHeader(http.StatusNoContent)
}
