package services

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// NativeRedirectPath is the redirect path that carries the authorization code
const NativeRedirectPath = "/oauth/authorize/native"

// AuthHelper builds authorization URLs and reads codes out of redirects
type AuthHelper struct {
	authorizeURL string
	accessKey    string
	redirectURI  string
	scope        string
	stateSecret  []byte
	stateTTL     time.Duration
}

// NewAuthHelper creates a new auth helper.
// scope uses "+" between scopes. An empty stateSecret disables the state parameter.
func NewAuthHelper(authorizeURL, accessKey, redirectURI, scope, stateSecret string, stateTTL time.Duration) *AuthHelper {
	if stateTTL <= 0 {
		stateTTL = 10 * time.Minute
	}
	return &AuthHelper{
		authorizeURL: authorizeURL,
		accessKey:    accessKey,
		redirectURI:  redirectURI,
		scope:        scope,
		stateSecret:  []byte(stateSecret),
		stateTTL:     stateTTL,
	}
}

// AuthURL returns the URL the login collaborator should open
func (h *AuthHelper) AuthURL() (string, error) {
	u, err := url.Parse(h.authorizeURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid authorization url %q", h.authorizeURL)
	}

	query := url.Values{}
	query.Set("client_id", h.accessKey)
	query.Set("redirect_uri", h.redirectURI)
	query.Set("response_type", "code")
	// url.Values encodes spaces as "+", which is the scope separator the server expects
	query.Set("scope", strings.ReplaceAll(h.scope, "+", " "))

	if h.StateEnabled() {
		state, err := h.newState()
		if err != nil {
			return "", err
		}
		query.Set("state", state)
	}

	u.RawQuery = query.Encode()
	return u.String(), nil
}

// CodeFromURL extracts the authorization code from a redirect URL.
// The URL must point at NativeRedirectPath and carry a non-empty code.
func (h *AuthHelper) CodeFromURL(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path != NativeRedirectPath {
		return "", false
	}

	code := u.Query().Get("code")
	if code == "" {
		return "", false
	}
	return code, true
}

// StateEnabled reports whether authorization URLs carry a signed state
func (h *AuthHelper) StateEnabled() bool {
	return len(h.stateSecret) > 0
}

// newState signs a short-lived state token
func (h *AuthHelper) newState() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.New().String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(h.stateTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(h.stateSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign state: %w", err)
	}
	return signed, nil
}

// VerifyState validates a state value returned by the authorization server
func (h *AuthHelper) VerifyState(state string) error {
	if !h.StateEnabled() {
		return nil
	}
	if state == "" {
		return fmt.Errorf("state is required")
	}

	token, err := jwt.ParseWithClaims(state, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return h.stateSecret, nil
	})
	if err != nil {
		return fmt.Errorf("failed to parse state: %w", err)
	}
	if !token.Valid {
		return fmt.Errorf("invalid state")
	}
	return nil
}
