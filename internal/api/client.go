package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"imagefeed/internal/models"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// ClientConfig holds the settings of the API client
type ClientConfig struct {
	BaseURL          string
	AccessKey        string
	SecretKey        string
	RedirectURI      string
	Timeout          time.Duration
	RateLimitPerHour int // 0 disables throttling
	HTTPClient       *http.Client
}

// Client talks to the photo API
type Client struct {
	httpClient  *http.Client
	baseURL     *url.URL
	accessKey   string
	secretKey   string
	redirectURI string
	limiter     *rate.Limiter
}

// NewClient creates a new API client
func NewClient(cfg ClientConfig) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: bad base url %q", ErrInvalidRequest, cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if cfg.RateLimitPerHour > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Hour/time.Duration(cfg.RateLimitPerHour)), cfg.RateLimitPerHour)
	}

	return &Client{
		httpClient:  httpClient,
		baseURL:     base,
		accessKey:   cfg.AccessKey,
		secretKey:   cfg.SecretKey,
		redirectURI: cfg.RedirectURI,
		limiter:     limiter,
	}, nil
}

// ExchangeCode swaps an authorization code for an access token
func (c *Client) ExchangeCode(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("%w: empty authorization code", ErrInvalidRequest)
	}

	query := url.Values{}
	query.Set("client_id", c.accessKey)
	query.Set("client_secret", c.secretKey)
	query.Set("redirect_uri", c.redirectURI)
	query.Set("code", code)
	query.Set("grant_type", "authorization_code")

	req, err := c.newRequest(ctx, http.MethodPost, "/oauth/token", query, "")
	if err != nil {
		return "", err
	}

	var resp models.OAuthTokenResponse
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access_token", ErrDecoding)
	}
	return resp.AccessToken, nil
}

// GetMe fetches the profile of the token owner
func (c *Client) GetMe(ctx context.Context, token string) (*models.ProfileResult, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/me", nil, token)
	if err != nil {
		return nil, err
	}

	var resp models.ProfileResult
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetUser fetches the public profile of username
func (c *Client) GetUser(ctx context.Context, token, username string) (*models.UserResult, error) {
	if username == "" || strings.Contains(username, "/") {
		return nil, fmt.Errorf("%w: bad username %q", ErrInvalidRequest, username)
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/users/"+username, nil, token)
	if err != nil {
		return nil, err
	}

	var resp models.UserResult
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListPhotos fetches one page of the photo feed
func (c *Client) ListPhotos(ctx context.Context, token string, page, perPage int) ([]models.PhotoResult, error) {
	if page < 1 || perPage < 1 {
		return nil, fmt.Errorf("%w: page %d per_page %d", ErrInvalidRequest, page, perPage)
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(perPage))

	req, err := c.newRequest(ctx, http.MethodGet, "/photos", query, token)
	if err != nil {
		return nil, err
	}

	var resp []models.PhotoResult
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// SetLike likes (POST) or unlikes (DELETE) a photo. The response body is ignored.
func (c *Client) SetLike(ctx context.Context, token, photoID string, like bool) error {
	if photoID == "" || strings.Contains(photoID, "/") {
		return fmt.Errorf("%w: bad photo id %q", ErrInvalidRequest, photoID)
	}

	method := http.MethodDelete
	if like {
		method = http.MethodPost
	}

	req, err := c.newRequest(ctx, method, "/photos/"+photoID+"/like", nil, token)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// newRequest builds a request against the base URL, with bearer auth when token is set
func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, token string) (*http.Request, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Version", "v1")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// do sends req and decodes a 2xx JSON body into out when out is non-nil
func (c *Client) do(req *http.Request, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return fmt.Errorf("%w: %w", ErrTransport, err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("method", req.Method).Str("path", req.URL.Path).Msg("Request failed")
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Error().
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Int("status", resp.StatusCode).
			Str("body", string(body)).
			Msg("Unexpected response status")
		return &HTTPStatusError{StatusCode: resp.StatusCode}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		log.Error().Err(err).Str("path", req.URL.Path).Msg("Failed to decode response")
		return fmt.Errorf("%w: %w", ErrDecoding, err)
	}
	return nil
}
