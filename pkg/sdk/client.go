package sdk

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// ConnectOptions configures the zero-config Connect() entry point.
// All fields are optional, so sdk.Connect(ctx, sdk.ConnectOptions{}) is valid.
type ConnectOptions struct {
	// URL is the changrep server URL. When empty the CHANGREP_URL
	// environment variable is consulted, then http://localhost:8080.
	URL string

	// APIKey is the API key to use. When empty the CHANGREP_API_KEY
	// environment variable is consulted; with no key at all requests go out
	// unauthenticated, which a local server with auth disabled accepts as
	// the local principal.
	APIKey string

	// Timeout is the HTTP client timeout. Default: 30s.
	Timeout time.Duration
}

// Connect creates a wired Client from options and environment.
//
// Example:
//
//	client, err := sdk.Connect(ctx, sdk.ConnectOptions{})
func Connect(_ context.Context, opts ConnectOptions) (*Client, error) {
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("CHANGREP_API_KEY"))
	}
	return New(Config{
		BaseURL: resolveURL(opts.URL),
		APIKey:  apiKey,
		Timeout: opts.Timeout,
	}), nil
}

func resolveURL(override string) string {
	if v := strings.TrimSpace(override); v != "" {
		return strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(os.Getenv("CHANGREP_URL")); v != "" {
		return strings.TrimRight(v, "/")
	}
	return "http://localhost:8080"
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client

	Channels    *ChannelsService
	Groups      *GroupsService
	Suggestions *SuggestionsService
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	c := &Client{
		BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		APIKey:  cfg.APIKey,
		HTTP:    &http.Client{Timeout: cfg.Timeout},
	}
	c.Channels = &ChannelsService{client: c}
	c.Groups = &GroupsService{client: c}
	c.Suggestions = &SuggestionsService{client: c}
	return c
}

// APIError is a non-ok envelope returned by the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type envelope[T any] struct {
	OK    bool `json:"ok"`
	Data  T    `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	var raw envelope[json.RawMessage]
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if !raw.OK {
		apiErr := &APIError{Status: resp.StatusCode}
		if raw.Error != nil {
			apiErr.Code = raw.Error.Code
			apiErr.Message = raw.Error.Message
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if out != nil {
		return json.Unmarshal(raw.Data, out)
	}
	return nil
}
