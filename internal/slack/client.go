package slack

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/samber/lo"
	"github.com/samber/oops"

	"changrep/internal/metrics"
	"changrep/internal/model"
)

// DefaultBaseURL is the public Web API root.
const DefaultBaseURL = "https://slack.com/api"

const (
	defaultPageLimit   = 200
	defaultHTTPTimeout = 10 * time.Second

	// maxPages bounds cursor pagination so a source that keeps handing out
	// cursors cannot loop us forever.
	maxPages = 100

	// maxResponseBytes caps how much of a source response we will read.
	maxResponseBytes = 4 << 20

	// maxRetryAfter caps how long a rate-limited page fetch will wait.
	maxRetryAfter = 30 * time.Second
)

// Options configures a Client. Zero values fall back to sane defaults.
type Options struct {
	BaseURL         string
	BotToken        string
	AppToken        string
	PageLimit       int
	ExcludeArchived bool
	HTTPTimeout     time.Duration
	HTTPClient      *http.Client
	Metrics         metrics.Recorder
	Logger          *slog.Logger
}

// Client talks to the workspace Web API with a bot credential. It is safe
// for concurrent use.
type Client struct {
	baseURL         string
	botToken        string
	appToken        string
	pageLimit       int
	excludeArchived bool
	http            *http.Client
	metrics         metrics.Recorder
	log             *slog.Logger
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.PageLimit <= 0 || opts.PageLimit > 1000 {
		opts.PageLimit = defaultPageLimit
	}
	if opts.HTTPTimeout <= 0 {
		opts.HTTPTimeout = defaultHTTPTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.HTTPTimeout}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		baseURL:         strings.TrimRight(opts.BaseURL, "/"),
		botToken:        opts.BotToken,
		appToken:        opts.AppToken,
		pageLimit:       opts.PageLimit,
		excludeArchived: opts.ExcludeArchived,
		http:            opts.HTTPClient,
		metrics:         opts.Metrics,
		log:             opts.Logger,
	}
}

type textField struct {
	Value string `json:"value"`
}

type wireChannel struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	IsPrivate  bool       `json:"is_private"`
	IsArchived bool       `json:"is_archived"`
	NumMembers int        `json:"num_members"`
	Topic      *textField `json:"topic"`
	Purpose    *textField `json:"purpose"`
}

// normalize flattens the nested topic and purpose objects. Missing ones
// become "", never a sentinel.
func (w wireChannel) normalize() model.Channel {
	ch := model.Channel{
		ID:         w.ID,
		Name:       w.Name,
		IsPrivate:  w.IsPrivate,
		IsArchived: w.IsArchived,
		NumMembers: w.NumMembers,
	}
	if w.Topic != nil {
		ch.Topic = w.Topic.Value
	}
	if w.Purpose != nil {
		ch.Purpose = w.Purpose.Value
	}
	return ch
}

type listResponse struct {
	OK               bool          `json:"ok"`
	Error            string        `json:"error"`
	Channels         []wireChannel `json:"channels"`
	ResponseMetadata struct {
		NextCursor string `json:"next_cursor"`
	} `json:"response_metadata"`
}

// ListChannels fetches every channel the bot credential can see, public and
// private, walking cursor pagination until the source stops handing out
// cursors. Channels come back in source order.
func (c *Client) ListChannels(ctx context.Context) ([]model.Channel, error) {
	started := time.Now()
	var (
		out    = []model.Channel{}
		cursor string
		pages  int
	)
	for {
		page, next, err := c.listPage(ctx, cursor)
		if err != nil {
			c.metrics.RecordSourceFetch(time.Since(started), pages, err)
			return nil, err
		}
		pages++
		out = append(out, page...)
		if next == "" {
			break
		}
		if pages >= maxPages {
			err := oops.With("pages", pages).Errorf("channel pagination did not terminate")
			c.metrics.RecordSourceFetch(time.Since(started), pages, err)
			return nil, err
		}
		cursor = next
	}
	c.metrics.RecordSourceFetch(time.Since(started), pages, nil)
	c.log.Debug("listed channels", "count", len(out), "pages", pages)
	return out, nil
}

// listPage fetches one page, retrying once when the source rate limits us.
func (c *Client) listPage(ctx context.Context, cursor string) ([]model.Channel, string, error) {
	for attempt := 0; ; attempt++ {
		channels, next, retryAfter, err := c.fetchPage(ctx, cursor)
		if err == nil {
			return channels, next, nil
		}
		if retryAfter <= 0 || attempt > 0 {
			return nil, "", err
		}
		c.log.Warn("source rate limited, backing off", "retry_after", retryAfter)
		t := time.NewTimer(retryAfter)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, "", ctx.Err()
		case <-t.C:
		}
	}
}

func (c *Client) fetchPage(ctx context.Context, cursor string) ([]model.Channel, string, time.Duration, error) {
	q := url.Values{}
	q.Set("types", "public_channel,private_channel")
	q.Set("limit", strconv.Itoa(c.pageLimit))
	if c.excludeArchived {
		q.Set("exclude_archived", "true")
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/conversations.list?"+q.Encode(), nil)
	if err != nil {
		return nil, "", 0, oops.Wrap(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.botToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", 0, oops.With("endpoint", "conversations.list").Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, "", parseRetryAfter(resp.Header.Get("Retry-After")),
			oops.With("endpoint", "conversations.list").Errorf("source rate limited")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", 0, oops.With("status", resp.StatusCode).Errorf("source returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, "", 0, oops.Wrap(err)
	}
	var parsed listResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, "", 0, oops.Wrap(err)
	}
	if !parsed.OK {
		return nil, "", 0, oops.With("code", parsed.Error).Errorf("source error: %s", parsed.Error)
	}

	channels := lo.Map(parsed.Channels, func(w wireChannel, _ int) model.Channel {
		return w.normalize()
	})
	return channels, parsed.ResponseMetadata.NextCursor, 0, nil
}

func parseRetryAfter(header string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || seconds <= 0 {
		return time.Second
	}
	d := time.Duration(seconds) * time.Second
	if d > maxRetryAfter {
		return maxRetryAfter
	}
	return d
}

type connOpenResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	URL   string `json:"url"`
}

// OpenSocketURL asks the source for a fresh socket mode endpoint. This call
// authenticates with the app-level token, not the bot token.
func (c *Client) OpenSocketURL(ctx context.Context) (string, error) {
	if c.appToken == "" {
		return "", oops.Errorf("app token not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/apps.connections.open", nil)
	if err != nil {
		return "", oops.Wrap(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.appToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", oops.With("endpoint", "apps.connections.open").Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", oops.With("status", resp.StatusCode).Errorf("source returned HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", oops.Wrap(err)
	}
	var parsed connOpenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", oops.Wrap(err)
	}
	if !parsed.OK {
		return "", oops.With("code", parsed.Error).Errorf("source error: %s", parsed.Error)
	}
	return parsed.URL, nil
}
