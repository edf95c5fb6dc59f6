package invidious

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tubefeed/internal/backend"
	"tubefeed/internal/media"
)

// DefaultInstances are public instances used when the configuration
// names none. Operators are encouraged to configure their own list.
var DefaultInstances = []string{
	"https://inv.nadeko.net",
	"https://invidious.nerdvpn.de",
	"https://yewtu.be",
}

// HTTPDoer is the HTTP client used by the adapter.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to a single Invidious instance. It holds no cache and
// performs no retries; fallback across instances is the orchestrator's
// job.
type Client struct {
	baseURL    string
	region     string
	httpClient HTTPDoer
}

// Option configures optional Client behavior.
type Option func(*Client)

// WithHTTPClient overrides the HTTP transport.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) { c.httpClient = doer }
}

// NewClient binds an adapter to one instance URL.
func NewClient(instanceURL, region string, opts ...Option) *Client {
	if region == "" {
		region = "US"
	}
	c := &Client{
		baseURL:    strings.TrimRight(instanceURL, "/"),
		region:     region,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint implements backend.Resolver.
func (c *Client) Endpoint() string { return c.baseURL }

// get fetches an API path and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return backend.Wrap(backend.ErrTransient, "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return backend.Wrap(backend.ErrTransient, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Some instances put a reason in the error envelope; attach it
		// when present but classify on the status code alone.
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var envelope apiError
		if json.Unmarshal(raw, &envelope) == nil && envelope.Error != "" {
			return fmt.Errorf("%w: %s", backend.FromStatus(c.baseURL, resp.StatusCode), envelope.Error)
		}
		return backend.FromStatus(c.baseURL, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return backend.Wrap(backend.ErrParse, path, err)
	}
	return nil
}

// ResolveVideo implements backend.Resolver.
func (c *Client) ResolveVideo(ctx context.Context, videoID string) (*media.VideoRef, error) {
	var obj videoObject
	if err := c.get(ctx, "/api/v1/videos/"+url.PathEscape(videoID), nil, &obj); err != nil {
		return nil, err
	}
	ref, err := mapVideo(obj, c.baseURL)
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

// ResolveChannel implements backend.Resolver.
func (c *Client) ResolveChannel(ctx context.Context, channelID string) (*media.ChannelRef, error) {
	var obj channelObject
	if err := c.get(ctx, "/api/v1/channels/"+url.PathEscape(channelID), nil, &obj); err != nil {
		return nil, err
	}
	return mapChannel(obj, c.baseURL)
}

// ChannelVideos implements backend.Resolver.
func (c *Client) ChannelVideos(ctx context.Context, channelID, cursor string) (media.ChannelPage, error) {
	query := url.Values{"sort_by": {"newest"}}
	if cursor != "" {
		query.Set("continuation", cursor)
	}
	var page channelVideosPage
	if err := c.get(ctx, "/api/v1/channels/"+url.PathEscape(channelID)+"/videos", query, &page); err != nil {
		return media.ChannelPage{}, err
	}
	return mapChannelPage(page, channelID, c.baseURL)
}

// Search implements backend.Resolver. Non-video results mixed into the
// listing are skipped.
func (c *Client) Search(ctx context.Context, query string, opts media.SearchOptions) ([]media.VideoRef, error) {
	params := url.Values{"q": {query}, "type": {"video"}}
	if opts.SortBy != "" {
		params.Set("sort_by", opts.SortBy)
	}
	if opts.Duration != "" {
		params.Set("duration", opts.Duration)
	}
	var objects []videoObject
	if err := c.get(ctx, "/api/v1/search", params, &objects); err != nil {
		return nil, err
	}
	return mapVideoList(objects, c.baseURL), nil
}

// Trending implements backend.Resolver.
func (c *Client) Trending(ctx context.Context, region string) ([]media.VideoRef, error) {
	if region == "" {
		region = c.region
	}
	var objects []videoObject
	if err := c.get(ctx, "/api/v1/trending", url.Values{"region": {region}}, &objects); err != nil {
		return nil, err
	}
	return mapVideoList(objects, c.baseURL), nil
}

// Stats probes the instance for liveness. A decoded stats payload means
// the instance is serving the API.
func (c *Client) Stats(ctx context.Context) error {
	var stats statsObject
	if err := c.get(ctx, "/api/v1/stats", nil, &stats); err != nil {
		return err
	}
	if stats.Version == "" && stats.Software.Name == "" {
		return backend.Wrap(backend.ErrParse, "stats probe", fmt.Errorf("%s returned an empty stats payload", c.baseURL))
	}
	return nil
}
