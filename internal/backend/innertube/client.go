package innertube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tubefeed/internal/backend"
	"tubefeed/internal/media"
)

const (
	defaultBaseURL = "https://www.youtube.com"

	clientName    = "WEB"
	clientVersion = "2.20241111.01.00"
	userAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

	// channelVideosParams selects the Videos tab on a browse request
	// (protobuf, captured from web client traffic).
	channelVideosParams = "EgZ2aWRlb3PyBgQKAjoA"

	// trendingBrowseID is the fixed browse target for the trending feed.
	trendingBrowseID = "FEtrending"
)

// HTTPDoer is the HTTP client used by the adapter.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the internal web API. It holds no cache and performs
// no retries; one call maps to one network request.
type Client struct {
	baseURL     string
	language    string
	region      string
	visitorData string
	httpClient  HTTPDoer
	logger      *slog.Logger
}

// Option configures optional Client behavior.
type Option func(*Client)

// WithBaseURL overrides the API origin (used by tests).
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithHTTPClient overrides the HTTP transport.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) { c.httpClient = doer }
}

// NewClient constructs the primary backend adapter.
func NewClient(language, region string, logger *slog.Logger, opts ...Option) *Client {
	if language == "" {
		language = "en"
	}
	if region == "" {
		region = "US"
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		baseURL:     defaultBaseURL,
		language:    language,
		region:      region,
		visitorData: newVisitorData(),
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		logger:      logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint implements backend.Resolver.
func (c *Client) Endpoint() string { return c.baseURL }

// newVisitorData generates the anonymous session identifier sent in
// place of authentication.
func newVisitorData() string {
	const chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	b := make([]byte, 11)
	for i := range b {
		b[i] = chars[rand.Intn(len(chars))]
	}
	return string(b)
}

func (c *Client) context(region string) requestContext {
	if region == "" {
		region = c.region
	}
	return requestContext{
		Client: clientInfo{
			ClientName:    clientName,
			ClientVersion: clientVersion,
			HL:            c.language,
			GL:            region,
			VisitorData:   c.visitorData,
		},
		User: userInfo{LockedSafetyMode: false},
	}
}

// call POSTs to one of the API endpoints and decodes the JSON body.
// Callers that localize per request set body["context"] themselves.
func (c *Client) call(ctx context.Context, endpoint string, body map[string]any) (json.RawMessage, error) {
	if _, ok := body["context"]; !ok {
		body["context"] = c.context("")
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, backend.Wrap(backend.ErrParse, "encode request", err)
	}

	target := fmt.Sprintf("%s/youtubei/v1/%s?%s", c.baseURL, endpoint, url.Values{"prettyPrint": {"false"}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return nil, backend.Wrap(backend.ErrTransient, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", c.language+",en;q=0.9")
	req.Header.Set("Origin", c.baseURL)
	req.Header.Set("Referer", c.baseURL+"/")
	req.Header.Set("X-Youtube-Bootstrap-Logged-In", "false")
	req.Header.Set("X-Youtube-Client-Name", "1")
	req.Header.Set("X-Youtube-Client-Version", clientVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, backend.Wrap(backend.ErrTransient, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, backend.FromStatus(c.baseURL, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, backend.Wrap(backend.ErrTransient, "read response", err)
	}
	if !json.Valid(raw) {
		return nil, backend.Wrap(backend.ErrParse, endpoint, fmt.Errorf("response is not JSON"))
	}
	return raw, nil
}

// ResolveVideo implements backend.Resolver via the player endpoint.
func (c *Client) ResolveVideo(ctx context.Context, videoID string) (*media.VideoRef, error) {
	raw, err := c.call(ctx, "player", map[string]any{
		"videoId":        videoID,
		"contentCheckOk": true,
		"racyCheckOk":    true,
	})
	if err != nil {
		return nil, err
	}
	return mapPlayerResponse(raw, videoID)
}

// ResolveChannel implements backend.Resolver. Browsing a channel id
// without tab params yields the profile header.
func (c *Client) ResolveChannel(ctx context.Context, channelID string) (*media.ChannelRef, error) {
	raw, err := c.call(ctx, "browse", map[string]any{"browseId": channelID})
	if err != nil {
		return nil, err
	}
	return mapChannelResponse(raw, channelID)
}

// ChannelVideos implements backend.Resolver via the browse endpoint.
func (c *Client) ChannelVideos(ctx context.Context, channelID, cursor string) (media.ChannelPage, error) {
	body := map[string]any{}
	if cursor != "" {
		body["continuation"] = cursor
	} else {
		body["browseId"] = channelID
		body["params"] = channelVideosParams
	}
	raw, err := c.call(ctx, "browse", body)
	if err != nil {
		return media.ChannelPage{}, err
	}
	return mapListing(raw, channelID)
}

// Search implements backend.Resolver.
func (c *Client) Search(ctx context.Context, query string, opts media.SearchOptions) ([]media.VideoRef, error) {
	body := map[string]any{"query": query}
	if params := searchParams(opts); params != "" {
		body["params"] = params
	}
	raw, err := c.call(ctx, "search", body)
	if err != nil {
		return nil, err
	}
	page, err := mapListing(raw, "")
	if err != nil {
		return nil, err
	}
	return page.Videos, nil
}

// Trending implements backend.Resolver. Region selection rides on the
// request context's gl field, not the browse id.
func (c *Client) Trending(ctx context.Context, region string) ([]media.VideoRef, error) {
	raw, err := c.call(ctx, "browse", map[string]any{
		"browseId": trendingBrowseID,
		"context":  c.context(region),
	})
	if err != nil {
		return nil, err
	}
	page, err := mapListing(raw, "")
	if err != nil {
		return nil, err
	}
	return page.Videos, nil
}

// searchParams encodes the supported filter combinations. The web API
// accepts protobuf filter blobs; only the sort variants observed in
// traffic are mapped, anything else falls back to relevance.
func searchParams(opts media.SearchOptions) string {
	switch opts.SortBy {
	case "upload_date":
		return "CAI%3D"
	case "view_count":
		return "CAM%3D"
	default:
		return ""
	}
}
