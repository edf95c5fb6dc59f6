// Package dearrow fetches crowd-sourced replacement titles and
// thumbnails that undo clickbait framing.
package dearrow

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the public branding server.
const DefaultBaseURL = "https://sponsor.ajay.app"

// Branding is the community's preferred presentation for a video.
type Branding struct {
	Titles     []Title     `json:"titles"`
	Thumbnails []Thumbnail `json:"thumbnails"`
}

// Title is one suggested replacement title.
type Title struct {
	Title    string `json:"title"`
	Votes    int    `json:"votes"`
	Locked   bool   `json:"locked"`
	Original bool   `json:"original"`
}

// Thumbnail is one suggested replacement thumbnail, expressed as a
// video timestamp to capture.
type Thumbnail struct {
	Timestamp float64 `json:"timestamp"`
	Votes     int     `json:"votes"`
	Locked    bool    `json:"locked"`
	Original  bool    `json:"original"`
}

// BestTitle returns the winning replacement title, or "" when the
// community prefers the original.
func (b *Branding) BestTitle() string {
	if b == nil {
		return ""
	}
	for _, t := range b.Titles {
		if t.Original {
			continue
		}
		if t.Locked || t.Votes >= 0 {
			return t.Title
		}
	}
	return ""
}

// Client fetches branding from one server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client. An empty base URL uses the public server.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Branding returns the community branding for a video, or nil when
// nobody has submitted any.
func (c *Client) Branding(ctx context.Context, videoID string) (*Branding, error) {
	query := url.Values{"videoID": {videoID}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/branding?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch branding: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("branding server returned status %d", resp.StatusCode)
	}

	var branding Branding
	if err := json.NewDecoder(resp.Body).Decode(&branding); err != nil {
		return nil, fmt.Errorf("decode branding: %w", err)
	}
	if len(branding.Titles) == 0 && len(branding.Thumbnails) == 0 {
		return nil, nil
	}
	return &branding, nil
}
