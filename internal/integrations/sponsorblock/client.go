// Package sponsorblock fetches crowd-sourced skip segments for videos.
package sponsorblock

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the public segment server.
const DefaultBaseURL = "https://sponsor.ajay.app"

// DefaultCategories are the segment kinds requested when the
// configuration names none.
var DefaultCategories = []string{"sponsor", "selfpromo", "interaction", "intro", "outro"}

// Segment is one skippable span within a video.
type Segment struct {
	Category string  `json:"category"`
	Action   string  `json:"actionType"`
	Start    float64 `json:"-"`
	End      float64 `json:"-"`
	UUID     string  `json:"UUID"`
	Votes    int     `json:"votes"`
}

// segmentDTO carries the wire shape, where the span is a two-element
// array.
type segmentDTO struct {
	Segment
	Span []float64 `json:"segment"`
}

// Client fetches segments from one server.
type Client struct {
	baseURL    string
	categories []string
	httpClient *http.Client
}

// NewClient builds a client. Empty arguments fall back to the public
// server and the default categories.
func NewClient(baseURL string, categories []string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if len(categories) == 0 {
		categories = DefaultCategories
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		categories: categories,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Segments returns the skip segments for a video. A video nobody has
// annotated yields an empty list, not an error.
func (c *Client) Segments(ctx context.Context, videoID string) ([]Segment, error) {
	categories, err := json.Marshal(c.categories)
	if err != nil {
		return nil, fmt.Errorf("encode categories: %w", err)
	}
	query := url.Values{
		"videoID":    {videoID},
		"categories": {string(categories)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/skipSegments?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch segments: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return []Segment{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("segment server returned status %d", resp.StatusCode)
	}

	var dtos []segmentDTO
	if err := json.NewDecoder(resp.Body).Decode(&dtos); err != nil {
		return nil, fmt.Errorf("decode segments: %w", err)
	}

	segments := make([]Segment, 0, len(dtos))
	for _, dto := range dtos {
		if len(dto.Span) != 2 || dto.Span[1] < dto.Span[0] {
			continue
		}
		segment := dto.Segment
		segment.Start = dto.Span[0]
		segment.End = dto.Span[1]
		segments = append(segments, segment)
	}
	return segments, nil
}
