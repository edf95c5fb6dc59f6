package dearrow

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL)
}

func TestBranding(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/branding" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"titles": [
				{"title": "Original Clickbait", "votes": 3, "original": true},
				{"title": "What the video actually shows", "votes": 12, "locked": true}
			],
			"thumbnails": [{"timestamp": 42.0, "votes": 5}]
		}`))
	})

	branding, err := client.Branding(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Branding: %v", err)
	}
	if branding == nil {
		t.Fatal("expected branding")
	}
	if got := branding.BestTitle(); got != "What the video actually shows" {
		t.Fatalf("best title = %q", got)
	}
	if len(branding.Thumbnails) != 1 || branding.Thumbnails[0].Timestamp != 42.0 {
		t.Fatalf("thumbnails = %+v", branding.Thumbnails)
	}
}

func TestBrandingNoneSubmitted(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	branding, err := client.Branding(context.Background(), "plain000000")
	if err != nil {
		t.Fatalf("Branding: %v", err)
	}
	if branding != nil {
		t.Fatalf("branding = %+v, want nil", branding)
	}
}

func TestBrandingEmptyPayloadIsNil(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"titles": [], "thumbnails": []}`))
	})

	branding, err := client.Branding(context.Background(), "plain000000")
	if err != nil {
		t.Fatalf("Branding: %v", err)
	}
	if branding != nil {
		t.Fatalf("branding = %+v, want nil", branding)
	}
}
