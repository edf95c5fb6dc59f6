package media

import (
	"testing"
	"time"
)

func TestParseClockDuration(t *testing.T) {
	cases := []struct {
		text    string
		want    int
		wantErr bool
	}{
		{"4:13", 253, false},
		{"1:02:33", 3753, false},
		{"0:59", 59, false},
		{" 10:00 ", 600, false},
		{"", 0, true},
		{"1:2:3:4", 0, true},
		{"abc", 0, true},
		{"-1:00", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseClockDuration(tc.text)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseClockDuration(%q): expected error", tc.text)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClockDuration(%q): %v", tc.text, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseClockDuration(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}

func TestParseCount(t *testing.T) {
	cases := []struct {
		text    string
		want    int64
		wantErr bool
	}{
		{"1,234,567 views", 1234567, false},
		{"42 views", 42, false},
		{"987654", 987654, false},
		{"1.23M subscribers", 1230000, false},
		{"4K views", 4000, false},
		{"1.5B views", 1500000000, false},
		{"No views", 0, true},
		{"xM subscribers", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseCount(tc.text)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseCount(%q): expected error", tc.text)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCount(%q): %v", tc.text, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseCount(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}

func TestParseRelativeTime(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	ts := ParseRelativeTime("3 days ago", now)
	if ts == nil {
		t.Fatal("expected timestamp for '3 days ago'")
	}
	if want := now.Add(-3 * 24 * time.Hour); !ts.Equal(want) {
		t.Fatalf("got %v, want %v", ts, want)
	}

	if ts := ParseRelativeTime("1 hour ago", now); ts == nil || !ts.Equal(now.Add(-time.Hour)) {
		t.Fatalf("unexpected result for '1 hour ago': %v", ts)
	}

	if ts := ParseRelativeTime("Streamed 2 weeks ago", now); ts == nil {
		t.Fatal("expected streamed prefix to be tolerated")
	}

	for _, text := range []string{"", "yesterday", "3 fortnights ago", "soon"} {
		if ts := ParseRelativeTime(text, now); ts != nil {
			t.Errorf("ParseRelativeTime(%q): expected nil, got %v", text, ts)
		}
	}
}
