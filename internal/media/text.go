package media

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrBadText indicates a human-readable field could not be parsed.
var ErrBadText = errors.New("unparseable text field")

// ParseClockDuration converts a clock-style duration label ("4:13",
// "1:02:33") into seconds. The primary backend's listing surfaces carry
// durations only in this form.
func ParseClockDuration(text string) (int, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, ErrBadText
	}
	parts := strings.Split(trimmed, ":")
	if len(parts) > 3 {
		return 0, ErrBadText
	}
	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return 0, ErrBadText
		}
		total = total*60 + n
	}
	return total, nil
}

// ParseCount extracts an integer from count labels such as
// "1,234,567 views", "12,001 subscribers", or the abbreviated
// "1.23M subscribers" used on channel headers.
func ParseCount(text string) (int64, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, ErrBadText
	}
	if idx := strings.IndexByte(trimmed, ' '); idx > 0 {
		trimmed = trimmed[:idx]
	}
	trimmed = strings.ReplaceAll(trimmed, ",", "")

	multiplier := int64(1)
	switch last := trimmed[len(trimmed)-1]; last {
	case 'K', 'k':
		multiplier = 1_000
	case 'M', 'm':
		multiplier = 1_000_000
	case 'B', 'b':
		multiplier = 1_000_000_000
	}
	if multiplier > 1 {
		f, err := strconv.ParseFloat(trimmed[:len(trimmed)-1], 64)
		if err != nil || f < 0 {
			return 0, ErrBadText
		}
		return int64(f * float64(multiplier)), nil
	}

	n, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || n < 0 {
		return 0, ErrBadText
	}
	return n, nil
}

var relativeUnits = map[string]time.Duration{
	"second": time.Second,
	"minute": time.Minute,
	"hour":   time.Hour,
	"day":    24 * time.Hour,
	"week":   7 * 24 * time.Hour,
	"month":  30 * 24 * time.Hour,
	"year":   365 * 24 * time.Hour,
}

// ParseRelativeTime approximates an absolute timestamp from labels like
// "3 days ago". The result is inherently fuzzy; callers treat it as an
// ordering hint, not a precise publish time. Returns nil when the label
// cannot be interpreted.
func ParseRelativeTime(text string, now time.Time) *time.Time {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(text)))
	// Expected shape: "<n> <unit> ago", with an optional "Streamed" prefix.
	if len(fields) > 0 && fields[0] == "streamed" {
		fields = fields[1:]
	}
	if len(fields) != 3 || fields[2] != "ago" {
		return nil
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 0 {
		return nil
	}
	unit := strings.TrimSuffix(fields[1], "s")
	d, ok := relativeUnits[unit]
	if !ok {
		return nil
	}
	ts := now.Add(-time.Duration(n) * d).UTC()
	return &ts
}
