package subfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"tubefeed/internal/store"
)

// ErrFormat reports input that does not match any supported format or
// is too damaged to decode.
var ErrFormat = errors.New("unrecognized subscription file format")

// Format identifies a subscription exchange format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatFreeTube Format = "freetube"
	FormatNewPipe  Format = "newpipe"
	FormatOPML     Format = "opml"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatCSV, FormatFreeTube, FormatNewPipe, FormatOPML}
}

// ParseFormat converts a user-supplied format name.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatFreeTube:
		return FormatFreeTube, nil
	case FormatNewPipe:
		return FormatNewPipe, nil
	case FormatOPML:
		return FormatOPML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrFormat, name)
	}
}

// DetectFormat guesses the format from a filename and the file's
// leading bytes.
func DetectFormat(filename string, data []byte) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatCSV, nil
	case ".opml":
		return FormatOPML, nil
	}

	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.HasPrefix(trimmed, []byte("<")):
		return FormatOPML, nil
	case bytes.HasPrefix(trimmed, []byte("{")):
		// Both JSON formats open with an object; NewPipe carries an
		// app_version field, FreeTube dumps one profile per line.
		head := trimmed
		if idx := bytes.IndexByte(head, '\n'); idx > 0 {
			head = head[:idx]
		}
		if bytes.Contains(head, []byte("app_version")) {
			return FormatNewPipe, nil
		}
		return FormatFreeTube, nil
	case bytes.Contains(trimmed, []byte("Channel Id")) || strings.HasPrefix(string(trimmed), "UC"):
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %s", ErrFormat, filename)
}

// Decode parses a subscription file. The rejected count reports rows
// that were present but unusable.
func Decode(format Format, r io.Reader) (records []store.Subscription, rejected int, err error) {
	switch format {
	case FormatCSV:
		return decodeCSV(r)
	case FormatFreeTube:
		return decodeFreeTube(r)
	case FormatNewPipe:
		return decodeNewPipe(r)
	case FormatOPML:
		return decodeOPML(r)
	default:
		return nil, 0, fmt.Errorf("%w: %q", ErrFormat, format)
	}
}

// Encode writes subscriptions in the requested format.
func Encode(format Format, w io.Writer, subs []store.Subscription) error {
	switch format {
	case FormatCSV:
		return encodeCSV(w, subs)
	case FormatFreeTube:
		return encodeFreeTube(w, subs)
	case FormatNewPipe:
		return encodeNewPipe(w, subs)
	case FormatOPML:
		return encodeOPML(w, subs)
	default:
		return fmt.Errorf("%w: %q", ErrFormat, format)
	}
}

// channelURL is the canonical channel link used by the URL-bearing
// formats.
func channelURL(channelID string) string {
	return "https://www.youtube.com/channel/" + channelID
}

// channelIDFromURL extracts a channel id from the URL shapes the
// exchange formats carry.
func channelIDFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, marker := range []string{"/channel/", "channel_id="} {
		if idx := strings.Index(raw, marker); idx >= 0 {
			id := raw[idx+len(marker):]
			if cut := strings.IndexAny(id, "/?&"); cut >= 0 {
				id = id[:cut]
			}
			return id
		}
	}
	return ""
}
