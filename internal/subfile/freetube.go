package subfile

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"tubefeed/internal/store"
)

// freetubeProfile is one line of a FreeTube profile dump.
type freetubeProfile struct {
	ID            string                 `json:"_id,omitempty"`
	Name          string                 `json:"name"`
	Subscriptions []freetubeSubscription `json:"subscriptions"`
}

type freetubeSubscription struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// decodeFreeTube reads a profile dump: one JSON object per line, each
// holding a subscription list. Subscriptions across profiles are
// merged.
func decodeFreeTube(r io.Reader) ([]store.Subscription, int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var subs []store.Subscription
	rejected := 0
	lines := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines++
		var profile freetubeProfile
		if err := json.Unmarshal([]byte(line), &profile); err != nil {
			rejected++
			continue
		}
		for _, sub := range profile.Subscriptions {
			if strings.TrimSpace(sub.ID) == "" {
				rejected++
				continue
			}
			subs = append(subs, store.Subscription{ChannelID: sub.ID, ChannelName: sub.Name})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if lines == 0 {
		return nil, 0, fmt.Errorf("%w: empty profile dump", ErrFormat)
	}
	return subs, rejected, nil
}

func encodeFreeTube(w io.Writer, subs []store.Subscription) error {
	profile := freetubeProfile{
		ID:            "allChannels",
		Name:          "All Channels",
		Subscriptions: make([]freetubeSubscription, 0, len(subs)),
	}
	for _, sub := range subs {
		profile.Subscriptions = append(profile.Subscriptions, freetubeSubscription{
			ID:   sub.ChannelID,
			Name: sub.ChannelName,
		})
	}
	encoded, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if _, err := w.Write(append(encoded, '\n')); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}
