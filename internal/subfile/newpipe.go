package subfile

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"tubefeed/internal/store"
)

// youtubeServiceID is NewPipe's identifier for the YouTube service.
const youtubeServiceID = 0

type newpipeExport struct {
	AppVersion    string                `json:"app_version"`
	AppVersionInt int                   `json:"app_version_int"`
	Subscriptions []newpipeSubscription `json:"subscriptions"`
}

type newpipeSubscription struct {
	ServiceID int    `json:"service_id"`
	URL       string `json:"url"`
	Name      string `json:"name"`
}

// decodeNewPipe reads a NewPipe subscription export. Entries for other
// services are rejected, not errors.
func decodeNewPipe(r io.Reader) ([]store.Subscription, int, error) {
	var export newpipeExport
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if export.Subscriptions == nil {
		return nil, 0, fmt.Errorf("%w: missing subscriptions list", ErrFormat)
	}

	var subs []store.Subscription
	rejected := 0
	for _, entry := range export.Subscriptions {
		if entry.ServiceID != youtubeServiceID {
			rejected++
			continue
		}
		id := channelIDFromURL(entry.URL)
		if id == "" {
			rejected++
			continue
		}
		subs = append(subs, store.Subscription{ChannelID: id, ChannelName: strings.TrimSpace(entry.Name)})
	}
	return subs, rejected, nil
}

func encodeNewPipe(w io.Writer, subs []store.Subscription) error {
	export := newpipeExport{
		AppVersion:    "0.27.0",
		AppVersionInt: 1000,
		Subscriptions: make([]newpipeSubscription, 0, len(subs)),
	}
	for _, sub := range subs {
		export.Subscriptions = append(export.Subscriptions, newpipeSubscription{
			ServiceID: youtubeServiceID,
			URL:       channelURL(sub.ChannelID),
			Name:      sub.ChannelName,
		})
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(export); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}
