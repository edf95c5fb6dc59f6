package subfile

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"tubefeed/internal/store"
)

type opmlDocument struct {
	XMLName xml.Name    `xml:"opml"`
	Version string      `xml:"version,attr"`
	Head    opmlHead    `xml:"head"`
	Body    opmlOutline `xml:"body"`
}

type opmlHead struct {
	Title string `xml:"title"`
}

// opmlOutline nests arbitrarily; feeds can sit at any depth.
type opmlOutline struct {
	Text     string        `xml:"text,attr,omitempty"`
	Title    string        `xml:"title,attr,omitempty"`
	Type     string        `xml:"type,attr,omitempty"`
	XMLURL   string        `xml:"xmlUrl,attr,omitempty"`
	Outlines []opmlOutline `xml:"outline"`
}

func decodeOPML(r io.Reader) ([]store.Subscription, int, error) {
	var doc opmlDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	var subs []store.Subscription
	rejected := 0
	var visit func(outline opmlOutline)
	visit = func(outline opmlOutline) {
		if outline.XMLURL != "" {
			id := channelIDFromURL(outline.XMLURL)
			if id == "" {
				rejected++
			} else {
				name := outline.Title
				if name == "" {
					name = outline.Text
				}
				subs = append(subs, store.Subscription{ChannelID: id, ChannelName: strings.TrimSpace(name)})
			}
		}
		for _, child := range outline.Outlines {
			visit(child)
		}
	}
	visit(doc.Body)
	return subs, rejected, nil
}

// feedURL is the channel's RSS feed, the address OPML consumers poll.
func feedURL(channelID string) string {
	return "https://www.youtube.com/feeds/videos.xml?channel_id=" + channelID
}

func encodeOPML(w io.Writer, subs []store.Subscription) error {
	doc := opmlDocument{
		Version: "1.1",
		Head:    opmlHead{Title: "Subscriptions"},
	}
	group := opmlOutline{Text: "Subscriptions", Title: "Subscriptions"}
	for _, sub := range subs {
		group.Outlines = append(group.Outlines, opmlOutline{
			Text:   sub.ChannelName,
			Title:  sub.ChannelName,
			Type:   "rss",
			XMLURL: feedURL(sub.ChannelID),
		})
	}
	doc.Body.Outlines = []opmlOutline{group}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("write opml header: %w", err)
	}
	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("encode opml: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}
