package innertube

import "encoding/json"

// Request payload types.

type requestContext struct {
	Client clientInfo `json:"client"`
	User   userInfo   `json:"user"`
}

type clientInfo struct {
	ClientName    string `json:"clientName"`
	ClientVersion string `json:"clientVersion"`
	HL            string `json:"hl"`
	GL            string `json:"gl"`
	VisitorData   string `json:"visitorData,omitempty"`
}

type userInfo struct {
	LockedSafetyMode bool `json:"lockedSafetyMode"`
}

// Response payload types. Only the fields the mapper reads are declared;
// everything else in the payload is ignored.

type playerResponse struct {
	PlayabilityStatus playabilityStatus `json:"playabilityStatus"`
	VideoDetails      videoDetails      `json:"videoDetails"`
	Microformat       microformat       `json:"microformat"`
}

type playabilityStatus struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type videoDetails struct {
	VideoID          string    `json:"videoId"`
	Title            string    `json:"title"`
	LengthSeconds    string    `json:"lengthSeconds"`
	ChannelID        string    `json:"channelId"`
	Author           string    `json:"author"`
	ViewCount        string    `json:"viewCount"`
	IsLiveContent    bool      `json:"isLiveContent"`
	IsLive           bool      `json:"isLive"`
	ShortDescription string    `json:"shortDescription"`
	Thumbnail        thumbnail `json:"thumbnail"`
}

type microformat struct {
	Renderer microformatRenderer `json:"playerMicroformatRenderer"`
}

type microformatRenderer struct {
	PublishDate string `json:"publishDate"`
	UploadDate  string `json:"uploadDate"`
}

type thumbnail struct {
	Thumbnails []thumbnailEntry `json:"thumbnails"`
}

type thumbnailEntry struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// best returns the largest thumbnail variant, or "" when none exist.
func (t thumbnail) best() string {
	url, area := "", 0
	for _, entry := range t.Thumbnails {
		if a := entry.Width * entry.Height; a >= area {
			url, area = entry.URL, a
		}
	}
	return url
}

// channelResponse carries the channel browse header. Older payloads put
// the profile under c4TabbedHeaderRenderer; the metadata renderer is a
// stable secondary source without a subscriber count.
type channelResponse struct {
	Header struct {
		C4 struct {
			ChannelID           string    `json:"channelId"`
			Title               string    `json:"title"`
			Avatar              thumbnail `json:"avatar"`
			SubscriberCountText textField `json:"subscriberCountText"`
		} `json:"c4TabbedHeaderRenderer"`
	} `json:"header"`
	Metadata struct {
		Renderer struct {
			ExternalID string    `json:"externalId"`
			Title      string    `json:"title"`
			Avatar     thumbnail `json:"avatar"`
		} `json:"channelMetadataRenderer"`
	} `json:"metadata"`
}

// textField is the API's polymorphic text shape: either a simpleText
// string or a list of styled runs.
type textField struct {
	SimpleText string `json:"simpleText"`
	Runs       []struct {
		Text string `json:"text"`
	} `json:"runs"`
}

func (t textField) String() string {
	if t.SimpleText != "" {
		return t.SimpleText
	}
	var out string
	for _, run := range t.Runs {
		out += run.Text
	}
	return out
}

// bylineText carries the channel attribution on listing tiles. Its runs
// link back to the channel via a browse endpoint.
type bylineText struct {
	SimpleText string `json:"simpleText"`
	Runs       []struct {
		Text               string `json:"text"`
		NavigationEndpoint struct {
			BrowseEndpoint struct {
				BrowseID string `json:"browseId"`
			} `json:"browseEndpoint"`
		} `json:"navigationEndpoint"`
	} `json:"runs"`
}

func (b bylineText) String() string {
	if b.SimpleText != "" {
		return b.SimpleText
	}
	var out string
	for _, run := range b.Runs {
		out += run.Text
	}
	return out
}

func (b bylineText) channelID() string {
	for _, run := range b.Runs {
		if id := run.NavigationEndpoint.BrowseEndpoint.BrowseID; id != "" {
			return id
		}
	}
	return ""
}

// videoRenderer is the listing-surface video tile used on channel pages,
// search results and trending shelves.
type videoRenderer struct {
	VideoID       string     `json:"videoId"`
	Title         textField  `json:"title"`
	LongByline    bylineText `json:"longBylineText"`
	OwnerText     bylineText `json:"ownerText"`
	PublishedTime textField  `json:"publishedTimeText"`
	LengthText    textField  `json:"lengthText"`
	ViewCountText textField  `json:"viewCountText"`
	Thumbnail     thumbnail  `json:"thumbnail"`
	Badges        []struct {
		MetadataBadgeRenderer struct {
			Style string `json:"style"`
		} `json:"metadataBadgeRenderer"`
	} `json:"badges"`
}

func (r videoRenderer) channelID() string {
	if id := r.LongByline.channelID(); id != "" {
		return id
	}
	return r.OwnerText.channelID()
}

func (r videoRenderer) isLive() bool {
	for _, badge := range r.Badges {
		if badge.MetadataBadgeRenderer.Style == "BADGE_STYLE_TYPE_LIVE_NOW" {
			return true
		}
	}
	return false
}

// listingItems holds what a recursive walk of a browse or search
// response yields: the renderers in document order plus the first
// continuation token encountered.
type listingItems struct {
	renderers    []videoRenderer
	continuation string
}

// collectListing walks an arbitrary response tree for videoRenderer and
// continuationCommand nodes. The API nests these at unstable depths, so
// structural traversal beats hardcoded paths.
func collectListing(raw json.RawMessage) (listingItems, error) {
	var root any
	if err := json.Unmarshal(raw, &root); err != nil {
		return listingItems{}, err
	}
	var items listingItems
	walk(root, &items)
	return items, nil
}

func walk(node any, items *listingItems) {
	switch v := node.(type) {
	case map[string]any:
		if renderer, ok := v["videoRenderer"]; ok {
			if r, ok := decodeRenderer(renderer); ok {
				items.renderers = append(items.renderers, r)
			}
			return
		}
		if cmd, ok := v["continuationCommand"].(map[string]any); ok {
			if token, ok := cmd["token"].(string); ok && items.continuation == "" {
				items.continuation = token
			}
			return
		}
		for _, child := range v {
			walk(child, items)
		}
	case []any:
		for _, child := range v {
			walk(child, items)
		}
	}
}

func decodeRenderer(node any) (videoRenderer, bool) {
	encoded, err := json.Marshal(node)
	if err != nil {
		return videoRenderer{}, false
	}
	var r videoRenderer
	if err := json.Unmarshal(encoded, &r); err != nil {
		return videoRenderer{}, false
	}
	return r, r.VideoID != ""
}
