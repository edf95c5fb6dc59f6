package invidious

// videoObject is the API's video resource. Listing endpoints return the
// same shape with fewer fields populated.
type videoObject struct {
	Type            string           `json:"type"`
	VideoID         string           `json:"videoId"`
	Title           string           `json:"title"`
	Author          string           `json:"author"`
	AuthorID        string           `json:"authorId"`
	LengthSeconds   int              `json:"lengthSeconds"`
	Published       int64            `json:"published"`
	ViewCount       int64            `json:"viewCount"`
	LiveNow         bool             `json:"liveNow"`
	VideoThumbnails []videoThumbnail `json:"videoThumbnails"`
}

type videoThumbnail struct {
	Quality string `json:"quality"`
	URL     string `json:"url"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// channelObject is the channel profile resource.
type channelObject struct {
	Author           string           `json:"author"`
	AuthorID         string           `json:"authorId"`
	SubCount         int64            `json:"subCount"`
	AuthorThumbnails []videoThumbnail `json:"authorThumbnails"`
}

// channelVideosPage is the paginated channel uploads response.
type channelVideosPage struct {
	Videos       []videoObject `json:"videos"`
	Continuation string        `json:"continuation"`
}

// statsObject is the health probe response. Only version and the open
// registrations flag are read; the rest documents instance load.
type statsObject struct {
	Version  string `json:"version"`
	Software struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"software"`
	OpenRegistrations bool `json:"openRegistrations"`
}

// apiError is the API's error envelope.
type apiError struct {
	Error string `json:"error"`
}
