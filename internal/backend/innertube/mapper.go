package innertube

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"tubefeed/internal/backend"
	"tubefeed/internal/media"
)

// mapPlayerResponse converts a player endpoint payload into the
// canonical video model. Playability failures surface as permanent or
// not-found errors depending on the reported status.
func mapPlayerResponse(raw json.RawMessage, videoID string) (*media.VideoRef, error) {
	var resp playerResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, backend.Wrap(backend.ErrParse, "decode player response", err)
	}

	switch resp.PlayabilityStatus.Status {
	case "", "OK", "LIVE_STREAM_OFFLINE":
	case "ERROR":
		return nil, backend.Wrap(backend.ErrNotFound, "player status", fmt.Errorf("%s: %s", videoID, resp.PlayabilityStatus.Reason))
	case "LOGIN_REQUIRED", "UNPLAYABLE", "CONTENT_CHECK_REQUIRED", "AGE_CHECK_REQUIRED":
		return nil, backend.Wrap(backend.ErrPermanent, "player status", fmt.Errorf("%s: %s: %s", videoID, resp.PlayabilityStatus.Status, resp.PlayabilityStatus.Reason))
	default:
		return nil, backend.Wrap(backend.ErrParse, "player status", fmt.Errorf("unrecognized status %q", resp.PlayabilityStatus.Status))
	}

	details := resp.VideoDetails
	if details.VideoID == "" || details.Title == "" {
		return nil, backend.Wrap(backend.ErrParse, "player response", fmt.Errorf("missing video details for %s", videoID))
	}

	ref := &media.VideoRef{
		ID:           details.VideoID,
		Title:        details.Title,
		ChannelID:    details.ChannelID,
		ChannelName:  details.Author,
		ThumbnailURL: details.Thumbnail.best(),
		Live:         details.IsLive,
	}
	if secs, err := strconv.Atoi(details.LengthSeconds); err == nil && secs >= 0 {
		ref.DurationSeconds = secs
	}
	if count, err := strconv.ParseInt(details.ViewCount, 10, 64); err == nil && count >= 0 {
		ref.ViewCount = &count
	}
	if published := parsePublishDate(resp.Microformat.Renderer); published != nil {
		ref.PublishedAt = published
	}
	return ref, nil
}

// parsePublishDate reads the microformat dates, preferring publishDate.
// Both arrive as ISO dates, sometimes with a time component attached.
func parsePublishDate(mf microformatRenderer) *time.Time {
	for _, value := range []string{mf.PublishDate, mf.UploadDate} {
		if value == "" {
			continue
		}
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if ts, err := time.Parse(layout, value); err == nil {
				ts = ts.UTC()
				return &ts
			}
		}
	}
	return nil
}

// mapChannelResponse reads the channel profile out of a browse payload,
// preferring the header and falling back to the metadata renderer.
func mapChannelResponse(raw json.RawMessage, channelID string) (*media.ChannelRef, error) {
	var resp channelResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, backend.Wrap(backend.ErrParse, "decode channel response", err)
	}

	ref := &media.ChannelRef{
		ID:        resp.Header.C4.ChannelID,
		Name:      resp.Header.C4.Title,
		AvatarURL: resp.Header.C4.Avatar.best(),
	}
	if ref.ID == "" {
		ref.ID = resp.Metadata.Renderer.ExternalID
	}
	if ref.Name == "" {
		ref.Name = resp.Metadata.Renderer.Title
	}
	if ref.AvatarURL == "" {
		ref.AvatarURL = resp.Metadata.Renderer.Avatar.best()
	}
	if ref.Name == "" {
		return nil, backend.Wrap(backend.ErrParse, "channel response", fmt.Errorf("missing channel header for %s", channelID))
	}
	if ref.ID == "" {
		ref.ID = channelID
	}
	if count, err := media.ParseCount(resp.Header.C4.SubscriberCountText.String()); err == nil {
		ref.SubscriberCount = &count
	}
	return ref, nil
}

// mapListing converts a browse or search payload into a channel page.
// channelID, when known from the request, backfills tiles that omit
// their own attribution.
func mapListing(raw json.RawMessage, channelID string) (media.ChannelPage, error) {
	items, err := collectListing(raw)
	if err != nil {
		return media.ChannelPage{}, backend.Wrap(backend.ErrParse, "decode listing response", err)
	}

	now := time.Now()
	page := media.ChannelPage{NextCursor: items.continuation}
	for _, renderer := range items.renderers {
		ref, ok := mapRenderer(renderer, channelID, now)
		if !ok {
			continue
		}
		page.Videos = append(page.Videos, ref)
	}
	return page, nil
}

func mapRenderer(r videoRenderer, channelID string, now time.Time) (media.VideoRef, bool) {
	title := r.Title.String()
	if r.VideoID == "" || title == "" {
		return media.VideoRef{}, false
	}

	ref := media.VideoRef{
		ID:           r.VideoID,
		Title:        title,
		ChannelID:    r.channelID(),
		ChannelName:  r.LongByline.String(),
		ThumbnailURL: r.Thumbnail.best(),
		Live:         r.isLive(),
	}
	if ref.ChannelID == "" {
		ref.ChannelID = channelID
	}
	if ref.ChannelName == "" {
		ref.ChannelName = r.OwnerText.String()
	}
	if secs, err := media.ParseClockDuration(r.LengthText.String()); err == nil {
		ref.DurationSeconds = secs
	}
	if count, err := media.ParseCount(r.ViewCountText.String()); err == nil {
		ref.ViewCount = &count
	}
	ref.PublishedAt = media.ParseRelativeTime(r.PublishedTime.String(), now)
	return ref, true
}
