package invidious

import (
	"fmt"
	"strings"
	"time"

	"tubefeed/internal/backend"
	"tubefeed/internal/media"
)

// mapVideo converts an API video resource into the canonical model.
func mapVideo(obj videoObject, endpoint string) (media.VideoRef, error) {
	if obj.VideoID == "" || obj.Title == "" {
		return media.VideoRef{}, backend.Wrap(backend.ErrParse, "video resource", fmt.Errorf("missing id or title from %s", endpoint))
	}
	ref := media.VideoRef{
		ID:              obj.VideoID,
		Title:           obj.Title,
		ChannelID:       obj.AuthorID,
		ChannelName:     obj.Author,
		DurationSeconds: obj.LengthSeconds,
		ThumbnailURL:    bestThumbnail(obj.VideoThumbnails, endpoint),
		Live:            obj.LiveNow,
	}
	if obj.Published > 0 {
		ts := time.Unix(obj.Published, 0).UTC()
		ref.PublishedAt = &ts
	}
	if obj.ViewCount > 0 || (obj.ViewCount == 0 && obj.Published > 0) {
		count := obj.ViewCount
		ref.ViewCount = &count
	}
	return ref, nil
}

// mapChannel converts a channel profile resource into the canonical
// model.
func mapChannel(obj channelObject, endpoint string) (*media.ChannelRef, error) {
	if obj.AuthorID == "" || obj.Author == "" {
		return nil, backend.Wrap(backend.ErrParse, "channel resource", fmt.Errorf("missing id or name from %s", endpoint))
	}
	ref := &media.ChannelRef{
		ID:        obj.AuthorID,
		Name:      obj.Author,
		AvatarURL: bestThumbnail(obj.AuthorThumbnails, endpoint),
	}
	if obj.SubCount > 0 {
		count := obj.SubCount
		ref.SubscriberCount = &count
	}
	return ref, nil
}

// mapVideoList converts a listing, dropping entries too malformed to
// represent. Listings tolerate per-item damage where single-video
// resolution does not.
func mapVideoList(objects []videoObject, endpoint string) []media.VideoRef {
	refs := make([]media.VideoRef, 0, len(objects))
	for _, obj := range objects {
		if obj.Type != "" && obj.Type != "video" && obj.Type != "shortVideo" {
			continue
		}
		ref, err := mapVideo(obj, endpoint)
		if err != nil {
			continue
		}
		refs = append(refs, ref)
	}
	return refs
}

func mapChannelPage(page channelVideosPage, channelID, endpoint string) (media.ChannelPage, error) {
	out := media.ChannelPage{NextCursor: page.Continuation}
	out.Videos = mapVideoList(page.Videos, endpoint)
	for i := range out.Videos {
		if out.Videos[i].ChannelID == "" {
			out.Videos[i].ChannelID = channelID
		}
	}
	return out, nil
}

// bestThumbnail picks the largest variant. Instances sometimes return
// relative thumbnail paths; those are resolved against the instance.
func bestThumbnail(thumbnails []videoThumbnail, endpoint string) string {
	url, area := "", 0
	for _, t := range thumbnails {
		if a := t.Width * t.Height; a >= area {
			url, area = t.URL, a
		}
	}
	if url != "" && strings.HasPrefix(url, "/") {
		url = endpoint + url
	}
	return url
}
