package media

// ChannelRef is an immutable snapshot of a channel's metadata.
type ChannelRef struct {
	ID              string
	Name            string
	SubscriberCount *int64
	AvatarURL       string
}
