package thing

// Handler is the binding-side counterpart of a Thing.
//
// ChannelLinked and ChannelUnlinked are called when an Item link to one of
// the Thing's channels appears or disappears. Errors and panics are logged
// by the caller and never propagate.
type Handler interface {
	ChannelLinked(uid ChannelUID) error
	ChannelUnlinked(uid ChannelUID) error
}
