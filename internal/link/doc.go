// Package link binds Items to Channels and Things.
//
// Two link kinds exist:
//
//   - ItemChannelLink: item name -> ChannelUID
//   - ItemThingLink:   item name -> ThingUID
//
// A link is identified by the pair; ID() renders it as "<item> -> <uid>"
// and is the storage key. Links are immutable: changing either side is a
// remove followed by an add.
//
// ItemChannelLinkRegistry and ItemThingLinkRegistry aggregate links from
// every registered provider. Queries scan the current provider snapshot on
// each call; lookups that cross-reference the item and thing registries
// silently skip links whose target no longer exists.
//
// ThingLinkManager keeps default links in step with Things: it creates a
// link per non-advanced channel when a Thing appears, removes them when it
// goes away, and tells thing handlers about channels being linked or
// unlinked.
package link
