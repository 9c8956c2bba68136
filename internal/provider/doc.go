// Package provider implements the provider/registry substrate shared by
// things, items, links and automation types.
//
// A Provider contributes a set of elements and notifies listeners when
// that set changes. A Registry aggregates any number of providers that may
// be registered and unregistered at runtime; it forwards their change
// notifications to registry listeners and, optionally, publishes domain
// events for them.
//
// Exactly one provider per registry may be writable: the Managed provider.
// Registry mutations (Add, Update, Remove) are delegated to it and fail
// with ErrNoManagedProvider when none is set. Managed providers persist
// through a storage.Storage that is bound late, once the storage backend
// has been selected.
//
// Notifications are synchronous and delivered in listener registration
// order. When a Managed provider replaces an element with the same ID it
// notifies Removed(old) before Added(new).
package provider
