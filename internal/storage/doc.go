// Package storage provides the key-value persistence used by managed
// providers.
//
// A Storage[T] maps string keys (a link's "item -> uid" ID, a thing UID,
// an item name) to values of T. Two backends exist:
//
//   - Memory: map-backed, for tests and ephemeral installs
//   - SQLite: JSON values in the kv_store table, one namespace per element kind
//
// Both backends preserve insertion order in Values and Keys; replacing the
// value of an existing key keeps its position.
//
// # Late binding
//
// A backend may not be available when providers are constructed (the
// database is opened and migrated later in startup). The Service announces
// the selected backend to every registered callback:
//
//	svc := storage.NewService()
//	storage.Bind(svc, "item_channel_links", linkProvider.StorageSelected, nil)
//	...
//	svc.Select(storage.NewSQLiteBackend(db.DB))
package storage
