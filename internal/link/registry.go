package link

import (
	"github.com/nerrad567/gray-logic-links/internal/provider"
)

// Registry aggregates links of one kind and indexes them by item and UID.
// Indexes are computed on demand from the current provider snapshot.
type Registry[U comparable, L Link[U]] struct {
	*provider.Registry[L]
}

// NewRegistry creates an empty link registry.
func NewRegistry[U comparable, L Link[U]](name string) *Registry[U, L] {
	return &Registry[U, L]{Registry: provider.NewRegistry[L](name)}
}

// IsLinked reports whether a link between itemName and uid exists.
func (r *Registry[U, L]) IsLinked(itemName string, uid U) bool {
	for _, l := range r.GetAll() {
		if l.ItemName() == itemName && l.LinkedUID() == uid {
			return true
		}
	}
	return false
}

// LinkedItemNames returns the distinct names of items linked to uid, in
// the order their links were found.
func (r *Registry[U, L]) LinkedItemNames(uid U) []string {
	var names []string
	seen := make(map[string]bool)
	for _, l := range r.GetAll() {
		if l.LinkedUID() != uid || seen[l.ItemName()] {
			continue
		}
		seen[l.ItemName()] = true
		names = append(names, l.ItemName())
	}
	return names
}

// Links returns every link targeting uid.
func (r *Registry[U, L]) Links(uid U) []L {
	var links []L
	for _, l := range r.GetAll() {
		if l.LinkedUID() == uid {
			links = append(links, l)
		}
	}
	return links
}

// LinksForItem returns every link of itemName.
func (r *Registry[U, L]) LinksForItem(itemName string) []L {
	var links []L
	for _, l := range r.GetAll() {
		if l.ItemName() == itemName {
			links = append(links, l)
		}
	}
	return links
}
