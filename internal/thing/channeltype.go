package thing

import "sync"

// ChannelType describes a kind of channel.
//
// Advanced channel types are not linked automatically when a Thing appears.
type ChannelType struct {
	UID      ChannelTypeUID `json:"uid" yaml:"uid"`
	ItemType string         `json:"item_type" yaml:"item_type"`
	Label    string         `json:"label" yaml:"label"`
	Advanced bool           `json:"advanced" yaml:"advanced"`
}

// TypeResolver resolves channel types.
type TypeResolver interface {
	ChannelType(uid ChannelTypeUID) (ChannelType, bool)
}

// ChannelTypeRegistry is an in-memory TypeResolver.
type ChannelTypeRegistry struct {
	mu    sync.RWMutex
	types map[ChannelTypeUID]ChannelType
}

// NewChannelTypeRegistry creates a registry holding types.
func NewChannelTypeRegistry(types ...ChannelType) *ChannelTypeRegistry {
	r := &ChannelTypeRegistry{types: make(map[ChannelTypeUID]ChannelType, len(types))}
	for _, ct := range types {
		r.types[ct.UID] = ct
	}
	return r
}

// Register adds or replaces a channel type.
func (r *ChannelTypeRegistry) Register(ct ChannelType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[ct.UID] = ct
}

// ReplaceBinding replaces every channel type of bindingID with types.
func (r *ChannelTypeRegistry) ReplaceBinding(bindingID string, types []ChannelType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for uid := range r.types {
		if uid.BindingID == bindingID {
			delete(r.types, uid)
		}
	}
	for _, ct := range types {
		r.types[ct.UID] = ct
	}
}

// Len returns the number of registered channel types.
func (r *ChannelTypeRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}

// ChannelType implements TypeResolver.
func (r *ChannelTypeRegistry) ChannelType(uid ChannelTypeUID) (ChannelType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ct, ok := r.types[uid]
	return ct, ok
}
