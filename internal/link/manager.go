package link

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/nerrad567/gray-logic-links/internal/provider"
	"github.com/nerrad567/gray-logic-links/internal/thing"
)

// Logger is the logging interface used by the link package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// ManagerMetrics observes ThingLinkManager activity.
type ManagerMetrics interface {
	AutoLink(action string)
	HandlerFailure(thingUID string)
}

type noopManagerMetrics struct{}

func (noopManagerMetrics) AutoLink(string)       {}
func (noopManagerMetrics) HandlerFailure(string) {}

// Things is what ThingLinkManager needs from the thing registry.
type Things interface {
	ThingLookup
	Handler(uid thing.ThingUID) (thing.Handler, bool)
}

// LinkStore is the writable side used to create and drop default links.
type LinkStore interface {
	Add(ctx context.Context, l ItemChannelLink) error
	Remove(ctx context.Context, id string) (ItemChannelLink, bool, error)
}

// ThingLinkManager creates and removes default item-channel links as
// Things come and go, and forwards link changes to thing handlers.
//
// Default links are created only while auto-linking is enabled, never for
// advanced channels, and not when the link already exists. Removal of a Thing's default links happens
// regardless of the auto-link setting.
type ThingLinkManager struct {
	things        Things
	thingProvider provider.Provider[thing.Thing]
	links         *ItemChannelLinkRegistry
	store         LinkStore
	types         thing.TypeResolver
	logger        Logger
	metrics       ManagerMetrics

	autoLinks atomic.Bool

	mu     sync.Mutex
	ctx    context.Context
	active bool

	thingListener *thingListener
	linkListener  *linkListener
}

// NewThingLinkManager creates a manager. thingProvider is the provider
// whose Things get default links; store is usually the managed link
// provider registered with links.
func NewThingLinkManager(things Things, thingProvider provider.Provider[thing.Thing], links *ItemChannelLinkRegistry, store LinkStore, types thing.TypeResolver, logger Logger) *ThingLinkManager {
	if logger == nil {
		logger = noopLogger{}
	}
	m := &ThingLinkManager{
		things:        things,
		thingProvider: thingProvider,
		links:         links,
		store:         store,
		types:         types,
		logger:        logger,
		metrics:       noopManagerMetrics{},
		ctx:           context.Background(),
	}
	m.autoLinks.Store(true)
	m.thingListener = &thingListener{m: m}
	m.linkListener = &linkListener{m: m}
	return m
}

// SetMetrics sets the metrics observer.
func (m *ThingLinkManager) SetMetrics(metrics ManagerMetrics) {
	m.metrics = metrics
}

// Activate applies autoLinks and subscribes to thing and link changes.
// ctx is used for the storage operations triggered by those changes.
func (m *ThingLinkManager) Activate(ctx context.Context, autoLinks bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.autoLinks.Store(autoLinks)
	if m.active {
		return
	}
	m.ctx = ctx
	m.active = true

	m.links.AddRegistryListener(m.linkListener)
	m.thingProvider.AddListener(m.thingListener)
	m.logger.Info("thing link manager activated", "auto_links", autoLinks)
}

// Modified applies a new auto-link setting. Existing links are untouched.
func (m *ThingLinkManager) Modified(autoLinks bool) {
	m.autoLinks.Store(autoLinks)
	m.logger.Info("thing link manager modified", "auto_links", autoLinks)
}

// Deactivate unsubscribes from thing and link changes.
func (m *ThingLinkManager) Deactivate() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active {
		return
	}
	m.active = false

	m.thingProvider.RemoveListener(m.thingListener)
	m.links.RemoveRegistryListener(m.linkListener)
	m.logger.Info("thing link manager deactivated")
}

// AutoLinks reports whether default links are created.
func (m *ThingLinkManager) AutoLinks() bool {
	return m.autoLinks.Load()
}

func (m *ThingLinkManager) opContext() context.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ctx
}

func (m *ThingLinkManager) thingAdded(t thing.Thing) {
	for _, ch := range t.Channels {
		m.createLink(ch)
	}
}

func (m *ThingLinkManager) thingRemoved(t thing.Thing) {
	for _, ch := range t.Channels {
		m.removeLink(ch)
	}
}

func (m *ThingLinkManager) thingUpdated(old, t thing.Thing) {
	current := make(map[thing.ChannelUID]bool, len(t.Channels))
	for _, ch := range t.Channels {
		current[ch.UID] = true
	}
	previous := make(map[thing.ChannelUID]bool, len(old.Channels))
	for _, ch := range old.Channels {
		previous[ch.UID] = true
		if !current[ch.UID] {
			m.removeLink(ch)
		}
	}
	for _, ch := range t.Channels {
		if !previous[ch.UID] {
			m.createLink(ch)
		}
	}
}

func (m *ThingLinkManager) createLink(ch thing.Channel) {
	if !m.autoLinks.Load() || m.isAdvanced(ch) {
		return
	}

	l := NewItemChannelLink(DeriveItemName(ch.UID), ch.UID)
	if m.links.IsLinked(l.Item, l.Channel) {
		return
	}
	if err := m.store.Add(m.opContext(), l); err != nil {
		m.logger.Error("creating default link failed", "link", l.ID(), "error", err)
		return
	}
	m.metrics.AutoLink("created")
	m.logger.Debug("default link created", "link", l.ID())
}

func (m *ThingLinkManager) removeLink(ch thing.Channel) {
	id := ChannelLinkID(DeriveItemName(ch.UID), ch.UID)
	_, removed, err := m.store.Remove(m.opContext(), id)
	if err != nil {
		m.logger.Error("removing default link failed", "link", id, "error", err)
		return
	}
	if removed {
		m.metrics.AutoLink("removed")
		m.logger.Debug("default link removed", "link", id)
	}
}

func (m *ThingLinkManager) isAdvanced(ch thing.Channel) bool {
	if m.types == nil || ch.TypeUID.IsZero() {
		return false
	}
	ct, ok := m.types.ChannelType(ch.TypeUID)
	return ok && ct.Advanced
}

func (m *ThingLinkManager) linkAdded(l ItemChannelLink) {
	m.notifyHandler(l, "linked", func(h thing.Handler) error { return h.ChannelLinked(l.Channel) })
}

func (m *ThingLinkManager) linkRemoved(l ItemChannelLink) {
	m.notifyHandler(l, "unlinked", func(h thing.Handler) error { return h.ChannelUnlinked(l.Channel) })
}

func (m *ThingLinkManager) linkUpdated(old, l ItemChannelLink) {
	if old == l {
		return
	}
	m.linkRemoved(old)
	m.linkAdded(l)
}

// notifyHandler calls fn on the handler of the link's Thing when the
// channel exists on a live Thing. Errors and panics are logged.
func (m *ThingLinkManager) notifyHandler(l ItemChannelLink, what string, fn func(thing.Handler) error) {
	t, ok := m.things.GetThing(l.Channel.Thing)
	if !ok || !t.HasChannel(l.Channel) {
		return
	}
	h, ok := m.things.Handler(t.UID)
	if !ok || h == nil {
		return
	}

	if err := safeCall(h, fn); err != nil {
		m.metrics.HandlerFailure(t.UID.String())
		m.logger.Error("thing handler failed", "thing", t.UID.String(), "channel", l.Channel.String(), "event", what, "error", err)
	}
}

func safeCall(h thing.Handler, fn func(thing.Handler) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return fn(h)
}

type thingListener struct {
	m *ThingLinkManager
}

func (l *thingListener) Added(_ provider.Provider[thing.Thing], t thing.Thing) {
	l.m.thingAdded(t)
}

func (l *thingListener) Removed(_ provider.Provider[thing.Thing], t thing.Thing) {
	l.m.thingRemoved(t)
}

func (l *thingListener) Updated(_ provider.Provider[thing.Thing], old, t thing.Thing) {
	l.m.thingUpdated(old, t)
}

type linkListener struct {
	m *ThingLinkManager
}

func (l *linkListener) Added(link ItemChannelLink)        { l.m.linkAdded(link) }
func (l *linkListener) Removed(link ItemChannelLink)      { l.m.linkRemoved(link) }
func (l *linkListener) Updated(old, link ItemChannelLink) { l.m.linkUpdated(old, link) }
