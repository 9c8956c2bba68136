package main

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-links/internal/automation"
	"github.com/nerrad567/gray-logic-links/internal/event"
	"github.com/nerrad567/gray-logic-links/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-links/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-links/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-links/internal/item"
	"github.com/nerrad567/gray-logic-links/internal/link"
	"github.com/nerrad567/gray-logic-links/internal/metrics"
	"github.com/nerrad567/gray-logic-links/internal/provider"
	"github.com/nerrad567/gray-logic-links/internal/storage"
	"github.com/nerrad567/gray-logic-links/internal/thing"
)

// observed is implemented by every registry.
type observed interface {
	SetLogger(logger provider.Logger)
	SetMetrics(m provider.Metrics)
}

// core holds the registries and the providers feeding them.
type core struct {
	log *logging.Logger

	items      *item.Registry
	things     *thing.Registry
	links      *link.ItemChannelLinkRegistry
	thingLinks *link.ItemThingLinkRegistry
	types      *automation.TypeRegistry
	rules      *automation.RuleRegistry

	managedItems      *provider.Managed[item.Item]
	managedLinks      *link.ManagedItemChannelLinkProvider
	managedThingLinks *link.ManagedItemThingLinkProvider
	managedRules      *provider.Managed[*automation.RuleDescriptor]

	discovery    *thing.Discovery
	channelTypes *thing.ChannelTypeRegistry
	manager      *link.ThingLinkManager

	storage *storage.Service
}

// newCore builds the registries, registers their providers and binds the
// managed providers to the storage service. Nothing is loaded until
// loadDefinitions and selectStorage run.
func newCore(log *logging.Logger, m *metrics.Metrics) *core {
	c := &core{
		log:          log,
		items:        item.NewRegistry(),
		things:       thing.NewRegistry(),
		thingLinks:   link.NewItemThingLinkRegistry(),
		types:        automation.NewTypeRegistry(),
		discovery:    thing.NewDiscovery(log.Component("discovery")),
		channelTypes: thing.NewChannelTypeRegistry(),
		storage:      storage.NewService(),

		managedItems:      item.NewManagedProvider(),
		managedLinks:      link.NewManagedItemChannelLinkProvider(),
		managedThingLinks: link.NewManagedItemThingLinkProvider(),
		managedRules:      automation.NewManagedRuleProvider(),
	}
	c.links = link.NewItemChannelLinkRegistry(c.items, c.things)
	c.rules = automation.NewRuleRegistry(c.types, nil, log.Component("rules"))

	for _, r := range []observed{c.items, c.things, c.links, c.thingLinks, c.types, c.rules} {
		r.SetLogger(log.Component("registry"))
		r.SetMetrics(m)
	}

	c.managedItems.SetLogger(log.Component("storage"))
	c.managedLinks.SetLogger(log.Component("storage"))
	c.managedThingLinks.SetLogger(log.Component("storage"))
	c.managedRules.SetLogger(log.Component("storage"))

	c.items.SetManagedProvider(c.managedItems)
	c.links.SetManagedProvider(c.managedLinks)
	c.thingLinks.SetManagedProvider(c.managedThingLinks)
	c.rules.SetManagedProvider(c.managedRules)
	c.discovery.SetChannelTypes(c.channelTypes)
	c.things.AddProvider(c.discovery)
	c.types.AddProvider(automation.NewCoreTypeProvider())

	onErr := func(err error) {
		log.Error("opening managed storage failed", "error", err)
	}
	storage.Bind(c.storage, item.Namespace, c.managedItems.StorageSelected, onErr)
	storage.Bind(c.storage, link.ChannelLinkNamespace, c.managedLinks.StorageSelected, onErr)
	storage.Bind(c.storage, link.ThingLinkNamespace, c.managedThingLinks.StorageSelected, onErr)
	storage.Bind(c.storage, automation.RuleNamespace, c.managedRules.StorageSelected, onErr)

	c.manager = link.NewThingLinkManager(c.things, c.discovery, c.links, c.managedLinks, c.channelTypes, log.Component("links"))
	c.manager.SetMetrics(m)

	return c
}

// publishEvents routes the events of every registry to publisher.
func (c *core) publishEvents(publisher event.Publisher) {
	c.items.PublishEvents(publisher)
	c.things.PublishEvents(publisher)
	c.links.PublishEvents(publisher)
	c.thingLinks.PublishEvents(publisher)
	c.types.PublishEvents(publisher)
	c.rules.PublishEvents(publisher)
}

// loadDefinitions reads module types and then rules from the configured
// directories. An empty directory setting is skipped.
func (c *core) loadDefinitions(cfg config.AutomationConfig) error {
	var parser automation.YAMLParser

	if cfg.TypesDir != "" {
		types := automation.NewTypeFileProvider(cfg.TypesDir, parser, c.log.Component("automation"))
		n, err := types.Load()
		if err != nil {
			return fmt.Errorf("loading module types: %w", err)
		}
		c.types.AddProvider(types)
		c.log.Info("module types loaded", "dir", cfg.TypesDir, "count", n)
	}

	if cfg.RulesDir != "" {
		rules := automation.NewRuleFileProvider(cfg.RulesDir, parser, c.log.Component("automation"))
		n, err := rules.Load()
		if err != nil {
			return fmt.Errorf("loading rules: %w", err)
		}
		c.rules.AddProvider(rules)
		c.log.Info("rules loaded", "dir", cfg.RulesDir, "count", n)
	}

	return nil
}

// selectBackend returns the storage backend named in cfg.
func selectBackend(cfg config.StorageConfig, db *database.DB) (storage.Backend, error) {
	switch cfg.Backend {
	case config.StorageSQLite:
		if db == nil {
			return nil, fmt.Errorf("sqlite storage needs a database")
		}
		return storage.NewSQLiteBackend(db.DB), nil
	case config.StorageMemory:
		return storage.NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("%w: %q", storage.ErrUnknownBackend, cfg.Backend)
	}
}

// selectStorage selects b, which loads every managed provider.
func (c *core) selectStorage(b storage.Backend) {
	c.storage.Select(b)
}

// sizes returns the element count of every registry keyed by its name.
func (c *core) sizes() map[string]int {
	return map[string]int{
		c.items.Name():      len(c.items.GetAll()),
		c.things.Name():     len(c.things.GetAll()),
		c.links.Name():      len(c.links.GetAll()),
		c.thingLinks.Name(): len(c.thingLinks.GetAll()),
		c.types.Name():      len(c.types.GetAll()),
		c.rules.Name():      len(c.rules.GetAll()),
	}
}

// registrySizeWriter records registry sizes as time-series points.
type registrySizeWriter interface {
	WriteRegistrySize(registry string, size int)
}

// sampleRegistrySizes writes sizes() to w every interval until ctx is done.
func sampleRegistrySizes(ctx context.Context, w registrySizeWriter, interval time.Duration, sizes func() map[string]int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for name, n := range sizes() {
				w.WriteRegistrySize(name, n)
			}
		}
	}
}
