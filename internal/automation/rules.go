package automation

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-links/internal/event"
	"github.com/nerrad567/gray-logic-links/internal/provider"
)

// RuleRegistryName labels the rule registry in logs and metrics.
const RuleRegistryName = "rules"

// RuleNamespace is the storage namespace of managed rules.
const RuleNamespace = "rules"

// Rule event types.
const (
	RuleAddedEvent   = "RuleAddedEvent"
	RuleRemovedEvent = "RuleRemovedEvent"
	RuleUpdatedEvent = "RuleUpdatedEvent"
)

// AnyType is the wildcard input or output type; it connects to any type.
const AnyType = "*"

// RuleInstance is a rule with every module built by the factory.
type RuleInstance struct {
	Rule       *RuleDescriptor
	Triggers   []*Instance
	Conditions []*Instance
	Actions    []*Instance
}

// Module returns the instance with id.
func (ri *RuleInstance) Module(id string) (*Instance, bool) {
	for _, group := range [][]*Instance{ri.Triggers, ri.Conditions, ri.Actions} {
		for _, inst := range group {
			if inst.ID == id {
				return inst, true
			}
		}
	}
	return nil, false
}

// NewManagedRuleProvider creates the storage-backed rule provider.
func NewManagedRuleProvider() *provider.Managed[*RuleDescriptor] {
	return provider.NewManaged[*RuleDescriptor](RuleNamespace)
}

// RuleRegistry aggregates rules from files and the managed rule provider
// and builds runnable instances of them.
type RuleRegistry struct {
	*provider.Registry[*RuleDescriptor]

	types   TypeLookup
	factory ModuleFactory
	logger  Logger
}

// NewRuleRegistry creates a rule registry resolving module types through
// types. A nil factory uses NewFactory(types).
func NewRuleRegistry(types TypeLookup, factory ModuleFactory, logger Logger) *RuleRegistry {
	if factory == nil {
		factory = NewFactory(types)
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &RuleRegistry{
		Registry: provider.NewRegistry[*RuleDescriptor](RuleRegistryName),
		types:    types,
		factory:  factory,
		logger:   logger,
	}
}

// GetRule returns the rule with uid.
func (r *RuleRegistry) GetRule(uid string) (*RuleDescriptor, bool) {
	return r.Get(uid)
}

// Create validates spec and stores it through the managed provider. An
// empty UID is replaced by a generated one.
func (r *RuleRegistry) Create(ctx context.Context, spec RuleSpec) (*RuleDescriptor, error) {
	if spec.UID == "" {
		spec.UID = uuid.NewString()
	}
	if _, exists := r.Get(spec.UID); exists {
		return nil, fmt.Errorf("%w: %q", ErrRuleExists, spec.UID)
	}

	rule, err := NewRuleDescriptor(spec)
	if err != nil {
		return nil, err
	}
	if err := r.Validate(rule); err != nil {
		return nil, err
	}
	if err := r.Add(ctx, rule); err != nil {
		return nil, fmt.Errorf("storing rule %q: %w", rule.UID(), err)
	}

	r.logger.Info("rule created", "rule", rule.UID(), "name", rule.Name())
	return rule, nil
}

// Delete removes the managed rule with uid.
func (r *RuleRegistry) Delete(ctx context.Context, uid string) error {
	_, existed, err := r.Remove(ctx, uid)
	if err != nil {
		return err
	}
	if !existed {
		return fmt.Errorf("%w: %q", ErrRuleNotFound, uid)
	}
	r.logger.Info("rule deleted", "rule", uid)
	return nil
}

// Validate checks that every module of rule can be built.
func (r *RuleRegistry) Validate(rule *RuleDescriptor) error {
	_, err := r.instantiate(rule)
	return err
}

// Instantiate builds the modules of the rule with uid.
func (r *RuleRegistry) Instantiate(uid string) (*RuleInstance, error) {
	rule, ok := r.Get(uid)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrRuleNotFound, uid)
	}
	return r.instantiate(rule)
}

func (r *RuleRegistry) instantiate(rule *RuleDescriptor) (*RuleInstance, error) {
	modules := rule.Modules()

	types := make(map[string]*Descriptor, len(modules))
	for _, m := range modules {
		d, ok := r.types.ModuleType(m.TypeUID)
		if !ok {
			return nil, fmt.Errorf("%w: %q (module %q of rule %q)", ErrUnknownModuleType, m.TypeUID, m.ID, rule.UID())
		}
		types[m.ID] = d
	}

	for _, m := range modules {
		if err := checkConnections(m, types); err != nil {
			return nil, fmt.Errorf("rule %q: %w", rule.UID(), err)
		}
	}

	ruleConfig := rule.Configuration()
	ri := &RuleInstance{Rule: rule}
	for _, m := range modules {
		config, err := resolvePlaceholders(m.Configuration, ruleConfig)
		if err != nil {
			return nil, fmt.Errorf("rule %q module %q: %w", rule.UID(), m.ID, err)
		}

		inst, err := r.create(m, types[m.ID], config)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", rule.UID(), err)
		}

		switch m.Kind {
		case KindTrigger:
			ri.Triggers = append(ri.Triggers, inst)
		case KindCondition:
			ri.Conditions = append(ri.Conditions, inst)
		case KindAction:
			ri.Actions = append(ri.Actions, inst)
		}
	}
	return ri, nil
}

func (r *RuleRegistry) create(m Module, d *Descriptor, config map[string]any) (*Instance, error) {
	if d.IsComposite() {
		if d.Kind() != m.Kind {
			return nil, fmt.Errorf("%w: module %q: %q is a %s, not a %s",
				ErrInvalidConfiguration, m.ID, d.UID(), d.Kind(), m.Kind)
		}
		return r.factory.CreateComposite(m.ID, d, config, m.Connections)
	}
	switch m.Kind {
	case KindTrigger:
		return r.factory.CreateTrigger(m.ID, d, config)
	case KindCondition:
		return r.factory.CreateCondition(m.ID, d, config, m.Connections)
	default:
		return r.factory.CreateAction(m.ID, d, config, m.Connections)
	}
}

// checkConnections verifies that each input of m is fed by an existing
// module's output of a compatible type.
func checkConnections(m Module, types map[string]*Descriptor) error {
	consumer := types[m.ID]
	for input, raw := range m.Connections {
		in, ok := consumer.Input(input)
		if !ok {
			return fmt.Errorf("%w: module %q has no input %q", ErrUnknownInput, m.ID, input)
		}
		conn, err := ParseConnection(raw)
		if err != nil {
			return fmt.Errorf("module %q input %q: %w", m.ID, input, err)
		}
		if conn.ModuleID == m.ID {
			return fmt.Errorf("%w: module %q input %q is connected to itself", ErrInvalidConnection, m.ID, input)
		}
		producer, ok := types[conn.ModuleID]
		if !ok {
			return fmt.Errorf("%w: module %q input %q references unknown module %q",
				ErrInvalidConnection, m.ID, input, conn.ModuleID)
		}
		out, ok := producer.Output(conn.Output)
		if !ok {
			return fmt.Errorf("%w: module %q input %q references %s", ErrUnknownOutput, m.ID, input, raw)
		}
		if !compatible(out.Type, in.Type) {
			return fmt.Errorf("%w: module %q input %q of type %q cannot take %s of type %q",
				ErrInvalidConnection, m.ID, input, in.Type, raw, out.Type)
		}
	}
	return nil
}

func compatible(output, input string) bool {
	return output == input || output == "" || input == "" || output == AnyType || input == AnyType
}

// PublishEvents posts rule added, removed and updated events to publisher.
func (r *RuleRegistry) PublishEvents(publisher event.Publisher) {
	topic := func(rule *RuleDescriptor, action string) string {
		return "rules/" + rule.UID() + "/" + action
	}
	r.SetEventPublisher(publisher, provider.EventFactory[*RuleDescriptor]{
		Added: func(rule *RuleDescriptor) event.Event {
			return event.New(RuleAddedEvent, topic(rule, "added"), rule)
		},
		Removed: func(rule *RuleDescriptor) event.Event {
			return event.New(RuleRemovedEvent, topic(rule, "removed"), rule)
		},
		Updated: func(_, rule *RuleDescriptor) event.Event {
			return event.New(RuleUpdatedEvent, topic(rule, "updated"), rule)
		},
	})
}
