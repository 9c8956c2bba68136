package automation

import (
	"fmt"
	"maps"
	"slices"
)

// maxCompositeDepth bounds composite nesting; deeper nesting is reported
// as a configuration error, which also catches self-referencing types.
const maxCompositeDepth = 8

// Binding wires an input of a module instance to a producer's output.
type Binding struct {
	Input      string
	Connection Connection
}

// Instance is a module built by a ModuleFactory. It is owned by exactly
// one rule.
type Instance struct {
	ID            string
	Descriptor    *Descriptor
	Configuration map[string]any
	Bindings      []Binding
	// Children holds the built child modules of a composite.
	Children []*Instance
}

// Kind returns the instance's module kind.
func (i *Instance) Kind() Kind { return i.Descriptor.Kind() }

// Binding returns the binding of input.
func (i *Instance) Binding(input string) (Binding, bool) {
	idx := slices.IndexFunc(i.Bindings, func(b Binding) bool { return b.Input == input })
	if idx < 0 {
		return Binding{}, false
	}
	return i.Bindings[idx], true
}

// ModuleFactory builds module instances from descriptors. Callers supply
// ids unique within the owning rule; the factory does not mutate any
// registry.
type ModuleFactory interface {
	CreateTrigger(id string, d *Descriptor, config map[string]any) (*Instance, error)
	CreateCondition(id string, d *Descriptor, config map[string]any, connections map[string]string) (*Instance, error)
	CreateAction(id string, d *Descriptor, config map[string]any, connections map[string]string) (*Instance, error)
	CreateComposite(id string, d *Descriptor, config map[string]any, connections map[string]string) (*Instance, error)
}

// TypeLookup resolves module type UIDs. *TypeRegistry satisfies it.
type TypeLookup interface {
	ModuleType(uid string) (*Descriptor, bool)
}

// Factory is the default ModuleFactory. Composite children are resolved
// through types.
type Factory struct {
	types TypeLookup
}

// NewFactory creates a factory resolving child types through types.
func NewFactory(types TypeLookup) *Factory {
	return &Factory{types: types}
}

// CreateTrigger implements ModuleFactory.
func (f *Factory) CreateTrigger(id string, d *Descriptor, config map[string]any) (*Instance, error) {
	return f.create(id, d, KindTrigger, config, nil, nil, 0)
}

// CreateCondition implements ModuleFactory.
func (f *Factory) CreateCondition(id string, d *Descriptor, config map[string]any, connections map[string]string) (*Instance, error) {
	return f.create(id, d, KindCondition, config, connections, nil, 0)
}

// CreateAction implements ModuleFactory.
func (f *Factory) CreateAction(id string, d *Descriptor, config map[string]any, connections map[string]string) (*Instance, error) {
	return f.create(id, d, KindAction, config, connections, nil, 0)
}

// CreateComposite implements ModuleFactory. The instance has the kind of
// its descriptor.
func (f *Factory) CreateComposite(id string, d *Descriptor, config map[string]any, connections map[string]string) (*Instance, error) {
	if d == nil || !d.IsComposite() {
		return nil, fmt.Errorf("%w: module %q: descriptor is not a composite", ErrInvalidConfiguration, id)
	}
	return f.create(id, d, d.Kind(), config, connections, nil, 0)
}

// Create builds m from d, dispatching on d's kind.
func (f *Factory) Create(m Module, d *Descriptor) (*Instance, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: module %q", ErrUnknownModuleType, m.ID)
	}
	return f.create(m.ID, d, d.Kind(), m.Configuration, m.Connections, nil, 0)
}

// create builds one instance. proxied names inputs fed by an enclosing
// composite, which count as connected.
func (f *Factory) create(id string, d *Descriptor, kind Kind, config map[string]any, connections map[string]string, proxied map[string]bool, depth int) (*Instance, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: module %q has no descriptor", ErrInvalidConfiguration, id)
	}
	if !moduleIDPattern.MatchString(id) {
		return nil, fmt.Errorf("%w: module id %q", ErrInvalidConfiguration, id)
	}
	if d.Kind() != kind {
		return nil, fmt.Errorf("%w: module %q: %q is a %s, not a %s",
			ErrInvalidConfiguration, id, d.UID(), d.Kind(), kind)
	}
	if kind == KindTrigger && len(connections) > 0 {
		return nil, fmt.Errorf("%w: trigger %q cannot have connections", ErrInvalidConnection, id)
	}

	resolved, err := ValidateConfiguration(d.ConfigParameters(), config)
	if err != nil {
		return nil, fmt.Errorf("module %q: %w", id, err)
	}

	bindings, err := bindInputs(id, d, connections, proxied)
	if err != nil {
		return nil, err
	}

	inst := &Instance{
		ID:            id,
		Descriptor:    d,
		Configuration: resolved,
		Bindings:      bindings,
	}

	if d.IsComposite() {
		children, err := f.createChildren(id, d, resolved, depth)
		if err != nil {
			return nil, err
		}
		inst.Children = children
	}
	return inst, nil
}

// bindInputs parses connections against d's inputs and checks every
// required input is fed.
func bindInputs(id string, d *Descriptor, connections map[string]string, proxied map[string]bool) ([]Binding, error) {
	bindings := make([]Binding, 0, len(connections))
	for _, input := range slices.Sorted(maps.Keys(connections)) {
		if _, ok := d.Input(input); !ok {
			return nil, fmt.Errorf("%w: module %q has no input %q", ErrUnknownInput, id, input)
		}
		conn, err := ParseConnection(connections[input])
		if err != nil {
			return nil, fmt.Errorf("module %q input %q: %w", id, input, err)
		}
		if conn.ModuleID == id {
			return nil, fmt.Errorf("%w: module %q input %q is connected to itself", ErrInvalidConnection, id, input)
		}
		bindings = append(bindings, Binding{Input: input, Connection: conn})
	}

	for _, in := range d.Inputs() {
		if !in.Required || in.Default != nil || proxied[in.Name] {
			continue
		}
		if _, ok := connections[in.Name]; !ok {
			return nil, fmt.Errorf("%w: module %q required input %q is not connected", ErrInvalidConnection, id, in.Name)
		}
	}
	return bindings, nil
}

// createChildren builds the children of composite d. Child configuration
// may reference the composite's parameters with "${name}"; child
// connections must name sibling outputs.
func (f *Factory) createChildren(id string, d *Descriptor, config map[string]any, depth int) ([]*Instance, error) {
	if depth >= maxCompositeDepth {
		return nil, fmt.Errorf("%w: composite %q nests deeper than %d", ErrInvalidConfiguration, id, maxCompositeDepth)
	}
	if f.types == nil {
		return nil, fmt.Errorf("%w: composite %q needs a type lookup", ErrInvalidConfiguration, id)
	}

	children := d.Children()
	childTypes := make(map[string]*Descriptor, len(children))
	for _, c := range children {
		ct, ok := f.types.ModuleType(c.TypeUID)
		if !ok {
			return nil, fmt.Errorf("%w: %q (child %q of %q)", ErrUnknownModuleType, c.TypeUID, c.ID, id)
		}
		childTypes[c.ID] = ct
	}

	// Composite inputs feed child inputs.
	proxied := make(map[string]map[string]bool)
	for _, in := range d.Inputs() {
		if in.Reference == "" {
			continue
		}
		conn, _ := ParseConnection(in.Reference) //nolint:errcheck // Checked at descriptor construction
		if _, ok := childTypes[conn.ModuleID].Input(conn.Output); !ok {
			return nil, fmt.Errorf("%w: composite %q input %q references %s",
				ErrUnknownInput, id, in.Name, in.Reference)
		}
		if proxied[conn.ModuleID] == nil {
			proxied[conn.ModuleID] = make(map[string]bool)
		}
		proxied[conn.ModuleID][conn.Output] = true
	}

	// Composite outputs expose child outputs.
	for _, out := range d.Outputs() {
		conn, _ := ParseConnection(out.Reference) //nolint:errcheck // Checked at descriptor construction
		if _, ok := childTypes[conn.ModuleID].Output(conn.Output); !ok {
			return nil, fmt.Errorf("%w: composite %q output %q references %s",
				ErrUnknownOutput, id, out.Name, out.Reference)
		}
	}

	instances := make([]*Instance, 0, len(children))
	for _, c := range children {
		for input, raw := range c.Connections {
			conn, err := ParseConnection(raw)
			if err != nil {
				return nil, fmt.Errorf("composite %q child %q input %q: %w", id, c.ID, input, err)
			}
			producer, ok := childTypes[conn.ModuleID]
			if !ok {
				return nil, fmt.Errorf("%w: composite %q child %q input %q references unknown module %q",
					ErrInvalidConnection, id, c.ID, input, conn.ModuleID)
			}
			out, ok := producer.Output(conn.Output)
			if !ok {
				return nil, fmt.Errorf("%w: composite %q child %q input %q references %s",
					ErrUnknownOutput, id, c.ID, input, raw)
			}
			// Unknown inputs are reported when the child binds them.
			if in, ok := childTypes[c.ID].Input(input); ok && !compatible(out.Type, in.Type) {
				return nil, fmt.Errorf("%w: composite %q child %q input %q of type %q cannot take %s of type %q",
					ErrInvalidConnection, id, c.ID, input, in.Type, raw, out.Type)
			}
		}

		childConfig, err := resolvePlaceholders(c.Configuration, config)
		if err != nil {
			return nil, fmt.Errorf("composite %q child %q: %w", id, c.ID, err)
		}

		inst, err := f.create(c.ID, childTypes[c.ID], d.Kind(), childConfig, c.Connections, proxied[c.ID], depth+1)
		if err != nil {
			return nil, fmt.Errorf("composite %q: %w", id, err)
		}
		instances = append(instances, inst)
	}
	return instances, nil
}
