package automation

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
)

// Kind is the role of a module in a rule.
type Kind string

// Module kinds.
const (
	KindTrigger   Kind = "trigger"
	KindCondition Kind = "condition"
	KindAction    Kind = "action"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindTrigger || k == KindCondition || k == KindAction
}

// hasInputs reports whether modules of kind k consume inputs.
func (k Kind) hasInputs() bool { return k == KindCondition || k == KindAction }

// hasOutputs reports whether modules of kind k produce outputs.
func (k Kind) hasOutputs() bool { return k == KindTrigger || k == KindAction }

var uidPattern = regexp.MustCompile(`^[A-Za-z0-9_.:-]+$`)

// Input declares a value a module consumes.
type Input struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Label       string `json:"label,omitempty" yaml:"label,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool   `json:"required,omitempty" yaml:"required,omitempty"`
	// Reference is set on composite inputs: "childId.inputName" of the
	// child input this input feeds.
	Reference string `json:"reference,omitempty" yaml:"reference,omitempty"`
	Default   any    `json:"default,omitempty" yaml:"default,omitempty"`
}

// Output declares a value a module produces.
type Output struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Label       string `json:"label,omitempty" yaml:"label,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Reference is set on composite outputs: "childId.outputName" of the
	// child output this output exposes.
	Reference string `json:"reference,omitempty" yaml:"reference,omitempty"`
	Default   any    `json:"default,omitempty" yaml:"default,omitempty"`
}

// Descriptor describes a module type: its configuration parameters and,
// depending on its kind, its inputs and outputs. Composite descriptors also
// carry the child modules they are built from.
//
// Descriptors are immutable; accessors return copies.
type Descriptor struct {
	uid         string
	kind        Kind
	label       string
	description string
	tags        []string

	params   []ConfigParameter
	inputs   []Input
	outputs  []Output
	children []Module
}

// DescriptorOption sets optional descriptor metadata.
type DescriptorOption func(*Descriptor)

// WithLabel sets the descriptor label.
func WithLabel(label string) DescriptorOption {
	return func(d *Descriptor) { d.label = label }
}

// WithDescription sets the descriptor description.
func WithDescription(description string) DescriptorOption {
	return func(d *Descriptor) { d.description = description }
}

// WithTags sets the descriptor tags.
func WithTags(tags ...string) DescriptorOption {
	return func(d *Descriptor) { d.tags = slices.Clone(tags) }
}

// NewTriggerDescriptor creates a trigger type.
func NewTriggerDescriptor(uid string, params []ConfigParameter, outputs []Output, opts ...DescriptorOption) (*Descriptor, error) {
	return newDescriptor(uid, KindTrigger, params, nil, outputs, nil, opts)
}

// NewConditionDescriptor creates a condition type.
func NewConditionDescriptor(uid string, params []ConfigParameter, inputs []Input, opts ...DescriptorOption) (*Descriptor, error) {
	return newDescriptor(uid, KindCondition, params, inputs, nil, nil, opts)
}

// NewActionDescriptor creates an action type.
func NewActionDescriptor(uid string, params []ConfigParameter, inputs []Input, outputs []Output, opts ...DescriptorOption) (*Descriptor, error) {
	return newDescriptor(uid, KindAction, params, inputs, outputs, nil, opts)
}

// NewCompositeDescriptor creates a composite type of the given kind built
// from children. Child ids must be unique and every child must be of kind.
// Input and output references must name a child.
func NewCompositeDescriptor(uid string, kind Kind, params []ConfigParameter, inputs []Input, outputs []Output, children []Module, opts ...DescriptorOption) (*Descriptor, error) {
	if len(children) == 0 {
		return nil, fmt.Errorf("%w: composite %q has no children", ErrInvalidConfiguration, uid)
	}
	return newDescriptor(uid, kind, params, inputs, outputs, children, opts)
}

func newDescriptor(uid string, kind Kind, params []ConfigParameter, inputs []Input, outputs []Output, children []Module, opts []DescriptorOption) (*Descriptor, error) {
	if !uidPattern.MatchString(uid) {
		return nil, fmt.Errorf("%w: module type uid %q", ErrInvalidConfiguration, uid)
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q has kind %q", ErrInvalidConfiguration, uid, kind)
	}
	if len(inputs) > 0 && !kind.hasInputs() {
		return nil, fmt.Errorf("%w: %s %q cannot declare inputs", ErrInvalidConfiguration, kind, uid)
	}
	if len(outputs) > 0 && !kind.hasOutputs() {
		return nil, fmt.Errorf("%w: %s %q cannot declare outputs", ErrInvalidConfiguration, kind, uid)
	}
	if err := validateParameters(params); err != nil {
		return nil, fmt.Errorf("module type %q: %w", uid, err)
	}
	if err := uniqueNames(inputs, func(i Input) string { return i.Name }, "input"); err != nil {
		return nil, fmt.Errorf("module type %q: %w", uid, err)
	}
	if err := uniqueNames(outputs, func(o Output) string { return o.Name }, "output"); err != nil {
		return nil, fmt.Errorf("module type %q: %w", uid, err)
	}

	d := &Descriptor{
		uid:     uid,
		kind:    kind,
		params:  slices.Clone(params),
		inputs:  slices.Clone(inputs),
		outputs: slices.Clone(outputs),
	}
	for _, opt := range opts {
		opt(d)
	}

	if children != nil {
		if err := d.setChildren(children); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *Descriptor) setChildren(children []Module) error {
	seen := make(map[string]bool, len(children))
	for _, c := range children {
		if err := c.validate(); err != nil {
			return fmt.Errorf("composite %q: %w", d.uid, err)
		}
		if seen[c.ID] {
			return fmt.Errorf("%w: %q in composite %q", ErrDuplicateModuleID, c.ID, d.uid)
		}
		seen[c.ID] = true
		if c.Kind != "" && c.Kind != d.kind {
			return fmt.Errorf("%w: child %q of %s composite %q is a %s",
				ErrInvalidConfiguration, c.ID, d.kind, d.uid, c.Kind)
		}
	}

	for _, in := range d.inputs {
		if in.Reference == "" {
			continue
		}
		conn, err := ParseConnection(in.Reference)
		if err != nil {
			return fmt.Errorf("composite %q input %q: %w", d.uid, in.Name, err)
		}
		if !seen[conn.ModuleID] {
			return fmt.Errorf("%w: composite %q input %q references unknown child %q",
				ErrInvalidConnection, d.uid, in.Name, conn.ModuleID)
		}
	}
	for _, out := range d.outputs {
		if out.Reference == "" {
			return fmt.Errorf("%w: composite %q output %q has no reference", ErrInvalidConfiguration, d.uid, out.Name)
		}
		conn, err := ParseConnection(out.Reference)
		if err != nil {
			return fmt.Errorf("composite %q output %q: %w", d.uid, out.Name, err)
		}
		if !seen[conn.ModuleID] {
			return fmt.Errorf("%w: composite %q output %q references unknown child %q",
				ErrInvalidConnection, d.uid, out.Name, conn.ModuleID)
		}
	}

	d.children = make([]Module, len(children))
	for i, c := range children {
		c.Kind = d.kind
		d.children[i] = c.Clone()
	}
	return nil
}

func uniqueNames[T any](items []T, name func(T) string, what string) error {
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		n := name(it)
		if n == "" {
			return fmt.Errorf("%w: %s without name", ErrInvalidConfiguration, what)
		}
		if seen[n] {
			return fmt.Errorf("%w: %s %q", ErrDuplicateKey, what, n)
		}
		seen[n] = true
	}
	return nil
}

// ID implements provider.Element.
func (d *Descriptor) ID() string { return d.uid }

// UID returns the module type UID.
func (d *Descriptor) UID() string { return d.uid }

// Kind returns the module kind.
func (d *Descriptor) Kind() Kind { return d.kind }

// Label returns the label.
func (d *Descriptor) Label() string { return d.label }

// Description returns the description.
func (d *Descriptor) Description() string { return d.description }

// Tags returns the tags.
func (d *Descriptor) Tags() []string { return slices.Clone(d.tags) }

// IsComposite reports whether the type is built from child modules.
func (d *Descriptor) IsComposite() bool { return len(d.children) > 0 }

// ConfigParameters returns the declared configuration parameters.
func (d *Descriptor) ConfigParameters() []ConfigParameter { return slices.Clone(d.params) }

// Inputs returns the declared inputs.
func (d *Descriptor) Inputs() []Input { return slices.Clone(d.inputs) }

// Outputs returns the declared outputs.
func (d *Descriptor) Outputs() []Output { return slices.Clone(d.outputs) }

// Children returns the child modules of a composite.
func (d *Descriptor) Children() []Module {
	out := make([]Module, len(d.children))
	for i, c := range d.children {
		out[i] = c.Clone()
	}
	return out
}

// Input returns the input called name.
func (d *Descriptor) Input(name string) (Input, bool) {
	i := slices.IndexFunc(d.inputs, func(in Input) bool { return in.Name == name })
	if i < 0 {
		return Input{}, false
	}
	return d.inputs[i], true
}

// Output returns the output called name.
func (d *Descriptor) Output(name string) (Output, bool) {
	i := slices.IndexFunc(d.outputs, func(o Output) bool { return o.Name == name })
	if i < 0 {
		return Output{}, false
	}
	return d.outputs[i], true
}

// ConfigParameter returns the parameter called name.
func (d *Descriptor) ConfigParameter(name string) (ConfigParameter, bool) {
	i := slices.IndexFunc(d.params, func(p ConfigParameter) bool { return p.Name == name })
	if i < 0 {
		return ConfigParameter{}, false
	}
	return d.params[i], true
}

// cloneMap copies a configuration or connection map.
func cloneMap[V any](m map[string]V) map[string]V {
	if m == nil {
		return nil
	}
	return maps.Clone(m)
}
