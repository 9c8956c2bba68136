package automation

import (
	"encoding/json"
	"fmt"
	"slices"
)

// RuleSpec is the mutable form of a rule, used to build a RuleDescriptor
// and as its serialised shape.
type RuleSpec struct {
	UID              string            `json:"uid" yaml:"uid"`
	Name             string            `json:"name,omitempty" yaml:"name,omitempty"`
	Description      string            `json:"description,omitempty" yaml:"description,omitempty"`
	Tags             []string          `json:"tags,omitempty" yaml:"tags,omitempty"`
	ConfigParameters []ConfigParameter `json:"config_parameters,omitempty" yaml:"config_parameters,omitempty"`
	Configuration    map[string]any    `json:"configuration,omitempty" yaml:"configuration,omitempty"`
	Triggers         []Module          `json:"triggers" yaml:"triggers"`
	Conditions       []Module          `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Actions          []Module          `json:"actions" yaml:"actions"`
}

// RuleDescriptor describes a rule: ON triggers, IF all conditions hold,
// THEN run the actions in order.
//
// A rule has at least one trigger and one action; conditions are optional.
// Module ids are unique across the whole rule. RuleDescriptors are
// immutable; accessors return copies.
type RuleDescriptor struct {
	spec RuleSpec
}

// NewRuleDescriptor validates spec and builds a rule from it.
func NewRuleDescriptor(spec RuleSpec) (*RuleDescriptor, error) {
	if !uidPattern.MatchString(spec.UID) {
		return nil, fmt.Errorf("%w: rule uid %q", ErrInvalidConfiguration, spec.UID)
	}
	if len(spec.Triggers) == 0 {
		return nil, fmt.Errorf("%w: rule %q has no trigger", ErrInvalidConfiguration, spec.UID)
	}
	if len(spec.Actions) == 0 {
		return nil, fmt.Errorf("%w: rule %q has no action", ErrInvalidConfiguration, spec.UID)
	}
	if err := validateParameters(spec.ConfigParameters); err != nil {
		return nil, fmt.Errorf("rule %q: %w", spec.UID, err)
	}
	config, err := ValidateConfiguration(spec.ConfigParameters, spec.Configuration)
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", spec.UID, err)
	}

	r := &RuleDescriptor{spec: RuleSpec{
		UID:              spec.UID,
		Name:             spec.Name,
		Description:      spec.Description,
		Tags:             slices.Clone(spec.Tags),
		ConfigParameters: slices.Clone(spec.ConfigParameters),
		Configuration:    config,
	}}

	seen := make(map[string]bool)
	sections := []struct {
		kind Kind
		in   []Module
		out  *[]Module
	}{
		{KindTrigger, spec.Triggers, &r.spec.Triggers},
		{KindCondition, spec.Conditions, &r.spec.Conditions},
		{KindAction, spec.Actions, &r.spec.Actions},
	}
	for _, s := range sections {
		for _, m := range s.in {
			if err := m.validate(); err != nil {
				return nil, fmt.Errorf("rule %q: %w", spec.UID, err)
			}
			if seen[m.ID] {
				return nil, fmt.Errorf("%w: %q in rule %q", ErrDuplicateModuleID, m.ID, spec.UID)
			}
			seen[m.ID] = true
			if m.Kind != "" && m.Kind != s.kind {
				return nil, fmt.Errorf("%w: module %q listed as %s but is a %s",
					ErrInvalidConfiguration, m.ID, s.kind, m.Kind)
			}
			if s.kind == KindTrigger && len(m.Connections) > 0 {
				return nil, fmt.Errorf("%w: trigger %q cannot have connections", ErrInvalidConnection, m.ID)
			}
			m = m.Clone()
			m.Kind = s.kind
			*s.out = append(*s.out, m)
		}
	}
	return r, nil
}

// ID implements provider.Element.
func (r *RuleDescriptor) ID() string { return r.spec.UID }

// UID returns the rule UID.
func (r *RuleDescriptor) UID() string { return r.spec.UID }

// Name returns the rule name.
func (r *RuleDescriptor) Name() string { return r.spec.Name }

// Description returns the rule description.
func (r *RuleDescriptor) Description() string { return r.spec.Description }

// Tags returns the rule tags.
func (r *RuleDescriptor) Tags() []string { return slices.Clone(r.spec.Tags) }

// ConfigParameters returns the rule's declared parameters.
func (r *RuleDescriptor) ConfigParameters() []ConfigParameter {
	return slices.Clone(r.spec.ConfigParameters)
}

// Configuration returns the rule's parameter values with defaults applied.
func (r *RuleDescriptor) Configuration() map[string]any {
	return cloneMap(r.spec.Configuration)
}

// Triggers returns the trigger modules in order.
func (r *RuleDescriptor) Triggers() []Module { return cloneModules(r.spec.Triggers) }

// Conditions returns the condition modules in order.
func (r *RuleDescriptor) Conditions() []Module { return cloneModules(r.spec.Conditions) }

// Actions returns the action modules in order.
func (r *RuleDescriptor) Actions() []Module { return cloneModules(r.spec.Actions) }

// Modules returns triggers, conditions and actions in that order.
func (r *RuleDescriptor) Modules() []Module {
	all := make([]Module, 0, len(r.spec.Triggers)+len(r.spec.Conditions)+len(r.spec.Actions))
	all = append(all, r.Triggers()...)
	all = append(all, r.Conditions()...)
	return append(all, r.Actions()...)
}

// Module returns the module with id.
func (r *RuleDescriptor) Module(id string) (Module, bool) {
	for _, m := range r.Modules() {
		if m.ID == id {
			return m, true
		}
	}
	return Module{}, false
}

// Spec returns a mutable copy of the rule.
func (r *RuleDescriptor) Spec() RuleSpec {
	s := r.spec
	s.Tags = slices.Clone(s.Tags)
	s.ConfigParameters = slices.Clone(s.ConfigParameters)
	s.Configuration = cloneMap(s.Configuration)
	s.Triggers = r.Triggers()
	s.Conditions = r.Conditions()
	s.Actions = r.Actions()
	return s
}

// MarshalJSON encodes the rule as its RuleSpec.
func (r *RuleDescriptor) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.spec)
}

// UnmarshalJSON decodes and validates a RuleSpec.
func (r *RuleDescriptor) UnmarshalJSON(data []byte) error {
	var spec RuleSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return err
	}
	parsed, err := NewRuleDescriptor(spec)
	if err != nil {
		return err
	}
	*r = *parsed
	return nil
}

func cloneModules(modules []Module) []Module {
	out := make([]Module, len(modules))
	for i, m := range modules {
		out[i] = m.Clone()
	}
	return out
}
