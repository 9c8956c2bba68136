package automation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Parser reads and writes module type and rule definition files.
type Parser interface {
	ParseModuleTypes(r io.Reader) ([]*Descriptor, error)
	ParseRules(r io.Reader) ([]*RuleDescriptor, error)
	WriteModuleTypes(w io.Writer, types []*Descriptor) error
	WriteRules(w io.Writer, rules []*RuleDescriptor) error
}

// YAMLParser is the YAML Parser. JSON documents parse as well.
//
// A module type file has one section per kind:
//
//	triggers:
//	  - uid: timer.Sunset
//	    config_parameters:
//	      - {name: offset, type: integer, default: 0}
//	    outputs:
//	      - {name: event, type: Event}
//	actions:
//	  - uid: scene.Evening
//	    inputs:
//	      - {name: command, type: Command, reference: "lights.command"}
//	    children:
//	      - {id: lights, type: core.ItemCommandAction, configuration: {itemName: Hall}}
//
// Entries with children are composites. A rule file holds a "rules" list
// of RuleSpec documents.
type YAMLParser struct{}

var _ Parser = YAMLParser{}

type typeDocument struct {
	UID              string            `json:"uid" yaml:"uid"`
	Label            string            `json:"label,omitempty" yaml:"label,omitempty"`
	Description      string            `json:"description,omitempty" yaml:"description,omitempty"`
	Tags             []string          `json:"tags,omitempty" yaml:"tags,omitempty"`
	ConfigParameters []ConfigParameter `json:"config_parameters,omitempty" yaml:"config_parameters,omitempty"`
	Inputs           []Input           `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs          []Output          `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Children         []Module          `json:"children,omitempty" yaml:"children,omitempty"`
}

type typesFile struct {
	Triggers   []typeDocument `yaml:"triggers,omitempty"`
	Conditions []typeDocument `yaml:"conditions,omitempty"`
	Actions    []typeDocument `yaml:"actions,omitempty"`
}

type rulesFile struct {
	Rules []RuleSpec `yaml:"rules"`
}

// ParseModuleTypes implements Parser.
func (YAMLParser) ParseModuleTypes(r io.Reader) ([]*Descriptor, error) {
	var f typesFile
	if err := decode(r, &f); err != nil {
		return nil, err
	}

	var out []*Descriptor
	sections := []struct {
		kind Kind
		docs []typeDocument
	}{
		{KindTrigger, f.Triggers},
		{KindCondition, f.Conditions},
		{KindAction, f.Actions},
	}
	for _, s := range sections {
		for _, doc := range s.docs {
			d, err := doc.descriptor(s.kind)
			if err != nil {
				return nil, err
			}
			out = append(out, d)
		}
	}
	return out, nil
}

// ParseRules implements Parser.
func (YAMLParser) ParseRules(r io.Reader) ([]*RuleDescriptor, error) {
	var f rulesFile
	if err := decode(r, &f); err != nil {
		return nil, err
	}

	out := make([]*RuleDescriptor, 0, len(f.Rules))
	for _, spec := range f.Rules {
		rule, err := NewRuleDescriptor(spec)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, nil
}

// WriteModuleTypes implements Parser.
func (YAMLParser) WriteModuleTypes(w io.Writer, types []*Descriptor) error {
	var f typesFile
	for _, d := range types {
		doc := documentOf(d)
		switch d.Kind() {
		case KindTrigger:
			f.Triggers = append(f.Triggers, doc)
		case KindCondition:
			f.Conditions = append(f.Conditions, doc)
		case KindAction:
			f.Actions = append(f.Actions, doc)
		}
	}
	return encode(w, f)
}

// WriteRules implements Parser.
func (YAMLParser) WriteRules(w io.Writer, rules []*RuleDescriptor) error {
	f := rulesFile{Rules: make([]RuleSpec, 0, len(rules))}
	for _, r := range rules {
		f.Rules = append(f.Rules, r.Spec())
	}
	return encode(w, f)
}

func (doc typeDocument) descriptor(kind Kind) (*Descriptor, error) {
	opts := []DescriptorOption{WithLabel(doc.Label), WithDescription(doc.Description), WithTags(doc.Tags...)}
	if len(doc.Children) > 0 {
		return NewCompositeDescriptor(doc.UID, kind, doc.ConfigParameters, doc.Inputs, doc.Outputs, doc.Children, opts...)
	}
	return newDescriptor(doc.UID, kind, doc.ConfigParameters, doc.Inputs, doc.Outputs, nil, opts)
}

// MarshalJSON encodes the descriptor in its file layout plus its kind.
func (d *Descriptor) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		typeDocument
	}{Kind: d.kind, typeDocument: documentOf(d)})
}

func documentOf(d *Descriptor) typeDocument {
	doc := typeDocument{
		UID:              d.UID(),
		Label:            d.Label(),
		Description:      d.Description(),
		Tags:             d.Tags(),
		ConfigParameters: d.ConfigParameters(),
		Inputs:           d.Inputs(),
		Outputs:          d.Outputs(),
		Children:         d.Children(),
	}
	// Child kinds follow from the section.
	for i := range doc.Children {
		doc.Children[i].Kind = ""
	}
	return doc
}

func decode(r io.Reader, v any) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrParse, err)
	}
	return nil
}

func encode(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding definitions: %w", err)
	}
	return enc.Close()
}
