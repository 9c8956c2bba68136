package automation

import (
	"fmt"
	"regexp"
	"strings"
)

var moduleIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Module is a use of a module type inside a rule or composite.
type Module struct {
	ID          string `json:"id" yaml:"id"`
	TypeUID     string `json:"type" yaml:"type"`
	Kind        Kind   `json:"kind,omitempty" yaml:"kind,omitempty"`
	Label       string `json:"label,omitempty" yaml:"label,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Configuration holds parameter values; "${name}" refers to a parameter
	// of the enclosing rule or composite.
	Configuration map[string]any `json:"configuration,omitempty" yaml:"configuration,omitempty"`
	// Connections maps input name to "producerModuleId.outputName".
	Connections map[string]string `json:"connections,omitempty" yaml:"connections,omitempty"`
}

// Clone returns a copy that shares no maps with m.
func (m Module) Clone() Module {
	m.Configuration = cloneMap(m.Configuration)
	m.Connections = cloneMap(m.Connections)
	return m
}

func (m Module) validate() error {
	if !moduleIDPattern.MatchString(m.ID) {
		return fmt.Errorf("%w: module id %q", ErrInvalidConfiguration, m.ID)
	}
	if m.TypeUID == "" {
		return fmt.Errorf("%w: module %q has no type", ErrInvalidConfiguration, m.ID)
	}
	if m.Kind != "" && !m.Kind.Valid() {
		return fmt.Errorf("%w: module %q has kind %q", ErrInvalidConfiguration, m.ID, m.Kind)
	}
	for input, raw := range m.Connections {
		if _, err := ParseConnection(raw); err != nil {
			return fmt.Errorf("module %q input %q: %w", m.ID, input, err)
		}
	}
	return nil
}

// Connection is a parsed "moduleId.outputName" reference.
type Connection struct {
	ModuleID string
	Output   string
}

// ParseConnection parses "moduleId.outputName".
func ParseConnection(s string) (Connection, error) {
	moduleID, output, ok := strings.Cut(s, ".")
	if !ok || !moduleIDPattern.MatchString(moduleID) || output == "" || strings.ContainsAny(output, ". ") {
		return Connection{}, fmt.Errorf("%w: %q is not moduleId.outputName", ErrInvalidConnection, s)
	}
	return Connection{ModuleID: moduleID, Output: output}, nil
}

func (c Connection) String() string {
	return c.ModuleID + "." + c.Output
}
