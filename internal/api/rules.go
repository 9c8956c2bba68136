package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-links/internal/automation"
)

// handleListModuleTypes returns module type descriptors, optionally
// filtered by ?kind=trigger|condition|action.
func (s *Server) handleListModuleTypes(w http.ResponseWriter, r *http.Request) {
	var types []*automation.Descriptor
	if kind := automation.Kind(r.URL.Query().Get("kind")); kind != "" {
		if !kind.Valid() {
			writeBadRequest(w, fmt.Sprintf("unknown kind %q", kind))
			return
		}
		types = s.types.ByKind(kind)
	} else {
		types = s.types.GetAll()
	}
	if types == nil {
		types = []*automation.Descriptor{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"module_types": types,
		"count":        len(types),
	})
}

// handleGetModuleType returns one module type descriptor.
func (s *Server) handleGetModuleType(w http.ResponseWriter, r *http.Request) {
	d, ok := s.types.ModuleType(chi.URLParam(r, "uid"))
	if !ok {
		writeNotFound(w, "module type not found")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleListRules returns every rule.
func (s *Server) handleListRules(w http.ResponseWriter, _ *http.Request) {
	rules := s.rules.GetAll()
	if rules == nil {
		rules = []*automation.RuleDescriptor{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rules": rules,
		"count": len(rules),
	})
}

// handleCreateRule validates and stores a rule. An empty uid is generated.
func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var spec automation.RuleSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		writeBadRequest(w, "invalid JSON: "+err.Error())
		return
	}

	rule, err := s.rules.Create(r.Context(), spec)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

// handleGetRule returns one rule.
func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	rule, ok := s.rules.GetRule(chi.URLParam(r, "uid"))
	if !ok {
		writeNotFound(w, "rule not found")
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

// handleDeleteRule removes a managed rule.
func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := s.rules.Delete(r.Context(), chi.URLParam(r, "uid")); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// moduleInstance summarises a built module.
type moduleInstance struct {
	ID          string            `json:"id"`
	Type        string            `json:"type"`
	Kind        automation.Kind   `json:"kind"`
	Connections map[string]string `json:"connections,omitempty"`
	Children    []moduleInstance  `json:"children,omitempty"`
}

func summarise(instances []*automation.Instance) []moduleInstance {
	out := make([]moduleInstance, 0, len(instances))
	for _, inst := range instances {
		m := moduleInstance{
			ID:       inst.ID,
			Type:     inst.Descriptor.UID(),
			Kind:     inst.Kind(),
			Children: summarise(inst.Children),
		}
		if len(inst.Bindings) > 0 {
			m.Connections = make(map[string]string, len(inst.Bindings))
			for _, b := range inst.Bindings {
				m.Connections[b.Input] = b.Connection.String()
			}
		}
		if len(m.Children) == 0 {
			m.Children = nil
		}
		out = append(out, m)
	}
	return out
}

// handleRuleModules builds every module of a rule and returns the result.
// It fails when a module type is missing or a connection no longer fits.
func (s *Server) handleRuleModules(w http.ResponseWriter, r *http.Request) {
	inst, err := s.rules.Instantiate(chi.URLParam(r, "uid"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rule":       inst.Rule.UID(),
		"triggers":   summarise(inst.Triggers),
		"conditions": summarise(inst.Conditions),
		"actions":    summarise(inst.Actions),
	})
}
