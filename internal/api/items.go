package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-links/internal/item"
	"github.com/nerrad567/gray-logic-links/internal/provider"
	"github.com/nerrad567/gray-logic-links/internal/thing"
)

// itemRequest is the body of PUT /items/{item}.
type itemRequest struct {
	Type  string   `json:"type"`
	Label string   `json:"label,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

// handleListItems returns every item.
func (s *Server) handleListItems(w http.ResponseWriter, _ *http.Request) {
	items := s.items.GetAll()
	if items == nil {
		items = []item.Item{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"count": len(items),
	})
}

// handleGetItem returns one item.
func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	it, ok := s.items.GetItem(chi.URLParam(r, "item"))
	if !ok {
		writeNotFound(w, "item not found")
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// handlePutItem creates or replaces a managed item.
func (s *Server) handlePutItem(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "item")
	if err := item.ValidateName(name); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if req.Type == "" {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "type is required")
		return
	}

	it := item.Item{Name: name, Type: req.Type, Label: req.Label, Tags: req.Tags}

	_, exists := s.items.GetItem(name)
	if exists && !managedHas[item.Item](s.items, name) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "item is not editable")
		return
	}

	if exists {
		if _, _, err := s.items.Update(r.Context(), it); err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, it)
		return
	}

	if err := s.items.Add(r.Context(), it); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.logger.Info("item created", "item", name, "type", it.Type)
	writeJSON(w, http.StatusCreated, it)
}

// handleDeleteItem removes a managed item and every managed link of it.
func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "item")

	if _, ok := s.items.GetItem(name); !ok {
		writeNotFound(w, "item not found")
		return
	}
	if !managedHas[item.Item](s.items, name) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "item is not editable")
		return
	}

	if _, _, err := s.items.Remove(r.Context(), name); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	channelLinks, err := s.links.RemoveLinksForItem(r.Context(), name)
	if err != nil && !errors.Is(err, provider.ErrNoManagedProvider) {
		s.logger.Warn("removing channel links of deleted item failed", "item", name, "error", err)
	}
	thingLinks, err := s.thingLinks.RemoveLinksForItem(r.Context(), name)
	if err != nil && !errors.Is(err, provider.ErrNoManagedProvider) {
		s.logger.Warn("removing thing links of deleted item failed", "item", name, "error", err)
	}

	s.logger.Info("item deleted", "item", name, "links_removed", channelLinks+thingLinks)
	writeJSON(w, http.StatusOK, map[string]any{
		"item":          name,
		"links_removed": channelLinks + thingLinks,
	})
}

// handleItemChannels returns the channels bound to {item}.
func (s *Server) handleItemChannels(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "item")

	channels := s.links.BoundChannels(name)
	if channels == nil {
		channels = []thing.ChannelUID{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"item":     name,
		"channels": channels,
	})
}

// handleItemThings returns the things bound to {item}, either through a
// channel link or a direct item-thing link.
func (s *Server) handleItemThings(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "item")

	things := make([]thing.Thing, 0)
	seen := make(map[thing.ThingUID]bool)
	for _, t := range s.links.BoundThings(name) {
		seen[t.UID] = true
		things = append(things, t)
	}
	for _, uid := range s.thingLinks.LinkedThings(name) {
		if seen[uid] {
			continue
		}
		seen[uid] = true
		if t, ok := s.things.GetThing(uid); ok {
			things = append(things, t)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"item":   name,
		"things": things,
	})
}

// handleListThings returns every thing.
func (s *Server) handleListThings(w http.ResponseWriter, _ *http.Request) {
	things := s.things.GetAll()
	if things == nil {
		things = []thing.Thing{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"things": things,
		"count":  len(things),
	})
}

// handleGetThing returns one thing with the items linked to each channel.
func (s *Server) handleGetThing(w http.ResponseWriter, r *http.Request) {
	uid, err := thing.ParseThingUID(chi.URLParam(r, "thing"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	t, ok := s.things.GetThing(uid)
	if !ok {
		writeNotFound(w, "thing not found")
		return
	}

	linked := make(map[string][]string, len(t.Channels))
	for _, ch := range t.Channels {
		linked[ch.UID.String()] = s.links.LinkedItemNames(ch.UID)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"thing":        t,
		"linked_items": linked,
	})
}
