package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-links/internal/item"
	"github.com/nerrad567/gray-logic-links/internal/link"
	"github.com/nerrad567/gray-logic-links/internal/provider"
	"github.com/nerrad567/gray-logic-links/internal/thing"
)

// errLinkNotEditable is returned when a link exists but was not created
// through the managed provider.
var errLinkNotEditable = errors.New("link is not editable")

// channelLinkResponse is an item-channel link as returned by the API.
type channelLinkResponse struct {
	link.ItemChannelLink
	Editable bool `json:"editable"`
}

// thingLinkResponse is an item-thing link as returned by the API.
type thingLinkResponse struct {
	link.ItemThingLink
	Editable bool `json:"editable"`
}

// managedLookup is implemented by provider registries.
type managedLookup[T any] interface {
	Managed() (provider.ManagedProvider[T], bool)
}

// managedHas reports whether the managed provider of r stores id.
func managedHas[T any](r managedLookup[T], id string) bool {
	m, ok := r.Managed()
	if !ok {
		return false
	}
	_, ok = m.Get(id)
	return ok
}

// handleListLinks returns item-channel links, optionally filtered by
// ?item= and ?channel=.
func (s *Server) handleListLinks(w http.ResponseWriter, r *http.Request) {
	itemName := r.URL.Query().Get("item")
	channelParam := r.URL.Query().Get("channel")

	var channel thing.ChannelUID
	if channelParam != "" {
		uid, err := thing.ParseChannelUID(channelParam)
		if err != nil {
			writeBadRequest(w, err.Error())
			return
		}
		channel = uid
	}

	links := make([]channelLinkResponse, 0)
	for _, l := range s.links.GetAll() {
		if itemName != "" && l.Item != itemName {
			continue
		}
		if channelParam != "" && l.Channel != channel {
			continue
		}
		links = append(links, channelLinkResponse{
			ItemChannelLink: l,
			Editable:        managedHas[link.ItemChannelLink](s.links, l.ID()),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"links": links,
		"count": len(links),
	})
}

// parseChannelLink reads {item} and {channel} from the route.
func parseChannelLink(r *http.Request) (link.ItemChannelLink, error) {
	itemName := chi.URLParam(r, "item")
	if err := item.ValidateName(itemName); err != nil {
		return link.ItemChannelLink{}, err
	}
	uid, err := thing.ParseChannelUID(chi.URLParam(r, "channel"))
	if err != nil {
		return link.ItemChannelLink{}, err
	}
	return link.NewItemChannelLink(itemName, uid), nil
}

// handleGetLink returns one item-channel link.
func (s *Server) handleGetLink(w http.ResponseWriter, r *http.Request) {
	l, err := parseChannelLink(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	stored, ok := s.links.Get(l.ID())
	if !ok {
		writeNotFound(w, "link not found")
		return
	}
	writeJSON(w, http.StatusOK, channelLinkResponse{
		ItemChannelLink: stored,
		Editable:        managedHas[link.ItemChannelLink](s.links, stored.ID()),
	})
}

// handlePutLink creates an item-channel link through the managed provider.
// Re-putting an existing managed link is a no-op; links contributed by
// other providers cannot be replaced.
func (s *Server) handlePutLink(w http.ResponseWriter, r *http.Request) {
	l, err := parseChannelLink(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	_, exists := s.links.Get(l.ID())
	managed := managedHas[link.ItemChannelLink](s.links, l.ID())
	if exists && !managed {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, errLinkNotEditable.Error())
		return
	}
	if managed {
		writeJSON(w, http.StatusOK, channelLinkResponse{ItemChannelLink: l, Editable: true})
		return
	}

	if err := s.links.Add(r.Context(), l); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.logger.Info("link created", "item", l.Item, "channel", l.Channel.String())
	writeJSON(w, http.StatusOK, channelLinkResponse{ItemChannelLink: l, Editable: true})
}

// handleDeleteLink removes an item-channel link through the managed provider.
func (s *Server) handleDeleteLink(w http.ResponseWriter, r *http.Request) {
	l, err := parseChannelLink(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if _, exists := s.links.Get(l.ID()); !exists {
		writeNotFound(w, "link not found")
		return
	}
	if !managedHas[link.ItemChannelLink](s.links, l.ID()) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, errLinkNotEditable.Error())
		return
	}

	if _, _, err := s.links.Remove(r.Context(), l.ID()); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.logger.Info("link removed", "item", l.Item, "channel", l.Channel.String())
	w.WriteHeader(http.StatusNoContent)
}

// handleListThingLinks returns item-thing links, optionally filtered by
// ?item=.
func (s *Server) handleListThingLinks(w http.ResponseWriter, r *http.Request) {
	itemName := r.URL.Query().Get("item")

	links := make([]thingLinkResponse, 0)
	for _, l := range s.thingLinks.GetAll() {
		if itemName != "" && l.Item != itemName {
			continue
		}
		links = append(links, thingLinkResponse{
			ItemThingLink: l,
			Editable:      managedHas[link.ItemThingLink](s.thingLinks, l.ID()),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"links": links,
		"count": len(links),
	})
}

// parseThingLink reads {item} and {thing} from the route.
func parseThingLink(r *http.Request) (link.ItemThingLink, error) {
	itemName := chi.URLParam(r, "item")
	if err := item.ValidateName(itemName); err != nil {
		return link.ItemThingLink{}, err
	}
	uid, err := thing.ParseThingUID(chi.URLParam(r, "thing"))
	if err != nil {
		return link.ItemThingLink{}, err
	}
	return link.NewItemThingLink(itemName, uid), nil
}

// handlePutThingLink creates an item-thing link.
func (s *Server) handlePutThingLink(w http.ResponseWriter, r *http.Request) {
	l, err := parseThingLink(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if _, exists := s.thingLinks.Get(l.ID()); exists && !managedHas[link.ItemThingLink](s.thingLinks, l.ID()) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, errLinkNotEditable.Error())
		return
	}

	if err := s.thingLinks.Add(r.Context(), l); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.logger.Info("thing link created", "item", l.Item, "thing", l.Thing.String())
	writeJSON(w, http.StatusOK, thingLinkResponse{ItemThingLink: l, Editable: true})
}

// handleDeleteThingLink removes an item-thing link.
func (s *Server) handleDeleteThingLink(w http.ResponseWriter, r *http.Request) {
	l, err := parseThingLink(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if _, exists := s.thingLinks.Get(l.ID()); !exists {
		writeNotFound(w, "link not found")
		return
	}
	if !managedHas[link.ItemThingLink](s.thingLinks, l.ID()) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, errLinkNotEditable.Error())
		return
	}

	if _, _, err := s.thingLinks.Remove(r.Context(), l.ID()); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteThingChannelLinks removes every managed link to a channel of
// {thing} and reports how many were removed.
func (s *Server) handleDeleteThingChannelLinks(w http.ResponseWriter, r *http.Request) {
	uid, err := thing.ParseThingUID(chi.URLParam(r, "thing"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	removed, err := s.links.RemoveLinksForThing(r.Context(), uid)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.logger.Info("thing links removed", "thing", uid.String(), "count", removed)
	writeJSON(w, http.StatusOK, map[string]any{
		"thing":   uid.String(),
		"removed": removed,
	})
}
