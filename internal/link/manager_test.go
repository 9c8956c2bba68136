package link

import (
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/nerrad567/gray-logic-links/internal/item"
	"github.com/nerrad567/gray-logic-links/internal/provider"
	"github.com/nerrad567/gray-logic-links/internal/thing"
)

// mockHandler records channel link notifications.
type mockHandler struct {
	mu       sync.Mutex
	calls    []string
	err      error
	panicMsg string
}

func (h *mockHandler) ChannelLinked(uid thing.ChannelUID) error {
	return h.record("linked " + uid.ID)
}

func (h *mockHandler) ChannelUnlinked(uid thing.ChannelUID) error {
	return h.record("unlinked " + uid.ID)
}

func (h *mockHandler) record(call string) error {
	h.mu.Lock()
	h.calls = append(h.calls, call)
	h.mu.Unlock()
	if h.panicMsg != "" {
		panic(h.panicMsg)
	}
	return h.err
}

func (h *mockHandler) got() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.calls)
}

type mockManagerMetrics struct {
	autoLinks map[string]int
	failures  int
}

func (m *mockManagerMetrics) AutoLink(action string) { m.autoLinks[action]++ }
func (m *mockManagerMetrics) HandlerFailure(string)  { m.failures++ }

func TestThingLinkManager_AutoLinks(t *testing.T) {
	f := newFixture(t)
	metrics := &mockManagerMetrics{autoLinks: make(map[string]int)}
	f.manager.SetMetrics(metrics)
	f.manager.Activate(f.ctx, true)

	if err := f.thingProvider.Add(f.ctx, bulb(kitchenBulb)); err != nil {
		t.Fatalf("Add(thing) error = %v", err)
	}

	want := []string{
		"hue_bulb_kitchen_color -> hue:bulb:kitchen:color",
		"hue_bulb_kitchen_temperature -> hue:bulb:kitchen:temperature",
	}
	if got := linkIDs(f.links.GetAll()); !slices.Equal(got, want) {
		t.Fatalf("links after thing added = %v, want %v", got, want)
	}

	// Removal is not gated by the auto-link setting.
	f.manager.Modified(false)
	if _, _, err := f.thingProvider.Remove(f.ctx, kitchenBulb.String()); err != nil {
		t.Fatalf("Remove(thing) error = %v", err)
	}
	if got := f.links.GetAll(); len(got) != 0 {
		t.Errorf("links after thing removed = %v, want none", got)
	}
	if metrics.autoLinks["created"] != 2 || metrics.autoLinks["removed"] != 2 {
		t.Errorf("metrics = %v", metrics.autoLinks)
	}
}

func TestThingLinkManager_AutoLinksDisabled(t *testing.T) {
	f := newFixture(t)
	f.manager.Activate(f.ctx, false)

	if err := f.thingProvider.Add(f.ctx, bulb(kitchenBulb)); err != nil {
		t.Fatalf("Add(thing) error = %v", err)
	}
	if got := f.links.GetAll(); len(got) != 0 {
		t.Errorf("links = %v, want none with auto-links disabled", got)
	}
	if f.manager.AutoLinks() {
		t.Error("AutoLinks() = true")
	}
}

func TestThingLinkManager_KeepsUserLinksOnRemoval(t *testing.T) {
	f := newFixture(t)
	f.manager.Activate(f.ctx, true)
	f.thingProvider.Add(f.ctx, bulb(kitchenBulb)) //nolint:errcheck // Storage is ready

	custom := NewItemChannelLink("Kitchen_Light", channel(kitchenBulb, "color"))
	f.links.Add(f.ctx, custom) //nolint:errcheck // Storage is ready

	f.thingProvider.Remove(f.ctx, kitchenBulb.String()) //nolint:errcheck // Storage is ready

	if got := f.links.GetAll(); !slices.Equal(got, []ItemChannelLink{custom}) {
		t.Errorf("links = %v, want only the user link", got)
	}
}

func TestThingLinkManager_ThingUpdated(t *testing.T) {
	f := newFixture(t)
	f.manager.Activate(f.ctx, true)

	uid := kitchenBulb
	old := thing.Thing{UID: uid, Channels: []thing.Channel{
		{UID: channel(uid, "power")},
		{UID: channel(uid, "color")},
	}}
	updated := thing.Thing{UID: uid, Channels: []thing.Channel{
		{UID: channel(uid, "color")},
		{UID: channel(uid, "brightness")},
		{UID: channel(uid, "alert"), TypeUID: thing.ChannelTypeUID{BindingID: "hue", ID: "alert"}},
	}}

	f.thingProvider.Add(f.ctx, old) //nolint:errcheck // Storage is ready
	if _, ok, err := f.thingProvider.Update(f.ctx, updated); err != nil || !ok {
		t.Fatalf("Update(thing) ok=%v err=%v", ok, err)
	}

	want := []string{
		"hue_bulb_kitchen_brightness -> hue:bulb:kitchen:brightness",
		"hue_bulb_kitchen_color -> hue:bulb:kitchen:color",
	}
	if got := linkIDs(f.links.GetAll()); !slices.Equal(got, want) {
		t.Errorf("links after update = %v, want %v", got, want)
	}
}

func TestThingLinkManager_NotifiesHandlers(t *testing.T) {
	f := newFixture(t)
	h := &mockHandler{}
	f.things.SetHandler(kitchenBulb, h)
	f.manager.Activate(f.ctx, true)

	f.thingProvider.Add(f.ctx, bulb(kitchenBulb)) //nolint:errcheck // Storage is ready

	// Link to a channel the thing does not have: no callback.
	f.links.Add(f.ctx, NewItemChannelLink("Ghost", channel(kitchenBulb, "ghost"))) //nolint:errcheck // Storage is ready

	// Link to the advanced channel added by hand: callback.
	alert := NewItemChannelLink("Alert", channel(kitchenBulb, "alert"))
	f.links.Add(f.ctx, alert)               //nolint:errcheck // Storage is ready
	f.linkProvider.RemoveLink(f.ctx, alert) //nolint:errcheck // Storage is ready

	want := []string{"linked color", "linked temperature", "linked alert", "unlinked alert"}
	if got := h.got(); !slices.Equal(got, want) {
		t.Errorf("handler calls = %v, want %v", got, want)
	}
}

func TestThingLinkManager_LinkAlsoInReadOnlyProvider(t *testing.T) {
	f := newFixture(t)
	h := &mockHandler{}
	f.things.SetHandler(kitchenBulb, h)
	f.manager.Activate(f.ctx, false)
	f.thingProvider.Add(f.ctx, bulb(kitchenBulb))                       //nolint:errcheck // Storage is ready
	f.items.Add(f.ctx, item.Item{Name: "Kitchen_Light", Type: "Color"}) //nolint:errcheck // Storage is ready

	color := NewItemChannelLink("Kitchen_Light", channel(kitchenBulb, "color"))
	f.links.AddProvider(provider.NewStatic(color))

	// The managed copy neither adds nor removes the link.
	if err := f.links.Add(f.ctx, color); err != nil {
		t.Fatalf("links.Add() error = %v", err)
	}
	if _, _, err := f.linkProvider.RemoveLink(f.ctx, color); err != nil {
		t.Fatalf("RemoveLink() error = %v", err)
	}

	if got, want := h.got(), []string{"linked color"}; !slices.Equal(got, want) {
		t.Errorf("handler calls = %v, want %v", got, want)
	}
	if !f.links.IsLinked("Kitchen_Light", color.Channel) {
		t.Error("IsLinked() = false while the read-only provider still holds the link")
	}
}

func TestThingLinkManager_LinkUpdated(t *testing.T) {
	f := newFixture(t)
	h := &mockHandler{}
	f.things.SetHandler(kitchenBulb, h)
	f.thingProvider.Add(f.ctx, bulb(kitchenBulb)) //nolint:errcheck // Storage is ready

	a := NewItemChannelLink("A", channel(kitchenBulb, "color"))
	b := NewItemChannelLink("A", channel(kitchenBulb, "temperature"))

	f.manager.linkUpdated(a, a)
	if got := h.got(); len(got) != 0 {
		t.Errorf("identical update produced calls %v", got)
	}

	f.manager.linkUpdated(a, b)
	want := []string{"unlinked color", "linked temperature"}
	if got := h.got(); !slices.Equal(got, want) {
		t.Errorf("handler calls = %v, want %v", got, want)
	}
}

func TestThingLinkManager_HandlerFaultsAreIsolated(t *testing.T) {
	f := newFixture(t)
	metrics := &mockManagerMetrics{autoLinks: make(map[string]int)}
	f.manager.SetMetrics(metrics)

	panicking := &mockHandler{panicMsg: "binding bug"}
	failing := &mockHandler{err: errors.New("device offline")}
	healthy := &mockHandler{}
	third := thing.ThingUID{BindingID: "hue", TypeID: "bulb", ID: "porch"}

	f.things.SetHandler(kitchenBulb, panicking)
	f.things.SetHandler(hallBulb, failing)
	f.things.SetHandler(third, healthy)
	f.manager.Activate(f.ctx, true)

	for _, uid := range []thing.ThingUID{kitchenBulb, hallBulb, third} {
		if err := f.thingProvider.Add(f.ctx, bulb(uid)); err != nil {
			t.Fatalf("Add(%s) error = %v", uid, err)
		}
	}

	if got := len(f.links.GetAll()); got != 6 {
		t.Errorf("links = %d, want 6 despite handler faults", got)
	}
	if got := healthy.got(); len(got) != 2 {
		t.Errorf("healthy handler calls = %v, want 2", got)
	}
	if metrics.failures != 4 {
		t.Errorf("handler failures = %d, want 4", metrics.failures)
	}
}

func TestThingLinkManager_Deactivate(t *testing.T) {
	f := newFixture(t)
	f.manager.Activate(f.ctx, true)
	f.manager.Deactivate()
	f.manager.Deactivate() // idempotent

	f.thingProvider.Add(f.ctx, bulb(kitchenBulb)) //nolint:errcheck // Storage is ready
	if got := f.links.GetAll(); len(got) != 0 {
		t.Errorf("links = %v, want none after Deactivate", got)
	}
}

func TestThingLinkManager_ExistingLinkIsKept(t *testing.T) {
	f := newFixture(t)
	var posted int
	f.manager.Activate(f.ctx, true)

	existing := NewItemChannelLink(DeriveItemName(channel(kitchenBulb, "color")), channel(kitchenBulb, "color"))
	f.links.Add(f.ctx, existing) //nolint:errcheck // Storage is ready
	posted = len(f.posted)

	f.thingProvider.Add(f.ctx, bulb(kitchenBulb)) //nolint:errcheck // Storage is ready

	// Only the temperature link is new.
	if got := len(f.posted) - posted; got != 1 {
		t.Errorf("events after thing added = %d, want 1", got)
	}
}
