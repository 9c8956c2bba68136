package link

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/nerrad567/gray-logic-links/internal/event"
	"github.com/nerrad567/gray-logic-links/internal/item"
	"github.com/nerrad567/gray-logic-links/internal/provider"
	"github.com/nerrad567/gray-logic-links/internal/storage"
	"github.com/nerrad567/gray-logic-links/internal/thing"
)

var (
	kitchenBulb = thing.ThingUID{BindingID: "hue", TypeID: "bulb", ID: "kitchen"}
	hallBulb    = thing.ThingUID{BindingID: "hue", TypeID: "bulb", ID: "hall"}
)

func channel(t thing.ThingUID, id string) thing.ChannelUID {
	return thing.ChannelUID{Thing: t, ID: id}
}

func TestLinkID(t *testing.T) {
	cl := NewItemChannelLink("Kitchen_Light", channel(kitchenBulb, "color"))
	if cl.ID() != "Kitchen_Light -> hue:bulb:kitchen:color" {
		t.Errorf("ItemChannelLink.ID() = %q", cl.ID())
	}
	tl := NewItemThingLink("Kitchen_Light", kitchenBulb)
	if tl.ID() != "Kitchen_Light -> hue:bulb:kitchen" {
		t.Errorf("ItemThingLink.ID() = %q", tl.ID())
	}
	if cl != NewItemChannelLink("Kitchen_Light", channel(kitchenBulb, "color")) {
		t.Error("links with the same pair are not equal")
	}
}

func TestDeriveItemName(t *testing.T) {
	tests := []struct {
		uid  thing.ChannelUID
		want string
	}{
		{channel(kitchenBulb, "color"), "hue_bulb_kitchen_color"},
		{channel(thing.ThingUID{BindingID: "knx", TypeID: "device", ID: "light-1"}, "switch"), "knx_device_light_1_switch"},
		{channel(thing.ThingUID{BindingID: "sonos", TypeID: "zp", ID: "lounge"}, "zone#volume"), "sonos_zp_lounge_zone_volume"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := DeriveItemName(tt.uid)
			if got != tt.want {
				t.Errorf("DeriveItemName(%s) = %q, want %q", tt.uid, got, tt.want)
			}
			if err := item.ValidateName(got); err != nil {
				t.Errorf("derived name is not a valid item name: %v", err)
			}
		})
	}
}

// Registry queries across two disjoint providers.
func TestRegistry_Queries(t *testing.T) {
	color := channel(kitchenBulb, "color")
	temp := channel(kitchenBulb, "temperature")
	hall := channel(hallBulb, "color")

	links := []ItemChannelLink{
		NewItemChannelLink("Kitchen_Light", color),
		NewItemChannelLink("Kitchen_Scene", color),
		NewItemChannelLink("Kitchen_Temp", temp),
		NewItemChannelLink("Hall_Light", hall),
	}
	r := NewRegistry[thing.ChannelUID, ItemChannelLink]("test")
	r.AddProvider(provider.NewStatic(links[:2]...))
	r.AddProvider(provider.NewStatic(links[2:]...))

	t.Run("Links returns exactly the links to uid", func(t *testing.T) {
		for _, uid := range []thing.ChannelUID{color, temp, hall, channel(hallBulb, "missing")} {
			var want []ItemChannelLink
			for _, l := range links {
				if l.Channel == uid {
					want = append(want, l)
				}
			}
			if got := r.Links(uid); !slices.Equal(got, want) {
				t.Errorf("Links(%s) = %v, want %v", uid, got, want)
			}
		}
	})

	t.Run("IsLinked matches an existing pair", func(t *testing.T) {
		for _, name := range []string{"Kitchen_Light", "Kitchen_Scene", "Kitchen_Temp", "Hall_Light", "Other"} {
			for _, uid := range []thing.ChannelUID{color, temp, hall} {
				want := slices.Contains(links, NewItemChannelLink(name, uid))
				if got := r.IsLinked(name, uid); got != want {
					t.Errorf("IsLinked(%s, %s) = %v, want %v", name, uid, got, want)
				}
			}
		}
	})

	t.Run("LinkedItemNames preserves order", func(t *testing.T) {
		want := []string{"Kitchen_Light", "Kitchen_Scene"}
		if got := r.LinkedItemNames(color); !slices.Equal(got, want) {
			t.Errorf("LinkedItemNames() = %v, want %v", got, want)
		}
	})

	t.Run("LinksForItem", func(t *testing.T) {
		if got := r.LinksForItem("Hall_Light"); len(got) != 1 || got[0].Channel != hall {
			t.Errorf("LinksForItem() = %v", got)
		}
	})
}

// fixture wires item, thing and link registries with managed providers
// backed by in-memory storage.
type fixture struct {
	ctx context.Context

	items        *item.Registry
	itemProvider *provider.Managed[item.Item]

	things        *thing.Registry
	thingProvider *provider.Managed[thing.Thing]
	types         *thing.ChannelTypeRegistry

	links        *ItemChannelLinkRegistry
	linkProvider *ManagedItemChannelLinkProvider
	posted       []string

	manager *ThingLinkManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{ctx: ctx}

	backend := storage.NewMemoryBackend()
	svc := storage.NewService()

	f.items = item.NewRegistry()
	f.itemProvider = provider.NewManaged[item.Item]("items")
	f.items.SetManagedProvider(f.itemProvider)
	storage.Bind(svc, "items", f.itemProvider.StorageSelected, nil)

	f.things = thing.NewRegistry()
	f.thingProvider = provider.NewManaged[thing.Thing]("things")
	f.things.SetManagedProvider(f.thingProvider)
	storage.Bind(svc, "things", f.thingProvider.StorageSelected, nil)

	f.links = NewItemChannelLinkRegistry(f.items, f.things)
	f.linkProvider = NewManagedItemChannelLinkProvider()
	f.links.SetManagedProvider(f.linkProvider)
	f.links.PublishEvents(event.PublisherFunc(func(e event.Event) { f.posted = append(f.posted, e.Type) }))
	storage.Bind(svc, ChannelLinkNamespace, f.linkProvider.StorageSelected, nil)

	svc.Select(backend)

	f.types = thing.NewChannelTypeRegistry(
		thing.ChannelType{UID: thing.ChannelTypeUID{BindingID: "hue", ID: "color"}, ItemType: "Color"},
		thing.ChannelType{UID: thing.ChannelTypeUID{BindingID: "hue", ID: "temperature"}, ItemType: "Number"},
		thing.ChannelType{UID: thing.ChannelTypeUID{BindingID: "hue", ID: "alert"}, ItemType: "String", Advanced: true},
	)
	f.manager = NewThingLinkManager(f.things, f.thingProvider, f.links, f.linkProvider, f.types, nil)
	return f
}

// bulb returns a Thing with color and temperature channels and an
// advanced alert channel.
func bulb(uid thing.ThingUID) thing.Thing {
	return thing.Thing{UID: uid, Channels: []thing.Channel{
		{UID: channel(uid, "color"), TypeUID: thing.ChannelTypeUID{BindingID: "hue", ID: "color"}},
		{UID: channel(uid, "temperature"), TypeUID: thing.ChannelTypeUID{BindingID: "hue", ID: "temperature"}},
		{UID: channel(uid, "alert"), TypeUID: thing.ChannelTypeUID{BindingID: "hue", ID: "alert"}},
	}}
}

func linkIDs(links []ItemChannelLink) []string {
	ids := make([]string, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.ID())
	}
	slices.Sort(ids)
	return ids
}

func TestItemChannelLinkRegistry_FiltersMissingItems(t *testing.T) {
	f := newFixture(t)
	c := channel(kitchenBulb, "color")

	if err := f.items.Add(f.ctx, item.Item{Name: "Kitchen_Light", Type: "Color"}); err != nil {
		t.Fatalf("items.Add() error = %v", err)
	}
	if err := f.links.Add(f.ctx, NewItemChannelLink("Kitchen_Light", c)); err != nil {
		t.Fatalf("links.Add() error = %v", err)
	}

	if got := f.links.LinkedItemNames(c); !slices.Equal(got, []string{"Kitchen_Light"}) {
		t.Fatalf("LinkedItemNames() before delete = %v", got)
	}

	if _, _, err := f.items.Remove(f.ctx, "Kitchen_Light"); err != nil {
		t.Fatalf("items.Remove() error = %v", err)
	}

	if got := f.links.LinkedItemNames(c); len(got) != 0 {
		t.Errorf("LinkedItemNames() = %v, want empty", got)
	}
	if got := f.links.AllLinkedItemNames(c); !slices.Equal(got, []string{"Kitchen_Light"}) {
		t.Errorf("AllLinkedItemNames() = %v, want [Kitchen_Light]", got)
	}
	if got := f.links.GetAll(); len(got) != 1 || got[0].Item != "Kitchen_Light" {
		t.Errorf("GetAll() = %v, want the raw link", got)
	}
	if got := f.links.LinkedItems(c); len(got) != 0 {
		t.Errorf("LinkedItems() = %v, want empty", got)
	}
}

func TestItemChannelLinkRegistry_BoundChannelsAndThings(t *testing.T) {
	f := newFixture(t)
	f.thingProvider.Add(f.ctx, thing.Thing{UID: kitchenBulb}) //nolint:errcheck // Storage is ready

	for _, l := range []ItemChannelLink{
		NewItemChannelLink("Scene", channel(kitchenBulb, "color")),
		NewItemChannelLink("Scene", channel(kitchenBulb, "temperature")),
		NewItemChannelLink("Scene", channel(hallBulb, "color")), // hall bulb does not exist
		NewItemChannelLink("Other", channel(kitchenBulb, "color")),
	} {
		if err := f.links.Add(f.ctx, l); err != nil {
			t.Fatalf("Add(%s) error = %v", l, err)
		}
	}

	wantChannels := []thing.ChannelUID{channel(kitchenBulb, "color"), channel(kitchenBulb, "temperature"), channel(hallBulb, "color")}
	if got := f.links.BoundChannels("Scene"); !slices.Equal(got, wantChannels) {
		t.Errorf("BoundChannels() = %v, want %v", got, wantChannels)
	}

	things := f.links.BoundThings("Scene")
	if len(things) != 1 || things[0].UID != kitchenBulb {
		t.Errorf("BoundThings() = %v, want only the kitchen bulb", things)
	}
}

func TestItemChannelLinkRegistry_ReplaceAndEvents(t *testing.T) {
	f := newFixture(t)
	l := NewItemChannelLink("Kitchen_Light", channel(kitchenBulb, "color"))

	if err := f.links.Add(f.ctx, l); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := f.links.Add(f.ctx, l); err != nil {
		t.Fatalf("Add() again error = %v", err)
	}
	if _, _, err := f.links.Update(f.ctx, l); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if _, ok, err := f.linkProvider.RemoveLink(f.ctx, l); err != nil || !ok {
		t.Fatalf("RemoveLink() ok=%v err=%v", ok, err)
	}

	want := []string{
		ItemChannelLinkAddedEvent,
		ItemChannelLinkRemovedEvent, ItemChannelLinkAddedEvent,
		ItemChannelLinkRemovedEvent,
	}
	if !slices.Equal(f.posted, want) {
		t.Errorf("posted = %v, want %v", f.posted, want)
	}
}

func TestItemChannelLinkRegistry_RemoveLinksForThing(t *testing.T) {
	t.Run("without managed provider", func(t *testing.T) {
		r := NewItemChannelLinkRegistry(item.NewRegistry(), thing.NewRegistry())
		if _, err := r.RemoveLinksForThing(context.Background(), kitchenBulb); !errors.Is(err, provider.ErrNoManagedProvider) {
			t.Errorf("RemoveLinksForThing() error = %v, want ErrNoManagedProvider", err)
		}
	})

	t.Run("removes only that thing's links", func(t *testing.T) {
		f := newFixture(t)
		keep := NewItemChannelLink("Hall", channel(hallBulb, "color"))
		for _, l := range []ItemChannelLink{
			NewItemChannelLink("A", channel(kitchenBulb, "color")),
			NewItemChannelLink("B", channel(kitchenBulb, "temperature")),
			keep,
		} {
			f.links.Add(f.ctx, l) //nolint:errcheck // Storage is ready
		}

		n, err := f.links.RemoveLinksForThing(f.ctx, kitchenBulb)
		if err != nil || n != 2 {
			t.Fatalf("RemoveLinksForThing() = %d, %v; want 2, nil", n, err)
		}
		if got := f.links.GetAll(); !slices.Equal(got, []ItemChannelLink{keep}) {
			t.Errorf("GetAll() = %v, want [%s]", got, keep)
		}
	})

	t.Run("removes an item's links", func(t *testing.T) {
		f := newFixture(t)
		f.links.Add(f.ctx, NewItemChannelLink("A", channel(kitchenBulb, "color"))) //nolint:errcheck // Storage is ready
		f.links.Add(f.ctx, NewItemChannelLink("A", channel(hallBulb, "color")))    //nolint:errcheck // Storage is ready
		f.links.Add(f.ctx, NewItemChannelLink("B", channel(hallBulb, "color")))    //nolint:errcheck // Storage is ready

		n, err := f.links.RemoveLinksForItem(f.ctx, "A")
		if err != nil || n != 2 {
			t.Fatalf("RemoveLinksForItem() = %d, %v; want 2, nil", n, err)
		}
		if got := f.links.LinkedItemNames(channel(hallBulb, "color")); len(got) != 0 {
			// B is not in the item registry, so it is filtered too.
			t.Errorf("LinkedItemNames() = %v, want empty", got)
		}
		if got := f.links.AllLinkedItemNames(channel(hallBulb, "color")); !slices.Equal(got, []string{"B"}) {
			t.Errorf("AllLinkedItemNames() = %v, want [B]", got)
		}
	})
}

func TestItemThingLinkRegistry(t *testing.T) {
	ctx := context.Background()
	r := NewItemThingLinkRegistry()
	var posted []string
	r.PublishEvents(event.PublisherFunc(func(e event.Event) { posted = append(posted, e.Type) }))

	managed := NewManagedItemThingLinkProvider()
	if err := managed.SetStorage(ctx, storage.NewMemory[ItemThingLink]()); err != nil {
		t.Fatalf("SetStorage() error = %v", err)
	}
	r.SetManagedProvider(managed)

	for _, l := range []ItemThingLink{
		NewItemThingLink("Kitchen", kitchenBulb),
		NewItemThingLink("Kitchen", hallBulb),
		NewItemThingLink("Hall", hallBulb),
	} {
		if err := r.Add(ctx, l); err != nil {
			t.Fatalf("Add(%s) error = %v", l, err)
		}
	}

	if got := r.LinkedThings("Kitchen"); !slices.Equal(got, []thing.ThingUID{kitchenBulb, hallBulb}) {
		t.Errorf("LinkedThings() = %v", got)
	}
	if !r.IsLinked("Hall", hallBulb) || r.IsLinked("Hall", kitchenBulb) {
		t.Error("IsLinked() mismatch")
	}

	t.Run("update is never supported", func(t *testing.T) {
		inputs := []ItemThingLink{
			NewItemThingLink("Kitchen", kitchenBulb), // existing
			NewItemThingLink("New", kitchenBulb),     // missing
			{},                                       // zero
		}
		for _, in := range inputs {
			if _, _, err := r.Update(ctx, in); !errors.Is(err, provider.ErrUnsupportedOperation) {
				t.Errorf("Update(%s) error = %v, want ErrUnsupportedOperation", in, err)
			}
			if _, _, err := managed.Update(ctx, in); !errors.Is(err, provider.ErrUnsupportedOperation) {
				t.Errorf("managed Update(%s) error = %v, want ErrUnsupportedOperation", in, err)
			}
		}
	})

	if n, err := r.RemoveLinksForItem(ctx, "Kitchen"); err != nil || n != 2 {
		t.Errorf("RemoveLinksForItem() = %d, %v", n, err)
	}

	want := []string{
		ItemThingLinkAddedEvent, ItemThingLinkAddedEvent, ItemThingLinkAddedEvent,
		ItemThingLinkRemovedEvent, ItemThingLinkRemovedEvent,
	}
	if !slices.Equal(posted, want) {
		t.Errorf("posted = %v, want %v", posted, want)
	}
}
