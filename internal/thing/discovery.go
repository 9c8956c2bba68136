package thing

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/nerrad567/gray-logic-links/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-links/internal/provider"
)

// ErrInvalidAnnouncement is returned for a discovery message that cannot be
// applied.
var ErrInvalidAnnouncement = errors.New("thing: invalid discovery announcement")

// Logger is the logging interface used by Discovery.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Subscriber is the subset of the MQTT client Discovery needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Discovery provides the Things bindings announce over MQTT.
//
// Each binding publishes its complete Thing list, retained, on
// graylogic/discovery/{binding}. A new list replaces the binding's previous
// one; an empty list withdraws all of them. Listeners see the difference as
// added, removed and updated Things.
//
// When a ChannelTypeRegistry is set, channel types published on
// graylogic/channel-types/{binding} are registered with it the same way.
type Discovery struct {
	*provider.Static[Thing]

	mu        sync.Mutex
	byBinding map[string][]Thing
	types     *ChannelTypeRegistry
	logger    Logger
}

// NewDiscovery creates an empty discovery provider.
func NewDiscovery(logger Logger) *Discovery {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Discovery{
		Static:    provider.NewStatic[Thing](),
		byBinding: make(map[string][]Thing),
		logger:    logger,
	}
}

// SetChannelTypes sets the registry announced channel types go to. It
// must be called before Start.
func (d *Discovery) SetChannelTypes(types *ChannelTypeRegistry) {
	d.types = types
}

// Start subscribes to the discovery topics of every binding. Channel types
// are subscribed first so retained types are known before Things are linked.
func (d *Discovery) Start(sub Subscriber) error {
	if d.types != nil {
		if err := sub.Subscribe(mqtt.Topics{}.AllChannelTypeDiscovery(), 1, d.handleChannelTypes); err != nil {
			return fmt.Errorf("subscribing to channel type discovery: %w", err)
		}
	}
	if err := sub.Subscribe(mqtt.Topics{}.AllThingDiscovery(), 1, d.handleMessage); err != nil {
		return fmt.Errorf("subscribing to thing discovery: %w", err)
	}
	return nil
}

func (d *Discovery) handleMessage(topic string, payload []byte) error {
	bindingID, ok := mqtt.BindingFromDiscoveryTopic(topic)
	if !ok {
		return fmt.Errorf("%w: topic %q", ErrInvalidAnnouncement, topic)
	}
	return d.Apply(bindingID, payload)
}

// Apply replaces the Things of bindingID with the JSON list in payload.
// An empty payload is treated like an empty list. Every Thing must belong
// to bindingID and every channel to its Thing; otherwise nothing changes.
func (d *Discovery) Apply(bindingID string, payload []byte) error {
	var things []Thing
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &things); err != nil {
			return fmt.Errorf("%w: binding %s: %w", ErrInvalidAnnouncement, bindingID, err)
		}
	}

	for _, t := range things {
		if err := checkAnnounced(bindingID, t); err != nil {
			return err
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if len(things) == 0 {
		delete(d.byBinding, bindingID)
	} else {
		d.byBinding[bindingID] = things
	}
	d.Replace(d.flatten())

	d.logger.Info("things discovered", "binding", bindingID, "count", len(things))
	return nil
}

func (d *Discovery) handleChannelTypes(topic string, payload []byte) error {
	bindingID, ok := mqtt.BindingFromChannelTypeTopic(topic)
	if !ok {
		return fmt.Errorf("%w: topic %q", ErrInvalidAnnouncement, topic)
	}
	return d.ApplyChannelTypes(bindingID, payload)
}

// ApplyChannelTypes replaces the channel types of bindingID with the JSON
// list in payload. Every type must belong to bindingID; otherwise nothing
// changes.
func (d *Discovery) ApplyChannelTypes(bindingID string, payload []byte) error {
	if d.types == nil {
		return nil
	}

	var types []ChannelType
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &types); err != nil {
			return fmt.Errorf("%w: binding %s channel types: %w", ErrInvalidAnnouncement, bindingID, err)
		}
	}
	for _, ct := range types {
		if ct.UID.IsZero() || ct.UID.BindingID != bindingID {
			return fmt.Errorf("%w: channel type %s announced by binding %s", ErrInvalidAnnouncement, ct.UID, bindingID)
		}
	}

	d.types.ReplaceBinding(bindingID, types)
	d.logger.Info("channel types discovered", "binding", bindingID, "count", len(types))
	return nil
}

// Bindings returns the ids of bindings that currently announce Things.
func (d *Discovery) Bindings() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	ids := make([]string, 0, len(d.byBinding))
	for id := range d.byBinding {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// flatten concatenates the per-binding lists in binding order.
func (d *Discovery) flatten() []Thing {
	ids := make([]string, 0, len(d.byBinding))
	for id := range d.byBinding {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var all []Thing
	for _, id := range ids {
		all = append(all, d.byBinding[id]...)
	}
	return all
}

func checkAnnounced(bindingID string, t Thing) error {
	if err := t.UID.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAnnouncement, err)
	}
	if t.UID.BindingID != bindingID {
		return fmt.Errorf("%w: thing %s announced by binding %s", ErrInvalidAnnouncement, t.UID, bindingID)
	}
	for _, ch := range t.Channels {
		if ch.UID.Thing != t.UID {
			return fmt.Errorf("%w: channel %s does not belong to %s", ErrInvalidAnnouncement, ch.UID, t.UID)
		}
	}
	return nil
}
