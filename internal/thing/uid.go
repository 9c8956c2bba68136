package thing

import (
	"fmt"
	"regexp"
	"strings"
)

const uidSeparator = ":"

var (
	segmentPattern        = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	channelSegmentPattern = regexp.MustCompile(`^[A-Za-z0-9_#-]+$`)
)

// ThingUID identifies a Thing: binding, thing type and instance id.
type ThingUID struct {
	BindingID string
	TypeID    string
	ID        string
}

// NewThingUID builds and validates a ThingUID.
func NewThingUID(bindingID, typeID, id string) (ThingUID, error) {
	uid := ThingUID{BindingID: bindingID, TypeID: typeID, ID: id}
	return uid, uid.Validate()
}

// ParseThingUID parses "binding:type:id".
func ParseThingUID(s string) (ThingUID, error) {
	parts := strings.Split(s, uidSeparator)
	if len(parts) != 3 {
		return ThingUID{}, fmt.Errorf("%w: %q needs 3 segments", ErrInvalidUID, s)
	}
	return NewThingUID(parts[0], parts[1], parts[2])
}

// Validate checks every segment.
func (u ThingUID) Validate() error {
	for _, seg := range []string{u.BindingID, u.TypeID, u.ID} {
		if !segmentPattern.MatchString(seg) {
			return fmt.Errorf("%w: bad segment %q in %q", ErrInvalidUID, seg, u.String())
		}
	}
	return nil
}

// IsZero reports whether u is the zero UID.
func (u ThingUID) IsZero() bool {
	return u == ThingUID{}
}

func (u ThingUID) String() string {
	return u.BindingID + uidSeparator + u.TypeID + uidSeparator + u.ID
}

// MarshalText implements encoding.TextMarshaler.
func (u ThingUID) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *ThingUID) UnmarshalText(b []byte) error {
	parsed, err := ParseThingUID(string(b))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// ChannelUID identifies a channel of a Thing.
type ChannelUID struct {
	Thing ThingUID
	ID    string
}

// NewChannelUID builds and validates a ChannelUID.
func NewChannelUID(thing ThingUID, id string) (ChannelUID, error) {
	uid := ChannelUID{Thing: thing, ID: id}
	return uid, uid.Validate()
}

// ParseChannelUID parses "binding:type:id:channel".
func ParseChannelUID(s string) (ChannelUID, error) {
	idx := strings.LastIndex(s, uidSeparator)
	if idx < 0 {
		return ChannelUID{}, fmt.Errorf("%w: %q has no channel segment", ErrInvalidUID, s)
	}
	thingUID, err := ParseThingUID(s[:idx])
	if err != nil {
		return ChannelUID{}, err
	}
	return NewChannelUID(thingUID, s[idx+1:])
}

// Validate checks the thing UID and the channel id.
func (u ChannelUID) Validate() error {
	if err := u.Thing.Validate(); err != nil {
		return err
	}
	if !channelSegmentPattern.MatchString(u.ID) {
		return fmt.Errorf("%w: bad channel id %q", ErrInvalidUID, u.ID)
	}
	return nil
}

// ThingUID returns the UID of the owning Thing.
func (u ChannelUID) ThingUID() ThingUID {
	return u.Thing
}

func (u ChannelUID) String() string {
	return u.Thing.String() + uidSeparator + u.ID
}

// MarshalText implements encoding.TextMarshaler.
func (u ChannelUID) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *ChannelUID) UnmarshalText(b []byte) error {
	parsed, err := ParseChannelUID(string(b))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// ChannelTypeUID identifies a channel type within a binding.
type ChannelTypeUID struct {
	BindingID string
	ID        string
}

// ParseChannelTypeUID parses "binding:id".
func ParseChannelTypeUID(s string) (ChannelTypeUID, error) {
	binding, id, ok := strings.Cut(s, uidSeparator)
	if !ok || !segmentPattern.MatchString(binding) || !segmentPattern.MatchString(id) {
		return ChannelTypeUID{}, fmt.Errorf("%w: channel type %q", ErrInvalidUID, s)
	}
	return ChannelTypeUID{BindingID: binding, ID: id}, nil
}

// IsZero reports whether u is the zero UID.
func (u ChannelTypeUID) IsZero() bool {
	return u == ChannelTypeUID{}
}

func (u ChannelTypeUID) String() string {
	return u.BindingID + uidSeparator + u.ID
}

// MarshalText implements encoding.TextMarshaler.
func (u ChannelTypeUID) MarshalText() ([]byte, error) {
	if u.IsZero() {
		return []byte{}, nil
	}
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty text yields the
// zero UID.
func (u *ChannelTypeUID) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*u = ChannelTypeUID{}
		return nil
	}
	parsed, err := ParseChannelTypeUID(string(b))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
