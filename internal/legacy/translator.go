// Package legacy translates between the current protocol dialect and the
// older dialects still carried by SupportedProtocols. Up-conversion (old
// client -> current server code) fills canonical defaults for fields the
// old wire shape never had; down-conversion (current server code -> old
// client) drops or defaults fields the old client can't represent. Most
// packet ids are identical across every supported version and need no
// entry here at all — a Translator with no override for a given
// (version, id) pair falls back to decoding/encoding it exactly like the
// current dialect.
package legacy

import (
	"errors"
	"fmt"

	"github.com/GlobedGD/globed2-sub001/internal/codec"
	"github.com/GlobedGD/globed2-sub001/internal/protocol"
)

// ErrSuppressed is returned by a DowngradeFunc for a packet that has no
// representation at all in a legacy dialect — the packet id or the concept
// it carries simply didn't exist on that wire yet. Callers that encode for
// a specific recipient treat this as "don't send to this peer", not as a
// failure worth logging.
var ErrSuppressed = errors.New("legacy: packet suppressed for this protocol version")

// UpgradeFunc decodes a packet's legacy wire shape and returns the
// equivalent current-dialect Packet value.
type UpgradeFunc func(d *codec.Decoder) (protocol.Packet, error)

// DowngradeFunc encodes a current-dialect Packet value in a legacy wire
// shape, for sending to a client that hasn't upgraded.
type DowngradeFunc func(e *codec.Encoder, p protocol.Packet) error

type versionedID struct {
	version uint16
	id      uint16
}

// Translator holds the per-(version, packet id) overrides needed because a
// legacy dialect's wire shape for that packet differs from the current one.
type Translator struct {
	upgrades   map[versionedID]UpgradeFunc
	downgrades map[versionedID]DowngradeFunc
}

func NewTranslator() *Translator {
	return &Translator{
		upgrades:   make(map[versionedID]UpgradeFunc),
		downgrades: make(map[versionedID]DowngradeFunc),
	}
}

func (t *Translator) registerUpgrade(version, id uint16, fn UpgradeFunc) {
	t.upgrades[versionedID{version, id}] = fn
}

func (t *Translator) registerDowngrade(version, id uint16, fn DowngradeFunc) {
	t.downgrades[versionedID{version, id}] = fn
}

// Decode decodes an inbound packet sent under the given protocol version.
// If no version-specific override is registered for this (version, id),
// the packet's current-dialect shape is used directly — true for the large
// majority of packet ids, which never changed shape across supported
// versions.
func (t *Translator) Decode(version uint16, id uint16, d *codec.Decoder) (protocol.Packet, error) {
	if !protocol.SupportedProtocols[version] && version != protocol.ProbeProtocol {
		return nil, fmt.Errorf("%w: %d", protocol.ErrUnsupportedProtocol, version)
	}
	if fn, ok := t.upgrades[versionedID{version, id}]; ok {
		return fn(d)
	}
	return protocol.Default.Decode(id, d)
}

// Encode encodes an outbound packet for a client on the given protocol
// version, applying a down-conversion override when one is registered.
func (t *Translator) Encode(version uint16, e *codec.Encoder, p protocol.Packet) error {
	if fn, ok := t.downgrades[versionedID{version, p.PacketID()}]; ok {
		return fn(e, p)
	}
	if enc, ok := p.(interface{ Encode(*codec.Encoder) }); ok {
		enc.Encode(e)
		return nil
	}
	return fmt.Errorf("legacy: packet id %d has no Encode method", p.PacketID())
}

// Default is the translator populated with every known legacy override.
var Default = buildDefaultTranslator()

func buildDefaultTranslator() *Translator {
	t := NewTranslator()
	registerV13(t)
	registerV15(t)
	return t
}
