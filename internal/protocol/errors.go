package protocol

import "errors"

var (
	// ErrUnknownPacket is returned by Registry.Decode for a packet id with no
	// registered decoder — either unassigned, or legal only in the other
	// direction.
	ErrUnknownPacket = errors.New("protocol: unknown packet id")

	// ErrUnexpectedEncryption is returned when a packet's encrypted flag on
	// the wire disagrees with what its Metadata.Encrypted declares.
	ErrUnexpectedEncryption = errors.New("protocol: packet encryption flag mismatch")

	// ErrNotAuthorized is returned when an admin-only packet arrives on a
	// session that never passed admin authentication.
	ErrNotAuthorized = errors.New("protocol: packet requires admin authorization")

	// ErrUnsupportedProtocol is returned (wrapped, with the version) by the
	// legacy translator when asked to decode under a protocol version
	// outside SupportedProtocols (and not the probe sentinel).
	ErrUnsupportedProtocol = errors.New("protocol: unsupported protocol version")
)
