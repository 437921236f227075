package gameserver

import (
	"fmt"

	"github.com/GlobedGD/globed2-sub001/internal/codec"
	"github.com/GlobedGD/globed2-sub001/internal/protocol"
	"github.com/GlobedGD/globed2-sub001/internal/session"
)

// decodePacket turns one frame (header + wire payload) into a Packet,
// decrypting first if the registry says this id is encrypted, and
// validating that the wire's encrypted flag agrees with what the registry
// declares — a mismatch is a protocol violation, not silently tolerated.
func (s *Server) decodePacket(sess *session.Session, header codec.Header, payload []byte) (protocol.Packet, error) {
	meta, ok := protocol.Default.Lookup(header.PacketID)
	if !ok {
		return nil, protocol.ErrUnknownPacket
	}
	if meta.Direction != protocol.ClientToServer {
		return nil, fmt.Errorf("gameserver: packet %s is not client-to-server", meta.Name)
	}
	if meta.Encrypted != header.Encrypted {
		return nil, protocol.ErrUnexpectedEncryption
	}
	if meta.AdminOnly && !sess.Admin {
		return nil, protocol.ErrNotAuthorized
	}

	plaintext := payload
	if meta.Encrypted {
		if sess.Keys() == nil {
			return nil, fmt.Errorf("gameserver: encrypted packet %s before handshake completed", meta.Name)
		}
		aad := headerAAD(header)
		pt, err := sess.Keys().Decrypt(payload, aad)
		if err != nil {
			return nil, err
		}
		plaintext = pt
	}

	d := codec.NewDecoder(plaintext)
	return s.translator.Decode(sess.ProtocolVersion, header.PacketID, d)
}

// encodePacket turns a Packet into wire bytes for a specific session,
// applying the legacy down-conversion for its negotiated protocol version
// and encrypting if the registry says this id is encrypted.
func (s *Server) encodePacket(sess *session.Session, pkt protocol.Packet) (codec.Header, []byte, error) {
	meta, ok := protocol.Default.Lookup(pkt.PacketID())
	if !ok {
		return codec.Header{}, nil, protocol.ErrUnknownPacket
	}

	e := codec.NewEncoder(64)
	if err := s.translator.Encode(sess.ProtocolVersion, e, pkt); err != nil {
		return codec.Header{}, nil, err
	}
	plaintext := e.Bytes()

	header := codec.Header{PacketID: pkt.PacketID(), Encrypted: meta.Encrypted}

	if !meta.Encrypted {
		return header, plaintext, nil
	}

	if sess.Keys() == nil {
		return codec.Header{}, nil, fmt.Errorf("gameserver: cannot encrypt %s before handshake completed", meta.Name)
	}
	aad := headerAAD(header)
	return header, sess.Keys().Encrypt(plaintext, aad), nil
}

// headerAAD is the packet header bytes used as AEAD additional data: the
// header is authenticated but never itself encrypted.
func headerAAD(header codec.Header) []byte {
	e := codec.NewEncoder(codec.HeaderSize)
	header.Encode(e)
	return e.Bytes()
}
