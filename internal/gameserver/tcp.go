package gameserver

import (
	"context"
	"encoding/binary"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/GlobedGD/globed2-sub001/internal/crypto"
	"github.com/GlobedGD/globed2-sub001/internal/legacy"
	"github.com/GlobedGD/globed2-sub001/internal/protocol"
	"github.com/GlobedGD/globed2-sub001/internal/session"
)

// tcpRecvLoop owns one accepted TCP connection for its entire life: the
// version probe/handshake, the crypto handshake, and then the ordinary
// per-frame dispatch loop. A session is always driven by exactly one
// goroutine reading its TCP socket, so no locking is needed around the
// handshake fields it sets up here.
func (s *Server) tcpRecvLoop(ctx context.Context, sess *session.Session) {
	defer sess.Terminate()

	if !s.handleVersionProbe(sess) {
		return
	}

	if !s.handleCryptoHandshake(sess) {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		header, payload, err := readFrame(sess.TCPConn())
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.logger.Debug("tcp read failed", zap.Uint64("session_id", sess.ID()), zap.Error(err))
			}
			return
		}
		sess.Touch()

		// Rate limiting is silent: excess packets are dropped, never
		// errored, and admin packets are never subject to it at all.
		if meta, ok := protocol.Default.Lookup(header.PacketID); ok && !meta.AdminOnly {
			if sess.RateLimiter != nil && !sess.RateLimiter.Allow() {
				continue
			}
		}

		pkt, err := s.decodePacket(sess, header, payload)
		if err != nil {
			s.logger.Debug("decode failed", zap.Uint64("session_id", sess.ID()), zap.Error(err))
			s.sendDisconnect(sess, "protocol error")
			return
		}

		if err := s.dispatch(sess, pkt); err != nil {
			s.logger.Debug("dispatch failed", zap.Uint64("session_id", sess.ID()), zap.Error(err))
			s.sendDisconnect(sess, "protocol error")
			return
		}
	}
}

// handleVersionProbe reads the raw 2-byte protocol version a client sends
// as the very first thing on the TCP connection, before any framed packet.
// A client probing server capability sends the sentinel ProbeProtocol and
// expects CurrentProtocol echoed back, then disconnects on its own. A real
// client sending an unsupported version is refused with a framed
// ServerDisconnectPacket carrying a human-readable reason that distinguishes
// a too-new client (server outdated) from a too-old one (client outdated);
// a supported version proceeds to the crypto handshake.
func (s *Server) handleVersionProbe(sess *session.Session) bool {
	var buf [2]byte
	if _, err := io.ReadFull(sess.TCPConn(), buf[:]); err != nil {
		return false
	}
	version := binary.BigEndian.Uint16(buf[:])

	if version == protocol.ProbeProtocol {
		binary.BigEndian.PutUint16(buf[:], protocol.CurrentProtocol)
		sess.TCPConn().Write(buf[:])
		return false
	}

	if !s.supportedProtocol(version) {
		if version > protocol.MaxSupportedVersion {
			s.sendDisconnect(sess, "Your Globed version is too new for this server. The server owner needs to update.")
		} else {
			s.sendDisconnect(sess, "Your Globed version is too old for this server. Please update your client.")
		}
		return false
	}

	if err := sess.MarkProtocolChecked(version); err != nil {
		return false
	}
	return true
}

// handleCryptoHandshake reads the client's CryptoHandshakeStart packet,
// generates this session's ephemeral key pair, derives the directional
// session keys, and replies with CryptoHandshakeResponse.
func (s *Server) handleCryptoHandshake(sess *session.Session) bool {
	header, payload, err := readFrame(sess.TCPConn())
	if err != nil {
		return false
	}
	if header.PacketID != protocol.CryptoHandshakeStartID {
		s.sendDisconnect(sess, "expected crypto handshake")
		return false
	}

	pkt, err := s.decodePacket(sess, header, payload)
	if err != nil {
		return false
	}
	start, ok := pkt.(protocol.CryptoHandshakeStartPacket)
	if !ok {
		return false
	}

	serverKP, err := crypto.GenerateKeyPair()
	if err != nil {
		s.logger.Error("generate server keypair failed", zap.Error(err))
		return false
	}

	shared, err := crypto.ComputeSharedSecret(serverKP.PrivateKey, start.Data.PublicKey)
	if err != nil {
		s.sendDisconnect(sess, "invalid handshake key")
		return false
	}

	keys, err := crypto.DeriveSessionKeys(shared, false)
	if err != nil {
		s.logger.Error("derive session keys failed", zap.Error(err))
		return false
	}

	if err := sess.MarkKeyed(keys, serverKP); err != nil {
		return false
	}

	resp := protocol.CryptoHandshakeResponsePacket{Data: protocol.HandshakeData{PublicKey: serverKP.PublicKey}}
	return s.sendPacket(sess, resp) == nil
}

// sendPacket encodes and writes one packet over this session's TCP
// connection, regardless of the packet's TCPPreferred metadata — used for
// control-plane replies and as the fallback path before a session's UDP
// address is linked. A packet with no representation in sess's negotiated
// protocol version is silently dropped rather than treated as a send
// failure.
func (s *Server) sendPacket(sess *session.Session, pkt protocol.Packet) error {
	header, payload, err := s.encodePacket(sess, pkt)
	if errors.Is(err, legacy.ErrSuppressed) {
		return nil
	}
	if err != nil {
		return err
	}
	return writeFrame(sess.TCPConn(), header, payload)
}

func (s *Server) sendDisconnect(sess *session.Session, reason string) {
	_ = s.sendPacket(sess, protocol.ServerDisconnectPacket{Reason: reason})
}
