package gameserver

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"

	"go.uber.org/zap"

	"github.com/GlobedGD/globed2-sub001/internal/codec"
	"github.com/GlobedGD/globed2-sub001/internal/legacy"
	"github.com/GlobedGD/globed2-sub001/internal/protocol"
	"github.com/GlobedGD/globed2-sub001/internal/session"
)

// udpHeaderSize is the session id prefix every UDP datagram carries ahead
// of the ordinary packet header, so an unconnected socket can demux
// datagrams to the session that owns them. Unlike TCP, UDP has no
// per-connection socket to hang a session off of, so the session has to
// identify itself on every datagram.
const udpHeaderSize = 8

var errUnknownUDPSession = errors.New("gameserver: datagram references unknown session id")

// udpIngressLoop is run by a small fixed pool of goroutines all reading
// the same unconnected UDP socket; ReadFromUDP is safe for concurrent use; the demux
// happens per-datagram on the session id prefix.
func (s *Server) udpIngressLoop(ctx context.Context, conn *net.UDPConn) error {
	buf := make([]byte, maxUDPPacketSize)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Debug("udp read failed", zap.Error(err))
			continue
		}

		if err := s.handleUDPDatagram(conn, addr, append([]byte(nil), buf[:n]...)); err != nil {
			s.logger.Debug("udp datagram rejected", zap.String("addr", addr.String()), zap.Error(err))
		}
	}
}

func (s *Server) handleUDPDatagram(conn *net.UDPConn, addr *net.UDPAddr, data []byte) error {
	if len(data) < udpHeaderSize+codec.HeaderSize {
		return fmt.Errorf("gameserver: datagram too short")
	}

	sessionID := binary.BigEndian.Uint64(data[:udpHeaderSize])
	sess, ok := s.sessionByID(sessionID)
	if !ok {
		return errUnknownUDPSession
	}

	if sess.UDPAddr() == nil || sess.UDPAddr().String() != addr.String() {
		s.registerUDPAddr(sess, addr)
	}
	sess.Touch()

	d := codec.NewDecoder(data[udpHeaderSize:])
	header, err := codec.DecodeHeader(d)
	if err != nil {
		return err
	}

	// Rate limiting is silent: excess packets are dropped, never errored,
	// and admin packets are never subject to it at all.
	if meta, ok := protocol.Default.Lookup(header.PacketID); ok && !meta.AdminOnly {
		if sess.RateLimiter != nil && !sess.RateLimiter.Allow() {
			return nil
		}
	}

	pkt, err := s.decodePacket(sess, header, d.ReadRemainder())
	if err != nil {
		return err
	}
	return s.dispatch(sess, pkt)
}

// sendUDPPacket encodes pkt and sends it as a datagram to sess's linked UDP
// address. Falls back to the TCP connection when no UDP address has been
// linked yet (e.g. before the client has sent its first datagram). A packet
// with no representation in sess's negotiated protocol version is silently
// dropped rather than treated as a send failure.
func (s *Server) sendUDPPacket(sess *session.Session, pkt protocol.Packet) error {
	addr := sess.UDPAddr()
	if addr == nil {
		return s.sendPacket(sess, pkt)
	}

	header, payload, err := s.encodePacket(sess, pkt)
	if errors.Is(err, legacy.ErrSuppressed) {
		return nil
	}
	if err != nil {
		return err
	}

	e := codec.NewEncoder(udpHeaderSize + codec.HeaderSize + len(payload))
	idBuf := make([]byte, udpHeaderSize)
	binary.BigEndian.PutUint64(idBuf, sess.ID())
	e.WriteBytes(idBuf)
	header.Encode(e)
	e.WriteBytes(payload)

	_, err = s.udpConn.WriteToUDP(e.Bytes(), addr)
	return err
}
