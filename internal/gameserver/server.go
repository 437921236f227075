// Package gameserver wires the protocol codec, the legacy translator, the
// crypto handshake, the session state machine and the level/room fan-out
// managers into a running dual-transport (TCP+UDP) server.
package gameserver

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/GlobedGD/globed2-sub001/internal/central"
	"github.com/GlobedGD/globed2-sub001/internal/fanout"
	"github.com/GlobedGD/globed2-sub001/internal/legacy"
	"github.com/GlobedGD/globed2-sub001/internal/protocol"
	"github.com/GlobedGD/globed2-sub001/internal/session"
)

// maxUDPPacketSize bounds a single inbound UDP datagram. Larger than any
// legitimate packet this protocol sends unencrypted framing for.
const maxUDPPacketSize = 2048

// udpIngressWorkers is the size of the fixed goroutine pool demultiplexing
// inbound UDP datagrams by their 8-byte session-id prefix (see udp.go); the
// source address is not checked against an earlier one, it relinks the
// session's UDP address instead. Kept small and fixed rather than one
// goroutine per session, since UDP has no per-connection socket to hang a
// goroutine off of.
const udpIngressWorkers = 4

type Config struct {
	TCPAddr string
	UDPAddr string

	CentralURL      string
	CentralPassword string

	Logger *zap.Logger
}

// Server is one running game server instance.
type Server struct {
	cfg        Config
	logger     *zap.Logger
	central    *central.Client
	translator *legacy.Translator
	levels     *fanout.LevelManager
	rooms      *fanout.RoomManager

	tcpListener net.Listener
	udpConn     *net.UDPConn
	ready       chan struct{}

	// bootData is populated once from central's boot response before any
	// session is accepted; it's read-only thereafter, so no lock guards it.
	bootData central.BootData

	nextSessionID atomic.Uint64

	mu        sync.RWMutex
	sessions  map[uint64]*session.Session
	byAccount map[int32]*session.Session
	byUDPAddr map[string]*session.Session

	roomCreateMu       sync.Mutex
	roomCreateLimiters map[int32]*rate.Limiter
}

func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:                cfg,
		logger:             logger,
		central:            central.NewClient(cfg.CentralURL, cfg.CentralPassword),
		translator:         legacy.Default,
		levels:             fanout.NewLevelManager(),
		rooms:              fanout.NewRoomManager(),
		sessions:           make(map[uint64]*session.Session),
		byAccount:          make(map[int32]*session.Session),
		byUDPAddr:          make(map[string]*session.Session),
		roomCreateLimiters: make(map[int32]*rate.Limiter),
		ready:              make(chan struct{}),
	}
}

// applyBootState folds in the account's standing state from central's boot
// response (the server-wide mute list and special-user role bits) on top of
// whatever this particular login's verify-token response already carried.
func (s *Server) applyBootState(accountID int32, roleBits uint32, noChat bool) (uint32, bool) {
	if special, ok := s.bootData.SpecialUsers[accountID]; ok {
		roleBits |= special.RoleBits
	}
	for _, muted := range s.bootData.NoChat {
		if muted == accountID {
			noChat = true
			break
		}
	}
	return roleBits, noChat
}

// Ready is closed once the TCP and UDP sockets are bound, i.e. once TCPAddr
// and UDPLocalAddr are safe to call. Mainly useful in tests that bind to
// ":0" and need the actual ephemeral port chosen.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// TCPAddr returns the address the TCP listener is bound to. Only valid
// after Ready is closed.
func (s *Server) TCPAddr() net.Addr { return s.tcpListener.Addr() }

// UDPLocalAddr returns the address the UDP socket is bound to. Only valid
// after Ready is closed.
func (s *Server) UDPLocalAddr() net.Addr { return s.udpConn.LocalAddr() }

// ListenAndServe binds the TCP and UDP sockets, announces the server to
// central, and runs the accept/ingress loops until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	tcpLn, err := net.Listen("tcp", s.cfg.TCPAddr)
	if err != nil {
		return fmt.Errorf("gameserver: listen tcp %s: %w", s.cfg.TCPAddr, err)
	}
	s.tcpListener = tcpLn

	udpAddr, err := net.ResolveUDPAddr("udp", s.cfg.UDPAddr)
	if err != nil {
		tcpLn.Close()
		return fmt.Errorf("gameserver: resolve udp %s: %w", s.cfg.UDPAddr, err)
	}
	udpConn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		tcpLn.Close()
		return fmt.Errorf("gameserver: listen udp %s: %w", s.cfg.UDPAddr, err)
	}
	s.udpConn = udpConn
	close(s.ready)

	bootData, err := s.central.Boot(ctx, s.cfg.TCPAddr, s.cfg.UDPAddr)
	if err != nil {
		s.logger.Warn("failed to announce boot to central", zap.Error(err))
	} else {
		s.bootData = bootData
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		tcpLn.Close()
		udpConn.Close()
		return nil
	})

	g.Go(func() error { return s.acceptLoop(gctx, tcpLn) })

	for i := 0; i < udpIngressWorkers; i++ {
		g.Go(func() error { return s.udpIngressLoop(gctx, udpConn) })
	}

	g.Go(func() error { return s.cleanupLoop(gctx) })

	return g.Wait()
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Warn("tcp accept failed", zap.Error(err))
			continue
		}
		sess := s.newSession(conn)
		go s.tcpRecvLoop(ctx, sess)
	}
}

func (s *Server) newSession(conn net.Conn) *session.Session {
	id := s.nextSessionID.Add(1)
	sess := session.New(id, conn)
	sess.OnClose(func() { s.removeSession(sess) })

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	return sess
}

func (s *Server) removeSession(sess *session.Session) {
	s.levels.Leave(sess.AccountID)
	s.rooms.LeaveRoom(sess.AccountID)

	s.mu.Lock()
	delete(s.sessions, sess.ID())
	if s.byAccount[sess.AccountID] == sess {
		delete(s.byAccount, sess.AccountID)
	}
	if addr := sess.UDPAddr(); addr != nil {
		if s.byUDPAddr[addr.String()] == sess {
			delete(s.byUDPAddr, addr.String())
		}
	}
	s.mu.Unlock()
}

// cleanupLoop terminates sessions that have gone quiet, mirroring the
// teacher's dead-session sweep.
func (s *Server) cleanupLoop(ctx context.Context) error {
	const (
		interval = 30 * time.Second
		timeout  = 60 * time.Second
	)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.mu.RLock()
			var stale []*session.Session
			for _, sess := range s.sessions {
				if sess.IdleSince() > timeout {
					stale = append(stale, sess)
				}
			}
			s.mu.RUnlock()

			for _, sess := range stale {
				s.logger.Info("terminating idle session", zap.Uint64("session_id", sess.ID()))
				sess.Terminate()
			}
		}
	}
}

func (s *Server) sessionByID(id uint64) (*session.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *Server) sessionByAccount(accountID int32) (*session.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.byAccount[accountID]
	return sess, ok
}

func (s *Server) sessionByUDPAddr(addr *net.UDPAddr) (*session.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.byUDPAddr[addr.String()]
	return sess, ok
}

func (s *Server) registerAuthenticated(sess *session.Session) {
	s.mu.Lock()
	s.byAccount[sess.AccountID] = sess
	s.mu.Unlock()
}

func (s *Server) registerUDPAddr(sess *session.Session, addr *net.UDPAddr) {
	s.mu.Lock()
	if old := sess.UDPAddr(); old != nil {
		delete(s.byUDPAddr, old.String())
	}
	s.byUDPAddr[addr.String()] = sess
	s.mu.Unlock()
	sess.SetUDPAddr(addr)
}

// roomCreateLimiterFor returns the per-account limiter governing
// CreateRoomPacket, lazily creating one. Unlike the per-packet
// SimpleRateLimiter, this is cold-path enough that a mutex-guarded
// golang.org/x/time/rate.Limiter is the right tool rather than a
// hand-rolled lock-free bucket.
func (s *Server) roomCreateLimiterFor(accountID int32) *rate.Limiter {
	s.roomCreateMu.Lock()
	defer s.roomCreateMu.Unlock()

	l, ok := s.roomCreateLimiters[accountID]
	if !ok {
		l = rate.NewLimiter(rate.Every(10*time.Second), 1)
		s.roomCreateLimiters[accountID] = l
	}
	return l
}

func (s *Server) supportedProtocol(version uint16) bool {
	return protocol.SupportedProtocols[version] || version == protocol.ProbeProtocol
}
