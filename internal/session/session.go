// Package session implements the per-connection client state machine: the
// sequence a connection moves through from the moment it's accepted to the
// moment it's torn down, and the state attached to it along the way.
package session

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GlobedGD/globed2-sub001/internal/crypto"
	"github.com/GlobedGD/globed2-sub001/internal/protocol"
	"github.com/GlobedGD/globed2-sub001/internal/ratelimit"
)

// State is the session's position in the handshake/auth/play lifecycle.
// Transitions only ever move forward (Active may move back and forth
// between InLevel/InRoom, which are both considered part of Active for
// ordering purposes) — there is no path back to an earlier state short of
// Terminated.
type State int32

const (
	Unconnected State = iota
	ProtocolChecked
	Keyed
	Authenticated
	Active
	InLevel
	InRoom
	Terminated
)

func (s State) String() string {
	switch s {
	case Unconnected:
		return "unconnected"
	case ProtocolChecked:
		return "protocol_checked"
	case Keyed:
		return "keyed"
	case Authenticated:
		return "authenticated"
	case Active:
		return "active"
	case InLevel:
		return "in_level"
	case InRoom:
		return "in_room"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

var (
	ErrInvalidTransition = errors.New("session: invalid state transition")
	ErrSessionClosed     = errors.New("session: already terminated")
)

// Session is one client's connection: its transport handles, its crypto
// keys once negotiated, its place in the level/room fan-out once
// authenticated, and its rate limiter.
type Session struct {
	id uint64

	state atomic.Int32

	// TCP is used for the control-plane/reliable packets (Metadata.TCPPreferred);
	// UDP carries the high-frequency lossy traffic (PlayerData, voice).
	tcpConn net.Conn
	udpAddr *net.UDPAddr

	ProtocolVersion uint16

	keys         *crypto.SessionKeys
	localKeyPair *crypto.KeyPair

	AccountID int32
	Username  string
	Admin     bool
	RoleBits  uint32
	NoChat    bool

	RateLimiter *ratelimit.SimpleRateLimiter

	// lastLevel is written by MarkInLevel/MarkLeftLevel and read by
	// CurrentLevel, all called from the goroutines dispatching this
	// session's own packets; it uses the lock-free cell rather than a mutex.
	lastLevel *UnsafeCell[protocol.LevelId]

	CurrentRoomID uint32

	mu           sync.RWMutex
	createdAt    time.Time
	lastActiveAt time.Time

	closeOnce sync.Once
	closeFn   func()
}

// New creates a session in the Unconnected state for a freshly accepted TCP
// connection. The UDP address is attached later, once the client's first
// UDP datagram arrives and is matched to this session (see internal/gameserver).
func New(id uint64, tcpConn net.Conn) *Session {
	s := &Session{
		id:        id,
		tcpConn:   tcpConn,
		lastLevel: NewUnsafeCell(protocol.LevelId(0)),
		createdAt: time.Now(),
	}
	s.lastActiveAt = s.createdAt
	s.state.Store(int32(Unconnected))
	return s
}

func (s *Session) ID() uint64   { return s.id }
func (s *Session) State() State { return State(s.state.Load()) }

func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActiveAt = time.Now()
	s.mu.Unlock()
}

func (s *Session) IdleSince() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.lastActiveAt)
}

// allowedTransitions enumerates every (from, to) pair that advance() will
// accept. Active, InLevel and InRoom can each move to any of the three,
// itself included, modeling "currently playing, possibly also on a level
// and/or in a room" rather than three mutually exclusive states.
var allowedTransitions = map[State]map[State]bool{
	Unconnected:     {ProtocolChecked: true, Terminated: true},
	ProtocolChecked: {Keyed: true, Terminated: true},
	Keyed:           {Authenticated: true, Terminated: true},
	Authenticated:   {Active: true, Terminated: true},
	Active:          {Active: true, InLevel: true, InRoom: true, Terminated: true},
	InLevel:         {Active: true, InLevel: true, InRoom: true, Terminated: true},
	InRoom:          {Active: true, InLevel: true, InRoom: true, Terminated: true},
	Terminated:      {},
}

func (s *Session) advance(to State) error {
	from := s.State()
	if from == Terminated {
		return ErrSessionClosed
	}
	if !allowedTransitions[from][to] {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	s.state.Store(int32(to))
	return nil
}

// MarkProtocolChecked records the negotiated protocol version after the
// client's version has been validated against SupportedProtocols.
func (s *Session) MarkProtocolChecked(version uint16) error {
	if err := s.advance(ProtocolChecked); err != nil {
		return err
	}
	s.ProtocolVersion = version
	return nil
}

// MarkKeyed installs the session's derived keys after a successful crypto
// handshake.
func (s *Session) MarkKeyed(keys *crypto.SessionKeys, localKeyPair *crypto.KeyPair) error {
	if err := s.advance(Keyed); err != nil {
		return err
	}
	s.keys = keys
	s.localKeyPair = localKeyPair
	s.RateLimiter = ratelimit.NewSimpleRateLimiter(defaultBucketCapacity, defaultBucketRefillPerSec)
	return nil
}

// MarkAuthenticated records the account and role bits/chat-mute state
// central resolved the login token to, and moves the session into play.
func (s *Session) MarkAuthenticated(accountID int32, username string, admin bool, roleBits uint32, noChat bool) error {
	if err := s.advance(Authenticated); err != nil {
		return err
	}
	s.AccountID = accountID
	s.Username = username
	s.Admin = admin
	s.RoleBits = roleBits
	s.NoChat = noChat
	return s.advance(Active)
}

func (s *Session) MarkInLevel(levelID protocol.LevelId) error {
	if err := s.advance(InLevel); err != nil {
		return err
	}
	s.lastLevel.SetUnchecked(levelID)
	return nil
}

func (s *Session) MarkLeftLevel() error {
	if err := s.advance(Active); err != nil {
		return err
	}
	s.lastLevel.SetUnchecked(protocol.LevelId(0))
	return nil
}

func (s *Session) MarkInRoom(roomID uint32) error {
	if err := s.advance(InRoom); err != nil {
		return err
	}
	s.CurrentRoomID = roomID
	return nil
}

func (s *Session) MarkLeftRoom() error {
	if err := s.advance(Active); err != nil {
		return err
	}
	s.CurrentRoomID = 0
	return nil
}

// CurrentLevel reads the level most recently set by MarkInLevel/MarkLeftLevel.
// Only safe to call from this session's own goroutines (see UnsafeCell).
func (s *Session) CurrentLevel() protocol.LevelId {
	return s.lastLevel.GetUnchecked()
}

// Keys returns the session's crypto keys, or nil before the handshake
// completes.
func (s *Session) Keys() *crypto.SessionKeys { return s.keys }

// SetUDPAddr attaches (or updates, on connection migration) the UDP
// address this session's datagrams are arriving from / should be sent to.
func (s *Session) SetUDPAddr(addr *net.UDPAddr) {
	s.mu.Lock()
	s.udpAddr = addr
	s.mu.Unlock()
}

func (s *Session) UDPAddr() *net.UDPAddr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.udpAddr
}

func (s *Session) TCPConn() net.Conn { return s.tcpConn }

// OnClose registers a cleanup callback (deregistering from level/room
// managers, closing the TCP conn) invoked exactly once by Terminate.
func (s *Session) OnClose(fn func()) { s.closeFn = fn }

// Terminate moves the session to Terminated and runs the registered
// cleanup callback exactly once, regardless of how many goroutines call it
// concurrently (the TCP read loop defers a call to this, and the idle
// session sweep calls it too).
func (s *Session) Terminate() {
	s.closeOnce.Do(func() {
		s.state.Store(int32(Terminated))
		if s.tcpConn != nil {
			s.tcpConn.Close()
		}
		if s.closeFn != nil {
			s.closeFn()
		}
	})
}

const (
	defaultBucketCapacity     = 40
	defaultBucketRefillPerSec = 30
)
