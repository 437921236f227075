package fanout

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync"

	"github.com/GlobedGD/globed2-sub001/internal/protocol"
)

var (
	ErrRoomNotFound    = errors.New("fanout: room not found")
	ErrRoomFull        = errors.New("fanout: room is full")
	ErrNotRoomOwner    = errors.New("fanout: caller does not own this room")
	ErrWrongToken      = errors.New("fanout: wrong room token")
	ErrRoomIDExhausted = errors.New("fanout: could not allocate a unique room id")

	// GlobalRoomID is room 0: an implicit room every connected player is a
	// member of, with no owner and no token required to join.
	GlobalRoomID uint32 = 0
)

const (
	roomIDCodeLength = 6
	roomIDBase       = 32
	maxRoomMembers   = 256
	roomIDGenTries   = 16
)

// Room is a group of players who share realtime broadcasts independent of
// which level they're each on — chat messages and room-wide notices, mainly.
// Ownership transfers to the earliest-joined remaining member when the
// owner disconnects; the room is destroyed once empty.
type Room struct {
	ID       uint32
	Token    uint32
	Settings protocol.RoomSettings

	mu      sync.Mutex
	owner   int32
	members []int32 // join order; members[0] is always the current owner (except room 0)
}

func (r *Room) isGlobal() bool { return r.ID == GlobalRoomID }

// Owner returns the current owner account id. Room 0 has no owner.
func (r *Room) Owner() int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.owner
}

// Members returns the room's members in join order.
func (r *Room) Members() []int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int32, len(r.members))
	copy(out, r.members)
	return out
}

func (r *Room) addMember(playerID int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.members {
		if id == playerID {
			return
		}
	}
	r.members = append(r.members, playerID)
	if !r.isGlobal() && r.owner == 0 {
		r.owner = playerID
	}
}

// removeMember removes playerID and, if it was the owner, transfers
// ownership to the next-earliest member. Reports whether the room is now
// empty and should be destroyed.
func (r *Room) removeMember(playerID int32) (empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, id := range r.members {
		if id == playerID {
			r.members = append(r.members[:i], r.members[i+1:]...)
			break
		}
	}
	if r.isGlobal() {
		return false
	}
	if r.owner == playerID {
		if len(r.members) == 0 {
			r.owner = 0
		} else {
			r.owner = r.members[0]
		}
	}
	return len(r.members) == 0
}

// RoomManager owns every room, including the always-present global room 0.
type RoomManager struct {
	mu    sync.RWMutex
	rooms map[uint32]*Room

	// memberOf tracks which room each player currently belongs to, beyond
	// the implicit global room, so JoinRoom can evict a stale membership.
	memberOf map[int32]uint32

	// invites tracks, per room, the set of account ids explicitly invited
	// by the owner — a one-shot grant consumed by the next JoinRoom call
	// from that account, bypassing the room token.
	invites map[uint32]map[int32]bool
}

func NewRoomManager() *RoomManager {
	m := &RoomManager{
		rooms:    make(map[uint32]*Room),
		memberOf: make(map[int32]uint32),
		invites:  make(map[uint32]map[int32]bool),
	}
	m.rooms[GlobalRoomID] = &Room{ID: GlobalRoomID, Settings: protocol.RoomSettings{Public: true}}
	return m
}

// RecordInvite grants accountID a one-shot, token-less join to roomID via
// JoinRoom, consumed on first use. Recorded against a nonexistent room is
// harmless — it is simply never consumed.
func (m *RoomManager) RecordInvite(roomID uint32, accountID int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.invites[roomID] == nil {
		m.invites[roomID] = make(map[int32]bool)
	}
	m.invites[roomID][accountID] = true
}

// CreateRoom allocates a fresh room id (retried under lock on collision),
// registers it, and makes ownerID its first member and owner.
func (m *RoomManager) CreateRoom(ownerID int32, settings protocol.RoomSettings) (*Room, error) {
	token, err := randomUint32()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var id uint32
	ok := false
	for i := 0; i < roomIDGenTries; i++ {
		candidate, err := generateRoomID()
		if err != nil {
			return nil, err
		}
		if candidate == GlobalRoomID {
			continue
		}
		if _, exists := m.rooms[candidate]; exists {
			continue
		}
		id = candidate
		ok = true
		break
	}
	if !ok {
		return nil, ErrRoomIDExhausted
	}

	room := &Room{ID: id, Token: token, Settings: settings}
	room.addMember(ownerID)
	m.rooms[id] = room

	if prev, had := m.memberOf[ownerID]; had && prev != GlobalRoomID {
		m.leaveLocked(ownerID, prev)
	}
	m.memberOf[ownerID] = id

	return room, nil
}

// JoinRoom adds playerID to roomID, provided roomID is the global room, the
// supplied token matches, or playerID holds a pending invite to roomID
// recorded via RecordInvite. The player's previous non-global room
// membership (if any) is left first.
func (m *RoomManager) JoinRoom(playerID int32, roomID, token uint32) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if roomID != GlobalRoomID {
		if room.Token != token && !m.consumeInviteLocked(roomID, playerID) {
			return nil, ErrWrongToken
		}
		if len(room.Members()) >= maxRoomMembers {
			return nil, ErrRoomFull
		}
	}

	if prev, had := m.memberOf[playerID]; had && prev != GlobalRoomID && prev != roomID {
		m.leaveLocked(playerID, prev)
	}

	room.addMember(playerID)
	if roomID != GlobalRoomID {
		m.memberOf[playerID] = roomID
	}
	return room, nil
}

// LeaveRoom removes playerID from its current non-global room, destroying
// the room if that empties it.
func (m *RoomManager) LeaveRoom(playerID int32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	roomID, ok := m.memberOf[playerID]
	if !ok {
		return
	}
	m.leaveLocked(playerID, roomID)
}

// consumeInviteLocked reports and clears a pending invite for (roomID,
// playerID). Must be called with m.mu held.
func (m *RoomManager) consumeInviteLocked(roomID uint32, playerID int32) bool {
	invited := m.invites[roomID]
	if invited == nil || !invited[playerID] {
		return false
	}
	delete(invited, playerID)
	if len(invited) == 0 {
		delete(m.invites, roomID)
	}
	return true
}

func (m *RoomManager) leaveLocked(playerID int32, roomID uint32) {
	room, ok := m.rooms[roomID]
	if !ok {
		delete(m.memberOf, playerID)
		return
	}
	empty := room.removeMember(playerID)
	delete(m.memberOf, playerID)
	if empty && roomID != GlobalRoomID {
		delete(m.rooms, roomID)
	}
}

// UpdateSettings applies new settings to roomID, provided callerID owns it.
func (m *RoomManager) UpdateSettings(callerID int32, roomID uint32, settings protocol.RoomSettings) error {
	m.mu.RLock()
	room, ok := m.rooms[roomID]
	m.mu.RUnlock()
	if !ok {
		return ErrRoomNotFound
	}
	if room.Owner() != callerID {
		return ErrNotRoomOwner
	}
	room.mu.Lock()
	room.Settings = settings
	room.mu.Unlock()
	return nil
}

// Get looks up a room by id.
func (m *RoomManager) Get(roomID uint32) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[roomID]
	return r, ok
}

// List returns every public room's id, for the room browser.
func (m *RoomManager) List() []uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]uint32, 0, len(m.rooms))
	for id, r := range m.rooms {
		if id == GlobalRoomID {
			continue
		}
		if r.Settings.Public {
			out = append(out, id)
		}
	}
	return out
}

func randomUint32() (uint32, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1<<32))
	if err != nil {
		return 0, fmt.Errorf("fanout: generate random token: %w", err)
	}
	return uint32(n.Uint64()), nil
}

// generateRoomID produces a room id representable as a 6-character
// base-32 code (RoomCode), rather than an arbitrary uint32, so every room
// has a short alphanumeric code players can type in to join.
func generateRoomID() (uint32, error) {
	var max int64 = 1
	for i := 0; i < roomIDCodeLength; i++ {
		max *= roomIDBase
	}
	n, err := rand.Int(rand.Reader, big.NewInt(max))
	if err != nil {
		return 0, fmt.Errorf("fanout: generate room id: %w", err)
	}
	return uint32(n.Int64()), nil
}

// RoomCode formats a room id as the fixed-width base-32 code shown to
// players.
func RoomCode(id uint32) string {
	s := strings.ToUpper(strconv.FormatUint(uint64(id), roomIDBase))
	if len(s) < roomIDCodeLength {
		s = strings.Repeat("0", roomIDCodeLength-len(s)) + s
	}
	return s
}

// ParseRoomCode parses a room code back into its numeric id.
func ParseRoomCode(code string) (uint32, error) {
	n, err := strconv.ParseUint(strings.ToLower(code), roomIDBase, 32)
	if err != nil {
		return 0, fmt.Errorf("fanout: invalid room code %q: %w", code, err)
	}
	return uint32(n), nil
}
