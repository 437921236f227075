// Package fanout tracks which players are on which level and which room,
// and builds the broadcast sets sessions fan PlayerData/Voice/chat traffic
// out to.
package fanout

import (
	"sync"

	"github.com/GlobedGD/globed2-sub001/internal/protocol"
)

// LevelManager is a bidirectional index between levels and the players
// currently on them. A player is on at most one level at a time; joining a
// new one implicitly leaves the old one.
type LevelManager struct {
	mu        sync.RWMutex
	playersOn map[protocol.LevelId]map[int32]struct{}
	levelOf   map[int32]protocol.LevelId

	// customItems holds each level's server-side item-id -> value store,
	// keyed the same way the client's counter/item system addresses them.
	// Nothing currently mutates this outside SetCustomItem/CustomItems,
	// but the level's state includes it regardless of whether a packet
	// exercises it yet.
	customItems map[protocol.LevelId]map[uint16]int32
}

func NewLevelManager() *LevelManager {
	return &LevelManager{
		playersOn:   make(map[protocol.LevelId]map[int32]struct{}),
		levelOf:     make(map[int32]protocol.LevelId),
		customItems: make(map[protocol.LevelId]map[uint16]int32),
	}
}

// SetCustomItem sets levelID's custom item itemID to value.
func (m *LevelManager) SetCustomItem(levelID protocol.LevelId, itemID uint16, value int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items, ok := m.customItems[levelID]
	if !ok {
		items = make(map[uint16]int32)
		m.customItems[levelID] = items
	}
	items[itemID] = value
}

// CustomItem returns levelID's value for itemID, if set.
func (m *LevelManager) CustomItem(levelID protocol.LevelId, itemID uint16) (int32, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.customItems[levelID][itemID]
	return value, ok
}

// CustomItems returns a copy of every custom item set for levelID.
func (m *LevelManager) CustomItems(levelID protocol.LevelId) map[uint16]int32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := m.customItems[levelID]
	out := make(map[uint16]int32, len(items))
	for k, v := range items {
		out[k] = v
	}
	return out
}

// Join moves playerID onto levelID, leaving whatever level it was
// previously on (if any). Returns the level it was previously on, and
// whether there was one.
func (m *LevelManager) Join(playerID int32, levelID protocol.LevelId) (prev protocol.LevelId, hadPrev bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, hadPrev = m.levelOf[playerID]
	if hadPrev {
		m.removeLocked(playerID, prev)
	}

	set, ok := m.playersOn[levelID]
	if !ok {
		set = make(map[int32]struct{})
		m.playersOn[levelID] = set
	}
	set[playerID] = struct{}{}
	m.levelOf[playerID] = levelID
	return prev, hadPrev
}

// Leave removes playerID from whatever level it's on. A no-op if it isn't
// on any level.
func (m *LevelManager) Leave(playerID int32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	levelID, ok := m.levelOf[playerID]
	if !ok {
		return
	}
	m.removeLocked(playerID, levelID)
	delete(m.levelOf, playerID)
}

func (m *LevelManager) removeLocked(playerID int32, levelID protocol.LevelId) {
	set, ok := m.playersOn[levelID]
	if !ok {
		return
	}
	delete(set, playerID)
	if len(set) == 0 {
		delete(m.playersOn, levelID)
	}
}

// LevelOf reports the level playerID is currently on, if any.
func (m *LevelManager) LevelOf(playerID int32) (protocol.LevelId, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	levelID, ok := m.levelOf[playerID]
	return levelID, ok
}

// PlayersOn returns every player currently on levelID, excluding exclude if
// nonzero-valued (used to build a broadcast set that skips the sender).
func (m *LevelManager) PlayersOn(levelID protocol.LevelId, exclude int32) []int32 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set := m.playersOn[levelID]
	out := make([]int32, 0, len(set))
	for id := range set {
		if id == exclude {
			continue
		}
		out = append(out, id)
	}
	return out
}

// CountOn reports how many players are currently on levelID.
func (m *LevelManager) CountOn(levelID protocol.LevelId) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.playersOn[levelID])
}

// LevelCounts returns, for every non-empty level, how many players are on
// it. Used to build the level list shown in the room/global browser.
func (m *LevelManager) LevelCounts() map[protocol.LevelId]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[protocol.LevelId]int, len(m.playersOn))
	for id, set := range m.playersOn {
		out[id] = len(set)
	}
	return out
}
