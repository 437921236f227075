package fanout

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GlobedGD/globed2-sub001/internal/protocol"
)

func TestLevelManagerJoinLeave(t *testing.T) {
	lm := NewLevelManager()

	lm.Join(1, 100)
	lm.Join(2, 100)
	lm.Join(3, 200)

	players := lm.PlayersOn(100, 0)
	require.Len(t, players, 2)

	excl := lm.PlayersOn(100, 1)
	require.Equal(t, []int32{2}, excl)

	lm.Leave(1)
	require.Equal(t, 1, lm.CountOn(100))
	_, ok := lm.LevelOf(1)
	require.False(t, ok, "player 1 should no longer be on any level")
}

func TestLevelManagerJoinMovesPlayer(t *testing.T) {
	lm := NewLevelManager()
	lm.Join(1, 100)
	prev, had := lm.Join(1, 200)
	require.True(t, had)
	require.EqualValues(t, 100, prev)
	require.Equal(t, 0, lm.CountOn(100))
	require.Equal(t, 1, lm.CountOn(200))
}

func TestLevelManagerCustomItems(t *testing.T) {
	lm := NewLevelManager()

	_, ok := lm.CustomItem(100, 5)
	require.False(t, ok)

	lm.SetCustomItem(100, 5, 42)
	lm.SetCustomItem(100, 6, -1)

	v, ok := lm.CustomItem(100, 5)
	require.True(t, ok)
	require.EqualValues(t, 42, v)

	require.Equal(t, map[uint16]int32{5: 42, 6: -1}, lm.CustomItems(100))
	require.Empty(t, lm.CustomItems(200), "unrelated level should have no custom items")
}

func TestRoomManagerGlobalRoomAlwaysPresent(t *testing.T) {
	rm := NewRoomManager()
	room, ok := rm.Get(GlobalRoomID)
	require.True(t, ok)
	require.Zero(t, room.Token, "global room should require no token")
}

func TestRoomManagerCreateJoinLeave(t *testing.T) {
	rm := NewRoomManager()

	room, err := rm.CreateRoom(1, protocol.RoomSettings{Public: true})
	require.NoError(t, err)
	require.EqualValues(t, 1, room.Owner())

	_, err = rm.JoinRoom(2, room.ID, room.Token)
	require.NoError(t, err)

	_, err = rm.JoinRoom(3, room.ID, room.Token+1)
	require.ErrorIs(t, err, ErrWrongToken)

	require.Len(t, room.Members(), 2)

	rm.LeaveRoom(1)
	require.EqualValues(t, 2, room.Owner(), "ownership should transfer to earliest remaining member")

	rm.LeaveRoom(2)
	_, ok := rm.Get(room.ID)
	require.False(t, ok, "room should be destroyed once empty")
}

func TestRoomManagerGeneratedIDsUnique(t *testing.T) {
	rm := NewRoomManager()
	seen := make(map[uint32]bool)
	for i := 0; i < 50; i++ {
		room, err := rm.CreateRoom(int32(i+1), protocol.RoomSettings{})
		require.NoError(t, err)
		require.False(t, seen[room.ID], "duplicate room id generated: %d", room.ID)
		seen[room.ID] = true
	}
}

func TestRoomCodeRoundTrip(t *testing.T) {
	for _, id := range []uint32{0, 1, 42, 1073741823} {
		code := RoomCode(id)
		require.Len(t, code, roomIDCodeLength)
		got, err := ParseRoomCode(code)
		require.NoError(t, err)
		require.Equal(t, id, got)
	}
}

func TestJoinRoomAcceptsRecordedInvite(t *testing.T) {
	rm := NewRoomManager()
	room, err := rm.CreateRoom(1, protocol.RoomSettings{})
	require.NoError(t, err)

	_, err = rm.JoinRoom(2, room.ID, room.Token+1)
	require.ErrorIs(t, err, ErrWrongToken, "no invite recorded yet")

	rm.RecordInvite(room.ID, 2)
	_, err = rm.JoinRoom(2, room.ID, room.Token+1)
	require.NoError(t, err, "invited join should bypass the token")

	rm.LeaveRoom(2)
	_, err = rm.JoinRoom(2, room.ID, room.Token+1)
	require.ErrorIs(t, err, ErrWrongToken, "invite should be consumed after one join")
}

func TestNonOwnerCannotUpdateSettings(t *testing.T) {
	rm := NewRoomManager()
	room, err := rm.CreateRoom(1, protocol.RoomSettings{})
	require.NoError(t, err)

	err = rm.UpdateSettings(2, room.ID, protocol.RoomSettings{Public: true})
	require.ErrorIs(t, err, ErrNotRoomOwner)

	require.NoError(t, rm.UpdateSettings(1, room.ID, protocol.RoomSettings{Public: true}))
}
