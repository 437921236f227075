package gameserver

import (
	"context"
	"fmt"

	"github.com/GlobedGD/globed2-sub001/internal/central"
	"github.com/GlobedGD/globed2-sub001/internal/fanout"
	"github.com/GlobedGD/globed2-sub001/internal/protocol"
	"github.com/GlobedGD/globed2-sub001/internal/session"
)

// dispatch routes one decoded packet to its handler. Packets that arrive
// before Login (besides the handshake, handled separately in tcp.go) are
// rejected, since every handler below assumes an authenticated session.
func (s *Server) dispatch(sess *session.Session, pkt protocol.Packet) error {
	if _, ok := pkt.(protocol.LoginPacket); !ok && sess.State() < session.Authenticated {
		return ErrNotAuthenticated
	}

	switch p := pkt.(type) {
	case protocol.PingPacket:
		return s.handlePing(sess, p)
	case protocol.LoginPacket:
		return s.handleLogin(sess, p)

	case protocol.SyncIconsPacket:
		return nil // icon metadata is served out of the auth/profile path, not tracked here
	case protocol.RequestGlobalPlayerListPacket:
		return s.handleRequestGlobalPlayerList(sess)
	case protocol.UpdatePlayerStatusPacket:
		return nil // status flags are neither stored nor broadcast by this server

	case protocol.RequestPlayerProfilesPacket:
		return s.handleRequestPlayerProfiles(sess, p)
	case protocol.LevelJoinPacket:
		return s.handleLevelJoin(sess, p)
	case protocol.LevelLeavePacket:
		return s.handleLevelLeave(sess)
	case protocol.PlayerDataPacket:
		return s.handlePlayerData(sess, p)
	case protocol.VoicePacket:
		return s.handleVoice(sess, p)
	case protocol.ChatMessagePacket:
		return s.handleChatMessage(sess, p)

	case protocol.CreateRoomPacket:
		return s.handleCreateRoom(sess)
	case protocol.JoinRoomPacket:
		return s.handleJoinRoom(sess, p)
	case protocol.LeaveRoomPacket:
		return s.handleLeaveRoom(sess)
	case protocol.RequestRoomPlayerListPacket:
		return s.handleRequestRoomPlayerList(sess)
	case protocol.UpdateRoomSettingsPacket:
		return s.handleUpdateRoomSettings(sess, p)
	case protocol.RoomSendInvitePacket:
		return s.handleRoomSendInvite(sess, p)
	case protocol.RequestRoomListPacket:
		return s.handleRequestRoomList(sess)

	case protocol.AdminSendNoticePacket:
		return s.handleAdminSendNotice(sess, p)

	default:
		return fmt.Errorf("gameserver: no handler for packet type %T", pkt)
	}
}

func (s *Server) handlePing(sess *session.Session, p protocol.PingPacket) error {
	s.mu.RLock()
	count := uint32(len(s.byAccount))
	s.mu.RUnlock()
	return s.sendPacket(sess, protocol.PingResponsePacket{ID: p.ID, PlayerCount: count})
}

func (s *Server) handleLogin(sess *session.Session, p protocol.LoginPacket) error {
	resp, err := s.central.VerifyToken(context.Background(), p.AccountID, p.Token)
	if err != nil {
		_ = s.sendPacket(sess, protocol.LoginFailedPacket{Reason: "token rejected"})
		if err == central.ErrTokenInvalid {
			return nil
		}
		return err
	}

	username := resp.Username
	if username == "" {
		username = p.Username
	}
	roleBits, noChat := s.applyBootState(p.AccountID, resp.RoleBits, resp.NoChat)

	if err := sess.MarkAuthenticated(p.AccountID, username, resp.Admin, roleBits, noChat); err != nil {
		return err
	}
	s.registerAuthenticated(sess)

	return s.sendPacket(sess, protocol.LoginSuccessPacket{AccountID: p.AccountID, Admin: resp.Admin})
}

func (s *Server) handleRequestGlobalPlayerList(sess *session.Session) error {
	s.mu.RLock()
	ids := make([]int32, 0, len(s.byAccount))
	for id := range s.byAccount {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	return s.sendPacket(sess, protocol.PlayerListPacket{Players: ids})
}

func (s *Server) handleRequestPlayerProfiles(sess *session.Session, p protocol.RequestPlayerProfilesPacket) error {
	var ids []int32
	if p.Requested == 0 {
		ids = s.levels.PlayersOn(sess.CurrentLevel(), sess.AccountID)
	} else {
		ids = []int32{p.Requested}
	}
	return s.sendPacket(sess, protocol.PlayerProfilesPacket{Profiles: ids})
}

func (s *Server) handleLevelJoin(sess *session.Session, p protocol.LevelJoinPacket) error {
	s.levels.Join(sess.AccountID, p.LevelID)
	return sess.MarkInLevel(p.LevelID)
}

func (s *Server) handleLevelLeave(sess *session.Session) error {
	s.levels.Leave(sess.AccountID)
	return sess.MarkLeftLevel()
}

func (s *Server) handlePlayerData(sess *session.Session, p protocol.PlayerDataPacket) error {
	return s.broadcastPlayerData(sess, p)
}

func (s *Server) handleVoice(sess *session.Session, p protocol.VoicePacket) error {
	return s.broadcastVoice(sess, p)
}

func (s *Server) handleChatMessage(sess *session.Session, p protocol.ChatMessagePacket) error {
	if sess.NoChat {
		return nil
	}
	return s.broadcastChatMessage(sess, p)
}

func (s *Server) handleCreateRoom(sess *session.Session) error {
	if !s.roomCreateLimiterFor(sess.AccountID).Allow() {
		return s.sendPacket(sess, protocol.RoomJoinFailedPacket{Reason: "creating rooms too quickly"})
	}

	room, err := s.rooms.CreateRoom(sess.AccountID, protocol.RoomSettings{})
	if err != nil {
		return err
	}
	if err := sess.MarkInRoom(room.ID); err != nil {
		return err
	}
	return s.sendPacket(sess, protocol.RoomCreatedPacket{RoomID: room.ID, RoomToken: room.Token})
}

func (s *Server) handleJoinRoom(sess *session.Session, p protocol.JoinRoomPacket) error {
	room, err := s.rooms.JoinRoom(sess.AccountID, p.RoomID, p.RoomToken)
	if err != nil {
		return s.sendPacket(sess, protocol.RoomJoinFailedPacket{Reason: err.Error()})
	}
	if err := sess.MarkInRoom(room.ID); err != nil {
		return err
	}
	return s.sendPacket(sess, protocol.RoomJoinedPacket{RoomID: room.ID, Settings: room.Settings})
}

func (s *Server) handleLeaveRoom(sess *session.Session) error {
	s.rooms.LeaveRoom(sess.AccountID)
	return sess.MarkLeftRoom()
}

func (s *Server) handleRequestRoomPlayerList(sess *session.Session) error {
	room, ok := s.rooms.Get(sess.CurrentRoomID)
	if !ok {
		return fanout.ErrRoomNotFound
	}
	return s.sendPacket(sess, protocol.PlayerListPacket{Players: room.Members()})
}

func (s *Server) handleUpdateRoomSettings(sess *session.Session, p protocol.UpdateRoomSettingsPacket) error {
	return s.rooms.UpdateSettings(sess.AccountID, sess.CurrentRoomID, p.Settings)
}

func (s *Server) handleRoomSendInvite(sess *session.Session, p protocol.RoomSendInvitePacket) error {
	target, ok := s.sessionByAccount(p.Player)
	if !ok {
		return nil
	}
	room, ok := s.rooms.Get(sess.CurrentRoomID)
	if !ok {
		return fanout.ErrRoomNotFound
	}
	s.rooms.RecordInvite(room.ID, target.AccountID)
	return s.sendPacket(target, protocol.ServerNoticePacket{
		Message: fmt.Sprintf("You've been invited to room %s", fanout.RoomCode(room.ID)),
	})
}

func (s *Server) handleRequestRoomList(sess *session.Session) error {
	ids := s.rooms.List()
	players := make([]int32, 0, len(ids))
	for _, id := range ids {
		players = append(players, int32(id))
	}
	return s.sendPacket(sess, protocol.PlayerListPacket{Players: players})
}

func (s *Server) handleAdminSendNotice(sess *session.Session, p protocol.AdminSendNoticePacket) error {
	if p.RoomID != fanout.GlobalRoomID {
		room, ok := s.rooms.Get(p.RoomID)
		if !ok {
			return fanout.ErrRoomNotFound
		}
		for _, accountID := range room.Members() {
			if target, ok := s.sessionByAccount(accountID); ok {
				_ = s.sendPacket(target, protocol.ServerNoticePacket{Message: p.Message})
			}
		}
		return nil
	}

	s.mu.RLock()
	targets := make([]*session.Session, 0, len(s.byAccount))
	for _, sess := range s.byAccount {
		targets = append(targets, sess)
	}
	s.mu.RUnlock()

	for _, target := range targets {
		_ = s.sendPacket(target, protocol.ServerNoticePacket{Message: p.Message})
	}
	return nil
}
