package gameserver

import (
	"go.uber.org/zap"

	"github.com/GlobedGD/globed2-sub001/internal/fanout"
	"github.com/GlobedGD/globed2-sub001/internal/protocol"
	"github.com/GlobedGD/globed2-sub001/internal/session"
)

// broadcastPlayerData fans p out to every other player on the sender's
// level as a LevelDataPacket holding the sender's AssociatedPlayerData
// entry alone; updates from different senders are not batched together.
// This is the hot path, running once per tick per connected player, so it
// goes out over UDP.
func (s *Server) broadcastPlayerData(sender *session.Session, p protocol.PlayerDataPacket) error {
	levelID := sender.CurrentLevel()
	peers := s.levels.PlayersOn(levelID, sender.AccountID)
	if len(peers) == 0 {
		return nil
	}

	entry := protocol.AssociatedPlayerData{AccountID: sender.AccountID, Data: p.Data}
	pkt := protocol.LevelDataPacket{Players: []protocol.AssociatedPlayerData{entry}}

	if p.Meta != nil {
		metaPkt := protocol.LevelPlayerMetadataPacket{AccountID: sender.AccountID, Meta: *p.Meta}
		s.fanOutUDP(peers, metaPkt)
	}

	s.fanOutUDP(peers, pkt)
	return nil
}

// broadcastVoice fans a voice frame out to every other player on the
// sender's level, tagging it with the sender's account id so clients know
// whose audio it is.
func (s *Server) broadcastVoice(sender *session.Session, p protocol.VoicePacket) error {
	peers := s.levels.PlayersOn(sender.CurrentLevel(), sender.AccountID)
	if len(peers) == 0 {
		return nil
	}
	out := protocol.VoiceBroadcastPacket{Sender: sender.AccountID, Data: p.Data}
	s.fanOutUDP(peers, out)
	return nil
}

// broadcastChatMessage fans a chat message out to the sender's current
// room (or the global room, if not in one), over TCP since chat is not
// loss-tolerant the way PlayerData/voice are.
func (s *Server) broadcastChatMessage(sender *session.Session, p protocol.ChatMessagePacket) error {
	roomID := sender.CurrentRoomID
	var members []int32
	if roomID == fanout.GlobalRoomID {
		s.mu.RLock()
		for accountID := range s.byAccount {
			members = append(members, accountID)
		}
		s.mu.RUnlock()
	} else {
		room, ok := s.rooms.Get(roomID)
		if !ok {
			return nil
		}
		members = room.Members()
	}
	out := protocol.ChatMessageBroadcastPacket{Sender: sender.AccountID, Message: p.Message}
	for _, accountID := range members {
		if accountID == sender.AccountID {
			continue
		}
		if target, ok := s.sessionByAccount(accountID); ok {
			if err := s.sendPacket(target, out); err != nil {
				s.logger.Debug("chat broadcast send failed", zap.Int32("account_id", accountID), zap.Error(err))
			}
		}
	}
	return nil
}

// fanOutUDP sends pkt to every account id in recipients over their linked
// UDP address, falling back to TCP per sendUDPPacket for any session that
// hasn't linked one yet. Missing/disconnected recipients are skipped
// silently — by the time this runs the sender has already moved on.
func (s *Server) fanOutUDP(recipients []int32, pkt protocol.Packet) {
	for _, accountID := range recipients {
		target, ok := s.sessionByAccount(accountID)
		if !ok {
			continue
		}
		if err := s.sendUDPPacket(target, pkt); err != nil {
			s.logger.Debug("udp fanout send failed", zap.Int32("account_id", accountID), zap.Error(err))
		}
	}
}
