package protocol

import "github.com/GlobedGD/globed2-sub001/internal/codec"

// Direction records which side of the connection a packet id is legal on.
type Direction uint8

const (
	ClientToServer Direction = iota
	ServerToClient
)

// Metadata is the static per-packet-id row: whether the payload is expected
// to be encrypted on the wire, whether it prefers the TCP leg of the dual
// transport over UDP, and whether sending/receiving it requires an
// admin-authenticated session.
type Metadata struct {
	ID           uint16
	Name         string
	Direction    Direction
	Encrypted    bool
	TCPPreferred bool
	AdminOnly    bool
}

// DecodeFunc turns packet payload bytes into a Packet value.
type DecodeFunc func(d *codec.Decoder) (Packet, error)

// Registry is the id -> (metadata, decoder) table the dispatcher consults
// for every inbound frame. It's built once at init time and never mutated
// afterward, so lookups need no locking.
type Registry struct {
	meta   map[uint16]Metadata
	decode map[uint16]DecodeFunc
}

func NewRegistry() *Registry {
	return &Registry{
		meta:   make(map[uint16]Metadata),
		decode: make(map[uint16]DecodeFunc),
	}
}

// Register adds one packet id's metadata and decoder. Registering the same
// id twice is a programmer error and panics immediately rather than letting
// the second registration silently win.
func (r *Registry) Register(m Metadata, decode DecodeFunc) {
	if _, ok := r.meta[m.ID]; ok {
		panic("protocol: duplicate packet id registered: " + m.Name)
	}
	r.meta[m.ID] = m
	if decode != nil {
		r.decode[m.ID] = decode
	}
}

func (r *Registry) Lookup(id uint16) (Metadata, bool) {
	m, ok := r.meta[id]
	return m, ok
}

func (r *Registry) Decode(id uint16, d *codec.Decoder) (Packet, error) {
	fn, ok := r.decode[id]
	if !ok {
		return nil, ErrUnknownPacket
	}
	return fn(d)
}

// Default is the registry populated with every packet id this protocol
// version knows about. Built once at package init.
var Default = buildDefaultRegistry()

func buildDefaultRegistry() *Registry {
	r := NewRegistry()

	reg := func(id uint16, name string, dir Direction, encrypted, tcp, admin bool, decode DecodeFunc) {
		r.Register(Metadata{ID: id, Name: name, Direction: dir, Encrypted: encrypted, TCPPreferred: tcp, AdminOnly: admin}, decode)
	}

	reg(PingPacketID, "Ping", ClientToServer, false, false, false, func(d *codec.Decoder) (Packet, error) { return DecodePingPacket(d) })
	reg(CryptoHandshakeStartID, "CryptoHandshakeStart", ClientToServer, false, true, false, func(d *codec.Decoder) (Packet, error) { return DecodeCryptoHandshakeStartPacket(d) })
	reg(LoginPacketID, "Login", ClientToServer, true, true, false, func(d *codec.Decoder) (Packet, error) { return DecodeLoginPacket(d) })

	reg(SyncIconsPacketID, "SyncIcons", ClientToServer, true, true, false, func(d *codec.Decoder) (Packet, error) { return DecodeSyncIconsPacket(d) })
	reg(RequestGlobalPlayerListID, "RequestGlobalPlayerList", ClientToServer, true, true, false, func(d *codec.Decoder) (Packet, error) { return DecodeRequestGlobalPlayerListPacket(d) })
	reg(UpdatePlayerStatusID, "UpdatePlayerStatus", ClientToServer, true, false, false, func(d *codec.Decoder) (Packet, error) { return DecodeUpdatePlayerStatusPacket(d) })

	reg(RequestPlayerProfilesID, "RequestPlayerProfiles", ClientToServer, true, true, false, func(d *codec.Decoder) (Packet, error) { return DecodeRequestPlayerProfilesPacket(d) })
	reg(LevelJoinPacketID, "LevelJoin", ClientToServer, true, true, false, func(d *codec.Decoder) (Packet, error) { return DecodeLevelJoinPacket(d) })
	reg(LevelLeavePacketID, "LevelLeave", ClientToServer, true, true, false, func(d *codec.Decoder) (Packet, error) { return DecodeLevelLeavePacket(d) })
	reg(PlayerDataPacketID, "PlayerData", ClientToServer, true, false, false, func(d *codec.Decoder) (Packet, error) { return DecodePlayerDataPacket(d) })
	reg(VoicePacketID, "Voice", ClientToServer, true, false, false, func(d *codec.Decoder) (Packet, error) { return DecodeVoicePacket(d) })
	reg(ChatMessagePacketID, "ChatMessage", ClientToServer, true, true, false, func(d *codec.Decoder) (Packet, error) { return DecodeChatMessagePacket(d) })

	reg(CreateRoomPacketID, "CreateRoom", ClientToServer, true, true, false, func(d *codec.Decoder) (Packet, error) { return DecodeCreateRoomPacket(d) })
	reg(JoinRoomPacketID, "JoinRoom", ClientToServer, true, true, false, func(d *codec.Decoder) (Packet, error) { return DecodeJoinRoomPacket(d) })
	reg(LeaveRoomPacketID, "LeaveRoom", ClientToServer, true, true, false, func(d *codec.Decoder) (Packet, error) { return DecodeLeaveRoomPacket(d) })
	reg(RequestRoomPlayerListID, "RequestRoomPlayerList", ClientToServer, true, true, false, func(d *codec.Decoder) (Packet, error) { return DecodeRequestRoomPlayerListPacket(d) })
	reg(UpdateRoomSettingsID, "UpdateRoomSettings", ClientToServer, true, true, false, func(d *codec.Decoder) (Packet, error) { return DecodeUpdateRoomSettingsPacket(d) })
	reg(RoomSendInviteID, "RoomSendInvite", ClientToServer, true, true, false, func(d *codec.Decoder) (Packet, error) { return DecodeRoomSendInvitePacket(d) })
	reg(RequestRoomListID, "RequestRoomList", ClientToServer, true, true, false, func(d *codec.Decoder) (Packet, error) { return DecodeRequestRoomListPacket(d) })

	reg(AdminSendNoticeID, "AdminSendNotice", ClientToServer, true, true, true, func(d *codec.Decoder) (Packet, error) { return DecodeAdminSendNoticePacket(d) })

	reg(CryptoHandshakeResponseID, "CryptoHandshakeResponse", ServerToClient, false, true, false, nil)
	reg(LoginFailedPacketID, "LoginFailed", ServerToClient, false, true, false, nil)
	reg(LoginSuccessPacketID, "LoginSuccess", ServerToClient, true, true, false, nil)
	reg(ServerDisconnectPacketID, "ServerDisconnect", ServerToClient, false, true, false, nil)
	reg(ServerNoticePacketID, "ServerNotice", ServerToClient, true, true, false, nil)
	reg(PingResponsePacketID, "PingResponse", ServerToClient, false, false, false, nil)

	reg(PlayerListPacketID, "PlayerList", ServerToClient, true, true, false, nil)
	reg(RoomCreatedPacketID, "RoomCreated", ServerToClient, true, true, false, nil)
	reg(RoomJoinedPacketID, "RoomJoined", ServerToClient, true, true, false, nil)
	reg(RoomJoinFailedPacketID, "RoomJoinFailed", ServerToClient, true, true, false, nil)

	reg(PlayerProfilesPacketID, "PlayerProfiles", ServerToClient, true, true, false, nil)
	reg(LevelDataPacketID, "LevelData", ServerToClient, true, false, false, nil)
	reg(LevelPlayerMetadataID, "LevelPlayerMetadata", ServerToClient, true, false, false, nil)
	reg(VoiceBroadcastPacketID, "VoiceBroadcast", ServerToClient, true, false, false, nil)
	reg(ChatMessageBroadcastID, "ChatMessageBroadcast", ServerToClient, true, true, false, nil)

	return r
}
