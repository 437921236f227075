package protocol

// Packet ids are partitioned by direction and purpose:
//
//	10000-range  client -> server, connection/handshake
//	11000-range  client -> server, general
//	12000-range  client -> server, game/realtime
//	13000-range  client -> server, room
//	19000-range  client -> server, admin (requires an admin-authenticated session)
//	20000+       server -> client
const (
	PingPacketID                = 10000
	CryptoHandshakeStartID      = 10001
	LoginPacketID               = 10002

	SyncIconsPacketID           = 11000
	RequestGlobalPlayerListID   = 11001
	UpdatePlayerStatusID        = 11004

	RequestPlayerProfilesID     = 12000
	LevelJoinPacketID           = 12001
	LevelLeavePacketID          = 12002
	PlayerDataPacketID          = 12003
	VoicePacketID               = 12010
	ChatMessagePacketID         = 12011

	CreateRoomPacketID          = 13000
	JoinRoomPacketID            = 13001
	LeaveRoomPacketID           = 13002
	RequestRoomPlayerListID     = 13003
	UpdateRoomSettingsID        = 13004
	RoomSendInviteID            = 13005
	RequestRoomListID           = 13006

	AdminSendNoticeID           = 19000

	CryptoHandshakeResponseID   = 20000
	LoginFailedPacketID         = 20001
	LoginSuccessPacketID        = 20002
	ServerDisconnectPacketID    = 20003
	ServerNoticePacketID        = 20004
	PingResponsePacketID        = 20005

	PlayerListPacketID          = 21000
	RoomCreatedPacketID         = 21001
	RoomJoinedPacketID          = 21002
	RoomJoinFailedPacketID      = 21003

	PlayerProfilesPacketID      = 22000
	LevelDataPacketID           = 22001
	LevelPlayerMetadataID       = 22002
	VoiceBroadcastPacketID      = 22010
	ChatMessageBroadcastID      = 22011
)

// CURRENT_PROTOCOL / SUPPORTED_PROTOCOLS — the fixed, enumerated set of
// dialects this server understands. Anything outside this set (other than
// the 0xffff probe sentinel) is refused at the handshake.
const (
	CurrentProtocol     uint16 = 16
	MinClientVersion    uint16 = 13
	MaxSupportedVersion uint16 = CurrentProtocol
	ProbeProtocol       uint16 = 0xffff
)

// SupportedProtocols enumerates every dialect the version translator has a
// mapping for, plus the current one. Never grown implicitly — supporting a
// historical protocol means writing its translator.
var SupportedProtocols = map[uint16]bool{
	13:             true,
	14:             true,
	15:             true,
	CurrentProtocol: true,
}
