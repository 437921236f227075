package protocol

import "github.com/GlobedGD/globed2-sub001/internal/codec"

// Packet is implemented by every wire packet type. Decode and Encode are
// both implemented for every type (even ones only ever sent in one
// direction) so the codec round-trip property in the test properties holds
// uniformly; the registry below is what actually restricts a type to the
// direction it's used in.
type Packet interface {
	PacketID() uint16
}

// Sized is implemented by packets whose encoded size can be computed
// exactly ahead of encoding, so the caller can preallocate the output
// buffer instead of letting it grow by reallocation.
type Sized interface {
	Size() int
}

/* ---- 10000-range: connection ---- */

type PingPacket struct {
	ID uint32
}

func (PingPacket) PacketID() uint16 { return PingPacketID }
func (p PingPacket) Size() int      { return 4 }
func (p PingPacket) Encode(e *codec.Encoder) { e.WriteU32(p.ID) }
func DecodePingPacket(d *codec.Decoder) (PingPacket, error) {
	id, err := d.ReadU32()
	return PingPacket{ID: id}, err
}

type CryptoHandshakeStartPacket struct {
	Data HandshakeData
}

func (CryptoHandshakeStartPacket) PacketID() uint16 { return CryptoHandshakeStartID }
func (p CryptoHandshakeStartPacket) Size() int      { return p.Data.Size() }
func (p CryptoHandshakeStartPacket) Encode(e *codec.Encoder) { p.Data.Encode(e) }
func DecodeCryptoHandshakeStartPacket(d *codec.Decoder) (CryptoHandshakeStartPacket, error) {
	data, err := DecodeHandshakeData(d)
	return CryptoHandshakeStartPacket{Data: data}, err
}

// LoginPacket authenticates the session: account identity, the central-issued
// token to verify, and an optional trust token. The server decodes the trust
// token but does not consult it; every login is verified with central.
type LoginPacket struct {
	AccountID   int32
	Username    string
	Token       string
	TrustToken  *string
}

func (LoginPacket) PacketID() uint16 { return LoginPacketID }

func (p LoginPacket) Size() int {
	n := 4 + 4 + len(p.Username) + 4 + len(p.Token) + 1
	if p.TrustToken != nil {
		n += 4 + len(*p.TrustToken)
	}
	return n
}

func (p LoginPacket) Encode(e *codec.Encoder) {
	e.WriteI32(p.AccountID)
	e.WriteFastString(p.Username)
	e.WriteFastString(p.Token)
	codec.EncodeOption(e, p.TrustToken, func(e *codec.Encoder, s string) { e.WriteFastString(s) })
}

func DecodeLoginPacket(d *codec.Decoder) (LoginPacket, error) {
	var p LoginPacket
	var err error
	if p.AccountID, err = d.ReadI32(); err != nil {
		return p, err
	}
	if p.Username, err = d.ReadFastString(64); err != nil {
		return p, err
	}
	if p.Token, err = d.ReadFastString(256); err != nil {
		return p, err
	}
	p.TrustToken, err = codec.DecodeOption(d, func(d *codec.Decoder) (string, error) { return d.ReadFastString(256) })
	return p, err
}

/* ---- 11000-range: general ---- */

// SyncIconsPacket is the client's icon/cosmetics sync request. It carries
// nothing; this server keeps no icon cache and its dispatcher ignores the
// packet.
type SyncIconsPacket struct{}

func (SyncIconsPacket) PacketID() uint16                     { return SyncIconsPacketID }
func (SyncIconsPacket) Size() int                            { return 0 }
func (SyncIconsPacket) Encode(e *codec.Encoder)               {}
func DecodeSyncIconsPacket(d *codec.Decoder) (SyncIconsPacket, error) {
	return SyncIconsPacket{}, nil
}

type RequestGlobalPlayerListPacket struct{}

func (RequestGlobalPlayerListPacket) PacketID() uint16 { return RequestGlobalPlayerListID }
func (RequestGlobalPlayerListPacket) Size() int        { return 0 }
func (RequestGlobalPlayerListPacket) Encode(e *codec.Encoder) {}
func DecodeRequestGlobalPlayerListPacket(d *codec.Decoder) (RequestGlobalPlayerListPacket, error) {
	return RequestGlobalPlayerListPacket{}, nil
}

type UpdatePlayerStatusPacket struct {
	Flags uint8
}

func (UpdatePlayerStatusPacket) PacketID() uint16 { return UpdatePlayerStatusID }
func (p UpdatePlayerStatusPacket) Size() int      { return 1 }
func (p UpdatePlayerStatusPacket) Encode(e *codec.Encoder) { e.WriteU8(p.Flags) }
func DecodeUpdatePlayerStatusPacket(d *codec.Decoder) (UpdatePlayerStatusPacket, error) {
	f, err := d.ReadU8()
	return UpdatePlayerStatusPacket{Flags: f}, err
}

/* ---- 12000-range: game/realtime ---- */

type RequestPlayerProfilesPacket struct {
	Requested int32 // 0 = everyone on the level
}

func (RequestPlayerProfilesPacket) PacketID() uint16 { return RequestPlayerProfilesID }
func (p RequestPlayerProfilesPacket) Size() int      { return 4 }
func (p RequestPlayerProfilesPacket) Encode(e *codec.Encoder) { e.WriteI32(p.Requested) }
func DecodeRequestPlayerProfilesPacket(d *codec.Decoder) (RequestPlayerProfilesPacket, error) {
	v, err := d.ReadI32()
	return RequestPlayerProfilesPacket{Requested: v}, err
}

// LevelJoinPacket. LevelHash is nil for legacy (v13) clients, which never
// sent one — the version translator fills the zero value in on up-conversion.
type LevelJoinPacket struct {
	LevelID    LevelId
	Unlisted   bool
	LevelHash  *[32]byte
}

func (LevelJoinPacket) PacketID() uint16 { return LevelJoinPacketID }

func (p LevelJoinPacket) Size() int {
	n := 8 + 1 + 1
	if p.LevelHash != nil {
		n += 32
	}
	return n
}

func (p LevelJoinPacket) Encode(e *codec.Encoder) {
	e.WriteI64(int64(p.LevelID))
	e.WriteBool(p.Unlisted)
	codec.EncodeOption(e, p.LevelHash, func(e *codec.Encoder, h [32]byte) { e.WriteByteArray(h[:]) })
}

func DecodeLevelJoinPacket(d *codec.Decoder) (LevelJoinPacket, error) {
	var p LevelJoinPacket
	id, err := d.ReadI64()
	if err != nil {
		return p, err
	}
	p.LevelID = LevelId(id)
	if p.Unlisted, err = d.ReadBool(); err != nil {
		return p, err
	}
	p.LevelHash, err = codec.DecodeOption(d, func(d *codec.Decoder) ([32]byte, error) {
		var h [32]byte
		b, err := d.ReadByteArray(32)
		if err != nil {
			return h, err
		}
		copy(h[:], b)
		return h, nil
	})
	return p, err
}

type LevelLeavePacket struct{}

func (LevelLeavePacket) PacketID() uint16            { return LevelLeavePacketID }
func (LevelLeavePacket) Size() int                   { return 0 }
func (LevelLeavePacket) Encode(e *codec.Encoder)      {}
func DecodeLevelLeavePacket(d *codec.Decoder) (LevelLeavePacket, error) {
	return LevelLeavePacket{}, nil
}

type PlayerDataPacket struct {
	Data PlayerData
	Meta *PlayerMetadata
}

func (PlayerDataPacket) PacketID() uint16 { return PlayerDataPacketID }

func (p PlayerDataPacket) Size() int {
	n := p.Data.Size() + 1
	if p.Meta != nil {
		n += p.Meta.Size()
	}
	return n
}

func (p PlayerDataPacket) Encode(e *codec.Encoder) {
	p.Data.Encode(e)
	codec.EncodeOption(e, p.Meta, func(e *codec.Encoder, m PlayerMetadata) { m.Encode(e) })
}

func DecodePlayerDataPacket(d *codec.Decoder) (PlayerDataPacket, error) {
	var p PlayerDataPacket
	data, err := DecodePlayerData(d)
	if err != nil {
		return p, err
	}
	p.Data = data
	p.Meta, err = codec.DecodeOption(d, DecodePlayerMetadata)
	return p, err
}

type VoicePacket struct {
	Data FastEncodedAudioFrame
}

func (VoicePacket) PacketID() uint16 { return VoicePacketID }
func (p VoicePacket) Size() int      { return p.Data.Size() }
func (p VoicePacket) Encode(e *codec.Encoder) { p.Data.Encode(e) }
func DecodeVoicePacket(d *codec.Decoder) (VoicePacket, error) {
	f, err := DecodeFastEncodedAudioFrame(d)
	return VoicePacket{Data: f}, err
}

type ChatMessagePacket struct {
	Message string
}

func (ChatMessagePacket) PacketID() uint16 { return ChatMessagePacketID }
func (p ChatMessagePacket) Size() int      { return MaxMessageSize }
func (p ChatMessagePacket) Encode(e *codec.Encoder) { e.WriteInlineString(p.Message, MaxMessageSize) }
func DecodeChatMessagePacket(d *codec.Decoder) (ChatMessagePacket, error) {
	m, err := d.ReadInlineString(MaxMessageSize)
	return ChatMessagePacket{Message: m}, err
}

/* ---- 13000-range: room ---- */

type CreateRoomPacket struct{}

func (CreateRoomPacket) PacketID() uint16                         { return CreateRoomPacketID }
func (CreateRoomPacket) Size() int                                { return 0 }
func (CreateRoomPacket) Encode(e *codec.Encoder)                  {}
func DecodeCreateRoomPacket(d *codec.Decoder) (CreateRoomPacket, error) { return CreateRoomPacket{}, nil }

type JoinRoomPacket struct {
	RoomID    uint32
	RoomToken uint32
}

func (JoinRoomPacket) PacketID() uint16 { return JoinRoomPacketID }
func (p JoinRoomPacket) Size() int      { return 8 }
func (p JoinRoomPacket) Encode(e *codec.Encoder) {
	e.WriteU32(p.RoomID)
	e.WriteU32(p.RoomToken)
}
func DecodeJoinRoomPacket(d *codec.Decoder) (JoinRoomPacket, error) {
	var p JoinRoomPacket
	var err error
	if p.RoomID, err = d.ReadU32(); err != nil {
		return p, err
	}
	p.RoomToken, err = d.ReadU32()
	return p, err
}

type LeaveRoomPacket struct{}

func (LeaveRoomPacket) PacketID() uint16                        { return LeaveRoomPacketID }
func (LeaveRoomPacket) Size() int                               { return 0 }
func (LeaveRoomPacket) Encode(e *codec.Encoder)                 {}
func DecodeLeaveRoomPacket(d *codec.Decoder) (LeaveRoomPacket, error) { return LeaveRoomPacket{}, nil }

type RequestRoomPlayerListPacket struct{}

func (RequestRoomPlayerListPacket) PacketID() uint16 { return RequestRoomPlayerListID }
func (RequestRoomPlayerListPacket) Size() int        { return 0 }
func (RequestRoomPlayerListPacket) Encode(e *codec.Encoder) {}
func DecodeRequestRoomPlayerListPacket(d *codec.Decoder) (RequestRoomPlayerListPacket, error) {
	return RequestRoomPlayerListPacket{}, nil
}

type UpdateRoomSettingsPacket struct {
	Settings RoomSettings
}

func (UpdateRoomSettingsPacket) PacketID() uint16 { return UpdateRoomSettingsID }
func (p UpdateRoomSettingsPacket) Size() int      { return p.Settings.Size() }
func (p UpdateRoomSettingsPacket) Encode(e *codec.Encoder) { p.Settings.Encode(e) }
func DecodeUpdateRoomSettingsPacket(d *codec.Decoder) (UpdateRoomSettingsPacket, error) {
	s, err := DecodeRoomSettings(d)
	return UpdateRoomSettingsPacket{Settings: s}, err
}

type RoomSendInvitePacket struct {
	Player int32
}

func (RoomSendInvitePacket) PacketID() uint16 { return RoomSendInviteID }
func (p RoomSendInvitePacket) Size() int      { return 4 }
func (p RoomSendInvitePacket) Encode(e *codec.Encoder) { e.WriteI32(p.Player) }
func DecodeRoomSendInvitePacket(d *codec.Decoder) (RoomSendInvitePacket, error) {
	v, err := d.ReadI32()
	return RoomSendInvitePacket{Player: v}, err
}

type RequestRoomListPacket struct{}

func (RequestRoomListPacket) PacketID() uint16 { return RequestRoomListID }
func (RequestRoomListPacket) Size() int        { return 0 }
func (RequestRoomListPacket) Encode(e *codec.Encoder) {}
func DecodeRequestRoomListPacket(d *codec.Decoder) (RequestRoomListPacket, error) {
	return RequestRoomListPacket{}, nil
}

/* ---- 19000-range: admin ---- */

type AdminSendNoticePacket struct {
	RoomID  uint32
	LevelID LevelId
	Message string
}

func (AdminSendNoticePacket) PacketID() uint16 { return AdminSendNoticeID }
func (p AdminSendNoticePacket) Size() int      { return 4 + 8 + 4 + len(p.Message) }
func (p AdminSendNoticePacket) Encode(e *codec.Encoder) {
	e.WriteU32(p.RoomID)
	e.WriteI64(int64(p.LevelID))
	e.WriteFastString(p.Message)
}
func DecodeAdminSendNoticePacket(d *codec.Decoder) (AdminSendNoticePacket, error) {
	var p AdminSendNoticePacket
	var err error
	if p.RoomID, err = d.ReadU32(); err != nil {
		return p, err
	}
	id, err := d.ReadI64()
	if err != nil {
		return p, err
	}
	p.LevelID = LevelId(id)
	p.Message, err = d.ReadFastString(MaxNoticeSize)
	return p, err
}
