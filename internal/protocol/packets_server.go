package protocol

import "github.com/GlobedGD/globed2-sub001/internal/codec"

/* ---- 20000-range: connection/session replies ---- */

// CryptoHandshakeResponsePacket carries the server's X25519 public key back
// to the client; both sides then derive the directional session keys
// independently.
type CryptoHandshakeResponsePacket struct {
	Data HandshakeData
}

func (CryptoHandshakeResponsePacket) PacketID() uint16 { return CryptoHandshakeResponseID }
func (p CryptoHandshakeResponsePacket) Size() int      { return p.Data.Size() }
func (p CryptoHandshakeResponsePacket) Encode(e *codec.Encoder) { p.Data.Encode(e) }
func DecodeCryptoHandshakeResponsePacket(d *codec.Decoder) (CryptoHandshakeResponsePacket, error) {
	data, err := DecodeHandshakeData(d)
	return CryptoHandshakeResponsePacket{Data: data}, err
}

type LoginFailedPacket struct {
	Reason string
}

func (LoginFailedPacket) PacketID() uint16 { return LoginFailedPacketID }
func (p LoginFailedPacket) Size() int      { return 4 + len(p.Reason) }
func (p LoginFailedPacket) Encode(e *codec.Encoder) { e.WriteFastString(p.Reason) }
func DecodeLoginFailedPacket(d *codec.Decoder) (LoginFailedPacket, error) {
	s, err := d.ReadFastString(256)
	return LoginFailedPacket{Reason: s}, err
}

type LoginSuccessPacket struct {
	AccountID int32
	Admin     bool
}

func (LoginSuccessPacket) PacketID() uint16 { return LoginSuccessPacketID }
func (p LoginSuccessPacket) Size() int      { return 4 + 1 }
func (p LoginSuccessPacket) Encode(e *codec.Encoder) {
	e.WriteI32(p.AccountID)
	e.WriteBool(p.Admin)
}
func DecodeLoginSuccessPacket(d *codec.Decoder) (LoginSuccessPacket, error) {
	var p LoginSuccessPacket
	var err error
	if p.AccountID, err = d.ReadI32(); err != nil {
		return p, err
	}
	p.Admin, err = d.ReadBool()
	return p, err
}

// ServerDisconnectPacket is sent immediately before the server closes a
// session's connection, giving the client a human-readable reason.
type ServerDisconnectPacket struct {
	Reason string
}

func (ServerDisconnectPacket) PacketID() uint16 { return ServerDisconnectPacketID }
func (p ServerDisconnectPacket) Size() int      { return 4 + len(p.Reason) }
func (p ServerDisconnectPacket) Encode(e *codec.Encoder) { e.WriteFastString(p.Reason) }
func DecodeServerDisconnectPacket(d *codec.Decoder) (ServerDisconnectPacket, error) {
	s, err := d.ReadFastString(512)
	return ServerDisconnectPacket{Reason: s}, err
}

// ServerNoticePacket is an unsolicited server/admin broadcast to one or more
// sessions, e.g. a moderation message.
type ServerNoticePacket struct {
	Message string
}

func (ServerNoticePacket) PacketID() uint16 { return ServerNoticePacketID }
func (p ServerNoticePacket) Size() int      { return 4 + len(p.Message) }
func (p ServerNoticePacket) Encode(e *codec.Encoder) { e.WriteFastString(p.Message) }
func DecodeServerNoticePacket(d *codec.Decoder) (ServerNoticePacket, error) {
	s, err := d.ReadFastString(MaxNoticeSize)
	return ServerNoticePacket{Message: s}, err
}

type PingResponsePacket struct {
	ID          uint32
	PlayerCount uint32
}

func (PingResponsePacket) PacketID() uint16 { return PingResponsePacketID }
func (p PingResponsePacket) Size() int      { return 4 + 4 }
func (p PingResponsePacket) Encode(e *codec.Encoder) {
	e.WriteU32(p.ID)
	e.WriteU32(p.PlayerCount)
}
func DecodePingResponsePacket(d *codec.Decoder) (PingResponsePacket, error) {
	var p PingResponsePacket
	var err error
	if p.ID, err = d.ReadU32(); err != nil {
		return p, err
	}
	p.PlayerCount, err = d.ReadU32()
	return p, err
}

/* ---- 21000-range: room/global roster ---- */

type PlayerListPacket struct {
	Players []int32
}

func (PlayerListPacket) PacketID() uint16 { return PlayerListPacketID }
func (p PlayerListPacket) Size() int      { return 4 + 4*len(p.Players) }
func (p PlayerListPacket) Encode(e *codec.Encoder) {
	codec.EncodeVec(e, p.Players, func(e *codec.Encoder, v int32) { e.WriteI32(v) })
}
func DecodePlayerListPacket(d *codec.Decoder) (PlayerListPacket, error) {
	items, err := codec.DecodeVec(d, func(d *codec.Decoder) (int32, error) { return d.ReadI32() })
	return PlayerListPacket{Players: items}, err
}

type RoomCreatedPacket struct {
	RoomID    uint32
	RoomToken uint32
}

func (RoomCreatedPacket) PacketID() uint16 { return RoomCreatedPacketID }
func (p RoomCreatedPacket) Size() int      { return 8 }
func (p RoomCreatedPacket) Encode(e *codec.Encoder) {
	e.WriteU32(p.RoomID)
	e.WriteU32(p.RoomToken)
}
func DecodeRoomCreatedPacket(d *codec.Decoder) (RoomCreatedPacket, error) {
	var p RoomCreatedPacket
	var err error
	if p.RoomID, err = d.ReadU32(); err != nil {
		return p, err
	}
	p.RoomToken, err = d.ReadU32()
	return p, err
}

type RoomJoinedPacket struct {
	RoomID   uint32
	Settings RoomSettings
}

func (RoomJoinedPacket) PacketID() uint16 { return RoomJoinedPacketID }
func (p RoomJoinedPacket) Size() int      { return 4 + p.Settings.Size() }
func (p RoomJoinedPacket) Encode(e *codec.Encoder) {
	e.WriteU32(p.RoomID)
	p.Settings.Encode(e)
}
func DecodeRoomJoinedPacket(d *codec.Decoder) (RoomJoinedPacket, error) {
	var p RoomJoinedPacket
	var err error
	if p.RoomID, err = d.ReadU32(); err != nil {
		return p, err
	}
	p.Settings, err = DecodeRoomSettings(d)
	return p, err
}

type RoomJoinFailedPacket struct {
	Reason string
}

func (RoomJoinFailedPacket) PacketID() uint16 { return RoomJoinFailedPacketID }
func (p RoomJoinFailedPacket) Size() int      { return 4 + len(p.Reason) }
func (p RoomJoinFailedPacket) Encode(e *codec.Encoder) { e.WriteFastString(p.Reason) }
func DecodeRoomJoinFailedPacket(d *codec.Decoder) (RoomJoinFailedPacket, error) {
	s, err := d.ReadFastString(256)
	return RoomJoinFailedPacket{Reason: s}, err
}

/* ---- 22000-range: level/realtime broadcasts ---- */

type PlayerProfilesPacket struct {
	Profiles []int32 // account ids the caller should fetch full profiles for
}

func (PlayerProfilesPacket) PacketID() uint16 { return PlayerProfilesPacketID }
func (p PlayerProfilesPacket) Size() int      { return 4 + 4*len(p.Profiles) }
func (p PlayerProfilesPacket) Encode(e *codec.Encoder) {
	codec.EncodeVec(e, p.Profiles, func(e *codec.Encoder, v int32) { e.WriteI32(v) })
}
func DecodePlayerProfilesPacket(d *codec.Decoder) (PlayerProfilesPacket, error) {
	items, err := codec.DecodeVec(d, func(d *codec.Decoder) (int32, error) { return d.ReadI32() })
	return PlayerProfilesPacket{Profiles: items}, err
}

// LevelDataPacket is the realtime position broadcast for a level: a list of
// AssociatedPlayerData entries, each tagged with the player it describes.
type LevelDataPacket struct {
	Players []AssociatedPlayerData
}

func (LevelDataPacket) PacketID() uint16 { return LevelDataPacketID }
func (p LevelDataPacket) Size() int {
	n := 4
	for _, pl := range p.Players {
		n += pl.Size()
	}
	return n
}
func (p LevelDataPacket) Encode(e *codec.Encoder) {
	codec.EncodeVec(e, p.Players, func(e *codec.Encoder, v AssociatedPlayerData) { v.Encode(e) })
}
func DecodeLevelDataPacket(d *codec.Decoder) (LevelDataPacket, error) {
	items, err := codec.DecodeVec(d, DecodeAssociatedPlayerData)
	return LevelDataPacket{Players: items}, err
}

type LevelPlayerMetadataPacket struct {
	AccountID int32
	Meta      PlayerMetadata
}

func (LevelPlayerMetadataPacket) PacketID() uint16 { return LevelPlayerMetadataID }
func (p LevelPlayerMetadataPacket) Size() int      { return 4 + p.Meta.Size() }
func (p LevelPlayerMetadataPacket) Encode(e *codec.Encoder) {
	e.WriteI32(p.AccountID)
	p.Meta.Encode(e)
}
func DecodeLevelPlayerMetadataPacket(d *codec.Decoder) (LevelPlayerMetadataPacket, error) {
	var p LevelPlayerMetadataPacket
	var err error
	if p.AccountID, err = d.ReadI32(); err != nil {
		return p, err
	}
	p.Meta, err = DecodePlayerMetadata(d)
	return p, err
}

type VoiceBroadcastPacket struct {
	Sender int32
	Data   FastEncodedAudioFrame
}

func (VoiceBroadcastPacket) PacketID() uint16 { return VoiceBroadcastPacketID }
func (p VoiceBroadcastPacket) Size() int      { return 4 + p.Data.Size() }
func (p VoiceBroadcastPacket) Encode(e *codec.Encoder) {
	e.WriteI32(p.Sender)
	p.Data.Encode(e)
}
func DecodeVoiceBroadcastPacket(d *codec.Decoder) (VoiceBroadcastPacket, error) {
	var p VoiceBroadcastPacket
	var err error
	if p.Sender, err = d.ReadI32(); err != nil {
		return p, err
	}
	p.Data, err = DecodeFastEncodedAudioFrame(d)
	return p, err
}

type ChatMessageBroadcastPacket struct {
	Sender  int32
	Message string
}

func (ChatMessageBroadcastPacket) PacketID() uint16 { return ChatMessageBroadcastID }
func (p ChatMessageBroadcastPacket) Size() int      { return 4 + MaxMessageSize }
func (p ChatMessageBroadcastPacket) Encode(e *codec.Encoder) {
	e.WriteI32(p.Sender)
	e.WriteInlineString(p.Message, MaxMessageSize)
}
func DecodeChatMessageBroadcastPacket(d *codec.Decoder) (ChatMessageBroadcastPacket, error) {
	var p ChatMessageBroadcastPacket
	var err error
	if p.Sender, err = d.ReadI32(); err != nil {
		return p, err
	}
	p.Message, err = d.ReadInlineString(MaxMessageSize)
	return p, err
}
