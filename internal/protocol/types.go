package protocol

import "github.com/GlobedGD/globed2-sub001/internal/codec"

// LevelId is 64-bit: ids above 1<<32 are editor-collab levels. §9 of the
// spec is explicit that no divergent routing behavior for these is defined
// by the visible source, so beyond the type and the predicate below, none is
// invented here.
type LevelId int64

const editorCollabThreshold LevelId = 1 << 32

func (l LevelId) IsEditorCollab() bool { return l > editorCollabThreshold }

// Wire-level limits from §6.
const (
	MaxNoticeSize    = 280
	MaxMessageSize   = 156
	RoomIDLength     = 6
	SmallPacketLimit = 96
	MaxAudioFrames   = 10
)

// HandshakeData carries the client's X25519 public key in CryptoHandshakeStart.
type HandshakeData struct {
	PublicKey [32]byte
}

func (h HandshakeData) Size() int { return 32 }

func (h HandshakeData) Encode(e *codec.Encoder) { e.WriteByteArray(h.PublicKey[:]) }

func DecodeHandshakeData(d *codec.Decoder) (HandshakeData, error) {
	b, err := d.ReadByteArray(32)
	if err != nil {
		return HandshakeData{}, err
	}
	var h HandshakeData
	copy(h.PublicKey[:], b)
	return h, nil
}

// RoomSettings is two flag bits plus 64 reserved bits for future expansion.
type RoomSettings struct {
	Public     bool
	InviteOnly bool
	Reserved   uint64
}

func (s RoomSettings) Size() int { return 1 + 8 }

func (s RoomSettings) Encode(e *codec.Encoder) {
	codec.EncodeBits(e, 2, []bool{s.Public, s.InviteOnly})
	e.WriteU64(s.Reserved)
}

func DecodeRoomSettings(d *codec.Decoder) (RoomSettings, error) {
	bits, err := codec.DecodeBits(d, 2)
	if err != nil {
		return RoomSettings{}, err
	}
	reserved, err := d.ReadU64()
	if err != nil {
		return RoomSettings{}, err
	}
	return RoomSettings{Public: bits[0], InviteOnly: bits[1], Reserved: reserved}, nil
}

// PlayerData is the realtime position/motion payload carried by
// PlayerDataPacket and fanned out to every other player on the same level.
type PlayerData struct {
	X, Y     float32
	XVel     float32
	YVel     float32
	Rotation float32
	Flags    uint8
}

func (p PlayerData) Size() int { return 5*4 + 1 }

func (p PlayerData) Encode(e *codec.Encoder) {
	e.WriteF32(p.X)
	e.WriteF32(p.Y)
	e.WriteF32(p.XVel)
	e.WriteF32(p.YVel)
	e.WriteF32(p.Rotation)
	e.WriteU8(p.Flags)
}

func DecodePlayerData(d *codec.Decoder) (PlayerData, error) {
	var p PlayerData
	var err error
	if p.X, err = d.ReadF32(); err != nil {
		return p, err
	}
	if p.Y, err = d.ReadF32(); err != nil {
		return p, err
	}
	if p.XVel, err = d.ReadF32(); err != nil {
		return p, err
	}
	if p.YVel, err = d.ReadF32(); err != nil {
		return p, err
	}
	if p.Rotation, err = d.ReadF32(); err != nil {
		return p, err
	}
	if p.Flags, err = d.ReadU8(); err != nil {
		return p, err
	}
	return p, nil
}

// PlayerMetadata is sent sparsely: a level-completion percentage and attempt
// count, attached only when it changes.
type PlayerMetadata struct {
	Percentage float32
	Attempts   int32
}

func (m PlayerMetadata) Size() int { return 4 + 4 }

func (m PlayerMetadata) Encode(e *codec.Encoder) {
	e.WriteF32(m.Percentage)
	e.WriteI32(m.Attempts)
}

func DecodePlayerMetadata(d *codec.Decoder) (PlayerMetadata, error) {
	pct, err := d.ReadF32()
	if err != nil {
		return PlayerMetadata{}, err
	}
	att, err := d.ReadI32()
	if err != nil {
		return PlayerMetadata{}, err
	}
	return PlayerMetadata{Percentage: pct, Attempts: att}, nil
}

// AssociatedPlayerData pairs a PlayerData update with the player it came
// from — the shape level broadcasts (LevelDataPacket) fan out in.
type AssociatedPlayerData struct {
	AccountID int32
	Data      PlayerData
}

func (a AssociatedPlayerData) Size() int { return 4 + a.Data.Size() }

func (a AssociatedPlayerData) Encode(e *codec.Encoder) {
	e.WriteI32(a.AccountID)
	a.Data.Encode(e)
}

func DecodeAssociatedPlayerData(d *codec.Decoder) (AssociatedPlayerData, error) {
	id, err := d.ReadI32()
	if err != nil {
		return AssociatedPlayerData{}, err
	}
	data, err := DecodePlayerData(d)
	if err != nil {
		return AssociatedPlayerData{}, err
	}
	return AssociatedPlayerData{AccountID: id, Data: data}, nil
}

// FastEncodedAudioFrame wraps up to MaxAudioFrames opus frames into a single
// heap allocation (RemainderBytes), rather than one allocation per frame.
type FastEncodedAudioFrame struct {
	Data []byte
}

func (f FastEncodedAudioFrame) Size() int { return len(f.Data) }

func (f FastEncodedAudioFrame) Encode(e *codec.Encoder) { e.WriteBytes(f.Data) }

func DecodeFastEncodedAudioFrame(d *codec.Decoder) (FastEncodedAudioFrame, error) {
	return FastEncodedAudioFrame{Data: d.ReadRemainder()}, nil
}
