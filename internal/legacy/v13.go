package legacy

import (
	"github.com/GlobedGD/globed2-sub001/internal/codec"
	"github.com/GlobedGD/globed2-sub001/internal/protocol"
)

// registerV13 installs the overrides needed for protocol versions 13 and
// 14, which share the same wire shapes for every packet id that differs
// from the current dialect: neither version's LevelJoinPacket carries a
// level_hash, and neither version's PlayerDataPacket carries the optional
// PlayerMetadata field introduced later.
func registerV13(t *Translator) {
	for _, v := range []uint16{13, 14} {
		t.registerUpgrade(v, protocol.LevelJoinPacketID, upgradeLevelJoinV13)
		t.registerUpgrade(v, protocol.PlayerDataPacketID, upgradePlayerDataV13)
		t.registerDowngrade(v, protocol.LevelPlayerMetadataID, downgradeSuppressed)
	}
}

// downgradeSuppressed rejects encoding a packet that has no wire
// representation at all in the peer's dialect — the caller is expected to
// treat ErrSuppressed as "drop this send", not as an encode failure.
func downgradeSuppressed(e *codec.Encoder, p protocol.Packet) error {
	return ErrSuppressed
}

// upgradeLevelJoinV13 reads the v13/v14 wire shape (level_id, unlisted —
// no level_hash field exists on the wire at all) and fills the canonical
// default (no hash) for the current dialect's optional field.
func upgradeLevelJoinV13(d *codec.Decoder) (protocol.Packet, error) {
	id, err := d.ReadI64()
	if err != nil {
		return nil, err
	}
	unlisted, err := d.ReadBool()
	if err != nil {
		return nil, err
	}
	return protocol.LevelJoinPacket{
		LevelID:   protocol.LevelId(id),
		Unlisted:  unlisted,
		LevelHash: nil,
	}, nil
}

// upgradePlayerDataV13 reads the v13/v14 wire shape (just PlayerData, no
// trailing Option<PlayerMetadata> tag byte at all) and fills the canonical
// default (no metadata this tick) for the current dialect's optional field.
func upgradePlayerDataV13(d *codec.Decoder) (protocol.Packet, error) {
	data, err := protocol.DecodePlayerData(d)
	if err != nil {
		return nil, err
	}
	return protocol.PlayerDataPacket{Data: data, Meta: nil}, nil
}
