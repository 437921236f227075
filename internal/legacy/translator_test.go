package legacy

import (
	"errors"
	"testing"

	"github.com/GlobedGD/globed2-sub001/internal/codec"
	"github.com/GlobedGD/globed2-sub001/internal/protocol"
)

func TestV13LevelJoinUpgradesWithNilHash(t *testing.T) {
	e := codec.NewEncoder(16)
	e.WriteI64(12345)
	e.WriteBool(true)

	d := codec.NewDecoder(e.Bytes())
	pkt, err := Default.Decode(13, protocol.LevelJoinPacketID, d)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	join, ok := pkt.(protocol.LevelJoinPacket)
	if !ok {
		t.Fatalf("wrong type: %T", pkt)
	}
	if join.LevelID != 12345 || !join.Unlisted {
		t.Fatalf("got %+v", join)
	}
	if join.LevelHash != nil {
		t.Fatalf("expected nil level hash for v13 client, got %v", *join.LevelHash)
	}
}

func TestV14SharesV13LevelJoinShape(t *testing.T) {
	e := codec.NewEncoder(16)
	e.WriteI64(1)
	e.WriteBool(false)

	d := codec.NewDecoder(e.Bytes())
	if _, err := Default.Decode(14, protocol.LevelJoinPacketID, d); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestV15LevelJoinUsesCurrentShape(t *testing.T) {
	hash := [32]byte{1, 2, 3}
	e := codec.NewEncoder(64)
	pkt := protocol.LevelJoinPacket{LevelID: 7, Unlisted: false, LevelHash: &hash}
	pkt.Encode(e)

	d := codec.NewDecoder(e.Bytes())
	got, err := Default.Decode(15, protocol.LevelJoinPacketID, d)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	join := got.(protocol.LevelJoinPacket)
	if join.LevelHash == nil || *join.LevelHash != hash {
		t.Fatalf("expected level hash to survive for v15, got %+v", join)
	}
}

func TestV13PlayerDataUpgradesWithNilMeta(t *testing.T) {
	e := codec.NewEncoder(32)
	data := protocol.PlayerData{X: 1, Y: 2, Rotation: 90}
	data.Encode(e)

	d := codec.NewDecoder(e.Bytes())
	pkt, err := Default.Decode(13, protocol.PlayerDataPacketID, d)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	pd := pkt.(protocol.PlayerDataPacket)
	if pd.Meta != nil {
		t.Fatalf("expected nil metadata for v13 client, got %+v", *pd.Meta)
	}
	if pd.Data != data {
		t.Fatalf("got %+v, want %+v", pd.Data, data)
	}
}

func TestUnsupportedVersionRejected(t *testing.T) {
	d := codec.NewDecoder(nil)
	if _, err := Default.Decode(9999, protocol.PingPacketID, d); !errors.Is(err, protocol.ErrUnsupportedProtocol) {
		t.Fatalf("expected ErrUnsupportedProtocol, got %v", err)
	}
}

func TestLevelPlayerMetadataSuppressedForLegacyPeers(t *testing.T) {
	meta := protocol.LevelPlayerMetadataPacket{AccountID: 1}
	for _, v := range []uint16{13, 14, 15} {
		e := codec.NewEncoder(16)
		err := Default.Encode(v, e, meta)
		if !errors.Is(err, ErrSuppressed) {
			t.Fatalf("version %d: expected ErrSuppressed, got %v", v, err)
		}
	}
}

func TestLevelPlayerMetadataEncodesNormallyAtCurrentProtocol(t *testing.T) {
	meta := protocol.LevelPlayerMetadataPacket{AccountID: 1}
	e := codec.NewEncoder(16)
	if err := Default.Encode(protocol.CurrentProtocol, e, meta); err != nil {
		t.Fatalf("encode at current protocol: %v", err)
	}
}

func TestProbeProtocolAllowedWithNoOverride(t *testing.T) {
	e := codec.NewEncoder(4)
	e.WriteU32(1)
	d := codec.NewDecoder(e.Bytes())
	if _, err := Default.Decode(protocol.ProbeProtocol, protocol.PingPacketID, d); err != nil {
		t.Fatalf("decode: %v", err)
	}
}
