package protocol

import (
	"testing"

	"github.com/GlobedGD/globed2-sub001/internal/codec"
)

func TestRegistryLookupKnownPacket(t *testing.T) {
	m, ok := Default.Lookup(LoginPacketID)
	if !ok {
		t.Fatal("expected Login packet to be registered")
	}
	if m.Name != "Login" || m.Direction != ClientToServer {
		t.Fatalf("unexpected metadata: %+v", m)
	}
}

func TestRegistryLookupUnknownPacket(t *testing.T) {
	if _, ok := Default.Lookup(0x7fff); ok {
		t.Fatal("expected no metadata for unassigned id")
	}
}

func TestRegistryDecodeRoundTrip(t *testing.T) {
	e := codec.NewEncoder(8)
	want := PingPacket{ID: 42}
	want.Encode(e)

	d := codec.NewDecoder(e.Bytes())
	got, err := Default.Decode(PingPacketID, d)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	ping, ok := got.(PingPacket)
	if !ok || ping.ID != 42 {
		t.Fatalf("got %#v", got)
	}
}

func TestRegistryDecodeUnknownPacketID(t *testing.T) {
	d := codec.NewDecoder(nil)
	if _, err := Default.Decode(0x7fff, d); err != ErrUnknownPacket {
		t.Fatalf("expected ErrUnknownPacket, got %v", err)
	}
}

func TestAdminPacketMarkedAdminOnly(t *testing.T) {
	m, ok := Default.Lookup(AdminSendNoticeID)
	if !ok || !m.AdminOnly {
		t.Fatalf("expected AdminSendNotice to be admin-only, got %+v", m)
	}
}
