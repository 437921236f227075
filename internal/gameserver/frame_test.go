package gameserver

import (
	"bytes"
	"testing"

	"github.com/GlobedGD/globed2-sub001/internal/codec"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	header := codec.Header{PacketID: 10000, Encrypted: false}
	payload := []byte{1, 2, 3, 4}

	if err := writeFrame(&buf, header, payload); err != nil {
		t.Fatalf("write: %v", err)
	}

	gotHeader, gotPayload, err := readFrame(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if gotHeader != header {
		t.Fatalf("header mismatch: %+v != %+v", gotHeader, header)
	}
	if !bytes.Equal(gotPayload, payload) {
		t.Fatalf("payload mismatch: %v != %v", gotPayload, payload)
	}
}

func TestFrameRejectsOversized(t *testing.T) {
	var buf bytes.Buffer
	header := codec.Header{PacketID: 1, Encrypted: false}
	big := make([]byte, MaxFrameSize+1)
	if err := writeFrame(&buf, header, big); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := readFrame(&buf); err == nil {
		t.Fatal("expected oversized frame to be rejected")
	}
}
