package codec

import (
	"bytes"
	"errors"
	"testing"
)

func TestPrimitiveRoundTrip(t *testing.T) {
	e := NewEncoder(64)
	e.WriteU8(0xAB)
	e.WriteU16(0x1234)
	e.WriteU32(0xDEADBEEF)
	e.WriteU64(0x0102030405060708)
	e.WriteI32(-42)
	e.WriteBool(true)
	e.WriteF32(3.5)
	e.WriteF64(2.71828)

	d := NewDecoder(e.Bytes())
	if v, err := d.ReadU8(); err != nil || v != 0xAB {
		t.Fatalf("u8: got %v, %v", v, err)
	}
	if v, err := d.ReadU16(); err != nil || v != 0x1234 {
		t.Fatalf("u16: got %v, %v", v, err)
	}
	if v, err := d.ReadU32(); err != nil || v != 0xDEADBEEF {
		t.Fatalf("u32: got %v, %v", v, err)
	}
	if v, err := d.ReadU64(); err != nil || v != 0x0102030405060708 {
		t.Fatalf("u64: got %v, %v", v, err)
	}
	if v, err := d.ReadI32(); err != nil || v != -42 {
		t.Fatalf("i32: got %v, %v", v, err)
	}
	if v, err := d.ReadBool(); err != nil || !v {
		t.Fatalf("bool: got %v, %v", v, err)
	}
	if v, err := d.ReadF32(); err != nil || v != 3.5 {
		t.Fatalf("f32: got %v, %v", v, err)
	}
	if v, err := d.ReadF64(); err != nil || v != 2.71828 {
		t.Fatalf("f64: got %v, %v", v, err)
	}
	if d.Remaining() != 0 {
		t.Fatalf("expected no remaining bytes, got %d", d.Remaining())
	}
}

func TestFastStringRoundTrip(t *testing.T) {
	e := NewEncoder(16)
	e.WriteFastString("hello globed")
	d := NewDecoder(e.Bytes())
	s, err := d.ReadFastString(64)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s != "hello globed" {
		t.Fatalf("got %q", s)
	}
}

func TestFastStringRejectsOverCap(t *testing.T) {
	e := NewEncoder(16)
	e.WriteFastString("0123456789")
	d := NewDecoder(e.Bytes())
	if _, err := d.ReadFastString(4); err == nil {
		t.Fatal("expected error for over-cap string")
	}
}

func TestInlineStringRoundTrip(t *testing.T) {
	e := NewEncoder(6)
	e.WriteInlineString("abc", 6)
	d := NewDecoder(e.Bytes())
	s, err := d.ReadInlineString(6)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s != "abc" {
		t.Fatalf("got %q", s)
	}
}

func TestByteArrayRoundTrip(t *testing.T) {
	want := bytes.Repeat([]byte{0xAA}, 32)
	e := NewEncoder(32)
	e.WriteByteArray(want)
	d := NewDecoder(e.Bytes())
	got, err := d.ReadByteArray(32)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("mismatch")
	}
}

func TestRemainderBytes(t *testing.T) {
	e := NewEncoder(8)
	e.WriteU16(1)
	e.WriteBytes([]byte{1, 2, 3, 4, 5})
	d := NewDecoder(e.Bytes())
	if _, err := d.ReadU16(); err != nil {
		t.Fatalf("u16: %v", err)
	}
	rem := d.ReadRemainder()
	if !bytes.Equal(rem, []byte{1, 2, 3, 4, 5}) {
		t.Fatalf("got %v", rem)
	}
	if d.Remaining() != 0 {
		t.Fatalf("expected fully consumed")
	}
}

func TestOptionRoundTrip(t *testing.T) {
	e := NewEncoder(8)
	v := uint32(7)
	EncodeOption(e, &v, func(e *Encoder, x uint32) { e.WriteU32(x) })
	d := NewDecoder(e.Bytes())
	got, err := DecodeOption(d, func(d *Decoder) (uint32, error) { return d.ReadU32() })
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got == nil || *got != 7 {
		t.Fatalf("got %v", got)
	}

	e2 := NewEncoder(8)
	EncodeOption[uint32](e2, nil, func(e *Encoder, x uint32) { e.WriteU32(x) })
	d2 := NewDecoder(e2.Bytes())
	got2, err := DecodeOption(d2, func(d *Decoder) (uint32, error) { return d.ReadU32() })
	if err != nil {
		t.Fatalf("decode nil: %v", err)
	}
	if got2 != nil {
		t.Fatalf("expected nil, got %v", got2)
	}
}

func TestVecRoundTrip(t *testing.T) {
	e := NewEncoder(32)
	items := []uint16{1, 2, 3, 4}
	EncodeVec(e, items, func(e *Encoder, v uint16) { e.WriteU16(v) })
	d := NewDecoder(e.Bytes())
	got, err := DecodeVec(d, func(d *Decoder) (uint16, error) { return d.ReadU16() })
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != len(items) {
		t.Fatalf("got %v", got)
	}
	for i := range items {
		if got[i] != items[i] {
			t.Fatalf("mismatch at %d: %v != %v", i, got[i], items[i])
		}
	}
}

func TestFastVecRejectsOverCap(t *testing.T) {
	e := NewEncoder(32)
	items := []uint16{1, 2, 3, 4, 5}
	EncodeFastVec(e, items, func(e *Encoder, v uint16) { e.WriteU16(v) })
	d := NewDecoder(e.Bytes())
	if _, err := DecodeFastVec(d, 3, func(d *Decoder) (uint16, error) { return d.ReadU16() }); err == nil {
		t.Fatal("expected error for over-cap fast vec")
	}
}

func TestMapRoundTrip(t *testing.T) {
	e := NewEncoder(32)
	m := map[uint16]int32{1: -1, 2: -2}
	EncodeMap(e, m, func(e *Encoder, k uint16) { e.WriteU16(k) }, func(e *Encoder, v int32) { e.WriteI32(v) })
	d := NewDecoder(e.Bytes())
	got, err := DecodeMap(d, func(d *Decoder) (uint16, error) { return d.ReadU16() }, func(d *Decoder) (int32, error) { return d.ReadI32() })
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != len(m) {
		t.Fatalf("got %v", got)
	}
	for k, v := range m {
		if got[k] != v {
			t.Fatalf("mismatch at %d: %v != %v", k, got[k], v)
		}
	}
}

func TestBitsRoundTrip(t *testing.T) {
	e := NewEncoder(1)
	EncodeBits(e, 2, []bool{true, false})
	d := NewDecoder(e.Bytes())
	got, err := DecodeBits(d, 2)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || !got[0] || got[1] {
		t.Fatalf("got %v", got)
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	e := NewEncoder(HeaderSize)
	h := Header{PacketID: 12003, Encrypted: true}
	h.Encode(e)
	if e.Len() != HeaderSize {
		t.Fatalf("header size mismatch: %d", e.Len())
	}
	d := NewDecoder(e.Bytes())
	got, err := DecodeHeader(d)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != h {
		t.Fatalf("got %+v, want %+v", got, h)
	}
}

// TestTruncatedPrefixFailsShortRead exercises invariant 3: every truncated
// prefix of a valid encoding must fail with ErrShortRead, never panic or
// silently succeed.
func TestTruncatedPrefixFailsShortRead(t *testing.T) {
	e := NewEncoder(16)
	e.WriteFastString("truncate me")
	full := e.Bytes()
	for n := 0; n < len(full); n++ {
		d := NewDecoder(full[:n])
		if _, err := d.ReadFastString(64); !errors.Is(err, ErrShortRead) {
			t.Fatalf("prefix of length %d: expected ErrShortRead, got %v", n, err)
		}
	}
}
