// Package codec implements the length-prefixed binary wire format shared by
// every packet in the game protocol: fixed-width integers, bounded strings
// and byte arrays, and the small generic container helpers (Option, Vec,
// Map) packet types are built out of.
//
// Every multi-byte integer is big-endian. Decoders never allocate more than
// a constant amount of memory for an unvalidated length prefix — every
// length-prefixed read is bounds-checked against the remaining input first.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	ErrShortRead     = errors.New("codec: short read")
	ErrInvalidLength = errors.New("codec: invalid length")
	ErrInvalidValue  = errors.New("codec: invalid value")
	ErrUTF8          = errors.New("codec: invalid utf8")
)

// Encoder accumulates bytes into a single preallocated buffer. Callers
// should size it with NewEncoder(n) where n is the packet's exact Size(), so
// encoding never triggers a reallocation on the hot path.
type Encoder struct {
	buf []byte
}

func NewEncoder(size int) *Encoder {
	return &Encoder{buf: make([]byte, 0, size)}
}

func (e *Encoder) Bytes() []byte { return e.buf }
func (e *Encoder) Len() int      { return len(e.buf) }

func (e *Encoder) WriteU8(v uint8)   { e.buf = append(e.buf, v) }
func (e *Encoder) WriteI8(v int8)    { e.WriteU8(uint8(v)) }
func (e *Encoder) WriteBool(v bool) {
	if v {
		e.WriteU8(1)
	} else {
		e.WriteU8(0)
	}
}

func (e *Encoder) WriteU16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

func (e *Encoder) WriteI16(v int16) { e.WriteU16(uint16(v)) }

func (e *Encoder) WriteU32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

func (e *Encoder) WriteI32(v int32) { e.WriteU32(uint32(v)) }

func (e *Encoder) WriteU64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

func (e *Encoder) WriteI64(v int64) { e.WriteU64(uint64(v)) }

func (e *Encoder) WriteF32(v float32) { e.WriteU32(math.Float32bits(v)) }
func (e *Encoder) WriteF64(v float64) { e.WriteU64(math.Float64bits(v)) }

func (e *Encoder) WriteBytes(b []byte) { e.buf = append(e.buf, b...) }

// Decoder reads sequentially from a byte slice it does not own or copy.
type Decoder struct {
	buf []byte
	off int
}

func NewDecoder(b []byte) *Decoder {
	return &Decoder{buf: b}
}

// Remaining returns how many unread bytes are left.
func (d *Decoder) Remaining() int { return len(d.buf) - d.off }

func (d *Decoder) need(n int) error {
	if n < 0 || d.Remaining() < n {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrShortRead, n, d.Remaining())
	}
	return nil
}

func (d *Decoder) ReadU8() (uint8, error) {
	if err := d.need(1); err != nil {
		return 0, err
	}
	v := d.buf[d.off]
	d.off++
	return v, nil
}

func (d *Decoder) ReadI8() (int8, error) {
	v, err := d.ReadU8()
	return int8(v), err
}

func (d *Decoder) ReadBool() (bool, error) {
	v, err := d.ReadU8()
	if err != nil {
		return false, err
	}
	if v > 1 {
		return false, fmt.Errorf("%w: bool byte 0x%02x", ErrInvalidValue, v)
	}
	return v == 1, nil
}

func (d *Decoder) ReadU16() (uint16, error) {
	if err := d.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(d.buf[d.off:])
	d.off += 2
	return v, nil
}

func (d *Decoder) ReadI16() (int16, error) {
	v, err := d.ReadU16()
	return int16(v), err
}

func (d *Decoder) ReadU32() (uint32, error) {
	if err := d.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(d.buf[d.off:])
	d.off += 4
	return v, nil
}

func (d *Decoder) ReadI32() (int32, error) {
	v, err := d.ReadU32()
	return int32(v), err
}

func (d *Decoder) ReadU64() (uint64, error) {
	if err := d.need(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(d.buf[d.off:])
	d.off += 8
	return v, nil
}

func (d *Decoder) ReadI64() (int64, error) {
	v, err := d.ReadU64()
	return int64(v), err
}

func (d *Decoder) ReadF32() (float32, error) {
	v, err := d.ReadU32()
	return math.Float32frombits(v), err
}

func (d *Decoder) ReadF64() (float64, error) {
	v, err := d.ReadU64()
	return math.Float64frombits(v), err
}

// ReadBytes reads exactly n raw bytes. The returned slice is a copy; callers
// never get a view into the decoder's backing array.
func (d *Decoder) ReadBytes(n int) ([]byte, error) {
	if err := d.need(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, d.buf[d.off:d.off+n])
	d.off += n
	return out, nil
}

// ReadRemainder consumes and returns everything left in the decoder. Used by
// RemainderBytes fields, which must be the last field of a packet.
func (d *Decoder) ReadRemainder() []byte {
	out := make([]byte, d.Remaining())
	copy(out, d.buf[d.off:])
	d.off = len(d.buf)
	return out
}
