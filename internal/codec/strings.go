package codec

import (
	"fmt"
	"unicode/utf8"
)

// WriteFastString writes a u32 length prefix followed by the string's raw
// bytes. The caller is responsible for ensuring len(s) fits the field's
// declared cap; decode is the side that enforces it.
func (e *Encoder) WriteFastString(s string) {
	e.WriteU32(uint32(len(s)))
	e.WriteBytes([]byte(s))
}

// ReadFastString reads a u32-length-prefixed string and fails with
// ErrInvalidLength if the declared length exceeds maxLen, before ever
// allocating a buffer for it — this is what keeps a hostile length prefix
// from causing an unbounded allocation.
func (d *Decoder) ReadFastString(maxLen int) (string, error) {
	n, err := d.ReadU32()
	if err != nil {
		return "", err
	}
	if int(n) > maxLen {
		return "", fmt.Errorf("%w: fast string length %d exceeds cap %d", ErrInvalidLength, n, maxLen)
	}
	b, err := d.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", ErrUTF8
	}
	return string(b), nil
}

// WriteInlineString writes exactly n bytes: the string's bytes, truncated or
// zero-padded to fit. Used for fields whose size is implied by the packet
// schema rather than carried on the wire.
func (e *Encoder) WriteInlineString(s string, n int) {
	b := make([]byte, n)
	copy(b, s)
	e.WriteBytes(b)
}

// ReadInlineString reads exactly n bytes and trims trailing NULs.
func (d *Decoder) ReadInlineString(n int) (string, error) {
	b, err := d.ReadBytes(n)
	if err != nil {
		return "", err
	}
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	if !utf8.Valid(b[:end]) {
		return "", ErrUTF8
	}
	return string(b[:end]), nil
}

// WriteByteArray writes the raw bytes as-is; the caller guarantees len(b) == n.
func (e *Encoder) WriteByteArray(b []byte) { e.WriteBytes(b) }

// ReadByteArray reads exactly n raw bytes.
func (d *Decoder) ReadByteArray(n int) ([]byte, error) { return d.ReadBytes(n) }
