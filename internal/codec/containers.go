package codec

import "fmt"

// EncodeOption writes the `u8 tag || T if 1` wire shape.
func EncodeOption[T any](e *Encoder, v *T, encode func(*Encoder, T)) {
	if v == nil {
		e.WriteU8(0)
		return
	}
	e.WriteU8(1)
	encode(e, *v)
}

// DecodeOption reads the `u8 tag || T if 1` wire shape.
func DecodeOption[T any](d *Decoder, decode func(*Decoder) (T, error)) (*T, error) {
	tag, err := d.ReadU8()
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0:
		return nil, nil
	case 1:
		v, err := decode(d)
		if err != nil {
			return nil, err
		}
		return &v, nil
	default:
		return nil, fmt.Errorf("%w: option tag 0x%02x", ErrInvalidValue, tag)
	}
}

// EncodeVec writes `u32 count || count x T`.
func EncodeVec[T any](e *Encoder, items []T, encode func(*Encoder, T)) {
	e.WriteU32(uint32(len(items)))
	for _, item := range items {
		encode(e, item)
	}
}

// DecodeVec reads `u32 count || count x T` without a bound on count beyond
// the remaining input size, so a hostile count can't force a large
// allocation: each element must actually be read from a shrinking buffer.
func DecodeVec[T any](d *Decoder, decode func(*Decoder) (T, error)) ([]T, error) {
	n, err := d.ReadU32()
	if err != nil {
		return nil, err
	}
	if int(n) > d.Remaining() {
		return nil, fmt.Errorf("%w: vec count %d exceeds remaining input", ErrInvalidLength, n)
	}
	items := make([]T, 0, n)
	for i := uint32(0); i < n; i++ {
		v, err := decode(d)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, nil
}

// EncodeFastVec is identical on the wire to EncodeVec; the distinction is
// enforced entirely on decode.
func EncodeFastVec[T any](e *Encoder, items []T, encode func(*Encoder, T)) {
	EncodeVec(e, items, encode)
}

// DecodeFastVec is DecodeVec with an additional, schema-declared cap: a
// count exceeding cap fails decode cleanly instead of being silently
// truncated.
func DecodeFastVec[T any](d *Decoder, cap int, decode func(*Decoder) (T, error)) ([]T, error) {
	n, err := d.ReadU32()
	if err != nil {
		return nil, err
	}
	if int(n) > cap {
		return nil, fmt.Errorf("%w: fast vec count %d exceeds cap %d", ErrInvalidLength, n, cap)
	}
	if int(n) > d.Remaining() {
		return nil, fmt.Errorf("%w: fast vec count %d exceeds remaining input", ErrInvalidLength, n)
	}
	items := make([]T, 0, n)
	for i := uint32(0); i < n; i++ {
		v, err := decode(d)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, nil
}

// EncodeMap writes `u32 count || count x (K,V)`.
func EncodeMap[K comparable, V any](e *Encoder, m map[K]V, encodeKey func(*Encoder, K), encodeVal func(*Encoder, V)) {
	e.WriteU32(uint32(len(m)))
	for k, v := range m {
		encodeKey(e, k)
		encodeVal(e, v)
	}
}

// DecodeMap reads `u32 count || count x (K,V)`.
func DecodeMap[K comparable, V any](d *Decoder, decodeKey func(*Decoder) (K, error), decodeVal func(*Decoder) (V, error)) (map[K]V, error) {
	n, err := d.ReadU32()
	if err != nil {
		return nil, err
	}
	if int(n) > d.Remaining() {
		return nil, fmt.Errorf("%w: map count %d exceeds remaining input", ErrInvalidLength, n)
	}
	m := make(map[K]V, n)
	for i := uint32(0); i < n; i++ {
		k, err := decodeKey(d)
		if err != nil {
			return nil, err
		}
		v, err := decodeVal(d)
		if err != nil {
			return nil, err
		}
		m[k] = v
	}
	return m, nil
}
