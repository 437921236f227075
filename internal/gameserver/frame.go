package gameserver

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/GlobedGD/globed2-sub001/internal/codec"
)

// MaxFrameSize bounds a single TCP frame (header + payload). A client
// claiming a larger frame is disconnected before any allocation happens.
const MaxFrameSize = 4 * 1024 * 1024

// readFrame reads one length-prefixed TCP frame: `u32 length || header (3
// bytes) || payload`. length covers header+payload. The length is checked
// against MaxFrameSize before the payload buffer is allocated.
func readFrame(r io.Reader) (codec.Header, []byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return codec.Header{}, nil, err
	}
	length := binary.BigEndian.Uint32(lenBuf[:])
	if length > MaxFrameSize {
		return codec.Header{}, nil, fmt.Errorf("gameserver: frame of %d bytes exceeds max %d", length, MaxFrameSize)
	}
	if int(length) < codec.HeaderSize {
		return codec.Header{}, nil, fmt.Errorf("gameserver: frame of %d bytes shorter than header", length)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return codec.Header{}, nil, err
	}

	d := codec.NewDecoder(body)
	header, err := codec.DecodeHeader(d)
	if err != nil {
		return codec.Header{}, nil, err
	}
	return header, d.ReadRemainder(), nil
}

// writeFrame writes one length-prefixed TCP frame.
func writeFrame(w io.Writer, header codec.Header, payload []byte) error {
	e := codec.NewEncoder(codec.HeaderSize + len(payload))
	header.Encode(e)
	e.WriteBytes(payload)

	body := e.Bytes()
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(body)))

	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}
