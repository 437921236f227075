package codec

// HeaderSize is the fixed wire size of PacketHeader: u16 packet_id + u8 encrypted.
const HeaderSize = 3

// Header prefixes every frame: a 16-bit packet id and an encrypted flag.
type Header struct {
	PacketID  uint16
	Encrypted bool
}

func (h Header) Encode(e *Encoder) {
	e.WriteU16(h.PacketID)
	e.WriteBool(h.Encrypted)
}

func DecodeHeader(d *Decoder) (Header, error) {
	id, err := d.ReadU16()
	if err != nil {
		return Header{}, err
	}
	enc, err := d.ReadBool()
	if err != nil {
		return Header{}, err
	}
	return Header{PacketID: id, Encrypted: enc}, nil
}
