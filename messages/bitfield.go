package messages

type Bitfield []byte

// HasPiece reads the bit for piece, high bit of the first byte being piece 0.
func (bf Bitfield) HasPiece(piece int) bool {
	byteIdx := piece / 8
	if piece < 0 || byteIdx >= len(bf) {
		return false
	}
	return bf[byteIdx]>>(7-piece%8)&1 == 1
}

func (bf Bitfield) SetPiece(piece int) {
	byteIdx := piece / 8
	if piece < 0 || byteIdx >= len(bf) {
		return
	}
	bf[byteIdx] |= 1 << (7 - piece%8)
}

type BitfieldMessage struct {
	bitfield Bitfield
}

func NewBitfieldMessage(b []byte) *BitfieldMessage {
	return FromBytesBitfieldMessage(b)
}

func FromBytesBitfieldMessage(b []byte) *BitfieldMessage {
	return &BitfieldMessage{
		bitfield: b,
	}
}

func (msg *BitfieldMessage) Type() Kind {
	return BITFIELD
}

func (msg *BitfieldMessage) ToBytes() []byte {
	return append(frame(BITFIELD, len(msg.bitfield)), msg.bitfield...)
}

func (msg BitfieldMessage) Bitfield() Bitfield {
	return msg.bitfield
}
