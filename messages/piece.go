package messages

import (
	"encoding/binary"
	"fmt"
)

type PieceMessage struct {
	Idx   uint32
	Begin uint32
	Block []byte
}

func NewPieceMessage(idx, begin uint32, block []byte) *PieceMessage {
	return &PieceMessage{
		Idx:   idx,
		Begin: begin,
		Block: block,
	}
}

// FromBytesPieceMessage reads a piece payload. Block aliases b.
func FromBytesPieceMessage(b []byte) (*PieceMessage, error) {
	if len(b) < 8 {
		return nil, fmt.Errorf("piece payload should have at least 8 bytes, it has %d", len(b))
	}
	return &PieceMessage{
		Idx:   binary.BigEndian.Uint32(b[0:4]),
		Begin: binary.BigEndian.Uint32(b[4:8]),
		Block: b[8:],
	}, nil
}

func (msg *PieceMessage) Type() Kind {
	return PIECE
}

func (msg *PieceMessage) ToBytes() []byte {
	b := frame(PIECE, 8+len(msg.Block))
	b = binary.BigEndian.AppendUint32(b, msg.Idx)   // Piece index
	b = binary.BigEndian.AppendUint32(b, msg.Begin) // Block begin
	return append(b, msg.Block...)                  // Block data
}
