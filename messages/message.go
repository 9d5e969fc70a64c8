package messages

import (
	"encoding/binary"
	"fmt"
)

const (
	// Length prefix size of every non handshake message.
	LengthPrefixSize = 4
	// Offset of the block inside a framed piece message:
	// length prefix, id, index and begin.
	PieceBlockOffset = LengthPrefixSize + 1 + 4 + 4
)

type PeerMessage interface {
	ToBytes() []byte
	Type() Kind
}

// Message is a complete inbound frame as it arrived, classified by kind.
type Message struct {
	Kind Kind
	Raw  []byte
}

// Classify tells the kind of a complete frame. Frames starting with 19 are
// handshakes, anything else is read as length prefix plus id.
func Classify(raw []byte) Message {
	msg := Message{Kind: UNKNOWN, Raw: raw}

	switch {
	case len(raw) > 0 && raw[0] == ProtocolLen:
		msg.Kind = HANDSHAKE
	case len(raw) == LengthPrefixSize:
		msg.Kind = KEEP_ALIVE
	case len(raw) > LengthPrefixSize && raw[LengthPrefixSize] <= byte(CANCEL):
		msg.Kind = Kind(raw[LengthPrefixSize])
	}

	return msg
}

// Payload is everything after the message id. Empty for handshakes and
// keep-alives.
func (m Message) Payload() []byte {
	if m.Kind == HANDSHAKE || len(m.Raw) <= LengthPrefixSize+1 {
		return nil
	}
	return m.Raw[LengthPrefixSize+1:]
}

// Decode turns the frame into its typed message.
func (m Message) Decode() (PeerMessage, error) {
	payload := m.Payload()

	switch m.Kind {
	case HANDSHAKE:
		return ParseHandshake(m.Raw)
	case CHOKE, UNCHOKE, INTERESTED, NOT_INTERESTED:
		return NewStateMessage(m.Kind), nil
	case HAVE:
		return FromBytesHaveMessage(payload)
	case BITFIELD:
		return FromBytesBitfieldMessage(payload), nil
	case REQUEST:
		return FromBytesRequestMessage(payload)
	case CANCEL:
		req, err := FromBytesRequestMessage(payload)
		if err != nil {
			return nil, err
		}
		return (*CancelMessage)(req), nil
	case PIECE:
		return FromBytesPieceMessage(payload)
	default:
		return nil, fmt.Errorf("id not implemented: %s", m.Kind)
	}
}

func frame(id Kind, payloadLen int) []byte {
	b := make([]byte, LengthPrefixSize+1, LengthPrefixSize+1+payloadLen)
	binary.BigEndian.PutUint32(b, uint32(1+payloadLen))
	b[LengthPrefixSize] = byte(id)
	return b
}
