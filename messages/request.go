package messages

import (
	"encoding/binary"
	"fmt"
)

type RequestMessage struct {
	Idx    uint32
	Begin  uint32
	Length uint32
}

func NewRequestMessage(idx, begin, length uint32) *RequestMessage {
	return &RequestMessage{
		Idx:    idx,
		Begin:  begin,
		Length: length,
	}
}

func FromBytesRequestMessage(b []byte) (*RequestMessage, error) {
	if len(b) != 12 {
		return nil, fmt.Errorf("request payload should have 12 bytes, it has %d", len(b))
	}
	return &RequestMessage{
		Idx:    binary.BigEndian.Uint32(b[0:4]),
		Begin:  binary.BigEndian.Uint32(b[4:8]),
		Length: binary.BigEndian.Uint32(b[8:12]),
	}, nil
}

func (msg *RequestMessage) Type() Kind {
	return REQUEST
}

func (msg *RequestMessage) ToBytes() []byte {
	return msg.appendFields(frame(REQUEST, 12))
}

func (msg *RequestMessage) appendFields(b []byte) []byte {
	b = binary.BigEndian.AppendUint32(b, msg.Idx)    // Piece index
	b = binary.BigEndian.AppendUint32(b, msg.Begin)  // Block begin
	b = binary.BigEndian.AppendUint32(b, msg.Length) // Block length
	return b
}

// CancelMessage has the same layout as a request.
type CancelMessage RequestMessage

func NewCancelMessage(idx, begin, length uint32) *CancelMessage {
	return (*CancelMessage)(NewRequestMessage(idx, begin, length))
}

func (msg *CancelMessage) Type() Kind {
	return CANCEL
}

func (msg *CancelMessage) ToBytes() []byte {
	return (*RequestMessage)(msg).appendFields(frame(CANCEL, 12))
}
