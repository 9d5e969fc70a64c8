package messages

import (
	"encoding/binary"
	"fmt"
)

type HaveMessage struct {
	Idx uint32
}

func NewHaveMessage(idx uint32) *HaveMessage {
	return &HaveMessage{
		Idx: idx,
	}
}

func FromBytesHaveMessage(b []byte) (*HaveMessage, error) {
	if len(b) != 4 {
		return nil, fmt.Errorf("have payload should have 4 bytes, it has %d", len(b))
	}
	return &HaveMessage{
		Idx: binary.BigEndian.Uint32(b),
	}, nil
}

func (msg *HaveMessage) Type() Kind {
	return HAVE
}

func (msg *HaveMessage) ToBytes() []byte {
	return binary.BigEndian.AppendUint32(frame(HAVE, 4), msg.Idx)
}
