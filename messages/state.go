package messages

// StateMessage is any of the payload-less messages: choke, unchoke,
// interested and not interested.
type StateMessage struct {
	kind Kind
}

func NewStateMessage(kind Kind) *StateMessage {
	return &StateMessage{kind: kind}
}

func NewInterestedMessage() *StateMessage {
	return NewStateMessage(INTERESTED)
}

func (msg *StateMessage) Type() Kind {
	return msg.kind
}

func (msg *StateMessage) ToBytes() []byte {
	return frame(msg.kind, 0)
}

// KeepAlive is the zero length message.
func KeepAlive() []byte {
	return []byte{0, 0, 0, 0}
}
