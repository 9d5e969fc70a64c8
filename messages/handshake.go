package messages

import (
	"bytes"
	"fmt"
)

const (
	Protocol      = "BitTorrent protocol"
	ProtocolLen   = byte(len(Protocol))
	HandshakeSize = 1 + len(Protocol) + 8 + 20 + 20
)

type HandshakeMessage struct {
	Reserved [8]byte
	InfoHash [20]byte
	PeerID   [20]byte
}

func NewHandshakeMessage(infoHash, peerID [20]byte) *HandshakeMessage {
	return &HandshakeMessage{
		InfoHash: infoHash,
		PeerID:   peerID,
	}
}

func ParseHandshake(b []byte) (*HandshakeMessage, error) {
	if len(b) != HandshakeSize {
		return nil, fmt.Errorf("handshake should have %d bytes, it has %d", HandshakeSize, len(b))
	}
	if b[0] != ProtocolLen || !bytes.Equal(b[1:20], []byte(Protocol)) {
		return nil, fmt.Errorf("unsupported protocol %q", b[1:1+min(int(b[0]), len(b)-1)])
	}

	msg := &HandshakeMessage{}
	copy(msg.Reserved[:], b[20:28])
	copy(msg.InfoHash[:], b[28:48])
	copy(msg.PeerID[:], b[48:68])
	return msg, nil
}

func (msg *HandshakeMessage) Type() Kind {
	return HANDSHAKE
}

func (msg *HandshakeMessage) ToBytes() []byte {
	b := bytes.NewBuffer(make([]byte, 0, HandshakeSize))
	b.WriteByte(ProtocolLen)
	b.WriteString(Protocol)
	b.Write(msg.Reserved[:])
	b.Write(msg.InfoHash[:])
	b.Write(msg.PeerID[:])
	return b.Bytes()
}
