package peer

import (
	"encoding/binary"
	"fmt"

	"github.com/joaovictorsl/tpeer/messages"
)

// Largest frame accepted from a peer, length prefix included. A 16 KiB block
// plus header fits many times over.
const MaxMessageSize = 1 << 21

type framerState int

const (
	awaitingHeader framerState = iota
	awaitingBody
)

// framer cuts an arbitrary chunked byte stream into complete messages.
// Handshakes are recognised by their first byte and have a fixed size, every
// other message carries a 4 byte big endian length prefix.
type framer struct {
	state     framerState
	buf       []byte
	remaining int
	maxSize   int
}

func newFramer(maxSize int) *framer {
	return &framer{maxSize: maxSize}
}

// Feed consumes chunk and returns every message it completed, in order.
// Returned slices are never touched by the framer again.
func (f *framer) Feed(chunk []byte) ([][]byte, error) {
	var out [][]byte

	for len(chunk) > 0 {
		switch f.state {
		case awaitingHeader:
			if len(f.buf) == 0 && chunk[0] == messages.ProtocolLen {
				f.expectBody(make([]byte, 0, messages.HandshakeSize), messages.HandshakeSize)
				continue
			}

			n := min(messages.LengthPrefixSize-len(f.buf), len(chunk))
			f.buf = append(f.buf, chunk[:n]...)
			chunk = chunk[n:]
			if len(f.buf) < messages.LengthPrefixSize {
				continue
			}

			length := int(binary.BigEndian.Uint32(f.buf))
			if length > f.maxSize-messages.LengthPrefixSize {
				f.buf = nil
				return out, fmt.Errorf("message of %d bytes exceeds limit of %d", length+messages.LengthPrefixSize, f.maxSize)
			}

			if length == 0 {
				out = append(out, f.buf)
				f.buf = nil
				continue
			}

			body := make([]byte, messages.LengthPrefixSize, messages.LengthPrefixSize+length)
			copy(body, f.buf)
			f.expectBody(body, length)

		case awaitingBody:
			n := min(f.remaining, len(chunk))
			f.buf = append(f.buf, chunk[:n]...)
			chunk = chunk[n:]
			f.remaining -= n

			if f.remaining == 0 {
				out = append(out, f.buf)
				f.buf = nil
				f.state = awaitingHeader
			}
		}
	}

	return out, nil
}

func (f *framer) expectBody(buf []byte, remaining int) {
	f.state = awaitingBody
	f.buf = buf
	f.remaining = remaining
}
