package peer

import (
	"errors"
	"fmt"

	"github.com/joaovictorsl/tpeer/messages"
)

var (
	ErrNoExpectation    = errors.New("request needs at least one expected message")
	ErrInfoHashMismatch = errors.New("peer answered with a different info hash")
)

// ProtocolError is returned when the peer sends something other than the
// next expected message.
type ProtocolError struct {
	Expected messages.Kind
	Got      messages.Kind
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error: expected %s, got %s", e.Expected, e.Got)
}

// ConnectionError is returned to every pending request once the connection
// fails or is closed. Err is io.EOF when the peer hung up and net.ErrClosed
// when we closed it.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("peer connection: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
