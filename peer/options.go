package peer

import (
	"io"
	"log"
	"time"

	"github.com/joaovictorsl/tpeer/messages"
)

const DefaultDialTimeout = 20 * time.Second

type options struct {
	log            *log.Logger
	observer       func(messages.Message)
	dialTimeout    time.Duration
	maxMessageSize int
}

type Option func(*options)

func defaultOptions() *options {
	return &options{
		log:            log.New(io.Discard, "[PeerConn] ", log.Flags()),
		dialTimeout:    DefaultDialTimeout,
		maxMessageSize: MaxMessageSize,
	}
}

func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithObserver receives every inbound message, keep-alives included, after
// it was matched against the pending request.
func WithObserver(fn func(messages.Message)) Option {
	return func(o *options) {
		o.observer = fn
	}
}

func WithDialTimeout(d time.Duration) Option {
	return func(o *options) {
		o.dialTimeout = d
	}
}

func WithMaxMessageSize(n int) Option {
	return func(o *options) {
		o.maxMessageSize = n
	}
}
