package peer

import (
	"context"
	"errors"
	"log"
	"net"
	"sync"

	"github.com/joaovictorsl/tpeer/messages"
)

const readChunkSize = 32 * 1024

// PeerConn owns one stream to a peer. A single reader goroutine frames and
// classifies inbound bytes and hands each message to the pending request.
type PeerConn struct {
	conn     net.Conn
	framer   *framer
	log      *log.Logger
	observer func(messages.Message)

	// Holds the one request allowed in flight.
	sem chan struct{}

	mu   sync.Mutex
	subs map[*subscription]struct{}
	err  *ConnectionError

	closeOnce sync.Once
	done      chan struct{}
}

func Dial(ctx context.Context, addr string, opts ...Option) (*PeerConn, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	d := net.Dialer{Timeout: o.dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	o.log.Println("Connected to", addr)
	return newPeerConn(conn, o), nil
}

// NewPeerConn takes ownership of an already open stream.
func NewPeerConn(conn net.Conn, opts ...Option) *PeerConn {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	return newPeerConn(conn, o)
}

func newPeerConn(conn net.Conn, o *options) *PeerConn {
	pc := &PeerConn{
		conn:     conn,
		framer:   newFramer(o.maxMessageSize),
		log:      o.log,
		observer: o.observer,
		sem:      make(chan struct{}, 1),
		subs:     make(map[*subscription]struct{}),
		done:     make(chan struct{}),
	}

	go pc.readLoop()

	return pc
}

// Write sends b as is.
func (pc *PeerConn) Write(b []byte) (int, error) {
	n, err := pc.conn.Write(b)
	if err != nil {
		pc.fail(err)
	}
	return n, err
}

// Close shuts the stream down. Pending requests fail with a ConnectionError
// wrapping net.ErrClosed.
func (pc *PeerConn) Close() error {
	return pc.fail(net.ErrClosed)
}

// Done is closed once the connection is no longer usable.
func (pc *PeerConn) Done() <-chan struct{} {
	return pc.done
}

// Err is nil while the connection is usable, a *ConnectionError afterwards.
func (pc *PeerConn) Err() error {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if pc.err == nil {
		return nil
	}
	return pc.err
}

func (pc *PeerConn) readLoop() {
	buf := make([]byte, readChunkSize)

	for {
		n, err := pc.conn.Read(buf)
		if n > 0 {
			frames, ferr := pc.framer.Feed(buf[:n])
			for _, raw := range frames {
				pc.publish(messages.Classify(raw))
			}

			if ferr != nil {
				pc.log.Println("Framing error", ferr)
				pc.fail(ferr)
				return
			}
		}

		if err != nil {
			pc.fail(err)
			return
		}
	}
}

func (pc *PeerConn) publish(msg messages.Message) {
	pc.log.Printf("Received %s (%d bytes)\n", msg.Kind, len(msg.Raw))

	if msg.Kind != messages.KEEP_ALIVE {
		pc.mu.Lock()
		for sub := range pc.subs {
			if sub.deliver(msg) {
				delete(pc.subs, sub)
			}
		}
		pc.mu.Unlock()
	}

	if pc.observer != nil {
		pc.observer(msg)
	}
}

// fail settles the connection exactly once, the first cause wins.
func (pc *PeerConn) fail(cause error) error {
	var closeErr error

	pc.closeOnce.Do(func() {
		if !errors.Is(cause, net.ErrClosed) {
			pc.log.Println("Connection failed", cause)
		}

		pc.mu.Lock()
		pc.err = &ConnectionError{Err: cause}
		for sub := range pc.subs {
			sub.settle(pc.err)
			delete(pc.subs, sub)
		}
		pc.mu.Unlock()

		closeErr = pc.conn.Close()
		close(pc.done)
	})

	return closeErr
}

func (pc *PeerConn) subscribe(sub *subscription) error {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if pc.err != nil {
		return pc.err
	}

	pc.subs[sub] = struct{}{}
	return nil
}

func (pc *PeerConn) unsubscribe(sub *subscription) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	delete(pc.subs, sub)
}
