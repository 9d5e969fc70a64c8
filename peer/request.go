package peer

import (
	"context"

	"github.com/joaovictorsl/tpeer/messages"
)

type subscription struct {
	expect []messages.Kind
	got    []messages.Message
	result chan error
}

func newSubscription(expect []messages.Kind) *subscription {
	return &subscription{
		expect: expect,
		got:    make([]messages.Message, 0, len(expect)),
		result: make(chan error, 1),
	}
}

// deliver matches msg against the head of the queue. It reports whether the
// subscription is settled.
func (s *subscription) deliver(msg messages.Message) bool {
	if msg.Kind != s.expect[0] {
		s.settle(&ProtocolError{Expected: s.expect[0], Got: msg.Kind})
		return true
	}

	s.got = append(s.got, msg)
	s.expect = s.expect[1:]
	if len(s.expect) == 0 {
		s.settle(nil)
		return true
	}

	return false
}

func (s *subscription) settle(err error) {
	s.result <- err
}

// Request writes out and waits for the peer to answer with exactly the
// expected kinds, in order. Only one request is in flight per connection,
// concurrent callers wait their turn. Cancelling ctx closes the connection.
func (pc *PeerConn) Request(ctx context.Context, out []byte, expect ...messages.Kind) ([]messages.Message, error) {
	if len(expect) == 0 {
		return nil, ErrNoExpectation
	}

	select {
	case pc.sem <- struct{}{}:
	case <-pc.done:
		return nil, pc.Err()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-pc.sem }()

	sub := newSubscription(append([]messages.Kind(nil), expect...))
	if err := pc.subscribe(sub); err != nil {
		return nil, err
	}
	defer pc.unsubscribe(sub)

	if _, err := pc.Write(out); err != nil {
		// fail already settled the subscription
		return nil, <-sub.result
	}

	select {
	case err := <-sub.result:
		if err != nil {
			return nil, err
		}
		return sub.got, nil
	case <-ctx.Done():
		// The reply may have settled the request in the meantime.
		select {
		case err := <-sub.result:
			if err != nil {
				return nil, err
			}
			return sub.got, nil
		default:
		}

		pc.Close()
		return nil, ctx.Err()
	}
}
