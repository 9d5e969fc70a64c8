package peer_test

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joaovictorsl/tpeer/messages"
	"github.com/joaovictorsl/tpeer/peer"
)

var (
	infoHash = [20]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20}
	ourID    = [20]byte{'o', 'u', 'r'}
	theirID  = [20]byte{'t', 'h', 'e', 'i', 'r'}
)

func pipe(t *testing.T, opts ...peer.Option) (*peer.PeerConn, net.Conn) {
	local, remote := net.Pipe()
	pc := peer.NewPeerConn(local, opts...)

	t.Cleanup(func() {
		pc.Close()
		remote.Close()
	})

	return pc, remote
}

// remotePeer reads n bytes from conn and answers with replies.
func remotePeer(t *testing.T, conn net.Conn, n int, replies ...[]byte) <-chan []byte {
	received := make(chan []byte, 1)

	go func() {
		buf := make([]byte, n)
		if _, err := io.ReadFull(conn, buf); err != nil {
			close(received)
			return
		}
		received <- buf

		for _, r := range replies {
			if _, err := conn.Write(r); err != nil {
				return
			}
		}
	}()

	return received
}

func TestHandshakeWithBitfield(t *testing.T) {
	pc, remote := pipe(t)

	received := remotePeer(t, remote, messages.HandshakeSize,
		messages.NewHandshakeMessage(infoHash, theirID).ToBytes(),
		messages.NewBitfieldMessage([]byte{0xe0}).ToBytes(),
	)

	res, err := pc.Handshake(context.Background(), infoHash, ourID, true)
	require.NoError(t, err)

	assert.Equal(t, theirID, res.PeerID)
	assert.Equal(t, messages.Bitfield{0xe0}, res.Bitfield)
	assert.Equal(t, messages.NewHandshakeMessage(infoHash, ourID).ToBytes(), <-received)
}

func TestRequestResolvesInArrivalOrder(t *testing.T) {
	pc, remote := pipe(t)

	have := messages.NewHaveMessage(1).ToBytes()
	unchoke := messages.NewStateMessage(messages.UNCHOKE).ToBytes()
	out := messages.NewInterestedMessage().ToBytes()
	remotePeer(t, remote, len(out), have, unchoke)

	msgs, err := pc.Request(context.Background(), out, messages.HAVE, messages.UNCHOKE)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, messages.Message{Kind: messages.HAVE, Raw: have}, msgs[0])
	assert.Equal(t, messages.Message{Kind: messages.UNCHOKE, Raw: unchoke}, msgs[1])
}

func TestRequestOutOfOrderIsProtocolError(t *testing.T) {
	pc, remote := pipe(t)

	remotePeer(t, remote, messages.HandshakeSize,
		messages.NewBitfieldMessage([]byte{0xff}).ToBytes(),
		messages.NewHandshakeMessage(infoHash, theirID).ToBytes(),
	)

	_, err := pc.Request(context.Background(),
		messages.NewHandshakeMessage(infoHash, ourID).ToBytes(),
		messages.HANDSHAKE, messages.BITFIELD,
	)

	var perr *peer.ProtocolError
	require.True(t, errors.As(err, &perr), "got %v", err)
	assert.Equal(t, messages.HANDSHAKE, perr.Expected)
	assert.Equal(t, messages.BITFIELD, perr.Got)
}

func TestRemoteCloseFailsPendingRequest(t *testing.T) {
	pc, remote := pipe(t)

	received := make(chan struct{})
	go func() {
		buf := make([]byte, messages.HandshakeSize)
		io.ReadFull(remote, buf)
		remote.Write(messages.NewHandshakeMessage(infoHash, theirID).ToBytes())
		close(received)
		remote.Close()
	}()

	_, err := pc.Handshake(context.Background(), infoHash, ourID, true)
	<-received

	var cerr *peer.ConnectionError
	require.True(t, errors.As(err, &cerr), "got %v", err)
	assert.ErrorIs(t, err, io.EOF)

	<-pc.Done()
	assert.Error(t, pc.Err())
}

func TestRequestAfterCloseFails(t *testing.T) {
	pc, _ := pipe(t)
	require.NoError(t, pc.Close())

	_, err := pc.Request(context.Background(), messages.KeepAlive(), messages.UNCHOKE)

	var cerr *peer.ConnectionError
	require.True(t, errors.As(err, &cerr))
	assert.ErrorIs(t, err, net.ErrClosed)
}

func TestRequestNeedsExpectation(t *testing.T) {
	pc, _ := pipe(t)

	_, err := pc.Request(context.Background(), messages.KeepAlive())
	assert.ErrorIs(t, err, peer.ErrNoExpectation)
}

func TestKeepAliveIsNotMatched(t *testing.T) {
	var mu sync.Mutex
	var observed []messages.Kind
	pc, remote := pipe(t, peer.WithObserver(func(m messages.Message) {
		mu.Lock()
		defer mu.Unlock()
		observed = append(observed, m.Kind)
	}))

	out := messages.NewInterestedMessage().ToBytes()
	remotePeer(t, remote, len(out),
		messages.KeepAlive(),
		messages.NewStateMessage(messages.UNCHOKE).ToBytes(),
	)

	msgs, err := pc.Request(context.Background(), out, messages.UNCHOKE)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	// The observer runs after matching, so it may lag the reply.
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(observed) == 2
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []messages.Kind{messages.KEEP_ALIVE, messages.UNCHOKE}, observed)
}

func TestCancelClosesConnection(t *testing.T) {
	pc, remote := pipe(t)

	out := messages.NewInterestedMessage().ToBytes()
	remotePeer(t, remote, len(out))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := pc.Request(ctx, out, messages.UNCHOKE)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	select {
	case <-pc.Done():
	case <-time.After(time.Second):
		t.Fatal("connection still open after cancel")
	}
	assert.ErrorIs(t, pc.Err(), net.ErrClosed)
}

func TestCancelAfterReplyKeepsResult(t *testing.T) {
	for i := 0; i < 20; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		pc, remote := pipe(t, peer.WithObserver(func(m messages.Message) {
			if m.Kind == messages.UNCHOKE {
				cancel()
			}
		}))

		out := messages.NewInterestedMessage().ToBytes()
		remotePeer(t, remote, len(out), messages.NewStateMessage(messages.UNCHOKE).ToBytes())

		msgs, err := pc.Request(ctx, out, messages.UNCHOKE)
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.NoError(t, pc.Err())
		cancel()
	}
}

func TestConcurrentRequestsAreSerialized(t *testing.T) {
	pc, remote := pipe(t)

	// Answers each request before reading the next one; a second request
	// written early would be read here as garbage.
	go func() {
		buf := make([]byte, 17)
		for i := 0; i < 2; i++ {
			if _, err := io.ReadFull(remote, buf); err != nil {
				return
			}
			req, _ := messages.FromBytesRequestMessage(buf[5:])
			remote.Write(messages.NewPieceMessage(req.Idx, req.Begin, []byte{byte(req.Idx)}).ToBytes())
		}
	}()

	var wg sync.WaitGroup
	results := make([][]messages.Message, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out := messages.NewRequestMessage(uint32(i), 0, 1).ToBytes()
			results[i], errs[i] = pc.Request(context.Background(), out, messages.PIECE)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 2; i++ {
		require.NoError(t, errs[i])
		piece, err := messages.FromBytesPieceMessage(results[i][0].Payload())
		require.NoError(t, err)
		assert.Equal(t, uint32(i), piece.Idx)
	}
}

func TestOversizedFrameFailsConnection(t *testing.T) {
	pc, remote := pipe(t, peer.WithMaxMessageSize(64))

	out := messages.NewRequestMessage(0, 0, 100).ToBytes()
	remotePeer(t, remote, len(out),
		messages.NewPieceMessage(0, 0, make([]byte, 100)).ToBytes(),
	)

	_, err := pc.Request(context.Background(), out, messages.PIECE)

	var cerr *peer.ConnectionError
	require.ErrorAs(t, err, &cerr)
	<-pc.Done()
}

func TestHandshakeInfoHashMismatch(t *testing.T) {
	pc, remote := pipe(t)

	remotePeer(t, remote, messages.HandshakeSize,
		messages.NewHandshakeMessage([20]byte{9}, theirID).ToBytes(),
	)

	_, err := pc.Handshake(context.Background(), infoHash, ourID, false)
	assert.ErrorIs(t, err, peer.ErrInfoHashMismatch)
}

func TestDialLoopback(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		buf := make([]byte, messages.HandshakeSize)
		io.ReadFull(conn, buf)
		conn.Write(messages.NewHandshakeMessage(infoHash, theirID).ToBytes())
		io.Copy(io.Discard, conn)
	}()

	pc, err := peer.Dial(context.Background(), ln.Addr().String(), peer.WithDialTimeout(time.Second))
	require.NoError(t, err)
	defer pc.Close()

	res, err := pc.Handshake(context.Background(), infoHash, ourID, false)
	require.NoError(t, err)
	assert.Equal(t, theirID, res.PeerID)
	assert.Nil(t, res.Bitfield)
}
