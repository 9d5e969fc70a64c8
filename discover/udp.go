package discover

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/netip"
	"net/url"
	"os"
	"time"
)

const (
	PROTOCOL_ID = 0x41727101980
	CONNECT     = 0
	ANNOUNCE    = 1
	ERROR       = 3

	udpAttempts = 2
)

// Base wait for a UDP tracker reply, doubled on every retry.
var udpTimeout = 15 * time.Second

type ConnectRequest struct {
	ProtocolId    uint64
	Action        uint32
	TransactionId uint32
}

func NewConnectRequest() *ConnectRequest {
	return &ConnectRequest{
		ProtocolId:    PROTOCOL_ID,
		Action:        CONNECT,
		TransactionId: rand.Uint32(),
	}
}

func (c *ConnectRequest) ToBytes() []byte {
	b := make([]byte, 16)
	binary.BigEndian.PutUint64(b, c.ProtocolId)
	binary.BigEndian.PutUint32(b[8:], c.Action)
	binary.BigEndian.PutUint32(b[12:], c.TransactionId)
	return b
}

type ConnectResponse struct {
	Action        uint32
	TransactionId uint32
	ConnectionId  uint64
}

func NewConnectResponse(b []byte) (*ConnectResponse, error) {
	if len(b) < 16 {
		return nil, fmt.Errorf("connect response should have at least 16 bytes, it has %d", len(b))
	}
	return &ConnectResponse{
		Action:        binary.BigEndian.Uint32(b[0:4]),
		TransactionId: binary.BigEndian.Uint32(b[4:8]),
		ConnectionId:  binary.BigEndian.Uint64(b[8:16]),
	}, nil
}

type UDPAnnounceRequest struct {
	ConnectionId  uint64
	Action        uint32
	TransactionId uint32
	InfoHash      [20]byte
	PeerId        [20]byte
	Downloaded    uint64
	Left          uint64
	Uploaded      uint64
	Event         uint32
	IPAddr        uint32
	Key           uint32
	NumWant       int32
	Port          uint16
}

func NewUDPAnnounceRequest(connId uint64, req AnnounceRequest) *UDPAnnounceRequest {
	return &UDPAnnounceRequest{
		ConnectionId:  connId,
		Action:        ANNOUNCE,
		TransactionId: rand.Uint32(),
		InfoHash:      req.InfoHash,
		PeerId:        req.PeerID,
		Left:          uint64(req.Left),
		Key:           rand.Uint32(),
		NumWant:       -1,
		Port:          req.Port,
	}
}

func (a *UDPAnnounceRequest) ToBytes() []byte {
	b := make([]byte, 0, 98)
	b = binary.BigEndian.AppendUint64(b, a.ConnectionId)
	b = binary.BigEndian.AppendUint32(b, a.Action)
	b = binary.BigEndian.AppendUint32(b, a.TransactionId)
	b = append(b, a.InfoHash[:]...)
	b = append(b, a.PeerId[:]...)
	b = binary.BigEndian.AppendUint64(b, a.Downloaded)
	b = binary.BigEndian.AppendUint64(b, a.Left)
	b = binary.BigEndian.AppendUint64(b, a.Uploaded)
	b = binary.BigEndian.AppendUint32(b, a.Event)
	b = binary.BigEndian.AppendUint32(b, a.IPAddr)
	b = binary.BigEndian.AppendUint32(b, a.Key)
	b = binary.BigEndian.AppendUint32(b, uint32(a.NumWant))
	b = binary.BigEndian.AppendUint16(b, a.Port)
	return b
}

type UDPAnnounceResponse struct {
	Action        uint32
	TransactionId uint32
	Interval      uint32
	Leechers      uint32
	Seeders       uint32
	Peers         []netip.AddrPort
}

func NewUDPAnnounceResponse(b []byte) (*UDPAnnounceResponse, error) {
	if len(b) < 20 {
		return nil, fmt.Errorf("announce response should have at least 20 bytes, it has %d", len(b))
	}

	res := &UDPAnnounceResponse{
		Action:        binary.BigEndian.Uint32(b[0:4]),
		TransactionId: binary.BigEndian.Uint32(b[4:8]),
		Interval:      binary.BigEndian.Uint32(b[8:12]),
		Leechers:      binary.BigEndian.Uint32(b[12:16]),
		Seeders:       binary.BigEndian.Uint32(b[16:20]),
	}

	// Trailing bytes that do not form a whole peer are ignored.
	peersLen := (len(b) - 20) / compactPeerSize * compactPeerSize
	peers, err := ParseCompactPeers(b[20 : 20+peersLen])
	if err != nil {
		return nil, err
	}
	res.Peers = peers

	return res, nil
}

// AnnounceUDP runs the connect and announce exchanges against a UDP tracker,
// retrying each once after a timeout.
func AnnounceUDP(ctx context.Context, req AnnounceRequest) (*TrackerResponse, error) {
	u, err := url.Parse(req.Announce)
	if err != nil {
		return nil, err
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", u.Host)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	// Unblock reads when ctx ends.
	stop := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Now())
	})
	defer stop()

	buf := make([]byte, 20+compactPeerSize*5000)

	connectReq := NewConnectRequest()
	b, err := roundTrip(ctx, conn, connectReq.ToBytes(), connectReq.TransactionId, buf)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	connectRes, err := NewConnectResponse(b)
	if err != nil {
		return nil, err
	}
	if connectRes.Action != CONNECT {
		return nil, fmt.Errorf("connect answered with action %d", connectRes.Action)
	}

	announceReq := NewUDPAnnounceRequest(connectRes.ConnectionId, req)
	b, err = roundTrip(ctx, conn, announceReq.ToBytes(), announceReq.TransactionId, buf)
	if err != nil {
		return nil, fmt.Errorf("announce: %w", err)
	}

	res, err := NewUDPAnnounceResponse(b)
	if err != nil {
		return nil, err
	}
	if res.Action != ANNOUNCE {
		return nil, fmt.Errorf("announce answered with action %d", res.Action)
	}

	return &TrackerResponse{
		Interval: int(res.Interval),
		Peers:    res.Peers,
	}, nil
}

// roundTrip writes packet and returns the reply carrying transactionId.
func roundTrip(ctx context.Context, conn net.Conn, packet []byte, transactionId uint32, buf []byte) ([]byte, error) {
	for i := 0; i < udpAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := conn.Write(packet); err != nil {
			return nil, err
		}

		conn.SetReadDeadline(time.Now().Add(udpTimeout << i))
		n, err := conn.Read(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			return nil, err
		}
		if n < 8 {
			return nil, fmt.Errorf("reply of %d bytes is too short", n)
		}

		if binary.BigEndian.Uint32(buf[4:8]) != transactionId {
			return nil, fmt.Errorf("reply transaction id does not match")
		}
		if binary.BigEndian.Uint32(buf[0:4]) == ERROR {
			return nil, fmt.Errorf("%w: %s", ErrTrackerFailure, buf[8:n])
		}

		return buf[:n], nil
	}

	return nil, fmt.Errorf("no reply after %d attempts", udpAttempts)
}
