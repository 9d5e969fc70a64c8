package peer

import (
	"context"

	"github.com/joaovictorsl/tpeer/messages"
)

type HandshakeResult struct {
	PeerID   [20]byte
	Bitfield messages.Bitfield
}

// Handshake exchanges handshakes. With withBitfield the peer's bitfield that
// follows the handshake is awaited too.
func (pc *PeerConn) Handshake(ctx context.Context, infoHash, peerID [20]byte, withBitfield bool) (*HandshakeResult, error) {
	expect := []messages.Kind{messages.HANDSHAKE}
	if withBitfield {
		expect = append(expect, messages.BITFIELD)
	}

	msgs, err := pc.Request(ctx, messages.NewHandshakeMessage(infoHash, peerID).ToBytes(), expect...)
	if err != nil {
		return nil, err
	}

	hs, err := messages.ParseHandshake(msgs[0].Raw)
	if err != nil {
		return nil, err
	}
	if hs.InfoHash != infoHash {
		return nil, ErrInfoHashMismatch
	}

	res := &HandshakeResult{PeerID: hs.PeerID}
	if withBitfield {
		bf, err := msgs[1].Decode()
		if err != nil {
			return nil, err
		}
		res.Bitfield = bf.(*messages.BitfieldMessage).Bitfield()
	}

	pc.log.Printf("Handshake done with %x\n", hs.PeerID)
	return res, nil
}

// Interested tells the peer we want data and waits to be unchoked.
func (pc *PeerConn) Interested(ctx context.Context) error {
	_, err := pc.Request(ctx, messages.NewInterestedMessage().ToBytes(), messages.UNCHOKE)
	return err
}
