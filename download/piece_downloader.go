package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/joaovictorsl/tpeer/messages"
)

var (
	ErrBlockMismatch   = errors.New("peer sent a different block than requested")
	ErrPieceOutOfRange = errors.New("piece index out of range")
)

// Requester sends one message and waits for the expected replies.
// *peer.PeerConn satisfies it.
type Requester interface {
	Request(ctx context.Context, out []byte, expect ...messages.Kind) ([]messages.Message, error)
}

type PieceDownloader struct {
	r        Requester
	layout   Layout
	log      *log.Logger
	progress func(done, total int)
}

type Option func(*PieceDownloader)

func WithLogger(l *log.Logger) Option {
	return func(d *PieceDownloader) {
		d.log = l
	}
}

// WithProgress is called by DownloadFile after every stored piece.
func WithProgress(fn func(done, total int)) Option {
	return func(d *PieceDownloader) {
		d.progress = fn
	}
}

func NewPieceDownloader(r Requester, layout Layout, opts ...Option) *PieceDownloader {
	d := &PieceDownloader{
		r:      r,
		layout: layout,
		log:    log.New(io.Discard, "[PieceDownloader] ", log.Flags()),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// DownloadPiece fetches piece index block by block, one request at a time,
// writing each block to sink at at plus the block's offset in the piece.
// The piece hash is not checked.
func (d *PieceDownloader) DownloadPiece(ctx context.Context, index int, sink io.WriterAt, at int64) error {
	if index < 0 || index >= d.layout.PieceCount() {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrPieceOutOfRange, index, d.layout.PieceCount())
	}

	d.log.Printf("Downloading piece %d\n", index)

	for _, b := range d.layout.Blocks(index) {
		req := messages.NewRequestMessage(uint32(index), uint32(b.Begin), uint32(b.Length))

		msgs, err := d.r.Request(ctx, req.ToBytes(), messages.PIECE)
		if err != nil {
			return err
		}

		block, err := d.checkBlock(msgs[0], req)
		if err != nil {
			return err
		}

		if _, err := sink.WriteAt(block, at+b.Begin); err != nil {
			return err
		}
	}

	d.log.Printf("Stored piece %d\n", index)
	return nil
}

// DownloadFile downloads every piece in order to its offset in sink.
func (d *PieceDownloader) DownloadFile(ctx context.Context, sink io.WriterAt) error {
	count := d.layout.PieceCount()
	pm := NewPieceManager(count, d.progress)

	for i := 0; i < count; i++ {
		if err := d.DownloadPiece(ctx, i, sink, d.layout.PieceOffset(i)); err != nil {
			d.log.Printf("Piece %d failed: %v\n", i, err)
			return err
		}
		pm.Notify(i)
	}

	return nil
}

func (d *PieceDownloader) checkBlock(msg messages.Message, req *messages.RequestMessage) ([]byte, error) {
	piece, err := messages.FromBytesPieceMessage(msg.Payload())
	if err != nil {
		return nil, err
	}

	if piece.Idx != req.Idx || piece.Begin != req.Begin {
		return nil, fmt.Errorf("%w: asked for %d@%d, got %d@%d", ErrBlockMismatch, req.Idx, req.Begin, piece.Idx, piece.Begin)
	}
	if len(piece.Block) != int(req.Length) {
		return nil, fmt.Errorf("%w: asked for %d bytes, got %d", ErrBlockMismatch, req.Length, len(piece.Block))
	}

	return msg.Raw[messages.PieceBlockOffset:], nil
}
