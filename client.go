package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/netip"
	"os"
	"strconv"

	"github.com/joaovictorsl/tpeer/bencode"
	"github.com/joaovictorsl/tpeer/discover"
	"github.com/joaovictorsl/tpeer/download"
	"github.com/joaovictorsl/tpeer/peer"
	"github.com/joaovictorsl/tpeer/torrent"
)

type client struct {
	cfg Config
	out io.Writer
}

func (c *client) Decode(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: decode <bencoded value>")
	}

	v, err := bencode.Decode([]byte(args[0]))
	if err != nil {
		return err
	}

	out, err := toJSON(v)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.out, string(out))
	return nil
}

func (c *client) Info(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: info <torrent>")
	}

	td, err := readTorrent(args[0])
	if err != nil {
		return err
	}

	info := td.Info()
	fmt.Fprintf(c.out, "Tracker URL: %s\n", td.Announce())
	fmt.Fprintf(c.out, "Length: %d\n", info.TotalLength())
	fmt.Fprintf(c.out, "Info Hash: %x\n", info.Hash())
	fmt.Fprintf(c.out, "Piece Length: %d\n", info.PieceLength())
	fmt.Fprintln(c.out, "Piece Hashes:")
	for _, h := range info.Pieces() {
		fmt.Fprintf(c.out, "%x\n", h)
	}

	return nil
}

func (c *client) Peers(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: peers <torrent>")
	}

	td, err := readTorrent(args[0])
	if err != nil {
		return err
	}

	peers, err := c.discoverPeers(ctx, td)
	if err != nil {
		return err
	}

	for _, p := range peers {
		fmt.Fprintln(c.out, p)
	}

	return nil
}

func (c *client) Handshake(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: handshake <torrent> <ip:port>")
	}

	td, err := readTorrent(args[0])
	if err != nil {
		return err
	}

	pc, err := peer.Dial(ctx, args[1], c.peerOptions()...)
	if err != nil {
		return err
	}
	defer pc.Close()

	res, err := pc.Handshake(ctx, td.Info().Hash(), c.cfg.PeerID, false)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Peer ID: %x\n", res.PeerID)
	return nil
}

func (c *client) DownloadPiece(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("download_piece", flag.ContinueOnError)
	output := fs.String("o", "", "output file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *output == "" || fs.NArg() != 2 {
		return errors.New("usage: download_piece -o <output> <torrent> <piece index>")
	}

	td, err := readTorrent(fs.Arg(0))
	if err != nil {
		return err
	}

	index, err := strconv.Atoi(fs.Arg(1))
	if err != nil {
		return fmt.Errorf("piece index: %w", err)
	}
	layout := download.LayoutOf(td.Info())
	if index < 0 || index >= layout.PieceCount() {
		return fmt.Errorf("%w: %d not in [0, %d)", download.ErrPieceOutOfRange, index, layout.PieceCount())
	}

	return c.withSeeder(ctx, td, index, *output, func(d *download.PieceDownloader, sink io.WriterAt) error {
		return d.DownloadPiece(ctx, index, sink, 0)
	})
}

func (c *client) Download(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	output := fs.String("o", "", "output file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *output == "" || fs.NArg() != 1 {
		return errors.New("usage: download -o <output> <torrent>")
	}

	td, err := readTorrent(fs.Arg(0))
	if err != nil {
		return err
	}

	return c.withSeeder(ctx, td, -1, *output, func(d *download.PieceDownloader, sink io.WriterAt) error {
		return d.DownloadFile(ctx, sink)
	})
}

// withSeeder finds a peer that has piece (every piece when negative), opens
// output and runs fn against it. Blocks written before a failure stay in
// output.
func (c *client) withSeeder(ctx context.Context, td torrent.ITorrentData, piece int, output string, fn func(*download.PieceDownloader, io.WriterAt) error) error {
	peers, err := c.discoverPeers(ctx, td)
	if err != nil {
		return err
	}

	pc, err := c.openSession(ctx, td, peers, piece)
	if err != nil {
		return err
	}
	defer pc.Close()

	f, err := os.Create(output)
	if err != nil {
		return err
	}

	d := download.NewPieceDownloader(pc, download.LayoutOf(td.Info()),
		download.WithLogger(c.cfg.logger("PieceDownloader")),
		download.WithProgress(c.presentProgress),
	)

	if err := fn(d, f); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// openSession returns the first peer that completes the handshake, claims to
// have the wanted piece and unchokes us.
func (c *client) openSession(ctx context.Context, td torrent.ITorrentData, peers []netip.AddrPort, piece int) (*peer.PeerConn, error) {
	log := c.cfg.logger("Client")
	var errs []error

	for _, addr := range peers {
		pc, err := c.trySession(ctx, td, addr, piece)
		if err == nil {
			return pc, nil
		}

		log.Println("Skipping peer", addr, err)
		errs = append(errs, fmt.Errorf("%s: %w", addr, err))

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("no usable peer: %w", errors.Join(errs...))
}

func (c *client) trySession(ctx context.Context, td torrent.ITorrentData, addr netip.AddrPort, piece int) (*peer.PeerConn, error) {
	pc, err := peer.Dial(ctx, addr.String(), c.peerOptions()...)
	if err != nil {
		return nil, err
	}

	res, err := pc.Handshake(ctx, td.Info().Hash(), c.cfg.PeerID, true)
	if err != nil {
		pc.Close()
		return nil, err
	}

	if !hasPieces(res, piece, len(td.Info().Pieces())) {
		pc.Close()
		return nil, errors.New("peer does not have the wanted pieces")
	}

	if err := pc.Interested(ctx); err != nil {
		pc.Close()
		return nil, err
	}

	return pc, nil
}

func hasPieces(res *peer.HandshakeResult, piece, count int) bool {
	if piece >= 0 {
		return res.Bitfield.HasPiece(piece)
	}

	for i := 0; i < count; i++ {
		if !res.Bitfield.HasPiece(i) {
			return false
		}
	}
	return true
}

func (c *client) discoverPeers(ctx context.Context, td torrent.ITorrentData) ([]netip.AddrPort, error) {
	pd := discover.NewPeerDiscovery(ctx, td, c.cfg.PeerID, c.cfg.Port,
		discover.WithLogger(c.cfg.logger("PeerDiscovery")),
	)

	peers, err := pd.Discover(ctx)
	if err != nil {
		return nil, err
	}
	if len(peers) == 0 {
		return nil, errors.New("trackers returned no peers")
	}

	return peers, nil
}

func (c *client) peerOptions() []peer.Option {
	return []peer.Option{
		peer.WithDialTimeout(c.cfg.DialTimeout),
		peer.WithLogger(c.cfg.logger("PeerConn")),
	}
}

func (c *client) presentProgress(done, total int) {
	if c.cfg.Verbose {
		fmt.Fprintf(os.Stderr, "\r%.2f%%", float32(done)/float32(total)*100)
		if done == total {
			fmt.Fprintln(os.Stderr)
		}
	}
}

func readTorrent(path string) (torrent.ITorrentData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return torrent.Parse(data)
}
