package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

const usage = `usage: tpeer [-v] [-peer-id id] [-port port] [-dial-timeout d] <command> [args]

commands:
  decode <bencoded value>
  info <torrent>
  peers <torrent>
  handshake <torrent> <ip:port>
  download_piece -o <output> <torrent> <piece index>
  download -o <output> <torrent>`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg, args, err := parseConfig(args)
	if err != nil {
		return err
	}

	if len(args) < 1 {
		return fmt.Errorf("%s", usage)
	}

	c := &client{cfg: cfg, out: os.Stdout}
	command, args := args[0], args[1:]

	switch command {
	case "decode":
		return c.Decode(args)
	case "info":
		return c.Info(args)
	case "peers":
		return c.Peers(ctx, args)
	case "handshake":
		return c.Handshake(ctx, args)
	case "download_piece":
		return c.DownloadPiece(ctx, args)
	case "download":
		return c.Download(ctx, args)
	default:
		return fmt.Errorf("unknown command: %s\n%s", command, usage)
	}
}
