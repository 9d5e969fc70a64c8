package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/joaovictorsl/tpeer/discover"
	"github.com/joaovictorsl/tpeer/peer"
)

type Config struct {
	PeerID      [20]byte
	Port        uint16
	DialTimeout time.Duration
	Verbose     bool
}

func DefaultConfig() Config {
	return Config{
		PeerID:      [20]byte([]byte(discover.DefaultPeerID)),
		Port:        discover.DefaultPort,
		DialTimeout: peer.DefaultDialTimeout,
	}
}

// parseConfig reads the flags that come before the subcommand.
func parseConfig(args []string) (Config, []string, error) {
	cfg := DefaultConfig()

	fs := flag.NewFlagSet("tpeer", flag.ContinueOnError)
	peerID := fs.String("peer-id", discover.DefaultPeerID, "20 byte peer id sent to trackers and peers")
	port := fs.Uint("port", uint(cfg.Port), "port announced to trackers")
	fs.DurationVar(&cfg.DialTimeout, "dial-timeout", cfg.DialTimeout, "timeout for connecting to a peer")
	fs.BoolVar(&cfg.Verbose, "v", false, "log to stderr")

	if err := fs.Parse(args); err != nil {
		return cfg, nil, err
	}

	if len(*peerID) != 20 {
		return cfg, nil, fmt.Errorf("peer id should have 20 bytes, it has %d", len(*peerID))
	}
	copy(cfg.PeerID[:], *peerID)

	if *port > 0xffff {
		return cfg, nil, fmt.Errorf("port %d out of range", *port)
	}
	cfg.Port = uint16(*port)

	return cfg, fs.Args(), nil
}

func (cfg Config) logger(component string) *log.Logger {
	var w io.Writer = io.Discard
	if cfg.Verbose {
		w = os.Stderr
	}
	return log.New(w, "["+component+"] ", log.Flags())
}
