package discover

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/netip"
	"slices"

	"github.com/joaovictorsl/gorkpool"
	"github.com/joaovictorsl/tpeer/torrent"
)

// PeerDiscovery runs one announce worker per tracker of a torrent.
type PeerDiscovery struct {
	ctx    context.Context
	cancel context.CancelFunc
	pool   *gorkpool.GorkPool[string, struct{}, AnnounceResult]
	td     torrent.ITorrentData
	log    *log.Logger
}

type Option func(*discoveryOptions)

type discoveryOptions struct {
	client *http.Client
	log    *log.Logger
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *discoveryOptions) {
		o.client = c
	}
}

func WithLogger(l *log.Logger) Option {
	return func(o *discoveryOptions) {
		o.log = l
	}
}

func NewPeerDiscovery(ctx context.Context, td torrent.ITorrentData, peerID [20]byte, port uint16, opts ...Option) *PeerDiscovery {
	o := &discoveryOptions{
		client: http.DefaultClient,
		log:    log.New(io.Discard, "[PeerDiscovery] ", log.Flags()),
	}
	for _, opt := range opts {
		opt(o)
	}

	discoveryCtx, cancel := context.WithCancel(ctx)
	pool := gorkpool.NewGorkPool(
		discoveryCtx,
		make(chan struct{}),
		make(chan AnnounceResult),
		func(id string, ic chan struct{}, oc chan AnnounceResult) (gorkpool.GorkWorker[string, struct{}, AnnounceResult], error) {
			req := AnnounceRequest{
				Announce: id,
				InfoHash: td.Info().Hash(),
				PeerID:   peerID,
				Port:     port,
				Left:     td.Info().TotalLength(),
			}
			return NewPeerDiscoverWorker(discoveryCtx, req, o.client, ic, oc, o.log), nil
		},
	)

	return &PeerDiscovery{
		ctx:    discoveryCtx,
		cancel: cancel,
		pool:   pool,
		td:     td,
		log:    o.log,
	}
}

// Start launches a worker per announcer, each announcing once right away.
func (pd *PeerDiscovery) Start() {
	for _, a := range pd.td.Announcers() {
		if !pd.pool.Contains(a) {
			pd.pool.AddWorker(a)
		}
	}
}

func (pd *PeerDiscovery) Results() chan AnnounceResult {
	return pd.pool.OutputCh()
}

// GetMorePeers asks one of the workers to announce again.
func (pd *PeerDiscovery) GetMorePeers() {
	pd.pool.AddTask(struct{}{})
}

func (pd *PeerDiscovery) Stop() {
	pd.cancel()
}

// Discover announces to every tracker once and returns the distinct peers
// they returned. When trackers answered without peers one more announce is
// requested. It fails only when no tracker answered.
func (pd *PeerDiscovery) Discover(ctx context.Context) ([]netip.AddrPort, error) {
	defer pd.Stop()
	pd.Start()

	var (
		peers []netip.AddrPort
		errs  []error
	)

	collect := func() error {
		select {
		case res := <-pd.Results():
			if res.Err != nil {
				errs = append(errs, res.Err)
				return nil
			}

			for _, p := range res.Response.Peers {
				if !slices.Contains(peers, p) {
					peers = append(peers, p)
				}
			}
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-pd.ctx.Done():
			return pd.ctx.Err()
		}
	}

	announcers := len(pd.td.Announcers())
	for i := 0; i < announcers; i++ {
		if err := collect(); err != nil {
			return nil, err
		}
	}

	if len(errs) == announcers {
		return nil, errors.Join(errs...)
	}

	if len(peers) == 0 {
		pd.log.Println("Trackers returned no peers, announcing again")
		pd.GetMorePeers()
		if err := collect(); err != nil {
			return nil, err
		}
	}

	pd.log.Printf("Discovered %d peers, %d announces failed\n", len(peers), len(errs))
	return peers, nil
}
