package discover

import (
	"context"
	"log"
	"net/http"
)

type AnnounceResult struct {
	Tracker  string
	Response *TrackerResponse
	Err      error
}

// PeerDiscoverWorker announces to one tracker when it starts and again on
// every task it takes from the pool.
type PeerDiscoverWorker struct {
	ctx    context.Context
	req    AnnounceRequest
	client *http.Client
	taskCh chan struct{}
	outCh  chan AnnounceResult

	log *log.Logger
}

func NewPeerDiscoverWorker(ctx context.Context, req AnnounceRequest, client *http.Client, taskCh chan struct{}, outCh chan AnnounceResult, l *log.Logger) *PeerDiscoverWorker {
	return &PeerDiscoverWorker{
		ctx:    ctx,
		req:    req,
		client: client,
		taskCh: taskCh,
		outCh:  outCh,
		log:    l,
	}
}

func (w *PeerDiscoverWorker) ID() string {
	return w.req.Announce
}

func (w *PeerDiscoverWorker) SignalRemoval() {
	// Nothing to release, the worker stops with its context.
}

func (w *PeerDiscoverWorker) Process() {
	w.announce()

	for {
		select {
		case <-w.ctx.Done():
			return
		case _, ok := <-w.taskCh:
			if !ok {
				return
			}
			w.announce()
		}
	}
}

func (w *PeerDiscoverWorker) announce() {
	w.log.Println("Announcing to", w.req.Announce)

	tr, err := Announce(w.ctx, w.client, w.req)
	if err != nil {
		w.log.Println("Announce failed", w.req.Announce, err)
	} else {
		w.log.Printf("%s returned %d peers\n", w.req.Announce, len(tr.Peers))
	}

	select {
	case w.outCh <- AnnounceResult{Tracker: w.req.Announce, Response: tr, Err: err}:
	case <-w.ctx.Done():
	}
}
