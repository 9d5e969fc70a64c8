package discover

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/joaovictorsl/bencoding"
)

const (
	DefaultPeerID = "00112233445566778899"
	DefaultPort   = 6881
)

type AnnounceRequest struct {
	Announce string
	InfoHash [20]byte
	PeerID   [20]byte
	Port     uint16
	Left     int64
}

// Announce picks the HTTP or UDP tracker protocol from the announce URL.
func Announce(ctx context.Context, client *http.Client, req AnnounceRequest) (*TrackerResponse, error) {
	u, err := url.Parse(req.Announce)
	if err != nil {
		return nil, err
	}

	switch u.Scheme {
	case "http", "https":
		return AnnounceHTTP(ctx, client, req)
	case "udp":
		return AnnounceUDP(ctx, req)
	default:
		return nil, fmt.Errorf("unsupported tracker scheme %q", u.Scheme)
	}
}

func AnnounceHTTP(ctx context.Context, client *http.Client, req AnnounceRequest) (*TrackerResponse, error) {
	u, err := url.Parse(req.Announce)
	if err != nil {
		return nil, err
	}

	params := u.Query()
	params.Set("info_hash", string(req.InfoHash[:]))
	params.Set("peer_id", string(req.PeerID[:]))
	params.Set("port", strconv.Itoa(int(req.Port)))
	params.Set("uploaded", "0")
	params.Set("downloaded", "0")
	params.Set("left", strconv.FormatInt(req.Left, 10))
	params.Set("compact", "1")
	u.RawQuery = params.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	if client == nil {
		client = http.DefaultClient
	}

	res, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: http status %s", ErrTrackerFailure, res.Status)
	}

	data, err := bencoding.DecodeTo[map[string]interface{}](bufio.NewReader(res.Body))
	if err != nil {
		return nil, fmt.Errorf("decode tracker response: %w", err)
	}

	return TrackerResponseFrom(data)
}
