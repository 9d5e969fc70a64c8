package discover

import (
	"encoding/binary"
	"fmt"
	"net/netip"
)

const compactPeerSize = 6

// ParseCompactPeers reads the 6 byte per peer form: IPv4 followed by a big
// endian port.
func ParseCompactPeers(b []byte) ([]netip.AddrPort, error) {
	if len(b)%compactPeerSize != 0 {
		return nil, fmt.Errorf("compact peers should be a multiple of %d bytes, got %d", compactPeerSize, len(b))
	}

	peers := make([]netip.AddrPort, 0, len(b)/compactPeerSize)
	for i := 0; i < len(b); i += compactPeerSize {
		currPeer := b[i : i+compactPeerSize]
		ip := netip.AddrFrom4([4]byte(currPeer[:4]))
		port := binary.BigEndian.Uint16(currPeer[4:])

		peers = append(peers, netip.AddrPortFrom(ip, port))
	}

	return peers, nil
}
