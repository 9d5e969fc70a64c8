package discover

import (
	"errors"
	"fmt"
	"net/netip"
)

var (
	ErrTrackerFailure = errors.New("tracker failure")
	ErrFieldMissing   = errors.New("field missing in tracker response")
)

type TrackerResponse struct {
	Interval int
	Peers    []netip.AddrPort
}

// TrackerResponseFrom reads a decoded HTTP announce response. Peers may come
// compact or as a list of dictionaries.
func TrackerResponseFrom(source map[string]interface{}) (*TrackerResponse, error) {
	if reason, ok := source["failure reason"].(string); ok {
		return nil, fmt.Errorf("%w: %s", ErrTrackerFailure, reason)
	}

	interval, err := getField[int]("interval", source)
	if err != nil {
		return nil, err
	}

	tr := &TrackerResponse{Interval: interval}

	switch peers := source["peers"].(type) {
	case string:
		tr.Peers, err = ParseCompactPeers([]byte(peers))
	case []interface{}:
		tr.Peers, err = peersFromList(peers)
	case nil:
		err = fmt.Errorf("%w: peers", ErrFieldMissing)
	default:
		err = fmt.Errorf("peers has unexpected type %T", peers)
	}
	if err != nil {
		return nil, err
	}

	return tr, nil
}

func peersFromList(list []interface{}) ([]netip.AddrPort, error) {
	peers := make([]netip.AddrPort, 0, len(list))

	for _, item := range list {
		d, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("peer entry has unexpected type %T", item)
		}

		ip, err := getField[string]("ip", d)
		if err != nil {
			return nil, err
		}
		port, err := getField[int]("port", d)
		if err != nil {
			return nil, err
		}

		addr, err := netip.ParseAddr(ip)
		if err != nil {
			return nil, err
		}
		if port < 0 || port > 0xffff {
			return nil, fmt.Errorf("peer port %d out of range", port)
		}

		peers = append(peers, netip.AddrPortFrom(addr, uint16(port)))
	}

	return peers, nil
}

func getField[T any](field string, source map[string]interface{}) (T, error) {
	var zero T

	v, ok := source[field]
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrFieldMissing, field)
	}

	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%s should be %T, it is %T", field, zero, v)
	}

	return t, nil
}
