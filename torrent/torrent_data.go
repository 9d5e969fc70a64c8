package torrent

import (
	"errors"
	"fmt"
	"slices"

	"github.com/joaovictorsl/tpeer/bencode"
)

var (
	ErrFieldMissing = errors.New("field missing")
	ErrNotATorrent  = errors.New("metainfo is not a dictionary")
)

type torrentData struct {
	// URL of the main tracker
	announce string
	// URL of trackers
	announcers []string
	// Information about the file(s)
	info *torrentInfo
}

func (td torrentData) Announce() string {
	return td.announce
}

func (td torrentData) Announcers() []string {
	return td.announcers
}

func (td torrentData) Info() ITorrentInfo {
	return td.info
}

// Parse decodes a metainfo file and builds its torrent data.
func Parse(metainfo []byte) (ITorrentData, error) {
	v, err := bencode.Decode(metainfo)
	if err != nil {
		return nil, err
	}

	return TorrentDataFrom(v)
}

func TorrentDataFrom(v bencode.Value) (ITorrentData, error) {
	source, ok := bencode.DictOf(v)
	if !ok {
		return nil, ErrNotATorrent
	}

	// Get announcers
	announce := ""
	announcers := make([]string, 0)
	if a, err := getField[bencode.String]("announce", source); err == nil {
		announce = string(a)
		announcers = append(announcers, announce)
	} else if !errors.Is(err, ErrFieldMissing) {
		return nil, err
	}

	announceList, err := getField[bencode.List]("announce-list", source)
	if err != nil && !errors.Is(err, ErrFieldMissing) {
		return nil, err
	}
	for _, tier := range announceList {
		urls, ok := bencode.ListOf(tier)
		if !ok {
			return nil, fmt.Errorf("announce-list is not a list of list of string")
		}
		for _, u := range urls {
			s, ok := bencode.Str(u)
			if !ok {
				return nil, fmt.Errorf("announce-list is not a list of list of string")
			}
			if !slices.Contains(announcers, string(s)) {
				announcers = append(announcers, string(s))
			}
		}
	}

	if len(announcers) == 0 {
		return nil, fmt.Errorf("announce: %w", ErrFieldMissing)
	}
	if announce == "" {
		announce = announcers[0]
	}

	// Get info
	mapInfo, err := getField[*bencode.Dict]("info", source)
	if err != nil {
		return nil, err
	}

	ti, err := torrentInfoFrom(mapInfo)
	if err != nil {
		return nil, fmt.Errorf("info: %w", err)
	}

	return &torrentData{
		announce:   announce,
		announcers: announcers,
		info:       ti,
	}, nil
}
