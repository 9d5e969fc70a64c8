package torrent

import "github.com/joaovictorsl/tpeer/bencode"

type ITorrentData interface {
	// URL of the main tracker
	Announce() string
	// URL of trackers, the main one first
	Announcers() []string
	// Information about the file(s)
	Info() ITorrentInfo
}

type ITorrentInfo interface {
	// A UTF-8 encoded string which is the suggested name to save the
	// file (or directory) as.
	//
	// It is purely advisory.
	Name() string
	// Number of bytes in each piece the file is split into. For the
	// purposes of transfer, files are split into fixed-size pieces
	// which are all the same length except for possibly the last one
	// which may be truncated.
	//
	// This is almost always a power of two, most commonly
	// 2 18 = 256 K (BitTorrent prior to version 3.2 uses 2 20 = 1 M as default)
	PieceLength() int64
	// String whose length is a multiple of 20. It is to be subdivided into
	// strings of length 20, each of which is the SHA1 hash of the piece at
	// the corresponding index.
	Pieces() [][]byte
	// Number of pieces, ceil(TotalLength / PieceLength).
	PieceCount() int
	// Size of piece i, only the last one may be shorter.
	PieceSize(i int) int64
	// Offset of piece i in the concatenated content.
	PieceOffset(i int) int64
	// Length of the file(s) in bytes.
	TotalLength() int64
	// List of all files which should be downloaded.
	Files() []ITorrentFileInfo
	// SHA1 of the bencoded info dictionary
	Hash() [20]byte
	// The info dictionary as decoded
	Dict() *bencode.Dict
}

type ITorrentFileInfo interface {
	// Length of the file in bytes.
	Length() int64
	// A list of UTF-8 encoded strings corresponding to subdirectory names,
	// the last of which is the actual file name.
	Path() []string
	// File name
	Name() string
}
