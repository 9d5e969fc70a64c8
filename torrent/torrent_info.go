package torrent

import (
	"fmt"

	"github.com/joaovictorsl/tpeer/bencode"
	"github.com/joaovictorsl/tpeer/util"
)

const pieceHashLen = 20

type torrentInfo struct {
	// A UTF-8 encoded string which is the suggested name to save the
	// file (or directory) as.
	//
	// It is purely advisory.
	name string
	// Number of bytes in each piece the file is split into.
	pieceLength int64
	// SHA1 hash of every piece, in piece order.
	pieces [][]byte
	// Length of the file in bytes.
	//
	// If this field is != 0 then the download
	// represents a single file.
	length int64
	// List of all the files in the download.
	//
	// If this field is != nil then the download
	// represents multiple files.
	files []*torrentFileInfo
	// Info hash
	hash [20]byte
	// Decoded info dictionary, kept to hash it exactly as it was received.
	dict *bencode.Dict
}

func (ti torrentInfo) Name() string {
	return ti.name
}

func (ti torrentInfo) PieceLength() int64 {
	return ti.pieceLength
}

func (ti torrentInfo) Pieces() [][]byte {
	return ti.pieces
}

func (ti torrentInfo) PieceCount() int {
	return len(ti.pieces)
}

// PieceSize is the piece length for every piece but the last, which holds
// the remainder. Zero for indexes out of range.
func (ti torrentInfo) PieceSize(i int) int64 {
	count := ti.PieceCount()
	switch {
	case i < 0 || i >= count:
		return 0
	case i == count-1:
		return ti.TotalLength() - ti.pieceLength*int64(count-1)
	default:
		return ti.pieceLength
	}
}

func (ti torrentInfo) PieceOffset(i int) int64 {
	return int64(i) * ti.pieceLength
}

func (ti torrentInfo) TotalLength() int64 {
	if ti.files == nil {
		return ti.length
	}

	length := int64(0)
	for _, f := range ti.files {
		length += f.length
	}
	return length
}

func (ti torrentInfo) Files() []ITorrentFileInfo {
	if ti.files == nil {
		return []ITorrentFileInfo{
			torrentFileInfo{length: ti.length, path: []string{ti.name}},
		}
	}

	files := make([]ITorrentFileInfo, len(ti.files))
	for i, f := range ti.files {
		files[i] = f
	}
	return files
}

func (ti torrentInfo) Hash() [20]byte {
	return ti.hash
}

func (ti torrentInfo) Dict() *bencode.Dict {
	return ti.dict
}

// InfoHash is the SHA1 of the info dictionary re-encoded in the order it was
// decoded, so it hashes exactly the received bytes.
func InfoHash(info *bencode.Dict) [20]byte {
	return util.CalcHash(bencode.Encode(info))
}

func torrentInfoFrom(mapInfo *bencode.Dict) (*torrentInfo, error) {
	// Get name
	name, err := getField[bencode.String]("name", mapInfo)
	if err != nil {
		return nil, err
	}

	// Get piece length
	pieceLength, err := getLength("piece length", mapInfo)
	if err != nil {
		return nil, err
	}
	if pieceLength == 0 {
		return nil, fmt.Errorf("piece length must be positive")
	}

	// Get pieces
	piecesStr, err := getField[bencode.String]("pieces", mapInfo)
	if err != nil {
		return nil, err
	}
	if len(piecesStr)%pieceHashLen != 0 {
		return nil, fmt.Errorf("pieces length %d is not a multiple of %d", len(piecesStr), pieceHashLen)
	}
	pieces := make([][]byte, 0, len(piecesStr)/pieceHashLen)
	for i := 0; i < len(piecesStr); i += pieceHashLen {
		pieces = append(pieces, piecesStr[i:i+pieceHashLen])
	}

	// Get length or files
	okL := mapInfo.Has("length")
	okF := mapInfo.Has("files")
	if okL == okF {
		return nil, fmt.Errorf("there can only be a key length or a key files, not both or neither")
	}

	ti := &torrentInfo{
		name:        string(name),
		pieceLength: pieceLength,
		pieces:      pieces,
		dict:        mapInfo,
		hash:        InfoHash(mapInfo),
	}

	if okL {
		ti.length, err = getLength("length", mapInfo)
		if err != nil {
			return nil, err
		}
	} else {
		ti.files, err = filesFrom(mapInfo)
		if err != nil {
			return nil, err
		}
	}

	if want := pieceCount(ti.TotalLength(), pieceLength); want != int64(len(pieces)) {
		return nil, fmt.Errorf("%d piece hashes for %d pieces", len(pieces), want)
	}

	return ti, nil
}

func pieceCount(total, pieceLength int64) int64 {
	return (total + pieceLength - 1) / pieceLength
}
