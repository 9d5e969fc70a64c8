package download

import "github.com/joaovictorsl/tpeer/torrent"

const BlockSize = 16 * 1024

// Layout splits a torrent's content into pieces and pieces into blocks.
type Layout struct {
	TotalLength int64
	PieceLength int64
}

type Block struct {
	Begin  int64
	Length int64
}

func LayoutOf(info torrent.ITorrentInfo) Layout {
	return Layout{
		TotalLength: info.TotalLength(),
		PieceLength: info.PieceLength(),
	}
}

func (l Layout) PieceCount() int {
	if l.PieceLength <= 0 || l.TotalLength <= 0 {
		return 0
	}
	return int((l.TotalLength + l.PieceLength - 1) / l.PieceLength)
}

// PieceSize is the nominal piece length for every piece but the last one,
// which holds whatever is left. Zero for indexes out of range.
func (l Layout) PieceSize(i int) int64 {
	count := l.PieceCount()
	switch {
	case i < 0 || i >= count:
		return 0
	case i == count-1:
		return l.TotalLength - l.PieceLength*int64(count-1)
	default:
		return l.PieceLength
	}
}

func (l Layout) PieceOffset(i int) int64 {
	return int64(i) * l.PieceLength
}

// Blocks lists the requests covering piece i, the last one clipped.
func (l Layout) Blocks(i int) []Block {
	size := l.PieceSize(i)
	blocks := make([]Block, 0, (size+BlockSize-1)/BlockSize)

	for begin := int64(0); begin < size; begin += BlockSize {
		blocks = append(blocks, Block{
			Begin:  begin,
			Length: min(BlockSize, size-begin),
		})
	}

	return blocks
}
