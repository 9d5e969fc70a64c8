package download

import (
	"sync/atomic"
)

// PieceManager counts finished pieces and reports progress.
type PieceManager struct {
	downloadedPieces atomic.Uint32
	totalPieces      uint32
	pieces           []bool
	progress         func(done, total int)
}

func NewPieceManager(totalPieces int, progress func(done, total int)) *PieceManager {
	return &PieceManager{
		totalPieces: uint32(totalPieces),
		pieces:      make([]bool, totalPieces),
		progress:    progress,
	}
}

// Notify marks piece idx as stored. Repeated notifications count once.
func (pm *PieceManager) Notify(idx int) {
	if idx < 0 || idx >= len(pm.pieces) || pm.pieces[idx] {
		return
	}
	pm.pieces[idx] = true

	downloadedPieces := pm.downloadedPieces.Add(1)
	if pm.progress != nil {
		pm.progress(int(downloadedPieces), int(pm.totalPieces))
	}
}

