package torrent

import (
	"fmt"

	"github.com/joaovictorsl/tpeer/bencode"
)

type torrentFileInfo struct {
	// Length of the file in bytes.
	length int64
	// A list of UTF-8 encoded strings corresponding to subdirectory names,
	// the last of which is the actual file name.
	path []string
}

func (tfi torrentFileInfo) Length() int64 {
	return tfi.length
}

func (tfi torrentFileInfo) Path() []string {
	return tfi.path
}

func (tfi torrentFileInfo) Name() string {
	return tfi.path[len(tfi.path)-1]
}

func filesFrom(source *bencode.Dict) ([]*torrentFileInfo, error) {
	iFiles, err := getField[bencode.List]("files", source)
	if err != nil {
		return nil, err
	}

	files := make([]*torrentFileInfo, 0, len(iFiles))
	for i, f := range iFiles {
		m, ok := bencode.DictOf(f)
		if !ok {
			return nil, fmt.Errorf("files[%d] is not a dictionary", i)
		}

		length, err := getLength("length", m)
		if err != nil {
			return nil, fmt.Errorf("files[%d]: %w", i, err)
		}

		path, err := getField[bencode.List]("path", m)
		if err != nil {
			return nil, fmt.Errorf("files[%d]: %w", i, err)
		}
		if len(path) == 0 {
			return nil, fmt.Errorf("files[%d]: path cannot be empty", i)
		}

		segments := make([]string, 0, len(path))
		for _, v := range path {
			s, ok := bencode.Str(v)
			if !ok {
				return nil, fmt.Errorf("files[%d]: path is not a list of string", i)
			}
			segments = append(segments, string(s))
		}

		files = append(files, &torrentFileInfo{
			length: length,
			path:   segments,
		})
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("files cannot be empty")
	}

	return files, nil
}
