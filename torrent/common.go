package torrent

import (
	"fmt"

	"github.com/joaovictorsl/tpeer/bencode"
)

func getField[T bencode.Value](field string, source *bencode.Dict) (T, error) {
	var zero T
	iField, ok := source.Get(field)
	if !ok {
		return zero, fmt.Errorf("%s: %w", field, ErrFieldMissing)
	}

	fieldValue, ok := iField.(T)
	if !ok {
		return zero, fmt.Errorf("%s is not a %s, it is a %s", field, kindOf(zero), kindOf(iField))
	}

	return fieldValue, nil
}

func getLength(field string, source *bencode.Dict) (int64, error) {
	n, err := getField[bencode.Integer](field, source)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%s cannot be negative: %d", field, n)
	}

	return int64(n), nil
}

func kindOf(v bencode.Value) string {
	switch v.(type) {
	case bencode.String:
		return "string"
	case bencode.Integer:
		return "integer"
	case bencode.List:
		return "list"
	case *bencode.Dict:
		return "dictionary"
	default:
		return "nothing"
	}
}
