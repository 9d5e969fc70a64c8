package bencode

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
)

// Encode returns the bencoding of v. Dict entries are written in the order
// the Dict holds them; no sorting is applied.
func Encode(v Value) []byte {
	var buf bytes.Buffer
	encodeValue(&buf, v)
	return buf.Bytes()
}

func EncodeTo(w io.Writer, v Value) error {
	_, err := w.Write(Encode(v))
	return err
}

func encodeValue(buf *bytes.Buffer, v Value) {
	switch v := v.(type) {
	case String:
		encodeString(buf, v)
	case Integer:
		buf.WriteByte(markerInteger)
		buf.WriteString(strconv.FormatInt(int64(v), 10))
		buf.WriteByte(markerEnd)
	case List:
		buf.WriteByte(markerList)
		for _, item := range v {
			encodeValue(buf, item)
		}
		buf.WriteByte(markerEnd)
	case *Dict:
		buf.WriteByte(markerDict)
		if v != nil {
			for _, e := range v.entries {
				encodeString(buf, []byte(e.key))
				encodeValue(buf, e.value)
			}
		}
		buf.WriteByte(markerEnd)
	default:
		// Value is sealed, only a nil interface gets here.
		panic(fmt.Sprintf("bencode: cannot encode %T", v))
	}
}

func encodeString(buf *bytes.Buffer, s []byte) {
	buf.WriteString(strconv.Itoa(len(s)))
	buf.WriteByte(markerColon)
	buf.Write(s)
}
