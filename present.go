package main

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/joaovictorsl/tpeer/bencode"
)

// toJSON renders a decoded value for display. Dictionary keys keep their
// decoded order and byte strings are shown as text.
func toJSON(v bencode.Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v bencode.Value) error {
	switch v := v.(type) {
	case bencode.String:
		return writeJSONString(buf, string(v))
	case bencode.Integer:
		buf.WriteString(strconv.FormatInt(int64(v), 10))
	case bencode.List:
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case *bencode.Dict:
		var err error
		buf.WriteByte('{')
		first := true
		v.Entries(func(key string, item bencode.Value) bool {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			if err = writeJSONString(buf, key); err != nil {
				return false
			}
			buf.WriteByte(':')
			err = writeJSON(buf, item)
			return err == nil
		})
		if err != nil {
			return err
		}
		buf.WriteByte('}')
	}
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}

	// Encode terminates every value with a newline.
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}
