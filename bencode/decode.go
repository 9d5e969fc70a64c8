package bencode

import (
	"fmt"
	"math"
)

const (
	markerInteger = 'i'
	markerList    = 'l'
	markerDict    = 'd'
	markerEnd     = 'e'
	markerMinus   = '-'
	markerColon   = ':'
)

// ParseError reports the offset of the first byte that did not fit the grammar.
// EOF is set when the input ended where more bytes were required.
type ParseError struct {
	Offset   int
	Expected string
	Got      byte
	EOF      bool
}

func (e *ParseError) Error() string {
	if e.EOF {
		return fmt.Sprintf("bencode: unexpected end of input at %d, expected %s", e.Offset, e.Expected)
	}
	return fmt.Sprintf("bencode: unexpected character at %d, expected %s, got %q (%d)", e.Offset, e.Expected, e.Got, e.Got)
}

type decoder struct {
	buf []byte
	pos int
}

// Decode parses exactly one value from data. Byte strings in the result
// alias data.
func Decode(data []byte) (Value, error) {
	d := &decoder{buf: data}

	v, err := d.value()
	if err != nil {
		return nil, err
	}

	if d.pos != len(d.buf) {
		return nil, d.fail("end of input")
	}

	return v, nil
}

func (d *decoder) fail(expected string) *ParseError {
	if d.pos >= len(d.buf) {
		return &ParseError{Offset: d.pos, Expected: expected, EOF: true}
	}
	return &ParseError{Offset: d.pos, Expected: expected, Got: d.buf[d.pos]}
}

func (d *decoder) peek() (byte, bool) {
	if d.pos >= len(d.buf) {
		return 0, false
	}
	return d.buf[d.pos], true
}

func (d *decoder) value() (Value, error) {
	c, ok := d.peek()
	if !ok {
		return nil, d.fail("value")
	}

	switch {
	case c == markerInteger:
		return d.integer()
	case c == markerList:
		return d.list()
	case c == markerDict:
		return d.dict()
	case isDigit(c):
		return d.str()
	default:
		return nil, d.fail("value")
	}
}

func (d *decoder) integer() (Integer, error) {
	d.pos++ // 'i'

	negative := false
	if c, ok := d.peek(); ok && c == markerMinus {
		negative = true
		d.pos++
	}

	var n uint64
	digits := 0
	for {
		c, ok := d.peek()
		if !ok {
			return 0, d.fail("'e' or digit")
		}

		if isDigit(c) {
			digit := uint64(c - '0')
			if n > (math.MaxInt64+1-digit)/10 {
				return 0, d.fail("integer within 64 bits")
			}
			n = n*10 + digit
			if !negative && n > math.MaxInt64 {
				return 0, d.fail("integer within 64 bits")
			}
			digits++
			d.pos++
			continue
		}

		if c == markerEnd && digits > 0 {
			d.pos++
			break
		}

		if digits == 0 {
			return 0, d.fail("digit")
		}
		return 0, d.fail("'e' or digit")
	}

	if negative {
		if n == math.MaxInt64+1 {
			return math.MinInt64, nil
		}
		return -Integer(n), nil
	}
	return Integer(n), nil
}

func (d *decoder) str() (String, error) {
	size := 0
	digits := 0
	for {
		c, ok := d.peek()
		if !ok {
			return nil, d.fail("':' or digit")
		}

		if isDigit(c) {
			size = size*10 + int(c-'0')
			if size > len(d.buf) {
				return nil, d.fail("string length within input")
			}
			digits++
			d.pos++
			continue
		}

		if c == markerColon && digits > 0 {
			d.pos++
			break
		}

		if digits == 0 {
			return nil, d.fail("digit")
		}
		return nil, d.fail("':' or digit")
	}

	if len(d.buf)-d.pos < size {
		d.pos = len(d.buf)
		return nil, d.fail(fmt.Sprintf("%d string bytes", size))
	}

	s := String(d.buf[d.pos : d.pos+size : d.pos+size])
	d.pos += size
	return s, nil
}

func (d *decoder) list() (List, error) {
	d.pos++ // 'l'

	l := List{}
	for {
		c, ok := d.peek()
		if !ok {
			return nil, d.fail("'e' or value")
		}
		if c == markerEnd {
			d.pos++
			return l, nil
		}

		v, err := d.value()
		if err != nil {
			return nil, err
		}
		l = append(l, v)
	}
}

func (d *decoder) dict() (*Dict, error) {
	d.pos++ // 'd'

	dict := NewDict()
	for {
		c, ok := d.peek()
		if !ok {
			return nil, d.fail("'e' or key")
		}
		if c == markerEnd {
			d.pos++
			return dict, nil
		}

		keyAt := d.pos
		if !isDigit(c) {
			return nil, d.fail("'e' or key")
		}
		key, err := d.str()
		if err != nil {
			return nil, err
		}
		if dict.Has(string(key)) {
			return nil, &ParseError{Offset: keyAt, Expected: "unique key", Got: c}
		}

		v, err := d.value()
		if err != nil {
			return nil, err
		}
		dict.Set(string(key), v)
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
