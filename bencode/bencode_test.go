package bencode_test

import (
	"bytes"
	"crypto/sha1"
	"errors"
	"testing"

	jackpal "github.com/jackpal/bencode-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	zeebo "github.com/zeebo/bencode"

	"github.com/joaovictorsl/tpeer/bencode"
)

func dict(kv ...any) *bencode.Dict {
	d := bencode.NewDict()
	for i := 0; i < len(kv); i += 2 {
		d.Set(kv[i].(string), kv[i+1].(bencode.Value))
	}
	return d
}

func TestDecodeLiterals(t *testing.T) {
	testCases := []struct {
		input    string
		expected bencode.Value
	}{
		{"3:foo", bencode.String("foo")},
		{"1:a", bencode.String("a")},
		{"0:", bencode.String("")},
		{"i42e", bencode.Integer(42)},
		{"i-123e", bencode.Integer(-123)},
		{"i0e", bencode.Integer(0)},
		{"le", bencode.List{}},
		{"llee", bencode.List{bencode.List{}}},
		{"l1:a1:be", bencode.List{bencode.String("a"), bencode.String("b")}},
		{"l1:a1:bi42ee", bencode.List{bencode.String("a"), bencode.String("b"), bencode.Integer(42)}},
		{"de", bencode.NewDict()},
		{"d1:ai1ee", dict("a", bencode.Integer(1))},
		{"d4:dictd9:space keyi4eee", dict("dict", dict("space key", bencode.Integer(4)))},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			v, err := bencode.Decode([]byte(tc.input))
			require.NoError(t, err)
			assert.Equal(t, tc.expected, v)
		})
	}
}

func TestDecodeInt64Bounds(t *testing.T) {
	v, err := bencode.Decode([]byte("i9223372036854775807e"))
	require.NoError(t, err)
	assert.Equal(t, bencode.Integer(9223372036854775807), v)

	v, err = bencode.Decode([]byte("i-9223372036854775808e"))
	require.NoError(t, err)
	assert.Equal(t, bencode.Integer(-9223372036854775808), v)

	_, err = bencode.Decode([]byte("i9223372036854775808e"))
	assert.Error(t, err)
}

func TestDecodeKeepsKeyOrder(t *testing.T) {
	v, err := bencode.Decode([]byte("d1:zi1e1:ai2e1:mi3ee"))
	require.NoError(t, err)

	d, ok := bencode.DictOf(v)
	require.True(t, ok)
	assert.Equal(t, []string{"z", "a", "m"}, d.Keys())
}

func TestDecodeMalformed(t *testing.T) {
	testCases := []struct {
		input    string
		offset   int
		expected string
		eof      bool
	}{
		{"i42", 3, "'e' or digit", true},
		{"i125i", 4, "'e' or digit", false},
		{"ie", 1, "digit", false},
		{"5:abc", 5, "5 string bytes", true},
		{"3foo", 1, "':' or digit", false},
		{"li13i2e", 4, "'e' or digit", false},
		{"li1e", 4, "'e' or value", true},
		{"d1:a", 4, "value", true},
		{"di1ei2ee", 1, "'e' or key", false},
		{"x", 0, "value", false},
		{"", 0, "value", true},
		{"i1ei2e", 3, "end of input", false},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			v, err := bencode.Decode([]byte(tc.input))
			assert.Nil(t, v)

			var perr *bencode.ParseError
			require.True(t, errors.As(err, &perr), "expected ParseError, got %v", err)
			assert.Equal(t, tc.offset, perr.Offset)
			assert.Equal(t, tc.expected, perr.Expected)
			assert.Equal(t, tc.eof, perr.EOF)
		})
	}
}

func TestDecodeDuplicateKey(t *testing.T) {
	_, err := bencode.Decode([]byte("d1:ai1e1:ai2ee"))

	var perr *bencode.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 7, perr.Offset)
}

func TestEncodeLiterals(t *testing.T) {
	testCases := []struct {
		input    bencode.Value
		expected string
	}{
		{bencode.String(""), "0:"},
		{bencode.String("foo"), "3:foo"},
		{bencode.String([]byte{0, 1, 2, 3}), "4:\x00\x01\x02\x03"},
		{bencode.Integer(42), "i42e"},
		{bencode.Integer(-123), "i-123e"},
		{bencode.List{}, "le"},
		{bencode.List{bencode.List{}}, "llee"},
		{bencode.List{bencode.String("a"), bencode.String("b"), bencode.Integer(42)}, "l1:a1:bi42ee"},
		{bencode.List{bencode.String("a"), bencode.String("b"), bencode.Integer(42), bencode.List{bencode.Integer(123)}}, "l1:a1:bi42eli123eee"},
		{bencode.NewDict(), "de"},
		{dict("a", bencode.Integer(1)), "d1:ai1ee"},
		// insertion order, not lexicographic
		{dict("b", bencode.Integer(1), "a", bencode.Integer(2)), "d1:bi1e1:ai2ee"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, string(bencode.Encode(tc.input)))
	}
}

func TestZeroDictIsUsable(t *testing.T) {
	var d bencode.Dict
	d.Set("b", bencode.Integer(1))
	d.Set("a", bencode.String("x"))
	d.Set("b", bencode.Integer(2))

	v, ok := d.Get("b")
	require.True(t, ok)
	assert.Equal(t, bencode.Integer(2), v)
	assert.Equal(t, "d1:bi2e1:a1:xe", string(bencode.Encode(&d)))
}

func TestEncodeTo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, bencode.EncodeTo(&buf, bencode.List{bencode.Integer(1)}))
	assert.Equal(t, "li1ee", buf.String())
}

func TestRoundTrip(t *testing.T) {
	values := []bencode.Value{
		bencode.String("hello"),
		bencode.Integer(-7),
		bencode.List{bencode.Integer(1), bencode.List{bencode.String("x")}, bencode.NewDict()},
		dict(
			"zeta", bencode.List{bencode.Integer(1)},
			"alpha", dict("nested", bencode.String([]byte{0xff, 0x00})),
			"mid", bencode.Integer(0),
		),
	}

	for _, v := range values {
		decoded, err := bencode.Decode(bencode.Encode(v))
		require.NoError(t, err)
		assert.Equal(t, v, decoded)
	}
}

func TestReencodeIsByteExact(t *testing.T) {
	inputs := []string{
		"d8:announce35:http://tracker.example.com/announce4:infod6:lengthi92063e4:name10:sample.txt12:piece lengthi32768e6:pieces0:ee",
		"d1:bi1e1:ai2ee",
		"l0:i0edee",
	}

	for _, in := range inputs {
		v, err := bencode.Decode([]byte(in))
		require.NoError(t, err)
		assert.Equal(t, in, string(bencode.Encode(v)))
	}
}

type infoDict struct {
	Length      int    `bencode:"length"`
	Name        string `bencode:"name"`
	PieceLength int    `bencode:"piece length"`
	Pieces      string `bencode:"pieces"`
}

// A dictionary produced by another encoder must survive decode and re-encode
// unchanged, otherwise the info hash would differ from other clients.
func TestInteropWithCanonicalEncoder(t *testing.T) {
	info := infoDict{
		Length:      92063,
		Name:        "sample.txt",
		PieceLength: 32768,
		Pieces:      string(bytes.Repeat([]byte{0xe8, 0x76}, 30)),
	}

	var canonical bytes.Buffer
	require.NoError(t, jackpal.Marshal(&canonical, info))

	v, err := bencode.Decode(canonical.Bytes())
	require.NoError(t, err)

	reencoded := bencode.Encode(v)
	assert.Equal(t, canonical.Bytes(), reencoded)
	assert.Equal(t, sha1.Sum(canonical.Bytes()), sha1.Sum(reencoded))

	var back infoDict
	require.NoError(t, jackpal.Unmarshal(bytes.NewReader(reencoded), &back))
	assert.Equal(t, info, back)
}

func TestInteropWithReflectEncoder(t *testing.T) {
	source := map[string]interface{}{
		"announce": "http://tracker/announce",
		"info": map[string]interface{}{
			"files": []interface{}{
				map[string]interface{}{"length": int64(1), "path": []interface{}{"a", "b"}},
			},
			"name": "dir",
		},
	}

	encoded, err := zeebo.EncodeBytes(source)
	require.NoError(t, err)

	v, err := bencode.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, encoded, bencode.Encode(v))

	var back map[string]interface{}
	require.NoError(t, zeebo.DecodeBytes(bencode.Encode(v), &back))
	assert.Equal(t, "http://tracker/announce", back["announce"])
}
