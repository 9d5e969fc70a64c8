package bencode

// Value is one of String, Integer, List or *Dict.
type Value interface {
	isValue()
}

type String []byte

type Integer int64

type List []Value

type entry struct {
	key   string
	value Value
}

// Dict keeps its entries in the order they were added. Keys are unique.
type Dict struct {
	entries []entry
	index   map[string]int
}

func (String) isValue()  {}
func (Integer) isValue() {}
func (List) isValue()    {}
func (*Dict) isValue()   {}

func NewDict() *Dict {
	return &Dict{
		index: make(map[string]int),
	}
}

// Set adds key at the end, or replaces the value in place if key exists.
func (d *Dict) Set(key string, v Value) {
	if d.index == nil {
		d.index = make(map[string]int)
	}

	if i, ok := d.index[key]; ok {
		d.entries[i].value = v
		return
	}

	d.index[key] = len(d.entries)
	d.entries = append(d.entries, entry{key: key, value: v})
}

func (d *Dict) Get(key string) (Value, bool) {
	i, ok := d.index[key]
	if !ok {
		return nil, false
	}

	return d.entries[i].value, true
}

func (d *Dict) Has(key string) bool {
	_, ok := d.index[key]
	return ok
}

func (d *Dict) Len() int {
	return len(d.entries)
}

func (d *Dict) Keys() []string {
	keys := make([]string, len(d.entries))
	for i, e := range d.entries {
		keys[i] = e.key
	}
	return keys
}

// Entries calls fn for every entry in order and stops when fn returns false.
func (d *Dict) Entries(fn func(key string, v Value) bool) {
	for _, e := range d.entries {
		if !fn(e.key, e.value) {
			return
		}
	}
}

func Str(v Value) (String, bool) {
	s, ok := v.(String)
	return s, ok
}

func Int(v Value) (Integer, bool) {
	n, ok := v.(Integer)
	return n, ok
}

func ListOf(v Value) (List, bool) {
	l, ok := v.(List)
	return l, ok
}

func DictOf(v Value) (*Dict, bool) {
	d, ok := v.(*Dict)
	return d, ok && d != nil
}
