package jsonini

// ordmap is a string-keyed map that preserves insertion order. The iteration
// order of sections and options is part of the observable contract, so the
// store cannot rely on Go's randomized map iteration.
type ordmap struct {
	keys   []string
	values map[string]any
}

func newOrdmap() *ordmap {
	return &ordmap{values: make(map[string]any)}
}

// get returns the value for key and whether it exists.
func (m *ordmap) get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// set stores value under key. An existing key keeps its original position.
func (m *ordmap) set(key string, value any) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// delete removes key and reports whether it was present.
func (m *ordmap) delete(key string) bool {
	if _, ok := m.values[key]; !ok {
		return false
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return true
}

// has reports whether key is present.
func (m *ordmap) has(key string) bool {
	_, ok := m.values[key]
	return ok
}

// len returns the number of entries.
func (m *ordmap) len() int {
	return len(m.keys)
}

// keyOrder returns the keys in insertion order.
func (m *ordmap) keyOrder() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// clear removes all entries.
func (m *ordmap) clear() {
	m.keys = m.keys[:0]
	m.values = make(map[string]any)
}
