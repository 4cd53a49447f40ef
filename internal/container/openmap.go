package container

// OpenMap is a generic open-addressing hash table with quadratic probing and
// tombstone deletion. Capacities come from a fixed ascending table of primes
// so the probe sequence (hash + i*i) mod capacity stays well distributed.
//
// A rehash reinserts every live entry into a freshly sized table; any pointer
// previously returned by Find is invalid afterwards. OpenMap is not safe for
// concurrent use.
type OpenMap[K comparable, V any] struct {
	slots    []slot[K, V]
	size     int
	capacity int
	hash     func(K) uint64
}

type slot[K comparable, V any] struct {
	key      K
	value    V
	occupied bool
	deleted  bool
}

const openMapLoadFactor = 0.75

// Prime-like capacities, roughly doubling.
var capacityTable = []int{
	17, 31, 67, 127, 257, 509, 1021, 2053, 4099, 8191,
	16381, 32771, 65537, 131071, 262147, 524287, 1048573,
	2097143, 4194301, 8388593, 16777213,
}

// NewOpenMap creates an empty map using the given hash function.
func NewOpenMap[K comparable, V any](hash func(K) uint64) *OpenMap[K, V] {
	return NewOpenMapCap[K, V](hash, capacityTable[0])
}

// NewOpenMapCap creates an empty map pre-sized for at least the given
// capacity.
func NewOpenMapCap[K comparable, V any](hash func(K) uint64, capacity int) *OpenMap[K, V] {
	c := capacityTable[len(capacityTable)-1]
	for _, p := range capacityTable {
		if p >= capacity {
			c = p
			break
		}
	}
	return &OpenMap[K, V]{
		slots:    make([]slot[K, V], c),
		capacity: c,
		hash:     hash,
	}
}

// NewStringMap creates an OpenMap keyed by strings using a djb2 hash.
func NewStringMap[V any]() *OpenMap[string, V] {
	return NewOpenMap[string, V](HashString)
}

// HashString is the djb2 string hash.
func HashString(s string) uint64 {
	h := uint64(5381)
	for i := 0; i < len(s); i++ {
		h = h<<5 + h + uint64(s[i])
	}
	return h
}

// Len returns the number of live entries.
func (m *OpenMap[K, V]) Len() int { return m.size }

// Cap returns the current table capacity.
func (m *OpenMap[K, V]) Cap() int { return m.capacity }

// findIndex locates the slot holding key, or capacity if absent. Lookup must
// walk the same quadratic probe sequence as insertion, passing through
// tombstones, or entries displaced by earlier collisions become unreachable.
func (m *OpenMap[K, V]) findIndex(key K) int {
	start := int(m.hash(key) % uint64(m.capacity))
	idx := start
	for i := 1; ; i++ {
		s := &m.slots[idx]
		if !s.occupied && !s.deleted {
			return m.capacity
		}
		if s.occupied && s.key == key {
			return idx
		}
		idx = (start + i*i) % m.capacity
		if idx == start || i >= m.capacity {
			return m.capacity
		}
	}
}

// findInsertIndex locates the slot where key should be stored: the key's
// current slot if present, otherwise the first tombstone seen on the probe
// path, otherwise the first empty slot.
func (m *OpenMap[K, V]) findInsertIndex(key K) int {
	start := int(m.hash(key) % uint64(m.capacity))
	idx := start
	firstDeleted := m.capacity
	for i := 1; ; i++ {
		s := &m.slots[idx]
		if !s.occupied && !s.deleted {
			if firstDeleted != m.capacity {
				return firstDeleted
			}
			return idx
		}
		if s.deleted {
			if firstDeleted == m.capacity {
				firstDeleted = idx
			}
		} else if s.key == key {
			return idx
		}
		idx = (start + i*i) % m.capacity
		if idx == start || i >= m.capacity {
			return firstDeleted
		}
	}
}

// Insert stores value under key, overwriting any existing value. Overwrite
// does not change Len. Insert may trigger a rehash, invalidating previously
// returned references.
func (m *OpenMap[K, V]) Insert(key K, value V) {
	if float64(m.size+1)/float64(m.capacity) > openMapLoadFactor {
		m.rehash()
	}
	idx := m.findInsertIndex(key)
	if idx == m.capacity {
		// Probe path exhausted without an empty slot; grow and retry.
		m.rehash()
		idx = m.findInsertIndex(key)
	}
	s := &m.slots[idx]
	if s.occupied {
		s.value = value
		return
	}
	s.key = key
	s.value = value
	s.occupied = true
	s.deleted = false
	m.size++
}

// Find returns a pointer to the value stored under key, valid until the next
// Insert, or nil if the key is absent.
func (m *OpenMap[K, V]) Find(key K) *V {
	idx := m.findIndex(key)
	if idx == m.capacity {
		return nil
	}
	return &m.slots[idx].value
}

// Get returns the value stored under key and whether it was present.
func (m *OpenMap[K, V]) Get(key K) (V, bool) {
	if p := m.Find(key); p != nil {
		return *p, true
	}
	var zero V
	return zero, false
}

// Contains reports whether key is present.
func (m *OpenMap[K, V]) Contains(key K) bool {
	return m.findIndex(key) != m.capacity
}

// Erase removes key, leaving a tombstone so probe chains through this slot
// stay intact. It reports whether the key was present.
func (m *OpenMap[K, V]) Erase(key K) bool {
	idx := m.findIndex(key)
	if idx == m.capacity {
		return false
	}
	s := &m.slots[idx]
	var zeroK K
	var zeroV V
	s.key = zeroK
	s.value = zeroV
	s.occupied = false
	s.deleted = true
	m.size--
	return true
}

// Clear removes all entries, keeping the current capacity.
func (m *OpenMap[K, V]) Clear() {
	for i := range m.slots {
		m.slots[i] = slot[K, V]{}
	}
	m.size = 0
}

// Keys returns all live keys in table order.
func (m *OpenMap[K, V]) Keys() []K {
	keys := make([]K, 0, m.size)
	for i := range m.slots {
		if m.slots[i].occupied {
			keys = append(keys, m.slots[i].key)
		}
	}
	return keys
}

// ForEach calls fn for every live entry until fn returns false. The value
// pointer is valid for the duration of the call only.
func (m *OpenMap[K, V]) ForEach(fn func(key K, value *V) bool) {
	for i := range m.slots {
		if m.slots[i].occupied {
			if !fn(m.slots[i].key, &m.slots[i].value) {
				return
			}
		}
	}
}

func (m *OpenMap[K, V]) rehash() {
	old := m.slots
	next := m.capacity * 2
	for _, p := range capacityTable {
		if p > m.capacity*2 {
			next = p
			break
		}
	}
	m.slots = make([]slot[K, V], next)
	m.capacity = next
	m.size = 0
	for i := range old {
		if old[i].occupied {
			m.Insert(old[i].key, old[i].value)
		}
	}
}
