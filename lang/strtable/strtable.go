// Package strtable implements the open-addressing hash table that backs
// string interning (spec.md §4.4). The VM's global-variable table does not
// use it; that table is a separate map in package machine.
//
// It is a from-scratch implementation grounded on the table.c this
// interpreter was ported from: linear probing, tombstones left behind on
// delete so probe chains stay intact, and a 0.75 load factor that triggers a
// doubling rehash. There is no general-purpose third-party substitute for
// this: the table's probing/tombstone behavior is itself part of what this
// repository sets out to implement, not an incidental lookup structure.
package strtable

const (
	initialCapacity = 8
	maxLoadFactor   = 0.75
)

type entryState uint8

const (
	empty entryState = iota
	tombstone
	occupied
)

type entry[V any] struct {
	key   *Key
	val   V
	state entryState
}

// Key is the interned identity a Table entry is addressed by: a content
// hash plus the string it was computed from. Two Keys are the same table
// slot only if they are the same pointer (string values must be interned
// before use as a Key).
type Key struct {
	Chars string
	Hash  uint32
}

// Table is an open-addressing hash table with tombstone-based deletion,
// generic over the value type. The string interner uses it with V = *String.
type Table[V any] struct {
	entries []entry[V]
	count   int // occupied + tombstone entries
}

// Get returns the value associated with key, or !found if key is not
// present.
func (t *Table[V]) Get(key *Key) (v V, found bool) {
	if len(t.entries) == 0 {
		return v, false
	}
	e := t.findEntry(t.entries, key)
	if e.state != occupied {
		return v, false
	}
	return e.val, true
}

// Set inserts or updates key's value, growing the table first if the load
// factor would otherwise be exceeded. It reports whether key was not
// already present.
func (t *Table[V]) Set(key *Key, val V) (isNew bool) {
	if float64(t.count+1) > float64(len(t.entries))*maxLoadFactor {
		t.grow(growCapacity(len(t.entries)))
	}
	e := t.findEntry(t.entries, key)
	isNew = e.state != occupied
	if e.state == empty {
		t.count++
	}
	e.key = key
	e.val = val
	e.state = occupied
	return isNew
}

// Delete marks key's entry as a tombstone so later probes for other keys
// that collided with it keep working. It reports whether key was present.
func (t *Table[V]) Delete(key *Key) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := t.findEntry(t.entries, key)
	if e.state != occupied {
		return false
	}
	e.key = nil
	e.state = tombstone
	return true
}

// Len reports the number of live (non-tombstone) entries.
func (t *Table[V]) Len() int {
	n := 0
	for i := range t.entries {
		if t.entries[i].state == occupied {
			n++
		}
	}
	return n
}

// findEntry locates the slot for key: the first tombstone seen is
// remembered but probing continues past it, so inserts reuse the
// tombstone while lookups still find a later-inserted matching key.
func (t *Table[V]) findEntry(entries []entry[V], key *Key) *entry[V] {
	index := int(key.Hash) % len(entries)
	var firstTombstone *entry[V]
	for {
		e := &entries[index]
		switch {
		case e.state == tombstone:
			if firstTombstone == nil {
				firstTombstone = e
			}
		case e.state == empty:
			if firstTombstone != nil {
				return firstTombstone
			}
			return e
		case e.key == key:
			return e
		}
		index = (index + 1) % len(entries)
	}
}

func (t *Table[V]) grow(capacity int) {
	newEntries := make([]entry[V], capacity)
	t.count = 0
	for i := range t.entries {
		old := &t.entries[i]
		if old.state != occupied {
			continue
		}
		dest := t.findEntry(newEntries, old.key)
		dest.key = old.key
		dest.val = old.val
		dest.state = occupied
		t.count++
	}
	t.entries = newEntries
}

func growCapacity(capacity int) int {
	if capacity == 0 {
		return initialCapacity
	}
	return capacity * 2
}

// FindKey performs content-equality probing used by the interning pathway:
// it returns the already-interned Key with the same characters and hash, or
// nil if no such key is present. Unlike findEntry it never compares by
// pointer, since the caller is trying to find out whether an equivalent Key
// already exists.
func (t *Table[V]) FindKey(chars string, hash uint32) *Key {
	if len(t.entries) == 0 {
		return nil
	}
	index := int(hash) % len(t.entries)
	for {
		e := &t.entries[index]
		switch e.state {
		case empty:
			return nil
		case occupied:
			if e.key.Hash == hash && e.key.Chars == chars {
				return e.key
			}
		}
		index = (index + 1) % len(t.entries)
	}
}
