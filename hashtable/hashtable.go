// Package hashtable implements a fixed-capacity open-addressing index.
//
// A table is a plain slice of values. Lookups probe linearly from the key's
// start slot and wrap around; entries are never deleted, so no tombstones are
// needed. Growing a table means allocating a larger slice and migrating every
// live entry into it.
package hashtable

import (
	"errors"
	"fmt"
)

// ErrNoSpace is returned when a probe visits every slot without finding the
// key or an unused slot.
var ErrNoSpace = errors.New("no space in table")

// Key is the contract a table key must satisfy.
type Key interface {
	comparable
	// Start returns the hash-derived slot the probe sequence begins at.
	Start() uint64
	// Unused reports whether the key is the empty-slot sentinel.
	Unused() bool
}

// Value is the contract a table entry must satisfy.
type Value[K Key] interface {
	Key() K
}

// Find returns the slot holding key, or the first unused slot on its probe
// sequence if key is absent.
func Find[K Key, V Value[K]](tbl []V, key K) (int, error) {
	size := uint64(len(tbl))
	if size == 0 {
		return 0, ErrNoSpace
	}
	start := key.Start()
	for i := uint64(0); i < size; i++ {
		pos := (start + i) % size
		k := tbl[pos].Key()
		if k.Unused() || k == key {
			return int(pos), nil
		}
	}
	return 0, ErrNoSpace
}

// Migrate copies every live entry of src into dst at the slot Find picks in
// dst. If dst runs out of space, every slot written by this call is restored
// and the error is returned.
func Migrate[K Key, V Value[K]](src []V, dst []V) error {
	type saved struct {
		pos  int
		prev V
	}
	var written []saved
	for i := range src {
		key := src[i].Key()
		if key.Unused() {
			continue
		}
		pos, err := Find(dst, key)
		if err != nil {
			for j := len(written) - 1; j >= 0; j-- {
				dst[written[j].pos] = written[j].prev
			}
			return fmt.Errorf("migrate %d entries into %d slots: %w", len(src), len(dst), err)
		}
		written = append(written, saved{pos: pos, prev: dst[pos]})
		dst[pos] = src[i]
	}
	return nil
}

// Count returns the number of live entries in tbl.
func Count[K Key, V Value[K]](tbl []V) int {
	n := 0
	for i := range tbl {
		if !tbl[i].Key().Unused() {
			n++
		}
	}
	return n
}
