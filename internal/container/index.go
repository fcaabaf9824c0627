/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package container

import "encoding/binary"

// Flags bits for one page-index entry (spec §3.2).
type Flags uint32

const (
	FlagCompressed Flags = 1 << iota
	FlagEncrypted
	FlagSparse
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// Entry is one page-index record: physical location and shape of a
// logical page's stored extent.
type Entry struct {
	Offset       uint64
	StoredSize   uint32
	OriginalSize uint32
	Checksum     uint32
	Flags        Flags
}

// IsSparse reports whether the entry has no backing storage.
func (e Entry) IsSparse() bool { return e.Flags.Has(FlagSparse) }

func encodeEntry(buf []byte, e Entry) {
	binary.LittleEndian.PutUint64(buf[0:], e.Offset)
	binary.LittleEndian.PutUint32(buf[8:], e.StoredSize)
	binary.LittleEndian.PutUint32(buf[12:], e.OriginalSize)
	binary.LittleEndian.PutUint32(buf[16:], e.Checksum)
	binary.LittleEndian.PutUint32(buf[20:], uint32(e.Flags))
	// bytes [24:32) reserved, left zero.
}

func decodeEntry(buf []byte) Entry {
	return Entry{
		Offset:       binary.LittleEndian.Uint64(buf[0:]),
		StoredSize:   binary.LittleEndian.Uint32(buf[8:]),
		OriginalSize: binary.LittleEndian.Uint32(buf[12:]),
		Checksum:     binary.LittleEndian.Uint32(buf[16:]),
		Flags:        Flags(binary.LittleEndian.Uint32(buf[20:])),
	}
}

// Index is the in-memory page-index array plus its reserved-capacity
// bookkeeping (spec §3.1, §4.1).
type Index struct {
	entries  []Entry
	capacity int
	dirty    bool
}

// newIndex allocates an Index sized to max(totalPages, 16) entries
// (load_index's headroom rule), with every slot zero.
func newIndex(totalPages int) *Index {
	cap := totalPages
	if cap < 16 {
		cap = 16
	}
	return &Index{
		entries:  make([]Entry, totalPages, cap),
		capacity: cap,
	}
}

// decodeIndex parses totalPages entries out of buf (load_index body,
// spec §4.1), leaving surplus capacity zero-initialized.
func decodeIndex(buf []byte, totalPages int) *Index {
	idx := newIndex(totalPages)
	for n := 0; n < totalPages; n++ {
		off := n * indexEntrySize
		idx.entries[n] = decodeEntry(buf[off : off+indexEntrySize])
	}
	return idx
}

// encode serializes every live entry (0..len(entries)) into a
// contiguous len(entries)*indexEntrySize byte slice.
func (idx *Index) encode() []byte {
	buf := make([]byte, len(idx.entries)*indexEntrySize)
	for n, e := range idx.entries {
		off := n * indexEntrySize
		encodeEntry(buf[off:off+indexEntrySize], e)
	}
	return buf
}

// Len returns the number of logical pages currently tracked.
func (idx *Index) Len() int { return len(idx.entries) }

// Get returns the entry for logical page n. The caller must ensure
// n < idx.Len(); pagestore.File grows the index before touching a page
// beyond its current bounds.
func (idx *Index) Get(n int) Entry { return idx.entries[n] }

// Set replaces the entry for logical page n and marks the index dirty.
func (idx *Index) Set(n int, e Entry) {
	idx.entries[n] = e
	idx.dirty = true
}

// Dirty reports whether the index has unsaved in-memory changes.
func (idx *Index) Dirty() bool { return idx.dirty }

// ClearDirty resets the dirty flag after a successful save_index.
func (idx *Index) ClearDirty() { idx.dirty = false }

// ByteSize returns the on-disk footprint of the live (non-reserved)
// portion of the index.
func (idx *Index) ByteSize() int64 { return int64(len(idx.entries)) * indexEntrySize }

// Shrink truncates the index down to n live entries (Truncate's
// shrinking case, spec §4.5). Capacity and reserved region are
// unaffected; a later Grow back past n reuses the same backing array.
func (idx *Index) Shrink(n int) {
	if n >= len(idx.entries) {
		return
	}
	idx.entries = idx.entries[:n]
	idx.dirty = true
}

// Grow implements grow_index(new_count) from spec §4.1: a no-op if
// shrinking or equal, a zero-extend within existing capacity, or a
// reallocation to max(new_count+16, capacity+capacity/2) otherwise.
func (idx *Index) Grow(newCount int) {
	if newCount <= len(idx.entries) {
		return
	}
	if newCount <= idx.capacity {
		idx.entries = idx.entries[:newCount]
		idx.dirty = true
		return
	}
	newCap := newCount + 16
	if grown := idx.capacity + idx.capacity/2; grown > newCap {
		newCap = grown
	}
	grown := make([]Entry, newCount, newCap)
	copy(grown, idx.entries)
	idx.entries = grown
	idx.capacity = newCap
	idx.dirty = true
}
