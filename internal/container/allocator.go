/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package container

import (
	"pagestore/internal/errors"
)

// maxAppendAttempts bounds the defensive overlap retry in the append
// rung of the allocation ladder (spec §4.4 step 5).
const maxAppendAttempts = 100

// maxGrowthRatio is the in-place-expansion growth cap; beyond this the
// allocator treats the request as pathological and forces a new
// allocation (spec §4.4 step 3a).
const maxGrowthRatio = 10

// overlapSafetyMargin is the extra byte count added on both sides of
// an in-place expansion's candidate range before checking it against
// other extents (spec §4.4 step 3b calls this "a small safety
// margin" without a number; zero is the most conservative reading and
// is what is implemented here — see DESIGN.md).
const overlapSafetyMargin = 0

// FileSizer probes the underlying file's current size, used only to
// decide whether an in-place expansion would require file growth.
type FileSizer interface {
	FileSize() (uint64, error)
}

// Decision is the outcome of running the allocation ladder for one
// logical write.
type Decision struct {
	Sparse   bool
	Offset   uint64
	FromHole bool
}

// AllocStats accumulates the counters the fragmentation score (C12)
// is built from.
type AllocStats struct {
	TotalWrites         uint64
	InPlaceReuses       uint64
	HoleReclaims        uint64
	SequentialWrites    uint64
	WastedInExtentBytes uint64
}

// Allocator implements C6: the five-rung decision ladder over a
// container's Index and HoleList.
type Allocator struct {
	index           *Index
	holes           *HoleList
	dataRegionStart uint64
	fileSizer       FileSizer

	lastWritten int64 // -1 until the first write
	stats       AllocStats
}

// NewAllocator returns an Allocator over index/holes, with appends
// never landing before dataRegionStart.
func NewAllocator(index *Index, holes *HoleList, dataRegionStart uint64, fileSizer FileSizer) *Allocator {
	return &Allocator{
		index:           index,
		holes:           holes,
		dataRegionStart: dataRegionStart,
		fileSizer:       fileSizer,
		lastWritten:     -1,
	}
}

func (a *Allocator) Stats() AllocStats { return a.stats }

// Plan runs the decision ladder of spec §4.4 for logical page n whose
// processed size is s, given its current index entry e. The returned
// Decision.Sparse case requires no physical write; for every other
// case the caller issues the physical write and then calls Commit.
func (a *Allocator) Plan(n int, s uint32, e Entry) (Decision, error) {
	exclude := map[int]bool{n: true}

	// 1. Sparse page.
	if s == 0 {
		if e.Offset != 0 {
			a.holes.Add(e.Offset, uint64(e.StoredSize))
		}
		return Decision{Sparse: true}, nil
	}

	// 2. In-place reuse.
	if e.Offset != 0 && uint64(s) <= uint64(e.StoredSize) {
		a.stats.InPlaceReuses++
		a.stats.WastedInExtentBytes += uint64(e.StoredSize) - uint64(s)
		return Decision{Offset: e.Offset}, nil
	}

	// 3. In-place expansion.
	if e.Offset != 0 && uint64(s) > uint64(e.StoredSize) {
		if ok, err := a.canExpandInPlace(exclude, e, s); err != nil {
			return Decision{}, err
		} else if ok {
			a.stats.InPlaceReuses++
			return Decision{Offset: e.Offset}, nil
		}
		a.holes.Add(e.Offset, uint64(e.StoredSize))
	}

	// 4. Best-fit hole.
	if offset, found := a.holes.FindBestFit(uint64(s)); found {
		a.stats.HoleReclaims++
		return Decision{Offset: offset, FromHole: true}, nil
	}

	// 5. Append.
	offset, err := a.findAppendOffset(exclude, s, n)
	if err != nil {
		return Decision{}, err
	}
	return Decision{Offset: offset}, nil
}

// FindRegion implements the batch writer's region-selection step
// (spec §4.7 flush): best-fit across the hole list, falling back to
// append with the same overlap-avoidance bounded retry as the
// per-page ladder. excludePages lists logical pages whose *current*
// index extents should not block the search (they are about to be
// retired by the flush that calls this).
func (a *Allocator) FindRegion(size uint64, excludePages []int) (uint64, bool, error) {
	if offset, found := a.holes.FindBestFit(size); found {
		return offset, true, nil
	}

	exclude := make(map[int]bool, len(excludePages))
	for _, p := range excludePages {
		exclude[p] = true
	}
	offset, err := a.findAppendOffset(exclude, uint32(size), -1)
	if err != nil {
		return 0, false, err
	}
	return offset, false, nil
}

func (a *Allocator) canExpandInPlace(exclude map[int]bool, e Entry, s uint32) (bool, error) {
	if uint64(s) > uint64(e.StoredSize)*maxGrowthRatio {
		return false, nil
	}

	growthStart := e.Offset + uint64(e.StoredSize)
	growthEnd := e.Offset + uint64(s)

	if a.overlapsOtherEntry(exclude, growthStart, growthEnd-growthStart, overlapSafetyMargin) {
		return false, nil
	}

	if a.fileSizer != nil {
		// The probe only needs to succeed; if the file must grow to
		// cover growthEnd, a successful FileSize call means the
		// underlying file is reachable and the growth can proceed.
		if _, err := a.fileSizer.FileSize(); err != nil {
			return false, nil
		}
	}

	return true, nil
}

// overlapsOtherEntry reports whether [offset, offset+size) — padded by
// margin on both sides — intersects any non-sparse entry whose index
// is not in exclude.
func (a *Allocator) overlapsOtherEntry(exclude map[int]bool, offset, size uint64, margin uint64) bool {
	lo := uint64(0)
	if offset > margin {
		lo = offset - margin
	}
	hi := offset + size + margin

	for i := 0; i < a.index.Len(); i++ {
		if exclude[i] {
			continue
		}
		other := a.index.Get(i)
		if other.IsSparse() || other.Offset == 0 {
			continue
		}
		oLo, oHi := other.Offset, other.Offset+uint64(other.StoredSize)
		if lo < oHi && oLo < hi {
			return true
		}
	}
	return false
}

func (a *Allocator) findAppendOffset(exclude map[int]bool, s uint32, logPage int) (uint64, error) {
	base := a.dataRegionStart
	if a.fileSizer != nil {
		if fileSize, err := a.fileSizer.FileSize(); err == nil && fileSize > base {
			base = fileSize
		}
	}

	offset := base
	for attempt := 0; attempt < maxAppendAttempts; attempt++ {
		if !a.overlapsOtherEntry(exclude, offset, uint64(s), 0) {
			return offset, nil
		}
		offset = a.nextSafeOffset(exclude, offset, uint64(s))
	}
	return 0, errors.NoSafeOffset(uint32(logPage), maxAppendAttempts)
}

// nextSafeOffset jumps past whichever existing extent conflicts with
// [offset, offset+size), for the append rung's bounded retry.
func (a *Allocator) nextSafeOffset(exclude map[int]bool, offset, size uint64) uint64 {
	best := offset
	found := false
	for i := 0; i < a.index.Len(); i++ {
		if exclude[i] {
			continue
		}
		other := a.index.Get(i)
		if other.IsSparse() || other.Offset == 0 {
			continue
		}
		end := other.Offset + uint64(other.StoredSize)
		if other.Offset < offset+size && end > offset {
			if !found || end < best {
				best, found = end, true
			}
		}
	}
	if !found {
		return offset + 1
	}
	return best
}

// Commit applies the post-write bookkeeping of spec §4.4: consume the
// hole if the decision came from one, update the index entry, and
// adjust the database size in pages.
func (a *Allocator) Commit(n int, d Decision, s uint32, originalSize uint32, checksum uint32, flags Flags, databaseSizePages *uint64) {
	a.stats.TotalWrites++
	if n == int(a.lastWritten)+1 {
		a.stats.SequentialWrites++
	}
	a.lastWritten = int64(n)

	if d.Sparse {
		a.index.Set(n, Entry{Flags: FlagSparse})
		if uint64(n+1) > *databaseSizePages {
			*databaseSizePages = uint64(n + 1)
		}
		return
	}

	if d.FromHole {
		a.holes.AllocateAt(d.Offset, uint64(s))
	}

	a.index.Set(n, Entry{
		Offset:       d.Offset,
		StoredSize:   s,
		OriginalSize: originalSize,
		Checksum:     checksum,
		Flags:        flags,
	})

	if uint64(n+1) > *databaseSizePages {
		*databaseSizePages = uint64(n + 1)
	}
}
