/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package container

import "sort"

// DefaultMaintenanceInterval is T in spec §4.3: every this-many add/
// allocate_at operations, maintenance runs inline.
const DefaultMaintenanceInterval = 50

// Hole is a tracked interval of freed data-region bytes (spec §3.3).
type Hole struct {
	Offset uint64
	Size   uint64
}

func (h Hole) end() uint64 { return h.Offset + h.Size }

// HoleConfig bounds the hole manager's behavior.
type HoleConfig struct {
	Enabled              bool
	MaxHoles             int
	MinHoleSize          uint64
	MaintenanceInterval  int
}

// HoleList is the ordered, disjoint collection of holes a container
// tracks in memory; it is never persisted (spec §6.1).
type HoleList struct {
	cfg     HoleConfig
	holes   []Hole // kept sorted by Offset
	opCount int
}

// NewHoleList returns a HoleList governed by cfg. A zero
// MaintenanceInterval is replaced with DefaultMaintenanceInterval.
func NewHoleList(cfg HoleConfig) *HoleList {
	if cfg.MaintenanceInterval <= 0 {
		cfg.MaintenanceInterval = DefaultMaintenanceInterval
	}
	return &HoleList{cfg: cfg}
}

// Len returns the number of tracked holes.
func (hl *HoleList) Len() int { return len(hl.holes) }

// Holes returns a snapshot of the tracked holes, in ascending offset order.
func (hl *HoleList) Holes() []Hole {
	out := make([]Hole, len(hl.holes))
	copy(out, hl.holes)
	return out
}

func (hl *HoleList) tick() {
	hl.opCount++
	if hl.opCount >= hl.cfg.MaintenanceInterval {
		hl.Maintenance()
		hl.opCount = 0
	}
}

// Add implements add(offset, size): merge with adjacent/overlapping
// neighbors, then insert, evicting the current smallest hole if the
// list is already at capacity and the new hole is larger.
func (hl *HoleList) Add(offset, size uint64) {
	if !hl.cfg.Enabled || size < hl.cfg.MinHoleSize {
		return
	}

	h := Hole{Offset: offset, Size: size}

	i := sort.Search(len(hl.holes), func(i int) bool { return hl.holes[i].Offset >= h.Offset })

	// Merge with left neighbor if adjacent or overlapping.
	if i > 0 {
		left := hl.holes[i-1]
		if left.end() >= h.Offset {
			newEnd := h.end()
			if left.end() > newEnd {
				newEnd = left.end()
			}
			h = Hole{Offset: left.Offset, Size: newEnd - left.Offset}
			hl.holes = append(hl.holes[:i-1], hl.holes[i:]...)
			i--
		}
	}

	// Merge with right neighbor(s) if adjacent or overlapping.
	for i < len(hl.holes) {
		right := hl.holes[i]
		if right.Offset > h.end() {
			break
		}
		newEnd := h.end()
		if right.end() > newEnd {
			newEnd = right.end()
		}
		h = Hole{Offset: h.Offset, Size: newEnd - h.Offset}
		hl.holes = append(hl.holes[:i], hl.holes[i+1:]...)
	}

	if len(hl.holes) >= hl.cfg.MaxHoles {
		smallestIdx, smallestSize := -1, uint64(0)
		for idx, existing := range hl.holes {
			if smallestIdx == -1 || existing.Size < smallestSize {
				smallestIdx, smallestSize = idx, existing.Size
			}
		}
		if smallestIdx == -1 || h.Size <= smallestSize {
			hl.tick()
			return
		}
		hl.holes = append(hl.holes[:smallestIdx], hl.holes[smallestIdx+1:]...)
	}

	insertAt := sort.Search(len(hl.holes), func(i int) bool { return hl.holes[i].Offset >= h.Offset })
	hl.holes = append(hl.holes, Hole{})
	copy(hl.holes[insertAt+1:], hl.holes[insertAt:])
	hl.holes[insertAt] = h

	hl.tick()
}

// AllocateAt removes [offset, offset+size) from the hole that
// strictly contains it, implementing the four cases of spec §4.3's
// allocate_at. It is a no-op if no hole contains the range (the
// allocator only calls this for offsets it obtained from FindBestFit).
func (hl *HoleList) AllocateAt(offset, size uint64) {
	defer hl.tick()

	for i, h := range hl.holes {
		if offset < h.Offset || offset+size > h.end() {
			continue
		}

		prefix := offset - h.Offset
		suffix := h.end() - (offset + size)

		switch {
		case prefix == 0 && suffix == 0:
			hl.holes = append(hl.holes[:i], hl.holes[i+1:]...)
		case prefix == 0:
			hl.holes[i] = Hole{Offset: offset + size, Size: suffix}
			hl.discardIfTooSmall(i)
		case suffix == 0:
			hl.holes[i] = Hole{Offset: h.Offset, Size: prefix}
			hl.discardIfTooSmall(i)
		default:
			left := Hole{Offset: h.Offset, Size: prefix}
			right := Hole{Offset: offset + size, Size: suffix}
			replacement := make([]Hole, 0, 2)
			if left.Size >= hl.cfg.MinHoleSize {
				replacement = append(replacement, left)
			}
			if right.Size >= hl.cfg.MinHoleSize {
				replacement = append(replacement, right)
			}
			hl.holes = append(hl.holes[:i], append(replacement, hl.holes[i+1:]...)...)
		}
		return
	}
}

func (hl *HoleList) discardIfTooSmall(i int) {
	if hl.holes[i].Size < hl.cfg.MinHoleSize {
		hl.holes = append(hl.holes[:i], hl.holes[i+1:]...)
	}
}

// FindBestFit implements find_best_fit: linear scan for the hole with
// the smallest size-required_size ≥ 0, short-circuiting on a perfect
// fit. The bool return is false when no hole is large enough.
func (hl *HoleList) FindBestFit(required uint64) (uint64, bool) {
	bestIdx := -1
	var bestWaste uint64

	for i, h := range hl.holes {
		if h.Size < required {
			continue
		}
		waste := h.Size - required
		if waste == 0 {
			return h.Offset, true
		}
		if bestIdx == -1 || waste < bestWaste {
			bestIdx, bestWaste = i, waste
		}
	}

	if bestIdx == -1 {
		return 0, false
	}
	return hl.holes[bestIdx].Offset, true
}

// Maintenance merges any adjacent pair left un-merged by a bypassed
// Add and drops any hole below the configured minimum size.
func (hl *HoleList) Maintenance() {
	if len(hl.holes) == 0 {
		return
	}

	sort.Slice(hl.holes, func(i, j int) bool { return hl.holes[i].Offset < hl.holes[j].Offset })

	merged := hl.holes[:0:0]
	cur := hl.holes[0]
	for _, h := range hl.holes[1:] {
		if h.Offset <= cur.end() {
			newEnd := cur.end()
			if h.end() > newEnd {
				newEnd = h.end()
			}
			cur = Hole{Offset: cur.Offset, Size: newEnd - cur.Offset}
			continue
		}
		merged = append(merged, cur)
		cur = h
	}
	merged = append(merged, cur)

	final := merged[:0]
	for _, h := range merged {
		if h.Size >= hl.cfg.MinHoleSize {
			final = append(final, h)
		}
	}
	hl.holes = final
	hl.opCount = 0
}
