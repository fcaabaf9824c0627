/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package container

import (
	"time"

	"pagestore/internal/errors"
	"pagestore/internal/vfsapi"
)

// DefaultReservedIndexBytes reserves room for the page index to grow
// in place before the data region begins, so that growth never
// relocates the data region (spec §3.1). This is a compile-time
// constant; exceeding it surfaces OutOfSpaceInIndex rather than
// triggering an automatic relocation (an Open Question in spec §7,
// resolved this way — see DESIGN.md).
const DefaultReservedIndexBytes = 1 << 20 // 1 MiB, 32768 page-index entries

// Container bundles the header, page index, hole list and allocator
// that make up the on-disk bookkeeping layer of one pagestore file
// (C3 + C5 + C6).
type Container struct {
	file vfsapi.File

	Header    *Header
	Index     *Index
	Holes     *HoleList
	Allocator *Allocator

	reservedIndexBytes uint64
}

// fileSizerAdapter adapts a vfsapi.File to the narrower FileSizer the
// allocator needs.
type fileSizerAdapter struct{ f vfsapi.File }

func (a fileSizerAdapter) FileSize() (uint64, error) {
	n, err := a.f.FileSize()
	return uint64(n), err
}

func (c *Container) dataRegionStart() uint64 {
	return c.Header.IndexOffset + c.reservedIndexBytes
}

// Load implements load_header + load_index (spec §4.1) against an
// already-open file. It returns errors.NotContainer if the file has no
// valid magic (the caller should then treat the whole handle as a
// pass-through), errors.CorruptHeader on a CRC mismatch, and
// errors.IncompatibleVersion on an unsupported major version.
func Load(file vfsapi.File, holeCfg HoleConfig) (*Container, error) {
	size, err := file.FileSize()
	if err != nil {
		return nil, errors.UnderlyingIO("file_size", err)
	}
	if size < headerSize {
		return nil, errors.NotContainer("file shorter than header record")
	}

	buf := make([]byte, headerSize)
	if _, err := file.ReadAt(buf, 0); err != nil {
		return nil, errors.UnderlyingIO("read", err)
	}

	if !hasValidMagic(buf) {
		return nil, errors.NotContainer("magic bytes do not match")
	}

	h := decodeHeader(buf)
	if h.Major > majorVersion {
		return nil, errors.IncompatibleVersion(h.Major, majorVersion)
	}
	if !validateHeaderCRC(buf) {
		return nil, errors.CorruptHeader("header CRC-32 mismatch")
	}

	idxBuf := make([]byte, int(h.TotalPages)*indexEntrySize)
	if len(idxBuf) > 0 {
		if _, err := file.ReadAt(idxBuf, int64(h.IndexOffset)); err != nil {
			return nil, errors.UnderlyingIO("read", err)
		}
	}
	idx := decodeIndex(idxBuf, int(h.TotalPages))

	holes := NewHoleList(holeCfg)

	c := &Container{
		file:               file,
		Header:             &h,
		Index:              idx,
		Holes:              holes,
		reservedIndexBytes: DefaultReservedIndexBytes,
	}
	c.Allocator = NewAllocator(idx, holes, c.dataRegionStart(), fileSizerAdapter{file})
	return c, nil
}

// Init implements init_header for a brand-new container (spec §4.1).
func Init(file vfsapi.File, pageSize, enginePageSize uint32, compressName, encryptName string, flags CreationFlag, holeCfg HoleConfig) *Container {
	h := newHeader(pageSize, enginePageSize, compressName, encryptName, flags, time.Now())
	idx := newIndex(0)
	holes := NewHoleList(holeCfg)

	c := &Container{
		file:               file,
		Header:             h,
		Index:              idx,
		Holes:              holes,
		reservedIndexBytes: DefaultReservedIndexBytes,
	}
	c.Allocator = NewAllocator(idx, holes, c.dataRegionStart(), fileSizerAdapter{file})
	return c
}

// InitAt behaves like Init but stamps the creation timestamp with now,
// kept distinct from Init so tests can pin a deterministic timestamp
// without reaching into package internals.
func InitAt(file vfsapi.File, pageSize, enginePageSize uint32, compressName, encryptName string, flags CreationFlag, holeCfg HoleConfig, now time.Time) *Container {
	c := Init(file, pageSize, enginePageSize, compressName, encryptName, flags, holeCfg)
	c.Header.CreationTimestamp = uint64(now.Unix())
	return c
}

// DataRegionStart returns D: the first byte offset a page extent may occupy.
func (c *Container) DataRegionStart() uint64 { return c.dataRegionStart() }

// SaveHeader persists the header unconditionally (spec §4.5 Sync/Close).
func (c *Container) SaveHeader() error {
	buf := encodeHeader(c.Header)
	if _, err := c.file.WriteAt(buf, 0); err != nil {
		return errors.UnderlyingIO("write", err)
	}
	return nil
}

// SaveIndex implements save_index: only persists when dirty, and
// refuses if the payload would exceed the reserved index region.
func (c *Container) SaveIndex() error {
	if !c.Index.Dirty() {
		return nil
	}
	payload := c.Index.encode()
	if uint64(len(payload)) > c.reservedIndexBytes {
		return errors.OutOfSpaceInIndex(uint64(len(payload)), c.reservedIndexBytes)
	}
	if _, err := c.file.WriteAt(payload, int64(c.Header.IndexOffset)); err != nil {
		return errors.UnderlyingIO("write", err)
	}
	c.Index.ClearDirty()
	c.Header.TotalPages = uint32(c.Index.Len())
	return nil
}

// GrowIndex wraps Index.Grow, keeping the header's TotalPages in step.
// The allocator's data-region start is left as it is: it is computed
// from IndexOffset + the fixed reserved region, not from TotalPages.
func (c *Container) GrowIndex(newCount int) {
	c.Index.Grow(newCount)
	c.Header.TotalPages = uint32(c.Index.Len())
}
