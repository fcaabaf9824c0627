/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package pagestore is C7: the public vfsapi.File implementation that
composes the container bookkeeping layer (C3+C5+C6), the codec
pipeline (C4), and either the write-behind buffer (C8) or the batch
writer (C9) into one transparent wrapper around a host file handle.

A File that wraps a file with no valid pagestore header falls back to
pure pass-through: every call goes straight to the inner file and
none of the container machinery is touched. This lets the same type
sit in front of both pagestore-managed files and ordinary ones without
the host needing to tell them apart up front.
*/
package pagestore

import (
	"strconv"

	"pagestore/internal/batch"
	"pagestore/internal/codec"
	"pagestore/internal/config"
	"pagestore/internal/container"
	"pagestore/internal/errors"
	"pagestore/internal/logging"
	"pagestore/internal/vfsapi"
)

var log = logging.NewLogger("pagestore")

// RecoveryStats tracks tolerant-mode read outcomes (spec §7): pages
// that failed verification, and how many of those the caller chose to
// paper over rather than fail the read.
type RecoveryStats struct {
	CorruptPages      uint64
	TolerantContinues uint64
}

// File wraps inner with transparent compression, encryption and
// page-index bookkeeping.
type File struct {
	inner vfsapi.File
	cfg   *config.Config

	isContainer bool

	pipeline *codec.Pipeline
	cont     *container.Container
	buffer   *WriteBuffer
	batch    *batch.Batch

	recovery RecoveryStats
}

// Open loads an existing file. If inner has no valid pagestore header
// the returned File is a pure pass-through; any other load failure is
// returned to the caller.
func Open(inner vfsapi.File, cfg *config.Config, registry *codec.Registry, key []byte) (*File, error) {
	holeCfg := container.HoleConfig{
		Enabled:     cfg.EnableHoleDetection,
		MaxHoles:    cfg.MaxHoles,
		MinHoleSize: cfg.MinHoleSize,
	}

	cont, err := container.Load(inner, holeCfg)
	if err != nil {
		if errors.GetCode(err) == errors.ErrCodeNotContainer {
			log.Debug("opening as pass-through, no valid container header")
			return &File{inner: inner, cfg: cfg}, nil
		}
		return nil, err
	}

	pipeline, err := codec.NewPipeline(registry, cont.Header.CompressName, cont.Header.EncryptName, key, 5)
	if err != nil {
		return nil, err
	}

	return newFile(inner, cfg, pipeline, cont), nil
}

// Create initializes a brand-new container over inner and returns a
// File backed by it.
func Create(inner vfsapi.File, cfg *config.Config, registry *codec.Registry, key []byte, enginePageSize uint32) (*File, error) {
	var flags container.CreationFlag
	if cfg.EnableDataRecovery {
		flags |= container.FlagDataRecovery
	}
	if cfg.EnableHoleDetection {
		flags |= container.FlagHoleDetection
	}
	holeCfg := container.HoleConfig{
		Enabled:     cfg.EnableHoleDetection,
		MaxHoles:    cfg.MaxHoles,
		MinHoleSize: cfg.MinHoleSize,
	}

	cont := container.Init(inner, cfg.PageSize, enginePageSize, cfg.CompressAlgorithm, cfg.EncryptAlgorithm, flags, holeCfg)

	pipeline, err := codec.NewPipeline(registry, cfg.CompressAlgorithm, cfg.EncryptAlgorithm, key, 5)
	if err != nil {
		return nil, err
	}

	f := newFile(inner, cfg, pipeline, cont)
	if err := f.cont.SaveHeader(); err != nil {
		return nil, err
	}
	return f, nil
}

func newFile(inner vfsapi.File, cfg *config.Config, pipeline *codec.Pipeline, cont *container.Container) *File {
	f := &File{
		inner:       inner,
		cfg:         cfg,
		isContainer: true,
		pipeline:    pipeline,
		cont:        cont,
	}

	if cfg.BatchEnabled {
		f.batch = batch.New(batch.Config{
			Enabled:            true,
			MaxPages:           cfg.BatchMaxPages,
			MaxMemoryBytes:     cfg.BatchMaxMemoryMB << 20,
			AutoFlushThreshold: cfg.BatchAutoFlushThreshold,
		}, pipeline, cont, inner)
	} else if cfg.EnableWriteBuffer {
		f.buffer = NewWriteBuffer(BufferConfig{
			Enabled:          true,
			MaxEntries:       cfg.MaxBufferEntries,
			MaxTotalBytes:    cfg.MaxBufferBytes,
			AutoFlushEntries: cfg.AutoFlushPages,
		}, f.directWrite)
	}

	return f
}

func (f *File) pageSize() int64 { return int64(f.cont.Header.PageSize) }

// PageSize returns the configured container page size P, for callers
// that need to walk pages from outside the package (e.g. the CLI
// driver's decompress command). It is an error to call this on a
// pass-through File.
func (f *File) PageSize() (int64, error) {
	if !f.isContainer {
		return 0, errors.NotContainer("file has no pagestore header")
	}
	return f.pageSize(), nil
}

// CanMmap reports whether the file can satisfy a memory-mapped fetch
// request. A pagestore container never can (spec §6.3): every page
// may need decompression or decryption before the host can see it.
func (f *File) CanMmap() bool { return false }

// Stats exposes the container's bookkeeping for the CLI's stats
// subcommand and diagnostic callers. It is an error to call this on a
// pass-through File.
func (f *File) Stats() (container.Snapshot, error) {
	if !f.isContainer {
		return container.Snapshot{}, errors.NotContainer("file has no pagestore header")
	}
	stats := f.cont.Allocator.Stats()
	var extentBytes uint64
	for i := 0; i < f.cont.Index.Len(); i++ {
		e := f.cont.Index.Get(i)
		if !e.IsSparse() {
			extentBytes += uint64(e.StoredSize)
		}
	}
	return container.Snapshot{
		Header:             *f.cont.Header,
		TotalPages:         f.cont.Index.Len(),
		HoleCount:          f.cont.Holes.Len(),
		FragmentationScore: container.FragmentationScore(stats, extentBytes),
		AllocStats:         stats,
	}, nil
}

// RecoveryStats returns the tolerant-mode counters accumulated since
// the file was opened.
func (f *File) RecoveryStats() RecoveryStats { return f.recovery }

// directWrite is the codec+allocator+physical-write+index-update path
// a page takes when not staged by the batch writer: used directly
// when neither staging layer is enabled, and as the write-behind
// buffer's flush target (spec §4.4, §4.6).
func (f *File) directWrite(n int, page []byte) error {
	extent, err := f.pipeline.Encode(page)
	if err != nil {
		return err
	}

	if n >= f.cont.Index.Len() {
		f.cont.GrowIndex(n + 1)
	}
	existing := f.cont.Index.Get(n)

	decision, err := f.cont.Allocator.Plan(n, extent.StoredSize, existing)
	if err != nil {
		return err
	}

	if !decision.Sparse {
		if _, err := f.inner.WriteAt(extent.Data, int64(decision.Offset)); err != nil {
			return errors.UnderlyingIO("write", err)
		}
	}

	dbSizePages := f.cont.Header.LogicalSizePages
	f.cont.Allocator.Commit(n, decision, extent.StoredSize, extent.OriginalSize, extent.Checksum, container.Flags(extent.Flags), &dbSizePages)
	f.cont.Header.LogicalSizePages = dbSizePages
	return nil
}

// writePage routes one logical page write through whichever staging
// layer is configured, falling through to directWrite when neither is
// enabled or the write buffer declines it.
func (f *File) writePage(n int, data []byte) error {
	if f.batch != nil {
		return f.batch.Stage(n, data)
	}
	if f.buffer != nil {
		declined, err := f.buffer.Write(n, data)
		if err != nil {
			return err
		}
		if !declined {
			return nil
		}
	}
	return f.directWrite(n, data)
}

// readPage returns the current P bytes of logical page n, consulting
// the staging layer before falling through to the container and codec
// pipeline on a miss (spec §4.5 step 5).
func (f *File) readPage(n int) ([]byte, error) {
	out := make([]byte, f.pageSize())

	if f.buffer != nil && f.buffer.Read(n, out) {
		return out, nil
	}
	if f.batch != nil && f.batch.ServeRead(n, out) {
		return out, nil
	}

	if n >= f.cont.Index.Len() {
		return out, nil
	}
	e := f.cont.Index.Get(n)
	if e.IsSparse() || e.Offset == 0 {
		return out, nil
	}

	raw := make([]byte, e.StoredSize)
	if _, err := f.inner.ReadAt(raw, int64(e.Offset)); err != nil {
		return nil, errors.UnderlyingIO("read", err)
	}

	extent := codec.Extent{
		Data:         raw,
		OriginalSize: e.OriginalSize,
		StoredSize:   e.StoredSize,
		Checksum:     e.Checksum,
		Flags:        codec.Flags(e.Flags),
	}

	decoded, err := f.pipeline.Decode(extent)
	if err != nil {
		f.recovery.CorruptPages++
		if f.cfg.StrictChecksumMode || !f.cfg.EnableDataRecovery {
			return nil, errors.CorruptPage(uint32(n), err.Error())
		}
		log.Warn("tolerating corrupt page", "page", strconv.Itoa(n), "cause", err.Error())
		f.recovery.TolerantContinues++
		return out, nil
	}
	return decoded, nil
}

// ReadAt implements byte-range read (spec §4.5): walk the pages
// covered by [offset, offset+len(buf)), serving each through the
// staging layer or the container, and copy the requested slice into
// the caller's buffer.
func (f *File) ReadAt(buf []byte, offset int64) (int, error) {
	if !f.isContainer {
		return f.inner.ReadAt(buf, offset)
	}
	P := f.pageSize()

	total := 0
	pos := offset
	for total < len(buf) {
		page := int(pos / P)
		inPage := pos % P

		pageBytes, err := f.readPage(page)
		if err != nil {
			return total, err
		}
		n := copy(buf[total:], pageBytes[inPage:])
		total += n
		pos += int64(n)
	}
	return total, nil
}

// WriteAt implements the symmetric write path: a partial-page write
// is a read-modify-write against the current page contents, a
// whole-page write never reads first.
func (f *File) WriteAt(buf []byte, offset int64) (int, error) {
	if !f.isContainer {
		return f.inner.WriteAt(buf, offset)
	}
	P := f.pageSize()

	total := 0
	pos := offset
	for total < len(buf) {
		page := int(pos / P)
		inPage := pos % P
		n := P - inPage
		if remaining := int64(len(buf) - total); n > remaining {
			n = remaining
		}

		var pageBuf []byte
		if inPage == 0 && n == P {
			pageBuf = make([]byte, P)
			copy(pageBuf, buf[total:total+int(n)])
		} else {
			existing, err := f.readPage(page)
			if err != nil {
				return total, err
			}
			pageBuf = existing
			copy(pageBuf[inPage:], buf[total:total+int(n)])
		}

		if err := f.writePage(page, pageBuf); err != nil {
			return total, err
		}

		total += int(n)
		pos += n
	}
	return total, nil
}

// Truncate updates the logical database size to size/P, shrinking the
// live page index when the new size is smaller. Physical space backing
// pages beyond the new size is never reclaimed (spec §4.5); it becomes
// reachable again only through the hole manager on a later overwrite.
func (f *File) Truncate(size int64) error {
	if !f.isContainer {
		return f.inner.Truncate(size)
	}

	P := f.pageSize()
	newCount := int(size / P)

	if newCount < f.cont.Index.Len() {
		for n := newCount; n < f.cont.Index.Len(); n++ {
			e := f.cont.Index.Get(n)
			if !e.IsSparse() && e.Offset != 0 {
				f.cont.Holes.Add(e.Offset, uint64(e.StoredSize))
			}
		}
		f.cont.Index.Shrink(newCount)
		f.cont.Header.TotalPages = uint32(f.cont.Index.Len())
	}

	f.cont.Header.LogicalSizePages = uint64(newCount)
	return nil
}

// FileSize returns the logical database size in bytes: database_size_pages * P,
// not the physical size of the underlying file (spec §4.5).
func (f *File) FileSize() (int64, error) {
	if !f.isContainer {
		return f.inner.FileSize()
	}
	return int64(f.cont.Header.LogicalSizePages) * f.pageSize(), nil
}

// Sync flushes any staged pages, persists the index if dirty and the
// header unconditionally, runs hole-list maintenance, and syncs the underlying file
// (spec §4.5). The write-behind buffer's entries stay in memory after
// the flush so they keep serving read hits (spec §4.6); only Close
// discards them.
func (f *File) Sync(flag vfsapi.SyncFlag) error {
	if !f.isContainer {
		return f.inner.Sync(flag)
	}

	if err := f.flush(); err != nil {
		return err
	}
	if err := f.cont.SaveIndex(); err != nil {
		return err
	}
	if err := f.cont.SaveHeader(); err != nil {
		return err
	}
	f.cont.Holes.Maintenance()

	return f.inner.Sync(flag)
}

// flush commits every staged/buffered page without discarding the
// write-behind buffer's entries, so they remain available for read
// hits afterward.
func (f *File) flush() error {
	if f.batch != nil {
		return f.batch.Flush()
	}
	if f.buffer != nil {
		return f.buffer.FlushAll()
	}
	return nil
}

// flushStaging commits every staged/buffered page and discards the
// staging layer's entries; used on Close, where nothing will read
// through it again.
func (f *File) flushStaging() error {
	if f.batch != nil {
		return f.batch.Cleanup()
	}
	if f.buffer != nil {
		return f.buffer.Cleanup()
	}
	return nil
}

// Close flushes any staged pages, persists the index and header of a
// container (a pass-through File skips this), and closes the
// underlying file.
func (f *File) Close() error {
	if f.isContainer {
		if err := f.flushStaging(); err != nil {
			return err
		}
		if err := f.cont.SaveIndex(); err != nil {
			return err
		}
		if err := f.cont.SaveHeader(); err != nil {
			return err
		}
	}
	return f.inner.Close()
}

// The remaining vfsapi.File methods are pure delegation: locking,
// device characteristics, and host file-control calls are meaningful
// only to the underlying handle (spec §6.2).

func (f *File) Lock(level vfsapi.LockLevel) error             { return f.inner.Lock(level) }
func (f *File) Unlock(level vfsapi.LockLevel) error            { return f.inner.Unlock(level) }
func (f *File) CheckReservedLock() (bool, error)               { return f.inner.CheckReservedLock() }
func (f *File) SectorSize() int                                { return f.inner.SectorSize() }
func (f *File) DeviceCharacteristics() vfsapi.DeviceCharacteristics {
	return f.inner.DeviceCharacteristics()
}
func (f *File) FileControl(op int, arg any) error { return f.inner.FileControl(op, arg) }
