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
Package batch implements C9, the batch writer: staged pages are run
through the codec pipeline eagerly as they are staged, then committed
to disk with exactly one physical write per Flush.

Flush is the one place in this repository where concurrency is
actually used: the per-page checksum re-verification that precedes the
single serialized write is fanned out across a bounded
golang.org/x/sync/errgroup worker set. That fan-out completes and the
physical write commits before Flush returns, so it never violates the
single-threaded, no-internal-locking contract the rest of the core is
held to — the caller never observes more than one in-flight write.
*/
package batch

import (
	"time"

	"golang.org/x/sync/errgroup"

	"pagestore/internal/checksum"
	"pagestore/internal/codec"
	"pagestore/internal/container"
	"pagestore/internal/errors"
	"pagestore/internal/vfsapi"
)

// maxConcurrentVerifications bounds the errgroup worker set used
// during Flush's pre-write integrity pass.
const maxConcurrentVerifications = 8

// StagedPage is one page waiting in the batch (spec §3.5).
type StagedPage struct {
	Page          int
	Original      []byte // owned uncompressed buffer, for read hits
	Processed     []byte // owned post-compression+encryption buffer
	OriginalSize  uint32
	ProcessedSize uint32
	Checksum      uint32
	Flags         container.Flags
	CreatedAt     time.Time
}

func (p *StagedPage) isSparse() bool { return p.Flags.Has(container.FlagSparse) }

// Config bounds the batch's staging capacity.
type Config struct {
	Enabled            bool
	MaxPages           int
	MaxMemoryBytes     int64
	AutoFlushThreshold int
}

// Batch is the in-memory list of staged pages plus the bookkeeping to
// commit them in one physical write (spec §4.7).
type Batch struct {
	cfg      Config
	pipeline *codec.Pipeline
	cont     *container.Container
	writer   vfsapi.File

	pages    []*StagedPage
	byNumber map[int]int // page number -> index into pages
	bytes    int64

	merges uint64
}

// New returns a Batch that stages pages through pipeline and commits
// them against cont's index/hole list, physically writing through writer.
func New(cfg Config, pipeline *codec.Pipeline, cont *container.Container, writer vfsapi.File) *Batch {
	return &Batch{
		cfg:      cfg,
		pipeline: pipeline,
		cont:     cont,
		writer:   writer,
		byNumber: make(map[int]int),
	}
}

// Len reports how many distinct pages are currently staged.
func (b *Batch) Len() int { return len(b.pages) }

// Stage runs the codec pipeline on data immediately and stores the
// result, replacing any existing staged entry for the same page
// number (counted as a merge). It auto-flushes once the page count
// reaches AutoFlushThreshold or the staged bytes reach MaxMemoryBytes.
func (b *Batch) Stage(page int, data []byte) error {
	extent, err := b.pipeline.Encode(data)
	if err != nil {
		return err
	}

	if page >= b.cont.Index.Len() {
		b.cont.GrowIndex(page + 1)
	}

	original := make([]byte, len(data))
	copy(original, data)

	staged := &StagedPage{
		Page:          page,
		Original:      original,
		Processed:     extent.Data,
		OriginalSize:  extent.OriginalSize,
		ProcessedSize: extent.StoredSize,
		Checksum:      extent.Checksum,
		Flags:         container.Flags(extent.Flags),
		CreatedAt:     time.Now(),
	}

	if i, ok := b.byNumber[page]; ok {
		b.bytes += int64(staged.ProcessedSize) - int64(b.pages[i].ProcessedSize)
		b.pages[i] = staged
		b.merges++
	} else {
		b.byNumber[page] = len(b.pages)
		b.pages = append(b.pages, staged)
		b.bytes += int64(staged.ProcessedSize)
	}

	if len(b.pages) >= b.cfg.AutoFlushThreshold || b.bytes >= b.cfg.MaxMemoryBytes {
		return b.Flush()
	}
	return nil
}

// ServeRead copies a staged page's original bytes into out, zero-
// padding to len(out). It returns false if page is not staged.
func (b *Batch) ServeRead(page int, out []byte) bool {
	i, ok := b.byNumber[page]
	if !ok {
		return false
	}
	n := copy(out, b.pages[i].Original)
	for j := n; j < len(out); j++ {
		out[j] = 0
	}
	return true
}

// Flush implements spec §4.7's flush operation: compute the total
// processed size, find one physical region for it, issue exactly one
// write, then update every staged page's index entry in commit order.
func (b *Batch) Flush() error {
	if len(b.pages) == 0 {
		return nil
	}

	if err := b.verifyStagedChecksums(); err != nil {
		return err
	}

	var total uint64
	excludePages := make([]int, 0, len(b.pages))
	for _, p := range b.pages {
		if !p.isSparse() {
			total += uint64(p.ProcessedSize)
		}
		excludePages = append(excludePages, p.Page)
	}

	var base uint64
	var fromHole bool
	if total > 0 {
		var err error
		base, fromHole, err = b.cont.Allocator.FindRegion(total, excludePages)
		if err != nil {
			return err
		}

		blob := make([]byte, 0, int(total))
		for _, p := range b.pages {
			if !p.isSparse() {
				blob = append(blob, p.Processed...)
			}
		}
		if _, err := b.writer.WriteAt(blob, int64(base)); err != nil {
			return errors.UnderlyingIO("write", err)
		}
		if fromHole {
			b.cont.Holes.AllocateAt(base, total)
		}
	}

	if err := b.commitIndex(base); err != nil {
		// The blob is on disk but not referenced by the index: hand
		// its region back to the hole list.
		if total > 0 {
			b.cont.Holes.Add(base, total)
		}
		return errors.WriteCommittedIndexStale(err)
	}

	b.pages = nil
	b.byNumber = make(map[int]int)
	b.bytes = 0
	return nil
}

// verifyStagedChecksums re-checks every staged page's processed bytes
// against its recorded checksum concurrently, bounded by
// maxConcurrentVerifications, before the single serialized write
// commits anything to disk.
func (b *Batch) verifyStagedChecksums() error {
	g := &errgroup.Group{}
	g.SetLimit(maxConcurrentVerifications)

	for _, p := range b.pages {
		p := p
		if p.isSparse() {
			continue
		}
		g.Go(func() error {
			if !checksum.Verify(p.Processed, p.Checksum) {
				return errors.CorruptPage(uint32(p.Page), "staged page checksum mismatch before flush")
			}
			return nil
		})
	}
	return g.Wait()
}

// commitIndex walks the staged pages in order, assigning each its
// cursor offset within the blob written at base, and updates the
// container index. A previously-backed page whose offset changes has
// its old extent freed as a hole.
func (b *Batch) commitIndex(base uint64) error {
	var databaseSizePages uint64 = uint64(b.cont.Header.LogicalSizePages)
	cursor := base

	for _, p := range b.pages {
		old := b.cont.Index.Get(p.Page)

		if p.isSparse() {
			if old.Offset != 0 {
				b.cont.Holes.Add(old.Offset, uint64(old.StoredSize))
			}
			b.cont.Index.Set(p.Page, container.Entry{Flags: container.FlagSparse})
			if uint64(p.Page+1) > databaseSizePages {
				databaseSizePages = uint64(p.Page + 1)
			}
			continue
		}

		if old.Offset != 0 && old.Offset != cursor {
			b.cont.Holes.Add(old.Offset, uint64(old.StoredSize))
		}

		b.cont.Index.Set(p.Page, container.Entry{
			Offset:       cursor,
			StoredSize:   p.ProcessedSize,
			OriginalSize: p.OriginalSize,
			Checksum:     p.Checksum,
			Flags:        p.Flags,
		})
		cursor += uint64(p.ProcessedSize)

		if uint64(p.Page+1) > databaseSizePages {
			databaseSizePages = uint64(p.Page + 1)
		}
	}

	b.cont.Header.LogicalSizePages = databaseSizePages
	return nil
}

// Cleanup flushes any remaining staged pages and releases their buffers.
func (b *Batch) Cleanup() error {
	if len(b.pages) == 0 {
		return nil
	}
	return b.Flush()
}

// Merges exposes the batch's merge counter for fragmentation/diagnostic reporting.
func (b *Batch) Merges() uint64 { return b.merges }
