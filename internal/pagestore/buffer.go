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

package pagestore

import "container/list"

// BufferConfig bounds the write-behind buffer's capacity (spec §4.6,
// §6.5 "Buffer policy").
type BufferConfig struct {
	Enabled          bool
	MaxEntries       int
	MaxTotalBytes    int64
	AutoFlushEntries int
}

// bufferEntry is one buffered logical page: an owned uncompressed
// buffer plus its current length and dirty state (spec §3.4).
type bufferEntry struct {
	page   int
	data   []byte
	length int
	dirty  bool
}

// BufferStats tracks the counters spec §4.6 calls for.
type BufferStats struct {
	Hits           uint64
	Flushes        uint64
	Merges         uint64
	BufferedWrites uint64
}

// directWriter is the codec+allocator+physical-write+index-update path
// a buffered page is handed to on flush.
type directWriter func(page int, data []byte) error

// WriteBuffer is C8: a bounded collection of dirty pages held in
// memory, flushed through directWriter either explicitly or once a
// capacity threshold is crossed. The backing container/list.List
// mirrors the "owned records with next-index links" shape called for
// in the design notes on pointer graphs, without reaching for a raw
// linked structure of our own.
type WriteBuffer struct {
	cfg    BufferConfig
	order  *list.List
	lookup map[int]*list.Element
	bytes  int64
	write  directWriter

	stats BufferStats
}

// NewWriteBuffer returns a WriteBuffer governed by cfg, flushing
// through write.
func NewWriteBuffer(cfg BufferConfig, write directWriter) *WriteBuffer {
	return &WriteBuffer{
		cfg:    cfg,
		order:  list.New(),
		lookup: make(map[int]*list.Element),
		write:  write,
	}
}

func (wb *WriteBuffer) Stats() BufferStats { return wb.stats }

func (wb *WriteBuffer) entryCount() int { return wb.order.Len() }

// Write implements write(page, bytes): returns declined=true if the
// buffer is disabled, so the caller falls through to the direct
// writer itself.
func (wb *WriteBuffer) Write(page int, data []byte) (declined bool, err error) {
	if !wb.cfg.Enabled {
		return true, nil
	}

	if el, ok := wb.lookup[page]; ok {
		entry := el.Value.(*bufferEntry)
		wb.bytes += int64(len(data)) - int64(entry.length)
		entry.data = append(entry.data[:0], data...)
		entry.length = len(data)
		entry.dirty = true
		wb.order.MoveToFront(el)
		wb.stats.Merges++
		wb.stats.BufferedWrites++
		return false, nil
	}

	if err := wb.makeRoom(int64(len(data))); err != nil {
		return false, err
	}

	owned := make([]byte, len(data))
	copy(owned, data)
	entry := &bufferEntry{page: page, data: owned, length: len(data), dirty: true}
	el := wb.order.PushFront(entry)
	wb.lookup[page] = el
	wb.bytes += int64(len(data))
	wb.stats.BufferedWrites++

	if wb.cfg.AutoFlushEntries > 0 && wb.entryCount() >= wb.cfg.AutoFlushEntries {
		if err := wb.FlushAll(); err != nil {
			return false, err
		}
	}
	return false, nil
}

// makeRoom flushes and evicts the least-recently-written entries until
// adding one more entry of size incoming would fit within the
// configured entry/byte caps. A flushed entry is ordinarily kept
// around for read hits (spec §4.6); eviction for capacity is the one
// case where a flushed entry is actually dropped.
func (wb *WriteBuffer) makeRoom(incoming int64) error {
	for wb.entryCount()+1 > wb.cfg.MaxEntries || (wb.cfg.MaxTotalBytes > 0 && wb.bytes+incoming > wb.cfg.MaxTotalBytes) {
		el := wb.order.Back()
		if el == nil {
			return nil
		}
		entry := el.Value.(*bufferEntry)
		if entry.dirty {
			if err := wb.write(entry.page, entry.data[:entry.length]); err != nil {
				return err
			}
			wb.stats.Flushes++
		}
		wb.order.Remove(el)
		delete(wb.lookup, entry.page)
		wb.bytes -= int64(entry.length)
	}
	return nil
}

// Read implements read(page, out): returns false (miss) if disabled
// or the page is not buffered; otherwise copies the buffered bytes
// into out, zero-padding the tail, and counts a hit.
func (wb *WriteBuffer) Read(page int, out []byte) bool {
	if !wb.cfg.Enabled {
		return false
	}
	el, ok := wb.lookup[page]
	if !ok {
		return false
	}
	entry := el.Value.(*bufferEntry)
	n := copy(out, entry.data[:entry.length])
	for i := n; i < len(out); i++ {
		out[i] = 0
	}
	wb.stats.Hits++
	return true
}

// FlushOne flushes a single page if it is present and dirty.
func (wb *WriteBuffer) FlushOne(page int) error {
	el, ok := wb.lookup[page]
	if !ok {
		return nil
	}
	entry := el.Value.(*bufferEntry)
	if !entry.dirty {
		return nil
	}
	if err := wb.write(entry.page, entry.data[:entry.length]); err != nil {
		return err
	}
	entry.dirty = false
	wb.stats.Flushes++
	return nil
}

// FlushAll flushes every dirty entry. On a per-page failure it
// continues with the remaining pages, returning the first error seen.
func (wb *WriteBuffer) FlushAll() error {
	var firstErr error
	for el := wb.order.Back(); el != nil; el = el.Prev() {
		entry := el.Value.(*bufferEntry)
		if !entry.dirty {
			continue
		}
		if err := wb.write(entry.page, entry.data[:entry.length]); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		entry.dirty = false
		wb.stats.Flushes++
	}
	return firstErr
}

// Cleanup flushes then discards every entry.
func (wb *WriteBuffer) Cleanup() error {
	err := wb.FlushAll()
	wb.order = list.New()
	wb.lookup = make(map[int]*list.Element)
	wb.bytes = 0
	return err
}
