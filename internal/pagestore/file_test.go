/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package pagestore

import (
	"bytes"
	"os"
	"testing"

	"pagestore/internal/codec"
	"pagestore/internal/config"
	"pagestore/internal/vfsapi"
)

// newTestConfig disables the write-behind buffer so these tests can
// inspect the container's index/allocator state directly after a
// WriteAt, without needing a Sync in between. Buffer behavior itself
// is covered by buffer_test.go.
func newTestConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.PageSize = 4096
	cfg.EnableWriteBuffer = false
	return cfg
}

func TestCreateThenOpenRoundTripNoCodecs(t *testing.T) {
	tmp, err := os.CreateTemp(t.TempDir(), "pagestore-roundtrip-*.bin")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	path := tmp.Name()
	tmp.Close()

	of, err := vfsapi.OpenOSFile(path, os.O_RDWR, 0o600)
	if err != nil {
		t.Fatalf("open temp file: %v", err)
	}

	cfg := newTestConfig()
	cfg.CompressAlgorithm = ""
	cfg.EncryptAlgorithm = ""

	f, err := Create(of, cfg, codec.NewEmptyRegistry(), nil, 4096)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	page := bytes.Repeat([]byte{0x5A}, 4096)
	if _, err := f.WriteAt(page, 0); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	if err := f.Sync(0); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	of2, err := vfsapi.OpenOSFile(path, os.O_RDWR, 0o600)
	if err != nil {
		t.Fatalf("reopen temp file: %v", err)
	}
	defer of2.Close()

	f2, err := Open(of2, cfg, codec.NewEmptyRegistry(), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	out := make([]byte, 4096)
	if _, err := f2.ReadAt(out, 0); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if !bytes.Equal(out, page) {
		t.Fatal("round-tripped page does not match what was written")
	}
}

func TestWriteAllZeroPageIsSparse(t *testing.T) {
	of, cleanup := setupTestFile(t)
	defer cleanup()

	f, err := Create(of, newTestConfig(), codec.NewEmptyRegistry(), nil, 4096)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.WriteAt(make([]byte, 4096), 0); err != nil {
		t.Fatal(err)
	}

	e := f.cont.Index.Get(0)
	if !e.IsSparse() {
		t.Fatal("expected an all-zero page to be recorded as sparse")
	}

	out := make([]byte, 4096)
	if _, err := f.ReadAt(out, 0); err != nil {
		t.Fatal(err)
	}
	for _, b := range out {
		if b != 0 {
			t.Fatal("expected a sparse page to read back as all zero")
		}
	}
}

func TestOverwriteSameSizeExtentReusesOffset(t *testing.T) {
	of, cleanup := setupTestFile(t)
	defer cleanup()

	cfg := newTestConfig()
	f, err := Create(of, cfg, codec.NewEmptyRegistry(), nil, 4096)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.WriteAt(bytes.Repeat([]byte{1}, 4096), 0); err != nil {
		t.Fatal(err)
	}
	first := f.cont.Index.Get(0)

	// A second write of the same size without codecs lands on the same
	// stored size, so it reuses the same physical offset in place.
	if _, err := f.WriteAt(bytes.Repeat([]byte{2}, 4096), 0); err != nil {
		t.Fatal(err)
	}
	second := f.cont.Index.Get(0)

	if second.Offset != first.Offset {
		t.Fatalf("expected in-place reuse, offsets differ: %d vs %d", first.Offset, second.Offset)
	}

	out := make([]byte, 4096)
	f.ReadAt(out, 0)
	if !bytes.Equal(out, bytes.Repeat([]byte{2}, 4096)) {
		t.Fatal("expected the second write's bytes to win")
	}
}

func TestPartialPageWriteIsReadModifyWrite(t *testing.T) {
	of, cleanup := setupTestFile(t)
	defer cleanup()

	cfg := newTestConfig()
	cfg.EnableWriteBuffer = false
	f, err := Create(of, cfg, codec.NewEmptyRegistry(), nil, 4096)
	if err != nil {
		t.Fatal(err)
	}

	full := bytes.Repeat([]byte{0xAB}, 4096)
	if _, err := f.WriteAt(full, 0); err != nil {
		t.Fatal(err)
	}

	patch := bytes.Repeat([]byte{0xCD}, 10)
	if _, err := f.WriteAt(patch, 100); err != nil {
		t.Fatal(err)
	}

	out := make([]byte, 4096)
	if _, err := f.ReadAt(out, 0); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out[:100], full[:100]) {
		t.Fatal("bytes before the patch should be untouched")
	}
	if !bytes.Equal(out[100:110], patch) {
		t.Fatal("the patched range should reflect the partial write")
	}
	if !bytes.Equal(out[110:], full[110:]) {
		t.Fatal("bytes after the patch should be untouched")
	}
}

func TestFileSizeReflectsLogicalPagesNotPhysicalBytes(t *testing.T) {
	of, cleanup := setupTestFile(t)
	defer cleanup()

	f, err := Create(of, newTestConfig(), codec.NewEmptyRegistry(), nil, 4096)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.WriteAt(bytes.Repeat([]byte{1}, 4096), 3*4096); err != nil {
		t.Fatal(err)
	}

	size, err := f.FileSize()
	if err != nil {
		t.Fatal(err)
	}
	if size != 4*4096 {
		t.Fatalf("FileSize() = %d, want %d (4 logical pages)", size, 4*4096)
	}
}

func TestTruncateShrinksLogicalSizeAndFreesExtents(t *testing.T) {
	of, cleanup := setupTestFile(t)
	defer cleanup()

	f, err := Create(of, newTestConfig(), codec.NewEmptyRegistry(), nil, 4096)
	if err != nil {
		t.Fatal(err)
	}

	for n := 0; n < 4; n++ {
		if _, err := f.WriteAt(bytes.Repeat([]byte{byte(n + 1)}, 4096), int64(n)*4096); err != nil {
			t.Fatal(err)
		}
	}

	if err := f.Truncate(2 * 4096); err != nil {
		t.Fatal(err)
	}

	size, err := f.FileSize()
	if err != nil {
		t.Fatal(err)
	}
	if size != 2*4096 {
		t.Fatalf("FileSize() after truncate = %d, want %d", size, 2*4096)
	}
	if f.cont.Index.Len() != 2 {
		t.Fatalf("Index.Len() = %d, want 2 after truncate", f.cont.Index.Len())
	}
	if f.cont.Holes.Len() == 0 {
		t.Fatal("expected the truncated-away extents to be recorded as holes")
	}
}

func TestBatchEnabledWriteBeyondEmptyIndexRoundTrips(t *testing.T) {
	of, cleanup := setupTestFile(t)
	defer cleanup()

	cfg := newTestConfig()
	cfg.BatchEnabled = true
	cfg.BatchMaxPages = 100
	cfg.BatchMaxMemoryMB = 1
	cfg.BatchAutoFlushThreshold = 100

	f, err := Create(of, cfg, codec.NewEmptyRegistry(), nil, 4096)
	if err != nil {
		t.Fatal(err)
	}

	// The container's index starts empty; staging a page well past its
	// current length must grow the index rather than panic.
	page := bytes.Repeat([]byte{0x7E}, 4096)
	if _, err := f.WriteAt(page, 10*4096); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	if err := f.Sync(0); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	out := make([]byte, 4096)
	if _, err := f.ReadAt(out, 10*4096); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if !bytes.Equal(out, page) {
		t.Fatal("round-tripped batched page does not match what was staged")
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOpenNonContainerFileIsPassThrough(t *testing.T) {
	of, cleanup := setupTestFile(t)
	defer cleanup()

	if _, err := of.WriteAt([]byte("not a pagestore container"), 0); err != nil {
		t.Fatal(err)
	}

	f, err := Open(of, newTestConfig(), codec.NewEmptyRegistry(), nil)
	if err != nil {
		t.Fatalf("Open on a non-container file should pass through, got error: %v", err)
	}
	if f.isContainer {
		t.Fatal("expected a pass-through File")
	}

	out := make([]byte, len("not a pagestore container"))
	if _, err := f.ReadAt(out, 0); err != nil {
		t.Fatal(err)
	}
	if string(out) != "not a pagestore container" {
		t.Fatal("pass-through read did not return the underlying bytes")
	}
}
