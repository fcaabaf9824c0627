/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package container

import (
	"testing"

	"pagestore/internal/errors"
)

func defaultHoleConfig() HoleConfig {
	return HoleConfig{Enabled: true, MaxHoles: 32, MinHoleSize: 64}
}

func TestInitThenLoadRoundTrip(t *testing.T) {
	f, cleanup := setupTestFile(t)
	defer cleanup()

	c := Init(f, 4096, 4096, "zstd", "aes-gcm", FlagHoleDetection, defaultHoleConfig())
	c.GrowIndex(4)
	c.Index.Set(1, Entry{Offset: c.DataRegionStart(), StoredSize: 800, OriginalSize: 4096})

	if err := c.SaveHeader(); err != nil {
		t.Fatalf("SaveHeader: %v", err)
	}
	if err := c.SaveIndex(); err != nil {
		t.Fatalf("SaveIndex: %v", err)
	}

	reloaded, err := Load(f, defaultHoleConfig())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if reloaded.Header.PageSize != 4096 {
		t.Errorf("PageSize = %d, want 4096", reloaded.Header.PageSize)
	}
	if reloaded.Header.CompressName != "zstd" {
		t.Errorf("CompressName = %q, want zstd", reloaded.Header.CompressName)
	}
	if reloaded.Index.Len() != 4 {
		t.Fatalf("Index.Len() = %d, want 4", reloaded.Index.Len())
	}
	if reloaded.Index.Get(1).StoredSize != 800 {
		t.Fatalf("entry 1 did not survive the round trip: %+v", reloaded.Index.Get(1))
	}
}

func TestLoadRejectsForeignFile(t *testing.T) {
	f, cleanup := setupTestFile(t)
	defer cleanup()

	if _, err := f.WriteAt([]byte("not a pagestore container at all"), 0); err != nil {
		t.Fatal(err)
	}

	_, err := Load(f, defaultHoleConfig())
	if !errors.IsCategory(err, errors.CategoryContainer) {
		t.Fatalf("expected a container-category error, got %v", err)
	}
	if errors.GetCode(err) != errors.ErrCodeNotContainer {
		t.Fatalf("expected ErrCodeNotContainer, got %v", errors.GetCode(err))
	}
}

func TestLoadRejectsTruncatedFile(t *testing.T) {
	f, cleanup := setupTestFile(t)
	defer cleanup()

	if _, err := f.WriteAt([]byte{1, 2, 3}, 0); err != nil {
		t.Fatal(err)
	}

	_, err := Load(f, defaultHoleConfig())
	if errors.GetCode(err) != errors.ErrCodeNotContainer {
		t.Fatalf("expected ErrCodeNotContainer for a too-short file, got %v", err)
	}
}

func TestLoadDetectsHeaderCorruption(t *testing.T) {
	f, cleanup := setupTestFile(t)
	defer cleanup()

	c := Init(f, 4096, 4096, "", "", 0, defaultHoleConfig())
	if err := c.SaveHeader(); err != nil {
		t.Fatal(err)
	}

	// Flip a byte inside the header but after the magic, to corrupt the CRC.
	var b [1]byte
	if _, err := f.ReadAt(b[:], 20); err != nil {
		t.Fatal(err)
	}
	b[0] ^= 0xFF
	if _, err := f.WriteAt(b[:], 20); err != nil {
		t.Fatal(err)
	}

	_, err := Load(f, defaultHoleConfig())
	if errors.GetCode(err) != errors.ErrCodeCorruptHeader {
		t.Fatalf("expected ErrCodeCorruptHeader, got %v", err)
	}
}

func TestSaveIndexSkipsWhenClean(t *testing.T) {
	f, cleanup := setupTestFile(t)
	defer cleanup()

	c := Init(f, 4096, 4096, "", "", 0, defaultHoleConfig())
	c.Index.ClearDirty()
	if err := c.SaveIndex(); err != nil {
		t.Fatalf("SaveIndex on a clean index should be a no-op, got %v", err)
	}
}

func TestSaveIndexRefusesWhenOverReservedRegion(t *testing.T) {
	f, cleanup := setupTestFile(t)
	defer cleanup()

	c := Init(f, 4096, 4096, "", "", 0, defaultHoleConfig())
	c.reservedIndexBytes = indexEntrySize // room for exactly one entry
	c.GrowIndex(10)

	err := c.SaveIndex()
	if errors.GetCode(err) != errors.ErrCodeOutOfSpaceIndex {
		t.Fatalf("expected ErrCodeOutOfSpaceIndex, got %v", err)
	}
}

func TestDataRegionStartAccountsForReservedIndex(t *testing.T) {
	f, cleanup := setupTestFile(t)
	defer cleanup()

	c := Init(f, 4096, 4096, "", "", 0, defaultHoleConfig())
	want := c.Header.IndexOffset + DefaultReservedIndexBytes
	if c.DataRegionStart() != want {
		t.Fatalf("DataRegionStart() = %d, want %d", c.DataRegionStart(), want)
	}
}
