/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package pagestore

import (
	"os"
	"testing"

	"pagestore/internal/vfsapi"
)

// setupTestFile returns a freshly created, empty backing file and a
// cleanup function, following the temp-file-per-test pattern this
// repository's storage-layer tests use throughout.
func setupTestFile(t *testing.T) (*vfsapi.OSFile, func()) {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "pagestore-file-*.bin")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	name := f.Name()
	f.Close()

	of, err := vfsapi.OpenOSFile(name, os.O_RDWR, 0o600)
	if err != nil {
		t.Fatalf("open temp file: %v", err)
	}
	return of, func() { of.Close() }
}
