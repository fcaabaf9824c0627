/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package vfsapi

import (
	"os"
	"sync"
)

// OSFile adapts *os.File to the File interface. It is the File
// implementation used by the CLI driver and by tests; a real embedded
// engine would instead hand the core its own VFS file handle.
type OSFile struct {
	mu   sync.Mutex
	f    *os.File
	lock LockLevel
}

// NewOSFile wraps an already-open *os.File.
func NewOSFile(f *os.File) *OSFile {
	return &OSFile{f: f}
}

// OpenOSFile opens path with the given flag/perm and wraps the result.
func OpenOSFile(path string, flag int, perm os.FileMode) (*OSFile, error) {
	f, err := os.OpenFile(path, flag, perm)
	if err != nil {
		return nil, err
	}
	return NewOSFile(f), nil
}

func (o *OSFile) ReadAt(buf []byte, offset int64) (int, error) {
	return o.f.ReadAt(buf, offset)
}

func (o *OSFile) WriteAt(buf []byte, offset int64) (int, error) {
	return o.f.WriteAt(buf, offset)
}

func (o *OSFile) Truncate(size int64) error {
	return o.f.Truncate(size)
}

func (o *OSFile) Sync(flag SyncFlag) error {
	return o.f.Sync()
}

func (o *OSFile) FileSize() (int64, error) {
	fi, err := o.f.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

func (o *OSFile) Lock(level LockLevel) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if level > o.lock {
		o.lock = level
	}
	return nil
}

func (o *OSFile) Unlock(level LockLevel) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if level < o.lock {
		o.lock = level
	}
	return nil
}

func (o *OSFile) CheckReservedLock() (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lock >= LockReserved, nil
}

func (o *OSFile) SectorSize() int {
	return 512
}

func (o *OSFile) DeviceCharacteristics() DeviceCharacteristics {
	return 0
}

func (o *OSFile) FileControl(op int, arg any) error {
	return nil
}

// CanMmap reports that a plain OS file could satisfy a memory-mapped
// fetch; the pagestore container wrapping it never does (see
// vfsapi.CanMmap and pagestore.File).
func (o *OSFile) CanMmap() bool {
	return true
}

func (o *OSFile) Close() error {
	return o.f.Close()
}
