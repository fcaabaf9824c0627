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
Package vfsapi fixes the two collaborator interfaces this repository
sits between: the file-I/O surface the core calls on its underlying
file handle (spec §6.2), and the surface the core exposes back to the
host embedded SQL engine (spec §6.3). Both are out of scope to
implement in full (they belong to the host engine), but the core is
generic over them so it can be embedded by any caller that provides a
File.
*/
package vfsapi

// LockLevel mirrors the embedded-engine file locking levels forwarded
// unchanged to the underlying file.
type LockLevel int

const (
	LockNone LockLevel = iota
	LockShared
	LockReserved
	LockPending
	LockExclusive
)

// SyncFlag controls how aggressively Sync flushes to stable storage.
type SyncFlag int

const (
	SyncNormal SyncFlag = iota
	SyncFull
)

// DeviceCharacteristics is a bitmask describing properties of the
// underlying storage device, forwarded unchanged from the wrapped file.
type DeviceCharacteristics uint32

// File is the interface the core calls on its underlying file handle
// (spec §6.2) and also the interface it exposes to the host engine
// (spec §6.3, plus the CanMmap capability flag). A single interface
// serves both directions since the core is a transparent wrapper: it
// implements File by delegating to an inner File.
type File interface {
	ReadAt(buf []byte, offset int64) (int, error)
	WriteAt(buf []byte, offset int64) (int, error)
	Truncate(size int64) error
	Sync(flag SyncFlag) error
	FileSize() (int64, error)
	Lock(level LockLevel) error
	Unlock(level LockLevel) error
	CheckReservedLock() (bool, error)
	SectorSize() int
	DeviceCharacteristics() DeviceCharacteristics
	FileControl(op int, arg any) error
	Close() error
}

// CanMmap reports whether f can satisfy a memory-mapped fetch request.
// The container never can (spec §6.3); other File implementations may.
func CanMmap(f File) bool {
	type mmapCapable interface {
		CanMmap() bool
	}
	if m, ok := f.(mmapCapable); ok {
		return m.CanMmap()
	}
	return false
}
