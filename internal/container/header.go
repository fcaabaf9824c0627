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
Package container implements C3 (header and page index), C5 (hole
manager) and C6 (space allocator): the on-disk bookkeeping layer a
pagestore.File is built on. The binary layout in this file is
bit-exact and always little-endian, whatever the host's byte order
(spec §6.1).
*/
package container

import (
	"encoding/binary"
	"hash/crc32"
	"time"
)

const (
	magic        = "PGSTORE1"
	magicSize    = 8
	majorVersion = 1
	minorVersion = 0

	// headerSize is H: the fixed length of the header record.
	headerSize = 132

	// nameFieldSize is the fixed width of the NUL-padded codec name fields.
	nameFieldSize = 16

	// indexEntrySize is the fixed width of one page-index entry (spec §6.1).
	indexEntrySize = 32
)

// Header field byte offsets, named the way a fixed binary record's
// offsets are named throughout this codebase's lineage.
const (
	offMagic                  = 0   // [8]byte
	offMajor                  = 8   // uint16
	offMinor                  = 10  // uint16
	offHeaderSize             = 12  // uint32
	offCompatibleEnginePageSz = 16  // uint32
	offEngineVersion          = 20  // uint32
	offLogicalSizePages       = 24  // uint64
	offCompressName           = 32  // [16]byte
	offEncryptName            = 48  // [16]byte
	offPageSize               = 64  // uint32
	offTotalPages             = 68  // uint32
	offIndexOffset            = 72  // uint64
	offOriginalTotalBytes     = 80  // uint64
	offStoredTotalBytes       = 88  // uint64
	offCompressionRatioPct    = 96  // uint32
	offCreationFlags          = 100 // uint32
	offMasterKeyHash          = 104 // uint64
	offCreationTimestamp      = 112 // uint64
	offReservedStart          = 120 // reserved through offHeaderCRC32
	offHeaderCRC32            = 128 // uint32
)

// CreationFlag bits recorded in the header's creation_flags field.
type CreationFlag uint32

const (
	FlagDataRecovery CreationFlag = 1 << iota
	FlagHoleDetection
)

// Header is the in-memory image of the H-byte container header
// (spec §3.1, §6.1).
type Header struct {
	Major                     uint16
	Minor                     uint16
	HeaderSize                uint32
	CompatibleEnginePageSize  uint32
	EngineVersion             uint32
	LogicalSizePages          uint64
	CompressName              string
	EncryptName               string
	PageSize                  uint32
	TotalPages                uint32
	IndexOffset               uint64
	OriginalTotalBytes        uint64
	StoredTotalBytes          uint64
	CompressionRatioPercent   uint32
	CreationFlags             CreationFlag
	MasterKeyHash             uint64
	CreationTimestamp         uint64
	CRC32                     uint32

	dirty bool
}

// putName writes s into buf[off:off+nameFieldSize], truncating and
// NUL-padding as needed.
func putName(buf []byte, off int, s string) {
	n := copy(buf[off:off+nameFieldSize], s)
	for i := off + n; i < off+nameFieldSize; i++ {
		buf[i] = 0
	}
}

func getName(buf []byte, off int) string {
	end := off
	for end < off+nameFieldSize && buf[end] != 0 {
		end++
	}
	return string(buf[off:end])
}

// encodeHeader serializes h into a fresh headerSize-byte record,
// computing and storing the CRC as the final step.
func encodeHeader(h *Header) []byte {
	buf := make([]byte, headerSize)

	copy(buf[offMagic:], magic)
	binary.LittleEndian.PutUint16(buf[offMajor:], h.Major)
	binary.LittleEndian.PutUint16(buf[offMinor:], h.Minor)
	binary.LittleEndian.PutUint32(buf[offHeaderSize:], h.HeaderSize)
	binary.LittleEndian.PutUint32(buf[offCompatibleEnginePageSz:], h.CompatibleEnginePageSize)
	binary.LittleEndian.PutUint32(buf[offEngineVersion:], h.EngineVersion)
	binary.LittleEndian.PutUint64(buf[offLogicalSizePages:], h.LogicalSizePages)
	putName(buf, offCompressName, h.CompressName)
	putName(buf, offEncryptName, h.EncryptName)
	binary.LittleEndian.PutUint32(buf[offPageSize:], h.PageSize)
	binary.LittleEndian.PutUint32(buf[offTotalPages:], h.TotalPages)
	binary.LittleEndian.PutUint64(buf[offIndexOffset:], h.IndexOffset)
	binary.LittleEndian.PutUint64(buf[offOriginalTotalBytes:], h.OriginalTotalBytes)
	binary.LittleEndian.PutUint64(buf[offStoredTotalBytes:], h.StoredTotalBytes)
	binary.LittleEndian.PutUint32(buf[offCompressionRatioPct:], h.CompressionRatioPercent)
	binary.LittleEndian.PutUint32(buf[offCreationFlags:], uint32(h.CreationFlags))
	binary.LittleEndian.PutUint64(buf[offMasterKeyHash:], h.MasterKeyHash)
	binary.LittleEndian.PutUint64(buf[offCreationTimestamp:], h.CreationTimestamp)

	crc := computeHeaderCRC(buf)
	binary.LittleEndian.PutUint32(buf[offHeaderCRC32:], crc)

	return buf
}

// decodeHeader parses buf (exactly headerSize bytes) without
// validating the magic, version, or CRC; the caller validates those
// separately so that the distinct failure kinds of spec §7 can be
// told apart.
func decodeHeader(buf []byte) Header {
	var h Header
	h.Major = binary.LittleEndian.Uint16(buf[offMajor:])
	h.Minor = binary.LittleEndian.Uint16(buf[offMinor:])
	h.HeaderSize = binary.LittleEndian.Uint32(buf[offHeaderSize:])
	h.CompatibleEnginePageSize = binary.LittleEndian.Uint32(buf[offCompatibleEnginePageSz:])
	h.EngineVersion = binary.LittleEndian.Uint32(buf[offEngineVersion:])
	h.LogicalSizePages = binary.LittleEndian.Uint64(buf[offLogicalSizePages:])
	h.CompressName = getName(buf, offCompressName)
	h.EncryptName = getName(buf, offEncryptName)
	h.PageSize = binary.LittleEndian.Uint32(buf[offPageSize:])
	h.TotalPages = binary.LittleEndian.Uint32(buf[offTotalPages:])
	h.IndexOffset = binary.LittleEndian.Uint64(buf[offIndexOffset:])
	h.OriginalTotalBytes = binary.LittleEndian.Uint64(buf[offOriginalTotalBytes:])
	h.StoredTotalBytes = binary.LittleEndian.Uint64(buf[offStoredTotalBytes:])
	h.CompressionRatioPercent = binary.LittleEndian.Uint32(buf[offCompressionRatioPct:])
	h.CreationFlags = CreationFlag(binary.LittleEndian.Uint32(buf[offCreationFlags:]))
	h.MasterKeyHash = binary.LittleEndian.Uint64(buf[offMasterKeyHash:])
	h.CreationTimestamp = binary.LittleEndian.Uint64(buf[offCreationTimestamp:])
	h.CRC32 = binary.LittleEndian.Uint32(buf[offHeaderCRC32:])
	return h
}

// computeHeaderCRC hashes buf with the CRC field itself zeroed.
func computeHeaderCRC(buf []byte) uint32 {
	tmp := make([]byte, headerSize)
	copy(tmp, buf)
	for i := offHeaderCRC32; i < offHeaderCRC32+4; i++ {
		tmp[i] = 0
	}
	return crc32.ChecksumIEEE(tmp)
}

func validateHeaderCRC(buf []byte) bool {
	stored := binary.LittleEndian.Uint32(buf[offHeaderCRC32:])
	return stored == computeHeaderCRC(buf)
}

func hasValidMagic(buf []byte) bool {
	return len(buf) >= headerSize && string(buf[offMagic:offMagic+magicSize]) == magic
}

// newHeader builds a fresh Header for a new container (init_header,
// spec §4.1): zeroed structure plus magic, versions, page size, codec
// names, creation flags and the current wall-clock timestamp.
func newHeader(pageSize, enginePageSize uint32, compressName, encryptName string, flags CreationFlag, now time.Time) *Header {
	return &Header{
		Major:                    majorVersion,
		Minor:                    minorVersion,
		HeaderSize:               headerSize,
		CompatibleEnginePageSize: enginePageSize,
		EngineVersion:            1,
		LogicalSizePages:         0,
		CompressName:             compressName,
		EncryptName:              encryptName,
		PageSize:                 pageSize,
		TotalPages:               0,
		IndexOffset:              uint64(headerSize),
		CreationFlags:            flags,
		CreationTimestamp:        uint64(now.Unix()),
		dirty:                    true,
	}
}
