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

package codec

import (
	"fmt"

	"pagestore/internal/checksum"
)

// Flags describes the treatment applied to one stored page extent
// (spec §3.2).
type Flags uint32

const (
	FlagCompressed Flags = 1 << iota
	FlagEncrypted
	FlagSparse
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// Extent is the result of running the codec pipeline forward over one
// logical page (spec §3.5's "processed buffer", generalized): the
// bytes as stored on disk plus the metadata a page-index entry needs.
type Extent struct {
	Data         []byte
	OriginalSize uint32
	StoredSize   uint32
	Checksum     uint32
	Flags        Flags
}

// Pipeline implements C4: compress, then encrypt, then checksum a
// logical page into a storable Extent, and the reverse on read. It is
// stateless apart from the Registry and algorithm names/key it was
// built with — no package-level codec table, no process-wide key
// (spec §9).
type Pipeline struct {
	registry    *Registry
	compressor  Compressor
	encryptor   Encryptor
	key         []byte
	level       int
}

// NewPipeline resolves compressName/encryptName against registry and
// returns a Pipeline bound to key. Either name may be empty to disable
// that stage.
func NewPipeline(registry *Registry, compressName, encryptName string, key []byte, level int) (*Pipeline, error) {
	c, err := registry.LookupCompressor(compressName)
	if err != nil {
		return nil, err
	}
	e, err := registry.LookupEncryptor(encryptName)
	if err != nil {
		return nil, err
	}
	return &Pipeline{registry: registry, compressor: c, encryptor: e, key: key, level: level}, nil
}

func isAllZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// Encode runs the forward pipeline over one logical page of length P
// (spec §4.2): sparse short-circuit, shrink-only compression, AEAD
// encryption with IV/tag headroom, then a CRC-32 of the final bytes.
func (p *Pipeline) Encode(page []byte) (Extent, error) {
	originalSize := uint32(len(page))

	if isAllZero(page) {
		return Extent{
			OriginalSize: originalSize,
			StoredSize:   0,
			Checksum:     0,
			Flags:        FlagSparse,
		}, nil
	}

	data := page
	var flags Flags

	if p.compressor != nil {
		compressed, err := p.compressor.Compress(page, p.level)
		if err == nil && len(compressed) < len(data) {
			data = compressed
			flags |= FlagCompressed
		}
	}

	if p.encryptor != nil {
		encrypted, err := p.encryptor.Encrypt(p.key, data)
		if err != nil {
			return Extent{}, fmt.Errorf("pipeline: encryption failed: %w", err)
		}
		data = encrypted
		flags |= FlagEncrypted
	}

	// The pipeline never retains a caller's buffer (spec §3.7): if
	// neither stage above ran, data still aliases page, so copy before
	// handing it off as the Extent's owned storage.
	if flags == 0 {
		owned := make([]byte, len(data))
		copy(owned, data)
		data = owned
	}

	sum := checksum.Sum(data)

	return Extent{
		Data:         data,
		OriginalSize: originalSize,
		StoredSize:   uint32(len(data)),
		Checksum:     sum,
		Flags:        flags,
	}, nil
}

// Decode runs the reverse pipeline: verify checksum, decrypt if
// FlagEncrypted, decompress if FlagCompressed, then zero-pad back up
// to originalSize (spec §4.2 reverse pipeline). A sparse extent
// decodes to originalSize zero bytes without touching any codec.
func (p *Pipeline) Decode(e Extent) ([]byte, error) {
	if e.Flags.Has(FlagSparse) {
		return make([]byte, e.OriginalSize), nil
	}

	if !checksum.Verify(e.Data, e.Checksum) {
		return nil, fmt.Errorf("pipeline: checksum mismatch")
	}

	data := e.Data

	if e.Flags.Has(FlagEncrypted) {
		if p.encryptor == nil {
			return nil, fmt.Errorf("pipeline: extent is encrypted but no encryptor is configured")
		}
		plain, err := p.encryptor.Decrypt(p.key, data)
		if err != nil {
			return nil, fmt.Errorf("pipeline: decryption failed: %w", err)
		}
		data = plain
	}

	if e.Flags.Has(FlagCompressed) {
		if p.compressor == nil {
			return nil, fmt.Errorf("pipeline: extent is compressed but no compressor is configured")
		}
		plain, err := p.compressor.Decompress(data, int(e.OriginalSize))
		if err != nil {
			return nil, fmt.Errorf("pipeline: decompression failed: %w", err)
		}
		data = plain
	}

	if uint32(len(data)) < e.OriginalSize {
		padded := make([]byte, e.OriginalSize)
		copy(padded, data)
		data = padded
	} else if uint32(len(data)) > e.OriginalSize {
		data = data[:e.OriginalSize]
	}

	return data, nil
}

// CompressName and EncryptName return the bounded algorithm names this
// Pipeline was built with, as stored in the container header.
func (p *Pipeline) CompressName() string {
	if p.compressor == nil {
		return ""
	}
	return p.compressor.Name()
}

func (p *Pipeline) EncryptName() string {
	if p.encryptor == nil {
		return ""
	}
	return p.encryptor.Name()
}

// MaxExtraBytes returns the worst-case extra bytes Encode can add atop
// the original page (spec §4.2 step 3's "2 x block_size_max" bound),
// used by callers that pre-size buffers.
func (p *Pipeline) MaxExtraBytes() int {
	if p.encryptor == nil {
		return 0
	}
	return 2 * p.encryptor.BlockSizeMax()
}
