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
Package codec defines the compression and encryption plug-in contract
(spec §6.4) and a Registry that looks implementations up by name (C2).
Registries are values built at container-construction time; there is
no package-level singleton codec table and no process-wide encryption
key (spec §9 "Global mutable state" design note) — every Pipeline
carries its own Registry and key explicitly.
*/
package codec

import "fmt"

// Compressor is the capability set a compression plug-in must provide.
type Compressor interface {
	// Name returns the bounded algorithm name stored in the container header.
	Name() string
	// MaxOutputSize returns an upper bound on the compressed size of an
	// input of length srcLen, used to size the output buffer.
	MaxOutputSize(srcLen int) int
	// Compress returns the compressed form of src at the given level.
	Compress(src []byte, level int) ([]byte, error)
	// Decompress returns the decoded form of src, which is known to
	// decode to exactly originalSize bytes.
	Decompress(src []byte, originalSize int) ([]byte, error)
}

// Encryptor is the capability set an encryption plug-in must provide.
type Encryptor interface {
	// Name returns the bounded algorithm name stored in the container header.
	Name() string
	// KeySize returns the nominal key size in bytes this codec expects.
	KeySize() int
	// BlockSizeMax bounds the worst-case IV-plus-padding overhead added
	// to the plaintext length, used to size the output buffer (spec §4.2 step 3).
	BlockSizeMax() int
	// Encrypt returns ciphertext for src under key.
	Encrypt(key, src []byte) ([]byte, error)
	// Decrypt returns the plaintext for src under key.
	Decrypt(key, src []byte) ([]byte, error)
}

// Registry maps algorithm names to their Compressor/Encryptor
// implementations. The zero value is empty; use NewRegistry to get
// one pre-populated with the codecs this repository ships.
type Registry struct {
	compressors map[string]Compressor
	encryptors  map[string]Encryptor
}

// NewEmptyRegistry returns a Registry with nothing registered, useful
// for tests that need deterministic, minimal codec sets.
func NewEmptyRegistry() *Registry {
	return &Registry{
		compressors: make(map[string]Compressor),
		encryptors:  make(map[string]Encryptor),
	}
}

// NewRegistry returns a Registry pre-populated with every compression
// and encryption codec this repository implements.
func NewRegistry() *Registry {
	r := NewEmptyRegistry()
	r.RegisterCompressor(newGzipCompressor())
	r.RegisterCompressor(newSnappyCompressor())
	r.RegisterCompressor(newLZ4Compressor())
	r.RegisterCompressor(newZstdCompressor())
	r.RegisterEncryptor(newAESGCMEncryptor())
	r.RegisterEncryptor(newChaCha20Encryptor())
	return r
}

// RegisterCompressor adds or replaces a compressor under its own Name().
func (r *Registry) RegisterCompressor(c Compressor) {
	r.compressors[c.Name()] = c
}

// RegisterEncryptor adds or replaces an encryptor under its own Name().
func (r *Registry) RegisterEncryptor(e Encryptor) {
	r.encryptors[e.Name()] = e
}

// LookupCompressor returns the named compressor. An empty name yields
// (nil, nil); an unregistered name yields an error.
func (r *Registry) LookupCompressor(name string) (Compressor, error) {
	if name == "" {
		return nil, nil
	}
	c, ok := r.compressors[name]
	if !ok {
		return nil, fmt.Errorf("codec: unknown compression algorithm %q", name)
	}
	return c, nil
}

// LookupEncryptor returns the named encryptor. An empty name yields
// (nil, nil); an unregistered name yields an error.
func (r *Registry) LookupEncryptor(name string) (Encryptor, error) {
	if name == "" {
		return nil, nil
	}
	e, ok := r.encryptors[name]
	if !ok {
		return nil, fmt.Errorf("codec: unknown encryption algorithm %q", name)
	}
	return e, nil
}
