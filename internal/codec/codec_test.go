/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package codec

import (
	"bytes"
	"testing"
)

func TestCompressorRoundTrip(t *testing.T) {
	testData := []byte(bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog. "), 50))

	registry := NewRegistry()
	names := []string{"gzip", "lz4", "snappy", "zstd"}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			c, err := registry.LookupCompressor(name)
			if err != nil {
				t.Fatalf("lookup %s: %v", name, err)
			}

			compressed, err := c.Compress(testData, 5)
			if err != nil {
				t.Fatalf("compress with %s: %v", name, err)
			}

			decompressed, err := c.Decompress(compressed, len(testData))
			if err != nil {
				t.Fatalf("decompress with %s: %v", name, err)
			}

			if !bytes.Equal(testData, decompressed) {
				t.Errorf("decompressed data does not match original for %s", name)
			}
		})
	}
}

func TestEncryptorRoundTrip(t *testing.T) {
	testData := []byte("sixteen byte block of secret plaintext data to protect")
	key := []byte("0123456789abcdef0123456789abcdef")

	registry := NewRegistry()
	names := []string{"aes-gcm", "chacha20poly1305"}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			e, err := registry.LookupEncryptor(name)
			if err != nil {
				t.Fatalf("lookup %s: %v", name, err)
			}

			ciphertext, err := e.Encrypt(key, testData)
			if err != nil {
				t.Fatalf("encrypt with %s: %v", name, err)
			}

			plaintext, err := e.Decrypt(key, ciphertext)
			if err != nil {
				t.Fatalf("decrypt with %s: %v", name, err)
			}

			if !bytes.Equal(testData, plaintext) {
				t.Errorf("decrypted data does not match original for %s", name)
			}
		})
	}
}

func TestEncryptIsNotIdempotent(t *testing.T) {
	// encrypt ∘ decrypt = id, but not decrypt ∘ encrypt byte-for-byte,
	// since a random IV/nonce is generated each call (spec §4.2).
	testData := []byte("same plaintext every time")
	key := []byte("key-material-of-any-length")

	e := newAESGCMEncryptor()
	first, err := e.Encrypt(key, testData)
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Encrypt(key, testData)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(first, second) {
		t.Fatal("expected distinct ciphertexts for the same plaintext due to random IV")
	}
}

func TestLookupUnknownAlgorithm(t *testing.T) {
	registry := NewRegistry()

	if _, err := registry.LookupCompressor("bogus"); err == nil {
		t.Fatal("expected error for unknown compressor")
	}
	if _, err := registry.LookupEncryptor("bogus"); err == nil {
		t.Fatal("expected error for unknown encryptor")
	}
}

func TestLookupEmptyNameReturnsNil(t *testing.T) {
	registry := NewRegistry()

	c, err := registry.LookupCompressor("")
	if err != nil || c != nil {
		t.Fatalf("expected nil, nil for empty name, got %v, %v", c, err)
	}
	e, err := registry.LookupEncryptor("")
	if err != nil || e != nil {
		t.Fatalf("expected nil, nil for empty name, got %v, %v", e, err)
	}
}

func TestPipelineSparsePage(t *testing.T) {
	registry := NewRegistry()
	pipeline, err := NewPipeline(registry, "zstd", "aes-gcm", []byte("key"), 5)
	if err != nil {
		t.Fatal(err)
	}

	page := make([]byte, 4096)
	extent, err := pipeline.Encode(page)
	if err != nil {
		t.Fatal(err)
	}
	if !extent.Flags.Has(FlagSparse) {
		t.Fatal("expected an all-zero page to produce a sparse extent")
	}
	if extent.StoredSize != 0 {
		t.Fatalf("expected sparse extent to have stored size 0, got %d", extent.StoredSize)
	}

	decoded, err := pipeline.Decode(extent)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(decoded, page) {
		t.Fatal("decoding a sparse extent should return an all-zero page")
	}
}

func TestPipelineRoundTripWithCompressionAndEncryption(t *testing.T) {
	registry := NewRegistry()
	pipeline, err := NewPipeline(registry, "lz4", "chacha20poly1305", []byte("another-key"), 1)
	if err != nil {
		t.Fatal(err)
	}

	page := bytes.Repeat([]byte{0x41}, 4096)
	extent, err := pipeline.Encode(page)
	if err != nil {
		t.Fatal(err)
	}
	if extent.Flags.Has(FlagSparse) {
		t.Fatal("a non-zero page must not be treated as sparse")
	}
	if !extent.Flags.Has(FlagEncrypted) {
		t.Fatal("expected FlagEncrypted to be set")
	}

	decoded, err := pipeline.Decode(extent)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(decoded, page) {
		t.Fatal("round trip must return exactly what was encoded")
	}
}

func TestPipelineSkipsCompressionWhenItDoesNotShrink(t *testing.T) {
	registry := NewRegistry()
	pipeline, err := NewPipeline(registry, "gzip", "", nil, 5)
	if err != nil {
		t.Fatal(err)
	}

	// High-entropy input that gzip cannot shrink.
	page := make([]byte, 256)
	for i := range page {
		page[i] = byte(i * 97 % 251)
	}

	extent, err := pipeline.Encode(page)
	if err != nil {
		t.Fatal(err)
	}
	if extent.Flags.Has(FlagCompressed) && extent.StoredSize >= uint32(len(page)) {
		t.Fatal("COMPRESSED must only be set when the output strictly shrank")
	}
}
