/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
)

// aesGCMEncryptor implements AEAD encryption with AES-256-GCM. AES-GCM
// has no ecosystem replacement superior to crypto/aes+crypto/cipher in
// this codebase's dependency pack (see DESIGN.md); the other
// encryption codec, chacha20poly1305, is the one sourced from
// golang.org/x/crypto instead.
type aesGCMEncryptor struct{}

func newAESGCMEncryptor() *aesGCMEncryptor { return &aesGCMEncryptor{} }

func (a *aesGCMEncryptor) Name() string { return "aes-gcm" }

func (a *aesGCMEncryptor) KeySize() int { return 32 }

func (a *aesGCMEncryptor) BlockSizeMax() int {
	// 12-byte GCM nonce + 16-byte authentication tag.
	return 28
}

func (a *aesGCMEncryptor) aead(key []byte) (cipher.AEAD, error) {
	k := normalizeKey(key, a.KeySize())
	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, fmt.Errorf("aes-gcm: %w", err)
	}
	return cipher.NewGCM(block)
}

func (a *aesGCMEncryptor) Encrypt(key, src []byte) ([]byte, error) {
	gcm, err := a.aead(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("aes-gcm: %w", err)
	}
	return gcm.Seal(nonce, nonce, src, nil), nil
}

func (a *aesGCMEncryptor) Decrypt(key, src []byte) ([]byte, error) {
	gcm, err := a.aead(key)
	if err != nil {
		return nil, err
	}
	if len(src) < gcm.NonceSize() {
		return nil, fmt.Errorf("aes-gcm: ciphertext shorter than nonce")
	}
	nonce, ct := src[:gcm.NonceSize()], src[gcm.NonceSize():]
	out, err := gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, fmt.Errorf("aes-gcm: %w", err)
	}
	return out, nil
}

// normalizeKey derives a fixed-length key deterministically from
// whatever key material the caller supplied: a short key is repeated
// cyclically, a long one is truncated to size, and an empty key yields
// an all-zero key.
func normalizeKey(key []byte, size int) []byte {
	if len(key) == 0 {
		key = []byte{0}
	}
	if len(key) == size {
		return key
	}
	out := make([]byte, size)
	for i := range out {
		out[i] = key[i%len(key)]
	}
	return out
}
