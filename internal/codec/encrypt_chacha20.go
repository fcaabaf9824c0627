/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package codec

import (
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// chacha20Encryptor implements AEAD encryption with ChaCha20-Poly1305
// from golang.org/x/crypto, the teacher's own crypto dependency.
type chacha20Encryptor struct{}

func newChaCha20Encryptor() *chacha20Encryptor { return &chacha20Encryptor{} }

func (c *chacha20Encryptor) Name() string { return "chacha20poly1305" }

func (c *chacha20Encryptor) KeySize() int { return chacha20poly1305.KeySize }

func (c *chacha20Encryptor) BlockSizeMax() int {
	return chacha20poly1305.NonceSize + chacha20poly1305.Overhead
}

func (c *chacha20Encryptor) Encrypt(key, src []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(normalizeKey(key, c.KeySize()))
	if err != nil {
		return nil, fmt.Errorf("chacha20poly1305: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("chacha20poly1305: %w", err)
	}
	return aead.Seal(nonce, nonce, src, nil), nil
}

func (c *chacha20Encryptor) Decrypt(key, src []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(normalizeKey(key, c.KeySize()))
	if err != nil {
		return nil, fmt.Errorf("chacha20poly1305: %w", err)
	}
	if len(src) < aead.NonceSize() {
		return nil, fmt.Errorf("chacha20poly1305: ciphertext shorter than nonce")
	}
	nonce, ct := src[:aead.NonceSize()], src[aead.NonceSize():]
	out, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, fmt.Errorf("chacha20poly1305: %w", err)
	}
	return out, nil
}
