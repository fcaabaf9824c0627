/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package codec

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// zstdCompressor wraps github.com/klauspost/compress/zstd, the
// teacher's best-ratio compression choice (internal/compression.AlgorithmZstd).
// Encoders/decoders are expensive to build, so one of each is kept and
// reused across calls; zstd's Encoder/Decoder types are safe for this
// sequential, single-threaded usage.
type zstdCompressor struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newZstdCompressor() *zstdCompressor {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		panic(fmt.Sprintf("codec: failed to build zstd encoder: %v", err))
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		panic(fmt.Sprintf("codec: failed to build zstd decoder: %v", err))
	}
	return &zstdCompressor{enc: enc, dec: dec}
}

func (z *zstdCompressor) Name() string { return "zstd" }

func (z *zstdCompressor) MaxOutputSize(srcLen int) int {
	return srcLen + srcLen/2 + 256
}

func (z *zstdCompressor) Compress(src []byte, level int) ([]byte, error) {
	return z.enc.EncodeAll(src, make([]byte, 0, z.MaxOutputSize(len(src)))), nil
}

func (z *zstdCompressor) Decompress(src []byte, originalSize int) ([]byte, error) {
	out, err := z.dec.DecodeAll(src, make([]byte, 0, originalSize))
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	return out, nil
}
