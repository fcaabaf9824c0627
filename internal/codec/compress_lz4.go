/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package codec

import (
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// lz4Compressor wraps github.com/pierrec/lz4/v4, the teacher's balanced
// speed/ratio compression choice (internal/compression.AlgorithmLZ4).
type lz4Compressor struct{}

func newLZ4Compressor() *lz4Compressor { return &lz4Compressor{} }

func (l *lz4Compressor) Name() string { return "lz4" }

func (l *lz4Compressor) MaxOutputSize(srcLen int) int {
	return lz4.CompressBlockBound(srcLen)
}

func (l *lz4Compressor) Compress(src []byte, level int) ([]byte, error) {
	dst := make([]byte, l.MaxOutputSize(len(src)))
	var c lz4.Compressor
	n, err := c.CompressBlock(src, dst)
	if err != nil {
		return nil, fmt.Errorf("lz4: %w", err)
	}
	if n == 0 {
		// Incompressible input: lz4 signals this by writing nothing.
		return nil, fmt.Errorf("lz4: input not compressible")
	}
	return dst[:n], nil
}

func (l *lz4Compressor) Decompress(src []byte, originalSize int) ([]byte, error) {
	dst := make([]byte, originalSize)
	n, err := lz4.UncompressBlock(src, dst)
	if err != nil {
		return nil, fmt.Errorf("lz4: %w", err)
	}
	return dst[:n], nil
}
