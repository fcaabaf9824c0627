/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package codec

import (
	"fmt"

	"github.com/golang/snappy"
)

// snappyCompressor wraps github.com/golang/snappy, the teacher's own
// fastest/lowest-ratio compression choice (internal/compression.AlgorithmSnappy).
type snappyCompressor struct{}

func newSnappyCompressor() *snappyCompressor { return &snappyCompressor{} }

func (s *snappyCompressor) Name() string { return "snappy" }

func (s *snappyCompressor) MaxOutputSize(srcLen int) int {
	return snappy.MaxEncodedLen(srcLen)
}

func (s *snappyCompressor) Compress(src []byte, level int) ([]byte, error) {
	dst := make([]byte, s.MaxOutputSize(len(src)))
	out := snappy.Encode(dst, src)
	return out, nil
}

func (s *snappyCompressor) Decompress(src []byte, originalSize int) ([]byte, error) {
	dst := make([]byte, originalSize)
	out, err := snappy.Decode(dst, src)
	if err != nil {
		return nil, fmt.Errorf("snappy: %w", err)
	}
	return out, nil
}
