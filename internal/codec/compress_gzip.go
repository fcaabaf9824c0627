/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package codec

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
)

// gzipCompressor is kept alongside the third-party codecs below the
// same way the teacher ships AlgorithmGzip next to LZ4/Snappy/Zstd:
// one stdlib codec for parity, not as a substitute for the others.
type gzipCompressor struct{}

func newGzipCompressor() *gzipCompressor { return &gzipCompressor{} }

func (g *gzipCompressor) Name() string { return "gzip" }

func (g *gzipCompressor) MaxOutputSize(srcLen int) int {
	return srcLen + srcLen/1000 + 64
}

func (g *gzipCompressor) Compress(src []byte, level int) ([]byte, error) {
	if level < gzip.HuffmanOnly || level > gzip.BestCompression {
		level = gzip.DefaultCompression
	}
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	if _, err := w.Write(src); err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *gzipCompressor) Decompress(src []byte, originalSize int) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	defer r.Close()
	out := make([]byte, 0, originalSize)
	buf := bytes.NewBuffer(out)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	return buf.Bytes(), nil
}
