/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"pagestore/internal/codec"
	"pagestore/internal/config"
	"pagestore/internal/pagestore"
	"pagestore/internal/vfsapi"
	"pagestore/pkg/cli"
)

// runCompress implements the "compress" subcommand: read src as a flat
// sequence of fixed-size pages and write a new container to dst.
func runCompress(args []string) error {
	fs, compress, encrypt, pageSize := commonFlagSet("compress")
	key := fs.String("key", "", "encryption key (hex); required when --encrypt is set")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) != 2 {
		return fmt.Errorf("usage: pagestore-tool compress <src> <dst> [flags]")
	}
	src, dst := rest[0], rest[1]

	cfg := config.DefaultConfig()
	cfg.CompressAlgorithm = *compress
	cfg.EncryptAlgorithm = *encrypt
	cfg.PageSize = uint32(*pageSize)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	keyBytes, err := decodeKey(*key, *encrypt)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	outF, err := vfsapi.OpenOSFile(dst, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	registry := codec.NewRegistry()
	store, err := pagestore.Create(outF, cfg, registry, keyBytes, cfg.PageSize)
	if err != nil {
		outF.Close()
		return fmt.Errorf("initialize container: %w", err)
	}

	spinner := cli.NewSpinner(fmt.Sprintf("compressing %s", src))
	spinner.Start()

	page := make([]byte, cfg.PageSize)
	n := 0
	var offset int64
	for {
		read, rerr := io.ReadFull(in, page)
		if read > 0 {
			buf := page[:read]
			if read < len(page) {
				buf = make([]byte, cfg.PageSize)
				copy(buf, page[:read])
			}
			if _, werr := store.WriteAt(buf, offset); werr != nil {
				spinner.StopWithError("write failed")
				store.Close()
				return fmt.Errorf("write page %d: %w", n, werr)
			}
			offset += int64(cfg.PageSize)
			n++
		}
		if rerr == io.EOF || rerr == io.ErrUnexpectedEOF {
			break
		}
		if rerr != nil {
			spinner.StopWithError("read failed")
			store.Close()
			return fmt.Errorf("read source page %d: %w", n, rerr)
		}
	}

	if err := store.Sync(vfsapi.SyncFull); err != nil {
		spinner.StopWithError("sync failed")
		store.Close()
		return fmt.Errorf("sync container: %w", err)
	}
	if err := store.Close(); err != nil {
		return fmt.Errorf("close container: %w", err)
	}

	spinner.StopWithSuccess(fmt.Sprintf("wrote %d pages to %s", n, dst))
	return nil
}

// runDecompress implements the "decompress" subcommand: walk a
// container's page index and write logical pages back to a flat file,
// zero-filling sparse pages.
func runDecompress(args []string) error {
	fs := flagSetNoCodec("decompress")
	key := fs.String("key", "", "decryption key (hex); required if the container was encrypted")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) != 2 {
		return fmt.Errorf("usage: pagestore-tool decompress <src> <dst> [flags]")
	}
	src, dst := rest[0], rest[1]

	inF, err := vfsapi.OpenOSFile(src, os.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}

	cfg := config.DefaultConfig()
	registry := codec.NewRegistry()
	keyBytes, err := decodeKey(*key, "")
	if err != nil {
		return err
	}

	store, err := pagestore.Open(inF, cfg, registry, keyBytes)
	if err != nil {
		return fmt.Errorf("open container: %w", err)
	}
	defer store.Close()

	size, err := store.FileSize()
	if err != nil {
		return fmt.Errorf("read container size: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	defer out.Close()

	spinner := cli.NewSpinner(fmt.Sprintf("decompressing %s", src))
	spinner.Start()

	pageSize, err := store.PageSize()
	if err != nil {
		return fmt.Errorf("read page size: %w", err)
	}
	buf := make([]byte, pageSize)
	n := 0
	for offset := int64(0); offset < size; offset += int64(pageSize) {
		if _, err := store.ReadAt(buf, offset); err != nil {
			spinner.StopWithError("read failed")
			return fmt.Errorf("read page %d: %w", n, err)
		}
		if _, err := out.WriteAt(buf, offset); err != nil {
			spinner.StopWithError("write failed")
			return fmt.Errorf("write page %d: %w", n, err)
		}
		n++
	}

	spinner.StopWithSuccess(fmt.Sprintf("wrote %d pages to %s", n, dst))
	return nil
}

func flagSetNoCodec(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}
