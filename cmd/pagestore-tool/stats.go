/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package main

import (
	"flag"
	"fmt"
	"os"

	"pagestore/internal/codec"
	"pagestore/internal/config"
	"pagestore/internal/container"
	"pagestore/internal/pagestore"
	"pagestore/internal/vfsapi"
	"pagestore/pkg/cli"
)

// runStats implements the "stats" subcommand: a read-only open of the
// container that exercises no write path, printing header fields, the
// fragmentation score, and the hole-list summary.
func runStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	format := fs.String("format", "table", "output format: table, json, plain")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) != 1 {
		return fmt.Errorf("usage: pagestore-tool stats <container> [--format=table|json|plain]")
	}

	snap, err := openStats(rest[0])
	if err != nil {
		return err
	}

	t := cli.NewTable("FIELD", "VALUE")
	t.SetFormat(cli.ParseOutputFormat(*format))
	t.AddRow("page_size", fmt.Sprintf("%d", snap.Header.PageSize))
	t.AddRow("total_pages", fmt.Sprintf("%d", snap.TotalPages))
	t.AddRow("logical_size_pages", fmt.Sprintf("%d", snap.Header.LogicalSizePages))
	t.AddRow("compress_algorithm", nameOrNone(snap.Header.CompressName))
	t.AddRow("encrypt_algorithm", nameOrNone(snap.Header.EncryptName))
	t.AddRow("hole_count", fmt.Sprintf("%d", snap.HoleCount))
	t.AddRow("fragmentation_score", fmt.Sprintf("%d", snap.FragmentationScore))
	t.AddRow("total_writes", fmt.Sprintf("%d", snap.AllocStats.TotalWrites))
	t.AddRow("in_place_reuses", fmt.Sprintf("%d", snap.AllocStats.InPlaceReuses))
	t.AddRow("hole_reclaims", fmt.Sprintf("%d", snap.AllocStats.HoleReclaims))
	t.AddRow("sequential_writes", fmt.Sprintf("%d", snap.AllocStats.SequentialWrites))
	t.AddRow("wasted_in_extent_bytes", fmt.Sprintf("%d", snap.AllocStats.WastedInExtentBytes))
	t.Print()

	return nil
}

func nameOrNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

// openStats opens path read-only and returns its container.Snapshot,
// closing the handle before returning.
func openStats(path string) (container.Snapshot, error) {
	f, err := vfsapi.OpenOSFile(path, os.O_RDONLY, 0)
	if err != nil {
		return container.Snapshot{}, fmt.Errorf("open %s: %w", path, err)
	}

	cfg := config.DefaultConfig()
	registry := codec.NewRegistry()
	store, err := pagestore.Open(f, cfg, registry, nil)
	if err != nil {
		f.Close()
		return container.Snapshot{}, fmt.Errorf("open container: %w", err)
	}
	defer store.Close()

	return store.Stats()
}
