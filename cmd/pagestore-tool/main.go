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
pagestore-tool is the offline driver around the pagestore core: it
creates and inspects containers without needing the embedded SQL
engine they are normally mounted under. The engine's own page-copy API
is modeled here as a plain sequential reader/writer over a flat file
of fixed-size pages (spec §1's "thin driver around the core plus the
engine's page-copy API").

Usage:

	pagestore-tool compress <src> <dst> [--compress=zstd] [--encrypt=aes-gcm] [--page-size=4096]
	pagestore-tool decompress <src> <dst>
	pagestore-tool stats <container>
	pagestore-tool verify <container>
	pagestore-tool repl
*/
package main

import (
	"flag"
	"fmt"
	"os"

	"pagestore/pkg/cli"
)

const version = "1.0.0"

// helpFormatter describes every subcommand once; both printUsage and
// the "help <command>" form render from it.
func helpFormatter() *cli.HelpFormatter {
	h := cli.NewHelpFormatter("pagestore-tool", version)
	h.AddCommand(cli.Command{
		Name:        "compress",
		Description: "Create a container from a flat page file",
		Usage:       "pagestore-tool compress <src> <dst> [--compress=zstd] [--encrypt=aes-gcm] [--page-size=4096]",
		Flags: []cli.Flag{
			{Name: "compress", Description: "compression algorithm (gzip, snappy, lz4, zstd)"},
			{Name: "encrypt", Description: "encryption algorithm (aes-gcm, chacha20poly1305)"},
			{Name: "key", Description: "encryption key (hex)", Required: false},
			{Name: "page-size", Description: "container page size in bytes", Default: "4096"},
		},
		Examples: []cli.Example{
			{Description: "compress and encrypt a page file", Command: "pagestore-tool compress data.pages data.pgst --compress=zstd --encrypt=aes-gcm --key=<hex>"},
		},
	})
	h.AddCommand(cli.Command{
		Name:        "decompress",
		Description: "Write a container's pages back to a flat file",
		Usage:       "pagestore-tool decompress <src> <dst> [--key=hex]",
	})
	h.AddCommand(cli.Command{
		Name:        "stats",
		Description: "Print header fields and fragmentation score",
		Usage:       "pagestore-tool stats <container> [--format=table|json|plain]",
	})
	h.AddCommand(cli.Command{
		Name:        "verify",
		Description: "Re-checksum every page, report corruption",
		Usage:       "pagestore-tool verify <container> [--tolerant] [--key=hex]",
	})
	h.AddCommand(cli.Command{
		Name:        "repl",
		Description: "Interactive shell over the commands above",
	})
	return h
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "compress":
		err = runCompress(args)
	case "decompress":
		err = runDecompress(args)
	case "stats":
		err = runStats(args)
	case "verify":
		err = runVerify(args)
	case "repl":
		err = runRepl(args)
	case "--help", "-h", "help":
		if len(args) == 1 {
			helpFormatter().PrintCommandHelp(args[0])
			return
		}
		printUsage()
		return
	case "--version", "-v":
		helpFormatter().PrintVersion()
		return
	default:
		cli.NewCLIError(fmt.Sprintf("unknown command: %s", cmd)).
			WithSuggestion("Run \"pagestore-tool --help\" to see available commands").
			Exit()
	}

	if err != nil {
		cli.NewCLIError(err.Error()).WithExitCode(1).Exit()
	}
}

func printUsage() {
	helpFormatter().PrintUsage()
}

// commonFlagSet builds a flag.FlagSet carrying the codec/page-size
// options "compress" accepts.
func commonFlagSet(name string) (*flag.FlagSet, *string, *string, *int) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	compress := fs.String("compress", "", "compression algorithm (gzip, snappy, lz4, zstd)")
	encrypt := fs.String("encrypt", "", "encryption algorithm (aes-gcm, chacha20poly1305)")
	pageSize := fs.Int("page-size", 4096, "container page size in bytes")
	return fs, compress, encrypt, pageSize
}
