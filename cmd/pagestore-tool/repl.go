/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"pagestore/pkg/cli"
)

// runRepl implements the "repl" subcommand: an interactive shell over
// the same stats/verify operations the one-shot subcommands expose,
// for drivers that want to poke at several containers in one session
// without re-spawning the process each time.
func runRepl(args []string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          cli.Highlight("pagestore> "),
		HistoryFile:     "",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("start readline: %w", err)
	}
	defer rl.Close()

	cli.Box("pagestore-tool", "Interactive shell over the stats/verify commands.\nType \"help\" for a command list, \"exit\" to leave.")

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(strings.TrimSpace(line)) == 0 {
				break
			}
			continue
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if err := dispatchReplCommand(fields); err != nil {
			if err == errReplExit {
				break
			}
			cli.PrintError("%s", err.Error())
		}
	}
	return nil
}

func dispatchReplCommand(fields []string) error {
	switch fields[0] {
	case "exit", "quit", "\\q":
		return errReplExit
	case "help", "\\h":
		cli.KeyValue("stats <container>", "print header fields and fragmentation score", 22)
		cli.KeyValue("verify <container>", "re-checksum every page", 22)
		cli.KeyValue("exit", "leave the shell", 22)
		return nil
	case "stats":
		return runStats(fields[1:])
	case "verify":
		return runVerify(fields[1:])
	default:
		return fmt.Errorf("unknown command %q (try \"help\")", fields[0])
	}
}

var errReplExit = fmt.Errorf("repl: exit requested")
