// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/staleproc/lib/pathmatch"
	"github.com/bureau-foundation/staleproc/lib/procscan"
	"github.com/bureau-foundation/staleproc/lib/version"
)

const usageText = `staleproc: find processes running deleted or replaced files

Scans /proc for processes whose executable or memory-mapped files have
been deleted from disk, or replaced with a file of different content.
These processes keep running the old code until restarted.

USAGE

  staleproc [flags] [PID...]

With no arguments every process is scanned. With PID arguments only the
named processes are checked.

FLAGS

  -f, --pattern GLOB          only consider paths matching GLOB; prefix
                              with '!' to exclude. Patterns are tried in
                              order and the first match decides. May be
                              given multiple times.
      --rename-suffix SUFFIX  treat a file ending in SUFFIX as a pending
                              replacement for the same path without the
                              suffix (default ".apk-new"). May be given
                              multiple times.
  -v, --verbose               report every affected file as PID<TAB>path
                              instead of stopping at the first per process
  -V, --version               print version and exit
  -h, --help                  print this help and exit

OUTPUT

Affected process identifiers are written to stdout, one per line. With
--verbose each line is the PID, a tab, and the stale file's path.

EXIT CODES

  0    scan completed; affected processes, if any, are on stdout
  1    the scan failed, or a process could not be fully checked
  100  usage error

ENVIRONMENT

  STALEPROC_PROC   proc filesystem root (default /proc)
  STALEPROC_DEBUG  set to any value for debug logging on stderr
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(arguments []string) int {
	var (
		patterns       []string
		renameSuffixes []string
		verbose        bool
		showVersion    bool
		showHelp       bool
	)

	flags := pflag.NewFlagSet("staleproc", pflag.ContinueOnError)
	flags.SetOutput(os.Stderr)
	flags.StringArrayVarP(&patterns, "pattern", "f", nil, "path glob, '!'-prefix excludes")
	flags.StringArrayVar(&renameSuffixes, "rename-suffix", []string{".apk-new"}, "pending-replacement filename suffix")
	flags.BoolVarP(&verbose, "verbose", "v", false, "report every affected file")
	flags.BoolVarP(&showVersion, "version", "V", false, "print version and exit")
	flags.BoolVarP(&showHelp, "help", "h", false, "print help and exit")

	if err := flags.Parse(arguments); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			fmt.Print(usageText)
			return 0
		}
		fmt.Fprintf(os.Stderr, "staleproc: %v\n", err)
		fmt.Fprint(os.Stderr, usageText)
		return 100
	}
	if showHelp {
		fmt.Print(usageText)
		return 0
	}
	if showVersion {
		version.Print("staleproc")
		return 0
	}

	level := slog.LevelInfo
	if os.Getenv("STALEPROC_DEBUG") != "" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	compiled, err := pathmatch.Compile(patterns)
	if err != nil {
		fmt.Fprintf(os.Stderr, "staleproc: %v\n", err)
		return 100
	}

	pids, err := parsePIDs(flags.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "staleproc: %v\n", err)
		return 100
	}

	scanner := procscan.New(procscan.Config{
		ProcRoot:       os.Getenv("STALEPROC_PROC"),
		Patterns:       compiled,
		RenameSuffixes: renameSuffixes,
		Verbose:        verbose,
		TolerateDenied: len(pids) == 0 && os.Geteuid() != 0,
		Logger:         logger,
	})

	var outcome procscan.Outcome
	if len(pids) > 0 {
		outcome = scanner.ScanPIDs(pids)
	} else {
		outcome, err = scanner.ScanAll()
		if err != nil {
			fmt.Fprintf(os.Stderr, "staleproc: %v\n", err)
			return 1
		}
	}
	if outcome.Errored {
		return 1
	}
	return 0
}

// parsePIDs converts trailing arguments to process identifiers. PIDs
// are positive decimal integers; anything else is a usage error.
func parsePIDs(arguments []string) ([]int, error) {
	pids := make([]int, 0, len(arguments))
	for _, argument := range arguments {
		pid, err := strconv.Atoi(argument)
		if err != nil || pid < 1 {
			return nil, fmt.Errorf("invalid argument: %s", argument)
		}
		pids = append(pids, pid)
	}
	return pids, nil
}
