// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package procscan

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/staleproc/lib/pathmatch"
)

// deletedMarker is the suffix the kernel appends to the recorded path
// of a file that was unlinked while still open or mapped.
const deletedMarker = " (deleted)"

// Outcome summarizes the scan of one or more processes.
type Outcome struct {
	// Affected is true when at least one stale file was reported.
	Affected bool

	// Errored is true when at least one check could not be completed.
	// The scan keeps going, but callers should exit nonzero: an
	// unverifiable process is not a verified-clean one.
	Errored bool
}

// absorb folds another outcome into o.
func (o *Outcome) absorb(other Outcome) {
	o.Affected = o.Affected || other.Affected
	o.Errored = o.Errored || other.Errored
}

// Config holds configuration for creating a new Scanner.
type Config struct {
	// ProcRoot is the procfs mount point to scan. Defaults to /proc.
	ProcRoot string

	// Patterns filters which file paths are checked. An empty list
	// checks every path.
	Patterns pathmatch.List

	// RenameSuffixes are stripped from the end of a deleted file's
	// path before locating its on-disk successor. Package managers
	// that cannot replace a busy file install the new version under a
	// suffixed name, and the path the kernel recorded keeps that
	// suffix. At most one suffix is stripped per path.
	RenameSuffixes []string

	// Verbose reports every affected file of a process instead of
	// stopping at the first one.
	Verbose bool

	// TolerateDenied skips procfs entries that cannot be read for
	// lack of permission instead of failing the scan. Full scans by
	// unprivileged users set this: most of the process table belongs
	// to other users.
	TolerateDenied bool

	// Output receives report lines. Defaults to os.Stdout.
	Output io.Writer

	// Logger for scan diagnostics.
	Logger *slog.Logger
}

// Scanner finds processes that execute or memory-map files which have
// been deleted or replaced on disk. Construct one with New; a Scanner
// is stateless across calls and may scan any number of processes.
type Scanner struct {
	procRoot       string
	patterns       pathmatch.List
	renameSuffixes []string
	verbose        bool
	tolerateDenied bool
	out            io.Writer
	logger         *slog.Logger
}

// New creates a Scanner.
func New(config Config) *Scanner {
	procRoot := config.ProcRoot
	if procRoot == "" {
		procRoot = "/proc"
	}
	out := config.Output
	if out == nil {
		out = os.Stdout
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		procRoot:       procRoot,
		patterns:       config.Patterns,
		renameSuffixes: config.RenameSuffixes,
		verbose:        config.Verbose,
		tolerateDenied: config.TolerateDenied,
		out:            out,
		logger:         logger,
	}
}

// ScanPID checks a single process. The executable check runs first.
// The maps check is skipped when the executable check fails outright
// and, in compact mode, when the executable is already reported: the
// process identifier has been printed and nothing more can be said.
func (s *Scanner) ScanPID(pid int) Outcome {
	outcome, err := s.checkExe(pid)
	if err != nil {
		s.logger.Error("checking executable", "pid", pid, "error", err)
		outcome.Errored = true
		return outcome
	}
	if outcome.Affected && !s.verbose {
		return outcome
	}

	maps, err := s.checkMaps(pid)
	if err != nil {
		s.logger.Error("checking memory maps", "pid", pid, "error", err)
		maps.Errored = true
	}
	outcome.absorb(maps)
	return outcome
}

// ScanPIDs checks an explicit list of processes. Unlike ScanAll, the
// list is taken as given: an entry naming a kernel thread is not
// filtered out, so its missing executable image surfaces as an error.
func (s *Scanner) ScanPIDs(pids []int) Outcome {
	var outcome Outcome
	for _, pid := range pids {
		outcome.absorb(s.ScanPID(pid))
	}
	return outcome
}

// ScanAll checks every process under the proc root, skipping kernel
// threads. The returned error covers enumeration only; per-process
// failures are carried in the outcome.
func (s *Scanner) ScanAll() (Outcome, error) {
	pids, err := s.enumerate()
	if err != nil {
		return Outcome{}, err
	}
	s.logger.Debug("scanning processes", "count", len(pids))

	var outcome Outcome
	for _, pid := range pids {
		if s.isKernelThread(pid) {
			s.logger.Debug("skipping kernel thread", "pid", pid)
			continue
		}
		outcome.absorb(s.ScanPID(pid))
	}
	return outcome, nil
}

// pidPath joins path elements under the proc entry for pid.
func (s *Scanner) pidPath(pid int, elements ...string) string {
	return filepath.Join(append([]string{s.procRoot, strconv.Itoa(pid)}, elements...)...)
}

// report prints one affected file. Compact mode prints the process
// identifier alone; verbose mode appends the path.
func (s *Scanner) report(pid int, path string) {
	if s.verbose {
		fmt.Fprintf(s.out, "%d\t%s\n", pid, path)
	} else {
		fmt.Fprintf(s.out, "%d\n", pid)
	}
}

// trimRenameSuffix strips the first configured suffix that matches the
// end of path.
func (s *Scanner) trimRenameSuffix(path string) string {
	for _, suffix := range s.renameSuffixes {
		if trimmed, ok := strings.CutSuffix(path, suffix); ok {
			return trimmed
		}
	}
	return path
}

// processGone reports whether pid no longer exists. Signal 0 probes
// liveness without delivering anything. Only ESRCH confirms absence:
// EPERM means the process exists but belongs to someone else.
func processGone(pid int) bool {
	return errors.Is(unix.Kill(pid, 0), unix.ESRCH)
}
