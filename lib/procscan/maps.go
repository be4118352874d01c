// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package procscan

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/bureau-foundation/staleproc/lib/filecmp"
)

// mapEntry holds the fields of one maps line that the staleness check
// needs.
type mapEntry struct {
	start    uint64
	end      uint64
	devMajor uint64
	inode    uint64
	path     string
}

// checkMaps reports whether the process maps files that were deleted
// or replaced on disk. Each candidate is compared against the kernel's
// map_files entry for its address range, which still exposes the
// mapped bytes. A non-nil error means the maps table itself could not
// be read.
func (s *Scanner) checkMaps(pid int) (Outcome, error) {
	mapsPath := s.pidPath(pid, "maps")
	file, err := os.Open(mapsPath)
	if err != nil {
		if s.tolerateDenied && errors.Is(err, fs.ErrPermission) {
			s.logger.Debug("maps unreadable, skipping", "pid", pid, "error", err)
			return Outcome{}, nil
		}
		if processGone(pid) {
			s.logger.Debug("process exited during scan", "pid", pid)
			return Outcome{}, nil
		}
		return Outcome{}, fmt.Errorf("opening %s: %w", mapsPath, err)
	}
	defer file.Close()

	var outcome Outcome
	lastPath := ""
	lines := bufio.NewScanner(file)
	for lines.Scan() {
		line, deleted := strings.CutSuffix(lines.Text(), deletedMarker)
		if !deleted {
			continue
		}
		entry, ok := parseMapsLine(s.trimRenameSuffix(line))
		if !ok {
			continue
		}
		// The same file typically appears on consecutive lines with
		// different permissions (text, rodata, data segments); check
		// it once.
		if entry.path == lastPath {
			continue
		}
		lastPath = entry.path

		// Pseudo-files such as SYSV shared memory segments and DRM
		// buffers carry inode 0 or device major 0.
		if entry.inode == 0 || entry.devMajor == 0 {
			continue
		}
		if !s.patterns.Allows(entry.path) {
			continue
		}

		mapFile := s.pidPath(pid, "map_files", fmt.Sprintf("%x-%x", entry.start, entry.end))
		identical, err := filecmp.Equal(entry.path, mapFile)
		if err != nil {
			s.logger.Warn("comparing mapped file", "pid", pid, "path", entry.path, "error", err)
			outcome.Errored = true
		} else if identical {
			continue
		}

		outcome.Affected = true
		s.report(pid, entry.path)
		if !s.verbose {
			break
		}
	}
	if err := lines.Err(); err != nil {
		if processGone(pid) {
			s.logger.Debug("process exited during scan", "pid", pid)
			return outcome, nil
		}
		return outcome, fmt.Errorf("reading %s: %w", mapsPath, err)
	}
	return outcome, nil
}

// parseMapsLine extracts a mapEntry from a maps line whose deletion
// marker has already been stripped. The expected shape is
//
//	start-end perms offset major:minor inode    path
//
// with ascending hex addresses, a four-character permission field, a
// hex device pair, and a decimal inode. The path keeps internal
// whitespace.
//
// Returns false for lines that do not have this shape; such lines are
// skipped, not fatal, since the kernel may grow new pseudo-entries.
func parseMapsLine(line string) (mapEntry, bool) {
	var entry mapEntry
	var err error

	addresses, rest := nextField(line)
	startText, endText, ok := strings.Cut(addresses, "-")
	if !ok {
		return entry, false
	}
	if entry.start, err = strconv.ParseUint(startText, 16, 64); err != nil {
		return entry, false
	}
	if entry.end, err = strconv.ParseUint(endText, 16, 64); err != nil {
		return entry, false
	}
	if entry.start >= entry.end {
		return entry, false
	}

	var perms string
	perms, rest = nextField(rest)
	if len(perms) != 4 {
		return entry, false
	}

	var offset string
	offset, rest = nextField(rest)
	if _, err = strconv.ParseUint(offset, 16, 64); err != nil {
		return entry, false
	}

	var device string
	device, rest = nextField(rest)
	majorText, minorText, ok := strings.Cut(device, ":")
	if !ok {
		return entry, false
	}
	if entry.devMajor, err = strconv.ParseUint(majorText, 16, 64); err != nil {
		return entry, false
	}
	if _, err = strconv.ParseUint(minorText, 16, 64); err != nil {
		return entry, false
	}

	var inodeText string
	inodeText, rest = nextField(rest)
	if entry.inode, err = strconv.ParseUint(inodeText, 10, 64); err != nil {
		return entry, false
	}

	entry.path = strings.TrimLeft(rest, " \t")
	if entry.path == "" {
		return entry, false
	}
	return entry, true
}

// nextField splits the leading whitespace-delimited field from line.
func nextField(line string) (field, rest string) {
	line = strings.TrimLeft(line, " \t")
	if end := strings.IndexAny(line, " \t"); end >= 0 {
		return line[:end], line[end:]
	}
	return line, ""
}
