// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package procscan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/bureau-foundation/staleproc/lib/filecmp"
)

// checkExe reports whether the process executable was deleted or
// replaced on disk. A non-nil error means the exe link could not be
// read at all; comparison failures do not abort, the file is reported
// stale and the outcome carries Errored.
func (s *Scanner) checkExe(pid int) (Outcome, error) {
	exePath := s.pidPath(pid, "exe")
	target, err := os.Readlink(exePath)
	if err != nil {
		if s.tolerateDenied && errors.Is(err, fs.ErrPermission) {
			s.logger.Debug("executable link unreadable, skipping", "pid", pid, "error", err)
			return Outcome{}, nil
		}
		if processGone(pid) {
			s.logger.Debug("process exited during scan", "pid", pid)
			return Outcome{}, nil
		}
		return Outcome{}, fmt.Errorf("reading link %s: %w", exePath, err)
	}

	path, deleted := strings.CutSuffix(target, deletedMarker)
	if !deleted {
		return Outcome{}, nil
	}
	path = s.trimRenameSuffix(path)
	if !s.patterns.Allows(path) {
		return Outcome{}, nil
	}

	// The exe link still reaches the original image; the recorded
	// path names its successor, resolved inside the process's own
	// root in case it is chrooted.
	var outcome Outcome
	onDisk := s.pidPath(pid, "root", path)
	identical, err := filecmp.Equal(exePath, onDisk)
	if err != nil {
		s.logger.Warn("comparing executable", "pid", pid, "path", path, "error", err)
		outcome.Errored = true
	} else if identical {
		return Outcome{}, nil
	}

	outcome.Affected = true
	s.report(pid, path)
	return outcome, nil
}
