// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package procscan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/prometheus/procfs"
)

// enumerate lists every process under the proc root, ascending by
// process identifier so scan output is deterministic. An empty process
// table is an error: it means the proc root is not a live procfs.
func (s *Scanner) enumerate() ([]int, error) {
	proc, err := procfs.NewFS(s.procRoot)
	if err != nil {
		return nil, fmt.Errorf("opening proc filesystem: %w", err)
	}
	processes, err := proc.AllProcs()
	if err != nil {
		return nil, fmt.Errorf("listing processes: %w", err)
	}
	if len(processes) == 0 {
		return nil, fmt.Errorf("no processes found in %s", s.procRoot)
	}

	pids := make([]int, 0, len(processes))
	for _, process := range processes {
		pids = append(pids, process.PID)
	}
	slices.Sort(pids)
	return pids, nil
}

// isKernelThread reports whether pid is a kernel thread. Kernel
// threads have no executable image: the exe link exists (lstat
// succeeds) but reading it fails with "no such file". Any other
// readlink outcome, including permission errors, means a regular
// process.
func (s *Scanner) isKernelThread(pid int) bool {
	exePath := s.pidPath(pid, "exe")
	if _, err := os.Readlink(exePath); err == nil || !errors.Is(err, fs.ErrNotExist) {
		return false
	}
	_, err := os.Lstat(exePath)
	return err == nil
}
