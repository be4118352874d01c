// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package filecmp compares the contents of two files byte for byte.
//
// Both files are memory-mapped read-only and compared in full, which
// avoids double-buffering large binaries through the Go heap. Files of
// different sizes are unequal without reading any data.
package filecmp

import (
	"bytes"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Equal reports whether the files at pathA and pathB hold identical
// content. The paths may name regular files or procfs magic links such
// as /proc/<pid>/exe; the comparison reads whatever the open file
// descriptor yields.
func Equal(pathA, pathB string) (bool, error) {
	fileA, err := os.Open(pathA)
	if err != nil {
		return false, fmt.Errorf("opening %s: %w", pathA, err)
	}
	defer fileA.Close()

	fileB, err := os.Open(pathB)
	if err != nil {
		return false, fmt.Errorf("opening %s: %w", pathB, err)
	}
	defer fileB.Close()

	infoA, err := fileA.Stat()
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", pathA, err)
	}
	infoB, err := fileB.Stat()
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", pathB, err)
	}

	if infoA.Size() != infoB.Size() {
		return false, nil
	}
	// Zero-length files are identical by definition, and mmap rejects
	// zero-length mappings with EINVAL.
	if infoA.Size() == 0 {
		return true, nil
	}

	dataA, err := unix.Mmap(int(fileA.Fd()), 0, int(infoA.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return false, fmt.Errorf("mapping %s: %w", pathA, err)
	}
	defer unix.Munmap(dataA)

	dataB, err := unix.Mmap(int(fileB.Fd()), 0, int(infoB.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return false, fmt.Errorf("mapping %s: %w", pathB, err)
	}
	defer unix.Munmap(dataB)

	return bytes.Equal(dataA, dataB), nil
}
