// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// ProcTree is a synthetic procfs root built inside a temporary
// directory. Process entries live at <Root>/<pid>/ alongside fake
// on-disk files, so a scanner pointed at Root sees a self-contained
// world.
type ProcTree struct {
	t *testing.T

	// Root is the directory to hand to the scanner as its proc root.
	Root string
}

// NewProcTree creates an empty tree backed by t.TempDir.
func NewProcTree(t *testing.T) *ProcTree {
	t.Helper()
	return &ProcTree{t: t, Root: t.TempDir()}
}

// Path returns the absolute path under the tree root for a fake
// on-disk file. Use it to build paths for exe links and maps lines.
func (tree *ProcTree) Path(relative string) string {
	return filepath.Join(tree.Root, relative)
}

// Disk writes a fake on-disk file under the tree root and returns its
// absolute path. Parent directories are created as needed.
func (tree *ProcTree) Disk(relative string, content []byte) string {
	tree.t.Helper()
	path := tree.Path(relative)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		tree.t.Fatalf("creating disk directory for %s: %v", relative, err)
	}
	if err := os.WriteFile(path, content, 0755); err != nil {
		tree.t.Fatalf("writing disk file %s: %v", relative, err)
	}
	return path
}

// Process creates a procfs entry for pid and returns a handle for
// populating it. The entry starts healthy: an empty maps table and an
// exe link pointing at an intact (not deleted) binary.
func (tree *ProcTree) Process(pid int) *Process {
	tree.t.Helper()
	dir := filepath.Join(tree.Root, strconv.Itoa(pid))
	if err := os.MkdirAll(dir, 0755); err != nil {
		tree.t.Fatalf("creating process directory %d: %v", pid, err)
	}
	if err := os.WriteFile(filepath.Join(dir, "maps"), nil, 0644); err != nil {
		tree.t.Fatalf("creating maps for %d: %v", pid, err)
	}
	process := &Process{t: tree.t, PID: pid, Dir: dir}
	process.Exe("/usr/bin/healthy")
	return process
}

// Process is one synthetic procfs entry.
type Process struct {
	t *testing.T

	PID int
	Dir string
}

// Exe points the process's exe link at target, replacing any previous
// link. The target does not need to exist: a link without the
// " (deleted)" marker is never opened.
func (p *Process) Exe(target string) {
	p.t.Helper()
	link := filepath.Join(p.Dir, "exe")
	if err := os.Remove(link); err != nil && !os.IsNotExist(err) {
		p.t.Fatalf("removing exe link for %d: %v", p.PID, err)
	}
	if err := os.Symlink(target, link); err != nil {
		p.t.Fatalf("linking exe for %d: %v", p.PID, err)
	}
}

// ExeDeleted wires the process up as one whose executable was deleted
// or replaced: the exe link target carries the kernel's " (deleted)"
// marker, and the file it points at still holds the original bytes
// (procfs keeps the old inode reachable through the link). path should
// be absolute, typically built with [ProcTree.Path].
func (p *Process) ExeDeleted(path string, original []byte) {
	p.t.Helper()
	target := path + " (deleted)"
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		p.t.Fatalf("creating directory for %s: %v", target, err)
	}
	if err := os.WriteFile(target, original, 0755); err != nil {
		p.t.Fatalf("writing original executable %s: %v", target, err)
	}
	p.Exe(target)
}

// RootFile writes content at <pid>/root/<path>, the location where the
// scanner looks for the current version of a replaced executable as
// seen from inside the process's root.
func (p *Process) RootFile(path string, content []byte) {
	p.t.Helper()
	full := filepath.Join(p.Dir, "root", path)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		p.t.Fatalf("creating root directory for %s: %v", path, err)
	}
	if err := os.WriteFile(full, content, 0755); err != nil {
		p.t.Fatalf("writing root file %s: %v", path, err)
	}
}

// MapsLine appends one raw line to the process's maps table. The line
// is written verbatim plus a newline, so tests control spacing and
// field formats exactly.
func (p *Process) MapsLine(line string) {
	p.t.Helper()
	file, err := os.OpenFile(filepath.Join(p.Dir, "maps"), os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		p.t.Fatalf("opening maps for %d: %v", p.PID, err)
	}
	defer file.Close()
	if _, err := fmt.Fprintln(file, line); err != nil {
		p.t.Fatalf("appending maps line for %d: %v", p.PID, err)
	}
}

// MapFile creates the map_files entry for the address range
// [start, end), holding the bytes the kernel still has mapped. The
// entry name uses the kernel's unpadded lowercase hex format.
func (p *Process) MapFile(start, end uint64, content []byte) {
	p.t.Helper()
	dir := filepath.Join(p.Dir, "map_files")
	if err := os.MkdirAll(dir, 0755); err != nil {
		p.t.Fatalf("creating map_files for %d: %v", p.PID, err)
	}
	name := fmt.Sprintf("%x-%x", start, end)
	if err := os.WriteFile(filepath.Join(dir, name), content, 0755); err != nil {
		p.t.Fatalf("writing map_files/%s for %d: %v", name, p.PID, err)
	}
}
