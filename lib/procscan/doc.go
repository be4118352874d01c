// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package procscan finds processes that execute or memory-map files
// which have been deleted or replaced on disk.
//
// After a package upgrade the old binaries and libraries stay alive
// inside running processes: the kernel keeps a deleted inode reachable
// for as long as something maps it. Those processes keep running the
// old code, including any security holes the upgrade fixed, until they
// are restarted. A Scanner walks procfs and reports exactly the
// processes where that has happened.
//
// Two checks run per process:
//
//   - The exe link. The kernel appends " (deleted)" to the link target
//     when the executable is unlinked. The link itself still reaches
//     the original image, which is compared byte for byte against
//     whatever now lives at the recorded path inside the process's
//     root.
//   - The maps table. Every file-backed mapping whose path carries the
//     deletion marker is compared against the kernel's map_files entry
//     for its address range, which exposes the still-mapped bytes.
//
// Identical content means the file was replaced by an equal copy (a
// rebuild that changed nothing) and the process is left alone; this is
// what separates "needs a restart" from "was merely reinstalled".
//
// Report lines go to the configured output, one process identifier per
// line (with the affected path appended in verbose mode). The Outcome
// returned by the scan methods carries what an exit status needs.
package procscan
