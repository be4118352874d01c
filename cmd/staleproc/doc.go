// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Staleproc finds processes that execute or memory-map files which have
// been deleted or replaced on disk with different content. Such
// processes still run the old code after a package upgrade and need a
// restart to pick up the new files. It is an upgrade-pipeline building
// block: the affected process identifiers go to stdout, one per line,
// for a supervisor script to act on.
//
// Exit codes:
//
//	0    scan completed; affected processes, if any, listed on stdout
//	1    the scan failed or a process could not be checked
//	100  usage error
//
// With no PID arguments the whole process table is scanned. Unprivileged
// scans skip other users' processes rather than failing on them.
package main
