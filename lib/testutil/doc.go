// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for staleproc packages.
//
// [ProcTree] assembles a synthetic procfs root inside a test's
// temporary directory. Scanner tests cannot depend on the state of the
// host's real /proc (which processes exist, whose binaries have been
// replaced), so each test builds exactly the process entries it needs:
// exe links carrying the kernel's " (deleted)" marker, maps tables, and
// map_files entries exposing the still-mapped bytes. The tree root
// doubles as the fake disk root, so paths recorded in maps lines
// resolve to real files under the test's control.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no staleproc-internal dependencies.
package testutil
