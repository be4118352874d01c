// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/bureau-foundation/staleproc/lib/testutil"
)

func TestParsePIDs(t *testing.T) {
	tests := []struct {
		name      string
		arguments []string
		want      []int
		wantErr   bool
	}{
		{name: "empty", arguments: nil, want: []int{}},
		{name: "single", arguments: []string{"42"}, want: []int{42}},
		{name: "multiple", arguments: []string{"1", "4321", "99"}, want: []int{1, 4321, 99}},
		{name: "zero", arguments: []string{"0"}, wantErr: true},
		{name: "negative", arguments: []string{"-5"}, wantErr: true},
		{name: "word", arguments: []string{"crond"}, wantErr: true},
		{name: "trailing junk", arguments: []string{"42x"}, wantErr: true},
		{name: "bad among good", arguments: []string{"1", "two", "3"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePIDs(tt.arguments)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parsePIDs(%v) = %v, want error", tt.arguments, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parsePIDs(%v): %v", tt.arguments, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parsePIDs(%v) = %v, want %v", tt.arguments, got, tt.want)
			}
		})
	}
}

func TestRunReportsAffectedProcess(t *testing.T) {
	tree := testutil.NewProcTree(t)
	process := tree.Process(4321)
	binary := tree.Path("usr/sbin/crond")
	process.ExeDeleted(binary, []byte("crond build 41"))
	process.RootFile(binary, []byte("crond build 42"))
	t.Setenv("STALEPROC_PROC", tree.Root)

	var code int
	output := captureStdout(t, func() {
		code = run([]string{"4321"})
	})
	if code != 0 {
		t.Errorf("run = %d, want 0", code)
	}
	if want := "4321\n"; output != want {
		t.Errorf("output = %q, want %q", output, want)
	}
}

func TestRunVerboseNamesFiles(t *testing.T) {
	tree := testutil.NewProcTree(t)
	process := tree.Process(4321)
	binary := tree.Path("usr/sbin/crond")
	process.ExeDeleted(binary, []byte("crond build 41"))
	process.RootFile(binary, []byte("crond build 42"))
	t.Setenv("STALEPROC_PROC", tree.Root)

	var code int
	output := captureStdout(t, func() {
		code = run([]string{"--verbose", "4321"})
	})
	if code != 0 {
		t.Errorf("run = %d, want 0", code)
	}
	if want := fmt.Sprintf("4321\t%s\n", binary); output != want {
		t.Errorf("output = %q, want %q", output, want)
	}
}

func TestRunCleanProcess(t *testing.T) {
	tree := testutil.NewProcTree(t)
	tree.Process(4321)
	t.Setenv("STALEPROC_PROC", tree.Root)

	var code int
	output := captureStdout(t, func() {
		code = run([]string{"4321"})
	})
	if code != 0 {
		t.Errorf("run = %d, want 0", code)
	}
	if output != "" {
		t.Errorf("output = %q, want empty", output)
	}
}

func TestRunScanAllOrdersByPID(t *testing.T) {
	tree := testutil.NewProcTree(t)
	for _, pid := range []int{300, 100, 200} {
		process := tree.Process(pid)
		if pid == 100 {
			continue
		}
		binary := tree.Path(fmt.Sprintf("usr/bin/daemon%d", pid))
		process.ExeDeleted(binary, []byte("old"))
		process.RootFile(binary, []byte("new"))
	}
	t.Setenv("STALEPROC_PROC", tree.Root)

	var code int
	output := captureStdout(t, func() {
		code = run(nil)
	})
	if code != 0 {
		t.Errorf("run = %d, want 0", code)
	}
	if want := "200\n300\n"; output != want {
		t.Errorf("output = %q, want %q", output, want)
	}
}

func TestRunPatternFilter(t *testing.T) {
	tree := testutil.NewProcTree(t)
	process := tree.Process(4321)
	binary := tree.Path("usr/sbin/crond")
	process.ExeDeleted(binary, []byte("crond build 41"))
	process.RootFile(binary, []byte("crond build 42"))
	t.Setenv("STALEPROC_PROC", tree.Root)

	var code int
	output := captureStdout(t, func() {
		code = run([]string{"-f", "!" + binary, "-f", "*", "4321"})
	})
	if code != 0 {
		t.Errorf("run = %d, want 0", code)
	}
	if output != "" {
		t.Errorf("output = %q, want empty", output)
	}
}

func TestRunRenameSuffixOverride(t *testing.T) {
	tree := testutil.NewProcTree(t)
	process := tree.Process(4321)
	binary := tree.Path("usr/bin/exim")
	process.ExeDeleted(binary+".dpkg-new", []byte("exim 4.97"))
	process.RootFile(binary, []byte("exim 4.98"))
	t.Setenv("STALEPROC_PROC", tree.Root)

	var code int
	output := captureStdout(t, func() {
		code = run([]string{"--rename-suffix", ".dpkg-new", "--verbose", "4321"})
	})
	if code != 0 {
		t.Errorf("run = %d, want 0", code)
	}
	if want := fmt.Sprintf("4321\t%s\n", binary); output != want {
		t.Errorf("output = %q, want %q", output, want)
	}
}

func TestRunUnverifiableProcessExitsOne(t *testing.T) {
	tree := testutil.NewProcTree(t)
	process := tree.Process(4321)
	binary := tree.Path("usr/sbin/crond")
	// No replacement under root/, so the content comparison fails.
	// The process is still reported as affected.
	process.ExeDeleted(binary, []byte("crond build 41"))
	t.Setenv("STALEPROC_PROC", tree.Root)

	var code int
	output := captureStdout(t, func() {
		code = run([]string{"4321"})
	})
	if code != 1 {
		t.Errorf("run = %d, want 1", code)
	}
	if want := "4321\n"; output != want {
		t.Errorf("output = %q, want %q", output, want)
	}
}

func TestRunMissingProcRoot(t *testing.T) {
	t.Setenv("STALEPROC_PROC", "/nonexistent/proc/root")

	var code int
	output := captureStdout(t, func() {
		code = run(nil)
	})
	if code != 1 {
		t.Errorf("run = %d, want 1", code)
	}
	if output != "" {
		t.Errorf("output = %q, want empty", output)
	}
}

func TestRunInvalidPIDArgument(t *testing.T) {
	var code int
	output := captureStdout(t, func() {
		code = run([]string{"crond"})
	})
	if code != 100 {
		t.Errorf("run = %d, want 100", code)
	}
	if output != "" {
		t.Errorf("output = %q, want empty", output)
	}
}

func TestRunUnknownFlag(t *testing.T) {
	var code int
	output := captureStdout(t, func() {
		code = run([]string{"--bogus"})
	})
	if code != 100 {
		t.Errorf("run = %d, want 100", code)
	}
	if output != "" {
		t.Errorf("output = %q, want empty", output)
	}
}

func TestRunBadPattern(t *testing.T) {
	var code int
	output := captureStdout(t, func() {
		code = run([]string{"-f", "[unterminated"})
	})
	if code != 100 {
		t.Errorf("run = %d, want 100", code)
	}
	if output != "" {
		t.Errorf("output = %q, want empty", output)
	}
}

func TestRunHelp(t *testing.T) {
	var code int
	output := captureStdout(t, func() {
		code = run([]string{"--help"})
	})
	if code != 0 {
		t.Errorf("run = %d, want 0", code)
	}
	if !strings.Contains(output, "USAGE") || !strings.Contains(output, "EXIT CODES") {
		t.Errorf("help output missing sections:\n%s", output)
	}
}

func TestRunVersion(t *testing.T) {
	var code int
	output := captureStdout(t, func() {
		code = run([]string{"-V"})
	})
	if code != 0 {
		t.Errorf("run = %d, want 0", code)
	}
	if !strings.HasPrefix(output, "staleproc ") {
		t.Errorf("version output = %q, want staleproc prefix", output)
	}
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	original := os.Stdout
	reader, writer, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = writer

	fn()

	writer.Close()
	os.Stdout = original

	var buffer bytes.Buffer
	io.Copy(&buffer, reader)
	reader.Close()

	return buffer.String()
}
