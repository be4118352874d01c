// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package pathmatch evaluates an ordered include/exclude glob list
// against file paths.
//
// Each expression is a glob in the style of fnmatch(3) with no flags:
// `*` and `?` match any character including `/`, and `[...]` character
// classes are supported. A leading `!` negates the expression, turning
// a match into an exclusion.
//
// Evaluation is first-match-wins: the first expression that matches the
// path (ignoring its `!` for the match test itself) decides the outcome.
// An empty list passes every path. A non-empty list where nothing
// matches excludes the path, so callers that want an inclusive default
// must end the list with a catch-all `*`.
package pathmatch

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Pattern is one compiled glob expression together with its negation
// flag. Patterns are immutable after Compile.
type Pattern struct {
	// Raw is the expression as supplied, including any leading `!`.
	Raw string

	negated bool
	matcher glob.Glob
}

// List is an ordered set of patterns, evaluated first-match-wins. A List
// is built once per scan and shared read-only across all checks.
type List []Pattern

// Compile builds a List from glob expressions. A leading `!` on an
// expression marks it as an exclusion; the `!` is not part of the glob.
// Returns an error naming the offending expression when one does not
// compile.
func Compile(expressions []string) (List, error) {
	list := make(List, 0, len(expressions))
	for _, raw := range expressions {
		expression, negated := strings.CutPrefix(raw, "!")
		matcher, err := glob.Compile(expression)
		if err != nil {
			return nil, fmt.Errorf("compiling pattern %q: %w", raw, err)
		}
		list = append(list, Pattern{Raw: raw, negated: negated, matcher: matcher})
	}
	return list, nil
}

// Allows reports whether path passes the filter. The first pattern that
// matches decides: pass when it is not negated, excluded when it is.
// Later patterns are not consulted. An empty list allows everything;
// a non-empty list with no match allows nothing.
func (l List) Allows(path string) bool {
	if len(l) == 0 {
		return true
	}
	for _, pattern := range l {
		if pattern.matcher.Match(path) {
			return !pattern.negated
		}
	}
	return false
}
