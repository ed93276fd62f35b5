// Package filter implements the RepositoryFilter a sparse clone uses to
// decide which tree entries survive projection, plus the INI-style
// parser for the filter file spec.md §6 says is read from the
// repository config key sparse.filter.
package filter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/geovcs/geovcs/internal/diff"
	"github.com/geovcs/geovcs/internal/model"
)

// Rule is one filter-file stanza: a feature-tree path prefix, plus an
// optional attribute-equality predicate expressed as key=value pairs.
// An entry matches the rule when its path falls under Path and every
// attribute constraint holds.
type Rule struct {
	Path       string
	Attributes map[string]string
}

// RepositoryFilter is the predicate over feature paths/attributes
// spec.md §4.3 describes: "a predicate over feature paths/attributes,
// loaded from a config file."
type RepositoryFilter struct {
	rules []Rule
}

// New builds a RepositoryFilter from parsed rules.
func New(rules []Rule) *RepositoryFilter {
	return &RepositoryFilter{rules: append([]Rule(nil), rules...)}
}

// Matches reports whether a tree entry at path, with the given
// attributes, passes the filter. An empty rule set matches everything
// (an unfiltered sparse clone is a contradiction in terms, but the zero
// filter value behaves permissively rather than rejecting every entry).
func (f *RepositoryFilter) Matches(path string, attributes map[string]string) bool {
	if len(f.rules) == 0 {
		return true
	}
	for _, r := range f.rules {
		if !strings.HasPrefix(path, r.Path) {
			continue
		}
		if attributesMatch(r.Attributes, attributes) {
			return true
		}
	}
	return false
}

func attributesMatch(want, have map[string]string) bool {
	for k, v := range want {
		if have[k] != v {
			return false
		}
	}
	return true
}

// EntriesMatching applies the filter to a Tree's top-level entries,
// returning the subset whose path (path + entry name) matches. Entries
// are matched with no attribute map, since this package does not look up
// feature attributes.
func (f *RepositoryFilter) EntriesMatching(path string, entries []model.TreeEntry) []model.TreeEntry {
	var out []model.TreeEntry
	for _, e := range entries {
		full := path + e.Name
		if f.Matches(full, nil) {
			out = append(out, e)
		}
	}
	return out
}

// FilterChanges restricts a commit's tree diff to the entries matching
// f, reporting whether any entry was suppressed (spec.md §4.3.1 step b's
// wasFiltered()).
func (f *RepositoryFilter) FilterChanges(changes []diff.Change) (kept []diff.Change, wasFiltered bool) {
	for _, c := range changes {
		if f.Matches(c.Name, nil) {
			kept = append(kept, c)
		} else {
			wasFiltered = true
		}
	}
	return kept, wasFiltered
}

// Parse reads an INI-style filter file:
//
//	[featurepath]
//	key = value
//
// Each section header names a Rule's Path; each key=value line inside
// adds an attribute constraint. Blank lines and lines beginning with
// ';' or '#' are ignored, matching common INI conventions.
func Parse(r io.Reader) ([]Rule, error) {
	var rules []Rule
	var current *Rule

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			if current != nil {
				rules = append(rules, *current)
			}
			current = &Rule{Path: strings.TrimSpace(line[1 : len(line)-1]), Attributes: map[string]string{}}
			continue
		}
		if current == nil {
			return nil, fmt.Errorf("filter: line %d: attribute outside any section", lineNo)
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("filter: line %d: expected key = value", lineNo)
		}
		current.Attributes[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if current != nil {
		rules = append(rules, *current)
	}
	return rules, nil
}

// ParseFile reads and parses the filter file at path, relative to root.
func ParseFile(root, path string) ([]Rule, error) {
	f, err := os.Open(filepath.Join(root, path))
	if err != nil {
		return nil, fmt.Errorf("filter: open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}
