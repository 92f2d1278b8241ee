// Copyright 2016 Google Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dirindex

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/sourcegraph/ngramidx/ngram"
)

// Search walks the index from the root, invoking visit once per path whose
// name matches every space-separated token of query literally, or, when
// searchContent is set, whose bit-filter survives pruning and whose actual
// content contains every token (each on some line, not necessarily the
// same one).
//
// Search trusts the bit filter only for pruning; every filter-surviving
// file's content is re-verified by a literal scan, because the filter is a
// superset oracle that can produce false positives but never false
// negatives.
func (idx *Index) Search(query string, visit VisitFunc, searchContent bool) error {
	q := idx.mask.Empty()
	idx.mask.EvaluateString(q, query)

	tokens := strings.Split(query, " ")

	idx.searchFile(idx.opts.Dir, idx.workRoot, tokens, q, visit, searchContent)
	return nil
}

// SearchPath runs a search rooted at a subdirectory of the index instead
// of the whole root. It fails with ErrOutsideRoot if dir does not resolve
// to somewhere inside the indexed root.
func (idx *Index) SearchPath(dir, query string, visit VisitFunc, searchContent bool) error {
	sidecar, err := idx.workFile(dir)
	if err != nil {
		return err
	}

	q := idx.mask.Empty()
	idx.mask.EvaluateString(q, query)
	tokens := strings.Split(query, " ")

	idx.searchFile(dir, sidecar, tokens, q, visit, searchContent)
	return nil
}

func (idx *Index) searchFile(source, sidecar string, tokens []string, q *ngram.BitArray, visit VisitFunc, searchContent bool) {
	info, err := os.Stat(source)
	if err != nil {
		return
	}
	isDir := info.IsDir()

	if isDir && idx.opts.Excluded[canonicalPath(source)] {
		// Mirrors indexFile's exclusion check: an excluded subtree is
		// never descended into, and its stale sentinel (if any) is not
		// even consulted here, since the parent's own accumulated
		// filter already carries whatever indexFile folded in from it.
		return
	}

	name := filepath.Base(source)

	if nameMatchesAllTokens(name, tokens) {
		visit(source)
		if !isDir {
			return
		}
	}

	sentinel := sentinelFile(sidecar)
	var filterPath string
	switch {
	case isDir:
		filterPath = sentinel
	case searchContent:
		filterPath = sidecar
	default:
		// Neither a directory (with its sentinel) nor a content
		// search: there is nothing to prune with or descend into.
		return
	}

	data, err := os.ReadFile(filterPath)
	if err != nil {
		// No sidecar means this subtree/file was never indexed;
		// stop rather than guess.
		return
	}
	stored := ngram.FromBytes(data)
	if !ngram.Contains(q, stored) {
		return
	}

	if isDir {
		entries, err := os.ReadDir(source)
		if err != nil {
			return
		}
		for _, entry := range entries {
			childPath := filepath.Join(source, entry.Name())
			if !idx.opts.filter(childPath) {
				continue
			}
			idx.searchFile(childPath, filepath.Join(sidecar, entry.Name()), tokens, q, visit, searchContent)
		}
		return
	}

	if searchContent {
		confirmContent(source, tokens, visit)
	}
}

// nameMatchesAllTokens is a literal, case-sensitive byte substring test:
// the content index and the content confirmation scan both lower-case,
// but this surface name match does not. Mixed-case file names can
// therefore fail to name-match a lower-case query; this asymmetry is
// deliberate, not a bug to silently fix.
func nameMatchesAllTokens(name string, tokens []string) bool {
	for _, tok := range tokens {
		if !strings.Contains(name, tok) {
			return false
		}
	}
	return true
}

// confirmContent scans a file that survived filter pruning line by line,
// lower-casing each line, and invokes visit the first time every token has
// been observed across some set of lines. A file that survives pruning but
// never satisfies this scan is a false positive and is silently dropped.
func confirmContent(path string, tokens []string, visit VisitFunc) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	seen := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		seen[tok] = false
	}
	remaining := len(seen)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.ToLower(scanner.Text())
		for _, tok := range tokens {
			if seen[tok] {
				continue
			}
			if strings.Contains(line, tok) {
				seen[tok] = true
				remaining--
			}
		}
		if remaining == 0 {
			visit(path)
			return
		}
	}
}
