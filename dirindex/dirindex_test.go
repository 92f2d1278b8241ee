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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/sourcegraph/ngramidx/ngram"
)

const testAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789.-_"

func newTestIndex(t *testing.T, dir string) *Index {
	t.Helper()
	idx, err := New(Options{
		Dir:            dir,
		WorkDir:        t.TempDir(),
		SequenceLength: 3,
		Compression:    1.0,
		OkChars:        testAlphabet,
		IndexContent:   true,
		MaxFileSize:    Unbounded,
	})
	require.NoError(t, err)
	return idx
}

// A single text file is found by its content and not by an unrelated word.
func TestSearchFindsContent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("sapphire"), 0o644))

	idx := newTestIndex(t, dir)
	_, err := idx.Index(false)
	require.NoError(t, err)

	var hits []string
	require.NoError(t, idx.Search("sapphire", func(p string) { hits = append(hits, p) }, true))
	require.Equal(t, []string{filepath.Join(dir, "notes.txt")}, hits)

	hits = nil
	require.NoError(t, idx.Search("ruby", func(p string) { hits = append(hits, p) }, true))
	require.Empty(t, hits)
}

// An excluded directory is never descended into, during build or
// search, even when its name matches literally.
func TestExcludedDirectoryIsSkipped(t *testing.T) {
	dir := t.TempDir()
	excluded := filepath.Join(dir, "vendor")
	require.NoError(t, os.MkdirAll(excluded, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(excluded, "vendor.txt"), []byte("treasure"), 0o644))

	idx, err := New(Options{
		Dir:            dir,
		WorkDir:        t.TempDir(),
		SequenceLength: 3,
		Compression:    1.0,
		OkChars:        testAlphabet,
		IndexContent:   true,
		MaxFileSize:    Unbounded,
		Excluded:       map[string]bool{excluded: true},
	})
	require.NoError(t, err)
	_, err = idx.Index(false)
	require.NoError(t, err)

	var hits []string
	require.NoError(t, idx.Search("vendor", func(p string) { hits = append(hits, p) }, true))
	require.Empty(t, hits, "excluded subtree must not be descended into even on a literal name match")

	require.NoFileExists(t, filepath.Join(idx.workRoot, "vendor", sentinelName))
}

// A directory indexed normally and only excluded on a later rebuild keeps
// its stale, real sentinel on disk (indexFile reads rather than deletes
// it); search must still refuse to descend into it, even though that
// stale sentinel's bits legitimately contain the query.
func TestExcludedDirectoryStaleSentinelNotSearched(t *testing.T) {
	dir := t.TempDir()
	vendored := filepath.Join(dir, "vendor")
	require.NoError(t, os.MkdirAll(vendored, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(vendored, "secret.txt"), []byte("sapphire"), 0o644))

	idx, err := New(Options{
		Dir:            dir,
		WorkDir:        t.TempDir(),
		SequenceLength: 3,
		Compression:    1.0,
		OkChars:        testAlphabet,
		IndexContent:   true,
		MaxFileSize:    Unbounded,
	})
	require.NoError(t, err)
	_, err = idx.Index(false)
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(idx.workRoot, "vendor", sentinelName))

	excluded, err := New(Options{
		Dir:            dir,
		WorkDir:        filepath.Dir(idx.workRoot),
		SequenceLength: 3,
		Compression:    1.0,
		OkChars:        testAlphabet,
		IndexContent:   true,
		MaxFileSize:    Unbounded,
		Excluded:       map[string]bool{vendored: true},
	})
	require.NoError(t, err)
	require.Equal(t, idx.workRoot, excluded.workRoot)
	_, err = excluded.Index(false)
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(excluded.workRoot, "vendor", sentinelName), "rebuild must not delete the excluded subtree's stale sentinel")

	var hits []string
	require.NoError(t, excluded.Search("sapphire", func(p string) { hits = append(hits, p) }, true))
	require.Empty(t, hits, "excluded subtree must not be searched even though its stale sentinel's bits contain the query")
}

// Rebuilding with no source changes writes nothing, and a change to
// one leaf only rewrites that leaf and its ancestors.
func TestRebuildIsIncremental(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	leafA := filepath.Join(sub, "a.txt")
	leafB := filepath.Join(sub, "b.txt")
	require.NoError(t, os.WriteFile(leafA, []byte("alpha content"), 0o644))
	require.NoError(t, os.WriteFile(leafB, []byte("beta content"), 0o644))

	idx := newTestIndex(t, dir)
	_, err := idx.Index(false)
	require.NoError(t, err)

	rootSentinel := filepath.Join(idx.workRoot, sentinelName)
	subSentinel := filepath.Join(idx.workRoot, "sub", sentinelName)
	sidecarA := filepath.Join(idx.workRoot, "sub", "a.txt")
	sidecarB := filepath.Join(idx.workRoot, "sub", "b.txt")

	mtime := func(p string) time.Time {
		fi, err := os.Stat(p)
		require.NoError(t, err)
		return fi.ModTime()
	}

	rootBefore, subBefore, aBefore, bBefore := mtime(rootSentinel), mtime(subSentinel), mtime(sidecarA), mtime(sidecarB)

	_, err = idx.Index(false)
	require.NoError(t, err)
	require.True(t, mtime(rootSentinel).Equal(rootBefore), "unchanged rebuild must not rewrite root sentinel")
	require.True(t, mtime(subSentinel).Equal(subBefore), "unchanged rebuild must not rewrite sub sentinel")
	require.True(t, mtime(sidecarA).Equal(aBefore), "unchanged rebuild must not rewrite leaf a")
	require.True(t, mtime(sidecarB).Equal(bBefore), "unchanged rebuild must not rewrite leaf b")

	// Advance the leaf's mtime along with its content so the change is
	// observable regardless of filesystem mtime granularity.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.WriteFile(leafA, []byte("alpha content changed"), 0o644))
	require.NoError(t, os.Chtimes(leafA, future, future))

	_, err = idx.Index(false)
	require.NoError(t, err)

	require.False(t, mtime(sidecarA).Equal(aBefore), "changed leaf must be rewritten")
	require.True(t, mtime(sidecarB).Equal(bBefore), "sibling leaf must not be rewritten")
	require.False(t, mtime(subSentinel).Equal(subBefore), "ancestor sentinel of the changed leaf must be rewritten")
	require.False(t, mtime(rootSentinel).Equal(rootBefore), "root sentinel must be rewritten")
}

func TestOutsideRootRejected(t *testing.T) {
	dir := t.TempDir()
	idx := newTestIndex(t, dir)

	other := t.TempDir()
	_, err := idx.workFile(other)
	require.ErrorIs(t, err, ErrOutsideRoot)
}

// The OR-union invariant: a directory's sentinel filter equals the OR of
// its own name filter and its indexed children's stored filters.
func TestDirectorySentinelIsUnionOfChildren(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "one.txt"), []byte("apple"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "two.txt"), []byte("banana"), 0o644))

	idx := newTestIndex(t, dir)
	_, err := idx.Index(false)
	require.NoError(t, err)

	sentinelData, err := os.ReadFile(filepath.Join(idx.workRoot, sentinelName))
	require.NoError(t, err)

	oneData, err := os.ReadFile(filepath.Join(idx.workRoot, "one.txt"))
	require.NoError(t, err)
	twoData, err := os.ReadFile(filepath.Join(idx.workRoot, "two.txt"))
	require.NoError(t, err)

	nameFilter := idx.mask.Empty()
	idx.mask.EvaluateString(nameFilter, filepath.Base(dir))
	nameFilter.Or(ngram.FromBytes(oneData))
	nameFilter.Or(ngram.FromBytes(twoData))

	if diff := cmp.Diff(nameFilter.Bytes(), sentinelData); diff != "" {
		t.Fatalf("sentinel filter does not equal OR of name + children filters (-want +got):\n%s", diff)
	}
}
