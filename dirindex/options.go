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

// Package dirindex builds and searches a mirror-tree of n-gram bit-filter
// sidecars for a source directory, pruning subtrees whose filter cannot
// possibly satisfy a query.
package dirindex

import (
	"fmt"
	"hash/fnv"
	"path/filepath"

	"github.com/sourcegraph/ngramidx/ngram"
)

// sentinelName is the reserved child of every directory sidecar that holds
// the directory's aggregated filter. It is a fixed, opaque UUID string so
// it can never collide with a real file name in the source tree; this
// literal is the on-disk protocol between builds and searches.
const sentinelName = "8cee109e-8684-43a1-ada5-eca55e4ba55d"

// Unbounded is the sentinel value for Options.MaxFileSize meaning "no
// upper bound on file size for content indexing".
const Unbounded int64 = -1

// FilterFunc decides whether a directory entry participates in indexing
// and search. It is an external collaborator: dirindex only ever calls it,
// never inspects its implementation.
type FilterFunc func(path string) bool

// VisitFunc is invoked once per matched path during Search. It must be
// idempotent with respect to reinvocation: dirindex guarantees at most one
// call per matching file per Search call, never uniqueness beyond that.
type VisitFunc func(path string)

// Options configures a Index. It is immutable once passed to New.
type Options struct {
	// Dir is the source root to index and search.
	Dir string

	// WorkDir is the parent of the per-root work directory that holds
	// the sidecar mirror tree.
	WorkDir string

	// SequenceLength is the n-gram width in bytes, L >= 1.
	SequenceLength int

	// Compression collapses alphabet codes, trading index precision for
	// index size. Must be >= 1.0.
	Compression float64

	// OkChars is the alphabet string; characters outside it map to the
	// mask's "other" code.
	OkChars string

	// Filter decides which directory entries are indexed or searched.
	// A nil Filter indexes and searches everything.
	Filter FilterFunc

	// IndexContent turns on file-content indexing in addition to names.
	IndexContent bool

	// MaxFileSize bounds which files get content indexed. Use Unbounded
	// for no limit.
	MaxFileSize int64

	// Excluded is a set of canonical directory paths whose subtrees must
	// not be descended into during build or search.
	Excluded map[string]bool

	// GuardSymlinkCycles turns on a visited-inode set (see inode.go) for
	// builds that may otherwise revisit a directory through two
	// different symlink-free paths that the OS reports as the same
	// inode. The core design simply skips symlinks outright and needs
	// no such guard; this is an opt-in hardening, off by default.
	GuardSymlinkCycles bool
}

func (o *Options) filter(path string) bool {
	if o.Filter == nil {
		return true
	}
	return o.Filter(path)
}

func (o *Options) maxFileSize() int64 {
	if o.MaxFileSize == Unbounded {
		return 1<<63 - 1
	}
	return o.MaxFileSize
}

// Index is a built/searchable directory index: a source root, its mirror
// work directory, and the Mask both build and search agree on.
type Index struct {
	opts     Options
	mask     *ngram.Mask
	workRoot string
}

// New constructs a Index. The caller owns opts; New does not mutate it.
func New(opts Options) (*Index, error) {
	root, err := filepath.Abs(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("dirindex: resolving root %s: %w", opts.Dir, err)
	}

	mask := ngram.New(opts.OkChars, opts.SequenceLength, opts.Compression)

	return &Index{
		opts:     opts,
		mask:     mask,
		workRoot: filepath.Join(opts.WorkDir, "x"+hashPath(root)),
	}, nil
}

// hashPath returns a deterministic, non-cryptographic decimal digest of a
// canonical path string, used to let one WorkDir host multiple indexed
// roots without collision. It need not be cryptographic, only stable.
func hashPath(path string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(path))
	return fmt.Sprintf("%d", h.Sum64())
}
