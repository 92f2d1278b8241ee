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
	"strings"
	"time"

	"github.com/sourcegraph/ngramidx/internal/log"
	"github.com/sourcegraph/ngramidx/internal/mimetype"
	"github.com/sourcegraph/ngramidx/ngram"
)

var logger = log.Scoped("dirindex")

// BuildResult reports how a build went. Errors is non-fatal: per §9 of
// the design this implementation logs and skips a file or directory that
// fails a filesystem call instead of aborting the whole build, so a
// single bad inode doesn't take down an otherwise-successful index run.
type BuildResult struct {
	Errors int
}

type buildCtx struct {
	errs  int
	guard *visitedInodes
}

// Index builds or refreshes the sidecar tree. If rebuild is true, the
// entire work directory is removed first, forcing every sidecar to be
// recomputed. A missing work directory is not an error; any other failure
// to remove it is returned and nothing is indexed.
func (idx *Index) Index(rebuild bool) (BuildResult, error) {
	if rebuild {
		if err := os.RemoveAll(idx.workRoot); err != nil && !os.IsNotExist(err) {
			return BuildResult{}, err
		}
	}

	bc := &buildCtx{}
	if idx.opts.GuardSymlinkCycles {
		bc.guard = newVisitedInodes()
	}

	acc := idx.mask.Empty()
	idx.indexFile(bc, idx.opts.Dir, idx.workRoot, acc)

	return BuildResult{Errors: bc.errs}, nil
}

// indexFile is the recursive builder. It returns whether this node's
// sidecar was rewritten, and OR-merges the node's resulting filter into
// acc.
func (idx *Index) indexFile(bc *buildCtx, source, sidecar string, acc *ngram.BitArray) bool {
	lst, err := os.Lstat(source)
	if err != nil {
		idx.buildError(bc, "lstat", source, err)
		return false
	}
	if lst.Mode()&os.ModeSymlink != 0 {
		// Symlinks are never followed: this avoids cycles and
		// double-counting a file reachable through two names.
		return false
	}

	info, err := os.Stat(source)
	if err != nil {
		idx.buildError(bc, "stat", source, err)
		return false
	}
	isDir := info.IsDir()

	if isDir && bc.guard != nil && bc.guard.markVisited(info) {
		return false
	}

	sentinel := sentinelFile(sidecar)
	sidecarLastMod, sidecarMissing := idx.sidecarModTime(sidecar, sentinel, isDir)
	changed := sidecarMissing || sidecarLastMod.Before(info.ModTime())

	if !isDir && !sidecarMissing && !changed {
		data, err := os.ReadFile(sidecar)
		if err != nil {
			idx.buildError(bc, "read sidecar", sidecar, err)
			return false
		}
		acc.Or(ngram.FromBytes(data))
		return false
	}

	name := filepath.Base(source)
	nameFilter := idx.mask.Empty()
	idx.mask.EvaluateString(nameFilter, name)

	if err := os.MkdirAll(filepath.Dir(sidecar), 0o755); err != nil {
		idx.buildError(bc, "mkdir", filepath.Dir(sidecar), err)
		return false
	}

	if isDir {
		if idx.opts.Excluded[canonicalPath(source)] {
			if data, err := os.ReadFile(sentinel); err == nil {
				acc.Or(ngram.FromBytes(data))
			}
			return false
		}

		if err := os.MkdirAll(sidecar, 0o755); err != nil {
			idx.buildError(bc, "mkdir", sidecar, err)
			return false
		}

		entries, err := os.ReadDir(source)
		if err != nil {
			idx.buildError(bc, "readdir", source, err)
			return false
		}
		for _, entry := range entries {
			childPath := filepath.Join(source, entry.Name())
			if !idx.opts.filter(childPath) {
				continue
			}
			childSidecar := filepath.Join(sidecar, entry.Name())
			changed = idx.indexFile(bc, childPath, childSidecar, nameFilter) || changed
		}

		if changed {
			if err := writeAtomic(sentinel, nameFilter.Bytes()); err != nil {
				idx.buildError(bc, "write sentinel", sentinel, err)
			}
		}
	} else {
		if idx.shouldIndexContent(name, info.Size()) {
			f, err := os.Open(source)
			if err != nil {
				idx.buildError(bc, "open", source, err)
				acc.Or(nameFilter)
				return false
			}
			err = idx.mask.EvaluateFile(nameFilter, f)
			f.Close()
			if err != nil {
				idx.buildError(bc, "read", source, err)
				acc.Or(nameFilter)
				return false
			}
			if err := writeAtomic(sidecar, nameFilter.Bytes()); err != nil {
				idx.buildError(bc, "write sidecar", sidecar, err)
			}
			logger.Debugw("indexed content", "path", source, "size", log.Bytes(info.Size()))
			changed = true
		} else {
			changed = false
		}
	}

	acc.Or(nameFilter)
	return changed
}

// shouldIndexContent implements the inclusion test of §4.2 step 7: a
// whitelist (two textual application/* subtypes) is checked before the
// audio/video/image/application prefix blacklist, which is what lets the
// whitelist re-admit those two subtypes despite the blacklist.
func (idx *Index) shouldIndexContent(name string, size int64) bool {
	if !idx.opts.IndexContent {
		return false
	}
	if size >= idx.opts.maxFileSize() {
		return false
	}
	typ := mimetype.ForFilename(name)
	if typ == "application/x-javascript" || typ == "application/json" {
		return true
	}
	for _, prefix := range []string{"audio", "video", "image", "application"} {
		if strings.HasPrefix(typ, prefix) {
			return false
		}
	}
	return true
}

// sidecarModTime returns the mtime to compare against the source's, and
// whether the sidecar is entirely absent.
func (idx *Index) sidecarModTime(sidecar, sentinel string, isDir bool) (time.Time, bool) {
	if isDir {
		if _, err := os.Stat(sidecar); err != nil {
			return time.Time{}, true
		}
		sfi, err := os.Stat(sentinel)
		if err != nil {
			return time.Unix(0, 0), false
		}
		return sfi.ModTime(), false
	}
	fi, err := os.Stat(sidecar)
	if err != nil {
		return time.Time{}, true
	}
	return fi.ModTime(), false
}

func (idx *Index) buildError(bc *buildCtx, op, path string, err error) {
	bc.errs++
	logger.Warnw("build: skipping path after error", "op", op, "path", path, "error", err)
}
