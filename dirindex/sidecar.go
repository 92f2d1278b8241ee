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
)

// workFile maps a source path inside the index's root to its sidecar path
// inside the work tree. It fails with ErrOutsideRoot if path does not
// canonicalize to somewhere inside the root.
func (idx *Index) workFile(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	canonPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		// The path may not exist yet (e.g. has been removed mid-walk);
		// fall back to the lexical absolute form for the containment
		// check rather than failing the whole operation.
		canonPath = filepath.Clean(absPath)
	}

	root, err := filepath.Abs(idx.opts.Dir)
	if err != nil {
		return "", err
	}
	canonRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		canonRoot = filepath.Clean(root)
	}

	if canonPath != canonRoot && !strings.HasPrefix(canonPath, canonRoot+string(os.PathSeparator)) {
		return "", outsideRootError(canonPath, canonRoot)
	}

	rel := strings.TrimPrefix(canonPath, canonRoot)
	rel = strings.TrimPrefix(rel, string(os.PathSeparator))
	return filepath.Join(idx.workRoot, rel), nil
}

// sentinelFile returns the reserved aggregated-filter file of a directory
// sidecar.
func sentinelFile(sidecarDir string) string {
	return filepath.Join(sidecarDir, sentinelName)
}

// canonicalPath resolves path through symlinks for comparison against
// Options.Excluded, falling back to a lexical clean when the path can't be
// resolved (e.g. it was removed mid-walk). Both build and search check
// exclusion against this same canonical form.
func canonicalPath(path string) string {
	if canon, err := filepath.EvalSymlinks(path); err == nil {
		return canon
	}
	return filepath.Clean(path)
}

// writeAtomic writes data to path via a temp file in the same directory
// followed by a rename, so a reader never observes a partially written
// sidecar.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
