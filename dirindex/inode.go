// Copyright 2023 Sourcegraph Inc. All rights reserved.
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

	"github.com/RoaringBitmap/roaring/roaring64"
)

// visitedInodes tracks directory inodes already descended into during a
// single build, so a build with GuardSymlinkCycles set can refuse to
// revisit one even if two distinct, non-symlink paths resolve to it (e.g.
// via bind mounts). The core design simply skips symlinks and doesn't need
// this; it exists for the hardening the design notes call out as optional
// upgrade to "a visited inode set".
//
// Inode numbers are 64-bit, so this uses roaring's 64-bit bitmap rather
// than truncating into a 32-bit one -- a collision here would wrongly
// skip a distinct directory.
type visitedInodes struct {
	seen *roaring64.Bitmap
}

func newVisitedInodes() *visitedInodes {
	return &visitedInodes{seen: roaring64.New()}
}

// markVisited returns true if info's inode had already been recorded, and
// records it otherwise. On platforms without inode numbers it always
// returns false (never blocks traversal).
func (v *visitedInodes) markVisited(info os.FileInfo) bool {
	ino, ok := inodeOf(info)
	if !ok {
		return false
	}
	if v.seen.Contains(ino) {
		return true
	}
	v.seen.Add(ino)
	return false
}
