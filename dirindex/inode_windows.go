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

//go:build windows

package dirindex

import "os"

// inodeOf has no portable equivalent on Windows through os.FileInfo alone;
// GuardSymlinkCycles is a no-op there and relies on the core design's
// blanket symlink skip instead.
func inodeOf(info os.FileInfo) (uint64, bool) {
	return 0, false
}
