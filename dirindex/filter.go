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

import "github.com/bmatcuk/doublestar"

// GlobFilter builds a FilterFunc that admits a path iff it does not match
// any of the given doublestar glob patterns (the same pattern syntax
// build.Options.LargeFiles uses for its size-exemption list). A path that
// fails to parse against every pattern is admitted; a malformed pattern
// never blocks indexing.
func GlobFilter(excludePatterns []string) FilterFunc {
	return func(path string) bool {
		for _, pat := range excludePatterns {
			if ok, _ := doublestar.PathMatch(pat, path); ok {
				return false
			}
		}
		return true
	}
}
