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

// Package mimetype classifies a file name into a MIME type string, the
// same way index/file_category.go classifies files by name alone: a pure
// function of the name, with no content inspection.
package mimetype

import enry "github.com/go-enry/go-enry/v2"

// ForFilename returns the MIME type enry associates with name's
// extension/base name. Callers only rely on prefix/exact-match
// discrimination against a handful of types; the exact string returned
// for any other file is unspecified.
func ForFilename(name string) string {
	return enry.GetMimeType(name, enry.GetLanguage(name, nil))
}
