// Copyright 2021 Google Inc. All rights reserved.
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

package ngram

import "errors"

// ErrQueryTooShort is returned by Set when its input is shorter than the
// Mask's sequence length. EvaluateString never returns it: tokens shorter
// than the sequence length are silently skipped there, since they carry no
// n-gram information.
var ErrQueryTooShort = errors.New("ngram: query shorter than sequence length")
