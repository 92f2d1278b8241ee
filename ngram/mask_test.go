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

import (
	"strings"
	"testing"
)

const testAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789.-_"

func testMask() *Mask {
	return New(testAlphabet, 3, 1.0)
}

func TestSizing(t *testing.T) {
	m := testMask()
	if got, want := m.radix, uint32(40); got != want {
		t.Fatalf("radix = %d, want %d", got, want)
	}
	if got, want := m.NumBits(), 40*40*40; got != want {
		t.Fatalf("NumBits = %d, want %d", got, want)
	}
	wantBytes := (m.NumBits() + 7) / 8
	if got := m.NumBytes(); got != wantBytes {
		t.Fatalf("NumBytes = %d, want %d", got, wantBytes)
	}
}

func TestEmptySize(t *testing.T) {
	m := testMask()
	b := m.Empty()
	if got, want := len(b.Bytes()), m.NumBytes(); got != want {
		t.Fatalf("Empty() size = %d, want %d", got, want)
	}
}

func TestSetQueryTooShort(t *testing.T) {
	m := testMask()
	b := m.Empty()
	if err := m.Set(b, "ab"); err != ErrQueryTooShort {
		t.Fatalf("Set(short) err = %v, want ErrQueryTooShort", err)
	}
}

func TestEvaluateStringSkipsShortTokens(t *testing.T) {
	m := testMask()
	b := m.Empty()
	m.EvaluateString(b, "ab hello")
	empty := m.Empty()
	if Contains(b, empty) {
		t.Fatalf("expected bits to be set from 'hello'")
	}
}

// Adding tokens to a query never drops bits already set from earlier ones.
func TestSubsetMonotonicity(t *testing.T) {
	m := testMask()

	b1 := m.Empty()
	m.EvaluateString(b1, "hello world")

	b2 := m.Empty()
	m.EvaluateString(b2, "zebra world basket donkey hello magic")

	if !Contains(b1, b2) {
		t.Fatalf("Contains(b1, b2) = false, want true")
	}
}

func TestContainsAsymmetric(t *testing.T) {
	m := testMask()

	b1 := m.Empty()
	m.EvaluateString(b1, "hello world")

	b2 := m.Empty()
	m.EvaluateString(b2, "hello")

	if Contains(b1, b2) {
		t.Fatalf("Contains(b1, b2) = true, want false (b2 is missing world's ngrams)")
	}
	if !Contains(b2, b1) {
		t.Fatalf("Contains(b2, b1) = false, want true")
	}
}

func TestEvaluateFileChunkBoundary(t *testing.T) {
	m := New(testAlphabet, 3, 1.0)

	content := strings.Repeat("the quick brown fox jumps over ", 200) + "sapphire"

	whole := m.Empty()
	m.EvaluateString(whole, content)

	streamed := m.Empty()
	if err := m.EvaluateFile(streamed, strings.NewReader(content)); err != nil {
		t.Fatalf("EvaluateFile: %v", err)
	}

	if !Contains(whole, streamed) || !Contains(streamed, whole) {
		t.Fatalf("streamed filter diverged from whole-string filter at chunk boundaries")
	}
}

// A byte that isn't valid UTF-8 must pass through lower-casing unchanged
// and keep the string's byte length fixed, so n-gram window positions
// never shift around it the way they would if it were rune-decoded and
// replaced by the multi-byte U+FFFD substitution.
func TestLowerASCIIPreservesInvalidUTF8Bytes(t *testing.T) {
	s := "AB\xffCD"
	got := lowerASCII(s)
	want := "ab\xffcd"
	if got != want {
		t.Fatalf("lowerASCII(%q) = %q, want %q", s, got, want)
	}
	if len(got) != len(s) {
		t.Fatalf("lowerASCII changed byte length: %d -> %d", len(s), len(got))
	}
}

func TestCompressionCollapsesCodes(t *testing.T) {
	m1 := New(testAlphabet, 3, 1.0)
	m2 := New(testAlphabet, 3, 2.0)

	if m2.NumBits() >= m1.NumBits() {
		t.Fatalf("compression 2.0 should shrink the bit space: %d vs %d", m2.NumBits(), m1.NumBits())
	}
}
