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
	"bytes"
	"io"
	"strings"
)

// chunkSize is the read size used by EvaluateFile. It is unrelated to the
// Mask's sequence length; it only bounds memory while streaming.
const chunkSize = 1024

// Set runs every overlapping length-L window of s (lower-cased byte-wise)
// into bits. It fails with ErrQueryTooShort if s is shorter than the
// Mask's sequence length.
func (m *Mask) Set(bits *BitArray, s string) error {
	lower := lowerASCII(s)
	if len(lower) < m.seqLen {
		return ErrQueryTooShort
	}
	windows := len(lower) - m.seqLen + 1
	for i := 0; i < windows; i++ {
		m.setNgram(bits, lower[i:i+m.seqLen])
	}
	return nil
}

// lowerASCII lower-cases s one byte at a time, leaving every byte outside
// 'A'-'Z' untouched. Unlike strings.ToLower, this never rune-decodes: a
// byte that isn't valid UTF-8 (routine in arbitrary file content) passes
// through unchanged instead of being replaced by the multi-byte U+FFFD
// substitution, which would shift every n-gram window downstream of it.
func lowerASCII(s string) string {
	buf := []byte(s)
	for i, c := range buf {
		if c >= 'A' && c <= 'Z' {
			buf[i] = c + ('a' - 'A')
		}
	}
	return string(buf)
}

// setNgram sets the single bit addressed by the n-gram b, which must be
// exactly SeqLen bytes long.
func (m *Mask) setNgram(bits *BitArray, b string) {
	var val int
	radix := int(m.radix)
	for i := 0; i < m.seqLen; i++ {
		val += int(m.code(b[i])) * pow(radix, m.seqLen-1-i)
	}
	bits.setBit(val)
}

func pow(base, exp int) int {
	r := 1
	for i := 0; i < exp; i++ {
		r *= base
	}
	return r
}

// EvaluateString splits s on ASCII spaces and runs Set over every token
// whose length is at least the Mask's sequence length. Shorter tokens are
// skipped; unlike Set, this never fails on short input.
func (m *Mask) EvaluateString(bits *BitArray, s string) {
	for _, tok := range strings.Split(s, " ") {
		if len(tok) >= m.seqLen {
			_ = m.Set(bits, tok)
		}
	}
}

// EvaluateFile streams r in chunkSize-byte chunks, carrying the last
// SeqLen-1 bytes of each concatenation forward as a remainder so no n-gram
// spanning a chunk boundary is lost. Non-UTF8 bytes are not treated
// specially: EvaluateString lower-cases byte-wise and the Mask maps any
// byte outside its alphabet to code 0, a deliberate, lossy-but-safe
// default for binary content.
func (m *Mask) EvaluateFile(bits *BitArray, r io.Reader) error {
	buf := make([]byte, chunkSize)
	var remainder bytes.Buffer
	for {
		n, err := r.Read(buf)
		if n > 0 {
			remainder.Write(buf[:n])
			s := remainder.String()
			if len(s) >= m.seqLen {
				m.EvaluateString(bits, s)
				remainder.Reset()
				remainder.WriteString(s[len(s)-(m.seqLen-1):])
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
