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

// Package ngram implements a fixed-size bit-array addressing scheme for
// n-grams over a caller-supplied, compressible alphabet. A Mask turns a
// string or a stream of file content into a BitArray; BitArrays support an
// asymmetric subset-match predicate used elsewhere to prune a search tree
// without false negatives.
package ngram

import "math"

// Mask is immutable after construction. Two Masks are compare-compatible
// (their BitArrays are comparable with Contains) iff they were built from
// the same alphabet, sequence length and compression factor.
type Mask struct {
	codes    [256]uint32
	radix    uint32
	seqLen   int
	compress float64
}

// New builds a Mask from an alphabet string, an n-gram width and a
// compression factor. Characters absent from alphabet map to code 0.
//
// Codes are assigned in the order characters appear in alphabet: starting
// the counter at floor(compression), each character gets floor(counter /
// compression) and the counter is incremented by one. The final counter
// value determines the effective radix, rounded up so every emitted code
// remains representable.
func New(alphabet string, seqLen int, compression float64) *Mask {
	if seqLen < 1 {
		seqLen = 1
	}
	if compression < 1.0 {
		compression = 1.0
	}

	m := &Mask{seqLen: seqLen, compress: compression}

	counter := math.Floor(compression)
	for i := 0; i < len(alphabet); i++ {
		c := alphabet[i]
		m.codes[c] = uint32(math.Floor(counter / compression))
		counter++
	}

	radix := math.Floor(counter / compression)
	if math.Floor(radix*compression) < counter {
		radix++
	}
	m.radix = uint32(radix)

	return m
}

// SeqLen returns the n-gram width in bytes.
func (m *Mask) SeqLen() int { return m.seqLen }

// NumBits returns radix^SeqLen, the address space of every BitArray this
// Mask produces.
func (m *Mask) NumBits() int {
	n := 1
	for i := 0; i < m.seqLen; i++ {
		n *= int(m.radix)
	}
	return n
}

// NumBytes returns ceil(NumBits / 8), the on-disk size of every BitArray
// this Mask produces.
func (m *Mask) NumBytes() int {
	n := m.NumBits()
	return (n + 7) / 8
}

// Empty returns a zeroed BitArray sized for this Mask.
func (m *Mask) Empty() *BitArray {
	return &BitArray{bits: make([]byte, m.NumBytes())}
}

func (m *Mask) code(b byte) uint32 {
	return m.codes[b]
}
