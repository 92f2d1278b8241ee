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
	"fmt"
	"io"
	"math/bits"
)

// BitArray is a fixed-length bit sequence, persisted as the exact
// little-endian byte slice returned by Bytes: bit 0 is the LSB of byte 0.
// There is no header or magic; a reader must know the producing Mask's
// parameters out of band.
type BitArray struct {
	bits []byte
}

// FromBytes wraps buf as a BitArray without copying. buf is typically the
// full content of a sidecar file.
func FromBytes(buf []byte) *BitArray {
	return &BitArray{bits: buf}
}

// Bytes returns the underlying little-endian byte slice.
func (b *BitArray) Bytes() []byte { return b.bits }

// Len returns the number of addressable bits.
func (b *BitArray) Len() int { return len(b.bits) * 8 }

func (b *BitArray) setBit(i int) {
	b.bits[i/8] |= 1 << (uint(i) % 8)
}

func (b *BitArray) testBit(i int) bool {
	return b.bits[i/8]&(1<<(uint(i)%8)) != 0
}

// Or OR-merges other into b in place. The two arrays must have identical
// length; this holds for any two BitArrays produced by compare-compatible
// Masks.
func (b *BitArray) Or(other *BitArray) {
	if len(b.bits) != len(other.bits) {
		panic(fmt.Sprintf("ngram: bit array size mismatch: %d vs %d", len(b.bits), len(other.bits)))
	}
	for i, v := range other.bits {
		b.bits[i] |= v
	}
}

// Clone returns an independent copy of b.
func (b *BitArray) Clone() *BitArray {
	cp := make([]byte, len(b.bits))
	copy(cp, b.bits)
	return &BitArray{bits: cp}
}

// WriteTo persists b's raw bytes, satisfying io.WriterTo.
func (b *BitArray) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.bits)
	return int64(n), err
}

// eachSetBit calls f for every set bit index, low to high. It is used for
// Contains, which is expected to iterate a sparse query array.
func (b *BitArray) eachSetBit(f func(i int)) {
	for byteIdx, v := range b.bits {
		for v != 0 {
			bit := bits.TrailingZeros8(v)
			f(byteIdx*8 + bit)
			v &^= 1 << uint(bit)
		}
	}
}

// Contains is the subset-match predicate: every bit set in query must also
// be set in stored. It is asymmetric and the basis of subtree pruning:
// Contains(query, stored) == true means stored is not provably missing any
// n-gram that query requires, but may still be a false positive.
func Contains(query, stored *BitArray) bool {
	ok := true
	query.eachSetBit(func(i int) {
		if ok && !stored.testBit(i) {
			ok = false
		}
	})
	return ok
}
