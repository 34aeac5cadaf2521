// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package formula

import "golang.org/x/crypto/blake2b"

// InterningGrowable wraps Growable with a content-addressed cache from
// a heap child's BLAKE2b-256 hash to the heap offset it was first
// written at. A value that has already been placed on the heap once is
// never written a second time; every further occurrence reuses the
// first one's offset instead.
//
// This only sees values that reach the heap through Buffer.MoveToHeap,
// the speculative write-then-relocate path WriteIndirect takes for a
// codec with no SizeHint: at that point the value's bytes already sit
// at the front of the stack scratch area, available to hash before a
// single byte is appended to the heap. A codec with an exact SizeHint
// (most built-ins, including Str and Blob) instead takes the
// ReserveHeap path, which commits heap space before the caller has
// written anything into it — there is no point in that sequence where
// this cache could see the content before the commit, so those values
// are not deduplicated here. Wrap such a codec with WithoutSizeHint to
// route it through MoveToHeap and make it eligible.
type InterningGrowable struct {
	Growable
	cache map[[32]byte]uint64
}

// NewInterningGrowable returns an empty InterningGrowable buffer.
func NewInterningGrowable() *InterningGrowable {
	return &InterningGrowable{cache: map[[32]byte]uint64{}}
}

func (b *InterningGrowable) MoveToHeap(heap, stack, count uint64) (uint64, error) {
	c := int(count)
	content := b.stack[:c]
	key := blake2b.Sum256(content)
	if newHeap, ok := b.cache[key]; ok {
		b.stack = b.stack[c:]
		return newHeap, nil
	}
	newHeap, err := b.Growable.MoveToHeap(heap, stack, count)
	if err != nil {
		return 0, err
	}
	b.cache[key] = newHeap
	return newHeap, nil
}

func (b *InterningGrowable) ReserveHeap(heap, stack, length uint64) (Buffer, error) {
	return b.Growable.ReserveHeap(heap, stack, length)
}
