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

// Growable is a Buffer that grows to fit the value being serialized,
// for use by SerializeToVec. The heap region is a plain append-growing
// slice; the stack region is assembled by prepending each write to the
// front of its own slice, since a later stack write always lands closer
// to the heap (a lower final offset) than an earlier one. Bytes
// concatenates the two once serialization is complete.
type Growable struct {
	heap  []byte
	stack []byte
}

// NewGrowable returns an empty Growable buffer.
func NewGrowable() *Growable { return &Growable{} }

func (b *Growable) WriteStack(heap, stack uint64, bytes []byte) error {
	n := len(bytes)
	grown := make([]byte, n+len(b.stack))
	copy(grown, bytes)
	copy(grown[n:], b.stack)
	b.stack = grown
	return nil
}

func (b *Growable) MoveToHeap(heap, stack, count uint64) (uint64, error) {
	c := int(count)
	b.heap = append(b.heap, b.stack[:c]...)
	b.stack = b.stack[c:]
	return heap + count, nil
}

func (b *Growable) ReserveHeap(heap, stack, length uint64) (Buffer, error) {
	start := len(b.heap)
	b.heap = append(b.heap, make([]byte, length)...)
	return &FixedUnchecked{window: b.heap[start : start+int(length)]}, nil
}

func (b *Growable) Finish(heap, stack uint64) error { return nil }

// Bytes returns the final, contiguous packet: the heap region followed
// by the stack region.
func (b *Growable) Bytes() []byte {
	out := make([]byte, len(b.heap)+len(b.stack))
	copy(out, b.heap)
	copy(out[len(b.heap):], b.stack)
	return out
}
