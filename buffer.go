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

// Buffer is the sink a Serializer writes into. All positions it deals in
// are relative to the Buffer's own window: the heap region grows forward
// from offset 0; the stack region grows backward from the end of the
// window. A heap sub-window reserved by ReserveHeap is itself a Buffer
// with the same contract, recursively, which is how a nested indirected
// child gets its own independent two-region layout within the space its
// parent set aside for it.
type Buffer interface {
	// WriteStack appends bytes to the stack region: conceptually at
	// position len(window)-stack-len(bytes), growing the region
	// backward from the window's tail. heap and stack are the
	// caller's current region sizes before this write.
	WriteStack(heap, stack uint64, bytes []byte) error

	// MoveToHeap relocates the most recently written count bytes of
	// the stack region to the heap region at position heap, growing
	// the heap region forward. It returns the heap region's new size
	// (heap+count). Used when an indirected value's size was not
	// known up front, so it was first written speculatively to the
	// stack and must now be relocated.
	MoveToHeap(heap, stack, count uint64) (uint64, error)

	// ReserveHeap grows the heap region by length bytes and returns a
	// Buffer over exactly that reserved range, for serializing a
	// child whose total size is already known via a Codec's
	// SizeHint.
	ReserveHeap(heap, stack, length uint64) (Buffer, error)

	// Finish is called once serialization completes, with the final
	// region sizes. It is infallible for every variant except the
	// size-probing one, which always fails here since it never holds
	// real output bytes.
	Finish(heap, stack uint64) error
}
