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

// FixedChecked is a Buffer over a caller-supplied, fixed-capacity window.
// Every write validates that it stays within the window and that the
// heap and stack regions have not collided, returning
// *BufferExhaustedError instead of overrunning the destination.
type FixedChecked struct {
	window []byte
}

// NewFixedChecked wraps dst as a bounds-checked, fixed-capacity Buffer.
func NewFixedChecked(dst []byte) *FixedChecked { return &FixedChecked{window: dst} }

// Bytes returns the window this buffer was constructed over.
func (b *FixedChecked) Bytes() []byte { return b.window }

func (b *FixedChecked) WriteStack(heap, stack uint64, bytes []byte) error {
	n := uint64(len(bytes))
	total := uint64(len(b.window))
	if stack+n > total-heap {
		return &BufferExhaustedError{}
	}
	pos := total - stack - n
	copy(b.window[pos:pos+n], bytes)
	return nil
}

func (b *FixedChecked) MoveToHeap(heap, stack, count uint64) (uint64, error) {
	total := uint64(len(b.window))
	if count > stack || heap+count > total {
		return 0, &BufferExhaustedError{}
	}
	src := total - stack
	copy(b.window[heap:heap+count], b.window[src:src+count])
	return heap + count, nil
}

func (b *FixedChecked) ReserveHeap(heap, stack, length uint64) (Buffer, error) {
	total := uint64(len(b.window))
	if heap+length > total-stack {
		return nil, &BufferExhaustedError{}
	}
	return &FixedChecked{window: b.window[heap : heap+length]}, nil
}

func (b *FixedChecked) Finish(heap, stack uint64) error { return nil }

// FixedUnchecked is a Buffer over a caller-supplied window that trusts
// the caller to have sized it correctly: no bounds checks are performed,
// so an oversized value causes an ordinary Go slice-bounds panic rather
// than a returned error. It exists for callers that have already
// computed the exact required size (e.g. via SerializedSizes) and want
// to avoid paying for the checks FixedChecked performs.
type FixedUnchecked struct {
	window []byte
}

// NewFixedUnchecked wraps dst as an unchecked, fixed-capacity Buffer.
func NewFixedUnchecked(dst []byte) *FixedUnchecked { return &FixedUnchecked{window: dst} }

// Bytes returns the window this buffer was constructed over.
func (b *FixedUnchecked) Bytes() []byte { return b.window }

func (b *FixedUnchecked) WriteStack(heap, stack uint64, bytes []byte) error {
	n := uint64(len(bytes))
	pos := uint64(len(b.window)) - stack - n
	copy(b.window[pos:pos+n], bytes)
	return nil
}

func (b *FixedUnchecked) MoveToHeap(heap, stack, count uint64) (uint64, error) {
	src := uint64(len(b.window)) - stack
	copy(b.window[heap:heap+count], b.window[src:src+count])
	return heap + count, nil
}

func (b *FixedUnchecked) ReserveHeap(heap, stack, length uint64) (Buffer, error) {
	return &FixedUnchecked{window: b.window[heap : heap+length]}, nil
}

func (b *FixedUnchecked) Finish(heap, stack uint64) error { return nil }
