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

// SizeProbing is a Buffer that discards every byte and only tracks how
// large the output would have been. It never fails a write, and its
// Finish always reports *BufferSizeRequiredError carrying the total it
// would have needed, which is how SerializeOrSize recovers the required
// capacity after a checked attempt runs out of room.
type SizeProbing struct {
	required uint64
}

func (b *SizeProbing) WriteStack(heap, stack uint64, bytes []byte) error {
	if s := stack + uint64(len(bytes)); heap+s > b.required {
		b.required = heap + s
	}
	return nil
}

func (b *SizeProbing) MoveToHeap(heap, stack, count uint64) (uint64, error) {
	return heap + count, nil
}

func (b *SizeProbing) ReserveHeap(heap, stack, length uint64) (Buffer, error) {
	if heap+length+stack > b.required {
		b.required = heap + length + stack
	}
	return Dry{}, nil
}

func (b *SizeProbing) Finish(heap, stack uint64) error {
	if heap+stack > b.required {
		b.required = heap + stack
	}
	return &BufferSizeRequiredError{Required: b.required}
}

// Dry is a Buffer that discards every byte and performs no bookkeeping
// at all beyond what SerializedSizes needs from the Serializer's own
// Sizes tracking; it never fails. Unlike SizeProbing, a Dry buffer's
// Finish succeeds, since SerializedSizes calls it purely to measure a
// value and does not expect BufferSizeRequiredError as a control-flow
// signal.
type Dry struct{}

func (Dry) WriteStack(heap, stack uint64, bytes []byte) error { return nil }

func (Dry) MoveToHeap(heap, stack, count uint64) (uint64, error) { return heap + count, nil }

func (Dry) ReserveHeap(heap, stack, length uint64) (Buffer, error) { return Dry{}, nil }

func (Dry) Finish(heap, stack uint64) error { return nil }
