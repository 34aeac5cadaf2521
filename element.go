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

// Codec binds a Go type T to a Formula: Formula is the concrete,
// possibly runtime-parameterized formula value (e.g. a FixedBytes{N:16}
// or a List{Elem: Str{}, Min: 0, Max: -1}) that Encode/Decode's wire
// representation must match. It is carried as a value rather than a
// type parameter because several built-in formulas (FixedBytes, List,
// Option, tuples) take runtime parameters that Go's lack of const
// generics cannot express at the type level.
//
// SizeHint, when non-nil, reports the exact Sizes a specific value of T
// will serialize to without actually running Encode. WriteIndirect uses
// SizeHint to reserve heap space up front instead of writing
// speculatively and relocating.
//
// The `last` parameter threaded through Encode/Decode tells a composite
// codec (list, tuple, record) whether it is itself the terminal field of
// its enclosing context, so it can propagate that status to its own
// final sub-element: a Bounded field only skips its trailing padding
// when nothing at all follows it, all the way out to the packet's edge.
type Codec[T any] struct {
	Formula  Formula
	Encode   func(ser *Serializer, v T, last bool) error
	Decode   func(de *Deserializer, last bool) (T, error)
	SizeHint func(v T, sizeBytes int) (Sizes, bool)
}

// WriteDirect writes value inline, as a field of the enclosing context,
// applying the codec's formula's padding rule after encode returns.
// last indicates whether this is the terminal field of that context.
func WriteDirect[T any](ser *Serializer, codec Codec[T], value T, last bool) error {
	before := ser.sizes.Stack
	if err := codec.Encode(ser, value, last); err != nil {
		return err
	}
	delta := ser.sizes.Stack - before
	return padAfterField(ser, codec.Formula.StackSize(ser.width), last, delta)
}

// ReadDirect reads one inline field, consuming whatever trailing
// padding the writer added, mirroring WriteDirect.
func ReadDirect[T any](de *Deserializer, codec Codec[T], last bool) (T, error) {
	before := len(de.data)
	v, err := codec.Decode(de, last)
	if err != nil {
		var zero T
		return zero, err
	}
	consumed := uint64(before - len(de.data))
	if err := skipField(de, codec.Formula.StackSize(de.width), last, consumed); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// WriteIndirect writes value as an indirected child: if codec.SizeHint
// reports an exact size, the child is written straight into a reserved
// heap window; otherwise it is written speculatively onto the current
// stack and then relocated to the heap. Either way, a size_bytes-wide
// offset to the child's heap position is written as this field's own
// (exactly size_bytes, so always padding-free) stack contribution.
func WriteIndirect[T any](ser *Serializer, codec Codec[T], value T) error {
	width := ser.width
	var promised Sizes
	known := false
	if codec.SizeHint != nil {
		promised, known = codec.SizeHint(value, width)
	}
	if known {
		sub, err := ser.buf.ReserveHeap(ser.sizes.Heap, ser.sizes.Stack, promised.Total())
		if err != nil {
			return err
		}
		child := NewSerializer(sub, width)
		if err := codec.Encode(child, value, true); err != nil {
			return err
		}
		if Debug && child.sizes.Total() != promised.Total() {
			panic("formula: size hint did not match actual encoded size")
		}
		if err := sub.Finish(child.sizes.Heap, child.sizes.Stack); err != nil {
			return err
		}
		ser.sizes.Heap += promised.Total()
	} else {
		before := ser.sizes.Stack
		if err := codec.Encode(ser, value, true); err != nil {
			return err
		}
		length := ser.sizes.Stack - before
		newHeap, err := ser.buf.MoveToHeap(ser.sizes.Heap, ser.sizes.Stack, length)
		if err != nil {
			return err
		}
		ser.sizes.Stack -= length
		ser.sizes.Heap = newHeap
	}
	return ser.WriteUsize(ser.sizes.Heap)
}

// ReadIndirect reads a size_bytes-wide offset and resolves it into the
// heap: a child Deserializer is constructed over data[:offset] (the
// heap prefix up to that point, which always contains the child because
// offsets only ever point backward) and codec.Decode runs against it as
// the terminal field of that sub-window.
func ReadIndirect[T any](de *Deserializer, codec Codec[T]) (T, error) {
	var zero T
	offset, err := de.ReadUsize()
	if err != nil {
		return zero, err
	}
	if offset > uint64(len(de.data)) {
		return zero, bad(WrongAddress, "indirect offset %d does not point backward into %d remaining heap bytes", offset, len(de.data))
	}
	child := NewDeserializer(de.data[:offset], de.width)
	return codec.Decode(child, true)
}

// WithoutSizeHint strips inner's SizeHint, forcing WriteIndirect to take
// the speculative write-then-relocate path (via Buffer.MoveToHeap)
// instead of reserving heap space up front (via Buffer.ReserveHeap).
// Most built-in codecs, including Str and Blob, carry an exact
// SizeHint and so normally skip straight to ReserveHeap; wrapping one
// with WithoutSizeHint is how a caller opts a value into
// InterningGrowable's content-addressed heap deduplication, which can
// only see a value's bytes on the MoveToHeap path, before they are
// committed to the heap.
func WithoutSizeHint[T any](inner Codec[T]) Codec[T] {
	c := inner
	c.SizeHint = nil
	return c
}

// Indirect is the formula of a field placed on the heap and reached
// through a size_bytes-wide offset inlined on the stack: Elem is the
// formula of the indirected payload itself. Unlike the scalar built-ins,
// Elem is carried as a runtime Formula value (not a type parameter) so
// that indirecting a runtime-parameterized formula (FixedBytes, List,
// Option, a record) needs no separate generic instantiation machinery.
type Indirect struct{ Elem Formula }

func (i Indirect) StackSize(sizeBytes int) SizeBound { return ExactSize(uint64(sizeBytes)) }
func (i Indirect) HeapSize(sizeBytes int) SizeBound {
	return i.Elem.StackSize(sizeBytes).Add(i.Elem.HeapSize(sizeBytes))
}
func (i Indirect) Inhabited() bool { return i.Elem.Inhabited() }

// IndirectCodec wraps inner as an indirected field: the value is placed
// on the heap (straight into a reserved window when inner.SizeHint is
// exact, otherwise written speculatively and relocated) and a
// size_bytes-wide offset is left on the stack in its place.
func IndirectCodec[T any](inner Codec[T]) Codec[T] {
	return Codec[T]{
		Formula: Indirect{Elem: inner.Formula},
		Encode: func(ser *Serializer, v T, _ bool) error {
			return WriteIndirect(ser, inner, v)
		},
		Decode: func(de *Deserializer, _ bool) (T, error) {
			return ReadIndirect(de, inner)
		},
	}
}
