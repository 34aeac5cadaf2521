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

// fixedStackWidth reports the exact number of bytes bound always
// occupies, for the formulas a Lazy view can be constructed over: an
// Exact bound reports its own width; a Bounded(0) bound is also fixed
// (trivially, at zero bytes) since it can never be anything else.
// Anything else (Unbounded, or Bounded(n) for n>0) has no fixed slot
// and is reported as incompatible, per §4.6.
func fixedStackWidth(bound SizeBound) (int, bool) {
	if bound.IsExact() {
		n, _ := bound.Upper()
		return int(n), true
	}
	if bound.IsBounded() {
		if n, _ := bound.Upper(); n == 0 {
			return 0, true
		}
	}
	return 0, false
}

// Lazy is a non-owning, infinitely re-readable view over the raw bytes
// of one element whose formula has a fixed stack slot: it borrows data
// for its lifetime and decodes nothing until Read or ReadInPlace is
// called. Constructing a Lazy over a formula without a fixed stack size
// (Unbounded, or Bounded with a nonzero upper limit) fails with
// Incompatible, since there would be no way to know where the element's
// bytes end without already having parsed it.
type Lazy[T any] struct {
	codec Codec[T]
	data  []byte
	width int
}

// NewLazy constructs a Lazy view over exactly the bytes of one element
// of the given codec's formula. data must be exactly the element's
// fixed stack width; this is the shape LazyList.At hands back instead
// of eagerly decoding.
func NewLazy[T any](codec Codec[T], data []byte, width int) (Lazy[T], error) {
	n, ok := fixedStackWidth(codec.Formula.StackSize(width))
	if !ok {
		return Lazy[T]{}, bad(Incompatible, "lazy view requires a fixed stack size, formula reports %s", codec.Formula.StackSize(width))
	}
	if len(data) != n {
		return Lazy[T]{}, bad(WrongLength, "lazy view given %d bytes, formula needs exactly %d", len(data), n)
	}
	return Lazy[T]{codec: codec, data: data, width: width}, nil
}

// Bytes returns the raw bytes this view was constructed over, without
// decoding them.
func (l Lazy[T]) Bytes() []byte { return l.data }

// Read deserializes the view's bytes into a T. It may be called any
// number of times; each call re-decodes from the same borrowed slice.
func (l Lazy[T]) Read() (T, error) {
	d := NewDeserializer(l.data, l.width)
	return ReadDirect(d, l.codec, true)
}

// ReadInPlace deserializes into *dst, overwriting its previous value.
func (l Lazy[T]) ReadInPlace(dst *T) error {
	v, err := l.Read()
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// LazyList is a non-owning view over a List{Elem: elem} whose element
// formula has a fixed stack width: its length is known immediately and
// any single element can be decoded on demand via At, without
// deserializing the others. This is the "lazy cursor" the engine's
// purpose statement promises for slices and lists.
//
// Elements are stored in the slab in the reverse of their logical
// order (each later WriteDirect call lands at a lower memory offset,
// nearer the heap/stack frontier — see Deserializer's doc comment), so
// At computes each element's byte range from the tail of raw rather
// than indexing raw directly.
type LazyList[T any] struct {
	elem      Codec[T]
	raw       []byte
	elemWidth int
	width     int
}

// Len returns the number of elements in the list.
func (l LazyList[T]) Len() int {
	if l.elemWidth == 0 {
		return 0
	}
	return len(l.raw) / l.elemWidth
}

// At returns a Lazy view over the i'th element, 0-indexed in logical
// (serialization) order. It panics if i is out of range, mirroring
// slice indexing.
func (l LazyList[T]) At(i int) Lazy[T] {
	n := l.Len()
	if i < 0 || i >= n {
		panic("formula: LazyList index out of range")
	}
	end := len(l.raw) - i*l.elemWidth
	start := end - l.elemWidth
	lz, err := NewLazy(l.elem, l.raw[start:end], l.width)
	if err != nil {
		// elemWidth was derived from the same formula NewLazy
		// checks, so this can only happen on a library bug.
		panic(err)
	}
	return lz
}

// All eagerly decodes every element into a fresh slice, for callers
// that want the eager-List behavior ListCodec's Go type provides.
func (l LazyList[T]) All() ([]T, error) {
	n := l.Len()
	out := make([]T, n)
	for i := 0; i < n; i++ {
		v, err := l.At(i).Read()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// LazyListCodec builds the Codec for List{Elem: elem.Formula, Min: min,
// Max: max} that decodes into a LazyList instead of eagerly into a
// []T, per §4.6: elem's formula must report a fixed stack width (an
// Unbounded or nonzero-Bounded element, e.g. a bare Str, cannot be
// sliced without parsing it, so construction fails Incompatible). Each
// element is decoded from its own stack bytes alone, so an Indirect
// element cannot be read back through At or All: its offset points into
// a heap region the element view does not hold.
func LazyListCodec[T any](elem Codec[T], min, max int) Codec[LazyList[T]] {
	formula := List{Elem: elem.Formula, Min: min, Max: max}
	fixed := max >= 0 && min == max
	return Codec[LazyList[T]]{
		Formula: formula,
		Encode: func(s *Serializer, v LazyList[T], last bool) error {
			n := v.Len()
			if n < min || (max >= 0 && n > max) {
				return bad(WrongLength, "list length %d outside [%d,%d]", n, min, max)
			}
			if !fixed {
				if err := s.WriteUsize(uint64(n)); err != nil {
					return err
				}
			}
			return s.WriteFixedBytes(v.raw)
		},
		Decode: func(d *Deserializer, last bool) (LazyList[T], error) {
			elemWidth, ok := fixedStackWidth(elem.Formula.StackSize(d.width))
			if !ok {
				return LazyList[T]{}, bad(Incompatible, "lazy list element formula has no fixed stack size")
			}
			n := max
			if !fixed {
				raw, err := d.ReadUsize()
				if err != nil {
					return LazyList[T]{}, err
				}
				n = int(raw)
			}
			if n < min || (max >= 0 && n > max) {
				return LazyList[T]{}, bad(WrongLength, "decoded list length %d outside [%d,%d]", n, min, max)
			}
			raw, err := d.ReadBytes(n * elemWidth)
			if err != nil {
				return LazyList[T]{}, err
			}
			return LazyList[T]{elem: elem, raw: raw, elemWidth: elemWidth, width: d.width}, nil
		},
		SizeHint: func(v LazyList[T], sizeBytes int) (Sizes, bool) {
			s := Sizes{Stack: uint64(len(v.raw))}
			if !fixed {
				s.Stack += uint64(sizeBytes)
			}
			return s, true
		},
	}
}
