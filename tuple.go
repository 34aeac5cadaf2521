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

// Tuple is the formula of a fixed-arity, heterogeneously-typed product:
// the sum of its elements' stack and heap bounds respectively, per §3.
// Go's generics have no variadic type parameter, so the engine (like
// the record/enum derivation protocol of §4.7) exposes the arithmetic
// here as a plain Formula slice and leaves constructing the per-arity
// Codec (Tuple2Codec, Tuple3Codec, ...) to hand-written or generated
// code, exactly as a record's field list would be.
type Tuple struct{ Elems []Formula }

func (t Tuple) StackSize(sizeBytes int) SizeBound {
	b := ExactSize(0)
	for _, e := range t.Elems {
		b = b.Add(e.StackSize(sizeBytes))
	}
	return b
}

func (t Tuple) HeapSize(sizeBytes int) SizeBound {
	b := ExactSize(0)
	for _, e := range t.Elems {
		b = b.Add(e.HeapSize(sizeBytes))
	}
	return b
}

func (t Tuple) Inhabited() bool {
	for _, e := range t.Elems {
		if !e.Inhabited() {
			return false
		}
	}
	return true
}

// Pair is the Go representation of a two-element tuple.
type Pair[A, B any] struct {
	First  A
	Second B
}

// Tuple2Codec builds the Codec for a two-element Tuple, applying the
// record protocol of §4.7: fields serialize/deserialize in order, and
// only the last field is told last=true.
func Tuple2Codec[A, B any](a Codec[A], b Codec[B]) Codec[Pair[A, B]] {
	formula := Tuple{Elems: []Formula{a.Formula, b.Formula}}
	return Codec[Pair[A, B]]{
		Formula: formula,
		Encode: func(s *Serializer, v Pair[A, B], last bool) error {
			if err := WriteDirect(s, a, v.First, false); err != nil {
				return err
			}
			return WriteDirect(s, b, v.Second, last)
		},
		Decode: func(d *Deserializer, last bool) (Pair[A, B], error) {
			first, err := ReadDirect(d, a, false)
			if err != nil {
				return Pair[A, B]{}, err
			}
			second, err := ReadDirect(d, b, last)
			if err != nil {
				return Pair[A, B]{}, err
			}
			return Pair[A, B]{First: first, Second: second}, nil
		},
		SizeHint: func(v Pair[A, B], sizeBytes int) (Sizes, bool) {
			h1, ok := a.SizeHint(v.First, sizeBytes)
			if !ok {
				return Sizes{}, false
			}
			h1 = sizeHintPadding(h1, a.Formula.StackSize(sizeBytes), false)
			h2, ok := b.SizeHint(v.Second, sizeBytes)
			if !ok {
				return Sizes{}, false
			}
			h2 = sizeHintPadding(h2, b.Formula.StackSize(sizeBytes), true)
			return h1.Add(h2), true
		},
	}
}

// Triple is the Go representation of a three-element tuple.
type Triple[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

// Tuple3Codec builds the Codec for a three-element Tuple.
func Tuple3Codec[A, B, C any](a Codec[A], b Codec[B], c Codec[C]) Codec[Triple[A, B, C]] {
	formula := Tuple{Elems: []Formula{a.Formula, b.Formula, c.Formula}}
	return Codec[Triple[A, B, C]]{
		Formula: formula,
		Encode: func(s *Serializer, v Triple[A, B, C], last bool) error {
			if err := WriteDirect(s, a, v.First, false); err != nil {
				return err
			}
			if err := WriteDirect(s, b, v.Second, false); err != nil {
				return err
			}
			return WriteDirect(s, c, v.Third, last)
		},
		Decode: func(d *Deserializer, last bool) (Triple[A, B, C], error) {
			first, err := ReadDirect(d, a, false)
			if err != nil {
				return Triple[A, B, C]{}, err
			}
			second, err := ReadDirect(d, b, false)
			if err != nil {
				return Triple[A, B, C]{}, err
			}
			third, err := ReadDirect(d, c, last)
			if err != nil {
				return Triple[A, B, C]{}, err
			}
			return Triple[A, B, C]{First: first, Second: second, Third: third}, nil
		},
		SizeHint: func(v Triple[A, B, C], sizeBytes int) (Sizes, bool) {
			h1, ok := a.SizeHint(v.First, sizeBytes)
			if !ok {
				return Sizes{}, false
			}
			h1 = sizeHintPadding(h1, a.Formula.StackSize(sizeBytes), false)
			h2, ok := b.SizeHint(v.Second, sizeBytes)
			if !ok {
				return Sizes{}, false
			}
			h2 = sizeHintPadding(h2, b.Formula.StackSize(sizeBytes), false)
			h3, ok := c.SizeHint(v.Third, sizeBytes)
			if !ok {
				return Sizes{}, false
			}
			h3 = sizeHintPadding(h3, c.Formula.StackSize(sizeBytes), true)
			return h1.Add(h2).Add(h3), true
		},
	}
}
