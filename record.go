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

// Record is the Formula of a user record type: the sum of its fields'
// stack and heap bounds, per §3. It is built by generated (or
// hand-written) code that knows the field list once, at the point
// where it also builds the matching Codec; Record exists on its own so
// that size queries (Fingerprint, SerializedSizes-adjacent bound
// arithmetic) don't need a live Codec to answer "what are this record's
// bounds".
//
// This is the derivation protocol of §4.7 realized for size bookkeeping:
// the sequencing contract itself (field i gets last=false, the final
// field gets last=true) is enforced by whatever assembles the record's
// Codec — see RecordCodec2/RecordCodec3 for worked examples, or a
// hand-written Encode/Decode pair for any other arity.
type Record struct{ Fields []Formula }

func (r Record) StackSize(sizeBytes int) SizeBound {
	b := ExactSize(0)
	for _, f := range r.Fields {
		b = b.Add(f.StackSize(sizeBytes))
	}
	return b
}

func (r Record) HeapSize(sizeBytes int) SizeBound {
	b := ExactSize(0)
	for _, f := range r.Fields {
		b = b.Add(f.HeapSize(sizeBytes))
	}
	return b
}

func (r Record) Inhabited() bool {
	for _, f := range r.Fields {
		if !f.Inhabited() {
			return false
		}
	}
	return true
}

// RecordCodec2 assembles the Codec for a two-field record type T from
// field-projection closures (get1, get2) and a constructor (build),
// applying the §4.7 record protocol: the first field always serializes
// and deserializes with last=false, and the enclosing context's own
// last flag only ever reaches the final field. This is the shape
// generated code for a #[derive] of a two-field struct would produce by
// hand; RecordCodec3 below does the same for three fields, and further
// arities follow the identical pattern.
func RecordCodec2[T, A, B any](
	f1 Codec[A], get1 func(T) A,
	f2 Codec[B], get2 func(T) B,
	build func(A, B) T,
) Codec[T] {
	formula := Record{Fields: []Formula{f1.Formula, f2.Formula}}
	return Codec[T]{
		Formula: formula,
		Encode: func(s *Serializer, v T, last bool) error {
			if err := WriteDirect(s, f1, get1(v), false); err != nil {
				return err
			}
			return WriteDirect(s, f2, get2(v), last)
		},
		Decode: func(d *Deserializer, last bool) (T, error) {
			var zero T
			a, err := ReadDirect(d, f1, false)
			if err != nil {
				return zero, err
			}
			b, err := ReadDirect(d, f2, last)
			if err != nil {
				return zero, err
			}
			return build(a, b), nil
		},
		SizeHint: func(v T, sizeBytes int) (Sizes, bool) {
			h1, ok := f1.SizeHint(get1(v), sizeBytes)
			if !ok {
				return Sizes{}, false
			}
			h1 = sizeHintPadding(h1, f1.Formula.StackSize(sizeBytes), false)
			h2, ok := f2.SizeHint(get2(v), sizeBytes)
			if !ok {
				return Sizes{}, false
			}
			h2 = sizeHintPadding(h2, f2.Formula.StackSize(sizeBytes), true)
			return h1.Add(h2), true
		},
	}
}

// RecordCodec3 is RecordCodec2 generalized to three fields.
func RecordCodec3[T, A, B, C any](
	f1 Codec[A], get1 func(T) A,
	f2 Codec[B], get2 func(T) B,
	f3 Codec[C], get3 func(T) C,
	build func(A, B, C) T,
) Codec[T] {
	formula := Record{Fields: []Formula{f1.Formula, f2.Formula, f3.Formula}}
	return Codec[T]{
		Formula: formula,
		Encode: func(s *Serializer, v T, last bool) error {
			if err := WriteDirect(s, f1, get1(v), false); err != nil {
				return err
			}
			if err := WriteDirect(s, f2, get2(v), false); err != nil {
				return err
			}
			return WriteDirect(s, f3, get3(v), last)
		},
		Decode: func(d *Deserializer, last bool) (T, error) {
			var zero T
			a, err := ReadDirect(d, f1, false)
			if err != nil {
				return zero, err
			}
			b, err := ReadDirect(d, f2, false)
			if err != nil {
				return zero, err
			}
			c, err := ReadDirect(d, f3, last)
			if err != nil {
				return zero, err
			}
			return build(a, b, c), nil
		},
		SizeHint: func(v T, sizeBytes int) (Sizes, bool) {
			h1, ok := f1.SizeHint(get1(v), sizeBytes)
			if !ok {
				return Sizes{}, false
			}
			h1 = sizeHintPadding(h1, f1.Formula.StackSize(sizeBytes), false)
			h2, ok := f2.SizeHint(get2(v), sizeBytes)
			if !ok {
				return Sizes{}, false
			}
			h2 = sizeHintPadding(h2, f2.Formula.StackSize(sizeBytes), false)
			h3, ok := f3.SizeHint(get3(v), sizeBytes)
			if !ok {
				return Sizes{}, false
			}
			h3 = sizeHintPadding(h3, f3.Formula.StackSize(sizeBytes), true)
			return h1.Add(h2).Add(h3), true
		},
	}
}
