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

// Enum is the Formula of a user sum type: a discriminant (1, 2 or 4
// bytes, chosen by DiscriminantWidth from the variant count) followed
// by the matched variant's own record-protocol bytes. Because only one
// variant is ever materialized, the stack and heap bounds are the
// discriminant width plus the *maximum* over the variants' own bounds,
// per §3 — unlike Record, which sums.
type Enum struct{ Variants []Formula }

func (e Enum) width() int { return DiscriminantWidth(len(e.Variants)) }

func (e Enum) StackSize(sizeBytes int) SizeBound {
	return ExactSize(uint64(e.width())).Add(e.bodyMax(func(f Formula) SizeBound { return f.StackSize(sizeBytes) }))
}

func (e Enum) HeapSize(sizeBytes int) SizeBound {
	return e.bodyMax(func(f Formula) SizeBound { return f.HeapSize(sizeBytes) })
}

func (e Enum) bodyMax(get func(Formula) SizeBound) SizeBound {
	b := ExactSize(0)
	for i, v := range e.Variants {
		if i == 0 {
			b = get(v)
		} else {
			b = b.Max(get(v))
		}
	}
	return b
}

func (e Enum) Inhabited() bool {
	for _, v := range e.Variants {
		if v.Inhabited() {
			return true
		}
	}
	return false
}

// EnumCodec builds the Codec for an Enum given tag, which extracts the
// active variant index (0-based) from a value of T, and variants, one
// Codec[T] per variant in discriminant order: each variant's Encode
// knows how to write just that variant's payload for a T it is given
// (ignoring the rest), and its Decode knows how to build a T carrying
// that variant's payload. This is the §4.7 enum derivation protocol:
// write discriminant, then the record protocol for the matched variant;
// read discriminant (failing WrongVariant if out of range, which
// ReadDiscriminant already enforces), then the record protocol for that
// variant.
func EnumCodec[T any](tag func(T) int, variants []Codec[T]) Codec[T] {
	n := len(variants)
	formulas := make([]Formula, n)
	for i, v := range variants {
		formulas[i] = v.Formula
	}
	enumFormula := Enum{Variants: formulas}
	return Codec[T]{
		Formula: enumFormula,
		Encode: func(s *Serializer, v T, last bool) error {
			idx := tag(v)
			if idx < 0 || idx >= n {
				return bad(WrongVariant, "tag function returned %d, have %d variants", idx, n)
			}
			if err := s.WriteDiscriminant(idx, n); err != nil {
				return err
			}
			return variants[idx].Encode(s, v, last)
		},
		Decode: func(d *Deserializer, last bool) (T, error) {
			var zero T
			idx, err := d.ReadDiscriminant(n)
			if err != nil {
				return zero, err
			}
			return variants[idx].Decode(d, last)
		},
		SizeHint: func(v T, sizeBytes int) (Sizes, bool) {
			idx := tag(v)
			if idx < 0 || idx >= n {
				return Sizes{}, false
			}
			h, ok := variants[idx].SizeHint(v, sizeBytes)
			if !ok {
				return Sizes{}, false
			}
			// The matched variant's Encode is always invoked directly with
			// whatever last this Enum itself was given, never through
			// WriteDirect, so it is never padded against the other
			// variants' bounds at this level: last=true here is a no-op,
			// kept only so this call site reads like every other
			// composite's SizeHint.
			h = sizeHintPadding(h, variants[idx].Formula.StackSize(sizeBytes), true)
			return Sizes{Stack: uint64(DiscriminantWidth(n))}.Add(h), true
		},
	}
}
