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

// Option is the Option<E> formula: a presence tag followed, iff the
// tag is set and Elem is inhabited, by Elem's own bytes. An Option of
// an uninhabited Elem can only ever be None, so the engine collapses it
// to a zero-size formula rather than writing a tag nobody can falsify.
type Option struct{ Elem Formula }

func (o Option) StackSize(sizeBytes int) SizeBound {
	if !o.Elem.Inhabited() {
		return ExactSize(0)
	}
	return ExactSize(1).Add(o.Elem.StackSize(sizeBytes))
}

func (o Option) HeapSize(sizeBytes int) SizeBound {
	if !o.Elem.Inhabited() {
		return ExactSize(0)
	}
	return o.Elem.HeapSize(sizeBytes)
}

func (Option) Inhabited() bool { return true } // None is always a valid value

// OptionCodec builds the Codec for Option{Elem: elem.Formula} given the
// Codec for the Some payload. A nil *T encodes None; a non-nil *T
// encodes Some(*T).
func OptionCodec[T any](elem Codec[T]) Codec[*T] {
	inhabited := elem.Formula.Inhabited()
	// noneFill is the number of zero bytes a None writes after its tag so
	// that it fills the same Exact stack slot a Some does.
	noneFill := func(sizeBytes int) int {
		n, _ := fixedStackWidth(elem.Formula.StackSize(sizeBytes))
		return n
	}
	return Codec[*T]{
		Formula: Option{Elem: elem.Formula},
		Encode: func(s *Serializer, v *T, last bool) error {
			if !inhabited {
				return nil
			}
			if v == nil {
				if err := s.WriteBool(false); err != nil {
					return err
				}
				return s.writeZeros(uint64(noneFill(s.width)))
			}
			if err := s.WriteBool(true); err != nil {
				return err
			}
			return WriteDirect(s, elem, *v, last)
		},
		Decode: func(d *Deserializer, last bool) (*T, error) {
			if !inhabited {
				return nil, nil
			}
			some, err := d.ReadBool()
			if err != nil {
				return nil, err
			}
			if !some {
				_, err := d.ReadBytes(noneFill(d.width))
				return nil, err
			}
			v, err := ReadDirect(d, elem, last)
			if err != nil {
				return nil, err
			}
			return &v, nil
		},
		SizeHint: func(v *T, sizeBytes int) (Sizes, bool) {
			if !inhabited {
				return Sizes{}, true
			}
			if v == nil {
				return Sizes{Stack: 1 + uint64(noneFill(sizeBytes))}, true
			}
			h, ok := elem.SizeHint(*v, sizeBytes)
			if !ok {
				return Sizes{}, false
			}
			return Sizes{Stack: 1}.Add(h), true
		},
	}
}
