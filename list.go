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

// Unbounded is the sentinel Max value meaning "no upper limit on
// element count", since Go has no way to spell infinity as an int.
const Unbounded = -1

// List is the List<E, MIN, MAX> formula: a repetition of Elem, Min to
// Max times. Elem is carried as a runtime Formula value (List itself
// has no type parameter) precisely so that Min/Max/Elem can vary per
// field the way a const-generic MIN/MAX would in a language that has
// them.
//
// When Min == Max the list is a fixed-length array: no length prefix is
// written and the size bounds are as tight as Elem's own (multiplied by
// the count). Otherwise a size_bytes length word is written ahead of
// the elements and the bounds degrade to Bounded (or Unbounded if Max
// is the Unbounded sentinel), per §3.
type List struct {
	Elem     Formula
	Min, Max int
}

func (l List) fixed() bool { return l.Max >= 0 && l.Min == l.Max }

func (l List) StackSize(sizeBytes int) SizeBound {
	if !l.Elem.Inhabited() {
		return ExactSize(0)
	}
	if l.fixed() {
		return l.Elem.StackSize(sizeBytes).Mul(uint64(l.Max))
	}
	lenWord := ExactSize(uint64(sizeBytes))
	if l.Max < 0 {
		return lenWord.Add(UnboundedSize())
	}
	return lenWord.Add(l.Elem.StackSize(sizeBytes).Mul(uint64(l.Max)).Loosen())
}

func (l List) HeapSize(sizeBytes int) SizeBound {
	if !l.Elem.Inhabited() {
		return ExactSize(0)
	}
	if l.fixed() {
		return l.Elem.HeapSize(sizeBytes).Mul(uint64(l.Max))
	}
	if l.Max < 0 {
		if h := l.Elem.HeapSize(sizeBytes); !h.IsExact() || mustUpper(h) != 0 {
			return UnboundedSize()
		}
		return ExactSize(0)
	}
	return l.Elem.HeapSize(sizeBytes).Mul(uint64(l.Max)).Loosen()
}

func (l List) Inhabited() bool {
	if l.Min == 0 {
		return true
	}
	return l.Elem.Inhabited()
}

func mustUpper(b SizeBound) uint64 {
	n, _ := b.Upper()
	return n
}

// ListCodec builds the Codec for List{Elem: elem.Formula, Min: min, Max:
// max} given the Codec for one element. Each element is written/read
// with WriteDirect/ReadDirect in turn, so an Unbounded or Bounded
// element formula (e.g. a bare Str) still gets its own per-element
// padding/length handling; only the final element of the final list
// (when the list itself is the terminal field) is allowed to omit
// trailing padding.
func ListCodec[T any](elem Codec[T], min, max int) Codec[[]T] {
	formula := List{Elem: elem.Formula, Min: min, Max: max}
	fixed := max >= 0 && min == max
	return Codec[[]T]{
		Formula: formula,
		Encode: func(s *Serializer, v []T, last bool) error {
			if len(v) < min || (max >= 0 && len(v) > max) {
				return bad(WrongLength, "list length %d outside [%d,%d]", len(v), min, max)
			}
			if !fixed {
				if err := s.WriteUsize(uint64(len(v))); err != nil {
					return err
				}
			} else if len(v) != max {
				return bad(WrongLength, "fixed list length %d != %d", len(v), max)
			}
			for i, item := range v {
				itemLast := last && i == len(v)-1
				if err := WriteDirect(s, elem, item, itemLast); err != nil {
					return err
				}
			}
			return nil
		},
		Decode: func(d *Deserializer, last bool) ([]T, error) {
			n := max
			if !fixed {
				raw, err := d.ReadUsize()
				if err != nil {
					return nil, err
				}
				n, err = asInt(raw)
				if err != nil {
					return nil, err
				}
			}
			if n < min || (max >= 0 && n > max) {
				return nil, bad(WrongLength, "decoded list length %d outside [%d,%d]", n, min, max)
			}
			out := make([]T, n)
			for i := 0; i < n; i++ {
				itemLast := last && i == n-1
				v, err := ReadDirect(d, elem, itemLast)
				if err != nil {
					return nil, err
				}
				out[i] = v
			}
			return out, nil
		},
		SizeHint: func(v []T, sizeBytes int) (Sizes, bool) {
			total := Sizes{}
			if !fixed {
				total.Stack += uint64(sizeBytes)
			}
			elemBound := elem.Formula.StackSize(sizeBytes)
			for i, item := range v {
				h, ok := elem.SizeHint(item, sizeBytes)
				if !ok {
					return Sizes{}, false
				}
				h = sizeHintPadding(h, elemBound, i == len(v)-1)
				total = total.Add(h)
			}
			return total, true
		},
	}
}
