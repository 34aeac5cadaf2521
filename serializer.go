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

import "math"

// Serializer drives a Buffer: it tracks the current heap/stack extents
// within the buffer's window and exposes one write method per built-in
// scalar formula, plus the WriteDirect/WriteIndirect entry points used
// by record/enum derivation code and by the List/Option/Tuple
// combinators.
type Serializer struct {
	buf   Buffer
	sizes Sizes
	width int
}

// NewSerializer returns a Serializer writing into buf using the given
// session size_bytes width.
func NewSerializer(buf Buffer, width int) *Serializer {
	return &Serializer{buf: buf, width: width}
}

// Width returns the session's size_bytes.
func (s *Serializer) Width() int { return s.width }

// Sizes returns the heap/stack byte counts written so far.
func (s *Serializer) Sizes() Sizes { return s.sizes }

func (s *Serializer) writeStack(b []byte) error {
	if err := s.buf.WriteStack(s.sizes.Heap, s.sizes.Stack, b); err != nil {
		return err
	}
	s.sizes.Stack += uint64(len(b))
	return nil
}

func (s *Serializer) writeZeros(n uint64) error {
	const chunk = 64
	var zeros [chunk]byte
	for n > 0 {
		k := n
		if k > chunk {
			k = chunk
		}
		if err := s.writeStack(zeros[:k]); err != nil {
			return err
		}
		n -= k
	}
	return nil
}

// WriteU8 writes a single byte.
func (s *Serializer) WriteU8(v uint8) error { return s.writeStack([]byte{v}) }

// WriteI8 writes a single signed byte.
func (s *Serializer) WriteI8(v int8) error { return s.WriteU8(uint8(v)) }

// WriteU16 writes v little-endian.
func (s *Serializer) WriteU16(v uint16) error {
	var b [2]byte
	b[0], b[1] = byte(v), byte(v>>8)
	return s.writeStack(b[:])
}

// WriteI16 writes v little-endian.
func (s *Serializer) WriteI16(v int16) error { return s.WriteU16(uint16(v)) }

// WriteU32 writes v little-endian.
func (s *Serializer) WriteU32(v uint32) error {
	var b [4]byte
	b[0], b[1], b[2], b[3] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
	return s.writeStack(b[:])
}

// WriteI32 writes v little-endian.
func (s *Serializer) WriteI32(v int32) error { return s.WriteU32(uint32(v)) }

// WriteU64 writes v little-endian.
func (s *Serializer) WriteU64(v uint64) error {
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return s.writeStack(b[:])
}

// WriteI64 writes v little-endian.
func (s *Serializer) WriteI64(v int64) error { return s.WriteU64(uint64(v)) }

// WriteF32 writes v as its IEEE-754 bit pattern, little-endian.
func (s *Serializer) WriteF32(v float32) error {
	return s.WriteU32(math.Float32bits(v))
}

// WriteF64 writes v as its IEEE-754 bit pattern, little-endian.
func (s *Serializer) WriteF64(v float64) error {
	return s.WriteU64(math.Float64bits(v))
}

// WriteBool writes v as a single 0/1 byte.
func (s *Serializer) WriteBool(v bool) error {
	if v {
		return s.WriteU8(1)
	}
	return s.WriteU8(0)
}

// WriteFixedBytes writes the raw contents of v with no length prefix,
// for use with the FixedBytes(N) formula.
func (s *Serializer) WriteFixedBytes(v []byte) error { return s.writeStack(v) }

// WriteString writes v inline as a size_bytes-wide length prefix
// followed by its UTF-8 bytes.
func (s *Serializer) WriteString(v string) error {
	if err := s.WriteUsize(uint64(len(v))); err != nil {
		return err
	}
	return s.writeStack([]byte(v))
}

// WriteBlob writes v inline as a size_bytes-wide length prefix followed
// by its raw bytes.
func (s *Serializer) WriteBlob(v []byte) error {
	if err := s.WriteUsize(uint64(len(v))); err != nil {
		return err
	}
	return s.writeStack(v)
}

// WriteTimestamp writes an 8-byte signed Unix-seconds field followed by
// a 4-byte unsigned nanoseconds field, both little-endian.
func (s *Serializer) WriteTimestamp(sec int64, nsec uint32) error {
	if err := s.WriteI64(sec); err != nil {
		return err
	}
	return s.WriteU32(nsec)
}

// WriteUsize writes v as a size_bytes-wide little-endian field. In debug
// builds it asserts v fits in that width.
func (s *Serializer) WriteUsize(v uint64) error {
	buf := make([]byte, s.width)
	for i := 0; i < s.width && i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	if Debug && s.width < 8 {
		max := uint64(1) << uint(8*s.width)
		if v >= max {
			panic("formula: usize value exceeds size_bytes width")
		}
	}
	return s.writeStack(buf)
}

// WriteDiscriminant writes idx as a 1/2/4-byte little-endian field sized
// by DiscriminantWidth(numVariants).
func (s *Serializer) WriteDiscriminant(idx, numVariants int) error {
	w := DiscriminantWidth(numVariants)
	if Debug && (idx < 0 || idx >= numVariants) {
		panic("formula: discriminant index out of range")
	}
	buf := make([]byte, w)
	for i := 0; i < w; i++ {
		buf[i] = byte(uint32(idx) >> (8 * i))
	}
	return s.writeStack(buf)
}

// padAfterField applies §4.4's padding rule for one record/list/tuple
// element after its real content (delta bytes) has already been
// written: Unbounded fields are left as-is, Exact fields are asserted
// in debug builds, and Bounded fields are padded with zeros up to the
// bound unless they are the terminal field of their enclosing context.
func padAfterField(s *Serializer, bound SizeBound, last bool, delta uint64) error {
	switch {
	case bound.IsUnbounded():
		return nil
	case bound.IsExact():
		if Debug {
			max, _ := bound.Upper()
			if delta != max {
				panic("formula: field wrote a different number of bytes than its exact bound")
			}
		}
		return nil
	default: // Bounded
		max, _ := bound.Upper()
		if last {
			return nil
		}
		if delta > max {
			return bad(WrongLength, "field wrote %d bytes, exceeds bound %d", delta, max)
		}
		return s.writeZeros(max - delta)
	}
}

// sizeHintPadding adjusts a field's own, unpadded SizeHint to account for
// padAfterField's zero-padding rule: a non-last field whose formula
// reports a Bounded stack bound always costs exactly that bound's upper
// limit once written via WriteDirect, regardless of how many bytes this
// particular value occupies, since padAfterField tops it up to the bound
// whenever the field isn't the terminal one of its enclosing context.
// Composite SizeHint implementations (Record/Tuple/List/Enum) call this
// on each field they assemble instead of trusting the field's raw hint,
// so a SizeHint-driven heap reservation (WriteIndirect) never under-counts
// what the matching WriteDirect call will actually write.
func sizeHintPadding(h Sizes, bound SizeBound, last bool) Sizes {
	if !last && bound.IsBounded() {
		max, _ := bound.Upper()
		h.Stack = max
	}
	return h
}
