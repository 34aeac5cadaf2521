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

import "github.com/elh/formula/date"

// The scalar built-in formulas. Each is a zero-sized marker type; the
// actual encode/decode logic lives in the matching Codec value below
// (see Codec.Formula) and in the Serializer/Deserializer's Write*/Read*
// methods.

type (
	U8  struct{}
	U16 struct{}
	U32 struct{}
	U64 struct{}
	I8  struct{}
	I16 struct{}
	I32 struct{}
	I64 struct{}
	F32 struct{}
	F64 struct{}
	Bool struct{}
	// Str is a UTF-8 string, inlined with a size_bytes length prefix
	// when used directly; Unbounded stack, no heap footprint of its
	// own (an Indirect{Elem: Str{}} field is what relocates it to the
	// heap).
	Str struct{}
	// Blob is Str's raw-bytes counterpart: a length-prefixed byte
	// string with no UTF-8 requirement.
	Blob struct{}
	// Timestamp is a fixed-width instant: 8-byte signed Unix seconds
	// plus 4-byte unsigned nanoseconds.
	Timestamp struct{}
	// Never is the uninhabited formula: it has no valid values, and
	// is used as a placeholder in generic composites (e.g. an empty
	// List{Elem: Never{}}) or an enum variant with no payload type of
	// its own.
	Never struct{}
)

func (U8) StackSize(int) SizeBound  { return ExactSize(1) }
func (U8) HeapSize(int) SizeBound   { return ExactSize(0) }
func (U8) Inhabited() bool          { return true }
func (I8) StackSize(int) SizeBound  { return ExactSize(1) }
func (I8) HeapSize(int) SizeBound   { return ExactSize(0) }
func (I8) Inhabited() bool          { return true }
func (U16) StackSize(int) SizeBound { return ExactSize(2) }
func (U16) HeapSize(int) SizeBound  { return ExactSize(0) }
func (U16) Inhabited() bool         { return true }
func (I16) StackSize(int) SizeBound { return ExactSize(2) }
func (I16) HeapSize(int) SizeBound  { return ExactSize(0) }
func (I16) Inhabited() bool         { return true }
func (U32) StackSize(int) SizeBound { return ExactSize(4) }
func (U32) HeapSize(int) SizeBound  { return ExactSize(0) }
func (U32) Inhabited() bool         { return true }
func (I32) StackSize(int) SizeBound { return ExactSize(4) }
func (I32) HeapSize(int) SizeBound  { return ExactSize(0) }
func (I32) Inhabited() bool         { return true }
func (U64) StackSize(int) SizeBound { return ExactSize(8) }
func (U64) HeapSize(int) SizeBound  { return ExactSize(0) }
func (U64) Inhabited() bool         { return true }
func (I64) StackSize(int) SizeBound { return ExactSize(8) }
func (I64) HeapSize(int) SizeBound  { return ExactSize(0) }
func (I64) Inhabited() bool         { return true }
func (F32) StackSize(int) SizeBound { return ExactSize(4) }
func (F32) HeapSize(int) SizeBound  { return ExactSize(0) }
func (F32) Inhabited() bool         { return true }
func (F64) StackSize(int) SizeBound { return ExactSize(8) }
func (F64) HeapSize(int) SizeBound  { return ExactSize(0) }
func (F64) Inhabited() bool         { return true }
func (Bool) StackSize(int) SizeBound { return ExactSize(1) }
func (Bool) HeapSize(int) SizeBound  { return ExactSize(0) }
func (Bool) Inhabited() bool         { return true }

func (Str) StackSize(int) SizeBound { return UnboundedSize() }
func (Str) HeapSize(int) SizeBound  { return ExactSize(0) }
func (Str) Inhabited() bool         { return true }

func (Blob) StackSize(int) SizeBound { return UnboundedSize() }
func (Blob) HeapSize(int) SizeBound  { return ExactSize(0) }
func (Blob) Inhabited() bool         { return true }

func (Timestamp) StackSize(int) SizeBound { return ExactSize(12) }
func (Timestamp) HeapSize(int) SizeBound  { return ExactSize(0) }
func (Timestamp) Inhabited() bool         { return true }

func (Never) StackSize(int) SizeBound { return ExactSize(0) }
func (Never) HeapSize(int) SizeBound  { return ExactSize(0) }
func (Never) Inhabited() bool         { return false }

// FixedBytes is a fixed-width direct byte array formula: Exact(N) on
// the stack, no heap footprint. Go has no const generics, so unlike the
// scalar markers above, N is carried as a runtime field rather than a
// type parameter — the same accommodation List and Option make for
// their own runtime-valued bounds.
type FixedBytes struct{ N int }

func (f FixedBytes) StackSize(int) SizeBound { return ExactSize(uint64(f.N)) }
func (FixedBytes) HeapSize(int) SizeBound    { return ExactSize(0) }
func (FixedBytes) Inhabited() bool           { return true }

// Codec values for every scalar built-in, for direct use with
// WriteDirect/ReadDirect/WriteIndirect/ReadIndirect and as building
// blocks for composite codecs (ListCodec, OptionCodec, TupleNCodec,
// RecordCodec-style hand-written derivations).

var U8Codec = Codec[uint8]{
	Formula:  U8{},
	Encode:   func(s *Serializer, v uint8, _ bool) error { return s.WriteU8(v) },
	Decode:   func(d *Deserializer, _ bool) (uint8, error) { return d.ReadU8() },
	SizeHint: func(uint8, int) (Sizes, bool) { return Sizes{Stack: 1}, true },
}

var I8Codec = Codec[int8]{
	Formula:  I8{},
	Encode:   func(s *Serializer, v int8, _ bool) error { return s.WriteI8(v) },
	Decode:   func(d *Deserializer, _ bool) (int8, error) { return d.ReadI8() },
	SizeHint: func(int8, int) (Sizes, bool) { return Sizes{Stack: 1}, true },
}

var U16Codec = Codec[uint16]{
	Formula:  U16{},
	Encode:   func(s *Serializer, v uint16, _ bool) error { return s.WriteU16(v) },
	Decode:   func(d *Deserializer, _ bool) (uint16, error) { return d.ReadU16() },
	SizeHint: func(uint16, int) (Sizes, bool) { return Sizes{Stack: 2}, true },
}

var I16Codec = Codec[int16]{
	Formula:  I16{},
	Encode:   func(s *Serializer, v int16, _ bool) error { return s.WriteI16(v) },
	Decode:   func(d *Deserializer, _ bool) (int16, error) { return d.ReadI16() },
	SizeHint: func(int16, int) (Sizes, bool) { return Sizes{Stack: 2}, true },
}

var U32Codec = Codec[uint32]{
	Formula:  U32{},
	Encode:   func(s *Serializer, v uint32, _ bool) error { return s.WriteU32(v) },
	Decode:   func(d *Deserializer, _ bool) (uint32, error) { return d.ReadU32() },
	SizeHint: func(uint32, int) (Sizes, bool) { return Sizes{Stack: 4}, true },
}

var I32Codec = Codec[int32]{
	Formula:  I32{},
	Encode:   func(s *Serializer, v int32, _ bool) error { return s.WriteI32(v) },
	Decode:   func(d *Deserializer, _ bool) (int32, error) { return d.ReadI32() },
	SizeHint: func(int32, int) (Sizes, bool) { return Sizes{Stack: 4}, true },
}

var U64Codec = Codec[uint64]{
	Formula:  U64{},
	Encode:   func(s *Serializer, v uint64, _ bool) error { return s.WriteU64(v) },
	Decode:   func(d *Deserializer, _ bool) (uint64, error) { return d.ReadU64() },
	SizeHint: func(uint64, int) (Sizes, bool) { return Sizes{Stack: 8}, true },
}

var I64Codec = Codec[int64]{
	Formula:  I64{},
	Encode:   func(s *Serializer, v int64, _ bool) error { return s.WriteI64(v) },
	Decode:   func(d *Deserializer, _ bool) (int64, error) { return d.ReadI64() },
	SizeHint: func(int64, int) (Sizes, bool) { return Sizes{Stack: 8}, true },
}

var F32Codec = Codec[float32]{
	Formula:  F32{},
	Encode:   func(s *Serializer, v float32, _ bool) error { return s.WriteF32(v) },
	Decode:   func(d *Deserializer, _ bool) (float32, error) { return d.ReadF32() },
	SizeHint: func(float32, int) (Sizes, bool) { return Sizes{Stack: 4}, true },
}

var F64Codec = Codec[float64]{
	Formula:  F64{},
	Encode:   func(s *Serializer, v float64, _ bool) error { return s.WriteF64(v) },
	Decode:   func(d *Deserializer, _ bool) (float64, error) { return d.ReadF64() },
	SizeHint: func(float64, int) (Sizes, bool) { return Sizes{Stack: 8}, true },
}

var BoolCodec = Codec[bool]{
	Formula:  Bool{},
	Encode:   func(s *Serializer, v bool, _ bool) error { return s.WriteBool(v) },
	Decode:   func(d *Deserializer, _ bool) (bool, error) { return d.ReadBool() },
	SizeHint: func(bool, int) (Sizes, bool) { return Sizes{Stack: 1}, true },
}

var StringCodec = Codec[string]{
	Formula: Str{},
	Encode: func(s *Serializer, v string, _ bool) error { return s.WriteString(v) },
	Decode: func(d *Deserializer, _ bool) (string, error) { return d.ReadString() },
	SizeHint: func(v string, sizeBytes int) (Sizes, bool) {
		return Sizes{Stack: uint64(sizeBytes) + uint64(len(v))}, true
	},
}

var BlobCodec = Codec[[]byte]{
	Formula: Blob{},
	Encode: func(s *Serializer, v []byte, _ bool) error { return s.WriteBlob(v) },
	Decode: func(d *Deserializer, _ bool) ([]byte, error) { return d.ReadBlob() },
	SizeHint: func(v []byte, sizeBytes int) (Sizes, bool) {
		return Sizes{Stack: uint64(sizeBytes) + uint64(len(v))}, true
	},
}

// TimestampCodec binds the Timestamp formula to date.Time, the
// teacher's own dependency-free calendar type (kept as a plain utility
// import rather than reinvented): its nanosecond-precision instant is
// split into the formula's 8-byte Unix-seconds/4-byte-nanosecond wire
// pair via Unix()/Nanosecond(), and reconstructed with date.Unix.
var TimestampCodec = Codec[date.Time]{
	Formula: Timestamp{},
	Encode: func(s *Serializer, v date.Time, _ bool) error {
		return s.WriteTimestamp(v.Unix(), uint32(v.Nanosecond()))
	},
	Decode: func(d *Deserializer, _ bool) (date.Time, error) {
		sec, nsec, err := d.ReadTimestamp()
		if err != nil {
			return date.Time{}, err
		}
		return date.Unix(sec, int64(nsec)), nil
	},
	SizeHint: func(date.Time, int) (Sizes, bool) { return Sizes{Stack: 12}, true },
}

// FixedBytesCodec returns a Codec for the FixedBytes{N: n} formula. The
// returned codec validates that values are exactly n bytes long.
func FixedBytesCodec(n int) Codec[[]byte] {
	return Codec[[]byte]{
		Formula: FixedBytes{N: n},
		Encode: func(s *Serializer, v []byte, _ bool) error {
			if len(v) != n {
				return bad(WrongLength, "fixed bytes value has length %d, want %d", len(v), n)
			}
			return s.WriteFixedBytes(v)
		},
		Decode: func(d *Deserializer, _ bool) ([]byte, error) { return d.ReadFixedBytes(n) },
		SizeHint: func([]byte, int) (Sizes, bool) {
			return Sizes{Stack: uint64(n)}, true
		},
	}
}
