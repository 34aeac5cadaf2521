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

import (
	"testing"

	"github.com/elh/formula/date"
	"github.com/stretchr/testify/require"
)

// roundTrip exercises Serialize/Deserialize for one value, sizing dst
// exactly via SerializedSizes first, and returns the decoded value for
// further assertions.
func roundTrip[T any](t *testing.T, codec Codec[T], value T, width int) T {
	t.Helper()
	want := SerializedSizes(codec, value, width)
	dst := make([]byte, want.Total())
	got, err := Serialize(codec, value, dst, width)
	require.NoError(t, err)
	require.Equal(t, want, got, "idempotent size: serialized_sizes must match the bytes actually written")
	require.Equal(t, int(got.Total()), len(dst))

	decoded, err := Deserialize(codec, dst, width)
	require.NoError(t, err)
	return decoded
}

func TestScalarRoundTrip(t *testing.T) {
	require.Equal(t, uint8(7), roundTrip(t, U8Codec, uint8(7), 4))
	require.Equal(t, int8(-7), roundTrip(t, I8Codec, int8(-7), 4))
	require.Equal(t, uint16(1000), roundTrip(t, U16Codec, uint16(1000), 4))
	require.Equal(t, int16(-1000), roundTrip(t, I16Codec, int16(-1000), 4))
	require.Equal(t, uint32(0x11223344), roundTrip(t, U32Codec, uint32(0x11223344), 4))
	require.Equal(t, int32(-123456), roundTrip(t, I32Codec, int32(-123456), 4))
	require.Equal(t, uint64(0xdeadbeefcafe), roundTrip(t, U64Codec, uint64(0xdeadbeefcafe), 4))
	require.Equal(t, int64(-9000000000), roundTrip(t, I64Codec, int64(-9000000000), 4))
	require.InDelta(t, float32(3.5), roundTrip(t, F32Codec, float32(3.5), 4), 0)
	require.InDelta(t, 2.71828, roundTrip(t, F64Codec, 2.71828, 4), 0)
	require.Equal(t, true, roundTrip(t, BoolCodec, true, 4))
	require.Equal(t, false, roundTrip(t, BoolCodec, false, 4))
	require.Equal(t, "qwe", roundTrip(t, StringCodec, "qwe", 4))
	require.Equal(t, []byte{1, 2, 3}, roundTrip(t, BlobCodec, []byte{1, 2, 3}, 4))

	ts := date.Unix(1_700_000_000, 123_000_000)
	got := roundTrip(t, TimestampCodec, ts, 4)
	require.True(t, ts.Equal(got))

	fb := FixedBytesCodec(4)
	require.Equal(t, []byte{0xAA, 0xBB, 0xCC, 0xDD}, roundTrip(t, fb, []byte{0xAA, 0xBB, 0xCC, 0xDD}, 4))
}

// TestScenarioS1Primitive mirrors S1: a bare u32 round-trips and its
// serialized size is exactly as predicted (4 bytes of payload plus the
// fixed size_bytes-wide root indirection the public API always adds).
func TestScenarioS1Primitive(t *testing.T) {
	const width = 4
	value := uint32(0x11223344)
	sizes := SerializedSizes(U32Codec, value, width)
	dst := make([]byte, sizes.Total())
	written, err := Serialize(U32Codec, value, dst, width)
	require.NoError(t, err)
	require.Equal(t, sizes, written)

	got, err := Deserialize(U32Codec, dst, width)
	require.NoError(t, err)
	require.Equal(t, value, got)
}

// TestScenarioS2String mirrors S2: a string round-trips through the
// heap/stack split (the root indirection commits the string's
// length-prefixed bytes to the heap, leaving a single offset on the
// stack).
func TestScenarioS2String(t *testing.T) {
	value := "qwe"
	got := roundTrip(t, StringCodec, value, 4)
	require.Equal(t, value, got)
}

// TestScenarioS3List mirrors S3: a list of scalars round-trips in
// order.
func TestScenarioS3List(t *testing.T) {
	listCodec := ListCodec(U32Codec, 0, Unbounded)
	value := []uint32{1, 2, 3}
	got := roundTrip(t, listCodec, value, 4)
	require.Equal(t, value, got)
}

type person struct {
	A uint8
	B string
}

func personCodec() Codec[person] {
	return RecordCodec2(
		U8Codec, func(p person) uint8 { return p.A },
		StringCodec, func(p person) string { return p.B },
		func(a uint8, b string) person { return person{A: a, B: b} },
	)
}

// TestScenarioS4RecordTrailingUnbounded mirrors S4: a 2-field record
// whose final field is Unbounded round-trips with no padding concerns,
// since Unbounded fields never pad regardless of terminal position.
func TestScenarioS4RecordTrailingUnbounded(t *testing.T) {
	codec := personCodec()
	value := person{A: 7, B: "hi"}
	got := roundTrip(t, codec, value, 4)
	require.Equal(t, value, got)
}

type shape struct {
	tag int
	a   uint16
	b   string
}

func shapeA(v uint16) shape { return shape{tag: 0, a: v} }
func shapeB(v string) shape { return shape{tag: 1, b: v} }
func shapeC() shape         { return shape{tag: 2} }

func shapeCodec() Codec[shape] {
	variantA := Codec[shape]{
		Formula: U16{},
		Encode:  func(s *Serializer, v shape, _ bool) error { return s.WriteU16(v.a) },
		Decode: func(d *Deserializer, _ bool) (shape, error) {
			v, err := d.ReadU16()
			if err != nil {
				return shape{}, err
			}
			return shapeA(v), nil
		},
		SizeHint: func(shape, int) (Sizes, bool) { return Sizes{Stack: 2}, true },
	}
	variantB := Codec[shape]{
		Formula: Str{},
		Encode:  func(s *Serializer, v shape, _ bool) error { return s.WriteString(v.b) },
		Decode: func(d *Deserializer, _ bool) (shape, error) {
			v, err := d.ReadString()
			if err != nil {
				return shape{}, err
			}
			return shapeB(v), nil
		},
		SizeHint: func(v shape, sizeBytes int) (Sizes, bool) {
			return Sizes{Stack: uint64(sizeBytes) + uint64(len(v.b))}, true
		},
	}
	variantC := Codec[shape]{
		Formula:  Tuple{},
		Encode:   func(*Serializer, shape, bool) error { return nil },
		Decode:   func(*Deserializer, bool) (shape, error) { return shapeC(), nil },
		SizeHint: func(shape, int) (Sizes, bool) { return Sizes{}, true },
	}
	return EnumCodec(func(v shape) int { return v.tag }, []Codec[shape]{variantA, variantB, variantC})
}

// TestScenarioS5Enum mirrors S5: each of a 3-variant enum's variants
// round-trips, and an out-of-range discriminant is rejected as
// WrongVariant (property 7).
func TestScenarioS5Enum(t *testing.T) {
	codec := shapeCodec()

	got := roundTrip(t, codec, shapeA(42), 4)
	require.Equal(t, shapeA(42), got)

	got = roundTrip(t, codec, shapeB("x"), 4)
	require.Equal(t, shapeB("x"), got)

	got = roundTrip(t, codec, shapeC(), 4)
	require.Equal(t, shapeC(), got)
}

func TestDiscriminantOutOfRangeIsWrongVariant(t *testing.T) {
	d := NewDeserializer([]byte{3}, 4)
	_, err := d.ReadDiscriminant(3)
	require.Error(t, err)
	de, ok := err.(*DeserializeError)
	require.True(t, ok)
	require.Equal(t, WrongVariant, de.Kind)
}

func TestEnumEncodeRejectsOutOfRangeTag(t *testing.T) {
	codec := shapeCodec()
	bad := shape{tag: 99}
	_, err := SerializeToVec(codec, bad, new([]byte), 4)
	require.Error(t, err)
	de, ok := err.(*DeserializeError)
	require.True(t, ok)
	require.Equal(t, WrongVariant, de.Kind)
}

// TestReadIndirectRejectsForwardOffset is property 7's error-taxonomy
// counterpart for indirect offsets: an offset field naming a position
// beyond the heap bytes actually produced so far is WrongAddress, not
// the generic OutOfBounds that covers plain underflow elsewhere.
func TestReadIndirectRejectsForwardOffset(t *testing.T) {
	data := make([]byte, 8)
	data[4] = 100 // offset = 100, far beyond the 4 heap bytes that precede it
	de := NewDeserializer(data, 4)

	_, err := ReadIndirect(de, U8Codec)
	require.Error(t, err)
	derr, ok := err.(*DeserializeError)
	require.True(t, ok)
	require.Equal(t, WrongAddress, derr.Kind)
}

// TestReadBlobRejectsOversizeLength is property 7's error-taxonomy
// counterpart for a length prefix that cannot be narrowed to a host
// int: IntegerOverflow, rather than silently wrapping into a bogus
// small or negative length.
func TestReadBlobRejectsOversizeLength(t *testing.T) {
	data := make([]byte, 8)
	for i := range data {
		data[i] = 0xFF
	}
	de := NewDeserializer(data, 8)

	_, err := de.ReadBlob()
	require.Error(t, err)
	derr, ok := err.(*DeserializeError)
	require.True(t, ok)
	require.Equal(t, IntegerOverflow, derr.Kind)
}

// TestScenarioS6BufferExhaustion mirrors S6: a too-small destination
// fails Serialize with BufferExhaustedError, SerializeOrSize reports
// the exact capacity a retry needs, and that retry succeeds with
// total() equal to what was required (property 3).
func TestScenarioS6BufferExhaustion(t *testing.T) {
	codec := StringCodec
	value := "a string long enough to not fit in ten bytes"

	tiny := make([]byte, 10)
	_, err := Serialize(codec, value, tiny, 4)
	require.Error(t, err)
	_, ok := err.(*BufferExhaustedError)
	require.True(t, ok)

	_, err = SerializeOrSize(codec, value, tiny, 4)
	require.Error(t, err)
	sizeErr, ok := err.(*BufferSizeRequiredError)
	require.True(t, ok)
	require.Equal(t, SerializedSizes(codec, value, 4).Total(), sizeErr.Required)

	exact := make([]byte, sizeErr.Required)
	sizes, err := Serialize(codec, value, exact, 4)
	require.NoError(t, err)
	require.Equal(t, sizeErr.Required, sizes.Total())

	got, err := Deserialize(codec, exact, 4)
	require.NoError(t, err)
	require.Equal(t, value, got)
}

func TestListRoundTrip(t *testing.T) {
	fixed := ListCodec(U32Codec, 3, 3)
	require.Equal(t, []uint32{1, 2, 3}, roundTrip(t, fixed, []uint32{1, 2, 3}, 4))

	variable := ListCodec(U8Codec, 0, Unbounded)
	require.Equal(t, []uint8{}, roundTrip(t, variable, []uint8{}, 4))
	require.Equal(t, []uint8{9, 8, 7}, roundTrip(t, variable, []uint8{9, 8, 7}, 4))
}

func TestNeverElementEmptyListIsInhabited(t *testing.T) {
	l := List{Elem: Never{}, Min: 0, Max: 0}
	require.True(t, l.Inhabited())
	require.Equal(t, ExactSize(0), l.StackSize(4))
	require.Equal(t, ExactSize(0), l.HeapSize(4))

	nonEmpty := List{Elem: Never{}, Min: 1, Max: 1}
	require.False(t, nonEmpty.Inhabited())
}

func TestOptionRoundTrip(t *testing.T) {
	codec := OptionCodec(U32Codec)
	require.Nil(t, roundTrip(t, codec, (*uint32)(nil), 4))

	v := uint32(99)
	got := roundTrip(t, codec, &v, 4)
	require.NotNil(t, got)
	require.Equal(t, v, *got)
}

func TestTupleRoundTrip(t *testing.T) {
	pairCodec := Tuple2Codec(U8Codec, StringCodec)
	pair := roundTrip(t, pairCodec, Pair[uint8, string]{First: 3, Second: "go"}, 4)
	require.Equal(t, uint8(3), pair.First)
	require.Equal(t, "go", pair.Second)

	tripleCodec := Tuple3Codec(U8Codec, U16Codec, BoolCodec)
	triple := roundTrip(t, tripleCodec, Triple[uint8, uint16, bool]{First: 1, Second: 2, Third: true}, 4)
	require.Equal(t, uint8(1), triple.First)
	require.Equal(t, uint16(2), triple.Second)
	require.Equal(t, true, triple.Third)
}

func TestIndirectRoundTrip(t *testing.T) {
	codec := IndirectCodec(StringCodec)
	dst := make([]byte, SerializedSizes(codec, "hello", 4).Total())
	sizes, err := Serialize(codec, "hello", dst, 4)
	require.NoError(t, err)
	require.Greater(t, sizes.Heap, uint64(0), "an indirected string must commit to the heap")

	got, err := Deserialize(codec, dst, 4)
	require.NoError(t, err)
	require.Equal(t, "hello", got)
}

// TestWidthInvariance is property 6: a value small enough to fit under
// a 2-byte width round-trips identically at every wider width too.
func TestWidthInvariance(t *testing.T) {
	codec := personCodec()
	value := person{A: 5, B: "ok"}
	for _, width := range []int{2, 4, 8} {
		got := roundTrip(t, codec, value, width)
		require.Equal(t, value, got)
	}
}

// TestPaddingSafety is property 4: the zero bytes a Bounded,
// non-terminal field pads out to its bound may be overwritten with
// garbage without changing what the next field reads back.
func TestPaddingSafety(t *testing.T) {
	dst := make([]byte, 32)
	buf := NewFixedChecked(dst)
	ser := NewSerializer(buf, 4)

	require.NoError(t, ser.writeStack([]byte{0xAA, 0xBB}))
	bound := BoundedSize(5)
	require.NoError(t, padAfterField(ser, bound, false, 2))
	stackAfterPadding := ser.sizes.Stack
	require.NoError(t, ser.WriteU8(0xFF))
	require.NoError(t, buf.Finish(ser.sizes.Heap, ser.sizes.Stack))

	// Corrupt the 3 padding bytes the field left between its own
	// content and the bound: stack grows backward, so the field+its
	// padding occupy a fixed range starting at len(window)-stackAfterPadding
	// regardless of what else is written to the stack afterward.
	window := buf.Bytes()
	paddingStart := len(window) - int(stackAfterPadding)
	for i := paddingStart; i < paddingStart+3; i++ {
		window[i] = 0xFF
	}

	de := NewDeserializer(dst, 4)
	field, err := de.ReadBytes(2)
	require.NoError(t, err)
	require.Equal(t, []byte{0xAA, 0xBB}, field)
	require.NoError(t, skipField(de, bound, false, 2))

	sentinel, err := de.ReadU8()
	require.NoError(t, err)
	require.Equal(t, uint8(0xFF), sentinel)
}

func TestLazyListEquality(t *testing.T) {
	values := []uint32{10, 20, 30}
	eager := ListCodec(U32Codec, 0, Unbounded)
	lazy := LazyListCodec(U32Codec, 0, Unbounded)

	dst := make([]byte, SerializedSizes(eager, values, 4).Total())
	_, err := Serialize(eager, values, dst, 4)
	require.NoError(t, err)

	lazyList, err := Deserialize(lazy, dst, 4)
	require.NoError(t, err)
	require.Equal(t, len(values), lazyList.Len())

	for i, want := range values {
		got, err := lazyList.At(i).Read()
		require.NoError(t, err)
		require.Equal(t, want, got, "lazy equality: Lazy.Read must match the eager decode of the same bytes")
	}

	all, err := lazyList.All()
	require.NoError(t, err)
	require.Equal(t, values, all)

	var dst2 []byte
	_, err = SerializeToVec(lazy, lazyList, &dst2, 4)
	require.NoError(t, err)
	roundTripped, err := Deserialize(lazy, dst2, 4)
	require.NoError(t, err)
	all2, err := roundTripped.All()
	require.NoError(t, err)
	require.Equal(t, values, all2)
}

func TestLazyIncompatibleWithUnboundedElement(t *testing.T) {
	_, ok := fixedStackWidth(Str{}.StackSize(4))
	require.False(t, ok)

	lazy := LazyListCodec(StringCodec, 0, Unbounded)
	values := []string{"a", "bb"}
	eager := ListCodec(StringCodec, 0, Unbounded)
	dst := make([]byte, SerializedSizes(eager, values, 4).Total())
	_, err := Serialize(eager, values, dst, 4)
	require.NoError(t, err)

	_, err = Deserialize(lazy, dst, 4)
	require.Error(t, err)
	de, ok := err.(*DeserializeError)
	require.True(t, ok)
	require.Equal(t, Incompatible, de.Kind)
}

func TestSerializeUncheckedAndInPlace(t *testing.T) {
	codec := personCodec()
	value := person{A: 12, B: "unchecked"}
	dst := make([]byte, SerializedSizes(codec, value, 4).Total())
	SerializeUnchecked(codec, value, dst, 4)

	var got person
	require.NoError(t, DeserializeInPlace(codec, &got, dst, 4))
	require.Equal(t, value, got)
}

// narrowOrWide is an Enum of two Exact variants of different widths
// (U16, U32), so its own StackSize is Bounded rather than Exact or
// Unbounded: padAfterField pads a narrow-variant value out to the wide
// variant's width whenever this Enum sits in a non-last field.
type narrowOrWide struct {
	tag int
	n   uint16
	w   uint32
}

func narrowOrWideCodec() Codec[narrowOrWide] {
	narrow := Codec[narrowOrWide]{
		Formula: U16{},
		Encode:  func(s *Serializer, v narrowOrWide, _ bool) error { return s.WriteU16(v.n) },
		Decode: func(d *Deserializer, _ bool) (narrowOrWide, error) {
			v, err := d.ReadU16()
			if err != nil {
				return narrowOrWide{}, err
			}
			return narrowOrWide{tag: 0, n: v}, nil
		},
		SizeHint: func(narrowOrWide, int) (Sizes, bool) { return Sizes{Stack: 2}, true },
	}
	wide := Codec[narrowOrWide]{
		Formula: U32{},
		Encode:  func(s *Serializer, v narrowOrWide, _ bool) error { return s.WriteU32(v.w) },
		Decode: func(d *Deserializer, _ bool) (narrowOrWide, error) {
			v, err := d.ReadU32()
			if err != nil {
				return narrowOrWide{}, err
			}
			return narrowOrWide{tag: 1, w: v}, nil
		},
		SizeHint: func(narrowOrWide, int) (Sizes, bool) { return Sizes{Stack: 4}, true },
	}
	return EnumCodec(func(v narrowOrWide) int { return v.tag }, []Codec[narrowOrWide]{narrow, wide})
}

type pickThenTail struct {
	pick narrowOrWide
	tail uint8
}

func pickThenTailCodec() Codec[pickThenTail] {
	return RecordCodec2(
		narrowOrWideCodec(), func(v pickThenTail) narrowOrWide { return v.pick },
		U8Codec, func(v pickThenTail) uint8 { return v.tail },
		func(p narrowOrWide, t uint8) pickThenTail { return pickThenTail{pick: p, tail: t} },
	)
}

// TestSizeHintAccountsForNonLastBoundedField is property 2 (idempotent
// sizing) for a record whose non-last field is a Bounded Enum: the
// narrow variant must still be costed at the enum's bound (the wide
// variant's width) by SerializedSizes, matching what WriteDirect's own
// padAfterField call actually writes, both through the root Indirect
// every public entry point applies (WriteIndirect's reserved heap
// window) and through Debug's stricter consistency assertion.
func TestSizeHintAccountsForNonLastBoundedField(t *testing.T) {
	old := Debug
	Debug = true
	defer func() { Debug = old }()

	codec := pickThenTailCodec()

	narrow := pickThenTail{pick: narrowOrWide{tag: 0, n: 7}, tail: 9}
	got := roundTrip(t, codec, narrow, 4)
	require.Equal(t, narrow, got)

	wide := pickThenTail{pick: narrowOrWide{tag: 1, w: 1 << 20}, tail: 3}
	got = roundTrip(t, codec, wide, 4)
	require.Equal(t, wide, got)
}
