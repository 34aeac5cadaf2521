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

// This file is the public API of §4.8: the only entry points a client
// (a derive-macro-generated record/enum, or hand-written Codec) needs
// to turn a value into a packet and back. Every one of them wraps the
// caller's Codec with an implicit root Indirect: the root value's own
// bytes (and anything it indirects in turn) live in the heap region at
// the front of the packet, and the packet ends with a single size_bytes
// offset, its last size_bytes bytes, giving the end of the root payload.
// A reader with no other context locates the root payload from that
// trailing offset alone; the packet does not begin with an offset.

func rootCodec[T any](codec Codec[T]) Codec[T] { return IndirectCodec(codec) }

// Serialize writes value into dst using codec's formula at the given
// size_bytes width, failing with *BufferExhaustedError if dst is too
// small. On success it returns the heap/stack byte counts actually
// written. Heap bytes are written from the front of dst and stack bytes
// into its tail, so dst holds one contiguous packet only when len(dst)
// equals Sizes.Total().
func Serialize[T any](codec Codec[T], value T, dst []byte, width int) (Sizes, error) {
	buf := NewFixedChecked(dst)
	ser := NewSerializer(buf, width)
	root := rootCodec(codec)
	if err := WriteDirect(ser, root, value, true); err != nil {
		return Sizes{}, err
	}
	if err := buf.Finish(ser.sizes.Heap, ser.sizes.Stack); err != nil {
		return Sizes{}, err
	}
	return ser.Sizes(), nil
}

// SerializeUnchecked is Serialize without bounds checking: dst must
// already be at least SerializedSizes(codec, value).Total() bytes, or
// behavior is an ordinary Go out-of-bounds panic rather than a
// returned error. It exists for callers on a hot path who have already
// computed the required size.
func SerializeUnchecked[T any](codec Codec[T], value T, dst []byte, width int) Sizes {
	buf := NewFixedUnchecked(dst)
	ser := NewSerializer(buf, width)
	root := rootCodec(codec)
	if err := WriteDirect(ser, root, value, true); err != nil {
		// FixedUnchecked never returns an error; a non-nil err here
		// can only come from the value's own Encode function, which
		// callers are expected to have already validated.
		panic(err)
	}
	return ser.Sizes()
}

// SerializeOrSize attempts Serialize into dst; if dst is too small, it
// returns *BufferSizeRequiredError carrying the exact capacity a
// second attempt would need. dst may have been partially written by the
// failed attempt.
func SerializeOrSize[T any](codec Codec[T], value T, dst []byte, width int) (Sizes, error) {
	sizes, err := Serialize(codec, value, dst, width)
	if err == nil {
		return sizes, nil
	}
	if _, ok := err.(*BufferExhaustedError); !ok {
		return Sizes{}, err
	}
	probe := &SizeProbing{}
	ser := NewSerializer(probe, width)
	root := rootCodec(codec)
	_ = WriteDirect(ser, root, value, true)
	probeErr := probe.Finish(ser.sizes.Heap, ser.sizes.Stack)
	if required, ok := probeErr.(*BufferSizeRequiredError); ok {
		return Sizes{}, required
	}
	return Sizes{}, probeErr
}

// SerializeToVec appends value's serialized bytes onto the end of
// *dst, growing it as needed, and returns the Sizes written.
func SerializeToVec[T any](codec Codec[T], value T, dst *[]byte, width int) (Sizes, error) {
	buf := NewGrowable()
	ser := NewSerializer(buf, width)
	root := rootCodec(codec)
	if err := WriteDirect(ser, root, value, true); err != nil {
		return Sizes{}, err
	}
	*dst = append(*dst, buf.Bytes()...)
	return ser.Sizes(), nil
}

// SerializedSizes reports the exact heap/stack byte counts value would
// serialize to, without writing any bytes.
func SerializedSizes[T any](codec Codec[T], value T, width int) Sizes {
	ser := NewSerializer(Dry{}, width)
	root := rootCodec(codec)
	// Dry never errors; the value's own Encode might, but a caller
	// asking for sizes of a value it cannot itself encode is a
	// programmer error we surface by panicking rather than pretending
	// a sensible size exists.
	if err := WriteDirect(ser, root, value, true); err != nil {
		panic(err)
	}
	return ser.Sizes()
}

// Deserialize decodes a T out of src, which must be exactly as produced
// by one of the Serialize* functions above at the same width.
func Deserialize[T any](codec Codec[T], src []byte, width int) (T, error) {
	var zero T
	if len(src) < width {
		return zero, toosmall(width, len(src))
	}
	de := NewDeserializer(src, width)
	root := rootCodec(codec)
	return ReadDirect(de, root, true)
}

// DeserializeInPlace decodes a T out of src into *dst, overwriting its
// previous value, without allocating a fresh result to copy from.
func DeserializeInPlace[T any](codec Codec[T], dst *T, src []byte, width int) error {
	v, err := Deserialize(codec, src, width)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}
