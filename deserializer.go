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
	"math"
	"unicode/utf8"
)

// Deserializer reads a value back out of a packet. data holds everything
// from the packet's absolute start up to the current unconsumed tail
// boundary: reading a stack field shrinks data from its tail, while an
// indirect offset indexes into the unchanged front portion of data,
// which is always the heap region regardless of how much stack has
// already been consumed (invariant: indirect offsets only ever point
// backward into already-produced heap bytes, so they are always smaller
// than the current tail boundary).
type Deserializer struct {
	data  []byte
	width int
}

// NewDeserializer returns a Deserializer reading data with the given
// session size_bytes width.
func NewDeserializer(data []byte, width int) *Deserializer {
	return &Deserializer{data: data, width: width}
}

// Width returns the session's size_bytes.
func (d *Deserializer) Width() int { return d.width }

// Remaining returns the number of unconsumed bytes.
func (d *Deserializer) Remaining() int { return len(d.data) }

// ReadBytes removes and returns the last n bytes of the unconsumed
// region.
func (d *Deserializer) ReadBytes(n int) ([]byte, error) {
	if n < 0 || n > len(d.data) {
		return nil, toosmall(n, len(d.data))
	}
	split := len(d.data) - n
	b := d.data[split:]
	d.data = d.data[:split]
	return b, nil
}

// ReadU8 reads a single byte.
func (d *Deserializer) ReadU8() (uint8, error) {
	b, err := d.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadI8 reads a single signed byte.
func (d *Deserializer) ReadI8() (int8, error) {
	v, err := d.ReadU8()
	return int8(v), err
}

// ReadU16 reads a little-endian uint16.
func (d *Deserializer) ReadU16() (uint16, error) {
	b, err := d.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0]) | uint16(b[1])<<8, nil
}

// ReadI16 reads a little-endian int16.
func (d *Deserializer) ReadI16() (int16, error) {
	v, err := d.ReadU16()
	return int16(v), err
}

// ReadU32 reads a little-endian uint32.
func (d *Deserializer) ReadU32() (uint32, error) {
	b, err := d.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}

// ReadI32 reads a little-endian int32.
func (d *Deserializer) ReadI32() (int32, error) {
	v, err := d.ReadU32()
	return int32(v), err
}

// ReadU64 reads a little-endian uint64.
func (d *Deserializer) ReadU64() (uint64, error) {
	b, err := d.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v, nil
}

// ReadI64 reads a little-endian int64.
func (d *Deserializer) ReadI64() (int64, error) {
	v, err := d.ReadU64()
	return int64(v), err
}

// ReadF32 reads a little-endian IEEE-754 float32.
func (d *Deserializer) ReadF32() (float32, error) {
	v, err := d.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadF64 reads a little-endian IEEE-754 float64.
func (d *Deserializer) ReadF64() (float64, error) {
	v, err := d.ReadU64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// ReadBool reads a single 0/1 byte.
func (d *Deserializer) ReadBool() (bool, error) {
	v, err := d.ReadU8()
	if err != nil {
		return false, err
	}
	if v > 1 {
		return false, bad(Incompatible, "bool byte %d is neither 0 nor 1", v)
	}
	return v == 1, nil
}

// ReadFixedBytes reads exactly n raw bytes, for use with the
// FixedBytes(N) formula.
func (d *Deserializer) ReadFixedBytes(n int) ([]byte, error) { return d.ReadBytes(n) }

// ReadString reads a size_bytes-wide length prefix followed by that
// many UTF-8 bytes.
func (d *Deserializer) ReadString() (string, error) {
	n, err := d.ReadUsize()
	if err != nil {
		return "", err
	}
	ln, err := asInt(n)
	if err != nil {
		return "", err
	}
	b, err := d.ReadBytes(ln)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", bad(NonUtf8, "string field is not valid utf-8")
	}
	return string(b), nil
}

// ReadBlob reads a size_bytes-wide length prefix followed by that many
// raw bytes.
func (d *Deserializer) ReadBlob() ([]byte, error) {
	n, err := d.ReadUsize()
	if err != nil {
		return nil, err
	}
	ln, err := asInt(n)
	if err != nil {
		return nil, err
	}
	return d.ReadBytes(ln)
}

// asInt narrows a wire-encoded usize down to a host int, failing with
// IntegerOverflow rather than silently wrapping when the encoded length
// does not fit (always possible on a 32-bit int platform, and for any
// width once a session's size_bytes exceeds what fits in an int).
func asInt(n uint64) (int, error) {
	if n > math.MaxInt {
		return 0, bad(IntegerOverflow, "length %d does not fit in an int", n)
	}
	return int(n), nil
}

// ReadTimestamp reads an 8-byte signed Unix-seconds field followed by a
// 4-byte unsigned nanoseconds field.
func (d *Deserializer) ReadTimestamp() (sec int64, nsec uint32, err error) {
	sec, err = d.ReadI64()
	if err != nil {
		return 0, 0, err
	}
	nsec, err = d.ReadU32()
	return sec, nsec, err
}

// ReadUsize reads a size_bytes-wide little-endian field, failing with
// InvalidUsize if any byte beyond the 8th is non-zero (this engine
// represents every usize as a uint64 regardless of session width).
func (d *Deserializer) ReadUsize() (uint64, error) {
	b, err := d.ReadBytes(d.width)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < d.width && i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	for i := 8; i < d.width; i++ {
		if b[i] != 0 {
			return 0, bad(InvalidUsize, "usize high byte %d is non-zero", i)
		}
	}
	return v, nil
}

// ReadDiscriminant reads a 1/2/4-byte little-endian field sized by
// DiscriminantWidth(numVariants) and validates it names a variant in
// range.
func (d *Deserializer) ReadDiscriminant(numVariants int) (int, error) {
	w := DiscriminantWidth(numVariants)
	b, err := d.ReadBytes(w)
	if err != nil {
		return 0, err
	}
	var v uint32
	for i := 0; i < w; i++ {
		v |= uint32(b[i]) << (8 * i)
	}
	if int(v) >= numVariants {
		return 0, bad(WrongVariant, "discriminant %d has no matching variant among %d", v, numVariants)
	}
	return int(v), nil
}

// skipField mirrors padAfterField on the read side (§4.5): after
// decoding a field that consumed `consumed` bytes, it discards whatever
// padding the writer added so the next field starts at the expected
// position.
func skipField(d *Deserializer, bound SizeBound, last bool, consumed uint64) error {
	switch {
	case bound.IsUnbounded():
		return nil
	default:
		max, _ := bound.Upper()
		if Debug && bound.IsExact() && consumed != max {
			panic("formula: field consumed a different number of bytes than its exact bound")
		}
		if last {
			return nil
		}
		if consumed > max {
			return bad(WrongLength, "field consumed %d bytes, exceeds bound %d", consumed, max)
		}
		if skip := max - consumed; skip > 0 {
			_, err := d.ReadBytes(int(skip))
			return err
		}
		return nil
	}
}
