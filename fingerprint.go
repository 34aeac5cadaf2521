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
	"encoding/binary"
	"fmt"

	"github.com/dchest/siphash"
	"github.com/gtank/blake2/blake2b"
)

// formulaSignature walks a Formula's shape into a deterministic string,
// recursing into the combinators that carry nested Formula values at
// runtime (List, Option, Tuple, Record, Enum, Indirect) rather than
// relying on StackSize/HeapSize alone, since two differently-shaped
// formulas can share the same bound at a given width (e.g. a two-field
// Record{U8,U8} and a FixedBytes(2) are both Exact(2)).
func formulaSignature(f Formula, sizeBytes int) string {
	switch v := f.(type) {
	case Indirect:
		return "Indirect(" + formulaSignature(v.Elem, sizeBytes) + ")"
	case List:
		return fmt.Sprintf("List(%d,%d,%s)", v.Min, v.Max, formulaSignature(v.Elem, sizeBytes))
	case Option:
		return "Option(" + formulaSignature(v.Elem, sizeBytes) + ")"
	case Tuple:
		return joinSignatures("Tuple", v.Elems, sizeBytes)
	case Record:
		return joinSignatures("Record", v.Fields, sizeBytes)
	case Enum:
		return joinSignatures("Enum", v.Variants, sizeBytes)
	case FixedBytes:
		return fmt.Sprintf("FixedBytes(%d)", v.N)
	default:
		return fmt.Sprintf("%T", f)
	}
}

func joinSignatures(name string, elems []Formula, sizeBytes int) string {
	s := name + "("
	for i, e := range elems {
		if i > 0 {
			s += ","
		}
		s += formulaSignature(e, sizeBytes)
	}
	return s + ")"
}

// Fingerprint is a stable, non-wire-affecting hash of a Formula's shape
// at a given size_bytes width. It lets a caller assert that two Formula
// values describe identical layouts — for instance before reusing a
// Lazy view constructed against one formula over data produced by
// another — without promising anything about the bytes actually on the
// wire.
//
// The shape signature is hashed with gtank's BLAKE2b (distinct from the
// crypto/blake2b used by the interning buffer: this is a shape digest,
// not a content-addressing key) to spread it across 32 bytes, then
// folded to a single uint64 with a keyed SipHash over the digest's own
// bytes, mirroring the hash-then-key pattern the teacher's own
// short-key hashing uses.
func Fingerprint(f Formula, sizeBytes int) uint64 {
	sig := formulaSignature(f, sizeBytes)
	sig += fmt.Sprintf("|stack=%s|heap=%s|inhabited=%v", f.StackSize(sizeBytes), f.HeapSize(sizeBytes), f.Inhabited())

	h, err := blake2b.NewDigest(nil, nil, nil, 32)
	if err != nil {
		// NewDigest only fails for invalid key/salt/personalization
		// lengths or outputBytes out of [1,64]; all constant here.
		panic(err)
	}
	h.Write([]byte(sig))
	sum := h.Sum(nil)

	k0 := binary.LittleEndian.Uint64(sum[0:8])
	k1 := binary.LittleEndian.Uint64(sum[8:16])
	return siphash.Hash(k0, k1, sum[16:32])
}
