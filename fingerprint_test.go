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

	"github.com/stretchr/testify/require"
)

func TestFingerprintSameShapeIsEqual(t *testing.T) {
	a := Record{Fields: []Formula{U8{}, Str{}}}
	b := Record{Fields: []Formula{U8{}, Str{}}}
	require.Equal(t, Fingerprint(a, 4), Fingerprint(b, 4))
}

func TestFingerprintDifferentShapeDiffers(t *testing.T) {
	record := Record{Fields: []Formula{U8{}, Str{}}}
	tuple := Tuple{Elems: []Formula{U8{}, Str{}}}
	require.NotEqual(t, Fingerprint(record, 4), Fingerprint(tuple, 4))

	fixed2 := FixedBytes{N: 2}
	twoU8s := Record{Fields: []Formula{U8{}, U8{}}}
	require.NotEqual(t, Fingerprint(fixed2, 4), Fingerprint(twoU8s, 4),
		"both are Exact(2) at width 4 but differ in shape")
}

// TestFingerprintWidthDependence shows the fingerprint is sensitive to
// sizeBytes whenever the formula's own bound depends on it: a Bounded
// list's stack bound includes a size_bytes-wide length prefix, so the
// same List shape fingerprints differently at different widths.
func TestFingerprintWidthDependence(t *testing.T) {
	l := List{Elem: U8{}, Min: 0, Max: 5}
	require.NotEqual(t, Fingerprint(l, 2), Fingerprint(l, 8))
}

func TestFingerprintStableAcrossCalls(t *testing.T) {
	f := Option{Elem: Record{Fields: []Formula{U16{}, Bool{}}}}
	require.Equal(t, Fingerprint(f, 4), Fingerprint(f, 4))
}
