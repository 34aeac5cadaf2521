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

// TestInterningGrowableDeduplicatesRepeatedContent drives WriteIndirect
// directly against a shared InterningGrowable buffer with a codec whose
// SizeHint has been stripped (forcing the MoveToHeap path, the only one
// InterningGrowable can see content on). Two occurrences of the same
// string must not grow the heap a second time; a distinct string must.
func TestInterningGrowableDeduplicatesRepeatedContent(t *testing.T) {
	codec := WithoutSizeHint(StringCodec)
	buf := NewInterningGrowable()
	ser := NewSerializer(buf, 4)

	require.NoError(t, WriteIndirect(ser, codec, "hello"))
	afterFirst := ser.sizes.Heap
	require.Greater(t, afterFirst, uint64(0))

	require.NoError(t, WriteIndirect(ser, codec, "hello"))
	afterSecond := ser.sizes.Heap
	require.Equal(t, afterFirst, afterSecond, "repeated content must reuse the first occurrence's heap offset")

	require.NoError(t, WriteIndirect(ser, codec, "world"))
	afterThird := ser.sizes.Heap
	require.Greater(t, afterThird, afterSecond, "distinct content must still grow the heap")

	require.NoError(t, WriteIndirect(ser, codec, "world"))
	afterFourth := ser.sizes.Heap
	require.Equal(t, afterThird, afterFourth)
}

func TestInterningGrowableReserveHeapStillWorks(t *testing.T) {
	buf := NewInterningGrowable()
	ser := NewSerializer(buf, 4)

	require.NoError(t, WriteIndirect(ser, StringCodec, "exact-size-hint"))
	require.Greater(t, ser.sizes.Heap, uint64(0))
}
