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

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// uuidCodec demonstrates a third-party value type plugging straight
// into the derivation protocol: uuid.UUID is a [16]byte under the
// hood, so it rides FixedBytesCodec(16) with a pair of projection
// closures and no bespoke wire logic of its own.
func uuidCodec() Codec[uuid.UUID] {
	inner := FixedBytesCodec(16)
	return Codec[uuid.UUID]{
		Formula: inner.Formula,
		Encode: func(s *Serializer, v uuid.UUID, last bool) error {
			b := v[:]
			return inner.Encode(s, b, last)
		},
		Decode: func(d *Deserializer, last bool) (uuid.UUID, error) {
			b, err := inner.Decode(d, last)
			if err != nil {
				return uuid.UUID{}, err
			}
			var out uuid.UUID
			copy(out[:], b)
			return out, nil
		},
		SizeHint: func(v uuid.UUID, sizeBytes int) (Sizes, bool) {
			return inner.SizeHint(v[:], sizeBytes)
		},
	}
}

func TestUUIDRoundTrip(t *testing.T) {
	codec := uuidCodec()
	id := uuid.New()

	dst := make([]byte, SerializedSizes(codec, id, 4).Total())
	_, err := Serialize(codec, id, dst, 4)
	require.NoError(t, err)

	got, err := Deserialize(codec, dst, 4)
	require.NoError(t, err)
	require.Equal(t, id, got)
}

type tagged struct {
	ID   uuid.UUID
	Name string
}

func taggedCodec() Codec[tagged] {
	return RecordCodec2(
		uuidCodec(), func(t tagged) uuid.UUID { return t.ID },
		StringCodec, func(t tagged) string { return t.Name },
		func(id uuid.UUID, name string) tagged { return tagged{ID: id, Name: name} },
	)
}

func TestUUIDAsRecordField(t *testing.T) {
	codec := taggedCodec()
	value := tagged{ID: uuid.New(), Name: "widget"}

	dst := make([]byte, SerializedSizes(codec, value, 4).Total())
	_, err := Serialize(codec, value, dst, 4)
	require.NoError(t, err)

	got, err := Deserialize(codec, dst, 4)
	require.NoError(t, err)
	require.Equal(t, value, got)
}
