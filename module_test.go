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

const pointPathModule = `
formulas:
  point:
    record:
      - name: x
        formula: i32
      - name: y
        formula: i32
  path:
    list:
      element: point
      min: 0
      max: null
`

func TestParseModuleRecordAndList(t *testing.T) {
	m, err := ParseModule([]byte(pointPathModule))
	require.NoError(t, err)

	point, ok := m.Lookup("point")
	require.True(t, ok)
	require.Equal(t, Record{Fields: []Formula{I32{}, I32{}}}, point)

	path, ok := m.Lookup("path")
	require.True(t, ok)
	require.Equal(t, List{Elem: point, Min: 0, Max: Unbounded}, path)

	_, ok = m.Lookup("nonexistent")
	require.False(t, ok)
}

func TestParseModuleBuiltinScalarsAlwaysResolve(t *testing.T) {
	m, err := ParseModule([]byte("formulas: {}"))
	require.NoError(t, err)

	for _, name := range []string{"u8", "i8", "u16", "i16", "u32", "i32", "u64", "i64", "f32", "f64", "bool", "str", "blob", "timestamp", "never"} {
		_, ok := m.Lookup(name)
		require.True(t, ok, "builtin scalar %q should always resolve", name)
	}
}

func TestParseModuleForwardReference(t *testing.T) {
	doc := `
formulas:
  a:
    option: b
  b:
    fixed: 4
`
	m, err := ParseModule([]byte(doc))
	require.NoError(t, err)

	a, ok := m.Lookup("a")
	require.True(t, ok)
	require.Equal(t, Option{Elem: FixedBytes{N: 4}}, a)
}

func TestParseModuleSelfReferenceWithoutIndirectionFails(t *testing.T) {
	doc := `
formulas:
  a:
    record:
      - name: next
        formula: a
`
	_, err := ParseModule([]byte(doc))
	require.Error(t, err)
	require.Contains(t, err.Error(), "defined in terms of itself")
}

func TestParseModuleEnum(t *testing.T) {
	doc := `
formulas:
  maybeCount:
    enum:
      - name: none
        formula: never
      - name: some
        formula: u32
`
	m, err := ParseModule([]byte(doc))
	require.NoError(t, err)

	f, ok := m.Lookup("maybeCount")
	require.True(t, ok)
	require.Equal(t, Enum{Variants: []Formula{Never{}, U32{}}}, f)
}

func TestParseModuleUndefinedReferenceFails(t *testing.T) {
	doc := `
formulas:
  a:
    option: doesNotExist
`
	_, err := ParseModule([]byte(doc))
	require.Error(t, err)
	require.Contains(t, err.Error(), "undefined formula")
}
