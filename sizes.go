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

// Sizes is the heap/stack byte count pair produced by a concrete
// serialization, as opposed to SizeBound which describes the statically
// known bound on such a pair for a formula in the abstract.
type Sizes struct {
	Heap  uint64
	Stack uint64
}

// Add returns the componentwise sum of s and o.
func (s Sizes) Add(o Sizes) Sizes {
	return Sizes{Heap: s.Heap + o.Heap, Stack: s.Stack + o.Stack}
}

// Total returns the combined byte count across both regions.
func (s Sizes) Total() uint64 { return s.Heap + s.Stack }
