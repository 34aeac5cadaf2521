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

// Package formula implements a schema-directed binary serialization engine.
//
// A Formula describes, at compile time, the shape and size bounds of a
// value's wire representation: its exact or bounded stack footprint (the
// bytes inlined at the point of use) and heap footprint (bytes indirected
// elsewhere in the packet). Values are serialized into a single byte slab
// split into two regions growing toward each other: a heap region from
// offset 0 upward holding indirected payloads, and a stack region from the
// tail downward holding the root value's own inline bytes. See Serializer,
// Deserializer, and Buffer for the mechanics, and Codec for how a Go type
// binds to a Formula.
package formula

// Debug enables internal consistency assertions (size-hint mismatches,
// field padding invariants, discriminant ranges) that are useful during
// development but cost a branch on every field write/read. It is the
// idiomatic analogue of a separate debug build: off by default.
var Debug = false
