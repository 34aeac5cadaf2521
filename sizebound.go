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

import "fmt"

// boundKind discriminates the three points of the SizeBound lattice.
type boundKind uint8

const (
	kindExact boundKind = iota
	kindBounded
	kindUnbounded
)

// SizeBound describes how much is statically known about the size, in
// bytes, that a formula occupies in one region (stack or heap): a single
// fixed value (Exact), an upper limit that may not be reached (Bounded),
// or no limit at all (Unbounded). It forms a small lattice: Add, Max and
// Mul combine bounds the way the region sizes of composite formulas
// combine their components'.
type SizeBound struct {
	kind boundKind
	n    uint64
}

// ExactSize returns the bound describing a region that is always exactly
// n bytes.
func ExactSize(n uint64) SizeBound { return SizeBound{kind: kindExact, n: n} }

// BoundedSize returns the bound describing a region that never exceeds n
// bytes but may be smaller.
func BoundedSize(n uint64) SizeBound { return SizeBound{kind: kindBounded, n: n} }

// UnboundedSize returns the bound describing a region with no known
// upper limit.
func UnboundedSize() SizeBound { return SizeBound{kind: kindUnbounded} }

// IsExact reports whether b is Exact(n) for some n.
func (b SizeBound) IsExact() bool { return b.kind == kindExact }

// IsBounded reports whether b is Bounded(n) for some n.
func (b SizeBound) IsBounded() bool { return b.kind == kindBounded }

// IsUnbounded reports whether b carries no known upper limit.
func (b SizeBound) IsUnbounded() bool { return b.kind == kindUnbounded }

// Upper returns the tightest known upper limit and true, or (0, false)
// if b is Unbounded. Both Exact and Bounded report their n here; callers
// that only care "is there a limit at all" use this rather than
// switching on IsExact/IsBounded themselves.
func (b SizeBound) Upper() (uint64, bool) {
	if b.kind == kindUnbounded {
		return 0, false
	}
	return b.n, true
}

// Loosen converts an Exact bound into a Bounded bound carrying the same
// value, leaving Bounded and Unbounded unchanged. Composite formulas use
// this where a component's size is no longer statically fixed once it is
// combined under a variable repeat count (e.g. a list whose length is
// not fixed).
func (b SizeBound) Loosen() SizeBound {
	if b.kind == kindExact {
		return BoundedSize(b.n)
	}
	return b
}

// Add combines the bound of two adjacent regions laid out back to back,
// e.g. two record fields. Unbounded dominates; Exact+Exact stays Exact;
// anything else is Bounded by the sum of the upper limits.
func (b SizeBound) Add(o SizeBound) SizeBound {
	if b.kind == kindUnbounded || o.kind == kindUnbounded {
		return UnboundedSize()
	}
	sum := b.n + o.n
	if b.kind == kindExact && o.kind == kindExact {
		return ExactSize(sum)
	}
	return BoundedSize(sum)
}

// Max combines the bound of two regions only one of which is ever
// materialized, e.g. the variants of an enum. Unbounded dominates;
// Exact(n)+Exact(n) (equal) stays Exact(n); anything else is Bounded by
// the larger upper limit.
func (b SizeBound) Max(o SizeBound) SizeBound {
	if b.kind == kindUnbounded || o.kind == kindUnbounded {
		return UnboundedSize()
	}
	if b.kind == kindExact && o.kind == kindExact && b.n == o.n {
		return ExactSize(b.n)
	}
	m := b.n
	if o.n > m {
		m = o.n
	}
	return BoundedSize(m)
}

// Mul scales a bound by a fixed repeat count, e.g. a fixed-length array
// of scalar-bounded elements.
func (b SizeBound) Mul(scalar uint64) SizeBound {
	if scalar == 0 {
		return ExactSize(0)
	}
	if b.kind == kindUnbounded {
		return UnboundedSize()
	}
	n := b.n * scalar
	if b.kind == kindExact {
		return ExactSize(n)
	}
	return BoundedSize(n)
}

func (b SizeBound) String() string {
	switch b.kind {
	case kindExact:
		return fmt.Sprintf("Exact(%d)", b.n)
	case kindBounded:
		return fmt.Sprintf("Bounded(%d)", b.n)
	default:
		return "Unbounded"
	}
}
