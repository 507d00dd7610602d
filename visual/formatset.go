// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package visual

import (
	"math/bits"
	"strings"
)

// MaxFormats is the capacity of a FormatSet.
const MaxFormats = 32

// FormatSet is a set of visual indices.
//
// A display builds one set when it is opened, naming the formats the window
// system accepts, and never modifies it afterwards.
type FormatSet uint32

// DefaultFormats is the set accepted by the window system when nothing else
// is configured: XRGB8888, ARGB8888 and RGB565.
const DefaultFormats FormatSet = 1<<XRGB8888 | 1<<ARGB8888 | 1<<RGB565

// NewFormatSet returns a set holding the given indices.
// Indices outside [0, MaxFormats) are ignored.
func NewFormatSet(indices ...int) FormatSet {
	var s FormatSet
	for _, i := range indices {
		s = s.With(i)
	}
	return s
}

// With returns s with index i added.
func (s FormatSet) With(i int) FormatSet {
	if i < 0 || i >= MaxFormats {
		return s
	}
	return s | 1<<uint(i)
}

// Without returns s with index i removed.
func (s FormatSet) Without(i int) FormatSet {
	if i < 0 || i >= MaxFormats {
		return s
	}
	return s &^ (1 << uint(i))
}

// Has reports whether index i is in the set.
func (s FormatSet) Has(i int) bool {
	if i < 0 || i >= MaxFormats {
		return false
	}
	return s&(1<<uint(i)) != 0
}

// Len returns the number of indices in the set.
func (s FormatSet) Len() int {
	return bits.OnesCount32(uint32(s))
}

// Indices returns the indices in ascending order.
func (s FormatSet) Indices() []int {
	out := make([]int, 0, s.Len())
	for v := uint32(s); v != 0; v &= v - 1 {
		out = append(out, bits.TrailingZeros32(v))
	}
	return out
}

// String lists the visual names in the set.
func (s FormatSet) String() string {
	names := make([]string, 0, s.Len())
	for _, i := range s.Indices() {
		if i < Count {
			names = append(names, table[i].Name)
		}
	}
	return "{" + strings.Join(names, ",") + "}"
}
