// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package searchspace - the numeric domain being searched
//
// A space is a closed integer interval together with the fixed width
// that a candidate is rendered to (zero padded decimal) before it is
// passed to the digest.
package searchspace

import (
	"fmt"

	"github.com/bitmark-inc/hashseekd/fault"
)

// Space - immutable search domain
type Space struct {
	Start uint64
	End   uint64
	Width int
}

// Range - a contiguous sub-interval of a space
type Range struct {
	Start uint64
	End   uint64
}

// New - validate and create a space
func New(start uint64, end uint64, width int) (Space, error) {
	if start > end {
		return Space{}, fault.InvalidSearchRange
	}
	if width < 1 {
		return Space{}, fault.InvalidCandidateWidth
	}
	return Space{
		Start: start,
		End:   end,
		Width: width,
	}, nil
}

// Size - number of candidates in the space
func (s Space) Size() uint64 {
	return s.End - s.Start + 1
}

// Contains - check a value lies inside the space
func (s Space) Contains(n uint64) bool {
	return n >= s.Start && n <= s.End
}

// Render - the canonical candidate string for a value
func (s Space) Render(n uint64) string {
	return fmt.Sprintf("%0*d", s.Width, n)
}

// Partition - split [start, end] into up to count contiguous sub-ranges
//
// The split is exact and exhaustive: ranges are ordered, pairwise
// disjoint and their union is the whole interval.  All ranges have the
// same size except the final one which absorbs the remainder.  When the
// interval holds fewer values than count, only as many single value
// ranges as there are values are returned.
func Partition(start uint64, end uint64, count int) []Range {
	if start > end || count < 1 {
		return nil
	}

	n := end - start + 1
	if uint64(count) > n {
		count = int(n)
	}

	size := n / uint64(count)

	ranges := make([]Range, count)
	for i := 0; i < count; i += 1 {
		ranges[i].Start = start + uint64(i)*size
		ranges[i].End = ranges[i].Start + size - 1
	}
	// final range absorbs the remainder
	ranges[count-1].End = end

	return ranges
}
