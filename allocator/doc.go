// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package allocator - shared coordinator state
//
// One Allocator instance owns everything the connection handlers
// share: the cursor over the search space, the set of checked out
// blocks, the session registry and the search outcome.  Every public
// operation is one short critical section under a single mutex and
// performs no I/O while holding it; the stop broadcast snapshots the
// registry under the mutex and sends outside it.
//
// Invariants kept by construction:
//
//	live blocks are pairwise disjoint
//	the outcome settles at most once and never changes afterwards
//	registry entries are never reused after removal
//
// Reclaiming a disconnected session's block rolls the cursor back to
// the block start, deliberately reopening a hole below blocks that
// are still checked out.  Allocation steps over any live block sitting
// at the cursor and clips a new block just below the next live block,
// so a reopened hole can never be handed out twice at once.  Ranges
// already searched before a reclaim may be searched again; duplicate
// work is tolerated, missed work is not.
package allocator
