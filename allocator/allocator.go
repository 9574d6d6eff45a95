// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package allocator

import (
	"sort"
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/hashseekd/fault"
	"github.com/bitmark-inc/hashseekd/searchspace"
)

// SessionId - identifies one worker connection lifetime
//
// ids are allocated monotonically and never reused
type SessionId uint64

// Notifier - the send side of one session used by the stop broadcast
type Notifier interface {
	PushStop() error
}

// Block - a contiguous sub-range checked out to exactly one session
type Block struct {
	Owner SessionId
	Start uint64
	End   uint64
}

// registry entry for one registered session
type entry struct {
	notifier Notifier
	cores    int
}

// Allocator - the shared state container
type Allocator struct {
	sync.Mutex

	log       *logger.L
	space     searchspace.Space
	blockUnit uint64

	idAllocator SessionId
	cursor      uint64
	blocks      map[SessionId]Block
	sessions    map[SessionId]*entry

	found     bool
	candidate string
	done      chan struct{}
}

// New - create an allocator over one search space
//
// blockUnit is the base block size per declared core
func New(log *logger.L, space searchspace.Space, blockUnit uint64) (*Allocator, error) {
	if blockUnit < 1 {
		return nil, fault.InvalidBlockUnit
	}
	return &Allocator{
		log:       log,
		space:     space,
		blockUnit: blockUnit,
		cursor:    space.Start,
		blocks:    make(map[SessionId]Block),
		sessions:  make(map[SessionId]*entry),
		done:      make(chan struct{}),
	}, nil
}

// Register - add one session to the registry
func (a *Allocator) Register(notifier Notifier, cores int) (SessionId, error) {
	if cores < 1 {
		return 0, fault.InvalidParallelism
	}

	a.Lock()
	defer a.Unlock()

	a.idAllocator += 1
	id := a.idAllocator
	a.sessions[id] = &entry{
		notifier: notifier,
		cores:    cores,
	}

	a.log.Infof("session: %d registered with %d cores", id, cores)
	return id, nil
}

// Disconnect - remove a session and reclaim its block
//
// a disconnected worker gives no guarantee it searched any of its
// block, so the range re-enters the unallocated pool by rolling the
// cursor back to the block start
func (a *Allocator) Disconnect(id SessionId) {
	a.Lock()
	defer a.Unlock()

	delete(a.sessions, id)

	block, ok := a.blocks[id]
	if !ok {
		return
	}
	delete(a.blocks, id)

	if block.Start < a.cursor {
		a.cursor = block.Start
	}
	a.log.Infof("session: %d reclaim block [%d, %d]  cursor: %d", id, block.Start, block.End, a.cursor)
}

// Allocate - check out the next block for a session
//
// any block the session still holds is retired first: the worker only
// asks again after finishing its current range.  The block is sized to
// the session's declared parallelism.  ok is false once the space is
// exhausted.
func (a *Allocator) Allocate(id SessionId) (Block, bool) {
	a.Lock()
	defer a.Unlock()

	session, ok := a.sessions[id]
	if !ok {
		return Block{}, false
	}

	delete(a.blocks, id)

	// a rolled back cursor may sit at a range some live session
	// still holds; step over any such blocks
	start := a.cursor
	for skipped := true; skipped; {
		skipped = false
		for _, b := range a.blocks {
			if start >= b.Start && start <= b.End {
				start = b.End + 1
				skipped = true
			}
		}
	}
	if start > a.space.End {
		return Block{}, false
	}

	end := start + a.blockUnit*uint64(session.cores) - 1

	// never overlap a live block further up
	for _, b := range a.blocks {
		if b.Start > start && b.Start <= end {
			end = b.Start - 1
		}
	}
	if end > a.space.End {
		end = a.space.End
	}
	a.cursor = end + 1

	block := Block{
		Owner: id,
		Start: start,
		End:   end,
	}
	a.blocks[id] = block

	a.log.Debugf("session: %d allocate block [%d, %d]  cursor: %d", id, start, end, a.cursor)
	return block, true
}

// Release - retire a session's block without moving the cursor
//
// the range was reported fully searched with no match
func (a *Allocator) Release(id SessionId) {
	a.Lock()
	defer a.Unlock()

	delete(a.blocks, id)
}

// Exhausted - the space is proven empty of unsearched candidates
//
// only meaningful while the outcome is still unsettled
func (a *Allocator) Exhausted() bool {
	a.Lock()
	defer a.Unlock()

	return a.cursor > a.space.End && 0 == len(a.blocks)
}

// LiveBlocks - snapshot of all checked out blocks ordered by start
func (a *Allocator) LiveBlocks() []Block {
	a.Lock()
	defer a.Unlock()

	blocks := make([]Block, 0, len(a.blocks))
	for _, block := range a.blocks {
		blocks = append(blocks, block)
	}
	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].Start < blocks[j].Start
	})
	return blocks
}

// Status - one consistent snapshot for queries and progress logging
func (a *Allocator) Status() (cursor uint64, sessions int, found bool, candidate string) {
	a.Lock()
	defer a.Unlock()

	return a.cursor, len(a.sessions), a.found, a.candidate
}

// Space - the search space being allocated
func (a *Allocator) Space() searchspace.Space {
	return a.space
}
