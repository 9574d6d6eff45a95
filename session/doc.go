// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package session - per connection protocol handling on the
// coordinator side
//
// Each accepted connection runs one Callback for its whole lifetime.
// The handler walks a small state machine:
//
//	connecting: only a register record (or a status query from an
//	            operator tool) is acceptable
//	registered: request_work and found records are serviced; the
//	            session holds at most one block at a time
//	terminated: the connection closed or the read loop ended; any
//	            held block is reclaimed through the allocator
//
// A worker that was told no_work stays registered and passive so
// that a later stop still reaches it.  Malformed lines are logged
// and skipped, they never terminate the session.
package session
