// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package session

import (
	"bufio"
	"io"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/hashseekd/allocator"
	"github.com/bitmark-inc/hashseekd/counter"
	"github.com/bitmark-inc/hashseekd/digest"
	"github.com/bitmark-inc/hashseekd/messages"
)

// ServerArgument - the argument passed to the callback
type ServerArgument struct {
	Log        *logger.L
	Allocator  *allocator.Allocator
	Algorithm  digest.Algorithm
	TargetHash digest.Digest
}

// session states
type state int

const (
	stateConnecting state = iota
	stateRegistered
	stateTerminated
)

var connectionCount counter.Counter

// ConnectionCount - number of currently open connections
//
// this counts raw connections, registered or not; the allocator's
// session count only covers registered workers
func ConnectionCount() uint64 {
	return connectionCount.Uint64()
}

// pushes a stop record onto the session's connection
//
// the writer's own lock keeps the record from interleaving with a
// reply the handler is sending at the same time
type stopNotifier struct {
	writer *messages.Writer
}

func (n *stopNotifier) PushStop() error {
	return n.writer.Send(messages.NewStop())
}

// Callback - handle one worker connection for its whole lifetime
func Callback(conn io.ReadWriteCloser, argument interface{}) {

	serverArgument := argument.(*ServerArgument)

	log := serverArgument.Log
	alloc := serverArgument.Allocator

	n := connectionCount.Increment()
	log.Infof("connection start  active: %d", n)

	defer func() {
		n := connectionCount.Decrement()
		log.Infof("connection finish  active: %d", n)
	}()
	defer conn.Close()

	writer := messages.NewWriter(conn)

	currentState := stateConnecting
	var id allocator.SessionId

	// a registered session reclaims its block on any exit path
	defer func() {
		if stateRegistered == currentState {
			alloc.Disconnect(id)
		}
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, messages.MaximumRecordSize), messages.MaximumRecordSize)

loop:
	for scanner.Scan() {

		record, err := messages.ParseFromWorker(scanner.Bytes())
		if nil != err {
			log.Warnf("skip line: %q  error: %s", scanner.Bytes(), err)
			continue loop
		}

		switch m := record.(type) {

		case *messages.Register:
			if stateConnecting != currentState {
				log.Warnf("session: %d duplicate register ignored", id)
				continue loop
			}
			id, err = alloc.Register(&stopNotifier{writer: writer}, m.Cores)
			if nil != err {
				log.Warnf("register refused: %s", err)
				continue loop
			}
			currentState = stateRegistered
			log.Infof("session: %d registered  cores: %d", id, m.Cores)

		case *messages.RequestWork:
			if stateRegistered != currentState {
				log.Warn("request_work before register ignored")
				continue loop
			}
			if err := sendAssignment(serverArgument, writer, id); nil != err {
				log.Errorf("session: %d send failed: %s", id, err)
				break loop
			}

		case *messages.Found:
			if stateRegistered != currentState {
				log.Warn("found before register ignored")
				continue loop
			}
			handleFound(serverArgument, id, m.Number)

		case *messages.StatusRequest:
			cursor, sessions, found, number := alloc.Status()
			reply := &messages.Status{
				Type:     messages.TypeStatus,
				Cursor:   cursor,
				Sessions: sessions,
				Found:    found,
				Number:   number,
			}
			if err := writer.Send(reply); nil != err {
				log.Errorf("status send failed: %s", err)
				break loop
			}
		}
	}

	if err := scanner.Err(); nil != err {
		log.Infof("read ended: %s", err)
	}
}

// reply to a work request with one of: stop, no_work, work
//
// stop wins over everything once the outcome is settled; a request
// after exhaustion is answered no_work and the session goes passive
func sendAssignment(serverArgument *ServerArgument, writer *messages.Writer, id allocator.SessionId) error {

	alloc := serverArgument.Allocator

	if found, _ := alloc.Outcome(); found {
		return writer.Send(messages.NewStop())
	}

	block, ok := alloc.Allocate(id)
	if !ok {
		return writer.Send(messages.NewNoWork())
	}

	return writer.Send(messages.NewWork(block.Start, block.End, serverArgument.TargetHash.String()))
}

// verify a reported candidate and settle the outcome
//
// the digest is recomputed here: a worker claim that does not match
// the target is logged and discarded.  Every verified report triggers
// the stop broadcast: two near simultaneous finders must both push
// the stop even though only the first settles the candidate, and the
// broadcast itself is safe to repeat.
func handleFound(serverArgument *ServerArgument, id allocator.SessionId, number string) {

	log := serverArgument.Log
	alloc := serverArgument.Allocator

	d := serverArgument.Algorithm.NewDigest(number)
	if !d.Equal(serverArgument.TargetHash) {
		log.Errorf("session: %d false claim: %q digest: %s", id, number, d)
		return
	}

	if !alloc.MarkFound(id, number) {
		log.Infof("session: %d late find: %q", id, number)
	}
	alloc.BroadcastStop()
}
