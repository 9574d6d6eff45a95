// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package session_test

import (
	"bufio"
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/hashseekd/allocator"
	"github.com/bitmark-inc/hashseekd/digest"
	"github.com/bitmark-inc/hashseekd/fixtures"
	"github.com/bitmark-inc/hashseekd/messages"
	"github.com/bitmark-inc/hashseekd/searchspace"
	"github.com/bitmark-inc/hashseekd/session"
)

const (
	receiveTimeout = 2 * time.Second
	knownCandidate = "0000003735"
)

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	rc := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(rc)
}

// one simulated worker: the far end of a pipe whose handler runs the
// real callback.  A background goroutine pumps parsed records into a
// channel so that a broadcast blocked on an unread pipe cannot
// deadlock a test reading connections in a fixed order.
type testWorker struct {
	conn    net.Conn
	writer  *messages.Writer
	records chan interface{}
	done    chan struct{}
}

func startWorker(arg *session.ServerArgument) *testWorker {
	server, client := net.Pipe()

	w := &testWorker{
		conn:    client,
		writer:  messages.NewWriter(client),
		records: make(chan interface{}, 16),
		done:    make(chan struct{}),
	}

	go func() {
		session.Callback(server, arg)
		close(w.done)
	}()

	go func() {
		scanner := bufio.NewScanner(client)
		for scanner.Scan() {
			record, err := messages.ParseFromCoordinator(scanner.Bytes())
			if nil != err {
				continue
			}
			w.records <- record
		}
		close(w.records)
	}()

	return w
}

func (w *testWorker) close() {
	w.conn.Close()
}

func (w *testWorker) receive(t *testing.T) interface{} {
	t.Helper()
	select {
	case record, ok := <-w.records:
		if !ok {
			t.Fatal("connection closed while expecting a record")
		}
		return record
	case <-time.After(receiveTimeout):
		t.Fatal("timed out waiting for a record")
	}
	return nil
}

// no record may arrive; the channel closing is acceptable
func (w *testWorker) receiveNothing(t *testing.T) {
	t.Helper()
	select {
	case record, ok := <-w.records:
		if ok {
			t.Fatalf("unexpected record: %#v", record)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func newTestArgument(t *testing.T, start uint64, end uint64, blockUnit uint64) *session.ServerArgument {
	t.Helper()

	space, err := searchspace.New(start, end, 10)
	assert.Nil(t, err, "bad space")

	log := logger.New(fixtures.LogCategory)
	alloc, err := allocator.New(log, space, blockUnit)
	assert.Nil(t, err, "bad allocator")

	algorithm, _ := digest.AlgorithmFromString("md5")
	return &session.ServerArgument{
		Log:        log,
		Allocator:  alloc,
		Algorithm:  algorithm,
		TargetHash: algorithm.NewDigest(knownCandidate),
	}
}

func TestRegisterAndRequestWork(t *testing.T) {
	arg := newTestArgument(t, 0, 999, 100)

	w := startWorker(arg)
	defer w.close()

	w.writer.Send(messages.NewRegister(2))
	w.writer.Send(messages.NewRequestWork())

	record := w.receive(t)
	work, ok := record.(*messages.Work)
	assert.True(t, ok, "expected work, got: %#v", record)
	assert.Equal(t, uint64(0), work.Start, "wrong start")
	assert.Equal(t, uint64(199), work.End, "wrong end for 2 cores")
	assert.Equal(t, arg.TargetHash.String(), work.TargetHash, "wrong target")
}

func TestRequestBeforeRegisterIgnored(t *testing.T) {
	arg := newTestArgument(t, 0, 999, 100)

	w := startWorker(arg)
	defer w.close()

	w.writer.Send(messages.NewRequestWork())
	w.receiveNothing(t)

	// the session is still usable afterwards
	w.writer.Send(messages.NewRegister(1))
	w.writer.Send(messages.NewRequestWork())

	_, ok := w.receive(t).(*messages.Work)
	assert.True(t, ok, "register after bad request failed")
}

func TestMalformedLinesSkipped(t *testing.T) {
	arg := newTestArgument(t, 0, 999, 100)

	w := startWorker(arg)
	defer w.close()

	w.conn.Write([]byte("not json at all\n"))
	w.conn.Write([]byte("{\"type\":\"work\",\"start\":0,\"end\":9}\n")) // wrong direction
	w.conn.Write([]byte("{\"type\":\"register\",\"cores\":0}\n"))

	w.writer.Send(messages.NewRegister(1))
	w.writer.Send(messages.NewRequestWork())

	_, ok := w.receive(t).(*messages.Work)
	assert.True(t, ok, "session did not survive malformed input")
}

func TestNoWorkAfterExhaustion(t *testing.T) {
	arg := newTestArgument(t, 0, 99, 100)

	w := startWorker(arg)
	defer w.close()

	w.writer.Send(messages.NewRegister(1))

	w.writer.Send(messages.NewRequestWork())
	_, ok := w.receive(t).(*messages.Work)
	assert.True(t, ok, "expected the single block")

	w.writer.Send(messages.NewRequestWork())
	_, ok = w.receive(t).(*messages.NoWork)
	assert.True(t, ok, "expected no_work")

	// passive session still answers later requests the same way
	w.writer.Send(messages.NewRequestWork())
	_, ok = w.receive(t).(*messages.NoWork)
	assert.True(t, ok, "expected no_work again")
}

// one worker finds the candidate; every connected worker, the finder
// included, receives exactly one stop
func TestFoundBroadcastsStop(t *testing.T) {
	arg := newTestArgument(t, 0, 9999, 100)

	finder := startWorker(arg)
	defer finder.close()
	other := startWorker(arg)
	defer other.close()

	finder.writer.Send(messages.NewRegister(1))
	other.writer.Send(messages.NewRegister(1))

	// a served request proves each registration completed before the
	// find is reported
	finder.writer.Send(messages.NewRequestWork())
	_, ok := finder.receive(t).(*messages.Work)
	assert.True(t, ok, "expected work")
	other.writer.Send(messages.NewRequestWork())
	_, ok = other.receive(t).(*messages.Work)
	assert.True(t, ok, "expected work")

	finder.writer.Send(messages.NewFound(knownCandidate))

	_, ok = finder.receive(t).(*messages.Stop)
	assert.True(t, ok, "finder missed the stop")
	_, ok = other.receive(t).(*messages.Stop)
	assert.True(t, ok, "other worker missed the stop")

	found, number := arg.Allocator.Outcome()
	assert.True(t, found, "outcome not settled")
	assert.Equal(t, knownCandidate, number, "wrong candidate recorded")
}

// a claim whose digest does not match the target is discarded
func TestFalseClaimRejected(t *testing.T) {
	arg := newTestArgument(t, 0, 9999, 100)

	w := startWorker(arg)
	defer w.close()

	w.writer.Send(messages.NewRegister(1))
	w.writer.Send(messages.NewFound("0000000001"))
	w.receiveNothing(t)

	found, _ := arg.Allocator.Outcome()
	assert.False(t, found, "false claim settled the outcome")

	// the search carries on
	w.writer.Send(messages.NewRequestWork())
	_, ok := w.receive(t).(*messages.Work)
	assert.True(t, ok, "session dead after false claim")
}

// once the outcome is settled any further work request is answered
// with a stop, never with a block
func TestRequestAfterFoundAnsweredStop(t *testing.T) {
	arg := newTestArgument(t, 0, 9999, 100)

	w := startWorker(arg)
	defer w.close()
	late := startWorker(arg)
	defer late.close()

	w.writer.Send(messages.NewRegister(1))
	w.writer.Send(messages.NewFound(knownCandidate))
	_, ok := w.receive(t).(*messages.Stop)
	assert.True(t, ok, "missed the stop")

	late.writer.Send(messages.NewRegister(1))
	late.writer.Send(messages.NewRequestWork())
	_, ok = late.receive(t).(*messages.Stop)
	assert.True(t, ok, "late request not answered with stop")
}

// closing the connection reclaims the worker's block
func TestDisconnectReclaimsBlock(t *testing.T) {
	arg := newTestArgument(t, 0, 999, 100)

	w := startWorker(arg)
	w.writer.Send(messages.NewRegister(1))
	w.writer.Send(messages.NewRequestWork())
	_, ok := w.receive(t).(*messages.Work)
	assert.True(t, ok, "expected work")

	w.close()
	select {
	case <-w.done:
	case <-time.After(receiveTimeout):
		t.Fatal("handler did not finish on close")
	}

	cursor, sessions, _, _ := arg.Allocator.Status()
	assert.Equal(t, uint64(0), cursor, "block not reclaimed")
	assert.Equal(t, 0, sessions, "session not removed")
}

func TestStatusQueryWithoutRegister(t *testing.T) {
	arg := newTestArgument(t, 0, 999, 100)

	// one working session to make the snapshot non trivial
	w := startWorker(arg)
	defer w.close()
	w.writer.Send(messages.NewRegister(1))
	w.writer.Send(messages.NewRequestWork())
	_, ok := w.receive(t).(*messages.Work)
	assert.True(t, ok, "expected work")

	q := startWorker(arg)
	defer q.close()
	q.writer.Send(messages.NewStatusRequest())

	record := q.receive(t)
	status, ok := record.(*messages.Status)
	assert.True(t, ok, "expected status, got: %#v", record)
	assert.Equal(t, uint64(100), status.Cursor, "wrong cursor")
	assert.Equal(t, 1, status.Sessions, "wrong session count")
	assert.False(t, status.Found, "found flag set")
}
