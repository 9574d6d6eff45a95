// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package messages_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/hashseekd/fault"
	"github.com/bitmark-inc/hashseekd/messages"
)

func TestParseFromWorker(t *testing.T) {

	m, err := messages.ParseFromWorker([]byte(`{"type":"register","cores":8}`))
	assert.Nil(t, err, "register rejected")
	r, ok := m.(*messages.Register)
	assert.True(t, ok, "wrong record type")
	assert.Equal(t, 8, r.Cores, "wrong cores")

	m, err = messages.ParseFromWorker([]byte(`{"type":"request_work"}`))
	assert.Nil(t, err, "request_work rejected")
	_, ok = m.(*messages.RequestWork)
	assert.True(t, ok, "wrong record type")

	m, err = messages.ParseFromWorker([]byte(`{"type":"found","number":"3735928559"}`))
	assert.Nil(t, err, "found rejected")
	f, ok := m.(*messages.Found)
	assert.True(t, ok, "wrong record type")
	assert.Equal(t, "3735928559", f.Number, "wrong number")

	m, err = messages.ParseFromWorker([]byte(`{"type":"status"}`))
	assert.Nil(t, err, "status query rejected")
	_, ok = m.(*messages.StatusRequest)
	assert.True(t, ok, "wrong record type")
}

func TestParseFromWorkerInvalid(t *testing.T) {
	testCases := []struct {
		line string
		err  error
	}{
		{`not json at all`, fault.InvalidMessage},
		{`{"type":"work","start":0,"end":99}`, fault.InvalidMessage}, // wrong direction
		{`{"type":"mystery"}`, fault.InvalidMessage},
		{`{"type":"register","cores":0}`, fault.InvalidParallelism},
		{`{"type":"register","cores":-3}`, fault.InvalidParallelism},
		{`{"type":"register"}`, fault.InvalidParallelism},
		{`{"type":"found"}`, fault.InvalidMessage},
		{`{"type":"found","number":""}`, fault.InvalidMessage},
	}

	for i, tc := range testCases {
		_, err := messages.ParseFromWorker([]byte(tc.line))
		assert.Equal(t, tc.err, err, "%d: wrong error for: %s", i, tc.line)
	}
}

func TestParseFromCoordinator(t *testing.T) {

	m, err := messages.ParseFromCoordinator([]byte(`{"type":"work","start":100,"end":199,"target_hash":"EC9C0F7EDCC18A98B1F31853B1813301"}`))
	assert.Nil(t, err, "work rejected")
	w, ok := m.(*messages.Work)
	assert.True(t, ok, "wrong record type")
	assert.Equal(t, uint64(100), w.Start, "wrong start")
	assert.Equal(t, uint64(199), w.End, "wrong end")

	m, err = messages.ParseFromCoordinator([]byte(`{"type":"no_work"}`))
	assert.Nil(t, err, "no_work rejected")
	_, ok = m.(*messages.NoWork)
	assert.True(t, ok, "wrong record type")

	m, err = messages.ParseFromCoordinator([]byte(`{"type":"stop"}`))
	assert.Nil(t, err, "stop rejected")
	_, ok = m.(*messages.Stop)
	assert.True(t, ok, "wrong record type")

	m, err = messages.ParseFromCoordinator([]byte(`{"type":"status","cursor":1000,"sessions":2,"found":true,"number":"3735928559"}`))
	assert.Nil(t, err, "status rejected")
	s, ok := m.(*messages.Status)
	assert.True(t, ok, "wrong record type")
	assert.Equal(t, uint64(1000), s.Cursor, "wrong cursor")
	assert.Equal(t, "3735928559", s.Number, "wrong number")

	_, err = messages.ParseFromCoordinator([]byte(`{"type":"work","start":200,"end":100}`))
	assert.Equal(t, fault.InvalidMessage, err, "inverted work accepted")

	_, err = messages.ParseFromCoordinator([]byte(`{"type":"register","cores":1}`))
	assert.Equal(t, fault.InvalidMessage, err, "wrong direction accepted")
}

func TestParseOversizeRecord(t *testing.T) {
	line := `{"type":"found","number":"` + strings.Repeat("9", messages.MaximumRecordSize) + `"}`
	_, err := messages.ParseFromWorker([]byte(line))
	assert.Equal(t, fault.MessageTooLong, err, "oversize record accepted")
}

func TestWriter(t *testing.T) {
	buffer := &bytes.Buffer{}
	w := messages.NewWriter(buffer)

	err := w.Send(messages.NewWork(0, 99, "EC9C0F7EDCC18A98B1F31853B1813301"))
	assert.Nil(t, err, "send failed")
	err = w.Send(messages.NewStop())
	assert.Nil(t, err, "send failed")

	lines := strings.Split(strings.TrimRight(buffer.String(), "\n"), "\n")
	assert.Equal(t, 2, len(lines), "wrong line count")

	m, err := messages.ParseFromCoordinator([]byte(lines[0]))
	assert.Nil(t, err, "round trip failed")
	work, ok := m.(*messages.Work)
	assert.True(t, ok, "wrong record type")
	assert.Equal(t, uint64(99), work.End, "wrong end")

	m, err = messages.ParseFromCoordinator([]byte(lines[1]))
	assert.Nil(t, err, "round trip failed")
	_, ok = m.(*messages.Stop)
	assert.True(t, ok, "wrong record type")
}
