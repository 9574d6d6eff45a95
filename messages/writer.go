// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package messages

import (
	"encoding/json"
	"io"
	"sync"
)

// Writer - serialises '\n' terminated JSON records onto one stream
//
// The mutex keeps a record atomic when the session handler and the
// stop broadcast write to the same connection.
type Writer struct {
	sync.Mutex
	w io.Writer
}

// NewWriter - wrap a connection for record sending
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Send - marshal one record and write it as a single line
func (writer *Writer) Send(record interface{}) error {

	s, err := json.Marshal(record)
	if nil != err {
		return err
	}
	s = append(s, '\n')

	writer.Lock()
	defer writer.Unlock()

	for len(s) > 0 {
		n, err := writer.w.Write(s)
		if nil != err {
			return err
		}
		s = s[n:]
	}
	return nil
}
