// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package messages - the wire protocol records
//
// Records are single line JSON objects terminated by '\n' carried over
// one persistent stream connection per worker.  Every record has a
// "type" field selecting which other fields are present.  Field names
// are fixed; an unparseable line is skipped by the receiver, it never
// tears down the connection.
package messages

import (
	"encoding/json"

	"github.com/bitmark-inc/hashseekd/fault"
)

// record type tags
const (
	TypeRegister    = "register"
	TypeRequestWork = "request_work"
	TypeWork        = "work"
	TypeNoWork      = "no_work"
	TypeStop        = "stop"
	TypeFound       = "found"
	TypeStatus      = "status"
)

// MaximumRecordSize - cap on one wire record
const MaximumRecordSize = 4096

// Register - worker declares its parallelism, once, after connecting
type Register struct {
	Type  string `json:"type"`
	Cores int    `json:"cores"`
}

// RequestWork - worker asks for the next block
type RequestWork struct {
	Type string `json:"type"`
}

// Work - coordinator assigns a block
type Work struct {
	Type       string `json:"type"`
	Start      uint64 `json:"start"`
	End        uint64 `json:"end"`
	TargetHash string `json:"target_hash"`
}

// NoWork - space exhausted, nothing left to assign
type NoWork struct {
	Type string `json:"type"`
}

// Stop - terminate immediately, a solution was found elsewhere
type Stop struct {
	Type string `json:"type"`
}

// Found - worker reports a matching candidate
type Found struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

// StatusRequest - ask for a coordinator state snapshot
type StatusRequest struct {
	Type string `json:"type"`
}

// Status - coordinator state snapshot
type Status struct {
	Type     string `json:"type"`
	Cursor   uint64 `json:"cursor"`
	Sessions int    `json:"sessions"`
	Found    bool   `json:"found"`
	Number   string `json:"number,omitempty"`
}

// NewRegister - build a register record
func NewRegister(cores int) *Register {
	return &Register{Type: TypeRegister, Cores: cores}
}

// NewRequestWork - build a request_work record
func NewRequestWork() *RequestWork {
	return &RequestWork{Type: TypeRequestWork}
}

// NewWork - build a work record
func NewWork(start uint64, end uint64, targetHash string) *Work {
	return &Work{
		Type:       TypeWork,
		Start:      start,
		End:        end,
		TargetHash: targetHash,
	}
}

// NewNoWork - build a no_work record
func NewNoWork() *NoWork {
	return &NoWork{Type: TypeNoWork}
}

// NewStop - build a stop record
func NewStop() *Stop {
	return &Stop{Type: TypeStop}
}

// NewFound - build a found record
func NewFound(number string) *Found {
	return &Found{Type: TypeFound, Number: number}
}

// NewStatusRequest - build a status query record
func NewStatusRequest() *StatusRequest {
	return &StatusRequest{Type: TypeStatus}
}

// used to pick out the type tag before a full parse
type envelope struct {
	Type string `json:"type"`
}

// ParseFromWorker - decode one line received by the coordinator
//
// only register, request_work, found and the status query are ever
// sent by a worker; returns fault.InvalidMessage for anything that
// cannot be decoded and fault.InvalidParallelism for a register with
// cores < 1; in every case the caller logs and skips the line
func ParseFromWorker(line []byte) (interface{}, error) {

	e, err := parseEnvelope(line)
	if nil != err {
		return nil, err
	}

	switch e.Type {

	case TypeRegister:
		var m Register
		if err := json.Unmarshal(line, &m); nil != err {
			return nil, fault.InvalidMessage
		}
		if m.Cores < 1 {
			return nil, fault.InvalidParallelism
		}
		return &m, nil

	case TypeRequestWork:
		return NewRequestWork(), nil

	case TypeFound:
		var m Found
		if err := json.Unmarshal(line, &m); nil != err {
			return nil, fault.InvalidMessage
		}
		if "" == m.Number {
			return nil, fault.InvalidMessage
		}
		return &m, nil

	case TypeStatus:
		return NewStatusRequest(), nil

	default:
		return nil, fault.InvalidMessage
	}
}

// ParseFromCoordinator - decode one line received by a worker
//
// only work, no_work, stop and the status snapshot flow in this
// direction
func ParseFromCoordinator(line []byte) (interface{}, error) {

	e, err := parseEnvelope(line)
	if nil != err {
		return nil, err
	}

	switch e.Type {

	case TypeWork:
		var m Work
		if err := json.Unmarshal(line, &m); nil != err {
			return nil, fault.InvalidMessage
		}
		if m.Start > m.End {
			return nil, fault.InvalidMessage
		}
		return &m, nil

	case TypeNoWork:
		return NewNoWork(), nil

	case TypeStop:
		return NewStop(), nil

	case TypeStatus:
		var m Status
		if err := json.Unmarshal(line, &m); nil != err {
			return nil, fault.InvalidMessage
		}
		return &m, nil

	default:
		return nil, fault.InvalidMessage
	}
}

func parseEnvelope(line []byte) (envelope, error) {
	var e envelope
	if len(line) > MaximumRecordSize {
		return e, fault.MessageTooLong
	}
	if err := json.Unmarshal(line, &e); nil != err {
		return e, fault.InvalidMessage
	}
	return e, nil
}
