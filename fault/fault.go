// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type (
	ExistsError   GenericError
	InvalidError  GenericError
	NotFoundError GenericError
	ProcessError  GenericError
)

// common errors - keep in alphabetic order
var (
	AlreadyInitialised           = ProcessError("already initialised")
	AlreadyRegistered            = InvalidError("session is already registered")
	CertificateFileAlreadyExists = ExistsError("certificate file already exists")
	InvalidBlockUnit             = InvalidError("block unit must be at least one")
	InvalidCandidateWidth        = InvalidError("candidate width is invalid")
	InvalidDigestAlgorithm       = InvalidError("unknown digest algorithm")
	InvalidIpAddress             = InvalidError("invalid IP Address")
	InvalidLoggerChannel         = InvalidError("invalid logger channel")
	InvalidMessage               = InvalidError("message is not a valid wire record")
	InvalidParallelism           = InvalidError("declared parallelism must be at least one")
	InvalidPortNumber            = InvalidError("invalid port number")
	InvalidSearchRange           = InvalidError("search range start exceeds end")
	InvalidStructPointer         = InvalidError("invalid struct pointer")
	InvalidTargetHash            = InvalidError("target hash is not valid hex")
	KeyFileAlreadyExists         = ExistsError("key file already exists")
	MessageTooLong               = InvalidError("message exceeds maximum record size")
	MissingConnectAddress        = NotFoundError("connect address is required")
	MissingListenAddress         = NotFoundError("listen address is required")
	NotInitialised               = ProcessError("not initialised")
	NotRegistered                = InvalidError("session is not registered")
)

// Error - the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ExistsError) Error() string   { return string(e) }
func (e InvalidError) Error() string  { return string(e) }
func (e NotFoundError) Error() string { return string(e) }
func (e ProcessError) Error() string  { return string(e) }

// IsErrExists - determine the class of an error
func IsErrExists(e error) bool { _, ok := e.(ExistsError); return ok }

// IsErrInvalid - detect an InvalidError
func IsErrInvalid(e error) bool { _, ok := e.(InvalidError); return ok }

// IsErrNotFound - detect a NotFoundError
func IsErrNotFound(e error) bool { _, ok := e.(NotFoundError); return ok }

// IsErrProcess - detect a ProcessError
func IsErrProcess(e error) bool { _, ok := e.(ProcessError); return ok }
