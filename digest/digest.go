// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package digest - the hash oracle for candidate strings
//
// A digest is the fixed width hash of a rendered candidate.  The
// algorithm is selected by configuration; the target digest of a search
// and every computed digest must use the same algorithm.  Candidates
// are hashed exactly as rendered, so the same number always produces
// the same digest.
package digest

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/bitmark-inc/go-argon2"
	"golang.org/x/crypto/sha3"

	"github.com/bitmark-inc/hashseekd/fault"
)

// Algorithm - selects the hashing primitive
type Algorithm int

// supported algorithms
const (
	MD5 Algorithm = iota
	SHA3
	Argon2
)

// internal hashing parameters for the argon2 algorithm
const (
	argonMode        = argon2.ModeArgon2d
	argonMemory      = 1 << 10
	argonParallelism = 1
	argonIterations  = 4
	argonHashLength  = 32
	argonVersion     = argon2.Version13
)

// Digest - fixed width hash value, width depends on the algorithm
type Digest []byte

// AlgorithmFromString - map a configuration name to an algorithm
func AlgorithmFromString(name string) (Algorithm, error) {
	switch strings.ToLower(name) {
	case "", "md5":
		return MD5, nil
	case "sha3":
		return SHA3, nil
	case "argon2":
		return Argon2, nil
	default:
		return MD5, fault.InvalidDigestAlgorithm
	}
}

// String - canonical name of the algorithm
func (algorithm Algorithm) String() string {
	switch algorithm {
	case SHA3:
		return "sha3"
	case Argon2:
		return "argon2"
	default:
		return "md5"
	}
}

// NewDigest - hash one rendered candidate
func (algorithm Algorithm) NewDigest(candidate string) Digest {
	record := []byte(candidate)

	switch algorithm {

	case SHA3:
		d := sha3.Sum256(record)
		return Digest(d[:])

	case Argon2:
		context := &argon2.Context{
			Iterations:  argonIterations,
			Memory:      argonMemory,
			Parallelism: argonParallelism,
			HashLen:     argonHashLength,
			Mode:        argonMode,
			Version:     argonVersion,
		}
		// the candidate doubles as the salt, digests stay deterministic
		hash, err := argon2.Hash(context, record, record)
		if nil != err {
			// only reachable by misconfigured context parameters
			panic("digest: argon2 failed: " + err.Error())
		}
		return Digest(hash)

	default:
		d := md5.Sum(record)
		return Digest(d[:])
	}
}

// DigestFromHex - parse a target hash, case insensitive
func DigestFromHex(s string) (Digest, error) {
	buffer, err := hex.DecodeString(strings.ToLower(s))
	if nil != err {
		return nil, fault.InvalidTargetHash
	}
	if 0 == len(buffer) {
		return nil, fault.InvalidTargetHash
	}
	return Digest(buffer), nil
}

// Equal - compare two digests
func (digest Digest) Equal(other Digest) bool {
	return bytes.Equal(digest, other)
}

// String - upper case hex, the form target hashes are published in
func (digest Digest) String() string {
	return strings.ToUpper(hex.EncodeToString(digest))
}

// MarshalText - hex text for JSON encoding
func (digest Digest) MarshalText() ([]byte, error) {
	size := hex.EncodedLen(len(digest))
	buffer := make([]byte, size)
	hex.Encode(buffer, digest)
	return bytes.ToUpper(buffer), nil
}

// UnmarshalText - hex text into a digest
func (digest *Digest) UnmarshalText(s []byte) error {
	d, err := DigestFromHex(string(s))
	if nil != err {
		return err
	}
	*digest = d
	return nil
}
