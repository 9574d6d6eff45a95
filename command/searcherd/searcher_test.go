// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/hashseekd/digest"
	"github.com/bitmark-inc/hashseekd/fixtures"
)

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	rc := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(rc)
}

func newTestSearcher(t *testing.T, threads uint32) *searcher {
	t.Helper()

	reader := newConfigReader(WatcherChannel{})
	atomic.StoreUint32(&reader.threadCount, threads)

	algorithm, err := digest.AlgorithmFromString("md5")
	assert.Nil(t, err, "bad algorithm")

	return newSearcher(logger.New(fixtures.LogCategory), reader, algorithm, 10)
}

func TestSearchFindsCandidate(t *testing.T) {
	s := newTestSearcher(t, 4)

	target := s.algorithm.NewDigest("0000000042")

	candidate, found := s.Search(0, 99, target, nil)
	assert.True(t, found, "candidate missed")
	assert.Equal(t, "0000000042", candidate, "wrong candidate")
}

func TestSearchFindsBoundaryCandidates(t *testing.T) {
	s := newTestSearcher(t, 3)

	for _, n := range []string{"0000000000", "0000000099"} {
		target := s.algorithm.NewDigest(n)
		candidate, found := s.Search(0, 99, target, nil)
		assert.True(t, found, "boundary candidate %s missed", n)
		assert.Equal(t, n, candidate, "wrong candidate")
	}
}

func TestSearchCoversWithoutMatch(t *testing.T) {
	s := newTestSearcher(t, 4)

	// target lies outside the scanned block
	target := s.algorithm.NewDigest("0000000500")

	candidate, found := s.Search(0, 99, target, nil)
	assert.False(t, found, "unexpected match: %q", candidate)
}

func TestSearchAborted(t *testing.T) {
	s := newTestSearcher(t, 2)

	target := s.algorithm.NewDigest("0000000500")

	abort := make(chan struct{})
	close(abort)

	candidate, found := s.Search(0, 999999, target, abort)
	assert.False(t, found, "aborted scan returned a match: %q", candidate)
}

func TestSearchMoreThreadsThanCandidates(t *testing.T) {
	s := newTestSearcher(t, 8)

	target := s.algorithm.NewDigest("0000000002")

	candidate, found := s.Search(0, 2, target, nil)
	assert.True(t, found, "candidate missed")
	assert.Equal(t, "0000000002", candidate, "wrong candidate")
}

func TestSearchRejectsInvertedBlock(t *testing.T) {
	s := newTestSearcher(t, 2)

	target := s.algorithm.NewDigest("0000000001")

	_, found := s.Search(10, 5, target, nil)
	assert.False(t, found, "inverted block scanned")
}
