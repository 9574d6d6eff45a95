// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/hashseekd/digest"
	"github.com/bitmark-inc/hashseekd/searchspace"
)

// scans assigned blocks with a set of racing goroutines
type searcher struct {
	log       *logger.L
	reader    *configReader
	algorithm digest.Algorithm
	width     int
}

func newSearcher(log *logger.L, reader *configReader, algorithm digest.Algorithm, width int) *searcher {
	return &searcher{
		log:       log,
		reader:    reader,
		algorithm: algorithm,
		width:     width,
	}
}

// Search - scan [start, end] for a candidate hashing to target
//
// the block is split between racing goroutines; the first match wins
// and the siblings are told to give up.  A closed abort channel ends
// the scan early with no result.  ok is false when the whole block
// was covered without a match or the scan was aborted.
func (s *searcher) Search(start uint64, end uint64, target digest.Digest, abort <-chan struct{}) (string, bool) {

	threads := int(s.reader.ThreadCount())
	ranges := searchspace.Partition(start, end, threads)
	if nil == ranges {
		s.log.Errorf("invalid block: [%d, %d]", start, end)
		return "", false
	}

	space := searchspace.Space{
		Start: start,
		End:   end,
		Width: s.width,
	}

	s.log.Debugf("scan block: [%d, %d]  threads: %d", start, end, len(ranges))

	// single slot: only the first writer's result survives
	result := make(chan string, 1)
	matched := make(chan struct{})
	var once sync.Once

	var wg sync.WaitGroup
	for _, r := range ranges {
		wg.Add(1)
		go func(r searchspace.Range) {
			defer wg.Done()
			s.scan(r, space, target, result, matched, &once, abort)
		}(r)
	}
	wg.Wait()

	select {
	case candidate := <-result:
		return candidate, true
	default:
		return "", false
	}
}

// one goroutine's share of the block
func (s *searcher) scan(r searchspace.Range, space searchspace.Space, target digest.Digest, result chan<- string, matched chan struct{}, once *sync.Once, abort <-chan struct{}) {

	// a crashed scanner must not take the whole worker down
	defer func() {
		if p := recover(); nil != p {
			s.log.Criticalf("scan panic: %v", p)
		}
	}()

scan:
	for n := r.Start; n <= r.End; n += 1 {
		select {
		case <-abort:
			break scan
		case <-matched:
			break scan
		default:
		}

		candidate := space.Render(n)
		if s.algorithm.NewDigest(candidate).Equal(target) {
			select {
			case result <- candidate:
			default:
			}
			once.Do(func() { close(matched) })
			break scan
		}
	}
}
