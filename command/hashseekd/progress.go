// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/hashseekd/allocator"
	"github.com/bitmark-inc/hashseekd/session"
)

const progressInterval = 60 * time.Second

// periodically records how far the search has advanced
type progressReporter struct {
	log       *logger.L
	allocator *allocator.Allocator
}

func (p *progressReporter) Run(args interface{}, shutdown <-chan struct{}) {

	log := p.log
	log.Info("starting…")

	space := p.allocator.Space()
	total := space.Size()

loop:
	for {
		select {
		case <-shutdown:
			break loop

		case <-time.After(progressInterval):
			cursor, sessions, found, candidate := p.allocator.Status()

			searched := cursor - space.Start
			percent := float64(searched) / float64(total) * 100.0

			log.Infof("cursor: %d (%.2f%%)  sessions: %d  connections: %d", cursor, percent, sessions, session.ConnectionCount())
			if found {
				log.Infof("candidate: %q", candidate)
			} else if p.allocator.Exhausted() {
				log.Warn("space exhausted without a match")
			}
		}
	}

	log.Info("finished")
}
