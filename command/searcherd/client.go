// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"crypto/tls"
	"io"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/hashseekd/digest"
	"github.com/bitmark-inc/hashseekd/messages"
)

const (
	retryDelay = 10 * time.Second
)

type scanOutcome struct {
	candidate string
	found     bool
}

// maintains the connection to the coordinator: registers, requests
// blocks, runs the searcher and reports a find
type client struct {
	log      *logger.L
	address  string
	reader   *configReader
	searcher *searcher

	stopOnce sync.Once
	stopped  chan struct{}
}

func newClient(log *logger.L, address string, reader *configReader, searcher *searcher) *client {
	return &client{
		log:      log,
		address:  address,
		reader:   reader,
		searcher: searcher,
		stopped:  make(chan struct{}),
	}
}

// Stopped - closed when the coordinator ordered termination
func (c *client) Stopped() <-chan struct{} {
	return c.stopped
}

func (c *client) Run(args interface{}, shutdown <-chan struct{}) {

	log := c.log
	log.Info("starting…")

loop:
	for {
		select {
		case <-shutdown:
			break loop
		default:
		}

		err := c.session(shutdown)
		if nil == err {
			break loop
		}
		log.Warnf("session ended: %s  retry in: %s", err, retryDelay)

		select {
		case <-shutdown:
			break loop
		case <-time.After(retryDelay):
		}
	}

	log.Info("finished")
}

// one connection lifetime
//
// a nil return means no reconnect: either the coordinator sent a
// stop or a shutdown was requested
func (c *client) session(shutdown <-chan struct{}) error {

	log := c.log

	// the certificate is self-signed so cannot be verified against
	// a CA chain
	conn, err := tls.Dial("tcp", c.address, &tls.Config{
		InsecureSkipVerify: true,
	})
	if nil != err {
		return err
	}
	defer conn.Close()

	// unblock the read pump when shutdown is requested
	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-shutdown:
			conn.Close()
		case <-finished:
		}
	}()

	log.Infof("connected to: %s", c.address)

	records := make(chan interface{}, 16)
	readFailed := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(conn)
		scanner.Buffer(make([]byte, messages.MaximumRecordSize), messages.MaximumRecordSize)
		for scanner.Scan() {
			record, err := messages.ParseFromCoordinator(scanner.Bytes())
			if nil != err {
				log.Warnf("skip line: %q  error: %s", scanner.Bytes(), err)
				continue
			}
			records <- record
		}
		err := scanner.Err()
		if nil == err {
			err = io.EOF
		}
		readFailed <- err
	}()

	// any running scan is told to give up on exit
	abort := make(chan struct{})
	defer close(abort)

	writer := messages.NewWriter(conn)

	cores := int(c.reader.ThreadCount())
	if err := writer.Send(messages.NewRegister(cores)); nil != err {
		return err
	}
	log.Infof("registered  cores: %d", cores)

	if err := writer.Send(messages.NewRequestWork()); nil != err {
		return err
	}

	scanDone := make(chan scanOutcome, 1)

	for {
		select {

		case err := <-readFailed:
			return err

		case record := <-records:
			switch m := record.(type) {

			case *messages.Work:
				target, err := digest.DigestFromHex(m.TargetHash)
				if nil != err {
					log.Errorf("bad target hash: %q  error: %s", m.TargetHash, err)
					return err
				}
				go func() {
					candidate, found := c.searcher.Search(m.Start, m.End, target, abort)
					scanDone <- scanOutcome{
						candidate: candidate,
						found:     found,
					}
				}()

			case *messages.NoWork:
				// passive from here on: keep the connection so a
				// later stop is still delivered
				log.Info("no work left, waiting…")

			case *messages.Stop:
				log.Info("stop received")
				c.stopOnce.Do(func() { close(c.stopped) })
				return nil
			}

		case outcome := <-scanDone:
			if outcome.found {
				log.Infof("match: %q", outcome.candidate)
				if err := writer.Send(messages.NewFound(outcome.candidate)); nil != err {
					return err
				}
				// the stop comes back through the broadcast
				continue
			}
			if err := writer.Send(messages.NewRequestWork()); nil != err {
				return err
			}

		case <-shutdown:
			return nil
		}
	}
}
