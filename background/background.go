// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package background - routines to manage a set of background processes
package background

// Process - type signature for background process
// and shutdown function
type Process interface {
	Run(args interface{}, shutdown <-chan struct{})
}

// Processes - list of processes to start
type Processes []Process

// T - handle type for the stop
type T struct {
	shutdown chan struct{}
	finished chan struct{}
	count    int
}

// Start - start up a set of background processes
// all with the same arg value
func Start(processes Processes, args interface{}) *T {

	register := &T{
		shutdown: make(chan struct{}),
		finished: make(chan struct{}, len(processes)),
		count:    len(processes),
	}

	// start each background
	for _, p := range processes {
		go func(p Process) {
			// pass the arguments to the Run
			p.Run(args, register.shutdown)
			register.finished <- struct{}{}
		}(p)
	}
	return register
}

// Stop - stop a set of background processes
func (t *T) Stop() {

	if nil == t {
		return
	}

	// shutdown all background tasks
	close(t.shutdown)

	// wait for all Run routines to return
	for i := 0; i < t.count; i += 1 {
		<-t.finished
	}
}
