// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"crypto/tls"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/listener"
	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/hashseekd/allocator"
	"github.com/bitmark-inc/hashseekd/background"
	"github.com/bitmark-inc/hashseekd/digest"
	"github.com/bitmark-inc/hashseekd/searchspace"
	"github.com/bitmark-inc/hashseekd/session"
	"github.com/bitmark-inc/hashseekd/util"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

// one listening service and its TLS parameters
type serverChannel struct {
	// initial values
	limit               int
	addresses           []string
	certificateFileName string
	keyFileName         string
	callback            listener.Callback
	argument            interface{}

	// filled in later
	tlsConfiguration *tls.Config
	limiter          *listener.Limiter
	listener         *listener.MultiListener
}

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "verbose", HasArg: getoptions.NO_ARGUMENT, Short: 'v'},
		{Long: "quiet", HasArg: getoptions.NO_ARGUMENT, Short: 'q'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "config-file", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
	}

	program, options, arguments, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		processSetupCommand(program, []string{"version"})
		return
	}

	if len(options["help"]) > 0 {
		processSetupCommand(program, []string{"help"})
		return
	}

	// these commands do not require the configuration
	if len(arguments) > 0 && processSetupCommand(program, arguments) {
		return
	}

	if 1 != len(options["config-file"]) {
		exitwithstatus.Message("%s: only one config-file option is required, %d were detected", program, len(options["config-file"]))
	}

	// read options and parse the configuration file
	configurationFile := options["config-file"][0]
	theConfiguration, err := getConfiguration(configurationFile)
	if nil != err {
		exitwithstatus.Message("%s: failed to read configuration from: %q  error: %s", program, configurationFile, err)
	}

	// these commands require the configuration and
	// perform enquiries on the configuration
	if len(arguments) > 0 && processConfigCommand(arguments, theConfiguration) {
		return
	}

	// start logging
	if err = logger.Initialise(theConfiguration.Logging); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	// create a logger channel for the main program
	log := logger.New("main")
	defer log.Info("finished")
	log.Info("starting…")
	log.Infof("version: %s", version)
	log.Debugf("theConfiguration: %v", theConfiguration)

	// ------------------
	// start of real main
	// ------------------

	// optional PID file
	// use if not running under a supervisor program like daemon(8)
	if "" != theConfiguration.PidFile {
		lockFile, err := os.OpenFile(theConfiguration.PidFile, os.O_WRONLY|os.O_EXCL|os.O_CREATE, os.ModeExclusive|0600)
		if err != nil {
			if os.IsExist(err) {
				exitwithstatus.Message("%s: another instance is already running", program)
			}
			exitwithstatus.Message("%s: PID file: %q creation failed, error: %s", program, theConfiguration.PidFile, err)
		}
		fmt.Fprintf(lockFile, "%d\n", os.Getpid())
		lockFile.Close()
		defer os.Remove(theConfiguration.PidFile)
	}

	// search parameters were already validated by getConfiguration
	space, err := searchspace.New(theConfiguration.Search.Start, theConfiguration.Search.End, theConfiguration.Search.Width)
	if nil != err {
		log.Criticalf("search space error: %s", err)
		exitwithstatus.Message("search space error: %s", err)
	}
	algorithm, _ := digest.AlgorithmFromString(theConfiguration.Search.Algorithm)
	targetHash, _ := digest.DigestFromHex(theConfiguration.Search.TargetHash)

	log.Infof("target: %s  algorithm: %s", targetHash, algorithm)
	log.Infof("space: [%d, %d]  width: %d  block unit: %d", space.Start, space.End, space.Width, theConfiguration.Search.BlockUnit)

	alloc, err := allocator.New(logger.New("allocator"), space, theConfiguration.Search.BlockUnit)
	if nil != err {
		log.Criticalf("allocator error: %s", err)
		exitwithstatus.Message("allocator error: %s", err)
	}

	server := &serverChannel{
		limit:               theConfiguration.Workers.MaximumConnections,
		addresses:           theConfiguration.Workers.Listen,
		certificateFileName: theConfiguration.Workers.Certificate,
		keyFileName:         theConfiguration.Workers.PrivateKey,
		callback:            session.Callback,
		argument: &session.ServerArgument{
			Log:        logger.New("session-server"),
			Allocator:  alloc,
			Algorithm:  algorithm,
			TargetHash: targetHash,
		},
	}

	certificate, ok := verifyListen(log, "workers", server)
	if !ok {
		log.Critical("invalid workers listen parameters")
		exitwithstatus.Exit(1)
	}
	log.Infof("certificate fingerprint: %x", util.Fingerprint(certificate))

	ml, err := listener.NewMultiListener("workers", server.addresses, server.tlsConfiguration, server.limiter, server.callback)
	if nil != err {
		log.Criticalf("invalid workers listen addresses: %s", err)
		exitwithstatus.Exit(1)
	}
	server.listener = ml

	log.Infof("starting server: workers  on: %v", server.addresses)
	server.listener.Start(server.argument)
	defer server.listener.Stop()

	// periodic progress records in the log
	processes := background.Processes{
		&progressReporter{
			log:       logger.New("progress"),
			allocator: alloc,
		},
	}
	bg := background.Start(processes, nil)
	defer bg.Stop()

	// wait for CTRL-C before shutting down to allow manual testing
	if 0 == len(options["quiet"]) {
		fmt.Printf("\n\nWaiting for CTRL-C (SIGINT) or 'kill <pid>' (SIGTERM)…")
	}

	// turn Signals into channel messages
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-ch:
		log.Infof("received signal: %v", sig)
		if 0 == len(options["quiet"]) {
			fmt.Printf("\nreceived signal: %v\n", sig)
		}

	case <-alloc.Done():
		_, candidate := alloc.Outcome()
		log.Infof("search complete  candidate: %q", candidate)
		if 0 == len(options["quiet"]) {
			fmt.Printf("\nsearch complete  candidate: %q\n", candidate)
		}
	}

	if 0 == len(options["quiet"]) {
		fmt.Printf("\nshutting down…\n")
	}
	log.Info("shutting down…")
}
