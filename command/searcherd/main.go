// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/hashseekd/background"
	"github.com/bitmark-inc/hashseekd/digest"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

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
		exitwithstatus.Message("%s: version: %s", program, version)
	}

	if len(options["help"]) > 0 {
		exitwithstatus.Message("usage: %s [--help] [--verbose] [--quiet] --config-file=FILE [[command|help] arguments...]", program)
	}

	if len(arguments) > 0 {
		processSetupCommand(program, arguments)
		return
	}

	if 1 != len(options["config-file"]) {
		exitwithstatus.Message("%s: only one config-file option is required, %d were detected", program, len(options["config-file"]))
	}

	// read options and parse the configuration file
	configurationFile := options["config-file"][0]

	watcherChannel := WatcherChannel{
		change: make(chan struct{}, 1),
		remove: make(chan struct{}, 1),
	}
	reader := newConfigReader(watcherChannel)

	err = reader.FirstRefresh(configurationFile)
	if nil != err {
		exitwithstatus.Message("%s: failed to read configuration from: %q  error: %s", program, configurationFile, err)
	}

	masterConfiguration, err := reader.GetConfig()
	if nil != err {
		exitwithstatus.Message("%s: configuration is not found", program)
	}

	// start logging
	if err = logger.Initialise(masterConfiguration.Logging); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	watcher, err := newFileWatcher(configurationFile, logger.New(fileWatcherLoggerPrefix), watcherChannel)
	if nil != err {
		exitwithstatus.Message("%s: file watcher setup failed with error: %s", program, err)
	}

	err = reader.SetLog(logger.New(readerLoggerPrefix))
	if nil != err {
		exitwithstatus.Message("%s: new logger %q failed with error: %s", program, readerLoggerPrefix, err)
	}

	// create a logger channel for the main program
	log := logger.New("main")
	defer log.Info("finished")
	log.Info("starting…")
	log.Infof("version: %s", version)
	log.Debugf("masterConfiguration: %v", masterConfiguration)

	// ------------------
	// start of real main
	// ------------------

	// optional PID file
	// use if not running under a supervisor program like daemon(8)
	if "" != masterConfiguration.PidFile {
		lockFile, err := os.OpenFile(masterConfiguration.PidFile, os.O_WRONLY|os.O_EXCL|os.O_CREATE, os.ModeExclusive|0600)
		if err != nil {
			if os.IsExist(err) {
				exitwithstatus.Message("%s: another instance is already running", program)
			}
			exitwithstatus.Message("%s: PID file: %q creation failed, error: %s", program, masterConfiguration.PidFile, err)
		}
		fmt.Fprintf(lockFile, "%d\n", os.Getpid())
		lockFile.Close()
		defer os.Remove(masterConfiguration.PidFile)
	}

	// algorithm was validated by getConfiguration
	algorithm, _ := digest.AlgorithmFromString(masterConfiguration.Algorithm)

	log.Infof("coordinator: %s", masterConfiguration.Connect)
	log.Infof("algorithm: %s  width: %d  threads: %d", algorithm, masterConfiguration.Width, reader.ThreadCount())

	theSearcher := newSearcher(logger.New("searcher"), reader, algorithm, masterConfiguration.Width)
	theClient := newClient(logger.New("client"), masterConfiguration.Connect, reader, theSearcher)

	err = watcher.Start()
	if nil != err {
		exitwithstatus.Message("%s: file watcher start failed with error: %s", program, err)
	}
	reader.Start()

	// start the connection background process
	processes := background.Processes{
		theClient,
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

	case <-theClient.Stopped():
		log.Info("coordinator ordered stop")
		if 0 == len(options["quiet"]) {
			fmt.Printf("\ncoordinator ordered stop\n")
		}
	}

	if 0 == len(options["quiet"]) {
		fmt.Printf("\nshutting down…\n")
	}
	log.Info("shutting down…")
}

// setup command handler
//
// currently only version and help; kept separate so that scripted
// invocations match the coordinator's command form
func processSetupCommand(program string, arguments []string) {

	command := arguments[0]

	switch command {
	case "version", "v":
		fmt.Printf("%s\n", version)

	default:
		switch command {
		case "help", "h", "?":
		default:
			fmt.Printf("error: no such command: %q\n", command)
		}
		fmt.Printf("usage: %s [--help] [--verbose] [--quiet] --config-file=FILE [[command|help] arguments...]\n", program)
		fmt.Printf("supported commands:\n\n")
		fmt.Printf("  help     (h) - display this message\n")
		fmt.Printf("  version  (v) - display version string\n")
		exitwithstatus.Exit(1)
	}
}
