// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bitmark-inc/exitwithstatus"

	"github.com/bitmark-inc/hashseekd/util"
)

const (
	certificateFilename = "coordinator.crt"
	privateKeyFilename  = "coordinator.key"
)

// setup command handler
//
// commands that run to create the certificate files; these commands
// cannot access the configuration file
func processSetupCommand(program string, arguments []string) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
		arguments = arguments[1:]
	}

	switch command {
	case "gen-cert", "cert":
		certificateFileName := getFilenameWithDirectory(arguments, certificateFilename)
		privateKeyFileName := getFilenameWithDirectory(arguments, privateKeyFilename)

		addresses := []string{}
		if len(arguments) >= 2 {
			for _, a := range arguments[1:] {
				if "" != a {
					addresses = append(addresses, a)
				}
			}
		}

		err := makeSelfSignedCertificate("workers", certificateFileName, privateKeyFileName, 0 != len(addresses), addresses)
		if nil != err {
			fmt.Printf("generate key: %q and certificate: %q error: %s\n", privateKeyFileName, certificateFileName, err)
			exitwithstatus.Exit(1)
		}
		fmt.Printf("generated key: %q and certificate: %q\n", privateKeyFileName, certificateFileName)

	case "start", "run":
		return false // continue processing

	case "config-test", "cfg", "fingerprint", "f":
		return false // defer processing until configuration is read

	case "version", "v":
		fmt.Printf("%s\n", version)

	default:
		switch command {
		case "help", "h", "?":
		case "", " ":
			fmt.Printf("error: missing command\n")
		default:
			fmt.Printf("error: no such command: %q\n", command)
		}
		fmt.Printf("usage: %s [--help] [--verbose] [--quiet] --config-file=FILE [[command|help] arguments...]\n", program)

		fmt.Printf("supported commands:\n\n")
		fmt.Printf("  help                       (h)      - display this message\n\n")
		fmt.Printf("  version                    (v)      - display version string\n\n")

		fmt.Printf("  gen-cert [DIR]             (cert)   - create private key in:  %q\n", "DIR/"+privateKeyFilename)
		fmt.Printf("                                        and the certificate in: %q\n", "DIR/"+certificateFilename)
		fmt.Printf("\n")

		fmt.Printf("  gen-cert [DIR] [IPs...]             - create private key in:  %q\n", "DIR/"+privateKeyFilename)
		fmt.Printf("                                        and the certificate in: %q\n", "DIR/"+certificateFilename)
		fmt.Printf("\n")

		fmt.Printf("  fingerprint                (f)      - display the certificate fingerprint\n")
		fmt.Printf("\n")

		fmt.Printf("  start                      (run)    - just run the program, same as no arguments\n")
		fmt.Printf("                                        for convenience when passing script arguments\n")
		fmt.Printf("\n")

		fmt.Printf("  config-test                (cfg)    - just check the configuration file\n")
		fmt.Printf("\n")

		exitwithstatus.Exit(1)
	}

	// indicate processing complete and perform normal exit from main
	return true
}

// configuration file enquiry commands
// have configuration file read and decoded, but nothing else
func processConfigCommand(arguments []string, options *Configuration) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
	}

	switch command {
	case "fingerprint", "f":
		keyPair, err := tls.LoadX509KeyPair(options.Workers.Certificate, options.Workers.PrivateKey)
		if nil != err {
			exitwithstatus.Message("error: cannot load certificate: %q  error: %s", options.Workers.Certificate, err)
		}
		fmt.Printf("fingerprint: %x\n", util.Fingerprint(keyPair.Certificate[0]))

	case "config-test", "cfg":
		b, err := json.Marshal(options)
		if err != nil {
			exitwithstatus.Message("error: %s", err)
		}
		var out bytes.Buffer
		json.Indent(&out, b, "", "  ")
		out.WriteTo(os.Stdout)
		os.Stdout.WriteString("\n")

	default: // unknown commands fall through to normal startup
		return false
	}

	// indicate processing complete and perform normal exit from main
	return true
}

// get the working directory; if not set in the arguments
// it's set to the current directory
func getFilenameWithDirectory(arguments []string, name string) string {
	dir := "."
	if len(arguments) >= 1 {
		dir = arguments[0]
	}

	return filepath.Join(dir, name)
}
