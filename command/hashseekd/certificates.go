// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"crypto/tls"
	"io/ioutil"
	"os"
	"time"

	"github.com/bitmark-inc/certgen"
	"github.com/bitmark-inc/listener"
	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/hashseekd/fault"
	"github.com/bitmark-inc/hashseekd/util"
)

// Verify that a set of listener parameters are valid
// and return the certificate
func verifyListen(log *logger.L, name string, server *serverChannel) ([]byte, bool) {
	if server.limit < 0 {
		log.Errorf("invalid %s limit: %d", name, server.limit)
		return nil, false
	}

	if 0 == len(server.addresses) {
		log.Errorf("missing %s listen addresses", name)
		return nil, false
	}

	if !util.EnsureFileExists(server.certificateFileName) {
		log.Errorf("certificate: %q does not exist", server.certificateFileName)
		return nil, false
	}

	if !util.EnsureFileExists(server.keyFileName) {
		log.Errorf("private key: %q does not exist", server.keyFileName)
		return nil, false
	}

	// set up TLS
	keyPair, err := tls.LoadX509KeyPair(server.certificateFileName, server.keyFileName)
	if err != nil {
		log.Errorf("%s failed to load keypair: %v", name, err)
		return nil, false
	}

	server.tlsConfiguration = &tls.Config{
		Certificates: []tls.Certificate{
			keyPair,
		},
	}

	// create limiter
	server.limiter = listener.NewLimiter(server.limit)

	return keyPair.Certificate[0], true
}

// create a self-signed certificate
func makeSelfSignedCertificate(name string, certificateFileName string, privateKeyFileName string, override bool, extraHosts []string) error {

	if util.EnsureFileExists(certificateFileName) {
		return fault.CertificateFileAlreadyExists
	}

	if util.EnsureFileExists(privateKeyFileName) {
		return fault.KeyFileAlreadyExists
	}

	org := "hashseekd self signed cert for: " + name
	validUntil := time.Now().Add(10 * 365 * 24 * time.Hour)
	cert, key, err := certgen.NewTLSCertPair(org, validUntil, override, extraHosts)
	if err != nil {
		return err
	}

	if err = ioutil.WriteFile(certificateFileName, cert, 0666); err != nil {
		return err
	}

	if err = ioutil.WriteFile(privateKeyFileName, key, 0600); err != nil {
		os.Remove(certificateFileName)
		return err
	}

	return nil
}
