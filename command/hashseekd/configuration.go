// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/hashseekd/configuration"
	"github.com/bitmark-inc/hashseekd/digest"
	"github.com/bitmark-inc/hashseekd/searchspace"
	"github.com/bitmark-inc/hashseekd/util"
)

// basic defaults (directories and files are relative to the "DataDirectory" from Configuration file)
const (
	defaultDataDirectory = "" // this will error; use "." for the same directory as the config file

	defaultKeyFile         = "coordinator.key"
	defaultCertificateFile = "coordinator.crt"

	defaultLogDirectory = "log"
	defaultLogFile      = "hashseekd.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size

	defaultWorkers = 100

	defaultSearchEnd = 9999999999 // all ten digit decimal strings
	defaultWidth     = 10
	defaultBlockUnit = 100000 // candidates per block for one declared core
)

// to hold log levels
type LoglevelMap map[string]string

// path expanded or calculated defaults
var (
	defaultLogLevels = LoglevelMap{
		logger.DefaultTag: "critical",
	}
)

type WorkersType struct {
	MaximumConnections int      `gluamapper:"maximum_connections" json:"maximum_connections"`
	Listen             []string `gluamapper:"listen" json:"listen"`
	Certificate        string   `gluamapper:"certificate" json:"certificate"`
	PrivateKey         string   `gluamapper:"private_key" json:"private_key"`
}

type SearchType struct {
	TargetHash string `gluamapper:"target_hash" json:"target_hash"`
	Algorithm  string `gluamapper:"algorithm" json:"algorithm"`
	Start      uint64 `gluamapper:"start" json:"start"`
	End        uint64 `gluamapper:"end" json:"end"`
	Width      int    `gluamapper:"width" json:"width"`
	BlockUnit  uint64 `gluamapper:"block_unit" json:"block_unit"`
}

type Configuration struct {
	DataDirectory string               `gluamapper:"data_directory" json:"data_directory"`
	PidFile       string               `gluamapper:"pidfile" json:"pidfile"`
	Workers       WorkersType          `gluamapper:"workers" json:"workers"`
	Search        SearchType           `gluamapper:"search" json:"search"`
	Logging       logger.Configuration `gluamapper:"logging" json:"logging"`
}

// will read decode and verify the configuration
func getConfiguration(configurationFileName string) (*Configuration, error) {

	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}

	// absolute path to the main directory
	dataDirectory, _ := filepath.Split(configurationFileName)

	options := &Configuration{

		DataDirectory: defaultDataDirectory,
		PidFile:       "", // no PidFile by default

		Workers: WorkersType{
			MaximumConnections: defaultWorkers,
			Certificate:        defaultCertificateFile,
			PrivateKey:         defaultKeyFile,
		},

		Search: SearchType{
			Algorithm: "md5",
			Start:     0,
			End:       defaultSearchEnd,
			Width:     defaultWidth,
			BlockUnit: defaultBlockUnit,
		},

		Logging: logger.Configuration{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels:    defaultLogLevels,
		},
	}

	if err := configuration.ParseConfigurationFile(configurationFileName, options); err != nil {
		return nil, err
	}

	// verify the search parameters before anything is started
	options.Search.Algorithm = strings.ToLower(options.Search.Algorithm)
	if _, err := digest.AlgorithmFromString(options.Search.Algorithm); nil != err {
		return nil, errors.New(fmt.Sprintf("Algorithm: %q is not supported", options.Search.Algorithm))
	}
	if "" == options.Search.TargetHash {
		return nil, errors.New("Search target_hash cannot be blank")
	}
	if _, err := digest.DigestFromHex(options.Search.TargetHash); nil != err {
		return nil, errors.New(fmt.Sprintf("Search target_hash: %q  error: %s", options.Search.TargetHash, err))
	}
	if _, err := searchspace.New(options.Search.Start, options.Search.End, options.Search.Width); nil != err {
		return nil, errors.New(fmt.Sprintf("Search range: [%d, %d] width: %d  error: %s", options.Search.Start, options.Search.End, options.Search.Width, err))
	}
	if 0 == options.Search.BlockUnit {
		return nil, errors.New("Search block_unit cannot be zero")
	}

	for i, address := range options.Workers.Listen {
		canonical, err := util.CanonicalIPandPort(address)
		if nil != err {
			return nil, errors.New(fmt.Sprintf("Listen[%d]: %q  error: %s", i, address, err))
		}
		options.Workers.Listen[i] = canonical
	}

	// ensure absolute data directory
	if "" == options.DataDirectory || "~" == options.DataDirectory {
		return nil, errors.New(fmt.Sprintf("Path: %q is not a valid directory", options.DataDirectory))
	} else if "." == options.DataDirectory {
		options.DataDirectory = dataDirectory // same directory as the configuration file
	}
	options.DataDirectory = filepath.Clean(options.DataDirectory)

	// this directory must exist - i.e. must be created prior to running
	if fileInfo, err := os.Stat(options.DataDirectory); nil != err {
		return nil, err
	} else if !fileInfo.IsDir() {
		return nil, errors.New(fmt.Sprintf("Path: %q is not a directory", options.DataDirectory))
	}

	// force all relevant items to be absolute paths
	// if not, assign them to the data directory
	mustBeAbsolute := []*string{
		&options.Workers.Certificate,
		&options.Workers.PrivateKey,
		&options.Logging.Directory,
	}
	for _, f := range mustBeAbsolute {
		*f = util.EnsureAbsolute(options.DataDirectory, *f)
	}

	// optional absolute paths i.e. blank or an absolute path
	optionalAbsolute := []*string{
		&options.PidFile,
	}
	for _, f := range optionalAbsolute {
		if "" != *f {
			*f = util.EnsureAbsolute(options.DataDirectory, *f)
		}
	}

	// fail if the log file contains a path separator
	switch filepath.Dir(options.Logging.File) {
	case "", ".":
	default:
		return nil, errors.New(fmt.Sprintf("Files: %q is not plain name", options.Logging.File))
	}

	// make absolute and create directories if they do not already exist
	for _, d := range []*string{
		&options.Logging.Directory,
	} {
		*d = util.EnsureAbsolute(options.DataDirectory, *d)
		if err := os.MkdirAll(*d, 0700); nil != err {
			return nil, err
		}
	}

	// done
	return options, nil
}
