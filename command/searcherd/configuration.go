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
	"github.com/bitmark-inc/hashseekd/fault"
	"github.com/bitmark-inc/hashseekd/util"
)

// basic defaults (directories and files are relative to the "DataDirectory" from Configuration file)
const (
	defaultDataDirectory = "" // this will error; use "." for the same directory as the config file

	defaultLogDirectory = "log"
	defaultLogFile      = "searcherd.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size

	defaultMaxCPUUsage = 50
	defaultWidth       = 10
)

// to hold log levels
type LoglevelMap map[string]string

// path expanded or calculated defaults
var (
	defaultLogLevels = LoglevelMap{
		logger.DefaultTag: "critical",
	}
)

type Configuration struct {
	DataDirectory string               `gluamapper:"data_directory" json:"data_directory"`
	PidFile       string               `gluamapper:"pidfile" json:"pidfile"`
	Connect       string               `gluamapper:"connect" json:"connect"`
	MaxCPUUsage   int                  `gluamapper:"max_cpu_usage" json:"max_cpu_usage"`
	Algorithm     string               `gluamapper:"algorithm" json:"algorithm"`
	Width         int                  `gluamapper:"width" json:"width"`
	Logging       logger.Configuration `gluamapper:"logging" json:"logging"`
}

func (c *Configuration) maxCPUUsage() int {
	return c.MaxCPUUsage
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
		Connect:       "",
		MaxCPUUsage:   defaultMaxCPUUsage,
		Algorithm:     "md5",
		Width:         defaultWidth,

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

	if "" == options.Connect {
		return nil, fault.MissingConnectAddress
	}
	canonical, err := util.CanonicalIPandPort(options.Connect)
	if nil != err {
		return nil, errors.New(fmt.Sprintf("Connect: %q  error: %s", options.Connect, err))
	}
	options.Connect = canonical

	if options.MaxCPUUsage <= 0 || options.MaxCPUUsage > 100 {
		options.MaxCPUUsage = defaultMaxCPUUsage
	}

	options.Algorithm = strings.ToLower(options.Algorithm)
	if _, err := digest.AlgorithmFromString(options.Algorithm); nil != err {
		return nil, errors.New(fmt.Sprintf("Algorithm: %q is not supported", options.Algorithm))
	}

	if options.Width < 1 {
		return nil, fault.InvalidCandidateWidth
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
