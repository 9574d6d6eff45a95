// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/bitmark-inc/logger"
)

const (
	refreshDelay       = time.Duration(1) * time.Minute
	minThreadCount     = 1
	readerLoggerPrefix = "config-reader"
)

var (
	totalCPUCount = uint32(runtime.NumCPU())
)

// re-reads the configuration file when the watcher reports a change
// and recalculates the searcher thread count
type configReader struct {
	fileName             string
	log                  *logger.L
	currentConfiguration *Configuration
	initialised          bool
	threadCount          uint32
	watcherChannel       WatcherChannel
}

func newConfigReader(ch WatcherChannel) *configReader {
	return &configReader{
		threadCount:    minThreadCount,
		watcherChannel: ch,
	}
}

// configuration needs read first to know logger file location
func (c *configReader) FirstRefresh(fileName string) error {
	c.fileName = fileName
	return c.Refresh()
}

func (c *configReader) Refresh() error {
	configuration, err := getConfiguration(c.fileName)
	if nil != err {
		return err
	}
	c.update(configuration)
	return nil
}

func (c *configReader) GetConfig() (*Configuration, error) {
	if nil == c.currentConfiguration {
		return nil, fmt.Errorf("configuration is empty")
	}
	return c.currentConfiguration, nil
}

func (c *configReader) SetLog(log *logger.L) error {
	if nil == log {
		return fmt.Errorf("logger is nil")
	}
	c.log = log
	c.initialised = true
	return nil
}

func (c *configReader) Start() {
	go func() {
		for {
			select {
			case <-c.watcherChannel.change:
				c.log.Debug("receive file change event, wait for 1 minute to adapt")
				<-time.After(refreshDelay)
				err := c.Refresh()
				if nil != err {
					c.log.Errorf("failed to read configuration from: %s error: %s",
						c.fileName, err)
				}
			case <-c.watcherChannel.remove:
				c.log.Warn("config file removed")
			}
		}
	}()
}

func (c *configReader) update(newConfiguration *Configuration) {
	c.currentConfiguration = newConfiguration
	atomic.StoreUint32(&c.threadCount, c.OptimalThreadCount())
	if c.initialised {
		c.log.Debugf("updating configuration, target thread count %d",
			atomic.LoadUint32(&c.threadCount))
	}
}

// ThreadCount - the current target thread count
//
// read by the searcher while a scan is being set up
func (c *configReader) ThreadCount() uint32 {
	return atomic.LoadUint32(&c.threadCount)
}

func (c *configReader) OptimalThreadCount() uint32 {
	if nil == c.currentConfiguration {
		return minThreadCount
	}
	percentage := float32(c.currentConfiguration.maxCPUUsage()) / 100
	threadCount := uint32(float32(totalCPUCount) * percentage)

	if threadCount <= minThreadCount {
		return minThreadCount
	}

	if threadCount > totalCPUCount {
		return totalCPUCount
	}

	return threadCount
}
