// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/hashseekd/messages"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

const (
	connectTimeout = 10 * time.Second
)

func main() {

	app := cli.NewApp()
	app.Name = "hashseek-info"
	app.Usage = "display the status of a running coordinator"
	app.Version = version
	app.HideVersion = true

	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "connect, c",
			Value: "",
			Usage: "*coordinator host/IP and port, `HOST:PORT`",
		},
		cli.BoolFlag{
			Name:  "json, j",
			Usage: " output the raw status record",
		},
	}
	app.Action = runStatus

	err := app.Run(os.Args)
	if nil != err {
		fmt.Fprintf(os.Stderr, "terminated with error: %s\n", err)
		os.Exit(1)
	}
}

func runStatus(c *cli.Context) error {

	hostPort := c.GlobalString("connect")
	if "" == hostPort {
		return fmt.Errorf("missing connect argument")
	}

	status, err := fetchStatus(hostPort)
	if nil != err {
		return err
	}

	if c.GlobalBool("json") {
		b, err := json.Marshal(status)
		if nil != err {
			return err
		}
		fmt.Fprintf(c.App.Writer, "%s\n", b)
		return nil
	}

	fmt.Fprintf(c.App.Writer, "cursor:   %d\n", status.Cursor)
	fmt.Fprintf(c.App.Writer, "sessions: %d\n", status.Sessions)
	fmt.Fprintf(c.App.Writer, "found:    %t\n", status.Found)
	if status.Found {
		fmt.Fprintf(c.App.Writer, "number:   %s\n", status.Number)
	}
	return nil
}

// one status query over a fresh connection
func fetchStatus(hostPort string) (*messages.Status, error) {

	// the coordinator's certificate is self-signed
	conn, err := tls.Dial("tcp", hostPort, &tls.Config{
		InsecureSkipVerify: true,
	})
	if nil != err {
		return nil, err
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(connectTimeout))

	writer := messages.NewWriter(conn)
	if err := writer.Send(messages.NewStatusRequest()); nil != err {
		return nil, err
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, messages.MaximumRecordSize), messages.MaximumRecordSize)
	if !scanner.Scan() {
		if err := scanner.Err(); nil != err {
			return nil, err
		}
		return nil, fmt.Errorf("connection closed before a reply")
	}

	record, err := messages.ParseFromCoordinator(scanner.Bytes())
	if nil != err {
		return nil, err
	}

	status, ok := record.(*messages.Status)
	if !ok {
		return nil, fmt.Errorf("unexpected reply: %q", scanner.Bytes())
	}
	return status, nil
}
