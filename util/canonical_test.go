// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util_test

import (
	"testing"

	"github.com/bitmark-inc/hashseekd/util"
)

func TestCanonical(t *testing.T) {

	type item struct {
		in  string
		out string
	}

	testData := []item{
		{"127.0.0.1:1234", "127.0.0.1:1234"},
		{" 127.0.0.1 : 1234 ", "127.0.0.1:1234"},
		{"127.0.0.1:01234", "127.0.0.1:1234"},
		{"[::1]:1234", "[::1]:1234"},
		{"[::ffff:127.0.0.1]:1234", "127.0.0.1:1234"},
		{"[2404:6800:4008:c07::66]:443", "[2404:6800:4008:c07::66]:443"},
	}

	for i, d := range testData {
		actual, err := util.CanonicalIPandPort(d.in)
		if nil != err {
			t.Fatalf("%d: canonical: %q  error: %s", i, d.in, err)
		}
		if actual != d.out {
			t.Fatalf("%d: canonical: %q  actual: %q  expected: %q", i, d.in, actual, d.out)
		}
	}
}

func TestCanonicalRejects(t *testing.T) {

	testData := []string{
		"256.0.0.0:1234",
		"127.0.0.1:0",
		"127.0.0.1:65536",
		"127.0.0.1",
		"hostname:1234",
		"",
	}

	for i, d := range testData {
		actual, err := util.CanonicalIPandPort(d)
		if nil == err {
			t.Fatalf("%d: canonical: %q  unexpected success: %q", i, d, actual)
		}
	}
}
