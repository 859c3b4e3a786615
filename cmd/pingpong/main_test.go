// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"strings"
	"testing"

	"code.hybscloud.com/memsock"
)

func testLogger(out, errOut *bytes.Buffer) *memsock.JSONLogger {
	return memsock.NewLogger(
		memsock.WithOutput(out),
		memsock.WithErrorOutput(errOut),
		memsock.WithTimeField(""),
		memsock.WithExit(func(int) {}),
	)
}

func TestRun(t *testing.T) {
	t.Setenv("MEMSOCK_ROUNDS", "4")
	t.Setenv("MEMSOCK_DEBUG", "true")

	var out, errOut bytes.Buffer
	if err := run(testLogger(&out, &errOut)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := strings.Count(out.String(), "received item 5"); got != 4 {
		t.Fatalf("received item 5: got %d lines, want 4", got)
	}
	if !strings.Contains(out.String(), "completed 4 rounds") {
		t.Fatalf("missing completion line")
	}
	if !strings.Contains(out.String(), "socket ui-audio") {
		t.Fatalf("MEMSOCK_DEBUG=true produced no socket trace")
	}
	if errOut.Len() != 0 {
		t.Fatalf("unexpected error output: %s", errOut.String())
	}
}

func TestRunCapacityTooSmall(t *testing.T) {
	t.Setenv("MEMSOCK_CAPACITY", "4")

	var out, errOut bytes.Buffer
	err := run(testLogger(&out, &errOut))
	if err == nil || !strings.Contains(err.Error(), "MEMSOCK_CAPACITY") {
		t.Fatalf("run: got %v, want capacity error", err)
	}
}
