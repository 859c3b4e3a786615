// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memsock_test

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/memsock"
)

// eventually polls cond until it holds or timeout elapses.
func eventually(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	backoff := iox.Backoff{}
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %v", timeout)
		}
		backoff.Wait()
	}
}

// waitDone fails the test if done is not closed within timeout.
func waitDone(t *testing.T, timeout time.Duration, done <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatalf("%s: still blocked after %v", what, timeout)
	}
}

// recordingLogger is a memsock.Logger that keeps every line in memory.
type recordingLogger struct {
	mu     sync.Mutex
	lines  []string
	fatals int
}

var _ memsock.Logger = (*recordingLogger)(nil)

func (l *recordingLogger) record(level, tag, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, level+" "+tag+": "+fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Info(tag, format string, args ...any) {
	l.record("info", tag, format, args...)
}

func (l *recordingLogger) Error(tag, format string, args ...any) {
	l.record("error", tag, format, args...)
}

func (l *recordingLogger) Fatal(tag, format string, args ...any) {
	l.record("fatal", tag, format, args...)
	l.mu.Lock()
	l.fatals++
	l.mu.Unlock()
}

func (l *recordingLogger) count(substr string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, line := range l.lines {
		if strings.Contains(line, substr) {
			n++
		}
	}
	return n
}

func (l *recordingLogger) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lines)
}
