// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package device

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakePort serves queued chunks and reports a timeout (0, io.EOF) when none
// arrive within timeout, like a tty in VTIME mode.
type fakePort struct {
	chunks  chan []byte
	timeout time.Duration
	onRead  func(n int)

	mu     sync.Mutex
	writes []string
	reads  int
	closed bool
}

func newFakePort(timeout time.Duration, chunks ...string) *fakePort {
	p := &fakePort{chunks: make(chan []byte, len(chunks)+1), timeout: timeout}
	for _, c := range chunks {
		p.chunks <- []byte(c)
	}
	return p
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	p.reads++
	n := p.reads
	hook := p.onRead
	p.mu.Unlock()
	if hook != nil {
		hook(n)
	}

	select {
	case c := <-p.chunks:
		return copy(b, c), nil
	case <-time.After(p.timeout):
		return 0, io.EOF
	}
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writes = append(p.writes, string(b))
	return len(b), nil
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePort) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *fakePort) writeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.writes)
}

type chanSink chan string

func (c chanSink) Push(line string) { c <- line }

func testSource(p *fakePort) *LineSource {
	return &LineSource{
		Path:        "/dev/fake0",
		BaudRate:    DefaultBaudRate,
		ReadTimeout: p.timeout,
		PollCommand: DefaultPollCommand,
		Interval:    10 * time.Millisecond,
		Open: func(string, int, time.Duration) (Port, error) {
			return p, nil
		},
	}
}

func TestLineSource_ForwardsTrimmedLinesAndSkipsInvalidUTF8(t *testing.T) {
	p := newFakePort(20*time.Millisecond,
		"AT+CSQ\r\n",
		"\xff\xfe\r\n",
		"+CSQ: 14,99\r\n\r\nOK\r\n",
	)
	src := testSource(p)
	sink := make(chanSink, 16)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx, sink) }()

	want := []string{"AT+CSQ", "+CSQ: 14,99", "", "OK"}
	for i, w := range want {
		select {
		case got := <-sink:
			if got != w {
				t.Fatalf("line %d: expected %q, got %q", i, w, got)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for line %d", i)
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}

	if !p.isClosed() {
		t.Fatalf("expected port closed")
	}
	if p.writeCount() == 0 {
		t.Fatalf("expected poll command written")
	}
	if p.writes[0] != DefaultPollCommand {
		t.Fatalf("expected %q, got %q", DefaultPollCommand, p.writes[0])
	}
}

func TestLineSource_RepollsAfterEmptyRead(t *testing.T) {
	p := newFakePort(10 * time.Millisecond)
	src := testSource(p)
	src.Interval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx, make(chanSink, 1)) }()

	deadline := time.Now().Add(2 * time.Second)
	for p.writeCount() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected repeated polls, got %d", p.writeCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done
}

func TestLineSource_EmptyPollCommandWritesNothing(t *testing.T) {
	p := newFakePort(10*time.Millisecond, "$GPGGA,1\r\n")
	src := testSource(p)
	src.PollCommand = ""
	sink := make(chanSink, 4)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx, sink) }()

	<-sink
	cancel()
	<-done
	if p.writeCount() != 0 {
		t.Fatalf("expected no writes, got %d", p.writeCount())
	}
}

func TestLineSource_OpenFailureIsReturned(t *testing.T) {
	boom := errors.New("no such device")
	src := &LineSource{
		Path: "/dev/missing",
		Open: func(string, int, time.Duration) (Port, error) { return nil, boom },
	}
	err := src.Run(context.Background(), make(chanSink, 1))
	if !errors.Is(err, boom) {
		t.Fatalf("expected open error, got %v", err)
	}
}

func TestLineSource_CancelDuringReadDropsPartialLine(t *testing.T) {
	const timeout = 100 * time.Millisecond
	p := newFakePort(timeout, "$GPGGA,1235")
	src := testSource(p)
	src.PollCommand = ""

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var cancelledAt time.Time
	p.onRead = func(n int) {
		if n == 1 {
			cancelledAt = time.Now()
			cancel()
		}
	}

	sink := make(chanSink, 4)
	err := src.Run(ctx, sink)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if elapsed := time.Since(cancelledAt); elapsed > timeout+timeout/2+50*time.Millisecond {
		t.Fatalf("Run took %v after cancel, read timeout is %v", elapsed, timeout)
	}
	if len(sink) != 0 {
		t.Fatalf("expected no lines pushed, got %q", <-sink)
	}
	if !p.isClosed() {
		t.Fatalf("expected port closed")
	}
}

func TestLineReader_PartialLineOnTimeout(t *testing.T) {
	p := newFakePort(5*time.Millisecond, "+CSQ: 1", "4,99\r\n+CS", "Q")
	lr := newLineReader(p)

	got, err := lr.readLine()
	if err != nil {
		t.Fatalf("readLine: %v", err)
	}
	if string(got) != "+CSQ: 14,99\r\n" {
		t.Fatalf("unexpected first line %q", got)
	}
	got, err = lr.readLine()
	if err != nil {
		t.Fatalf("readLine: %v", err)
	}
	if string(got) != "+CSQ" {
		t.Fatalf("expected partial line, got %q", got)
	}
	got, err = lr.readLine()
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty timeout read, got %q err=%v", got, err)
	}
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

func TestLineReader_ReturnsHardErrors(t *testing.T) {
	boom := errors.New("input/output error")
	_, err := newLineReader(errReader{boom}).readLine()
	if !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	pattern := filepath.Join(dir, "cu.usbmodem*01")

	if _, err := Discover(pattern); !errors.Is(err, ErrTooFewDevices) {
		t.Fatalf("expected ErrTooFewDevices, got %v", err)
	}

	for _, name := range []string{"cu.usbmodem2201", "cu.usbmodem1101", "cu.usbmodem1102"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	paths, err := Discover(pattern)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 paths, got %v", paths)
	}
	if !strings.HasSuffix(paths[0], "cu.usbmodem1101") || !strings.HasSuffix(paths[1], "cu.usbmodem2201") {
		t.Fatalf("expected sorted paths, got %v", paths)
	}
}

func TestInterCharacterTimeout(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want uint
	}{
		{time.Second, 1000},
		{0, 100},
		{149 * time.Millisecond, 100},
		{150 * time.Millisecond, 200},
		{time.Minute, 25500},
	}
	for _, c := range cases {
		if got := interCharacterTimeout(c.in); got != c.want {
			t.Fatalf("interCharacterTimeout(%v): expected %d, got %d", c.in, c.want, got)
		}
	}
}
