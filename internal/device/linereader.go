// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package device

import (
	"bytes"
	"errors"
	"io"
)

// lineReader splits a timed-read port into lines. A read that returns no
// data ends the current line early, like a serial readline with a timeout.
//
// bufio.Reader is not used because it treats repeated empty reads as
// io.ErrNoProgress and has no notion of a timeout-terminated partial line.
type lineReader struct {
	r   io.Reader
	buf []byte
	tmp [256]byte
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: r}
}

// readLine returns the next line including its '\n', the partial data read
// before a timeout, or an empty slice if the timeout elapsed with nothing
// buffered.
func (lr *lineReader) readLine() ([]byte, error) {
	for {
		if i := bytes.IndexByte(lr.buf, '\n'); i >= 0 {
			return lr.take(i + 1), nil
		}

		n, err := lr.r.Read(lr.tmp[:])
		if n > 0 {
			lr.buf = append(lr.buf, lr.tmp[:n]...)
			continue
		}
		// Terminal ports report an elapsed VTIME as a zero-length read, which
		// os.File surfaces as io.EOF.
		if err == nil || errors.Is(err, io.EOF) {
			return lr.take(len(lr.buf)), nil
		}
		return nil, err
	}
}

func (lr *lineReader) take(n int) []byte {
	line := make([]byte, n)
	copy(line, lr.buf[:n])
	lr.buf = lr.buf[n:]
	if len(lr.buf) == 0 {
		lr.buf = nil
	}
	return line
}
