// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package device

import (
	"fmt"
	"io"
	"time"

	serial "github.com/jacobsa/go-serial/serial"
)

// Port is an open serial device. Reads return zero bytes once the read
// timeout elapses with no data.
type Port interface {
	io.ReadWriteCloser
}

// Opener opens the device at path with a fixed baud rate and read timeout.
type Opener func(path string, baud int, timeout time.Duration) (Port, error)

// OpenSerial opens a real serial port, 8N1, in timed-read mode.
func OpenSerial(path string, baud int, timeout time.Duration) (Port, error) {
	opts := serial.OpenOptions{
		PortName:   path,
		BaudRate:   uint(baud),
		DataBits:   8,
		StopBits:   1,
		ParityMode: serial.PARITY_NONE,
		// MinimumReadSize 0 + InterCharacterTimeout gives a pure timed read:
		// Read returns whatever arrived, or nothing, after the timeout.
		MinimumReadSize:       0,
		InterCharacterTimeout: interCharacterTimeout(timeout),
	}

	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open %s at %d baud: %w", path, baud, err)
	}
	return port, nil
}

// interCharacterTimeout converts timeout to the tenths-of-a-second
// granularity termios supports, expressed in milliseconds.
func interCharacterTimeout(timeout time.Duration) uint {
	ms := timeout.Milliseconds()
	tenths := (ms + 50) / 100
	if tenths < 1 {
		tenths = 1
	}
	if tenths > 255 {
		tenths = 255
	}
	return uint(tenths * 100)
}
