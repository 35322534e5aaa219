// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"io"
	"log"

	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// SetupLogging sends the standard logger to a rotating file, since stdout
// is taken by the dashboard. An empty path discards diagnostics.
func SetupLogging(path string) io.Closer {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if path == "" {
		log.SetOutput(io.Discard)
		return io.NopCloser(nil)
	}

	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    5, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
	log.SetOutput(w)
	return w
}
