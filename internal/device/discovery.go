// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package device

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
)

// MinDevices is how many serial devices must be present: the modem and the
// GPS receiver.
const MinDevices = 2

// ErrTooFewDevices is returned by Discover when the glob matches fewer than
// MinDevices paths.
var ErrTooFewDevices = errors.New("could not find at least 2 serial devices")

// Discover returns the device paths matching pattern, sorted.
func Discover(pattern string) ([]string, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("device glob %q: %w", pattern, err)
	}
	if len(paths) < MinDevices {
		return nil, fmt.Errorf("%w (pattern %q matched %d)", ErrTooFewDevices, pattern, len(paths))
	}
	sort.Strings(paths)
	return paths, nil
}
