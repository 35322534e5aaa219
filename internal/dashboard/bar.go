// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package dashboard

import (
	"fmt"
	"strings"

	"github.com/relabs-tech/trek/internal/modem"
)

// SGR sequences.
const (
	Reset  = "\033[0m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
)

const (
	// Slots is the bar width; one slot per quality step up to excellent.
	Slots = modem.CSQExcellent

	Filled = '#'
	Empty  = '.'
)

// SlotColor returns the colour of 1-indexed slot i. It depends only on i.
func SlotColor(i int) string {
	return BandColor(modem.BandFor(i))
}

// BandColor maps a band to its SGR colour.
func BandColor(b modem.Band) string {
	switch b {
	case modem.BandMarginal:
		return Red
	case modem.BandOk:
		return Yellow
	case modem.BandGood:
		return Green
	default:
		return Blue
	}
}

// Bar renders quality q as a 30-slot coloured bar followed by
// "<q> / 30 (<band>)".
func Bar(q int) string {
	return bar(q, fmt.Sprintf("%d / %d (%s)", q, Slots, modem.BandFor(q)))
}

// NoSignalBar is shown before the modem has answered.
func NoSignalBar() string {
	return bar(0, fmt.Sprintf("- / %d", Slots))
}

func bar(q int, summary string) string {
	var b strings.Builder
	b.WriteString(Reset)
	b.WriteByte('[')
	for i := 1; i <= Slots; i++ {
		b.WriteString(SlotColor(i))
		if i <= q {
			b.WriteByte(Filled)
		} else {
			b.WriteByte(Empty)
		}
	}
	b.WriteString(Reset)
	b.WriteString("] ")
	b.WriteString(summary)
	return b.String()
}
