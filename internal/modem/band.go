// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package modem

// Band is a named signal-quality tier.
type Band int

const (
	BandMarginal Band = iota
	BandOk
	BandGood
	BandExcellent
	// BandSearching covers values above CSQExcellent, including the
	// modem's "unknown" 31. A 30-slot bar can never show it.
	BandSearching
)

// BandFor classifies a quality value.
func BandFor(q int) Band {
	switch {
	case q <= CSQMarginal:
		return BandMarginal
	case q <= CSQOk:
		return BandOk
	case q <= CSQGood:
		return BandGood
	case q <= CSQExcellent:
		return BandExcellent
	default:
		return BandSearching
	}
}

func (b Band) String() string {
	switch b {
	case BandMarginal:
		return "marginal"
	case BandOk:
		return "ok"
	case BandGood:
		return "good"
	case BandExcellent:
		return "excellent"
	default:
		return "searching"
	}
}
