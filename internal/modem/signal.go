// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package modem

import (
	"strconv"
	"strings"
	"time"
)

const (
	// ResponsePrefix starts the modem's reply to AT+CSQ.
	ResponsePrefix = "+CSQ"

	marker = "CSQ"
)

// Signal-quality band ceilings (inclusive).
const (
	CSQMarginal  = 9
	CSQOk        = 14
	CSQGood      = 19
	CSQExcellent = 30
	// CSQUnknown is what the modem reports while searching.
	CSQUnknown = 31
)

// Reading is the latest signal quality reported by the modem.
type Reading struct {
	Quality    int       `json:"quality"`
	Band       string    `json:"band"`
	ObservedAt time.Time `json:"observed_at"`
}

// NewReading stamps quality with the time it was observed.
func NewReading(quality int, at time.Time) Reading {
	return Reading{Quality: quality, Band: BandFor(quality).String(), ObservedAt: at}
}

// ParseCSQ extracts the quality value from a line such as "+CSQ: 14,99".
//
// It looks for the CSQ marker followed, anywhere later in the line, by two
// comma-separated unsigned integers, and returns the first. ok is false if
// no such pair exists or the value does not fit in an int.
func ParseCSQ(line string) (quality int, ok bool) {
	i := strings.Index(line, marker)
	if i < 0 {
		return 0, false
	}
	rest := line[i+len(marker):]

	for j := 0; j < len(rest); {
		if !isDigit(rest[j]) {
			j++
			continue
		}
		end := digitsEnd(rest, j)
		if end+1 < len(rest) && rest[end] == ',' && isDigit(rest[end+1]) {
			q, err := strconv.Atoi(rest[j:end])
			if err != nil {
				return 0, false
			}
			return q, true
		}
		j = end
	}
	return 0, false
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func digitsEnd(s string, i int) int {
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return i
}
