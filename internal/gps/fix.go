// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"math"
	"strconv"
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"
)

// SentencePrefix starts every fix-data sentence the receiver emits.
const SentencePrefix = "$GPGGA"

// Fix is the latest position reported by the GPS receiver.
type Fix struct {
	Time       string    `json:"time"` // raw hhmmss[.ss] field from the receiver
	Latitude   string    `json:"lat"`  // e.g. "48.070 N"; empty once stale
	Longitude  string    `json:"lon"`  // e.g. "11.310 E"; empty once stale
	ObservedAt time.Time `json:"observed_at"`

	// Detail is only present when the sentence carried a valid checksum.
	Detail *Detail `json:"detail,omitempty"`
}

// Detail holds the remaining GGA fields, decoded by go-nmea.
type Detail struct {
	LatDeg     float64 `json:"lat_deg"` // signed decimal degrees
	LonDeg     float64 `json:"lon_deg"`
	FixQuality string  `json:"fix_quality"`
	Satellites int64   `json:"satellites"`
	HDOP       float64 `json:"hdop"`
	AltitudeM  float64 `json:"altitude_m"`
}

// ParseGGA parses a $GPGGA line into a Fix stamped with at.
//
// Field 1 is the time, fields 2/3 and 4/5 are latitude and longitude with
// their hemisphere letters. Coordinates are shown as the raw field divided
// by 100, rounded to three decimals. ok is false for any other prefix, a
// short sentence or a non-numeric coordinate.
func ParseGGA(line string, at time.Time) (fix Fix, ok bool) {
	if !strings.HasPrefix(line, SentencePrefix) {
		return Fix{}, false
	}
	fields := strings.Split(line, ",")
	if len(fields) < 6 {
		return Fix{}, false
	}

	lat, ok := coordinate(fields[2], fields[3])
	if !ok {
		return Fix{}, false
	}
	lon, ok := coordinate(fields[4], fields[5])
	if !ok {
		return Fix{}, false
	}

	return Fix{
		Time:       fields[1],
		Latitude:   lat,
		Longitude:  lon,
		ObservedAt: at,
		Detail:     parseDetail(line),
	}, true
}

func coordinate(raw, hemisphere string) (string, bool) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return "", false
	}
	return strconv.FormatFloat(v/100, 'f', 3, 64) + " " + hemisphere, true
}

func parseDetail(line string) *Detail {
	s, err := nmea.Parse(line)
	if err != nil {
		return nil
	}
	gga, ok := s.(nmea.GGA)
	if !ok {
		return nil
	}
	return &Detail{
		LatDeg:     gga.Latitude,
		LonDeg:     gga.Longitude,
		FixQuality: gga.FixQuality,
		Satellites: gga.NumSatellites,
		HDOP:       gga.HDOP,
		AltitudeM:  gga.Altitude,
	}
}
