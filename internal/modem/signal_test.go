// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package modem

import (
	"testing"
	"time"
)

func TestParseCSQ(t *testing.T) {
	cases := []struct {
		line string
		want int
		ok   bool
	}{
		{"+CSQ: 14,99", 14, true},
		{"+CSQ: 31,99", 31, true},
		{"+CSQ:0,0", 0, true},
		{"AT+CSQ", 0, false},
		{"OK", 0, false},
		{"+CSQ: ,99", 0, false},
		{"+CSQ: 14", 0, false},
		{"+CSQ: x1,2 y", 1, true},
		{"+CSQ: 7 , 3, 5,6", 5, true},
		{"noise CSQ 22,0 trailing", 22, true},
		{"14,99 +CSQ", 0, false},
		{"+CSQ: 99999999999999999999999,1", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseCSQ(c.line)
		if ok != c.ok || got != c.want {
			t.Fatalf("ParseCSQ(%q): expected (%d,%v), got (%d,%v)", c.line, c.want, c.ok, got, ok)
		}
	}
}

func TestBandFor(t *testing.T) {
	for q := 0; q <= 40; q++ {
		var want string
		switch {
		case q <= 9:
			want = "marginal"
		case q <= 14:
			want = "ok"
		case q <= 19:
			want = "good"
		case q <= 30:
			want = "excellent"
		default:
			want = "searching"
		}
		if got := BandFor(q).String(); got != want {
			t.Fatalf("BandFor(%d): expected %q, got %q", q, want, got)
		}
	}
}

func TestNewReading(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r := NewReading(14, at)
	if r.Quality != 14 || r.Band != "ok" || !r.ObservedAt.Equal(at) {
		t.Fatalf("unexpected reading %+v", r)
	}
}
