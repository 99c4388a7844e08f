package util

import (
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	for _, tc := range []struct {
		in       time.Duration
		expected string
	}{
		{0, "0:00"},
		{7 * time.Second, "0:07"},
		{time.Minute + 5*time.Second, "1:05"},
		{10*time.Minute + 59*time.Second, "10:59"},
		{59*time.Minute + 59*time.Second, "59:59"},
		{time.Hour, "1:00:00"},
		{2*time.Hour + 3*time.Minute + 4*time.Second, "2:03:04"},
		{-time.Second, "0:00"},
	} {
		if got := FormatDuration(tc.in); got != tc.expected {
			t.Fatalf("FormatDuration(%v) = %q, want %q", tc.in, got, tc.expected)
		}
	}
}
