package player

import (
	"bytes"
	"io"
	"testing"
)

func TestCarryHandsLeftoverToNextRead(t *testing.T) {
	var c carry
	p := make([]byte, 4)

	if n := c.handoff(p, []byte("abcdefgh")); n != 4 {
		t.Fatalf("handoff returned %d, want 4", n)
	}
	if !bytes.Equal(p, []byte("abcd")) {
		t.Fatalf("got %q", p)
	}
	if n := c.drain(p); n != 4 || !bytes.Equal(p, []byte("efgh")) {
		t.Fatalf("drain returned %d %q", n, p[:n])
	}
	if n := c.drain(p); n != 0 {
		t.Fatalf("expected empty carry, drained %d", n)
	}
}

func TestCarryResetDropsLeftover(t *testing.T) {
	var c carry
	c.handoff(make([]byte, 1), []byte("abc"))
	c.reset()
	if n := c.drain(make([]byte, 4)); n != 0 {
		t.Fatalf("expected nothing after reset, got %d", n)
	}
}

func TestClamp16(t *testing.T) {
	for _, tc := range []struct {
		in       int
		expected int16
	}{
		{0, 0},
		{32767, 32767},
		{40000, 32767},
		{-32768, -32768},
		{-50000, -32768},
	} {
		if got := clamp16(tc.in); got != tc.expected {
			t.Fatalf("clamp16(%d) = %d, want %d", tc.in, got, tc.expected)
		}
	}
}

func TestClampPCMPos(t *testing.T) {
	if got := clampPCMPos(-10, 100); got != 0 {
		t.Fatalf("got %d, want 0", got)
	}
	if got := clampPCMPos(150, 100); got != 100 {
		t.Fatalf("got %d, want 100", got)
	}
	if got := clampPCMPos(50, 100); got != 50 {
		t.Fatalf("got %d, want 50", got)
	}
}

func TestResolveWhence(t *testing.T) {
	if got := resolveWhence(10, 40, 100, io.SeekStart); got != 10 {
		t.Fatalf("start: got %d", got)
	}
	if got := resolveWhence(10, 40, 100, io.SeekCurrent); got != 50 {
		t.Fatalf("current: got %d", got)
	}
	if got := resolveWhence(-10, 40, 100, io.SeekEnd); got != 90 {
		t.Fatalf("end: got %d", got)
	}
}
