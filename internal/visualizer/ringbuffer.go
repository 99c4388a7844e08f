package visualizer

import "sync"

// ringBuffer is a thread-safe circular byte buffer. The playback engine
// writes PCM into it from the audio path; the analyzer reads the most recent
// window from the render loop. Neither side ever blocks the other.
type ringBuffer struct {
	mu   sync.Mutex
	buf  []byte
	w    int
	fill int
}

func newRingBuffer(size int) *ringBuffer {
	return &ringBuffer{buf: make([]byte, size)}
}

// Write appends data, overwriting the oldest bytes when full.
func (rb *ringBuffer) Write(p []byte) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	// Only the trailing window can survive anyway.
	if len(p) > len(rb.buf) {
		p = p[len(p)-len(rb.buf):]
	}
	n := copy(rb.buf[rb.w:], p)
	copy(rb.buf, p[n:])
	rb.w = (rb.w + len(p)) % len(rb.buf)
	rb.fill += len(p)
	if rb.fill > len(rb.buf) {
		rb.fill = len(rb.buf)
	}
}

// Tail copies the n most recent bytes into dst order-preserving and returns
// how many were available.
func (rb *ringBuffer) Tail(dst []byte) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := len(dst)
	if n > rb.fill {
		n = rb.fill
	}
	if n == 0 {
		return 0
	}
	start := (rb.w - n + len(rb.buf)) % len(rb.buf)
	m := copy(dst[:n], rb.buf[start:])
	copy(dst[m:n], rb.buf)
	return n
}

// Clear drops all buffered audio, e.g. on track switch.
func (rb *ringBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.w = 0
	rb.fill = 0
}
