// Package visualizer derives a frequency spectrum from the live PCM stream
// and renders it as colored terminal bars. The analysis side runs against a
// ring buffer tap so the render loop never touches the audio path.
package visualizer

import (
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	// FFTSize balances frequency resolution against latency: 2048 samples
	// is ~21.5 Hz per bin at 44.1kHz and ~46ms of audio per window.
	FFTSize = 2048
	// NumBins is the number of magnitude samples per frame.
	NumBins = FFTSize / 2

	channels  = 2
	smoothing = 0.5

	// Byte mapping range, in decibels.
	minDB = -100.0
	maxDB = -30.0
)

// Frame is one spectrum snapshot: NumBins magnitudes scaled to 0-255,
// regenerated every render tick and never persisted.
type Frame []byte

// Analyzer computes byte-frequency frames from tapped PCM. It implements the
// engine's SampleTap through its Write method.
type Analyzer struct {
	ring *ringBuffer
	fft  *fourier.FFT

	mu       sync.Mutex
	window   []float64
	scratch  []float64
	coeffs   []complex128
	smoothed []float64
	raw      []byte
}

// NewAnalyzer creates an analyzer with an empty sample window.
func NewAnalyzer() *Analyzer {
	window := make([]float64, FFTSize)
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(FFTSize-1)))
	}
	return &Analyzer{
		ring:     newRingBuffer(FFTSize * channels * 2 * 4),
		fft:      fourier.NewFFT(FFTSize),
		window:   window,
		scratch:  make([]float64, FFTSize),
		coeffs:   make([]complex128, FFTSize/2+1),
		smoothed: make([]float64, NumBins),
		raw:      make([]byte, FFTSize*channels*2),
	}
}

// Write receives PCM bytes from the playback engine. Never blocks.
func (a *Analyzer) Write(p []byte) {
	a.ring.Write(p)
}

// Reset drops buffered audio and decayed state, e.g. on track switch.
func (a *Analyzer) Reset() {
	a.ring.Clear()
	a.mu.Lock()
	for i := range a.smoothed {
		a.smoothed[i] = 0
	}
	a.mu.Unlock()
}

// Frame computes the current spectrum. With no fresh audio (paused, silence)
// the smoothed magnitudes decay toward a flat frame.
func (a *Analyzer) Frame() Frame {
	a.mu.Lock()
	defer a.mu.Unlock()

	got := a.ring.Tail(a.raw)
	if got < FFTSize*channels*2 {
		for i := range a.smoothed {
			a.smoothed[i] *= smoothing
		}
		return a.frameLocked()
	}

	// Mono mix and Hann window.
	for i := range FFTSize {
		off := i * channels * 2
		l := int16(uint16(a.raw[off]) | uint16(a.raw[off+1])<<8)
		r := int16(uint16(a.raw[off+2]) | uint16(a.raw[off+3])<<8)
		a.scratch[i] = (float64(l) + float64(r)) / 2 / 32768.0 * a.window[i]
	}

	a.fft.Coefficients(a.coeffs, a.scratch)

	for i := range NumBins {
		mag := cmplx.Abs(a.coeffs[i]) / FFTSize
		a.smoothed[i] = a.smoothed[i]*smoothing + mag*(1-smoothing)
	}
	return a.frameLocked()
}

// frameLocked maps smoothed magnitudes to 0-255 on a decibel scale.
func (a *Analyzer) frameLocked() Frame {
	out := make(Frame, NumBins)
	for i, mag := range a.smoothed {
		if mag <= 0 {
			continue
		}
		db := 20 * math.Log10(mag)
		v := (db - minDB) / (maxDB - minDB) * 255
		switch {
		case v < 0:
			v = 0
		case v > 255:
			v = 255
		}
		out[i] = byte(v)
	}
	return out
}
