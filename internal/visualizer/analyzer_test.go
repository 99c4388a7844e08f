package visualizer

import (
	"encoding/binary"
	"math"
	"testing"
)

// pcmSine produces n interleaved stereo frames of a 16-bit sine tone.
func pcmSine(n int, freq, sampleRate float64, amp float64) []byte {
	buf := make([]byte, n*channels*2)
	for i := range n {
		v := int16(amp * 32767 * math.Sin(2*math.Pi*freq*float64(i)/sampleRate))
		off := i * channels * 2
		binary.LittleEndian.PutUint16(buf[off:], uint16(v))
		binary.LittleEndian.PutUint16(buf[off+2:], uint16(v))
	}
	return buf
}

func TestFrameLengthIsFixed(t *testing.T) {
	a := NewAnalyzer()
	if got := len(a.Frame()); got != NumBins {
		t.Fatalf("expected %d bins, got %d", NumBins, got)
	}
	a.Write(pcmSine(FFTSize*2, 440, 44100, 0.8))
	if got := len(a.Frame()); got != NumBins {
		t.Fatalf("expected %d bins after audio, got %d", NumBins, got)
	}
}

func TestSilenceYieldsZeroFrame(t *testing.T) {
	a := NewAnalyzer()
	a.Write(make([]byte, FFTSize*channels*2))
	for i, v := range a.Frame() {
		if v != 0 {
			t.Fatalf("bin %d = %d on silence", i, v)
		}
	}
}

func TestToneProducesPeakNearItsBin(t *testing.T) {
	a := NewAnalyzer()
	const sampleRate = 44100.0
	// Pick a frequency landing exactly on a bin center.
	bin := 64
	freq := float64(bin) * sampleRate / FFTSize
	a.Write(pcmSine(FFTSize*2, freq, sampleRate, 0.8))

	frame := a.Frame()
	peak, peakBin := byte(0), -1
	for i, v := range frame {
		if v > peak {
			peak, peakBin = v, i
		}
	}
	if peak == 0 {
		t.Fatal("expected a nonzero spectrum for a loud tone")
	}
	if peakBin < bin-2 || peakBin > bin+2 {
		t.Fatalf("peak at bin %d, expected near %d", peakBin, bin)
	}
}

func TestFrameDecaysWithoutFreshAudio(t *testing.T) {
	a := NewAnalyzer()
	a.Write(pcmSine(FFTSize*2, 440, 44100, 0.8))
	first := a.Frame()

	// The buffered window is consumed non-destructively, so force decay by
	// clearing the ring the way a pause-drain would.
	a.ring.Clear()

	prev := maxByte(first)
	for range 20 {
		cur := maxByte(a.Frame())
		if cur > prev {
			t.Fatalf("spectrum grew from %d to %d without audio", prev, cur)
		}
		prev = cur
	}
	if prev >= maxByte(first) && maxByte(first) > 0 {
		t.Fatal("expected decay after audio stopped")
	}
}

func TestResetClearsSpectrum(t *testing.T) {
	a := NewAnalyzer()
	a.Write(pcmSine(FFTSize*2, 440, 44100, 0.8))
	if maxByte(a.Frame()) == 0 {
		t.Fatal("expected signal before reset")
	}
	a.Reset()
	if got := maxByte(a.Frame()); got != 0 {
		t.Fatalf("expected zero frame after reset, got max %d", got)
	}
}

func maxByte(f Frame) byte {
	var m byte
	for _, v := range f {
		if v > m {
			m = v
		}
	}
	return m
}
