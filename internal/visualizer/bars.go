package visualizer

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
)

const (
	// BarSaturation is fixed so bars stay vivid whatever the accent color.
	BarSaturation = 0.9
	// GlowThreshold marks the magnitude (≈70% of max) above which a bar
	// renders a glow in its own hue.
	GlowThreshold = 179
	// heightScale leaves headroom above the tallest bar.
	heightScale = 0.8
)

var barChars = []rune(" ▁▂▃▄▅▆▇█")

// fallbackAccent is used when a track's accent color fails to parse.
var fallbackAccent = colorful.Color{R: 0.235, G: 0.471, B: 0.863}

// BarHue spreads displayed bins across a 120° hue arc centered on the base
// hue: bin i of n sits at base + (i/n)*120 - 60, wrapped into [0, 360).
func BarHue(baseHue float64, i, n int) float64 {
	h := baseHue + (float64(i)/float64(n))*120 - 60
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}

// BarLightness lifts the base lightness to at least 0.50 and adds up to 0.30
// with magnitude, so bars stay visible on a dark background regardless of the
// accent color's own lightness. Clamped to 1.0.
func BarLightness(baseL float64, mag byte) float64 {
	floor := baseL + 0.10
	if floor < 0.50 {
		floor = 0.50
	}
	l := floor + float64(mag)/255*0.30
	if l > 1 {
		l = 1
	}
	return l
}

// BarHeight maps a magnitude onto pane rows, leaving 20% headroom.
func BarHeight(mag byte, paneHeight int) float64 {
	return float64(mag) / 255 * float64(paneHeight) * heightScale
}

// BarColor is the full deterministic mapping from (magnitude, bin index,
// accent color) to a bar color.
func BarColor(accent colorful.Color, i, n int, mag byte) colorful.Color {
	h, _, l := accent.Hsl()
	return colorful.Hsl(BarHue(h, i, n), BarSaturation, BarLightness(l, mag))
}

// Bars renders the spectrum as a row of colored vertical bars with rounded
// (partial-block) tops.
type Bars struct {
	accent colorful.Color
	spring springField
	output string
}

// NewBars creates the bar renderer for the given frame rate.
func NewBars(fps int) *Bars {
	return &Bars{
		accent: fallbackAccent,
		spring: newSpringField(fps, 6.5, 0.7),
	}
}

func (b *Bars) Name() string { return "bars" }

// SetAccent switches the thematic base color, typically on track change.
func (b *Bars) SetAccent(hex string) {
	c, err := colorful.Hex(hex)
	if err != nil {
		c = fallbackAccent
	}
	b.accent = c
}

// Update recomputes the drawn frame. Only the lower half of the bins is
// displayed; the upper half is perceptually near-silent for music.
func (b *Bars) Update(frame Frame, width, height int) {
	if height < 1 || width < 4 || len(frame) == 0 {
		b.output = ""
		return
	}

	bins := frame[:len(frame)/2]
	nBars := (width - 2) / 2
	if nBars < 8 {
		nBars = 8
	}
	if nBars > len(bins) {
		nBars = len(bins)
	}
	b.spring.resize(nBars)

	mags := make([]byte, nBars)
	levels := make([]float64, nBars)
	for i := range nBars {
		lo := i * len(bins) / nBars
		hi := (i + 1) * len(bins) / nBars
		if hi <= lo {
			hi = lo + 1
		}
		sum := 0
		for _, v := range bins[lo:hi] {
			sum += int(v)
		}
		mags[i] = byte(sum / (hi - lo))
		levels[i] = b.spring.step(i, BarHeight(mags[i], height))
	}

	styles := make([]lipgloss.Style, nBars)
	for i := range nBars {
		c := BarColor(b.accent, i, nBars, mags[i])
		st := lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex()))
		if mags[i] > GlowThreshold {
			st = st.Bold(true)
		}
		styles[i] = st
	}

	var sb strings.Builder
	for row := range height {
		fromBottom := float64(height - 1 - row)
		for i := range nBars {
			sb.WriteByte(' ')
			ch := barChars[0]
			switch {
			case levels[i] > fromBottom+1:
				ch = barChars[len(barChars)-1]
			case levels[i] > fromBottom:
				idx := int((levels[i] - fromBottom) * float64(len(barChars)-1))
				if idx < 1 {
					idx = 1
				}
				ch = barChars[idx]
			}
			if ch == ' ' {
				sb.WriteByte(' ')
			} else {
				sb.WriteString(styles[i].Render(string(ch)))
			}
		}
		if row < height-1 {
			sb.WriteByte('\n')
		}
	}
	b.output = sb.String()
}

func (b *Bars) View() string { return b.output }
