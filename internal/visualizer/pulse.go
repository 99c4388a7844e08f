package visualizer

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Pulse renders the overall spectral energy as a single horizontal meter with
// peak hold, colored in the track's accent hue.
type Pulse struct {
	accent colorful.Color
	level  float64
	peak   float64
	output string
}

// NewPulse creates the energy meter renderer.
func NewPulse() *Pulse {
	return &Pulse{accent: fallbackAccent}
}

func (p *Pulse) Name() string { return "pulse" }

func (p *Pulse) SetAccent(hex string) {
	c, err := colorful.Hex(hex)
	if err != nil {
		c = fallbackAccent
	}
	p.accent = c
}

func (p *Pulse) Update(frame Frame, width, height int) {
	if width < 10 || len(frame) == 0 {
		p.output = ""
		return
	}

	bins := frame[:len(frame)/2]
	sum := 0
	for _, v := range bins {
		sum += int(v)
	}
	target := float64(sum) / float64(len(bins)) / 255

	const attack, release = 0.6, 0.15
	if target > p.level {
		p.level = p.level*(1-attack) + target*attack
	} else {
		p.level = p.level*(1-release) + target*release
	}

	const peakDecay = 0.02
	if p.level > p.peak {
		p.peak = p.level
	} else if p.peak -= peakDecay; p.peak < 0 {
		p.peak = 0
	}

	barWidth := width - 4
	if barWidth < 10 {
		barWidth = 10
	}
	filled := int(p.level * float64(barWidth))
	peakPos := int(p.peak * float64(barWidth))
	if peakPos >= barWidth {
		peakPos = barWidth - 1
	}

	h, _, l := p.accent.Hsl()
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color(colorful.Hsl(h, BarSaturation, BarLightness(l, 96)).Hex()))
	hot := lipgloss.NewStyle().Foreground(lipgloss.Color(colorful.Hsl(h, BarSaturation, BarLightness(l, 255)).Hex())).Bold(true)

	var sb strings.Builder
	for range height / 2 {
		sb.WriteByte('\n')
	}
	sb.WriteString("  ")
	for i := range barWidth {
		switch {
		case i == peakPos && peakPos > 0:
			sb.WriteString(hot.Render("│"))
		case i < filled:
			sb.WriteString(dim.Render("█"))
		default:
			sb.WriteString("─")
		}
	}
	p.output = sb.String()
}

func (p *Pulse) View() string { return p.output }
