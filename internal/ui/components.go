package ui

import "strings"

// renderProgressBar draws the elapsed/total ratio as a fixed-width line.
// percent is expected in [0, 100].
func renderProgressBar(percent float64, width int) string {
	if width < 10 {
		width = 10
	}
	barWidth := width - 2

	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(percent / 100 * float64(barWidth))

	return strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)
}
