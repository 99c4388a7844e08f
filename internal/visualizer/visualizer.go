package visualizer

// Visualizer renders spectrum frames as terminal art.
type Visualizer interface {
	Name() string
	SetAccent(hex string)
	Update(frame Frame, width, height int)
	View() string
}

// Modes returns all available visualizers for the given frame rate.
func Modes(fps int) []Visualizer {
	return []Visualizer{
		NewBars(fps),
		NewPulse(),
	}
}
