package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pwells-dev/auris/internal/player"
)

// tickMsg drives the transport status refresh.
type tickMsg time.Time

// frameMsg drives one visualizer draw. gen ties the message to the tick chain
// that produced it; stale generations die on arrival so the render loop can
// be stopped and restarted without duplicating itself.
type frameMsg struct {
	gen int
}

// engineEventMsg wraps one playback engine event.
type engineEventMsg struct {
	ev player.Event
}

func tickCmd() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func frameCmd(gen, fps int) tea.Cmd {
	return tea.Tick(time.Second/time.Duration(fps), func(time.Time) tea.Msg {
		return frameMsg{gen: gen}
	})
}

// listenEvents waits for the next engine event. Re-armed after every receive.
func listenEvents(ch <-chan player.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return engineEventMsg{ev: ev}
	}
}
