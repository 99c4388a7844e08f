package ui

import tea "github.com/charmbracelet/bubbletea"

func isQuit(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "q", "ctrl+c":
		return true
	}
	return false
}

func helpText(browsing bool) string {
	if browsing {
		return "enter play  / filter  f favorite  tab now playing  q quit"
	}
	return "space pause  n/p track  ←/→ seek  s shuffle  f favorite  v viz  tab library  q quit"
}
