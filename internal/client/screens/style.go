package screens

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dmitrijs2005/duet/internal/client/reconcile"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	subtitleStyle = lipgloss.NewStyle().Faint(true)
	idStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	pendingStyle  = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("214"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	cardStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("212")).
			Padding(0, 1)
)

// noteColors maps the sticky-note palette to terminal colors.
var noteColors = map[string]lipgloss.Color{
	"yellow": lipgloss.Color("228"),
	"pink":   lipgloss.Color("218"),
	"blue":   lipgloss.Color("117"),
	"green":  lipgloss.Color("157"),
	"purple": lipgloss.Color("183"),
}

func header(title, subtitle string) string {
	if subtitle == "" {
		return titleStyle.Render(title)
	}
	return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), subtitleStyle.Render(subtitle))
}

// entityID shows the id the user types to act on an entity, or a saving
// marker for placeholders.
func entityID[T any](e reconcile.Entity[T]) string {
	if e.Optimistic() {
		return pendingStyle.Render("(saving...)")
	}
	return idStyle.Render("#" + e.ID)
}

// loadStatus renders the store state when there is nothing else to show.
func loadStatus(st reconcile.State, err error, empty string) string {
	switch st {
	case reconcile.StateIdle, reconcile.StateLoading:
		return subtitleStyle.Render("Loading...")
	case reconcile.StateLoadFailed:
		return errorStyle.Render(fmt.Sprintf("Could not load: %v", err))
	}
	return subtitleStyle.Render(empty)
}

func joinBlocks(blocks ...string) string {
	out := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b != "" {
			out = append(out, b)
		}
	}
	return strings.Join(out, "\n\n")
}
