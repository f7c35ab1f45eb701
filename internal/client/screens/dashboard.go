package screens

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/duet/internal/client/session"
)

// Counter is a screen that can report how many items it holds.
type Counter interface {
	Title() string
	Count() int
}

// Dashboard greets the user and summarizes the other screens.
type Dashboard struct {
	sess    session.Session
	screens []Counter
}

func NewDashboard(sess session.Session, screens ...Counter) *Dashboard {
	return &Dashboard{sess: sess, screens: screens}
}

// Greeting falls back to a pet name when no user is known.
func (d *Dashboard) Greeting() string {
	name := d.sess.User
	if name == "" {
		name = "Love"
	}
	return "Good Morning, " + name
}

func (d *Dashboard) View() string {
	head := header(d.Greeting(), "Here's your summary for today.")
	if len(d.screens) == 0 {
		return head
	}

	lines := make([]string, 0, len(d.screens))
	for _, s := range d.screens {
		lines = append(lines, fmt.Sprintf("%-10s %d", s.Title(), s.Count()))
	}
	return joinBlocks(head, cardStyle.Render(strings.Join(lines, "\n")))
}
