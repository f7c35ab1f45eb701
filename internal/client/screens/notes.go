package screens

import (
	"context"
	"math/rand/v2"
	"strings"

	"github.com/dmitrijs2005/duet/internal/client/session"
	"github.com/dmitrijs2005/duet/internal/gateway"
	"github.com/dmitrijs2005/duet/internal/models"
)

// maxRotation bounds the tilt of a sticky note in either direction.
const maxRotation = 3

var randIntN = rand.IntN

// Notes is the shared sticky-note board.
type Notes struct {
	*feed[models.SharedNote]
	sess session.Session
}

var _ Screen = (*Notes)(nil)

func NewNotes(sess session.Session, gw gateway.Gateway, o Options) *Notes {
	return &Notes{
		feed: newFeed[models.SharedNote](gw, gateway.SharedNotes, fixed(gateway.Query{}), o),
		sess: sess,
	}
}

func (n *Notes) Title() string { return "notes" }

// Add pins a note with a random palette color and tilt.
func (n *Notes) Add(ctx context.Context, content string) (string, error) {
	if blank(content) {
		return "", ErrEmptyContent
	}
	draft := models.SharedNote{
		Author:   n.sess.User,
		Content:  content,
		Color:    models.NoteColors[randIntN(len(models.NoteColors))],
		Rotation: randIntN(2*maxRotation+1) - maxRotation,
	}
	return n.add(ctx, draft, nil), nil
}

func (n *Notes) View() string {
	items := n.Items()
	head := header("Shared Notes", "Little reminders, sweet nothings.")
	if len(items) == 0 {
		st, err := n.state()
		return joinBlocks(head, loadStatus(st, err, "The board is empty."))
	}

	notes := make([]string, 0, len(items))
	for _, e := range items {
		style := cardStyle
		if c, ok := noteColors[e.Payload.Color]; ok {
			style = style.BorderForeground(c)
		}
		// tilt becomes a horizontal offset
		style = style.MarginLeft(e.Payload.Rotation + maxRotation)

		body := e.Payload.Content + "\n" + entityID(e) + " " + subtitleStyle.Render("- "+e.Payload.Author)
		notes = append(notes, style.Render(body))
	}
	return joinBlocks(head, strings.Join(notes, "\n"))
}
