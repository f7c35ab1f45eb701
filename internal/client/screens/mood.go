package screens

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/duet/internal/client/mood"
	"github.com/dmitrijs2005/duet/internal/client/reconcile"
	"github.com/dmitrijs2005/duet/internal/client/session"
	"github.com/dmitrijs2005/duet/internal/gateway"
	"github.com/dmitrijs2005/duet/internal/models"
)

// MoodSpace is the page for one mood: notes my partner left for me to read
// when I feel it, and the notes I left for my partner.
type MoodSpace struct {
	sess  session.Session
	key   mood.Mood
	space mood.Space
	// fromPartner is read only; sent takes my writes.
	fromPartner *feed[models.MoodNote]
	sent        *feed[models.MoodNote]
}

var _ Screen = (*MoodSpace)(nil)

// NewMoodSpace opens the space for key. Keys outside the catalog keep their
// own notes but show the fallback space's text.
func NewMoodSpace(sess session.Session, gw gateway.Gateway, key mood.Mood, o Options) *MoodSpace {
	space, _ := mood.Lookup(key)
	if key == mood.None {
		key = space.Key
	}

	from := gateway.Query{Filters: []gateway.Filter{
		gateway.Eq("author", sess.Partner),
		gateway.Eq("mood", string(key)),
	}}
	sent := gateway.Query{Filters: []gateway.Filter{
		gateway.Eq("author", sess.User),
		gateway.Eq("target", sess.Partner),
		gateway.Eq("mood", string(key)),
	}}

	return &MoodSpace{
		sess:        sess,
		key:         key,
		space:       space,
		fromPartner: newFeed[models.MoodNote](gw, gateway.MoodNotes, fixed(from), o),
		sent:        newFeed[models.MoodNote](gw, gateway.MoodNotes, fixed(sent), o),
	}
}

// Key is the mood this space stores notes under.
func (s *MoodSpace) Key() mood.Mood { return s.key }

func (s *MoodSpace) Title() string { return "mood " + string(s.key) }

func (s *MoodSpace) Load(ctx context.Context) error {
	return errors.Join(s.fromPartner.Load(ctx), s.sent.Load(ctx))
}

// Write leaves a note for my partner in this mood.
func (s *MoodSpace) Write(ctx context.Context, content string) (string, error) {
	if blank(content) {
		return "", ErrEmptyContent
	}
	draft := models.MoodNote{
		Author:  s.sess.User,
		Target:  s.sess.Partner,
		Mood:    string(s.key),
		Content: content,
	}
	return s.sent.add(ctx, draft, nil), nil
}

// Delete removes one of my notes.
func (s *MoodSpace) Delete(ctx context.Context, id string) error {
	return s.sent.Delete(ctx, id)
}

// FromPartner lists the partner's notes for this mood, newest first.
func (s *MoodSpace) FromPartner() []reconcile.Entity[models.MoodNote] {
	return s.fromPartner.Items()
}

// Sent lists my notes for this mood, newest first.
func (s *MoodSpace) Sent() []reconcile.Entity[models.MoodNote] {
	return s.sent.Items()
}

func (s *MoodSpace) Count() int {
	return s.fromPartner.Count() + s.sent.Count()
}

func (s *MoodSpace) Failures() []reconcile.Failure {
	return append(s.fromPartner.Failures(), s.sent.Failures()...)
}

func (s *MoodSpace) Wait() {
	s.fromPartner.Wait()
	s.sent.Wait()
}

func (s *MoodSpace) Close() {
	s.fromPartner.Close()
	s.sent.Close()
}

func (s *MoodSpace) View() string {
	head := header("Feeling "+s.space.Label, s.space.Message)

	var from string
	if items := s.FromPartner(); len(items) > 0 {
		lines := make([]string, 0, len(items))
		for _, e := range items {
			lines = append(lines, cardStyle.Render(e.Payload.Content+"\n"+subtitleStyle.Render(e.CreatedAt.Local().Format(DiaryDateLayout))))
		}
		from = strings.Join(lines, "\n")
	} else {
		st, err := s.fromPartner.state()
		from = loadStatus(st, err, s.sess.Partner+" hasn't left a note here yet.")
	}

	var sent string
	if items := s.Sent(); len(items) > 0 {
		lines := make([]string, 0, len(items))
		for _, e := range items {
			lines = append(lines, "- "+e.Payload.Content+"  "+entityID(e))
		}
		sent = titleStyle.Render("Your notes for "+s.sess.Partner) + "\n" + strings.Join(lines, "\n")
	}

	return joinBlocks(head, from, sent)
}

// MoodFor picks the space to open for what the user typed: a catalog key
// opens that space, anything else goes through the keyword classifier.
// ok is false when nothing matched.
func MoodFor(input string) (mood.Mood, bool) {
	in := strings.ToLower(strings.TrimSpace(input))
	for _, s := range mood.Catalog() {
		if in == string(s.Key) {
			return s.Key, true
		}
	}
	m := mood.Classify(in)
	return m, m != mood.None
}
