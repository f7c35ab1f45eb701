package screens

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/duet/internal/client/reconcile"
	"github.com/dmitrijs2005/duet/internal/client/session"
	"github.com/dmitrijs2005/duet/internal/gateway"
	"github.com/dmitrijs2005/duet/internal/models"
)

// Messages shows today's whisper in each direction: the latest one I sent
// and the latest one my partner sent.
type Messages struct {
	sess   session.Session
	mine   *feed[models.DailyMessage]
	theirs *feed[models.DailyMessage]
	opts   Options
}

var _ Screen = (*Messages)(nil)

func NewMessages(sess session.Session, gw gateway.Gateway, o Options) *Messages {
	m := &Messages{sess: sess, opts: o}
	m.mine = newFeed[models.DailyMessage](gw, gateway.Messages, m.latestBy(sess.User), o)
	m.theirs = newFeed[models.DailyMessage](gw, gateway.Messages, m.latestBy(sess.Partner), o)
	return m
}

func (m *Messages) latestBy(author string) func() gateway.Query {
	return func() gateway.Query {
		return gateway.Query{
			Filters: []gateway.Filter{gateway.Eq("author", author), gateway.Eq("date", m.today())},
			Limit:   1,
		}
	}
}

func (m *Messages) today() string {
	return m.opts.now().Format(DiaryDateLayout)
}

func (m *Messages) Title() string { return "messages" }

// Load fetches both directions; a failure of one does not stop the other.
func (m *Messages) Load(ctx context.Context) error {
	return errors.Join(m.mine.Load(ctx), m.theirs.Load(ctx))
}

// Send stores a new message for today. It supersedes the previous one.
func (m *Messages) Send(ctx context.Context, content string) (string, error) {
	if blank(content) {
		return "", ErrEmptyContent
	}
	draft := models.DailyMessage{
		Author:  m.sess.User,
		Target:  m.sess.Partner,
		Content: content,
		Date:    m.today(),
	}
	return m.mine.add(ctx, draft, nil), nil
}

// Mine is the newest message I sent today.
func (m *Messages) Mine() (reconcile.Entity[models.DailyMessage], bool) {
	return first(m.mine.Items())
}

// Theirs is the newest message my partner sent today.
func (m *Messages) Theirs() (reconcile.Entity[models.DailyMessage], bool) {
	return first(m.theirs.Items())
}

// SendLabel is the action offered for my message.
func (m *Messages) SendLabel() string {
	if _, ok := m.Mine(); ok {
		return "Update Message"
	}
	return "Send Message"
}

func first[T any](items []reconcile.Entity[T]) (reconcile.Entity[T], bool) {
	if len(items) == 0 {
		return reconcile.Entity[T]{}, false
	}
	return items[0], true
}

func (m *Messages) Count() int {
	n := 0
	if _, ok := m.Mine(); ok {
		n++
	}
	if _, ok := m.Theirs(); ok {
		n++
	}
	return n
}

func (m *Messages) Failures() []reconcile.Failure {
	return append(m.mine.Failures(), m.theirs.Failures()...)
}

func (m *Messages) Wait() {
	m.mine.Wait()
	m.theirs.Wait()
}

func (m *Messages) Close() {
	m.mine.Close()
	m.theirs.Close()
}

func (m *Messages) View() string {
	head := header("Daily Whispers", m.today())

	from := "No whisper from " + m.sess.Partner + " yet today."
	if e, ok := m.Theirs(); ok {
		from = e.Payload.Content
	} else if st, err := m.theirs.state(); st != reconcile.StateReady {
		from = loadStatus(st, err, "")
	}

	to := "You haven't whispered anything today."
	if e, ok := m.Mine(); ok {
		to = e.Payload.Content + "  " + entityID(e)
	} else if st, err := m.mine.state(); st != reconcile.StateReady {
		to = loadStatus(st, err, "")
	}

	return joinBlocks(
		head,
		cardStyle.Render(titleStyle.Render("From "+m.sess.Partner)+"\n"+from),
		cardStyle.Render(titleStyle.Render("To "+m.sess.Partner)+"\n"+to+"\n"+subtitleStyle.Render("["+m.SendLabel()+"]")),
	)
}
