package screens

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/duet/internal/client/device"
	"github.com/dmitrijs2005/duet/internal/client/reconcile"
	"github.com/dmitrijs2005/duet/internal/client/session"
	"github.com/dmitrijs2005/duet/internal/client/upload"
	"github.com/dmitrijs2005/duet/internal/gateway"
	"github.com/dmitrijs2005/duet/internal/models"
)

// DiaryDateLayout is the local date stored with each entry.
const DiaryDateLayout = "1/2/2006"

// Diary is the private diary: only entries authored by the session user.
type Diary struct {
	*feed[models.DiaryEntry]
	sess    session.Session
	voice   *upload.Pipeline
	capture device.Capture
	opts    Options
}

var _ Screen = (*Diary)(nil)

func NewDiary(sess session.Session, gw gateway.Gateway, capture device.Capture, o Options) *Diary {
	q := gateway.Query{Filters: []gateway.Filter{gateway.Eq("author", sess.User)}}
	return &Diary{
		feed:    newFeed[models.DiaryEntry](gw, gateway.DiaryEntries, fixed(q), o),
		sess:    sess,
		voice:   upload.New(gw, gateway.VoiceNotesBucket, o.logger().With("bucket", string(gateway.VoiceNotesBucket))),
		capture: capture,
		opts:    o,
	}
}

func (d *Diary) Title() string { return "diary" }

// Write adds an entry. With withVoice the user is asked for a recording,
// which is uploaded before the entry is stored; declining the recording
// stores the entry without one.
func (d *Diary) Write(ctx context.Context, content string, withVoice bool) (string, error) {
	if blank(content) {
		return "", ErrEmptyContent
	}

	draft := models.DiaryEntry{
		Author:  d.sess.User,
		Content: content,
		Date:    d.opts.now().Format(DiaryDateLayout),
	}

	if !withVoice || d.capture == nil {
		return d.add(ctx, draft, nil), nil
	}

	rec, err := d.capture.CaptureAudio(ctx)
	if errors.Is(err, device.ErrCancelled) {
		return d.add(ctx, draft, nil), nil
	}
	if err != nil {
		return "", err
	}

	persist := func(ctx context.Context, draft models.DiaryEntry) (reconcile.Entity[models.DiaryEntry], error) {
		return upload.UploadThenCreate(ctx, d.voice, rec.Data, upload.TimestampNamer(rec.Ext()),
			func(ctx context.Context, ref string) (reconcile.Entity[models.DiaryEntry], error) {
				draft.AudioURL = ref
				return d.persist(ctx, draft)
			})
	}
	return d.add(ctx, draft, persist), nil
}

func (d *Diary) View() string {
	items := d.Items()
	head := header("My Private Secret Diary", "Just for you, "+d.sess.User+". Shh...")
	if len(items) == 0 {
		st, err := d.state()
		return joinBlocks(head, loadStatus(st, err, "No secrets yet."))
	}

	cards := make([]string, 0, len(items))
	for _, e := range items {
		var b strings.Builder
		b.WriteString(subtitleStyle.Render(e.Payload.Date))
		b.WriteString("  ")
		b.WriteString(entityID(e))
		b.WriteString("\n")
		b.WriteString(e.Payload.Content)
		if e.Payload.AudioURL != "" {
			b.WriteString("\n")
			b.WriteString(subtitleStyle.Render("voice: " + e.Payload.AudioURL))
		}
		cards = append(cards, cardStyle.Render(b.String()))
	}
	return joinBlocks(head, strings.Join(cards, "\n"))
}
