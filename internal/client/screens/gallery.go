package screens

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/duet/internal/client/device"
	"github.com/dmitrijs2005/duet/internal/client/reconcile"
	"github.com/dmitrijs2005/duet/internal/client/session"
	"github.com/dmitrijs2005/duet/internal/client/upload"
	"github.com/dmitrijs2005/duet/internal/gateway"
	"github.com/dmitrijs2005/duet/internal/models"
)

// MemoryDateLayout is the display date stored with each photo.
const MemoryDateLayout = "Jan 2, 3:04 PM"

// Gallery shows every memory, newest first.
type Gallery struct {
	*feed[models.Memory]
	sess    session.Session
	photos  *upload.Pipeline
	capture device.Capture
	opts    Options
}

var _ Screen = (*Gallery)(nil)

func NewGallery(sess session.Session, gw gateway.Gateway, capture device.Capture, o Options) *Gallery {
	return &Gallery{
		feed:    newFeed[models.Memory](gw, gateway.Memories, fixed(gateway.Query{}), o),
		sess:    sess,
		photos:  upload.New(gw, gateway.MemoriesBucket, o.logger().With("bucket", string(gateway.MemoriesBucket))),
		capture: capture,
		opts:    o,
	}
}

func (g *Gallery) Title() string { return "gallery" }

// Add asks for a photo and shows it at once; the upload and the record
// insert run in the background. An upload failure evicts the photo.
func (g *Gallery) Add(ctx context.Context, caption string) (string, error) {
	photo, err := g.capture.PickFile(ctx, "image/*")
	if err != nil {
		return "", err
	}

	draft := models.Memory{
		Author:  g.sess.User,
		Caption: strings.TrimSpace(caption),
		Date:    g.opts.now().Format(MemoryDateLayout),
	}

	persist := func(ctx context.Context, draft models.Memory) (reconcile.Entity[models.Memory], error) {
		return upload.UploadThenCreate(ctx, g.photos, photo.Data, upload.TimestampNamer(photo.Ext()),
			func(ctx context.Context, ref string) (reconcile.Entity[models.Memory], error) {
				draft.URL = ref
				return g.persist(ctx, draft)
			})
	}
	return g.add(ctx, draft, persist), nil
}

func (g *Gallery) View() string {
	items := g.Items()
	head := header("Our Memories", "Every picture tells our story.")
	if len(items) == 0 {
		st, err := g.state()
		return joinBlocks(head, loadStatus(st, err, "No photos yet. Add the first one!"))
	}

	cards := make([]string, 0, len(items))
	for _, e := range items {
		var b strings.Builder
		b.WriteString(entityID(e))
		b.WriteString("  ")
		b.WriteString(subtitleStyle.Render(e.Payload.Date + " by " + e.Payload.Author))
		if e.Payload.Caption != "" {
			b.WriteString("\n")
			b.WriteString(e.Payload.Caption)
		}
		if e.Payload.URL != "" {
			b.WriteString("\n")
			b.WriteString(idStyle.Render(e.Payload.URL))
		}
		cards = append(cards, cardStyle.Render(b.String()))
	}
	return joinBlocks(head, strings.Join(cards, "\n"))
}
