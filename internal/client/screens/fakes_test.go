package screens

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/duet/internal/client/device"
	"github.com/dmitrijs2005/duet/internal/client/reconcile"
	"github.com/dmitrijs2005/duet/internal/client/session"
	"github.com/dmitrijs2005/duet/internal/gateway"
)

var (
	me      = session.Session{User: "Aami", Partner: "Tumi", Token: "t"}
	clock   = time.Date(2024, 3, 4, 15, 5, 0, 0, time.Local)
	errBoom = errors.New("boom")
)

func testOptions() Options {
	return Options{Now: func() time.Time { return clock }, IDs: reconcile.NewIDGenerator()}
}

type queryCall struct {
	coll gateway.Collection
	q    gateway.Query
}

type insertCall struct {
	coll   gateway.Collection
	fields map[string]any
}

type uploadCall struct {
	bucket gateway.Bucket
	name   string
	data   []byte
}

// fakeGateway keeps records in memory. Filters match on the string form of
// a field.
type fakeGateway struct {
	mu      sync.Mutex
	records map[gateway.Collection][]gateway.Record
	seq     int

	queries []queryCall
	inserts []insertCall
	deletes []string
	uploads []uploadCall

	queryErr  error
	insertErr error
	deleteErr error
	uploadErr error

	// gate, when set, holds every Insert until it is closed.
	gate chan struct{}
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{records: map[gateway.Collection][]gateway.Record{}}
}

func (f *fakeGateway) seed(c gateway.Collection, id string, at time.Time, fields map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[c] = append(f.records[c], gateway.Record{ID: id, CreatedAt: at, Fields: fields})
}

func (f *fakeGateway) Query(ctx context.Context, c gateway.Collection, q gateway.Query) ([]gateway.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, queryCall{coll: c, q: q})
	if f.queryErr != nil {
		return nil, f.queryErr
	}

	var out []gateway.Record
	for _, r := range f.records[c] {
		match := true
		for _, flt := range q.Filters {
			if fmt.Sprint(r.Fields[flt.Field]) != flt.Value {
				match = false
			}
		}
		if match {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b gateway.Record) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (f *fakeGateway) Insert(ctx context.Context, c gateway.Collection, fields map[string]any) (gateway.Record, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts = append(f.inserts, insertCall{coll: c, fields: fields})
	if f.insertErr != nil {
		return gateway.Record{}, f.insertErr
	}
	f.seq++
	rec := gateway.Record{
		ID:        "rec-" + strconv.Itoa(f.seq),
		CreatedAt: clock.Add(time.Duration(f.seq) * time.Second),
		Fields:    fields,
	}
	f.records[c] = append(f.records[c], rec)
	return rec, nil
}

func (f *fakeGateway) DeleteByID(ctx context.Context, c gateway.Collection, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.records[c] = slices.DeleteFunc(f.records[c], func(r gateway.Record) bool { return r.ID == id })
	return nil
}

func (f *fakeGateway) UploadBlob(ctx context.Context, b gateway.Bucket, filename string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, uploadCall{bucket: b, name: filename, data: data})
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	return "https://cdn.example.com/" + string(b) + "/" + filename, nil
}

func (f *fakeGateway) insertCalls() []insertCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.inserts)
}

func (f *fakeGateway) uploadCalls() []uploadCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.uploads)
}

func (f *fakeGateway) lastQuery(t *testing.T) queryCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.queries)
	return f.queries[len(f.queries)-1]
}

type fakeCapture struct {
	audio    device.Media
	audioErr error
	file     device.Media
	fileErr  error
	accepts  []string
}

func (c *fakeCapture) CaptureAudio(ctx context.Context) (device.Media, error) {
	return c.audio, c.audioErr
}

func (c *fakeCapture) PickFile(ctx context.Context, accept string) (device.Media, error) {
	c.accepts = append(c.accepts, accept)
	return c.file, c.fileErr
}

func ids[T any](items []reconcile.Entity[T]) []string {
	out := make([]string, 0, len(items))
	for _, e := range items {
		out = append(out, e.ID)
	}
	return out
}
