package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/duet/internal/client/client"
	"github.com/dmitrijs2005/duet/internal/client/session"
	"github.com/dmitrijs2005/duet/internal/gateway"
	"github.com/dmitrijs2005/duet/internal/logging"
)

// fakeClient is an in-memory gateway plus scripted account calls.
type fakeClient struct {
	mu      sync.Mutex
	records map[gateway.Collection][]gateway.Record
	seq     int

	loginName, loginPin string
	loginSess           session.Session
	loginErr            error

	pins      []string
	changeErr error

	pingErr   error
	insertErr error
	deleteErr error
	loggedOut bool
	closed    bool
}

var _ client.Client = (*fakeClient)(nil)

func newFakeClient() *fakeClient {
	return &fakeClient{
		records:   map[gateway.Collection][]gateway.Record{},
		loginSess: session.Session{User: "Aami", Partner: "Tumi", Token: "t"},
	}
}

func (f *fakeClient) Query(ctx context.Context, c gateway.Collection, q gateway.Query) ([]gateway.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []gateway.Record
	for _, r := range f.records[c] {
		ok := true
		for _, flt := range q.Filters {
			if fmt.Sprint(r.Fields[flt.Field]) != flt.Value {
				ok = false
			}
		}
		if ok {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b gateway.Record) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (f *fakeClient) Insert(ctx context.Context, c gateway.Collection, fields map[string]any) (gateway.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return gateway.Record{}, f.insertErr
	}
	f.seq++
	rec := gateway.Record{ID: "rec-" + strconv.Itoa(f.seq), CreatedAt: time.Now(), Fields: fields}
	f.records[c] = append(f.records[c], rec)
	return rec, nil
}

func (f *fakeClient) DeleteByID(ctx context.Context, c gateway.Collection, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.records[c] = slices.DeleteFunc(f.records[c], func(r gateway.Record) bool { return r.ID == id })
	return nil
}

func (f *fakeClient) UploadBlob(ctx context.Context, b gateway.Bucket, filename string, data []byte) (string, error) {
	return "https://cdn.example.com/" + string(b) + "/" + filename, nil
}

func (f *fakeClient) Close() error { f.closed = true; return nil }

func (f *fakeClient) Login(ctx context.Context, name, pin string) (session.Session, error) {
	f.loginName, f.loginPin = name, pin
	if f.loginErr != nil {
		return session.Session{}, f.loginErr
	}
	return f.loginSess, nil
}

func (f *fakeClient) Logout() { f.loggedOut = true }

func (f *fakeClient) ChangePin(ctx context.Context, oldPin, newPin, confirmPin string) error {
	f.pins = []string{oldPin, newPin, confirmPin}
	return f.changeErr
}

func (f *fakeClient) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeClient) count(c gateway.Collection) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records[c])
}

// captureOutput collects everything printed through printlnFn.
func captureOutput(t *testing.T) *strings.Builder {
	t.Helper()
	var mu sync.Mutex
	var b strings.Builder
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		return fmt.Fprintln(&b, a...)
	}
	t.Cleanup(func() { printlnFn = orig })
	return &b
}

// stubInputs scripts the prompt answers. Text prompts and secret prompts
// each consume their own queue.
func stubInputs(t *testing.T, texts []string, secrets []string) {
	t.Helper()
	origST, origGP, origML, origCF := getSimpleText, getPassword, getMultiline, confirm

	next := func(q *[]string) string {
		if len(*q) == 0 {
			return ""
		}
		v := (*q)[0]
		*q = (*q)[1:]
		return v
	}
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) { return next(&texts), nil }
	getMultiline = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) { return next(&texts), nil }
	confirm = func(_ *bufio.Reader, _ string, _ io.Writer) (bool, error) {
		return next(&texts) == "y", nil
	}
	getPassword = func(_ io.Writer, _ string) ([]byte, error) { return []byte(next(&secrets)), nil }

	t.Cleanup(func() {
		getSimpleText, getPassword, getMultiline, confirm = origST, origGP, origML, origCF
	})
}

func newTestApp(c *fakeClient) *App {
	return &App{
		client: c,
		logger: logging.Nop{},
		reader: bufio.NewReader(strings.NewReader("")),
	}
}

func loggedIn(c *fakeClient) *App {
	a := newTestApp(c)
	a.session = c.loginSess
	a.mode = ModeOnline
	return a
}
