// Package screens holds the screen controllers of the client. Each one
// keeps a reconcile.Store per remote collection it shows, turns user
// actions into drafts and renders the current state.
package screens

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/duet/internal/client/reconcile"
	"github.com/dmitrijs2005/duet/internal/common"
	"github.com/dmitrijs2005/duet/internal/gateway"
	"github.com/dmitrijs2005/duet/internal/logging"
)

var (
	// ErrEmptyContent rejects drafts whose text is blank.
	ErrEmptyContent = errors.New("content is empty")
	// ErrPending is returned when deleting an entity the server has not
	// acknowledged yet.
	ErrPending = errors.New("still saving, try again in a moment")
)

// Options are shared by every screen constructor. Zero values pick the
// defaults.
type Options struct {
	Logger logging.Logger
	// OnChange is called after any visible change of any store on the
	// screen.
	OnChange func()
	Now      func() time.Time
	IDs      *reconcile.IDGenerator
}

func (o Options) logger() logging.Logger {
	if o.Logger == nil {
		return logging.Nop{}
	}
	return o.Logger
}

func (o Options) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// Screen is what the REPL needs from a controller.
type Screen interface {
	Title() string
	Load(ctx context.Context) error
	View() string
	Count() int
	Failures() []reconcile.Failure
	Wait()
	Close()
}

// feed binds one store to a gateway collection. scope is evaluated on every
// load so date-scoped queries follow the clock.
type feed[T any] struct {
	gw     gateway.Gateway
	coll   gateway.Collection
	scope  func() gateway.Query
	store  *reconcile.Store[T]
	logger logging.Logger
}

func newFeed[T any](gw gateway.Gateway, c gateway.Collection, scope func() gateway.Query, o Options) *feed[T] {
	logger := o.logger().With("collection", string(c))
	return &feed[T]{
		gw:     gw,
		coll:   c,
		scope:  scope,
		logger: logger,
		store: reconcile.New(reconcile.Options[T]{
			IDs:      o.IDs,
			Now:      o.Now,
			Logger:   logger,
			OnChange: o.OnChange,
		}),
	}
}

func fixed(q gateway.Query) func() gateway.Query {
	return func() gateway.Query { return q }
}

func toEntity[T any](r gateway.Record) (reconcile.Entity[T], error) {
	p, err := gateway.Decode[T](r)
	if err != nil {
		return reconcile.Entity[T]{}, err
	}
	return reconcile.Entity[T]{ID: r.ID, CreatedAt: r.CreatedAt, Payload: p}, nil
}

func (f *feed[T]) fetch(ctx context.Context) ([]reconcile.Entity[T], error) {
	recs, err := f.gw.Query(ctx, f.coll, f.scope())
	if err != nil {
		return nil, err
	}
	out := make([]reconcile.Entity[T], 0, len(recs))
	for _, r := range recs {
		e, err := toEntity[T](r)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *feed[T]) persist(ctx context.Context, draft T) (reconcile.Entity[T], error) {
	fields, err := gateway.Fields(draft)
	if err != nil {
		return reconcile.Entity[T]{}, err
	}
	rec, err := f.gw.Insert(ctx, f.coll, fields)
	if err != nil {
		return reconcile.Entity[T]{}, err
	}
	return toEntity[T](rec)
}

func (f *feed[T]) remove(ctx context.Context, id string) error {
	return f.gw.DeleteByID(ctx, f.coll, id)
}

// Load replaces the feed with the remote collection.
func (f *feed[T]) Load(ctx context.Context) error {
	return f.store.Load(ctx, f.fetch)
}

func (f *feed[T]) add(ctx context.Context, draft T, persist reconcile.PersistFunc[T]) string {
	if persist == nil {
		persist = f.persist
	}
	return f.store.InsertOptimistic(ctx, draft, persist)
}

// Delete removes a confirmed entity optimistically.
func (f *feed[T]) Delete(ctx context.Context, id string) error {
	if reconcile.IsPlaceholder(id) {
		return ErrPending
	}
	if _, ok := f.store.Get(id); !ok {
		return fmt.Errorf("%w: %s", common.ErrorNotFound, id)
	}
	f.store.DeleteOptimistic(ctx, id, f.remove)
	return nil
}

// Items is the current ordered view.
func (f *feed[T]) Items() []reconcile.Entity[T] {
	return f.store.Current()
}

func (f *feed[T]) Count() int {
	return len(f.store.Current())
}

// Failures returns reconciliation failures since the previous call.
func (f *feed[T]) Failures() []reconcile.Failure {
	return f.store.TakeFailures()
}

// Wait blocks until pending writes are reconciled.
func (f *feed[T]) Wait() { f.store.Wait() }

func (f *feed[T]) Close() { f.store.Close() }

func (f *feed[T]) Closed() bool { return f.store.Closed() }

func (f *feed[T]) state() (reconcile.State, error) {
	return f.store.State()
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
