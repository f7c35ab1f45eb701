package reconcile

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/duet/internal/common"
	"github.com/dmitrijs2005/duet/internal/logging"
)

// ErrClosed is returned by Load on a closed store.
var ErrClosed = errors.New("store closed")

// State is the load state of a store.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateLoadFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateLoadFailed:
		return "load-failed"
	}
	return "idle"
}

// Op names the operation a Failure belongs to.
type Op string

const (
	OpLoad   Op = "load"
	OpInsert Op = "insert"
	OpDelete Op = "delete"
)

// Failure is a recorded reconciliation failure. Err wraps one of
// common.ErrLoadFailure, common.ErrInsertFailure or common.ErrDeleteFailure.
type Failure struct {
	Op  Op
	ID  string
	Err error
}

type (
	// FetchFunc lists the whole remote collection.
	FetchFunc[T any] func(ctx context.Context) ([]Entity[T], error)
	// PersistFunc writes a draft and returns the canonical entity.
	PersistFunc[T any] func(ctx context.Context, draft T) (Entity[T], error)
	// RemoveFunc deletes an entity remotely.
	RemoveFunc func(ctx context.Context, id string) error
)

// Options configure a Store. Zero values pick the defaults.
type Options[T any] struct {
	// Compare orders the collection; NewestFirst when nil.
	Compare func(a, b Entity[T]) int
	IDs     *IDGenerator
	Now     func() time.Time
	Logger  logging.Logger
	// OnChange is called outside the store lock after every visible
	// change. Read the new state with Current.
	OnChange func()
}

// Store owns the in-memory copy of one collection. Synchronous effects and
// reconciliations are serialized by mu; remote calls run in their own
// goroutines. Results are matched back by id, so they may arrive in any
// order.
type Store[T any] struct {
	mu      sync.Mutex
	items   []Entity[T]
	state   State
	loadErr error
	loadSeq uint64
	// version is bumped by every change to items.
	version uint64
	closed  bool

	failures []Failure
	// inserting holds placeholders whose persist has not returned.
	inserting map[string]struct{}
	// deleting counts in-flight deletes per id.
	deleting map[string]int
	// resolved maps placeholders to their canonical entity (nil when
	// evicted) while any delete is in flight, so rollbacks never revive
	// a stale placeholder.
	resolved map[string]*Entity[T]
	// confirmed holds inserts confirmed while a fetch is in flight; that
	// fetch may predate them.
	confirmed map[string]Entity[T]

	wg sync.WaitGroup

	compare  func(a, b Entity[T]) int
	ids      *IDGenerator
	now      func() time.Time
	logger   logging.Logger
	onChange func()
}

// New returns an idle, empty store.
func New[T any](opts Options[T]) *Store[T] {
	s := &Store[T]{
		inserting: map[string]struct{}{},
		deleting:  map[string]int{},
		resolved:  map[string]*Entity[T]{},
		compare:   opts.Compare,
		ids:       opts.IDs,
		now:       opts.Now,
		logger:    opts.Logger,
		onChange:  opts.OnChange,
	}
	if s.compare == nil {
		s.compare = NewestFirst[T]
	}
	if s.ids == nil {
		s.ids = defaultIDs
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = logging.Nop{}
	}
	return s
}

// Load replaces the collection with the result of fetch. Entities with an
// unresolved insert stay visible; ids with an in-flight delete stay hidden.
// On failure the collection is emptied, the state becomes StateLoadFailed
// and the returned error wraps common.ErrLoadFailure.
func (s *Store[T]) Load(ctx context.Context, fetch FetchFunc[T]) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.loadSeq++
	seq := s.loadSeq
	s.state = StateLoading
	s.confirmed = map[string]Entity[T]{}
	s.mu.Unlock()
	s.notify()

	fetched, err := fetch(ctx)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if seq != s.loadSeq {
		// a newer Load owns the state
		s.mu.Unlock()
		return nil
	}

	confirmed := s.confirmed
	s.confirmed = nil

	if err != nil {
		s.items = nil
		s.version++
		s.state = StateLoadFailed
		s.loadErr = fmt.Errorf("%w: %w", common.ErrLoadFailure, err)
		s.failures = append(s.failures, Failure{Op: OpLoad, Err: s.loadErr})
		loadErr := s.loadErr
		s.mu.Unlock()

		s.logger.Warn(ctx, "load failed", "error", err)
		s.notify()
		return loadErr
	}

	seen := make(map[string]struct{}, len(fetched))
	next := make([]Entity[T], 0, len(fetched)+len(s.inserting))
	for _, e := range fetched {
		if _, dup := seen[e.ID]; dup {
			continue
		}
		if s.deleting[e.ID] > 0 {
			continue
		}
		seen[e.ID] = struct{}{}
		next = append(next, e)
	}
	for _, e := range s.items {
		if _, ok := s.inserting[e.ID]; ok {
			next = append(next, e)
		}
	}
	for id, e := range confirmed {
		if _, ok := seen[id]; ok || s.deleting[id] > 0 {
			continue
		}
		seen[id] = struct{}{}
		next = append(next, e)
	}
	slices.SortStableFunc(next, s.compare)

	s.items = next
	s.version++
	s.state = StateReady
	s.loadErr = nil
	n := len(next)
	s.mu.Unlock()

	s.logger.Debug(ctx, "loaded", "count", n)
	s.notify()
	return nil
}

// InsertOptimistic shows draft immediately under a fresh placeholder id and
// returns that id. persist runs in the background; on success the
// placeholder is replaced by the canonical entity, on failure it is evicted
// and an insert failure is recorded. Exactly one of the two happens.
// A closed store ignores the call and returns "".
func (s *Store[T]) InsertOptimistic(ctx context.Context, draft T, persist PersistFunc[T]) string {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ""
	}

	id := s.ids.Next()
	s.insertSortedLocked(Entity[T]{ID: id, CreatedAt: s.now(), Payload: draft})
	s.inserting[id] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()
	s.notify()

	go func() {
		defer s.wg.Done()
		canonical, err := persist(ctx, draft)
		if err == nil && (canonical.ID == "" || IsPlaceholder(canonical.ID)) {
			err = fmt.Errorf("persist returned non-canonical id %q", canonical.ID)
		}
		s.resolveInsert(ctx, id, canonical, err)
	}()

	return id
}

func (s *Store[T]) resolveInsert(ctx context.Context, id string, canonical Entity[T], err error) {
	s.mu.Lock()
	delete(s.inserting, id)
	if s.closed {
		s.mu.Unlock()
		s.logger.Debug(ctx, "insert resolved after close", "id", id)
		return
	}

	if len(s.deleting) > 0 {
		if err != nil {
			s.resolved[id] = nil
		} else {
			c := canonical
			s.resolved[id] = &c
		}
	}

	if err != nil {
		if s.removeLocked(id) {
			s.version++
		}
		s.failures = append(s.failures, Failure{
			Op:  OpInsert,
			ID:  id,
			Err: fmt.Errorf("%w: %w", common.ErrInsertFailure, err),
		})
		s.mu.Unlock()

		s.logger.Warn(ctx, "insert evicted", "id", id, "error", err)
		s.notify()
		return
	}

	idx := s.indexLocked(id)
	switch {
	case idx < 0:
		// the placeholder was removed while the insert was in flight
		s.mu.Unlock()
		s.logger.Debug(ctx, "insert resolved without placeholder", "id", id, "canonical", canonical.ID)
		return
	case s.indexLocked(canonical.ID) >= 0:
		s.items = slices.Delete(s.items, idx, idx+1)
	default:
		s.items[idx] = canonical
		slices.SortStableFunc(s.items, s.compare)
	}
	if s.state == StateLoading {
		s.confirmed[canonical.ID] = canonical
	}
	s.version++
	s.mu.Unlock()

	s.logger.Debug(ctx, "insert confirmed", "id", id, "canonical", canonical.ID)
	s.notify()
}

// DeleteOptimistic hides the entity with id immediately. remove runs in the
// background; success is final, failure restores the entity and records a
// delete failure. An unknown id is a no-op and remove is not called.
func (s *Store[T]) DeleteOptimistic(ctx context.Context, id string, remove RemoveFunc) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return
	}

	snapshot := slices.Clone(s.items)
	removed := s.items[idx]
	delete(s.confirmed, id)
	s.items = slices.Delete(s.items, idx, idx+1)
	s.version++
	after := s.version
	s.deleting[id]++
	s.wg.Add(1)
	s.mu.Unlock()
	s.notify()

	go func() {
		defer s.wg.Done()
		err := remove(ctx, id)
		s.resolveDelete(ctx, removed, snapshot, after, err)
	}()
}

func (s *Store[T]) resolveDelete(ctx context.Context, removed Entity[T], snapshot []Entity[T], after uint64, err error) {
	s.mu.Lock()
	id := removed.ID
	if s.deleting[id]--; s.deleting[id] <= 0 {
		delete(s.deleting, id)
	}

	if s.closed {
		s.pruneResolvedLocked()
		s.mu.Unlock()
		s.logger.Debug(ctx, "delete resolved after close", "id", id)
		return
	}
	if err == nil {
		s.pruneResolvedLocked()
		s.mu.Unlock()
		s.logger.Debug(ctx, "delete confirmed", "id", id)
		return
	}

	if s.version == after {
		s.items = snapshot
	} else if s.indexLocked(id) < 0 {
		s.restoreLocked(removed, snapshot)
	}
	s.remapPlaceholdersLocked()
	s.pruneResolvedLocked()
	s.version++
	s.failures = append(s.failures, Failure{
		Op:  OpDelete,
		ID:  id,
		Err: fmt.Errorf("%w: %w", common.ErrDeleteFailure, err),
	})
	s.mu.Unlock()

	s.logger.Warn(ctx, "delete rolled back", "id", id, "error", err)
	s.notify()
}

// remapPlaceholdersLocked replaces restored placeholders whose insert has
// already resolved with their canonical entity, or drops them when evicted.
func (s *Store[T]) remapPlaceholdersLocked() {
	out := s.items[:0:0]
	seen := make(map[string]struct{}, len(s.items))
	for _, e := range s.items {
		if IsPlaceholder(e.ID) {
			if _, pending := s.inserting[e.ID]; !pending {
				c, ok := s.resolved[e.ID]
				if !ok || c == nil {
					continue
				}
				e = *c
			}
		}
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	slices.SortStableFunc(out, s.compare)
	s.items = out
}

func (s *Store[T]) pruneResolvedLocked() {
	if len(s.deleting) == 0 {
		clear(s.resolved)
	}
}

// Current returns a copy of the ordered collection.
func (s *Store[T]) Current() []Entity[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// Get returns the entity with id.
func (s *Store[T]) Get(id string) (Entity[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.items[i], true
	}
	return Entity[T]{}, false
}

// State returns the load state and, when StateLoadFailed, the load error.
func (s *Store[T]) State() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.loadErr
}

// Pending is the number of unresolved inserts and deletes.
func (s *Store[T]) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.inserting)
	for _, c := range s.deleting {
		n += c
	}
	return n
}

// TakeFailures returns the failures recorded since the previous call.
func (s *Store[T]) TakeFailures() []Failure {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.failures
	s.failures = nil
	return f
}

// Wait blocks until every background persist has been reconciled.
func (s *Store[T]) Wait() {
	s.wg.Wait()
}

// Close marks the store dead. Reconciliations arriving later change
// nothing and no further operations are accepted.
func (s *Store[T]) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Closed reports whether Close was called.
func (s *Store[T]) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Store[T]) indexLocked(id string) int {
	return slices.IndexFunc(s.items, func(e Entity[T]) bool { return e.ID == id })
}

func (s *Store[T]) removeLocked(id string) bool {
	i := s.indexLocked(id)
	if i < 0 {
		return false
	}
	s.items = slices.Delete(s.items, i, i+1)
	return true
}

// insertSortedLocked places e after every entity that does not order
// strictly after it, keeping ties in insertion order.
func (s *Store[T]) insertSortedLocked(e Entity[T]) {
	i := len(s.items)
	for j, cur := range s.items {
		if s.compare(e, cur) < 0 {
			i = j
			break
		}
	}
	s.items = slices.Insert(s.items, i, e)
	s.version++
}

// restoreLocked puts a rolled-back entity back in its sort position. Among
// entities that compare equal to it, it goes before the first one that
// followed it in snapshot, so ties keep their pre-delete order.
func (s *Store[T]) restoreLocked(e Entity[T], snapshot []Entity[T]) {
	after := map[string]struct{}{}
	if i := slices.IndexFunc(snapshot, func(x Entity[T]) bool { return x.ID == e.ID }); i >= 0 {
		for _, x := range snapshot[i+1:] {
			after[x.ID] = struct{}{}
		}
	}

	pos := len(s.items)
	for j, cur := range s.items {
		c := s.compare(e, cur)
		if c < 0 {
			pos = j
			break
		}
		if _, ok := after[cur.ID]; ok && c == 0 {
			pos = j
			break
		}
	}
	s.items = slices.Insert(s.items, pos, e)
	s.version++
}

func (s *Store[T]) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}
