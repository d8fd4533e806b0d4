// Package board owns the canonical list of boards.
//
// A Store is the only writer of board state. Every mutation is applied to a
// copy of the state, persisted as one JSON document through a storage.Store,
// and only then committed and announced on the event bus. A failed write
// leaves the in-memory state untouched. Readers always receive deep copies.
package board

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Iron-Ham/mindnode/internal/errors"
	"github.com/Iron-Ham/mindnode/internal/event"
	"github.com/Iron-Ham/mindnode/internal/layout"
	"github.com/Iron-Ham/mindnode/internal/logging"
	"github.com/Iron-Ham/mindnode/internal/metrics"
	"github.com/Iron-Ham/mindnode/internal/model"
	"github.com/Iron-Ham/mindnode/internal/plan"
	"github.com/Iron-Ham/mindnode/internal/storage"
)

// DefaultKey is the storage key of the state document.
const DefaultKey = "mind-node-storage"

// documentVersion is written alongside the state for forward migrations.
const documentVersion = 0

// document is the persisted shape: {"state": {...}, "version": 0}.
type document struct {
	State   model.State `json:"state"`
	Version int         `json:"version"`
}

// Flusher is flushed by Close before the store shuts down.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Store holds all boards and persists every mutation.
type Store struct {
	mu        sync.Mutex
	state     model.State
	lastSaved []byte
	closed    bool
	flushers  []Flusher

	backend storage.Store
	key     string

	bus         *event.Bus
	ownBus      bool
	logger      *logging.Logger
	metrics     *metrics.Metrics
	engine      layout.Engine
	newID       func() string
	now         func() time.Time
	description string
}

// Option configures a Store.
type Option func(*Store)

// WithKey sets the storage key of the state document.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithMetrics enables instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithBus publishes events on bus instead of a private one.
func WithBus(bus *event.Bus) Option {
	return func(s *Store) { s.bus = bus }
}

// WithEngine sets the layout engine used by imports and relayouts.
func WithEngine(e layout.Engine) Option {
	return func(s *Store) { s.engine = e }
}

// WithIDGenerator sets the id generator for boards, nodes and connections.
func WithIDGenerator(f func() string) Option {
	return func(s *Store) { s.newID = f }
}

// WithClock sets the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithImportDescription sets the description of imported boards whose plan
// has none.
func WithImportDescription(d string) Option {
	return func(s *Store) { s.description = d }
}

// Open loads the state document from backend, or starts from an empty state
// when none exists yet.
func Open(ctx context.Context, backend storage.Store, opts ...Option) (*Store, error) {
	s := &Store{
		backend:     backend,
		key:         DefaultKey,
		newID:       uuid.NewString,
		now:         time.Now,
		description: plan.DefaultDescription,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NopLogger()
	}
	s.logger = s.logger.WithComponent("board")
	if s.bus == nil {
		s.bus = event.NewBus(s.logger)
		s.ownBus = true
	}
	s.engine = metrics.InstrumentEngine(s.engine, s.metrics)

	data, err := backend.Load(ctx, s.key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.state = model.NewState()
		s.logger.Info("starting with empty state", "backend", backend.Name(), "key", s.key)
	case err != nil:
		return nil, errors.NewStorageError("failed to load state", err).
			WithKey(s.key).WithBackend(backend.Name())
	default:
		st, err := decode(data)
		if err != nil {
			return nil, errors.NewStorageError("failed to decode state", err).
				WithKey(s.key).WithBackend(backend.Name()).WithSeverity(errors.SeverityCritical)
		}
		s.state = st
		s.lastSaved = data
		s.logger.Info("state loaded", "backend", backend.Name(), "boards", len(st.Boards))
	}

	s.metrics.SetBoards(len(s.state.Boards))
	return s, nil
}

// decode parses a state document, filling defaults for missing sections.
func decode(data []byte) (model.State, error) {
	doc := document{State: model.NewState()}
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.State{}, errors.Join(errors.ErrStorageCorrupted, err)
	}
	st := doc.State
	if st.Boards == nil {
		st.Boards = []model.Board{}
	}
	for i := range st.Boards {
		if st.Boards[i].Nodes == nil {
			st.Boards[i].Nodes = []model.Node{}
		}
		if st.Boards[i].Connections == nil {
			st.Boards[i].Connections = []model.Connection{}
		}
	}
	return st, nil
}

func encode(st model.State) ([]byte, error) {
	return json.Marshal(document{State: st, Version: documentVersion})
}

// mutate runs fn on a copy of the state, persists the result and commits it.
// fn returns the event to publish once committed, or nil.
func (s *Store) mutate(ctx context.Context, op string, fn func(st *model.State) (event.Event, error)) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.ErrStoreClosed
	}

	next := s.state.Clone()
	ev, err := fn(&next)
	if err == nil {
		err = s.persist(ctx, next)
	}
	if err == nil {
		s.state = next
	}
	boards := len(s.state.Boards)
	s.mu.Unlock()

	s.metrics.ObserveMutation(op, err)
	if err != nil {
		switch {
		case errors.IsNotFound(err):
			s.logger.Debug("mutation target not found", "operation", op, "error", err)
		case errors.GetSeverity(err) >= errors.SeverityError:
			s.logger.Error("mutation failed", "operation", op, "error", err)
		default:
			s.logger.Warn("mutation rejected", "operation", op, "error", err)
		}
		return err
	}

	s.metrics.SetBoards(boards)
	if ev != nil {
		s.bus.Publish(ev)
	}
	return nil
}

// persist writes st. Callers hold s.mu.
func (s *Store) persist(ctx context.Context, st model.State) error {
	data, err := encode(st)
	if err != nil {
		return errors.NewStorageError("failed to encode state", err).WithKey(s.key)
	}

	start := time.Now()
	if err := s.backend.Save(ctx, s.key, data); err != nil {
		return errors.NewStorageError("failed to save state", err).
			WithKey(s.key).WithBackend(s.backend.Name())
	}
	s.metrics.ObserveSave(time.Since(start))
	s.lastSaved = data
	return nil
}

// touch refreshes b.UpdatedAt, keeping it strictly after both the creation
// time and the previous update even when the clock has not advanced.
func (s *Store) touch(b *model.Board) {
	floor := b.UpdatedAt
	if b.CreatedAt.After(floor) {
		floor = b.CreatedAt
	}
	t := s.now()
	if !t.After(floor) {
		t = floor.Add(time.Millisecond)
	}
	b.UpdatedAt = t
}

// find returns the board with id in st.
func find(st *model.State, id string) (*model.Board, int, error) {
	for i := range st.Boards {
		if st.Boards[i].ID == id {
			return &st.Boards[i], i, nil
		}
	}
	return nil, -1, errors.BoardNotFound(id)
}

// Reload re-reads the state document and replaces the in-memory state when
// it differs from what this store last wrote. It reports whether anything
// changed.
func (s *Store) Reload(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, errors.ErrStoreClosed
	}

	data, err := s.backend.Load(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		s.mu.Unlock()
		s.logger.Warn("state document disappeared, keeping in-memory state", "key", s.key)
		return false, nil
	}
	if err != nil {
		s.mu.Unlock()
		return false, errors.NewStorageError("failed to reload state", err).
			WithKey(s.key).WithBackend(s.backend.Name())
	}
	if bytes.Equal(data, s.lastSaved) {
		s.mu.Unlock()
		return false, nil
	}

	st, err := decode(data)
	if err != nil {
		s.mu.Unlock()
		return false, errors.NewStorageError("failed to decode reloaded state", err).
			WithKey(s.key).WithBackend(s.backend.Name())
	}
	s.state = st
	s.lastSaved = data
	boards := len(st.Boards)
	s.mu.Unlock()

	s.logger.Info("state reloaded", "boards", boards)
	s.metrics.SetBoards(boards)
	s.bus.Publish(event.NewStateReloadedEvent(boards))
	return true, nil
}

// Subscribe registers handler for every store event and returns the
// subscription id.
func (s *Store) Subscribe(handler event.Handler) string {
	return s.bus.SubscribeAll(handler)
}

// SubscribeTo registers handler for one event type.
func (s *Store) SubscribeTo(eventType string, handler event.Handler) string {
	return s.bus.Subscribe(eventType, handler)
}

// Unsubscribe removes a subscription.
func (s *Store) Unsubscribe(id string) bool {
	return s.bus.Unsubscribe(id)
}

// AddFlusher registers f to be flushed by Close.
func (s *Store) AddFlusher(f Flusher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushers = append(s.flushers, f)
}

// Close flushes registered flushers and rejects further mutations. The
// backend is left open; its owner closes it.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	flushers := append([]Flusher(nil), s.flushers...)
	s.mu.Unlock()

	var errs []error
	for _, f := range flushers {
		if err := f.Flush(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	// A bus passed in with WithBus may have other subscribers.
	dropped := 0
	if s.ownBus {
		dropped = s.bus.SubscriptionCount()
		s.bus.Clear()
	}
	s.logger.Info("store closed", "subscriptions_dropped", dropped)
	return errors.Join(errs...)
}

// Key returns the storage key of the state document.
func (s *Store) Key() string { return s.key }

// Backend returns the storage backend.
func (s *Store) Backend() storage.Store { return s.backend }

// State returns a copy of the whole state.
func (s *Store) State() model.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}
