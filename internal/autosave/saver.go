// Package autosave batches rapid canvas edits into one store write per
// board after a quiet period.
package autosave

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Iron-Ham/mindnode/internal/errors"
	"github.com/Iron-Ham/mindnode/internal/logging"
	"github.com/Iron-Ham/mindnode/internal/model"
)

// DefaultDelay is the quiet period before a scheduled canvas is written.
const DefaultDelay = 2 * time.Second

// ErrStopped is returned by Schedule after Stop.
var ErrStopped = errors.New("autosave stopped")

// Canvas is the payload written for a board.
type Canvas struct {
	Nodes       []model.Node       `json:"nodes"`
	Connections []model.Connection `json:"connections"`
}

// Sink persists a board canvas. *board.Store implements it.
type Sink interface {
	SaveCanvas(ctx context.Context, boardID string, nodes []model.Node, conns []model.Connection) error
}

type pending struct {
	canvas Canvas
	timer  *time.Timer
	gen    uint64
}

// Saver debounces canvas writes per board. Each board has its own timer, so
// edits to one board never delay another.
type Saver struct {
	sink   Sink
	delay  time.Duration
	logger *logging.Logger

	mu      sync.Mutex
	pending map[string]*pending
	gen     uint64
	stopped bool
	flying  sync.WaitGroup
}

// New returns a Saver writing to sink after delay. A non-positive delay
// uses DefaultDelay.
func New(sink Sink, delay time.Duration, logger *logging.Logger) *Saver {
	if delay <= 0 {
		delay = DefaultDelay
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Saver{
		sink:    sink,
		delay:   delay,
		logger:  logger.WithComponent("autosave"),
		pending: make(map[string]*pending),
	}
}

// Delay returns the quiet period.
func (s *Saver) Delay() time.Duration { return s.delay }

// Schedule replaces the board's pending canvas and restarts its timer.
func (s *Saver) Schedule(boardID string, c Canvas) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}

	s.gen++
	gen := s.gen
	if p, ok := s.pending[boardID]; ok {
		p.timer.Stop()
	}
	s.pending[boardID] = &pending{
		canvas: c,
		gen:    gen,
		timer:  time.AfterFunc(s.delay, func() { s.fire(boardID, gen) }),
	}
	return nil
}

// fire writes the board's canvas if it is still the one gen scheduled.
func (s *Saver) fire(boardID string, gen uint64) {
	s.mu.Lock()
	p, ok := s.pending[boardID]
	if !ok || p.gen != gen {
		s.mu.Unlock()
		return
	}
	delete(s.pending, boardID)
	s.flying.Add(1)
	s.mu.Unlock()

	defer s.flying.Done()
	s.write(context.Background(), boardID, p.canvas)
}

func (s *Saver) write(ctx context.Context, boardID string, c Canvas) error {
	err := s.sink.SaveCanvas(ctx, boardID, c.Nodes, c.Connections)
	log := s.logger.WithBoard(boardID)
	if err != nil {
		log.Warn("autosave failed", "error", err)
		return err
	}
	log.Debug("canvas saved", "nodes", len(c.Nodes), "connections", len(c.Connections))
	return nil
}

// Flush writes every pending canvas now, in board id order, and waits for
// timer-triggered writes already in progress.
func (s *Saver) Flush(ctx context.Context) error {
	s.mu.Lock()
	batch := s.pending
	s.pending = make(map[string]*pending)
	for _, p := range batch {
		p.timer.Stop()
	}
	s.mu.Unlock()

	ids := make([]string, 0, len(batch))
	for id := range batch {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var errs []error
	for _, id := range ids {
		if err := s.write(ctx, id, batch[id].canvas); err != nil {
			errs = append(errs, err)
		}
	}
	s.flying.Wait()
	return errors.Join(errs...)
}

// Stop rejects further scheduling and flushes what is pending.
func (s *Saver) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	return s.Flush(ctx)
}

// Pending returns the number of boards with an unwritten canvas.
func (s *Saver) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
