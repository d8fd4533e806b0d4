package autosave

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Iron-Ham/mindnode/internal/errors"
	"github.com/Iron-Ham/mindnode/internal/model"
)

type save struct {
	boardID string
	content string
}

type recordingSink struct {
	mu    sync.Mutex
	saves []save
	fail  error
}

func (r *recordingSink) SaveCanvas(_ context.Context, boardID string, nodes []model.Node, _ []model.Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	content := ""
	if len(nodes) > 0 {
		content = nodes[0].Content
	}
	r.saves = append(r.saves, save{boardID, content})
	return r.fail
}

func (r *recordingSink) snapshot() []save {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]save(nil), r.saves...)
}

func canvas(content string) Canvas {
	return Canvas{Nodes: []model.Node{{ID: "n", Type: model.NodeTask, Content: content}}}
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestSaver_DebouncesToLatest(t *testing.T) {
	sink := &recordingSink{}
	s := New(sink, 30*time.Millisecond, nil)

	for i := 1; i <= 5; i++ {
		if err := s.Schedule("b1", canvas(fmt.Sprintf("v%d", i))); err != nil {
			t.Fatalf("Schedule() error = %v", err)
		}
	}
	if len(sink.snapshot()) != 0 {
		t.Fatal("write happened before the quiet period")
	}

	waitFor(t, func() bool { return len(sink.snapshot()) == 1 })
	time.Sleep(60 * time.Millisecond)

	saves := sink.snapshot()
	if len(saves) != 1 || saves[0] != (save{"b1", "v5"}) {
		t.Errorf("saves = %+v, want one save of v5", saves)
	}
	if s.Pending() != 0 {
		t.Errorf("Pending() = %d after write", s.Pending())
	}
}

func TestSaver_BoardsAreIndependent(t *testing.T) {
	sink := &recordingSink{}
	s := New(sink, 20*time.Millisecond, nil)

	_ = s.Schedule("a", canvas("a1"))
	_ = s.Schedule("b", canvas("b1"))
	waitFor(t, func() bool { return len(sink.snapshot()) == 2 })

	got := map[string]string{}
	for _, sv := range sink.snapshot() {
		got[sv.boardID] = sv.content
	}
	if got["a"] != "a1" || got["b"] != "b1" {
		t.Errorf("saves = %v", got)
	}
}

func TestSaver_Flush(t *testing.T) {
	sink := &recordingSink{}
	s := New(sink, time.Hour, nil)

	_ = s.Schedule("b", canvas("b1"))
	_ = s.Schedule("a", canvas("a1"))
	if s.Pending() != 2 {
		t.Fatalf("Pending() = %d, want 2", s.Pending())
	}

	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	want := []save{{"a", "a1"}, {"b", "b1"}}
	saves := sink.snapshot()
	if len(saves) != 2 || saves[0] != want[0] || saves[1] != want[1] {
		t.Errorf("saves = %+v, want %+v", saves, want)
	}
	if s.Pending() != 0 {
		t.Error("Flush left pending canvases")
	}
}

func TestSaver_StopRejectsSchedule(t *testing.T) {
	sink := &recordingSink{}
	s := New(sink, time.Hour, nil)
	_ = s.Schedule("a", canvas("a1"))

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if len(sink.snapshot()) != 1 {
		t.Error("Stop should flush pending canvases")
	}
	if err := s.Schedule("a", canvas("a2")); !errors.Is(err, ErrStopped) {
		t.Errorf("Schedule after Stop = %v, want ErrStopped", err)
	}
}

func TestSaver_FlushReportsErrors(t *testing.T) {
	boom := errors.New("store closed")
	sink := &recordingSink{fail: boom}
	s := New(sink, time.Hour, nil)
	_ = s.Schedule("a", canvas("a1"))

	if err := s.Flush(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Flush() error = %v, want %v", err, boom)
	}
}

func TestNew_DefaultDelay(t *testing.T) {
	if d := New(&recordingSink{}, 0, nil).Delay(); d != DefaultDelay {
		t.Errorf("Delay() = %v, want %v", d, DefaultDelay)
	}
}
