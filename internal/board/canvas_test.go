package board

import (
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Iron-Ham/mindnode/internal/errors"
	"github.com/Iron-Ham/mindnode/internal/event"
	"github.com/Iron-Ham/mindnode/internal/layout"
	"github.com/Iron-Ham/mindnode/internal/metrics"
	"github.com/Iron-Ham/mindnode/internal/model"
)

const samplePlan = "```json\n" + `{
	"title": "T",
	"nodes": [
		{"id": "a", "type": "task", "label": "A"},
		{"id": "b", "type": "task", "label": "B"}
	],
	"connections": [{"from": "a", "to": "b"}, {"from": "a", "to": "ghost"}]
}` + "\n```"

func TestImportPlan(t *testing.T) {
	h := newHarness(t)
	mustCreate(t, h.store, "Existing")
	h.events = nil

	id, err := h.store.ImportPlan(context.Background(), samplePlan)
	if err != nil {
		t.Fatalf("ImportPlan() error = %v", err)
	}
	if h.store.ActiveBoardID() != id {
		t.Error("imported board should become active")
	}

	b, _ := h.store.Board(id)
	if b.Name != "T" || b.Description != "Imported from AI Plan" {
		t.Errorf("board = %q / %q", b.Name, b.Description)
	}
	if len(b.Nodes) != 2 || len(b.Connections) != 1 {
		t.Fatalf("got %d nodes / %d connections, want 2 / 1", len(b.Nodes), len(b.Connections))
	}
	byID := map[string]model.Node{}
	for _, n := range b.Nodes {
		byID[n.ID] = n
	}
	c := b.Connections[0]
	if byID[c.Source].Content != "A" || byID[c.Target].Content != "B" {
		t.Errorf("connection %s -> %s does not join A and B", c.Source, c.Target)
	}
	if byID[c.Source].Position.Y >= byID[c.Target].Position.Y {
		t.Error("A should be above B")
	}
	if len(b.ColorGlossary.Colors) != 10 {
		t.Error("imported board should get the default glossary")
	}

	imported, ok := h.events[0].(event.PlanImportedEvent)
	if !ok || imported.BoardID != id || imported.Nodes != 2 || imported.Connections != 1 {
		t.Errorf("event = %+v", h.events[0])
	}
}

func TestImportPlan_RecordsOneLayoutRun(t *testing.T) {
	m := metrics.New("test")
	// The engine is instrumented by the caller and again by Open.
	h := newHarness(t, WithMetrics(m), WithEngine(metrics.InstrumentEngine(layout.New(), m)))

	if _, err := h.store.ImportPlan(context.Background(), samplePlan); err != nil {
		t.Fatalf("ImportPlan() error = %v", err)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`test_layout_duration_seconds_count{direction="TB"} 1`,
		"test_layout_nodes_count 1",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestImportPlan_FailureLeavesStoreUntouched(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	existing := mustCreate(t, h.store, "Existing")
	before := h.store.State()
	h.events = nil

	for _, raw := range []string{"not json at all", `{"title": "no nodes"}`, `{"nodes": 3}`} {
		_, err := h.store.ImportPlan(ctx, raw)
		if !errors.IsImportError(err) {
			t.Errorf("ImportPlan(%q) error = %v, want import error", raw, err)
		}
		if !errors.IsUserFacing(err) {
			t.Errorf("import error %v should be user facing", err)
		}
	}

	if len(h.store.Boards()) != len(before.Boards) || h.store.ActiveBoardID() != existing {
		t.Error("failed import changed the store")
	}
	if len(h.events) != 0 {
		t.Errorf("events published: %v", h.eventTypes())
	}
}

func TestImportPlan_MissingNodesMessage(t *testing.T) {
	h := newHarness(t)
	_, err := h.store.ImportPlan(context.Background(), `{"title":"x"}`)
	if err == nil || !strings.Contains(err.Error(), "'nodes' array is missing") {
		t.Errorf("error = %v", err)
	}
}

func TestImportPlan_CustomDescription(t *testing.T) {
	h := newHarness(t, WithImportDescription("From the assistant"))
	id, err := h.store.ImportPlan(context.Background(), `{"nodes": []}`)
	if err != nil {
		t.Fatalf("ImportPlan() error = %v", err)
	}
	b, _ := h.store.Board(id)
	if b.Description != "From the assistant" || b.Name != "Imported Plan" {
		t.Errorf("board = %q / %q", b.Name, b.Description)
	}
}

func canvasBoard(t *testing.T, h *harness) string {
	t.Helper()
	id := mustCreate(t, h.store, "Canvas")
	nodes := []model.Node{
		{ID: "a", Type: model.NodeTask, Position: model.Position{X: 500, Y: 500}},
		{ID: "b", Type: model.NodeDetailed, Position: model.Position{X: 0, Y: 0}},
		{ID: "c", Type: model.NodeNote, Width: model.Float(300)},
	}
	conns := []model.Connection{
		{ID: "ab", Source: "a", Target: "b", Label: "then"},
		{ID: "bc", Source: "b", Target: "c"},
		{ID: "ax", Source: "a", Target: "missing", SourceHandle: "top-source", TargetHandle: "bottom"},
	}
	ctx := context.Background()
	saved := append(nodes, model.Node{ID: "missing", Type: model.NodeTask})
	if err := h.store.SaveCanvas(ctx, id, saved, conns); err != nil {
		t.Fatalf("SaveCanvas() error = %v", err)
	}
	// Dropping the node through a nodes-only patch leaves "ax" dangling.
	b, _ := h.store.Board(id)
	kept := b.Nodes[:len(nodes)]
	if err := h.store.UpdateBoard(ctx, id, Patch{Nodes: &kept}); err != nil {
		t.Fatalf("UpdateBoard() error = %v", err)
	}
	return id
}

func TestSaveCanvas_Defaults(t *testing.T) {
	h := newHarness(t)
	id := canvasBoard(t, h)

	b, _ := h.store.Board(id)
	for _, n := range b.Nodes {
		if n.BorderColor != model.DefaultBorderColor {
			t.Errorf("node %s border = %q", n.ID, n.BorderColor)
		}
	}
	c, _ := b.Connection("ab")
	if c.SourceHandle != "bottom-source" || c.TargetHandle != "top" || c.Style != model.StyleBezier {
		t.Errorf("connection defaults = %+v", c)
	}
	if c.Label != "then" {
		t.Error("label lost")
	}
}

func TestSaveCanvas_Rejects(t *testing.T) {
	h := newHarness(t)
	id := mustCreate(t, h.store, "A")

	err := h.store.SaveCanvas(context.Background(), id, []model.Node{{ID: "", Type: model.NodeTask}}, nil)
	var ve *errors.ValidationError
	if !errors.As(err, &ve) || ve.Field != "nodes[0].id" {
		t.Errorf("error = %v, want ValidationError on nodes[0].id", err)
	}
	if err := h.store.SaveCanvas(context.Background(), "nope", nil, nil); !errors.IsNotFound(err) {
		t.Errorf("unknown board error = %v", err)
	}
}

func TestSaveCanvas_DanglingConnection(t *testing.T) {
	h := newHarness(t)
	id := mustCreate(t, h.store, "A")
	nodes := []model.Node{{ID: "a", Type: model.NodeTask}, {ID: "b", Type: model.NodeTask}}

	tests := []struct {
		name  string
		conn  model.Connection
		field string
	}{
		{"source", model.Connection{ID: "c", Source: "ghost", Target: "b"}, "connections[1].source"},
		{"target", model.Connection{ID: "c", Source: "a", Target: "ghost"}, "connections[1].target"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conns := []model.Connection{{ID: "ok", Source: "a", Target: "b"}, tt.conn}
			err := h.store.SaveCanvas(context.Background(), id, nodes, conns)
			var ve *errors.ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Fatalf("error = %v, want ValidationError on %s", err, tt.field)
			}
			if ve.Value != "ghost" {
				t.Errorf("Value = %v, want ghost", ve.Value)
			}
			if err := ValidateCanvas(nodes, conns); err == nil {
				t.Error("ValidateCanvas() accepted a dangling connection")
			}
		})
	}

	if b, _ := h.store.Board(id); len(b.Nodes) != 0 {
		t.Error("rejected canvas was written")
	}
}

func TestRelayout(t *testing.T) {
	h := newHarness(t)
	id := canvasBoard(t, h)

	if err := h.store.Relayout(context.Background(), id, layout.LeftToRight); err != nil {
		t.Fatalf("Relayout() error = %v", err)
	}
	b, _ := h.store.Board(id)
	a, _ := b.Node("a")
	bn, _ := b.Node("b")
	c, _ := b.Node("c")

	if !(a.Position.X < bn.Position.X && bn.Position.X < c.Position.X) {
		t.Errorf("LR layout should order a, b, c left to right: %v %v %v", a.Position, bn.Position, c.Position)
	}
	// b is a 400-wide detailed card laid out on its own rank.
	if got := c.Position.X - bn.Position.X; got < 400 {
		t.Errorf("c starts %v after b, want at least the detailed width", got)
	}

	ab, _ := b.Connection("ab")
	if ab.SourceHandle != "right-source" || ab.TargetHandle != "left" {
		t.Errorf("handles = %s/%s, want right-source/left", ab.SourceHandle, ab.TargetHandle)
	}
	ax, _ := b.Connection("ax")
	if ax.SourceHandle != "top-source" || ax.TargetHandle != "bottom" {
		t.Error("dangling connection should be left untouched")
	}
	if !b.UpdatedAt.After(b.CreatedAt) {
		t.Error("relayout should refresh updatedAt")
	}

	if err := h.store.Relayout(context.Background(), "nope", layout.TopToBottom); !errors.IsNotFound(err) {
		t.Errorf("unknown board error = %v", err)
	}
}

// reversedEngine places node i of n at x = i and returns the result in
// reverse input order.
type reversedEngine struct{}

func (reversedEngine) Layout(nodes []layout.Node, _ []layout.Edge, _ layout.Direction) layout.Result {
	out := make([]layout.Positioned, len(nodes))
	for i, n := range nodes {
		out[len(nodes)-1-i] = layout.Positioned{ID: n.ID, X: float64(i)}
	}
	return layout.Result{Nodes: out}
}

func TestRelayout_MatchesPositionsByID(t *testing.T) {
	h := newHarness(t, WithEngine(reversedEngine{}))
	id := mustCreate(t, h.store, "Big")

	nodes := make([]model.Node, 500)
	for i := range nodes {
		nodes[i] = model.Node{ID: fmt.Sprintf("n%d", i), Type: model.NodeTask}
	}
	ctx := context.Background()
	if err := h.store.SaveCanvas(ctx, id, nodes, nil); err != nil {
		t.Fatalf("SaveCanvas() error = %v", err)
	}
	if err := h.store.Relayout(ctx, id, layout.TopToBottom); err != nil {
		t.Fatalf("Relayout() error = %v", err)
	}

	b, _ := h.store.Board(id)
	for i, n := range b.Nodes {
		if n.Position.X != float64(i) {
			t.Fatalf("node %s x = %v, want %d", n.ID, n.Position.X, i)
		}
	}
}

func TestRelayout_Deterministic(t *testing.T) {
	h := newHarness(t)
	id := canvasBoard(t, h)
	ctx := context.Background()

	_ = h.store.Relayout(ctx, id, layout.TopToBottom)
	first, _ := h.store.Board(id)
	_ = h.store.Relayout(ctx, id, layout.TopToBottom)
	second, _ := h.store.Board(id)

	for i := range first.Nodes {
		if first.Nodes[i].Position != second.Nodes[i].Position {
			t.Errorf("node %s moved between identical relayouts", first.Nodes[i].ID)
		}
	}
}

func TestInsertNodeOnEdge(t *testing.T) {
	h := newHarness(t)
	id := canvasBoard(t, h)
	ctx := context.Background()

	nid, err := h.store.InsertNodeOnEdge(ctx, id, "ab", model.NodeMilestone)
	if err != nil {
		t.Fatalf("InsertNodeOnEdge() error = %v", err)
	}
	b, _ := h.store.Board(id)

	n, _ := b.Node(nid)
	if n == nil {
		t.Fatal("inserted node missing")
	}
	if n.Type != model.NodeMilestone || n.Content != "New milestone" {
		t.Errorf("node = %s %q", n.Type, n.Content)
	}
	if n.Position != (model.Position{X: 250, Y: 250}) {
		t.Errorf("position = %+v, want midpoint 250,250", n.Position)
	}
	if c, _ := b.Connection("ab"); c != nil {
		t.Error("split connection should be removed")
	}

	var in, out bool
	for _, c := range b.Connections {
		if c.Source == "a" && c.Target == nid {
			in = true
		}
		if c.Source == nid && c.Target == "b" {
			out = true
		}
	}
	if !in || !out {
		t.Errorf("new connections missing: %+v", b.Connections)
	}
	if len(b.Connections) != 4 {
		t.Errorf("got %d connections, want 4", len(b.Connections))
	}
}

func TestInsertNodeOnEdge_Errors(t *testing.T) {
	h := newHarness(t)
	id := canvasBoard(t, h)
	ctx := context.Background()
	before, _ := h.store.Board(id)

	if _, err := h.store.InsertNodeOnEdge(ctx, id, "nope", model.NodeTask); !errors.Is(err, errors.ErrConnectionNotFound) {
		t.Errorf("unknown connection error = %v", err)
	}
	if _, err := h.store.InsertNodeOnEdge(ctx, id, "ax", model.NodeTask); !errors.IsNotFound(err) {
		t.Errorf("dangling endpoint error = %v", err)
	}
	if _, err := h.store.InsertNodeOnEdge(ctx, id, "ab", "blob"); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("bad type error = %v", err)
	}

	after, _ := h.store.Board(id)
	if len(after.Nodes) != len(before.Nodes) || len(after.Connections) != len(before.Connections) {
		t.Error("failed insert changed the board")
	}
}
