package board

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Iron-Ham/mindnode/internal/errors"
	"github.com/Iron-Ham/mindnode/internal/event"
	"github.com/Iron-Ham/mindnode/internal/logging"
	"github.com/Iron-Ham/mindnode/internal/model"
	"github.com/Iron-Ham/mindnode/internal/storage"
)

var t0 = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

// harness wires a store to an in-memory backend, a frozen clock and
// predictable ids, and records every published event.
type harness struct {
	store   *Store
	backend *storage.MemoryStore
	events  []event.Event
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{backend: storage.NewMemoryStore()}
	h.store = h.open(t, opts...)
	return h
}

func (h *harness) open(t *testing.T, opts ...Option) *Store {
	t.Helper()
	n := 0
	base := []Option{
		WithClock(func() time.Time { return t0 }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	}
	s, err := Open(context.Background(), h.backend, append(base, opts...)...)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	s.Subscribe(func(e event.Event) { h.events = append(h.events, e) })
	return s
}

func (h *harness) eventTypes() []string {
	out := make([]string, len(h.events))
	for i, e := range h.events {
		out[i] = e.EventType()
	}
	return out
}

func (h *harness) persisted(t *testing.T) model.State {
	t.Helper()
	data, err := h.backend.Load(context.Background(), DefaultKey)
	if err != nil {
		t.Fatalf("loading persisted state: %v", err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decoding persisted state: %v", err)
	}
	return doc.State
}

func ptr[T any](v T) *T { return &v }

func mustCreate(t *testing.T, s *Store, name string) string {
	t.Helper()
	id, err := s.CreateBoard(context.Background(), name, "")
	if err != nil {
		t.Fatalf("CreateBoard(%q) error = %v", name, err)
	}
	return id
}

func TestOpen_EmptyBackend(t *testing.T) {
	h := newHarness(t)
	st := h.store.State()

	if len(st.Boards) != 0 || st.ActiveBoardID != "" {
		t.Errorf("fresh state = %+v", st)
	}
	if diff := cmp.Diff(model.DefaultAppSettings(), st.AppSettings); diff != "" {
		t.Errorf("default app settings mismatch:\n%s", diff)
	}
	if _, err := h.backend.Load(context.Background(), DefaultKey); !errors.Is(err, storage.ErrNotFound) {
		t.Error("opening should not write a document")
	}
}

func TestOpen_CorruptedDocument(t *testing.T) {
	backend := storage.NewMemoryStore()
	_ = backend.Save(context.Background(), DefaultKey, []byte("{not json"))

	_, err := Open(context.Background(), backend)
	if !errors.Is(err, errors.ErrStorageCorrupted) {
		t.Fatalf("Open() error = %v, want ErrStorageCorrupted", err)
	}
	var se *errors.StorageError
	if !errors.As(err, &se) || se.Key != DefaultKey {
		t.Errorf("want StorageError with key %q, got %v", DefaultKey, err)
	}
}

func TestOpen_CustomKey(t *testing.T) {
	h := newHarness(t, WithKey("other"))
	mustCreate(t, h.store, "B")
	if _, err := h.backend.Load(context.Background(), "other"); err != nil {
		t.Errorf("state not written under custom key: %v", err)
	}
}

func TestCreateBoard(t *testing.T) {
	h := newHarness(t)
	id, err := h.store.CreateBoard(context.Background(), "Roadmap", "Q3")
	if err != nil {
		t.Fatalf("CreateBoard() error = %v", err)
	}

	b, err := h.store.Board(id)
	if err != nil {
		t.Fatalf("Board() error = %v", err)
	}
	if b.Name != "Roadmap" || b.Description != "Q3" {
		t.Errorf("board = %q/%q", b.Name, b.Description)
	}
	if len(b.Nodes) != 0 || len(b.Connections) != 0 || b.Nodes == nil {
		t.Errorf("new board should have empty, non-nil lists")
	}
	if diff := cmp.Diff(model.DefaultGlossary(), b.ColorGlossary); diff != "" {
		t.Errorf("glossary mismatch:\n%s", diff)
	}
	if diff := cmp.Diff(model.DefaultBoardSettings(), b.Settings); diff != "" {
		t.Errorf("settings mismatch:\n%s", diff)
	}
	if !b.CreatedAt.Equal(t0) || !b.UpdatedAt.Equal(t0) {
		t.Errorf("timestamps = %v / %v", b.CreatedAt, b.UpdatedAt)
	}
	if h.store.ActiveBoardID() != id {
		t.Errorf("active = %q, want %q", h.store.ActiveBoardID(), id)
	}

	persisted := h.persisted(t)
	if len(persisted.Boards) != 1 || persisted.ActiveBoardID != id {
		t.Errorf("persisted state = %+v", persisted)
	}
	if diff := cmp.Diff([]string{event.TypeBoardCreated}, h.eventTypes()); diff != "" {
		t.Errorf("events mismatch:\n%s", diff)
	}
}

func TestCreateBoard_GlossaryIsACopy(t *testing.T) {
	h := newHarness(t)
	a := mustCreate(t, h.store, "A")
	b := mustCreate(t, h.store, "B")

	g := model.DefaultGlossary()
	g.Colors["#123456"] = "Custom"
	if err := h.store.UpdateBoard(context.Background(), a, Patch{ColorGlossary: &g}); err != nil {
		t.Fatalf("UpdateBoard() error = %v", err)
	}

	other, _ := h.store.Board(b)
	if _, ok := other.ColorGlossary.Colors["#123456"]; ok {
		t.Error("boards share a glossary map")
	}
}

func TestCreateBoard_NameTooLong(t *testing.T) {
	h := newHarness(t)
	long := make([]byte, 201)
	for i := range long {
		long[i] = 'x'
	}
	_, err := h.store.CreateBoard(context.Background(), string(long), "")
	var ve *errors.ValidationError
	if !errors.As(err, &ve) || ve.Field != "name" {
		t.Fatalf("error = %v, want ValidationError on name", err)
	}
	if len(h.store.Boards()) != 0 {
		t.Error("invalid create should not add a board")
	}
}

func TestRoundTrip_CreateThenUpdate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id, _ := h.store.CreateBoard(ctx, "n", "d")

	if err := h.store.UpdateBoard(ctx, id, Patch{Name: ptr("n2")}); err != nil {
		t.Fatalf("UpdateBoard() error = %v", err)
	}

	b, _ := h.store.Board(id)
	if b.Name != "n2" {
		t.Errorf("Name = %q, want n2", b.Name)
	}
	if b.Description != "d" {
		t.Errorf("Description = %q, want d", b.Description)
	}
	if !b.UpdatedAt.After(b.CreatedAt) {
		t.Errorf("UpdatedAt %v should be after CreatedAt %v", b.UpdatedAt, b.CreatedAt)
	}

	// A second update with a frozen clock still moves UpdatedAt forward.
	prev := b.UpdatedAt
	_ = h.store.UpdateBoard(ctx, id, Patch{})
	b, _ = h.store.Board(id)
	if !b.UpdatedAt.After(prev) {
		t.Errorf("UpdatedAt did not advance: %v -> %v", prev, b.UpdatedAt)
	}
}

func TestUpdateBoard_UnknownID(t *testing.T) {
	h := newHarness(t)
	id := mustCreate(t, h.store, "A")
	before := h.store.State()
	h.events = nil

	err := h.store.UpdateBoard(context.Background(), "nope", Patch{Name: ptr("x")})
	if !errors.IsNotFound(err) || !errors.Is(err, errors.ErrBoardNotFound) {
		t.Fatalf("error = %v, want board NotFoundError", err)
	}
	if diff := cmp.Diff(before, h.store.State()); diff != "" {
		t.Errorf("state changed:\n%s", diff)
	}
	if len(h.events) != 0 {
		t.Errorf("events published for a failed update: %v", h.eventTypes())
	}
	if b, _ := h.store.Board(id); b.Name != "A" {
		t.Error("existing board modified")
	}
}

func TestUpdateBoard_ShallowReplace(t *testing.T) {
	h := newHarness(t)
	id := mustCreate(t, h.store, "A")

	only := model.ColorGlossary{UseGlobal: false, Colors: map[string]string{"#FF0000": "Hot"}}
	settings := model.DefaultBoardSettings()
	settings.GridSize = 40
	err := h.store.UpdateBoard(context.Background(), id, Patch{
		ColorGlossary: &only,
		Settings:      &settings,
		Starred:       ptr(true),
		Password:      ptr("s3cret"),
	})
	if err != nil {
		t.Fatalf("UpdateBoard() error = %v", err)
	}

	b, _ := h.store.Board(id)
	if diff := cmp.Diff(only, b.ColorGlossary); diff != "" {
		t.Errorf("glossary should be replaced whole:\n%s", diff)
	}
	if b.Settings.GridSize != 40 || !b.Starred || b.Password != "s3cret" {
		t.Errorf("board = %+v", b)
	}

	updated, ok := h.events[len(h.events)-1].(event.BoardUpdatedEvent)
	if !ok {
		t.Fatalf("last event = %T", h.events[len(h.events)-1])
	}
	want := []string{"starred", "password", "colorGlossary", "settings"}
	if diff := cmp.Diff(want, updated.Fields); diff != "" {
		t.Errorf("event fields mismatch:\n%s", diff)
	}
}

func TestUpdateBoard_Validation(t *testing.T) {
	h := newHarness(t)
	id := mustCreate(t, h.store, "A")

	bad := model.DefaultBoardSettings()
	bad.GridSize = 0
	tests := []struct {
		name  string
		patch Patch
		field string
	}{
		{"grid size", Patch{Settings: &bad}, "settings.gridSize"},
		{"shared access", Patch{SharedAccess: ptr(model.SharedAccess("world"))}, "sharedAccess"},
		{"node type", Patch{Nodes: &[]model.Node{{ID: "n", Type: "blob", BorderColor: "#000000"}}}, "nodes[0].type"},
		{"node color", Patch{Nodes: &[]model.Node{{ID: "n", Type: model.NodeTask, BorderColor: "red"}}}, "nodes[0].borderColor"},
		{"handle", Patch{Connections: &[]model.Connection{{ID: "c", Source: "a", Target: "b", SourceHandle: "middle", TargetHandle: "top"}}}, "connections[0].sourceHandle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.store.UpdateBoard(context.Background(), id, tt.patch)
			var ve *errors.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("Field = %q, want %q", ve.Field, tt.field)
			}
		})
	}

	b, _ := h.store.Board(id)
	if b.Settings.GridSize != 20 {
		t.Error("rejected patch was applied")
	}
}

func TestUpdateBoard_ConnectionEndpoints(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := mustCreate(t, h.store, "A")
	nodes := []model.Node{
		{ID: "a", Type: model.NodeTask, BorderColor: "#000000"},
		{ID: "b", Type: model.NodeTask, BorderColor: "#000000"},
	}
	if err := h.store.UpdateBoard(ctx, id, Patch{Nodes: &nodes}); err != nil {
		t.Fatalf("UpdateBoard(nodes) error = %v", err)
	}

	edge := func(src, dst string) *[]model.Connection {
		return &[]model.Connection{{ID: "c", Source: src, Target: dst, SourceHandle: "bottom-source", TargetHandle: "top"}}
	}

	// Connections only: checked against the board's current nodes.
	if err := h.store.UpdateBoard(ctx, id, Patch{Connections: edge("a", "b")}); err != nil {
		t.Fatalf("UpdateBoard(connections) error = %v", err)
	}
	err := h.store.UpdateBoard(ctx, id, Patch{Connections: edge("a", "ghost")})
	var ve *errors.ValidationError
	if !errors.As(err, &ve) || ve.Field != "connections[0].target" {
		t.Fatalf("dangling target error = %v", err)
	}

	// Nodes and connections together: checked against the new nodes.
	only := []model.Node{nodes[0]}
	err = h.store.UpdateBoard(ctx, id, Patch{Nodes: &only, Connections: edge("a", "b")})
	if !errors.As(err, &ve) || ve.Field != "connections[0].target" {
		t.Fatalf("connection to a removed node error = %v", err)
	}

	b, _ := h.store.Board(id)
	if len(b.Nodes) != 2 || len(b.Connections) != 1 || b.Connections[0].Target != "b" {
		t.Errorf("rejected patches changed the board: %d nodes, %+v", len(b.Nodes), b.Connections)
	}

	// Replacing nodes alone is not checked against existing connections.
	if err := h.store.UpdateBoard(ctx, id, Patch{Nodes: &only}); err != nil {
		t.Errorf("nodes-only patch error = %v", err)
	}
}

func TestDeleteBoard(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := mustCreate(t, h.store, "A")
	b := mustCreate(t, h.store, "B") // active

	if err := h.store.DeleteBoard(ctx, a); err != nil {
		t.Fatalf("DeleteBoard(a) error = %v", err)
	}
	if h.store.ActiveBoardID() != b {
		t.Error("deleting an inactive board changed the active board")
	}

	if err := h.store.DeleteBoard(ctx, b); err != nil {
		t.Fatalf("DeleteBoard(b) error = %v", err)
	}
	if h.store.ActiveBoardID() != "" {
		t.Errorf("active = %q after deleting it, want empty", h.store.ActiveBoardID())
	}
	if len(h.store.Boards()) != 0 {
		t.Error("boards remain after deleting all")
	}
	if err := h.store.DeleteBoard(ctx, b); !errors.IsNotFound(err) {
		t.Errorf("second delete error = %v, want NotFound", err)
	}
}

func TestDuplicateBoard(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := mustCreate(t, h.store, "Plan")

	nodes := []model.Node{
		{ID: "n1", Type: model.NodeTask, BorderColor: "#000000", Content: "A"},
		{ID: "n2", Type: model.NodeNote, BorderColor: "#000000", Content: "B"},
	}
	conns := []model.Connection{
		{ID: "c1", Source: "n1", Target: "n2", SourceHandle: "bottom-source", TargetHandle: "top"},
		{ID: "c2", Source: "n1", Target: "gone", SourceHandle: "bottom-source", TargetHandle: "top"},
	}
	saved := append(nodes, model.Node{ID: "gone", Type: model.NodeTask, BorderColor: "#000000"})
	if err := h.store.SaveCanvas(ctx, id, saved, conns); err != nil {
		t.Fatalf("SaveCanvas() error = %v", err)
	}
	if err := h.store.UpdateBoard(ctx, id, Patch{Nodes: &nodes}); err != nil {
		t.Fatalf("UpdateBoard() error = %v", err)
	}
	_, _ = h.store.ToggleStar(ctx, id)

	cpID, err := h.store.DuplicateBoard(ctx, id)
	if err != nil {
		t.Fatalf("DuplicateBoard() error = %v", err)
	}
	orig, _ := h.store.Board(id)
	cp, _ := h.store.Board(cpID)

	if cp.Name != "Plan (Copy)" {
		t.Errorf("Name = %q", cp.Name)
	}
	if !cp.Starred {
		t.Error("starred flag should be copied")
	}
	if h.store.ActiveBoardID() != id {
		t.Error("duplicate should not change the active board")
	}

	ids := map[string]bool{}
	for _, n := range orig.Nodes {
		ids[n.ID] = true
	}
	for _, c := range orig.Connections {
		ids[c.ID] = true
	}
	for _, n := range cp.Nodes {
		if ids[n.ID] {
			t.Errorf("copy reuses node id %q", n.ID)
		}
	}
	if cp.Connections[0].Source != cp.Nodes[0].ID || cp.Connections[0].Target != cp.Nodes[1].ID {
		t.Errorf("connection not remapped: %+v", cp.Connections[0])
	}
	if cp.Connections[1].Target != "gone" {
		t.Errorf("dangling endpoint should be copied as is, got %q", cp.Connections[1].Target)
	}
	if ids[cp.Connections[0].ID] {
		t.Error("copy reuses a connection id")
	}
	if cp.Nodes[0].Content != "A" {
		t.Error("node contents not copied")
	}

	if _, err := h.store.DuplicateBoard(ctx, "nope"); !errors.IsNotFound(err) {
		t.Errorf("duplicate unknown error = %v", err)
	}
}

func TestToggleStar(t *testing.T) {
	h := newHarness(t)
	id := mustCreate(t, h.store, "A")

	for i, want := range []bool{true, false} {
		got, err := h.store.ToggleStar(context.Background(), id)
		if err != nil || got != want {
			t.Errorf("toggle %d = %v, %v; want %v", i, got, err, want)
		}
	}
	if _, err := h.store.ToggleStar(context.Background(), "nope"); !errors.IsNotFound(err) {
		t.Errorf("error = %v, want NotFound", err)
	}
}

func TestSetActiveBoard(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := mustCreate(t, h.store, "A")
	mustCreate(t, h.store, "B")

	if err := h.store.SetActiveBoard(ctx, a); err != nil || h.store.ActiveBoardID() != a {
		t.Errorf("SetActiveBoard(a) = %v, active %q", err, h.store.ActiveBoardID())
	}
	if err := h.store.SetActiveBoard(ctx, "nope"); !errors.IsNotFound(err) {
		t.Errorf("unknown id error = %v", err)
	}
	if h.store.ActiveBoardID() != a {
		t.Error("failed SetActiveBoard changed the active board")
	}
	if err := h.store.SetActiveBoard(ctx, ""); err != nil || h.store.ActiveBoardID() != "" {
		t.Errorf("clearing active board = %v, active %q", err, h.store.ActiveBoardID())
	}
}

func TestUpdateAppSettings(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.store.UpdateAppSettings(ctx, SettingsPatch{Theme: ptr(model.ThemeDark), TimeFormat: ptr("24h")}); err != nil {
		t.Fatalf("UpdateAppSettings() error = %v", err)
	}
	got := h.store.AppSettings()
	if got.Theme != model.ThemeDark || got.TimeFormat != "24h" || got.DateFormat != "MM/DD/YYYY" {
		t.Errorf("settings = %+v", got)
	}

	err := h.store.UpdateAppSettings(ctx, SettingsPatch{DateFormat: ptr("YYYY")})
	var ve *errors.ValidationError
	if !errors.As(err, &ve) || ve.Field != "dateFormat" {
		t.Errorf("error = %v, want ValidationError on dateFormat", err)
	}
	if h.store.AppSettings().DateFormat != "MM/DD/YYYY" {
		t.Error("invalid settings were applied")
	}
}

func TestUnlock(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	open := mustCreate(t, h.store, "Open")
	locked := mustCreate(t, h.store, "Locked")
	_ = h.store.UpdateBoard(ctx, locked, Patch{Password: ptr("pw")})

	tests := []struct {
		id, password string
		want         error
	}{
		{open, "", nil},
		{open, "anything", nil},
		{locked, "pw", nil},
		{locked, "", errors.ErrBoardLocked},
		{locked, "PW", errors.ErrIncorrectPassword},
		{locked, "pw ", errors.ErrIncorrectPassword},
	}
	for _, tt := range tests {
		err := h.store.Unlock(tt.id, tt.password)
		if !errors.Is(err, tt.want) || (tt.want == nil && err != nil) {
			t.Errorf("Unlock(%s, %q) = %v, want %v", tt.id, tt.password, err, tt.want)
		}
	}

	if isLocked, _ := h.store.IsLocked(locked); !isLocked {
		t.Error("IsLocked() = false for a board with a password")
	}
	if err := h.store.Unlock("nope", ""); !errors.IsNotFound(err) {
		t.Errorf("Unlock unknown = %v", err)
	}
}

func TestSaveFailureLeavesStateUntouched(t *testing.T) {
	h := newHarness(t)
	id := mustCreate(t, h.store, "A")
	before := h.store.State()
	h.events = nil

	h.backend.FailSave = fmt.Errorf("disk full")
	err := h.store.UpdateBoard(context.Background(), id, Patch{Name: ptr("B")})

	var se *errors.StorageError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want StorageError", err)
	}
	if diff := cmp.Diff(before, h.store.State()); diff != "" {
		t.Errorf("state changed after failed save:\n%s", diff)
	}
	if len(h.events) != 0 {
		t.Error("event published for an uncommitted change")
	}
}

func TestMutationFailureLogLevels(t *testing.T) {
	dir := t.TempDir()
	logger, err := logging.NewLogger(dir, "debug", logging.DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	t.Cleanup(func() { _ = logger.Close() })

	h := newHarness(t, WithLogger(logger))
	ctx := context.Background()
	id := mustCreate(t, h.store, "A")

	_ = h.store.DeleteBoard(ctx, "nope")
	dangling := []model.Connection{{ID: "c", Source: "x", Target: "y", SourceHandle: "bottom-source", TargetHandle: "top"}}
	_ = h.store.UpdateBoard(ctx, id, Patch{Connections: &dangling})
	h.backend.FailSave = fmt.Errorf("disk full")
	_ = h.store.UpdateBoard(ctx, id, Patch{Name: ptr("B")})

	content, err := os.ReadFile(filepath.Join(dir, logging.LogFileName))
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	got := map[string]string{}
	for _, line := range strings.Split(strings.TrimSpace(string(content)), "\n") {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("log line is not JSON: %s", line)
		}
		if msg, _ := entry["msg"].(string); strings.HasPrefix(msg, "mutation") {
			got[msg], _ = entry["level"].(string)
		}
	}

	want := map[string]string{
		"mutation target not found": "DEBUG",
		"mutation rejected":         "WARN",
		"mutation failed":           "ERROR",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mutation log levels (-want +got):\n%s", diff)
	}
}

func TestReadersGetCopies(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := mustCreate(t, h.store, "A")
	_ = h.store.SaveCanvas(ctx, id, []model.Node{{ID: "n", Type: model.NodeTask, Content: "x"}}, nil)

	b, _ := h.store.Board(id)
	b.Name = "changed"
	b.Nodes[0].Content = "changed"
	b.ColorGlossary.Colors["#000000"] = "changed"

	again, _ := h.store.Board(id)
	if again.Name != "A" || again.Nodes[0].Content != "x" || again.ColorGlossary.Colors["#000000"] != "Default" {
		t.Error("mutating a returned board changed the store")
	}
}

func TestReopenRestoresState(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := mustCreate(t, h.store, "Persisted")
	_ = h.store.UpdateAppSettings(ctx, SettingsPatch{Theme: ptr(model.ThemeDark)})

	reopened := h.open(t)
	if diff := cmp.Diff(h.store.State(), reopened.State()); diff != "" {
		t.Errorf("reopened state differs:\n%s", diff)
	}
	if reopened.ActiveBoardID() != id {
		t.Error("active board not restored")
	}
}

func TestReload(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	mustCreate(t, h.store, "A")

	changed, err := h.store.Reload(ctx)
	if err != nil || changed {
		t.Fatalf("Reload() of own write = %v, %v; want false, nil", changed, err)
	}

	// Another process writes a different document.
	other := h.open(t, WithIDGenerator(func() string { return "elsewhere" }))
	if _, err := other.CreateBoard(ctx, "From elsewhere", ""); err != nil {
		t.Fatalf("CreateBoard() error = %v", err)
	}
	h.events = nil

	changed, err = h.store.Reload(ctx)
	if err != nil || !changed {
		t.Fatalf("Reload() = %v, %v; want true, nil", changed, err)
	}
	if len(h.store.Boards()) != 2 {
		t.Errorf("got %d boards after reload, want 2", len(h.store.Boards()))
	}
	if diff := cmp.Diff([]string{event.TypeStateReloaded}, h.eventTypes()); diff != "" {
		t.Errorf("events mismatch:\n%s", diff)
	}
}

func TestSummaries(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := mustCreate(t, h.store, "Alpha")
	b := mustCreate(t, h.store, "Beta")
	mustCreate(t, h.store, "Gamma")
	_, _ = h.store.ToggleStar(ctx, b)
	_ = h.store.UpdateBoard(ctx, a, Patch{Description: ptr("touched")})

	got := h.store.Summaries(Filter{})
	var names []string
	for _, s := range got {
		names = append(names, s.Name)
	}
	if diff := cmp.Diff([]string{"Beta", "Alpha", "Gamma"}, names); diff != "" {
		t.Errorf("order mismatch:\n%s", diff)
	}

	starred := h.store.Summaries(Filter{Starred: true})
	if len(starred) != 1 || starred[0].ID != b {
		t.Errorf("starred = %+v", starred)
	}
}

type prefixMatcher string

func (p prefixMatcher) Match(name string) bool { return len(name) > 0 && name[0] == p[0] }

func TestSummaries_Match(t *testing.T) {
	h := newHarness(t)
	mustCreate(t, h.store, "Alpha")
	mustCreate(t, h.store, "Beta")

	got := h.store.Summaries(Filter{Match: prefixMatcher("B")})
	if len(got) != 1 || got[0].Name != "Beta" {
		t.Errorf("matched = %+v", got)
	}
}

func TestResolve(t *testing.T) {
	h := newHarness(t)
	a := mustCreate(t, h.store, "Launch")
	mustCreate(t, h.store, "dup")
	mustCreate(t, h.store, "DUP")

	for _, ref := range []string{a, "Launch", "launch"} {
		b, err := h.store.Resolve(ref)
		if err != nil || b.ID != a {
			t.Errorf("Resolve(%q) = %s, %v", ref, b.ID, err)
		}
	}
	if b, err := h.store.Resolve("dup"); err != nil || b.Name != "dup" {
		t.Errorf("exact name should win: %v %v", b.Name, err)
	}
	if _, err := h.store.Resolve("Dup"); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("ambiguous ref error = %v", err)
	}
	if _, err := h.store.Resolve("missing"); !errors.IsNotFound(err) {
		t.Errorf("missing ref error = %v", err)
	}
}

type flushRecorder struct{ calls int }

func (f *flushRecorder) Flush(context.Context) error {
	f.calls++
	return nil
}

func TestClose(t *testing.T) {
	h := newHarness(t)
	f := &flushRecorder{}
	h.store.AddFlusher(f)

	if err := h.store.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if f.calls != 1 {
		t.Errorf("flusher called %d times, want 1", f.calls)
	}
	if _, err := h.store.CreateBoard(context.Background(), "late", ""); !errors.Is(err, errors.ErrStoreClosed) {
		t.Errorf("CreateBoard after Close = %v, want ErrStoreClosed", err)
	}
	if err := h.store.Close(context.Background()); err != nil || f.calls != 1 {
		t.Error("second Close should be a no-op")
	}
	if n := h.store.bus.SubscriptionCount(); n != 0 {
		t.Errorf("private bus kept %d subscriptions after Close", n)
	}
}

func TestClose_SharedBusKeepsSubscribers(t *testing.T) {
	bus := event.NewBus(logging.NopLogger())
	bus.SubscribeAll(func(event.Event) {})
	h := newHarness(t, WithBus(bus))

	if err := h.store.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	// One outside subscriber plus the harness recorder.
	if n := bus.SubscriptionCount(); n != 2 {
		t.Errorf("shared bus has %d subscriptions, want 2", n)
	}
}

func TestUnsubscribe(t *testing.T) {
	h := newHarness(t)
	calls := 0
	id := h.store.SubscribeTo(event.TypeBoardCreated, func(event.Event) { calls++ })
	mustCreate(t, h.store, "A")
	h.store.Unsubscribe(id)
	mustCreate(t, h.store, "B")

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
