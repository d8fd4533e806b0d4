package plan

import (
	"strings"
	"testing"
	"time"

	"github.com/Iron-Ham/mindnode/internal/errors"
)

func TestImporter_Import(t *testing.T) {
	imp := NewImporter(
		WithIDGenerator(sequentialIDs()),
		WithClock(func() time.Time { return fixedNow }),
	)

	raw := "```json\n" + `{
		"title": "T",
		"nodes": [
			{"id": "a", "type": "task", "label": "A"},
			{"id": "b", "type": "task", "label": "B"}
		],
		"connections": [{"from": "a", "to": "b"}, {"from": "b", "to": "nope"}]
	}` + "\n```"

	h, err := imp.Import(raw)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if h.BoardName != "T" {
		t.Errorf("BoardName = %q", h.BoardName)
	}
	if h.Description != DefaultDescription {
		t.Errorf("Description = %q, want %q", h.Description, DefaultDescription)
	}
	if len(h.Nodes) != 2 || len(h.Connections) != 1 {
		t.Fatalf("got %d nodes / %d connections", len(h.Nodes), len(h.Connections))
	}
	if h.Nodes[0].ID != "id-1" || h.Nodes[1].ID != "id-2" || h.Connections[0].ID != "id-3" {
		t.Errorf("ids = %s, %s, %s", h.Nodes[0].ID, h.Nodes[1].ID, h.Connections[0].ID)
	}
}

func TestImporter_KeepsPlanDescription(t *testing.T) {
	h, err := NewImporter(WithDefaultDescription("fallback")).
		Import(`{"description": "mine", "nodes": []}`)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if h.Description != "mine" {
		t.Errorf("Description = %q, want mine", h.Description)
	}
	if len(h.Nodes) != 0 {
		t.Errorf("empty plan produced %d nodes", len(h.Nodes))
	}
}

func TestImporter_Errors(t *testing.T) {
	imp := NewImporter()

	if _, err := imp.Import("not json"); !errors.IsImportError(err) {
		t.Errorf("Import(not json) error = %v, want import error", err)
	}
	_, err := imp.Import(`{"title": "no nodes"}`)
	var se *errors.SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("Import() error = %v, want SchemaError", err)
	}
	if !strings.Contains(se.Error(), "nodes") {
		t.Errorf("message %q should mention nodes", se.Error())
	}
}

func TestPrompt(t *testing.T) {
	out, err := Prompt("  Launch a podcast  ")
	if err != nil {
		t.Fatalf("Prompt() error = %v", err)
	}
	for _, want := range []string{
		"## Request\n\nLaunch a podcast\n",
		`"nodes": [`,
		`"connections": [`,
		"task, note, milestone, decision, detailed, heading, section",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	generic, err := Prompt("")
	if err != nil {
		t.Fatalf("Prompt(\"\") error = %v", err)
	}
	if strings.Contains(generic, "## Request") {
		t.Error("generic prompt should not have a request section")
	}
}

func TestPrompt_ExampleParses(t *testing.T) {
	out, _ := Prompt("")
	start := strings.Index(out, "{")
	end := strings.LastIndex(out, "}")
	p, err := Parse(out[start : end+1])
	if err != nil {
		t.Fatalf("example in prompt does not parse: %v", err)
	}
	if len(p.Nodes) != 1 || len(p.Connections) != 1 {
		t.Errorf("example plan = %s", p.Summary())
	}
}
