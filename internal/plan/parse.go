package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/Iron-Ham/mindnode/internal/errors"
)

// Messages shown to the user when an import is rejected.
const (
	msgNotObject    = "Invalid structure: plan must be a JSON object."
	msgNodesMissing = "Invalid structure: 'nodes' array is missing."
)

var (
	openFence  = regexp.MustCompile("^```[A-Za-z0-9_+.-]*[ \t]*(\r?\n)?")
	closeFence = regexp.MustCompile("(\r?\n)?[ \t]*```$")
)

// StripFences removes a leading and a trailing markdown code fence, such as
// "```json" and "```", around text. Text without fences is returned trimmed
// but otherwise unchanged.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = openFence.ReplaceAllString(s, "")
	s = closeFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Parse decodes raw plan text.
//
// It returns *errors.ParseError when the text (after fence stripping) is not
// valid JSON, and *errors.SchemaError when it is valid JSON but not an object
// with a "nodes" array. Every other field is optional: a field of the wrong
// JSON type decodes as absent and is listed in Plan.Ignored. Strings and
// numbers are both accepted where text is expected. A missing or non-array
// "connections" field decodes as no connections.
func Parse(raw string) (*Plan, error) {
	data := []byte(StripFences(raw))

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, errors.NewParseError(err).WithOffset(syntaxErr.Offset)
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, errors.NewSchemaError(msgNotObject).WithCause(err)
		}
		// Truncated input surfaces as io.ErrUnexpectedEOF-like errors.
		return nil, errors.NewParseError(err)
	}

	var nodes []json.RawMessage
	if v, ok := top["nodes"]; !ok || !isArray(v) || json.Unmarshal(v, &nodes) != nil {
		return nil, errors.NewSchemaError(msgNodesMissing).
			WithField("nodes").
			WithCause(errors.ErrNodesMissing)
	}

	var d decoder
	p := &Plan{
		Title:       d.text("title", top["title"]),
		Description: d.text("description", top["description"]),
		Nodes:       make([]Node, 0, len(nodes)),
		Connections: []Connection{},
	}
	for i, item := range nodes {
		path := fmt.Sprintf("nodes[%d]", i)
		f := d.object(path, item)
		p.Nodes = append(p.Nodes, Node{
			ID:      LogicalID(d.text(path+".id", f["id"])),
			Label:   d.text(path+".label", f["label"]),
			Type:    d.text(path+".type", f["type"]),
			Date:    d.text(path+".date", f["date"]),
			Status:  d.text(path+".status", f["status"]),
			Details: d.text(path+".details", f["details"]),
		})
	}
	for i, item := range d.array("connections", top["connections"]) {
		path := fmt.Sprintf("connections[%d]", i)
		f := d.object(path, item)
		p.Connections = append(p.Connections, Connection{
			From:  LogicalID(d.text(path+".from", f["from"])),
			To:    LogicalID(d.text(path+".to", f["to"])),
			Label: d.text(path+".label", f["label"]),
		})
	}
	p.Ignored = d.ignored
	return p, nil
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// decoder reads optional plan fields, recording the ones it has to drop.
type decoder struct {
	ignored []string
}

func (d *decoder) ignore(path string) {
	d.ignored = append(d.ignored, path)
}

// text returns a JSON string, or the literal text of a JSON number. Absent
// and null fields are "" without being recorded.
func (d *decoder) text(path string, raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	d.ignore(path)
	return ""
}

// object returns the fields of a JSON object, or nil.
func (d *decoder) object(path string, raw json.RawMessage) map[string]json.RawMessage {
	var f map[string]json.RawMessage
	if err := json.Unmarshal(raw, &f); err != nil {
		d.ignore(path)
		return nil
	}
	return f
}

// array returns the elements of a JSON array, or nil.
func (d *decoder) array(path string, raw json.RawMessage) []json.RawMessage {
	if isNull(raw) {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		d.ignore(path)
		return nil
	}
	return items
}
