// Package plan turns AI-generated project plans into board content.
//
// An import runs three stages:
//
//   - Parse strips code fences from the raw text and decodes it into a Plan,
//     failing with *errors.ParseError or *errors.SchemaError.
//   - Resolve assigns a fresh internal id to every logical node id and binds
//     connections to them, silently dropping those that reference unknown nodes.
//   - Hydrator.Hydrate lays the nodes out top-to-bottom and builds board nodes
//     and connections.
//
// Importer chains the three. None of the stages mutate their inputs.
package plan

import "fmt"

// LogicalID is a node identifier chosen by the plan author ("1", "step-2").
// Plans written by language models use JSON numbers as often as strings, so
// both decode to the same textual form.
type LogicalID string

// String implements fmt.Stringer.
func (id LogicalID) String() string { return string(id) }

// Node is a plan node as written by the plan author. Type and Status are kept
// raw; the hydrator normalizes them.
type Node struct {
	ID      LogicalID `json:"id"`
	Label   string    `json:"label"`
	Type    string    `json:"type,omitempty"`
	Date    string    `json:"date,omitempty"`
	Status  string    `json:"status,omitempty"`
	Details string    `json:"details,omitempty"`
}

// Connection links two plan nodes by logical id.
type Connection struct {
	From  LogicalID `json:"from"`
	To    LogicalID `json:"to"`
	Label string    `json:"label,omitempty"`
}

// Plan is a decoded AI plan. It is transient: only its hydrated form is stored.
type Plan struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Nodes       []Node       `json:"nodes"`
	Connections []Connection `json:"connections"`

	// Ignored lists the fields that were dropped because of their JSON type,
	// e.g. "nodes[2].details". They hydrate as if absent.
	Ignored []string `json:"-"`
}

// Summary returns a one-line description of the plan for logs.
func (p *Plan) Summary() string {
	return fmt.Sprintf("%q: %d nodes, %d connections", p.Title, len(p.Nodes), len(p.Connections))
}
