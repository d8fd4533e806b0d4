// Package model defines the persisted entities of a planning board: nodes,
// connections, boards, color glossaries and application settings.
//
// The JSON field names match the persisted state document so that existing
// documents load without translation.
package model

import (
	"strings"
	"time"
)

// NodeType is the closed set of canvas node kinds.
type NodeType string

const (
	NodeTask      NodeType = "task"
	NodeNote      NodeType = "note"
	NodeMilestone NodeType = "milestone"
	NodeDecision  NodeType = "decision"
	NodeDetailed  NodeType = "detailed"
	NodeHeading   NodeType = "heading"
	NodeSection   NodeType = "section"
)

// NodeTypes returns every node type in display order.
func NodeTypes() []NodeType {
	return []NodeType{NodeTask, NodeNote, NodeMilestone, NodeDecision, NodeDetailed, NodeHeading, NodeSection}
}

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	switch t {
	case NodeTask, NodeNote, NodeMilestone, NodeDecision, NodeDetailed, NodeHeading, NodeSection:
		return true
	}
	return false
}

// ParseNodeType matches s case-insensitively against the known node types.
func ParseNodeType(s string) (NodeType, bool) {
	t := NodeType(strings.ToLower(strings.TrimSpace(s)))
	return t, t.Valid()
}

// Status is the progress state of a task node.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusComplete   Status = "complete"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusComplete:
		return true
	}
	return false
}

// ParseStatus matches s case-insensitively against the known statuses.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	return st, st.Valid()
}

// ConnectionStyle controls how an edge is drawn.
type ConnectionStyle string

const (
	StyleBezier     ConnectionStyle = "bezier"
	StyleStraight   ConnectionStyle = "straight"
	StyleOrthogonal ConnectionStyle = "orthogonal"
)

// Valid reports whether c is one of the known connection styles.
func (c ConnectionStyle) Valid() bool {
	switch c {
	case StyleBezier, StyleStraight, StyleOrthogonal:
		return true
	}
	return false
}

// Side is one of the four attachment sides of a node.
type Side string

const (
	SideTop    Side = "top"
	SideRight  Side = "right"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
)

// Valid reports whether s is a known side.
func (s Side) Valid() bool {
	switch s {
	case SideTop, SideRight, SideBottom, SideLeft:
		return true
	}
	return false
}

// sourceSuffix marks an outbound handle: "bottom-source" is the outbound
// attachment on the bottom side, "top" the inbound one on the top side.
const sourceSuffix = "-source"

// Handle identifies a connection attachment point on a node.
type Handle string

// NewHandle returns the handle for side, outbound or inbound.
func NewHandle(side Side, outbound bool) Handle {
	if outbound {
		return Handle(string(side) + sourceSuffix)
	}
	return Handle(side)
}

// Side returns the base side of the handle.
func (h Handle) Side() Side {
	return Side(strings.TrimSuffix(string(h), sourceSuffix))
}

// IsSource reports whether h is an outbound handle.
func (h Handle) IsSource() bool {
	return strings.HasSuffix(string(h), sourceSuffix)
}

// Valid reports whether h names a known side with an optional source suffix.
func (h Handle) Valid() bool {
	return h.Side().Valid()
}

// Position is a canvas coordinate. Nodes are anchored at their top-left corner.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DefaultBorderColor is the border color given to nodes that do not set one.
const DefaultBorderColor = "#000000"

// Node is a single entity on a board canvas.
type Node struct {
	ID          string     `json:"id" validate:"required"`
	Type        NodeType   `json:"type" validate:"required,nodetype"`
	Content     string     `json:"content"`
	Position    Position   `json:"position"`
	Width       *float64   `json:"width,omitempty" validate:"omitempty,gt=0"`
	BorderColor string     `json:"borderColor" validate:"required,hexcolor"`
	FontSize    *int       `json:"fontSize,omitempty" validate:"omitempty,gt=0"`
	DateTime    *time.Time `json:"dateTime,omitempty"`
	Status      Status     `json:"status,omitempty" validate:"omitempty,status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// EffectiveStatus returns the node status, treating an absent status as todo.
func (n *Node) EffectiveStatus() Status {
	if n.Status == "" {
		return StatusTodo
	}
	return n.Status
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	out := n
	if n.Width != nil {
		w := *n.Width
		out.Width = &w
	}
	if n.FontSize != nil {
		fs := *n.FontSize
		out.FontSize = &fs
	}
	if n.DateTime != nil {
		dt := *n.DateTime
		out.DateTime = &dt
	}
	return out
}

// Connection is a directed edge between two nodes of the same board.
// Source and Target may dangle; readers skip such connections.
type Connection struct {
	ID           string          `json:"id" validate:"required"`
	Source       string          `json:"source" validate:"required"`
	SourceHandle Handle          `json:"sourceHandle" validate:"handle"`
	Target       string          `json:"target" validate:"required"`
	TargetHandle Handle          `json:"targetHandle" validate:"handle"`
	Label        string          `json:"label,omitempty"`
	Style        ConnectionStyle `json:"style,omitempty" validate:"omitempty,connstyle"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Time returns a pointer to v.
func Time(v time.Time) *time.Time { return &v }
