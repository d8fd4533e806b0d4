// Package layout positions the nodes of a directed graph in ranked layers.
//
// Nodes are assigned to ranks along the flow direction (top-to-bottom or
// left-to-right), ordered within each rank to reduce edge crossings and spaced
// so that no two nodes in a rank overlap. Returned positions are top-left
// anchored and the whole drawing is translated so its top-left corner is at
// the origin.
//
// Layouts are deterministic: the same nodes, edges and direction always
// produce the same positions. Engines keep no state between calls.
package layout

import (
	"fmt"
	"math"
	"strings"

	"github.com/Iron-Ham/mindnode/internal/model"
)

// Direction is the flow direction of a layout.
type Direction string

const (
	// TopToBottom places ranks in rows; edges flow downwards.
	TopToBottom Direction = "TB"
	// LeftToRight places ranks in columns; edges flow rightwards.
	LeftToRight Direction = "LR"
)

// ParseDirection parses "TB" or "LR" case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToUpper(strings.TrimSpace(s))) {
	case TopToBottom:
		return TopToBottom, nil
	case LeftToRight:
		return LeftToRight, nil
	}
	return "", fmt.Errorf("unknown layout direction %q (want TB or LR)", s)
}

// Sides returns the preferred inbound and outbound attachment sides for the
// direction.
func (d Direction) Sides() (in, out model.Side) {
	if d == LeftToRight {
		return model.SideLeft, model.SideRight
	}
	return model.SideTop, model.SideBottom
}

// Spacing and fallback size constants.
const (
	RankSep       = 100.0
	NodeSep       = 80.0
	EdgeSep       = 10.0
	DefaultWidth  = 172.0
	DefaultHeight = 50.0
)

// Node is a layout input. A zero Width or Height means the node has not been
// measured yet and the fallback size is used.
type Node struct {
	ID     string
	Width  float64
	Height float64
}

// Edge is a directed layout input edge between node ids.
type Edge struct {
	Source string
	Target string
}

// Positioned is a laid-out node. X and Y are the top-left corner.
type Positioned struct {
	ID      string
	X       float64
	Y       float64
	Width   float64
	Height  float64
	Rank    int
	InSide  model.Side
	OutSide model.Side
}

// Result holds one Positioned entry per input node, in input order.
type Result struct {
	Nodes []Positioned
}

// Position returns the positioned node with id. It scans the result.
func (r Result) Position(id string) (Positioned, bool) {
	for _, n := range r.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Positioned{}, false
}

// ByID indexes the result by node id. Callers looking up many nodes should
// use it instead of Position, which scans.
func (r Result) ByID() map[string]Positioned {
	m := make(map[string]Positioned, len(r.Nodes))
	for _, n := range r.Nodes {
		m[n.ID] = n
	}
	return m
}

// Bounds returns the width and height of the drawing.
func (r Result) Bounds() (width, height float64) {
	for _, n := range r.Nodes {
		width = math.Max(width, n.X+n.Width)
		height = math.Max(height, n.Y+n.Height)
	}
	return width, height
}

// Engine lays out a graph. Implementations must be deterministic, must place
// every input node exactly once, and must tolerate cycles and edges whose
// endpoints are not in nodes.
type Engine interface {
	Layout(nodes []Node, edges []Edge, dir Direction) Result
}

// Layered is the default Engine: a layered (Sugiyama-style) layout.
// Zero-valued fields use the package constants.
type Layered struct {
	RankSep float64
	NodeSep float64
	EdgeSep float64
	// Sweeps is the number of crossing-reduction sweeps. Zero means 24.
	Sweeps int
}

// New returns a Layered engine with the default spacing.
func New() *Layered {
	return &Layered{}
}

var defaultEngine = New()

// Layout lays out the graph with the default engine.
func Layout(nodes []Node, edges []Edge, dir Direction) Result {
	return defaultEngine.Layout(nodes, edges, dir)
}

func (l *Layered) rankSep() float64 {
	if l.RankSep > 0 {
		return l.RankSep
	}
	return RankSep
}

func (l *Layered) nodeSep() float64 {
	if l.NodeSep > 0 {
		return l.NodeSep
	}
	return NodeSep
}

func (l *Layered) edgeSep() float64 {
	if l.EdgeSep > 0 {
		return l.EdgeSep
	}
	return EdgeSep
}

func (l *Layered) sweeps() int {
	if l.Sweeps > 0 {
		return l.Sweeps
	}
	return 24
}

// Layout implements Engine.
func (l *Layered) Layout(nodes []Node, edges []Edge, dir Direction) Result {
	if dir != LeftToRight {
		dir = TopToBottom
	}
	in, out := dir.Sides()

	res := Result{Nodes: make([]Positioned, 0, len(nodes))}
	if len(nodes) == 0 {
		return res
	}

	g := newGraph(nodes, edges, dir)
	g.breakCycles()
	g.assignRanks()
	g.insertDummies()
	g.initOrder()
	g.reduceCrossings(l.sweeps())
	g.assignBreadth(l.nodeSep(), l.edgeSep())
	g.assignDepth(l.rankSep())
	g.translate()

	for _, n := range nodes {
		v := g.vertices[g.index[n.ID]]
		p := Positioned{
			ID:      n.ID,
			Rank:    v.rank,
			InSide:  in,
			OutSide: out,
		}
		// Internally the rank axis is always y; LR swaps back on output.
		left, top := v.x-v.breadth/2, v.y-v.depth/2
		if dir == LeftToRight {
			p.X, p.Y = top, left
			p.Width, p.Height = v.depth, v.breadth
		} else {
			p.X, p.Y = left, top
			p.Width, p.Height = v.breadth, v.depth
		}
		res.Nodes = append(res.Nodes, p)
	}
	return res
}

// size returns v when it is a usable dimension, otherwise fallback.
func size(v, fallback float64) float64 {
	if v > 0 && !math.IsInf(v, 0) {
		return v
	}
	return fallback
}
