package plan

import (
	"time"

	"github.com/Iron-Ham/mindnode/internal/layout"
	"github.com/Iron-Ham/mindnode/internal/logging"
	"github.com/Iron-Ham/mindnode/internal/model"
)

// DefaultBoardName is used when a plan has no title.
const DefaultBoardName = "Imported Plan"

// Font sizes given to hydrated nodes.
const (
	HeadingFontSize = 30
	DefaultFontSize = 14
)

// untitled replaces empty labels.
const untitled = "Untitled"

// NodeSize returns the layout size used for a node of type t: detailed nodes
// are large cards, everything else is a compact box.
func NodeSize(t model.NodeType) (width, height float64) {
	if t == model.NodeDetailed {
		return 400, 300
	}
	return 250, 80
}

// dateLayouts are tried in order when parsing plan dates.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseDate parses an ISO date or date-time. Dates without a zone are UTC.
func ParseDate(s string) (time.Time, bool) {
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Hydrated is the board content produced from a plan.
type Hydrated struct {
	BoardName   string
	Description string
	Nodes       []model.Node
	Connections []model.Connection
	// Dropped counts plan connections skipped for an unknown endpoint.
	Dropped int
}

// Hydrator builds board nodes and connections from a resolved plan.
// Zero-valued fields fall back to the default layout engine, random ids,
// time.Now and a no-op logger.
type Hydrator struct {
	Engine layout.Engine
	NewID  func() string
	Now    func() time.Time
	Logger *logging.Logger
}

func (h *Hydrator) engine() layout.Engine {
	if h.Engine != nil {
		return h.Engine
	}
	return layout.New()
}

func (h *Hydrator) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return NewID()
}

func (h *Hydrator) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Hydrator) logger() *logging.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return logging.NopLogger()
}

// Hydrate lays out p top-to-bottom and converts it into board content.
//
// There is one node per distinct internal id in r.NodeIDs, in order of first
// appearance; when several plan nodes share a logical id the last one
// supplies the content. Only r.Connections are hydrated, so dangling plan
// connections never appear in the output.
func (h *Hydrator) Hydrate(p *Plan, r *Resolution) *Hydrated {
	log := h.logger()
	now := h.now()

	// Collapse duplicates: first position wins the slot, last node wins the content.
	var order []string
	source := make(map[string]Node, len(p.Nodes))
	for i, n := range p.Nodes {
		id := r.NodeIDs[i]
		if _, seen := source[id]; !seen {
			order = append(order, id)
		}
		source[id] = n
	}

	types := make(map[string]model.NodeType, len(order))
	inputs := make([]layout.Node, 0, len(order))
	for _, id := range order {
		t := nodeType(source[id], log)
		types[id] = t
		w, hgt := NodeSize(t)
		inputs = append(inputs, layout.Node{ID: id, Width: w, Height: hgt})
	}

	edges := make([]layout.Edge, 0, len(r.Connections))
	for _, c := range r.Connections {
		edges = append(edges, layout.Edge{Source: c.Source, Target: c.Target})
	}

	placed := h.engine().Layout(inputs, edges, layout.TopToBottom)
	positions := make(map[string]model.Position, len(placed.Nodes))
	for _, n := range placed.Nodes {
		positions[n.ID] = model.Position{X: n.X, Y: n.Y}
	}

	out := &Hydrated{
		BoardName:   p.Title,
		Description: p.Description,
		Nodes:       make([]model.Node, 0, len(order)),
		Connections: make([]model.Connection, 0, len(r.Connections)),
		Dropped:     len(r.Dropped),
	}
	if out.BoardName == "" {
		out.BoardName = DefaultBoardName
	}

	for _, id := range order {
		src := source[id]
		t := types[id]

		node := model.Node{
			ID:          id,
			Type:        t,
			Content:     nodeContent(src, t),
			Position:    positions[id],
			BorderColor: model.DefaultBorderColor,
			FontSize:    model.Int(DefaultFontSize),
			Status:      nodeStatus(src, log),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if t == model.NodeHeading {
			node.FontSize = model.Int(HeadingFontSize)
		}
		if src.Date != "" {
			if d, ok := ParseDate(src.Date); ok {
				node.DateTime = &d
			} else {
				log.Debug("ignoring unparseable plan date", "logical_id", src.ID, "date", src.Date)
			}
		}
		out.Nodes = append(out.Nodes, node)
	}

	in, outSide := layout.TopToBottom.Sides()
	for _, c := range r.Connections {
		out.Connections = append(out.Connections, model.Connection{
			ID:           h.newID(),
			Source:       c.Source,
			SourceHandle: model.NewHandle(outSide, true),
			Target:       c.Target,
			TargetHandle: model.NewHandle(in, false),
			Label:        c.Label,
			Style:        model.StyleBezier,
		})
	}

	for _, d := range r.Dropped {
		log.Debug("dropped connection with unknown endpoint", "from", d.From, "to", d.To)
	}
	return out
}

func nodeType(n Node, log *logging.Logger) model.NodeType {
	if n.Type == "" {
		return model.NodeTask
	}
	t, ok := model.ParseNodeType(n.Type)
	if !ok {
		log.Debug("unknown plan node type, using task", "logical_id", n.ID, "type", n.Type)
		return model.NodeTask
	}
	return t
}

// nodeContent is the label, except for detailed nodes with details, whose
// content is the details text. The label of such nodes is not kept.
func nodeContent(n Node, t model.NodeType) string {
	if t == model.NodeDetailed && n.Details != "" {
		return n.Details
	}
	if n.Label == "" {
		return untitled
	}
	return n.Label
}

func nodeStatus(n Node, log *logging.Logger) model.Status {
	if n.Status == "" {
		return model.StatusTodo
	}
	s, ok := model.ParseStatus(n.Status)
	if !ok {
		log.Debug("unknown plan node status, using todo", "logical_id", n.ID, "status", n.Status)
		return model.StatusTodo
	}
	return s
}
