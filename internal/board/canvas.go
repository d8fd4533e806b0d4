package board

import (
	"context"

	"github.com/Iron-Ham/mindnode/internal/errors"
	"github.com/Iron-Ham/mindnode/internal/event"
	"github.com/Iron-Ham/mindnode/internal/layout"
	"github.com/Iron-Ham/mindnode/internal/model"
	"github.com/Iron-Ham/mindnode/internal/plan"
)

// ImportPlan turns raw plan text into a new board and makes it active.
// Parse and schema errors are returned unchanged and leave the store
// untouched: the board is built completely before the single write.
func (s *Store) ImportPlan(ctx context.Context, raw string) (string, error) {
	imp := plan.NewImporter(
		plan.WithEngine(s.engine),
		plan.WithIDGenerator(s.newID),
		plan.WithClock(s.now),
		plan.WithLogger(s.logger),
		plan.WithDefaultDescription(s.description),
	)

	h, err := imp.Import(raw)
	if err != nil {
		s.metrics.ObserveImport(err, 0, 0)
		s.logger.Info("plan import rejected", "error", err)
		return "", err
	}

	b := s.newBoard(h.BoardName, h.Description)
	b.Nodes = h.Nodes
	b.Connections = h.Connections

	err = s.mutate(ctx, "import_plan", func(st *model.State) (event.Event, error) {
		st.Boards = append(st.Boards, b)
		st.ActiveBoardID = b.ID
		return event.NewPlanImportedEvent(b.ID, len(b.Nodes), len(b.Connections)), nil
	})
	s.metrics.ObserveImport(err, len(h.Nodes), h.Dropped)
	if err != nil {
		return "", err
	}
	s.logger.WithBoard(b.ID).Info("plan imported",
		"name", b.Name,
		"nodes", len(b.Nodes),
		"connections", len(b.Connections),
	)
	return b.ID, nil
}

// layoutSize returns the size a board node is laid out with: its own width
// when set, the detailed card size for detailed nodes, and zero (the engine
// fallback) otherwise.
func layoutSize(n model.Node) (w, h float64) {
	if n.Type == model.NodeDetailed {
		w, h = plan.NodeSize(n.Type)
	}
	if n.Width != nil {
		w = *n.Width
	}
	return w, h
}

// Relayout positions every node of the board in direction dir and points
// each connection's handles at the direction's preferred sides. Connections
// with an endpoint missing from the board are left as they are.
func (s *Store) Relayout(ctx context.Context, id string, dir layout.Direction) error {
	return s.mutate(ctx, "relayout", func(st *model.State) (event.Event, error) {
		b, _, err := find(st, id)
		if err != nil {
			return nil, err
		}

		nodes := make([]layout.Node, len(b.Nodes))
		present := make(map[string]bool, len(b.Nodes))
		for i, n := range b.Nodes {
			w, h := layoutSize(n)
			nodes[i] = layout.Node{ID: n.ID, Width: w, Height: h}
			present[n.ID] = true
		}
		edges := make([]layout.Edge, len(b.Connections))
		for i, c := range b.Connections {
			edges[i] = layout.Edge{Source: c.Source, Target: c.Target}
		}

		placed := s.engine.Layout(nodes, edges, dir).ByID()
		for i := range b.Nodes {
			if p, ok := placed[b.Nodes[i].ID]; ok {
				b.Nodes[i].Position = model.Position{X: p.X, Y: p.Y}
			}
		}

		in, out := dir.Sides()
		for i := range b.Connections {
			c := &b.Connections[i]
			if !present[c.Source] || !present[c.Target] {
				continue
			}
			c.SourceHandle = model.NewHandle(out, true)
			c.TargetHandle = model.NewHandle(in, false)
		}

		s.touch(b)
		return event.NewBoardUpdatedEvent(id, []string{"nodes", "connections"}), nil
	})
}

// InsertNodeOnEdge splits a connection: it removes the connection, adds a
// node of type t midway between the two endpoints, and connects source to
// the new node and the new node to target. It returns the new node's id.
func (s *Store) InsertNodeOnEdge(ctx context.Context, boardID, connectionID string, t model.NodeType) (string, error) {
	if !t.Valid() {
		return "", errors.NewValidationError("unknown node type").WithField("type").WithValue(string(t))
	}

	var nodeID string
	err := s.mutate(ctx, "insert_node_on_edge", func(st *model.State) (event.Event, error) {
		b, _, err := find(st, boardID)
		if err != nil {
			return nil, err
		}
		c, idx := b.Connection(connectionID)
		if c == nil {
			return nil, errors.NewNotFoundError("connection", connectionID).WithCause(errors.ErrConnectionNotFound)
		}
		src, _ := b.Node(c.Source)
		dst, _ := b.Node(c.Target)
		if src == nil || dst == nil {
			missing := c.Source
			if src != nil {
				missing = c.Target
			}
			return nil, errors.NewNotFoundError("node", missing)
		}

		now := s.now()
		node := model.Node{
			ID:      s.newID(),
			Type:    t,
			Content: "New " + string(t),
			Position: model.Position{
				X: (src.Position.X + dst.Position.X) / 2,
				Y: (src.Position.Y + dst.Position.Y) / 2,
			},
			BorderColor: model.DefaultBorderColor,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		old := *c
		first := model.Connection{
			ID:           s.newID(),
			Source:       old.Source,
			SourceHandle: old.SourceHandle,
			Target:       node.ID,
			TargetHandle: old.TargetHandle,
			Style:        old.Style,
		}
		second := model.Connection{
			ID:           s.newID(),
			Source:       node.ID,
			SourceHandle: old.SourceHandle,
			Target:       old.Target,
			TargetHandle: old.TargetHandle,
			Style:        old.Style,
		}

		b.Connections = append(b.Connections[:idx], b.Connections[idx+1:]...)
		b.Connections = append(b.Connections, first, second)
		b.Nodes = append(b.Nodes, node)
		nodeID = node.ID

		s.touch(b)
		return event.NewBoardUpdatedEvent(boardID, []string{"nodes", "connections"}), nil
	})
	if err != nil {
		return "", err
	}
	return nodeID, nil
}

// SaveCanvas replaces the board's nodes and connections with the canvas
// contents. Missing border colors, handles and styles get their defaults.
// Every connection must join two of the canvas nodes.
func (s *Store) SaveCanvas(ctx context.Context, boardID string, nodes []model.Node, conns []model.Connection) error {
	nodes, conns = normalizeCanvas(nodes, conns)
	if err := validateCanvas(nodes, conns); err != nil {
		return err
	}

	return s.mutate(ctx, "save_canvas", func(st *model.State) (event.Event, error) {
		b, _, err := find(st, boardID)
		if err != nil {
			return nil, err
		}
		b.Nodes = nodes
		b.Connections = conns
		s.touch(b)
		return event.NewBoardUpdatedEvent(boardID, []string{"nodes", "connections"}), nil
	})
}

// ValidateCanvas reports the error SaveCanvas would return for the canvas
// contents, without touching any board.
func ValidateCanvas(nodes []model.Node, conns []model.Connection) error {
	return validateCanvas(normalizeCanvas(nodes, conns))
}

func validateCanvas(nodes []model.Node, conns []model.Connection) error {
	if err := validateNodes(nodes); err != nil {
		return err
	}
	if err := validateConnections(conns); err != nil {
		return err
	}
	return checkEndpoints(nodes, conns)
}

// normalizeCanvas copies the canvas and fills defaults.
func normalizeCanvas(nodes []model.Node, conns []model.Connection) ([]model.Node, []model.Connection) {
	outNodes := make([]model.Node, len(nodes))
	for i, n := range nodes {
		n = n.Clone()
		if n.BorderColor == "" {
			n.BorderColor = model.DefaultBorderColor
		}
		if n.Type == "" {
			n.Type = model.NodeTask
		}
		outNodes[i] = n
	}

	outConns := make([]model.Connection, len(conns))
	for i, c := range conns {
		if c.SourceHandle == "" {
			c.SourceHandle = model.NewHandle(model.SideBottom, true)
		}
		if c.TargetHandle == "" {
			c.TargetHandle = model.NewHandle(model.SideTop, false)
		}
		if c.Style == "" {
			c.Style = model.StyleBezier
		}
		outConns[i] = c
	}
	return outNodes, outConns
}
