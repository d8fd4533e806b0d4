package api

import (
	"io"
	"net/http"

	"github.com/Iron-Ham/mindnode/internal/board"
	"github.com/Iron-Ham/mindnode/internal/errors"
	"github.com/Iron-Ham/mindnode/internal/layout"
	"github.com/Iron-Ham/mindnode/internal/plan"
)

// importPlan handles POST /api/import. The body is the raw plan text, with
// or without a markdown code fence.
func (s *Server) importPlan(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, r, errors.NewValidationError("could not read plan").WithCause(err))
		return
	}
	id, err := s.store.ImportPlan(r.Context(), string(raw))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

// prompt handles GET /api/prompt?objective=
func (s *Server) prompt(w http.ResponseWriter, r *http.Request) {
	out, err := plan.Prompt(r.URL.Query().Get("objective"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, out)
}

type layoutNode struct {
	ID     string  `json:"id"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

type layoutEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

type layoutRequest struct {
	Nodes     []layoutNode `json:"nodes"`
	Edges     []layoutEdge `json:"edges"`
	Direction string       `json:"direction"`
}

type positionedNode struct {
	ID      string  `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	InSide  string  `json:"targetPosition"`
	OutSide string  `json:"sourcePosition"`
}

type layoutResponse struct {
	Nodes  []positionedNode `json:"nodes"`
	Width  float64          `json:"width"`
	Height float64          `json:"height"`
}

// layout handles POST /api/layout: positions an arbitrary graph without
// touching any board.
func (s *Server) layout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	dir := s.direction
	if req.Direction != "" {
		d, err := layout.ParseDirection(req.Direction)
		if err != nil {
			s.writeError(w, r, errors.NewValidationError(err.Error()).WithField("direction").WithValue(req.Direction))
			return
		}
		dir = d
	}

	nodes := make([]layout.Node, len(req.Nodes))
	for i, n := range req.Nodes {
		nodes[i] = layout.Node{ID: n.ID, Width: n.Width, Height: n.Height}
	}
	edges := make([]layout.Edge, len(req.Edges))
	for i, e := range req.Edges {
		edges[i] = layout.Edge{Source: e.Source, Target: e.Target}
	}

	res := s.engine.Layout(nodes, edges, dir)
	out := layoutResponse{Nodes: make([]positionedNode, len(res.Nodes))}
	for i, p := range res.Nodes {
		out.Nodes[i] = positionedNode{
			ID:      p.ID,
			X:       p.X,
			Y:       p.Y,
			Width:   p.Width,
			Height:  p.Height,
			InSide:  string(p.InSide),
			OutSide: string(p.OutSide),
		}
	}
	out.Width, out.Height = res.Bounds()
	writeJSON(w, http.StatusOK, out)
}

// getSettings handles GET /api/settings
func (s *Server) getSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.AppSettings())
}

// updateSettings handles PATCH /api/settings
func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request) {
	var patch board.SettingsPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.UpdateAppSettings(r.Context(), patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.store.AppSettings())
}
