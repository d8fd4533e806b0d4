package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gobwas/glob"

	"github.com/Iron-Ham/mindnode/internal/autosave"
	"github.com/Iron-Ham/mindnode/internal/board"
	"github.com/Iron-Ham/mindnode/internal/errors"
	"github.com/Iron-Ham/mindnode/internal/layout"
	"github.com/Iron-Ham/mindnode/internal/model"
)

type createBoardRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type idResponse struct {
	ID string `json:"id"`
}

// redact hides the password of a board before it leaves the process.
func redact(b model.Board) model.Board {
	b.Password = ""
	return b
}

// listBoards handles GET /api/boards
func (s *Server) listBoards(w http.ResponseWriter, r *http.Request) {
	var f board.Filter
	if v := r.URL.Query().Get("starred"); v != "" {
		starred, err := strconv.ParseBool(v)
		if err != nil {
			s.writeError(w, r, errors.NewValidationError("starred must be a boolean").WithField("starred").WithValue(v))
			return
		}
		f.Starred = starred
	}
	if pattern := r.URL.Query().Get("match"); pattern != "" {
		g, err := glob.Compile(pattern)
		if err != nil {
			s.writeError(w, r, errors.NewValidationError("invalid match pattern").WithField("match").WithValue(pattern).WithCause(err))
			return
		}
		f.Match = g
	}
	writeJSON(w, http.StatusOK, s.store.Summaries(f))
}

// createBoard handles POST /api/boards
func (s *Server) createBoard(w http.ResponseWriter, r *http.Request) {
	var req createBoardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := s.store.CreateBoard(r.Context(), req.Name, req.Description)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

// getBoard handles GET /api/boards/{id}
func (s *Server) getBoard(w http.ResponseWriter, r *http.Request) {
	b, err := s.store.Board(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, redact(b))
}

// updateBoard handles PATCH /api/boards/{id}
func (s *Server) updateBoard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var patch board.Patch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.UpdateBoard(r.Context(), id, patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.getBoard(w, r)
}

// deleteBoard handles DELETE /api/boards/{id}
func (s *Server) deleteBoard(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteBoard(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// duplicateBoard handles POST /api/boards/{id}/duplicate
func (s *Server) duplicateBoard(w http.ResponseWriter, r *http.Request) {
	id, err := s.store.DuplicateBoard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

// starBoard handles POST /api/boards/{id}/star
func (s *Server) starBoard(w http.ResponseWriter, r *http.Request) {
	starred, err := s.store.ToggleStar(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"starred": starred})
}

// activateBoard handles POST /api/boards/{id}/activate
func (s *Server) activateBoard(w http.ResponseWriter, r *http.Request) {
	if err := s.store.SetActiveBoard(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// saveCanvas handles PUT /api/boards/{id}/canvas. The write is debounced;
// the response only confirms the canvas was accepted.
func (s *Server) saveCanvas(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var c autosave.Canvas
	if err := decodeJSON(w, r, &c); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := board.ValidateCanvas(c.Nodes, c.Connections); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.saver.Schedule(id, c); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// relayout handles POST /api/boards/{id}/layout?direction=LR
func (s *Server) relayout(w http.ResponseWriter, r *http.Request) {
	dir := s.direction
	if v := r.URL.Query().Get("direction"); v != "" {
		d, err := layout.ParseDirection(v)
		if err != nil {
			s.writeError(w, r, errors.NewValidationError(err.Error()).WithField("direction").WithValue(v))
			return
		}
		dir = d
	}
	if err := s.store.Relayout(r.Context(), chi.URLParam(r, "id"), dir); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.getBoard(w, r)
}

type insertNodeRequest struct {
	Type string `json:"type"`
}

// insertNode handles POST /api/boards/{id}/connections/{cid}/insert
func (s *Server) insertNode(w http.ResponseWriter, r *http.Request) {
	var req insertNodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	t := model.NodeTask
	if req.Type != "" {
		parsed, ok := model.ParseNodeType(req.Type)
		if !ok {
			s.writeError(w, r, errors.NewValidationError("unknown node type").WithField("type").WithValue(req.Type))
			return
		}
		t = parsed
	}
	nodeID, err := s.store.InsertNodeOnEdge(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "cid"), t)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: nodeID})
}
