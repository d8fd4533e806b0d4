package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Iron-Ham/mindnode/internal/analytics"
)

// globalAnalytics handles GET /api/analytics
func (s *Server) globalAnalytics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, analytics.Global(s.store.Boards()))
}

// boardAnalytics handles GET /api/analytics/{id}
func (s *Server) boardAnalytics(w http.ResponseWriter, r *http.Request) {
	b, err := s.store.Board(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analytics.ForBoard(&b))
}

// timeline handles GET /api/timeline
func (s *Server) timeline(w http.ResponseWriter, _ *http.Request) {
	entries := analytics.Timeline(s.store.Boards(), s.now())
	if entries == nil {
		entries = []analytics.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

type calendarResponse struct {
	Days   []analytics.Day `json:"days"`
	Counts map[string]int  `json:"counts"`
}

// calendar handles GET /api/calendar
func (s *Server) calendar(w http.ResponseWriter, _ *http.Request) {
	days := analytics.Calendar(s.store.Boards(), s.now())
	if days == nil {
		days = []analytics.Day{}
	}
	writeJSON(w, http.StatusOK, calendarResponse{Days: days, Counts: analytics.CountsByDay(days)})
}
