// Package analytics computes read-only projections over boards: task
// progress per board and overall, a dated timeline and a calendar grouping.
//
// Only nodes of type task take part. A task without a status counts as todo.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/Iron-Ham/mindnode/internal/model"
)

// BoardStats are the task counts of one board.
type BoardStats struct {
	BoardID    string `json:"boardId" yaml:"board_id"`
	BoardName  string `json:"boardName" yaml:"board_name"`
	Total      int    `json:"total" yaml:"total"`
	Completed  int    `json:"completed" yaml:"completed"`
	InProgress int    `json:"inProgress" yaml:"in_progress"`
	Todo       int    `json:"todo" yaml:"todo"`
	// Progress is the completed share as a whole percentage.
	Progress int `json:"progress" yaml:"progress"`
}

// GlobalStats aggregate BoardStats over every board.
type GlobalStats struct {
	TotalBoards     int          `json:"totalBoards" yaml:"total_boards"`
	TotalTasks      int          `json:"totalTasks" yaml:"total_tasks"`
	TotalCompleted  int          `json:"totalCompleted" yaml:"total_completed"`
	TotalInProgress int          `json:"totalInProgress" yaml:"total_in_progress"`
	TotalTodo       int          `json:"totalTodo" yaml:"total_todo"`
	CompletionRate  int          `json:"completionRate" yaml:"completion_rate"`
	Boards          []BoardStats `json:"boards" yaml:"boards"`
}

// Distribution returns the task count per status.
func (g GlobalStats) Distribution() map[model.Status]int {
	return map[model.Status]int{
		model.StatusComplete:   g.TotalCompleted,
		model.StatusInProgress: g.TotalInProgress,
		model.StatusTodo:       g.TotalTodo,
	}
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// ForBoard counts the tasks of b by status.
func ForBoard(b *model.Board) BoardStats {
	s := BoardStats{BoardID: b.ID, BoardName: b.Name}
	for i := range b.Nodes {
		n := &b.Nodes[i]
		if n.Type != model.NodeTask {
			continue
		}
		s.Total++
		switch n.EffectiveStatus() {
		case model.StatusComplete:
			s.Completed++
		case model.StatusInProgress:
			s.InProgress++
		case model.StatusTodo:
			s.Todo++
		}
	}
	s.Progress = percent(s.Completed, s.Total)
	return s
}

// Global aggregates ForBoard over boards, keeping per-board stats in input
// order.
func Global(boards []model.Board) GlobalStats {
	g := GlobalStats{TotalBoards: len(boards), Boards: make([]BoardStats, 0, len(boards))}
	for i := range boards {
		s := ForBoard(&boards[i])
		g.Boards = append(g.Boards, s)
		g.TotalTasks += s.Total
		g.TotalCompleted += s.Completed
		g.TotalInProgress += s.InProgress
		g.TotalTodo += s.Todo
	}
	g.CompletionRate = percent(g.TotalCompleted, g.TotalTasks)
	return g
}

// Entry is a task together with the board it lives on.
type Entry struct {
	Node      model.Node `json:"node" yaml:"node"`
	BoardID   string     `json:"boardId" yaml:"board_id"`
	BoardName string     `json:"boardName" yaml:"board_name"`
	// Overdue is set for incomplete tasks dated before the current day.
	Overdue bool `json:"overdue" yaml:"overdue"`
}

func tasks(boards []model.Board, now time.Time, datedOnly bool) []Entry {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	var out []Entry
	for _, b := range boards {
		for _, n := range b.Nodes {
			if n.Type != model.NodeTask {
				continue
			}
			if datedOnly && n.DateTime == nil {
				continue
			}
			e := Entry{Node: n.Clone(), BoardID: b.ID, BoardName: b.Name}
			if n.DateTime != nil && n.DateTime.Before(today) && n.EffectiveStatus() != model.StatusComplete {
				e.Overdue = true
			}
			out = append(out, e)
		}
	}
	return out
}

// Timeline lists every task across boards in ascending date order. Undated
// tasks come last. Ties keep board then node order.
func Timeline(boards []model.Board, now time.Time) []Entry {
	entries := tasks(boards, now, false)
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Node.DateTime, entries[j].Node.DateTime
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.Before(*b)
	})
	return entries
}

// DayFormat is the layout of Day.Date.
const DayFormat = "2006-01-02"

// Day groups the dated tasks falling on one calendar day.
type Day struct {
	Date    string  `json:"date" yaml:"date"`
	Entries []Entry `json:"entries" yaml:"entries"`
}

// Calendar groups dated tasks by calendar day in now's location. Days are
// ascending and each day's tasks are sorted by time.
func Calendar(boards []model.Board, now time.Time) []Day {
	entries := tasks(boards, now, true)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Node.DateTime.Before(*entries[j].Node.DateTime)
	})

	loc := now.Location()
	var days []Day
	for _, e := range entries {
		key := e.Node.DateTime.In(loc).Format(DayFormat)
		if len(days) == 0 || days[len(days)-1].Date != key {
			days = append(days, Day{Date: key})
		}
		last := &days[len(days)-1]
		last.Entries = append(last.Entries, e)
	}
	return days
}

// CountsByDay returns the number of tasks per day key.
func CountsByDay(days []Day) map[string]int {
	out := make(map[string]int, len(days))
	for _, d := range days {
		out[d.Date] = len(d.Entries)
	}
	return out
}
