package board

import (
	"context"
	"sort"
	"strings"

	"github.com/Iron-Ham/mindnode/internal/errors"
	"github.com/Iron-Ham/mindnode/internal/event"
	"github.com/Iron-Ham/mindnode/internal/model"
)

// CopySuffix is appended to the name of duplicated boards.
const CopySuffix = " (Copy)"

// newBoard returns an empty board with default glossary and settings.
func (s *Store) newBoard(name, description string) model.Board {
	now := s.now()
	return model.Board{
		ID:            s.newID(),
		Name:          name,
		Description:   description,
		CreatedAt:     now,
		UpdatedAt:     now,
		Nodes:         []model.Node{},
		Connections:   []model.Connection{},
		ColorGlossary: model.DefaultGlossary(),
		Settings:      model.DefaultBoardSettings(),
	}
}

// CreateBoard appends a new empty board, makes it the active board and
// returns its id.
func (s *Store) CreateBoard(ctx context.Context, name, description string) (string, error) {
	if err := model.Validate(Patch{Name: &name}); err != nil {
		return "", err
	}

	var id string
	err := s.mutate(ctx, "create_board", func(st *model.State) (event.Event, error) {
		b := s.newBoard(name, description)
		id = b.ID
		st.Boards = append(st.Boards, b)
		st.ActiveBoardID = b.ID
		return event.NewBoardCreatedEvent(b.ID, b.Name), nil
	})
	if err != nil {
		return "", err
	}
	s.logger.WithBoard(id).Info("board created", "name", name)
	return id, nil
}

// UpdateBoard merges patch into the board. The updated timestamp is always
// refreshed, even by an empty patch. Connections carried by the patch must
// join nodes of the patched board; a patch that only replaces nodes may
// leave existing connections dangling.
func (s *Store) UpdateBoard(ctx context.Context, id string, patch Patch) error {
	if err := patch.validate(); err != nil {
		return err
	}
	return s.mutate(ctx, "update_board", func(st *model.State) (event.Event, error) {
		b, _, err := find(st, id)
		if err != nil {
			return nil, err
		}
		patch.apply(b)
		if patch.Connections != nil {
			if err := checkEndpoints(b.Nodes, b.Connections); err != nil {
				return nil, err
			}
		}
		s.touch(b)
		return event.NewBoardUpdatedEvent(id, patch.Fields()), nil
	})
}

// DeleteBoard removes the board and clears the active board if it was the
// one removed.
func (s *Store) DeleteBoard(ctx context.Context, id string) error {
	err := s.mutate(ctx, "delete_board", func(st *model.State) (event.Event, error) {
		_, idx, err := find(st, id)
		if err != nil {
			return nil, err
		}
		st.Boards = append(st.Boards[:idx], st.Boards[idx+1:]...)
		if st.ActiveBoardID == id {
			st.ActiveBoardID = ""
		}
		return event.NewBoardDeletedEvent(id, st.ActiveBoardID), nil
	})
	if err == nil {
		s.logger.WithBoard(id).Info("board deleted")
	}
	return err
}

// DuplicateBoard appends a copy of the board with a new id, a suffixed name
// and fresh timestamps. Node and connection ids are regenerated and the
// copy's connections are remapped onto the new node ids, so the copy shares
// no identifiers with the original. The active board is unchanged.
func (s *Store) DuplicateBoard(ctx context.Context, id string) (string, error) {
	var newID string
	err := s.mutate(ctx, "duplicate_board", func(st *model.State) (event.Event, error) {
		src, _, err := find(st, id)
		if err != nil {
			return nil, err
		}

		cp := src.Clone()
		now := s.now()
		cp.ID = s.newID()
		cp.Name = src.Name + CopySuffix
		cp.CreatedAt = now
		cp.UpdatedAt = now

		remap := make(map[string]string, len(cp.Nodes))
		for i := range cp.Nodes {
			nid := s.newID()
			remap[cp.Nodes[i].ID] = nid
			cp.Nodes[i].ID = nid
		}
		for i := range cp.Connections {
			c := &cp.Connections[i]
			c.ID = s.newID()
			if nid, ok := remap[c.Source]; ok {
				c.Source = nid
			}
			if nid, ok := remap[c.Target]; ok {
				c.Target = nid
			}
		}

		newID = cp.ID
		st.Boards = append(st.Boards, cp)
		return event.NewBoardDuplicatedEvent(id, cp.ID), nil
	})
	if err != nil {
		return "", err
	}
	return newID, nil
}

// ToggleStar flips the starred flag and returns the new value.
func (s *Store) ToggleStar(ctx context.Context, id string) (bool, error) {
	var starred bool
	err := s.mutate(ctx, "toggle_star", func(st *model.State) (event.Event, error) {
		b, _, err := find(st, id)
		if err != nil {
			return nil, err
		}
		b.Starred = !b.Starred
		starred = b.Starred
		return event.NewBoardStarredEvent(id, starred), nil
	})
	return starred, err
}

// SetActiveBoard sets the active board. An empty id clears it.
func (s *Store) SetActiveBoard(ctx context.Context, id string) error {
	return s.mutate(ctx, "set_active_board", func(st *model.State) (event.Event, error) {
		if id != "" {
			if _, _, err := find(st, id); err != nil {
				return nil, err
			}
		}
		st.ActiveBoardID = id
		return event.NewBoardActivatedEvent(id), nil
	})
}

// ActiveBoardID returns the active board id, or "" when none is active.
func (s *Store) ActiveBoardID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ActiveBoardID
}

// UpdateAppSettings merges patch into the application settings.
func (s *Store) UpdateAppSettings(ctx context.Context, patch SettingsPatch) error {
	return s.mutate(ctx, "update_settings", func(st *model.State) (event.Event, error) {
		if err := patch.validate(st.AppSettings); err != nil {
			return nil, err
		}
		patch.apply(&st.AppSettings)
		return event.NewSettingsUpdatedEvent(), nil
	})
}

// AppSettings returns a copy of the application settings.
func (s *Store) AppSettings() model.AppSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.AppSettings.Clone()
}

// Board returns a copy of the board with id. It does not check the
// password; use Unlock for gated access.
func (s *Store) Board(id string) (model.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, _, err := find(&s.state, id)
	if err != nil {
		return model.Board{}, err
	}
	return b.Clone(), nil
}

// Boards returns copies of all boards in store order.
func (s *Store) Boards() []model.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Board, len(s.state.Boards))
	for i, b := range s.state.Boards {
		out[i] = b.Clone()
	}
	return out
}

// Filter selects board summaries.
type Filter struct {
	Starred bool
	// Match, when set, must accept the board name.
	Match Matcher
}

// Matcher matches board names.
type Matcher interface {
	Match(name string) bool
}

// Summaries returns the summaries of the boards selected by f, starred
// boards first, then most recently updated.
func (s *Store) Summaries(f Filter) []model.Summary {
	s.mu.Lock()
	out := make([]model.Summary, 0, len(s.state.Boards))
	for i := range s.state.Boards {
		b := &s.state.Boards[i]
		if f.Starred && !b.Starred {
			continue
		}
		if f.Match != nil && !f.Match.Match(b.Name) {
			continue
		}
		out = append(out, b.Summarize())
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Starred != out[j].Starred {
			return out[i].Starred
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// Resolve finds a board by id, then by name. Name matching is exact first,
// then case-insensitive when exactly one board matches.
func (s *Store) Resolve(ref string) (model.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, _, err := find(&s.state, ref); err == nil {
		return b.Clone(), nil
	}
	var folded []*model.Board
	for i := range s.state.Boards {
		b := &s.state.Boards[i]
		if b.Name == ref {
			return b.Clone(), nil
		}
		if strings.EqualFold(b.Name, ref) {
			folded = append(folded, b)
		}
	}
	switch len(folded) {
	case 0:
		return model.Board{}, errors.BoardNotFound(ref)
	case 1:
		return folded[0].Clone(), nil
	default:
		return model.Board{}, errors.NewValidationError("board name is ambiguous").
			WithField("board").WithValue(ref)
	}
}

// IsLocked reports whether the board has a password.
func (s *Store) IsLocked(id string) (bool, error) {
	b, err := s.Board(id)
	if err != nil {
		return false, err
	}
	return b.IsLocked(), nil
}

// Unlock checks password against the board's password. Boards without a
// password are always unlocked. The comparison is plain string equality;
// the password is an access hint, not a secret store.
func (s *Store) Unlock(id, password string) error {
	b, err := s.Board(id)
	if err != nil {
		return err
	}
	if !b.IsLocked() {
		return nil
	}
	if password == "" {
		return errors.ErrBoardLocked
	}
	if !b.CheckPassword(password) {
		return errors.ErrIncorrectPassword
	}
	return nil
}
