package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "board.created", "plan.imported")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type identifiers.
const (
	TypeBoardCreated    = "board.created"
	TypeBoardUpdated    = "board.updated"
	TypeBoardDeleted    = "board.deleted"
	TypeBoardDuplicated = "board.duplicated"
	TypeBoardStarred    = "board.starred"
	TypeBoardActivated  = "board.activated"
	TypePlanImported    = "plan.imported"
	TypeStateReloaded   = "state.reloaded"
	TypeSettingsUpdated = "settings.updated"
)

// baseEvent provides common fields for all events.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Board Lifecycle Events
// -----------------------------------------------------------------------------

// BoardCreatedEvent is emitted after a new board is persisted.
type BoardCreatedEvent struct {
	baseEvent
	BoardID string
	Name    string
}

// NewBoardCreatedEvent creates a BoardCreatedEvent.
func NewBoardCreatedEvent(boardID, name string) BoardCreatedEvent {
	return BoardCreatedEvent{
		baseEvent: newBaseEvent(TypeBoardCreated),
		BoardID:   boardID,
		Name:      name,
	}
}

// BoardUpdatedEvent is emitted after a board's fields or canvas change.
type BoardUpdatedEvent struct {
	baseEvent
	BoardID string
	Fields  []string // JSON names of the fields that were patched
}

// NewBoardUpdatedEvent creates a BoardUpdatedEvent.
func NewBoardUpdatedEvent(boardID string, fields []string) BoardUpdatedEvent {
	return BoardUpdatedEvent{
		baseEvent: newBaseEvent(TypeBoardUpdated),
		BoardID:   boardID,
		Fields:    fields,
	}
}

// BoardDeletedEvent is emitted after a board is removed.
type BoardDeletedEvent struct {
	baseEvent
	BoardID       string
	ActiveBoardID string // active board after the deletion, "" when none
}

// NewBoardDeletedEvent creates a BoardDeletedEvent.
func NewBoardDeletedEvent(boardID, activeBoardID string) BoardDeletedEvent {
	return BoardDeletedEvent{
		baseEvent:     newBaseEvent(TypeBoardDeleted),
		BoardID:       boardID,
		ActiveBoardID: activeBoardID,
	}
}

// BoardDuplicatedEvent is emitted after a board is copied.
type BoardDuplicatedEvent struct {
	baseEvent
	SourceID string
	BoardID  string
}

// NewBoardDuplicatedEvent creates a BoardDuplicatedEvent.
func NewBoardDuplicatedEvent(sourceID, boardID string) BoardDuplicatedEvent {
	return BoardDuplicatedEvent{
		baseEvent: newBaseEvent(TypeBoardDuplicated),
		SourceID:  sourceID,
		BoardID:   boardID,
	}
}

// BoardStarredEvent is emitted when a board's starred flag flips.
type BoardStarredEvent struct {
	baseEvent
	BoardID string
	Starred bool
}

// NewBoardStarredEvent creates a BoardStarredEvent.
func NewBoardStarredEvent(boardID string, starred bool) BoardStarredEvent {
	return BoardStarredEvent{
		baseEvent: newBaseEvent(TypeBoardStarred),
		BoardID:   boardID,
		Starred:   starred,
	}
}

// BoardActivatedEvent is emitted when the active board changes.
type BoardActivatedEvent struct {
	baseEvent
	BoardID string // "" when no board is active
}

// NewBoardActivatedEvent creates a BoardActivatedEvent.
func NewBoardActivatedEvent(boardID string) BoardActivatedEvent {
	return BoardActivatedEvent{
		baseEvent: newBaseEvent(TypeBoardActivated),
		BoardID:   boardID,
	}
}

// -----------------------------------------------------------------------------
// Import and State Events
// -----------------------------------------------------------------------------

// PlanImportedEvent is emitted when a plan becomes a new board.
type PlanImportedEvent struct {
	baseEvent
	BoardID     string
	Nodes       int
	Connections int
}

// NewPlanImportedEvent creates a PlanImportedEvent.
func NewPlanImportedEvent(boardID string, nodes, connections int) PlanImportedEvent {
	return PlanImportedEvent{
		baseEvent:   newBaseEvent(TypePlanImported),
		BoardID:     boardID,
		Nodes:       nodes,
		Connections: connections,
	}
}

// StateReloadedEvent is emitted when the store re-reads its document after
// an external change.
type StateReloadedEvent struct {
	baseEvent
	Boards int
}

// NewStateReloadedEvent creates a StateReloadedEvent.
func NewStateReloadedEvent(boards int) StateReloadedEvent {
	return StateReloadedEvent{
		baseEvent: newBaseEvent(TypeStateReloaded),
		Boards:    boards,
	}
}

// SettingsUpdatedEvent is emitted after the app settings change.
type SettingsUpdatedEvent struct {
	baseEvent
}

// NewSettingsUpdatedEvent creates a SettingsUpdatedEvent.
func NewSettingsUpdatedEvent() SettingsUpdatedEvent {
	return SettingsUpdatedEvent{baseEvent: newBaseEvent(TypeSettingsUpdated)}
}

// BoardID returns the board an event concerns, or "" for state-wide events.
func BoardID(e Event) string {
	switch ev := e.(type) {
	case BoardCreatedEvent:
		return ev.BoardID
	case BoardUpdatedEvent:
		return ev.BoardID
	case BoardDeletedEvent:
		return ev.BoardID
	case BoardDuplicatedEvent:
		return ev.BoardID
	case BoardStarredEvent:
		return ev.BoardID
	case BoardActivatedEvent:
		return ev.BoardID
	case PlanImportedEvent:
		return ev.BoardID
	default:
		return ""
	}
}
