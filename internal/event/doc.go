// Package event provides a synchronous pub-sub bus for board change
// notifications.
//
// The board store publishes one event per committed mutation after the new
// state has been persisted. Subscribers (the HTTP server's event stream, the
// autosave scheduler, the CLI watch command) never see a change that was
// rolled back.
//
// # Basic Usage
//
//	bus := event.NewBus(logger)
//
//	bus.Subscribe(event.TypeBoardCreated, func(e event.Event) {
//	    created := e.(event.BoardCreatedEvent)
//	    fmt.Println("new board", created.Name)
//	})
//
//	// Subscribe to all events (useful for logging)
//	bus.SubscribeAll(func(e event.Event) {
//	    logger.Debug("event", "type", e.EventType(), "board_id", event.BoardID(e))
//	})
//
// # Event Type Naming Convention
//
// Event types follow the pattern "category.action":
//   - board.created, board.updated, board.deleted, board.duplicated
//   - board.starred, board.activated
//   - plan.imported
//   - state.reloaded, settings.updated
//
// Handlers run synchronously on the publishing goroutine. A panicking
// handler is recovered and logged; the remaining handlers still run.
package event
