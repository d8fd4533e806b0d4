package event

import (
	"sync"
	"testing"
)

func TestBus_Subscribe(t *testing.T) {
	bus := NewBus(nil)

	called := false
	id := bus.Subscribe(TypeBoardCreated, func(e Event) {
		called = true
	})

	if id == "" {
		t.Error("Subscribe should return a non-empty ID")
	}
	if bus.SubscriptionCount() != 1 {
		t.Errorf("Expected 1 subscription, got %d", bus.SubscriptionCount())
	}
	if called {
		t.Error("Handler should not be called until an event is published")
	}
}

func TestBus_Publish(t *testing.T) {
	bus := NewBus(nil)

	var received Event
	bus.Subscribe(TypeBoardCreated, func(e Event) {
		received = e
	})
	bus.Publish(NewBoardCreatedEvent("b1", "Roadmap"))

	created, ok := received.(BoardCreatedEvent)
	if !ok {
		t.Fatalf("received %T, want BoardCreatedEvent", received)
	}
	if created.BoardID != "b1" || created.Name != "Roadmap" {
		t.Errorf("received %+v", created)
	}
	if created.Timestamp().IsZero() {
		t.Error("event timestamp should be set")
	}
}

func TestBus_OnlyMatchingType(t *testing.T) {
	bus := NewBus(nil)

	calls := 0
	bus.Subscribe(TypeBoardDeleted, func(Event) { calls++ })
	bus.Publish(NewBoardStarredEvent("b1", true))

	if calls != 0 {
		t.Errorf("handler for %s called %d times for board.starred", TypeBoardDeleted, calls)
	}
}

func TestBus_OrderSpecificThenWildcard(t *testing.T) {
	bus := NewBus(nil)

	var order []string
	bus.SubscribeAll(func(Event) { order = append(order, "all") })
	bus.Subscribe(TypePlanImported, func(Event) { order = append(order, "first") })
	bus.Subscribe(TypePlanImported, func(Event) { order = append(order, "second") })

	bus.Publish(NewPlanImportedEvent("b1", 3, 2))

	want := []string{"first", "second", "all"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order = %v, want %v", order, want)
			break
		}
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(nil)

	calls := 0
	a := bus.Subscribe(TypeBoardUpdated, func(Event) { calls++ })
	b := bus.SubscribeAll(func(Event) { calls++ })
	if a == b {
		t.Fatalf("subscription ids collide: %q", a)
	}

	if !bus.Unsubscribe(a) {
		t.Error("Unsubscribe should report success for a known id")
	}
	if bus.Unsubscribe(a) {
		t.Error("Unsubscribe should report failure for an unknown id")
	}

	bus.Publish(NewBoardUpdatedEvent("b1", []string{"name"}))
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (wildcard only)", calls)
	}
}

func TestBus_UnsubscribeDuringPublish(t *testing.T) {
	bus := NewBus(nil)

	var id string
	calls := 0
	id = bus.Subscribe(TypeBoardUpdated, func(Event) {
		calls++
		bus.Unsubscribe(id)
	})
	bus.Subscribe(TypeBoardUpdated, func(Event) { calls++ })

	bus.Publish(NewBoardUpdatedEvent("b1", nil))
	bus.Publish(NewBoardUpdatedEvent("b1", nil))

	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestBus_PanicRecovery(t *testing.T) {
	bus := NewBus(nil)

	reached := false
	bus.Subscribe(TypeStateReloaded, func(Event) { panic("boom") })
	bus.Subscribe(TypeStateReloaded, func(Event) { reached = true })

	bus.Publish(NewStateReloadedEvent(2))

	if !reached {
		t.Error("handler after a panicking handler should still run")
	}
}

func TestBus_Clear(t *testing.T) {
	bus := NewBus(nil)
	bus.Subscribe(TypeBoardCreated, func(Event) {})
	bus.SubscribeAll(func(Event) {})

	bus.Clear()
	if bus.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d after Clear", bus.SubscriptionCount())
	}
}

func TestBus_Concurrent(t *testing.T) {
	bus := NewBus(nil)

	var mu sync.Mutex
	received := 0
	bus.SubscribeAll(func(Event) {
		mu.Lock()
		received++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := bus.Subscribe(TypeBoardActivated, func(Event) {})
			bus.Publish(NewBoardActivatedEvent("b"))
			bus.Unsubscribe(id)
		}()
	}
	wg.Wait()

	if received != 20 {
		t.Errorf("received = %d, want 20", received)
	}
}

func TestBoardID(t *testing.T) {
	tests := []struct {
		event Event
		want  string
	}{
		{NewBoardCreatedEvent("a", "n"), "a"},
		{NewBoardUpdatedEvent("b", nil), "b"},
		{NewBoardDeletedEvent("c", ""), "c"},
		{NewBoardDuplicatedEvent("src", "d"), "d"},
		{NewBoardStarredEvent("e", false), "e"},
		{NewBoardActivatedEvent("f"), "f"},
		{NewPlanImportedEvent("g", 1, 0), "g"},
		{NewStateReloadedEvent(1), ""},
		{NewSettingsUpdatedEvent(), ""},
	}
	for _, tt := range tests {
		if got := BoardID(tt.event); got != tt.want {
			t.Errorf("BoardID(%s) = %q, want %q", tt.event.EventType(), got, tt.want)
		}
	}
}
