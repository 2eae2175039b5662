package event

import (
	"errors"
	"testing"
)

func TestSubscribeAndPublish(t *testing.T) {
	bus := NewBus()

	var got []Topic
	remove, err := bus.Subscribe(TopicDocumentChanged, func(e Event) {
		got = append(got, e.Topic)
	})
	if err != nil {
		t.Fatalf("Subscribe error = %v", err)
	}
	defer remove()

	if err := bus.Publish(NewEvent(TopicDocumentChanged, DocumentChanged{Version: 1}, "test")); err != nil {
		t.Fatalf("Publish error = %v", err)
	}
	if err := bus.Publish(NewEvent(TopicSelectionChanged, SelectionChanged{}, "test")); err != nil {
		t.Fatalf("Publish error = %v", err)
	}

	if len(got) != 1 || got[0] != TopicDocumentChanged {
		t.Errorf("delivered = %v, want [document.changed]", got)
	}
}

func TestPublishInvalidTopic(t *testing.T) {
	bus := NewBus()
	if err := bus.Publish(Event{Topic: ""}); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("err = %v, want ErrInvalidTopic", err)
	}
	if err := bus.Publish(Event{Topic: "a..b"}); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("err = %v, want ErrInvalidTopic", err)
	}
}

func TestSubscribeValidation(t *testing.T) {
	bus := NewBus()
	if _, err := bus.Subscribe(TopicHistoryUndo, nil); !errors.Is(err, ErrNilHandler) {
		t.Errorf("nil handler err = %v", err)
	}
	if _, err := bus.Subscribe("", func(Event) {}); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty pattern err = %v", err)
	}
}

func TestWildcardSubscription(t *testing.T) {
	bus := NewBus()

	var hits int
	remove, err := bus.Subscribe("history.**", func(Event) { hits++ })
	if err != nil {
		t.Fatal(err)
	}
	defer remove()

	for _, topic := range []Topic{TopicHistoryPushed, TopicHistoryUndo, TopicHistoryRedo, TopicDocumentChanged} {
		if err := bus.Publish(NewEvent(topic, nil, "test")); err != nil {
			t.Fatal(err)
		}
	}

	if hits != 3 {
		t.Errorf("hits = %d, want 3", hits)
	}
}

func TestDeliveryOrder(t *testing.T) {
	bus := NewBus()

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		if _, err := bus.Subscribe(TopicHistoryPushed, func(Event) {
			order = append(order, i)
		}); err != nil {
			t.Fatal(err)
		}
	}

	if err := bus.Publish(NewEvent(TopicHistoryPushed, nil, "test")); err != nil {
		t.Fatal(err)
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("order = %v, want subscription order", order)
		}
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()

	var hits int
	remove, err := bus.Subscribe(TopicConfigReloaded, func(Event) { hits++ })
	if err != nil {
		t.Fatal(err)
	}

	_ = bus.Publish(NewEvent(TopicConfigReloaded, nil, "test"))
	remove()
	remove() // double removal is safe
	_ = bus.Publish(NewEvent(TopicConfigReloaded, nil, "test"))

	if hits != 1 {
		t.Errorf("hits = %d, want 1", hits)
	}
}

func TestSubscribeOnce(t *testing.T) {
	bus := NewBus()

	var hits int
	if _, err := bus.SubscribeOnce(TopicPluginLoaded, func(Event) { hits++ }); err != nil {
		t.Fatal(err)
	}

	_ = bus.Publish(NewEvent(TopicPluginLoaded, PluginLoaded{Name: "a"}, "test"))
	_ = bus.Publish(NewEvent(TopicPluginLoaded, PluginLoaded{Name: "b"}, "test"))

	if hits != 1 {
		t.Errorf("hits = %d, want 1", hits)
	}
	if n := bus.Stats().ActiveSubscribers; n != 0 {
		t.Errorf("ActiveSubscribers = %d, want 0", n)
	}
}

func TestPanicRecovery(t *testing.T) {
	bus := NewBus()

	var after int
	if _, err := bus.Subscribe(TopicPluginError, func(Event) { panic("bad handler") }); err != nil {
		t.Fatal(err)
	}
	if _, err := bus.Subscribe(TopicPluginError, func(Event) { after++ }); err != nil {
		t.Fatal(err)
	}

	if err := bus.Publish(NewEvent(TopicPluginError, nil, "test")); err != nil {
		t.Fatalf("Publish error = %v", err)
	}

	if after != 1 {
		t.Error("handler after the panicking one did not run")
	}
	stats := bus.Stats()
	if stats.HandlerPanics != 1 {
		t.Errorf("HandlerPanics = %d, want 1", stats.HandlerPanics)
	}
	if stats.EventsDelivered != 1 {
		t.Errorf("EventsDelivered = %d, want 1", stats.EventsDelivered)
	}
}

func TestEventMetadata(t *testing.T) {
	a := NewEvent(TopicDocumentChanged, nil, "engine")
	b := NewEvent(TopicDocumentChanged, nil, "engine")

	if a.Metadata.ID == "" || a.Metadata.ID == b.Metadata.ID {
		t.Error("event IDs must be unique and non-empty")
	}
	if a.Metadata.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
	if a.Metadata.Source != "engine" {
		t.Errorf("source = %q", a.Metadata.Source)
	}
}

func TestClear(t *testing.T) {
	bus := NewBus()
	for i := 0; i < 3; i++ {
		if _, err := bus.Subscribe("**", func(Event) {}); err != nil {
			t.Fatal(err)
		}
	}
	bus.Clear()
	if n := bus.Stats().ActiveSubscribers; n != 0 {
		t.Errorf("ActiveSubscribers = %d after Clear, want 0", n)
	}
}
