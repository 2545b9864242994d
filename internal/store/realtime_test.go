package store

import (
	"context"
	"testing"
	"time"
)

func TestBusDeliversByTable(t *testing.T) {
	bus := NewBus()
	msgs := bus.Subscribe(TableMessages)
	defer msgs.Cancel()
	everything := bus.Subscribe("")
	defer everything.Cancel()

	bus.Publish(Event{Table: TableNotifications, Kind: EventInsert, Notification: &Notification{ID: "n1"}})
	bus.Publish(Event{Table: TableMessages, Kind: EventInsert, Message: &Message{ID: "m1"}})

	select {
	case ev := <-msgs.C:
		if ev.Message == nil || ev.Message.ID != "m1" {
			t.Fatalf("message subscriber got %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("message subscriber got nothing")
	}
	select {
	case ev := <-msgs.C:
		t.Fatalf("message subscriber got extra event %+v", ev)
	default:
	}

	for i := 0; i < 2; i++ {
		select {
		case <-everything.C:
		case <-time.After(time.Second):
			t.Fatal("wildcard subscriber missed an event")
		}
	}
}

func TestBusDropsWhenSubscriberIsFull(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(TableMessages)
	defer sub.Cancel()

	for i := 0; i < subscriptionBuffer+5; i++ {
		bus.Publish(Event{Table: TableMessages, Kind: EventInsert, Message: &Message{ID: "m"}})
	}

	if got := bus.Dropped(); got != 5 {
		t.Fatalf("dropped = %d, want 5", got)
	}

	// The buffered events are all still there.
	for i := 0; i < subscriptionBuffer; i++ {
		select {
		case <-sub.C:
		default:
			t.Fatalf("only %d buffered events survived", i)
		}
	}
}

func TestSubscriptionCancel(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(TableMessages)

	sub.Cancel()
	sub.Cancel() // idempotent

	if _, ok := <-sub.C; ok {
		t.Fatal("cancel should close the event channel")
	}

	// Publishing after cancel must not panic or deliver.
	bus.Publish(Event{Table: TableMessages, Kind: EventInsert, Message: &Message{ID: "m1"}})
}

func TestMemoryPublishesInserts(t *testing.T) {
	mem := NewMemory()
	sub := mem.Subscribe(TableMessages)
	defer sub.Cancel()

	if err := mem.InsertMessage(context.Background(), &Message{SenderID: "u1", Content: "hi"}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	select {
	case ev := <-sub.C:
		if ev.Kind != EventInsert || ev.Message == nil || ev.Message.Content != "hi" {
			t.Fatalf("event = %+v", ev)
		}
		if ev.Message.ID == "" {
			t.Fatal("published message should carry its assigned ID")
		}
	case <-time.After(time.Second):
		t.Fatal("insert never reached the subscriber")
	}
}
