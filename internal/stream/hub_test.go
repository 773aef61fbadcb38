package stream

import (
	"testing"
	"time"
)

func TestSubscribeReceivesPublished(t *testing.T) {
	h := NewHub()
	defer h.Close()

	sub := h.Subscribe()
	defer sub.Close()

	e := Event{Collection: CollectionPayments, Op: OpCreated, ID: "p1", At: time.Now()}
	h.Publish(e)

	select {
	case got := <-sub.C():
		if got.Collection != CollectionPayments || got.Op != OpCreated || got.ID != "p1" {
			t.Fatalf("unexpected event: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("event not delivered")
	}
}

func TestSubscribeFiltersByCollection(t *testing.T) {
	h := NewHub()
	defer h.Close()

	sub := h.Subscribe(CollectionInvoices)
	defer sub.Close()

	h.Publish(Event{Collection: CollectionNotes, Op: OpCreated, ID: "n1"})
	h.Publish(Event{Collection: CollectionInvoices, Op: OpUpdated, ID: "i1"})

	select {
	case got := <-sub.C():
		if got.Collection != CollectionInvoices || got.ID != "i1" {
			t.Fatalf("filter leaked event: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("event not delivered")
	}

	select {
	case got := <-sub.C():
		t.Fatalf("unexpected second event: %+v", got)
	default:
	}
}

func TestCloseStopsDelivery(t *testing.T) {
	h := NewHub()
	defer h.Close()

	sub := h.Subscribe()
	sub.Close()

	h.Publish(Event{Collection: CollectionClients, Op: OpDeleted, ID: "c1"})

	if _, ok := <-sub.C(); ok {
		t.Fatalf("channel must be closed after Close")
	}

	// Повторный Close не должен паниковать.
	sub.Close()
}

func TestPublishDoesNotBlockSlowConsumer(t *testing.T) {
	h := NewHub()
	defer h.Close()

	sub := h.Subscribe()
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriptionBuffer*2; i++ {
			h.Publish(Event{Collection: CollectionPayments, Op: OpCreated, ID: "p"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Publish blocked on a slow consumer")
	}
}

func TestHubCloseClosesSubscriptions(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe()

	h.Close()

	if _, ok := <-sub.C(); ok {
		t.Fatalf("channel must be closed after hub Close")
	}

	h.Publish(Event{Collection: CollectionNotes, Op: OpCreated, ID: "n1"})

	late := h.Subscribe()
	if _, ok := <-late.C(); ok {
		t.Fatalf("subscription on a closed hub must be closed immediately")
	}
}
