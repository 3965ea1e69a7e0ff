package sse

import (
	"sync"
	"testing"
)

func TestBroadcastBySlug(t *testing.T) {
	clients := NewSSEClients()

	a := NewClient("my-post")
	b := NewClient("my-post")
	other := NewClient("other-post")
	clients.Add(a)
	clients.Add(b)
	clients.Add(other)

	if sent := clients.Broadcast("my-post", "6"); sent != 2 {
		t.Errorf("Expected 2 recipients, got %d", sent)
	}

	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.Msg:
			if msg != "6" {
				t.Errorf("Expected '6', got %q", msg)
			}
		default:
			t.Error("Expected a message for subscriber of my-post")
		}
	}

	select {
	case msg := <-other.Msg:
		t.Errorf("Did not expect a message for other-post, got %q", msg)
	default:
	}
}

func TestBroadcastDropsWhenFull(t *testing.T) {
	clients := NewSSEClients()
	c := NewClient("p")
	clients.Add(c)

	clients.Broadcast("p", "1")
	if sent := clients.Broadcast("p", "2"); sent != 0 {
		t.Errorf("Expected full client to be skipped, got %d recipients", sent)
	}
	if msg := <-c.Msg; msg != "1" {
		t.Errorf("Expected first update to be kept, got %q", msg)
	}
}

func TestDelete(t *testing.T) {
	clients := NewSSEClients()
	c := NewClient("p")
	clients.Add(c)
	clients.Delete(c)

	if clients.Count() != 0 {
		t.Errorf("Expected no clients, got %d", clients.Count())
	}
	if _, ok := <-c.Msg; ok {
		t.Error("Expected channel to be closed")
	}

	// Deleting twice must not close the channel again.
	clients.Delete(c)

	if sent := clients.Broadcast("p", "x"); sent != 0 {
		t.Errorf("Expected no recipients after delete, got %d", sent)
	}
}

func TestConcurrentAccess(t *testing.T) {
	clients := NewSSEClients()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c := NewClient("p")
			clients.Add(c)
			clients.Delete(c)
		}()
		go func() {
			defer wg.Done()
			clients.Broadcast("p", "1")
		}()
	}
	wg.Wait()

	if clients.Count() != 0 {
		t.Errorf("Expected all clients removed, got %d", clients.Count())
	}
}
