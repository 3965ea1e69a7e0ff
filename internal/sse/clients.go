// Package sse tracks Server-Sent Events subscribers watching a post's view counter.
package sse

import (
	"sync"
)

type Client struct {
	Msg  chan string
	Slug string
}

func NewClient(slug string) *Client {
	return &Client{
		Msg:  make(chan string, 1),
		Slug: slug,
	}
}

type SSEClients struct {
	clients map[*Client]bool
	mu      sync.RWMutex
}

func NewSSEClients() *SSEClients {
	return &SSEClients{
		clients: make(map[*Client]bool),
	}
}

func (s *SSEClients) Add(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client] = true
}

func (s *SSEClients) Delete(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[client]; !ok {
		return
	}
	delete(s.clients, client)
	close(client.Msg)
}

// Broadcast sends msg to every client watching slug and reports how many
// received it. Slow clients whose buffer is full miss the update.
func (s *SSEClients) Broadcast(slug string, msg string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sent := 0
	for client := range s.clients {
		if client.Slug == slug {
			select {
			case client.Msg <- msg:
				sent++
			default:
			}
		}
	}
	return sent
}

func (s *SSEClients) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}
