package controller

import (
	"errors"
	"sync"
)

// ErrSuperseded means a newer navigation started for the same session
// before this one finished. Its result must not be shown or persisted.
var ErrSuperseded = errors.New("navigation superseded")

type navigation struct {
	commit sync.Mutex
	latest uint64
}

// Navigations hands out ordered tokens per session so that only the most
// recently started navigation may commit its state.
type Navigations struct {
	mu       sync.Mutex
	seq      uint64
	sessions map[string]*navigation
}

func NewNavigations() *Navigations {
	return &Navigations{
		sessions: make(map[string]*navigation),
	}
}

// Begin marks a new navigation as the latest for session.
// Tokens are unique across sessions and strictly increasing.
func (n *Navigations) Begin(session string) uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.seq++
	nav, ok := n.sessions[session]
	if !ok {
		nav = &navigation{}
		n.sessions[session] = nav
	}
	nav.latest = n.seq
	return n.seq
}

func (n *Navigations) isLatest(session string, token uint64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	nav, ok := n.sessions[session]
	return ok && nav.latest == token
}

// Commit runs fn only if token is still the latest navigation for session.
// Commits for one session are serialized, so a stale navigation can never
// write after a newer one.
func (n *Navigations) Commit(session string, token uint64, fn func() error) error {
	n.mu.Lock()
	nav, ok := n.sessions[session]
	n.mu.Unlock()
	if !ok {
		return ErrSuperseded
	}

	nav.commit.Lock()
	defer nav.commit.Unlock()

	if !n.isLatest(session, token) {
		return ErrSuperseded
	}
	return fn()
}

// End releases the session's entry once its latest navigation is done.
func (n *Navigations) End(session string, token uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if nav, ok := n.sessions[session]; ok && nav.latest == token {
		delete(n.sessions, session)
	}
}
