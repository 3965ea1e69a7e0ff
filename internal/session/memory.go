package session

import (
	"context"
	"sync"
	"time"

	"github.com/debemdeboas/mediafront/internal/cache"
	"github.com/debemdeboas/mediafront/internal/model"
)

type memoryEntry struct {
	state   *model.ControllerState
	touched time.Time
}

type MemoryStore struct {
	entries *cache.Cache[string, memoryEntry]
	ttl     time.Duration
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore keeps sessions in process. Entries idle for longer than
// ttl are dropped every interval; a zero ttl or interval disables sweeping.
func NewMemoryStore(ttl, interval time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries: cache.NewCache[string, memoryEntry](),
		ttl:     ttl,
		now:     time.Now,
		stop:    make(chan struct{}),
	}

	if ttl > 0 && interval > 0 {
		go s.sweepLoop(interval)
	}
	return s
}

func (s *MemoryStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				sessionLogger.Debug().Int("expired", n).Msg("Swept memory sessions")
			}
		case <-s.stop:
			return
		}
	}
}

func (s *MemoryStore) expired(e memoryEntry) bool {
	return s.ttl > 0 && s.now().Sub(e.touched) > s.ttl
}

func (s *MemoryStore) Load(_ context.Context, id string) (*model.ControllerState, error) {
	e, ok := s.entries.Get(id)
	if !ok || s.expired(e) {
		return model.NewControllerState(), nil
	}
	return e.state.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, id string, state *model.ControllerState) error {
	s.entries.Set(id, memoryEntry{state: state.Clone(), touched: s.now()})
	return nil
}

// Sweep drops expired sessions and reports how many were removed.
func (s *MemoryStore) Sweep() int {
	return s.entries.DeleteFunc(func(_ string, e memoryEntry) bool {
		return s.expired(e)
	})
}

func (s *MemoryStore) Len() int {
	return s.entries.Len()
}

func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}
