package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/debemdeboas/mediafront/internal/db"
	"github.com/debemdeboas/mediafront/internal/model"
	"github.com/debemdeboas/mediafront/internal/util/compression"
)

const (
	sqlSelectSession = `SELECT state, updated_at FROM sessions WHERE id = ?`
	sqlUpsertSession = `INSERT INTO sessions (id, state, updated_at) VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`
	sqlSweepSessions = `DELETE FROM sessions WHERE updated_at < ?`
)

type SQLiteStore struct {
	db    db.Db
	codec compression.Compressor
	ttl   time.Duration
	now   func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	sweeping sync.WaitGroup
}

// NewSQLiteStore expects conn to be initialized already. Rows idle for
// longer than ttl are deleted every interval; a zero ttl or interval
// disables sweeping.
func NewSQLiteStore(conn db.Db, codec compression.Compressor, ttl, interval time.Duration) *SQLiteStore {
	s := &SQLiteStore{
		db:    conn,
		codec: codec,
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
	}

	if ttl > 0 && interval > 0 {
		s.sweeping.Add(1)
		go s.sweepLoop(interval)
	}
	return s
}

func (s *SQLiteStore) sweepLoop(interval time.Duration) {
	defer s.sweeping.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			n, err := s.Sweep(ctx)
			cancel()
			if err != nil {
				sessionLogger.Warn().Err(err).Msg("Failed to sweep sqlite sessions")
			} else if n > 0 {
				sessionLogger.Debug().Int64("expired", n).Msg("Swept sqlite sessions")
			}
		case <-s.stop:
			return
		}
	}
}

func (s *SQLiteStore) get(ctx context.Context, id string) (*model.ControllerState, error) {
	var blob []byte
	var updated int64
	err := s.db.QueryRow(ctx, sqlSelectSession, id).Scan(&blob, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}

	if s.ttl > 0 && s.now().Sub(time.Unix(updated, 0)) > s.ttl {
		return nil, ErrNotFound
	}
	return decode(s.codec, blob)
}

func (s *SQLiteStore) Load(ctx context.Context, id string) (*model.ControllerState, error) {
	state, err := s.get(ctx, id)
	return loadOrFresh(id, state, err)
}

func (s *SQLiteStore) Save(ctx context.Context, id string, state *model.ControllerState) error {
	blob, err := encode(s.codec, state)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, sqlUpsertSession, id, blob, s.now().Unix()); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}

// Sweep deletes sessions idle for longer than the ttl.
func (s *SQLiteStore) Sweep(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	res, err := s.db.Exec(ctx, sqlSweepSessions, s.now().Add(-s.ttl).Unix())
	if err != nil {
		return 0, fmt.Errorf("sweeping sessions: %w", err)
	}
	return res.RowsAffected()
}

// Close stops the sweeper before closing the database.
func (s *SQLiteStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	s.sweeping.Wait()
	return s.db.Close()
}
