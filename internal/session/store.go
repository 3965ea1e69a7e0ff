// Package session keeps one ControllerState per visitor between requests.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/mediafront/internal/config"
	"github.com/debemdeboas/mediafront/internal/db"
	"github.com/debemdeboas/mediafront/internal/model"
	"github.com/debemdeboas/mediafront/internal/util/compression"
)

var sessionLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	sessionLogger = l
}

// ErrNotFound is returned by backends for unknown or expired ids.
// Store.Load never surfaces it: a missing session starts fresh.
var ErrNotFound = errors.New("session not found")

var errCorrupt = errors.New("corrupt session state")

type Store interface {
	// Load returns the state for id, or a fresh state if there is none.
	Load(ctx context.Context, id string) (*model.ControllerState, error)
	Save(ctx context.Context, id string, state *model.ControllerState) error
	Close() error
}

// New builds the backend selected by session.store.
func New(cfg config.SessionConfig) (Store, error) {
	switch cfg.Store {
	case config.SessionStoreMemory:
		return NewMemoryStore(cfg.TTL, sweepInterval(cfg.TTL)), nil
	case config.SessionStoreSQLite:
		codec, err := compression.ForName(cfg.Codec)
		if err != nil {
			return nil, err
		}
		conn := db.NewSQLite(cfg.SQLitePath)
		if err := conn.InitDb(); err != nil {
			return nil, err
		}
		return NewSQLiteStore(conn, codec, cfg.TTL, sweepInterval(cfg.TTL)), nil
	case config.SessionStoreRedis:
		codec, err := compression.ForName(cfg.Codec)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(NewRedisClient(cfg.RedisAddr), codec, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}
}

func sweepInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	if interval := ttl / 4; interval > time.Minute {
		return interval
	}
	return time.Minute
}

// encode serializes a state for the persistent backends.
func encode(codec compression.Compressor, state *model.ControllerState) ([]byte, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encoding session state: %w", err)
	}
	return codec.Compress(raw)
}

func decode(codec compression.Compressor, blob []byte) (*model.ControllerState, error) {
	raw, err := codec.Decompress(blob)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errCorrupt, err)
	}
	state := model.NewControllerState()
	if err := json.Unmarshal(raw, state); err != nil {
		return nil, fmt.Errorf("%w: %v", errCorrupt, err)
	}
	return state, nil
}

// loadOrFresh maps a missing or corrupt session to a fresh state.
// A corrupt blob is logged and replaced on the next save.
func loadOrFresh(id string, state *model.ControllerState, err error) (*model.ControllerState, error) {
	switch {
	case err == nil:
		return state, nil
	case errors.Is(err, ErrNotFound):
		return model.NewControllerState(), nil
	case errors.Is(err, errCorrupt):
		sessionLogger.Warn().Err(err).Str("session", id).Msg("Discarding unreadable session")
		return model.NewControllerState(), nil
	default:
		return nil, err
	}
}

// NewViewID identifies a fresh page load.
func NewViewID() string {
	return uuid.NewString()
}

// ViewID reads the page-load id htmx sends with every fragment request.
func ViewID(r *http.Request) (string, bool) {
	id, err := uuid.Parse(r.Header.Get(config.HViewID))
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// Key scopes a page load's state to the visitor, so tabs and reloads of
// the same visitor never share navigation state.
func Key(sessionID, viewID string) string {
	return sessionID + ":" + viewID
}

// ID returns the visitor's session id, issuing a new cookie when the
// request carries none or an invalid one.
func ID(w http.ResponseWriter, r *http.Request, cookieName string, ttl time.Duration) string {
	if c, err := r.Cookie(cookieName); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()
	cookie := &http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl > 0 {
		cookie.MaxAge = int(ttl.Seconds())
	}
	http.SetCookie(w, cookie)
	return id
}
