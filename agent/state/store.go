package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

var (
	ErrStateNotFound   = errors.New("session state not found")
	ErrNilSessionState = errors.New("session state is nil")
)

const (
	defaultSessionTTL    = 24 * time.Hour
	defaultSweepInterval = 10 * time.Minute
)

// Store is the persistence contract used by the waitress orchestrator.
// Sessions are conversation-scoped: no implementation may durably persist
// message content beyond the session TTL.
type Store interface {
	Load(ctx context.Context, sessionID string) (*SessionState, error)
	Save(ctx context.Context, st *SessionState) error
	Delete(ctx context.Context, sessionID string) error
}

// StoreOption customizes MemoryStore.
type StoreOption func(*memoryStoreConfig)

type memoryStoreConfig struct {
	ttl   time.Duration
	sweep time.Duration
}

func WithTTL(ttl time.Duration) StoreOption {
	return func(c *memoryStoreConfig) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithSweepInterval(d time.Duration) StoreOption {
	return func(c *memoryStoreConfig) {
		if d > 0 {
			c.sweep = d
		}
	}
}

// MemoryStore keeps sessions in an expiring in-process cache. Expired
// sessions simply disappear, which is the intended lifecycle: conversation
// memory is discarded at session end.
type MemoryStore struct {
	cache *gocache.Cache
}

func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	cfg := memoryStoreConfig{
		ttl:   defaultSessionTTL,
		sweep: defaultSweepInterval,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &MemoryStore{
		cache: gocache.New(cfg.ttl, cfg.sweep),
	}
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) (*SessionState, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}
	raw, found := s.cache.Get(sessionID)
	if !found {
		return nil, ErrStateNotFound
	}
	st, ok := raw.(*SessionState)
	if !ok {
		return nil, fmt.Errorf("unexpected session payload type %T", raw)
	}
	// Hand out a copy so callers cannot mutate the stored value in place.
	return st.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, st *SessionState) error {
	if st == nil {
		return ErrNilSessionState
	}
	if err := st.Validate(); err != nil {
		return err
	}
	s.cache.Set(st.SessionID, st.Clone(), gocache.DefaultExpiration)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSession
	}
	s.cache.Delete(sessionID)
	return nil
}
