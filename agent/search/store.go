package search

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	contractx "github.com/parlaplate/parlaplate/agent/contract"
)

// Record is one cached item embedding. It is valid only while Fingerprint
// matches the current content hash of the corresponding menu item.
type Record struct {
	ItemID      string    `json:"item_id"`
	Fingerprint string    `json:"fingerprint"`
	Vector      []float64 `json:"vector"`
}

// Store is the injectable embedding cache: get and put by content
// fingerprint. Put must be idempotent: the vector for a given fingerprint is
// identical by construction, so last-writer-wins is conflict free.
type Store interface {
	Get(fingerprint string) (Record, bool)
	Put(rec Record) error
}

// MemoryStore is a process-scoped cache safe for concurrent first-access from
// multiple sessions targeting the same restaurant.
type MemoryStore struct {
	cache *gocache.Cache
}

func NewMemoryStore() *MemoryStore {
	// Embeddings stay valid as long as the fingerprint matches; no TTL.
	return &MemoryStore{cache: gocache.New(gocache.NoExpiration, 0)}
}

func (s *MemoryStore) Get(fingerprint string) (Record, bool) {
	raw, found := s.cache.Get(fingerprint)
	if !found {
		return Record{}, false
	}
	rec, ok := raw.(Record)
	if !ok {
		return Record{}, false
	}
	return rec, true
}

func (s *MemoryStore) Put(rec Record) error {
	if rec.Fingerprint == "" {
		return fmt.Errorf("%w: record fingerprint is empty", contractx.ErrValidation)
	}
	s.cache.Set(rec.Fingerprint, rec, gocache.NoExpiration)
	return nil
}

// filePayload is the on-disk cache layout. Dimensions is stored explicitly so
// a model change invalidates the whole file at load time.
type filePayload struct {
	Dimensions int               `json:"dimensions"`
	Records    map[string]Record `json:"records"`
}

// FileStore persists embedding records to a content-fingerprint-named JSON
// file. Loading is best effort: an absent, unreadable, or dimensionally
// mismatched file degrades to an empty cache and the records regenerate.
type FileStore struct {
	mu         sync.RWMutex
	records    map[string]Record
	path       string
	dimensions int
}

// NewFileStore opens (or initializes) the cache file for one restaurant
// content fingerprint. Corruption is logged and discarded, never fatal.
func NewFileStore(dir, contentFingerprint string, dimensions int) *FileStore {
	s := &FileStore{
		records:    make(map[string]Record),
		path:       filepath.Join(dir, contentFingerprint+".emb.json"),
		dimensions: dimensions,
	}
	if err := s.load(); err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("embedding cache discarded, will regenerate")
		s.records = make(map[string]Record)
	}
	return s
}

func (s *FileStore) load() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: %v", contractx.ErrCacheCorruption, err)
	}

	var payload filePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("%w: decode: %v", contractx.ErrCacheCorruption, err)
	}
	if payload.Dimensions != s.dimensions {
		return fmt.Errorf("%w: dimensions %d, want %d", contractx.ErrCacheCorruption, payload.Dimensions, s.dimensions)
	}
	for fp, rec := range payload.Records {
		if len(rec.Vector) != s.dimensions || rec.Fingerprint != fp {
			return fmt.Errorf("%w: record %s is inconsistent", contractx.ErrCacheCorruption, fp)
		}
	}
	if payload.Records != nil {
		s.records = payload.Records
	}
	return nil
}

func (s *FileStore) Get(fingerprint string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[fingerprint]
	return rec, ok
}

func (s *FileStore) Put(rec Record) error {
	if rec.Fingerprint == "" {
		return fmt.Errorf("%w: record fingerprint is empty", contractx.ErrValidation)
	}
	if len(rec.Vector) != s.dimensions {
		return fmt.Errorf("%w: vector has %d dimensions, want %d", contractx.ErrValidation, len(rec.Vector), s.dimensions)
	}
	s.mu.Lock()
	s.records[rec.Fingerprint] = rec
	s.mu.Unlock()
	return nil
}

// Flush writes the cache to disk. A flush failure is reported but leaves the
// in-memory records intact, so search keeps working.
func (s *FileStore) Flush() error {
	s.mu.RLock()
	payload := filePayload{
		Dimensions: s.dimensions,
		Records:    make(map[string]Record, len(s.records)),
	}
	for fp, rec := range s.records {
		payload.Records[fp] = rec
	}
	s.mu.RUnlock()

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal embedding cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write embedding cache: %w", err)
	}
	return nil
}
