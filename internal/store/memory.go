// internal/store/memory.go
//
// In-memory implementation of the session Store interface. Live play
// sessions are ephemeral: completed results go to the database, but the
// in-progress found-word state lives here and is lost on restart.
//
// Characteristics:
//   - Sessions keyed by ID, with a secondary owner|puzzle index so a
//     returning player resumes the same run.
//   - Concurrency-safe via RWMutex.
//   - Get returns ErrNotFound for missing sessions.

package store

import (
	"context"
	"errors"
	"sync"

	"github.com/wordheist/wordheist/internal/game"
)

// ErrNotFound is returned when no session matches the lookup.
var ErrNotFound = errors.New("store: session not found")

// Store defines the persistence interface for live sessions.
// Implementations may be backed by memory (this package), Redis, SQL, etc.
type Store interface {
	// Save persists or updates a session.
	Save(ctx context.Context, s *game.Session) error

	// Get retrieves a session by ID.
	Get(ctx context.Context, id string) (*game.Session, error)

	// Find retrieves the session for an owner playing a puzzle.
	Find(ctx context.Context, ownerID, puzzleID string) (*game.Session, error)
}

type memory struct {
	mu      sync.RWMutex
	byID    map[string]*game.Session
	byOwner map[string]string // ownerID|puzzleID -> session ID
}

// NewMemoryStore constructs an in-memory Store.
func NewMemoryStore() Store {
	return &memory{
		byID:    make(map[string]*game.Session),
		byOwner: make(map[string]string),
	}
}

func ownerKey(ownerID, puzzleID string) string { return ownerID + "|" + puzzleID }

func (m *memory) Save(ctx context.Context, s *game.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[s.ID] = s
	m.byOwner[ownerKey(s.OwnerID, s.PuzzleID)] = s.ID
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*game.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.byID[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Find(ctx context.Context, ownerID, puzzleID string) (*game.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.byOwner[ownerKey(ownerID, puzzleID)]; ok {
		if s, ok := m.byID[id]; ok {
			return s, nil
		}
	}
	return nil, ErrNotFound
}
