// internal/game/engine.go
//
// Rules engine for a single Word Heist session.
// Responsibilities:
//   - Create sessions bound to an owner and a puzzle.
//   - Validate and apply word submissions: membership, duplicates, scoring.
//   - Track the completion predicate: all valid words found, or the mystery
//     word found.
//   - Serve hints by masking the first unfound word.
//
// Applying the same word twice always yields a Duplicate outcome; scores
// are never incremented twice for one word.

package game

import (
	"time"

	"github.com/google/uuid"

	"github.com/wordheist/wordheist/internal/puzzle"
)

// New constructs a session for owner playing p.
func New(ownerID string, p *puzzle.Puzzle) *Session {
	return &Session{
		ID:        uuid.NewString(),
		PuzzleID:  p.ID,
		OwnerID:   ownerID,
		Found:     []string{},
		StartedAt: time.Now().UTC(),
	}
}

// ApplyWord validates and scores one submitted word, mutating the session.
//
// Rules:
//   - Words are normalized before any check (upper-case, trimmed).
//   - A word the puzzle does not accept yields an invalid outcome.
//   - A word already in Found yields Duplicate with no state change.
//   - An accepted word appends to Found, adds its points (plus the mystery
//     bonus when applicable), and may flip Completed.
//
// A completed session still answers submissions: duplicates stay duplicates
// and unfound valid words still score, mirroring the original game where
// finding the mystery word does not lock the board.
func (s *Session) ApplyWord(p *puzzle.Puzzle, word string) Outcome {
	word = puzzle.Normalize(word)

	if !p.Contains(word) {
		return Outcome{Completed: s.Completed}
	}
	if s.HasFound(word) {
		return Outcome{Valid: true, Duplicate: true, Completed: s.Completed}
	}

	points := puzzle.Points(word)
	mystery := p.IsMystery(word)
	if mystery {
		points += puzzle.MysteryBonus
	}

	s.Found = append(s.Found, word)
	s.Score += points
	if mystery || len(s.Found) >= p.WordCount() {
		s.Completed = true
	}

	return Outcome{
		Valid:     true,
		Points:    points,
		IsMystery: mystery,
		Completed: s.Completed,
	}
}

// HasFound reports whether word was already accepted in this session.
func (s *Session) HasFound(word string) bool {
	word = puzzle.Normalize(word)
	for _, f := range s.Found {
		if f == word {
			return true
		}
	}
	return false
}

// NextHint returns the masked pattern of the first unfound valid word and
// records the hint as used. Returns "" when every word is already found.
func (s *Session) NextHint(p *puzzle.Puzzle) string {
	for _, w := range p.ValidWords() {
		if !s.HasFound(w) {
			s.HintsUsed++
			return puzzle.Mask(w)
		}
	}
	return ""
}

// Elapsed returns whole seconds since the session started.
func (s *Session) Elapsed() int {
	return int(time.Since(s.StartedAt).Seconds())
}
