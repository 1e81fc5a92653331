// internal/game/types.go
//
// Core types for a Word Heist play session on the server.

package game

import "time"

// Outcome is the result of applying one submitted word to a session.
// Exactly one case holds per attempt: Duplicate means the word was already
// accepted earlier; !Valid && !Duplicate means the puzzle rejects the word.
type Outcome struct {
	Valid     bool `json:"valid"`
	Duplicate bool `json:"duplicate"`
	Points    int  `json:"points"`
	IsMystery bool `json:"is_mystery"`
	Completed bool `json:"completed"`
}

// Session holds the state of one owner's run at one puzzle.
type Session struct {
	ID        string    // unique session identifier
	PuzzleID  string    // puzzle this session plays
	OwnerID   string    // user or anonymous identifier
	Found     []string  // accepted words in discovery order, normalized
	Score     int       // accumulated score including mystery bonus
	HintsUsed int       // hints consumed so far
	StartedAt time.Time // first activity; elapsed time measures from here
	Completed bool      // completion predicate satisfied
}
