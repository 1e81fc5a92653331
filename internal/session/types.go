// internal/session/types.go
//
// Client-side session state and outcome types for the reconciler.
//
// A Session tracks one player's run at one puzzle. In authenticated mode
// the server owns the found-word set and score; the session keeps a local
// mirror that is replaced wholesale by every authoritative response, so the
// two sources are never merged for a single attempt. In anonymous mode the
// local state is the only source of truth.

package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/wordheist/wordheist/internal/puzzle"
)

// Mode says which source of truth governs the session.
type Mode int

const (
	// Anonymous sessions validate and score locally.
	Anonymous Mode = iota
	// Authenticated sessions defer to the server, falling back to local
	// validation per attempt when the server is unreachable.
	Authenticated
)

// HintsUnlimited marks a premium allowance that never decrements.
const HintsUnlimited = -1

// OutcomeKind tags the result of one submission.
type OutcomeKind int

const (
	// OutcomeInvalid: the puzzle does not accept the word.
	OutcomeInvalid OutcomeKind = iota
	// OutcomeAccepted: the word scored for the first time.
	OutcomeAccepted
	// OutcomeDuplicate: the word was already found; nothing changed.
	OutcomeDuplicate
)

// Outcome is the single result applied for one attempt.
type Outcome struct {
	Kind          OutcomeKind
	Points        int
	IsMystery     bool
	Completed     bool
	Score         int      // authoritative score after this attempt
	FoundWords    []string // authoritative found list after this attempt
	LocalFallback bool     // true when the remote path failed and local validation served this attempt
}

// Attempt is one submission built from the player's selected tiles.
type Attempt struct {
	Tiles []string
}

// NewAttempt builds an attempt from a typed word, one tile per letter.
func NewAttempt(word string) Attempt {
	word = puzzle.Normalize(word)
	tiles := make([]string, 0, len(word))
	for _, r := range word {
		tiles = append(tiles, string(r))
	}
	return Attempt{Tiles: tiles}
}

// Word derives the submitted text from the tiles.
func (a Attempt) Word() string {
	out := ""
	for _, t := range a.Tiles {
		out += t
	}
	return puzzle.Normalize(out)
}

// Session is the client-side state for one puzzle run. All mutation goes
// through the Reconciler; the presentation layer reads Snapshot.
type Session struct {
	PuzzleID  string
	Letters   []string
	StartTime time.Time
	Mode      Mode

	mu              sync.Mutex
	local           *puzzle.Puzzle
	found           []string
	foundSet        map[string]struct{}
	score           int
	hintsRemaining  int
	completed       bool
	completionFired bool

	inFlight atomic.Bool
}

// NewSession starts a run at p. For authenticated sessions p acts as the
// local fallback validator; for anonymous sessions it is the sole
// authority. hints is the starting allowance (HintsUnlimited for premium).
func NewSession(p *puzzle.Puzzle, mode Mode, hints int) *Session {
	return &Session{
		PuzzleID:       p.ID,
		Letters:        p.Letters,
		StartTime:      time.Now(),
		Mode:           mode,
		local:          p,
		found:          []string{},
		foundSet:       map[string]struct{}{},
		hintsRemaining: hints,
	}
}

// Resume seeds prior progress (from the server's daily-puzzle response)
// into the session before play continues.
func (s *Session) Resume(foundWords []string, score int, completed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceLocked(foundWords, score)
	s.completed = completed
}

// View is an immutable snapshot for the presentation layer.
type View struct {
	PuzzleID       string
	Letters        []string
	FoundWords     []string
	Score          int
	HintsRemaining int
	Completed      bool
}

// Snapshot returns the current display state.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := make([]string, len(s.found))
	copy(found, s.found)
	return View{
		PuzzleID:       s.PuzzleID,
		Letters:        s.Letters,
		FoundWords:     found,
		Score:          s.score,
		HintsRemaining: s.hintsRemaining,
		Completed:      s.completed,
	}
}

// replaceLocked swaps in an authoritative found list and score wholesale.
// Caller holds mu.
func (s *Session) replaceLocked(foundWords []string, score int) {
	s.found = make([]string, 0, len(foundWords))
	s.foundSet = make(map[string]struct{}, len(foundWords))
	for _, w := range foundWords {
		w = puzzle.Normalize(w)
		if _, dup := s.foundSet[w]; dup {
			continue
		}
		s.found = append(s.found, w)
		s.foundSet[w] = struct{}{}
	}
	s.score = score
}

// applyLocal validates one word against the local puzzle and applies the
// outcome. Used for anonymous play and as the per-attempt fallback.
func (s *Session) applyLocal(word string) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	word = puzzle.Normalize(word)
	if !s.local.Contains(word) {
		return s.outcomeLocked(OutcomeInvalid, 0, false)
	}
	if _, dup := s.foundSet[word]; dup {
		return s.outcomeLocked(OutcomeDuplicate, 0, false)
	}

	points := puzzle.Points(word)
	mystery := s.local.IsMystery(word)
	if mystery {
		points += puzzle.MysteryBonus
	}
	s.found = append(s.found, word)
	s.foundSet[word] = struct{}{}
	s.score += points
	if mystery || len(s.found) >= s.local.WordCount() {
		s.completed = true
	}
	return s.outcomeLocked(OutcomeAccepted, points, mystery)
}

// outcomeLocked builds an Outcome from current state. Caller holds mu.
func (s *Session) outcomeLocked(kind OutcomeKind, points int, mystery bool) Outcome {
	found := make([]string, len(s.found))
	copy(found, s.found)
	return Outcome{
		Kind:       kind,
		Points:     points,
		IsMystery:  mystery,
		Completed:  s.completed,
		Score:      s.score,
		FoundWords: found,
	}
}
