// internal/session/hints.go
//
// Hint dispensing. Authenticated sessions treat the server as authoritative
// for the allowance; the "unlimited" sentinel for premium accounts never
// decrements. Anonymous sessions track a local counter and fail with
// ErrOutOfHints at zero, without mutating anything.

package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/wordheist/wordheist/internal/api"
	"github.com/wordheist/wordheist/internal/puzzle"
)

// ErrOutOfHints is returned when the allowance is exhausted. Callers render
// it as a user-visible message.
var ErrOutOfHints = errors.New("session: out of hints")

// Hint returns a masked pattern for an unfound word and updates the
// allowance.
func (r *Reconciler) Hint(ctx context.Context, s *Session) (string, error) {
	if s.Mode == Authenticated && s.PuzzleID != "" && r.remote != nil {
		return r.remoteHint(ctx, s)
	}
	return s.localHint()
}

func (r *Reconciler) remoteHint(ctx context.Context, s *Session) (string, error) {
	res, err := r.remote.UseHint(ctx, s.PuzzleID)
	if err != nil {
		var se *api.ServerError
		if errors.As(err, &se) && se.Message == "out_of_hints" {
			s.mu.Lock()
			s.hintsRemaining = 0
			s.mu.Unlock()
			return "", ErrOutOfHints
		}
		return "", fmt.Errorf("hint: %w", err)
	}

	s.mu.Lock()
	if res.HintsRemaining.Unlimited {
		s.hintsRemaining = HintsUnlimited
	} else {
		s.hintsRemaining = res.HintsRemaining.Remaining
	}
	s.mu.Unlock()
	return res.Hint, nil
}

func (s *Session) localHint() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hintsRemaining == 0 {
		return "", ErrOutOfHints
	}
	hint := ""
	for _, w := range s.local.ValidWords() {
		if _, found := s.foundSet[w]; !found {
			hint = puzzle.Mask(w)
			break
		}
	}
	if hint == "" {
		// Everything found; nothing to reveal, nothing consumed.
		return "", nil
	}
	if s.hintsRemaining != HintsUnlimited {
		s.hintsRemaining--
	}
	return hint, nil
}
