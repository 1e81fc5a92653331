// internal/session/completion.go
//
// Completion handling. When the puzzle's completion predicate holds, the
// session finalizes exactly once: the score goes to the server best-effort
// (a failure is logged, never retried, never blocks the completion UI),
// then the leaderboard is fetched for display.

package session

import (
	"context"
	"errors"
	"time"
)

// ErrAlreadyCompleted guards against duplicate completion signals: the
// handler fires at most once per session.
var ErrAlreadyCompleted = errors.New("session: completion already handled")

// CompletionReport is what the presentation layer shows when a run ends.
type CompletionReport struct {
	Score          int
	FoundWords     []string
	Elapsed        time.Duration
	ScoreSubmitted bool
	Rank           int
	Leaderboard    []LeaderboardEntry
}

// LeaderboardEntry mirrors one ranked row for display.
type LeaderboardEntry struct {
	Rank     int
	Username string
	Score    int
}

// Complete finalizes the session. Repeated calls return ErrAlreadyCompleted
// no matter how many times the completion predicate was signaled.
func (r *Reconciler) Complete(ctx context.Context, s *Session) (*CompletionReport, error) {
	s.mu.Lock()
	if s.completionFired {
		s.mu.Unlock()
		return nil, ErrAlreadyCompleted
	}
	s.completionFired = true
	score := s.score
	found := make([]string, len(s.found))
	copy(found, s.found)
	s.mu.Unlock()

	report := &CompletionReport{
		Score:      score,
		FoundWords: found,
		Elapsed:    time.Since(s.StartTime),
	}

	if r.remote == nil || s.PuzzleID == "" {
		return report, nil
	}

	elapsed := int(report.Elapsed.Seconds())
	if res, err := r.remote.SubmitScore(ctx, s.PuzzleID, score, elapsed, found); err != nil {
		r.log.Warn().Err(err).Str("puzzle", s.PuzzleID).Msg("score submission failed")
	} else {
		report.ScoreSubmitted = true
		report.Rank = res.Rank
	}

	if lb, err := r.remote.Leaderboard(ctx, "daily", s.PuzzleID); err != nil {
		r.log.Warn().Err(err).Msg("leaderboard fetch failed")
	} else {
		for _, e := range lb.Entries {
			report.Leaderboard = append(report.Leaderboard, LeaderboardEntry{
				Rank: e.Rank, Username: e.Username, Score: e.Score,
			})
		}
	}

	return report, nil
}
