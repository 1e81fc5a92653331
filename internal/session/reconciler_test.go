package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wordheist/wordheist/internal/api"
	"github.com/wordheist/wordheist/internal/puzzle"
)

// fakeRemote scripts the remote service per call.
type fakeRemote struct {
	mu            sync.Mutex
	validate      func(word string) (*api.ValidateResult, error)
	hint          func() (*api.HintResult, error)
	submitCalls   int
	submitErr     error
	lastSubmitted []string
	leaderboard   *api.LeaderboardResult
}

func (f *fakeRemote) ValidateWord(ctx context.Context, puzzleID, word string) (*api.ValidateResult, error) {
	if f.validate == nil {
		return nil, &api.TransportError{Err: errors.New("no script")}
	}
	return f.validate(word)
}

func (f *fakeRemote) UseHint(ctx context.Context, puzzleID string) (*api.HintResult, error) {
	if f.hint == nil {
		return nil, &api.TransportError{Err: errors.New("no script")}
	}
	return f.hint()
}

func (f *fakeRemote) SubmitScore(ctx context.Context, puzzleID string, score, elapsedSeconds int, foundWords []string) (*api.SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitCalls++
	f.lastSubmitted = foundWords
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &api.SubmitResult{OK: true, Rank: 1}, nil
}

func (f *fakeRemote) Leaderboard(ctx context.Context, period, puzzleID string) (*api.LeaderboardResult, error) {
	if f.leaderboard == nil {
		return &api.LeaderboardResult{Period: period}, nil
	}
	return f.leaderboard, nil
}

func testPuzzle() *puzzle.Puzzle {
	return puzzle.New("wh-2025-03-14", []string{"C", "A", "T", "S"}, "CATS", []string{"CAT", "ACT", "SAT"})
}

func TestAnonymousSubmitAcceptDuplicateInvalid(t *testing.T) {
	s := NewSession(testPuzzle(), Anonymous, 3)
	rec := New(nil)
	ctx := context.Background()

	out, err := rec.Submit(ctx, s, NewAttempt("CAT"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAccepted, out.Kind)
	assert.Equal(t, 10, out.Points)
	assert.False(t, out.IsMystery)

	out, err = rec.Submit(ctx, s, NewAttempt("CAT"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, out.Kind)
	assert.Equal(t, 10, out.Score, "duplicate never double-scores")

	out, err = rec.Submit(ctx, s, NewAttempt("ZZZ"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeInvalid, out.Kind)
}

func TestEmptyAttemptRejected(t *testing.T) {
	s := NewSession(testPuzzle(), Anonymous, 3)
	rec := New(nil)

	_, err := rec.Submit(context.Background(), s, Attempt{})
	assert.ErrorIs(t, err, ErrEmptyAttempt)
}

func TestAuthenticatedReplacesStateWholesale(t *testing.T) {
	remote := &fakeRemote{
		validate: func(word string) (*api.ValidateResult, error) {
			return &api.ValidateResult{
				Valid:      true,
				Points:     10,
				Score:      70,
				FoundWords: []string{"SAT", "ACT", "CAT"},
			}, nil
		},
	}
	s := NewSession(testPuzzle(), Authenticated, 3)
	rec := New(remote)

	out, err := rec.Submit(context.Background(), s, NewAttempt("CAT"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAccepted, out.Kind)
	assert.False(t, out.LocalFallback)

	view := s.Snapshot()
	assert.Equal(t, 70, view.Score, "server score adopted, not locally incremented")
	assert.Equal(t, []string{"SAT", "ACT", "CAT"}, view.FoundWords)
}

func TestRemoteFailureFallsBackLocallyForOneAttempt(t *testing.T) {
	calls := 0
	remote := &fakeRemote{
		validate: func(word string) (*api.ValidateResult, error) {
			calls++
			if calls == 1 {
				return nil, &api.TransportError{Err: errors.New("connection refused")}
			}
			return &api.ValidateResult{
				Valid: true, Points: 10, Score: 20, FoundWords: []string{"CAT", "ACT"},
			}, nil
		},
	}
	s := NewSession(testPuzzle(), Authenticated, 3)
	rec := New(remote)
	ctx := context.Background()

	// First attempt: transport failure, local fallback still accepts.
	out, err := rec.Submit(ctx, s, NewAttempt("CAT"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAccepted, out.Kind)
	assert.True(t, out.LocalFallback)
	assert.Contains(t, s.Snapshot().FoundWords, "CAT")

	// Second attempt goes remote again: the mode was never downgraded.
	out, err = rec.Submit(ctx, s, NewAttempt("ACT"))
	require.NoError(t, err)
	assert.False(t, out.LocalFallback)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 20, s.Snapshot().Score, "authoritative state replaced after recovery")
}

func TestServerRejectionAlsoFallsBack(t *testing.T) {
	remote := &fakeRemote{
		validate: func(word string) (*api.ValidateResult, error) {
			return nil, &api.ServerError{Status: 500, Message: "boom"}
		},
	}
	s := NewSession(testPuzzle(), Authenticated, 3)
	rec := New(remote)

	out, err := rec.Submit(context.Background(), s, NewAttempt("SAT"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAccepted, out.Kind)
	assert.True(t, out.LocalFallback)
}

func TestSubmissionSerialization(t *testing.T) {
	s := NewSession(testPuzzle(), Anonymous, 3)
	rec := New(nil)

	// Simulate an in-flight submission.
	require.True(t, s.inFlight.CompareAndSwap(false, true))
	_, err := rec.Submit(context.Background(), s, NewAttempt("CAT"))
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
	s.inFlight.Store(false)

	_, err = rec.Submit(context.Background(), s, NewAttempt("CAT"))
	assert.NoError(t, err)
}

func TestMysteryWordCompletesLocally(t *testing.T) {
	s := NewSession(testPuzzle(), Anonymous, 3)
	rec := New(nil)

	out, err := rec.Submit(context.Background(), s, NewAttempt("CATS"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAccepted, out.Kind)
	assert.True(t, out.IsMystery)
	assert.True(t, out.Completed)
	assert.Equal(t, 20+puzzle.MysteryBonus, out.Points)
}

func TestHintAllowanceNeverNegative(t *testing.T) {
	s := NewSession(testPuzzle(), Anonymous, 1)
	rec := New(nil)
	ctx := context.Background()

	hint, err := rec.Hint(ctx, s)
	require.NoError(t, err)
	assert.NotEmpty(t, hint)
	assert.Equal(t, 0, s.Snapshot().HintsRemaining)

	_, err = rec.Hint(ctx, s)
	assert.ErrorIs(t, err, ErrOutOfHints)
	assert.Equal(t, 0, s.Snapshot().HintsRemaining, "failed hint mutates nothing")
}

func TestUnlimitedHintsNeverDecrement(t *testing.T) {
	remote := &fakeRemote{
		hint: func() (*api.HintResult, error) {
			return &api.HintResult{
				Hint:           "C _ T",
				HintsRemaining: api.HintAllowance{Unlimited: true},
			}, nil
		},
	}
	s := NewSession(testPuzzle(), Authenticated, 3)
	rec := New(remote)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		hint, err := rec.Hint(ctx, s)
		require.NoError(t, err)
		assert.Equal(t, "C _ T", hint)
	}
	assert.Equal(t, HintsUnlimited, s.Snapshot().HintsRemaining)
}

func TestRemoteOutOfHints(t *testing.T) {
	remote := &fakeRemote{
		hint: func() (*api.HintResult, error) {
			return nil, &api.ServerError{Status: 403, Message: "out_of_hints"}
		},
	}
	s := NewSession(testPuzzle(), Authenticated, 3)
	rec := New(remote)

	_, err := rec.Hint(context.Background(), s)
	assert.ErrorIs(t, err, ErrOutOfHints)
	assert.Equal(t, 0, s.Snapshot().HintsRemaining)
}

func TestCompletionFiresAtMostOnce(t *testing.T) {
	remote := &fakeRemote{}
	s := NewSession(testPuzzle(), Authenticated, 3)
	rec := New(remote)
	ctx := context.Background()

	report, err := rec.Complete(ctx, s)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.True(t, report.ScoreSubmitted)

	// Duplicate completion signals are swallowed.
	for i := 0; i < 3; i++ {
		_, err = rec.Complete(ctx, s)
		assert.ErrorIs(t, err, ErrAlreadyCompleted)
	}
	assert.Equal(t, 1, remote.submitCalls)
}

func TestCompletionSurvivesSubmitFailure(t *testing.T) {
	remote := &fakeRemote{
		submitErr: &api.TransportError{Err: errors.New("down")},
		leaderboard: &api.LeaderboardResult{
			Period:  "daily",
			Entries: []api.LeaderboardEntry{{Rank: 1, Username: "ace", Score: 120}},
		},
	}
	s := NewSession(testPuzzle(), Authenticated, 3)
	rec := New(remote)

	report, err := rec.Complete(context.Background(), s)
	require.NoError(t, err, "score submission failure must not block completion")
	assert.False(t, report.ScoreSubmitted)
	require.Len(t, report.Leaderboard, 1)
	assert.Equal(t, "ace", report.Leaderboard[0].Username)
}

func TestResumeSeedsAuthoritativeState(t *testing.T) {
	s := NewSession(testPuzzle(), Authenticated, 3)
	s.Resume([]string{"CAT", "ACT"}, 20, false)

	view := s.Snapshot()
	assert.Equal(t, []string{"CAT", "ACT"}, view.FoundWords)
	assert.Equal(t, 20, view.Score)

	// A resumed word is a duplicate locally too.
	rec := New(&fakeRemote{validate: func(word string) (*api.ValidateResult, error) {
		return nil, &api.TransportError{Err: errors.New("offline")}
	}})
	out, err := rec.Submit(context.Background(), s, NewAttempt("CAT"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, out.Kind)
}
