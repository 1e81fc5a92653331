// internal/session/reconciler.go
//
// The reconciler decides, per player action, whether the remote service or
// the local engine governs, applies exactly one outcome, and keeps the
// session consistent.
//
// Submission rules:
//   - Submissions are serialized per session. A second submission while one
//     is in flight is rejected with ErrSubmissionInFlight rather than
//     queued, so a stale attempt can never interleave with a fresh one.
//   - Authenticated sessions validate remotely; the server's found list and
//     score replace local state wholesale. Local counters are never merged
//     into a remote result.
//   - A transport or server failure downgrades that single attempt to local
//     validation. The session's mode is untouched; the next attempt tries
//     the server again.

package session

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wordheist/wordheist/internal/api"
)

var (
	// ErrEmptyAttempt rejects submissions with no selected tiles.
	ErrEmptyAttempt = errors.New("session: empty attempt")
	// ErrSubmissionInFlight rejects a submission while another is pending.
	ErrSubmissionInFlight = errors.New("session: submission already in flight")
)

// Remote is the slice of the API client the reconciler needs. *api.Client
// satisfies it.
type Remote interface {
	ValidateWord(ctx context.Context, puzzleID, word string) (*api.ValidateResult, error)
	UseHint(ctx context.Context, puzzleID string) (*api.HintResult, error)
	SubmitScore(ctx context.Context, puzzleID string, score, elapsedSeconds int, foundWords []string) (*api.SubmitResult, error)
	Leaderboard(ctx context.Context, period, puzzleID string) (*api.LeaderboardResult, error)
}

// Reconciler orchestrates the online and offline paths for game sessions.
type Reconciler struct {
	remote Remote
	log    zerolog.Logger
}

// New constructs a Reconciler over a remote client.
func New(remote Remote) *Reconciler {
	return &Reconciler{
		remote: remote,
		log:    log.With().Str("component", "reconciler").Logger(),
	}
}

// Submit applies one word attempt to the session and returns the single
// outcome that governed it.
func (r *Reconciler) Submit(ctx context.Context, s *Session, attempt Attempt) (Outcome, error) {
	if len(attempt.Tiles) == 0 || attempt.Word() == "" {
		return Outcome{}, ErrEmptyAttempt
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		return Outcome{}, ErrSubmissionInFlight
	}
	defer s.inFlight.Store(false)

	word := attempt.Word()

	if s.Mode == Authenticated && s.PuzzleID != "" && r.remote != nil {
		res, err := r.remote.ValidateWord(ctx, s.PuzzleID, word)
		if err == nil {
			return r.applyRemote(s, res), nil
		}
		if !isRemoteFailure(err) {
			return Outcome{}, err
		}
		r.log.Warn().Err(err).Str("word", word).
			Msg("remote validation failed, using local fallback for this attempt")
		out := s.applyLocal(word)
		out.LocalFallback = true
		return out, nil
	}

	return s.applyLocal(word), nil
}

// applyRemote replaces session state with the server's authoritative values
// and maps the response onto an Outcome.
func (r *Reconciler) applyRemote(s *Session, res *api.ValidateResult) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.replaceLocked(res.FoundWords, res.Score)
	if res.Completed {
		s.completed = true
	}

	kind := OutcomeInvalid
	switch {
	case res.Duplicate:
		kind = OutcomeDuplicate
	case res.Valid:
		kind = OutcomeAccepted
	}
	out := s.outcomeLocked(kind, res.Points, res.IsMystery)
	out.Completed = s.completed
	return out
}

// isRemoteFailure reports whether err is a transport or server failure that
// should trigger the local fallback, as opposed to a programming error.
func isRemoteFailure(err error) bool {
	var te *api.TransportError
	var se *api.ServerError
	return errors.As(err, &te) || errors.As(err, &se)
}
