// internal/httpserver/routes_game.go
//
// Game routes for the Word Heist API:
//   - GET  /api/daily-puzzle   → today's (or a given date's) puzzle + progress
//   - POST /api/validate-word  → apply one word to the caller's session
//   - POST /api/use-hint       → masked hint, decrementing the allowance
//   - POST /api/submit-score   → record a finished run (score recomputed)
//   - GET  /api/leaderboard    → daily / weekly / all-time rankings
//   - GET  /api/user-stats     → streak, totals, premium flag
//
// Sessions are held in the live store for active play and persisted to the
// results table on score submission. The server owns the found-word set and
// score for authenticated play: validate-word responses always return the
// full authoritative state, never a delta.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/wordheist/wordheist/internal/game"
	"github.com/wordheist/wordheist/internal/puzzle"
	"github.com/wordheist/wordheist/internal/store"
)

// UnlimitedHints is the sentinel returned for premium accounts in the
// hints_remaining field.
const UnlimitedHints = "unlimited"

// playLocks serializes session access per owner|puzzle. Find-or-create and
// apply-plus-save must run under one lock: two concurrent submissions of
// the same word must yield exactly one accepted outcome.
type playLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPlayLocks() *playLocks {
	return &playLocks{locks: make(map[string]*sync.Mutex)}
}

func (p *playLocks) get(ownerID, puzzleID string) *sync.Mutex {
	key := ownerID + "|" + puzzleID
	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok := p.locks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	p.locks[key] = l
	return l
}

// ------------------------------ daily puzzle -------------------------------

type puzzleRes struct {
	Puzzle   puzzlePayload    `json:"puzzle"`
	Progress *progressPayload `json:"progress,omitempty"`
}

type puzzlePayload struct {
	ID            string   `json:"id"`
	Date          string   `json:"date"`
	Letters       []string `json:"letters"`
	Theme         string   `json:"theme"`
	CaseNumber    int      `json:"case_number"`
	CaseTitle     string   `json:"case_title"`
	Difficulty    string   `json:"difficulty"`
	MysteryLength int      `json:"mystery_length"`
	WordCount     int      `json:"word_count"`
}

type progressPayload struct {
	FoundWords     []string `json:"found_words"`
	Score          int      `json:"score"`
	HintsRemaining any      `json:"hints_remaining"`
	Completed      bool     `json:"completed"`
}

// handleDailyPuzzle returns the puzzle for today or ?date=YYYY-MM-DD, plus
// the caller's prior progress when a session exists.
func (s *Server) handleDailyPuzzle(w http.ResponseWriter, r *http.Request) {
	day := time.Now().UTC()
	if q := r.URL.Query().Get("date"); q != "" {
		parsed, err := time.Parse("2006-01-02", q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date")
			return
		}
		day = parsed
	}
	p := s.catalog.ForDate(day)

	res := puzzleRes{Puzzle: puzzlePayload{
		ID:            p.ID,
		Date:          p.Date,
		Letters:       p.Letters,
		Theme:         p.Theme,
		CaseNumber:    p.CaseNumber,
		CaseTitle:     p.CaseTitle,
		Difficulty:    p.Difficulty,
		MysteryLength: p.MysteryLength(),
		WordCount:     p.WordCount(),
	}}

	owner, authed := s.ownerID(w, r)
	lock := s.plays.get(owner, p.ID)
	lock.Lock()
	if sess, err := s.store.Find(r.Context(), owner, p.ID); err == nil {
		found := make([]string, len(sess.Found))
		copy(found, sess.Found)
		res.Progress = &progressPayload{
			FoundWords:     found,
			Score:          sess.Score,
			HintsRemaining: s.hintsRemaining(r, sess, authed),
			Completed:      sess.Completed,
		}
	}
	lock.Unlock()
	writeJSON(w, http.StatusOK, res)
}

// ------------------------------ validate word ------------------------------

type validateReq struct {
	PuzzleID string `json:"puzzle_id"`
	Word     string `json:"word"`
}

type validateRes struct {
	Valid      bool     `json:"valid"`
	Duplicate  bool     `json:"duplicate"`
	Points     int      `json:"points"`
	IsMystery  bool     `json:"is_mystery"`
	Completed  bool     `json:"completed"`
	Score      int      `json:"score"`
	FoundWords []string `json:"found_words"`
}

// handleValidateWord applies one word to the caller's session for the given
// puzzle. Resubmitting a found word returns duplicate:true and never
// rescores.
func (s *Server) handleValidateWord(w http.ResponseWriter, r *http.Request) {
	var req validateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if puzzle.Normalize(req.Word) == "" {
		writeError(w, http.StatusBadRequest, "word required")
		return
	}
	p, err := s.catalog.ByID(req.PuzzleID)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown puzzle")
		return
	}

	owner, _ := s.ownerID(w, r)
	lock := s.plays.get(owner, p.ID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.sessionFor(r, owner, p)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	outcome := sess.ApplyWord(p, req.Word)
	if err := s.store.Save(r.Context(), sess); err != nil {
		writeError(w, http.StatusInternalServerError, "save failed")
		return
	}
	found := make([]string, len(sess.Found))
	copy(found, sess.Found)

	writeJSON(w, http.StatusOK, validateRes{
		Valid:      outcome.Valid,
		Duplicate:  outcome.Duplicate,
		Points:     outcome.Points,
		IsMystery:  outcome.IsMystery,
		Completed:  outcome.Completed,
		Score:      sess.Score,
		FoundWords: found,
	})
}

// sessionFor finds or creates the live session for owner on puzzle p.
// Callers must hold the owner|puzzle play lock.
func (s *Server) sessionFor(r *http.Request, owner string, p *puzzle.Puzzle) (*game.Session, error) {
	sess, err := s.store.Find(r.Context(), owner, p.ID)
	if errors.Is(err, store.ErrNotFound) {
		sess = game.New(owner, p)
		err = s.store.Save(r.Context(), sess)
	}
	return sess, err
}

// -------------------------------- use hint ---------------------------------

type hintReq struct {
	PuzzleID string `json:"puzzle_id"`
}

type hintRes struct {
	Hint           string `json:"hint"`
	HintsRemaining any    `json:"hints_remaining"`
}

// handleUseHint reveals the masked pattern of the first unfound word.
// Premium accounts get the "unlimited" sentinel and no decrement; everyone
// else draws from a fixed per-puzzle allowance.
func (s *Server) handleUseHint(w http.ResponseWriter, r *http.Request) {
	var req hintReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	p, err := s.catalog.ByID(req.PuzzleID)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown puzzle")
		return
	}
	owner, authed := s.ownerID(w, r)
	lock := s.plays.get(owner, p.ID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.sessionFor(r, owner, p)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "session unavailable")
		return
	}

	premium := authed && s.isPremium(r)
	if !premium && sess.HintsUsed >= s.cfg.HintAllowance {
		writeJSON(w, http.StatusForbidden, map[string]any{
			"error":           "out_of_hints",
			"hints_remaining": 0,
		})
		return
	}

	hint := sess.NextHint(p)
	if err := s.store.Save(r.Context(), sess); err != nil {
		writeError(w, http.StatusInternalServerError, "save failed")
		return
	}

	res := hintRes{Hint: hint}
	if premium {
		res.HintsRemaining = UnlimitedHints
	} else {
		res.HintsRemaining = s.cfg.HintAllowance - sess.HintsUsed
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) isPremium(r *http.Request) bool {
	me := currentUser(r)
	if me == nil {
		return false
	}
	u, err := s.findUserByID(me.ID)
	return err == nil && u.Premium
}

// hintsRemaining reports the allowance left for a session, or the unlimited
// sentinel for premium users.
func (s *Server) hintsRemaining(r *http.Request, sess *game.Session, authed bool) any {
	if authed && s.isPremium(r) {
		return UnlimitedHints
	}
	left := s.cfg.HintAllowance - sess.HintsUsed
	if left < 0 {
		left = 0
	}
	return left
}

// ------------------------------ submit score -------------------------------

type submitScoreReq struct {
	PuzzleID       string   `json:"puzzle_id"`
	Score          int      `json:"score"`
	ElapsedSeconds int      `json:"elapsed_seconds"`
	FoundWords     []string `json:"found_words"`
}

type submitScoreRes struct {
	OK   bool `json:"ok"`
	Rank int  `json:"rank,omitempty"`
}

// handleSubmitScore records a finished run. The score is recomputed from
// the submitted found words; a client claiming a different total gets the
// recomputed value stored. Duplicate submissions for the same puzzle are
// ignored (UNIQUE owner+puzzle), so stats bump at most once.
func (s *Server) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	var req submitScoreReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	p, err := s.catalog.ByID(req.PuzzleID)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown puzzle")
		return
	}

	score := p.Score(req.FoundWords)
	if score != req.Score {
		s.log.Warn().Int("claimed", req.Score).Int("recomputed", score).
			Str("puzzle", p.ID).Msg("client score disagreed with recompute")
	}

	owner, authed := s.ownerID(w, r)
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(`INSERT OR IGNORE INTO results
	        (user_id, puzzle_id, date, score, elapsed_seconds, words_found, created_at)
	        VALUES (?,?,?,?,?,?,?)`,
		owner, p.ID, p.Date, score, req.ElapsedSeconds, len(req.FoundWords), now)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "save failed")
		return
	}

	inserted, _ := res.RowsAffected()
	if inserted > 0 && authed {
		if err := s.bumpStats(owner, score, p.Date); err != nil {
			s.log.Warn().Err(err).Str("user", owner).Msg("bump stats")
		}
	}

	// Rank mirrors the daily leaderboard: registered users only, score
	// descending with elapsed time breaking ties.
	rank := 0
	_ = s.db.QueryRow(`SELECT COUNT(1)+1 FROM results res JOIN users u ON u.id = res.user_id
	        WHERE res.date=? AND (res.score > ? OR (res.score = ? AND res.elapsed_seconds < ?))`,
		p.Date, score, score, req.ElapsedSeconds).Scan(&rank)
	writeJSON(w, http.StatusOK, submitScoreRes{OK: true, Rank: rank})
}

// bumpStats updates total score, solved count, and the daily streak after a
// first result for a puzzle.
func (s *Server) bumpStats(userID string, score int, date string) error {
	var streak int
	var lastSolved string
	row := s.db.QueryRow(`SELECT streak, COALESCE(last_solved_date,'') FROM users WHERE id=?`, userID)
	if err := row.Scan(&streak, &lastSolved); err != nil {
		return err
	}

	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return err
	}
	yesterday := puzzle.DateKey(day.AddDate(0, 0, -1))
	switch lastSolved {
	case date:
		// same day, streak unchanged
	case yesterday:
		streak++
	default:
		streak = 1
	}

	_, err = s.db.Exec(`UPDATE users SET
	        total_score = total_score + ?,
	        puzzles_solved = puzzles_solved + 1,
	        streak = ?,
	        last_solved_date = ?
	        WHERE id=?`, score, streak, date, userID)
	return err
}

// ------------------------------ leaderboard --------------------------------

type lbEntry struct {
	Rank     int    `json:"rank"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}

type lbRes struct {
	Period  string    `json:"period"`
	Entries []lbEntry `json:"entries"`
}

// handleLeaderboard returns ranked registered users for a period:
// daily (default, optionally scoped to ?puzzle_id=), weekly, or alltime.
// Guest results are excluded; only rows joinable to a user appear.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "daily"
	}

	var (
		rows lbQueryRows
		err  error
	)
	switch period {
	case "daily":
		date := puzzle.DateKey(time.Now())
		if pid := r.URL.Query().Get("puzzle_id"); pid != "" {
			if p, perr := s.catalog.ByID(pid); perr == nil {
				date = p.Date
			}
		}
		rows, err = s.queryLB(`SELECT u.username, res.score
		        FROM results res JOIN users u ON u.id = res.user_id
		        WHERE res.date=? ORDER BY res.score DESC, res.elapsed_seconds ASC LIMIT 20`, date)
	case "weekly":
		since := puzzle.DateKey(time.Now().AddDate(0, 0, -7))
		rows, err = s.queryLB(`SELECT u.username, SUM(res.score) AS total
		        FROM results res JOIN users u ON u.id = res.user_id
		        WHERE res.date>=? GROUP BY u.id ORDER BY total DESC LIMIT 20`, since)
	case "alltime":
		rows, err = s.queryLB(`SELECT username, total_score FROM users
		        WHERE total_score > 0 ORDER BY total_score DESC LIMIT 20`)
	default:
		writeError(w, http.StatusBadRequest, "invalid period")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}

	entries := make([]lbEntry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, lbEntry{Rank: i + 1, Username: row.username, Score: row.score})
	}
	writeJSON(w, http.StatusOK, lbRes{Period: period, Entries: entries})
}

type lbQueryRow struct {
	username string
	score    int
}

type lbQueryRows []lbQueryRow

func (s *Server) queryLB(query string, args ...any) (lbQueryRows, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out lbQueryRows
	for rows.Next() {
		var row lbQueryRow
		if err := rows.Scan(&row.username, &row.score); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ------------------------------- user stats --------------------------------

// handleUserStats returns the caller's aggregate stats.
func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	if me == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	u, err := s.findUserByID(me.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "not found")
		return
	}
	avg := 0
	if u.PuzzlesSolved > 0 {
		avg = u.TotalScore / u.PuzzlesSolved
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"streak":         u.Streak,
		"total_score":    u.TotalScore,
		"puzzles_solved": u.PuzzlesSolved,
		"average_score":  avg,
		"premium":        u.Premium,
	})
}
