package httpserver

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wordheist/wordheist/internal/puzzle"
	"github.com/wordheist/wordheist/internal/store"
)

const testSchema = `
CREATE TABLE users (
    id               TEXT PRIMARY KEY,
    username         TEXT NOT NULL UNIQUE,
    email            TEXT NOT NULL UNIQUE,
    password_hash    TEXT NOT NULL,
    created_at       TEXT NOT NULL,
    streak           INTEGER NOT NULL DEFAULT 0,
    total_score      INTEGER NOT NULL DEFAULT 0,
    puzzles_solved   INTEGER NOT NULL DEFAULT 0,
    premium          INTEGER NOT NULL DEFAULT 0,
    last_solved_date TEXT NOT NULL DEFAULT ''
);
CREATE TABLE results (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id         TEXT NOT NULL,
    puzzle_id       TEXT NOT NULL,
    date            TEXT NOT NULL,
    score           INTEGER NOT NULL,
    elapsed_seconds INTEGER NOT NULL,
    words_found     INTEGER NOT NULL,
    created_at      TEXT NOT NULL,
    UNIQUE (user_id, puzzle_id)
);`

type testEnv struct {
	ts      *httptest.Server
	db      *sql.DB
	catalog *puzzle.Catalog
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	catalog, err := puzzle.NewCatalog("test-salt")
	require.NoError(t, err)

	srv := New(Config{
		JWTSecret:      "test-secret",
		JWTExpiresDays: 1,
		HintAllowance:  3,
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
	}, store.NewMemoryStore(), db, catalog)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return &testEnv{ts: ts, db: db, catalog: catalog}
}

// call performs a JSON request, optionally with a bearer token, and decodes
// the response body into out (when non-nil).
func (e *testEnv) call(t *testing.T, method, path, token string, body, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res.StatusCode
}

func (e *testEnv) registerUser(t *testing.T, name string) string {
	t.Helper()
	var res struct {
		Token string `json:"token"`
	}
	status := e.call(t, http.MethodPost, "/api/register", "", map[string]string{
		"username": name,
		"email":    name + "@example.com",
		"password": "hunter2hunter2",
	}, &res)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, res.Token)
	return res.Token
}

func (e *testEnv) todaysPuzzle() *puzzle.Puzzle {
	return e.catalog.ForDate(time.Now().UTC())
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	var res map[string]string
	status := e.call(t, http.MethodGet, "/api/health", "", nil, &res)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", res["status"])
}

func TestRegisterLoginMe(t *testing.T) {
	e := newTestEnv(t)
	e.registerUser(t, "marlowe")

	// Duplicate username conflicts.
	status := e.call(t, http.MethodPost, "/api/register", "", map[string]string{
		"username": "marlowe", "email": "other@example.com", "password": "hunter2hunter2",
	}, nil)
	assert.Equal(t, http.StatusConflict, status)

	var login struct {
		Token string `json:"token"`
	}
	status = e.call(t, http.MethodPost, "/api/login", "", map[string]string{
		"username": "marlowe", "password": "hunter2hunter2",
	}, &login)
	require.Equal(t, http.StatusOK, status)

	var me map[string]any
	status = e.call(t, http.MethodGet, "/api/auth/me", login.Token, nil, &me)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "marlowe", me["username"])

	// Bad password rejected.
	status = e.call(t, http.MethodPost, "/api/login", "", map[string]string{
		"username": "marlowe", "password": "wrong-password",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	// Gated route without a token.
	status = e.call(t, http.MethodGet, "/api/auth/me", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestDailyPuzzleShape(t *testing.T) {
	e := newTestEnv(t)
	want := e.todaysPuzzle()

	var res struct {
		Puzzle struct {
			ID            string   `json:"id"`
			Letters       []string `json:"letters"`
			WordCount     int      `json:"word_count"`
			MysteryLength int      `json:"mystery_length"`
			CaseNumber    int      `json:"case_number"`
		} `json:"puzzle"`
	}
	status := e.call(t, http.MethodGet, "/api/daily-puzzle", "", nil, &res)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, want.ID, res.Puzzle.ID)
	assert.Equal(t, want.Letters, res.Puzzle.Letters)
	assert.Equal(t, want.WordCount(), res.Puzzle.WordCount)
	assert.NotZero(t, res.Puzzle.MysteryLength)
	assert.GreaterOrEqual(t, res.Puzzle.CaseNumber, 1)
}

func TestValidateWordAcceptThenDuplicate(t *testing.T) {
	e := newTestEnv(t)
	tok := e.registerUser(t, "spade")
	p := e.todaysPuzzle()
	word := p.ValidWords()[0]

	var first struct {
		Valid     bool     `json:"valid"`
		Duplicate bool     `json:"duplicate"`
		Points    int      `json:"points"`
		Score     int      `json:"score"`
		Found     []string `json:"found_words"`
	}
	status := e.call(t, http.MethodPost, "/api/validate-word", tok, map[string]string{
		"puzzle_id": p.ID, "word": word,
	}, &first)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, first.Valid)
	assert.False(t, first.Duplicate)
	assert.NotZero(t, first.Points)
	assert.Equal(t, []string{word}, first.Found)

	var second struct {
		Valid     bool `json:"valid"`
		Duplicate bool `json:"duplicate"`
		Score     int  `json:"score"`
	}
	status = e.call(t, http.MethodPost, "/api/validate-word", tok, map[string]string{
		"puzzle_id": p.ID, "word": word,
	}, &second)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Score, second.Score, "duplicate never rescores")

	// Garbage word is invalid but not an error.
	var invalid struct {
		Valid bool `json:"valid"`
	}
	status = e.call(t, http.MethodPost, "/api/validate-word", tok, map[string]string{
		"puzzle_id": p.ID, "word": "ZZZZZZZ",
	}, &invalid)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, invalid.Valid)

	// Unknown puzzle 404s.
	status = e.call(t, http.MethodPost, "/api/validate-word", tok, map[string]string{
		"puzzle_id": "bogus", "word": word,
	}, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestValidateWordConcurrentSameWord(t *testing.T) {
	e := newTestEnv(t)
	tok := e.registerUser(t, "crew")
	p := e.todaysPuzzle()
	word := p.ValidWords()[0]
	body, err := json.Marshal(map[string]string{"puzzle_id": p.ID, "word": word})
	require.NoError(t, err)

	const workers = 24
	start := make(chan struct{})
	outcomes := make(chan validateRes, workers)
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			req, err := http.NewRequest(http.MethodPost, e.ts.URL+"/api/validate-word", bytes.NewReader(body))
			if err != nil {
				errs <- err
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+tok)
			res, err := http.DefaultClient.Do(req)
			if err != nil {
				errs <- err
				return
			}
			defer res.Body.Close()
			var out validateRes
			if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
				errs <- err
				return
			}
			outcomes <- out
		}()
	}
	close(start)
	wg.Wait()
	close(outcomes)
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}

	accepted := 0
	for out := range outcomes {
		if out.Valid && !out.Duplicate {
			accepted++
		}
	}
	assert.Equal(t, 1, accepted, "a word is accepted exactly once, duplicates for everyone else")

	var final validateRes
	status := e.call(t, http.MethodPost, "/api/validate-word", tok, map[string]string{
		"puzzle_id": p.ID, "word": word,
	}, &final)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, final.Duplicate)
	assert.Equal(t, puzzle.Points(word), final.Score, "word scored once")
	assert.Equal(t, []string{word}, final.FoundWords)
}

func TestHintAllowanceExhausts(t *testing.T) {
	e := newTestEnv(t)
	tok := e.registerUser(t, "archer")
	p := e.todaysPuzzle()

	for i := 3; i >= 1; i-- {
		var res struct {
			Hint           string `json:"hint"`
			HintsRemaining int    `json:"hints_remaining"`
		}
		status := e.call(t, http.MethodPost, "/api/use-hint", tok, map[string]string{"puzzle_id": p.ID}, &res)
		require.Equal(t, http.StatusOK, status)
		assert.NotEmpty(t, res.Hint)
		assert.Equal(t, i-1, res.HintsRemaining)
	}

	var denied struct {
		Error          string `json:"error"`
		HintsRemaining int    `json:"hints_remaining"`
	}
	status := e.call(t, http.MethodPost, "/api/use-hint", tok, map[string]string{"puzzle_id": p.ID}, &denied)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "out_of_hints", denied.Error)
	assert.Equal(t, 0, denied.HintsRemaining)
}

func TestPremiumHintsUnlimited(t *testing.T) {
	e := newTestEnv(t)
	tok := e.registerUser(t, "gutman")
	_, err := e.db.Exec(`UPDATE users SET premium=1 WHERE username='gutman'`)
	require.NoError(t, err)
	p := e.todaysPuzzle()

	for i := 0; i < 5; i++ {
		var res struct {
			HintsRemaining any `json:"hints_remaining"`
		}
		status := e.call(t, http.MethodPost, "/api/use-hint", tok, map[string]string{"puzzle_id": p.ID}, &res)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "unlimited", res.HintsRemaining)
	}
}

func TestSubmitScoreRecomputesAndBumpsOnce(t *testing.T) {
	e := newTestEnv(t)
	tok := e.registerUser(t, "brigid")
	p := e.todaysPuzzle()
	words := p.ValidWords()[:2]
	want := p.Score(words)

	var res struct {
		OK   bool `json:"ok"`
		Rank int  `json:"rank"`
	}
	// Claimed score is inflated; the server stores its own recompute.
	status := e.call(t, http.MethodPost, "/api/submit-score", tok, map[string]any{
		"puzzle_id": p.ID, "score": 999999, "elapsed_seconds": 42, "found_words": words,
	}, &res)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, res.OK)
	assert.Equal(t, 1, res.Rank)

	var stats struct {
		Streak        int `json:"streak"`
		TotalScore    int `json:"total_score"`
		PuzzlesSolved int `json:"puzzles_solved"`
	}
	status = e.call(t, http.MethodGet, "/api/user-stats", tok, nil, &stats)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, want, stats.TotalScore)
	assert.Equal(t, 1, stats.PuzzlesSolved)
	assert.Equal(t, 1, stats.Streak)

	// Resubmitting the same puzzle is ignored.
	status = e.call(t, http.MethodPost, "/api/submit-score", tok, map[string]any{
		"puzzle_id": p.ID, "score": want, "elapsed_seconds": 42, "found_words": words,
	}, nil)
	require.Equal(t, http.StatusOK, status)
	e.call(t, http.MethodGet, "/api/user-stats", tok, nil, &stats)
	assert.Equal(t, 1, stats.PuzzlesSolved, "duplicate submission must not double-count")
}

func TestUnauthorizedErrorsAreJSON(t *testing.T) {
	e := newTestEnv(t)

	res, err := http.Get(e.ts.URL + "/api/user-stats")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "unauthorized", body["error"])
}

func TestSubmitRankMatchesLeaderboard(t *testing.T) {
	e := newTestEnv(t)
	p := e.todaysPuzzle()
	words := p.ValidWords()

	// A guest posts the best score of the day. Guests never appear on the
	// leaderboard, so they must not push registered ranks down either.
	status := e.call(t, http.MethodPost, "/api/submit-score", "", map[string]any{
		"puzzle_id": p.ID, "score": 0, "elapsed_seconds": 10, "found_words": words,
	}, nil)
	require.Equal(t, http.StatusOK, status)

	slow := e.registerUser(t, "slowpoke")
	var slowRes struct {
		Rank int `json:"rank"`
	}
	status = e.call(t, http.MethodPost, "/api/submit-score", slow, map[string]any{
		"puzzle_id": p.ID, "score": 0, "elapsed_seconds": 100, "found_words": words[:1],
	}, &slowRes)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, slowRes.Rank, "guest rows do not outrank registered users")

	// Same score, faster time wins the tie.
	fast := e.registerUser(t, "fastfinger")
	var fastRes struct {
		Rank int `json:"rank"`
	}
	status = e.call(t, http.MethodPost, "/api/submit-score", fast, map[string]any{
		"puzzle_id": p.ID, "score": 0, "elapsed_seconds": 5, "found_words": words[:1],
	}, &fastRes)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, fastRes.Rank)

	var lb struct {
		Entries []struct {
			Username string `json:"username"`
		} `json:"entries"`
	}
	status = e.call(t, http.MethodGet, "/api/leaderboard?period=daily", "", nil, &lb)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, lb.Entries, 2)
	assert.Equal(t, "fastfinger", lb.Entries[0].Username)
	assert.Equal(t, "slowpoke", lb.Entries[1].Username)
}

func TestLeaderboardOrdering(t *testing.T) {
	e := newTestEnv(t)
	p := e.todaysPuzzle()
	words := p.ValidWords()

	high := e.registerUser(t, "winner")
	low := e.registerUser(t, "runnerup")

	statusHigh := e.call(t, http.MethodPost, "/api/submit-score", high, map[string]any{
		"puzzle_id": p.ID, "score": 0, "elapsed_seconds": 30, "found_words": words,
	}, nil)
	require.Equal(t, http.StatusOK, statusHigh)
	statusLow := e.call(t, http.MethodPost, "/api/submit-score", low, map[string]any{
		"puzzle_id": p.ID, "score": 0, "elapsed_seconds": 30, "found_words": words[:1],
	}, nil)
	require.Equal(t, http.StatusOK, statusLow)

	var lb struct {
		Period  string `json:"period"`
		Entries []struct {
			Rank     int    `json:"rank"`
			Username string `json:"username"`
			Score    int    `json:"score"`
		} `json:"entries"`
	}
	status := e.call(t, http.MethodGet, "/api/leaderboard?period=daily", "", nil, &lb)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, lb.Entries, 2)
	assert.Equal(t, "winner", lb.Entries[0].Username)
	assert.Equal(t, 1, lb.Entries[0].Rank)
	assert.Equal(t, "runnerup", lb.Entries[1].Username)
	assert.Greater(t, lb.Entries[0].Score, lb.Entries[1].Score)

	status = e.call(t, http.MethodGet, "/api/leaderboard?period=alltime", "", nil, &lb)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alltime", lb.Period)
	require.NotEmpty(t, lb.Entries)
	assert.Equal(t, "winner", lb.Entries[0].Username)

	status = e.call(t, http.MethodGet, "/api/leaderboard?period=hourly", "", nil, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRateLimitMutatingRoutes(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(testSchema)
	require.NoError(t, err)
	catalog, err := puzzle.NewCatalog("test-salt")
	require.NoError(t, err)

	srv := New(Config{
		JWTSecret:      "test-secret",
		RateLimitRPS:   1,
		RateLimitBurst: 1,
	}, store.NewMemoryStore(), db, catalog)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	e := &testEnv{ts: ts, db: db, catalog: catalog}

	p := e.todaysPuzzle()
	word := p.ValidWords()[0]
	body := map[string]string{"puzzle_id": p.ID, "word": word}

	status := e.call(t, http.MethodPost, "/api/validate-word", "", body, nil)
	require.Equal(t, http.StatusOK, status)

	var denied map[string]string
	status = e.call(t, http.MethodPost, "/api/validate-word", "", body, &denied)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "too many requests", denied["error"])

	// Read-only routes are never limited.
	status = e.call(t, http.MethodGet, "/api/daily-puzzle", "", nil, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestUnknownEndpoint404JSON(t *testing.T) {
	e := newTestEnv(t)
	var res map[string]string
	status := e.call(t, http.MethodGet, "/api/nope", "", nil, &res)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "/api/nope", res["path"])
}
