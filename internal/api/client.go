// internal/api/client.go
//
// HTTP client for the Word Heist API. JSON over HTTP with an optional
// bearer token; every call takes a context and respects a client-level
// timeout so a hung server cannot wedge the caller.
//
// Failures split into two kinds the reconciler treats differently:
//   - *TransportError: the request never got a usable HTTP response
//     (network down, DNS, timeout).
//   - *ServerError: the server answered with a non-2xx status and an error
//     payload.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds each request unless overridden with WithTimeout.
const DefaultTimeout = 5 * time.Second

// TransportError wraps network-level failures.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "transport: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// ServerError is a non-2xx response with its decoded error message.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server: %d %s", e.Status, e.Message)
}

// Client talks to one Word Heist server.
type Client struct {
	base  string
	http  *http.Client
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient substitutes the underlying http.Client (tests).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New constructs a client for the server at base (e.g. "http://localhost:5000").
func New(base string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: DefaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SetToken installs the bearer token used on subsequent requests.
func (c *Client) SetToken(token string) { c.token = token }

// do performs one JSON request/response round trip.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(res.Body).Decode(&payload)
		if payload.Error == "" {
			payload.Error = http.StatusText(res.StatusCode)
		}
		return &ServerError{Status: res.StatusCode, Message: payload.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ------------------------------- payloads ----------------------------------

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string `json:"token"`
	User  struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Premium  bool   `json:"premium"`
	} `json:"user"`
}

// Puzzle is the public daily-puzzle payload; the valid-word list and the
// mystery word stay on the server.
type Puzzle struct {
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

// Progress is the caller's prior state on a puzzle, when any exists.
type Progress struct {
	FoundWords     []string      `json:"found_words"`
	Score          int           `json:"score"`
	HintsRemaining HintAllowance `json:"hints_remaining"`
	Completed      bool          `json:"completed"`
}

// PuzzleResult is returned by DailyPuzzle.
type PuzzleResult struct {
	Puzzle   Puzzle    `json:"puzzle"`
	Progress *Progress `json:"progress,omitempty"`
}

// ValidateResult is the authoritative outcome of one word submission.
type ValidateResult struct {
	Valid      bool     `json:"valid"`
	Duplicate  bool     `json:"duplicate"`
	Points     int      `json:"points"`
	IsMystery  bool     `json:"is_mystery"`
	Completed  bool     `json:"completed"`
	Score      int      `json:"score"`
	FoundWords []string `json:"found_words"`
}

// HintAllowance decodes the hints_remaining field, which is either an
// integer or the string "unlimited" for premium accounts.
type HintAllowance struct {
	Unlimited bool
	Remaining int
}

func (h *HintAllowance) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		h.Unlimited = s == "unlimited"
		h.Remaining = 0
		return nil
	}
	h.Unlimited = false
	return json.Unmarshal(b, &h.Remaining)
}

func (h HintAllowance) MarshalJSON() ([]byte, error) {
	if h.Unlimited {
		return json.Marshal("unlimited")
	}
	return json.Marshal(h.Remaining)
}

// HintResult is returned by UseHint.
type HintResult struct {
	Hint           string        `json:"hint"`
	HintsRemaining HintAllowance `json:"hints_remaining"`
}

// SubmitResult is returned by SubmitScore.
type SubmitResult struct {
	OK   bool `json:"ok"`
	Rank int  `json:"rank,omitempty"`
}

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// LeaderboardResult is returned by Leaderboard.
type LeaderboardResult struct {
	Period  string             `json:"period"`
	Entries []LeaderboardEntry `json:"entries"`
}

// Stats is returned by UserStats.
type Stats struct {
	Streak        int  `json:"streak"`
	TotalScore    int  `json:"total_score"`
	PuzzlesSolved int  `json:"puzzles_solved"`
	AverageScore  int  `json:"average_score"`
	Premium       bool `json:"premium"`
}

// ------------------------------- operations --------------------------------

// Register creates an account and returns the signed token.
func (c *Client) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	var out AuthResult
	err := c.do(ctx, http.MethodPost, "/api/register", map[string]string{
		"username": username, "email": email, "password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Login authenticates and returns the signed token.
func (c *Client) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	var out AuthResult
	err := c.do(ctx, http.MethodPost, "/api/login", map[string]string{
		"username": username, "password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DailyPuzzle fetches the puzzle for today, or for date (YYYY-MM-DD) when
// non-empty.
func (c *Client) DailyPuzzle(ctx context.Context, date string) (*PuzzleResult, error) {
	path := "/api/daily-puzzle"
	if date != "" {
		path += "?date=" + url.QueryEscape(date)
	}
	var out PuzzleResult
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ValidateWord submits one word against a puzzle.
func (c *Client) ValidateWord(ctx context.Context, puzzleID, word string) (*ValidateResult, error) {
	var out ValidateResult
	err := c.do(ctx, http.MethodPost, "/api/validate-word", map[string]string{
		"puzzle_id": puzzleID, "word": word,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UseHint requests a hint for a puzzle.
func (c *Client) UseHint(ctx context.Context, puzzleID string) (*HintResult, error) {
	var out HintResult
	err := c.do(ctx, http.MethodPost, "/api/use-hint", map[string]string{
		"puzzle_id": puzzleID,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitScore records a finished run.
func (c *Client) SubmitScore(ctx context.Context, puzzleID string, score, elapsedSeconds int, foundWords []string) (*SubmitResult, error) {
	var out SubmitResult
	err := c.do(ctx, http.MethodPost, "/api/submit-score", map[string]any{
		"puzzle_id":       puzzleID,
		"score":           score,
		"elapsed_seconds": elapsedSeconds,
		"found_words":     foundWords,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Leaderboard fetches rankings for a period ("daily", "weekly", "alltime").
func (c *Client) Leaderboard(ctx context.Context, period, puzzleID string) (*LeaderboardResult, error) {
	q := url.Values{}
	if period != "" {
		q.Set("period", period)
	}
	if puzzleID != "" {
		q.Set("puzzle_id", puzzleID)
	}
	path := "/api/leaderboard"
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}
	var out LeaderboardResult
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UserStats fetches the authenticated user's aggregates.
func (c *Client) UserStats(ctx context.Context) (*Stats, error) {
	var out Stats
	if err := c.do(ctx, http.MethodGet, "/api/user-stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
