// internal/puzzle/catalog.go
//
// Catalog turns the embedded grid list into concrete daily puzzles.
// Puzzle IDs encode the date ("wh-2025-03-14"), so a puzzle can be rebuilt
// from its ID alone and the server holds no puzzle table in memory.

package puzzle

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

//go:embed data/grids.json
var embeddedGrids []byte

const idPrefix = "wh-"

// ErrUnknownPuzzle is returned for IDs that do not decode to a date.
var ErrUnknownPuzzle = errors.New("puzzle: unknown puzzle id")

// Grid is one entry in the embedded grid list.
type Grid struct {
	Letters     []string `json:"letters"`
	MysteryWord string   `json:"mystery_word"`
	Theme       string   `json:"theme"`
	CaseTitle   string   `json:"case_title"`
	Difficulty  string   `json:"difficulty"`
}

// Catalog selects daily puzzles from a fixed grid list.
type Catalog struct {
	grids []Grid
	salt  string
}

// NewCatalog loads the embedded grids. salt keys the daily selection.
func NewCatalog(salt string) (*Catalog, error) {
	var grids []Grid
	if err := json.Unmarshal(embeddedGrids, &grids); err != nil {
		return nil, fmt.Errorf("load grids: %w", err)
	}
	if len(grids) == 0 {
		return nil, errors.New("puzzle: grid list is empty")
	}
	return &Catalog{grids: grids, salt: salt}, nil
}

// ForDate returns the puzzle for the given day.
func (c *Catalog) ForDate(t time.Time) *Puzzle {
	return c.forDateKey(DateKey(t))
}

// ByID rebuilds the puzzle a daily ID refers to.
func (c *Catalog) ByID(id string) (*Puzzle, error) {
	dateKey, ok := strings.CutPrefix(id, idPrefix)
	if !ok {
		return nil, ErrUnknownPuzzle
	}
	if _, err := time.Parse("2006-01-02", dateKey); err != nil {
		return nil, ErrUnknownPuzzle
	}
	return c.forDateKey(dateKey), nil
}

func (c *Catalog) forDateKey(dateKey string) *Puzzle {
	grid := c.grids[GridIndex(dateKey, c.salt, len(c.grids))]
	p := New(idPrefix+dateKey, grid.Letters, grid.MysteryWord, FromLetters(grid.Letters))
	p.Date = dateKey
	p.CaseNumber = CaseNumber(dateKey)
	p.CaseTitle = grid.CaseTitle
	p.Theme = grid.Theme
	p.Difficulty = grid.Difficulty
	return p
}
