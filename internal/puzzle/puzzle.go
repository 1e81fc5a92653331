// internal/puzzle/puzzle.go
//
// Puzzle model for Word Heist.
// A puzzle is a small letter grid plus the set of dictionary words that can
// be assembled from it (each tile used at most once) and one designated
// mystery word worth a bonus.
//
// Responsibilities:
//   - Derive the valid-word set for a letter grid from the dictionary.
//   - Membership and mystery checks with a fixed normalization policy.
//   - Masked hint patterns for unfound words.

package puzzle

import (
	"sort"
	"strings"

	"github.com/samber/lo"
)

// MinWordLen is the shortest word a grid accepts.
const MinWordLen = 3

// Puzzle is an immutable daily (or local) puzzle.
type Puzzle struct {
	ID          string   `json:"id"`
	Date        string   `json:"date"`
	Letters     []string `json:"letters"`
	MysteryWord string   `json:"-"`
	CaseNumber  int      `json:"case_number"`
	CaseTitle   string   `json:"case_title"`
	Theme       string   `json:"theme"`
	Difficulty  string   `json:"difficulty"`

	valid   map[string]struct{}
	ordered []string
}

// New builds a puzzle from an explicit word list. The mystery word is always
// part of the valid set. Used by tests and by local offline play.
func New(id string, letters []string, mystery string, words []string) *Puzzle {
	p := &Puzzle{
		ID:          id,
		Letters:     normalizeLetters(letters),
		MysteryWord: Normalize(mystery),
	}
	p.setWords(words)
	return p
}

// setWords normalizes, dedupes, and indexes the valid-word list.
func (p *Puzzle) setWords(words []string) {
	normalized := lo.Uniq(lo.Map(words, func(w string, _ int) string {
		return Normalize(w)
	}))
	if p.MysteryWord != "" && !lo.Contains(normalized, p.MysteryWord) {
		normalized = append(normalized, p.MysteryWord)
	}
	sort.Strings(normalized)
	p.ordered = normalized
	p.valid = make(map[string]struct{}, len(normalized))
	for _, w := range normalized {
		p.valid[w] = struct{}{}
	}
}

// Contains reports whether w is a valid word for this puzzle.
func (p *Puzzle) Contains(w string) bool {
	_, ok := p.valid[Normalize(w)]
	return ok
}

// IsMystery reports whether w is the puzzle's mystery word.
func (p *Puzzle) IsMystery(w string) bool {
	return p.MysteryWord != "" && Normalize(w) == p.MysteryWord
}

// ValidWords returns the sorted valid-word list.
func (p *Puzzle) ValidWords() []string {
	out := make([]string, len(p.ordered))
	copy(out, p.ordered)
	return out
}

// WordCount returns the number of valid words.
func (p *Puzzle) WordCount() int { return len(p.ordered) }

// MysteryLength returns the length of the mystery word (0 if none).
func (p *Puzzle) MysteryLength() int { return len(p.MysteryWord) }

// Normalize applies the session-wide normalization policy: trimmed,
// upper-cased ASCII.
func Normalize(w string) string {
	return strings.ToUpper(strings.TrimSpace(w))
}

func normalizeLetters(letters []string) []string {
	return lo.Map(letters, func(l string, _ int) string { return Normalize(l) })
}

// CanForm reports whether word can be assembled from the letter multiset,
// using each tile at most once.
func CanForm(word string, letters []string) bool {
	word = Normalize(word)
	if len(word) < MinWordLen {
		return false
	}
	counts := lo.CountValues(normalizeLetters(letters))
	for _, r := range word {
		l := string(r)
		if counts[l] == 0 {
			return false
		}
		counts[l]--
	}
	return true
}

// FromLetters returns every dictionary word that can be formed from the
// letter multiset.
func FromLetters(letters []string) []string {
	return lo.Filter(Dictionary(), func(w string, _ int) bool {
		return CanForm(w, letters)
	})
}

// Mask renders a word as a hint pattern: first and last letters visible,
// interior letters blanked. "CATS" -> "C _ _ S".
func Mask(word string) string {
	word = Normalize(word)
	if len(word) < MinWordLen {
		return word
	}
	parts := make([]string, len(word))
	for i, r := range word {
		if i == 0 || i == len(word)-1 {
			parts[i] = string(r)
		} else {
			parts[i] = "_"
		}
	}
	return strings.Join(parts, " ")
}
