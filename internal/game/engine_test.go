package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wordheist/wordheist/internal/puzzle"
)

func testPuzzle() *puzzle.Puzzle {
	return puzzle.New("wh-test", []string{"C", "A", "T", "S"}, "CATS", []string{"CAT", "ACT", "SAT"})
}

func TestApplyWordAcceptThenDuplicate(t *testing.T) {
	p := testPuzzle()
	s := New("owner", p)

	first := s.ApplyWord(p, "cat")
	require.True(t, first.Valid)
	assert.False(t, first.Duplicate)
	assert.Equal(t, 10, first.Points)
	assert.Equal(t, 10, s.Score)

	second := s.ApplyWord(p, "CAT")
	assert.True(t, second.Valid)
	assert.True(t, second.Duplicate)
	assert.Equal(t, 0, second.Points)
	assert.Equal(t, 10, s.Score, "duplicate must never rescore")
	assert.Equal(t, []string{"CAT"}, s.Found)
}

func TestApplyWordInvalid(t *testing.T) {
	p := testPuzzle()
	s := New("owner", p)

	out := s.ApplyWord(p, "ZZZ")
	assert.False(t, out.Valid)
	assert.False(t, out.Duplicate)
	assert.Zero(t, s.Score)
	assert.Empty(t, s.Found)
}

func TestMysteryWordCompletes(t *testing.T) {
	p := testPuzzle()
	s := New("owner", p)

	out := s.ApplyWord(p, "cats")
	require.True(t, out.Valid)
	assert.True(t, out.IsMystery)
	assert.True(t, out.Completed)
	assert.Equal(t, 20+puzzle.MysteryBonus, out.Points)
	assert.True(t, s.Completed)
}

func TestAllWordsFoundCompletes(t *testing.T) {
	p := puzzle.New("wh-test", []string{"C", "A", "T", "S"}, "", []string{"CAT", "ACT"})
	s := New("owner", p)

	assert.False(t, s.ApplyWord(p, "CAT").Completed)
	assert.True(t, s.ApplyWord(p, "ACT").Completed)
}

func TestNextHintSkipsFoundWords(t *testing.T) {
	p := puzzle.New("wh-test", []string{"C", "A", "T", "S"}, "", []string{"ACT", "CAT"})
	s := New("owner", p)

	s.ApplyWord(p, "ACT")
	hint := s.NextHint(p)
	assert.Equal(t, puzzle.Mask("CAT"), hint)
	assert.Equal(t, 1, s.HintsUsed)

	s.ApplyWord(p, "CAT")
	assert.Empty(t, s.NextHint(p), "no hint once everything is found")
	assert.Equal(t, 1, s.HintsUsed, "exhausted board consumes nothing")
}
