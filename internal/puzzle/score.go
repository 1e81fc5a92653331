// internal/puzzle/score.go
//
// Fixed scoring table. Both the server and the client's offline fallback
// use these values, so a locally scored word matches what the server would
// have awarded.

package puzzle

// MysteryBonus is the flat bonus for finding the mystery word, on top of
// its length points.
const MysteryBonus = 50

// Points returns the base score for a word by length.
func Points(word string) int {
	switch n := len(Normalize(word)); {
	case n < MinWordLen:
		return 0
	case n == 3:
		return 10
	case n == 4:
		return 20
	case n == 5:
		return 40
	case n == 6:
		return 60
	default:
		return 80
	}
}

// Score totals a list of found words against a puzzle, including the
// mystery bonus when the mystery word is present. Words the puzzle does not
// accept contribute nothing, which lets the server recompute a submitted
// score without trusting the client's arithmetic.
func (p *Puzzle) Score(found []string) int {
	total := 0
	seen := make(map[string]struct{}, len(found))
	for _, w := range found {
		w = Normalize(w)
		if _, dup := seen[w]; dup || !p.Contains(w) {
			continue
		}
		seen[w] = struct{}{}
		total += Points(w)
		if p.IsMystery(w) {
			total += MysteryBonus
		}
	}
	return total
}
