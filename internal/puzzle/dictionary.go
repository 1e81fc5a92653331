// internal/puzzle/dictionary.go
//
// Dictionary loading for the puzzle package.
//
// The dictionary is the master word list valid words are drawn from. By
// default a small embedded list ships with the binary so the server runs
// with no configuration; WORDHEIST_DICTIONARY_FILE overrides it with one
// word per line.
//
// Constraints:
//   - Words are normalized to upper-case ASCII.
//   - Words shorter than MinWordLen are dropped.
//   - Loading runs once (sync.Once).

package puzzle

import (
	"bufio"
	_ "embed"
	"os"
	"strings"
	"sync"
	"unicode"
)

//go:embed data/dictionary.txt
var embeddedDictionary string

var (
	dictOnce  sync.Once
	dictWords []string
	dictSet   map[string]struct{}
)

// Dictionary returns the loaded word list, loading it on first use.
func Dictionary() []string {
	loadDictionary()
	return dictWords
}

// IsWord reports whether w appears in the dictionary.
func IsWord(w string) bool {
	loadDictionary()
	_, ok := dictSet[Normalize(w)]
	return ok
}

func loadDictionary() {
	dictOnce.Do(func() {
		var lines []string
		if path := os.Getenv("WORDHEIST_DICTIONARY_FILE"); path != "" {
			if fromFile, err := readWordFile(path); err == nil {
				lines = fromFile
			}
		}
		if lines == nil {
			lines = normalizeLines(embeddedDictionary)
		}
		dictWords = lines
		dictSet = make(map[string]struct{}, len(lines))
		for _, w := range lines {
			dictSet[w] = struct{}{}
		}
	})
}

// readWordFile loads one word per line, keeping valid alphabetic words of
// MinWordLen or longer.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if w := cleanWord(sc.Text()); w != "" {
			out = append(out, w)
		}
	}
	return out, sc.Err()
}

func normalizeLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if w := cleanWord(line); w != "" {
			out = append(out, w)
		}
	}
	return out
}

func cleanWord(raw string) string {
	w := Normalize(raw)
	if len(w) < MinWordLen || !isAlpha(w) {
		return ""
	}
	return w
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) || r > unicode.MaxASCII {
			return false
		}
	}
	return true
}
