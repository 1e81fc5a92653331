// internal/puzzle/daily.go
//
// Deterministic daily puzzle selection. The day's grid is chosen by
// HMAC-SHA256(salt, YYYY-MM-DD) % len(grids), so every instance of the
// server agrees on the same puzzle without coordination.

package puzzle

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// caseEpoch anchors case numbering: case #1 is this date.
var caseEpoch = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// GridIndex returns a deterministic grid index for a date key.
func GridIndex(dateKey, salt string, gridCount int) int {
	if gridCount <= 0 {
		return 0
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(dateKey))
	sum := h.Sum(nil)
	n := binary.BigEndian.Uint64(sum[:8])
	return int(n % uint64(gridCount))
}

// CaseNumber returns the 1-based case number for a date key. Dates before
// the epoch clamp to 1.
func CaseNumber(dateKey string) int {
	t, err := time.Parse("2006-01-02", dateKey)
	if err != nil {
		return 1
	}
	days := int(t.Sub(caseEpoch).Hours() / 24)
	if days < 0 {
		return 1
	}
	return days + 1
}
