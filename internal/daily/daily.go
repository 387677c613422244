// apps/go-server/internal/daily/daily.go
//
// Calendar helpers shared by Swirdle word resolution.
//   - Date keys are YYYY-MM-DD in UTC; one puzzle per key.
//   - Fallback picks are HMAC(salt, key) so every server agrees on the word
//     without coordination. A pick steps past the previous day's raw pick,
//     which rules out most back-to-back repeats.

package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"
)

const layout = "2006-01-02"

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format(layout)
}

// ParseDateKey parses a YYYY-MM-DD key as midnight UTC.
func ParseDateKey(s string) (time.Time, error) {
	return time.Parse(layout, s)
}

// WordIndex returns the fallback index for date in a list of n words.
// When the raw pick equals yesterday's raw pick it moves one step forward.
func WordIndex(date time.Time, salt string, n int) int {
	if n <= 0 {
		return 0
	}
	idx := rawIndex(DateKey(date), salt, n)
	if n > 1 && idx == rawIndex(DateKey(date.AddDate(0, 0, -1)), salt, n) {
		idx = (idx + 1) % n
	}
	return idx
}

func rawIndex(key, salt string, n int) int {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(key))
	sum := h.Sum(nil)
	v := binary.BigEndian.Uint64(sum[:8])
	return int(v % uint64(n))
}
