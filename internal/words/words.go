// apps/go-server/internal/words/words.go
//
// Fallback word list for Swirdle.
//
// Responsibilities:
//   - Load fallback words from an environment-provided file or the embedded default.
//   - Parse and validate each entry into a swirdle.Word.
//   - Pick a deterministic word for a date when nothing has been scheduled.
//
// Line format (one word per line, '#' comments allowed):
//   WORD|difficulty|category|definition|hint;hint;hint
//
// Environment variables:
//   SWIRDLE_WORDS_FILE=/path/to/words.txt
//
// Constraints:
//   • Words are uppercase letters A–Z after normalization.
//   • Difficulty and category must be known values.
//   • Initialization is run once (sync.Once).

package words

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/robalobadob/vino/apps/go-server/assets"
	"github.com/robalobadob/vino/apps/go-server/internal/daily"
	"github.com/robalobadob/vino/apps/go-server/internal/swirdle"
)

var (
	initOnce   sync.Once
	list       []swirdle.Word
	initialErr error
)

// Init loads the fallback list exactly once.
// Returns an error if the list ends up empty or an entry is malformed.
func Init() error {
	initOnce.Do(func() {
		var src io.ReadCloser
		if path := os.Getenv("SWIRDLE_WORDS_FILE"); path != "" {
			src, initialErr = os.Open(path)
		} else {
			src, initialErr = assets.OpenSwirdleWords()
		}
		if initialErr != nil {
			return
		}
		defer src.Close()
		var lines []string
		if lines, initialErr = readLines(src); initialErr != nil {
			return
		}
		list, initialErr = Parse(lines)
		if initialErr == nil && len(list) == 0 {
			initialErr = errors.New("words: fallback list is empty")
		}
	})
	return initialErr
}

// Parse converts raw lines into words. Blank and '#' lines are skipped.
func Parse(lines []string) ([]swirdle.Word, error) {
	var out []swirdle.Word
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		w, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("words: line %d: %w", i+1, err)
		}
		out = append(out, w)
	}
	return out, nil
}

func parseLine(line string) (swirdle.Word, error) {
	parts := strings.Split(line, "|")
	if len(parts) != 5 {
		return swirdle.Word{}, fmt.Errorf("want 5 fields, got %d", len(parts))
	}
	w := swirdle.Word{
		Word:        parts[0],
		Difficulty:  swirdle.Difficulty(strings.TrimSpace(parts[1])),
		Category:    swirdle.Category(strings.TrimSpace(parts[2])),
		Definition:  strings.TrimSpace(parts[3]),
		IsPublished: true,
	}.Normalize()
	if w.Word == "" || !isAlpha(w.Word) {
		return swirdle.Word{}, fmt.Errorf("invalid word %q", parts[0])
	}
	if !swirdle.ValidDifficulty(w.Difficulty) {
		return swirdle.Word{}, fmt.Errorf("unknown difficulty %q", w.Difficulty)
	}
	if !swirdle.ValidCategory(w.Category) {
		return swirdle.Word{}, fmt.Errorf("unknown category %q", w.Category)
	}
	for _, h := range strings.Split(parts[4], ";") {
		if h = strings.TrimSpace(h); h != "" {
			w.Hints = append(w.Hints, h)
		}
	}
	return w, nil
}

// readLines splits r into raw lines.
func readLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out, sc.Err()
}

// isAlpha reports whether s is all uppercase ASCII letters.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// All returns a copy of the loaded list.
func All() []swirdle.Word {
	return append([]swirdle.Word(nil), list...)
}

// Count returns how many fallback words are loaded.
func Count() int { return len(list) }

// Fallback returns a swirdle.FallbackFunc that picks from the loaded list by
// HMAC(salt, date).
func Fallback(salt string) swirdle.FallbackFunc {
	return FallbackFrom(All(), salt)
}

// FallbackFrom is Fallback over an explicit list.
func FallbackFrom(ws []swirdle.Word, salt string) swirdle.FallbackFunc {
	return func(date time.Time) (swirdle.Word, bool) {
		if len(ws) == 0 {
			return swirdle.Word{}, false
		}
		w := ws[daily.WordIndex(date, salt, len(ws))]
		w.Hints = append([]string(nil), w.Hints...)
		return w, true
	}
}
