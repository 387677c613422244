// apps/go-server/assets/embed.go
//
// Embedded data files shipped with the server binary.
// Parsing lives with the consumers; this package only hands out readers.

package assets

import (
	"embed"
	"io"
)

// SwirdleWordsFile is the embedded fallback word list.
const SwirdleWordsFile = "swirdle_words.txt"

//go:embed swirdle_words.txt
var FS embed.FS

// OpenSwirdleWords opens the embedded fallback list. Callers close it.
func OpenSwirdleWords() (io.ReadCloser, error) {
	return FS.Open(SwirdleWordsFile)
}
