package ingest

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/width"
)

// Sentence represents an ingested text and its normalized form.
type Sentence struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Normalized string    `json:"normalized"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewSentence wraps text into a Sentence with a fresh id.
func NewSentence(text string) Sentence {
	return Sentence{
		ID:         uuid.NewString(),
		Text:       text,
		Normalized: Normalize(text),
		CreatedAt:  time.Now().UTC(),
	}
}

// Normalize widens half-width ASCII, katakana and spaces to their
// full-width forms, which is the form dictionary surfaces use. The mapping
// is rune for rune, so rune offsets in the result are valid offsets into
// the input.
func Normalize(text string) string {
	runes := []rune(text)
	for i, r := range runes {
		runes[i] = widen(r)
	}
	return string(runes)
}

func widen(r rune) rune {
	p := width.LookupRune(r)
	switch p.Kind() {
	case width.EastAsianNarrow, width.EastAsianHalfwidth:
		if w := p.Wide(); w != 0 {
			return w
		}
	}
	if r == ' ' {
		return '　'
	}
	return r
}

// Split cuts text into sentences after 。！？!? (with any closing bracket
// that follows) and newlines. Delimiters stay with their sentence, so the
// texts concatenate back to the input minus whitespace-only pieces.
func Split(text string) []Sentence {
	var out []Sentence
	runes := []rune(text)
	start := 0
	for i := range runes {
		if !endsSentence(runes, i) {
			continue
		}
		out = appendSentence(out, string(runes[start:i+1]))
		start = i + 1
	}
	return appendSentence(out, string(runes[start:]))
}

func endsSentence(runes []rune, i int) bool {
	r := runes[i]
	switch {
	case r == '\n':
		return true
	case isClosing(r):
		if i == 0 || !isStop(runes[i-1]) {
			return false
		}
	case !isStop(r):
		return false
	}
	return i+1 == len(runes) || !(isStop(runes[i+1]) || isClosing(runes[i+1]))
}

func isStop(r rune) bool {
	switch r {
	case '。', '！', '？', '!', '?':
		return true
	}
	return false
}

func isClosing(r rune) bool {
	switch r {
	case '」', '』', '）', ')':
		return true
	}
	return false
}

func appendSentence(out []Sentence, s string) []Sentence {
	if strings.TrimSpace(s) == "" {
		return out
	}
	return append(out, NewSentence(s))
}
