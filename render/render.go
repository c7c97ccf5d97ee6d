// Package render turns processed feature nodes into phoneme or katakana
// strings.
package render

import (
	"strings"

	"jtalkfront/kana"
	"jtalkfront/model"
)

// Prosody markers.
const (
	MarkStart    = "^"
	MarkEnd      = "$"
	MarkQuestion = "?"
	MarkPause    = "_"
	MarkBoundary = "#"
	MarkRise     = "["
	MarkFall     = "]"
)

// Pause is the phoneme emitted between content separated by punctuation.
const Pause = "pau"

// Options selects the output form.
type Options struct {
	// Kana renders katakana instead of phonemes.
	Kana bool
	// Join returns a single string in Result.Text instead of Result.Tokens.
	Join bool
	// Prosody inserts the accent and boundary markers.
	Prosody bool
}

// Result is either a joined string or a token list, depending on
// Options.Join.
type Result struct {
	Text   string   `json:"text,omitempty"`
	Tokens []string `json:"tokens,omitempty"`
}

// String returns the joined text, or the tokens joined with spaces.
func (r Result) String() string {
	if r.Tokens != nil {
		return strings.Join(r.Tokens, " ")
	}
	return r.Text
}

// segment is an accent phrase with pronounceable morae, or a pause.
type segment struct {
	morae []kana.Mora
	acc   int
	pause bool
}

// Render renders nodes. It does not modify them.
func Render(nodes []model.FeatureNode, opts Options) Result {
	var tokens []string
	switch {
	case opts.Prosody:
		tokens = prosody(segments(nodes), question(nodes), opts.Kana)
	case opts.Kana:
		tokens = make([]string, 0, len(nodes))
		for _, n := range nodes {
			tokens = append(tokens, kana.StripDevoice(n.Pron))
		}
	default:
		tokens = phonemes(segments(nodes))
	}

	if !opts.Join {
		if tokens == nil {
			tokens = []string{}
		}
		return Result{Tokens: tokens}
	}
	sep := " "
	if opts.Kana {
		sep = ""
	}
	return Result{Text: strings.Join(tokens, sep)}
}

// segments groups the morae of each accent phrase. Phrases with nothing to
// pronounce become a pause when they hold punctuation; pauses at either end
// and repeated pauses collapse away.
func segments(nodes []model.FeatureNode) []segment {
	var out []segment
	pending := false
	for _, p := range model.Phrases(nodes) {
		var morae []kana.Mora
		punct := false
		for _, n := range nodes[p.Start:p.End] {
			if n.Is("記号") {
				punct = true
			}
			for _, m := range kana.Split(n.Pron) {
				if m.IsKana() {
					morae = append(morae, m)
				}
			}
		}
		if len(morae) == 0 {
			pending = pending || punct
			continue
		}
		if pending && len(out) > 0 {
			out = append(out, segment{pause: true})
		}
		pending = false
		acc := nodes[p.Start].Acc
		if acc < 0 || acc > len(morae) {
			acc = 0
		}
		out = append(out, segment{morae: morae, acc: acc})
	}
	return out
}

// question reports whether the text ends with a question mark.
func question(nodes []model.FeatureNode) bool {
	for i := len(nodes) - 1; i >= 0; i-- {
		s := nodes[i].String
		if strings.ContainsAny(s, "?？") {
			return true
		}
		if kana.Count(nodes[i].Pron) > 0 {
			return false
		}
	}
	return false
}

func phonemes(segs []segment) []string {
	var out []string
	prev := ""
	for _, s := range segs {
		if s.pause {
			out = append(out, Pause)
			prev = ""
			continue
		}
		for _, m := range s.morae {
			out = append(out, m.Phonemes(prev)...)
			prev = next(m, prev)
		}
	}
	return out
}

// prosody emits morae with markers: ^ and $ (or ?) around the utterance,
// _ for pauses and # between accent phrases. Inside a phrase [ follows the
// first mora when pitch rises and ] follows the accent nucleus.
func prosody(segs []segment, q bool, asKana bool) []string {
	out := []string{MarkStart}
	prev := ""
	for i, s := range segs {
		if s.pause {
			out = append(out, MarkPause)
			prev = ""
			continue
		}
		if i > 0 && !segs[i-1].pause {
			out = append(out, MarkBoundary)
		}
		n := len(s.morae)
		for k, m := range s.morae {
			if asKana {
				out = append(out, m.Text)
			} else {
				out = append(out, m.Phonemes(prev)...)
			}
			prev = next(m, prev)

			pos := k + 1
			switch {
			case pos == s.acc && pos != n:
				out = append(out, MarkFall)
			case pos == 1 && n > 1:
				out = append(out, MarkRise)
			}
		}
	}
	if q {
		return append(out, MarkQuestion)
	}
	return append(out, MarkEnd)
}

func next(m kana.Mora, prev string) string {
	if v := m.Vowel(prev); v != "" {
		return v
	}
	return ""
}
