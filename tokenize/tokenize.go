// Package tokenize segments text into morphemes: it builds the lattice of
// every dictionary match and unknown-word candidate and picks the
// minimum-cost path through it.
package tokenize

import (
	"context"
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"jtalkfront/dictionary"
	"jtalkfront/kana"
)

// ErrTokenization means the lattice had no path to the end of the text.
// The unknown-word fallback makes this unreachable for any input.
var ErrTokenization = errors.New("tokenization error")

// Node is one lattice edge. Start/End are rune offsets, ByteStart/ByteEnd
// the matching byte offsets into the analyzed text.
type Node struct {
	Start     int
	End       int
	ByteStart int
	ByteEnd   int
	Surface   string
	Entry     dictionary.Entry
	Unknown   bool
	Class     kana.Class

	// Cost is the cumulative cost of the best path ending with this node.
	Cost int

	prev *Node
	seq  int
}

// Tokenizer runs lattice analysis against a read-only lexicon. It holds no
// per-call state and is safe for concurrent use.
type Tokenizer struct {
	lex dictionary.Lexicon
}

// New returns a tokenizer over lex.
func New(lex dictionary.Lexicon) *Tokenizer {
	return &Tokenizer{lex: lex}
}

// Lexicon returns the lexicon the tokenizer reads.
func (t *Tokenizer) Lexicon() dictionary.Lexicon {
	return t.lex
}

// lattice is the per-call working set.
type lattice struct {
	lex     dictionary.Lexicon
	text    string
	runes   []rune
	offsets []int     // byte offset of every rune position, len(runes)+1 entries
	endAt   [][]*Node // nodes by end rune position, in creation order
	seq     int
}

// Tokenize returns the best path over text, BOS/EOS excluded. Empty text
// yields an empty path.
func (t *Tokenizer) Tokenize(text string) ([]Node, error) {
	if text == "" {
		return nil, nil
	}
	la := newLattice(t.lex, text)
	la.build()
	return la.bestPath()
}

func newLattice(lex dictionary.Lexicon, text string) *lattice {
	runes := []rune(text)
	offsets := make([]int, 0, len(runes)+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(text))
	la := &lattice{
		lex:     lex,
		text:    text,
		runes:   runes,
		offsets: offsets,
		endAt:   make([][]*Node, len(runes)+1),
	}
	bos := &Node{Surface: "BOS", seq: la.next()}
	la.endAt[0] = []*Node{bos}
	return la
}

func (la *lattice) next() int {
	la.seq++
	return la.seq
}

// build adds every candidate starting at a reachable position. Positions
// no node ends at cannot be on any path and are skipped.
func (la *lattice) build() {
	for p := 0; p < len(la.runes); p++ {
		if len(la.endAt[p]) == 0 {
			continue
		}
		byteStart := la.offsets[p]
		matches := la.lex.Lookup(la.text, byteStart)
		for _, m := range matches {
			end := p + utf8.RuneCountInString(la.text[byteStart:byteStart+m.Len])
			la.add(p, end, *m.Entry, false, kana.Other)
		}
		la.addUnknown(p, len(matches) > 0)
	}
}

// addUnknown synthesizes unknown-word candidates at p: a grouped candidate
// for runs of katakana, Latin letters or digits, and a single-character
// candidate when nothing in the dictionary starts at p.
func (la *lattice) addUnknown(p int, matched bool) {
	class := kana.ClassOf(la.runes[p])
	if class.Grouped() {
		q := p + 1
		for q < len(la.runes) && kana.ClassOf(la.runes[q]) == class {
			q++
		}
		if q-p > 1 {
			la.add(p, q, la.lex.Unknown(class), true, class)
		}
	}
	if !matched {
		la.add(p, p+1, la.lex.Unknown(class), true, class)
	}
}

// add creates a node and links it to its best predecessor. All nodes
// ending at start exist already because they started earlier.
func (la *lattice) add(start, end int, e dictionary.Entry, unknown bool, class kana.Class) {
	n := &Node{
		Start:     start,
		End:       end,
		ByteStart: la.offsets[start],
		ByteEnd:   la.offsets[end],
		Unknown:   unknown,
		Class:     class,
		seq:       la.next(),
	}
	n.Surface = la.text[n.ByteStart:n.ByteEnd]
	n.Entry = e
	n.Entry.Surface = n.Surface
	n.prev, n.Cost = la.best(la.endAt[start], n.Entry.LeftID)
	n.Cost += n.Entry.Cost
	la.endAt[end] = append(la.endAt[end], n)
}

// best picks the predecessor minimizing path cost plus connection cost.
// Predecessors are scanned in creation order and only a strictly smaller
// cost replaces the current choice, so ties go to the earliest edge.
func (la *lattice) best(prevs []*Node, leftID int) (*Node, int) {
	var best *Node
	lowest := math.MaxInt
	for _, m := range prevs {
		c := m.Cost + la.lex.Cost(m.Entry.RightID, leftID)
		if c < lowest {
			best, lowest = m, c
		}
	}
	return best, lowest
}

func (la *lattice) bestPath() ([]Node, error) {
	last := la.endAt[len(la.runes)]
	if len(last) == 0 {
		return nil, fmt.Errorf("%w: no path reaches the end of %q", ErrTokenization, la.text)
	}
	n, _ := la.best(last, 0)
	var rev []Node
	for ; n != nil && n.prev != nil; n = n.prev {
		rev = append(rev, *n)
	}
	path := make([]Node, len(rev))
	for i := range rev {
		path[i] = rev[len(rev)-1-i]
		path[i].prev = nil
	}
	if len(path) == 0 || path[0].Start != 0 {
		return nil, fmt.Errorf("%w: broken back-pointer chain for %q", ErrTokenization, la.text)
	}
	return path, nil
}

// Surfaces returns the surface strings of a path.
func Surfaces(path []Node) []string {
	out := make([]string, len(path))
	for i, n := range path {
		out[i] = n.Surface
	}
	return out
}

// TokenizeStream streams the best path on a channel. This is useful for
// building a concurrent pipeline.
func (t *Tokenizer) TokenizeStream(ctx context.Context, text string) (<-chan Node, <-chan error) {
	out := make(chan Node, 8)
	errs := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errs)
		path, err := t.Tokenize(text)
		if err != nil {
			errs <- err
			return
		}
		for _, n := range path {
			select {
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			case out <- n:
			}
		}
	}()
	return out, errs
}
