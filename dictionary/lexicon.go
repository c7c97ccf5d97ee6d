package dictionary

import (
	"sort"

	"jtalkfront/kana"
)

// Match is one lexicon hit: Len bytes of the queried text starting at the
// query offset form the surface of Entry.
type Match struct {
	Len   int
	Entry *Entry
}

// Lexicon is the read-only morpheme store the tokenizer queries. All
// implementations are safe for concurrent use.
type Lexicon interface {
	// Lookup returns every entry whose surface is a prefix of
	// text[offset:], longest match first, equal lengths in dictionary order.
	Lookup(text string, offset int) []Match
	// Cost is the connection cost between a node's right context and the
	// following node's left context.
	Cost(rightID, leftID int) int
	// Unknown returns the unknown-word template of a character class.
	Unknown(class kana.Class) Entry
	// Size is the number of entries.
	Size() int
}

// ContextResolver assigns context ids to user entries that leave them empty.
type ContextResolver interface {
	ResolveContext(e Entry) (left, right int, ok bool)
	HasPOS(pos string) bool
}

// unknownCost is used when a dictionary defines no unknown-word template.
const unknownCost = 10000

// DefaultUnknown is the fallback unknown-word template for a class.
func DefaultUnknown(class kana.Class) Entry {
	e := Entry{POS: "名詞", POS1: "一般", POS2: "*", POS3: "*", CType: "*", CForm: "*", Orig: "*", Rule: "*", Cost: unknownCost}
	switch class {
	case kana.Numeric:
		e.POS1 = "数"
	case kana.Symbol, kana.Space, kana.Other:
		e.POS, e.POS1 = "記号", "一般"
		if class == kana.Space {
			e.POS1 = "空白"
		}
	}
	return e
}

// unknownTable holds per-class templates with DEFAULT as fallback.
type unknownTable map[string]Entry

func (t unknownTable) get(class kana.Class) Entry {
	if e, ok := t[class.String()]; ok {
		return e
	}
	if e, ok := t["DEFAULT"]; ok {
		d := DefaultUnknown(class)
		d.LeftID, d.RightID, d.Cost = e.LeftID, e.RightID, e.Cost
		return d
	}
	return DefaultUnknown(class)
}

func sortMatches(ms []Match) {
	sort.SliceStable(ms, func(i, j int) bool { return ms[i].Len > ms[j].Len })
}
