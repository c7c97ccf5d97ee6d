package dictionary

import "jtalkfront/kana"

// Overlay serves user entries on top of a base lexicon. A surface defined
// by the user dictionary hides the base entries with the same surface;
// connection costs and unknown-word templates come from the base.
type Overlay struct {
	base Lexicon
	user Lexicon
}

// NewOverlay combines base and user.
func NewOverlay(base, user Lexicon) *Overlay {
	return &Overlay{base: base, user: user}
}

// Lookup implements Lexicon.
func (o *Overlay) Lookup(text string, offset int) []Match {
	user := o.user.Lookup(text, offset)
	if len(user) == 0 {
		return o.base.Lookup(text, offset)
	}
	shadowed := make(map[int]bool, len(user))
	for _, m := range user {
		shadowed[m.Len] = true
	}
	out := append([]Match(nil), user...)
	for _, m := range o.base.Lookup(text, offset) {
		if !shadowed[m.Len] {
			out = append(out, m)
		}
	}
	sortMatches(out)
	return out
}

// Cost implements Lexicon.
func (o *Overlay) Cost(rightID, leftID int) int {
	return o.base.Cost(rightID, leftID)
}

// Unknown implements Lexicon.
func (o *Overlay) Unknown(class kana.Class) Entry {
	return o.base.Unknown(class)
}

// Size implements Lexicon.
func (o *Overlay) Size() int {
	return o.base.Size() + o.user.Size()
}

// Base returns the underlying base lexicon.
func (o *Overlay) Base() Lexicon {
	return o.base
}
