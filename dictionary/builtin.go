package dictionary

import (
	"fmt"
	"sync"

	"github.com/ikawaha/kagome-dict/dict"
	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome-dict/uni"
	"github.com/rs/zerolog/log"

	"jtalkfront/kana"
	"jtalkfront/lookup"
)

// Layout locates the feature columns of a kagome dictionary. The feature
// vector is the POS hierarchy (padded to four levels) followed by the
// dictionary contents.
type Layout struct {
	CType int
	CForm int
	Orig  int
	Read  int
	Pron  int
}

var (
	// IPALayout is the IPADIC feature layout.
	IPALayout = Layout{CType: 4, CForm: 5, Orig: 6, Read: 7, Pron: 8}
	// UniLayout is the UniDic feature layout (lForm is the reading).
	UniLayout = Layout{CType: 4, CForm: 5, Read: 6, Orig: 7, Pron: 9}
)

// Builtin exposes a dictionary embedded in kagome-dict through the Lexicon
// interface. The embedded dictionaries carry no accent data, so base
// accents are 0 and mora counts are taken from the pronunciation.
type Builtin struct {
	name    string
	d       *dict.Dict
	index   *lookup.Index
	layout  Layout
	unknown unknownTable

	contextOnce sync.Once
	context     map[string][2]int
	posSet      map[string]bool
}

var (
	ipaOnce, uniOnce sync.Once
	ipaDict, uniDict *Builtin
)

// IPA returns the shared IPADIC lexicon, loading it on first use.
func IPA() *Builtin {
	ipaOnce.Do(func() {
		ipaDict = NewBuiltin("ipa", ipa.Dict(), IPALayout)
	})
	return ipaDict
}

// Uni returns the shared UniDic lexicon, loading it on first use.
func Uni() *Builtin {
	uniOnce.Do(func() {
		uniDict = NewBuiltin("uni", uni.Dict(), UniLayout)
	})
	return uniDict
}

// BuiltinByName returns the embedded dictionary called name ("ipa" or "uni").
func BuiltinByName(name string) (*Builtin, error) {
	switch name {
	case "", "ipa":
		return IPA(), nil
	case "uni":
		return Uni(), nil
	}
	return nil, fmt.Errorf("%w: unknown builtin dictionary %q", ErrDictionaryLoad, name)
}

// NewBuiltin wraps a kagome dictionary.
func NewBuiltin(name string, d *dict.Dict, layout Layout) *Builtin {
	b := &Builtin{
		name:    name,
		d:       d,
		index:   lookup.FromTable(d.Index),
		layout:  layout,
		unknown: unknownTable{},
	}
	b.loadUnknown()
	log.Info().Str("dictionary", name).Int("entries", len(d.Morphs)).Msg("builtin dictionary ready")
	return b
}

// Name returns the builtin dictionary name.
func (b *Builtin) Name() string {
	return b.name
}

// Lookup implements Lexicon.
func (b *Builtin) Lookup(text string, offset int) []Match {
	if offset >= len(text) {
		return nil
	}
	hits := b.index.CommonPrefix(text[offset:])
	var out []Match
	for _, h := range hits {
		surface := text[offset : offset+h.Len]
		for _, id := range h.IDs {
			e := b.entry(id, surface)
			out = append(out, Match{Len: h.Len, Entry: &e})
		}
	}
	return out
}

// Cost implements Lexicon.
func (b *Builtin) Cost(rightID, leftID int) int {
	return int(b.d.Connection.At(rightID, leftID))
}

// Unknown implements Lexicon.
func (b *Builtin) Unknown(class kana.Class) Entry {
	return b.unknown.get(class)
}

// Size implements Lexicon.
func (b *Builtin) Size() int {
	return len(b.d.Morphs)
}

// ResolveContext implements ContextResolver. The context table is built
// on first use by scanning every morph.
func (b *Builtin) ResolveContext(e Entry) (int, int, bool) {
	b.buildContext()
	for _, key := range contextKeys(e) {
		if ids, ok := b.context[key]; ok {
			return ids[0], ids[1], true
		}
	}
	return 0, 0, false
}

// HasPOS implements ContextResolver.
func (b *Builtin) HasPOS(pos string) bool {
	b.buildContext()
	return b.posSet[pos]
}

func (b *Builtin) buildContext() {
	b.contextOnce.Do(func() {
		b.context = map[string][2]int{}
		b.posSet = map[string]bool{}
		for id := range b.d.Morphs {
			e := b.entry(id, "")
			b.posSet[e.POS] = true
			for _, key := range contextKeys(e) {
				if _, ok := b.context[key]; !ok {
					b.context[key] = [2]int{e.LeftID, e.RightID}
				}
			}
		}
	})
}

func (b *Builtin) entry(id int, surface string) Entry {
	m := b.d.Morphs[id]
	fs := b.features(id)
	e := Entry{
		Surface: surface,
		LeftID:  int(m.LeftID),
		RightID: int(m.RightID),
		Cost:    int(m.Weight),
		POS:     fs[0],
		POS1:    fs[1],
		POS2:    fs[2],
		POS3:    fs[3],
		CType:   feature(fs, b.layout.CType),
		CForm:   feature(fs, b.layout.CForm),
		Orig:    feature(fs, b.layout.Orig),
		Read:    fieldValue(feature(fs, b.layout.Read)),
		Pron:    fieldValue(feature(fs, b.layout.Pron)),
		Rule:    "*",
	}
	e.Mora = kana.Count(e.Pron)
	return e
}

func (b *Builtin) features(id int) []string {
	fs := make([]string, 0, 12)
	if id < len(b.d.POSTable.POSs) {
		for _, p := range b.d.POSTable.POSs[id] {
			fs = append(fs, b.d.POSTable.NameList[p])
		}
	}
	for len(fs) < 4 {
		fs = append(fs, "*")
	}
	if id < len(b.d.Contents) {
		fs = append(fs, b.d.Contents[id]...)
	}
	return fs
}

// loadUnknown reads the unknown-word morphs of every character category
// the dictionary defines.
func (b *Builtin) loadUnknown() {
	for cat, name := range b.d.CharClass {
		id, ok := b.d.UnkDict.Index[int32(cat)]
		if !ok || int(id) >= len(b.d.UnkDict.Morphs) {
			continue
		}
		m := b.d.UnkDict.Morphs[id]
		e := DefaultUnknown(kana.ParseClass(name))
		e.Surface = name
		e.LeftID, e.RightID, e.Cost = int(m.LeftID), int(m.RightID), int(m.Weight)
		if int(id) < len(b.d.UnkDict.Contents) {
			if fs := b.d.UnkDict.Contents[id]; len(fs) >= 4 {
				e.POS, e.POS1, e.POS2, e.POS3 = fs[0], fs[1], fs[2], fs[3]
			}
		}
		b.unknown[name] = e
	}
}

func feature(fs []string, i int) string {
	if i < 0 || i >= len(fs) {
		return "*"
	}
	return fs[i]
}
