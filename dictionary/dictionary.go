package dictionary

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"

	"jtalkfront/kana"
	"jtalkfront/lookup"
)

// Dictionary is a compiled lexicon loaded from a sys.dic (or a user .dic)
// artifact. A user dictionary has no matrix of its own.
type Dictionary struct {
	entries []Entry
	index   *lookup.Index
	matrix  *Matrix
	unknown unknownTable
	context map[string][2]int
	posSet  map[string]bool
}

// NewDictionary builds an in-memory dictionary. Entries are sorted by
// surface, keeping the given order for equal surfaces.
func NewDictionary(entries []Entry, m *Matrix, unknown []Entry) (*Dictionary, error) {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Surface < sorted[j].Surface })
	keys := make([]string, len(sorted))
	for i, e := range sorted {
		keys[i] = e.Surface
	}
	idx, err := lookup.Build(keys)
	if err != nil {
		return nil, err
	}
	return newDictionary(sorted, idx, m, unknown), nil
}

func newDictionary(entries []Entry, idx *lookup.Index, m *Matrix, unknown []Entry) *Dictionary {
	d := &Dictionary{
		entries: entries,
		index:   idx,
		matrix:  m,
		unknown: unknownTable{},
		context: map[string][2]int{},
		posSet:  map[string]bool{},
	}
	for _, u := range unknown {
		if _, ok := d.unknown[u.Surface]; !ok {
			d.unknown[u.Surface] = u
		}
	}
	for _, e := range entries {
		d.posSet[e.POS] = true
		if e.LeftID == Unresolved || e.RightID == Unresolved {
			continue
		}
		for _, key := range contextKeys(e) {
			if _, ok := d.context[key]; !ok {
				d.context[key] = [2]int{e.LeftID, e.RightID}
			}
		}
	}
	return d
}

// Lookup implements Lexicon.
func (d *Dictionary) Lookup(text string, offset int) []Match {
	if offset >= len(text) {
		return nil
	}
	hits := d.index.CommonPrefix(text[offset:])
	var out []Match
	for _, h := range hits {
		for _, id := range h.IDs {
			out = append(out, Match{Len: h.Len, Entry: &d.entries[id]})
		}
	}
	return out
}

// Cost implements Lexicon.
func (d *Dictionary) Cost(rightID, leftID int) int {
	return d.matrix.Cost(rightID, leftID)
}

// Unknown implements Lexicon.
func (d *Dictionary) Unknown(class kana.Class) Entry {
	return d.unknown.get(class)
}

// Size implements Lexicon.
func (d *Dictionary) Size() int {
	return len(d.entries)
}

// Entries returns the entry table in index order.
func (d *Dictionary) Entries() []Entry {
	return d.entries
}

// ResolveContext implements ContextResolver: the ids of the first entry with
// the same POS and conjugation, then the same pos+group1, then the same pos.
func (d *Dictionary) ResolveContext(e Entry) (int, int, bool) {
	for _, key := range contextKeys(e) {
		if ids, ok := d.context[key]; ok {
			return ids[0], ids[1], true
		}
	}
	return 0, 0, false
}

// HasPOS implements ContextResolver.
func (d *Dictionary) HasPOS(pos string) bool {
	return d.posSet[pos]
}

func contextKeys(e Entry) []string {
	return []string{e.ConjugationKey(), e.POS + "," + e.POS1, e.POS}
}

// Save writes the dictionary to path. The matrix, when present, goes to
// MatrixFile next to it.
func (d *Dictionary) Save(path string) error {
	idx, err := d.index.MarshalBinary()
	if err != nil {
		return err
	}
	unknown := make([]Entry, 0, len(d.unknown))
	for _, u := range d.unknown {
		unknown = append(unknown, u)
	}
	sort.Slice(unknown, func(i, j int) bool { return unknown[i].Surface < unknown[j].Surface })
	if err := writeTable(path, table{Entries: d.entries, Index: idx, Unknown: unknown}); err != nil {
		return err
	}
	if d.matrix != nil {
		return WriteMatrix(filepath.Join(filepath.Dir(path), MatrixFile), d.matrix)
	}
	return nil
}

// ReadDictionary loads a dictionary artifact. matrixPath may be empty for
// user dictionaries.
func ReadDictionary(path, matrixPath string) (*Dictionary, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	idx, err := lookup.Unmarshal(t.Index, len(t.Entries))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDictionaryLoad, path, err)
	}
	var m *Matrix
	if matrixPath != "" {
		if m, err = ReadMatrix(matrixPath); err != nil {
			return nil, err
		}
	}
	log.Debug().Str("path", path).Int("entries", len(t.Entries)).Msg("dictionary artifact loaded")
	return newDictionary(t.Entries, idx, m, t.Unknown), nil
}

// Load reads the base dictionary in dictDir and overlays the user
// dictionary at userDic when it is not empty.
func Load(dictDir, userDic string) (Lexicon, error) {
	sys, err := ReadDictionary(filepath.Join(dictDir, SysFile), filepath.Join(dictDir, MatrixFile))
	if err != nil {
		return nil, err
	}
	return WithUserDictionary(sys, userDic)
}

// WithUserDictionary overlays the user dictionary at path on base. An empty
// path returns base unchanged.
func WithUserDictionary(base Lexicon, path string) (Lexicon, error) {
	if path == "" {
		return base, nil
	}
	user, err := ReadDictionary(path, "")
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", path).Int("entries", user.Size()).Msg("user dictionary overlaid")
	return NewOverlay(base, user), nil
}
