package dictionary

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"jtalkfront/kana"
)

// ErrDictionaryLoad marks missing or corrupt dictionary files.
var ErrDictionaryLoad = errors.New("dictionary load error")

// Entry is one morpheme of the lexicon. Entries are immutable once loaded.
type Entry struct {
	Surface string
	LeftID  int
	RightID int
	Cost    int
	POS     string
	POS1    string
	POS2    string
	POS3    string
	CType   string
	CForm   string
	Orig    string
	Read    string
	Pron    string
	Acc     int
	Mora    int
	Rule    string
}

// Unresolved marks a context id left empty in a user dictionary row.
const Unresolved = -1

// ConjugationKey identifies the POS + conjugation class of an entry; user
// entries with empty context ids borrow the ids of a base entry with the
// same key.
func (e Entry) ConjugationKey() string {
	return strings.Join([]string{e.POS, e.POS1, e.POS2, e.POS3, e.CType, e.CForm}, ",")
}

// KnownPOS is the top-level part-of-speech inventory of IPADIC-derived
// dictionaries.
var KnownPOS = map[string]bool{
	"名詞": true, "動詞": true, "形容詞": true, "副詞": true, "連体詞": true,
	"接続詞": true, "感動詞": true, "助詞": true, "助動詞": true, "接頭詞": true,
	"記号": true, "フィラー": true, "その他": true,
}

// Column layout of a dictionary source row.
const (
	colSurface = iota
	colLeft
	colRight
	colCost
	colPOS
	colPOS1
	colPOS2
	colPOS3
	colCType
	colCForm
	colOrig
	colRead
	colPron
	colAccMora
	colRule

	// UnknownColumns is the width of an unk.def row.
	UnknownColumns = colOrig
	// IPAColumns is the width of an IPADIC row.
	IPAColumns = colAccMora
	// JTalkColumns is the width of an open_jtalk row (IPADIC + accent/mora + chain rule).
	JTalkColumns = colRule + 1
)

// ParseEntry converts a source row into an Entry. Rows may have
// UnknownColumns, IPAColumns or JTalkColumns fields. Empty context ids
// become Unresolved.
func ParseEntry(fields []string) (Entry, error) {
	switch len(fields) {
	case UnknownColumns, IPAColumns, JTalkColumns:
	default:
		return Entry{}, fmt.Errorf("expected %d, %d or %d columns, got %d",
			UnknownColumns, IPAColumns, JTalkColumns, len(fields))
	}
	if fields[colSurface] == "" {
		return Entry{}, errors.New("empty surface")
	}
	e := Entry{
		Surface: fields[colSurface],
		POS:     fields[colPOS],
		POS1:    fields[colPOS1],
		POS2:    fields[colPOS2],
		POS3:    fields[colPOS3],
		CType:   fields[colCType],
		CForm:   fields[colCForm],
		Orig:    "*",
		Rule:    "*",
	}
	var err error
	if e.LeftID, err = parseContext(fields[colLeft]); err != nil {
		return Entry{}, fmt.Errorf("left context id: %w", err)
	}
	if e.RightID, err = parseContext(fields[colRight]); err != nil {
		return Entry{}, fmt.Errorf("right context id: %w", err)
	}
	if e.Cost, err = strconv.Atoi(strings.TrimSpace(fields[colCost])); err != nil {
		return Entry{}, fmt.Errorf("cost: %w", err)
	}
	if e.Cost < -32768 || e.Cost > 32767 {
		return Entry{}, fmt.Errorf("cost %d out of range", e.Cost)
	}
	if len(fields) > colPron {
		e.Orig = fields[colOrig]
		e.Read = fieldValue(fields[colRead])
		e.Pron = fieldValue(fields[colPron])
	}
	if len(fields) > colRule {
		if e.Acc, e.Mora, err = ParseAccentMora(fields[colAccMora]); err != nil {
			return Entry{}, err
		}
		e.Rule = fields[colRule]
	}
	if e.Mora == 0 && e.Pron != "" {
		e.Mora = kana.Count(e.Pron)
	}
	return e, nil
}

// ParseAccentMora parses the "acc/mora" column ("1/4", "0/5", "*").
func ParseAccentMora(s string) (acc, mora int, err error) {
	if !kana.Defined(s) {
		return 0, 0, nil
	}
	accStr, moraStr, hasMora := strings.Cut(s, "/")
	if acc, err = strconv.Atoi(accStr); err != nil || acc < 0 {
		return 0, 0, fmt.Errorf("malformed accent/mora %q", s)
	}
	if hasMora && kana.Defined(moraStr) {
		if mora, err = strconv.Atoi(moraStr); err != nil || mora < 0 {
			return 0, 0, fmt.Errorf("malformed accent/mora %q", s)
		}
	}
	return acc, mora, nil
}

func parseContext(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Unresolved, nil
	}
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if id < 0 || id > 32767 {
		return 0, fmt.Errorf("id %d out of range", id)
	}
	return id, nil
}

func fieldValue(s string) string {
	if kana.Defined(s) {
		return s
	}
	return ""
}
