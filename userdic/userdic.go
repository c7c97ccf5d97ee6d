// Package userdic compiles user dictionary CSV files into the artifact the
// lexicon loads as an overlay.
package userdic

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"jtalkfront/dictionary"
	"jtalkfront/ingest"
)

// ErrInvalidDictionaryFormat reports a malformed user dictionary row.
var ErrInvalidDictionaryFormat = errors.New("invalid dictionary format")

// Compile reads the user dictionary at csvPath and writes the compiled
// artifact to outPath. Every row must have the open_jtalk 15-column layout.
// Empty context ids are taken from base.
func Compile(csvPath, outPath string, base dictionary.ContextResolver) error {
	entries, err := Parse(csvPath, base)
	if err != nil {
		return err
	}
	d, err := dictionary.NewDictionary(entries, nil, nil)
	if err != nil {
		return err
	}
	if err := d.Save(outPath); err != nil {
		return err
	}
	log.Info().Str("csv", csvPath).Str("out", outPath).Int("entries", len(entries)).Msg("user dictionary compiled")
	return nil
}

// CompileWithDir is Compile with the base dictionary read from dictDir.
func CompileWithDir(csvPath, outPath, dictDir string) error {
	base, err := dictionary.ReadDictionary(
		filepath.Join(dictDir, dictionary.SysFile),
		filepath.Join(dictDir, dictionary.MatrixFile),
	)
	if err != nil {
		return err
	}
	return Compile(csvPath, outPath, base)
}

// Parse validates every row of csvPath and returns the entries in file
// order. Surfaces are widened the same way analyzer input is, so half-width
// rows still match.
func Parse(csvPath string, base dictionary.ContextResolver) ([]dictionary.Entry, error) {
	var entries []dictionary.Entry
	err := dictionary.ReadCSV(csvPath, func(line int, fields []string) error {
		e, err := parseRow(fields, base)
		if err != nil {
			return fmt.Errorf("%w: %s:%d: %v", ErrInvalidDictionaryFormat, csvPath, line, err)
		}
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidDictionaryFormat) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDictionaryFormat, csvPath, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s: no entries", ErrInvalidDictionaryFormat, csvPath)
	}
	return entries, nil
}

func parseRow(fields []string, base dictionary.ContextResolver) (dictionary.Entry, error) {
	if len(fields) != dictionary.JTalkColumns {
		return dictionary.Entry{}, fmt.Errorf("expected %d columns, got %d", dictionary.JTalkColumns, len(fields))
	}
	e, err := dictionary.ParseEntry(fields)
	if err != nil {
		return dictionary.Entry{}, err
	}
	if !dictionary.KnownPOS[e.POS] && (base == nil || !base.HasPOS(e.POS)) {
		return dictionary.Entry{}, fmt.Errorf("unknown part of speech %q", e.POS)
	}
	e.Surface = ingest.Normalize(e.Surface)
	if e.LeftID == dictionary.Unresolved || e.RightID == dictionary.Unresolved {
		if base == nil {
			return dictionary.Entry{}, errors.New("empty context id and no base dictionary")
		}
		left, right, ok := base.ResolveContext(e)
		if !ok {
			return dictionary.Entry{}, fmt.Errorf("no context id for %s,%s", e.POS, e.POS1)
		}
		if e.LeftID == dictionary.Unresolved {
			e.LeftID = left
		}
		if e.RightID == dictionary.Unresolved {
			e.RightID = right
		}
	}
	return e, nil
}
