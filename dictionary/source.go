package dictionary

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Source file names of a MeCab-style dictionary directory.
const (
	MatrixDef = "matrix.def"
	UnkDef    = "unk.def"
)

// ReadCSV calls fn for every record of the CSV file at path with its
// 1-based line number. Blank lines are skipped.
func ReadCSV(path string, fn func(line int, fields []string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return readCSV(f, fn)
}

func readCSV(r io.Reader, fn func(line int, fields []string) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		line, _ := cr.FieldPos(0)
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if err := fn(line, rec); err != nil {
			return err
		}
	}
}

// ReadMatrixDef parses a MeCab matrix.def: a "lsize rsize" header followed
// by "right left cost" lines. Missing pairs cost 0.
func ReadMatrixDef(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	var m *Matrix
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		nums := make([]int, len(fields))
		for i, s := range fields {
			if nums[i], err = strconv.Atoi(s); err != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
			}
		}
		if m == nil {
			if len(nums) != 2 || nums[0] <= 0 || nums[1] <= 0 {
				return nil, fmt.Errorf("%s:%d: bad matrix header", path, lineNo)
			}
			m = NewMatrix(nums[0], nums[1])
			continue
		}
		if len(nums) != 3 {
			return nil, fmt.Errorf("%s:%d: expected 3 fields", path, lineNo)
		}
		m.Set(nums[0], nums[1], nums[2])
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("%s: empty matrix", path)
	}
	return m, nil
}

// BuildSource compiles a MeCab-style source directory (*.csv lexicon files,
// matrix.def and an optional unk.def) into a dictionary directory holding
// SysFile and MatrixFile.
func BuildSource(srcDir, outDir string) (*Dictionary, error) {
	files, err := filepath.Glob(filepath.Join(srcDir, "*.csv"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: no lexicon csv files", srcDir)
	}
	sort.Strings(files)

	var entries []Entry
	for _, path := range files {
		err := ReadCSV(path, func(line int, fields []string) error {
			e, err := ParseEntry(fields)
			if err != nil {
				return fmt.Errorf("%s:%d: %w", path, line, err)
			}
			if e.LeftID == Unresolved || e.RightID == Unresolved {
				return fmt.Errorf("%s:%d: context ids are required in a system dictionary", path, line)
			}
			entries = append(entries, e)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	m, err := ReadMatrixDef(filepath.Join(srcDir, MatrixDef))
	if err != nil {
		return nil, err
	}

	var unknown []Entry
	unkPath := filepath.Join(srcDir, UnkDef)
	if _, statErr := os.Stat(unkPath); statErr == nil {
		err := ReadCSV(unkPath, func(line int, fields []string) error {
			if len(fields) > UnknownColumns {
				fields = fields[:UnknownColumns]
			}
			e, err := ParseEntry(fields)
			if err != nil {
				return fmt.Errorf("%s:%d: %w", unkPath, line, err)
			}
			unknown = append(unknown, e)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	d, err := NewDictionary(entries, m, unknown)
	if err != nil {
		return nil, err
	}
	if err := d.Save(filepath.Join(outDir, SysFile)); err != nil {
		return nil, err
	}
	log.Info().
		Str("source", srcDir).
		Str("out", outDir).
		Int("entries", len(entries)).
		Int("unknownClasses", len(unknown)).
		Msg("system dictionary built")
	return d, nil
}
