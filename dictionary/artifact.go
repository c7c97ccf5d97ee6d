package dictionary

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelindar/binary"
	"github.com/klauspost/compress/zstd"
)

// File names inside a dictionary directory.
const (
	SysFile    = "sys.dic"
	MatrixFile = "matrix.bin"
)

const (
	artifactMagic   = "JTFD"
	matrixMagic     = "JTFM"
	artifactVersion = 1
)

// table is the on-disk body of sys.dic and user dictionaries: the entry
// table sorted by surface, the serialized prefix index and the
// unknown-word templates keyed by class name.
type table struct {
	Version int
	Entries []Entry
	Index   []byte
	Unknown []Entry
}

// Matrix is the connection cost matrix indexed by (right id of the
// preceding node, left id of the following node).
type Matrix struct {
	LSize int
	RSize int
	Costs []int16
}

// NewMatrix allocates a zero matrix.
func NewMatrix(lsize, rsize int) *Matrix {
	return &Matrix{LSize: lsize, RSize: rsize, Costs: make([]int16, lsize*rsize)}
}

// Set stores a connection cost. Out-of-range ids are ignored.
func (m *Matrix) Set(rightID, leftID, cost int) {
	if rightID < 0 || rightID >= m.LSize || leftID < 0 || leftID >= m.RSize {
		return
	}
	m.Costs[rightID*m.RSize+leftID] = int16(cost)
}

// Cost returns the connection cost, 0 for ids outside the matrix.
func (m *Matrix) Cost(rightID, leftID int) int {
	if m == nil || rightID < 0 || rightID >= m.LSize || leftID < 0 || leftID >= m.RSize {
		return 0
	}
	return int(m.Costs[rightID*m.RSize+leftID])
}

func writeTable(path string, t table) error {
	t.Version = artifactVersion
	return writeEncoded(path, artifactMagic, t)
}

func readTable(path string) (table, error) {
	var t table
	if err := readEncoded(path, artifactMagic, &t); err != nil {
		return table{}, err
	}
	if t.Version != artifactVersion {
		return table{}, fmt.Errorf("%w: %s: unsupported version %d", ErrDictionaryLoad, path, t.Version)
	}
	return t, nil
}

// WriteMatrix stores m at path.
func WriteMatrix(path string, m *Matrix) error {
	return writeEncoded(path, matrixMagic, m)
}

// ReadMatrix loads a matrix written by WriteMatrix.
func ReadMatrix(path string) (*Matrix, error) {
	var m Matrix
	if err := readEncoded(path, matrixMagic, &m); err != nil {
		return nil, err
	}
	if len(m.Costs) != m.LSize*m.RSize {
		return nil, fmt.Errorf("%w: %s: matrix size mismatch", ErrDictionaryLoad, path)
	}
	return &m, nil
}

// writeEncoded writes magic followed by the zstd-compressed binary encoding
// of v. The file is written to a temporary name and renamed into place.
func writeEncoded(path, magic string, v any) error {
	body, err := binary.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return err
	}
	defer enc.Close()
	data := append([]byte(magic), enc.EncodeAll(body, nil)...)
	return writeFileAtomic(path, data)
}

func readEncoded(path, magic string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDictionaryLoad, err)
	}
	if !bytes.HasPrefix(data, []byte(magic)) {
		return fmt.Errorf("%w: %s: bad magic", ErrDictionaryLoad, path)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return err
	}
	defer dec.Close()
	body, err := dec.DecodeAll(data[len(magic):], nil)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDictionaryLoad, path, err)
	}
	if err := binary.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDictionaryLoad, path, err)
	}
	return nil
}

// writeFileAtomic writes to a temporary file first and renames it to the
// final path to avoid leaving partial artifacts behind.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
