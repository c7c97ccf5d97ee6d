// Package lookup is the prefix index of the lexicon: a double-array trie
// over dictionary surfaces answering common-prefix queries.
package lookup

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/ikawaha/kagome-dict/dict"
)

// Index maps surfaces to the ids of their entries. Entry ids are positions
// in the sorted key list the index was built from, so duplicate surfaces
// get consecutive ids.
type Index struct {
	table dict.IndexTable
	size  int
}

// Hit is one common-prefix match: the matched byte length and the ids of
// every entry with that surface.
type Hit struct {
	Len int
	IDs []int
}

// Build constructs an index. keys must be sorted; duplicates are allowed.
func Build(keys []string) (*Index, error) {
	if !sort.StringsAreSorted(keys) {
		return nil, fmt.Errorf("lookup: keys are not sorted")
	}
	if len(keys) == 0 {
		return &Index{}, nil
	}
	t, err := dict.BuildIndexTable(keys)
	if err != nil {
		return nil, fmt.Errorf("lookup: build index: %w", err)
	}
	return &Index{table: t, size: len(keys)}, nil
}

// FromTable wraps an existing kagome index table.
func FromTable(t dict.IndexTable) *Index {
	return &Index{table: t, size: -1}
}

// CommonPrefix returns every indexed surface that is a prefix of input,
// longest first.
func (idx *Index) CommonPrefix(input string) []Hit {
	if idx == nil || idx.size == 0 || input == "" {
		return nil
	}
	lens, ids := idx.table.CommonPrefixSearch(input)
	hits := make([]Hit, 0, len(lens))
	for i := len(lens) - 1; i >= 0; i-- {
		hits = append(hits, Hit{Len: lens[i], IDs: ids[i]})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Len > hits[j].Len })
	return hits
}

// Exact returns the ids of entries whose surface equals key.
func (idx *Index) Exact(key string) []int {
	if idx == nil || idx.size == 0 || key == "" {
		return nil
	}
	return idx.table.Search(key)
}

// MarshalBinary serializes the index in kagome's index table format.
func (idx *Index) MarshalBinary() ([]byte, error) {
	if idx.size == 0 {
		return nil, nil
	}
	var buf bytes.Buffer
	if _, err := idx.table.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("lookup: write index: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal restores an index written by MarshalBinary. size is the number
// of keys the index was built from.
func Unmarshal(data []byte, size int) (*Index, error) {
	if size == 0 {
		return &Index{}, nil
	}
	t, err := dict.ReadIndexTable(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("lookup: read index: %w", err)
	}
	return &Index{table: t, size: size}, nil
}
