package model

import "strings"

// Chain flag values carried by FeatureNode.ChainFlag.
const (
	ChainBoundary = -1 // node starts a new accent phrase
	ChainAttach   = 0  // node continues the current phrase
	ChainRule     = 1  // node continues the phrase through a combination rule
)

// NoRule is the chain rule label of phrase-initial nodes.
const NoRule = "-1"

// FeatureNode is one morpheme flowing through the frontend pipeline.
type FeatureNode struct {
	String    string `json:"string"`
	POS       string `json:"pos"`
	POSGroup1 string `json:"pos_group1"`
	POSGroup2 string `json:"pos_group2"`
	POSGroup3 string `json:"pos_group3"`
	CType     string `json:"ctype"`
	CForm     string `json:"cform"`
	Orig      string `json:"orig"`
	Read      string `json:"read"`
	Pron      string `json:"pron"`
	Acc       int    `json:"acc"`
	MoraSize  int    `json:"mora_size"`
	ChainRule string `json:"chain_rule"`
	ChainFlag int    `json:"chain_flag"`

	// BaseAcc and AccentRule keep the dictionary values so that
	// accent passes can be re-run on already processed nodes.
	BaseAcc    int    `json:"-"`
	AccentRule string `json:"-"`
}

// MergedPOS joins the POS hierarchy with sep, e.g. "名詞:一般:*:*".
func (n FeatureNode) MergedPOS(sep string) string {
	return strings.Join([]string{n.POS, n.POSGroup1, n.POSGroup2, n.POSGroup3}, sep)
}

// Is reports whether the node's POS starts with the given hierarchy,
// e.g. n.Is("名詞", "数").
func (n FeatureNode) Is(levels ...string) bool {
	fields := [4]string{n.POS, n.POSGroup1, n.POSGroup2, n.POSGroup3}
	if len(levels) > len(fields) {
		return false
	}
	for i, l := range levels {
		if fields[i] != l {
			return false
		}
	}
	return true
}

// IsPhraseHead reports whether the node opens an accent phrase.
func (n FeatureNode) IsPhraseHead() bool {
	return n.ChainFlag == ChainBoundary
}

// Clone returns a copy of the sequence so passes never alias their input.
func Clone(nodes []FeatureNode) []FeatureNode {
	if nodes == nil {
		return nil
	}
	out := make([]FeatureNode, len(nodes))
	copy(out, nodes)
	return out
}

// Surface concatenates the surface strings of the sequence.
func Surface(nodes []FeatureNode) string {
	var sb strings.Builder
	for _, n := range nodes {
		sb.WriteString(n.String)
	}
	return sb.String()
}

// Phrase is a half-open index range [Start, End) of one accent phrase.
type Phrase struct {
	Start int
	End   int
}

// Phrases splits the sequence into accent phrases using ChainFlag.
func Phrases(nodes []FeatureNode) []Phrase {
	var out []Phrase
	start := 0
	for i := 1; i <= len(nodes); i++ {
		if i == len(nodes) || nodes[i].IsPhraseHead() {
			if i > start {
				out = append(out, Phrase{Start: start, End: i})
			}
			start = i
		}
	}
	return out
}
