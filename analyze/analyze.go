// Package analyze turns a tokenizer path into feature nodes and runs the
// rule passes that assign pronunciation, accent phrases and accents.
package analyze

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"jtalkfront/kana"
	"jtalkfront/model"
	"jtalkfront/tokenize"
)

// InternalError is a broken pipeline invariant. Passes panic with it and
// Pipeline.Run turns the panic into an error.
type InternalError struct {
	Pass string
	Msg  string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error in %s: %s", e.Pass, e.Msg)
}

func internalf(pass, format string, args ...any) {
	panic(&InternalError{Pass: pass, Msg: fmt.Sprintf(format, args...)})
}

// Pass is one transformation of the node sequence. Fn receives a private
// copy and must return a sequence of the same length.
type Pass struct {
	Name string
	Fn   func([]model.FeatureNode) []model.FeatureNode
}

// Passes in pipeline order. Passes that change readings run before
// accent computation, which counts morae; devoicing runs after it
// because it must not touch the accent nucleus.
var (
	PronunciationPass = Pass{Name: "pronunciation", Fn: Pronunciation}
	DigitPass         = Pass{Name: "digit", Fn: Digit}
	AccentPhrasePass  = Pass{Name: "accent_phrase", Fn: AccentPhrase}
	AccentTypePass    = Pass{Name: "accent_type", Fn: AccentType}
	UnvoicedVowelPass = Pass{Name: "unvoiced_vowel", Fn: UnvoicedVowel}
	LongVowelPass     = Pass{Name: "long_vowel", Fn: LongVowel}
	ChainRulePass     = Pass{Name: "chain_rule", Fn: ChainRules}
)

// DefaultPasses is the full frontend pipeline.
var DefaultPasses = []Pass{
	PronunciationPass,
	DigitPass,
	AccentPhrasePass,
	AccentTypePass,
	UnvoicedVowelPass,
	LongVowelPass,
	ChainRulePass,
}

// Pipeline runs passes in order.
type Pipeline struct {
	passes []Pass
}

// NewPipeline returns a pipeline of the given passes, DefaultPasses when
// none are given.
func NewPipeline(passes ...Pass) *Pipeline {
	if len(passes) == 0 {
		passes = DefaultPasses
	}
	return &Pipeline{passes: passes}
}

// Run applies every pass to a copy of nodes. An InternalError raised by a
// pass is returned as the error; any other panic propagates.
func (p *Pipeline) Run(nodes []model.FeatureNode) (out []model.FeatureNode, err error) {
	defer func() {
		if r := recover(); r != nil {
			ie, ok := r.(*InternalError)
			if !ok {
				panic(r)
			}
			log.Error().Str("pass", ie.Pass).Msg(ie.Msg)
			out, err = nil, ie
		}
	}()
	out = model.Clone(nodes)
	for _, pass := range p.passes {
		n := len(out)
		out = pass.Fn(model.Clone(out))
		if len(out) != n {
			internalf(pass.Name, "sequence length changed from %d to %d", n, len(out))
		}
	}
	return out, nil
}

// FromPath converts a best path into feature nodes. text is the input the
// caller wants surfaces taken from; it must have the same rune count as the
// tokenized text (normalization is rune for rune).
func FromPath(text string, path []tokenize.Node) []model.FeatureNode {
	offsets := make([]int, 0, len(text)+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(text))

	nodes := make([]model.FeatureNode, len(path))
	for i, p := range path {
		surface := p.Surface
		if p.End < len(offsets) {
			surface = text[offsets[p.Start]:offsets[p.End]]
		}
		e := p.Entry
		orig := e.Orig
		if !kana.Defined(orig) {
			orig = surface
		}
		mora := e.Mora
		if mora == 0 {
			mora = kana.Count(e.Pron)
		}
		nodes[i] = model.FeatureNode{
			String:     surface,
			POS:        e.POS,
			POSGroup1:  e.POS1,
			POSGroup2:  e.POS2,
			POSGroup3:  e.POS3,
			CType:      e.CType,
			CForm:      e.CForm,
			Orig:       orig,
			Read:       e.Read,
			Pron:       e.Pron,
			Acc:        e.Acc,
			MoraSize:   mora,
			ChainRule:  model.NoRule,
			ChainFlag:  model.ChainBoundary,
			BaseAcc:    e.Acc,
			AccentRule: e.Rule,
		}
	}
	return nodes
}

// phraseMora is the mora count of nodes[p.Start:p.End].
func phraseMora(nodes []model.FeatureNode, p model.Phrase, pass string) int {
	if p.Start < 0 || p.End > len(nodes) || p.Start >= p.End {
		internalf(pass, "phrase [%d,%d) out of range for %d nodes", p.Start, p.End, len(nodes))
	}
	total := 0
	for _, n := range nodes[p.Start:p.End] {
		total += n.MoraSize
	}
	return total
}
