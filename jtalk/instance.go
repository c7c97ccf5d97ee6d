// Package jtalk ties the lexicon, tokenizer, rule pipeline, accent
// estimator and renderer into the text frontend.
package jtalk

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"jtalkfront/analyze"
	"jtalkfront/dictionary"
	"jtalkfront/estimator"
	"jtalkfront/ingest"
	"jtalkfront/model"
	"jtalkfront/render"
	"jtalkfront/tokenize"
)

// G2POptions selects the G2P output form.
type G2POptions struct {
	Kana    bool `json:"kana"`
	Join    bool `json:"join"`
	Prosody bool `json:"prosody"`
	// Marine replaces rule-based accents with the estimator's when one is
	// configured.
	Marine bool `json:"marine"`
}

// Instance is a loaded lexicon plus pipeline configuration. It is never
// mutated after New, so calls may run concurrently.
type Instance struct {
	lex       dictionary.Lexicon
	tokenizer *tokenize.Tokenizer
	pipeline  *analyze.Pipeline
	estimator estimator.Estimator
}

// Option configures an Instance.
type Option func(*Instance)

// WithEstimator sets the accent estimator used when runMarine is requested.
func WithEstimator(e estimator.Estimator) Option {
	return func(in *Instance) { in.estimator = e }
}

// WithPasses replaces the default rule passes.
func WithPasses(passes ...analyze.Pass) Option {
	return func(in *Instance) { in.pipeline = analyze.NewPipeline(passes...) }
}

// New returns an instance analyzing with lex.
func New(lex dictionary.Lexicon, opts ...Option) *Instance {
	in := &Instance{
		lex:       lex,
		tokenizer: tokenize.New(lex),
		pipeline:  analyze.NewPipeline(),
	}
	for _, o := range opts {
		o(in)
	}
	return in
}

// FromDir loads the dictionary in dictDir, overlaid with userDic when it is
// not empty.
func FromDir(dictDir, userDic string, opts ...Option) (*Instance, error) {
	if userDic != "" {
		if _, err := os.Stat(userDic); err != nil {
			return nil, err
		}
	}
	lex, err := dictionary.Load(dictDir, userDic)
	if err != nil {
		return nil, err
	}
	return New(lex, opts...), nil
}

// Lexicon returns the lexicon the instance analyzes with.
func (in *Instance) Lexicon() dictionary.Lexicon {
	return in.lex
}

// Analyze tokenizes text and returns one node per morpheme with the
// dictionary values, before any rule pass. Surfaces are taken from text as
// given; lookup happens on its widened form.
func (in *Instance) Analyze(text string) ([]model.FeatureNode, error) {
	if text == "" {
		return nil, nil
	}
	path, err := in.tokenizer.Tokenize(ingest.Normalize(text))
	if err != nil {
		return nil, &analyze.InternalError{Pass: "tokenize", Msg: err.Error()}
	}
	return analyze.FromPath(text, path), nil
}

// RunFrontend analyzes text and runs the rule pipeline. With runMarine the
// accent estimator overrides acc and chain_flag; when it is unavailable the
// rule-based values are kept.
func (in *Instance) RunFrontend(ctx context.Context, text string, runMarine bool) ([]model.FeatureNode, error) {
	nodes, err := in.Analyze(text)
	if err != nil || len(nodes) == 0 {
		return nodes, err
	}
	nodes, err = in.pipeline.Run(nodes)
	if err != nil {
		return nil, err
	}
	if !runMarine {
		return nodes, nil
	}

	est, err := estimator.Estimate(ctx, in.estimator, nodes)
	switch {
	case errors.Is(err, estimator.ErrEstimatorUnavailable):
		log.Warn().Err(err).Msg("falling back to rule-based accent")
		return nodes, nil
	case err != nil:
		return nil, fmt.Errorf("estimate accent: %w", err)
	}
	return est, nil
}

// G2P converts text to phonemes or katakana.
func (in *Instance) G2P(ctx context.Context, text string, opts G2POptions) (render.Result, error) {
	nodes, err := in.RunFrontend(ctx, text, opts.Marine)
	if err != nil {
		return render.Result{}, err
	}
	return render.Render(nodes, render.Options{Kana: opts.Kana, Join: opts.Join, Prosody: opts.Prosody}), nil
}
