package jtalk

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"jtalkfront/ingest"
	"jtalkfront/model"
)

// Frontend is the analysis result of one sentence.
type Frontend struct {
	Sentence ingest.Sentence     `json:"sentence"`
	Nodes    []model.FeatureNode `json:"nodes"`
}

// Batch runs the frontend on every text with at most workers goroutines
// and returns the results in input order. workers <= 0 uses GOMAXPROCS.
func (in *Instance) Batch(ctx context.Context, texts []string, workers int, runMarine bool) ([][]model.FeatureNode, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	out := make([][]model.FeatureNode, len(texts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, text := range texts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			nodes, err := in.RunFrontend(ctx, text, runMarine)
			if err != nil {
				return err
			}
			out[i] = nodes
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Stream analyzes sentences as they arrive. The output channel closes when
// sentences is drained, ctx is done or analysis fails; the error channel
// carries at most one error.
func (in *Instance) Stream(ctx context.Context, sentences <-chan ingest.Sentence, runMarine bool) (<-chan Frontend, <-chan error) {
	out := make(chan Frontend, 8)
	errs := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errs)
		for {
			var s ingest.Sentence
			var ok bool
			select {
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			case s, ok = <-sentences:
				if !ok {
					return
				}
			}
			nodes, err := in.RunFrontend(ctx, s.Text, runMarine)
			if err != nil {
				errs <- err
				return
			}
			select {
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			case out <- Frontend{Sentence: s, Nodes: nodes}:
			}
		}
	}()
	return out, errs
}
