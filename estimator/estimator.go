// Package estimator lets a statistical accent model override the
// rule-based accent and phrase boundaries.
package estimator

import (
	"context"
	"errors"
	"fmt"

	"jtalkfront/analyze"
	"jtalkfront/model"
)

// ErrEstimatorUnavailable means no statistical model is configured or it
// cannot be reached. Callers fall back to the rule-based values.
var ErrEstimatorUnavailable = errors.New("accent estimator unavailable")

// Feature is the interchange record sent to an estimator for each node.
type Feature struct {
	Surface   string `json:"surface"`
	POS       string `json:"pos"`
	Read      string `json:"read"`
	Pron      string `json:"pron"`
	CType     string `json:"ctype"`
	CForm     string `json:"cform"`
	Acc       int    `json:"acc"`
	MoraSize  int    `json:"mora_size"`
	ChainFlag int    `json:"chain_flag"`
}

// Prediction is the estimated accent and boundary flag of one node.
type Prediction struct {
	Acc       int `json:"acc"`
	ChainFlag int `json:"chain_flag"`
}

// Estimator predicts accents for a node sequence. Implementations return
// exactly one prediction per feature.
type Estimator interface {
	Predict(ctx context.Context, features []Feature) ([]Prediction, error)
}

// Features converts nodes to the interchange format.
func Features(nodes []model.FeatureNode) []Feature {
	out := make([]Feature, len(nodes))
	for i, n := range nodes {
		out[i] = Feature{
			Surface:   n.String,
			POS:       n.MergedPOS(":"),
			Read:      n.Read,
			Pron:      n.Pron,
			CType:     n.CType,
			CForm:     n.CForm,
			Acc:       n.Acc,
			MoraSize:  n.MoraSize,
			ChainFlag: n.ChainFlag,
		}
	}
	return out
}

// RuleBased echoes the values the rule passes computed. It is always
// available.
type RuleBased struct{}

// Predict implements Estimator.
func (RuleBased) Predict(ctx context.Context, features []Feature) ([]Prediction, error) {
	out := make([]Prediction, len(features))
	for i, f := range features {
		out[i] = Prediction{Acc: f.Acc, ChainFlag: f.ChainFlag}
	}
	return out, nil
}

// Apply overwrites acc and chain_flag of a copy of nodes with preds. Any
// other field is left alone. A count mismatch is an internal error.
func Apply(nodes []model.FeatureNode, preds []Prediction) ([]model.FeatureNode, error) {
	if len(nodes) != len(preds) {
		return nil, &analyze.InternalError{
			Pass: "estimator",
			Msg:  fmt.Sprintf("%d predictions for %d nodes", len(preds), len(nodes)),
		}
	}
	out := model.Clone(nodes)
	for i, p := range preds {
		out[i].Acc = p.Acc
		out[i].ChainFlag = p.ChainFlag
	}
	return out, nil
}

// Estimate runs est on nodes and applies the predictions.
func Estimate(ctx context.Context, est Estimator, nodes []model.FeatureNode) ([]model.FeatureNode, error) {
	if est == nil {
		return nil, ErrEstimatorUnavailable
	}
	preds, err := est.Predict(ctx, Features(nodes))
	if err != nil {
		return nil, err
	}
	return Apply(nodes, preds)
}
