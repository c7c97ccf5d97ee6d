package analyze

import (
	"strconv"
	"strings"

	"jtalkfront/model"
)

// rule is a parsed accent combination rule such as "C1", "F2@1" or "P2".
type rule struct {
	kind   byte // 'F', 'C' or 'P'
	num    int
	offset int
	label  string
}

// parseRule parses one rule label. ok is false for "*" and malformed input.
func parseRule(s string) (rule, bool) {
	if len(s) < 2 {
		return rule{}, false
	}
	r := rule{kind: s[0], label: s}
	switch r.kind {
	case 'F', 'C', 'P':
	default:
		return rule{}, false
	}
	body, off, hasOff := strings.Cut(s[1:], "@")
	n, err := strconv.Atoi(body)
	if err != nil {
		return rule{}, false
	}
	r.num = n
	if hasOff {
		if r.offset, err = strconv.Atoi(off); err != nil {
			return rule{}, false
		}
	}
	return r, true
}

// chains reports whether the rule joins two accent units into one
// (compound and prefix rules) rather than attaching a dependent word.
func (r rule) chains() bool {
	return r.kind == 'C' || r.kind == 'P'
}

// selectRule picks the entry of a rule list like "動詞%F2@0/形容詞%F1/F3"
// that applies after prev. Conditions match POS prefixes; an entry
// without a condition always applies.
func selectRule(list string, prev model.FeatureNode) (rule, bool) {
	for _, item := range strings.Split(list, "/") {
		cond, label, hasCond := strings.Cut(item, "%")
		if !hasCond {
			label = cond
		} else if !prev.Is(strings.Split(cond, ",")...) {
			continue
		}
		if r, ok := parseRule(label); ok {
			return r, true
		}
	}
	return rule{}, false
}

// effectiveRule is the combination rule used to attach nodes[j] to the
// phrase before it: the prefix rule of a preceding 接頭詞, the node's own
// dictionary rule, or a POS default.
func effectiveRule(nodes []model.FeatureNode, j int) rule {
	if j <= 0 || j >= len(nodes) {
		internalf("accent_type", "no predecessor for node %d of %d", j, len(nodes))
	}
	prev, cur := nodes[j-1], nodes[j]
	if prev.Is("接頭詞") {
		if r, ok := parseRule(prev.AccentRule); ok && r.kind == 'P' {
			return r
		}
	}
	if r, ok := selectRule(cur.AccentRule, prev); ok {
		return r
	}
	switch {
	case prev.Is("名詞") && cur.Is("名詞") && !cur.Is("名詞", "接尾") && !cur.Is("名詞", "非自立"):
		if cur.MoraSize >= 3 && cur.BaseAcc != 0 {
			return rule{kind: 'C', num: 1, label: "C1"}
		}
		return rule{kind: 'C', num: 2, label: "C2"}
	case prev.Is("接頭詞"):
		return rule{kind: 'P', num: 1, label: "P1"}
	}
	return rule{kind: 'F', num: 1, label: "F1"}
}

// combine applies r to the phrase nucleus acc given the mora count of the
// phrase before the node and the node itself.
func (r rule) combine(acc, before int, cur model.FeatureNode) int {
	switch r.kind {
	case 'F':
		switch r.num {
		case 1:
			return acc
		case 2:
			if acc == 0 {
				return before + r.offset
			}
			return acc
		case 3:
			if acc != 0 {
				return before + r.offset
			}
			return acc
		case 4:
			return before + r.offset
		case 5:
			return 0
		}
	case 'C':
		switch r.num {
		case 1:
			if cur.BaseAcc != 0 {
				return before + cur.BaseAcc
			}
			return before + 1
		case 2:
			return before + 1
		case 3:
			return before
		case 4:
			return 0
		case 5:
			return acc
		}
	case 'P':
		switch r.num {
		case 1:
			if cur.BaseAcc == 0 {
				return 0
			}
			return before + cur.BaseAcc
		case 2:
			if cur.BaseAcc == 0 {
				return before + 1
			}
			return before + cur.BaseAcc
		case 6:
			return 0
		case 13:
			return before + 1
		case 14:
			return before + cur.BaseAcc
		}
	}
	return acc
}

// AccentType computes the accent nucleus of every accent phrase from the
// lexical accents of its nodes and the combination rules, and stores it in
// the phrase-initial node. The nucleus is clamped to the phrase mora count.
// Other nodes carry their lexical accent.
func AccentType(nodes []model.FeatureNode) []model.FeatureNode {
	for _, p := range model.Phrases(nodes) {
		total := phraseMora(nodes, p, "accent_type")
		acc := nodes[p.Start].BaseAcc
		before := nodes[p.Start].MoraSize
		for j := p.Start + 1; j < p.End; j++ {
			acc = effectiveRule(nodes, j).combine(acc, before, nodes[j])
			before += nodes[j].MoraSize
			nodes[j].Acc = nodes[j].BaseAcc
		}
		if acc < 0 {
			acc = 0
		}
		if acc > total {
			acc = total
		}
		nodes[p.Start].Acc = acc
	}
	return nodes
}

// ChainRules labels every node with the rule attaching it to its phrase.
// Nodes joined by a compound or prefix rule get chain_flag 1.
func ChainRules(nodes []model.FeatureNode) []model.FeatureNode {
	for i := range nodes {
		if i == 0 || nodes[i].ChainFlag == model.ChainBoundary {
			nodes[i].ChainFlag = model.ChainBoundary
			nodes[i].ChainRule = model.NoRule
			continue
		}
		r := effectiveRule(nodes, i)
		nodes[i].ChainRule = r.label
		if r.chains() {
			nodes[i].ChainFlag = model.ChainRule
		} else {
			nodes[i].ChainFlag = model.ChainAttach
		}
	}
	return nodes
}
