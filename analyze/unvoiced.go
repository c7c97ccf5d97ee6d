package analyze

import (
	"jtalkfront/kana"
	"jtalkfront/model"
)

// moraSlot is one mora of the sequence and the node it belongs to.
type moraSlot struct {
	node int
	mora kana.Mora
}

// UnvoicedVowel marks devoiced morae. An i or u mora after a voiceless
// consonant devoices when the next mora also starts with a voiceless
// consonant, and the final ス of です and ます devoices at the end of the
// sentence or before a symbol. The accent nucleus never devoices, and
// neither does a mora right after a devoiced one.
func UnvoicedVowel(nodes []model.FeatureNode) []model.FeatureNode {
	var seq []moraSlot
	starts := make([]int, len(nodes))
	for i, n := range nodes {
		starts[i] = len(seq)
		for _, m := range kana.Split(kana.StripDevoice(n.Pron)) {
			m.Devoiced = false
			seq = append(seq, moraSlot{node: i, mora: m})
		}
	}

	nucleus := map[int]bool{}
	for _, p := range model.Phrases(nodes) {
		if acc := nodes[p.Start].Acc; acc > 0 {
			nucleus[kanaIndex(seq, starts[p.Start], acc)] = true
		}
	}

	for k := range seq {
		m := seq[k].mora
		if nucleus[k] || !m.IsKana() || (k > 0 && seq[k-1].mora.Devoiced) {
			continue
		}
		n := nodes[seq[k].node]
		if n.Is("記号") {
			continue
		}
		v := m.Vowel("")
		if (v != "i" && v != "u") || !m.Voiceless() {
			continue
		}
		switch {
		case k+1 < len(seq) && seq[k+1].mora.IsKana() && seq[k+1].mora.Voiceless():
			seq[k].mora.Devoiced = true
		case m.Text == "ス" && isPoliteEnding(nodes, seq[k].node) && lastMora(seq, k):
			seq[k].mora.Devoiced = true
		}
	}

	for i := range nodes {
		var morae []kana.Mora
		for _, s := range seq {
			if s.node == i {
				morae = append(morae, s.mora)
			}
		}
		nodes[i].Pron = kana.Join(morae)
	}
	return nodes
}

// kanaIndex returns the index in seq of the acc-th pronounceable mora
// counted from start.
func kanaIndex(seq []moraSlot, start, acc int) int {
	count := 0
	for k := start; k < len(seq); k++ {
		if seq[k].mora.IsKana() {
			count++
			if count == acc {
				return k
			}
		}
	}
	return -1
}

func isPoliteEnding(nodes []model.FeatureNode, i int) bool {
	n := nodes[i]
	if !n.Is("助動詞") || (n.Orig != "です" && n.Orig != "ます") {
		return false
	}
	return i+1 == len(nodes) || nodes[i+1].Is("記号")
}

// lastMora reports whether k is the last mora of its node.
func lastMora(seq []moraSlot, k int) bool {
	return k+1 == len(seq) || seq[k+1].node != seq[k].node
}
