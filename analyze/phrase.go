package analyze

import "jtalkfront/model"

// AccentPhrase splits the sequence into accent phrases. A node attaches to
// the phrase of the node before it when it is a particle, an auxiliary, a
// suffix, a non-independent word, a noun after a noun, anything after a
// prefix, or する after a サ変 noun. Symbols stand alone. An attached node
// keeps chain_flag 1 once ChainRules has set it.
func AccentPhrase(nodes []model.FeatureNode) []model.FeatureNode {
	for i := range nodes {
		switch {
		case i == 0 || !attaches(nodes[i-1], nodes[i]):
			nodes[i].ChainFlag = model.ChainBoundary
		case nodes[i].ChainFlag != model.ChainRule:
			nodes[i].ChainFlag = model.ChainAttach
		}
	}
	return nodes
}

func attaches(prev, cur model.FeatureNode) bool {
	if prev.Is("記号") || cur.Is("記号") {
		return false
	}
	switch {
	case cur.Is("助詞"), cur.Is("助動詞"):
		return true
	case cur.POSGroup1 == "接尾", cur.POSGroup1 == "非自立":
		return true
	case prev.Is("接頭詞"):
		return true
	case prev.Is("名詞") && cur.Is("名詞"):
		return true
	case prev.Is("名詞", "サ変接続") && cur.Is("動詞") && cur.CType == "サ変・スル":
		return true
	}
	return false
}
