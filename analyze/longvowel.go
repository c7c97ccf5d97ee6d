package analyze

import (
	"jtalkfront/ingest"
	"jtalkfront/kana"
	"jtalkfront/model"
)

// longAfter lists, per bare vowel kana, the vowels of the preceding mora it
// lengthens.
var longAfter = map[string]map[string]bool{
	"ア": {"a": true},
	"イ": {"i": true, "e": true},
	"ウ": {"u": true, "o": true},
	"エ": {"e": true},
	"オ": {"o": true},
}

// LongVowel realizes vowel sequences inside a node as long vowels
// (トウキョウ → トーキョー). Verbs, adjectives, particles and auxiliaries keep
// their spelling because their vowels belong to different morphemes, and
// so do spelled-out Latin letters (エイチイー).
func LongVowel(nodes []model.FeatureNode) []model.FeatureNode {
	for i := range nodes {
		n := &nodes[i]
		if n.Is("動詞") || n.Is("形容詞") || n.Is("助詞") || n.Is("助動詞") || n.Is("記号") {
			continue
		}
		if isAlphabet(ingest.Normalize(n.String)) {
			continue
		}
		n.Pron = lengthen(n.Pron)
	}
	return nodes
}

// lengthen replaces a bare vowel kana with ー when the mora before it ends
// in a matching vowel.
func lengthen(pron string) string {
	morae := kana.Split(pron)
	prev := ""
	for k, m := range morae {
		if k > 0 && !m.Devoiced {
			if after, ok := longAfter[m.Text]; ok && after[prev] {
				morae[k].Text = string(kana.LongVowel)
				continue
			}
		}
		v := m.Vowel(prev)
		switch {
		case v != "":
			prev = v
		case m.IsKana():
			prev = ""
		}
	}
	return kana.Join(morae)
}
