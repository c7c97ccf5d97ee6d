package analyze

import (
	"strings"

	"jtalkfront/ingest"
	"jtalkfront/kana"
	"jtalkfront/model"
)

// particlePron holds the particles read differently from their spelling.
var particlePron = map[string]string{"ハ": "ワ", "ヘ": "エ", "ヲ": "オ"}

var soundChange = strings.NewReplacer("ヂ", "ジ", "ヅ", "ズ", "ヰ", "イ", "ヱ", "エ")

// alphabetPron spells out Latin letters the dictionary does not know.
var alphabetPron = map[rune]string{
	'ａ': "エー", 'ｂ': "ビー", 'ｃ': "シー", 'ｄ': "ディー", 'ｅ': "イー", 'ｆ': "エフ",
	'ｇ': "ジー", 'ｈ': "エイチ", 'ｉ': "アイ", 'ｊ': "ジェー", 'ｋ': "ケー", 'ｌ': "エル",
	'ｍ': "エム", 'ｎ': "エヌ", 'ｏ': "オー", 'ｐ': "ピー", 'ｑ': "キュー", 'ｒ': "アール",
	'ｓ': "エス", 'ｔ': "ティー", 'ｕ': "ユー", 'ｖ': "ブイ", 'ｗ': "ダブリュー", 'ｘ': "エックス",
	'ｙ': "ワイ", 'ｚ': "ゼット",
}

// Pronunciation fills missing readings and applies the reading to
// pronunciation sound changes. Kana surfaces are read as written; Latin
// letters are spelled out. mora_size is recomputed from the result.
func Pronunciation(nodes []model.FeatureNode) []model.FeatureNode {
	for i := range nodes {
		n := &nodes[i]
		if n.Pron == "" {
			surface := ingest.Normalize(n.String)
			switch {
			case kana.AllKana(surface):
				n.Pron = kana.ToKatakana(surface)
			case isAlphabet(surface):
				n.Pron = spell(surface)
			}
			if n.Read == "" {
				n.Read = n.Pron
			}
		}
		if n.Is("助詞") && n.Pron == n.Read {
			if p, ok := particlePron[n.Read]; ok {
				n.Pron = p
			}
		}
		n.Pron = soundChange.Replace(n.Pron)
		n.MoraSize = kana.Count(n.Pron)
	}
	return nodes
}

func isAlphabet(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range strings.ToLower(s) {
		if _, ok := alphabetPron[r]; !ok {
			return false
		}
	}
	return true
}

func spell(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		sb.WriteString(alphabetPron[r])
	}
	return sb.String()
}
