package analyze

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jtalkfront/dictionary"
	"jtalkfront/ingest"
	"jtalkfront/kana"
	"jtalkfront/model"
	"jtalkfront/tokenize"
)

func fixtureNodes(t *testing.T, text string) []model.FeatureNode {
	t.Helper()
	d, err := dictionary.BuildSource("../testdata/jtalkdic", t.TempDir())
	require.NoError(t, err)
	path, err := tokenize.New(d).Tokenize(ingest.Normalize(text))
	require.NoError(t, err)
	return FromPath(text, path)
}

func node(surface, pos, pos1, pron string, acc int) model.FeatureNode {
	return model.FeatureNode{
		String: surface, POS: pos, POSGroup1: pos1, POSGroup2: "*", POSGroup3: "*",
		CType: "*", CForm: "*", Orig: surface, Read: pron, Pron: pron,
		Acc: acc, BaseAcc: acc, ChainFlag: model.ChainBoundary, ChainRule: model.NoRule,
		AccentRule: "*",
	}
}

func prons(nodes []model.FeatureNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Pron
	}
	return out
}

func flags(nodes []model.FeatureNode) []int {
	out := make([]int, len(nodes))
	for i, n := range nodes {
		out[i] = n.ChainFlag
	}
	return out
}

func TestFromPath(t *testing.T) {
	nodes := fixtureNodes(t, "こんにちは")
	require.Len(t, nodes, 1)
	n := nodes[0]
	assert.Equal(t, "こんにちは", n.String)
	assert.Equal(t, "感動詞", n.POS)
	assert.Equal(t, "コンニチハ", n.Read)
	assert.Equal(t, "コンニチワ", n.Pron)
	assert.Equal(t, 5, n.MoraSize)
	assert.Equal(t, model.NoRule, n.ChainRule)
	assert.Equal(t, model.ChainBoundary, n.ChainFlag)

	// Surfaces come from the caller's text, not the normalized form.
	nodes = fixtureNodes(t, "3本")
	require.Len(t, nodes, 2)
	assert.Equal(t, "3", nodes[0].String)
	assert.Equal(t, "3", nodes[0].Orig)
	assert.Equal(t, "本", nodes[1].String)
}

func TestPipelineSentence(t *testing.T) {
	out, err := NewPipeline().Run(fixtureNodes(t, "私は学生です。"))
	require.NoError(t, err)
	require.Len(t, out, 5)

	assert.Equal(t, []string{"ワタシ", "ワ", "ガク’セー", "デス’", "。"}, prons(out))
	assert.Equal(t, []int{-1, 0, -1, 0, -1}, flags(out))
	assert.Equal(t, 0, out[0].Acc)
	assert.Equal(t, 5, out[2].Acc, "flat noun + です puts the nucleus on デ")
	assert.Equal(t, 1, out[3].Acc, "non-initial nodes keep their lexical accent")
	assert.Equal(t, "F1", out[1].ChainRule)
	assert.Equal(t, "F2@1", out[3].ChainRule)
	assert.Equal(t, model.NoRule, out[2].ChainRule)
	assert.Equal(t, []int{3, 1, 4, 2, 0}, []int{out[0].MoraSize, out[1].MoraSize, out[2].MoraSize, out[3].MoraSize, out[4].MoraSize})
}

func TestPipelineVerb(t *testing.T) {
	out, err := NewPipeline().Run(fixtureNodes(t, "東京に行きます"))
	require.NoError(t, err)
	assert.Equal(t, []string{"トーキョー", "ニ", "イキ", "マス’"}, prons(out))
	assert.Equal(t, []int{-1, 0, -1, 0}, flags(out))
	assert.Equal(t, 3, out[2].Acc)
}

func TestPipelineCompound(t *testing.T) {
	out, err := NewPipeline().Run(fixtureNodes(t, "東京大学"))
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, []int{-1, 1}, flags(out))
	assert.Equal(t, "C1", out[1].ChainRule)
	assert.Equal(t, 5, out[0].Acc)
}

func TestPipelineSuru(t *testing.T) {
	out, err := NewPipeline().Run(fixtureNodes(t, "勉強します"))
	require.NoError(t, err)
	assert.Equal(t, []int{-1, 0, 0}, flags(out))
	assert.Equal(t, []string{"ベンキョー", "シ", "マス’"}, prons(out))
}

func TestPipelineIdempotent(t *testing.T) {
	p := NewPipeline()
	for _, text := range []string{"私は学生です。", "東京に行きます", "１２３匹", "ナナミンです", "北の本を３本", "こんにちは", "東京大学", "勉強します", "ｈｅｌｌｏ", "3.14"} {
		once, err := p.Run(fixtureNodes(t, text))
		require.NoError(t, err)
		twice, err := p.Run(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice, text)

		// every pass alone leaves finished output as it is
		for _, pass := range DefaultPasses {
			again, err := NewPipeline(pass).Run(once)
			require.NoError(t, err)
			assert.Equal(t, once, again, "%s on %s", pass.Name, text)
		}

		for _, pass := range DefaultPasses {
			first := pass.Fn(model.Clone(once))
			second := pass.Fn(model.Clone(first))
			assert.Equal(t, first, second, "%s on %s", pass.Name, text)
		}
	}
}

func TestAccentPhraseKeepsRuleChains(t *testing.T) {
	out, err := NewPipeline().Run(fixtureNodes(t, "東京大学"))
	require.NoError(t, err)
	require.Equal(t, []int{-1, 1}, flags(out))

	again := AccentPhrase(model.Clone(out))
	assert.Equal(t, []int{-1, 1}, flags(again))
	assert.Equal(t, "C1", again[1].ChainRule)

	// a node that no longer attaches still becomes a boundary
	split := model.Clone(out)
	split[0].POS = "記号"
	assert.Equal(t, []int{-1, -1}, flags(AccentPhrase(split)))
}

func TestPipelineDoesNotMutateInput(t *testing.T) {
	in := fixtureNodes(t, "私は学生です。")
	before := model.Clone(in)
	_, err := NewPipeline().Run(in)
	require.NoError(t, err)
	assert.Equal(t, before, in)
}

func TestPipelineInternalError(t *testing.T) {
	drop := Pass{Name: "drop", Fn: func(n []model.FeatureNode) []model.FeatureNode { return n[1:] }}
	_, err := NewPipeline(drop).Run([]model.FeatureNode{node("a", "名詞", "一般", "ア", 0), node("b", "名詞", "一般", "ビ", 0)})
	var ie *InternalError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "drop", ie.Pass)

	boom := Pass{Name: "boom", Fn: func(n []model.FeatureNode) []model.FeatureNode { panic("boom") }}
	assert.Panics(t, func() { _, _ = NewPipeline(boom).Run(nil) })
}

func TestPipelineEmpty(t *testing.T) {
	out, err := NewPipeline().Run(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestPronunciation(t *testing.T) {
	nodes := []model.FeatureNode{
		node("な", "名詞", "一般", "", 0),
		node("は", "助詞", "係助詞", "ハ", 0),
		node("ｎｎｍｎ", "名詞", "固有名詞", "", 0),
		node("鼻血", "名詞", "一般", "ハナヂ", 0),
		node("？", "記号", "一般", "", 0),
	}
	out := Pronunciation(nodes)
	assert.Equal(t, []string{"ナ", "ワ", "エヌエヌエムエヌ", "ハナジ", ""}, prons(out))
	assert.Equal(t, "ハ", out[1].Read)
	assert.Equal(t, "ナ", out[0].Read)
	assert.Equal(t, 8, out[2].MoraSize)
	assert.Equal(t, 0, out[4].MoraSize)
}

func digitNodes(surfaces ...string) []model.FeatureNode {
	var nodes []model.FeatureNode
	for _, s := range surfaces {
		n := node(s, "名詞", "数", "", 0)
		switch s {
		case "本", "匹", "分", "回":
			n.POSGroup1 = "接尾"
		case "，", "．":
			n.POS, n.POSGroup1 = "記号", "一般"
		}
		nodes = append(nodes, n)
	}
	return nodes
}

func reads(nodes []model.FeatureNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Read
	}
	return out
}

func TestDigit(t *testing.T) {
	cases := []struct {
		in   []string
		want []string
	}{
		{[]string{"１２３"}, []string{"ヒャクニジュウサン"}},
		{[]string{"0"}, []string{"ゼロ"}},
		{[]string{"２０００"}, []string{"ニセン"}},
		{[]string{"１００００"}, []string{"イチマン"}},
		{[]string{"１０００００"}, []string{"ジュウマン"}},
		{[]string{"１２３４５６７８"}, []string{"センニヒャクサンジュウヨンマンゴセンロッピャクナナジュウハチ"}},
		{[]string{"３００"}, []string{"サンビャク"}},
		{[]string{"８０００"}, []string{"ハッセン"}},
		{[]string{"１" + strings.Repeat("０", 12)}, []string{"イッチョウ"}},
		{[]string{"０９０"}, []string{"ゼロキュウゼロ"}},
		{[]string{"３", "．", "１４"}, []string{"サン", "テン", "イチヨン"}},
		{[]string{"１", "，", "０００"}, []string{"セン", "", ""}},
		{[]string{"1", "2"}, []string{"ジュウ", "ニ"}},
		{[]string{"３", "本"}, []string{"サン", "ボン"}},
		{[]string{"１", "本"}, []string{"イッ", "ポン"}},
		{[]string{"１０", "本"}, []string{"ジュッ", "ポン"}},
		{[]string{"６", "匹"}, []string{"ロッ", "ピキ"}},
		{[]string{"４", "分"}, []string{"ヨン", "プン"}},
		{[]string{"２", "本"}, []string{"ニ", "ホン"}},
		{[]string{"１００", "回"}, []string{"ヒャッ", "カイ"}},
	}
	for _, c := range cases {
		out := Digit(digitNodes(c.in...))
		assert.Equal(t, c.want, reads(out), "%v", c.in)
	}

	out := Digit(digitNodes("１０", "本"))
	assert.Equal(t, "ジュッ", out[0].Pron)
	assert.Equal(t, 2, out[0].MoraSize)

	out = Digit(digitNodes("９"))
	assert.Equal(t, "キュウ", out[0].Read)
	assert.Equal(t, "キュー", out[0].Pron)
}

func TestDigitLeavesOtherNodes(t *testing.T) {
	nodes := []model.FeatureNode{node("本", "名詞", "一般", "ホン", 1), node("３Ｄ", "名詞", "一般", "スリーディー", 0)}
	out := Digit(model.Clone(nodes))
	assert.Equal(t, nodes, out)
}

func TestAccentPhrase(t *testing.T) {
	prefix := node("お", "接頭詞", "名詞接続", "オ", 0)
	suru := node("し", "動詞", "自立", "シ", 0)
	suru.CType = "サ変・スル"
	nodes := []model.FeatureNode{
		node("勉強", "名詞", "サ変接続", "ベンキョー", 0),
		suru,
		node("ます", "助動詞", "*", "マス", 1),
		node("、", "記号", "読点", "、", 0),
		prefix,
		node("茶", "名詞", "一般", "チャ", 0),
		node("を", "助詞", "格助詞", "オ", 0),
		node("飲み", "動詞", "自立", "ノミ", 1),
		node("。", "記号", "句点", "。", 0),
		node("は", "助詞", "係助詞", "ワ", 0),
	}
	out := AccentPhrase(nodes)
	assert.Equal(t, []int{-1, 0, 0, -1, -1, 0, 0, -1, -1, -1}, flags(out))
	assert.Len(t, model.Phrases(out), 6)
}

func TestParseRule(t *testing.T) {
	r, ok := parseRule("F2@1")
	require.True(t, ok)
	assert.Equal(t, byte('F'), r.kind)
	assert.Equal(t, 2, r.num)
	assert.Equal(t, 1, r.offset)
	assert.False(t, r.chains())

	r, ok = parseRule("C3")
	require.True(t, ok)
	assert.True(t, r.chains())

	for _, s := range []string{"*", "", "X1", "F", "Fx", "F1@y"} {
		_, ok := parseRule(s)
		assert.False(t, ok, s)
	}

	verb := node("行き", "動詞", "自立", "イキ", 0)
	noun := node("本", "名詞", "一般", "ホン", 1)
	r, ok = selectRule("動詞%F2@0/形容詞%F1", verb)
	require.True(t, ok)
	assert.Equal(t, "F2@0", r.label)
	_, ok = selectRule("動詞%F2@0/形容詞%F1", noun)
	assert.False(t, ok)
	r, ok = selectRule("動詞%F2@0/C3", noun)
	require.True(t, ok)
	assert.Equal(t, "C3", r.label)
	r, ok = selectRule("名詞,一般%F5", noun)
	require.True(t, ok)
	assert.Equal(t, "F5", r.label)
}

func TestAccentType(t *testing.T) {
	phrase := func(nodes ...model.FeatureNode) []model.FeatureNode {
		for i := range nodes {
			nodes[i].MoraSize = kana.Count(nodes[i].Pron)
			if i > 0 {
				nodes[i].ChainFlag = model.ChainAttach
			}
		}
		return AccentType(nodes)
	}

	// F1 keeps the accent of the head.
	out := phrase(node("箸", "名詞", "一般", "ハシ", 1), node("が", "助詞", "格助詞", "ガ", 0))
	assert.Equal(t, 1, out[0].Acc)

	// F4@1 always moves the nucleus.
	masu := node("ます", "助動詞", "*", "マス", 1)
	masu.AccentRule = "動詞%F4@1"
	out = phrase(node("書き", "動詞", "自立", "カキ", 1), masu)
	assert.Equal(t, 3, out[0].Acc)

	// F5 flattens.
	flat := node("ね", "助詞", "終助詞", "ネ", 0)
	flat.AccentRule = "F5"
	out = phrase(node("箸", "名詞", "一般", "ハシ", 1), flat)
	assert.Equal(t, 0, out[0].Acc)

	// Default noun compounds: C1 for an accented long rear element, else C2.
	out = phrase(node("東京", "名詞", "固有名詞", "トーキョー", 0), node("湾岸線", "名詞", "一般", "ワンガンセン", 3))
	assert.Equal(t, 7, out[0].Acc)
	out = phrase(node("東京", "名詞", "固有名詞", "トーキョー", 0), node("駅", "名詞", "一般", "エキ", 1))
	assert.Equal(t, 5, out[0].Acc)

	// Prefix rules come from the prefix node.
	o := node("お", "接頭詞", "名詞接続", "オ", 0)
	o.AccentRule = "P2"
	out = phrase(o, node("茶", "名詞", "一般", "チャ", 0))
	assert.Equal(t, 2, out[0].Acc)

	// The nucleus never passes the end of the phrase.
	far := node("ね", "助詞", "終助詞", "ネ", 0)
	far.AccentRule = "F4@9"
	out = phrase(node("箸", "名詞", "一般", "ハシ", 1), far)
	assert.Equal(t, 3, out[0].Acc)
}

func TestChainRules(t *testing.T) {
	nodes := []model.FeatureNode{
		node("東京", "名詞", "固有名詞", "トーキョー", 0),
		node("駅", "名詞", "一般", "エキ", 1),
		node("へ", "助詞", "格助詞", "エ", 0),
		node("。", "記号", "句点", "。", 0),
	}
	out := ChainRules(AccentPhrase(nodes))
	assert.Equal(t, []int{-1, 1, 0, -1}, flags(out))
	assert.Equal(t, []string{"-1", "C2", "F1", "-1"}, []string{out[0].ChainRule, out[1].ChainRule, out[2].ChainRule, out[3].ChainRule})
}

func TestUnvoicedVowel(t *testing.T) {
	kita := node("北", "名詞", "一般", "キタ", 0)
	kita.MoraSize = 2
	out := UnvoicedVowel([]model.FeatureNode{kita})
	assert.Equal(t, "キ’タ", out[0].Pron)

	// Never the nucleus.
	kita.Acc = 1
	out = UnvoicedVowel([]model.FeatureNode{kita})
	assert.Equal(t, "キタ", out[0].Pron)

	// Never two in a row.
	kikuchi := node("菊池", "名詞", "固有名詞", "キクチ", 0)
	kikuchi.MoraSize = 3
	out = UnvoicedVowel([]model.FeatureNode{kikuchi})
	assert.Equal(t, "キ’クチ", out[0].Pron)

	// Across node boundaries, and the polite ending before a symbol.
	desu := node("です", "助動詞", "*", "デス", 1)
	desu.ChainFlag = model.ChainAttach
	desu.MoraSize = 2
	nodes := []model.FeatureNode{
		{String: "ナナミン", POS: "名詞", Pron: "ナナミン", MoraSize: 4, ChainFlag: model.ChainBoundary},
		desu,
		node("。", "記号", "句点", "。", 0),
	}
	out = UnvoicedVowel(nodes)
	assert.Equal(t, []string{"ナナミン", "デス’", "。"}, prons(out))

	// The mark does not stack on re-runs.
	again := UnvoicedVowel(model.Clone(out))
	assert.Equal(t, out, again)

	// Neither the nucleus nor a mora before a voiced consonant.
	plain := node("靴", "名詞", "一般", "クツ", 1)
	plain.MoraSize = 2
	out = UnvoicedVowel([]model.FeatureNode{plain, node("が", "助詞", "格助詞", "ガ", 0)})
	assert.Equal(t, "クツ", out[0].Pron)
}

func TestLongVowel(t *testing.T) {
	nodes := []model.FeatureNode{
		node("いやあん", "感動詞", "*", "イヤアン", 0),
		node("東京", "名詞", "固有名詞", "トウキョウ", 0),
		node("思う", "動詞", "自立", "オモウ", 2),
		node("ええ", "感動詞", "*", "エエ", 1),
		node("映画", "名詞", "一般", "エイガ", 0),
		node("を", "助詞", "格助詞", "オ", 0),
		node("多い", "形容詞", "自立", "オオイ", 2),
		node("菊", "名詞", "一般", "キ’ク", 0),
	}
	out := LongVowel(nodes)
	assert.Equal(t, []string{"イヤーン", "トーキョー", "オモウ", "エー", "エーガ", "オ", "オオイ", "キ’ク"}, prons(out))
}

func TestLongVowelSkipsSpelledLetters(t *testing.T) {
	nodes := []model.FeatureNode{
		node("ｈｅｌｌｏ", "名詞", "固有名詞", "", 0),
		node("ＧＮＵ", "名詞", "一般", "", 0),
	}
	out := LongVowel(Pronunciation(nodes))
	assert.Equal(t, []string{"エイチイーエルエルオー", "ジーエヌユー"}, prons(out))
	assert.Equal(t, out[0].Read, out[0].Pron)
	assert.Equal(t, 11, out[0].MoraSize)
}
