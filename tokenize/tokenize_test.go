package tokenize

import (
	"context"
	"strings"
	"testing"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jtalkfront/dictionary"
	"jtalkfront/kana"
)

func fixture(t *testing.T) *Tokenizer {
	t.Helper()
	d, err := dictionary.BuildSource("../testdata/jtalkdic", t.TempDir())
	require.NoError(t, err)
	return New(d)
}

func TestTokenizeFixture(t *testing.T) {
	tk := fixture(t)
	cases := map[string][]string{
		"こんにちは":      {"こんにちは"},
		"私は学生です。":    {"私", "は", "学生", "です", "。"},
		"東京に行きます":    {"東京", "に", "行き", "ます"},
		"３本":         {"３", "本"},
		"ナナミンです":     {"ナナミン", "です"},
		"ｎｎｍｎ":       {"ｎｎｍｎ"},
		"勉強します":      {"勉強", "し", "ます"},
		"１２３匹":       {"１２３", "匹"},
	}
	for text, want := range cases {
		t.Run(text, func(t *testing.T) {
			path, err := tk.Tokenize(text)
			require.NoError(t, err)
			assert.Equal(t, want, Surfaces(path))
		})
	}
}

func TestTokenizeNodes(t *testing.T) {
	tk := fixture(t)
	path, err := tk.Tokenize("３本")
	require.NoError(t, err)
	require.Len(t, path, 2)

	num := path[0]
	assert.True(t, num.Unknown)
	assert.Equal(t, kana.Numeric, num.Class)
	assert.Equal(t, "数", num.Entry.POS1)
	assert.Equal(t, "３", num.Entry.Surface)

	counter := path[1]
	assert.False(t, counter.Unknown)
	assert.Equal(t, "接尾", counter.Entry.POS1, "numeral + counter connection wins")
	assert.Equal(t, 1, counter.Start)
	assert.Equal(t, 2, counter.End)
	assert.Equal(t, len("３"), counter.ByteStart)
	assert.Equal(t, len("３本"), counter.ByteEnd)
	assert.Equal(t, 2000-1000+1500, counter.Cost)
}

func TestTokenizeEmpty(t *testing.T) {
	path, err := fixture(t).Tokenize("")
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestTieGoesToEarliestEdge(t *testing.T) {
	d, err := dictionary.NewDictionary([]dictionary.Entry{
		{Surface: "す", Cost: 1},
		{Surface: "もも", Cost: 1},
		{Surface: "すもも", Cost: 2},
	}, nil, nil)
	require.NoError(t, err)
	tk := New(d)
	for i := 0; i < 10; i++ {
		path, err := tk.Tokenize("すもも")
		require.NoError(t, err)
		assert.Equal(t, []string{"すもも"}, Surfaces(path))
	}
}

func TestSpanPartition(t *testing.T) {
	tk := fixture(t)
	texts := []string{
		"私は学生です。",
		"abc日本語🙂テスト　123",
		"？？？、。",
		"\n\t混在したtextとｶﾅ",
		"ー",
		"東京大学の本を３本",
	}
	for _, text := range texts {
		path, err := tk.Tokenize(text)
		require.NoError(t, err, text)
		var sb strings.Builder
		pos := 0
		for _, n := range path {
			assert.Equal(t, pos, n.Start, text)
			assert.Greater(t, n.End, n.Start, text)
			assert.Equal(t, text[n.ByteStart:n.ByteEnd], n.Surface)
			sb.WriteString(n.Surface)
			pos = n.End
		}
		assert.Equal(t, text, sb.String())
		assert.Equal(t, len([]rune(text)), pos)
	}
}

func TestTokenizeStream(t *testing.T) {
	tk := fixture(t)
	out, errs := tk.TokenizeStream(context.Background(), "私は学生です。")
	var got []string
	for n := range out {
		got = append(got, n.Surface)
	}
	require.NoError(t, <-errs)
	assert.Equal(t, []string{"私", "は", "学生", "です", "。"}, got)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, errs = tk.TokenizeStream(ctx, strings.Repeat("私は", 50))
	for range out {
	}
	assert.ErrorIs(t, <-errs, context.Canceled)
}

// The builtin IPADIC lexicon must segment like kagome itself does.
func TestMatchesKagome(t *testing.T) {
	if testing.Short() {
		t.Skip("loads the embedded IPADIC")
	}
	kg, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	require.NoError(t, err)
	tk := New(dictionary.IPA())

	for _, text := range []string{
		"すもももももももものうち",
		"私は学生です",
		"東京都に住んでいます",
		"こんにちは",
		"今日はいい天気ですね",
	} {
		var want []string
		for _, tok := range kg.Tokenize(text) {
			want = append(want, tok.Surface)
		}
		path, err := tk.Tokenize(text)
		require.NoError(t, err)
		assert.Equal(t, want, Surfaces(path), text)
	}
}
