package jtalk

import (
	"archive/tar"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jtalkfront/analyze"
	"jtalkfront/dictionary"
	"jtalkfront/estimator"
	"jtalkfront/ingest"
	"jtalkfront/model"
)

const fixtureSrc = "../testdata/jtalkdic"

func buildFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := dictionary.BuildSource(fixtureSrc, dir)
	require.NoError(t, err)
	return dir
}

func fixture(t *testing.T, opts ...Option) *Instance {
	t.Helper()
	in, err := FromDir(buildFixture(t), "", opts...)
	require.NoError(t, err)
	return in
}

func TestRunFrontendBuiltinIPA(t *testing.T) {
	if testing.Short() {
		t.Skip("loads the embedded IPADIC")
	}
	in := New(dictionary.IPA())
	nodes, err := in.RunFrontend(context.Background(), "こんにちは", false)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	n := nodes[0]
	assert.Equal(t, "こんにちは", n.String)
	assert.Equal(t, "感動詞", n.POS)
	assert.Equal(t, "コンニチハ", n.Read)
	assert.Equal(t, "コンニチワ", n.Pron)
	assert.Equal(t, 5, n.MoraSize)
	assert.Equal(t, -1, n.ChainFlag)
	assert.Equal(t, "-1", n.ChainRule)

	res, err := in.G2P(context.Background(), "こんにちは", G2POptions{Join: true})
	require.NoError(t, err)
	assert.Equal(t, "k o N n i ch i w a", res.Text)
}

func TestG2P(t *testing.T) {
	in := fixture(t)
	ctx := context.Background()
	cases := []struct {
		text string
		opts G2POptions
		want string
	}{
		{"こんにちは", G2POptions{Join: true}, "k o N n i ch i w a"},
		{"私は学生です。", G2POptions{Join: true}, "w a t a sh i w a g a k U s e e d e s U"},
		{"私は学生です。", G2POptions{Kana: true, Join: true}, "ワタシワガクセーデス。"},
		{"私は学生です。", G2POptions{Join: true, Prosody: true},
			"^ w a [ t a sh i w a # g a [ k U s e e d e ] s U $"},
		{"東京に行きます", G2POptions{Kana: true, Join: true}, "トーキョーニイキマス"},
		{"", G2POptions{Join: true}, ""},
	}
	for _, c := range cases {
		res, err := in.G2P(ctx, c.text, c.opts)
		require.NoError(t, err, c.text)
		assert.Equal(t, c.want, res.Text, c.text)
	}

	res, err := in.G2P(ctx, "こんにちは", G2POptions{Kana: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"コンニチワ"}, res.Tokens)
}

func TestRunFrontendFields(t *testing.T) {
	in := fixture(t)
	nodes, err := in.RunFrontend(context.Background(), "私は学生です。", false)
	require.NoError(t, err)
	require.Len(t, nodes, 5)
	assert.Equal(t, "学生", nodes[2].String)
	assert.Equal(t, "名詞", nodes[2].POS)
	assert.Equal(t, "ガクセイ", nodes[2].Read)
	assert.Equal(t, 5, nodes[2].Acc)
	assert.Equal(t, model.NoRule, nodes[2].ChainRule)
	assert.Equal(t, 0, nodes[3].ChainFlag)
	assert.Equal(t, "F2@1", nodes[3].ChainRule)

	nodes, err = in.RunFrontend(context.Background(), "", false)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestSpansPartitionInput(t *testing.T) {
	in := fixture(t)
	for _, text := range []string{
		"私は学生です。",
		"GNUと3本の？",
		"ｶﾀｶﾅ and 漢字",
		"🍣東京　大学\n",
	} {
		nodes, err := in.RunFrontend(context.Background(), text, false)
		require.NoError(t, err, text)
		assert.Equal(t, text, model.Surface(nodes), text)
	}
}

func TestDeterministicAndConcurrent(t *testing.T) {
	in := fixture(t)
	ctx := context.Background()
	var texts []string
	for range 4 {
		texts = append(texts,
			"今日もいい天気ですね",
			"こんにちは",
			"マルチスレッドプログラミング",
			"テストです",
			"Pythonはプログラミング言語です",
			"日本語テキストを音声合成します",
		)
	}

	want := make([][]model.FeatureNode, len(texts))
	for i, text := range texts {
		nodes, err := in.RunFrontend(ctx, text, false)
		require.NoError(t, err, text)
		want[i] = nodes
	}

	got := make([][]model.FeatureNode, len(texts))
	var wg sync.WaitGroup
	for i, text := range texts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			nodes, err := in.RunFrontend(ctx, text, false)
			assert.NoError(t, err)
			got[i] = nodes
		}()
	}
	wg.Wait()
	for i := range texts {
		assert.Equal(t, want[i], got[i], texts[i])
	}

	batched, err := in.Batch(ctx, texts, 4, false)
	require.NoError(t, err)
	assert.Equal(t, want, batched)
}

func TestRunFrontendEstimator(t *testing.T) {
	in := fixture(t, WithEstimator(estimator.RuleBased{}))
	ctx := context.Background()
	rule, err := in.RunFrontend(ctx, "私は学生です。", false)
	require.NoError(t, err)
	marine, err := in.RunFrontend(ctx, "私は学生です。", true)
	require.NoError(t, err)
	assert.Equal(t, rule, marine)

	// unavailable estimator falls back to the rule-based values
	in = fixture(t, WithEstimator(estimator.NewRemote("", 0, 0)))
	fallback, err := in.RunFrontend(ctx, "私は学生です。", true)
	require.NoError(t, err)
	assert.Equal(t, rule, fallback)
}

func TestInternalErrorSurfaces(t *testing.T) {
	drop := analyze.Pass{Name: "drop", Fn: func(n []model.FeatureNode) []model.FeatureNode { return n[1:] }}
	in := fixture(t, WithPasses(drop))
	_, err := in.RunFrontend(context.Background(), "私は", false)
	var ie *analyze.InternalError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "drop", ie.Pass)
}

func TestUserDictionary(t *testing.T) {
	ctx := context.Background()
	dir := buildFixture(t)
	h := NewHandle(HandleConfig{DictDir: dir})

	before, err := h.G2P(ctx, "nnmn", G2POptions{Join: true})
	require.NoError(t, err)
	old, err := h.Instance(ctx)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "user.dic")
	require.NoError(t, h.MecabDictIndex(ctx, "../testdata/user.csv", out, ""))
	require.NoError(t, h.UpdateWithUserDict(ctx, out))

	got, err := h.G2P(ctx, "nnmn", G2POptions{Join: true})
	require.NoError(t, err)
	assert.Equal(t, "n a n a m i N", got.Text)
	assert.NotEqual(t, before.Text, got.Text)

	got, err = h.G2P(ctx, "GNU", G2POptions{Join: true})
	require.NoError(t, err)
	assert.Equal(t, "g u n u u", got.Text)

	// an instance obtained before the swap keeps its lexicon
	res, err := old.G2P(ctx, "nnmn", G2POptions{Join: true})
	require.NoError(t, err)
	assert.Equal(t, before.Text, res.Text)
	assert.Equal(t, 1, h.Loads())

	// explicit dictionary directory
	out2 := filepath.Join(t.TempDir(), "user2.dic")
	require.NoError(t, h.MecabDictIndex(ctx, "../testdata/user.csv", out2, dir))
	in, err := FromDir(dir, out2)
	require.NoError(t, err)
	res, err = in.G2P(ctx, "nnmn", G2POptions{Join: true})
	require.NoError(t, err)
	assert.Equal(t, "n a n a m i N", res.Text)
}

func TestUserDictionaryErrors(t *testing.T) {
	ctx := context.Background()
	h := NewHandle(HandleConfig{DictDir: buildFixture(t)})
	missing := filepath.Join(t.TempDir(), "missing")
	assert.ErrorIs(t, h.MecabDictIndex(ctx, missing+".csv", missing+".dic", ""), os.ErrNotExist)
	assert.ErrorIs(t, h.UpdateWithUserDict(ctx, missing+".dic"), os.ErrNotExist)
	_, err := FromDir(t.TempDir(), missing+".dic")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestHandleLoadsOnce(t *testing.T) {
	h := NewHandle(HandleConfig{DictDir: buildFixture(t)})
	ctx := context.Background()
	var wg sync.WaitGroup
	got := make([]*Instance, 16)
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			in, err := h.Instance(ctx)
			assert.NoError(t, err)
			got[i] = in
		}()
	}
	wg.Wait()
	for _, in := range got {
		assert.Same(t, got[0], in)
	}
	assert.Equal(t, 1, h.Loads())
}

func TestHandleMissingDictionary(t *testing.T) {
	h := NewHandle(HandleConfig{DictDir: t.TempDir()})
	_, err := h.Instance(context.Background())
	assert.ErrorIs(t, err, dictionary.ErrDictionaryLoad)
	assert.Equal(t, 0, h.Loads())

	h = NewHandle(HandleConfig{Builtin: "nope"})
	_, err = h.Instance(context.Background())
	assert.ErrorIs(t, err, dictionary.ErrDictionaryLoad)
}

// tarball packs the fixture sources under a top-level directory.
func tarball(t *testing.T, extra ...*tar.Header) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(zw)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "dic/", Typeflag: tar.TypeDir, Mode: 0o755}))
	for _, name := range []string{"lex.csv", "matrix.def", "unk.def"} {
		data, err := os.ReadFile(filepath.Join(fixtureSrc, name))
		require.NoError(t, err)
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: "dic/" + name, Typeflag: tar.TypeReg, Mode: 0o644, Size: int64(len(data)),
		}))
		_, err = tw.Write(data)
		require.NoError(t, err)
	}
	for _, h := range extra {
		require.NoError(t, tw.WriteHeader(h))
	}
	require.NoError(t, tw.Close())
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestFetch(t *testing.T) {
	body := tarball(t)
	var hits int
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		if r.URL.Path != "/dic.tar.gz" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	ctx := context.Background()
	cache := filepath.Join(t.TempDir(), "cache")
	h := NewHandle(HandleConfig{DictURL: srv.URL + "/dic.tar.gz", CacheDir: cache})
	res, err := h.G2P(ctx, "こんにちは", G2POptions{Join: true})
	require.NoError(t, err)
	assert.Equal(t, "k o N n i ch i w a", res.Text)
	assert.FileExists(t, filepath.Join(cache, dictionary.SysFile))

	// a second handle finds the cached build
	h2 := NewHandle(HandleConfig{DictURL: srv.URL + "/dic.tar.gz", CacheDir: cache})
	_, err = h2.Instance(ctx)
	require.NoError(t, err)
	mu.Lock()
	assert.Equal(t, 1, hits)
	mu.Unlock()

	_, err = Fetch(ctx, srv.URL+"/missing.tar.gz", t.TempDir())
	assert.ErrorIs(t, err, dictionary.ErrDictionaryLoad)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = Fetch(cancelled, srv.URL+"/dic.tar.gz", t.TempDir())
	assert.ErrorIs(t, err, dictionary.ErrDictionaryLoad)
}

func TestFetchRejectsEscapingEntries(t *testing.T) {
	body := tarball(t, &tar.Header{Name: "../evil.csv", Typeflag: tar.TypeReg, Mode: 0o644})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	defer srv.Close()
	_, err := Fetch(context.Background(), srv.URL, t.TempDir())
	assert.ErrorIs(t, err, dictionary.ErrDictionaryLoad)
}

func TestBatchAndStream(t *testing.T) {
	in := fixture(t)
	ctx := context.Background()
	texts := []string{"こんにちは", "私は学生です。", "東京に行きます", ""}
	got, err := in.Batch(ctx, texts, 2, false)
	require.NoError(t, err)
	require.Len(t, got, len(texts))
	for i, text := range texts {
		want, err := in.RunFrontend(ctx, text, false)
		require.NoError(t, err)
		assert.Equal(t, want, got[i], text)
	}

	sentences := make(chan ingest.Sentence)
	go func() {
		defer close(sentences)
		for _, s := range ingest.Split("こんにちは。私は学生です。") {
			sentences <- s
		}
	}()
	out, errs := in.Stream(ctx, sentences, false)
	var surfaces []string
	for f := range out {
		surfaces = append(surfaces, model.Surface(f.Nodes))
		assert.NotEmpty(t, f.Sentence.ID)
	}
	require.NoError(t, <-errs)
	assert.Equal(t, []string{"こんにちは。", "私は学生です。"}, surfaces)
}

func TestStreamCancel(t *testing.T) {
	in := fixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, errs := in.Stream(ctx, make(chan ingest.Sentence), false)
	for range out {
	}
	assert.ErrorIs(t, <-errs, context.Canceled)
}
