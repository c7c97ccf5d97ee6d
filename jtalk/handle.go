package jtalk

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"jtalkfront/dictionary"
	"jtalkfront/model"
	"jtalkfront/render"
	"jtalkfront/userdic"
)

// HandleConfig says where the base dictionary comes from. The first that
// applies wins: DictDir when it holds a built dictionary, a download from
// DictURL into DictDir (or CacheDir), then the built-in dictionary named by
// Builtin.
type HandleConfig struct {
	DictDir  string
	DictURL  string
	CacheDir string
	Builtin  string
	Options  []Option
}

// AnalyzerHandle owns the active Instance. The base dictionary is loaded
// on first use; later replacements are built fully before being published,
// so readers never wait on a reload.
type AnalyzerHandle struct {
	cfg HandleConfig

	mu     sync.Mutex
	base   dictionary.Lexicon
	active atomic.Pointer[Instance]
	loads  atomic.Int32
}

// NewHandle returns a handle that loads lazily according to cfg.
func NewHandle(cfg HandleConfig) *AnalyzerHandle {
	return &AnalyzerHandle{cfg: cfg}
}

// Instance returns the active instance, loading the base dictionary on the
// first call.
func (h *AnalyzerHandle) Instance(ctx context.Context) (*Instance, error) {
	if in := h.active.Load(); in != nil {
		return in, nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if in := h.active.Load(); in != nil {
		return in, nil
	}
	base, err := h.baseLocked(ctx)
	if err != nil {
		return nil, err
	}
	in := New(base, h.cfg.Options...)
	h.active.Store(in)
	return in, nil
}

// Loads reports how many times the base dictionary has been loaded.
func (h *AnalyzerHandle) Loads() int {
	return int(h.loads.Load())
}

func (h *AnalyzerHandle) baseLocked(ctx context.Context) (dictionary.Lexicon, error) {
	if h.base != nil {
		return h.base, nil
	}
	lex, err := h.loadBase(ctx)
	if err != nil {
		return nil, err
	}
	h.loads.Add(1)
	h.base = lex
	return lex, nil
}

func (h *AnalyzerHandle) loadBase(ctx context.Context) (dictionary.Lexicon, error) {
	dir := h.cfg.DictDir
	if dir == "" && h.cfg.DictURL != "" {
		dir = h.cfg.CacheDir
		if dir == "" {
			cache, err := os.UserCacheDir()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", dictionary.ErrDictionaryLoad, err)
			}
			dir = filepath.Join(cache, "jtalkfront", "dict")
		}
	}
	if dir == "" {
		b, err := dictionary.BuiltinByName(h.cfg.Builtin)
		if err != nil {
			return nil, err
		}
		return b, nil
	}

	if _, err := os.Stat(filepath.Join(dir, dictionary.SysFile)); err != nil {
		if h.cfg.DictURL == "" {
			return nil, fmt.Errorf("%w: %s: %v", dictionary.ErrDictionaryLoad, dir, err)
		}
		if _, err := Fetch(ctx, h.cfg.DictURL, dir); err != nil {
			return nil, err
		}
	}
	log.Info().Str("dir", dir).Msg("loading base dictionary")
	return dictionary.Load(dir, "")
}

// UpdateWithUserDict replaces the active instance with one that overlays
// the compiled user dictionary at path on the base dictionary.
func (h *AnalyzerHandle) UpdateWithUserDict(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	base, err := h.baseLocked(ctx)
	if err != nil {
		return err
	}
	lex, err := dictionary.WithUserDictionary(base, path)
	if err != nil {
		return err
	}
	h.active.Store(New(lex, h.cfg.Options...))
	return nil
}

// MecabDictIndex compiles the user dictionary csvPath to outPath. Context
// ids left empty are resolved against dictDir, or against the handle's base
// dictionary when dictDir is empty.
func (h *AnalyzerHandle) MecabDictIndex(ctx context.Context, csvPath, outPath, dictDir string) error {
	if _, err := os.Stat(csvPath); err != nil {
		return err
	}
	if dictDir != "" {
		return userdic.CompileWithDir(csvPath, outPath, dictDir)
	}
	h.mu.Lock()
	base, err := h.baseLocked(ctx)
	h.mu.Unlock()
	if err != nil {
		return err
	}
	resolver, ok := base.(dictionary.ContextResolver)
	if !ok {
		return errors.New("base dictionary cannot resolve context ids")
	}
	return userdic.Compile(csvPath, outPath, resolver)
}

// RunFrontend runs the frontend on the active instance.
func (h *AnalyzerHandle) RunFrontend(ctx context.Context, text string, runMarine bool) ([]model.FeatureNode, error) {
	in, err := h.Instance(ctx)
	if err != nil {
		return nil, err
	}
	return in.RunFrontend(ctx, text, runMarine)
}

// G2P converts text with the active instance.
func (h *AnalyzerHandle) G2P(ctx context.Context, text string, opts G2POptions) (render.Result, error) {
	in, err := h.Instance(ctx)
	if err != nil {
		return render.Result{}, err
	}
	return in.G2P(ctx, text, opts)
}
