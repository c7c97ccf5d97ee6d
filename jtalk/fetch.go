package jtalk

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog/log"

	"jtalkfront/dictionary"
)

// FetchTimeout bounds a dictionary download when ctx has no deadline.
var FetchTimeout = 5 * time.Minute

// Fetch downloads a gzipped tarball of a MeCab-style source dictionary
// (UTF-8 csv lexicon files, matrix.def, unk.def) from url and builds it
// into dir.
func Fetch(ctx context.Context, url, dir string) (*dictionary.Dictionary, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, FetchTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dictionary.ErrDictionaryLoad, err)
	}
	log.Info().Str("url", url).Msg("downloading dictionary")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dictionary.ErrDictionaryLoad, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %s", dictionary.ErrDictionaryLoad, url, resp.Status)
	}

	tmp, err := os.MkdirTemp("", "jtalk-dict-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmp)

	zr, err := gzip.NewReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dictionary.ErrDictionaryLoad, err)
	}
	defer zr.Close()
	if err := extract(tar.NewReader(zr), tmp); err != nil {
		return nil, fmt.Errorf("%w: extract %s: %v", dictionary.ErrDictionaryLoad, url, err)
	}

	src, err := sourceDir(tmp)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", dictionary.ErrDictionaryLoad, url, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return dictionary.BuildSource(src, dir)
}

func extract(tr *tar.Reader, dst string) error {
	root := filepath.Clean(dst) + string(os.PathSeparator)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		target := filepath.Join(dst, hdr.Name)
		if !strings.HasPrefix(target, root) {
			return fmt.Errorf("entry %q escapes the archive root", hdr.Name)
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr); err != nil {
				return err
			}
		}
	}
}

func writeEntry(path string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// sourceDir finds the directory holding matrix.def; archives usually wrap
// the sources in a top-level directory.
func sourceDir(root string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == dictionary.MatrixDef {
			found = filepath.Dir(path)
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", fmt.Errorf("no %s in archive", dictionary.MatrixDef)
	}
	return found, nil
}
