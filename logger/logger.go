// Package logger configures the global zerolog logger and writes JSON
// dumps of frontend results for debugging.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup sets the global level and writer. format "console" writes
// human-readable lines, anything else JSON.
func Setup(level, format string, w io.Writer) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(lvl)
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return nil
}

// InitLogs creates the dump directory and clears the .json files a
// previous run left in it.
func InitLogs(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return err
	}
	files, err := os.ReadDir(path)
	if err != nil {
		return err
	}
	for _, f := range files {
		if !f.IsDir() && strings.HasSuffix(f.Name(), ".json") {
			_ = os.Remove(filepath.Join(path, f.Name()))
		}
	}
	return nil
}

// LogJSON writes data as indented JSON to path/id.json. The file is
// replaced atomically.
func LogJSON(path, id string, data any) error {
	bytes, err := sonic.ConfigStd.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	file := filepath.Join(path, id+".json")
	tmp, err := os.CreateTemp(path, "."+id+"-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(bytes); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), file); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("dump %s: %w", id, err)
	}
	return nil
}
