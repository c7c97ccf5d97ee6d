package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"jtalkfront/config"
	"jtalkfront/estimator"
	"jtalkfront/jtalk"
	"jtalkfront/logger"
)

var (
	cfg      *config.Config
	dictDir  string
	userDic  string
	logLevel string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "jtalk",
		Short:         "Japanese text frontend: tokenization, accent and G2P",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = config.Load(); err != nil {
				return err
			}
			if dictDir != "" {
				cfg.Dictionary.Dir = dictDir
			}
			if userDic != "" {
				cfg.Dictionary.UserDict = userDic
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			return logger.Setup(cfg.Log.Level, cfg.Log.Format, os.Stderr)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dictDir, "dict-dir", "", "base dictionary directory (overrides OPEN_JTALK_DICT_DIR)")
	rootCmd.PersistentFlags().StringVar(&userDic, "user-dic", "", "compiled user dictionary to overlay")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	rootCmd.AddCommand(g2pCmd())
	rootCmd.AddCommand(frontendCmd())
	rootCmd.AddCommand(dictIndexCmd())
	rootCmd.AddCommand(buildDictCmd())
	rootCmd.AddCommand(fetchDictCmd())
	rootCmd.AddCommand(compareCmd())
	rootCmd.AddCommand(serveCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// newHandle builds the analyzer handle described by the configuration.
func newHandle(ctx context.Context) (*jtalk.AnalyzerHandle, error) {
	var opts []jtalk.Option
	if cfg.Estimator.URL != "" {
		opts = append(opts, jtalk.WithEstimator(
			estimator.NewRemote(cfg.Estimator.URL, cfg.Estimator.RPS, cfg.Estimator.Timeout),
		))
	}
	h := jtalk.NewHandle(jtalk.HandleConfig{
		DictDir:  cfg.Dictionary.Dir,
		DictURL:  cfg.Dictionary.URL,
		CacheDir: cfg.Dictionary.CacheDir,
		Builtin:  cfg.Dictionary.Builtin,
		Options:  opts,
	})
	if cfg.Dictionary.UserDict != "" {
		if err := h.UpdateWithUserDict(ctx, cfg.Dictionary.UserDict); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// inputText joins the arguments, or reads stdin when there are none.
func inputText(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\n"), nil
}

func printJSON(v any) error {
	out, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
