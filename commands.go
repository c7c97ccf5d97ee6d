package main

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
	"github.com/spf13/cobra"

	"jtalkfront/dictionary"
	"jtalkfront/ingest"
	"jtalkfront/jtalk"
	"jtalkfront/logger"
	"jtalkfront/server"
	"jtalkfront/tokenize"
)

func g2pCmd() *cobra.Command {
	var opts jtalk.G2POptions

	cmd := &cobra.Command{
		Use:   "g2p [text]",
		Short: "Convert text to phonemes or katakana",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := inputText(args)
			if err != nil {
				return err
			}
			h, err := newHandle(cmd.Context())
			if err != nil {
				return err
			}
			res, err := h.G2P(cmd.Context(), text, opts)
			if err != nil {
				return err
			}
			if opts.Join {
				fmt.Println(res.Text)
				return nil
			}
			return printJSON(res.Tokens)
		},
	}

	cmd.Flags().BoolVar(&opts.Kana, "kana", false, "output katakana instead of phonemes")
	cmd.Flags().BoolVar(&opts.Join, "join", true, "join the output into one string")
	cmd.Flags().BoolVar(&opts.Prosody, "prosody", false, "insert accent and boundary markers")
	cmd.Flags().BoolVar(&opts.Marine, "marine", false, "use the configured accent estimator")
	return cmd
}

func frontendCmd() *cobra.Command {
	var (
		marine  bool
		workers int
	)

	cmd := &cobra.Command{
		Use:   "frontend [text]",
		Short: "Print the feature nodes of every sentence as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := inputText(args)
			if err != nil {
				return err
			}
			h, err := newHandle(cmd.Context())
			if err != nil {
				return err
			}
			in, err := h.Instance(cmd.Context())
			if err != nil {
				return err
			}

			sentences := ingest.Split(text)
			texts := make([]string, len(sentences))
			for i, s := range sentences {
				texts[i] = s.Text
			}
			results, err := in.Batch(cmd.Context(), texts, workers, marine)
			if err != nil {
				return err
			}

			out := make([]jtalk.Frontend, len(sentences))
			for i, s := range sentences {
				out[i] = jtalk.Frontend{Sentence: s, Nodes: results[i]}
			}
			if dir := cfg.Log.DumpDir; dir != "" {
				if err := logger.InitLogs(dir); err != nil {
					return err
				}
				for _, f := range out {
					if err := logger.LogJSON(dir, f.Sentence.ID, f); err != nil {
						return err
					}
				}
			}
			return printJSON(out)
		},
	}

	cmd.Flags().BoolVar(&marine, "marine", false, "use the configured accent estimator")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel sentences (0 = GOMAXPROCS)")
	return cmd
}

func dictIndexCmd() *cobra.Command {
	var base string

	cmd := &cobra.Command{
		Use:   "dict-index <user.csv> <out.dic>",
		Short: "Compile a user dictionary CSV",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := newHandle(cmd.Context())
			if err != nil {
				return err
			}
			if err := h.MecabDictIndex(cmd.Context(), args[0], args[1], base); err != nil {
				return err
			}
			fmt.Printf("Compiled %s -> %s\n", args[0], args[1])
			return nil
		},
	}

	cmd.Flags().StringVar(&base, "base", "", "dictionary directory resolving empty context ids (default: the configured base dictionary)")
	return cmd
}

func buildDictCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build-dict <source-dir> <out-dir>",
		Short: "Build a dictionary from MeCab-style sources",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := dictionary.BuildSource(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Built %d entries into %s\n", d.Size(), args[1])
			return nil
		},
	}
}

func fetchDictCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch-dict <url> <out-dir>",
		Short: "Download a source dictionary tarball and build it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := jtalk.Fetch(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Built %d entries into %s\n", d.Size(), args[1])
			return nil
		},
	}
}

func compareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare [text]",
		Short: "Compare segmentation with kagome on the built-in IPADIC",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := inputText(args)
			if err != nil {
				return err
			}
			text = ingest.Normalize(text)

			kg, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
			if err != nil {
				return err
			}
			var theirs []string
			for _, tok := range kg.Tokenize(text) {
				theirs = append(theirs, tok.Surface)
			}

			path, err := tokenize.New(dictionary.IPA()).Tokenize(text)
			if err != nil {
				return err
			}
			ours := tokenize.Surfaces(path)

			fmt.Println("kagome:", strings.Join(theirs, " | "))
			fmt.Println("jtalk: ", strings.Join(ours, " | "))
			if strings.Join(theirs, "\x00") == strings.Join(ours, "\x00") {
				fmt.Println("identical")
			} else {
				fmt.Println("different")
			}
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the frontend over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = cfg.Server.Addr
			}
			h, err := newHandle(cmd.Context())
			if err != nil {
				return err
			}
			if cfg.Log.DumpDir != "" {
				if err := logger.InitLogs(cfg.Log.DumpDir); err != nil {
					return err
				}
			}
			// load before accepting requests
			if _, err := h.Instance(cmd.Context()); err != nil {
				return err
			}
			gin.SetMode(gin.ReleaseMode)
			engine := server.NewEngine(h, server.Options{
				MaxTextLength: cfg.Server.MaxTextLength,
				DumpDir:       cfg.Log.DumpDir,
			})
			return server.Run(cmd.Context(), addr, engine, cfg.Server.ShutdownTimeout)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
