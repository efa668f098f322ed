package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/hiero/decoder"
	"github.com/dhamidi/hiero/segment"
	"github.com/dhamidi/hiero/vocab"
)

var log = commonlog.GetLogger("hiero.cmd")

// decodeFlags are the command-line overrides of the config file.
type decodeFlags struct {
	configPath  string
	grammars    []string
	treesPath   string
	metricsAddr string
	verbosity   int
	showTree    bool

	popLimit  int
	beam      bool
	threads   int
	goal      string
	parse     bool
	maxNodes  int
	markOOVs  bool
	trueOOVs  bool
	constrain bool
	posLabels bool
	beamSize  int
	threshold float64
}

func newDecodeCmd() *cobra.Command {
	var flags decodeFlags

	cmd := &cobra.Command{
		Use:   "decode [input]",
		Short: "Translate sentences, one per line, from a file or stdin",
		Long: `Translate sentences, one per line. A line of the form
"source ||| target" is parsed synchronously against the target when
--parse is set. Translations are printed as "id ||| text ||| score".`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			commonlog.Configure(flags.verbosity, nil)

			cfg, err := flags.config(cmd)
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open input: %w", err)
				}
				defer f.Close()
				in = f
			}

			return runDecode(cmd.Context(), cfg, flags, in, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.configPath, "config", "c", "", "YAML config file")
	f.StringArrayVarP(&flags.grammars, "grammar", "g", nil, "grammar file as owner=path (repeatable)")
	f.StringVar(&flags.treesPath, "trees", "", "file of reference parses, one per input line")
	f.StringVar(&flags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	f.CountVarP(&flags.verbosity, "verbose", "v", "increase log verbosity")
	f.BoolVar(&flags.showTree, "tree", false, "print the derivation tree after each translation")

	f.IntVar(&flags.popLimit, "pop-limit", 0, "cube pruning pop limit per span (0 disables)")
	f.BoolVar(&flags.beam, "beam", false, "use beam and threshold pruning")
	f.IntVar(&flags.beamSize, "beam-size", 0, "beam size for beam and threshold pruning")
	f.Float64Var(&flags.threshold, "threshold", 0, "relative threshold for beam and threshold pruning")
	f.IntVarP(&flags.threads, "threads", "j", 0, "number of decoding workers")
	f.StringVar(&flags.goal, "goal", "", "goal symbol")
	f.BoolVar(&flags.parse, "parse", false, "parse the target side of \"source ||| target\" lines")
	f.IntVar(&flags.maxNodes, "max-nodes", 0, "give up on a sentence after this many chart nodes (0 disables)")
	f.BoolVar(&flags.markOOVs, "mark-oovs", false, "suffix untranslated words with _OOV")
	f.BoolVar(&flags.trueOOVs, "true-oovs-only", false, "only add pass-through rules for words no grammar knows")
	f.BoolVar(&flags.constrain, "constrain-parse", false, "restrict the chart to spans of the reference parse")
	f.BoolVar(&flags.posLabels, "pos-labels", false, "label pass-through rules with reference parse labels")

	return cmd
}

// config loads the config file, if any, and applies every flag the user set.
func (fl *decodeFlags) config(cmd *cobra.Command) (decoder.Config, error) {
	cfg := decoder.DefaultConfig()
	if fl.configPath != "" {
		var err error
		cfg, err = decoder.LoadConfig(fl.configPath)
		if err != nil {
			return cfg, err
		}
	}

	set := cmd.Flags().Changed
	if set("pop-limit") {
		cfg.PopLimit = fl.popLimit
	}
	if set("beam") {
		cfg.UseBeamAndThresholdPrune = fl.beam
	}
	if set("beam-size") {
		cfg.BeamSize = fl.beamSize
	}
	if set("threshold") {
		cfg.RelativeThreshold = fl.threshold
	}
	if set("threads") {
		cfg.NumThreads = fl.threads
	}
	if set("goal") {
		cfg.GoalSymbol = fl.goal
	}
	if set("parse") {
		cfg.Parse = fl.parse
	}
	if set("max-nodes") {
		cfg.MaxNodes = fl.maxNodes
	}
	if set("mark-oovs") {
		cfg.MarkOOVs = fl.markOOVs
	}
	if set("true-oovs-only") {
		cfg.TrueOOVsOnly = fl.trueOOVs
	}
	if set("constrain-parse") {
		cfg.ConstrainParse = fl.constrain
	}
	if set("pos-labels") {
		cfg.UsePOSLabels = fl.posLabels
	}

	for _, g := range fl.grammars {
		owner, path, ok := strings.Cut(g, "=")
		if !ok {
			return cfg, fmt.Errorf("grammar %q: want owner=path", g)
		}
		cfg.Grammars = append(cfg.Grammars, decoder.GrammarConfig{Path: path, Owner: owner, SpanLimit: -1})
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runDecode(ctx context.Context, cfg decoder.Config, fl decodeFlags, in io.Reader, out io.Writer) error {
	v := vocab.New()

	grammars, err := decoder.LoadGrammars(cfg, v)
	if err != nil {
		return err
	}
	features, err := decoder.BuildFeatures(cfg, v)
	if err != nil {
		return err
	}

	var opts []decoder.Option
	if fl.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		m, err := decoder.NewMetrics(reg)
		if err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		opts = append(opts, decoder.WithMetrics(m))
		stop := serveMetrics(fl.metricsAddr, reg)
		defer stop()
	}

	sents, err := readSentences(v, in)
	if err != nil {
		return err
	}
	if fl.treesPath != "" {
		if err := attachTrees(v, sents, fl.treesPath); err != nil {
			return err
		}
	}

	d := decoder.New(cfg, v, grammars, features, opts...)
	start := time.Now()
	translations, err := d.TranslateAll(ctx, sents)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	w := bufio.NewWriter(out)
	failed := 0
	for _, t := range translations {
		if t.Err != nil {
			failed++
		}
		fmt.Fprintln(w, t)
		if fl.showTree && t.Tree != "" {
			fmt.Fprintln(w, t.Tree)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	log.Noticef("translated %d sentences in %s (%d failed)", len(translations), time.Since(start), failed)
	return nil
}

// readSentences reads one sentence per line; ids count lines from zero.
func readSentences(v *vocab.Vocabulary, in io.Reader) ([]*segment.Sentence, error) {
	var sents []*segment.Sentence
	s := bufio.NewScanner(in)
	s.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for s.Scan() {
		sents = append(sents, segment.Parse(v, len(sents), s.Text()))
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return sents, nil
}

// attachTrees pairs the i-th parse with the i-th sentence. An empty line
// leaves its sentence without a parse.
func attachTrees(v *vocab.Vocabulary, sents []*segment.Sentence, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open trees: %w", err)
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	s.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for i := 0; s.Scan(); i++ {
		if i >= len(sents) {
			return errors.New("trees: more parses than sentences")
		}
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		if err := sents[i].WithTree(v, line); err != nil {
			return fmt.Errorf("trees: %w", err)
		}
	}
	if err := s.Err(); err != nil {
		return fmt.Errorf("read trees: %w", err)
	}
	return nil
}

// serveMetrics exposes reg on addr until the returned function is called.
func serveMetrics(addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Infof("serving metrics on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("metrics server: %s", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}
