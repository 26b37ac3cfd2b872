package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/yyyoichi/svdlab"
	"github.com/yyyoichi/svdlab/internal/config"
	"github.com/yyyoichi/svdlab/internal/logger"
	"github.com/yyyoichi/svdlab/internal/svd"
)

const usage = `usage: svdlab [command] [flags]

Commands:
  run     run the pipeline once and write plots (default)
  sweep   run a noise × method grid and store the reports in SQLite
  check   verify the SVD properties on the configured signal
  repl    read ranks from stdin and print their reports
  serve   serve the plots and a JSON API over HTTP

Settings are read from SVDLAB_* variables (and .env), flags override them.
`

var errChecksFailed = errors.New("property checks failed")

func main() {
	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	cmd, args := "run", os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	var run func(context.Context, *config.Config, []string) error
	switch cmd {
	case "run":
		run = runCmd
	case "sweep":
		run = sweepCmd
	case "check":
		run = checkCmd
	case "repl":
		run = replCmd
	case "serve":
		run = serveCmd
	case "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if err := run(ctx, cfg, args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		if errors.Is(err, errChecksFailed) {
			os.Exit(1)
		}
		log.Fatal().Err(err).Str("command", cmd).Msg("Command failed")
	}
}

// flags holds the settings shared by every command.
type flags struct {
	cfg     *config.Config
	maxRank int
	debug   bool
}

// newFlags registers the shared flags with cfg's values as defaults.
func newFlags(name string, cfg *config.Config) (*flag.FlagSet, *flags) {
	f := &flags{cfg: cfg}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.IntVar(&cfg.Size, "size", cfg.Size, "matrix size for square signals")
	fs.IntVar(&cfg.Rows, "rows", cfg.Rows, "number of rows (overrides -size)")
	fs.IntVar(&cfg.Cols, "cols", cfg.Cols, "number of columns (overrides -size)")
	fs.StringVar(&cfg.Preset, "preset", cfg.Preset, "clean surface: three-peaks, two-peaks or ridge")
	fs.IntVar(&cfg.SignalRank, "signal-rank", cfg.SignalRank, "use a random Gaussian signal of this rank instead of a preset")
	fs.IntVar(&cfg.Rank, "k", cfg.Rank, "truncation rank")
	fs.IntVar(&f.maxRank, "max-rank", svdlab.DefaultMaxRank, "largest rank of the error sweep")
	fs.Float64Var(&cfg.Noise, "noise", cfg.Noise, "noise standard deviation")
	fs.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	fs.StringVar(&cfg.Method, "method", cfg.Method, "svd method: full, thin, truncated or randomized")
	fs.StringVar(&cfg.OutDir, "out", cfg.OutDir, "output directory")
	fs.BoolVar(&f.debug, "debug", false, "enable debug logging")
	return fs, f
}

func (f *flags) parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	logger.Init(f.cfg.LogLevel, f.debug)
	return f.cfg.Validate()
}

// options translates the configuration into lab options.
func (f *flags) options() ([]svdlab.Option, error) {
	method, err := svd.ParseMethod(f.cfg.Method)
	if err != nil {
		return nil, err
	}
	m, n := f.cfg.Dims()
	opts := []svdlab.Option{
		svdlab.WithSize(m, n),
		svdlab.WithNoise(f.cfg.Noise),
		svdlab.WithSeed(f.cfg.Seed),
		svdlab.WithMethod(method),
		svdlab.WithRank(f.cfg.Rank),
		svdlab.WithMaxRank(f.maxRank),
	}
	if f.cfg.SignalRank > 0 {
		opts = append(opts, svdlab.WithRandom(f.cfg.SignalRank))
	} else {
		opts = append(opts, svdlab.WithPreset(f.cfg.Preset))
	}
	return opts, nil
}

func (f *flags) lab(extra ...svdlab.Option) (*svdlab.Lab, error) {
	opts, err := f.options()
	if err != nil {
		return nil, err
	}
	return svdlab.New(append(opts, extra...)...)
}
