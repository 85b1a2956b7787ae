package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/evanjt06/lrusim/cache"
	"github.com/evanjt06/lrusim/internal"
	"github.com/evanjt06/lrusim/sim"
	"go.uber.org/zap"
)

type options struct {
	cfg        sim.Config
	scriptPath string
	logPath    string
	delay      time.Duration
	verbose    bool
}

func parseFlags(args []string) (options, error) {
	opts := options{cfg: sim.DefaultConfig()}

	fs := flag.NewFlagSet("lrusim", flag.ContinueOnError)
	fs.IntVar(&opts.cfg.Capacity, "capacity", opts.cfg.Capacity, "maximum number of cached entries")
	fs.StringVar(&opts.cfg.RecordPath, "record", "", "append operation records as JSON lines to this file")
	fs.StringVar(&opts.scriptPath, "script", "", "JSON-lines script to replay (default: built-in demo)")
	fs.StringVar(&opts.logPath, "log", "", "write logs to this file instead of stderr")
	fs.DurationVar(&opts.delay, "delay", 0, "pause between steps during playback")
	fs.BoolVar(&opts.verbose, "v", false, "enable debug logging")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.delay < 0 {
		return options{}, fmt.Errorf("invalid delay %s", opts.delay)
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	logger, err := internal.NewLogger(opts.logPath, opts.verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, logger, os.Stdout); err != nil {
		logger.Errorw("Simulation failed", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run(ctx context.Context, opts options, logger *zap.SugaredLogger, out io.Writer) (err error) {
	ops := sim.DemoScript()
	if opts.scriptPath != "" {
		if ops, err = sim.LoadScript(opts.scriptPath); err != nil {
			return err
		}
	}

	seq, err := sim.NewSequencer(opts.cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := seq.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	logger.Infow("Starting replay",
		"capacity", seq.Cache().Capacity(),
		"operations", len(ops),
		"delay", opts.delay,
	)

	frames, errc := seq.Play(ctx, ops, opts.delay)
	for f := range frames {
		fmt.Fprintf(out, "%-32s store=%s\n", f.Record, formatStore(f.Entries))
	}
	playErr := <-errc

	st := seq.Stats()
	fmt.Fprintf(out, "\nfinal store (LRU -> MRU): %s\n", formatStore(seq.Snapshot()))
	fmt.Fprintf(out, "hits=%d misses=%d evictions=%d hit_rate=%.2f\n",
		st.Hits, st.Misses, st.Evictions, st.HitRate())

	if playErr != nil && ctx.Err() != nil {
		logger.Infow("Replay interrupted", "completed", len(seq.Records()))
		return nil
	}
	return playErr
}

func formatStore(entries []cache.Entry) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = e.Key + "=" + e.Value
	}
	return "[" + strings.Join(parts, " ") + "]"
}
