// Command opcachestat prints a one-shot report of the PHP opcache status.
// The status source is configured the same way as the server, through
// OPCACHE_* environment variables.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/muandane/opcachestat/internal/bytecode"
	"github.com/muandane/opcachestat/internal/config"
	"github.com/muandane/opcachestat/internal/report"
	"github.com/muandane/opcachestat/internal/source"
)

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if err := run(context.Background(), cfg, logger, opts); err != nil {
		logger.Error("report failed", "error", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (report.Options, error) {
	var (
		top   int
		order string
	)
	fs := flag.NewFlagSet("opcachestat", flag.ContinueOnError)
	fs.IntVar(&top, "top", 20, "number of scripts to list, -1 for all")
	fs.StringVar(&order, "sort", string(bytecode.SortByHits), "script order: hits, memory, last_used or path")
	if err := fs.Parse(args); err != nil {
		return report.Options{}, err
	}

	sort, err := bytecode.ParseSortOrder(order)
	if err != nil {
		return report.Options{}, fmt.Errorf("-sort: %w", err)
	}
	return report.Options{Sort: sort, Top: top}, nil
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts report.Options) error {
	src, err := source.New(cfg, logger)
	if err != nil {
		return err
	}
	configuration, err := config.LoadConfiguration(cfg.ConfigurationFile)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.FetchTimeout)
	defer cancel()

	cache, err := bytecode.NewPhpOpcache(ctx, nil, configuration,
		bytecode.WithStatusFunc(source.Func(src)),
		bytecode.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	return report.Write(os.Stdout, cache, opts)
}
