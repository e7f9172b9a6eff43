// Package main is the entry point for the nodekit blueprint tool.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/dshills/nodekit/internal/blueprint"
	"github.com/dshills/nodekit/internal/event"
	"github.com/dshills/nodekit/internal/i18n"
	"github.com/dshills/nodekit/internal/logging"
	"github.com/dshills/nodekit/internal/metrics"
	"github.com/dshills/nodekit/internal/node"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Exit codes.
const (
	exitOK      = 0
	exitError   = 1
	exitInvalid = 2
)

type options struct {
	Blueprint string
	LogLevel  string
	Lang      string
	Catalog   string
	Watch     bool
	Metrics   bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	level, _ := logging.ParseLevel(opts.LogLevel)
	cfg := logging.DefaultConfig()
	cfg.Level = level
	logger := logging.New(cfg)

	var buildOpts []blueprint.BuildOption
	nodeOpts := []node.Option{node.WithLogger(logger)}

	if opts.Catalog != "" {
		cat, err := loadCatalog(opts.Catalog)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: loading catalog: %v\n", err)
			return exitError
		}
		t := cat.Translator(opts.Lang)
		logger.Debug("%d messages in %s", len(t.Keys()), t.Tag())
		buildOpts = append(buildOpts, blueprint.WithTranslator(t))
	}

	var reg *prometheus.Registry
	if opts.Metrics {
		reg = prometheus.NewRegistry()
		m, err := metrics.New(reg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: registering metrics: %v\n", err)
			return exitError
		}
		nodeOpts = append(nodeOpts, node.WithSubscriberOptions(event.WithObserver(m)))
	}
	buildOpts = append(buildOpts, blueprint.WithNodeOptions(nodeOpts...))

	render := func(spec *blueprint.Spec) int {
		code := describe(os.Stdout, spec, buildOpts)
		if reg != nil {
			if err := dumpMetrics(os.Stdout, reg); err != nil {
				logger.Warn("writing metrics: %v", err)
			}
		}
		return code
	}

	spec, err := blueprint.Load(blueprint.OSFS{}, opts.Blueprint)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
	code := render(spec)
	if !opts.Watch {
		return code
	}

	// Handle signals for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w, err := blueprint.NewWatcher(opts.Blueprint, func(spec *blueprint.Spec, err error) {
		if err != nil {
			logger.Error("reload: %v", err)
			return
		}
		logger.Info("reloaded %s", opts.Blueprint)
		render(spec)
	}, blueprint.WithWatcherLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: watching %s: %v\n", opts.Blueprint, err)
		return exitError
	}
	defer w.Close()

	logger.Info("watching %s", w.Path())
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
	return exitOK
}

// describe builds spec, validates the tree and writes its outline.
func describe(w io.Writer, spec *blueprint.Spec, opts []blueprint.BuildOption) int {
	root, err := blueprint.Build(spec, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
	defer root.Close()

	valid, err := root.Validate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
	if err := blueprint.Describe(w, root); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
	if !valid {
		return exitInvalid
	}
	return exitOK
}

// loadCatalog reads a single TOML message file or a directory of them.
func loadCatalog(path string) (*i18n.Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	cat := i18n.NewCatalog()
	if info.IsDir() {
		err = cat.LoadDir(os.DirFS(path), ".")
	} else {
		err = cat.LoadFile(os.DirFS(filepath.Dir(path)), filepath.Base(path))
	}
	if err != nil {
		return nil, err
	}
	return cat, nil
}

func dumpMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

func parseFlags() options {
	var opts options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.LogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	flag.StringVar(&opts.Lang, "lang", os.Getenv("LANG"), "Preferred message language (BCP 47 or Accept-Language)")
	flag.StringVar(&opts.Catalog, "catalog", "", "TOML message file or directory of them")
	flag.BoolVar(&opts.Watch, "watch", false, "Rebuild whenever the blueprint changes")
	flag.BoolVar(&opts.Watch, "w", false, "Rebuild whenever the blueprint changes (shorthand)")
	flag.BoolVar(&opts.Metrics, "metrics", false, "Print event metrics after each build")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "nodekit - build, validate and describe node blueprints\n\n")
		fmt.Fprintf(os.Stderr, "Usage: nodekit [options] blueprint.(yaml|toml)\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExit status is 2 when the tree fails validation.\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  nodekit form.yaml                         Validate and describe\n")
		fmt.Fprintf(os.Stderr, "  nodekit -catalog locales -lang fr f.toml  Localized messages\n")
		fmt.Fprintf(os.Stderr, "  nodekit -w -log-level info form.yaml      Rebuild on save\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(exitOK)
	}

	if showVersion {
		fmt.Printf("nodekit %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(exitOK)
	}

	// Validate log level
	if _, ok := logging.ParseLevel(opts.LogLevel); !ok {
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.LogLevel)
		os.Exit(exitError)
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(exitError)
	}
	opts.Blueprint = flag.Arg(0)

	return opts
}
