package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/learnwatch/internal/config"
	"github.com/dusk-indust/learnwatch/internal/logger"
)

// version is set by goreleaser at build time.
var version = "dev"

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configDir string
	logMode   string
	logLevel  string

	cfg *config.Config
	log *logger.Logger
	out io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	a := &app{out: out}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(out)
	return root.ExecuteContext(ctx)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "learnwatch",
		Short: "Watch Python files and hint at code you deleted to practice",
		Long: `learnwatch watches a Python file or directory while you delete a piece of
working code and write it again from memory. When a deletion is detected it
shows a hint that gets more concrete the longer you are stuck, runs your tests
when there are any, and tracks which patterns you have mastered.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a.log != nil {
				a.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", ".", "directory holding learnwatch.yml and .env")
	root.PersistentFlags().StringVar(&a.logMode, "log-mode", "", "log format: dev or prod (overrides config)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error (overrides config)")

	root.AddCommand(
		newWatchCmd(a),
		newStatusCmd(a),
		newExportCmd(a),
		newGraphCmd(a),
		newServeMCPCmd(a),
		newVersionCmd(a),
	)
	return root
}

// load reads the configuration and builds the logger.
func (a *app) load() error {
	cfg, err := config.Load(a.configDir)
	if err != nil {
		return err
	}
	if a.logMode != "" {
		cfg.LogMode = a.logMode
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}

	log, err := logger.New(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	a.cfg = cfg
	a.log = log
	return nil
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the learnwatch version",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(a.out, version)
			return err
		},
	}
}
