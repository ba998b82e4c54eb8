package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/learnwatch/internal/config"
	"github.com/dusk-indust/learnwatch/internal/feedback"
	"github.com/dusk-indust/learnwatch/internal/graph"
	"github.com/dusk-indust/learnwatch/internal/hint"
	"github.com/dusk-indust/learnwatch/internal/llm"
	"github.com/dusk-indust/learnwatch/internal/pipeline"
	"github.com/dusk-indust/learnwatch/internal/proficiency"
	"github.com/dusk-indust/learnwatch/internal/storage"
	"github.com/dusk-indust/learnwatch/internal/testrun"
	"github.com/dusk-indust/learnwatch/internal/ui"
	"github.com/dusk-indust/learnwatch/internal/watch"
)

const llmTimeout = 20 * time.Second

func newWatchCmd(a *app) *cobra.Command {
	var tick time.Duration

	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Watch a Python file or directory and show hints",
		Long: `Watch a Python file, or every Python file under a directory. Delete some
code and start rewriting it: learnwatch shows a level 1 hint at once and moves
to the next level every 30 seconds you stay stuck.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}
			return runWatch(cmd.Context(), a, path, tick)
		},
	}
	cmd.Flags().DurationVar(&tick, "tick", 5*time.Second, "how often to re-check an idle learner for hint escalation")
	return cmd
}

func runWatch(ctx context.Context, a *app, path string, tick time.Duration) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot watch %s: %w", path, err)
	}

	studentID, err := config.ResolveStudentID(a.cfg)
	if err != nil {
		return err
	}

	store, err := storage.NewSQLiteStore(a.cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open profile store: %w", err)
	}
	defer store.Close()

	graphs, err := openGraphStore(a.cfg, a.log)
	if err != nil {
		return fmt.Errorf("open graph store: %w", err)
	}
	defer graphs.Close()

	runner := testrun.NewPytestRunner(
		testrun.WithBinary(a.cfg.PytestBinary),
		testrun.WithTimeout(a.cfg.TestTimeout),
		testrun.WithLogger(a.log),
	)

	w, err := watch.New(path,
		watch.WithDebounce(a.cfg.Debounce),
		watch.WithIgnoreDirs(a.cfg.IgnoreDirs...),
		watch.WithLogger(a.log),
	)
	if err != nil {
		return err
	}

	queue := ui.NewQueue(0)
	p := pipeline.New(studentID,
		pipeline.WithCoordinator(feedback.NewCoordinator(graph.NewTreeSitterBuilder(), runner, proficiency.SimpleCalculator{}, a.log)),
		pipeline.WithHintEngine(newHintEngine(a.cfg)),
		pipeline.WithEnricher(newEnricher(ctx, a)),
		pipeline.WithLocator(testrun.NewLocator(nil)),
		pipeline.WithStore(store),
		pipeline.WithGraphStore(graphs),
		pipeline.WithEmitter(queue),
		pipeline.WithLogger(a.log.With("student", studentID)),
	)

	queue.Emit(ui.Event{Kind: ui.EventInfo, Message: fmt.Sprintf("Watching %d file(s) under %s. Press Ctrl+C to stop.", len(w.Files()), path)})
	a.log.Info("watching", "path", path, "files", len(w.Files()), "student", studentID)

	changes := make(chan watch.Change)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(gctx, changes) })
	g.Go(func() error { return p.Run(gctx, changes, tick) })
	g.Go(func() error { return queue.Run(gctx, a.out) })
	return g.Wait()
}

func newHintEngine(cfg *config.Config) *hint.Engine {
	if cfg.Seed != 0 {
		return hint.NewSeededEngine(cfg.Seed)
	}
	return hint.NewEngine(nil)
}

// newEnricher returns an Enricher over the configured LLM providers, or nil
// when none is configured or reachable. Hints then use template text.
func newEnricher(ctx context.Context, a *app) *hint.Enricher {
	if !a.cfg.LLM.Enabled() {
		return nil
	}
	provider, err := llm.New(ctx, a.cfg.LLM.ProviderConfig(), a.log)
	if err != nil {
		a.log.Warn("llm unavailable, using template hints", "err", err)
		return nil
	}
	if provider == nil {
		return nil
	}
	return hint.NewEnricher(provider, llmTimeout, a.log)
}
