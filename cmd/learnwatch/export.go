package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/learnwatch/internal/config"
	"github.com/dusk-indust/learnwatch/internal/export"
	"github.com/dusk-indust/learnwatch/internal/graph"
	"github.com/dusk-indust/learnwatch/internal/storage"
)

func newExportCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the learner profile and session history as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd.Context(), a, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}

func runExport(ctx context.Context, a *app, output string) error {
	studentID, err := config.ResolveStudentID(a.cfg)
	if err != nil {
		return err
	}
	store, err := storage.NewSQLiteStore(a.cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open profile store: %w", err)
	}
	defer store.Close()

	data, err := export.ExportLearner(ctx, store, studentID, time.Now())
	if err != nil {
		return err
	}

	if output == "" {
		return export.WriteJSON(a.out, data)
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	if err := export.WriteJSON(f, data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func newGraphCmd(a *app) *cobra.Command {
	var stored bool

	cmd := &cobra.Command{
		Use:   "graph <file>",
		Short: "Print a Mermaid diagram of a Python file's structure",
		Long: `Print the structural graph of a Python file (functions, classes, loops,
conditionals, imports and the calls between them) as a Mermaid flowchart.
With --stored the last snapshot saved while watching is used instead of the
file on disk.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd.Context(), a, args[0], stored)
		},
	}
	cmd.Flags().BoolVar(&stored, "stored", false, "use the snapshot saved by the watch loop")
	return cmd
}

func runGraph(ctx context.Context, a *app, file string, stored bool) error {
	abs, err := filepath.Abs(file)
	if err != nil {
		return err
	}

	if stored {
		store, err := openGraphStore(a.cfg, a.log)
		if err != nil {
			return fmt.Errorf("open graph store: %w", err)
		}
		defer store.Close()

		mermaid, err := export.GenerateMermaidForFile(ctx, store, abs)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(a.out, mermaid)
		return err
	}

	code, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}
	g, err := graph.NewTreeSitterBuilder().BuildFromCode(string(code)).Get()
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(a.out, export.GenerateMermaid(g))
	return err
}
