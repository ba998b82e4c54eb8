package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/learnwatch/internal/config"
	"github.com/dusk-indust/learnwatch/internal/graph"
	"github.com/dusk-indust/learnwatch/internal/mcptools"
	"github.com/dusk-indust/learnwatch/internal/storage"
)

func newServeMCPCmd(a *app) *cobra.Command {
	var httpAddr string

	cmd := &cobra.Command{
		Use:   "serve-mcp",
		Short: "Run the learning tools as an MCP server",
		Long: `Run an MCP server exposing analyze_change, build_graph, query_graph,
generate_hint and get_status. Stdio is used unless --http is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeMCP(cmd.Context(), a, httpAddr)
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http", "", "serve streamable HTTP on this address (e.g. :8765) instead of stdio")
	return cmd
}

func runServeMCP(ctx context.Context, a *app, httpAddr string) error {
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

	svc := mcptools.NewLearnService(graph.NewTreeSitterBuilder(), graphs, newHintEngine(a.cfg), store, studentID)
	svc.SetEnricher(newEnricher(ctx, a))

	server := mcptools.NewLearnMCPServer(svc)
	if httpAddr != "" {
		a.log.Info("serving mcp over http", "addr", httpAddr)
		return mcptools.RunMCPServerHTTP(ctx, server, httpAddr)
	}
	return mcptools.RunMCPServerStdio(ctx, server)
}
