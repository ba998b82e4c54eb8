//go:build cgo

package main

import (
	"context"
	"path/filepath"

	"github.com/dusk-indust/learnwatch/internal/config"
	"github.com/dusk-indust/learnwatch/internal/graph"
	"github.com/dusk-indust/learnwatch/internal/logger"
)

// openGraphStore opens the graph snapshot store named by cfg.GraphStore.
// Kuzu keeps snapshots in dataDir/graph between runs.
func openGraphStore(cfg *config.Config, _ *logger.Logger) (graph.Store, error) {
	var store graph.Store = graph.NewMemStore()
	if cfg.GraphStore == "kuzu" {
		ks, err := graph.NewKuzuFileStore(filepath.Join(cfg.DataDir, "graph"))
		if err != nil {
			return nil, err
		}
		store = ks
	}
	if err := store.InitSchema(context.Background()); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}
