//go:build !cgo

package main

import (
	"context"

	"github.com/dusk-indust/learnwatch/internal/config"
	"github.com/dusk-indust/learnwatch/internal/graph"
	"github.com/dusk-indust/learnwatch/internal/logger"
)

func openGraphStore(cfg *config.Config, log *logger.Logger) (graph.Store, error) {
	if cfg.GraphStore == "kuzu" {
		log.Warn("kuzu graph store needs a cgo build, keeping graphs in memory")
	}
	store := graph.NewMemStore()
	if err := store.InitSchema(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}
