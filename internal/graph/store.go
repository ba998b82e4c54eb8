package graph

import (
	"context"
	"io"
)

// Store keeps the most recent structural graph of each watched file so the
// CLI and tool server can show it after the watch loop has moved on.
// Implementations: KuzuStore (cgo builds), MemStore (everything else and
// tests).
type Store interface {
	io.Closer

	// InitSchema prepares the backend; called once before any write.
	InitSchema(ctx context.Context) error

	// SaveGraph replaces the snapshot stored for file.
	SaveGraph(ctx context.Context, file string, g CodeGraph) error

	// LoadGraph returns the snapshot for file, reporting false when none exists.
	LoadGraph(ctx context.Context, file string) (CodeGraph, bool, error)

	// Files lists the files that have a snapshot.
	Files(ctx context.Context) ([]string, error)

	// Stats counts nodes and edges across all snapshots.
	Stats(ctx context.Context) (*Stats, error)
}
