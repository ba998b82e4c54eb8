//go:build cgo

package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	kuzu "github.com/kuzudb/go-kuzu"
)

// KuzuStore implements the Store interface using KuzuDB as the graph backend.
// It requires CGO because the go-kuzu driver wraps KuzuDB's C library.
// Operations are serialized because a transaction belongs to the connection.
type KuzuStore struct {
	mu   sync.Mutex
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	return openKuzu(":memory:")
}

// NewKuzuFileStore creates a KuzuStore backed by a file-based KuzuDB at the
// given path, so snapshots survive between runs of the CLI.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	// KuzuDB creates the leaf itself.
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	return openKuzu(dbPath)
}

func openKuzu(path string) (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ---------- Schema setup ----------

// ddlStatements defines the Cypher DDL executed by InitSchema.
// Node tables must precede relationship tables.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Snapshot(
		file STRING,
		PRIMARY KEY(file)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS CodeNode(
		key STRING,
		file STRING,
		id STRING,
		kind STRING,
		name STRING,
		line INT64,
		seq INT64,
		metadata STRING,
		PRIMARY KEY(key)
	)`,
	`CREATE REL TABLE IF NOT EXISTS LINK(
		FROM CodeNode TO CodeNode,
		kind STRING,
		weight DOUBLE,
		seq INT64
	)`,
}

// InitSchema creates all node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// ---------- Write operations ----------

// SaveGraph replaces the snapshot for file. Edges whose endpoints are not
// nodes of g cannot be represented as relationships and are not stored.
// The replacement runs in one transaction: on any failure the previous
// snapshot is still the stored one.
func (s *KuzuStore) SaveGraph(_ context.Context, file string, g CodeGraph) error {
	nodes := g.Nodes()
	metas := make([]string, len(nodes))
	for i, n := range nodes {
		meta, err := json.Marshal(n.Metadata)
		if err != nil {
			return fmt.Errorf("kuzu: encode metadata for %s: %w", n.ID, err)
		}
		metas[i] = string(meta)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.run("BEGIN TRANSACTION"); err != nil {
		return err
	}
	if err := s.writeSnapshot(file, g, nodes, metas); err != nil {
		// Kuzu may already have rolled back after the failed statement.
		_ = s.run("ROLLBACK")
		return err
	}
	return s.run("COMMIT")
}

func (s *KuzuStore) writeSnapshot(file string, g CodeGraph, nodes []Node, metas []string) error {
	if err := s.deleteSnapshot(file); err != nil {
		return err
	}
	if err := s.exec("CREATE (:Snapshot {file: $file})", map[string]any{"file": file}); err != nil {
		return err
	}

	for i, n := range nodes {
		err := s.exec(
			`CREATE (:CodeNode {
				key: $key,
				file: $file,
				id: $id,
				kind: $kind,
				name: $name,
				line: $line,
				seq: $seq,
				metadata: $meta
			})`,
			map[string]any{
				"key":  nodeKey(file, n.ID),
				"file": file,
				"id":   n.ID,
				"kind": string(n.Kind),
				"name": n.Name,
				"line": int64(n.Line),
				"seq":  int64(i),
				"meta": metas[i],
			},
		)
		if err != nil {
			return err
		}
	}

	for i, e := range g.Edges() {
		if _, ok := g.Node(e.SourceID); !ok {
			continue
		}
		if _, ok := g.Node(e.TargetID); !ok {
			continue
		}
		err := s.exec(
			`MATCH (a:CodeNode {key: $src}), (b:CodeNode {key: $dst})
			 CREATE (a)-[:LINK {kind: $kind, weight: $weight, seq: $seq}]->(b)`,
			map[string]any{
				"src":    nodeKey(file, e.SourceID),
				"dst":    nodeKey(file, e.TargetID),
				"kind":   string(e.Kind),
				"weight": e.Weight,
				"seq":    int64(i),
			},
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *KuzuStore) deleteSnapshot(file string) error {
	params := map[string]any{"file": file}
	if err := s.exec("MATCH (n:CodeNode) WHERE n.file = $file DETACH DELETE n", params); err != nil {
		return err
	}
	return s.exec("MATCH (s:Snapshot) WHERE s.file = $file DELETE s", params)
}

// ---------- Read operations ----------

// LoadGraph rebuilds the snapshot for file in its original insertion order.
func (s *KuzuStore) LoadGraph(_ context.Context, file string) (CodeGraph, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	params := map[string]any{"file": file}

	marker, err := s.query("MATCH (s:Snapshot) WHERE s.file = $file RETURN s.file", params)
	if err != nil {
		return CodeGraph{}, false, err
	}
	if len(marker) == 0 {
		return CodeGraph{}, false, nil
	}

	nodeRows, err := s.query(
		`MATCH (n:CodeNode) WHERE n.file = $file
		 RETURN n.id, n.kind, n.name, n.line, n.metadata
		 ORDER BY n.seq`,
		params,
	)
	if err != nil {
		return CodeGraph{}, false, err
	}
	nodes := make([]Node, 0, len(nodeRows))
	for _, r := range nodeRows {
		var meta map[string]any
		if raw := toString(r[4]); raw != "" && raw != "null" {
			if err := json.Unmarshal([]byte(raw), &meta); err != nil {
				return CodeGraph{}, false, fmt.Errorf("kuzu: decode metadata: %w", err)
			}
		}
		nodes = append(nodes, Node{
			ID:       toString(r[0]),
			Kind:     NodeKind(toString(r[1])),
			Name:     toString(r[2]),
			Line:     toInt(r[3]),
			Metadata: meta,
		})
	}

	edgeRows, err := s.query(
		`MATCH (a:CodeNode)-[r:LINK]->(b:CodeNode) WHERE a.file = $file
		 RETURN a.id, b.id, r.kind, r.weight
		 ORDER BY r.seq`,
		params,
	)
	if err != nil {
		return CodeGraph{}, false, err
	}
	edges := make([]Edge, 0, len(edgeRows))
	for _, r := range edgeRows {
		edges = append(edges, Edge{
			SourceID: toString(r[0]),
			TargetID: toString(r[1]),
			Kind:     EdgeKind(toString(r[2])),
			Weight:   toFloat64(r[3]),
		})
	}

	return FromParts(nodes, edges), true, nil
}

// Files lists every file with a stored snapshot.
func (s *KuzuStore) Files(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.query("MATCH (s:Snapshot) RETURN s.file ORDER BY s.file", nil)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, toString(r[0]))
	}
	return out, nil
}

// ---------- Stats ----------

// Stats returns node and relationship counts across all snapshots.
func (s *KuzuStore) Stats(_ context.Context) (*Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nodes, err := s.count("MATCH (n:CodeNode) RETURN count(n)")
	if err != nil {
		return nil, err
	}
	edges, err := s.count("MATCH ()-[r:LINK]->() RETURN count(r)")
	if err != nil {
		return nil, err
	}
	return &Stats{NodeCount: nodes, EdgeCount: edges}, nil
}

// ---------- Internal helpers ----------

// run executes a statement without parameters, such as transaction control.
func (s *KuzuStore) run(cypher string) error {
	res, err := s.conn.Query(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: %s: %w", cypher, err)
	}
	res.Close()
	return nil
}

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a parameterized Cypher statement and collects all result rows.
// Each row is a []any slice with values in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

func (s *KuzuStore) count(cypher string) (int, error) {
	rows, err := s.query(cypher, nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

// nodeKey scopes a per-build node id to its file.
func nodeKey(file, id string) string {
	return file + "#" + id
}

// ---------- Type coercion helpers ----------
// KuzuDB returns typed Go values (int64, float64, bool, string).

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
