package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewLearnMCPServer creates an MCP server with the learning tools registered.
func NewLearnMCPServer(svc *LearnService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "learnwatch",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_change",
		Description: "Compare two versions of a Python file. Returns the deleted lines, the deleted functions and the kind of construct that went missing (loops, conditionals, functions, ...).",
	}, svc.AnalyzeChange)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "build_graph",
		Description: "Parse Python source with tree-sitter into a structural graph of functions, classes, loops, conditionals, imports and call edges. The graph is stored under filePath for query_graph.",
	}, svc.BuildGraph)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_graph",
		Description: "Query a stored structural graph: a node by id, its neighbors, dependencies, calls or callers, the nodes related to a pattern kind, or all nodes of a kind.",
	}, svc.QueryGraph)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_hint",
		Description: "Classify a deletion and return a progressive hint at the requested level (1 conceptual to 4 code template). Never reveals the deleted code.",
	}, svc.GenerateHint)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_status",
		Description: "Return a learner's per-pattern mastery, attempts and session counts.",
	}, svc.GetStatus)

	return server
}

// RunMCPServerStdio runs the server on stdio, blocking until stdin is closed
// or ctx is cancelled.
func RunMCPServerStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// RunMCPServerHTTP serves the MCP tools over streamable HTTP on addr.
func RunMCPServerHTTP(ctx context.Context, server *mcp.Server, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
