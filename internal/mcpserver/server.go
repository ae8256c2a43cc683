package mcpserver

import (
	"context"
	"log"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverName = "readme-aggregator"

// New creates an MCP server with every tool registered.
func New(reader Reader, version string) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    serverName,
			Version: version,
		},
		nil,
	)
	NewTools(reader).Register(server)
	return server
}

// Run serves the tools over stdio until ctx is done or the client disconnects.
// stdout carries the protocol, so callers must log to stderr.
func Run(ctx context.Context, reader Reader, version string) error {
	server := New(reader, version)
	log.Printf("[mcp] %s v%s ready on stdio", serverName, version)
	return server.Run(ctx, &mcp.StdioTransport{})
}
