package server

// ApifoxToolServer defines the interface for the MCP server that handles
// Apifox tool calls from MCP clients.
type ApifoxToolServer interface {
	// Initialize registers every tool.
	Initialize() error

	// Start starts the MCP server on the stdio transport.
	Start() error

	// Stop gracefully shuts down the MCP server.
	Stop() error
}

var _ ApifoxToolServer = (*MCPApifoxToolServer)(nil)
