package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer creates a configured MCP server with all subledger tools registered.
func NewMCPServer(cfg Config) *server.MCPServer {
	s := server.NewMCPServer("subledger", "0.1.0")
	client := NewSubledgerClient(cfg)
	h := NewHandlers(client)

	s.AddTool(ToolLookupPlan, h.HandleLookupPlan)
	s.AddTool(ToolGetEntitlement, h.HandleGetEntitlement)
	s.AddTool(ToolListSubscriptions, h.HandleListSubscriptions)

	return s
}
