// Package mcp exposes the training log to MCP clients as read-only tools
// and resources.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("calilog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("calilog calisthenics training log. List exercises and programs, read the latest recorded session of an exercise and the history of interval circuits."),
	)

	h := &handlers{ds: ds, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
		server.ServerTool{Tool: toolListPrograms, Handler: h.listPrograms},
		server.ServerTool{Tool: toolGetProgram, Handler: h.getProgram},
		server.ServerTool{Tool: toolGetLatestSession, Handler: h.getLatestSession},
		server.ServerTool{Tool: toolListIntervalPrograms, Handler: h.listIntervalPrograms},
		server.ServerTool{Tool: toolListIntervalRecords, Handler: h.listIntervalRecords},
		server.ServerTool{Tool: toolGetStats, Handler: h.getStats},
	)

	s.AddResources(
		server.ServerResource{Resource: resCatalog, Handler: h.catalog},
		server.ServerResource{Resource: resRecentIntervals, Handler: h.recentIntervals},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resCatalog = mcp.NewResource(
	"calilog://catalog",
	"Catalog",
	mcp.WithResourceDescription("All exercises, programs and interval programs"),
	mcp.WithMIMEType("application/json"),
)

var resRecentIntervals = mcp.NewResource(
	"calilog://recent_interval_records",
	"Recent Interval Runs",
	mcp.WithResourceDescription("The ten most recent interval circuit runs"),
	mcp.WithMIMEType("application/json"),
)
