// Package bridge exposes the notification store over MCP: one tool per
// operation, plus a push notification for live records.
package bridge

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/whyash5114/notistore/internal/ingest"
)

// PostedMethod is the notification method pushed to clients for every
// accepted live record.
const PostedMethod = "notifications/posted"

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"notification_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"notification_active": {
		def:     activeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleActive },
	},
	"notification_count": {
		def:     countToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCount },
	},
	"notification_size": {
		def:     sizeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSize },
	},
	"notification_purge": {
		def:     purgeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePurge },
	},
	"notification_export": {
		def:     exportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExport },
	},
	"notification_import": {
		def:     importToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleImport },
	},
	"notification_apps": {
		def:     appsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleApps },
	},
	"notification_access_status": {
		def:     accessStatusToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAccessStatus },
	},
	"notification_access_open": {
		def:     accessOpenToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAccessOpen },
	},
	"notification_config_get": {
		def:     configGetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleConfigGet },
	},
	"notification_config_set": {
		def:     configSetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleConfigSet },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates an MCP server with the notification tools
// registered. Tools listed in the settings' disabled_tools are excluded
// from registration.
func NewServer(deps Deps, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"notistore",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(deps)

	disabled := make(map[string]bool)
	for _, name := range deps.Settings.Get().DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server on stdio and, when a pipeline is given,
// forwards every accepted live record to connected clients as a
// notifications/posted push. Run blocks until the client disconnects or
// ctx is cancelled.
func Run(ctx context.Context, deps Deps, pipeline *ingest.Pipeline, version string, log zerolog.Logger) error {
	s := NewServer(deps, version)

	if pipeline != nil {
		records, cancel := pipeline.Subscribe()
		defer cancel()
		go func() {
			for record := range records {
				s.SendNotificationToAllClients(PostedMethod, map[string]any{
					"notification": record,
				})
				log.Debug().Str("id", record.ID).Str("package", record.PackageName).
					Msg("posted push sent")
			}
		}()
	}

	return server.ServeStdio(s)
}
