package bridge

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/whyash5114/notistore/internal/config"
	"github.com/whyash5114/notistore/internal/errors"
	"github.com/whyash5114/notistore/internal/iconcodec"
	"github.com/whyash5114/notistore/internal/listener"
	"github.com/whyash5114/notistore/internal/notification"
	"github.com/whyash5114/notistore/internal/ops"
	"github.com/whyash5114/notistore/internal/parser"
)

// Deps holds everything the tool handlers need.
type Deps struct {
	DB       *sql.DB
	Settings *config.Manager
	Holder   *listener.Holder
	Platform listener.Platform
	Codec    iconcodec.Codec
	Apps     parser.AppResolver
	BaseDir  string
}

// Handlers holds dependencies for bridge tool handlers.
type Handlers struct {
	deps Deps
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps Deps) *Handlers {
	return &Handlers{deps: deps}
}

func (h *Handlers) parseOptions() parser.Options {
	return parser.Options{Codec: h.deps.Codec, Apps: h.deps.Apps}
}

// Request types for each tool

// ListRequest represents the arguments for notification_list.
type ListRequest struct {
	Cursor *int64          `json:"cursor,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Filter ops.FilterInput `json:"filter,omitempty"`
}

// ExportRequest represents the arguments for notification_export.
type ExportRequest struct {
	Path string `json:"path,omitempty"`
}

// ImportRequest represents the arguments for notification_import.
type ImportRequest struct {
	Path          string                 `json:"path,omitempty"`
	Notifications []*notification.Record `json:"notifications,omitempty"`
}

// AppsRequest represents the arguments for notification_apps.
type AppsRequest struct {
	IncludeIcons bool `json:"includeIcons,omitempty"`
}

// ConfigSetRequest represents the arguments for notification_config_set.
type ConfigSetRequest struct {
	FilterOngoing   *bool    `json:"filterOngoing,omitempty"`
	FilterTransport *bool    `json:"filterTransport,omitempty"`
	LogProgress     *bool    `json:"logProgress,omitempty"`
	StorageLimitMB  *float64 `json:"storageLimitMb,omitempty"`
}

// Handler implementations

// HandleList handles the notification_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.List(h.deps.DB, ops.ListInput{
		Cursor: input.Cursor,
		Limit:  input.Limit,
		Filter: input.Filter,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleActive handles the notification_active tool call.
func (h *Handlers) HandleActive(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Active(h.deps.Holder, h.parseOptions())
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleCount handles the notification_count tool call.
func (h *Handlers) HandleCount(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Count(h.deps.DB)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSize handles the notification_size tool call.
func (h *Handlers) HandleSize(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Size(h.deps.DB)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandlePurge handles the notification_purge tool call.
func (h *Handlers) HandlePurge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Purge(h.deps.DB)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleExport handles the notification_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Export(h.deps.DB, h.deps.BaseDir, ops.ExportInput{Path: input.Path})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleImport handles the notification_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Import(h.deps.DB, h.deps.Settings, ops.ImportInput{
		Path:          input.Path,
		Notifications: input.Notifications,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleApps handles the notification_apps tool call.
func (h *Handlers) HandleApps(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AppsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.InstalledApps(h.deps.Platform, h.deps.Codec, ops.InstalledAppsInput{
		IncludeIcons: input.IncludeIcons,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleAccessStatus handles the notification_access_status tool call.
func (h *Handlers) HandleAccessStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.IsAccessEnabled(h.deps.Platform)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleAccessOpen handles the notification_access_open tool call.
func (h *Handlers) HandleAccessOpen(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.OpenAccessSettings(ctx, h.deps.Platform)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleConfigGet handles the notification_config_get tool call.
func (h *Handlers) HandleConfigGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.GetConfig(h.deps.Settings)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleConfigSet handles the notification_config_set tool call.
func (h *Handlers) HandleConfigSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ConfigSetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.SetConfig(h.deps.DB, h.deps.Settings, ops.SetConfigInput{
		FilterOngoing:   input.FilterOngoing,
		FilterTransport: input.FilterTransport,
		LogProgress:     input.LogProgress,
		StorageLimitMB:  input.StorageLimitMB,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// errorResult creates an MCP error result from any error.
// Structured errors keep their code and status; anything else is
// reported as a generic internal error without leaking its message.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if structured, ok := err.(*errors.Error); ok {
		errorObj := map[string]any{
			"code":    structured.Code,
			"message": structured.Message,
			"status":  structured.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if structured.Code != errors.ErrInternal && structured.Details != nil {
			errorObj["details"] = structured.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result with JSON content.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
