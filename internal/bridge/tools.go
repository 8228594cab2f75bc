package bridge

import "github.com/mark3labs/mcp-go/mcp"

// filterProperties is the JSON schema for the query filter object,
// shared by the tools that accept one.
var filterProperties = map[string]any{
	"textContains": map[string]any{
		"type":        "string",
		"description": "Case-sensitive substring match on the notification text",
	},
	"textContainsInsensitive": map[string]any{
		"type":        "string",
		"description": "Case-insensitive substring match on the notification text",
	},
	"titleContains": map[string]any{
		"type":        "string",
		"description": "Case-sensitive substring match on the notification title",
	},
	"titleContainsInsensitive": map[string]any{
		"type":        "string",
		"description": "Case-insensitive substring match on the notification title",
	},
	"packageName": map[string]any{
		"type":        "string",
		"description": "Exact package name match",
	},
	"category": map[string]any{
		"type":        "string",
		"description": "Exact category match",
	},
	"style": map[string]any{
		"type":        "string",
		"description": "Exact style match (e.g. BigTextStyle, MessagingStyle, default)",
	},
	"channelId": map[string]any{
		"type":        "string",
		"description": "Exact channel id match",
	},
	"isOngoing": map[string]any{
		"type":        "boolean",
		"description": "Match only ongoing (or only non-ongoing) notifications",
	},
	"isGroupSummary": map[string]any{
		"type":        "boolean",
		"description": "Match only group summaries (or only non-summaries)",
	},
	"appNames": map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": "Match any of these app names",
	},
	"after": map[string]any{
		"type":        "number",
		"description": "Only notifications posted after this epoch-millis timestamp",
	},
	"before": map[string]any{
		"type":        "number",
		"description": "Only notifications posted before this epoch-millis timestamp",
	},
}

var listToolDef = mcp.NewTool("notification_list",
	mcp.WithDescription("List stored notifications, newest first, with cursor pagination and optional filters. Pass the returned nextCursor back as cursor to fetch the next page."),
	mcp.WithNumber("cursor",
		mcp.Description("Pagination cursor: only notifications posted strictly before this epoch-millis timestamp are returned"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum notifications to return (default 10)"),
	),
	mcp.WithObject("filter",
		mcp.Description("Optional filter spec; present fields are AND-combined"),
		mcp.Properties(filterProperties),
	),
)

var activeToolDef = mcp.NewTool("notification_active",
	mcp.WithDescription("Snapshot the notifications currently in the status bar. Requires a connected listener service; the snapshot is not persisted."),
)

var countToolDef = mcp.NewTool("notification_count",
	mcp.WithDescription("Count stored notifications."),
)

var sizeToolDef = mcp.NewTool("notification_size",
	mcp.WithDescription("Report the aggregate stored text size in bytes and megabytes."),
)

var purgeToolDef = mcp.NewTool("notification_purge",
	mcp.WithDescription("Delete all stored notifications. Settings are unaffected."),
)

var exportToolDef = mcp.NewTool("notification_export",
	mcp.WithDescription("Export all stored notifications to a JSONL file."),
	mcp.WithString("path",
		mcp.Description("Destination .jsonl path (defaults to the exports directory)"),
	),
)

var importToolDef = mcp.NewTool("notification_import",
	mcp.WithDescription("Import notifications from a JSONL export file or from an inline array. Exactly one of path or notifications is required; malformed entries are skipped and reported."),
	mcp.WithString("path",
		mcp.Description("Source .jsonl path"),
	),
	mcp.WithArray("notifications",
		mcp.Description("Notification records to store directly, in the export record shape"),
		mcp.Items(map[string]any{"type": "object"}),
	),
)

var appsToolDef = mcp.NewTool("notification_apps",
	mcp.WithDescription("List installed applications, for use as appNames filter values."),
	mcp.WithBoolean("includeIcons",
		mcp.Description("Encode launcher icons into the response (large payloads)"),
	),
)

var accessStatusToolDef = mcp.NewTool("notification_access_status",
	mcp.WithDescription("Report whether notification access is granted."),
)

var accessOpenToolDef = mcp.NewTool("notification_access_open",
	mcp.WithDescription("Open the platform's notification access settings screen."),
)

var configGetToolDef = mcp.NewTool("notification_config_get",
	mcp.WithDescription("Read the current settings: ingestion filters and the storage budget."),
)

var configSetToolDef = mcp.NewTool("notification_config_set",
	mcp.WithDescription("Update settings. Only provided fields change; a storageLimitMb of zero or below removes the budget."),
	mcp.WithBoolean("filterOngoing",
		mcp.Description("Drop ongoing notifications before storage"),
	),
	mcp.WithBoolean("filterTransport",
		mcp.Description("Drop media transport notifications before storage"),
	),
	mcp.WithBoolean("logProgress",
		mcp.Description("Ingest progress-bearing notifications"),
	),
	mcp.WithNumber("storageLimitMb",
		mcp.Description("Storage budget in megabytes; zero or below means unlimited"),
	),
)
