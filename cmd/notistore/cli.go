package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/whyash5114/notistore/internal/config"
	"github.com/whyash5114/notistore/internal/errors"
	"github.com/whyash5114/notistore/internal/ops"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, settings *config.Manager, baseDir string) *cli.App {
	app := &cli.App{
		Name:    "notistore",
		Usage:   "Local notification store",
		Version: Version,
		Commands: []*cli.Command{
			listCmd(db),
			countCmd(db),
			sizeCmd(db),
			exportCmd(db, baseDir),
			importCmd(db, settings),
			purgeCmd(db),
			configCmd(db, settings),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// listCmd creates the list command.
func listCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List stored notifications, newest first",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "cursor", Usage: "Pagination cursor (epoch millis, exclusive)"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum notifications to return"},
			&cli.StringFlag{Name: "package", Aliases: []string{"p"}, Usage: "Filter by exact package name"},
			&cli.StringFlag{Name: "category", Usage: "Filter by exact category"},
			&cli.StringFlag{Name: "style", Usage: "Filter by exact style"},
			&cli.StringFlag{Name: "channel", Usage: "Filter by exact channel id"},
			&cli.StringFlag{Name: "text", Usage: "Filter by text substring (case-sensitive)"},
			&cli.StringFlag{Name: "itext", Usage: "Filter by text substring (case-insensitive)"},
			&cli.StringFlag{Name: "title", Usage: "Filter by title substring (case-sensitive)"},
			&cli.StringFlag{Name: "ititle", Usage: "Filter by title substring (case-insensitive)"},
			&cli.StringFlag{Name: "apps", Usage: "Comma-separated app names to match"},
			&cli.BoolFlag{Name: "ongoing", Usage: "Match only ongoing notifications"},
			&cli.BoolFlag{Name: "group-summary", Usage: "Match only group summaries"},
			&cli.Int64Flag{Name: "after", Usage: "Only notifications posted after this epoch-millis time"},
			&cli.Int64Flag{Name: "before", Usage: "Only notifications posted before this epoch-millis time"},
		},
		Action: func(c *cli.Context) error {
			input := ops.ListInput{Limit: c.Int("limit")}

			if c.IsSet("cursor") {
				cursor := c.Int64("cursor")
				input.Cursor = &cursor
			}

			input.Filter = filterFromFlags(c)

			output, err := ops.List(db, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// filterFromFlags maps list flags onto a filter spec. Only flags the
// user actually set become predicates.
func filterFromFlags(c *cli.Context) ops.FilterInput {
	var f ops.FilterInput

	setString := func(flag string, dst **string) {
		if c.IsSet(flag) {
			v := c.String(flag)
			*dst = &v
		}
	}
	setString("package", &f.PackageName)
	setString("category", &f.Category)
	setString("style", &f.Style)
	setString("channel", &f.ChannelID)
	setString("text", &f.TextContains)
	setString("itext", &f.TextContainsI)
	setString("title", &f.TitleContains)
	setString("ititle", &f.TitleContainsI)

	if c.IsSet("ongoing") {
		v := c.Bool("ongoing")
		f.IsOngoing = &v
	}
	if c.IsSet("group-summary") {
		v := c.Bool("group-summary")
		f.IsGroupSummary = &v
	}
	if c.IsSet("apps") {
		f.AppNames = splitList(c.String("apps"))
	}
	if c.IsSet("after") {
		v := c.Int64("after")
		f.After = &v
	}
	if c.IsSet("before") {
		v := c.Int64("before")
		f.Before = &v
	}
	return f
}

// countCmd creates the count command.
func countCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "count",
		Usage: "Count stored notifications",
		Action: func(c *cli.Context) error {
			output, err := ops.Count(db)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// sizeCmd creates the size command.
func sizeCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "size",
		Usage: "Report the aggregate stored text size",
		Action: func(c *cli.Context) error {
			output, err := ops.Size(db)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(db *sql.DB, baseDir string) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export all notifications to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"o"}, Usage: "Destination .jsonl path"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(db, baseDir, ops.ExportInput{Path: c.String("path")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// importCmd creates the import command.
func importCmd(db *sql.DB, settings *config.Manager) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import notifications from a JSONL export file",
		ArgsUsage: "<path>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("path is required"))
			}

			output, err := ops.Import(db, settings, ops.ImportInput{Path: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// purgeCmd creates the purge command.
func purgeCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "purge",
		Usage: "Delete all stored notifications",
		Action: func(c *cli.Context) error {
			output, err := ops.Purge(db)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// configCmd creates the config command. With no flags it prints the
// current settings; with flags it applies a partial update.
func configCmd(db *sql.DB, settings *config.Manager) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Show or update settings",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "filter-ongoing", Usage: "Drop ongoing notifications before storage"},
			&cli.BoolFlag{Name: "filter-transport", Usage: "Drop media transport notifications before storage"},
			&cli.BoolFlag{Name: "log-progress", Usage: "Ingest progress-bearing notifications"},
			&cli.Float64Flag{Name: "storage-limit", Usage: "Storage budget in MB; zero or below means unlimited"},
		},
		Action: func(c *cli.Context) error {
			input := ops.SetConfigInput{}
			changed := false

			if c.IsSet("filter-ongoing") {
				v := c.Bool("filter-ongoing")
				input.FilterOngoing = &v
				changed = true
			}
			if c.IsSet("filter-transport") {
				v := c.Bool("filter-transport")
				input.FilterTransport = &v
				changed = true
			}
			if c.IsSet("log-progress") {
				v := c.Bool("log-progress")
				input.LogProgress = &v
				changed = true
			}
			if c.IsSet("storage-limit") {
				v := c.Float64("storage-limit")
				input.StorageLimitMB = &v
				changed = true
			}

			if !changed {
				output, err := ops.GetConfig(settings)
				if err != nil {
					return outputError(err)
				}
				return outputJSON(output)
			}

			output, err := ops.SetConfig(db, settings, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if structured, ok := err.(*errors.Error); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", structured.Code, structured.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// splitList splits a comma-separated string, trimming blanks.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
