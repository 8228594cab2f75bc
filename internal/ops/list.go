// Package ops implements the operations exposed over the bridge and the
// CLI. Each operation takes an Input struct and returns an Output
// struct; handlers and commands stay thin.
package ops

import (
	"database/sql"

	"github.com/whyash5114/notistore/internal/db"
	"github.com/whyash5114/notistore/internal/notification"
)

// FilterInput is the wire-level filter spec. Every field is optional;
// present fields are AND-combined.
type FilterInput struct {
	TextContains   *string `json:"textContains,omitempty"`
	TextContainsI  *string `json:"textContainsInsensitive,omitempty"`
	TitleContains  *string `json:"titleContains,omitempty"`
	TitleContainsI *string `json:"titleContainsInsensitive,omitempty"`

	PackageName *string `json:"packageName,omitempty"`
	Category    *string `json:"category,omitempty"`
	Style       *string `json:"style,omitempty"`
	ChannelID   *string `json:"channelId,omitempty"`

	IsOngoing      *bool `json:"isOngoing,omitempty"`
	IsGroupSummary *bool `json:"isGroupSummary,omitempty"`

	AppNames []string `json:"appNames,omitempty"`

	After  *int64 `json:"after,omitempty"`
	Before *int64 `json:"before,omitempty"`
}

func (f FilterInput) toFilters() db.Filters {
	return db.Filters{
		TextContains:   f.TextContains,
		TextContainsI:  f.TextContainsI,
		TitleContains:  f.TitleContains,
		TitleContainsI: f.TitleContainsI,
		PackageName:    f.PackageName,
		Category:       f.Category,
		Style:          f.Style,
		ChannelID:      f.ChannelID,
		IsOngoing:      f.IsOngoing,
		IsGroupSummary: f.IsGroupSummary,
		AppNames:       f.AppNames,
		After:          f.After,
		Before:         f.Before,
	}
}

// ListInput contains parameters for the List operation.
type ListInput struct {
	Cursor *int64      `json:"cursor,omitempty"`
	Limit  int         `json:"limit,omitempty"`
	Filter FilterInput `json:"filter,omitempty"`
}

// ListOutput contains one page of stored notifications, newest first.
type ListOutput struct {
	Notifications []*notification.Record `json:"notifications"`
	Count         int                    `json:"count"`
	NextCursor    *int64                 `json:"nextCursor,omitempty"`
}

// List returns stored notifications matching the filter, paginated by
// post time. NextCursor is set when the page was full, so another page
// may exist; pass it back as Cursor to continue.
func List(database *sql.DB, input ListInput) (*ListOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = db.DefaultQueryLimit
	}

	records, err := db.QueryFiltered(database, input.Filter.toFilters(), input.Cursor, limit)
	if err != nil {
		return nil, err
	}

	output := &ListOutput{
		Notifications: records,
		Count:         len(records),
	}
	if len(records) == limit {
		last := records[len(records)-1].PostTime
		output.NextCursor = &last
	}
	if output.Notifications == nil {
		output.Notifications = []*notification.Record{}
	}
	return output, nil
}
