package db

import (
	"database/sql"
	"encoding/json"

	"github.com/whyash5114/notistore/internal/errors"
	"github.com/whyash5114/notistore/internal/notification"
)

// recordColumns is the canonical column list shared by every SELECT.
const recordColumns = `
	id, package_name, app_name, title, text, sub_text, info_text,
	summary_text, post_time, small_icon, large_icon, app_icon, category,
	style, group_key, is_group_summary, channel_id, actions_json,
	is_ongoing, auto_cancel, is_local_only, priority, number, big_text,
	big_picture, picture_content_description, inbox_lines_json,
	conversation_title, is_group_conversation, messages_json, progress,
	progress_max, progress_indeterminate, caller_name`

// InsertOrReplace upserts a record by id. Replacing an existing id
// fully overwrites the row; there is no partial-field merge.
func InsertOrReplace(database *sql.DB, r *notification.Record) error {
	r.EnsureDefaults()

	actionsJSON, err := json.Marshal(r.Actions)
	if err != nil {
		return errors.NewInternal(err)
	}
	inboxJSON, err := json.Marshal(r.InboxLines)
	if err != nil {
		return errors.NewInternal(err)
	}
	messagesJSON, err := json.Marshal(r.Messages)
	if err != nil {
		return errors.NewInternal(err)
	}

	var progress, progressMax int
	var progressIndeterminate bool
	if r.Progress != nil {
		progress = r.Progress.Current
		progressMax = r.Progress.Max
		progressIndeterminate = r.Progress.Indeterminate
	}

	query := `
		INSERT OR REPLACE INTO notifications (` + recordColumns + `
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
		          ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = database.Exec(query,
		r.ID, r.PackageName, r.AppName,
		toNullString(r.Title), toNullString(r.Text), toNullString(r.SubText),
		toNullString(r.InfoText), toNullString(r.SummaryText),
		r.PostTime,
		toNullString(r.SmallIcon), toNullString(r.LargeIcon), toNullString(r.AppIcon),
		r.Category, string(r.Style), r.GroupKey, r.IsGroupSummary, r.ChannelID,
		string(actionsJSON),
		r.IsOngoing, r.AutoCancel, r.IsLocalOnly, r.Priority, r.Number,
		toNullString(r.BigText), toNullString(r.BigPicture),
		toNullString(r.PictureContentDescription),
		string(inboxJSON),
		toNullString(r.ConversationTitle), r.IsGroupConversation,
		string(messagesJSON),
		progress, progressMax, progressIndeterminate,
		toNullString(r.CallerName),
	)
	if err != nil {
		return errors.NewStorageFailure(err)
	}
	return nil
}

// GetByCursor returns records strictly older than cursor (all records
// when cursor is nil), newest first, truncated to limit. The next
// page's cursor is the PostTime of the last returned record.
func GetByCursor(database *sql.DB, cursor *int64, limit int) ([]*notification.Record, error) {
	return QueryFiltered(database, Filters{}, cursor, limit)
}

// QueryFiltered applies the filter spec on top of the GetByCursor
// ordering and pagination contract.
func QueryFiltered(database *sql.DB, f Filters, cursor *int64, limit int) ([]*notification.Record, error) {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	where, args := f.build(cursor)
	query := `SELECT ` + recordColumns + ` FROM notifications` + where +
		` ORDER BY post_time DESC, id DESC LIMIT ?`
	args = append(args, limit)

	return queryRecords(database, query, args)
}

// PageCursor is a position in the newest-first (post_time, id) total
// order. GetByCursor's post_time-only cursor skips rows that tie with
// the page boundary; a full scan must page with this cursor instead.
type PageCursor struct {
	PostTime int64
	ID       string
}

// GetPage returns up to limit records strictly after cursor in the
// newest-first total order, or the newest records when cursor is nil.
// The next page's cursor is (PostTime, ID) of the last returned record.
func GetPage(database *sql.DB, cursor *PageCursor, limit int) ([]*notification.Record, error) {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	query := `SELECT ` + recordColumns + ` FROM notifications`
	var args []any
	if cursor != nil {
		query += ` WHERE post_time < ? OR (post_time = ? AND id < ?)`
		args = append(args, cursor.PostTime, cursor.PostTime, cursor.ID)
	}
	query += ` ORDER BY post_time DESC, id DESC LIMIT ?`
	args = append(args, limit)

	return queryRecords(database, query, args)
}

func queryRecords(database *sql.DB, query string, args []any) ([]*notification.Record, error) {
	rows, err := database.Query(query, args...)
	if err != nil {
		return nil, errors.NewStorageFailure(err)
	}
	defer rows.Close()

	var records []*notification.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, errors.NewStorageFailure(err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageFailure(err)
	}
	return records, nil
}

// TotalCount returns the number of stored records.
func TotalCount(database *sql.DB) (int64, error) {
	var count int64
	if err := database.QueryRow(`SELECT COUNT(*) FROM notifications`).Scan(&count); err != nil {
		return 0, errors.NewStorageFailure(err)
	}
	return count, nil
}

// AggregateSizeBytes sums the byte length of every variable-length text
// field across all records. This approximates the on-disk footprint;
// the engine-reported file size is unreliable after deletes without
// compaction.
func AggregateSizeBytes(database *sql.DB) (int64, error) {
	query := `
		SELECT COALESCE(SUM(
			COALESCE(LENGTH(CAST(title AS BLOB)), 0) +
			COALESCE(LENGTH(CAST(text AS BLOB)), 0) +
			COALESCE(LENGTH(CAST(sub_text AS BLOB)), 0) +
			COALESCE(LENGTH(CAST(info_text AS BLOB)), 0) +
			COALESCE(LENGTH(CAST(summary_text AS BLOB)), 0) +
			COALESCE(LENGTH(CAST(small_icon AS BLOB)), 0) +
			COALESCE(LENGTH(CAST(large_icon AS BLOB)), 0) +
			COALESCE(LENGTH(CAST(app_icon AS BLOB)), 0) +
			COALESCE(LENGTH(CAST(actions_json AS BLOB)), 0) +
			COALESCE(LENGTH(CAST(big_text AS BLOB)), 0) +
			COALESCE(LENGTH(CAST(big_picture AS BLOB)), 0) +
			COALESCE(LENGTH(CAST(picture_content_description AS BLOB)), 0) +
			COALESCE(LENGTH(CAST(inbox_lines_json AS BLOB)), 0) +
			COALESCE(LENGTH(CAST(conversation_title AS BLOB)), 0) +
			COALESCE(LENGTH(CAST(messages_json AS BLOB)), 0) +
			COALESCE(LENGTH(CAST(caller_name AS BLOB)), 0)
		), 0) FROM notifications
	`
	var size int64
	if err := database.QueryRow(query).Scan(&size); err != nil {
		return 0, errors.NewStorageFailure(err)
	}
	return size, nil
}

// DeleteOldest deletes the n records with the smallest post_time, ties
// broken by id so repeated runs are deterministic. Deletes fewer when
// the store holds less than n.
func DeleteOldest(database *sql.DB, n int) (int64, error) {
	if n <= 0 {
		return 0, nil
	}
	result, err := database.Exec(`
		DELETE FROM notifications WHERE id IN (
			SELECT id FROM notifications ORDER BY post_time ASC, id ASC LIMIT ?
		)`, n)
	if err != nil {
		return 0, errors.NewStorageFailure(err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewStorageFailure(err)
	}
	return deleted, nil
}

// DeleteAll removes every stored record.
func DeleteAll(database *sql.DB) error {
	if _, err := database.Exec(`DELETE FROM notifications`); err != nil {
		return errors.NewStorageFailure(err)
	}
	return nil
}

// EvictBatch is how many records one eviction pass deletes before the
// aggregate size is recomputed. A tuning constant, not a correctness
// value: the final state only has to satisfy the budget.
const EvictBatch = 10

// EnforceStorageLimit deletes oldest records in batches until the
// aggregate text size fits limitBytes. A non-positive limit means
// unlimited and is a no-op. The loop is not atomic with respect to
// concurrent inserts; each statement is, which is enough for eventual
// convergence toward the budget.
func EnforceStorageLimit(database *sql.DB, limitBytes int64) (int64, error) {
	if limitBytes <= 0 {
		return 0, nil
	}

	var totalDeleted int64
	for {
		size, err := AggregateSizeBytes(database)
		if err != nil {
			return totalDeleted, err
		}
		if size <= limitBytes {
			return totalDeleted, nil
		}

		deleted, err := DeleteOldest(database, EvictBatch)
		if err != nil {
			return totalDeleted, err
		}
		totalDeleted += deleted

		count, err := TotalCount(database)
		if err != nil {
			return totalDeleted, err
		}
		// Safety valve: an empty store that still "exceeds" the limit
		// means the limit is below the floor; stop rather than spin.
		if count == 0 {
			return totalDeleted, nil
		}
	}
}

// GetMeta reads a process marker from the meta table. Returns "" when
// the key is absent.
func GetMeta(database *sql.DB, key string) (string, error) {
	var value string
	err := database.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", errors.NewStorageFailure(err)
	}
	return value, nil
}

// SetMeta writes a process marker.
func SetMeta(database *sql.DB, key, value string) error {
	_, err := database.Exec(
		`INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`, key, value)
	if err != nil {
		return errors.NewStorageFailure(err)
	}
	return nil
}

// scanRecord scans the canonical column list into a Record.
func scanRecord(rows *sql.Rows) (*notification.Record, error) {
	var (
		r                     notification.Record
		title                 sql.NullString
		text                  sql.NullString
		subText               sql.NullString
		infoText              sql.NullString
		summaryText           sql.NullString
		smallIcon             sql.NullString
		largeIcon             sql.NullString
		appIcon               sql.NullString
		actionsJSON           string
		bigText               sql.NullString
		bigPicture            sql.NullString
		pictureDesc           sql.NullString
		inboxJSON             string
		conversationTitle     sql.NullString
		messagesJSON          string
		progress              int
		progressMax           int
		progressIndeterminate bool
		callerName            sql.NullString
		style                 string
	)

	err := rows.Scan(
		&r.ID, &r.PackageName, &r.AppName, &title, &text, &subText,
		&infoText, &summaryText, &r.PostTime, &smallIcon, &largeIcon,
		&appIcon, &r.Category, &style, &r.GroupKey, &r.IsGroupSummary,
		&r.ChannelID, &actionsJSON, &r.IsOngoing, &r.AutoCancel,
		&r.IsLocalOnly, &r.Priority, &r.Number, &bigText, &bigPicture,
		&pictureDesc, &inboxJSON, &conversationTitle,
		&r.IsGroupConversation, &messagesJSON, &progress, &progressMax,
		&progressIndeterminate, &callerName,
	)
	if err != nil {
		return nil, err
	}

	r.Style = notification.Style(style)
	r.Title = fromNullString(title)
	r.Text = fromNullString(text)
	r.SubText = fromNullString(subText)
	r.InfoText = fromNullString(infoText)
	r.SummaryText = fromNullString(summaryText)
	r.SmallIcon = fromNullString(smallIcon)
	r.LargeIcon = fromNullString(largeIcon)
	r.AppIcon = fromNullString(appIcon)
	r.BigText = fromNullString(bigText)
	r.BigPicture = fromNullString(bigPicture)
	r.PictureContentDescription = fromNullString(pictureDesc)
	r.ConversationTitle = fromNullString(conversationTitle)
	r.CallerName = fromNullString(callerName)

	if err := json.Unmarshal([]byte(actionsJSON), &r.Actions); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(inboxJSON), &r.InboxLines); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(messagesJSON), &r.Messages); err != nil {
		return nil, err
	}

	if progressMax > 0 {
		r.Progress = &notification.Progress{
			Current:       progress,
			Max:           progressMax,
			Indeterminate: progressIndeterminate,
		}
	}

	r.EnsureDefaults()
	return &r, nil
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts a sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
