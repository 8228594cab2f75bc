// Package db owns the durable notification store: a single SQLite
// database holding every normalized record plus a small meta table for
// process markers.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 2

// Init opens (and if necessary creates) the SQLite database at
// baseDir/notifications.db. The baseDir parameter lets tests use
// t.TempDir() instead of the per-process shared handle.
func Init(baseDir string) (*sql.DB, error) {
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	_ = os.Chmod(baseDir, 0o700)

	dbPath := filepath.Join(baseDir, "notifications.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	database, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(database); err != nil {
		database.Close()
		return nil, err
	}

	if err := migrate(database); err != nil {
		database.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0o600)

	return database, nil
}

var (
	sharedOnce sync.Once
	sharedDB   *sql.DB
	sharedErr  error
)

// Shared returns the process-wide store handle, opening it on first
// call. Concurrent first callers race safely: sync.Once guarantees a
// single live handle for the process lifetime. The handle is never
// closed in normal operation.
func Shared(baseDir string) (*sql.DB, error) {
	sharedOnce.Do(func() {
		sharedDB, sharedErr = Init(baseDir)
	})
	return sharedDB, sharedErr
}

// migrate applies schema migrations based on user_version.
func migrate(database *sql.DB) error {
	version, err := GetUserVersion(database)
	if err != nil {
		return err
	}

	// A database written by a newer build: schema evolution logic for
	// it does not exist here, so fall back to a destructive rebuild.
	// Callers needing history across a downgrade export it first.
	if version > CurrentSchemaVersion {
		if _, err := database.Exec(`DROP TABLE IF EXISTS notifications; DROP TABLE IF EXISTS meta;`); err != nil {
			return fmt.Errorf("destructive migration failed: %w", err)
		}
		if err := SetUserVersion(database, 0); err != nil {
			return err
		}
		version = 0
	}

	// Migration 0 -> 1: original schema with an integer rowid key.
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS notifications (
		  id                          INTEGER PRIMARY KEY AUTOINCREMENT,
		  package_name                TEXT NOT NULL DEFAULT '',
		  app_name                    TEXT NOT NULL DEFAULT '',
		  title                       TEXT,
		  text                        TEXT,
		  sub_text                    TEXT,
		  info_text                   TEXT,
		  summary_text                TEXT,
		  post_time                   INTEGER NOT NULL,
		  small_icon                  TEXT,
		  large_icon                  TEXT,
		  app_icon                    TEXT,
		  category                    TEXT NOT NULL DEFAULT 'unknown',
		  style                       TEXT NOT NULL DEFAULT 'default',
		  group_key                   TEXT NOT NULL DEFAULT '',
		  is_group_summary            INTEGER NOT NULL DEFAULT 0,
		  channel_id                  TEXT NOT NULL DEFAULT '',
		  actions_json                TEXT NOT NULL DEFAULT '[]',
		  is_ongoing                  INTEGER NOT NULL DEFAULT 0,
		  auto_cancel                 INTEGER NOT NULL DEFAULT 0,
		  is_local_only               INTEGER NOT NULL DEFAULT 0,
		  priority                    INTEGER NOT NULL DEFAULT 0,
		  number                      INTEGER NOT NULL DEFAULT 0,
		  big_text                    TEXT,
		  big_picture                 TEXT,
		  picture_content_description TEXT,
		  inbox_lines_json            TEXT NOT NULL DEFAULT '[]',
		  conversation_title          TEXT,
		  is_group_conversation       INTEGER NOT NULL DEFAULT 0,
		  messages_json               TEXT NOT NULL DEFAULT '[]',
		  progress                    INTEGER NOT NULL DEFAULT 0,
		  progress_max                INTEGER NOT NULL DEFAULT 0,
		  progress_indeterminate      INTEGER NOT NULL DEFAULT 0,
		  caller_name                 TEXT
		);
		`
		if _, err := database.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(database, 1); err != nil {
			return err
		}
	}

	// Migration 1 -> 2: rebuild with a TEXT primary key so record ids
	// survive export/import across devices. Existing rows get opaque
	// generated ids, preserving history.
	if version < 2 {
		steps := `
		CREATE TABLE notifications_new (
		  id                          TEXT PRIMARY KEY,
		  package_name                TEXT NOT NULL DEFAULT '',
		  app_name                    TEXT NOT NULL DEFAULT '',
		  title                       TEXT,
		  text                        TEXT,
		  sub_text                    TEXT,
		  info_text                   TEXT,
		  summary_text                TEXT,
		  post_time                   INTEGER NOT NULL,
		  small_icon                  TEXT,
		  large_icon                  TEXT,
		  app_icon                    TEXT,
		  category                    TEXT NOT NULL DEFAULT 'unknown',
		  style                       TEXT NOT NULL DEFAULT 'default',
		  group_key                   TEXT NOT NULL DEFAULT '',
		  is_group_summary            INTEGER NOT NULL DEFAULT 0,
		  channel_id                  TEXT NOT NULL DEFAULT '',
		  actions_json                TEXT NOT NULL DEFAULT '[]',
		  is_ongoing                  INTEGER NOT NULL DEFAULT 0,
		  auto_cancel                 INTEGER NOT NULL DEFAULT 0,
		  is_local_only               INTEGER NOT NULL DEFAULT 0,
		  priority                    INTEGER NOT NULL DEFAULT 0,
		  number                      INTEGER NOT NULL DEFAULT 0,
		  big_text                    TEXT,
		  big_picture                 TEXT,
		  picture_content_description TEXT,
		  inbox_lines_json            TEXT NOT NULL DEFAULT '[]',
		  conversation_title          TEXT,
		  is_group_conversation       INTEGER NOT NULL DEFAULT 0,
		  messages_json               TEXT NOT NULL DEFAULT '[]',
		  progress                    INTEGER NOT NULL DEFAULT 0,
		  progress_max                INTEGER NOT NULL DEFAULT 0,
		  progress_indeterminate      INTEGER NOT NULL DEFAULT 0,
		  caller_name                 TEXT
		);

		INSERT INTO notifications_new
		SELECT lower(hex(randomblob(16))), package_name, app_name, title, text,
		       sub_text, info_text, summary_text, post_time, small_icon,
		       large_icon, app_icon, category, style, group_key,
		       is_group_summary, channel_id, actions_json, is_ongoing,
		       auto_cancel, is_local_only, priority, number, big_text,
		       big_picture, picture_content_description, inbox_lines_json,
		       conversation_title, is_group_conversation, messages_json,
		       progress, progress_max, progress_indeterminate, caller_name
		FROM notifications;

		DROP TABLE notifications;
		ALTER TABLE notifications_new RENAME TO notifications;

		CREATE INDEX IF NOT EXISTS idx_notifications_post_time
		ON notifications(post_time DESC);

		CREATE INDEX IF NOT EXISTS idx_notifications_package
		ON notifications(package_name);

		CREATE TABLE IF NOT EXISTS meta (
		  key   TEXT PRIMARY KEY,
		  value TEXT NOT NULL
		);
		`
		if _, err := database.Exec(steps); err != nil {
			return fmt.Errorf("migration 2 failed: %w", err)
		}
		if err := SetUserVersion(database, 2); err != nil {
			return err
		}
	}

	// Future migrations go here:
	// if version < 3 { ... }

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(database *sql.DB) error {
	var journalMode string
	if err := database.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(database *sql.DB) (int, error) {
	var version int
	if err := database.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(database *sql.DB, version int) error {
	_, err := database.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
