package ops

import (
	"bufio"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/whyash5114/notistore/internal/config"
	"github.com/whyash5114/notistore/internal/db"
	"github.com/whyash5114/notistore/internal/errors"
	"github.com/whyash5114/notistore/internal/notification"
)

// ImportInput contains parameters for the Import operation. Exactly one
// of Path or Notifications must be set.
type ImportInput struct {
	Path          string                 `json:"path,omitempty"`
	Notifications []*notification.Record `json:"notifications,omitempty"`
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Evicted  int64         `json:"evicted,omitempty"`
	Errors   []ImportError `json:"errors,omitempty"`
}

// ImportError describes one skipped line or batch entry.
type ImportError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// Import loads notifications from a JSONL export file or from an inline
// batch. Malformed entries are skipped and reported, never fatal;
// records sharing an id with a stored record replace it; records
// without an id get a fresh one. The storage budget is enforced once
// after the whole batch, so an oversized import converges the same way
// live ingestion does.
func Import(database *sql.DB, settings *config.Manager, input ImportInput) (*ImportOutput, error) {
	hasPath := input.Path != ""
	hasBatch := len(input.Notifications) > 0
	if hasPath == hasBatch {
		return nil, errors.NewInvalidRequest("exactly one of path or notifications is required")
	}

	output := &ImportOutput{}
	if hasPath {
		if err := importFile(database, input.Path, output); err != nil {
			return nil, err
		}
	} else {
		importBatch(database, input.Notifications, output)
	}

	if limit := settings.Get().StorageLimitBytes(); limit > 0 {
		evicted, err := db.EnforceStorageLimit(database, limit)
		if err != nil {
			return nil, err
		}
		output.Evicted = evicted
	}

	return output, nil
}

func importFile(database *sql.DB, path string, output *ImportOutput) error {
	if err := ValidatePath(path, PathCheckRead); err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		// The header line is metadata, not a record.
		if lineNum == 1 {
			var header map[string]any
			if json.Unmarshal(line, &header) == nil {
				if _, ok := header["_notistore_export"]; ok {
					continue
				}
			}
		}

		var record notification.Record
		if err := json.Unmarshal(line, &record); err != nil {
			output.Skipped++
			output.Errors = append(output.Errors, ImportError{
				Line:    lineNum,
				Message: err.Error(),
			})
			continue
		}
		if record.ID == "" {
			record.ID = uuid.NewString()
		}
		record.EnsureDefaults()

		if err := db.InsertOrReplace(database, &record); err != nil {
			output.Skipped++
			output.Errors = append(output.Errors, ImportError{
				Line:    lineNum,
				Message: err.Error(),
			})
			continue
		}
		output.Imported++
	}
	if err := scanner.Err(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to read import file: %w", err))
	}
	return nil
}

// importBatch stores inline records. Entry numbering in the error
// report is 1-based, matching the line numbers of file imports.
func importBatch(database *sql.DB, batch []*notification.Record, output *ImportOutput) {
	for i, src := range batch {
		if src == nil {
			output.Skipped++
			output.Errors = append(output.Errors, ImportError{
				Line:    i + 1,
				Message: "null record",
			})
			continue
		}

		record := *src
		if record.ID == "" {
			record.ID = uuid.NewString()
		}
		record.EnsureDefaults()

		if err := db.InsertOrReplace(database, &record); err != nil {
			output.Skipped++
			output.Errors = append(output.Errors, ImportError{
				Line:    i + 1,
				Message: err.Error(),
			})
			continue
		}
		output.Imported++
	}
}
