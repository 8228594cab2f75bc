package ops

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/whyash5114/notistore/internal/db"
	"github.com/whyash5114/notistore/internal/errors"
)

// exportPageSize is how many records one export query fetches.
const exportPageSize = 500

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	// Path of the JSONL file to write. Defaults to
	// <baseDir>/exports/notifications-<timestamp>.jsonl.
	Path string `json:"path,omitempty"`
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exportedAt"`
}

// ExportHeader is the first line of a JSONL export file.
type ExportHeader struct {
	NotistoreExport bool  `json:"_notistore_export"`
	SchemaVersion   int   `json:"schema_version"`
	ExportedAt      int64 `json:"exported_at"`
}

// Export writes all stored notifications to a JSONL file, newest first,
// one record per line after the header. The write goes through a temp
// file and an atomic rename so a failure never clobbers an existing
// export.
func Export(database *sql.DB, baseDir string, input ExportInput) (*ExportOutput, error) {
	now := time.Now()

	exportPath := input.Path
	if exportPath == "" {
		exportPath = filepath.Join(baseDir, "exports",
			fmt.Sprintf("notifications-%s.jsonl", now.Format("20060102-150405")))
	}

	if err := ValidatePath(exportPath, PathCheckWrite); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(exportPath), 0o700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := exportPath + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	header := ExportHeader{
		NotistoreExport: true,
		SchemaVersion:   db.CurrentSchemaVersion,
		ExportedAt:      now.Unix(),
	}
	if err := writeJSONLine(file, header); err != nil {
		return nil, err
	}

	count := 0
	var cursor *db.PageCursor
	for {
		records, err := db.GetPage(database, cursor, exportPageSize)
		if err != nil {
			return nil, err
		}
		for _, record := range records {
			if err := writeJSONLine(file, record); err != nil {
				return nil, err
			}
			count++
		}
		if len(records) < exportPageSize {
			break
		}
		last := records[len(records)-1]
		cursor = &db.PageCursor{PostTime: last.PostTime, ID: last.ID}
	}

	if err := file.Close(); err != nil {
		file = nil
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export file: %w", err))
	}
	file = nil

	if err := os.Rename(tempPath, exportPath); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to move export file into place: %w", err))
	}
	success = true

	return &ExportOutput{
		Path:       exportPath,
		Count:      count,
		ExportedAt: now.Unix(),
	}, nil
}

func writeJSONLine(file *os.File, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.NewInternal(err)
	}
	if _, err := file.Write(append(data, '\n')); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}
