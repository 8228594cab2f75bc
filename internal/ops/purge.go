package ops

import (
	"database/sql"

	"github.com/whyash5114/notistore/internal/db"
)

// PurgeOutput contains the result of the Purge operation.
type PurgeOutput struct {
	Deleted int64 `json:"deleted"`
}

// Purge deletes every stored notification. Settings and the backfill
// marker survive; only history is removed.
func Purge(database *sql.DB) (*PurgeOutput, error) {
	count, err := db.TotalCount(database)
	if err != nil {
		return nil, err
	}
	if err := db.DeleteAll(database); err != nil {
		return nil, err
	}
	return &PurgeOutput{Deleted: count}, nil
}
