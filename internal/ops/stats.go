package ops

import (
	"database/sql"

	"github.com/whyash5114/notistore/internal/db"
)

// CountOutput contains the result of the Count operation.
type CountOutput struct {
	Count int64 `json:"count"`
}

// Count returns the number of stored notifications.
func Count(database *sql.DB) (*CountOutput, error) {
	count, err := db.TotalCount(database)
	if err != nil {
		return nil, err
	}
	return &CountOutput{Count: count}, nil
}

// SizeOutput contains the result of the Size operation.
type SizeOutput struct {
	Bytes     int64   `json:"bytes"`
	Megabytes float64 `json:"megabytes"`
}

// Size returns the aggregate stored text size, the same measure the
// storage budget is enforced against.
func Size(database *sql.DB) (*SizeOutput, error) {
	bytes, err := db.AggregateSizeBytes(database)
	if err != nil {
		return nil, err
	}
	return &SizeOutput{
		Bytes:     bytes,
		Megabytes: float64(bytes) / (1024 * 1024),
	}, nil
}
