package ops

import (
	"database/sql"

	"github.com/whyash5114/notistore/internal/config"
	"github.com/whyash5114/notistore/internal/db"
	"github.com/whyash5114/notistore/internal/errors"
)

// ConfigOutput is the externally visible settings snapshot.
// StorageLimitMB is nil when storage is unlimited.
type ConfigOutput struct {
	FilterOngoing   bool     `json:"filterOngoing"`
	FilterTransport bool     `json:"filterTransport"`
	LogProgress     bool     `json:"logProgress"`
	StorageLimitMB  *float64 `json:"storageLimitMb"`
}

func snapshotConfig(cfg config.Config) *ConfigOutput {
	out := &ConfigOutput{
		FilterOngoing:   cfg.FilterOngoing,
		FilterTransport: cfg.FilterTransport,
		LogProgress:     cfg.LogProgress,
	}
	if cfg.HasStorageLimit() {
		limit := cfg.StorageLimitMB
		out.StorageLimitMB = &limit
	}
	return out
}

// GetConfig returns the current settings.
func GetConfig(settings *config.Manager) (*ConfigOutput, error) {
	cfg := settings.Get()
	return snapshotConfig(cfg), nil
}

// SetConfigInput contains parameters for the SetConfig operation. Only
// present fields change; a StorageLimitMB of zero or below clears the
// budget (unlimited).
type SetConfigInput struct {
	FilterOngoing   *bool    `json:"filterOngoing,omitempty"`
	FilterTransport *bool    `json:"filterTransport,omitempty"`
	LogProgress     *bool    `json:"logProgress,omitempty"`
	StorageLimitMB  *float64 `json:"storageLimitMb,omitempty"`
}

// SetConfigOutput contains the updated settings plus how many records a
// tightened storage budget evicted.
type SetConfigOutput struct {
	Config  *ConfigOutput `json:"config"`
	Evicted int64         `json:"evicted,omitempty"`
}

// SetConfig applies a partial settings update and persists it. When the
// update tightens the storage budget the excess is evicted immediately
// rather than waiting for the next ingestion.
func SetConfig(database *sql.DB, settings *config.Manager, input SetConfigInput) (*SetConfigOutput, error) {
	err := settings.Update(func(cfg *config.Config) {
		if input.FilterOngoing != nil {
			cfg.FilterOngoing = *input.FilterOngoing
		}
		if input.FilterTransport != nil {
			cfg.FilterTransport = *input.FilterTransport
		}
		if input.LogProgress != nil {
			cfg.LogProgress = *input.LogProgress
		}
		if input.StorageLimitMB != nil {
			cfg.StorageLimitMB = *input.StorageLimitMB
		}
	})
	if err != nil {
		return nil, errors.NewConfigFailure(err)
	}

	output := &SetConfigOutput{Config: snapshotConfig(settings.Get())}

	if limit := settings.Get().StorageLimitBytes(); limit > 0 {
		evicted, err := db.EnforceStorageLimit(database, limit)
		if err != nil {
			return nil, err
		}
		output.Evicted = evicted
	}

	return output, nil
}
