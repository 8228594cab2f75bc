package ops

import (
	"context"

	"github.com/whyash5114/notistore/internal/errors"
	"github.com/whyash5114/notistore/internal/listener"
)

// AccessOutput contains the result of the access operations.
type AccessOutput struct {
	Enabled bool `json:"enabled"`
	Opened  bool `json:"opened,omitempty"`
}

// IsAccessEnabled reports whether notification access is granted.
func IsAccessEnabled(platform listener.Platform) (*AccessOutput, error) {
	if platform == nil {
		return nil, errors.NewServiceNotConnected()
	}
	return &AccessOutput{Enabled: platform.AccessEnabled()}, nil
}

// OpenAccessSettings asks the platform to surface its notification
// access settings screen. Opened reports whether the screen was shown;
// Enabled reflects the grant state at call time, not after the user
// acts on the screen.
func OpenAccessSettings(ctx context.Context, platform listener.Platform) (*AccessOutput, error) {
	if platform == nil {
		return nil, errors.NewServiceNotConnected()
	}

	opened, err := platform.OpenAccessSettings(ctx)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return &AccessOutput{
		Enabled: platform.AccessEnabled(),
		Opened:  opened,
	}, nil
}
