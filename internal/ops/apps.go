package ops

import (
	"github.com/whyash5114/notistore/internal/errors"
	"github.com/whyash5114/notistore/internal/iconcodec"
	"github.com/whyash5114/notistore/internal/listener"
)

// AppEntry is one installed application.
type AppEntry struct {
	PackageName string  `json:"packageName"`
	AppName     string  `json:"appName"`
	Icon        *string `json:"icon,omitempty"`
	IsSystemApp bool    `json:"isSystemApp"`
}

// InstalledAppsInput contains parameters for the InstalledApps operation.
type InstalledAppsInput struct {
	// IncludeIcons controls whether launcher icons are encoded into the
	// response. Icons dominate the payload size; callers that only need
	// labels should leave this false.
	IncludeIcons bool `json:"includeIcons,omitempty"`
}

// InstalledAppsOutput contains the result of the InstalledApps operation.
type InstalledAppsOutput struct {
	Apps  []AppEntry `json:"apps"`
	Count int        `json:"count"`
}

// InstalledApps lists the applications known to the platform, for use
// as app-name filter values.
func InstalledApps(platform listener.Platform, codec iconcodec.Codec, input InstalledAppsInput) (*InstalledAppsOutput, error) {
	if platform == nil {
		return nil, errors.NewServiceNotConnected()
	}

	infos, err := platform.InstalledApps()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	apps := make([]AppEntry, 0, len(infos))
	for _, info := range infos {
		entry := AppEntry{
			PackageName: info.PackageName,
			AppName:     info.AppName,
			IsSystemApp: info.IsSystemApp,
		}
		if input.IncludeIcons {
			entry.Icon = iconcodec.EncodeOrNil(codec, info.Icon)
		}
		apps = append(apps, entry)
	}

	return &InstalledAppsOutput{Apps: apps, Count: len(apps)}, nil
}
