package listener

import "context"

// AppInfo describes one installed application.
type AppInfo struct {
	PackageName string
	AppName     string
	Icon        any // opaque icon handle, nil when unavailable
	IsSystemApp bool
}

// Platform is the host-side collaborator for everything outside the
// notification stream itself: the system permission screen, the access
// check, and the installed-app listing.
type Platform interface {
	// OpenAccessSettings directs the user to the system screen where
	// listener access is granted. It returns when control comes back,
	// reporting whether access is enabled at that point.
	OpenAccessSettings(ctx context.Context) (enabled bool, err error)

	// AccessEnabled reports whether the listener has been granted access.
	AccessEnabled() bool

	// InstalledApps lists the applications installed on the device.
	InstalledApps() ([]AppInfo, error)
}
