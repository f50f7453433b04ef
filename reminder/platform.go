package reminder

import (
	"fmt"
	"strings"
)

// Platform describes whether the runtime can schedule local notifications.
type Platform string

const (
	// PlatformNative can schedule local notifications.
	PlatformNative Platform = "native"

	// PlatformWeb cannot; reminders are kept for display only.
	PlatformWeb Platform = "web"
)

// ParsePlatform parses a platform name. Empty means native.
func ParsePlatform(value string) (Platform, error) {
	switch Platform(strings.ToLower(strings.TrimSpace(value))) {
	case "", PlatformNative:
		return PlatformNative, nil
	case PlatformWeb:
		return PlatformWeb, nil
	default:
		return "", fmt.Errorf("invalid platform %q: must be native or web", value)
	}
}

// SupportsScheduling reports whether local notifications can be scheduled.
func (p Platform) SupportsScheduling() bool {
	return p != PlatformWeb
}
