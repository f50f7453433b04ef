package reminder

import "errors"

var (
	// ErrPermissionDenied is reported when notification permission was
	// not granted. The desired reminders are discarded.
	ErrPermissionDenied = errors.New("notification permission denied")

	// ErrUnsupportedPlatform is reported when the runtime cannot schedule
	// local notifications. Reminders are kept as display-only entries.
	ErrUnsupportedPlatform = errors.New("reminders are not supported on this platform")

	// ErrScheduleFailed wraps a scheduler failure for a single reminder.
	ErrScheduleFailed = errors.New("schedule reminder")

	// ErrCancelFailed wraps a scheduler failure while cancelling a handle.
	ErrCancelFailed = errors.New("cancel reminder")
)
