package notify

import "errors"

var (
	// ErrNotifyFailed wraps every delivery failure.
	ErrNotifyFailed = errors.New("notify: publish failed")

	// ErrUnsupportedTopic indicates a topic whose scheme has no notifier.
	ErrUnsupportedTopic = errors.New("notify: unsupported topic")
)
