package screenshare

import "errors"

var (
	// ErrNotEnabled is returned by Toggle when the chat does not allow
	// screen share.
	ErrNotEnabled = errors.New("screen share is not enabled for current chat status")
	// ErrAlreadyStarting is returned by Toggle while a session is pending.
	ErrAlreadyStarting = errors.New("screen share is already starting")
	// ErrServiceUnavailable is returned by Toggle when the session manager
	// reports no usable state.
	ErrServiceUnavailable = errors.New("screen share service is not available")
	// ErrClosed is returned by Toggle after Close.
	ErrClosed = errors.New("screen share coordinator closed")
)
